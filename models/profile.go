package models

import "strings"

// Profile is the structured description of a product produced by extraction.
type Profile struct {
	Name             string            `bson:"name" json:"name"`
	Tagline          string            `bson:"tagline" json:"tagline"`
	Category         string            `bson:"category" json:"category"`
	CoreValue        string            `bson:"core_value" json:"coreValue"`
	Features         []string          `bson:"features" json:"features"`
	Audience         Audience          `bson:"audience" json:"audience"`
	Tone             string            `bson:"tone" json:"tone"`
	VisualIdentity   VisualIdentity    `bson:"visual_identity" json:"visualIdentity"`
	Differentiators  []string          `bson:"differentiators" json:"differentiators"`
	PricePositioning string            `bson:"price_positioning" json:"pricePositioning"`
	BrandPersonality BrandPersonality  `bson:"brand_personality" json:"brandPersonality"`
	CustomerSegments []CustomerSegment `bson:"customer_segments" json:"customerSegments"`
	BrandStory       string            `bson:"brand_story" json:"brandStory"`
}

type Audience struct {
	Primary        string `bson:"primary" json:"primary"`
	Demographics   string `bson:"demographics" json:"demographics"`
	Psychographics string `bson:"psychographics" json:"psychographics"`
}

type VisualIdentity struct {
	Style  string `bson:"style" json:"style"`
	Colors string `bson:"colors" json:"colors"`
	Mood   string `bson:"mood" json:"mood"`
}

type BrandPersonality struct {
	Dos   []string `bson:"dos" json:"dos"`
	Donts []string `bson:"donts" json:"donts"`
}

type CustomerSegment struct {
	Name  string `bson:"name" json:"name"`
	Needs string `bson:"needs" json:"needs"`
	Angle string `bson:"angle" json:"angle"`
}

// Normalize trims every string and replaces nil lists with empty ones so the
// rest of the pipeline never has to tell "absent" from "empty".
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Tagline = strings.TrimSpace(p.Tagline)
	p.Category = strings.TrimSpace(p.Category)
	p.CoreValue = strings.TrimSpace(p.CoreValue)
	p.Features = cleanList(p.Features)
	p.Audience.Primary = strings.TrimSpace(p.Audience.Primary)
	p.Audience.Demographics = strings.TrimSpace(p.Audience.Demographics)
	p.Audience.Psychographics = strings.TrimSpace(p.Audience.Psychographics)
	p.Tone = strings.TrimSpace(p.Tone)
	p.VisualIdentity.Style = strings.TrimSpace(p.VisualIdentity.Style)
	p.VisualIdentity.Colors = strings.TrimSpace(p.VisualIdentity.Colors)
	p.VisualIdentity.Mood = strings.TrimSpace(p.VisualIdentity.Mood)
	p.Differentiators = cleanList(p.Differentiators)
	p.PricePositioning = strings.TrimSpace(p.PricePositioning)
	p.BrandPersonality.Dos = cleanList(p.BrandPersonality.Dos)
	p.BrandPersonality.Donts = cleanList(p.BrandPersonality.Donts)
	p.BrandStory = strings.TrimSpace(p.BrandStory)

	segments := make([]CustomerSegment, 0, len(p.CustomerSegments))
	for _, s := range p.CustomerSegments {
		s.Name = strings.TrimSpace(s.Name)
		s.Needs = strings.TrimSpace(s.Needs)
		s.Angle = strings.TrimSpace(s.Angle)
		if s.Name == "" && s.Needs == "" {
			continue
		}
		segments = append(segments, s)
	}
	p.CustomerSegments = segments
}

// cleanList trims entries and drops empty ones. It never returns nil.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
