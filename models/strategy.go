package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type HookCategory string

const (
	HookCuriosity   HookCategory = "curiosity"
	HookPain        HookCategory = "pain"
	HookDesire      HookCategory = "desire"
	HookSocialProof HookCategory = "social-proof"
	HookContrarian  HookCategory = "contrarian"
)

func (c HookCategory) Valid() bool {
	switch c {
	case HookCuriosity, HookPain, HookDesire, HookSocialProof, HookContrarian:
		return true
	}
	return false
}

type ObjectionStage string

const (
	StageAwareness     ObjectionStage = "awareness"
	StageConsideration ObjectionStage = "consideration"
	StageDecision      ObjectionStage = "decision"
)

func (s ObjectionStage) Valid() bool {
	switch s {
	case StageAwareness, StageConsideration, StageDecision:
		return true
	}
	return false
}

// Strategy is the content-marketing plan produced by extraction.
type Strategy struct {
	Hooks           []Hook      `bson:"hooks" json:"hooks"`
	Themes          []string    `bson:"themes" json:"themes"`
	ContentPillars  []string    `bson:"content_pillars" json:"contentPillars"`
	PainPoints      []string    `bson:"pain_points" json:"painPoints"`
	DesirePoints    []string    `bson:"desire_points" json:"desirePoints"`
	Objections      []Objection `bson:"objections" json:"objections"`
	ToneGuidelines  string      `bson:"tone_guidelines" json:"toneGuidelines"`
	VoiceRules      []string    `bson:"voice_rules" json:"voiceRules"`
	CTAStrategies   []CTA       `bson:"cta_strategies" json:"ctaStrategies"`
	VisualDirection string      `bson:"visual_direction" json:"visualDirection"`
}

type Hook struct {
	Text     string       `bson:"text" json:"text"`
	Category HookCategory `bson:"category" json:"category"`
}

type Objection struct {
	Objection string         `bson:"objection" json:"objection"`
	Counter   string         `bson:"counter" json:"counter"`
	Stage     ObjectionStage `bson:"stage" json:"stage"`
}

type CTA struct {
	Goal    string `bson:"goal" json:"goal"`
	Text    string `bson:"text" json:"text"`
	Context string `bson:"context" json:"context"`
}

type hookFields struct {
	Text     string       `bson:"text" json:"text"`
	Category HookCategory `bson:"category" json:"category"`
}

// UnmarshalJSON accepts both the categorized object and the legacy plain string.
func (h *Hook) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*h = Hook{Text: text}
		return nil
	}
	var f hookFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*h = Hook(f)
	return nil
}

// UnmarshalBSONValue does the same upgrade for documents written before
// hooks were categorized.
func (h *Hook) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.String:
		var text string
		if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&text); err != nil {
			return err
		}
		*h = Hook{Text: text}
		return nil
	case bsontype.EmbeddedDocument:
		var f hookFields
		if err := bson.Unmarshal(data, &f); err != nil {
			return err
		}
		*h = Hook(f)
		return nil
	case bsontype.Null, bsontype.Undefined:
		*h = Hook{}
		return nil
	}
	return fmt.Errorf("hook: unsupported bson type %s", t)
}

// Normalize upgrades legacy shapes and fills defaults: uncategorized hooks
// become curiosity hooks, unstaged objections sit at consideration.
func (s *Strategy) Normalize() {
	hooks := make([]Hook, 0, len(s.Hooks))
	for _, h := range s.Hooks {
		h.Text = strings.TrimSpace(h.Text)
		if h.Text == "" {
			continue
		}
		h.Category = HookCategory(strings.ToLower(strings.TrimSpace(string(h.Category))))
		if h.Category == "socialproof" || h.Category == "social_proof" || h.Category == "social proof" {
			h.Category = HookSocialProof
		}
		if !h.Category.Valid() {
			h.Category = HookCuriosity
		}
		hooks = append(hooks, h)
	}
	s.Hooks = hooks

	objections := make([]Objection, 0, len(s.Objections))
	for _, o := range s.Objections {
		o.Objection = strings.TrimSpace(o.Objection)
		o.Counter = strings.TrimSpace(o.Counter)
		if o.Objection == "" {
			continue
		}
		o.Stage = ObjectionStage(strings.ToLower(strings.TrimSpace(string(o.Stage))))
		if !o.Stage.Valid() {
			o.Stage = StageConsideration
		}
		objections = append(objections, o)
	}
	s.Objections = objections

	ctas := make([]CTA, 0, len(s.CTAStrategies))
	for _, c := range s.CTAStrategies {
		c.Goal = strings.TrimSpace(c.Goal)
		c.Text = strings.TrimSpace(c.Text)
		c.Context = strings.TrimSpace(c.Context)
		if c.Text == "" {
			continue
		}
		ctas = append(ctas, c)
	}
	s.CTAStrategies = ctas

	s.Themes = cleanList(s.Themes)
	s.ContentPillars = cleanList(s.ContentPillars)
	s.PainPoints = cleanList(s.PainPoints)
	s.DesirePoints = cleanList(s.DesirePoints)
	s.VoiceRules = cleanList(s.VoiceRules)
	s.ToneGuidelines = strings.TrimSpace(s.ToneGuidelines)
	s.VisualDirection = strings.TrimSpace(s.VisualDirection)
}

// HookTexts returns the hook texts in list order.
func (s Strategy) HookTexts() []string {
	out := make([]string, len(s.Hooks))
	for i, h := range s.Hooks {
		out[i] = h.Text
	}
	return out
}

// ObjectionTexts returns the objection texts in list order.
func (s Strategy) ObjectionTexts() []string {
	out := make([]string, len(s.Objections))
	for i, o := range s.Objections {
		out[i] = o.Objection
	}
	return out
}

// ParseProfile decodes JSON into a normalized Profile.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	p.Normalize()
	return p, nil
}

// ParseStrategy decodes JSON (current or legacy shape) into a normalized Strategy.
func ParseStrategy(data []byte) (Strategy, error) {
	var s Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		return Strategy{}, fmt.Errorf("decode strategy: %w", err)
	}
	s.Normalize()
	return s, nil
}
