package brain

import "social-pilot/models"

// UsageStats counts how often each targeting choice appeared in a product's posts.
type UsageStats struct {
	Hooks      map[string]int `json:"hooks"`
	Pillars    map[string]int `json:"pillars"`
	Pains      map[string]int `json:"pains"`
	Desires    map[string]int `json:"desires"`
	Objections map[string]int `json:"objections"`
}

func newUsageStats() UsageStats {
	return UsageStats{
		Hooks:      map[string]int{},
		Pillars:    map[string]int{},
		Pains:      map[string]int{},
		Desires:    map[string]int{},
		Objections: map[string]int{},
	}
}

// CountUsage aggregates provenance across posts. Target values are only
// counted when both type and value are set.
func CountUsage(posts []models.Post) UsageStats {
	stats := newUsageStats()
	for _, p := range posts {
		prov := p.Provenance
		if prov.HookUsed != "" {
			stats.Hooks[prov.HookUsed]++
		}
		if prov.PillarUsed != "" {
			stats.Pillars[prov.PillarUsed]++
		}
		if prov.TargetValue == "" {
			continue
		}
		switch prov.TargetType {
		case models.TargetPain:
			stats.Pains[prov.TargetValue]++
		case models.TargetDesire:
			stats.Desires[prov.TargetValue]++
		case models.TargetObjection:
			stats.Objections[prov.TargetValue]++
		}
	}
	return stats
}

// SuggestLeastUsed returns the first item with the smallest count.
// ok is false for an empty list.
func SuggestLeastUsed(items []string, usage map[string]int) (suggested string, ok bool) {
	if len(items) == 0 {
		return "", false
	}
	best := -1
	for _, item := range items {
		count := usage[item]
		if best < 0 || count < best {
			best = count
			suggested = item
		}
	}
	return suggested, true
}

// Available lists the candidates suggestions are drawn from.
type Available struct {
	Hooks      []models.Hook      `json:"hooks"`
	Pillars    []string           `json:"pillars"`
	Pains      []string           `json:"pains"`
	Desires    []string           `json:"desires"`
	Objections []models.Objection `json:"objections"`
}

type Suggestions struct {
	SuggestedHook      *string    `json:"suggestedHook"`
	SuggestedPillar    *string    `json:"suggestedPillar"`
	SuggestedPain      *string    `json:"suggestedPain"`
	SuggestedDesire    *string    `json:"suggestedDesire"`
	SuggestedObjection *string    `json:"suggestedObjection"`
	UsageStats         UsageStats `json:"usageStats"`
	Available          Available  `json:"available"`
}

// Suggest picks the least-used hook, pillar, pain, desire and objection
// for the next piece of content.
func Suggest(strategy models.Strategy, posts []models.Post) Suggestions {
	stats := CountUsage(posts)
	return Suggestions{
		SuggestedHook:      pick(strategy.HookTexts(), stats.Hooks),
		SuggestedPillar:    pick(strategy.ContentPillars, stats.Pillars),
		SuggestedPain:      pick(strategy.PainPoints, stats.Pains),
		SuggestedDesire:    pick(strategy.DesirePoints, stats.Desires),
		SuggestedObjection: pick(strategy.ObjectionTexts(), stats.Objections),
		UsageStats:         stats,
		Available: Available{
			Hooks:      nonNil(strategy.Hooks),
			Pillars:    nonNil(strategy.ContentPillars),
			Pains:      nonNil(strategy.PainPoints),
			Desires:    nonNil(strategy.DesirePoints),
			Objections: nonNil(strategy.Objections),
		},
	}
}

func pick(items []string, usage map[string]int) *string {
	s, ok := SuggestLeastUsed(items, usage)
	if !ok {
		return nil
	}
	return &s
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
