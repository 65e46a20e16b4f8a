package extraction

import (
	"fmt"
	"strings"

	"social-pilot/models"
)

// FillVisualIdentity replaces empty visual identity fields with stated
// assumptions built from tone, category and visual direction.
func FillVisualIdentity(p *models.Profile, s models.Strategy) {
	tone := strings.ToLower(p.Tone)
	if tone == "" {
		tone = "friendly"
	}
	category := p.Category
	if category == "" {
		category = "consumer app"
	}

	vi := &p.VisualIdentity
	if vi.Style == "" {
		if s.VisualDirection != "" {
			vi.Style = fmt.Sprintf("Assumed: %s", s.VisualDirection)
		} else {
			vi.Style = fmt.Sprintf("Assumed: clean, modern %s visuals with a %s feel", category, tone)
		}
	}
	if vi.Colors == "" {
		vi.Colors = fmt.Sprintf("Assumed: %s", paletteFor(tone))
	}
	if vi.Mood == "" {
		vi.Mood = fmt.Sprintf("Assumed: %s and approachable, matching a %s tone", tone, tone)
	}
}

func paletteFor(tone string) string {
	switch {
	case containsAny(tone, "playful", "fun", "energetic", "bold"):
		return "bright primaries with one saturated accent on a light background"
	case containsAny(tone, "calm", "warm", "friendly", "supportive"):
		return "soft warm neutrals with a muted green accent"
	case containsAny(tone, "professional", "serious", "premium", "expert"):
		return "deep navy and charcoal with a single gold accent"
	}
	return "neutral off-white background with one brand accent colour"
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
