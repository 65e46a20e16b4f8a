package brain

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"social-pilot/models"
)

// Targeting holds the explicit choices a caller can force.
type Targeting struct {
	Hook        string            `json:"hook,omitempty"`
	Pillar      string            `json:"pillar,omitempty"`
	TargetType  models.TargetType `json:"targetType,omitempty"`
	TargetValue string            `json:"targetValue,omitempty"`
}

type PromptInput struct {
	Profile         models.Profile
	Strategy        models.Strategy
	ScreenshotCount int
	Platform        models.Platform
	ContentType     models.ContentType
	Targeting       Targeting
	// AccountHandle is "@username" of the linked account, if any.
	AccountHandle string
	// DisplayName overrides the profile name in copy.
	DisplayName string
}

type Prompt struct {
	System     string
	Provenance models.Provenance
}

// Assembler builds generation prompts. The random source decides hook and
// pillar when the caller did not force them.
type Assembler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAssembler uses src for random choices; nil seeds from the clock.
func NewAssembler(src rand.Source) *Assembler {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1)
	}
	return &Assembler{rng: rand.New(src)}
}

func (a *Assembler) intn(n int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.IntN(n)
}

// FilterHooks returns the hooks whose category suits the content type,
// or every hook when none match.
func FilterHooks(hooks []models.Hook, contentType models.ContentType) []models.Hook {
	prefs := hookPreferences[contentType]
	var pool []models.Hook
	for _, h := range hooks {
		for _, c := range prefs {
			if h.Category == c {
				pool = append(pool, h)
				break
			}
		}
	}
	if len(pool) == 0 {
		return hooks
	}
	return pool
}

func (a *Assembler) chooseHook(in PromptInput) string {
	if in.Targeting.Hook != "" {
		return in.Targeting.Hook
	}
	pool := FilterHooks(in.Strategy.Hooks, in.ContentType)
	if len(pool) == 0 {
		return ""
	}
	return pool[a.intn(len(pool))].Text
}

func (a *Assembler) choosePillar(in PromptInput) string {
	if in.Targeting.Pillar != "" {
		return in.Targeting.Pillar
	}
	if len(in.Strategy.ContentPillars) == 0 {
		return ""
	}
	return in.Strategy.ContentPillars[a.intn(len(in.Strategy.ContentPillars))]
}

// Build assembles the system instruction for one generation call.
func (a *Assembler) Build(in PromptInput) Prompt {
	hook := a.chooseHook(in)
	pillar := a.choosePillar(in)

	prov := models.Provenance{
		HookUsed:        hook,
		PillarUsed:      pillar,
		ToneConstraints: toneConstraints(in.Strategy),
		VisualDirection: in.Strategy.VisualDirection,
	}
	if in.Targeting.TargetType != "" && in.Targeting.TargetValue != "" {
		prov.TargetType = in.Targeting.TargetType
		prov.TargetValue = in.Targeting.TargetValue
	}

	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = in.Profile.Name
	}
	aspect := AspectRatio(in.Platform, in.ContentType)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a creative director producing a single %s %s for %s.\n\n", in.Platform, in.ContentType, name)

	b.WriteString("NAMING:\n")
	fmt.Fprintf(&b, "- The product is called \"%s\". Use exactly this name, never a variation or a made-up one.\n", name)
	if in.AccountHandle != "" {
		fmt.Fprintf(&b, "- The posting account is %s. Refer to it only by that handle.\n", in.AccountHandle)
	}
	b.WriteString("\n")

	b.WriteString("APP PROFILE:\n")
	b.WriteString(indentJSON(in.Profile))
	b.WriteString("\n\nMARKETING STRATEGY:\n")
	b.WriteString(indentJSON(in.Strategy))
	b.WriteString("\n\n")

	b.WriteString("CONTENT TARGETING:\n")
	if hook != "" {
		fmt.Fprintf(&b, "- Open with this hook angle (rephrase it in your own words): %s\n", hook)
	}
	if pillar != "" {
		fmt.Fprintf(&b, "- Content pillar: %s\n", pillar)
	}
	if prov.TargetType != "" {
		writeTarget(&b, in.Strategy, prov.TargetType, prov.TargetValue)
	}
	if hook == "" && pillar == "" && prov.TargetType == "" {
		b.WriteString("- Pick the strongest angle from the strategy.\n")
	}
	b.WriteString("\n")

	if segs := in.Profile.CustomerSegments; len(segs) > 0 {
		b.WriteString("CUSTOMER SEGMENTS (write for one of them):\n")
		for _, s := range segs {
			fmt.Fprintf(&b, "- %s: %s", s.Name, s.Needs)
			if s.Angle != "" {
				fmt.Fprintf(&b, " (angle: %s)", s.Angle)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	bp := in.Profile.BrandPersonality
	if len(bp.Dos) > 0 || len(bp.Donts) > 0 || len(in.Strategy.VoiceRules) > 0 {
		b.WriteString("BRAND VOICE:\n")
		for _, d := range bp.Dos {
			fmt.Fprintf(&b, "- Do: %s\n", d)
		}
		for _, d := range bp.Donts {
			fmt.Fprintf(&b, "- Don't: %s\n", d)
		}
		for _, r := range in.Strategy.VoiceRules {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	if ctas := MatchCTAs(in.Strategy.CTAStrategies, in.ContentType); len(ctas) > 0 {
		b.WriteString("CTA OPTIONS (adapt one, do not copy verbatim):\n")
		for _, c := range ctas {
			fmt.Fprintf(&b, "- [%s] %s", c.Goal, c.Text)
			if c.Context != "" {
				fmt.Fprintf(&b, " (%s)", c.Context)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(styleContract)
	b.WriteString("\n\n")

	if rules, ok := platformRules[in.Platform]; ok {
		b.WriteString(rules)
		b.WriteString("\n\n")
	}
	if formula, ok := contentFormulas[in.ContentType]; ok {
		b.WriteString(formula)
		b.WriteString("\n\n")
	}

	if in.ScreenshotCount > 0 {
		fmt.Fprintf(&b, "You have %d app screenshots attached. Use them to describe the real UI and features accurately. Do not ask the image model to reproduce them.\n\n", in.ScreenshotCount)
	} else {
		b.WriteString("No screenshots available.\n\n")
	}

	b.WriteString(imageConstraints)
	fmt.Fprintf(&b, "\n- Aspect ratio: %s.\n\n", aspect)

	b.WriteString("Produce BOTH a caption and image generation instructions together, so they are creatively aligned.\n\n")
	b.WriteString("Return ONLY valid JSON:\n")
	fmt.Fprintf(&b, `{
  "caption": "the full caption text without hashtags",
  "hashtags": ["tag1", "tag2", "tag3"],
  "imagePrompt": {
    "scene": "natural-language scene description, max 60 words",
    "colorUsage": "how the brand colors appear",
    "mood": "emotional tone of the image",
    "style": "one of the allowed styles",
    "aspectRatio": "%s"
  }
}`, aspect)

	return Prompt{System: b.String(), Provenance: prov}
}

const styleReminder = "\n\nREMINDER: Write like a real human. NEVER use em dashes, NEVER use AI cliché words (elevate, unlock, unleash, seamlessly, revolutionize, empower, leverage, game-changer, cutting-edge, next-level). Use casual, imperfect language. Be specific, not generic."

// UserInstruction asks for one object, or an array of count objects.
func UserInstruction(count int) string {
	if count > 1 {
		return fmt.Sprintf(`Generate %d unique variations. Return valid JSON array: [{"caption": "...", "hashtags": [...], "imagePrompt": {...}}, ...]`, count) + styleReminder
	}
	return "Generate the content now. Return valid JSON only." + styleReminder
}

// MatchCTAs returns up to three CTAs whose goal suits the content type,
// falling back to the first three when none match.
func MatchCTAs(ctas []models.CTA, contentType models.ContentType) []models.CTA {
	goals := ctaGoals[contentType]
	var matched []models.CTA
	for _, c := range ctas {
		goal := strings.ToLower(c.Goal)
		for _, g := range goals {
			if strings.Contains(goal, g) {
				matched = append(matched, c)
				break
			}
		}
	}
	if len(matched) == 0 {
		matched = ctas
	}
	if len(matched) > 3 {
		matched = matched[:3]
	}
	return matched
}

func writeTarget(b *strings.Builder, s models.Strategy, tt models.TargetType, value string) {
	switch tt {
	case models.TargetPain:
		fmt.Fprintf(b, "- Speak directly to this pain point: %s\n", value)
	case models.TargetDesire:
		fmt.Fprintf(b, "- Paint this desired outcome: %s\n", value)
	case models.TargetObjection:
		fmt.Fprintf(b, "- Defuse this objection: %s\n", value)
		for _, o := range s.Objections {
			if o.Objection == value && o.Counter != "" {
				fmt.Fprintf(b, "  Counter (%s stage): %s\n", o.Stage, o.Counter)
				break
			}
		}
	}
}

func toneConstraints(s models.Strategy) []string {
	if len(s.VoiceRules) > 0 {
		return append([]string(nil), s.VoiceRules...)
	}
	if s.ToneGuidelines != "" {
		return []string{s.ToneGuidelines}
	}
	return []string{}
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
