package brain

import (
	"fmt"
	"strings"
)

// ExtractionInput is what the extraction call knows about a product.
type ExtractionInput struct {
	Name            string
	Description     string
	Brief           string
	ScreenshotCount int
}

// BuildExtractionPrompt returns the system and user instructions that turn a
// brief (and screenshots) into {"appProfile", "marketingStrategy"}.
func BuildExtractionPrompt(in ExtractionInput) (system, user string) {
	var b strings.Builder
	b.WriteString(`You are an expert marketing strategist. You will receive a marketing brief and possibly app screenshots.

Before writing any JSON, think through these questions internally (do not output your reasoning):
- Who exactly is the audience, and what are they doing right before they need this product?
- What problem hurts enough that they would switch tools?
- What does this product do that the obvious alternatives do not?

RULES:
- When screenshots and the brief disagree, trust the screenshots.
- Every field must be specific to this product. Generic marketing filler is a failure.
- Hooks, pain points and desire points must sound like the audience talking, not like an ad agency.
- visualIdentity must always be filled. With no screenshots, infer it from the brief and say what you assumed.
- Hook categories: curiosity, pain, desire, social-proof, contrarian.
- Objection stages: awareness, consideration, decision.

`)
	if in.Name != "" {
		fmt.Fprintf(&b, "Product name: %s\n", in.Name)
	}
	if in.Description != "" {
		fmt.Fprintf(&b, "Product description: %s\n", in.Description)
	}
	b.WriteString("\nMarketing Brief:\n")
	b.WriteString(in.Brief)
	b.WriteString(`

Return ONLY valid JSON with exactly two top-level keys:
{
  "appProfile": {
    "name": "string",
    "tagline": "one-liner value prop",
    "category": "app category",
    "coreValue": "the #1 benefit",
    "features": ["key features"],
    "audience": {"primary": "main target", "demographics": "age, context", "psychographics": "mindset, values"},
    "tone": "brand voice",
    "visualIdentity": {"style": "design language", "colors": "palette description", "mood": "emotional feel"},
    "differentiators": ["what makes it unique"],
    "pricePositioning": "free, freemium, premium...",
    "brandPersonality": {"dos": ["voice dos"], "donts": ["voice don'ts"]},
    "customerSegments": [{"name": "segment", "needs": "what they need", "angle": "how to pitch them"}],
    "brandStory": "short origin or mission story"
  },
  "marketingStrategy": {
    "hooks": [{"text": "scroll-stopping hook", "category": "curiosity"}],
    "themes": ["recurring content themes"],
    "contentPillars": ["3-4 content categories"],
    "painPoints": ["audience problems this solves"],
    "desirePoints": ["aspirations this fulfills"],
    "objections": [{"objection": "hesitation", "counter": "answer", "stage": "consideration"}],
    "toneGuidelines": "how to write in this brand's voice",
    "voiceRules": ["concrete writing rules"],
    "ctaStrategies": [{"goal": "engagement", "text": "CTA text", "context": "when to use it"}],
    "visualDirection": "how images should feel"
  }
}`)

	if in.ScreenshotCount > 0 {
		user = fmt.Sprintf("I've attached %d app screenshots. Analyze the brief and screenshots together.", in.ScreenshotCount)
	} else {
		user = "Analyze the marketing brief and extract the profile and strategy."
	}
	return b.String(), user
}
