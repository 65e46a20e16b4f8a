package brain

import "social-pilot/models"

var platformRules = map[models.Platform]string{
	models.PlatformInstagram: `Instagram Rules:
- Reels: Hook in first 3 seconds, 15-90 seconds optimal, vertical 9:16
- Posts: Square or vertical, carousel performs best, 2200 char caption limit
- Stories: 15-second segments, interactive stickers boost engagement
- Hashtags: 3-5 highly relevant > 30 generic, mix popular + niche
- Peak times: 11am-1pm, 7pm-9pm local time
- Tone: Authentic, visually polished, aspirational but relatable`,

	models.PlatformTwitter: `X (Twitter) Rules:
- Hard limit of 280 characters for the caption plus hashtags combined
- Keep the caption under 240 characters so hashtags still fit
- At most 2 hashtags, only when they add reach
- One idea per post, the first line carries the whole hook
- Plain conversational language, no thread markers like 1/ or 🧵
- Tone: Direct, witty, opinionated but useful`,
}

var contentFormulas = map[models.ContentType]string{
	models.ContentReel: `Reel Formula:
1. HOOK (0-3s): Pattern interrupt, bold claim, or curiosity gap
2. CONTEXT (3-7s): Quick setup of the problem/situation
3. VALUE (7-25s): Deliver the meat - tips, transformation, story
4. CTA (last 3s): Clear action - follow, save, comment, link in bio`,

	models.ContentPost: `Post Formula:
1. OPENING: Story hook or bold statement (stop the scroll)
2. BODY: Value, insight, or narrative (keep them reading)
3. ENGAGEMENT: Question or CTA (drive comments)
4. HASHTAGS: Strategic placement at end`,

	models.ContentStory: `Story Formula:
1. Attention grab - poll, question, or bold text
2. Build context with 2-3 frames
3. Payoff or CTA in final frame
4. Use interactive elements (polls, sliders, quizzes)`,

	models.ContentCarousel: `Carousel Formula:
1. Slide 1: Thumb-stopping hook, promise of value
2. Slides 2-8: One idea per slide, visual consistency
3. Second-to-last: Summary or key takeaway
4. Last slide: Strong CTA, save/share prompt`,

	models.ContentAd: `Ad Formula:
1. HOOK: Problem or desire in first 3 seconds
2. AGITATE: Make the pain/desire tangible
3. SOLUTION: Introduce product as the answer
4. PROOF: Testimonial, results, credibility
5. CTA: Clear, urgent, specific action`,
}

// hookPreferences narrows the hook pool per content type.
var hookPreferences = map[models.ContentType][]models.HookCategory{
	models.ContentAd:       {models.HookPain, models.HookSocialProof, models.HookDesire},
	models.ContentReel:     {models.HookCuriosity, models.HookContrarian, models.HookDesire},
	models.ContentPost:     {models.HookPain, models.HookCuriosity, models.HookSocialProof},
	models.ContentStory:    {models.HookCuriosity, models.HookDesire},
	models.ContentCarousel: {models.HookCuriosity, models.HookPain, models.HookContrarian},
}

// ctaGoals maps a content type to the CTA goals that suit it.
var ctaGoals = map[models.ContentType][]string{
	models.ContentAd:       {"conversion", "signup", "download", "purchase", "trial"},
	models.ContentReel:     {"engagement", "follow", "awareness", "save"},
	models.ContentPost:     {"engagement", "comment", "awareness", "save"},
	models.ContentStory:    {"engagement", "reply", "traffic", "click"},
	models.ContentCarousel: {"save", "share", "education", "engagement"},
}

// BannedWords are stripped from captions after generation as well.
var BannedWords = []string{
	"elevate", "unlock", "dive into", "unleash", "game-changer", "seamlessly",
	"revolutionize", "empower", "leverage", "cutting-edge", "next-level",
}

const styleContract = `WRITING STYLE (non-negotiable):
- Write like a real person texting a friend about something they actually use.
- NEVER use em dashes. Use commas, periods or line breaks instead.
- NEVER use these words: elevate, unlock, dive into, unleash, game-changer, seamlessly, revolutionize, empower, leverage, cutting-edge, next-level.
- Mix very short sentences with longer ones. Fragments are fine.
- Be specific. Name the actual feature, the actual moment, the actual feeling.
- No generic hype, no "in today's fast-paced world", no rhetorical triple lists.`

const imageConstraints = `IMAGE RULES:
- Describe the scene in natural language, max 60 words.
- No people, faces, hands or human figures.
- No text, letters, logos or UI copy rendered in the image.
- Use the brand colors and mood from the visual identity.
- Pick one style: photo-realistic, illustrated, minimal-graphic, cinematic, 3d-render, flat-design.`

// AspectRatio is square only for Instagram feed posts.
func AspectRatio(platform models.Platform, contentType models.ContentType) string {
	if platform == models.PlatformInstagram && contentType == models.ContentPost {
		return "1:1 square"
	}
	return "9:16 vertical"
}
