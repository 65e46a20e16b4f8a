package brain

import (
	"strings"

	"social-pilot/models"
)

// ImagePrompt is the image section of a generated candidate.
type ImagePrompt struct {
	Scene       string `json:"scene"`
	ColorUsage  string `json:"colorUsage,omitempty"`
	Mood        string `json:"mood,omitempty"`
	Style       string `json:"style,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

var stylePhrases = map[string]string{
	"photo-realistic": "photographic style with natural textures and realistic lighting",
	"illustrated":     "digital illustration with clean lines and vibrant fills",
	"minimal-graphic": "minimal flat graphic with bold shapes and negative space",
	"cinematic":       "cinematic frame with dramatic depth of field and anamorphic framing",
	"3d-render":       "3D render with soft global illumination and subsurface scattering",
	"flat-design":     "flat design with geometric shapes and solid color blocks",
}

const (
	imageExclusion = "Without any text, lettering, words, watermarks, human figures, people, faces, or hands."
	maxImageWords  = 85
)

// BuildImagePrompt turns the model's image instructions into a single
// natural-language prompt for the image backend.
func BuildImagePrompt(ip ImagePrompt, vi models.VisualIdentity, visualDirection string) string {
	var parts []string
	scene := strings.TrimSpace(ip.Scene)
	lowerScene := strings.ToLower(scene)

	if scene != "" {
		parts = append(parts, scene)
	}
	if style := strings.TrimSpace(ip.Style); style != "" {
		phrase, ok := stylePhrases[strings.ToLower(style)]
		if !ok {
			phrase = style
		}
		parts = append(parts, "Rendered in "+phrase+".")
	}
	if mood := strings.TrimSpace(ip.Mood); mood != "" {
		parts = append(parts, "The atmosphere feels "+mood+".")
	}

	if colors := strings.TrimSpace(vi.Colors); colors != "" && scene != "" {
		first := strings.ToLower(strings.Fields(colors)[0])
		if !strings.Contains(lowerScene, first) {
			parts = append(parts, "Color palette draws from "+colors+".")
		}
	}

	if dir := strings.TrimSpace(visualDirection); dir != "" {
		needle := strings.ToLower(dir)
		if r := []rune(needle); len(r) > 20 {
			needle = string(r[:20])
		}
		if !strings.Contains(lowerScene, needle) {
			parts = append(parts, "Overall feel: "+strings.TrimRight(dir, ".")+".")
		}
	}

	parts = append(parts, imageExclusion)

	words := strings.Fields(strings.Join(parts, " "))
	if len(words) > maxImageWords {
		words = words[:maxImageWords]
	}
	return strings.Join(words, " ")
}

// ImageSize picks the pixel size for an aspect ratio string.
func ImageSize(aspectRatio string) (width, height int) {
	if strings.Contains(aspectRatio, "9:16") {
		return 768, 1365
	}
	return 1024, 1024
}
