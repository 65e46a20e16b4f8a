package brain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"social-pilot/brain"
	"social-pilot/models"
)

func TestBuildImagePrompt(t *testing.T) {
	got := brain.BuildImagePrompt(
		brain.ImagePrompt{Scene: "A tidy desk at dawn with a laptop", Style: "cinematic", Mood: "hopeful"},
		models.VisualIdentity{Colors: "teal and cream"},
		"warm minimalism",
	)
	assert.True(t, strings.HasPrefix(got, "A tidy desk at dawn with a laptop"))
	assert.Contains(t, got, "Rendered in cinematic frame with dramatic depth of field")
	assert.Contains(t, got, "The atmosphere feels hopeful.")
	assert.Contains(t, got, "Color palette draws from teal and cream.")
	assert.Contains(t, got, "Overall feel: warm minimalism.")
	assert.True(t, strings.HasSuffix(got, "faces, or hands."))
}

func TestBuildImagePromptSkipsColorsAlreadyInScene(t *testing.T) {
	got := brain.BuildImagePrompt(
		brain.ImagePrompt{Scene: "A teal mug on a cream table", Style: "watercolor"},
		models.VisualIdentity{Colors: "teal and cream"},
		"",
	)
	assert.NotContains(t, got, "Color palette")
	assert.Contains(t, got, "Rendered in watercolor.")
}

func TestBuildImagePromptCapsWords(t *testing.T) {
	scene := strings.Repeat("word ", 120)
	got := brain.BuildImagePrompt(brain.ImagePrompt{Scene: scene}, models.VisualIdentity{}, "")
	assert.Len(t, strings.Fields(got), 85)
}

func TestImageSize(t *testing.T) {
	w, h := brain.ImageSize("9:16 vertical")
	assert.Equal(t, []int{768, 1365}, []int{w, h})
	w, h = brain.ImageSize("1:1 square")
	assert.Equal(t, []int{1024, 1024}, []int{w, h})
}
