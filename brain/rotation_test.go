package brain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-pilot/brain"
	"social-pilot/models"
)

func TestSuggestLeastUsed(t *testing.T) {
	testCases := []struct {
		name  string
		items []string
		usage map[string]int
		want  string
		ok    bool
	}{
		{name: "empty list", items: nil, usage: map[string]int{"a": 1}, ok: false},
		{name: "unused wins", items: []string{"a", "b", "c"}, usage: map[string]int{"a": 2, "c": 1}, want: "b", ok: true},
		{name: "tie keeps list order", items: []string{"a", "b", "c"}, usage: map[string]int{"a": 3, "b": 1, "c": 1}, want: "b", ok: true},
		{name: "all unused", items: []string{"x", "y"}, usage: map[string]int{}, want: "x", ok: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := brain.SuggestLeastUsed(tc.items, tc.usage)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
			if ok {
				for _, item := range tc.items {
					assert.LessOrEqual(t, tc.usage[got], tc.usage[item])
				}
			}
		})
	}
}

func TestCountUsage(t *testing.T) {
	posts := []models.Post{
		{Provenance: models.Provenance{HookUsed: "h1", PillarUsed: "p1", TargetType: models.TargetPain, TargetValue: "slow"}},
		{Provenance: models.Provenance{HookUsed: "h1", TargetType: models.TargetDesire, TargetValue: "calm"}},
		{Provenance: models.Provenance{TargetType: models.TargetObjection, TargetValue: "price"}},
		{Provenance: models.Provenance{TargetType: models.TargetPain}},
	}
	stats := brain.CountUsage(posts)
	assert.Equal(t, 2, stats.Hooks["h1"])
	assert.Equal(t, 1, stats.Pillars["p1"])
	assert.Equal(t, map[string]int{"slow": 1}, stats.Pains)
	assert.Equal(t, 1, stats.Desires["calm"])
	assert.Equal(t, 1, stats.Objections["price"])
}

func TestSuggest(t *testing.T) {
	strategy := models.Strategy{
		Hooks:          []models.Hook{{Text: "h1", Category: models.HookPain}, {Text: "h2", Category: models.HookCuriosity}},
		ContentPillars: []string{"p1", "p2"},
		PainPoints:     []string{"slow"},
		Objections:     []models.Objection{{Objection: "price", Counter: "free tier"}, {Objection: "privacy"}},
	}
	posts := []models.Post{
		{Provenance: models.Provenance{HookUsed: "h1", PillarUsed: "p1", TargetType: models.TargetObjection, TargetValue: "price"}},
	}

	s := brain.Suggest(strategy, posts)
	require.NotNil(t, s.SuggestedHook)
	assert.Equal(t, "h2", *s.SuggestedHook)
	assert.Equal(t, "p2", *s.SuggestedPillar)
	assert.Equal(t, "slow", *s.SuggestedPain)
	assert.Nil(t, s.SuggestedDesire)
	assert.Equal(t, "privacy", *s.SuggestedObjection)
	assert.Len(t, s.Available.Objections, 2)
	assert.NotNil(t, s.Available.Desires)
}
