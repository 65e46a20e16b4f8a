package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"social-pilot/apperr"
	"social-pilot/internal/logger"
	"social-pilot/models"
)

// SettingsReader returns a stored setting, or "" when it is not set.
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// Registry resolves a text provider by name. Built once in main and
// passed to the services that need it.
type Registry struct {
	providers  map[string]TextProvider
	envDefault string
}

// NewRegistry registers ps under their names. envDefault is consulted when
// neither the product nor the settings table choose a provider.
func NewRegistry(envDefault string, ps ...TextProvider) *Registry {
	r := &Registry{providers: map[string]TextProvider{}, envDefault: strings.ToLower(strings.TrimSpace(envDefault))}
	for _, p := range ps {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p TextProvider) {
	if p == nil {
		return
	}
	r.providers[p.Name()] = p
}

// Names lists registered providers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a provider this build understands, even if
// it is not configured.
func Known(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case GeminiName, HuggingFaceName:
		return true
	}
	return false
}

// Resolve picks the product's provider, then the TEXT_PROVIDER setting,
// then the environment default, then gemini.
func (r *Registry) Resolve(ctx context.Context, preferred string, settings SettingsReader) (TextProvider, error) {
	name := strings.ToLower(strings.TrimSpace(preferred))
	if name == "" && settings != nil {
		v, err := settings.Get(ctx, models.SettingTextProvider)
		if err != nil {
			logger.Log.Warnf("read %s setting failed: %v", models.SettingTextProvider, err)
		}
		name = strings.ToLower(strings.TrimSpace(v))
	}
	if name == "" {
		name = r.envDefault
	}
	if name == "" {
		name = GeminiName
	}

	if !Known(name) {
		return nil, apperr.Validation(fmt.Sprintf("Unknown text provider: %s", name))
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, apperr.Upstream(fmt.Sprintf("Text provider %s is not configured", name), nil)
	}
	return p, nil
}
