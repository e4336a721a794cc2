// Package profile exposes a subject's stored preferences to the
// conversation layer. Preferences are flat key-value pairs (job_title,
// location, salary_min, remote, skills) that seed new sessions and steer
// deep-dive questions.
package profile

import (
	"fmt"
	"strings"
)

// PreferenceStore is the persistence surface the provider needs.
// Implemented by storage.Store.
type PreferenceStore interface {
	GetPreferences(subjectID string) (map[string]string, error)
	SetPreference(subjectID, key, value string) error
}

// knownKeys is the closed set of preference keys the platform understands.
var knownKeys = map[string]struct{}{
	"job_title":  {},
	"location":   {},
	"salary_min": {},
	"remote":     {},
	"skills":     {},
}

// Provider reads and writes subject preferences.
type Provider struct {
	store PreferenceStore
}

// NewProvider creates a Provider over the given store.
func NewProvider(store PreferenceStore) *Provider {
	return &Provider{store: store}
}

// KnownPreferences returns every stored preference for a subject. A subject
// with no stored preferences gets an empty map, not an error.
func (p *Provider) KnownPreferences(subjectID string) (map[string]string, error) {
	prefs, err := p.store.GetPreferences(subjectID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences for %s: %w", subjectID, err)
	}
	if prefs == nil {
		prefs = map[string]string{}
	}
	return prefs, nil
}

// SetPreference stores one preference value. Unknown keys are rejected so
// typos don't silently pollute the preference set.
func (p *Provider) SetPreference(subjectID, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if _, ok := knownKeys[key]; !ok {
		return fmt.Errorf("unknown preference key %q", key)
	}
	if err := p.store.SetPreference(subjectID, key, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("storing preference %s for %s: %w", key, subjectID, err)
	}
	return nil
}
