package rules

import (
	"context"
	"fmt"
	"sort"

	"github.com/grzegorzmaniak/fieldguard/settings"
	"go.uber.org/zap"
)

// Store resolves rules for field types. Well-known fields are built from the
// settings provider when one is attached; everything else comes from the static table.
type Store struct {
	static   map[string]*Rule
	provider settings.Provider
}

// NewStore builds a store over the built-in static table extended (or
// overridden, by field type) with extra. provider may be nil.
func NewStore(provider settings.Provider, extra ...*Rule) *Store {
	static := StaticRules()
	for _, r := range extra {
		if r == nil || r.FieldType == "" {
			continue
		}
		static[r.FieldType] = r
	}

	return &Store{
		static:   static,
		provider: provider,
	}
}

// HasProvider reports whether a configuration source is attached.
func (s *Store) HasProvider() bool {
	return s.provider != nil
}

// GetStatic looks fieldType up in the static table.
func (s *Store) GetStatic(fieldType string) (*Rule, bool) {
	r, ok := s.static[fieldType]
	return r, ok
}

// BuildConfigured fetches the configuration of a well-known field and builds its rule.
func (s *Store) BuildConfigured(ctx context.Context, fieldType string) (*Rule, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: no settings provider for '%s'", ErrRuleUnavailable, fieldType)
	}

	values, err := s.provider.Fetch(ctx, settings.FieldPrefix(fieldType))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleUnavailable, err)
	}

	cfg := ParseFieldConfig(fieldType, settings.FieldProperties(fieldType, values))
	return BuildFromConfig(fieldType, cfg)
}

// Resolve returns the rule for fieldType: configured for well-known fields when
// a provider is attached, static otherwise. The error wraps ErrRuleNotFound or
// ErrRuleUnavailable.
func (s *Store) Resolve(ctx context.Context, fieldType string) (*Rule, error) {
	if IsWellKnown(fieldType) && s.provider != nil {
		return s.BuildConfigured(ctx, fieldType)
	}

	if r, ok := s.GetStatic(fieldType); ok {
		return r, nil
	}

	zap.L().Debug("No static rule for field type", zap.String("fieldType", fieldType))
	return nil, fmt.Errorf("%w: '%s'", ErrRuleNotFound, fieldType)
}

// FieldTypes lists every field type the store can resolve, sorted.
func (s *Store) FieldTypes() []string {
	seen := make(map[string]struct{}, len(s.static)+4)
	for k := range s.static {
		seen[k] = struct{}{}
	}
	if s.provider != nil {
		for _, k := range WellKnownFields() {
			seen[k] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
