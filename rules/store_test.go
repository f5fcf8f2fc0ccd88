package rules

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/grzegorzmaniak/fieldguard/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProvider struct{}

func (failingProvider) Fetch(context.Context, string) (map[string]string, error) {
	return nil, errors.New("connection refused")
}

func TestStore_ResolveStatic(t *testing.T) {
	s := NewStore(nil)

	rule, err := s.Resolve(context.Background(), FieldUserName)
	require.NoError(t, err)
	assert.Equal(t, SourceStatic, rule.Source)
	assert.Equal(t, 3, rule.MinLength)
	assert.Equal(t, 25, rule.MaxLength)
	assert.True(t, rule.RequireLetter)

	legacy, err := s.Resolve(context.Background(), FieldUserNameLegacy)
	require.NoError(t, err)
	assert.Equal(t, rule.Expression(), legacy.Expression())
}

func TestStore_ResolveNotFound(t *testing.T) {
	s := NewStore(nil)

	_, err := s.Resolve(context.Background(), "postalCode")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuleNotFound))
}

func TestStore_ResolveConfigured(t *testing.T) {
	provider := settings.NewMemoryProvider(map[string]string{
		settings.FieldKey(FieldUserName, PropertyMinLength):          "4",
		settings.FieldKey(FieldUserName, PropertyAllowUsernameChars): "false",
		settings.FieldKey(FieldGroupName, PropertyMinLength):         "9",
	})
	s := NewStore(provider)

	rule, err := s.Resolve(context.Background(), FieldUserName)
	require.NoError(t, err)
	assert.Equal(t, SourceConfigured, rule.Source)
	assert.Equal(t, 4, rule.MinLength)
	assert.Equal(t, `^[A-Za-z0-9]+$`, rule.Expression())

	// Non well-known types still come from the static table.
	text, err := s.Resolve(context.Background(), FieldTextShort)
	require.NoError(t, err)
	assert.Equal(t, SourceStatic, text.Source)
}

func TestStore_ResolveUnavailable(t *testing.T) {
	s := NewStore(failingProvider{})

	_, err := s.Resolve(context.Background(), FieldEmail)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuleUnavailable))

	// Static lookups do not touch the provider.
	_, err = s.Resolve(context.Background(), FieldDescription)
	assert.NoError(t, err)
}

func TestStore_ExtraRulesOverrideStatic(t *testing.T) {
	postal := &Rule{FieldType: "postalCode", Pattern: regexp.MustCompile(`^[0-9]{5}$`), MinLength: 5, MaxLength: 5, Source: SourceStatic}
	shortText := &Rule{FieldType: FieldTextShort, MaxLength: 10, Source: SourceStatic}
	s := NewStore(nil, postal, nil, shortText)

	got, ok := s.GetStatic("postalCode")
	require.True(t, ok)
	assert.Same(t, postal, got)

	got, ok = s.GetStatic(FieldTextShort)
	require.True(t, ok)
	assert.Equal(t, 10, got.MaxLength)
}

func TestStore_FieldTypes(t *testing.T) {
	withoutProvider := NewStore(nil).FieldTypes()
	assert.Contains(t, withoutProvider, FieldTextLong)
	assert.IsNonDecreasing(t, withoutProvider)

	withProvider := NewStore(settings.NewMemoryProvider(nil)).FieldTypes()
	assert.Equal(t, len(withoutProvider), len(withProvider))
	assert.False(t, NewStore(nil).HasProvider())
}

func TestRule_MessageFallbacks(t *testing.T) {
	r := &Rule{FieldType: "code", Messages: Messages{MessageInvalid: "Code is invalid"}}

	assert.Equal(t, "Code is invalid", r.Message(MessageInvalidChars))
	assert.Equal(t, "code is required", r.Message(MessageRequired))

	clone := r.Clone()
	clone.Messages[MessageInvalid] = "changed"
	assert.Equal(t, "Code is invalid", r.Messages[MessageInvalid])
}
