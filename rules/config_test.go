package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldConfig(t *testing.T) {
	cfg := ParseFieldConfig(FieldUserName, map[string]string{
		PropertyMinLength:          "3",
		PropertyMaxLength:          `"25"`,
		PropertyLatinOnly:          "true",
		PropertyAllowNumbers:       `"false"`,
		PropertyAllowUsernameChars: "0",
		PropertyRegex:              `"^abc$"`,
	})

	require.NotNil(t, cfg.MinLength)
	assert.Equal(t, 3, *cfg.MinLength)
	require.NotNil(t, cfg.MaxLength)
	assert.Equal(t, 25, *cfg.MaxLength)
	require.NotNil(t, cfg.LatinOnly)
	assert.True(t, *cfg.LatinOnly)
	require.NotNil(t, cfg.AllowNumbers)
	assert.False(t, *cfg.AllowNumbers)
	require.NotNil(t, cfg.AllowUsernameChars)
	assert.False(t, *cfg.AllowUsernameChars)
	require.NotNil(t, cfg.Regex)
	assert.Equal(t, "^abc$", *cfg.Regex)
	assert.Nil(t, cfg.Required)
}

func TestParseFieldConfig_DropsInvalidValues(t *testing.T) {
	cfg := ParseFieldConfig(FieldUserName, map[string]string{
		PropertyMinLength: "-4",
		PropertyMaxLength: "lots",
		PropertyRequired:  "maybe",
		PropertyRegex:     "   ",
	})

	assert.Nil(t, cfg.MinLength)
	assert.Nil(t, cfg.MaxLength)
	assert.Nil(t, cfg.Required)
	assert.Nil(t, cfg.Regex)
}

func TestParseFieldConfig_LiteralRegexThatLooksLikeJSON(t *testing.T) {
	cfg := ParseFieldConfig(FieldEmail, map[string]string{PropertyRegex: "[1]"})
	require.NotNil(t, cfg.Regex)
	assert.Equal(t, "[1]", *cfg.Regex)
}

func TestParseFieldConfig_FractionalLengthIsDropped(t *testing.T) {
	cfg := ParseFieldConfig(FieldUserName, map[string]string{PropertyMinLength: "2.5"})
	assert.Nil(t, cfg.MinLength)
}
