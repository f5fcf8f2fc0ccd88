package rules

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/grzegorzmaniak/fieldguard/settings"
	"go.uber.org/zap"
)

// Configuration property names under wellKnownFields.<fieldType>.
const (
	PropertyMinLength           = "minLength"
	PropertyMaxLength           = "maxLength"
	PropertyRequired            = "required"
	PropertyAllowNumbers        = "allowNumbers"
	PropertyAllowUsernameChars  = "allowUsernameChars"
	PropertyAllowGroupNameChars = "allowGroupNameChars"
	PropertyLatinOnly           = "latinOnly"
	PropertyRequireLetter       = "requireLetter"
	PropertyRequireNumber       = "requireNumber"
	PropertyRegex               = "regex"
	PropertyMask                = "mask"
)

var configValidator = validator.New()

func asBool(raw string) (bool, bool) {
	switch v := settings.Unwrap(raw).(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		return false, false
	}
}

func asInt(raw string) (int, bool) {
	switch v := settings.Unwrap(raw).(type) {
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, false
		}
		return int(v), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		return 0, false
	}
}

func asString(raw string) string {
	// - Expressions such as "[1]" decode as JSON but are meant literally
	if s, ok := settings.Unwrap(raw).(string); ok {
		return s
	}
	return raw
}

// ParseFieldConfig converts raw property values (property -> stored string) into
// a FieldConfig. Values of the wrong type, and values rejected by the struct
// validation, are dropped so the documented default applies; each drop is logged.
func ParseFieldConfig(fieldType string, props map[string]string) FieldConfig {
	var cfg FieldConfig

	setBool := func(name string, dst **bool) {
		raw, ok := props[name]
		if !ok {
			return
		}
		v, ok := asBool(raw)
		if !ok {
			warnDropped(fieldType, name, raw, "not a boolean")
			return
		}
		*dst = &v
	}
	setInt := func(name string, dst **int) {
		raw, ok := props[name]
		if !ok {
			return
		}
		v, ok := asInt(raw)
		if !ok {
			warnDropped(fieldType, name, raw, "not an integer")
			return
		}
		*dst = &v
	}
	setString := func(name string, dst **string) {
		raw, ok := props[name]
		if !ok {
			return
		}
		v := asString(raw)
		if strings.TrimSpace(v) == "" {
			return
		}
		*dst = &v
	}

	setInt(PropertyMinLength, &cfg.MinLength)
	setInt(PropertyMaxLength, &cfg.MaxLength)
	setBool(PropertyRequired, &cfg.Required)
	setBool(PropertyAllowNumbers, &cfg.AllowNumbers)
	setBool(PropertyAllowUsernameChars, &cfg.AllowUsernameChars)
	setBool(PropertyAllowGroupNameChars, &cfg.AllowGroupNameChars)
	setBool(PropertyLatinOnly, &cfg.LatinOnly)
	setBool(PropertyRequireLetter, &cfg.RequireLetter)
	setBool(PropertyRequireNumber, &cfg.RequireNumber)
	setString(PropertyRegex, &cfg.Regex)
	setString(PropertyMask, &cfg.Mask)

	cfg.sanitize(fieldType)
	return cfg
}

// sanitize runs the struct validation and clears every offending field.
func (c *FieldConfig) sanitize(fieldType string) {
	err := configValidator.Struct(c)
	if err == nil {
		return
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		zap.L().Warn("Field configuration could not be validated", zap.String("fieldType", fieldType), zap.Error(err))
		return
	}

	for _, fe := range ves {
		warnDropped(fieldType, fe.StructField(), fe.Value(), "failed on validation tag '"+fe.Tag()+"'")
		switch fe.StructField() {
		case "MinLength":
			c.MinLength = nil
		case "MaxLength":
			c.MaxLength = nil
		case "Mask":
			c.Mask = nil
		}
	}
}

func warnDropped(fieldType, property string, value interface{}, reason string) {
	zap.L().Warn("Ignoring invalid field configuration value",
		zap.String("fieldType", fieldType),
		zap.String("property", property),
		zap.Any("value", value),
		zap.String("reason", reason))
}
