// Package settings reads field-validation configuration from a key-value source.
// Keys are dotted paths such as "wellKnownFields.userName.minLength" and values
// are strings that may hold JSON-encoded scalars.
package settings

import (
	"context"
	"encoding/json"
	"strings"
)

// WellKnownFieldsRoot is the first segment of every field configuration key.
const WellKnownFieldsRoot = "wellKnownFields"

// Provider returns every setting whose key starts with prefix.
// Implementations must be safe for concurrent use.
type Provider interface {
	Fetch(ctx context.Context, prefix string) (map[string]string, error)
}

// FieldPrefix returns the key prefix shared by all properties of fieldType.
func FieldPrefix(fieldType string) string {
	return WellKnownFieldsRoot + "." + fieldType + "."
}

// FieldKey returns the full key of one property of fieldType.
func FieldKey(fieldType, property string) string {
	return FieldPrefix(fieldType) + property
}

// FieldProperties strips the field prefix from the keys of values, returning
// property -> raw value. Keys with nested segments are skipped.
func FieldProperties(fieldType string, values map[string]string) map[string]string {
	prefix := FieldPrefix(fieldType)
	out := make(map[string]string, len(values))
	for key, value := range values {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		property := strings.TrimPrefix(key, prefix)
		if property == "" || strings.Contains(property, ".") {
			continue
		}
		out[property] = value
	}
	return out
}

// Unwrap decodes a raw stored value. JSON scalars ("true", "12", "\"abc\"") are
// decoded to bool, float64 or string; anything that is not valid JSON is
// returned as the raw string.
func Unwrap(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return raw
	}

	// - Strings may be encoded more than once by the settings UI
	if s, ok := decoded.(string); ok {
		if strings.HasPrefix(strings.TrimSpace(s), `"`) {
			return Unwrap(s)
		}
		return s
	}
	return decoded
}
