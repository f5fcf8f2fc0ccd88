package helpers

import (
	"encoding/json"
	"testing"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"Nil becomes empty", nil, ""},
		{"String is unchanged", "hello", "hello"},
		{"Whole float has no decimals", float64(42), "42"},
		{"Fractional float keeps decimals", 3.25, "3.25"},
		{"Int", 7, "7"},
		{"Negative int64", int64(-12), "-12"},
		{"JSON number", json.Number("1e3"), "1e3"},
		{"Bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.value); got != tt.want {
				t.Errorf("Stringify(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
