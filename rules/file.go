package rules

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of a static rule.
type Definition struct {
	FieldType     string            `yaml:"fieldType" validate:"required,max=100"`
	Label         string            `yaml:"label"`
	Pattern       string            `yaml:"pattern"`
	MinLength     int               `yaml:"minLength" validate:"gte=0"`
	MaxLength     int               `yaml:"maxLength" validate:"gte=0"`
	Required      bool              `yaml:"required"`
	RequireLetter bool              `yaml:"requireLetter"`
	RequireNumber bool              `yaml:"requireNumber"`
	Messages      map[string]string `yaml:"messages"`
}

type definitionFile struct {
	Rules []Definition `yaml:"rules"`
}

// Compile turns a definition into a static rule.
func (d Definition) Compile() (*Rule, error) {
	if err := configValidator.Struct(d); err != nil {
		return nil, fmt.Errorf("rules: invalid definition '%s': %w", d.FieldType, err)
	}
	if d.MaxLength > 0 && d.MinLength > d.MaxLength {
		return nil, fmt.Errorf("rules: definition '%s' has minLength %d above maxLength %d", d.FieldType, d.MinLength, d.MaxLength)
	}

	r := &Rule{
		FieldType:     d.FieldType,
		Label:         d.Label,
		MinLength:     d.MinLength,
		MaxLength:     d.MaxLength,
		Required:      d.Required,
		RequireLetter: d.RequireLetter,
		RequireNumber: d.RequireNumber,
		Source:        SourceStatic,
	}

	if d.Pattern != "" {
		compiled, err := regexp.Compile(Anchor(d.Pattern))
		if err != nil {
			return nil, fmt.Errorf("rules: definition '%s' has an invalid pattern: %w", d.FieldType, err)
		}
		r.Pattern = compiled
	}

	r.Messages = defaultMessages(r.label(), r.MinLength, r.MaxLength, "")
	for k, v := range d.Messages {
		r.Messages[MessageKey(k)] = v
	}
	return r, nil
}

// LoadStaticFile reads rule definitions from a YAML file:
//
//	rules:
//	  - fieldType: postalCode
//	    pattern: '^[0-9]{5}$'
//	    minLength: 5
//	    maxLength: 5
func LoadStaticFile(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: failed to read %s: %w", path, err)
	}
	return LoadStaticBytes(data)
}

// LoadStaticBytes parses rule definitions from memory. See LoadStaticFile.
func LoadStaticBytes(data []byte) ([]*Rule, error) {
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("rules: failed to parse YAML: %w", err)
	}

	out := make([]*Rule, 0, len(file.Rules))
	seen := make(map[string]struct{}, len(file.Rules))
	for _, d := range file.Rules {
		if _, dup := seen[d.FieldType]; dup {
			return nil, fmt.Errorf("rules: duplicate definition '%s'", d.FieldType)
		}
		seen[d.FieldType] = struct{}{}

		r, err := d.Compile()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
