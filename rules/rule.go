package rules

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrRuleNotFound is returned when neither the static table nor configuration defines a field type.
	ErrRuleNotFound = errors.New("rules: rule not found")

	// ErrRuleUnavailable is returned when the configuration source could not be read.
	ErrRuleUnavailable = errors.New("rules: rule unavailable")

	// ErrNotWellKnown is returned by BuildFromConfig for field types without a configured builder.
	ErrNotWellKnown = errors.New("rules: field type is not well-known")
)

// MessageKey names a failure kind inside Messages.
type MessageKey string

const (
	MessageRequired     MessageKey = "required"
	MessageMinLength    MessageKey = "minLength"
	MessageMaxLength    MessageKey = "maxLength"
	MessageInvalidChars MessageKey = "invalidChars"
	MessageInvalid      MessageKey = "invalid"
	MessageNoLetter     MessageKey = "noLetter"
	MessageNoNumber     MessageKey = "noNumber"
)

// Messages maps failure kinds to human-readable text.
type Messages map[MessageKey]string

// Source records where a rule came from.
type Source string

const (
	SourceStatic     Source = "static"
	SourceConfigured Source = "configured"
)

// Rule holds the constraints for one field type.
// A zero MinLength or MaxLength means the bound is not enforced.
type Rule struct {
	FieldType     string         `json:"fieldType"`
	Label         string         `json:"label"`
	Pattern       *regexp.Regexp `json:"-"`
	MinLength     int            `json:"minLength,omitempty"`
	MaxLength     int            `json:"maxLength,omitempty"`
	Required      bool           `json:"required"`
	RequireLetter bool           `json:"requireLetter,omitempty"`
	RequireNumber bool           `json:"requireNumber,omitempty"`
	Messages      Messages       `json:"messages"`
	Source        Source         `json:"source"`

	// Fallback is set when a configured expression was malformed and the
	// documented default pattern was used instead.
	Fallback bool `json:"fallback,omitempty"`
}

// Expression returns the pattern source, or "" when the rule has no pattern.
func (r *Rule) Expression() string {
	if r.Pattern == nil {
		return ""
	}
	return r.Pattern.String()
}

// Message returns the text for key. invalidChars falls back to invalid, and any
// missing entry falls back to a generic sentence built from the label.
func (r *Rule) Message(key MessageKey) string {
	if msg, ok := r.Messages[key]; ok && msg != "" {
		return msg
	}
	if key == MessageInvalidChars {
		if msg, ok := r.Messages[MessageInvalid]; ok && msg != "" {
			return msg
		}
	}
	return genericMessage(r.label(), key, r.MinLength, r.MaxLength)
}

func (r *Rule) label() string {
	if r.Label != "" {
		return r.Label
	}
	if r.FieldType != "" {
		return r.FieldType
	}
	return "Value"
}

func genericMessage(label string, key MessageKey, minLength, maxLength int) string {
	switch key {
	case MessageRequired:
		return fmt.Sprintf("%s is required", label)
	case MessageMinLength:
		return fmt.Sprintf("%s must be at least %d characters", label, minLength)
	case MessageMaxLength:
		return fmt.Sprintf("%s must not exceed %d characters", label, maxLength)
	case MessageNoLetter:
		return fmt.Sprintf("%s must contain at least one letter", label)
	case MessageNoNumber:
		return fmt.Sprintf("%s must contain at least one number", label)
	default:
		return fmt.Sprintf("%s contains invalid characters", label)
	}
}

// defaultMessages fills every message kind for label, using hint to describe
// the accepted characters when one is known.
func defaultMessages(label string, minLength, maxLength int, hint string) Messages {
	msgs := Messages{}
	for _, key := range []MessageKey{MessageRequired, MessageMinLength, MessageMaxLength, MessageNoLetter, MessageNoNumber} {
		msgs[key] = genericMessage(label, key, minLength, maxLength)
	}
	msgs[MessageInvalid] = fmt.Sprintf("%s is invalid", label)
	if hint != "" {
		msgs[MessageInvalidChars] = fmt.Sprintf("%s may only contain %s", label, hint)
	} else {
		msgs[MessageInvalidChars] = genericMessage(label, MessageInvalidChars, minLength, maxLength)
	}
	return msgs
}

// Clone returns a copy that shares the compiled pattern but owns its messages.
func (r *Rule) Clone() *Rule {
	c := *r
	c.Messages = make(Messages, len(r.Messages))
	for k, v := range r.Messages {
		c.Messages[k] = v
	}
	return &c
}
