package validation

import (
	"errors"

	"github.com/grzegorzmaniak/fieldguard/rules"
)

// Kind classifies why a value was not accepted.
type Kind string

const (
	KindNone                   Kind = ""
	KindValueRejected          Kind = "valueRejected"
	KindRuleNotFound           Kind = "ruleNotFound"
	KindRuleUnavailable        Kind = "ruleUnavailable"
	KindConfigurationMalformed Kind = "configurationMalformed"
	KindInternal               Kind = "internal"
)

// label is the metrics label of the kind.
func (k Kind) label() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

// Reasons reported alongside KindValueRejected, in addition to the rules.MessageKey values.
const (
	ReasonSecurity = "security"
	ReasonMultiple = "multiple"
)

// Fixed messages for failures that are not value rejections.
const (
	MessageInternal        = "Internal validation error"
	messageRuleNotFound    = "Validation rule not found for field type: "
	messageRuleUnavailable = "Validation rule is temporarily unavailable for field type: "
)

var (
	// ErrValueRejected is matched by every ValidationError of KindValueRejected.
	ErrValueRejected = errors.New("validation: value rejected")

	// ErrInternal is matched by ValidationErrors produced from a recovered panic.
	ErrInternal = errors.New("validation: internal error")
)

// Request is one value to check against the rule of FieldType.
type Request struct {
	Value        interface{} `json:"value"`
	FieldType    string      `json:"fieldType"`
	SecurityOnly bool        `json:"securityOnly"`
}

// Response carries the decision. Error is set iff IsValid is false.
type Response struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

func accepted() Response {
	return Response{IsValid: true}
}

func rejected(kind Kind, reason, message string) Response {
	return Response{IsValid: false, Error: message, Kind: kind, Reason: reason}
}

// ValidationError is returned by Enforce. Its message is exactly Response.Error.
type ValidationError struct {
	Kind      Kind
	Reason    string
	FieldType string
	Message   string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindRuleNotFound:
		return rules.ErrRuleNotFound
	case KindRuleUnavailable:
		return rules.ErrRuleUnavailable
	case KindInternal:
		return ErrInternal
	default:
		return ErrValueRejected
	}
}

// Response rebuilds the rejected Response the error was created from.
func (e *ValidationError) Response() Response {
	return rejected(e.Kind, e.Reason, e.Message)
}

func newValidationError(fieldType string, resp Response) *ValidationError {
	return &ValidationError{
		Kind:      resp.Kind,
		Reason:    resp.Reason,
		FieldType: fieldType,
		Message:   resp.Error,
	}
}
