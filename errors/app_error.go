package errors

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// AppError is the error envelope of the HTTP layer.
// It includes an HTTP status code, a client message, the underlying error
// (for logging), a machine-readable kind and optional details.
type AppError struct {
	// Code is the HTTP status code that should be sent to the client.
	Code int `json:"-"`

	// Message is a human-readable message for the client. For rejected values
	// this is the exact rejection message of the validation engine.
	Message string `json:"message"`

	// Kind is the failure kind, e.g. "valueRejected" or "ruleNotFound".
	Kind string `json:"kind,omitempty"`

	// Err is the underlying original error, for logging only.
	Err error `json:"-"`

	// Details can hold any additional structured information about the error.
	Details interface{} `json:"details,omitempty"`
}

// Error provides a comprehensive error string, typically for logging.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("AppError: Code=%d, Message=%s, UnderlyingError=%v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("AppError: Code=%d, Message=%s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error chaining (e.g., with errors.Is and errors.As).
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithKind sets Kind and returns e.
func (e *AppError) WithKind(kind string) *AppError {
	e.Kind = kind
	return e
}

// FormatValidationErrors converts validator.ValidationErrors into a map for structured client responses.
// If the error is not a validator.ValidationErrors but is still non-nil, it returns the error message string.
// If the error is nil, it returns nil.
func FormatValidationErrors(err error) interface{} {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := make(map[string]string)
		for _, fe := range ves {
			if fe.Param() != "" {
				out[fe.Namespace()] = fmt.Sprintf("failed on validation tag '%s=%s'", fe.Tag(), fe.Param())
				continue
			}
			out[fe.Namespace()] = fmt.Sprintf("failed on validation tag '%s'", fe.Tag())
		}
		return out
	}

	// - If it's some other non-nil error type, return its string representation.
	return err.Error()
}

// NewAppError creates a new AppError. Only the first of details is kept.
func NewAppError(code int, message string, underlyingErr error, details ...interface{}) *AppError {
	var d interface{}
	if len(details) > 0 {
		d = details[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Err:     underlyingErr,
		Details: d,
	}
}

// ToJSONResponse prepares the AppError for a JSON response to the client.
func (e *AppError) ToJSONResponse(production bool) map[string]interface{} {
	response := map[string]interface{}{
		"error": e.Message,
	}

	if e.Kind != "" {
		response["kind"] = e.Kind
	}

	if e.Details != nil {
		response["details"] = e.Details
	}

	if e.Err != nil && !production {
		response["underlying_error"] = e.Err.Error()
	}

	return response
}
