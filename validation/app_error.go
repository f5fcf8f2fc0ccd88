package validation

import (
	"github.com/grzegorzmaniak/fieldguard/errors"
)

// ToAppError maps a Response that was not accepted onto the HTTP error
// envelope. The client message is the rejection message, unchanged.
func ToAppError(fieldType string, resp Response) *errors.AppError {
	if resp.IsValid {
		return nil
	}

	err := newValidationError(fieldType, resp)
	details := map[string]string{"fieldType": fieldType}
	if resp.Reason != "" {
		details["reason"] = resp.Reason
	}
	if resp.Pattern != "" {
		details["pattern"] = resp.Pattern
	}

	var appErr *errors.AppError
	switch resp.Kind {
	case KindRuleNotFound:
		appErr = errors.NewNotFound(resp.Error, err, details)
	case KindRuleUnavailable:
		appErr = errors.NewServiceUnavailable(resp.Error, err, details)
	case KindInternal:
		appErr = errors.NewInternalServerError(resp.Error, err, details)
	default:
		appErr = errors.NewValueRejected(resp.Error, err, details)
	}
	return appErr.WithKind(string(resp.Kind))
}
