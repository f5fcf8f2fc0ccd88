package validation

import (
	"context"
	"strings"
)

// ValidateMultiple checks a comma-separated list against one field type.
// Blank items are skipped; a list with no items is validated as a single
// empty value. Item failures are reported as "<item>: <message>" joined by
// "; ". A failure that is not a value rejection (missing or unavailable rule,
// internal error) is returned as is, since it applies to every item.
func (e *Engine) ValidateMultiple(ctx context.Context, values string, fieldType string) Response {
	items := make([]string, 0)
	for _, item := range strings.Split(values, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return e.Validate(ctx, Request{Value: "", FieldType: fieldType})
	}
	e.metrics.MultipleItems(len(items))

	failures := make([]string, 0)
	for _, item := range items {
		resp := e.Validate(ctx, Request{Value: item, FieldType: fieldType})
		if resp.IsValid {
			continue
		}
		if resp.Kind != KindValueRejected {
			return resp
		}
		failures = append(failures, item+": "+resp.Error)
	}

	if len(failures) == 0 {
		return accepted()
	}
	return rejected(KindValueRejected, ReasonMultiple, strings.Join(failures, "; "))
}
