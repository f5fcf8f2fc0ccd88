package validation

import (
	"reflect"

	"github.com/grzegorzmaniak/fieldguard/errors"
	"github.com/grzegorzmaniak/fieldguard/helpers"
)

// OutputData validates a handler's output and collects its `header:"Name"`
// fields, including those promoted from embedded structs. Zero-valued header
// fields are not sent.
func OutputData[Output any](output *Output) (map[string]string, *Output, *errors.AppError) {
	headers := make(map[string]string)

	if output == nil {
		return headers, nil, errors.NewInternalServerError("Output data is nil, cannot validate", nil, "nil_output_validation")
	}

	if CustomValidator == nil {
		initDefaultValidator()
	}

	if err := CustomValidator.Struct(*output); err != nil {
		return headers, nil, errors.NewValidationFailed("Output data validation failed", err)
	}

	collectHeaders(reflect.ValueOf(*output), headers)
	return headers, output, nil
}

func collectHeaders(val reflect.Value, headers map[string]string) {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		value := val.Field(i)

		name, tagged := field.Tag.Lookup("header")
		switch {
		case tagged && name != "" && name != "-":
			if field.IsExported() && !value.IsZero() {
				headers[name] = helpers.Stringify(value.Interface())
			}
		case field.Anonymous:
			collectHeaders(value, headers)
		}
	}
}
