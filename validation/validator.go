package validation

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// FieldTypeTag is the struct tag that checks a field with an Engine,
// e.g. `validate:"fieldtype=userName"`.
const FieldTypeTag = "fieldtype"

// CustomValidator is the struct validator used by InputData and OutputData.
var (
	CustomValidator *validator.Validate
	once            sync.Once
)

// InitValidator sets the global validator instance to the one provided ONCE.
func InitValidator(v *validator.Validate) {
	once.Do(func() {
		zap.L().Debug("Initializing default validator")
		CustomValidator = v
	})
}

// initDefaultValidator initializes the global validator with a default instance.
func initDefaultValidator() {
	InitValidator(validator.New())
}

// NewStructValidator returns a validator with the fieldtype tag bound to engine.
func NewStructValidator(engine *Engine) (*validator.Validate, error) {
	v := validator.New()
	if err := RegisterFieldTypeTag(v, engine); err != nil {
		return nil, err
	}
	return v, nil
}

// RegisterFieldTypeTag adds the fieldtype tag to v. The tag parameter names
// the field type; the value is accepted iff engine.Validate accepts it.
func RegisterFieldTypeTag(v *validator.Validate, engine *Engine) error {
	return v.RegisterValidationCtx(FieldTypeTag, func(ctx context.Context, fl validator.FieldLevel) bool {
		resp := engine.Validate(ctx, Request{
			Value:     fl.Field().Interface(),
			FieldType: fl.Param(),
		})
		return resp.IsValid
	})
}
