package validation

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grzegorzmaniak/fieldguard/errors"
	"go.uber.org/zap"
)

// MaxBodyBytes caps the JSON body read by BindInput.
const MaxBodyBytes = 1 << 20

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// BindInput fills a T from the request headers, then the query string, then
// the JSON body for methods that carry one. JSON numbers are decoded as
// json.Number so long digit strings reach the engine unrounded.
func BindInput[T any](ctx *gin.Context) (*T, *errors.AppError) {
	var input T

	if err := ctx.ShouldBindHeader(&input); err != nil {
		return nil, errors.NewValidationFailed("Failed to bind headers", err)
	}

	if err := ctx.ShouldBindQuery(&input); err != nil {
		return nil, errors.NewValidationFailed("Failed to bind query parameters", err)
	}

	if !carriesBody(ctx.Request.Method) || ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return &input, nil
	}

	decoder := json.NewDecoder(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, MaxBodyBytes))
	decoder.UseNumber()

	if err := decoder.Decode(&input); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.Is(err, io.EOF):
			return &input, nil
		case stderrors.As(err, &tooLarge):
			return nil, errors.NewAppError(http.StatusRequestEntityTooLarge, "Request body is too large", err)
		default:
			return nil, errors.NewBadRequest("Failed to bind JSON body", err)
		}
	}

	if decoder.More() {
		return nil, errors.NewBadRequest("Request body must contain a single JSON value", nil)
	}
	return &input, nil
}

// InputData binds the input and runs the struct validator over it. Tags bound
// to an Engine (see RegisterFieldTypeTag) receive the request context.
func InputData[T any](ctx *gin.Context) (*T, *errors.AppError) {
	if CustomValidator == nil {
		zap.L().Debug("CustomValidator is nil, initializing default validator")
		initDefaultValidator()
	}

	input, err := BindInput[T](ctx)
	if err != nil {
		return nil, err
	}

	if err := CustomValidator.StructCtx(ctx.Request.Context(), *input); err != nil {
		return nil, errors.NewValidationFailed("Input validation failed", err)
	}
	return input, nil
}
