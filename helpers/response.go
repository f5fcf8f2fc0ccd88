package helpers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grzegorzmaniak/fieldguard/errors"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin context key the request id is stored under.
	RequestIDKey = "fieldguard.requestID"
)

// RequestID returns the id attached to ctx by the request id middleware, or "".
func RequestID(ctx *gin.Context) string {
	if ctx == nil {
		return ""
	}
	return ctx.GetString(RequestIDKey)
}

// ErrorResponse sends a JSON error response to the client.
func ErrorResponse(ctx *gin.Context, appErr *errors.AppError) {
	production := gin.Mode() == gin.ReleaseMode

	// - Should not happen.
	if appErr == nil {
		zap.L().Warn("ErrorResponse called with nil error")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred."})
		return
	}

	// - Log the AppError, including its underlying error if present
	logFields := []zap.Field{
		zap.Int("statusCode", appErr.Code),
		zap.String("clientMessage", appErr.Message),
		zap.String("requestID", RequestID(ctx)),
	}

	if appErr.Kind != "" {
		logFields = append(logFields, zap.String("kind", appErr.Kind))
	}

	if appErr.Err != nil {
		logFields = append(logFields, zap.Error(appErr.Err))
	}

	// - Attempt to marshal details for logging if it's complex
	if appErr.Details != nil {
		detailBytes, _ := json.Marshal(appErr.Details)
		logFields = append(logFields, zap.String("details", string(detailBytes)))
	}

	zap.L().Debug("Application error occurred", logFields...)

	ctx.JSON(appErr.Code, appErr.ToJSONResponse(production))
	ctx.Abort()
}

// SuccessResponse sends a JSON success response with the given status.
// A nil body is sent as 204 No Content.
func SuccessResponse(ctx *gin.Context, status int, data interface{}, headers map[string]string) {
	for key, value := range headers {
		ctx.Header(key, value)
	}

	if data == nil {
		ctx.Status(http.StatusNoContent)
		ctx.Writer.WriteHeaderNow()
		return
	}

	ctx.JSON(status, data)
}
