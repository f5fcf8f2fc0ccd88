package core

import (
	"github.com/gin-gonic/gin"
	"github.com/grzegorzmaniak/fieldguard/validation"
)

// Handler is what a route handler receives next to its bound input.
type Handler[BaseRoute any] struct {
	BaseRoute BaseRoute
	Context   *gin.Context
	Engine    *validation.Engine
	RequestID string
}

type APIConfiguration struct {
	// ManualResponse is a flag to indicate if the response should be handled manually
	// defaults to false
	ManualResponse bool

	// StatusCode is sent with a successful, non-empty response (Default: 200)
	StatusCode int
}
