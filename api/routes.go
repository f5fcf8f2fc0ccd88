// Package api exposes the validation engine over HTTP.
package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grzegorzmaniak/fieldguard/core"
	"github.com/grzegorzmaniak/fieldguard/errors"
	"github.com/grzegorzmaniak/fieldguard/metrics"
	"github.com/grzegorzmaniak/fieldguard/rules"
	"github.com/grzegorzmaniak/fieldguard/security"
	"github.com/grzegorzmaniak/fieldguard/validation"
)

// Routes is the base route shared by every handler.
type Routes struct {
	Metrics *metrics.Collector
}

type RouteContext = core.Handler[*Routes]

var defaultRouteConfig = &core.APIConfiguration{}

type ValidateInput struct {
	Value        interface{} `json:"value"`
	FieldType    string      `json:"fieldType" validate:"required,max=100"`
	SecurityOnly bool        `json:"securityOnly"`
}

type ValidateOutput struct {
	validation.Response
	RequestID string `json:"-" header:"X-Request-ID"`
}

func Validate(input *ValidateInput, data *RouteContext) (*ValidateOutput, *errors.AppError) {
	resp := data.Engine.Validate(data.Context.Request.Context(), validation.Request{
		Value:        input.Value,
		FieldType:    input.FieldType,
		SecurityOnly: input.SecurityOnly,
	})
	return &ValidateOutput{Response: resp, RequestID: data.RequestID}, nil
}

// ValidateAndThrow answers 200 for accepted values and an error envelope
// carrying the exact rejection message otherwise.
func ValidateAndThrow(input *ValidateInput, data *RouteContext) (*ValidateOutput, *errors.AppError) {
	err := data.Engine.Enforce(data.Context.Request.Context(), validation.Request{
		Value:        input.Value,
		FieldType:    input.FieldType,
		SecurityOnly: input.SecurityOnly,
	})
	if err == nil {
		return &ValidateOutput{Response: validation.Response{IsValid: true}, RequestID: data.RequestID}, nil
	}

	var ve *validation.ValidationError
	if !stderrors.As(err, &ve) {
		return nil, errors.NewInternalServerError("", err)
	}
	return nil, validation.ToAppError(input.FieldType, ve.Response())
}

type ValidateMultipleInput struct {
	Values    string `json:"values"`
	FieldType string `json:"fieldType" validate:"required,max=100"`
}

func ValidateMultiple(input *ValidateMultipleInput, data *RouteContext) (*ValidateOutput, *errors.AppError) {
	resp := data.Engine.ValidateMultiple(data.Context.Request.Context(), input.Values, input.FieldType)
	return &ValidateOutput{Response: resp, RequestID: data.RequestID}, nil
}

type ScanInput struct {
	Value interface{} `json:"value"`
	All   bool        `json:"all"`
}

type ScanOutput struct {
	Secure      bool               `json:"secure"`
	Pattern     string             `json:"pattern,omitempty"`
	ThreatLevel string             `json:"threatLevel,omitempty"`
	Description string             `json:"description,omitempty"`
	Matches     []security.Pattern `json:"matches,omitempty"`
}

// Scan reports the first matching pattern; with All set, every match is listed
// and the most severe one is reported.
func Scan(input *ScanInput, data *RouteContext) (*ScanOutput, *errors.AppError) {
	scanner := data.Engine.Scanner()

	var match *security.Pattern
	out := &ScanOutput{}
	if input.All {
		out.Matches = scanner.ScanAll(input.Value)
		if worst, ok := security.MostSevere(out.Matches); ok {
			match = &worst
		}
	} else {
		match = scanner.Scan(input.Value).Match
	}

	out.Secure = match == nil
	if match != nil {
		out.Pattern = match.Name
		out.ThreatLevel = match.ThreatLevel.String()
		out.Description = match.Description
		data.BaseRoute.Metrics.Threat(match.Name, match.ThreatLevel.String())
	}
	return out, nil
}

type EmptyInput struct{}

type StatsOutput struct {
	validation.Stats
}

func Stats(_ *EmptyInput, data *RouteContext) (*StatsOutput, *errors.AppError) {
	return &StatsOutput{Stats: data.Engine.GetStats()}, nil
}

type InvalidateInput struct {
	FieldType string `json:"fieldType" form:"fieldType" validate:"max=100"`
}

type InvalidateOutput struct {
	Invalidated []string `json:"invalidated"`
	All         bool     `json:"all"`
}

// Invalidate drops one cached rule, or all of them when no field type is given.
func Invalidate(input *InvalidateInput, data *RouteContext) (*InvalidateOutput, *errors.AppError) {
	ctx := data.Context.Request.Context()
	if input.FieldType == "" {
		data.Engine.ClearCache(ctx)
		return &InvalidateOutput{Invalidated: []string{}, All: true}, nil
	}

	data.Engine.Invalidate(ctx, input.FieldType)
	return &InvalidateOutput{Invalidated: []string{input.FieldType}}, nil
}

type RuleInput struct {
	FieldType string `form:"fieldType" validate:"required,max=100"`
}

type RuleOutput struct {
	*rules.Rule
	Pattern string `json:"pattern,omitempty"`
}

// Rule describes the rule currently applied to a field type.
func Rule(input *RuleInput, data *RouteContext) (*RuleOutput, *errors.AppError) {
	rule, err := data.Engine.Rule(data.Context.Request.Context(), input.FieldType)
	switch {
	case err == nil:
		return &RuleOutput{Rule: rule, Pattern: rule.Expression()}, nil
	case stderrors.Is(err, rules.ErrRuleNotFound):
		return nil, errors.NewNotFound("Validation rule not found for field type: "+input.FieldType, err).WithKind(string(validation.KindRuleNotFound))
	case stderrors.Is(err, rules.ErrRuleUnavailable):
		return nil, errors.NewServiceUnavailable("", err).WithKind(string(validation.KindRuleUnavailable))
	default:
		return nil, errors.NewInternalServerError("", err)
	}
}

// Register mounts every validation route on router under /validation, and the
// Prometheus endpoint at /metrics when a collector is set.
func Register(router gin.IRouter, base *Routes, engine *validation.Engine) {
	group := router.Group("/validation")

	core.POST(group, "/validate", base, defaultRouteConfig, engine, Validate)
	core.POST(group, "/validate-and-throw", base, defaultRouteConfig, engine, ValidateAndThrow)
	core.POST(group, "/validate-multiple", base, defaultRouteConfig, engine, ValidateMultiple)
	core.POST(group, "/scan", base, defaultRouteConfig, engine, Scan)
	core.GET(group, "/stats", base, defaultRouteConfig, engine, Stats)
	core.GET(group, "/rule", base, defaultRouteConfig, engine, Rule)
	core.POST(group, "/cache/invalidate", base, defaultRouteConfig, engine, Invalidate)
	core.DELETE(group, "/cache", base, defaultRouteConfig, engine, Invalidate)

	if base.Metrics != nil {
		router.GET("/metrics", gin.WrapH(base.Metrics.Handler()))
	}
}

// NewRouter builds a gin engine with recovery, request ids, access logs and every route.
func NewRouter(base *Routes, engine *validation.Engine) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware())

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	Register(router, base, engine)
	return router
}
