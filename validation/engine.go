// Package validation checks field values against their rules and the security
// pattern library, and holds the request binding helpers of the HTTP layer.
package validation

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/grzegorzmaniak/fieldguard/cache"
	"github.com/grzegorzmaniak/fieldguard/helpers"
	"github.com/grzegorzmaniak/fieldguard/metrics"
	"github.com/grzegorzmaniak/fieldguard/rules"
	"github.com/grzegorzmaniak/fieldguard/security"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// RuleCacheName prefixes every rule key inside the shared store.
const RuleCacheName = "rule"

// Engine resolves rules through a TTL cache in front of a rules.Store and
// evaluates values against them. It is safe for concurrent use.
type Engine struct {
	store    *rules.Store
	scanner  *security.Scanner
	cache    *cache.TTLCache[*rules.Rule]
	metrics  *metrics.Collector
	precheck bool
}

type Option func(*Engine)

// WithMetrics records cache lookups, outcomes and threats into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = c
	}
}

// WithSecurityPrecheck runs the scanner before the field rule on every call.
func WithSecurityPrecheck(enabled bool) Option {
	return func(e *Engine) {
		e.precheck = enabled
	}
}

// NewEngine wires an engine. A nil store has only the static table, a nil
// scanner uses the default library and a nil ruleCache gets a private one
// with cache.DefaultTTL.
func NewEngine(store *rules.Store, scanner *security.Scanner, ruleCache *cache.TTLCache[*rules.Rule], opts ...Option) (*Engine, error) {
	if store == nil {
		store = rules.NewStore(nil)
	}
	if scanner == nil {
		scanner = security.NewScanner(nil)
	}
	if ruleCache == nil {
		c, err := cache.NewTTLCache[*rules.Rule](RuleCacheName, cache.DefaultTTL, nil)
		if err != nil {
			return nil, err
		}
		ruleCache = c
	}

	e := &Engine{
		store:   store,
		scanner: scanner,
		cache:   ruleCache,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Scanner() *security.Scanner {
	return e.scanner
}

func (e *Engine) Store() *rules.Store {
	return e.store
}

// Validate never fails: every outcome, including a recovered panic, is a Response.
func (e *Engine) Validate(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("Recovered from panic during validation",
				zap.String("fieldType", req.FieldType),
				zap.Any("panic", r),
				zap.Stack("stack"))
			resp = rejected(KindInternal, "", MessageInternal)
			e.metrics.Validation(req.FieldType, KindInternal.label())
		}
	}()

	resp = e.validate(ctx, req)
	e.metrics.Validation(req.FieldType, resp.Kind.label())
	return resp
}

// Enforce validates req and returns a *ValidationError carrying the exact
// rejection message when the value is not accepted.
func (e *Engine) Enforce(ctx context.Context, req Request) error {
	resp := e.Validate(ctx, req)
	if resp.IsValid {
		return nil
	}
	return newValidationError(req.FieldType, resp)
}

func (e *Engine) validate(ctx context.Context, req Request) Response {
	value := helpers.Stringify(req.Value)

	// - Security only mode never looks at the field rule
	if req.SecurityOnly {
		return e.scan(value)
	}

	if e.precheck {
		if resp := e.scan(value); !resp.IsValid {
			return resp
		}
	}

	rule, err := e.resolve(ctx, req.FieldType)
	if err != nil {
		switch {
		case errors.Is(err, rules.ErrRuleUnavailable):
			zap.L().Error("Validation rule unavailable", zap.String("fieldType", req.FieldType), zap.Error(err))
			return rejected(KindRuleUnavailable, "", messageRuleUnavailable+req.FieldType)

		case errors.Is(err, rules.ErrRuleNotFound):
			zap.L().Warn("Validation rule not found", zap.String("fieldType", req.FieldType))
			return rejected(KindRuleNotFound, "", messageRuleNotFound+req.FieldType)

		default:
			zap.L().Error("Failed to resolve validation rule", zap.String("fieldType", req.FieldType), zap.Error(err))
			return rejected(KindInternal, "", MessageInternal)
		}
	}

	resp := Check(rule, value)
	if !resp.IsValid {
		zap.L().Debug("Value rejected",
			zap.String("fieldType", req.FieldType),
			zap.String("reason", resp.Reason))
	}
	return resp
}

func (e *Engine) scan(value string) Response {
	result := e.scanner.Scan(value)
	if result.Secure {
		return accepted()
	}

	e.metrics.Threat(result.Match.Name, result.Match.ThreatLevel.String())
	resp := rejected(KindValueRejected, ReasonSecurity, result.Match.Description)
	resp.Pattern = result.Match.Name
	return resp
}

// Rule returns a copy of the rule applied to fieldType, resolving and caching
// it when needed. Changes to the copy do not reach the cached rule.
func (e *Engine) Rule(ctx context.Context, fieldType string) (*rules.Rule, error) {
	rule, err := e.resolve(ctx, fieldType)
	if err != nil {
		return nil, err
	}
	return rule.Clone(), nil
}

// resolve returns the cached rule, or resolves and caches it on a miss.
// Failed resolutions are never cached.
func (e *Engine) resolve(ctx context.Context, fieldType string) (*rules.Rule, error) {
	if rule, ok := e.cache.Get(ctx, fieldType); ok {
		zap.L().Debug("Rule cache hit", zap.String("fieldType", fieldType))
		e.metrics.CacheHit()
		return rule, nil
	}

	zap.L().Debug("Rule cache miss", zap.String("fieldType", fieldType))
	e.metrics.CacheMiss()

	rule, err := e.store.Resolve(ctx, fieldType)
	if err != nil {
		return nil, err
	}

	e.metrics.RuleResolved(string(rule.Source))
	if rule.Fallback {
		e.metrics.FallbackPattern(fieldType)
	}

	_ = e.cache.Put(ctx, fieldType, rule)
	return rule, nil
}

// Check applies rule to value in a fixed order, stopping at the first failure:
// required, optional-empty, minimum length, maximum length, pattern, then the
// letter and number requirements. Lengths count runes of the NFC form.
func Check(rule *rules.Rule, value string) Response {
	value = norm.NFC.String(value)

	if strings.TrimSpace(value) == "" {
		if rule.Required {
			return rejected(KindValueRejected, string(rules.MessageRequired), rule.Message(rules.MessageRequired))
		}
		return accepted()
	}

	length := utf8.RuneCountInString(value)
	if rule.MinLength > 0 && length < rule.MinLength {
		return rejected(KindValueRejected, string(rules.MessageMinLength), rule.Message(rules.MessageMinLength))
	}
	if rule.MaxLength > 0 && length > rule.MaxLength {
		return rejected(KindValueRejected, string(rules.MessageMaxLength), rule.Message(rules.MessageMaxLength))
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		return rejected(KindValueRejected, string(rules.MessageInvalidChars), rule.Message(rules.MessageInvalidChars))
	}

	if rule.RequireLetter && !strings.ContainsFunc(value, unicode.IsLetter) {
		return rejected(KindValueRejected, string(rules.MessageNoLetter), rule.Message(rules.MessageNoLetter))
	}
	if rule.RequireNumber && !strings.ContainsFunc(value, unicode.IsDigit) {
		return rejected(KindValueRejected, string(rules.MessageNoNumber), rule.Message(rules.MessageNoNumber))
	}

	return accepted()
}
