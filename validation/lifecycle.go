package validation

import (
	"context"
	"errors"
	"fmt"

	"github.com/grzegorzmaniak/fieldguard/cache"
	"go.uber.org/zap"
)

// Stats reports the rule cache and the security library of an engine.
type Stats struct {
	Cache      cache.Stats `json:"cache"`
	TTL        string      `json:"ttl"`
	FieldTypes []string    `json:"fieldTypes"`
	Patterns   int         `json:"patterns"`
}

// Initialize resolves every known field type and fills the rule cache.
// Field types that cannot be resolved are skipped; their errors are joined.
func (e *Engine) Initialize(ctx context.Context) error {
	var errs []error
	warmed := 0

	for _, fieldType := range e.store.FieldTypes() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := e.resolve(ctx, fieldType); err != nil {
			zap.L().Warn("Failed to warm rule cache", zap.String("fieldType", fieldType), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", fieldType, err))
			continue
		}
		warmed++
	}

	zap.L().Info("Validation engine initialized",
		zap.Int("rules", warmed),
		zap.Int("patterns", e.scanner.Library().Len()))
	return errors.Join(errs...)
}

// ClearCache drops every cached rule.
func (e *Engine) ClearCache(ctx context.Context) {
	e.cache.Invalidate(ctx)
	zap.L().Info("Rule cache cleared")
}

// Invalidate drops the rules of the given field types, or every rule when none are given.
func (e *Engine) Invalidate(ctx context.Context, fieldTypes ...string) {
	e.cache.Invalidate(ctx, fieldTypes...)
	zap.L().Debug("Rule cache invalidated", zap.Strings("fieldTypes", fieldTypes))
}

func (e *Engine) GetStats() Stats {
	return Stats{
		Cache:      e.cache.Stats(),
		TTL:        e.cache.TTL().String(),
		FieldTypes: e.store.FieldTypes(),
		Patterns:   e.scanner.Library().Len(),
	}
}
