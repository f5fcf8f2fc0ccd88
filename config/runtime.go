package config

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grzegorzmaniak/fieldguard/cache"
	"github.com/grzegorzmaniak/fieldguard/metrics"
	"github.com/grzegorzmaniak/fieldguard/rules"
	"github.com/grzegorzmaniak/fieldguard/security"
	"github.com/grzegorzmaniak/fieldguard/settings"
	"github.com/grzegorzmaniak/fieldguard/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Runtime is everything a process needs to serve validations.
type Runtime struct {
	Engine  *validation.Engine
	Metrics *metrics.Collector
	db      *sql.DB
}

// Close releases the settings database, if one was opened.
func (r *Runtime) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// NewLogger builds a zap logger for the log section.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// NewProvider opens the configured settings source. The returned *sql.DB is
// non-nil only for the postgres source and must be closed by the caller.
func NewProvider(ctx context.Context, cfg SettingsConfig) (settings.Provider, *sql.DB, error) {
	switch cfg.Source {
	case SourceNone, "":
		return nil, nil, nil

	case SourceMemory:
		return settings.NewMemoryProvider(cfg.Values), nil, nil

	case SourceFile:
		provider, err := settings.LoadFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return provider, nil, nil

	case SourcePostgres:
		db, err := settings.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		provider, err := settings.NewPostgresProvider(db, cfg.Table, cfg.QueryTimeout)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return provider, db, nil

	default:
		return nil, nil, fmt.Errorf("unknown settings source %q", cfg.Source)
	}
}

// Build wires the settings provider, rule store, scanner, rule cache and
// metrics into an engine.
func Build(ctx context.Context, cfg *Config) (*Runtime, error) {
	provider, db, err := NewProvider(ctx, cfg.Settings)
	if err != nil {
		return nil, err
	}
	runtime := &Runtime{db: db}

	fail := func(err error) (*Runtime, error) {
		_ = runtime.Close()
		return nil, err
	}

	var extra []*rules.Rule
	if cfg.Rules.File != "" {
		extra, err = rules.LoadStaticFile(cfg.Rules.File)
		if err != nil {
			return fail(err)
		}
		zap.L().Info("Loaded static rules", zap.String("file", cfg.Rules.File), zap.Int("rules", len(extra)))
	}

	policy, err := security.ParseUnknownPatternPolicy(cfg.Security.UnknownPatternPolicy)
	if err != nil {
		return fail(err)
	}

	ruleCache, err := cache.NewTTLCache[*rules.Rule](validation.RuleCacheName, cfg.Cache.RuleTTL, cfg.CacheManagerConfig())
	if err != nil {
		return fail(err)
	}

	opts := []validation.Option{validation.WithSecurityPrecheck(cfg.Security.Precheck)}
	if cfg.Metrics.Enabled {
		runtime.Metrics = metrics.NewCollector(metrics.Config{
			Namespace:            cfg.Metrics.Namespace,
			EnableGoMetrics:      true,
			EnableProcessMetrics: true,
		})
		opts = append(opts, validation.WithMetrics(runtime.Metrics))
	}

	runtime.Engine, err = validation.NewEngine(
		rules.NewStore(provider, extra...),
		security.NewScanner(nil, security.WithUnknownPatternPolicy(policy)),
		ruleCache,
		opts...,
	)
	if err != nil {
		return fail(err)
	}

	zap.L().Info("Validation engine assembled",
		zap.String("settingsSource", cfg.Settings.Source),
		zap.Duration("ruleTTL", ruleCache.TTL()),
		zap.Bool("precheck", cfg.Security.Precheck),
		zap.Bool("metrics", cfg.Metrics.Enabled))
	return runtime, nil
}
