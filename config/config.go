// Package config loads the service configuration and assembles the
// validation engine from it.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/grzegorzmaniak/fieldguard/cache"
	"github.com/grzegorzmaniak/fieldguard/helpers"
	"github.com/grzegorzmaniak/fieldguard/settings"
	"gopkg.in/yaml.v3"
)

// Settings sources.
const (
	SourceNone     = "none"
	SourceMemory   = "memory"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

const (
	DefaultAddress = ":8080"
	DefaultLevel   = "info"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Cache    CacheConfig    `yaml:"cache"`
	Settings SettingsConfig `yaml:"settings"`
	Security SecurityConfig `yaml:"security"`
	Rules    RulesConfig    `yaml:"rules"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Address string `yaml:"address" validate:"required"`
	Mode    string `yaml:"mode" validate:"omitempty,oneof=debug release test"`
}

type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

type CacheConfig struct {
	RuleTTL              time.Duration `yaml:"ruleTTL" validate:"gte=0"`
	RistrettoMaxCost     int64         `yaml:"ristrettoMaxCost" validate:"gte=0"`
	RistrettoNumCounters int64         `yaml:"ristrettoNumCounters" validate:"gte=0"`
	RistrettoBufferItems int64         `yaml:"ristrettoBufferItems" validate:"gte=0"`
}

type SettingsConfig struct {
	Source       string            `yaml:"source" validate:"oneof=none memory file postgres"`
	File         string            `yaml:"file" validate:"required_if=Source file"`
	PostgresDSN  string            `yaml:"postgresDSN" validate:"required_if=Source postgres"`
	Table        string            `yaml:"table"`
	QueryTimeout time.Duration     `yaml:"queryTimeout" validate:"gte=0"`
	Values       map[string]string `yaml:"values"`
}

type SecurityConfig struct {
	UnknownPatternPolicy string `yaml:"unknownPatternPolicy" validate:"oneof=allow deny"`
	Precheck             bool   `yaml:"precheck"`
}

type RulesConfig struct {
	// File optionally extends or overrides the built-in static rules.
	File string `yaml:"file"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

var configValidator = validator.New()

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	applyDefaults(cfg)
	return cfg
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	data, err := os.ReadFile(os.ExpandEnv(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML after substituting ${VAR} references from the
// environment, then applies defaults and validates the result.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Server.Address = helpers.Default(cfg.Server.Address, DefaultAddress)
	cfg.Log.Level = strings.ToLower(helpers.Default(cfg.Log.Level, DefaultLevel))
	cfg.Cache.RuleTTL = helpers.Default(cfg.Cache.RuleTTL, cache.DefaultTTL)
	cfg.Settings.Source = helpers.Default(cfg.Settings.Source, SourceNone)
	cfg.Settings.Table = helpers.Default(cfg.Settings.Table, settings.DefaultSettingsTable)
	cfg.Settings.QueryTimeout = helpers.Default(cfg.Settings.QueryTimeout, settings.DefaultQueryTimeout)
	cfg.Security.UnknownPatternPolicy = strings.ToLower(helpers.Default(cfg.Security.UnknownPatternPolicy, "allow"))
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return configValidator.Struct(c)
}

// CacheManagerConfig converts the cache section into the ristretto manager settings.
func (c *Config) CacheManagerConfig() *cache.Config {
	return &cache.Config{
		RistrettoMaxCost:     c.Cache.RistrettoMaxCost,
		RistrettoNumCounters: c.Cache.RistrettoNumCounters,
		RistrettoBufferItems: c.Cache.RistrettoBufferItems,
	}
}
