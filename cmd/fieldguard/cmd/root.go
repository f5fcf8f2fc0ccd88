package cmd

import (
	"context"
	"fmt"

	"github.com/grzegorzmaniak/fieldguard/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "fieldguard",
	Short: "Field and security validation engine",
	Long: `fieldguard validates user-supplied field values against per-field rules
and scans them for injection and path traversal patterns.

Commands:
  serve     - HTTP API (validation, scan, cache and metrics routes)
  validate  - validate values for one field type
  scan      - run the security scanner over values
  rules     - print the rule resolved for each field type`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Overrides log.level")
}

// loadConfig reads --config, or the defaults when it is empty, and applies --log-level.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// setup loads the configuration, installs the global logger and builds the runtime.
func setup(ctx context.Context) (*config.Config, *config.Runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)

	rt, err := config.Build(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build validation engine: %w", err)
	}
	return cfg, rt, nil
}
