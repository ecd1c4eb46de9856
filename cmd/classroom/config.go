package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/classroom/internal/config"
	"github.com/phrazzld/classroom/internal/platform/logger"
)

// loadAppConfig loads the application configuration from the environment and
// an optional config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupAppLogger configures the process logger from cfg.
func setupAppLogger(cfg *config.Config, out io.Writer) (*slog.Logger, error) {
	l, err := logger.Setup(logger.LoggerConfig{
		Level:  cfg.Log.Level,
		Output: out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("configuration loaded",
		slog.String("log_level", cfg.Log.Level),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("allow_resubmission", cfg.Policy.AllowResubmission),
		slog.String("lateness_basis", cfg.Policy.LatenessBasis),
		slog.Bool("metrics_enabled", cfg.Metrics.Enabled))
	return l, nil
}
