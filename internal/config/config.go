package config

import "github.com/phrazzld/classroom/internal/domain"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Log      LogConfig      `mapstructure:"log" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Policy   PolicyConfig   `mapstructure:"policy" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and configures the persistence backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory postgres"`
	// URL is required for the postgres driver.
	URL            string `mapstructure:"url" validate:"required_if=Driver postgres"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

// PolicyConfig holds the institution's submission rules.
type PolicyConfig struct {
	AllowResubmission         bool   `mapstructure:"allow_resubmission"`
	AllowResubmitAfterGrading bool   `mapstructure:"allow_resubmit_after_grading"`
	LatenessBasis             string `mapstructure:"lateness_basis" validate:"required,oneof=original resubmission"`
}

// SubmissionPolicy converts the configured rules into the domain policy.
func (p PolicyConfig) SubmissionPolicy() domain.SubmissionPolicy {
	return domain.SubmissionPolicy{
		AllowResubmission:         p.AllowResubmission,
		AllowResubmitAfterGrading: p.AllowResubmitAfterGrading,
		LatenessBasis:             domain.LatenessBasis(p.LatenessBasis),
	}
}

// MetricsConfig controls the prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}
