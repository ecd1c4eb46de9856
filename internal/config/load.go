package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/phrazzld/classroom/internal/ciutil"
	"github.com/spf13/viper"
)

// PlatformDatabaseURLEnv is the unprefixed connection string many hosting
// platforms inject. It seeds database.url when nothing else sets it.
const PlatformDatabaseURLEnv = "DATABASE_URL"

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. CLASSROOM_DATABASE_DRIVER.
const EnvPrefix = "CLASSROOM"

// ConfigFileEnv names an explicit YAML config file to read.
const ConfigFileEnv = EnvPrefix + "_CONFIG_FILE"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory, when present, is loaded into the
// process environment first without overriding variables already set.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the cross-field submission policy rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := c.Policy.SubmissionPolicy().Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.url", ciutil.GetEnvWithFallbacks([]string{PlatformDatabaseURLEnv}, "", nil))
	v.SetDefault("database.migrate_on_start", false)

	v.SetDefault("policy.allow_resubmission", false)
	v.SetDefault("policy.allow_resubmit_after_grading", false)
	v.SetDefault("policy.lateness_basis", "resubmission")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "classroom")
}
