// Package config provides configuration management for the Stockcast service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables override file values (STOCKCAST_DATABASE_HOST etc.)
	v.SetEnvPrefix("STOCKCAST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return unmarshalConfig(v)
}

// LoadWithDefaults loads configuration with default values for optional
// fields, tolerating a missing config file.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("STOCKCAST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "stockcast")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("forecast.validation_split", 0.8)
	v.SetDefault("forecast.horizon", 5)
	v.SetDefault("forecast.cache_ttl_seconds", 300)
	v.SetDefault("forecast.cache_max_size", 1000)
	v.SetDefault("forecast.retraining_interval_hours", 24)
	v.SetDefault("signal.sensitivity", "moderate")
	v.SetDefault("risk.risk_fraction", 0.02)
	v.SetDefault("risk.max_position_pct", 0.20)
	v.SetDefault("risk.stop_mode", "percentage")
	v.SetDefault("risk.stop_percentage", 0.05)
	v.SetDefault("risk.reward_risk_ratio", 2.0)
	v.SetDefault("backtest.commission", 1.0)
	v.SetDefault("backtest.exit_on_end", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, continue with defaults and environment variables

	return unmarshalConfig(v)
}

// unmarshalConfig decodes the viper tree into Config. The extra decode hook
// turns unquoted YAML dates, which the parser reads as time.Time, back into
// the YYYY-MM-DD strings the date fields expect.
func unmarshalConfig(v *viper.Viper) (*Config, error) {
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timeToDateStringHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	cfg := &Config{}
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func timeToDateStringHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from != reflect.TypeOf(time.Time{}) || to.Kind() != reflect.String {
			return data, nil
		}
		return data.(time.Time).Format(time.DateOnly), nil
	}
}
