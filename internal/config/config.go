// Package config provides configuration management for the Stockcast service.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	MarketData MarketDataConfig `mapstructure:"market_data" validate:"required"`
	Forecast   ForecastConfig   `mapstructure:"forecast" validate:"required"`
	Signal     SignalConfig     `mapstructure:"signal" validate:"required"`
	Risk       RiskConfig       `mapstructure:"risk" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// MarketDataConfig represents market data provider configuration
type MarketDataConfig struct {
	APIURL                string  `mapstructure:"api_url" validate:"required,url"`
	StreamURL             string  `mapstructure:"stream_url" validate:"required"`
	APIKey                string  `mapstructure:"api_key"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int     `mapstructure:"retry_attempts" validate:"required,gte=0"`
	RateLimitPerSecond    float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	RateLimitBurst        int     `mapstructure:"rate_limit_burst" validate:"required,gt=0"`
	CSVDirectory          string  `mapstructure:"csv_directory"`
}

// ForecastConfig represents model training and caching configuration
type ForecastConfig struct {
	ValidationSplit         float64 `mapstructure:"validation_split" validate:"required,gt=0,lt=1"`
	Horizon                 int     `mapstructure:"horizon" validate:"required,gt=0"`
	SequenceLookback        int     `mapstructure:"sequence_lookback" validate:"omitempty,gt=0"`
	Seed                    int64   `mapstructure:"seed"`
	CacheTTLSeconds         int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize            int     `mapstructure:"cache_max_size" validate:"required,gt=0"`
	RetrainingIntervalHours int     `mapstructure:"retraining_interval_hours" validate:"required,gt=0"`
}

// SignalConfig represents signal scoring configuration
type SignalConfig struct {
	Sensitivity string   `mapstructure:"sensitivity" validate:"required,sensitivity"`
	Strategies  []string `mapstructure:"strategies" validate:"omitempty,strategies"`
}

// RiskConfig represents position sizing configuration
type RiskConfig struct {
	RiskFraction    float64 `mapstructure:"risk_fraction" validate:"required,gt=0,lte=1"`
	MaxPositionPct  float64 `mapstructure:"max_position_pct" validate:"required,gt=0,lte=1"`
	StopMode        string  `mapstructure:"stop_mode" validate:"required,oneof=percentage atr"`
	StopPercentage  float64 `mapstructure:"stop_percentage" validate:"omitempty,gt=0,lt=1"`
	ATRMultiple     float64 `mapstructure:"atr_multiple" validate:"omitempty,gt=0"`
	// Negative disables the take-profit level.
	RewardRiskRatio float64 `mapstructure:"reward_risk_ratio" validate:"required"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	StartDate      string  `mapstructure:"start_date" validate:"required,dateonly"`
	EndDate        string  `mapstructure:"end_date" validate:"required,dateonly"`
	InitialEquity  float64 `mapstructure:"initial_equity" validate:"required,gt=0"`
	Commission     float64 `mapstructure:"commission" validate:"gte=0"`
	CommissionRate float64 `mapstructure:"commission_rate" validate:"gte=0,lte=0.1"`
	RiskFreeRate   float64 `mapstructure:"risk_free_rate" validate:"gte=0"`
	ExitOnEnd      bool    `mapstructure:"exit_on_end"`
	AllowShort     bool    `mapstructure:"allow_short"`
	OutputPath     string  `mapstructure:"output_path" validate:"required"`
}

// SchedulerConfig represents scheduled job configuration
type SchedulerConfig struct {
	RetrainingCron string   `mapstructure:"retraining_cron" validate:"required"`
	Symbols        []string `mapstructure:"symbols" validate:"required,min=1"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN returns the postgres connection string for this database.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}
