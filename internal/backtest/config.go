// Package backtest replays historical bars through a signal source and
// measures the resulting strategy performance.
package backtest

import (
	"fmt"

	"github.com/yourusername/stockcast/internal/risk"
)

// Config holds backtest simulation settings. Commission is a flat per-trade
// fee; CommissionRate adds a proportional charge on the exit notional. Both
// are deducted at exit.
type Config struct {
	InitialEquity  float64
	Commission     float64
	CommissionRate float64
	RiskFreeRate   float64
	ExitOnEnd      bool
	AllowShort     bool
	RiskFraction   float64
	MaxPositionPct float64
	Stops          risk.StopConfig
}

// DefaultConfig returns a simulation setup with the standard risk limits.
func DefaultConfig() Config {
	return Config{
		InitialEquity:  100000,
		Commission:     1.0,
		RiskFreeRate:   0.02,
		ExitOnEnd:      true,
		RiskFraction:   risk.DefaultRiskFraction,
		MaxPositionPct: risk.DefaultMaxPositionFrac,
		Stops:          risk.StopConfig{Mode: risk.StopPercentage, Percentage: 0.05},
	}
}

// Validate validates simulation parameters
func (c Config) Validate() error {
	if c.InitialEquity <= 0 {
		return fmt.Errorf("initial equity must be positive")
	}
	if c.Commission < 0 {
		return fmt.Errorf("commission cannot be negative")
	}
	if c.CommissionRate < 0 || c.CommissionRate > 0.1 {
		return fmt.Errorf("commission rate must be between 0 and 0.1")
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("risk-free rate cannot be negative")
	}
	if c.RiskFraction < 0 || c.RiskFraction > 1 {
		return fmt.Errorf("risk fraction must be between 0 and 1")
	}
	if c.MaxPositionPct < 0 || c.MaxPositionPct > 1 {
		return fmt.Errorf("max position fraction must be between 0 and 1")
	}
	return nil
}
