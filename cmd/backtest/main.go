// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/stockcast/internal/backtest"
	"github.com/yourusername/stockcast/internal/config"
	"github.com/yourusername/stockcast/internal/indicators"
	"github.com/yourusername/stockcast/internal/marketdata"
	"github.com/yourusername/stockcast/internal/models"
	"github.com/yourusername/stockcast/internal/risk"
	"github.com/yourusername/stockcast/internal/signal"
)

func main() {
	var (
		configPath   = flag.String("config", "config/config.yaml", "Path to config file")
		csvFile      = flag.String("csv", "", "Path to a daily bars CSV file (required)")
		strategyName = flag.String("strategy", "composite", "Strategy: composite, rsi, macd, ma-crossover, bollinger, momentum")
		sensitivity  = flag.String("sensitivity", "", "Override signal sensitivity for the composite strategy")
		output       = flag.String("output", "", "Output directory for equity curve and metrics")
	)
	flag.Parse()

	logger := newLogger()
	ctx := context.Background()

	if *csvFile == "" {
		logger.Fatal("-csv is required")
	}

	cfg := loadConfig(*configPath, logger)
	bars, err := marketdata.LoadBarsCSV(*csvFile)
	if err != nil {
		logger.Fatalf("Failed to load bars: %v", err)
	}

	signals := resolveSignals(cfg, *strategyName, *sensitivity, bars, logger)
	btConfig := buildBacktestConfig(cfg)

	engine, err := backtest.NewEngine(btConfig, logger)
	if err != nil {
		logger.Fatalf("Failed to build engine: %v", err)
	}

	logger.WithFields(logrus.Fields{"strategy": *strategyName, "bars": len(bars)}).Info("Starting backtest")
	start := time.Now()
	state, report, err := engine.Run(ctx, bars, signals)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}
	logger.WithField("duration", time.Since(start)).Info("Backtest complete")

	fmt.Print(backtest.GenerateConsoleReport(report))
	writeArtifacts(*output, state, report, logger)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

func loadConfig(path string, logger *logrus.Logger) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// resolveSignals builds the per-bar signal function: either the composite
// scorer or one of the single-indicator strategies.
func resolveSignals(cfg *config.Config, name, sensitivityOverride string, bars []models.Bar, logger *logrus.Logger) backtest.SignalFunc {
	snaps, err := indicators.Snapshots(bars)
	if err != nil {
		logger.Fatalf("Failed to compute indicators: %v", err)
	}

	if name == "composite" {
		sens := models.Sensitivity(cfg.Signal.Sensitivity)
		if sensitivityOverride != "" {
			sens = models.Sensitivity(sensitivityOverride)
		}
		scorer, err := signal.NewScorer(sens, logger)
		if err != nil {
			logger.Fatalf("Failed to build scorer: %v", err)
		}
		return func(i int, bar models.Bar) (models.Signal, error) {
			return scorer.Score(signal.Context{Indicators: snaps[i]})
		}
	}

	strat, err := signal.StrategyByName(name)
	if err != nil {
		logger.Fatalf("Unknown strategy: %v", err)
	}
	return func(i int, bar models.Bar) (models.Signal, error) {
		return strat.Evaluate(snaps[i]), nil
	}
}

func buildBacktestConfig(cfg *config.Config) backtest.Config {
	return backtest.Config{
		InitialEquity:  cfg.Backtest.InitialEquity,
		Commission:     cfg.Backtest.Commission,
		CommissionRate: cfg.Backtest.CommissionRate,
		RiskFreeRate:   cfg.Backtest.RiskFreeRate,
		ExitOnEnd:      cfg.Backtest.ExitOnEnd,
		AllowShort:     cfg.Backtest.AllowShort,
		RiskFraction:   cfg.Risk.RiskFraction,
		MaxPositionPct: cfg.Risk.MaxPositionPct,
		Stops: risk.StopConfig{
			Mode:            risk.StopMode(cfg.Risk.StopMode),
			Percentage:      cfg.Risk.StopPercentage,
			ATRMultiple:     cfg.Risk.ATRMultiple,
			RewardRiskRatio: cfg.Risk.RewardRiskRatio,
		},
	}
}

func writeArtifacts(outputDir string, state *backtest.State, report backtest.Metrics, logger *logrus.Logger) {
	if outputDir == "" {
		return
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		logger.Fatalf("Failed to create output directory: %v", err)
	}
	if err := backtest.WriteEquityCurveCSV(state.Curve, filepath.Join(outputDir, "equity_curve.csv")); err != nil {
		logger.Fatalf("Failed to write equity curve: %v", err)
	}
	if err := backtest.WriteMetricsJSON(report, filepath.Join(outputDir, "metrics.json")); err != nil {
		logger.Fatalf("Failed to write metrics: %v", err)
	}
	logger.WithField("path", outputDir).Info("Backtest artifacts written")
}
