// Package service exposes the high-level forecasting, signal and backtest
// operations behind a single facade.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/stockcast/internal/backtest"
	"github.com/yourusername/stockcast/internal/config"
	"github.com/yourusername/stockcast/internal/ensemble"
	"github.com/yourusername/stockcast/internal/forecast"
	"github.com/yourusername/stockcast/internal/indicators"
	"github.com/yourusername/stockcast/internal/metrics"
	"github.com/yourusername/stockcast/internal/models"
	"github.com/yourusername/stockcast/internal/risk"
	"github.com/yourusername/stockcast/internal/signal"
	"github.com/yourusername/stockcast/internal/store"
)

// Engine is the application facade: it owns trained ensembles per symbol and
// wires forecasting, scoring, sizing and backtesting together. Repositories
// are optional; without them results are simply not persisted.
type Engine struct {
	cfg    *config.Config
	logger *logrus.Logger
	repos  *store.Repositories
	cache  *ensemble.ForecastCache

	mu        sync.RWMutex
	ensembles map[string]*ensemble.Ensemble
}

// NewEngine creates the service facade
func NewEngine(cfg *config.Config, repos *store.Repositories, logger *logrus.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	cacheTTL := time.Duration(cfg.Forecast.CacheTTLSeconds) * time.Second
	return &Engine{
		cfg:       cfg,
		logger:    logger,
		repos:     repos,
		cache:     ensemble.NewForecastCache(cacheTTL, cfg.Forecast.CacheMaxSize),
		ensembles: make(map[string]*ensemble.Ensemble),
	}, nil
}

// modelConfigs derives the member set from configuration.
func (e *Engine) modelConfigs() []forecast.Config {
	configs := []forecast.Config{
		{Variant: forecast.VariantLinear, Ridge: 1e-3},
		{Variant: forecast.VariantForest, Trees: 100, MaxDepth: 8, Seed: e.cfg.Forecast.Seed},
		{Variant: forecast.VariantBoosted, Trees: 100, MaxDepth: 3, LearningRate: 0.1, Seed: e.cfg.Forecast.Seed},
	}
	if e.cfg.Forecast.SequenceLookback > 0 {
		configs = append(configs, forecast.Config{
			Variant:  forecast.VariantSequence,
			Lookback: e.cfg.Forecast.SequenceLookback,
			Seed:     e.cfg.Forecast.Seed,
		})
	}
	return configs
}

// TrainEnsemble builds a frame from the bars, trains a fresh ensemble and
// fits its weights. The previous ensemble for the symbol, if any, is replaced
// atomically and its cached forecasts are dropped.
func (e *Engine) TrainEnsemble(ctx context.Context, symbol string, bars []models.Bar) (*ensemble.Ensemble, error) {
	start := time.Now()
	frame, err := indicators.BuildFrame(symbol, bars)
	if err != nil {
		metrics.RecordTrainingFailure()
		return nil, err
	}

	ens, err := ensemble.Train(frame, e.modelConfigs(), e.cfg.Forecast.ValidationSplit, e.logger)
	if err != nil {
		metrics.RecordTrainingFailure()
		return nil, err
	}
	if err := ens.OptimizeWeights(frame); err != nil {
		metrics.RecordTrainingFailure()
		return nil, err
	}

	e.mu.Lock()
	old := e.ensembles[symbol]
	e.ensembles[symbol] = ens
	total := len(e.ensembles)
	e.mu.Unlock()

	if old != nil {
		e.cache.Invalidate(old.ID())
	}

	metrics.RecordTraining(time.Since(start).Seconds())
	metrics.ActiveEnsembles.Set(float64(total))
	metrics.UpdateEnsembleWeights(symbol, ens.Weights())

	e.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"duration": time.Since(start),
	}).Info("Ensemble ready")
	return ens, nil
}

// Ensemble returns the trained ensemble for a symbol.
func (e *Engine) Ensemble(symbol string) (*ensemble.Ensemble, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ens, ok := e.ensembles[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no trained ensemble for %s", models.ErrNotFound, symbol)
	}
	return ens, nil
}

// Forecast projects prices for the symbol horizon steps ahead, serving from
// cache when the same request was answered recently.
func (e *Engine) Forecast(ctx context.Context, symbol string, bars []models.Bar, horizon int) (*ensemble.Forecast, error) {
	ens, err := e.Ensemble(symbol)
	if err != nil {
		return nil, err
	}

	key := ensemble.CacheKey{Symbol: symbol, EnsembleID: ens.ID(), Horizon: horizon}
	if cached := e.cache.Get(key); cached != nil {
		return cached, nil
	}

	start := time.Now()
	frame, err := indicators.BuildFrame(symbol, bars)
	if err != nil {
		return nil, err
	}
	fc, err := ens.PredictFuture(frame, horizon)
	if err != nil {
		return nil, err
	}

	e.cache.Set(key, fc)
	_, _, ratio := e.cache.Stats()
	metrics.ForecastCacheHitRatio.Set(ratio)
	metrics.RecordPrediction(time.Since(start).Seconds())

	if e.repos != nil {
		record := fc.Record(ens.ID())
		if err := e.repos.Prediction.Create(ctx, record); err != nil {
			e.logger.WithError(err).Warn("Failed to persist forecast")
		}
	}
	return fc, nil
}

// ScoreSignal scores the latest bar's indicator state, folding in the
// ensemble forecast when one is available for the symbol.
func (e *Engine) ScoreSignal(ctx context.Context, symbol string, bars []models.Bar, sentiment *float64) (models.Signal, error) {
	snaps, err := indicators.Snapshots(bars)
	if err != nil {
		return models.Signal{}, err
	}
	latest := snaps[len(snaps)-1]

	var forecastPrice *float64
	if fc, err := e.Forecast(ctx, symbol, bars, 1); err == nil && len(fc.PointEstimates) > 0 {
		forecastPrice = &fc.PointEstimates[0]
	}

	scorer, err := signal.NewScorer(models.Sensitivity(e.cfg.Signal.Sensitivity), e.logger)
	if err != nil {
		return models.Signal{}, err
	}
	sig, err := scorer.Score(signal.Context{
		Indicators:    latest,
		ForecastPrice: forecastPrice,
		Sentiment:     sentiment,
	})
	if err != nil {
		return models.Signal{}, err
	}

	metrics.RecordSignal(string(sig.Classification))
	return sig, nil
}

// SizePosition sizes a long entry from the configured risk limits.
func (e *Engine) SizePosition(equity, entry, atr float64) (*models.Position, error) {
	stops := risk.StopConfig{
		Mode:            risk.StopMode(e.cfg.Risk.StopMode),
		Percentage:      e.cfg.Risk.StopPercentage,
		ATRMultiple:     e.cfg.Risk.ATRMultiple,
		RewardRiskRatio: e.cfg.Risk.RewardRiskRatio,
	}
	stop, target, err := stops.Levels(entry, atr)
	if err != nil {
		return nil, err
	}

	sizer, err := risk.NewSizer(e.cfg.Risk.RiskFraction, e.cfg.Risk.MaxPositionPct, e.logger)
	if err != nil {
		return nil, err
	}
	return sizer.SizePosition(equity, entry, stop, target)
}

// RunBacktest replays the bars through the composite scorer and persists the
// resulting report.
func (e *Engine) RunBacktest(ctx context.Context, symbol string, bars []models.Bar) (*backtest.State, backtest.Metrics, error) {
	start := time.Now()
	snaps, err := indicators.Snapshots(bars)
	if err != nil {
		return nil, backtest.Metrics{}, err
	}

	scorer, err := signal.NewScorer(models.Sensitivity(e.cfg.Signal.Sensitivity), e.logger)
	if err != nil {
		return nil, backtest.Metrics{}, err
	}

	cfg := backtest.Config{
		InitialEquity:  e.cfg.Backtest.InitialEquity,
		Commission:     e.cfg.Backtest.Commission,
		CommissionRate: e.cfg.Backtest.CommissionRate,
		RiskFreeRate:   e.cfg.Backtest.RiskFreeRate,
		ExitOnEnd:      e.cfg.Backtest.ExitOnEnd,
		AllowShort:     e.cfg.Backtest.AllowShort,
		RiskFraction:   e.cfg.Risk.RiskFraction,
		MaxPositionPct: e.cfg.Risk.MaxPositionPct,
		Stops: risk.StopConfig{
			Mode:            risk.StopMode(e.cfg.Risk.StopMode),
			Percentage:      e.cfg.Risk.StopPercentage,
			ATRMultiple:     e.cfg.Risk.ATRMultiple,
			RewardRiskRatio: e.cfg.Risk.RewardRiskRatio,
		},
	}
	engine, err := backtest.NewEngine(cfg, e.logger)
	if err != nil {
		return nil, backtest.Metrics{}, err
	}

	signals := func(i int, bar models.Bar) (models.Signal, error) {
		return scorer.Score(signal.Context{Indicators: snaps[i]})
	}
	state, report, err := engine.Run(ctx, bars, signals)
	if err != nil {
		return nil, backtest.Metrics{}, err
	}

	metrics.RecordBacktest(time.Since(start).Seconds())
	if e.repos != nil {
		if err := e.persistBacktest(ctx, symbol, state, report); err != nil {
			e.logger.WithError(err).Warn("Failed to persist backtest report")
		}
	}
	return state, report, nil
}

func (e *Engine) persistBacktest(ctx context.Context, symbol string, state *backtest.State, report backtest.Metrics) error {
	metricsJSON, err := json.Marshal(report)
	if err != nil {
		return err
	}

	finalEquity := e.cfg.Backtest.InitialEquity
	if len(state.Curve) > 0 {
		finalEquity = state.Curve[len(state.Curve)-1].Value
	}

	return e.repos.Backtest.Create(ctx, &models.BacktestRecord{
		ID:            uuid.New(),
		Symbol:        symbol,
		StartDate:     report.StartDate,
		EndDate:       report.EndDate,
		InitialEquity: e.cfg.Backtest.InitialEquity,
		FinalEquity:   finalEquity,
		TotalReturn:   report.TotalReturn,
		SharpeRatio:   report.SharpeRatio,
		MaxDrawdown:   report.MaxDrawdown,
		TotalTrades:   report.TotalTrades,
		MetricsJSON:   string(metricsJSON),
		CreatedAt:     time.Now().UTC(),
	})
}
