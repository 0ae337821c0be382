package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/stockcast/internal/config"
	"github.com/yourusername/stockcast/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "stockcast-test",
			Environment: "development",
			LogLevel:    "fatal",
		},
		Forecast: config.ForecastConfig{
			ValidationSplit:         0.8,
			Horizon:                 5,
			Seed:                    42,
			CacheTTLSeconds:         60,
			CacheMaxSize:            100,
			RetrainingIntervalHours: 24,
		},
		Signal: config.SignalConfig{Sensitivity: "moderate"},
		Risk: config.RiskConfig{
			RiskFraction:    0.02,
			MaxPositionPct:  0.20,
			StopMode:        "percentage",
			StopPercentage:  0.05,
			RewardRiskRatio: 2.0,
		},
		Backtest: config.BacktestConfig{
			InitialEquity:  100000,
			CommissionRate: 0.001,
			RiskFreeRate:   0.02,
			ExitOnEnd:      true,
		},
	}
}

// syntheticBars produces a trending series with a seasonal wobble, long
// enough for every indicator to warm up.
func syntheticBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100.0 + 0.3*float64(i) + 4.0*math.Sin(float64(i)/9.0)
		bars[i] = models.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c * 0.998,
			High:      c * 1.012,
			Low:       c * 0.988,
			Close:     c,
			Volume:    1000 + 50*float64(i%7),
		}
	}
	return bars
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(testConfig(), nil, testLogger())
	require.NoError(t, err)
	return engine
}

func TestNewEngineRequiresConfig(t *testing.T) {
	_, err := NewEngine(nil, nil, testLogger())
	assert.Error(t, err)
}

func TestTrainEnsembleAndLookup(t *testing.T) {
	engine := newTestEngine(t)
	bars := syntheticBars(160)

	ens, err := engine.TrainEnsemble(context.Background(), "AAPL", bars)
	require.NoError(t, err)
	require.NotNil(t, ens)

	weights := ens.Weights()
	sum := 0.0
	for _, w := range weights {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	found, err := engine.Ensemble("AAPL")
	require.NoError(t, err)
	assert.Equal(t, ens.ID(), found.ID())

	_, err = engine.Ensemble("MSFT")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTrainEnsembleInsufficientData(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.TrainEnsemble(context.Background(), "AAPL", syntheticBars(10))
	assert.Error(t, err)
}

func TestForecastServedFromCache(t *testing.T) {
	engine := newTestEngine(t)
	bars := syntheticBars(160)
	ctx := context.Background()

	_, err := engine.TrainEnsemble(ctx, "AAPL", bars)
	require.NoError(t, err)

	first, err := engine.Forecast(ctx, "AAPL", bars, 5)
	require.NoError(t, err)
	require.Len(t, first.PointEstimates, 5)

	second, err := engine.Forecast(ctx, "AAPL", bars, 5)
	require.NoError(t, err)
	assert.Equal(t, first.PointEstimates, second.PointEstimates)

	hits, _, _ := engine.cache.Stats()
	assert.Equal(t, uint64(1), hits)
}

func TestForecastWithoutTraining(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Forecast(context.Background(), "AAPL", syntheticBars(160), 5)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRetrainingInvalidatesCache(t *testing.T) {
	engine := newTestEngine(t)
	bars := syntheticBars(160)
	ctx := context.Background()

	first, err := engine.TrainEnsemble(ctx, "AAPL", bars)
	require.NoError(t, err)
	_, err = engine.Forecast(ctx, "AAPL", bars, 5)
	require.NoError(t, err)
	require.Equal(t, 1, engine.cache.ItemCount())

	second, err := engine.TrainEnsemble(ctx, "AAPL", bars)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 0, engine.cache.ItemCount())
}

func TestScoreSignal(t *testing.T) {
	engine := newTestEngine(t)
	bars := syntheticBars(160)
	ctx := context.Background()

	_, err := engine.TrainEnsemble(ctx, "AAPL", bars)
	require.NoError(t, err)

	sig, err := engine.ScoreSignal(ctx, "AAPL", bars, nil)
	require.NoError(t, err)
	assert.Contains(t, []models.Classification{
		models.SignalBuy,
		models.SignalSell,
		models.SignalHold,
	}, sig.Classification)
	assert.LessOrEqual(t, sig.Confidence, 100.0)
}

func TestSizePosition(t *testing.T) {
	engine := newTestEngine(t)

	pos, err := engine.SizePosition(100000, 50, 0)
	require.NoError(t, err)
	// 5% stop at 47.50 risks 2.50 a share; 2000 of equity covers 800 shares,
	// capped by the 20% notional limit at 400.
	assert.Equal(t, 400.0, pos.Shares)
	assert.InDelta(t, 47.5, pos.StopLoss, 1e-9)
}

func TestRunBacktestWithoutRepos(t *testing.T) {
	engine := newTestEngine(t)
	bars := syntheticBars(160)

	state, report, err := engine.RunBacktest(context.Background(), "AAPL", bars)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Len(t, state.Curve, len(bars))
	assert.Equal(t, len(state.Trades), report.TotalTrades)
}
