package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/stockcast/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func barsFromCloses(closes []float64) []models.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func alwaysBuy(int, models.Bar) (models.Signal, error) {
	return models.Signal{Classification: models.SignalBuy}, nil
}

func alwaysHold(int, models.Bar) (models.Signal, error) {
	return models.Signal{Classification: models.SignalHold}, nil
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, testLogger())
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	return e
}

func TestRisingMarketSingleTrade(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	cfg := DefaultConfig()
	// No take-profit: the position rides the whole rise.
	cfg.Stops.RewardRiskRatio = -1
	e := newTestEngine(t, cfg)

	state, metrics, err := e.Run(context.Background(), barsFromCloses(closes), alwaysBuy)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// One entry on the first bar, held to the end: monotonic rise never
	// breaches the stop, and an always-BUY source never signals SELL.
	if len(state.Trades) != 1 {
		t.Fatalf("expected exactly 1 trade, got %d", len(state.Trades))
	}
	trade := state.Trades[0]
	if trade.ExitReason != ExitReasonEndData {
		t.Fatalf("expected end-of-data exit, got %s", trade.ExitReason)
	}
	// 200 shares (capped at 20% notional) ride from 100 to 149, minus the
	// flat exit commission.
	wantPnL := 200*49 - cfg.Commission
	if trade.ProfitLoss != wantPnL {
		t.Fatalf("expected P&L %f, got %f", wantPnL, trade.ProfitLoss)
	}
	wantReturn := wantPnL / cfg.InitialEquity
	if math.Abs(metrics.TotalReturn-wantReturn) > 1e-9 {
		t.Fatalf("expected total return %f, got %f", wantReturn, metrics.TotalReturn)
	}
	if metrics.MaxDrawdown != 0 {
		t.Fatalf("rising market should have zero drawdown, got %f", metrics.MaxDrawdown)
	}
}

func TestNoTradesLeavesMetricsUndefined(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	e := newTestEngine(t, DefaultConfig())

	state, metrics, err := e.Run(context.Background(), barsFromCloses(closes), alwaysHold)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(state.Trades))
	}
	if metrics.WinRate != nil || metrics.ProfitFactor != nil || metrics.AverageWin != nil || metrics.AverageLoss != nil {
		t.Fatal("trade-derived metrics must stay undefined with no trades")
	}
	if metrics.TotalReturn != 0 {
		t.Fatalf("flat market with no trades should return 0, got %f", metrics.TotalReturn)
	}
}

func TestStopLossExitAtStopLevel(t *testing.T) {
	// Entry at 100 with a 5% stop, then a crash through the stop.
	bars := barsFromCloses([]float64{100, 100, 80, 80, 80})
	cfg := DefaultConfig()
	cfg.Commission = 0
	e := newTestEngine(t, cfg)

	buyOnce := func(i int, bar models.Bar) (models.Signal, error) {
		if i == 0 {
			return models.Signal{Classification: models.SignalBuy}, nil
		}
		return models.Signal{Classification: models.SignalHold}, nil
	}

	state, _, err := e.Run(context.Background(), bars, buyOnce)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(state.Trades))
	}
	trade := state.Trades[0]
	if trade.ExitReason != ExitReasonStop {
		t.Fatalf("expected stop exit, got %s", trade.ExitReason)
	}
	// Fill happens at the breached level, not the bar close.
	if trade.ExitPrice != 95 {
		t.Fatalf("expected exit at stop level 95, got %f", trade.ExitPrice)
	}
}

func TestTakeProfitExitAtTargetLevel(t *testing.T) {
	// 5% stop and 2:1 reward gives a target of 110 for a 100 entry.
	bars := barsFromCloses([]float64{100, 100, 112, 112})
	cfg := DefaultConfig()
	cfg.Commission = 0
	e := newTestEngine(t, cfg)

	buyOnce := func(i int, bar models.Bar) (models.Signal, error) {
		if i == 0 {
			return models.Signal{Classification: models.SignalBuy}, nil
		}
		return models.Signal{Classification: models.SignalHold}, nil
	}

	state, _, err := e.Run(context.Background(), bars, buyOnce)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(state.Trades))
	}
	trade := state.Trades[0]
	if trade.ExitReason != ExitReasonTarget {
		t.Fatalf("expected target exit, got %s", trade.ExitReason)
	}
	if trade.ExitPrice != 110 {
		t.Fatalf("expected exit at target level 110, got %f", trade.ExitPrice)
	}
}

func TestSellSignalExitsAtClose(t *testing.T) {
	bars := barsFromCloses([]float64{100, 101, 102, 103})
	cfg := DefaultConfig()
	cfg.Commission = 0
	cfg.ExitOnEnd = false
	e := newTestEngine(t, cfg)

	buyThenSell := func(i int, bar models.Bar) (models.Signal, error) {
		switch i {
		case 0:
			return models.Signal{Classification: models.SignalBuy}, nil
		case 2:
			return models.Signal{Classification: models.SignalSell}, nil
		}
		return models.Signal{Classification: models.SignalHold}, nil
	}

	state, _, err := e.Run(context.Background(), bars, buyThenSell)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(state.Trades))
	}
	trade := state.Trades[0]
	if trade.ExitReason != ExitReasonSignal {
		t.Fatalf("expected sell-signal exit, got %s", trade.ExitReason)
	}
	if trade.ExitPrice != 102 {
		t.Fatalf("expected exit at bar close 102, got %f", trade.ExitPrice)
	}
}

func TestCommissionChargedAtExit(t *testing.T) {
	bars := barsFromCloses([]float64{100, 100, 100})
	cfg := DefaultConfig()
	cfg.CommissionRate = 0.01
	e := newTestEngine(t, cfg)

	state, metrics, err := e.Run(context.Background(), bars, alwaysBuy)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(state.Trades))
	}
	trade := state.Trades[0]
	if trade.Commission <= 0 {
		t.Fatalf("expected positive commission, got %f", trade.Commission)
	}
	// Flat prices mean the whole loss is commission.
	if trade.ProfitLoss != -trade.Commission {
		t.Fatalf("expected P&L equal to negative commission, got %f vs %f", trade.ProfitLoss, -trade.Commission)
	}
	if metrics.TotalCommission != trade.Commission {
		t.Fatalf("metrics commission mismatch: %f vs %f", metrics.TotalCommission, trade.Commission)
	}
}

func TestFlatCommissionIsDefault(t *testing.T) {
	bars := barsFromCloses([]float64{100, 100, 100})
	cfg := DefaultConfig()
	e := newTestEngine(t, cfg)

	state, _, err := e.Run(context.Background(), bars, alwaysBuy)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(state.Trades))
	}
	// No proportional rate configured: the charge is the flat per-trade fee.
	if got := state.Trades[0].Commission; got != cfg.Commission {
		t.Fatalf("expected flat fee %f, got %f", cfg.Commission, got)
	}
}

func TestNoTargetRidesThroughRallies(t *testing.T) {
	// The default 2:1 target at 110 would exit around the third bar; with
	// the target disabled the position only exits at the end.
	bars := barsFromCloses([]float64{100, 105, 112, 120})
	cfg := DefaultConfig()
	cfg.Stops.RewardRiskRatio = -1
	e := newTestEngine(t, cfg)

	state, _, err := e.Run(context.Background(), bars, alwaysBuy)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(state.Trades))
	}
	if state.Trades[0].ExitReason != ExitReasonEndData {
		t.Fatalf("expected end-of-data exit, got %s", state.Trades[0].ExitReason)
	}
}

func sellOnce(i int, bar models.Bar) (models.Signal, error) {
	if i == 0 {
		return models.Signal{Classification: models.SignalSell}, nil
	}
	return models.Signal{Classification: models.SignalHold}, nil
}

func TestSellWhileFlatIsNoOpByDefault(t *testing.T) {
	bars := barsFromCloses([]float64{100, 98, 96, 94})
	e := newTestEngine(t, DefaultConfig())

	state, _, err := e.Run(context.Background(), bars, sellOnce)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 0 {
		t.Fatalf("SELL while flat must not trade without AllowShort, got %d trades", len(state.Trades))
	}
}

func TestShortProfitsInFallingMarket(t *testing.T) {
	bars := barsFromCloses([]float64{100, 98, 96, 94})
	cfg := DefaultConfig()
	cfg.Commission = 0
	cfg.AllowShort = true
	e := newTestEngine(t, cfg)

	state, _, err := e.Run(context.Background(), bars, sellOnce)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(state.Trades))
	}
	trade := state.Trades[0]
	if trade.Side != models.TradeSideShort {
		t.Fatalf("expected short trade, got %s", trade.Side)
	}
	if trade.ExitReason != ExitReasonEndData {
		t.Fatalf("expected end-of-data exit, got %s", trade.ExitReason)
	}
	if trade.ProfitLoss <= 0 {
		t.Fatalf("expected profitable short in falling market, got %f", trade.ProfitLoss)
	}
}

func TestShortStopExitAboveEntry(t *testing.T) {
	// Short at 100 with a 5% stop sits at 105; the rally breaches it.
	bars := barsFromCloses([]float64{100, 100, 112})
	cfg := DefaultConfig()
	cfg.Commission = 0
	cfg.AllowShort = true
	e := newTestEngine(t, cfg)

	state, _, err := e.Run(context.Background(), bars, sellOnce)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(state.Trades))
	}
	trade := state.Trades[0]
	if trade.ExitReason != ExitReasonStop {
		t.Fatalf("expected stop exit, got %s", trade.ExitReason)
	}
	if trade.ExitPrice != 105 {
		t.Fatalf("expected exit at stop level 105, got %f", trade.ExitPrice)
	}
	if trade.ProfitLoss >= 0 {
		t.Fatalf("stopped short should lose, got %f", trade.ProfitLoss)
	}
}

func TestShortTargetExitBelowEntry(t *testing.T) {
	// 5% stop with 2:1 reward puts the short target at 90.
	bars := barsFromCloses([]float64{100, 100, 85})
	cfg := DefaultConfig()
	cfg.Commission = 0
	cfg.AllowShort = true
	e := newTestEngine(t, cfg)

	state, _, err := e.Run(context.Background(), bars, sellOnce)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(state.Trades))
	}
	trade := state.Trades[0]
	if trade.ExitReason != ExitReasonTarget {
		t.Fatalf("expected target exit, got %s", trade.ExitReason)
	}
	if trade.ExitPrice != 90 {
		t.Fatalf("expected exit at target level 90, got %f", trade.ExitPrice)
	}
	if trade.ProfitLoss <= 0 {
		t.Fatalf("short reaching its target should win, got %f", trade.ProfitLoss)
	}
}

func TestRunRejectsEmptyBars(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	if _, _, err := e.Run(context.Background(), nil, alwaysHold); err == nil {
		t.Fatal("expected error for empty bar series")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := e.Run(ctx, barsFromCloses([]float64{100, 101}), alwaysHold); err == nil {
		t.Fatal("expected context cancellation error")
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialEquity = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection of zero initial equity")
	}

	cfg = DefaultConfig()
	cfg.CommissionRate = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection of excessive commission rate")
	}
}
