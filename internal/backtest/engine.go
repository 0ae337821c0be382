package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/stockcast/internal/models"
	"github.com/yourusername/stockcast/internal/risk"
)

// Exit reasons recorded on closed trades
const (
	ExitReasonStop    = "stop_loss"
	ExitReasonTarget  = "take_profit"
	ExitReasonSignal  = "sell_signal"
	ExitReasonEndData = "end_of_data"
)

// SignalFunc produces the trade signal for one bar. The index is the bar's
// position in the replayed series.
type SignalFunc func(i int, bar models.Bar) (models.Signal, error)

// Engine replays bars through a flat/long state machine: a BUY signal while
// flat opens a sized position at the bar close, and an open position exits on
// an intrabar stop or target breach, an opposing signal, or the end of the
// series. With AllowShort set, a SELL while flat opens a short with mirrored
// stop and target levels.
type Engine struct {
	config Config
	sizer  *risk.Sizer
	logger *logrus.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg Config, logger *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	sizer, err := risk.NewSizer(cfg.RiskFraction, cfg.MaxPositionPct, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{config: cfg, sizer: sizer, logger: logger}, nil
}

// Config returns the simulation configuration
func (e *Engine) Config() Config {
	return e.config
}

// Run replays the bars against the signal source and computes metrics.
func (e *Engine) Run(ctx context.Context, bars []models.Bar, signals SignalFunc) (*State, Metrics, error) {
	if len(bars) == 0 {
		return nil, Metrics{}, fmt.Errorf("%w: no bars to replay", models.ErrInsufficientData)
	}
	if signals == nil {
		return nil, Metrics{}, fmt.Errorf("signal source is required")
	}

	e.logger.WithFields(logrus.Fields{
		"bars":  len(bars),
		"start": bars[0].Timestamp,
		"end":   bars[len(bars)-1].Timestamp,
	}).Info("Starting backtest run")

	state := NewState(e.config.InitialEquity)
	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, Metrics{}, err
		}
		if err := e.processBar(state, i, bar, signals); err != nil {
			return nil, Metrics{}, err
		}
		state.RecordEquityPoint(bar.Timestamp, bar.Close)
	}

	if state.InPosition() && e.config.ExitOnEnd {
		last := bars[len(bars)-1]
		e.closePosition(state, last.Timestamp, last.Close, ExitReasonEndData)
		// Rewrite the final curve point so it reflects the realized exit.
		state.Curve = state.Curve[:len(state.Curve)-1]
		state.RecordEquityPoint(last.Timestamp, last.Close)
	}

	metrics := CalculateMetrics(state, e.config, bars[0].Timestamp, bars[len(bars)-1].Timestamp)
	e.logger.WithFields(logrus.Fields{
		"trades":       len(state.Trades),
		"final_equity": state.Equity(bars[len(bars)-1].Close),
	}).Info("Backtest run complete")
	return state, metrics, nil
}

func (e *Engine) processBar(state *State, i int, bar models.Bar, signals SignalFunc) error {
	if state.InPosition() {
		// Protective levels are checked against the bar's range before
		// the signal is consulted. A stop breach wins over a target
		// breach when both fall inside the same bar.
		if exited := e.checkProtectiveLevels(state, bar); exited {
			return nil
		}
	}

	sig, err := signals(i, bar)
	if err != nil {
		return fmt.Errorf("signal at bar %d: %w", i, err)
	}

	switch {
	case !state.InPosition() && sig.Classification == models.SignalBuy:
		return e.openPosition(state, bar, models.TradeSideLong)
	case !state.InPosition() && sig.Classification == models.SignalSell && e.config.AllowShort:
		return e.openPosition(state, bar, models.TradeSideShort)
	case state.InPosition() && opposes(state.Open.Side, sig.Classification):
		e.closePosition(state, bar.Timestamp, bar.Close, ExitReasonSignal)
	}
	return nil
}

// opposes reports whether the classification closes a position on the side.
func opposes(side models.TradeSide, c models.Classification) bool {
	if side == models.TradeSideShort {
		return c == models.SignalBuy
	}
	return c == models.SignalSell
}

func (e *Engine) checkProtectiveLevels(state *State, bar models.Bar) bool {
	pos := state.Open
	if pos.Side == models.TradeSideShort {
		if bar.High >= pos.StopLoss {
			e.closePosition(state, bar.Timestamp, pos.StopLoss, ExitReasonStop)
			return true
		}
		if pos.TakeProfit > 0 && bar.Low <= pos.TakeProfit {
			e.closePosition(state, bar.Timestamp, pos.TakeProfit, ExitReasonTarget)
			return true
		}
		return false
	}
	if bar.Low <= pos.StopLoss {
		e.closePosition(state, bar.Timestamp, pos.StopLoss, ExitReasonStop)
		return true
	}
	if pos.TakeProfit > 0 && bar.High >= pos.TakeProfit {
		e.closePosition(state, bar.Timestamp, pos.TakeProfit, ExitReasonTarget)
		return true
	}
	return false
}

func (e *Engine) openPosition(state *State, bar models.Bar, side models.TradeSide) error {
	entry := bar.Close
	var stop, target float64
	var err error
	if side == models.TradeSideShort {
		stop, target, err = e.config.Stops.ShortLevels(entry, 0)
	} else {
		stop, target, err = e.config.Stops.Levels(entry, 0)
	}
	if err != nil {
		return err
	}

	pos, err := e.sizer.SizePosition(state.Cash, entry, stop, target)
	if err != nil {
		// Equity too small to size a single share just skips the entry.
		e.logger.WithFields(logrus.Fields{"time": bar.Timestamp, "error": err}).Debug("Entry skipped")
		return nil
	}

	if side == models.TradeSideShort {
		// Short sale proceeds are credited up front; Equity nets out the
		// buy-back cost while the position is open.
		state.Cash += pos.Notional()
	} else {
		state.Cash -= pos.Notional()
	}
	state.Open = pos
	state.OpenedAt = bar.Timestamp
	e.logger.WithFields(logrus.Fields{
		"time":   bar.Timestamp,
		"side":   side,
		"shares": pos.Shares,
		"entry":  entry,
		"stop":   stop,
		"target": target,
	}).Debug("Position opened")
	return nil
}

// closePosition realizes the open position at the exit price, charging
// commission on the exit notional.
func (e *Engine) closePosition(state *State, at time.Time, price float64, reason string) {
	pos := state.Open
	exitNotional := pos.Shares * price
	commission := e.config.Commission + exitNotional*e.config.CommissionRate

	var proceeds, pnl float64
	if pos.Side == models.TradeSideShort {
		// Buying back the shares consumes cash.
		proceeds = -(exitNotional + commission)
		pnl = pos.Notional() - exitNotional - commission
	} else {
		proceeds = exitNotional - commission
		pnl = proceeds - pos.Notional()
	}

	trade := &models.TradeRecord{
		ID:         uuid.New(),
		Side:       pos.Side,
		EntryTime:  state.OpenedAt,
		EntryPrice: pos.EntryPrice,
		ExitTime:   at,
		ExitPrice:  price,
		Shares:     pos.Shares,
		ProfitLoss: pnl,
		Commission: commission,
		Duration:   at.Sub(state.OpenedAt),
		ExitReason: reason,
	}
	state.RecordTrade(trade, proceeds)
	e.logger.WithFields(logrus.Fields{
		"time":   at,
		"price":  price,
		"pnl":    trade.ProfitLoss,
		"reason": reason,
	}).Debug("Position closed")
}
