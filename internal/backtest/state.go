package backtest

import (
	"time"

	"github.com/yourusername/stockcast/internal/models"
)

// State tracks the running simulation: cash, the open position if any, the
// closed trade log and the equity curve.
type State struct {
	Cash       float64
	PeakEquity float64
	Open       *models.Position
	OpenedAt   time.Time
	Trades     []*models.TradeRecord
	Curve      EquityCurve
}

// NewState initializes simulation state
func NewState(initialEquity float64) *State {
	return &State{
		Cash:       initialEquity,
		PeakEquity: initialEquity,
		Trades:     []*models.TradeRecord{},
		Curve:      EquityCurve{},
	}
}

// InPosition reports whether a position is currently open.
func (s *State) InPosition() bool {
	return s.Open != nil
}

// Equity returns cash plus the open position marked at the given price.
// A short position was credited its sale proceeds at entry, so its
// mark-to-market is the cost of buying the shares back.
func (s *State) Equity(price float64) float64 {
	if s.Open == nil {
		return s.Cash
	}
	if s.Open.Side == models.TradeSideShort {
		return s.Cash - s.Open.Shares*price
	}
	return s.Cash + s.Open.Shares*price
}

// RecordTrade appends a closed trade and returns the cash proceeds to the
// balance.
func (s *State) RecordTrade(trade *models.TradeRecord, proceeds float64) {
	s.Cash += proceeds
	s.Open = nil
	s.Trades = append(s.Trades, trade)
}

// RecordEquityPoint marks equity to the given price and appends a curve
// point, tracking the running peak for drawdown.
func (s *State) RecordEquityPoint(t time.Time, price float64) {
	value := s.Equity(price)
	if value > s.PeakEquity {
		s.PeakEquity = value
	}
	drawdown := 0.0
	if s.PeakEquity > 0 && value < s.PeakEquity {
		drawdown = (s.PeakEquity - value) / s.PeakEquity
	}
	s.Curve = append(s.Curve, EquityPoint{Time: t, Value: value, Drawdown: drawdown})
}
