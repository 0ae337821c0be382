package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeSide distinguishes long from short trades.
type TradeSide string

// Trade sides
const (
	TradeSideLong  TradeSide = "LONG"
	TradeSideShort TradeSide = "SHORT"
)

// TradeRecord is one closed round trip produced by the backtest simulator.
// Append-only: the collection of records for a run is the basis of all trade
// metrics.
type TradeRecord struct {
	ID         uuid.UUID     `json:"id"`
	Side       TradeSide     `json:"side"`
	EntryTime  time.Time     `json:"entry_time"`
	EntryPrice float64       `json:"entry_price"`
	ExitTime   time.Time     `json:"exit_time"`
	ExitPrice  float64       `json:"exit_price"`
	Shares     float64       `json:"shares"`
	ProfitLoss float64       `json:"profit_loss"`
	Commission float64       `json:"commission"`
	Duration   time.Duration `json:"duration"`
	ExitReason string        `json:"exit_reason"`
}
