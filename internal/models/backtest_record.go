package models

import (
	"time"

	"github.com/google/uuid"
)

// BacktestRecord is the persisted summary of one backtest run. The full
// metrics report is stored as JSON alongside the headline figures used for
// querying.
type BacktestRecord struct {
	ID            uuid.UUID `json:"id"`
	Symbol        string    `json:"symbol"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	InitialEquity float64   `json:"initial_equity"`
	FinalEquity   float64   `json:"final_equity"`
	TotalReturn   float64   `json:"total_return"`
	SharpeRatio   float64   `json:"sharpe_ratio"`
	MaxDrawdown   float64   `json:"max_drawdown"`
	TotalTrades   int       `json:"total_trades"`
	MetricsJSON   string    `json:"metrics_json"`
	CreatedAt     time.Time `json:"created_at"`
}
