package models

// Position is a sized entry derived deterministically from a signal plus
// account state. Superseded, never mutated, when strategy re-evaluates.
type Position struct {
	Side         TradeSide `json:"side"`
	Shares       float64   `json:"shares"`
	EntryPrice   float64   `json:"entry_price"`
	StopLoss     float64   `json:"stop_loss"`
	TakeProfit   float64   `json:"take_profit"`
	RiskFraction float64   `json:"risk_fraction"`
}

// Notional returns the position value at entry.
func (p Position) Notional() float64 {
	return p.Shares * p.EntryPrice
}
