// Package risk computes position sizes and protective price levels from
// account equity and per-trade risk limits.
package risk

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/stockcast/internal/models"
)

// Default sizing limits
const (
	DefaultRiskFraction    = 0.02
	DefaultMaxPositionFrac = 0.20
	DefaultRewardRiskRatio = 2.0
)

// Sizer converts a stop distance into a share count bounded by both the
// per-trade risk budget and the maximum position fraction of equity.
type Sizer struct {
	riskFraction    float64
	maxPositionFrac float64
	logger          *logrus.Logger
}

// NewSizer creates a sizer. Zero fractions fall back to the defaults.
func NewSizer(riskFraction, maxPositionFrac float64, logger *logrus.Logger) (*Sizer, error) {
	if riskFraction == 0 {
		riskFraction = DefaultRiskFraction
	}
	if maxPositionFrac == 0 {
		maxPositionFrac = DefaultMaxPositionFrac
	}
	if riskFraction < 0 || riskFraction > 1 {
		return nil, fmt.Errorf("risk fraction %.4f outside (0,1]", riskFraction)
	}
	if maxPositionFrac < 0 || maxPositionFrac > 1 {
		return nil, fmt.Errorf("max position fraction %.4f outside (0,1]", maxPositionFrac)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Sizer{riskFraction: riskFraction, maxPositionFrac: maxPositionFrac, logger: logger}, nil
}

// SizePosition returns the share count for an entry. The count risks at
// most riskFraction of equity between entry and stop, then is capped so the
// position notional never exceeds maxPositionFrac of equity. A stop above
// the entry marks the position short.
func (s *Sizer) SizePosition(equity, entry, stop, takeProfit float64) (*models.Position, error) {
	if equity <= 0 {
		return nil, fmt.Errorf("equity must be positive, got %.2f", equity)
	}
	if entry <= 0 {
		return nil, fmt.Errorf("entry price must be positive, got %.2f", entry)
	}
	riskPerShare := math.Abs(entry - stop)
	if riskPerShare == 0 {
		return nil, fmt.Errorf("%w: entry %.2f equals stop", models.ErrInvalidStop, entry)
	}

	shares := math.Floor(equity * s.riskFraction / riskPerShare)
	maxShares := math.Floor(equity * s.maxPositionFrac / entry)
	capped := false
	if shares > maxShares {
		shares = maxShares
		capped = true
	}
	if shares <= 0 {
		return nil, fmt.Errorf("risk budget too small for one share at %.2f", entry)
	}

	side := models.TradeSideLong
	if stop > entry {
		side = models.TradeSideShort
	}
	pos := &models.Position{
		Side:         side,
		Shares:       shares,
		EntryPrice:   entry,
		StopLoss:     stop,
		TakeProfit:   takeProfit,
		RiskFraction: s.riskFraction,
	}
	s.logger.WithFields(logrus.Fields{
		"shares":   pos.Shares,
		"notional": pos.Notional(),
		"capped":   capped,
	}).Debug("Position sized")
	return pos, nil
}
