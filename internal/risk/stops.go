package risk

import (
	"fmt"
)

// StopMode selects how the protective stop distance is derived.
type StopMode string

// Stop modes
const (
	StopPercentage StopMode = "percentage"
	StopATR        StopMode = "atr"
)

// StopConfig derives stop-loss and take-profit levels for an entry.
type StopConfig struct {
	Mode            StopMode
	Percentage      float64 // stop distance as fraction of entry, percentage mode
	ATRMultiple     float64 // stop distance in ATR units, atr mode
	RewardRiskRatio float64 // take-profit distance as multiple of stop distance; negative disables the target
}

// Levels returns (stopLoss, takeProfit) for the entry price. ATR is ignored
// in percentage mode. A negative RewardRiskRatio disables the take-profit
// and the returned target is 0.
func (c StopConfig) Levels(entry, atr float64) (float64, float64, error) {
	if entry <= 0 {
		return 0, 0, fmt.Errorf("entry price must be positive, got %.2f", entry)
	}
	ratio := c.RewardRiskRatio
	if ratio == 0 {
		ratio = DefaultRewardRiskRatio
	}

	var distance float64
	switch c.Mode {
	case StopPercentage, "":
		pct := c.Percentage
		if pct == 0 {
			pct = 0.05
		}
		if pct < 0 || pct >= 1 {
			return 0, 0, fmt.Errorf("stop percentage %.4f outside (0,1)", pct)
		}
		distance = entry * pct
	case StopATR:
		if atr <= 0 {
			return 0, 0, fmt.Errorf("ATR must be positive in atr mode, got %.4f", atr)
		}
		mult := c.ATRMultiple
		if mult == 0 {
			mult = 2
		}
		distance = atr * mult
	default:
		return 0, 0, fmt.Errorf("unknown stop mode %q", c.Mode)
	}

	stop := entry - distance
	if stop <= 0 {
		return 0, 0, fmt.Errorf("stop distance %.2f exceeds entry price %.2f", distance, entry)
	}
	if ratio < 0 {
		return stop, 0, nil
	}
	return stop, entry + distance*ratio, nil
}

// ShortLevels mirrors Levels around the entry for a short position: the stop
// sits above the entry and the target below it.
func (c StopConfig) ShortLevels(entry, atr float64) (float64, float64, error) {
	stop, target, err := c.Levels(entry, atr)
	if err != nil {
		return 0, 0, err
	}
	if target == 0 {
		return 2*entry - stop, 0, nil
	}
	shortTarget := 2*entry - target
	if shortTarget <= 0 {
		return 0, 0, fmt.Errorf("target distance exceeds entry price %.2f", entry)
	}
	return 2*entry - stop, shortTarget, nil
}

// quarterKelly tempers the raw Kelly fraction; full Kelly assumes the edge
// estimate is exact, which backtest-derived win rates never are.
const quarterKelly = 0.25

// KellyFraction returns the fraction of equity to commit for a strategy with
// the given win rate and average win/loss ratio, scaled to quarter-Kelly.
// The result is clamped at zero; a negative edge means no position.
func KellyFraction(winRate, winLossRatio float64) (float64, error) {
	if winRate < 0 || winRate > 1 {
		return 0, fmt.Errorf("win rate %.4f outside [0,1]", winRate)
	}
	if winLossRatio <= 0 {
		return 0, fmt.Errorf("win/loss ratio must be positive, got %.4f", winLossRatio)
	}
	f := winRate - (1-winRate)/winLossRatio
	if f < 0 {
		f = 0
	}
	return f * quarterKelly, nil
}
