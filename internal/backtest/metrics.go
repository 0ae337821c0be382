package backtest

import (
	"encoding/json"
	"math"
	"time"

	"github.com/yourusername/stockcast/internal/models"
)

// tradingDaysPerYear annualizes per-bar return statistics.
const tradingDaysPerYear = 252.0

// Metrics represents backtest performance metrics. Trade-derived ratios are
// pointers: a run with no closed trades leaves them nil rather than reporting
// a misleading zero.
type Metrics struct {
	TotalReturn      float64   `json:"total_return"`
	AnnualizedReturn float64   `json:"annualized_return"`
	CAGR             float64   `json:"cagr"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	Volatility       float64   `json:"annualized_volatility"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	SortinoRatio     float64   `json:"sortino_ratio"`
	TotalTrades      int       `json:"total_trades"`
	WinningTrades    int       `json:"winning_trades"`
	LosingTrades     int       `json:"losing_trades"`
	WinRate          *float64  `json:"win_rate,omitempty"`
	ProfitFactor     *float64  `json:"profit_factor,omitempty"`
	AverageWin       *float64  `json:"average_win,omitempty"`
	AverageLoss      *float64  `json:"average_loss,omitempty"`
	Expectancy       *float64  `json:"expectancy,omitempty"`
	LargestWin       float64   `json:"largest_win"`
	LargestLoss      float64   `json:"largest_loss"`
	TotalCommission  float64   `json:"total_commission"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	TradingDays      int       `json:"trading_days"`
}

// CalculateMetrics calculates metrics from final simulation state
func CalculateMetrics(state *State, cfg Config, start, end time.Time) Metrics {
	metrics := Metrics{
		StartDate:   start,
		EndDate:     end,
		TradingDays: int(end.Sub(start).Hours()/24) + 1,
	}
	if state == nil || len(state.Curve) == 0 {
		return metrics
	}

	initial := state.Curve[0].Value
	final := state.Curve[len(state.Curve)-1].Value
	if initial > 0 {
		metrics.TotalReturn = (final - initial) / initial
		metrics.CAGR = calculateCAGR(initial, final, metrics.TradingDays)
		metrics.AnnualizedReturn = metrics.CAGR
	}

	metrics.MaxDrawdown = calculateMaxDrawdown(state.Curve)
	returns := state.Curve.Returns()
	metrics.Volatility = stddev(returns) * math.Sqrt(tradingDaysPerYear)
	metrics.SharpeRatio = calculateSharpeRatio(returns, cfg.RiskFreeRate)
	metrics.SortinoRatio = calculateSortinoRatio(returns, cfg.RiskFreeRate)

	fillTradeStats(&metrics, state.Trades)
	return metrics
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func fillTradeStats(m *Metrics, trades []*models.TradeRecord) {
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	grossProfit := 0.0
	grossLoss := 0.0
	totalPnL := 0.0
	for _, t := range trades {
		totalPnL += t.ProfitLoss
		m.TotalCommission += t.Commission
		switch {
		case t.ProfitLoss > 0:
			m.WinningTrades++
			grossProfit += t.ProfitLoss
			if t.ProfitLoss > m.LargestWin {
				m.LargestWin = t.ProfitLoss
			}
		case t.ProfitLoss < 0:
			m.LosingTrades++
			grossLoss += -t.ProfitLoss
			if t.ProfitLoss < m.LargestLoss {
				m.LargestLoss = t.ProfitLoss
			}
		default:
			m.LosingTrades++
		}
	}

	winRate := float64(m.WinningTrades) / float64(m.TotalTrades)
	m.WinRate = &winRate

	expectancy := totalPnL / float64(m.TotalTrades)
	m.Expectancy = &expectancy

	if m.WinningTrades > 0 {
		avgWin := grossProfit / float64(m.WinningTrades)
		m.AverageWin = &avgWin
	}
	if m.LosingTrades > 0 && grossLoss > 0 {
		avgLoss := -grossLoss / float64(m.LosingTrades)
		m.AverageLoss = &avgLoss
	}
	if grossLoss > 0 {
		pf := grossProfit / grossLoss
		m.ProfitFactor = &pf
	}
}

func calculateCAGR(initial, final float64, tradingDays int) float64 {
	if initial <= 0 || final <= 0 || tradingDays <= 0 {
		return 0
	}
	years := float64(tradingDays) / 365.0
	if years == 0 {
		return 0
	}
	return math.Pow(final/initial, 1/years) - 1
}

func calculateMaxDrawdown(curve EquityCurve) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak == 0 {
			continue
		}
		drawdown := (peak - p.Value) / peak
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

func calculateSharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := average(returns)
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	return (mean - riskFreeRate/tradingDaysPerYear) / std * math.Sqrt(tradingDaysPerYear)
}

func calculateSortinoRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := average(returns)
	std := downsideStddev(returns)
	if std == 0 {
		return 0
	}
	return (mean - riskFreeRate/tradingDaysPerYear) / std * math.Sqrt(tradingDaysPerYear)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func downsideStddev(values []float64) float64 {
	variance := 0.0
	count := 0
	for _, v := range values {
		if v < 0 {
			variance += v * v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	variance /= float64(count)
	return math.Sqrt(variance)
}
