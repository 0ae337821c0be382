package signal

import (
	"fmt"
	"sort"

	"github.com/yourusername/stockcast/internal/models"
)

// Strategy is a single-indicator signal generator. Strategies share the
// composite scorer's output contract but each looks at one slice of the
// snapshot, so they can be run and compared independently.
type Strategy interface {
	Name() string
	Evaluate(ind models.IndicatorSnapshot) models.Signal
}

// Strategies returns the built-in strategy set keyed by name.
func Strategies() map[string]Strategy {
	set := []Strategy{
		RSIStrategy{Oversold: rsiOversold, Overbought: rsiOverbought},
		MACDCrossoverStrategy{},
		MACrossoverStrategy{},
		BollingerStrategy{},
		MomentumStrategy{Threshold: 0.03},
	}
	out := make(map[string]Strategy, len(set))
	for _, s := range set {
		out[s.Name()] = s
	}
	return out
}

// StrategyByName looks up a built-in strategy.
func StrategyByName(name string) (Strategy, error) {
	set := Strategies()
	if s, ok := set[name]; ok {
		return s, nil
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown strategy %q, available: %v", name, names)
}

func directional(class models.Classification, score float64, reason string) models.Signal {
	confidence := score
	if confidence < 0 {
		confidence = -confidence
	}
	confidence = confidence / maxScoreReference * 100
	if confidence > 100 {
		confidence = 100
	}
	return models.Signal{
		Classification: class,
		Score:          score,
		Confidence:     confidence,
		Strength:       confidence / 10,
		Reasons:        []string{reason},
	}
}

func hold(reason string) models.Signal {
	return models.Signal{Classification: models.SignalHold, Reasons: []string{reason}}
}

// RSIStrategy buys oversold and sells overbought conditions.
type RSIStrategy struct {
	Oversold   float64
	Overbought float64
}

func (s RSIStrategy) Name() string { return "rsi" }

func (s RSIStrategy) Evaluate(ind models.IndicatorSnapshot) models.Signal {
	switch {
	case ind.RSI14 < s.Oversold:
		return directional(models.SignalBuy, rsiWeight, fmt.Sprintf("RSI %.1f below %.0f (oversold)", ind.RSI14, s.Oversold))
	case ind.RSI14 > s.Overbought:
		return directional(models.SignalSell, -rsiWeight, fmt.Sprintf("RSI %.1f above %.0f (overbought)", ind.RSI14, s.Overbought))
	}
	return hold(fmt.Sprintf("RSI %.1f in neutral band", ind.RSI14))
}

// MACDCrossoverStrategy signals on the MACD line crossing its signal line,
// not merely being above or below it.
type MACDCrossoverStrategy struct{}

func (s MACDCrossoverStrategy) Name() string { return "macd" }

func (s MACDCrossoverStrategy) Evaluate(ind models.IndicatorSnapshot) models.Signal {
	crossedUp := ind.PrevMACD <= ind.PrevMACDSignal && ind.MACD > ind.MACDSignal
	crossedDown := ind.PrevMACD >= ind.PrevMACDSignal && ind.MACD < ind.MACDSignal
	switch {
	case crossedUp:
		return directional(models.SignalBuy, macdWeight, "MACD crossed above signal line")
	case crossedDown:
		return directional(models.SignalSell, -macdWeight, "MACD crossed below signal line")
	}
	return hold("no MACD crossover")
}

// MACrossoverStrategy signals on the short moving average crossing the long.
type MACrossoverStrategy struct{}

func (s MACrossoverStrategy) Name() string { return "ma-crossover" }

func (s MACrossoverStrategy) Evaluate(ind models.IndicatorSnapshot) models.Signal {
	crossedUp := ind.PrevSMAShort <= ind.PrevSMALong && ind.SMAShort > ind.SMALong
	crossedDown := ind.PrevSMAShort >= ind.PrevSMALong && ind.SMAShort < ind.SMALong
	switch {
	case crossedUp:
		return directional(models.SignalBuy, smaWeight, "short MA crossed above long MA")
	case crossedDown:
		return directional(models.SignalSell, -smaWeight, "short MA crossed below long MA")
	}
	return hold("no moving average crossover")
}

// BollingerStrategy trades reversion from the band edges.
type BollingerStrategy struct{}

func (s BollingerStrategy) Name() string { return "bollinger" }

func (s BollingerStrategy) Evaluate(ind models.IndicatorSnapshot) models.Signal {
	switch {
	case ind.Price <= ind.BollingerLower:
		return directional(models.SignalBuy, rsiWeight, fmt.Sprintf("price %.2f at or below lower band %.2f", ind.Price, ind.BollingerLower))
	case ind.Price >= ind.BollingerUpper:
		return directional(models.SignalSell, -rsiWeight, fmt.Sprintf("price %.2f at or above upper band %.2f", ind.Price, ind.BollingerUpper))
	}
	return hold("price inside Bollinger bands")
}

// MomentumStrategy follows the trailing 5-bar return when it clears the
// threshold in either direction.
type MomentumStrategy struct {
	Threshold float64
}

func (s MomentumStrategy) Name() string { return "momentum" }

func (s MomentumStrategy) Evaluate(ind models.IndicatorSnapshot) models.Signal {
	switch {
	case ind.Return5 >= s.Threshold:
		return directional(models.SignalBuy, macdWeight, fmt.Sprintf("5-bar return %.1f%% above threshold", ind.Return5*100))
	case ind.Return5 <= -s.Threshold:
		return directional(models.SignalSell, -macdWeight, fmt.Sprintf("5-bar return %.1f%% below threshold", ind.Return5*100))
	}
	return hold("momentum below threshold")
}
