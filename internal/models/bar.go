package models

import "time"

// Bar is a single OHLCV bar as delivered by the market data collaborator.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// IndicatorSnapshot is the fixed set of indicator values the signal scorer
// consumes for one point in time. Indicators are computed upstream; the
// snapshot carries no history beyond the previous MACD pair needed for
// crossover detection.
type IndicatorSnapshot struct {
	Price          float64 `json:"price"`
	RSI14          float64 `json:"rsi_14"`
	MACD           float64 `json:"macd"`
	MACDSignal     float64 `json:"macd_signal"`
	PrevMACD       float64 `json:"prev_macd"`
	PrevMACDSignal float64 `json:"prev_macd_signal"`
	SMAShort       float64 `json:"sma_short"`
	SMALong        float64 `json:"sma_long"`
	PrevSMAShort   float64 `json:"prev_sma_short"`
	PrevSMALong    float64 `json:"prev_sma_long"`
	BollingerUpper float64 `json:"bollinger_upper"`
	BollingerLower float64 `json:"bollinger_lower"`
	ATR            float64 `json:"atr"`
	Volume         float64 `json:"volume"`
	VolumeAvg      float64 `json:"volume_avg"`
	Return5        float64 `json:"return_5"`
}

// VolumeRatio returns current volume relative to its rolling average.
func (s IndicatorSnapshot) VolumeRatio() float64 {
	if s.VolumeAvg == 0 {
		return 1
	}
	return s.Volume / s.VolumeAvg
}
