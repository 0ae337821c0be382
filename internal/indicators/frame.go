package indicators

import (
	"github.com/yourusername/stockcast/internal/models"
)

// FeatureNames lists the frame features in column order.
var FeatureNames = []string{
	"return_1",
	"rsi_14",
	"macd",
	"macd_signal",
	"sma_ratio",
	"bollinger_position",
	"atr_pct",
	"volume_ratio",
	"return_5",
}

// BuildFrame derives a training frame from raw bars: each sample carries the
// bar's indicator state as features and its close as the target price. Bars
// must be time-ordered; frame construction re-checks this.
func BuildFrame(symbol string, bars []models.Bar) (*models.Frame, error) {
	snaps, err := Snapshots(bars)
	if err != nil {
		return nil, err
	}

	samples := make([]models.Sample, 0, len(bars))
	for i, bar := range bars {
		prevClose := bar.Close
		if i > 0 {
			prevClose = bars[i-1].Close
		}
		ret1 := 0.0
		if prevClose != 0 {
			ret1 = (bar.Close - prevClose) / prevClose
		}

		s := snaps[i]
		smaRatio := 1.0
		if s.SMALong != 0 {
			smaRatio = s.SMAShort / s.SMALong
		}
		bollingerPos := 0.5
		if width := s.BollingerUpper - s.BollingerLower; width != 0 {
			bollingerPos = (bar.Close - s.BollingerLower) / width
		}
		atrPct := 0.0
		if bar.Close != 0 {
			atrPct = s.ATR / bar.Close
		}

		samples = append(samples, models.Sample{
			Timestamp: bar.Timestamp,
			Features: []float64{
				ret1,
				s.RSI14,
				s.MACD,
				s.MACDSignal,
				smaRatio,
				bollingerPos,
				atrPct,
				s.VolumeRatio(),
				s.Return5,
			},
			Price: bar.Close,
		})
	}

	return models.NewFrame(symbol, samples)
}
