// Package indicators computes technical indicator series from OHLCV bars.
package indicators

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/stockcast/internal/models"
)

// Standard indicator periods
const (
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	SMAShortPeriod   = 10
	SMALongPeriod    = 50
	BollingerPeriod  = 20
	BollingerWidth   = 2.0
	ATRPeriod        = 14
	VolumeAvgPeriod  = 20
	ReturnPeriod     = 5
)

// MinBars is the shortest bar series the full indicator set can be computed
// on. The long SMA dominates.
const MinBars = SMALongPeriod + 1

// SMA returns the simple moving average series for the given period. The
// first period-1 entries hold the average of the bars seen so far.
func SMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
			out[i] = sum / float64(period)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// EMA returns the exponential moving average series for the given period.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI returns the relative strength index series using Wilder smoothing.
// Entries before the warmup period hold the neutral value 50.
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = 50
	}
	if len(closes) <= period {
		return out
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain := 0.0
		loss := 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line and its signal line.
func MACD(closes []float64) (macd, signal []float64) {
	fast := EMA(closes, MACDFastPeriod)
	slow := EMA(closes, MACDSlowPeriod)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	signal = EMA(macd, MACDSignalPeriod)
	return macd, signal
}

// Bollinger returns the upper and lower bands around a period SMA.
func Bollinger(closes []float64, period int, width float64) (upper, lower []float64) {
	mid := SMA(closes, period)
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		lo := i - period + 1
		if lo < 0 {
			lo = 0
		}
		sd := stat.StdDev(closes[lo:i+1], nil)
		upper[i] = mid[i] + width*sd
		lower[i] = mid[i] - width*sd
	}
	return upper, lower
}

// ATR returns the average true range series using Wilder smoothing.
func ATR(bars []models.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out
	}

	trs := make([]float64, len(bars))
	trs[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := abs(bars[i].High - bars[i-1].Close)
		lowClose := abs(bars[i].Low - bars[i-1].Close)
		trs[i] = max3(highLow, highClose, lowClose)
	}

	sum := 0.0
	for i, tr := range trs {
		if i < period {
			sum += tr
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = (out[i-1]*float64(period-1) + tr) / float64(period)
	}
	return out
}

// Snapshots computes the full indicator snapshot for every bar. Needs at
// least MinBars bars for the slowest indicator to warm up.
func Snapshots(bars []models.Bar) ([]models.IndicatorSnapshot, error) {
	if len(bars) < MinBars {
		return nil, fmt.Errorf("%w: need %d bars for indicators, have %d", models.ErrInsufficientData, MinBars, len(bars))
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	rsi := RSI(closes, RSIPeriod)
	macd, macdSignal := MACD(closes)
	smaShort := SMA(closes, SMAShortPeriod)
	smaLong := SMA(closes, SMALongPeriod)
	upper, lower := Bollinger(closes, BollingerPeriod, BollingerWidth)
	atr := ATR(bars, ATRPeriod)
	volumeAvg := SMA(volumes, VolumeAvgPeriod)

	out := make([]models.IndicatorSnapshot, len(bars))
	for i := range bars {
		prev := i - 1
		if prev < 0 {
			prev = 0
		}
		ret5 := 0.0
		if i >= ReturnPeriod && closes[i-ReturnPeriod] != 0 {
			ret5 = (closes[i] - closes[i-ReturnPeriod]) / closes[i-ReturnPeriod]
		}
		out[i] = models.IndicatorSnapshot{
			Price:          closes[i],
			RSI14:          rsi[i],
			MACD:           macd[i],
			MACDSignal:     macdSignal[i],
			PrevMACD:       macd[prev],
			PrevMACDSignal: macdSignal[prev],
			SMAShort:       smaShort[i],
			SMALong:        smaLong[i],
			PrevSMAShort:   smaShort[prev],
			PrevSMALong:    smaLong[prev],
			BollingerUpper: upper[i],
			BollingerLower: lower[i],
			ATR:            atr[i],
			Volume:         volumes[i],
			VolumeAvg:      volumeAvg[i],
			Return5:        ret5,
		}
	}
	return out, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
