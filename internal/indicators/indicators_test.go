package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/yourusername/stockcast/internal/models"
)

func syntheticBars(n int) []models.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		c := 100 + 10*math.Sin(float64(i)/8)
		bars[i] = models.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000 + float64(i%7)*100,
		}
	}
	return bars
}

func TestSMAConvergesToMeanOfWindow(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	sma := SMA(values, 5)
	// Last window is 6..10
	if sma[9] != 8 {
		t.Fatalf("expected SMA 8, got %f", sma[9])
	}
	// Warmup entries average what has been seen
	if sma[1] != 1.5 {
		t.Fatalf("expected warmup SMA 1.5, got %f", sma[1])
	}
}

func TestRSIBounds(t *testing.T) {
	// Strictly rising closes drive RSI to 100
	rising := make([]float64, 50)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	rsi := RSI(rising, RSIPeriod)
	if rsi[49] != 100 {
		t.Fatalf("expected RSI 100 for strictly rising series, got %f", rsi[49])
	}

	falling := make([]float64, 50)
	for i := range falling {
		falling[i] = float64(200 - i)
	}
	rsi = RSI(falling, RSIPeriod)
	if rsi[49] > 1 {
		t.Fatalf("expected RSI near 0 for strictly falling series, got %f", rsi[49])
	}
}

func TestMACDFlatSeriesIsZero(t *testing.T) {
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 100
	}
	macd, signal := MACD(flat)
	if macd[59] != 0 || signal[59] != 0 {
		t.Fatalf("expected zero MACD on flat series, got %f/%f", macd[59], signal[59])
	}
}

func TestBollingerBandsContainSMA(t *testing.T) {
	bars := syntheticBars(100)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	upper, lower := Bollinger(closes, BollingerPeriod, BollingerWidth)
	for i := range closes {
		if upper[i] < lower[i] {
			t.Fatalf("bar %d: upper band below lower band", i)
		}
	}
}

func TestATRPositive(t *testing.T) {
	atr := ATR(syntheticBars(60), ATRPeriod)
	for i, v := range atr {
		if v <= 0 {
			t.Fatalf("bar %d: expected positive ATR, got %f", i, v)
		}
	}
}

func TestSnapshotsRequireWarmup(t *testing.T) {
	_, err := Snapshots(syntheticBars(MinBars - 1))
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestSnapshotsCarryPreviousValues(t *testing.T) {
	snaps, err := Snapshots(syntheticBars(120))
	if err != nil {
		t.Fatalf("snapshots failed: %v", err)
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].PrevMACD != snaps[i-1].MACD {
			t.Fatalf("bar %d: PrevMACD does not match prior bar", i)
		}
		if snaps[i].PrevSMAShort != snaps[i-1].SMAShort {
			t.Fatalf("bar %d: PrevSMAShort does not match prior bar", i)
		}
	}
}

func TestBuildFrame(t *testing.T) {
	bars := syntheticBars(150)
	frame, err := BuildFrame("TEST", bars)
	if err != nil {
		t.Fatalf("frame build failed: %v", err)
	}
	if frame.Len() != 150 {
		t.Fatalf("expected 150 samples, got %d", frame.Len())
	}
	if frame.FeatureWidth() != len(FeatureNames) {
		t.Fatalf("expected %d features, got %d", len(FeatureNames), frame.FeatureWidth())
	}
	if frame.Samples[10].Price != bars[10].Close {
		t.Fatalf("sample price should equal bar close")
	}
}
