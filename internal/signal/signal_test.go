package signal

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/stockcast/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func floatPtr(v float64) *float64 { return &v }

// bullishSnapshot has every rule firing long with normal volume.
func bullishSnapshot() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Price:      100,
		RSI14:      25,
		MACD:       1.2,
		MACDSignal: 0.8,
		SMAShort:   102,
		SMALong:    98,
		Volume:     1000,
		VolumeAvg:  1000,
	}
}

func TestScoreAllBullishRules(t *testing.T) {
	s, err := NewScorer(models.SensitivityModerate, testLogger())
	if err != nil {
		t.Fatalf("scorer construction failed: %v", err)
	}

	sig, err := s.Score(Context{
		Indicators:    bullishSnapshot(),
		ForecastPrice: floatPtr(105),
		Sentiment:     floatPtr(0.5),
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	// RSI +2, MACD +1, SMA +1, forecast +2, sentiment +1 = 7, no amplifier
	if sig.Score != 7 {
		t.Fatalf("expected score 7, got %f", sig.Score)
	}
	if sig.Classification != models.SignalBuy {
		t.Fatalf("expected BUY, got %s", sig.Classification)
	}
	if sig.Confidence != 100 {
		t.Fatalf("expected confidence capped at 100, got %f", sig.Confidence)
	}
	if sig.Strength != 10 {
		t.Fatalf("expected strength 10, got %f", sig.Strength)
	}
	if len(sig.Reasons) != 5 {
		t.Fatalf("expected 5 reasons, got %d: %v", len(sig.Reasons), sig.Reasons)
	}
}

func TestForecastAndSentimentBoundariesDoNotFire(t *testing.T) {
	s, err := NewScorer(models.SensitivityModerate, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	// A neutral snapshot: every indicator rule abstains.
	ind := models.IndicatorSnapshot{
		Price:      100,
		RSI14:      50,
		MACD:       1.0,
		MACDSignal: 1.0,
		SMAShort:   100,
		SMALong:    100,
		Volume:     1000,
		VolumeAvg:  1000,
	}

	// Forecast edge of exactly 2% and sentiment of exactly 0.3 sit on the
	// thresholds; the rules require strictly more.
	sig, err := s.Score(Context{
		Indicators:    ind,
		ForecastPrice: floatPtr(102),
		Sentiment:     floatPtr(0.3),
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if sig.Score != 0 {
		t.Fatalf("expected score 0 at the boundaries, got %f", sig.Score)
	}
	if len(sig.Reasons) != 0 {
		t.Fatalf("expected no fired rules, got %v", sig.Reasons)
	}

	sig, err = s.Score(Context{
		Indicators:    ind,
		ForecastPrice: floatPtr(102.5),
		Sentiment:     floatPtr(0.31),
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if sig.Score != 3 {
		t.Fatalf("expected score 3 just past the boundaries, got %f", sig.Score)
	}
}

func TestVolumeSpikeAmplifiesScore(t *testing.T) {
	s, err := NewScorer(models.SensitivityModerate, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	ind := bullishSnapshot()
	ind.Volume = 2000 // 2x average
	sig, err := s.Score(Context{Indicators: ind})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	// (RSI +2, MACD +1, SMA +1) * 1.2 = 4.8
	if math.Abs(sig.Score-4.8) > 1e-9 {
		t.Fatalf("expected amplified score 4.8, got %f", sig.Score)
	}
}

func TestSensitivityChangesClassificationOnly(t *testing.T) {
	ind := models.IndicatorSnapshot{
		Price:      100,
		RSI14:      25, // +2
		MACD:       1,  // +1 vs signal 0
		SMAShort:   100,
		SMALong:    100, // no contribution
		Volume:     1000,
		VolumeAvg:  1000,
		MACDSignal: 0,
	}

	cases := []struct {
		sensitivity models.Sensitivity
		want        models.Classification
	}{
		{models.SensitivityConservative, models.SignalHold},
		{models.SensitivityModerate, models.SignalBuy},
		{models.SensitivityAggressive, models.SignalBuy},
	}
	for _, tc := range cases {
		s, err := NewScorer(tc.sensitivity, testLogger())
		if err != nil {
			t.Fatal(err)
		}
		sig, err := s.Score(Context{Indicators: ind})
		if err != nil {
			t.Fatalf("%s: score failed: %v", tc.sensitivity, err)
		}
		if sig.Score != 3 {
			t.Fatalf("%s: score changed with sensitivity: %f", tc.sensitivity, sig.Score)
		}
		if sig.Classification != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.sensitivity, tc.want, sig.Classification)
		}
	}
}

func TestScoreBearishSell(t *testing.T) {
	s, err := NewScorer(models.SensitivityModerate, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	sig, err := s.Score(Context{
		Indicators: models.IndicatorSnapshot{
			Price:      100,
			RSI14:      75,
			MACD:       -1,
			MACDSignal: 0,
			SMAShort:   95,
			SMALong:    99,
			Volume:     1000,
			VolumeAvg:  1000,
		},
		ForecastPrice: floatPtr(97),
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if sig.Score != -6 {
		t.Fatalf("expected score -6, got %f", sig.Score)
	}
	if sig.Classification != models.SignalSell {
		t.Fatalf("expected SELL, got %s", sig.Classification)
	}
}

func TestScoreRejectsInvalidPrice(t *testing.T) {
	s, err := NewScorer(models.SensitivityModerate, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Score(Context{Indicators: models.IndicatorSnapshot{Price: 0}}); err == nil {
		t.Fatal("expected error for zero price")
	}
}

func TestNewScorerRejectsUnknownSensitivity(t *testing.T) {
	if _, err := NewScorer(models.Sensitivity("reckless"), testLogger()); err == nil {
		t.Fatal("expected rejection of unknown sensitivity")
	}
}

func TestMACDCrossoverRequiresActualCross(t *testing.T) {
	strat := MACDCrossoverStrategy{}

	above := models.IndicatorSnapshot{PrevMACD: 1, PrevMACDSignal: 0, MACD: 1, MACDSignal: 0}
	if sig := strat.Evaluate(above); sig.Classification != models.SignalHold {
		t.Fatalf("still-above is not a crossover, got %s", sig.Classification)
	}

	crossed := models.IndicatorSnapshot{PrevMACD: -0.5, PrevMACDSignal: 0, MACD: 0.5, MACDSignal: 0}
	if sig := strat.Evaluate(crossed); sig.Classification != models.SignalBuy {
		t.Fatalf("expected BUY on upward crossover, got %s", sig.Classification)
	}
}

func TestBollingerReversion(t *testing.T) {
	strat := BollingerStrategy{}

	low := models.IndicatorSnapshot{Price: 94, BollingerLower: 95, BollingerUpper: 105}
	if sig := strat.Evaluate(low); sig.Classification != models.SignalBuy {
		t.Fatalf("expected BUY below lower band, got %s", sig.Classification)
	}

	mid := models.IndicatorSnapshot{Price: 100, BollingerLower: 95, BollingerUpper: 105}
	if sig := strat.Evaluate(mid); sig.Classification != models.SignalHold {
		t.Fatalf("expected HOLD inside bands, got %s", sig.Classification)
	}
}

func TestMomentumThreshold(t *testing.T) {
	strat := MomentumStrategy{Threshold: 0.03}

	if sig := strat.Evaluate(models.IndicatorSnapshot{Return5: 0.05}); sig.Classification != models.SignalBuy {
		t.Fatalf("expected BUY on strong momentum, got %s", sig.Classification)
	}
	if sig := strat.Evaluate(models.IndicatorSnapshot{Return5: -0.04}); sig.Classification != models.SignalSell {
		t.Fatalf("expected SELL on strong negative momentum, got %s", sig.Classification)
	}
	if sig := strat.Evaluate(models.IndicatorSnapshot{Return5: 0.01}); sig.Classification != models.SignalHold {
		t.Fatalf("expected HOLD on weak momentum, got %s", sig.Classification)
	}
}

func TestStrategyByName(t *testing.T) {
	if _, err := StrategyByName("rsi"); err != nil {
		t.Fatalf("expected rsi strategy to exist: %v", err)
	}
	if _, err := StrategyByName("astrology"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
