// Package signal turns indicator state, model forecasts and sentiment into
// discrete trade recommendations.
package signal

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/stockcast/internal/models"
)

// Rule contributions and modifiers for the composite score.
const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
	rsiWeight     = 2.0

	macdWeight = 1.0
	smaWeight  = 1.0

	forecastEdge   = 0.02
	forecastWeight = 2.0

	sentimentEdge   = 0.3
	sentimentWeight = 1.0

	volumeSpikeRatio = 1.5
	volumeAmplifier  = 1.2

	maxScoreReference = 5.0
)

// Context carries everything the composite scorer looks at. ForecastPrice
// and Sentiment are optional inputs; their rules are skipped when absent.
type Context struct {
	Indicators    models.IndicatorSnapshot
	ForecastPrice *float64
	Sentiment     *float64
}

// Scorer combines weighted indicator rules into a single classification.
type Scorer struct {
	sensitivity models.Sensitivity
	logger      *logrus.Logger
}

// NewScorer creates a composite scorer with the given sensitivity.
func NewScorer(sensitivity models.Sensitivity, logger *logrus.Logger) (*Scorer, error) {
	if !sensitivity.Valid() {
		return nil, fmt.Errorf("unknown sensitivity %q", sensitivity)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Scorer{sensitivity: sensitivity, logger: logger}, nil
}

// Score applies every rule additively, amplifies on a volume spike, and
// classifies against the sensitivity threshold. Every fired rule contributes
// one reason string.
func (s *Scorer) Score(ctx Context) (models.Signal, error) {
	ind := ctx.Indicators
	if ind.Price <= 0 {
		return models.Signal{}, fmt.Errorf("%w: non-positive price %.4f", models.ErrDataIntegrity, ind.Price)
	}

	score := 0.0
	var reasons []string

	switch {
	case ind.RSI14 < rsiOversold:
		score += rsiWeight
		reasons = append(reasons, fmt.Sprintf("RSI %.1f below %.0f (oversold)", ind.RSI14, rsiOversold))
	case ind.RSI14 > rsiOverbought:
		score -= rsiWeight
		reasons = append(reasons, fmt.Sprintf("RSI %.1f above %.0f (overbought)", ind.RSI14, rsiOverbought))
	}

	switch {
	case ind.MACD > ind.MACDSignal:
		score += macdWeight
		reasons = append(reasons, "MACD above signal line")
	case ind.MACD < ind.MACDSignal:
		score -= macdWeight
		reasons = append(reasons, "MACD below signal line")
	}

	switch {
	case ind.SMAShort > ind.SMALong:
		score += smaWeight
		reasons = append(reasons, "short MA above long MA")
	case ind.SMAShort < ind.SMALong:
		score -= smaWeight
		reasons = append(reasons, "short MA below long MA")
	}

	if ctx.ForecastPrice != nil {
		edge := (*ctx.ForecastPrice - ind.Price) / ind.Price
		switch {
		case edge > forecastEdge:
			score += forecastWeight
			reasons = append(reasons, fmt.Sprintf("forecast %.1f%% above price", edge*100))
		case edge < -forecastEdge:
			score -= forecastWeight
			reasons = append(reasons, fmt.Sprintf("forecast %.1f%% below price", edge*100))
		}
	}

	if ctx.Sentiment != nil {
		switch {
		case *ctx.Sentiment > sentimentEdge:
			score += sentimentWeight
			reasons = append(reasons, fmt.Sprintf("positive sentiment %.2f", *ctx.Sentiment))
		case *ctx.Sentiment < -sentimentEdge:
			score -= sentimentWeight
			reasons = append(reasons, fmt.Sprintf("negative sentiment %.2f", *ctx.Sentiment))
		}
	}

	if ind.VolumeRatio() > volumeSpikeRatio {
		score *= volumeAmplifier
		reasons = append(reasons, fmt.Sprintf("volume spike %.1fx average amplifies score", ind.VolumeRatio()))
	}

	threshold := s.sensitivity.Threshold()
	classification := models.SignalHold
	switch {
	case score >= threshold:
		classification = models.SignalBuy
	case score <= -threshold:
		classification = models.SignalSell
	}

	confidence := math.Min(math.Abs(score)/maxScoreReference*100, 100)
	sig := models.Signal{
		Classification: classification,
		Score:          score,
		Confidence:     confidence,
		Strength:       confidence / 10,
		Reasons:        reasons,
	}

	s.logger.WithFields(logrus.Fields{
		"classification": classification,
		"score":          score,
		"confidence":     confidence,
	}).Debug("Composite signal scored")
	return sig, nil
}
