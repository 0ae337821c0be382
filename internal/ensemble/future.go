package ensemble

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/stockcast/internal/forecast"
	"github.com/yourusername/stockcast/internal/models"
)

// confidenceZ is the z-score for the 95% prediction band.
const confidenceZ = 1.96

// Forecast is a multi-step price projection with a prediction band that
// widens with the horizon.
type Forecast struct {
	Symbol         string
	Horizon        int
	PointEstimates []float64
	LowerBand      []float64
	UpperBand      []float64
}

// PredictFuture projects prices horizon steps ahead by recursion: each step's
// combined estimate is appended to the price history consumed by the next
// step. Feature inputs are held at the frame's last observation. The band
// half-width grows with the square root of the step count, so uncertainty is
// monotone non-decreasing along the horizon.
func (e *Ensemble) PredictFuture(frame *models.Frame, horizon int) (*Forecast, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}
	if frame.Len() == 0 {
		return nil, fmt.Errorf("%w: empty frame", models.ErrInsufficientData)
	}

	weights := e.Weights()
	sigma := e.residualSigma(weights)
	lastFeatures := frame.Samples[frame.Len()-1].Features
	history := frame.Prices()

	out := &Forecast{
		Symbol:         e.symbol,
		Horizon:        horizon,
		PointEstimates: make([]float64, 0, horizon),
		LowerBand:      make([]float64, 0, horizon),
		UpperBand:      make([]float64, 0, horizon),
	}
	for step := 1; step <= horizon; step++ {
		point, err := e.Predict(forecast.Input{Features: lastFeatures, History: history})
		if err != nil {
			return nil, err
		}
		halfWidth := confidenceZ * sigma * math.Sqrt(float64(step))
		out.PointEstimates = append(out.PointEstimates, point)
		out.LowerBand = append(out.LowerBand, point-halfWidth)
		out.UpperBand = append(out.UpperBand, point+halfWidth)
		history = append(history, point)
	}
	return out, nil
}

// residualSigma combines member residual variances into a single spread,
// treating member errors as independent.
func (e *Ensemble) residualSigma(weights map[string]float64) float64 {
	variance := 0.0
	for _, name := range e.names {
		w := weights[name]
		variance += w * w * e.members[name].ResidualVariance()
	}
	return math.Sqrt(variance)
}

// Record converts a forecast into its persistable form.
func (f *Forecast) Record(ensembleID uuid.UUID) *models.PredictionRecord {
	return &models.PredictionRecord{
		ID:             uuid.New(),
		Symbol:         f.Symbol,
		EnsembleID:     ensembleID,
		Horizon:        f.Horizon,
		PointEstimates: append([]float64{}, f.PointEstimates...),
		LowerBand:      append([]float64{}, f.LowerBand...),
		UpperBand:      append([]float64{}, f.UpperBand...),
		CreatedAt:      time.Now().UTC(),
	}
}
