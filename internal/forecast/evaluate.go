package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/stockcast/internal/models"
)

// Evaluation holds regression quality metrics computed on a held-out tail
// segment.
type Evaluation struct {
	R2   float64 `json:"r2"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
}

// evaluateTail predicts every sample in the held-out tail of the frame and
// scores the predictions against realized prices. History passed to the model
// grows bar by bar so no future information leaks into any prediction.
func evaluateTail(m Model, frame *models.Frame, splitRatio float64) (Evaluation, error) {
	if !m.Trained() {
		return Evaluation{}, fmt.Errorf("model %s is not trained", m.Name())
	}
	if frame == nil || frame.Len() < 2 {
		return Evaluation{}, fmt.Errorf("%w: evaluation frame too small", models.ErrInsufficientData)
	}

	_, tail := frame.Split(splitRatio)
	if tail.Len() == 0 {
		return Evaluation{}, fmt.Errorf("%w: empty evaluation tail", models.ErrInsufficientData)
	}
	offset := frame.Len() - tail.Len()
	prices := frame.Prices()

	predicted := make([]float64, tail.Len())
	observed := make([]float64, tail.Len())
	for i, sample := range tail.Samples {
		in := Input{
			Features: sample.Features,
			History:  prices[:offset+i],
		}
		p, err := m.Predict(in)
		if err != nil {
			return Evaluation{}, err
		}
		predicted[i] = p
		observed[i] = sample.Price
	}

	return scorePredictions(predicted, observed), nil
}

func scorePredictions(predicted, observed []float64) Evaluation {
	n := float64(len(observed))
	sse := 0.0
	sae := 0.0
	sape := 0.0
	for i := range observed {
		diff := predicted[i] - observed[i]
		sse += diff * diff
		sae += math.Abs(diff)
		if observed[i] != 0 {
			sape += math.Abs(diff / observed[i])
		}
	}
	return Evaluation{
		R2:   stat.RSquaredFrom(predicted, observed, nil),
		RMSE: math.Sqrt(sse / n),
		MAE:  sae / n,
		MAPE: sape / n * 100,
	}
}

// residualVariance measures prediction error variance on the training
// partition; the ensemble uses it to widen multi-step confidence bands.
func residualVariance(residuals []float64) float64 {
	if len(residuals) == 0 {
		return 0
	}
	return stat.Variance(residuals, nil)
}
