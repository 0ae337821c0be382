package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/yourusername/stockcast/internal/models"
)

// LinearModel is a ridge-regularized least-squares regression on the scaled
// feature vector.
type LinearModel struct {
	ridge    float64
	scaler   StandardScaler
	weights  []float64
	bias     float64
	resVar   float64
	split    float64
	trained  bool
}

// NewLinearModel creates an untrained linear model.
func NewLinearModel(cfg Config) *LinearModel {
	ridge := cfg.Ridge
	if ridge <= 0 {
		ridge = 1e-3
	}
	return &LinearModel{ridge: ridge}
}

// Name returns the variant name.
func (m *LinearModel) Name() string { return VariantLinear }

// Trained reports whether the model has been fit.
func (m *LinearModel) Trained() bool { return m.trained }

// ResidualVariance returns the training residual variance.
func (m *LinearModel) ResidualVariance() float64 { return m.resVar }

// Train fits weights on the time-ordered training partition by solving the
// regularized normal equations.
func (m *LinearModel) Train(frame *models.Frame, validationSplit float64) error {
	if m.trained {
		return fmt.Errorf("linear model already trained; build a new instance to retrain")
	}
	if err := checkTrainable(frame, MinTrainingSamples); err != nil {
		return err
	}
	if validationSplit <= 0 || validationSplit >= 1 {
		validationSplit = DefaultValidationSplit
	}
	m.split = validationSplit

	train, _ := frame.Split(validationSplit)
	if err := m.scaler.Fit(train.FeatureMatrix()); err != nil {
		return err
	}
	scaled, err := m.scaler.TransformAll(train.FeatureMatrix())
	if err != nil {
		return err
	}

	n := len(scaled)
	width := m.scaler.Width()

	// Design matrix with a leading intercept column.
	x := mat.NewDense(n, width+1, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range scaled {
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
		y.SetVec(i, train.Samples[i].Price)
	}

	// (XᵀX + λI)β = Xᵀy; the intercept is not regularized.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 1; j <= width; j++ {
		xtx.Set(j, j, xtx.At(j, j)+m.ridge*float64(n))
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return fmt.Errorf("failed to solve normal equations: %w", err)
	}

	m.bias = beta.AtVec(0)
	m.weights = make([]float64, width)
	for j := 0; j < width; j++ {
		m.weights[j] = beta.AtVec(j + 1)
	}
	m.trained = true

	residuals := make([]float64, n)
	for i, row := range scaled {
		residuals[i] = m.predictScaled(row) - train.Samples[i].Price
	}
	m.resVar = residualVariance(residuals)
	return nil
}

// Predict returns the price estimate for one feature vector.
func (m *LinearModel) Predict(in Input) (float64, error) {
	if !m.trained {
		return 0, fmt.Errorf("linear model is not trained")
	}
	scaled, err := m.scaler.Transform(in.Features)
	if err != nil {
		return 0, err
	}
	return m.predictScaled(scaled), nil
}

// Evaluate scores the model on the held-out tail of the frame.
func (m *LinearModel) Evaluate(frame *models.Frame) (Evaluation, error) {
	return evaluateTail(m, frame, m.split)
}

func (m *LinearModel) predictScaled(row []float64) float64 {
	pred := m.bias
	for j, v := range row {
		pred += m.weights[j] * v
	}
	return pred
}
