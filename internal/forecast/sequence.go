package forecast

import (
	"fmt"
	"math"

	"github.com/yourusername/stockcast/internal/models"
)

// SequenceModel is an autoregressive window model: it consumes the last
// Lookback scaled prices and predicts the next one. Training runs batch
// gradient descent under an iteration budget with early stopping once the
// validation loss plateaus.
type SequenceModel struct {
	lookback     int
	learningRate float64
	iterations   int
	patience     int
	scaler       MinMaxScaler
	weights      []float64
	bias         float64
	resVar       float64
	split        float64
	trained      bool
}

// NewSequenceModel creates an untrained sequence model.
func NewSequenceModel(cfg Config) *SequenceModel {
	lookback := cfg.Lookback
	if lookback <= 0 {
		lookback = 60
	}
	lr := cfg.LearningRate
	if lr <= 0 {
		lr = 0.05
	}
	iters := cfg.Iterations
	if iters <= 0 {
		iters = 500
	}
	patience := cfg.EarlyStopping
	if patience <= 0 {
		patience = 10
	}
	return &SequenceModel{lookback: lookback, learningRate: lr, iterations: iters, patience: patience}
}

// Name returns the variant name.
func (m *SequenceModel) Name() string { return VariantSequence }

// Trained reports whether the model has been fit.
func (m *SequenceModel) Trained() bool { return m.trained }

// ResidualVariance returns the training residual variance in price space.
func (m *SequenceModel) ResidualVariance() float64 { return m.resVar }

// Lookback returns the window length the model consumes.
func (m *SequenceModel) Lookback() int { return m.lookback }

// Train fits the window weights on the training partition of the price
// series. Validation windows come from the tail and gate early stopping.
func (m *SequenceModel) Train(frame *models.Frame, validationSplit float64) error {
	if m.trained {
		return fmt.Errorf("sequence model already trained; build a new instance to retrain")
	}
	minSamples := MinTrainingSamples
	if m.lookback+20 > minSamples {
		minSamples = m.lookback + 20
	}
	if err := checkTrainable(frame, minSamples); err != nil {
		return err
	}
	if validationSplit <= 0 || validationSplit >= 1 {
		validationSplit = DefaultValidationSplit
	}
	m.split = validationSplit

	prices := frame.Prices()
	splitIdx := int(float64(len(prices)) * validationSplit)
	if splitIdx <= m.lookback {
		return fmt.Errorf("%w: training partition of %d samples cannot hold a window of %d",
			models.ErrInsufficientData, splitIdx, m.lookback)
	}
	if err := m.scaler.Fit(prices[:splitIdx]); err != nil {
		return err
	}
	scaled := make([]float64, len(prices))
	for i, p := range prices {
		scaled[i] = m.scaler.Transform(p)
	}

	trainX, trainY := m.windows(scaled[:splitIdx])
	valX, valY := m.windows(scaled[splitIdx-m.lookback:])
	if len(trainX) == 0 {
		return fmt.Errorf("%w: training partition shorter than lookback %d", models.ErrInsufficientData, m.lookback)
	}

	m.weights = make([]float64, m.lookback)
	// Start from a persistence prior: the most recent observation carries the
	// full weight.
	m.weights[m.lookback-1] = 1

	bestLoss := math.Inf(1)
	bestWeights := append([]float64{}, m.weights...)
	bestBias := m.bias
	stale := 0

	for iter := 0; iter < m.iterations; iter++ {
		m.descend(trainX, trainY)

		valLoss := m.loss(valX, valY)
		if valLoss < bestLoss-1e-9 {
			bestLoss = valLoss
			copy(bestWeights, m.weights)
			bestBias = m.bias
			stale = 0
		} else {
			stale++
			if stale >= m.patience {
				break
			}
		}
	}
	m.weights = bestWeights
	m.bias = bestBias
	m.trained = true

	residuals := make([]float64, len(trainX))
	for i, window := range trainX {
		residuals[i] = m.scaler.Inverse(m.forward(window)) - m.scaler.Inverse(trainY[i])
	}
	m.resVar = residualVariance(residuals)
	return nil
}

// Predict consumes the trailing Lookback prices from the input history.
func (m *SequenceModel) Predict(in Input) (float64, error) {
	if !m.trained {
		return 0, fmt.Errorf("sequence model is not trained")
	}
	if len(in.History) < m.lookback {
		return 0, fmt.Errorf("%w: need %d historical prices, got %d", models.ErrInsufficientData, m.lookback, len(in.History))
	}
	window := make([]float64, m.lookback)
	tail := in.History[len(in.History)-m.lookback:]
	for i, p := range tail {
		window[i] = m.scaler.Transform(p)
	}
	return m.scaler.Inverse(m.forward(window)), nil
}

// Evaluate scores the model on the held-out tail of the frame.
func (m *SequenceModel) Evaluate(frame *models.Frame) (Evaluation, error) {
	return evaluateTail(m, frame, m.split)
}

func (m *SequenceModel) windows(series []float64) ([][]float64, []float64) {
	var xs [][]float64
	var ys []float64
	for i := m.lookback; i < len(series); i++ {
		xs = append(xs, series[i-m.lookback:i])
		ys = append(ys, series[i])
	}
	return xs, ys
}

func (m *SequenceModel) forward(window []float64) float64 {
	pred := m.bias
	for j, v := range window {
		pred += m.weights[j] * v
	}
	return pred
}

func (m *SequenceModel) descend(xs [][]float64, ys []float64) {
	n := float64(len(xs))
	gradW := make([]float64, m.lookback)
	gradB := 0.0
	for i, window := range xs {
		err := m.forward(window) - ys[i]
		for j, v := range window {
			gradW[j] += err * v
		}
		gradB += err
	}
	for j := range m.weights {
		m.weights[j] -= m.learningRate * gradW[j] / n
	}
	m.bias -= m.learningRate * gradB / n
}

func (m *SequenceModel) loss(xs [][]float64, ys []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for i, window := range xs {
		diff := m.forward(window) - ys[i]
		sum += diff * diff
	}
	return sum / float64(len(xs))
}
