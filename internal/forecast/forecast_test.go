package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/yourusername/stockcast/internal/models"
)

// syntheticFrame builds a frame where price is a noiseless linear function of
// the features, so every variant should recover it closely.
func syntheticFrame(t *testing.T, n int) *models.Frame {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]models.Sample, n)
	for i := 0; i < n; i++ {
		x1 := float64(i)
		x2 := math.Sin(float64(i) / 10)
		price := 100 + 0.5*x1 + 5*x2
		samples[i] = models.Sample{
			Timestamp: base.AddDate(0, 0, i),
			Features:  []float64{x1, x2},
			Price:     price,
		}
	}
	frame, err := models.NewFrame("TEST", samples)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	return frame
}

func TestLinearModelRecoversLinearTarget(t *testing.T) {
	frame := syntheticFrame(t, 200)
	m := NewLinearModel(Config{Ridge: 1e-6})
	if err := m.Train(frame, 0.8); err != nil {
		t.Fatalf("train failed: %v", err)
	}

	eval, err := m.Evaluate(frame)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if eval.R2 < 0.99 {
		t.Fatalf("expected near-perfect fit on linear target, got R2=%.4f", eval.R2)
	}
}

func TestTrainRejectsInsufficientData(t *testing.T) {
	frame := syntheticFrame(t, 50)
	for _, m := range []Model{
		NewLinearModel(Config{}),
		NewForestModel(Config{Trees: 5}),
		NewBoostedModel(Config{Trees: 5}),
	} {
		err := m.Train(frame, 0.8)
		if !errors.Is(err, models.ErrInsufficientData) {
			t.Fatalf("%s: expected ErrInsufficientData, got %v", m.Name(), err)
		}
	}
}

func TestPredictRejectsWidthMismatch(t *testing.T) {
	frame := syntheticFrame(t, 150)
	m := NewLinearModel(Config{})
	if err := m.Train(frame, 0.8); err != nil {
		t.Fatalf("train failed: %v", err)
	}
	_, err := m.Predict(Input{Features: []float64{1, 2, 3}})
	if !errors.Is(err, models.ErrInvalidFeature) {
		t.Fatalf("expected ErrInvalidFeature, got %v", err)
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	frame := syntheticFrame(t, 200)
	for _, m := range []Model{
		NewLinearModel(Config{}),
		NewForestModel(Config{Trees: 20, MaxDepth: 5, Seed: 7}),
		NewBoostedModel(Config{Trees: 20, MaxDepth: 3, Seed: 7}),
	} {
		if err := m.Train(frame, 0.8); err != nil {
			t.Fatalf("%s: train failed: %v", m.Name(), err)
		}
		in := Input{Features: []float64{120, 0.4}, History: frame.Prices()}
		first, err := m.Predict(in)
		if err != nil {
			t.Fatalf("%s: predict failed: %v", m.Name(), err)
		}
		for i := 0; i < 5; i++ {
			again, err := m.Predict(in)
			if err != nil {
				t.Fatalf("%s: repeat predict failed: %v", m.Name(), err)
			}
			if again != first {
				t.Fatalf("%s: predictions differ across calls: %v vs %v", m.Name(), first, again)
			}
		}
	}
}

func TestRetrainRequiresNewInstance(t *testing.T) {
	frame := syntheticFrame(t, 150)
	m := NewLinearModel(Config{})
	if err := m.Train(frame, 0.8); err != nil {
		t.Fatalf("first train failed: %v", err)
	}
	if err := m.Train(frame, 0.8); err == nil {
		t.Fatalf("expected retrain on a trained instance to fail")
	}
}

func TestSequenceModelRequiresLookbackHistory(t *testing.T) {
	frame := syntheticFrame(t, 300)
	m := NewSequenceModel(Config{Lookback: 30, Iterations: 200})
	if err := m.Train(frame, 0.8); err != nil {
		t.Fatalf("train failed: %v", err)
	}

	_, err := m.Predict(Input{History: frame.Prices()[:10]})
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for short history, got %v", err)
	}

	pred, err := m.Predict(Input{History: frame.Prices()})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	last := frame.Samples[frame.Len()-1].Price
	if math.Abs(pred-last) > last*0.5 {
		t.Fatalf("sequence prediction %v wildly off last price %v", pred, last)
	}
}

func TestSequenceModelRejectsWindowLargerThanTrainPartition(t *testing.T) {
	// 120 samples clear the minimum-samples check for lookback 100, but the
	// 96-sample training partition cannot hold a single window.
	frame := syntheticFrame(t, 120)
	m := NewSequenceModel(Config{Lookback: 100, Iterations: 50})
	err := m.Train(frame, 0.8)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if m.Trained() {
		t.Fatal("model must not report trained after a rejected fit")
	}
}

func TestScalerRefitRejected(t *testing.T) {
	var s StandardScaler
	rows := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	if err := s.Fit(rows); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if err := s.Fit(rows); err == nil {
		t.Fatalf("expected refit to be rejected")
	}
}

func TestScalerFitOnTrainingPartitionOnly(t *testing.T) {
	frame := syntheticFrame(t, 200)
	m := NewLinearModel(Config{})
	if err := m.Train(frame, 0.8); err != nil {
		t.Fatalf("train failed: %v", err)
	}

	// Scaling statistics must come from the first 160 samples only: a feature
	// value far outside the training range still transforms with the frozen
	// parameters.
	a, err := m.scaler.Transform([]float64{1000, 0})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	b, err := m.scaler.Transform([]float64{1000, 0})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if a[0] != b[0] {
		t.Fatalf("scaler output not stable")
	}
}
