// Package forecast implements the price forecasting model variants consumed
// by the ensemble aggregator.
package forecast

import (
	"fmt"

	"github.com/yourusername/stockcast/internal/models"
)

// MinTrainingSamples is the floor applied to every non-trivial model variant.
const MinTrainingSamples = 100

// DefaultValidationSplit is the train/validation ratio applied in time order.
const DefaultValidationSplit = 0.8

// Input carries everything a model variant may need for one prediction: the
// current feature vector and the trailing realized prices, oldest first.
type Input struct {
	Features []float64
	History  []float64
}

// Model is the capability interface shared by all forecast variants. A model
// is immutable once trained; retraining requires a new instance.
type Model interface {
	Name() string
	Train(frame *models.Frame, validationSplit float64) error
	Predict(in Input) (float64, error)
	Evaluate(frame *models.Frame) (Evaluation, error)
	ResidualVariance() float64
	Trained() bool
}

// Config selects and parameterizes a model variant.
type Config struct {
	Variant       string  `mapstructure:"variant" json:"variant"`
	Ridge         float64 `mapstructure:"ridge" json:"ridge"`
	Trees         int     `mapstructure:"trees" json:"trees"`
	MaxDepth      int     `mapstructure:"max_depth" json:"max_depth"`
	LearningRate  float64 `mapstructure:"learning_rate" json:"learning_rate"`
	Iterations    int     `mapstructure:"iterations" json:"iterations"`
	Lookback      int     `mapstructure:"lookback" json:"lookback"`
	Seed          int64   `mapstructure:"seed" json:"seed"`
	EarlyStopping int     `mapstructure:"early_stopping" json:"early_stopping"`
}

// Variant names
const (
	VariantLinear   = "linear"
	VariantForest   = "forest"
	VariantBoosted  = "boosted"
	VariantSequence = "sequence"
)

// New builds an untrained model for the configured variant.
func New(cfg Config) (Model, error) {
	switch cfg.Variant {
	case VariantLinear:
		return NewLinearModel(cfg), nil
	case VariantForest:
		return NewForestModel(cfg), nil
	case VariantBoosted:
		return NewBoostedModel(cfg), nil
	case VariantSequence:
		return NewSequenceModel(cfg), nil
	default:
		return nil, fmt.Errorf("unknown model variant %q", cfg.Variant)
	}
}

// DefaultConfigs returns the standard three-member ensemble plus the sequence
// variant, mirroring the default model set used for interactive forecasting.
func DefaultConfigs() []Config {
	return []Config{
		{Variant: VariantLinear, Ridge: 1e-3},
		{Variant: VariantForest, Trees: 100, MaxDepth: 8, Seed: 42},
		{Variant: VariantBoosted, Trees: 100, MaxDepth: 3, LearningRate: 0.1, Seed: 42},
	}
}

func checkTrainable(frame *models.Frame, minSamples int) error {
	if frame == nil || frame.Len() < minSamples {
		got := 0
		if frame != nil {
			got = frame.Len()
		}
		return fmt.Errorf("%w: got %d samples, need at least %d", models.ErrInsufficientData, got, minSamples)
	}
	return nil
}

func checkWidth(features []float64, want int) error {
	if len(features) != want {
		return fmt.Errorf("%w: got %d features, model was fit with %d", models.ErrInvalidFeature, len(features), want)
	}
	return nil
}
