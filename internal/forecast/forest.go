package forecast

import (
	"fmt"
	"math/rand"

	"github.com/yourusername/stockcast/internal/models"
)

// ForestModel is a bagged ensemble of regression trees trained on the scaled
// feature vector. Trees are grown from a fixed seed so repeated predictions
// with the same trained state are byte-identical.
type ForestModel struct {
	trees    int
	maxDepth int
	seed     int64
	scaler   StandardScaler
	forest   []*treeNode
	resVar   float64
	split    float64
	trained  bool
}

// NewForestModel creates an untrained tree-ensemble model.
func NewForestModel(cfg Config) *ForestModel {
	trees := cfg.Trees
	if trees <= 0 {
		trees = 100
	}
	depth := cfg.MaxDepth
	if depth <= 0 {
		depth = 8
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}
	return &ForestModel{trees: trees, maxDepth: depth, seed: seed}
}

// Name returns the variant name.
func (m *ForestModel) Name() string { return VariantForest }

// Trained reports whether the model has been fit.
func (m *ForestModel) Trained() bool { return m.trained }

// ResidualVariance returns the training residual variance.
func (m *ForestModel) ResidualVariance() float64 { return m.resVar }

// Train grows the forest on bootstrap samples of the training partition.
func (m *ForestModel) Train(frame *models.Frame, validationSplit float64) error {
	if m.trained {
		return fmt.Errorf("forest model already trained; build a new instance to retrain")
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
	rows, err := m.scaler.TransformAll(train.FeatureMatrix())
	if err != nil {
		return err
	}
	targets := train.Prices()

	rng := rand.New(rand.NewSource(m.seed))
	params := treeParams{maxDepth: m.maxDepth, minLeaf: 2, featureFrac: 0.6}
	m.forest = make([]*treeNode, m.trees)
	for t := 0; t < m.trees; t++ {
		sample := make([]int, len(rows))
		for i := range sample {
			sample[i] = rng.Intn(len(rows))
		}
		m.forest[t] = buildTree(rows, targets, sample, 0, params, rng)
	}
	m.trained = true

	residuals := make([]float64, len(rows))
	for i, row := range rows {
		residuals[i] = m.predictScaled(row) - targets[i]
	}
	m.resVar = residualVariance(residuals)
	return nil
}

// Predict averages the per-tree estimates for one feature vector.
func (m *ForestModel) Predict(in Input) (float64, error) {
	if !m.trained {
		return 0, fmt.Errorf("forest model is not trained")
	}
	scaled, err := m.scaler.Transform(in.Features)
	if err != nil {
		return 0, err
	}
	return m.predictScaled(scaled), nil
}

// Evaluate scores the model on the held-out tail of the frame.
func (m *ForestModel) Evaluate(frame *models.Frame) (Evaluation, error) {
	return evaluateTail(m, frame, m.split)
}

func (m *ForestModel) predictScaled(row []float64) float64 {
	sum := 0.0
	for _, tree := range m.forest {
		sum += tree.predict(row)
	}
	return sum / float64(len(m.forest))
}
