package forecast

import (
	"fmt"
	"math/rand"

	"github.com/yourusername/stockcast/internal/models"
)

// BoostedModel is a gradient-boosted ensemble of shallow regression trees:
// each stage fits the residuals of the accumulated prediction, damped by the
// learning rate.
type BoostedModel struct {
	stages       int
	maxDepth     int
	learningRate float64
	seed         int64
	scaler       StandardScaler
	base         float64
	trees        []*treeNode
	resVar       float64
	split        float64
	trained      bool
}

// NewBoostedModel creates an untrained gradient-boosted model.
func NewBoostedModel(cfg Config) *BoostedModel {
	stages := cfg.Trees
	if stages <= 0 {
		stages = 100
	}
	depth := cfg.MaxDepth
	if depth <= 0 {
		depth = 3
	}
	lr := cfg.LearningRate
	if lr <= 0 {
		lr = 0.1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}
	return &BoostedModel{stages: stages, maxDepth: depth, learningRate: lr, seed: seed}
}

// Name returns the variant name.
func (m *BoostedModel) Name() string { return VariantBoosted }

// Trained reports whether the model has been fit.
func (m *BoostedModel) Trained() bool { return m.trained }

// ResidualVariance returns the training residual variance.
func (m *BoostedModel) ResidualVariance() float64 { return m.resVar }

// Train fits the boosting stages on the training partition.
func (m *BoostedModel) Train(frame *models.Frame, validationSplit float64) error {
	if m.trained {
		return fmt.Errorf("boosted model already trained; build a new instance to retrain")
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

	m.base = meanAll(targets)
	current := make([]float64, len(targets))
	for i := range current {
		current[i] = m.base
	}

	all := make([]int, len(rows))
	for i := range all {
		all[i] = i
	}

	rng := rand.New(rand.NewSource(m.seed))
	params := treeParams{maxDepth: m.maxDepth, minLeaf: 3, featureFrac: 1}
	residuals := make([]float64, len(targets))
	m.trees = make([]*treeNode, 0, m.stages)
	for s := 0; s < m.stages; s++ {
		for i := range targets {
			residuals[i] = targets[i] - current[i]
		}
		tree := buildTree(rows, residuals, all, 0, params, rng)
		m.trees = append(m.trees, tree)
		for i, row := range rows {
			current[i] += m.learningRate * tree.predict(row)
		}
	}
	m.trained = true

	finalResiduals := make([]float64, len(targets))
	for i := range targets {
		finalResiduals[i] = current[i] - targets[i]
	}
	m.resVar = residualVariance(finalResiduals)
	return nil
}

// Predict returns the staged prediction for one feature vector.
func (m *BoostedModel) Predict(in Input) (float64, error) {
	if !m.trained {
		return 0, fmt.Errorf("boosted model is not trained")
	}
	scaled, err := m.scaler.Transform(in.Features)
	if err != nil {
		return 0, err
	}
	pred := m.base
	for _, tree := range m.trees {
		pred += m.learningRate * tree.predict(scaled)
	}
	return pred, nil
}

// Evaluate scores the model on the held-out tail of the frame.
func (m *BoostedModel) Evaluate(frame *models.Frame) (Evaluation, error) {
	return evaluateTail(m, frame, m.split)
}

func meanAll(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
