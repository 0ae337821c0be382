// Package ensemble combines heterogeneous forecast models behind a single
// weighted predictor.
package ensemble

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/stockcast/internal/forecast"
	"github.com/yourusername/stockcast/internal/models"
)

// Ensemble owns a set of trained forecast models keyed by name plus a weight
// vector over them. Weights always sum to 1 and are replaced atomically, so
// concurrent Predict calls observe either the old or the new complete set.
type Ensemble struct {
	id      uuid.UUID
	symbol  string
	names   []string
	members map[string]forecast.Model

	mu      sync.RWMutex
	weights map[string]float64

	logger *logrus.Logger
}

// Train builds and trains one model per config in parallel and assembles them
// into an ensemble with uniform weights. Members that fail to train are
// dropped with a warning, mirroring their weight going to zero; training
// fails only when no member survives.
func Train(frame *models.Frame, configs []forecast.Config, validationSplit float64, logger *logrus.Logger) (*Ensemble, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if len(configs) == 0 {
		configs = forecast.DefaultConfigs()
	}
	if validationSplit <= 0 || validationSplit >= 1 {
		validationSplit = forecast.DefaultValidationSplit
	}

	type outcome struct {
		name  string
		model forecast.Model
		err   error
	}

	results := make([]outcome, len(configs))
	var wg sync.WaitGroup
	for i, cfg := range configs {
		model, err := forecast.New(cfg)
		if err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, m forecast.Model) {
			defer wg.Done()
			trainErr := m.Train(frame, validationSplit)
			results[i] = outcome{name: m.Name(), model: m, err: trainErr}
		}(i, model)
	}
	wg.Wait()

	e := &Ensemble{
		id:      uuid.New(),
		symbol:  frame.Symbol,
		members: make(map[string]forecast.Model),
		weights: make(map[string]float64),
		logger:  logger,
	}
	var firstErr error
	for _, r := range results {
		if r.err != nil {
			logger.WithFields(logrus.Fields{"model": r.name, "error": r.err}).Warn("Member training failed, excluding from ensemble")
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		if _, exists := e.members[r.name]; exists {
			return nil, fmt.Errorf("duplicate model variant %q in ensemble", r.name)
		}
		e.members[r.name] = r.model
		e.names = append(e.names, r.name)
	}
	if len(e.members) == 0 {
		return nil, fmt.Errorf("no ensemble member trained successfully: %w", firstErr)
	}
	sort.Strings(e.names)

	uniform := 1.0 / float64(len(e.names))
	for _, name := range e.names {
		e.weights[name] = uniform
	}

	logger.WithFields(logrus.Fields{
		"ensemble_id": e.id,
		"symbol":      e.symbol,
		"members":     e.names,
	}).Info("Ensemble trained")
	return e, nil
}

// ID returns the ensemble handle identifier.
func (e *Ensemble) ID() uuid.UUID { return e.id }

// Symbol returns the security the ensemble was trained on.
func (e *Ensemble) Symbol() string { return e.symbol }

// Members returns the member names in stable order.
func (e *Ensemble) Members() []string {
	return append([]string{}, e.names...)
}

// Weights returns a copy of the current weight set.
func (e *Ensemble) Weights() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		out[k] = v
	}
	return out
}

// Predict returns the weighted combination of every member's estimate. Every
// member is queried; there is no early exit.
func (e *Ensemble) Predict(in forecast.Input) (float64, error) {
	e.mu.RLock()
	weights := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		weights[k] = v
	}
	e.mu.RUnlock()

	combined := 0.0
	for _, name := range e.names {
		pred, err := e.members[name].Predict(in)
		if err != nil {
			return 0, fmt.Errorf("member %s: %w", name, err)
		}
		combined += weights[name] * pred
	}
	return combined, nil
}

// Evaluate scores every member on the frame's held-out tail.
func (e *Ensemble) Evaluate(frame *models.Frame) (map[string]forecast.Evaluation, error) {
	out := make(map[string]forecast.Evaluation, len(e.names))
	for _, name := range e.names {
		eval, err := e.members[name].Evaluate(frame)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", name, err)
		}
		out[name] = eval
	}
	return out, nil
}

// setWeights swaps in a complete replacement weight set.
func (e *Ensemble) setWeights(weights map[string]float64) {
	e.mu.Lock()
	e.weights = weights
	e.mu.Unlock()
}
