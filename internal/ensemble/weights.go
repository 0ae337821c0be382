package ensemble

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/optimize"

	"github.com/yourusername/stockcast/internal/forecast"
	"github.com/yourusername/stockcast/internal/models"
)

// degenerateWeight is the collapse threshold: an optimizer run that piles
// essentially all mass onto one member is treated as non-converged.
const degenerateWeight = 0.999

// OptimizeWeights fits the weight vector to minimize mean squared error on
// the frame's held-out tail. The search runs over a softmax
// reparameterization so candidate weights are non-negative and sum to 1 by
// construction. Optimizer failure or a degenerate solution falls back to
// inverse-RMSE weighting; the failure is logged, never surfaced.
func (e *Ensemble) OptimizeWeights(frame *models.Frame) error {
	preds, targets, err := e.memberPredictions(frame)
	if err != nil {
		return err
	}

	weights, optErr := solveWeights(e.names, preds, targets)
	if optErr != nil {
		e.logger.WithFields(logrus.Fields{
			"ensemble_id": e.id,
			"error":       optErr,
		}).Warn("Weight optimization failed, falling back to inverse-RMSE weighting")
		weights = inverseRMSEWeights(e.names, preds, targets)
	}

	e.setWeights(weights)
	e.logger.WithFields(logrus.Fields{
		"ensemble_id": e.id,
		"weights":     weights,
	}).Info("Ensemble weights updated")
	return nil
}

// memberPredictions walks the held-out tail the same way evaluation does:
// each member predicts every tail sample from its features and the price
// history up to that point, with actuals folded into the history bar by bar.
func (e *Ensemble) memberPredictions(frame *models.Frame) (map[string][]float64, []float64, error) {
	train, valid := frame.Split(forecast.DefaultValidationSplit)
	if valid.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: empty validation tail", models.ErrInsufficientData)
	}

	preds := make(map[string][]float64, len(e.names))
	for _, name := range e.names {
		preds[name] = make([]float64, 0, valid.Len())
	}
	targets := make([]float64, 0, valid.Len())

	history := train.Prices()
	for _, sample := range valid.Samples {
		in := forecast.Input{Features: sample.Features, History: history}
		for _, name := range e.names {
			pred, err := e.members[name].Predict(in)
			if err != nil {
				return nil, nil, fmt.Errorf("member %s: %w", name, err)
			}
			preds[name] = append(preds[name], pred)
		}
		targets = append(targets, sample.Price)
		history = append(history, sample.Price)
	}
	return preds, targets, nil
}

func solveWeights(names []string, preds map[string][]float64, targets []float64) (map[string]float64, error) {
	k := len(names)
	objective := func(z []float64) float64 {
		w := softmax(z)
		mse := 0.0
		for i, target := range targets {
			combined := 0.0
			for j, name := range names {
				combined += w[j] * preds[name][i]
			}
			diff := combined - target
			mse += diff * diff
		}
		return mse / float64(len(targets))
	}

	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, make([]float64, k), nil, &optimize.NelderMead{})
	if err != nil {
		return nil, err
	}
	if result.Status == optimize.Failure || result.Status == optimize.NotTerminated {
		return nil, fmt.Errorf("optimizer stopped with status %v", result.Status)
	}

	return weightsFromSolution(names, result.X)
}

// weightsFromSolution maps the optimizer's location back through the softmax
// and rejects anything off the simplex: a non-finite weight (Nelder-Mead can
// wander into NaN), a sum away from 1, or a collapse onto a single member.
func weightsFromSolution(names []string, x []float64) (map[string]float64, error) {
	w := softmax(x)
	sum := 0.0
	for j, name := range names {
		if math.IsNaN(w[j]) || math.IsInf(w[j], 0) {
			return nil, fmt.Errorf("non-finite solution: weight for %s is %v", name, w[j])
		}
		if w[j] > degenerateWeight && len(names) > 1 {
			return nil, fmt.Errorf("degenerate solution: weight for %s is %.4f", name, w[j])
		}
		sum += w[j]
	}
	if math.Abs(sum-1) > 1e-6 {
		return nil, fmt.Errorf("solution does not sum to 1: %v", sum)
	}

	weights := make(map[string]float64, len(names))
	for j, name := range names {
		weights[name] = w[j]
	}
	return weights, nil
}

// inverseRMSEWeights weights each member proportionally to 1/RMSE on the
// validation tail, so better members count for more without any search.
func inverseRMSEWeights(names []string, preds map[string][]float64, targets []float64) map[string]float64 {
	inv := make([]float64, len(names))
	total := 0.0
	for j, name := range names {
		sse := 0.0
		for i, target := range targets {
			diff := preds[name][i] - target
			sse += diff * diff
		}
		rmse := math.Sqrt(sse / float64(len(targets)))
		if rmse < 1e-12 {
			rmse = 1e-12
		}
		inv[j] = 1 / rmse
		total += inv[j]
	}

	weights := make(map[string]float64, len(names))
	for j, name := range names {
		weights[name] = inv[j] / total
	}
	return weights
}

func softmax(z []float64) []float64 {
	max := z[0]
	for _, v := range z[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(z))
	total := 0.0
	for i, v := range z {
		out[i] = math.Exp(v - max)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
