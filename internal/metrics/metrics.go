// Package metrics provides the centralized Prometheus metrics registry for
// the forecasting service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	TrainingsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stockcast",
		Name:      "trainings_total",
		Help:      "Total number of ensemble training runs",
	})
	TrainingFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stockcast",
		Name:      "training_failures_total",
		Help:      "Total number of failed ensemble training runs",
	})
	PredictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stockcast",
		Name:      "predictions_total",
		Help:      "Total number of forecasts produced",
	})
	SignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockcast",
		Name:      "signals_total",
		Help:      "Total number of signals scored by classification",
	}, []string{"classification"})
	BacktestRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stockcast",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs",
	})
)

// Gauge metrics
var (
	ActiveEnsembles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "stockcast",
		Name:      "active_ensembles",
		Help:      "Number of trained ensembles currently held",
	})
	ForecastCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "stockcast",
		Name:      "forecast_cache_hit_ratio",
		Help:      "Hit ratio of the forecast cache",
	})
	EnsembleWeight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "stockcast",
		Name:      "ensemble_weight",
		Help:      "Current weight of each ensemble member",
	}, []string{"symbol", "model"})
)

// Histogram metrics
var (
	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stockcast",
		Name:      "training_duration_seconds",
		Help:      "Duration of ensemble training runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stockcast",
		Name:      "prediction_duration_seconds",
		Help:      "Duration of forecast generation in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stockcast",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(TrainingsTotal)
		registry.MustRegister(TrainingFailuresTotal)
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(SignalsTotal)
		registry.MustRegister(BacktestRunsTotal)

		registry.MustRegister(ActiveEnsembles)
		registry.MustRegister(ForecastCacheHitRatio)
		registry.MustRegister(EnsembleWeight)

		registry.MustRegister(TrainingDuration)
		registry.MustRegister(PredictionDuration)
		registry.MustRegister(BacktestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordTraining records a completed training run.
func RecordTraining(durationSeconds float64) {
	TrainingsTotal.Inc()
	TrainingDuration.Observe(durationSeconds)
}

// RecordTrainingFailure records a failed training run.
func RecordTrainingFailure() {
	TrainingFailuresTotal.Inc()
}

// RecordPrediction records a completed forecast.
func RecordPrediction(durationSeconds float64) {
	PredictionsTotal.Inc()
	PredictionDuration.Observe(durationSeconds)
}

// RecordSignal records a scored signal.
func RecordSignal(classification string) {
	SignalsTotal.WithLabelValues(classification).Inc()
}

// RecordBacktest records a completed backtest run.
func RecordBacktest(durationSeconds float64) {
	BacktestRunsTotal.Inc()
	BacktestDuration.Observe(durationSeconds)
}

// UpdateEnsembleWeights publishes the current weight set for a symbol.
func UpdateEnsembleWeights(symbol string, weights map[string]float64) {
	for model, w := range weights {
		EnsembleWeight.WithLabelValues(symbol, model).Set(w)
	}
}
