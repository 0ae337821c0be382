package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionRecord is a persisted forecast, written by the surrounding
// application from the ensemble's output.
type PredictionRecord struct {
	ID             uuid.UUID `json:"id"`
	Symbol         string    `json:"symbol"`
	EnsembleID     uuid.UUID `json:"ensemble_id"`
	Horizon        int       `json:"horizon"`
	PointEstimates []float64 `json:"point_estimates"`
	LowerBand      []float64 `json:"lower_band"`
	UpperBand      []float64 `json:"upper_band"`
	CreatedAt      time.Time `json:"created_at"`
}
