package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/stockcast/internal/models"
)

// StandardScaler centers and scales feature columns to zero mean and unit
// variance. It is fit exactly once, on the training partition, and applied
// unchanged to everything that follows; Fit on a fitted scaler is rejected.
type StandardScaler struct {
	mean   []float64
	stddev []float64
	fitted bool
}

// Fit computes column statistics from the training rows.
func (s *StandardScaler) Fit(rows [][]float64) error {
	if s.fitted {
		return fmt.Errorf("scaler already fit; refitting violates the scaling protocol")
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: no rows to fit scaler", models.ErrInsufficientData)
	}
	width := len(rows[0])
	s.mean = make([]float64, width)
	s.stddev = make([]float64, width)

	col := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		s.mean[j] = stat.Mean(col, nil)
		s.stddev[j] = stat.StdDev(col, nil)
		if s.stddev[j] == 0 || math.IsNaN(s.stddev[j]) {
			s.stddev[j] = 1
		}
	}
	s.fitted = true
	return nil
}

// Transform scales a single feature row.
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if !s.fitted {
		return nil, fmt.Errorf("scaler not fit")
	}
	if err := checkWidth(row, len(s.mean)); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.mean[j]) / s.stddev[j]
	}
	return out, nil
}

// TransformAll scales a batch of rows.
func (s *StandardScaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

// Width returns the feature width the scaler was fit with.
func (s *StandardScaler) Width() int {
	return len(s.mean)
}

// MinMaxScaler maps a univariate series onto [0,1] using the range observed
// at fit time. Used by the sequence model for its price window.
type MinMaxScaler struct {
	min    float64
	max    float64
	fitted bool
}

// Fit records the observed range.
func (s *MinMaxScaler) Fit(values []float64) error {
	if s.fitted {
		return fmt.Errorf("scaler already fit; refitting violates the scaling protocol")
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: no values to fit scaler", models.ErrInsufficientData)
	}
	s.min = values[0]
	s.max = values[0]
	for _, v := range values {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	if s.max == s.min {
		s.max = s.min + 1
	}
	s.fitted = true
	return nil
}

// Transform scales one value.
func (s *MinMaxScaler) Transform(v float64) float64 {
	return (v - s.min) / (s.max - s.min)
}

// Inverse maps a scaled value back to price space.
func (s *MinMaxScaler) Inverse(v float64) float64 {
	return v*(s.max-s.min) + s.min
}
