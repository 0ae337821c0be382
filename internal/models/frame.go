package models

import (
	"fmt"
	"time"
)

// Sample is a single time-indexed row: a fixed-length feature vector plus the
// realized price at that timestamp.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Features  []float64 `json:"features"`
	Price     float64   `json:"price"`
}

// Frame is an ordered sequence of samples spanning one security. It is
// read-only to every downstream component.
type Frame struct {
	Symbol  string
	Samples []Sample
}

// NewFrame validates sample ordering and builds a frame. Timestamps must be
// strictly increasing and feature vectors must share one width.
func NewFrame(symbol string, samples []Sample) (*Frame, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: frame has no samples", ErrInsufficientData)
	}
	width := len(samples[0].Features)
	for i, s := range samples {
		if len(s.Features) != width {
			return nil, fmt.Errorf("%w: sample %d has %d features, expected %d", ErrInvalidFeature, i, len(s.Features), width)
		}
		if i == 0 {
			continue
		}
		if !s.Timestamp.After(samples[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: timestamp at index %d is not strictly increasing", ErrDataIntegrity, i)
		}
	}
	return &Frame{Symbol: symbol, Samples: samples}, nil
}

// Len returns the number of samples in the frame.
func (f *Frame) Len() int {
	return len(f.Samples)
}

// FeatureWidth returns the feature vector length, 0 for an empty frame.
func (f *Frame) FeatureWidth() int {
	if len(f.Samples) == 0 {
		return 0
	}
	return len(f.Samples[0].Features)
}

// Split partitions the frame at floor(len*ratio) in time order. The split is
// never randomized: the head is strictly earlier than the tail.
func (f *Frame) Split(ratio float64) (*Frame, *Frame) {
	idx := int(float64(len(f.Samples)) * ratio)
	if idx < 0 {
		idx = 0
	}
	if idx > len(f.Samples) {
		idx = len(f.Samples)
	}
	head := &Frame{Symbol: f.Symbol, Samples: f.Samples[:idx]}
	tail := &Frame{Symbol: f.Symbol, Samples: f.Samples[idx:]}
	return head, tail
}

// Tail returns a frame holding the last n samples.
func (f *Frame) Tail(n int) *Frame {
	if n >= len(f.Samples) {
		return f
	}
	return &Frame{Symbol: f.Symbol, Samples: f.Samples[len(f.Samples)-n:]}
}

// Prices returns the realized price column.
func (f *Frame) Prices() []float64 {
	prices := make([]float64, len(f.Samples))
	for i, s := range f.Samples {
		prices[i] = s.Price
	}
	return prices
}

// FeatureMatrix returns the feature rows as a slice of vectors.
func (f *Frame) FeatureMatrix() [][]float64 {
	rows := make([][]float64, len(f.Samples))
	for i, s := range f.Samples {
		rows[i] = s.Features
	}
	return rows
}
