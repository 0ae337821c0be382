package models

import (
	"errors"
	"testing"
	"time"
)

func sampleAt(t time.Time, price float64) Sample {
	return Sample{Timestamp: t, Features: []float64{price, price * 2}, Price: price}
}

func TestNewFrameRejectsUnorderedTimestamps(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []Sample{
		sampleAt(base, 100),
		sampleAt(base.Add(time.Hour), 101),
		sampleAt(base.Add(time.Hour), 102),
	}
	_, err := NewFrame("TEST", samples)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
}

func TestNewFrameRejectsRaggedFeatures(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Timestamp: base, Features: []float64{1, 2}, Price: 100},
		{Timestamp: base.Add(time.Hour), Features: []float64{1}, Price: 101},
	}
	_, err := NewFrame("TEST", samples)
	if !errors.Is(err, ErrInvalidFeature) {
		t.Fatalf("expected ErrInvalidFeature, got %v", err)
	}
}

func TestSplitIsTimeOrdered(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]Sample, 10)
	for i := range samples {
		samples[i] = sampleAt(base.Add(time.Duration(i)*time.Hour), float64(100+i))
	}
	frame, err := NewFrame("TEST", samples)
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}

	head, tail := frame.Split(0.8)
	if head.Len() != 8 || tail.Len() != 2 {
		t.Fatalf("expected 8/2 split, got %d/%d", head.Len(), tail.Len())
	}
	for _, s := range head.Samples {
		if !s.Timestamp.Before(tail.Samples[0].Timestamp) {
			t.Fatalf("training sample %v not strictly before validation head", s.Timestamp)
		}
	}
}

func TestSensitivityThresholds(t *testing.T) {
	if SensitivityConservative.Threshold() != 4 {
		t.Fatalf("conservative threshold should be 4")
	}
	if SensitivityModerate.Threshold() != 3 {
		t.Fatalf("moderate threshold should be 3")
	}
	if SensitivityAggressive.Threshold() != 2 {
		t.Fatalf("aggressive threshold should be 2")
	}
}
