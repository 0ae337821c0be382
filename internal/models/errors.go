package models

import "errors"

// Custom errors
var (
	ErrInsufficientData = errors.New("insufficient data for requested operation")
	ErrInvalidFeature   = errors.New("feature dimensionality mismatch")
	ErrInvalidStop      = errors.New("invalid stop price")
	ErrDataIntegrity    = errors.New("data integrity violation")
	ErrNotFound         = errors.New("record not found")
)
