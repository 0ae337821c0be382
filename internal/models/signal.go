package models

// Classification is the direction a signal recommends.
type Classification string

// Signal classifications
const (
	SignalBuy  Classification = "BUY"
	SignalSell Classification = "SELL"
	SignalHold Classification = "HOLD"
)

// Sensitivity scales the buy/sell score thresholds without altering the
// scoring formula itself.
type Sensitivity string

// Sensitivity presets
const (
	SensitivityConservative Sensitivity = "conservative"
	SensitivityModerate     Sensitivity = "moderate"
	SensitivityAggressive   Sensitivity = "aggressive"
)

// Valid reports whether the sensitivity is one of the known presets.
func (s Sensitivity) Valid() bool {
	switch s {
	case SensitivityConservative, SensitivityModerate, SensitivityAggressive:
		return true
	}
	return false
}

// Threshold returns the absolute score at which the preset classifies a
// BUY or SELL.
func (s Sensitivity) Threshold() float64 {
	switch s {
	case SensitivityConservative:
		return 4
	case SensitivityAggressive:
		return 2
	default:
		return 3
	}
}

// Signal is the classified output of one scorer evaluation. Immutable once
// returned.
type Signal struct {
	Classification Classification `json:"classification"`
	Score          float64        `json:"score"`
	Confidence     float64        `json:"confidence"`
	Strength       float64        `json:"strength"`
	Reasons        []string       `json:"reasons"`
}
