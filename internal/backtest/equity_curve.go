package backtest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// EquityPoint marks total account value at one bar, with the drawdown from
// the running peak.
type EquityPoint struct {
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
}

// EquityCurve is the per-bar value series of a simulation run.
type EquityCurve []EquityPoint

// Returns computes the bar-over-bar fractional returns. A zero previous
// value contributes a zero return.
func (e EquityCurve) Returns() []float64 {
	if len(e) < 2 {
		return nil
	}
	out := make([]float64, len(e)-1)
	for i := 1; i < len(e); i++ {
		if prev := e[i-1].Value; prev != 0 {
			out[i-1] = (e[i].Value - prev) / prev
		}
	}
	return out
}

// ToCSV renders the curve as time,value,drawdown rows.
func (e EquityCurve) ToCSV() string {
	var b strings.Builder
	b.WriteString("time,value,drawdown\n")
	for _, p := range e {
		b.WriteString(p.Time.Format(time.RFC3339))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Value, 'f', 6, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Drawdown, 'f', 6, 64))
		b.WriteByte('\n')
	}
	return b.String()
}

// ToJSON renders the curve as a JSON array.
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}
