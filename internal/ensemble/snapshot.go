package ensemble

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot captures the ensemble's identity and weight set for persistence.
// Members are retrained from data on load, so only the combination state is
// stored.
type Snapshot struct {
	ID        uuid.UUID          `json:"id"`
	Symbol    string             `json:"symbol"`
	Members   []string           `json:"members"`
	Weights   map[string]float64 `json:"weights"`
	CreatedAt time.Time          `json:"created_at"`
}

// Snapshot returns the current serializable state.
func (e *Ensemble) Snapshot() Snapshot {
	return Snapshot{
		ID:        e.id,
		Symbol:    e.symbol,
		Members:   e.Members(),
		Weights:   e.Weights(),
		CreatedAt: time.Now().UTC(),
	}
}

// ToJSON serializes the snapshot.
func (s Snapshot) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// RestoreWeights applies a snapshot's weight set to a retrained ensemble with
// the same member composition.
func (e *Ensemble) RestoreWeights(s Snapshot) error {
	if len(s.Weights) != len(e.names) {
		return fmt.Errorf("snapshot has %d members, ensemble has %d", len(s.Weights), len(e.names))
	}
	total := 0.0
	for _, name := range e.names {
		w, ok := s.Weights[name]
		if !ok {
			return fmt.Errorf("snapshot missing weight for member %s", name)
		}
		if w < 0 {
			return fmt.Errorf("snapshot weight for %s is negative", name)
		}
		total += w
	}
	if total < 0.999 || total > 1.001 {
		return fmt.Errorf("snapshot weights sum to %.4f, want 1", total)
	}

	weights := make(map[string]float64, len(s.Weights))
	for k, v := range s.Weights {
		weights[k] = v
	}
	e.setWeights(weights)
	return nil
}

// SnapshotFromJSON parses a serialized snapshot.
func SnapshotFromJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parsing ensemble snapshot: %w", err)
	}
	return s, nil
}
