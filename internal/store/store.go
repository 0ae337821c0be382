package store

import (
	"fmt"

	"github.com/yourusername/stockcast/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Prediction PredictionRepository
	Backtest   BacktestRepository
	Bar        BarRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Prediction: NewPostgresPredictionRepository(db),
		Backtest:   NewPostgresBacktestRepository(db),
		Bar:        NewPostgresBarRepository(db),
	}, nil
}
