// Package store persists forecasts, backtest results and historical bars.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/stockcast/internal/models"
)

// PredictionRepository persists ensemble forecasts
type PredictionRepository interface {
	Create(ctx context.Context, record *models.PredictionRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRecord, error)
	GetLatestBySymbol(ctx context.Context, symbol string, limit int) ([]*models.PredictionRecord, error)
}

// BacktestRepository persists backtest run summaries
type BacktestRepository interface {
	Create(ctx context.Context, record *models.BacktestRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRecord, error)
	GetBySymbol(ctx context.Context, symbol string, limit int) ([]*models.BacktestRecord, error)
}

// BarRepository persists historical OHLCV bars
type BarRepository interface {
	Upsert(ctx context.Context, symbol string, bars []models.Bar) error
	GetByRange(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error)
}
