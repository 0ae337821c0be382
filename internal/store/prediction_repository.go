package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/stockcast/internal/database"
	"github.com/yourusername/stockcast/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Create inserts a new prediction record
func (r *PostgresPredictionRepository) Create(ctx context.Context, record *models.PredictionRecord) error {
	query := `
		INSERT INTO predictions (id, symbol, ensemble_id, horizon, point_estimates, lower_band, upper_band, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		record.ID, record.Symbol, record.EnsembleID, record.Horizon,
		record.PointEstimates, record.LowerBand, record.UpperBand, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}

	return nil
}

// GetByID retrieves a prediction record by ID
func (r *PostgresPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRecord, error) {
	query := `
		SELECT id, symbol, ensemble_id, horizon, point_estimates, lower_band, upper_band, created_at
		FROM predictions WHERE id = $1
	`

	record := &models.PredictionRecord{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&record.ID, &record.Symbol, &record.EnsembleID, &record.Horizon,
		&record.PointEstimates, &record.LowerBand, &record.UpperBand, &record.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return record, nil
}

// GetLatestBySymbol retrieves the most recent predictions for a symbol
func (r *PostgresPredictionRepository) GetLatestBySymbol(ctx context.Context, symbol string, limit int) ([]*models.PredictionRecord, error) {
	query := `
		SELECT id, symbol, ensemble_id, horizon, point_estimates, lower_band, upper_band, created_at
		FROM predictions
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var records []*models.PredictionRecord
	for rows.Next() {
		record := &models.PredictionRecord{}
		err := rows.Scan(
			&record.ID, &record.Symbol, &record.EnsembleID, &record.Horizon,
			&record.PointEstimates, &record.LowerBand, &record.UpperBand, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
