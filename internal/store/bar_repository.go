package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/stockcast/internal/database"
	"github.com/yourusername/stockcast/internal/models"
)

// PostgresBarRepository implements BarRepository for PostgreSQL
type PostgresBarRepository struct {
	db *database.DB
}

// NewPostgresBarRepository creates a new bar repository
func NewPostgresBarRepository(db *database.DB) BarRepository {
	return &PostgresBarRepository{db: db}
}

// Upsert inserts or replaces bars for a symbol, keyed by timestamp
func (r *PostgresBarRepository) Upsert(ctx context.Context, symbol string, bars []models.Bar) error {
	query := `
		INSERT INTO bars (symbol, timestamp, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, timestamp) DO UPDATE
		SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
		    close = EXCLUDED.close, volume = EXCLUDED.volume
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, bar := range bars {
			_, err := tx.Exec(ctx, query,
				symbol, bar.Timestamp, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert bar at %s: %w", bar.Timestamp, err)
			}
		}
		return nil
	})
}

// GetByRange retrieves bars for a symbol within a time range, oldest first
func (r *PostgresBarRepository) GetByRange(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM bars
		WHERE symbol = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var bar models.Bar
		err := rows.Scan(&bar.Timestamp, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, bar)
	}

	return bars, rows.Err()
}
