package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/stockcast/internal/database"
	"github.com/yourusername/stockcast/internal/models"
)

// PostgresBacktestRepository implements BacktestRepository for PostgreSQL
type PostgresBacktestRepository struct {
	db *database.DB
}

// NewPostgresBacktestRepository creates a new backtest repository
func NewPostgresBacktestRepository(db *database.DB) BacktestRepository {
	return &PostgresBacktestRepository{db: db}
}

// Create inserts a new backtest record
func (r *PostgresBacktestRepository) Create(ctx context.Context, record *models.BacktestRecord) error {
	query := `
		INSERT INTO backtests (id, symbol, start_date, end_date, initial_equity, final_equity,
		                       total_return, sharpe_ratio, max_drawdown, total_trades, metrics_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		record.ID, record.Symbol, record.StartDate, record.EndDate,
		record.InitialEquity, record.FinalEquity, record.TotalReturn,
		record.SharpeRatio, record.MaxDrawdown, record.TotalTrades,
		record.MetricsJSON, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create backtest record: %w", err)
	}

	return nil
}

// GetByID retrieves a backtest record by ID
func (r *PostgresBacktestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRecord, error) {
	query := `
		SELECT id, symbol, start_date, end_date, initial_equity, final_equity,
		       total_return, sharpe_ratio, max_drawdown, total_trades, metrics_json, created_at
		FROM backtests WHERE id = $1
	`

	record := &models.BacktestRecord{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&record.ID, &record.Symbol, &record.StartDate, &record.EndDate,
		&record.InitialEquity, &record.FinalEquity, &record.TotalReturn,
		&record.SharpeRatio, &record.MaxDrawdown, &record.TotalTrades,
		&record.MetricsJSON, &record.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest record: %w", err)
	}

	return record, nil
}

// GetBySymbol retrieves the most recent backtest records for a symbol
func (r *PostgresBacktestRepository) GetBySymbol(ctx context.Context, symbol string, limit int) ([]*models.BacktestRecord, error) {
	query := `
		SELECT id, symbol, start_date, end_date, initial_equity, final_equity,
		       total_return, sharpe_ratio, max_drawdown, total_trades, metrics_json, created_at
		FROM backtests
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest records: %w", err)
	}
	defer rows.Close()

	var records []*models.BacktestRecord
	for rows.Next() {
		record := &models.BacktestRecord{}
		err := rows.Scan(
			&record.ID, &record.Symbol, &record.StartDate, &record.EndDate,
			&record.InitialEquity, &record.FinalEquity, &record.TotalReturn,
			&record.SharpeRatio, &record.MaxDrawdown, &record.TotalTrades,
			&record.MetricsJSON, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backtest record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
