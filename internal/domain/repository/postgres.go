package repository

import (
	"context"
	"fmt"
	"motor_service/internal/domain/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const defaultHistoryLimit = 20

const createPredictionsTable = `
	CREATE TABLE IF NOT EXISTS motor_predictions (
		id              UUID PRIMARY KEY,
		source          TEXT NOT NULL,
		motor_type      TEXT NOT NULL,
		phase_type      TEXT NOT NULL,
		hp              TEXT NOT NULL,
		voltage         TEXT NOT NULL,
		fault           TEXT NOT NULL,
		deviation       DOUBLE PRECISION NOT NULL,
		health_fraction DOUBLE PRECISION NOT NULL,
		rul_years       INTEGER NOT NULL,
		rul_months      INTEGER NOT NULL,
		health_tier     TEXT NOT NULL,
		features        JSONB NOT NULL,
		row_count       INTEGER NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS motor_predictions_created_at_idx ON motor_predictions (created_at DESC);`

type PostgresRepository struct {
	DB *sqlx.DB
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresRepository{DB: db}, nil
}

// EnsureSchema creates the history table when it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, createPredictionsTable); err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}
	return nil
}

// ListRecent returns the latest predictions, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]model.PredictionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	const query = `
		SELECT
			id, source, motor_type, phase_type, hp, voltage,
			fault, deviation, health_fraction, rul_years, rul_months,
			health_tier, features, row_count, created_at
		FROM motor_predictions
		ORDER BY created_at DESC
		LIMIT $1`

	records := []model.PredictionRecord{}
	if err := r.DB.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query prediction history: %w", err)
	}

	return records, nil
}

func (r *PostgresRepository) Close() error {
	return r.DB.Close()
}
