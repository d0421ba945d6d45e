package repository

import (
	"context"
	"fmt"
	"motor_service/internal/domain/model"

	"github.com/jmoiron/sqlx"
)

type PostgresPredictionRecorder struct {
	db *sqlx.DB
}

func NewPostgresPredictionRecorder(db *sqlx.DB) *PostgresPredictionRecorder {
	return &PostgresPredictionRecorder{db: db}
}

func (r *PostgresPredictionRecorder) SavePrediction(ctx context.Context, record model.PredictionRecord) error {
	const query = `
		INSERT INTO motor_predictions (
			id, source, motor_type, phase_type, hp, voltage,
			fault, deviation, health_fraction, rul_years, rul_months,
			health_tier, features, row_count, created_at
		) VALUES (
			:id, :source, :motor_type, :phase_type, :hp, :voltage,
			:fault, :deviation, :health_fraction, :rul_years, :rul_months,
			:health_tier, :features, :row_count, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to insert prediction %s: %w", record.ID, err)
	}
	return nil
}
