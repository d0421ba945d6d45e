package model

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Classifier maps a schema-matched feature vector to a fault label.
type Classifier interface {
	Classify(ctx context.Context, features FeatureVector) (string, error)
}

type HealthTier string

const (
	TierCritical HealthTier = "critical"
	TierWarning  HealthTier = "warning"
	TierNormal   HealthTier = "normal"
)

// RUL is a remaining useful life in whole years and months.
type RUL struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

func (r RUL) String() string {
	return fmt.Sprintf("%d years %d months", r.Years, r.Months)
}

// HealthScore is the outcome of comparing a feature vector to the normal centroid.
type HealthScore struct {
	Deviation  float64
	Reference  float64
	Normalized float64
	Fraction   float64
	Percentage int
	RUL        RUL
	Tier       HealthTier
}

// Spectrum is a one-sided power spectral density estimate.
type Spectrum struct {
	Frequency []float64 `json:"frequency"`
	Power     []float64 `json:"power"`
}

// MotorInfo is the free-form nameplate data sent along with a batch.
type MotorInfo struct {
	MotorType string `json:"motor_type"`
	PhaseType string `json:"phase_type"`
	HP        string `json:"hp"`
	Voltage   string `json:"voltage"`
}

// Source names where a batch came from.
type Source string

const (
	SourceUpload     Source = "upload"
	SourceThingSpeak Source = "thingspeak"
)

// Prediction is the combined result of one inference request.
type Prediction struct {
	ID           string
	Source       Source
	Motor        MotorInfo
	Fault        string
	Health       HealthScore
	Features     FeatureVector
	Batch        Batch
	VibrationPSD Spectrum
	MagneticPSD  Spectrum
	CreatedAt    time.Time
}

// PredictionRecord is the persisted summary of a prediction.
type PredictionRecord struct {
	ID             string          `db:"id" json:"id"`
	Source         string          `db:"source" json:"source"`
	MotorType      string          `db:"motor_type" json:"motor_type"`
	PhaseType      string          `db:"phase_type" json:"phase_type"`
	HP             string          `db:"hp" json:"hp"`
	Voltage        string          `db:"voltage" json:"voltage"`
	Fault          string          `db:"fault" json:"fault"`
	Deviation      float64         `db:"deviation" json:"deviation"`
	HealthFraction float64         `db:"health_fraction" json:"health_fraction"`
	RULYears       int             `db:"rul_years" json:"rul_years"`
	RULMonths      int             `db:"rul_months" json:"rul_months"`
	HealthTier     string          `db:"health_tier" json:"health_tier"`
	Features       json.RawMessage `db:"features" json:"features"`
	Rows           int             `db:"row_count" json:"rows"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
