package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"motor_service/internal/domain/model"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TelemetrySource pulls a batch from a remote telemetry channel. It returns an
// empty batch when nothing could be fetched.
type TelemetrySource interface {
	FetchChannel(ctx context.Context, channelID, apiKey string) model.Batch
}

// PredictionRecorder persists a summary of each prediction.
type PredictionRecorder interface {
	SavePrediction(ctx context.Context, record model.PredictionRecord) error
}

// EventPublisher announces completed predictions.
type EventPublisher interface {
	Publish(ctx context.Context, body json.RawMessage) error
}

type Options struct {
	// SampleRate of the vibration channels in Hz.
	SampleRate float64
	// MaxRows bounds a batch; 0 disables the limit.
	MaxRows int
	// RejectMissingChannels turns absent channels into malformed input
	// instead of zero-filled features.
	RejectMissingChannels bool
}

// PredictInput is one batch to score along with its provenance.
type PredictInput struct {
	ID     string
	Source model.Source
	Motor  model.MotorInfo
	Batch  model.Batch
}

// PredictionEvent is published after every successful prediction.
type PredictionEvent struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	Fault            string    `json:"fault"`
	HealthStatus     string    `json:"health_status"`
	HealthPercentage int       `json:"health_percentage"`
	RULYears         int       `json:"rul_years"`
	RULMonths        int       `json:"rul_months"`
	Deviation        float64   `json:"deviation"`
	CreatedAt        time.Time `json:"created_at"`
}

type PredictionService struct {
	state     *ModelState
	telemetry TelemetrySource
	recorder  PredictionRecorder
	publisher EventPublisher
	opts      Options
	now       func() time.Time
}

// NewPredictionService wires the pipeline. telemetry, recorder and publisher
// may be nil.
func NewPredictionService(
	state *ModelState,
	telemetry TelemetrySource,
	recorder PredictionRecorder,
	publisher EventPublisher,
	opts Options,
) *PredictionService {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 1
	}
	return &PredictionService{
		state:     state,
		telemetry: telemetry,
		recorder:  recorder,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
	}
}

// ModelState exposes the shared model state.
func (s *PredictionService) ModelState() *ModelState {
	return s.state
}

// Predict runs feature extraction, classification and health scoring on one
// batch. No result is returned unless every stage succeeds.
func (s *PredictionService) Predict(ctx context.Context, in PredictInput) (pred *model.Prediction, err error) {
	artifacts, err := s.state.Artifacts()
	if err != nil {
		return nil, err
	}

	if err := s.checkBatch(in.Batch); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Prediction pipeline panicked", "panic", r, "id", in.ID)
			pred, err = nil, fmt.Errorf("%w: %v", model.ErrProcessing, r)
		}
	}()

	builder := NewFeatureBuilder(artifacts.Schema, s.opts.SampleRate)
	features, cleaned, err := builder.Build(in.Batch)
	if err != nil {
		return nil, err
	}

	fault, err := artifacts.Classifier.Classify(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("%w: classification failed: %v", model.ErrProcessing, err)
	}

	health, err := NewHealthScorer(artifacts.Centroid).Score(features, fault)
	if err != nil {
		return nil, err
	}

	filled := cleaned.Filled()
	pred = &model.Prediction{
		ID:           in.ID,
		Source:       in.Source,
		Motor:        in.Motor,
		Fault:        fault,
		Health:       health,
		Features:     features,
		Batch:        cleaned,
		VibrationPSD: PowerSpectralDensity(filled[model.VibrationX], s.opts.SampleRate),
		MagneticPSD:  PowerSpectralDensity(filled[model.MagneticX], s.opts.SampleRate),
		CreatedAt:    s.now().UTC(),
	}
	if err := checkFinite(pred); err != nil {
		return nil, err
	}
	if pred.ID == "" {
		pred.ID = uuid.New().String()
	}

	slog.Info("Prediction completed",
		"id", pred.ID,
		"source", pred.Source,
		"rows", cleaned.Len(),
		"fault", fault,
		"deviation", health.Deviation,
		"health_fraction", health.Fraction,
		"tier", health.Tier,
	)

	s.record(ctx, pred)
	s.publish(ctx, pred)

	return pred, nil
}

// PredictThingSpeak pulls the latest feed of a telemetry channel and scores it.
func (s *PredictionService) PredictThingSpeak(ctx context.Context, channelID, apiKey string, motor model.MotorInfo) (*model.Prediction, error) {
	if _, err := s.state.Artifacts(); err != nil {
		return nil, err
	}
	if s.telemetry == nil {
		return nil, fmt.Errorf("%w: telemetry source not configured", model.ErrNoData)
	}

	batch := s.telemetry.FetchChannel(ctx, channelID, apiKey)
	if batch.Len() == 0 {
		return nil, fmt.Errorf("%w: channel %s returned no feeds", model.ErrNoData, channelID)
	}

	return s.Predict(ctx, PredictInput{
		Source: model.SourceThingSpeak,
		Motor:  motor,
		Batch:  batch,
	})
}

// checkFinite rejects results that overflowed and cannot be encoded.
func checkFinite(pred *model.Prediction) error {
	if math.IsNaN(pred.Health.Deviation) || math.IsInf(pred.Health.Deviation, 0) {
		return fmt.Errorf("%w: deviation is not finite", model.ErrProcessing)
	}
	spectra := []struct {
		name string
		psd  model.Spectrum
	}{
		{"vibration", pred.VibrationPSD},
		{"magnetic", pred.MagneticPSD},
	}
	for _, s := range spectra {
		for _, v := range s.psd.Power {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s spectrum is not finite", model.ErrProcessing, s.name)
			}
		}
	}
	return nil
}

func (s *PredictionService) checkBatch(batch model.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	missing := batch.Missing()
	if len(missing) == model.ChannelCount {
		return fmt.Errorf("%w: batch has no sensor channels", model.ErrMalformedInput)
	}
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = c.String()
		}
		if s.opts.RejectMissingChannels {
			return fmt.Errorf("%w: missing channel columns: %s", model.ErrMalformedInput, strings.Join(names, ", "))
		}
		slog.Warn("Batch is missing channels, their features are zero-filled", "missing", names)
	}

	if s.opts.MaxRows > 0 && batch.Len() > s.opts.MaxRows {
		return fmt.Errorf("%w: batch has %d rows, limit is %d", model.ErrMalformedInput, batch.Len(), s.opts.MaxRows)
	}
	return nil
}

func (s *PredictionService) record(ctx context.Context, pred *model.Prediction) {
	if s.recorder == nil {
		return
	}

	features, err := json.Marshal(pred.Features.Rounded(4))
	if err != nil {
		slog.Warn("Failed to marshal features for history", "id", pred.ID, "error", err)
		return
	}

	err = s.recorder.SavePrediction(ctx, model.PredictionRecord{
		ID:             pred.ID,
		Source:         string(pred.Source),
		MotorType:      pred.Motor.MotorType,
		PhaseType:      pred.Motor.PhaseType,
		HP:             pred.Motor.HP,
		Voltage:        pred.Motor.Voltage,
		Fault:          pred.Fault,
		Deviation:      pred.Health.Deviation,
		HealthFraction: pred.Health.Fraction,
		RULYears:       pred.Health.RUL.Years,
		RULMonths:      pred.Health.RUL.Months,
		HealthTier:     string(pred.Health.Tier),
		Features:       features,
		Rows:           pred.Batch.Len(),
		CreatedAt:      pred.CreatedAt,
	})
	if err != nil {
		slog.Warn("Failed to save prediction history", "id", pred.ID, "error", err)
	}
}

func (s *PredictionService) publish(ctx context.Context, pred *model.Prediction) {
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(PredictionEvent{
		ID:               pred.ID,
		Source:           string(pred.Source),
		Fault:            pred.Fault,
		HealthStatus:     string(pred.Health.Tier),
		HealthPercentage: pred.Health.Percentage,
		RULYears:         pred.Health.RUL.Years,
		RULMonths:        pred.Health.RUL.Months,
		Deviation:        model.Round(pred.Health.Deviation, 2),
		CreatedAt:        pred.CreatedAt,
	})
	if err != nil {
		slog.Warn("Failed to marshal prediction event", "id", pred.ID, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, body); err != nil {
		slog.Warn("Failed to publish prediction event", "id", pred.ID, "error", err)
	}
}
