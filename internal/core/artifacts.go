package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"motor_service/internal/domain/model"
	"motor_service/internal/infrastructure/forest"
)

// Artifact names inside a store.
const (
	SchemaArtifact   = "schema.json"
	ModelArtifact    = "model.json"
	CentroidArtifact = "centroid.json"
)

// ArtifactStore fetches persisted model artifacts by name.
type ArtifactStore interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

type schemaFile struct {
	Version string   `json:"version"`
	Columns []string `json:"columns"`
}

type centroidFile struct {
	SchemaVersion string    `json:"schema_version"`
	Values        []float64 `json:"values"`
}

// Artifacts is the immutable model state shared by all requests.
type Artifacts struct {
	Schema     *Schema
	Classifier model.Classifier
	Centroid   []float64
}

// ModelState is either a loaded set of artifacts or the reason loading failed.
type ModelState struct {
	artifacts *Artifacts
	err       error
}

// NewModelState wraps artifacts that were assembled elsewhere.
func NewModelState(a *Artifacts) *ModelState {
	return &ModelState{artifacts: a}
}

// UnavailableModelState returns a state whose every use fails with err.
func UnavailableModelState(err error) *ModelState {
	return &ModelState{err: err}
}

// LoadModelState loads and cross-validates the schema, classifier and centroid.
// A non-nil remote classifier replaces the model artifact. Failures never
// abort the process; they are kept and reported on each inference call.
func LoadModelState(ctx context.Context, store ArtifactStore, remote model.Classifier) *ModelState {
	a, err := loadArtifacts(ctx, store, remote)
	if err != nil {
		slog.Error("Model artifacts unavailable, inference disabled", "error", err)
		return UnavailableModelState(err)
	}

	slog.Info("Model artifacts loaded",
		"schema_version", a.Schema.Version,
		"columns", a.Schema.Columns,
		"remote_classifier", remote != nil,
	)
	return NewModelState(a)
}

func loadArtifacts(ctx context.Context, store ArtifactStore, remote model.Classifier) (*Artifacts, error) {
	raw, err := store.Fetch(ctx, SchemaArtifact)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", SchemaArtifact, err)
	}
	var sf schemaFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", SchemaArtifact, err)
	}
	schema, err := NewSchema(sf.Version, sf.Columns)
	if err != nil {
		return nil, err
	}

	raw, err = store.Fetch(ctx, CentroidArtifact)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", CentroidArtifact, err)
	}
	var cf centroidFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", CentroidArtifact, err)
	}
	if cf.SchemaVersion != schema.Version {
		return nil, fmt.Errorf("centroid schema version %q does not match schema %q", cf.SchemaVersion, schema.Version)
	}
	if len(cf.Values) != schema.Width() {
		return nil, fmt.Errorf("centroid has %d values, schema has %d columns", len(cf.Values), schema.Width())
	}

	classifier := remote
	if classifier == nil {
		raw, err = store.Fetch(ctx, ModelArtifact)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", ModelArtifact, err)
		}
		ensemble, err := forest.Decode(raw)
		if err != nil {
			return nil, err
		}
		if ensemble.SchemaVersion != schema.Version {
			return nil, fmt.Errorf("model schema version %q does not match schema %q", ensemble.SchemaVersion, schema.Version)
		}
		if ensemble.NFeatures != schema.Width() {
			return nil, fmt.Errorf("model expects %d features, schema has %d columns", ensemble.NFeatures, schema.Width())
		}
		classifier = ensemble
	}

	return &Artifacts{
		Schema:     schema,
		Classifier: classifier,
		Centroid:   cf.Values,
	}, nil
}

// Artifacts returns the loaded artifacts or ErrModelUnavailable.
func (m *ModelState) Artifacts() (*Artifacts, error) {
	if m == nil || m.artifacts == nil {
		cause := fmt.Errorf("no artifacts loaded")
		if m != nil && m.err != nil {
			cause = m.err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrModelUnavailable, cause)
	}
	return m.artifacts, nil
}

// Available reports whether inference can run.
func (m *ModelState) Available() bool {
	return m != nil && m.artifacts != nil
}

// SchemaVersion returns the loaded schema version, or "" when unavailable.
func (m *ModelState) SchemaVersion() string {
	if !m.Available() {
		return ""
	}
	return m.artifacts.Schema.Version
}
