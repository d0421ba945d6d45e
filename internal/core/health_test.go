package core

import (
	"motor_service/internal/domain/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviationReference(t *testing.T) {
	assert.Equal(t, 1.0, DeviationReference([]float64{3, 4}))
	assert.InDelta(t, 7.5, DeviationReference([]float64{30, 40}), 1e-12)
	assert.Equal(t, 1.0, DeviationReference([]float64{0, 0}))
}

func TestHealthFraction(t *testing.T) {
	assert.Equal(t, 1.0, HealthFraction(0))
	assert.InDelta(t, 1/1.55, HealthFraction(1), 1e-12)
	assert.Equal(t, 0.05, HealthFraction(1e9))
}

func TestHealthFractionMonotoneAndBounded(t *testing.T) {
	prev := HealthFraction(0)
	for x := 0.0; x <= 100; x += 0.25 {
		f := HealthFraction(x)
		assert.GreaterOrEqual(t, f, 0.05, "x=%v", x)
		assert.LessOrEqual(t, f, 1.0, "x=%v", x)
		assert.LessOrEqual(t, f, prev, "x=%v", x)
		prev = f
	}
}

func TestRemainingLife(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		want     model.RUL
	}{
		{"full life", 1, model.RUL{Years: 25, Months: 0}},
		{"one reference of deviation", 1 / 1.55, model.RUL{Years: 16, Months: 1}},
		{"floor", 0.05, model.RUL{Years: 1, Months: 3}},
		{"half", 0.5, model.RUL{Years: 12, Months: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemainingLife(tt.fraction))
		})
	}

	assert.Equal(t, "16 years 1 months", RemainingLife(1/1.55).String())
}

func TestClassifyHealth(t *testing.T) {
	tests := []struct {
		fraction float64
		wantPct  int
		wantTier model.HealthTier
	}{
		{0.05, 5, model.TierCritical},
		{0.2449, 24, model.TierCritical},
		{0.25, 25, model.TierWarning},
		{0.7449, 74, model.TierWarning},
		{0.75, 75, model.TierNormal},
		{1, 100, model.TierNormal},
	}
	for _, tt := range tests {
		pct, tier := ClassifyHealth(tt.fraction, "Normal")
		assert.Equal(t, tt.wantPct, pct)
		assert.Equal(t, tt.wantTier, tier)
	}
}

func TestClassifyHealthIgnoresFaultLabel(t *testing.T) {
	for _, label := range []string{"Normal", "Bearing Fault", "Rotor Imbalance", ""} {
		_, tier := ClassifyHealth(0.9, label)
		assert.Equal(t, model.TierNormal, tier, label)
	}
}

func TestHealthScorerScore(t *testing.T) {
	scorer := NewHealthScorer([]float64{0, 0})
	assert.Equal(t, 1.0, scorer.Reference())

	score, err := scorer.Score(model.FeatureVector{
		Columns: []string{"a", "b"},
		Values:  []float64{3, 4},
	}, "Normal")
	require.NoError(t, err)

	assert.InDelta(t, 5.0, score.Deviation, 1e-12)
	assert.InDelta(t, 5.0, score.Normalized, 1e-6)
	assert.InDelta(t, 1/3.75, score.Fraction, 1e-6)
	assert.Equal(t, 27, score.Percentage)
	assert.Equal(t, model.TierWarning, score.Tier)
	assert.Equal(t, model.RUL{Years: 6, Months: 8}, score.RUL)
}

func TestHealthScorerAtCentroid(t *testing.T) {
	centroid := []float64{1, 1, 1, 3}
	score, err := NewHealthScorer(centroid).Score(model.FeatureVector{Values: []float64{1, 1, 1, 3}}, "Normal")
	require.NoError(t, err)

	assert.Zero(t, score.Deviation)
	assert.Equal(t, 1.0, score.Fraction)
	assert.Equal(t, 100, score.Percentage)
	assert.Equal(t, model.TierNormal, score.Tier)
	assert.Equal(t, model.RUL{Years: 25}, score.RUL)
}

func TestHealthScorerWidthMismatch(t *testing.T) {
	_, err := NewHealthScorer([]float64{1, 2, 3}).Score(model.FeatureVector{Values: []float64{1, 2}}, "Normal")
	assert.ErrorIs(t, err, model.ErrProcessing)
}
