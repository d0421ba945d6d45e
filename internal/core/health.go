package core

import (
	"fmt"
	"math"
	"motor_service/internal/domain/model"

	"gonum.org/v1/gonum/floats"
)

const (
	decayConstant     = 0.55
	minHealthFraction = 0.05
	maxServiceYears   = 25
	referenceShare    = 0.15
	minReference      = 1.0
	referenceEpsilon  = 1e-9

	daysPerYear  = 365
	daysPerMonth = 30

	criticalBelow = 25
	warningBelow  = 75
)

// HealthScorer compares feature vectors against the normal-condition centroid.
type HealthScorer struct {
	centroid  []float64
	reference float64
}

func NewHealthScorer(centroid []float64) *HealthScorer {
	return &HealthScorer{
		centroid:  centroid,
		reference: DeviationReference(centroid),
	}
}

// Reference returns the deviation scale of the centroid.
func (h *HealthScorer) Reference() float64 {
	return h.reference
}

// Score maps the distance between features and the centroid to a health
// fraction, a remaining useful life and a tier.
func (h *HealthScorer) Score(features model.FeatureVector, faultLabel string) (model.HealthScore, error) {
	if len(features.Values) != len(h.centroid) {
		return model.HealthScore{}, fmt.Errorf("%w: feature vector has %d values, centroid has %d",
			model.ErrProcessing, len(features.Values), len(h.centroid))
	}

	deviation := floats.Distance(features.Values, h.centroid, 2)
	normalized := deviation / (h.reference + referenceEpsilon)
	fraction := HealthFraction(normalized)
	percentage, tier := ClassifyHealth(fraction, faultLabel)

	return model.HealthScore{
		Deviation:  deviation,
		Reference:  h.reference,
		Normalized: normalized,
		Fraction:   fraction,
		Percentage: percentage,
		RUL:        RemainingLife(fraction),
		Tier:       tier,
	}, nil
}

// DeviationReference is 15% of the centroid norm, never below 1.
func DeviationReference(centroid []float64) float64 {
	return math.Max(floats.Norm(centroid, 2)*referenceShare, minReference)
}

// HealthFraction is the saturating decay 1/(1+k*normalized), floored at 0.05.
func HealthFraction(normalized float64) float64 {
	return math.Max(minHealthFraction, 1/(1+decayConstant*normalized))
}

// RemainingLife converts a health fraction into whole years and 30-day months
// of a 25 year service life, truncating both.
func RemainingLife(fraction float64) model.RUL {
	days := fraction * maxServiceYears * daysPerYear
	return model.RUL{
		Years:  int(math.Floor(days / daysPerYear)),
		Months: int(math.Floor(math.Mod(days, daysPerYear) / daysPerMonth)),
	}
}

// ClassifyHealth returns the rounded health percentage and its tier. The fault
// label does not take part in tier selection.
func ClassifyHealth(fraction float64, faultLabel string) (int, model.HealthTier) {
	percentage := int(math.RoundToEven(fraction * 100))
	switch {
	case percentage < criticalBelow:
		return percentage, model.TierCritical
	case percentage < warningBelow:
		return percentage, model.TierWarning
	default:
		return percentage, model.TierNormal
	}
}
