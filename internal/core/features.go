package core

import (
	"fmt"
	"math"
	"motor_service/internal/domain/model"
	"strings"
)

// Feature names produced by the builder, in the order the classifier was trained on.
const (
	FeatureVibRMSX    = "Vib_RMS_X"
	FeatureVibRMSY    = "Vib_RMS_Y"
	FeatureVibRMSZ    = "Vib_RMS_Z"
	FeatureVibP2PX    = "Vib_P2P_X"
	FeatureVibP2PY    = "Vib_P2P_Y"
	FeatureVibP2PZ    = "Vib_P2P_Z"
	FeatureVibFFTFreq = "Vib_FFT_Peak_Freq"
	FeatureVibFFTAmp  = "Vib_FFT_Peak_Amp"
	FeatureMagRMSX    = "Mag_RMS_X"
	FeatureMagRMSY    = "Mag_RMS_Y"
	FeatureMagRMSZ    = "Mag_RMS_Z"
	FeatureMagP2PX    = "Mag_P2P_X"
	FeatureMagP2PY    = "Mag_P2P_Y"
	FeatureMagP2PZ    = "Mag_P2P_Z"
)

// DefaultColumns is the column set of the shipped classifier.
var DefaultColumns = []string{
	FeatureVibRMSX, FeatureVibRMSY, FeatureVibRMSZ,
	FeatureVibP2PX, FeatureVibP2PY, FeatureVibP2PZ,
	FeatureVibFFTFreq, FeatureVibFFTAmp,
	FeatureMagRMSX, FeatureMagRMSY, FeatureMagRMSZ,
	FeatureMagP2PX, FeatureMagP2PY, FeatureMagP2PZ,
}

// correction is what happens to one schema column after reconciliation.
type correction int

const (
	keepValue correction = iota
	// zeroValue neutralises peak-to-peak and spectral-frequency features,
	// which were structurally zero in the training rows.
	zeroValue
	// copyVibrationRMS replaces a vibration spectral amplitude with the
	// vibration-X RMS; on a single training sample the two were equal.
	copyVibrationRMS
)

func (c correction) String() string {
	switch c {
	case zeroValue:
		return "zero"
	case copyVibrationRMS:
		return "copy_vib_rms_x"
	default:
		return "keep"
	}
}

func planCorrection(column string) correction {
	switch {
	case strings.Contains(column, "Peak_Amp") && strings.Contains(column, "Vib"):
		return copyVibrationRMS
	case strings.Contains(column, "P2P") || strings.Contains(column, "Freq"):
		return zeroValue
	default:
		return keepValue
	}
}

// Schema is the versioned, ordered column set the classifier expects, along
// with the per-column correction plan derived once when it is loaded.
type Schema struct {
	Version string
	Columns []string

	plan    []correction
	vibRMSX int
}

// NewSchema validates the columns and derives the correction plan.
func NewSchema(version string, columns []string) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema %q has no columns", version)
	}

	s := &Schema{
		Version: version,
		Columns: append([]string(nil), columns...),
		plan:    make([]correction, len(columns)),
		vibRMSX: -1,
	}

	seen := make(map[string]struct{}, len(columns))
	needsRMS := false
	for i, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("schema %q: column %d has no name", version, i)
		}
		if _, dup := seen[col]; dup {
			return nil, fmt.Errorf("schema %q: duplicate column %q", version, col)
		}
		seen[col] = struct{}{}

		if col == FeatureVibRMSX {
			s.vibRMSX = i
		}
		s.plan[i] = planCorrection(col)
		if s.plan[i] == copyVibrationRMS {
			needsRMS = true
		}
	}

	if needsRMS && s.vibRMSX < 0 {
		return nil, fmt.Errorf("schema %q: spectral amplitude correction needs column %q", version, FeatureVibRMSX)
	}

	return s, nil
}

// Width returns the number of columns.
func (s *Schema) Width() int {
	return len(s.Columns)
}

// Reconcile orders computed features by the schema. Expected columns that were
// not computed become 0 and computed columns outside the schema are dropped.
func (s *Schema) Reconcile(computed map[string]float64) []float64 {
	values := make([]float64, len(s.Columns))
	for i, col := range s.Columns {
		values[i] = computed[col]
	}
	return values
}

// Correct applies the correction plan to values in place. Applying it more
// than once has no further effect.
func (s *Schema) Correct(values []float64) {
	for i, c := range s.plan {
		switch c {
		case zeroValue:
			values[i] = 0
		case copyVibrationRMS:
			values[i] = values[s.vibRMSX]
		}
	}
}

// FeatureBuilder turns a six-channel batch into a schema-matched feature vector.
type FeatureBuilder struct {
	schema     *Schema
	sampleRate float64
}

func NewFeatureBuilder(schema *Schema, sampleRate float64) *FeatureBuilder {
	if sampleRate <= 0 {
		sampleRate = 1
	}
	return &FeatureBuilder{schema: schema, sampleRate: sampleRate}
}

// Build drops incomplete rows, computes the statistics, reconciles them with
// the schema and applies the correction plan. It also returns the cleaned
// batch the features were computed from.
func (b *FeatureBuilder) Build(batch model.Batch) (model.FeatureVector, model.Batch, error) {
	cleaned := batch.Clean()
	if cleaned.Len() == 0 {
		return model.FeatureVector{}, cleaned, fmt.Errorf("%w: no complete rows in batch", model.ErrMalformedInput)
	}

	values := b.schema.Reconcile(b.Compute(cleaned))
	b.schema.Correct(values)

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.FeatureVector{}, cleaned, fmt.Errorf("%w: feature %q is not finite", model.ErrProcessing, b.schema.Columns[i])
		}
	}

	return model.FeatureVector{
		Columns: append([]string(nil), b.schema.Columns...),
		Values:  values,
	}, cleaned, nil
}

// Compute returns the named statistics of every channel present in a cleaned
// batch. Absent channels contribute nothing.
func (b *FeatureBuilder) Compute(batch model.Batch) map[string]float64 {
	features := make(map[string]float64, len(DefaultColumns))

	for _, c := range model.Channels {
		if !batch.Has(c) || len(batch.Series[c]) == 0 {
			continue
		}
		group := "Mag"
		if c.IsVibration() {
			group = "Vib"
		}
		x := batch.Series[c]
		features[group+"_RMS_"+c.Axis()] = RMS(x)
		features[group+"_P2P_"+c.Axis()] = PeakToPeak(x)
	}

	if x := batch.Series[model.VibrationX]; len(x) > 0 {
		features[FeatureVibFFTFreq], features[FeatureVibFFTAmp] = SpectralPeak(x, b.sampleRate)
	}

	return features
}
