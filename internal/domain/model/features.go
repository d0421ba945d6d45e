package model

import "math"

// FeatureVector is an ordered mapping from feature name to value. Columns and
// Values always have the same length.
type FeatureVector struct {
	Columns []string
	Values  []float64
}

// Get returns the value of the named feature.
func (f FeatureVector) Get(name string) (float64, bool) {
	for i, c := range f.Columns {
		if c == name {
			return f.Values[i], true
		}
	}
	return 0, false
}

// Rounded returns the features as a map with values rounded to the given
// number of decimal places.
func (f FeatureVector) Rounded(places int) map[string]float64 {
	out := make(map[string]float64, len(f.Columns))
	for i, c := range f.Columns {
		out[c] = Round(f.Values[i], places)
	}
	return out
}

// Round rounds half to even at the given decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
