package forest

import (
	"context"
	"motor_service/internal/domain/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two stumps over two features and three classes.
const twoTrees = `{
	"schema_version": "v1",
	"n_features": 2,
	"classes": ["Bearing Fault", "Normal", "Rotor Imbalance"],
	"trees": [
		{"nodes": [
			{"feature": 0, "threshold": 1.5, "left": 1, "right": 2},
			{"feature": -1, "value": [0, 4, 0]},
			{"feature": -1, "value": [3, 0, 1]}
		]},
		{"nodes": [
			{"feature": 1, "threshold": 10, "left": 1, "right": 2},
			{"feature": -1, "value": [0, 1, 1]},
			{"feature": -1, "value": [0, 0, 5]}
		]}
	]
}`

func TestDecodeAndPredict(t *testing.T) {
	e, err := Decode([]byte(twoTrees))
	require.NoError(t, err)
	assert.Equal(t, "v1", e.SchemaVersion)

	proba, err := e.Probabilities([]float64{1, 5})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.75, 0.25}, proba, 1e-12)

	tests := []struct {
		x    []float64
		want string
	}{
		{[]float64{1, 5}, "Normal"},
		{[]float64{1.5, 10}, "Normal"},
		{[]float64{2, 5}, "Bearing Fault"},
		{[]float64{2, 11}, "Rotor Imbalance"},
	}
	for _, tt := range tests {
		label, err := e.Classify(context.Background(), model.FeatureVector{Values: tt.x})
		require.NoError(t, err)
		assert.Equal(t, tt.want, label, "%v", tt.x)
	}
}

func TestPredictIndexTiesGoToLowestIndex(t *testing.T) {
	e := &Ensemble{
		NFeatures: 1,
		Classes:   []string{"a", "b"},
		Trees: []Tree{
			{Nodes: []Node{{Feature: -1, Value: []float64{1, 1}}}},
		},
	}

	index, err := e.PredictIndex([]float64{0})
	require.NoError(t, err)
	assert.Zero(t, index)
}

func TestDecodeLabel(t *testing.T) {
	e, err := Decode([]byte(twoTrees))
	require.NoError(t, err)

	label, err := e.DecodeLabel(2)
	require.NoError(t, err)
	assert.Equal(t, "Rotor Imbalance", label)

	_, err = e.DecodeLabel(3)
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestProbabilitiesWidthMismatch(t *testing.T) {
	e, err := Decode([]byte(twoTrees))
	require.NoError(t, err)

	_, err = e.Classify(context.Background(), model.FeatureVector{Values: []float64{1}})
	assert.Error(t, err)
}

func TestDecodeRejectsInvalidModels(t *testing.T) {
	tests := map[string]string{
		"not json":      `{`,
		"no features":   `{"n_features": 0, "classes": ["a"], "trees": [{"nodes": [{"feature": -1, "value": [1]}]}]}`,
		"no classes":    `{"n_features": 1, "classes": [], "trees": [{"nodes": [{"feature": -1, "value": []}]}]}`,
		"no trees":      `{"n_features": 1, "classes": ["a"], "trees": []}`,
		"empty tree":    `{"n_features": 1, "classes": ["a"], "trees": [{"nodes": []}]}`,
		"leaf width":    `{"n_features": 1, "classes": ["a", "b"], "trees": [{"nodes": [{"feature": -1, "value": [1]}]}]}`,
		"feature range": `{"n_features": 1, "classes": ["a"], "trees": [{"nodes": [{"feature": 1, "left": 1, "right": 2}, {"feature": -1, "value": [1]}, {"feature": -1, "value": [1]}]}]}`,
		"cycle":         `{"n_features": 1, "classes": ["a"], "trees": [{"nodes": [{"feature": 0, "left": 0, "right": 1}, {"feature": -1, "value": [1]}]}]}`,
		"dangling":      `{"n_features": 1, "classes": ["a"], "trees": [{"nodes": [{"feature": 0, "left": 1, "right": 5}, {"feature": -1, "value": [1]}]}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			assert.Error(t, err)
		})
	}
}
