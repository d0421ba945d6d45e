// Package forest evaluates a tree-ensemble fault classifier exported as JSON.
package forest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"motor_service/internal/domain/model"
)

var ErrUnknownClass = errors.New("unknown class index")

// Node is one decision-tree node. A node with Feature < 0 is a leaf whose
// Value holds per-class weights; otherwise samples with
// x[Feature] <= Threshold go Left.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Ensemble is a trained classifier plus its label encoder (Classes).
type Ensemble struct {
	SchemaVersion string   `json:"schema_version"`
	NFeatures     int      `json:"n_features"`
	Classes       []string `json:"classes"`
	Trees         []Tree   `json:"trees"`
}

// Decode parses and validates a model artifact.
func Decode(data []byte) (*Ensemble, error) {
	var e Ensemble
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Ensemble) validate() error {
	if e.NFeatures <= 0 {
		return fmt.Errorf("model declares %d features", e.NFeatures)
	}
	if len(e.Classes) == 0 {
		return fmt.Errorf("model has no classes")
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("model has no trees")
	}

	for t, tree := range e.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		for i, n := range tree.Nodes {
			if n.Feature < 0 {
				if len(n.Value) != len(e.Classes) {
					return fmt.Errorf("tree %d leaf %d has %d class weights, want %d", t, i, len(n.Value), len(e.Classes))
				}
				continue
			}
			if n.Feature >= e.NFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d of %d", t, i, n.Feature, e.NFeatures)
			}
			// Children must come after their parent, which also rules out cycles.
			if n.Left <= i || n.Left >= len(tree.Nodes) || n.Right <= i || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children %d/%d", t, i, n.Left, n.Right)
			}
		}
	}

	return nil
}

// Probabilities returns the mean normalised leaf distribution over all trees.
func (e *Ensemble) Probabilities(x []float64) ([]float64, error) {
	if len(x) != e.NFeatures {
		return nil, fmt.Errorf("model expects %d features, got %d", e.NFeatures, len(x))
	}

	proba := make([]float64, len(e.Classes))
	for _, tree := range e.Trees {
		leaf := tree.leaf(x)
		total := 0.0
		for _, w := range leaf.Value {
			total += w
		}
		if total == 0 {
			continue
		}
		for k, w := range leaf.Value {
			proba[k] += w / total
		}
	}

	for k := range proba {
		proba[k] /= float64(len(e.Trees))
	}
	return proba, nil
}

// PredictIndex returns the label-encoded class with the highest probability.
// The lowest index wins ties.
func (e *Ensemble) PredictIndex(x []float64) (int, error) {
	proba, err := e.Probabilities(x)
	if err != nil {
		return 0, err
	}

	best := 0
	for k := 1; k < len(proba); k++ {
		if proba[k] > proba[best] {
			best = k
		}
	}
	return best, nil
}

// DecodeLabel maps a label-encoded index back to its class name.
func (e *Ensemble) DecodeLabel(index int) (string, error) {
	if index < 0 || index >= len(e.Classes) {
		return "", fmt.Errorf("%w: %d", ErrUnknownClass, index)
	}
	return e.Classes[index], nil
}

// Classify implements model.Classifier.
func (e *Ensemble) Classify(_ context.Context, features model.FeatureVector) (string, error) {
	index, err := e.PredictIndex(features.Values)
	if err != nil {
		return "", err
	}
	return e.DecodeLabel(index)
}

func (t Tree) leaf(x []float64) Node {
	n := t.Nodes[0]
	for n.Feature >= 0 {
		if x[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n
}
