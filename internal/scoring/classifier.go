package scoring

import (
	"fmt"
	"math"
)

// LogisticModel evaluates an exported binary logistic regression.
type LogisticModel struct {
	Intercept    float64
	Coefficients []float64
}

func (m *LogisticModel) NumFeatures() int { return len(m.Coefficients) }

func (m *LogisticModel) PredictProba(vec FeatureVector) (float64, error) {
	if len(vec) != len(m.Coefficients) {
		return 0, fmt.Errorf("logistic model expects %d features, got %d", len(m.Coefficients), len(vec))
	}
	z := m.Intercept
	for i, w := range m.Coefficients {
		z += w * vec[i]
	}
	// math.Exp overflows to +Inf well before float64 precision matters
	return sigmoid(clip(z, -700, 700)), nil
}

// TreeModel evaluates an exported binary decision tree stored as parallel
// node arrays. A node is a leaf when its left child is -1. Value holds the
// per-class sample weights of each node, class 1 being "approved".
type TreeModel struct {
	ChildrenLeft  []int
	ChildrenRight []int
	Feature       []int
	Threshold     []float64
	Value         [][]float64
	Features      int
}

const leafNode = -1

func (m *TreeModel) NumFeatures() int { return m.Features }

// Validate checks the node arrays are consistent and every path ends in a leaf.
func (m *TreeModel) Validate() error {
	n := len(m.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(m.ChildrenRight) != n || len(m.Feature) != n || len(m.Threshold) != n || len(m.Value) != n {
		return fmt.Errorf("tree node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		left, right := m.ChildrenLeft[i], m.ChildrenRight[i]
		if left == leafNode {
			if len(m.Value[i]) < 2 {
				return fmt.Errorf("leaf %d has %d class weights, want 2", i, len(m.Value[i]))
			}
			continue
		}
		if left <= i || right <= i || left >= n || right >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, left, right)
		}
		if m.Feature[i] < 0 || (m.Features > 0 && m.Feature[i] >= m.Features) {
			return fmt.Errorf("node %d splits on feature %d outside schema", i, m.Feature[i])
		}
	}
	return nil
}

func (m *TreeModel) PredictProba(vec FeatureVector) (float64, error) {
	if m.Features > 0 && len(vec) != m.Features {
		return 0, fmt.Errorf("tree model expects %d features, got %d", m.Features, len(vec))
	}

	node := 0
	for m.ChildrenLeft[node] != leafNode {
		f := m.Feature[node]
		if f >= len(vec) {
			return 0, fmt.Errorf("tree node %d splits on feature %d, vector has %d", node, f, len(vec))
		}
		if vec[f] <= m.Threshold[node] {
			node = m.ChildrenLeft[node]
		} else {
			node = m.ChildrenRight[node]
		}
	}

	counts := m.Value[node]
	total := 0.0
	for _, c := range counts {
		total += c
	}
	if total <= 0 || math.IsNaN(total) {
		return 0, fmt.Errorf("tree leaf %d has no samples", node)
	}
	return counts[1] / total, nil
}
