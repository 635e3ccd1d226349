package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stump splits on feature 0 at 0.5: left leaf 3 denied/1 approved, right 1/3.
func stump() *TreeModel {
	return &TreeModel{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{0, -2, -2},
		Threshold:     []float64{0.5, -2, -2},
		Value:         [][]float64{{4, 4}, {3, 1}, {1, 3}},
		Features:      2,
	}
}

func TestTreeModel_PredictProba(t *testing.T) {
	tree := stump()
	require.NoError(t, tree.Validate())

	p, err := tree.PredictProba(FeatureVector{0.5, 9})
	require.NoError(t, err)
	assert.Equal(t, 0.25, p)

	p, err = tree.PredictProba(FeatureVector{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.75, p)

	_, err = tree.PredictProba(FeatureVector{1})
	assert.Error(t, err)
}

func TestTreeModel_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TreeModel)
	}{
		{name: "empty", mutate: func(m *TreeModel) { *m = TreeModel{} }},
		{name: "length mismatch", mutate: func(m *TreeModel) { m.Threshold = m.Threshold[:2] }},
		{name: "cycle", mutate: func(m *TreeModel) { m.ChildrenLeft[0] = 0 }},
		{name: "child out of range", mutate: func(m *TreeModel) { m.ChildrenRight[0] = 7 }},
		{name: "feature outside schema", mutate: func(m *TreeModel) { m.Feature[0] = 2 }},
		{name: "leaf without class weights", mutate: func(m *TreeModel) { m.Value[1] = []float64{3} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := stump()
			tt.mutate(m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestLogisticModel_PredictProba(t *testing.T) {
	m := &LogisticModel{Intercept: -1, Coefficients: []float64{2, 0.5}}

	p, err := m.PredictProba(FeatureVector{0.5, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-12)

	p, err = m.PredictProba(FeatureVector{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2)), p, 1e-12)

	p, err = m.PredictProba(FeatureVector{1e308, 1e308})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(p))
	assert.Equal(t, 1.0, p)

	_, err = m.PredictProba(FeatureVector{1})
	assert.Error(t, err)
}
