package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/scoring"
)

const sampleManifest = "../../models/manifest.json"

func TestLoadManifest_Sample(t *testing.T) {
	m, err := LoadManifest(sampleManifest)
	require.NoError(t, err)

	assert.Equal(t, []string(scoring.DefaultFeatureSchema), m.FeatureNames)
	require.NotNil(t, m.Logistic)
	require.NotNil(t, m.Tree)

	a, err := m.ToArtifacts()
	require.NoError(t, err)

	engine, err := scoring.NewEngine(a, nil)
	require.NoError(t, err)
	assert.Len(t, engine.Strategies(), 4)

	r, err := engine.Score("trained_tree", models.DefaultApplicantAttributes())
	require.NoError(t, err)
	assert.InDelta(t, 230.0/285.0, r.Probability, 1e-12)
	assert.Equal(t, scoring.Approved, r.Decision)
}

func TestParseManifest_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{"version":`},
		{name: "missing featureNames", body: `{"version":"1"}`},
		{name: "empty featureNames", body: `{"version":"1","featureNames":[]}`},
		{name: "duplicate feature", body: `{"version":"1","featureNames":["A","A"]}`},
		{name: "coefficient not a number", body: `{"version":"1","featureNames":["A"],"logistic":{"intercept":0,"coefficients":["x"]}}`},
		{name: "unknown logistic field", body: `{"version":"1","featureNames":["A"],"logistic":{"intercept":0,"coefficients":[1],"penalty":"l2"}}`},
		{name: "negative class weight", body: `{"version":"1","featureNames":["A"],"tree":{"childrenLeft":[-1],"childrenRight":[-1],"feature":[-2],"threshold":[-2],"value":[[-1,2]]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.body))
			assert.Error(t, err)
		})
	}

	_, err := ParseManifest([]byte(`{"version":"1"}`))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.NotEmpty(t, schemaErr.Violations)
}

func TestParseManifest_ModelConsistency(t *testing.T) {
	_, err := ParseManifest([]byte(`{"version":"1","featureNames":["A","B"],"logistic":{"intercept":0,"coefficients":[1]}}`))
	assert.ErrorContains(t, err, "1 coefficients for 2 features")

	_, err = ParseManifest([]byte(`{"version":"1","featureNames":["A"],"tree":{"childrenLeft":[1,-1],"childrenRight":[1,-1],"feature":[3,-2],"threshold":[0.5,-2],"value":[[1,1],[1,1]]}}`))
	assert.ErrorContains(t, err, "tree")
}

func TestToArtifacts_AbsentModelStaysNil(t *testing.T) {
	m, err := ParseManifest([]byte(`{"version":"1","featureNames":["Credit_History"],"logistic":{"intercept":-1,"coefficients":[2]}}`))
	require.NoError(t, err)

	a, err := m.ToArtifacts()
	require.NoError(t, err)
	assert.NotNil(t, a.Logistic)
	assert.Nil(t, a.Tree)

	engine, err := scoring.NewEngine(a, nil)
	require.NoError(t, err)
	assert.NotContains(t, engine.Strategies(), scoring.TrainedTree)
}

func TestLoad(t *testing.T) {
	a, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, a.Schema)
	assert.Nil(t, a.Logistic)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	a, err = Load(sampleManifest)
	require.NoError(t, err)
	assert.Len(t, a.Schema, 15)
}
