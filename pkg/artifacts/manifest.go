package artifacts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"credit-risk-workers/internal/scoring"
)

//go:embed manifest.schema.json
var manifestSchema []byte

// Manifest is the hand-off format of the offline training pipeline.
type Manifest struct {
	Version      string          `json:"version"`
	TrainedAt    string          `json:"trainedAt,omitempty"`
	FeatureNames []string        `json:"featureNames"`
	Logistic     *LogisticParams `json:"logistic,omitempty"`
	Tree         *TreeParams     `json:"tree,omitempty"`
}

type LogisticParams struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// TreeParams mirrors the node arrays of a fitted binary decision tree.
type TreeParams struct {
	ChildrenLeft  []int       `json:"childrenLeft"`
	ChildrenRight []int       `json:"childrenRight"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// SchemaError carries every JSON Schema violation found in a manifest.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "manifest does not match schema: " + strings.Join(e.Violations, "; ")
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest validates data against the embedded schema, decodes it and
// checks the model parameters agree with the feature list.
func ParseManifest(data []byte) (*Manifest, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(manifestSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		violations := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			violations[i] = desc.String()
		}
		return nil, &SchemaError{Violations: violations}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if _, err := m.ToArtifacts(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ToArtifacts builds the engine inputs. A model absent from the manifest
// stays nil so the matching trained strategy is reported as missing.
func (m *Manifest) ToArtifacts() (scoring.Artifacts, error) {
	a := scoring.Artifacts{Schema: scoring.FeatureSchema(append([]string(nil), m.FeatureNames...))}
	n := len(m.FeatureNames)

	if m.Logistic != nil {
		if len(m.Logistic.Coefficients) != n {
			return scoring.Artifacts{}, fmt.Errorf("logistic has %d coefficients for %d features", len(m.Logistic.Coefficients), n)
		}
		a.Logistic = &scoring.LogisticModel{
			Intercept:    m.Logistic.Intercept,
			Coefficients: append([]float64(nil), m.Logistic.Coefficients...),
		}
	}

	if m.Tree != nil {
		tree := &scoring.TreeModel{
			ChildrenLeft:  m.Tree.ChildrenLeft,
			ChildrenRight: m.Tree.ChildrenRight,
			Feature:       m.Tree.Feature,
			Threshold:     m.Tree.Threshold,
			Value:         m.Tree.Value,
			Features:      n,
		}
		if err := tree.Validate(); err != nil {
			return scoring.Artifacts{}, fmt.Errorf("tree: %w", err)
		}
		a.Tree = tree
	}

	return a, nil
}

// Load reads the manifest at path. An empty path yields manual-only
// artifacts on the default feature layout.
func Load(path string) (scoring.Artifacts, error) {
	if path == "" {
		return scoring.Artifacts{}, nil
	}
	m, err := LoadManifest(path)
	if err != nil {
		return scoring.Artifacts{}, err
	}
	return m.ToArtifacts()
}
