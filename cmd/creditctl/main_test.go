package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = "../../models/manifest.json"

// writeConfig points the record store at a fresh SQLite file.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
records:
  backend: sqlite
  collection: loan_applications
database:
  sqlite:
    path: %s
logging:
  level: error
`, filepath.Join(dir, "records.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.Writer = &out
	cmd.ErrWriter = &bytes.Buffer{}
	err := cmd.Run(context.Background(), append([]string{name}, args...))
	return out.String(), err
}

func decode(t *testing.T, out string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &m), out)
	return m
}

func TestScore(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name         string
		args         []string
		wantDecision string
		wantScore    float64
	}{
		{
			name:         "manual tree without income",
			args:         []string{"--strategy", "manual_tree", "--applicant-income", "0"},
			wantDecision: "Approved",
			wantScore:    690,
		},
		{
			name:         "manual tree poor history",
			args:         []string{"--strategy", "manual_tree", "--credit-history", "0", "--utility-payment-score", "0.2", "--applicant-income", "3000"},
			wantDecision: "Denied",
			wantScore:    396,
		},
		{
			name:         "default strategy from config",
			args:         []string{"--applicant-income", "0"},
			wantDecision: "Approved",
			wantScore:    690,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"--config", cfg, "score"}, tt.args...)...)
			require.NoError(t, err)

			body := decode(t, out)
			assert.Equal(t, "manual_tree", body["strategy"])
			assert.Equal(t, tt.wantDecision, body["decision"])
			assert.Equal(t, tt.wantScore, body["score"])
			assert.NotContains(t, body, "record")
		})
	}
}

func TestScore_Errors(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "dependents out of range", args: []string{"--dependents", "7"}, wantErr: "dependents"},
		{name: "unknown strategy", args: []string{"--strategy", "xgboost"}, wantErr: "UNKNOWN_STRATEGY"},
		{name: "trained model without manifest", args: []string{"--strategy", "trained_tree"}, wantErr: "MODEL_ARTIFACT_MISSING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--config", cfg, "score"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScore_TrainedStrategyFromManifest(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "--manifest", sampleManifest, "score", "--strategy", "Decision Tree")
	require.NoError(t, err)

	body := decode(t, out)
	assert.Equal(t, "trained_tree", body["strategy"])
	assert.Equal(t, "Approved", body["decision"])
	assert.InDelta(t, 230.0/285.0, body["probability"], 1e-12)
}

func TestScorePersistAndList(t *testing.T) {
	cfg := writeConfig(t)
	now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	out, err := run(t, "--config", cfg, "score", "--persist", "--strategy", "manual_logistic")
	require.NoError(t, err)

	body := decode(t, out)
	record, ok := body["record"].(map[string]interface{})
	require.True(t, ok, out)
	assert.NotEmpty(t, record["RecordId"])
	assert.Equal(t, "2024-03-01T09:30:00Z", record["CreatedAt"])

	out, err = run(t, "--config", cfg, "records", "list")
	require.NoError(t, err)
	list := decode(t, out)
	assert.Equal(t, "loan_applications", list["collection"])
	assert.Equal(t, 1.0, list["count"])

	out, err = run(t, "--config", cfg, "records", "list", "--collection", "archive")
	require.NoError(t, err)
	list = decode(t, out)
	assert.Equal(t, 0.0, list["count"])
	assert.Equal(t, []interface{}{}, list["records"])
}

func TestManifestValidate(t *testing.T) {
	out, err := run(t, "manifest", "validate", sampleManifest)
	require.NoError(t, err)

	report := decode(t, out)
	assert.Equal(t, true, report["valid"])
	assert.Equal(t, 15.0, report["features"])
	assert.ElementsMatch(t,
		[]interface{}{"manual_logistic", "manual_tree", "trained_logistic", "trained_tree"},
		report["strategies"])
}

func TestManifestValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"x","featureNames":"Dependents"}`), 0o600))

	out, err := run(t, "manifest", "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema violations")
	assert.NotEmpty(t, decode(t, out)["violations"])

	_, err = run(t, "manifest", "validate")
	require.Error(t, err)
}
