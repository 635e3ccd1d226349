package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: credit-risk-workers
records:
  backend: sqlite
workers:
  score-applicant:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "loan_applications", cfg.Records.Collection)
	assert.Equal(t, 5000, cfg.Records.Timeout)
	assert.Equal(t, filepath.Join("data", "records.db"), cfg.Database.SQLite.Path)
	assert.Equal(t, "manual_tree", cfg.Scoring.DefaultStrategy)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 60, cfg.HTTP.RateLimit.RequestsPerMinute)
	assert.Equal(t, 60, cfg.HTTP.RateLimit.Burst)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "credit-risk-workers", cfg.Observability.ServiceName)

	w := cfg.Workers["score-applicant"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_EnvExpansionAndOverride(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")
	t.Setenv("RECORDS_COLLECTION", "applicants_eu")

	path := writeConfig(t, `
records:
  backend: postgres
  collection: loan_applications
database:
  postgres:
    host: localhost
    database: credit
    user: credit
    password: ${TEST_PG_PASSWORD}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, "applicants_eu", cfg.Records.Collection)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "dbname=credit")
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "postgres backend without host",
			body: `
records:
  backend: postgres
`,
			wantErr: "database.postgres.host is required",
		},
		{
			name: "redis backend without address",
			body: `
records:
  backend: redis
`,
			wantErr: "database.redis.address is required",
		},
		{
			name: "elasticsearch backend without address",
			body: `
records:
  backend: elasticsearch
`,
			wantErr: "database.elasticsearch.addresses or url is required",
		},
		{
			name: "unknown backend",
			body: `
records:
  backend: firebase
`,
			wantErr: `records.backend "firebase" is not supported`,
		},
		{
			name: "camunda enabled without broker",
			body: `
camunda:
  enabled: true
`,
			wantErr: "camunda.broker_address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"notify-decision": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "notify-decision"))
	assert.True(t, IsWorkerEnabled(cfg, "score-applicant"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "notify-decision").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "score-applicant").MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
