package observability

import (
	"context"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"credit-risk-workers/internal/common/config"
)

func TestObservability_MetricsAndSpans(t *testing.T) {
	reg := promclient.NewRegistry()
	recorder := tracetest.NewSpanRecorder()

	obs, err := New(
		config.ObservabilityConfig{ServiceName: "credit-risk-test", TraceSampling: 1},
		reg,
		sdktrace.WithSpanProcessor(recorder),
	)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	ctx, span := obs.StartSpan(context.Background(), "score-applicant", attribute.String("strategy", "manual_tree"))
	obs.RecordScore(ctx, "manual_tree", "Approved")
	obs.RecordJobProcessed(ctx, "score-applicant", "success")
	obs.RecordJobDuration(ctx, "score-applicant", 12*time.Millisecond, "success")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "score-applicant", ended[0].Name())

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "applicants_scored_total")
	assert.Contains(t, names, "jobs_processed_total")
	assert.Contains(t, names, "jobs_duration_milliseconds")
	for _, name := range names {
		assert.NotContains(t, name, ".")
	}
}

func TestObservability_NilReceiver(t *testing.T) {
	var obs *Observability

	ctx, span := obs.StartSpan(context.Background(), "noop")
	obs.RecordScore(ctx, "manual_tree", "Denied")
	obs.RecordJobProcessed(ctx, "t", "success")
	obs.RecordJobDuration(ctx, "t", time.Millisecond, "success")
	span.End()

	assert.NoError(t, obs.Shutdown(context.Background()))
}
