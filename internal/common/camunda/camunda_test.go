package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
)

type handlerFunc func(worker.JobClient, entities.Job) error

func (f handlerFunc) Handle(client worker.JobClient, job entities.Job) error { return f(client, job) }

func testJob(key int64) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: key, Type: "instrument-test", Retries: 3}}
}

func TestInstrument_CountsOutcomes(t *testing.T) {
	const taskType = "instrument-test"
	log := logger.NewTestLogger(t)

	completedBefore := testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType))
	failedBefore := testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, string(apperrors.ErrCodePersistenceFailure)))

	ok := Instrument(taskType, handlerFunc(func(worker.JobClient, entities.Job) error { return nil }), log, nil)
	ok(nil, testJob(1))

	failing := Instrument(taskType, handlerFunc(func(worker.JobClient, entities.Job) error {
		return apperrors.NewPersistenceFailureError("append", errors.New("disk full"))
	}), log, nil)
	failing(nil, testJob(2))

	assert.Equal(t, completedBefore+1, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, string(apperrors.ErrCodePersistenceFailure))))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}

func TestInstrument_UnclassifiedErrorIsInternal(t *testing.T) {
	const taskType = "instrument-internal"
	before := testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, string(apperrors.ErrCodeInternal)))

	h := Instrument(taskType, handlerFunc(func(worker.JobClient, entities.Job) error {
		return errors.New("boom")
	}), logger.NewNoOpLogger(), nil)
	h(nil, testJob(3))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, string(apperrors.ErrCodeInternal))))
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"broken pipe", true},
		{"rpc error: code = NotFound desc = no job", false},
		{"permission denied", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.err)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		name string
		err  string
		code apperrors.ErrorCode
	}{
		{"timeout", "context deadline exceeded", apperrors.ErrCodeTimeout},
		{"auth", "rpc error: code = Unauthenticated desc = unauthenticated", apperrors.ErrCodeConfiguration},
		{"other", "connection refused", apperrors.ErrCodeExternalService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapZeebeError(errors.New(tt.err), "topology", 2)
			std := apperrors.Normalize(err)
			assert.Equal(t, tt.code, std.Code)
		})
	}
}

func TestExecuteWithRetry(t *testing.T) {
	c := &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}}}

	calls := 0
	out, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("unavailable")
		}
		return "ok", nil
	}, "topology", logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("invalid argument")
	}, "topology", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, apperrors.ErrCodeExternalService, apperrors.Normalize(err).Code)
}

func TestBackoff(t *testing.T) {
	rc := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoff(rc, 0))
	assert.Equal(t, 4*time.Second, backoff(rc, 2))
	assert.Equal(t, 5*time.Second, backoff(rc, 3))
}
