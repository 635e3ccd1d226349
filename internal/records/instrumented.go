package records

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/models"
)

const tracerName = "credit-risk-workers/records"

// instrumented bounds every call with a timeout, records metrics and spans,
// and converts backend errors into StandardErrors.
type instrumented struct {
	next    Store
	backend string
	timeout time.Duration
	logger  logger.Logger
	tracer  trace.Tracer
}

// Instrument wraps a backend store. A zero timeout leaves the caller's
// context deadline alone.
func Instrument(next Store, backend string, timeout time.Duration, log logger.Logger) Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &instrumented{
		next:    next,
		backend: backend,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "records", "backend": backend}),
		tracer:  otel.Tracer(tracerName),
	}
}

func (s *instrumented) start(ctx context.Context, op, collection string) (context.Context, context.CancelFunc, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "records."+op, trace.WithAttributes(
		attribute.String("records.backend", s.backend),
		attribute.String("records.collection", collection),
	))
	if s.timeout <= 0 {
		return ctx, func() {}, span
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, cancel, span
}

func (s *instrumented) observe(op string, started time.Time, span trace.Span, err error) {
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.RecordStoreOperations.WithLabelValues(s.backend, op, status).Inc()
	metrics.RecordStoreDuration.WithLabelValues(s.backend, op).Observe(time.Since(started).Seconds())
}

func (s *instrumented) Append(ctx context.Context, collection string, rec models.ApplicantRecord) error {
	collection = collectionOrDefault(collection)
	ctx, cancel, span := s.start(ctx, "append", collection)
	defer cancel()
	defer span.End()

	started := time.Now()
	err := s.next.Append(ctx, collection, rec)
	s.observe("append", started, span, err)
	if err != nil {
		s.logger.Error("append failed", map[string]interface{}{
			"collection": collection,
			"recordId":   rec.RecordID,
			"error":      err,
		})
		return apperrors.NewPersistenceFailureError("append", err)
	}

	s.logger.Debug("record appended", map[string]interface{}{
		"collection": collection,
		"recordId":   rec.RecordID,
	})
	return nil
}

func (s *instrumented) List(ctx context.Context, collection string) ([]models.ApplicantRecord, error) {
	collection = collectionOrDefault(collection)
	ctx, cancel, span := s.start(ctx, "list", collection)
	defer cancel()
	defer span.End()

	started := time.Now()
	out, err := s.next.List(ctx, collection)
	s.observe("list", started, span, err)
	if err != nil {
		s.logger.Error("list failed", map[string]interface{}{
			"collection": collection,
			"error":      err,
		})
		return nil, apperrors.NewRecordListFailedError(collection, err)
	}

	span.SetAttributes(attribute.Int("records.count", len(out)))
	return out, nil
}

func (s *instrumented) Ping(ctx context.Context) error {
	ctx, cancel, span := s.start(ctx, "ping", "")
	defer cancel()
	defer span.End()

	if err := s.next.Ping(ctx); err != nil {
		span.RecordError(err)
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

func (s *instrumented) Close() error {
	return s.next.Close()
}
