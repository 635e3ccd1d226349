// internal/workers/credit/store-applicant-record/handler.go
package storeapplicantrecord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/validation"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/records"
	"credit-risk-workers/internal/scoring"
)

const (
	TaskType = "store-applicant-record"
)

var (
	ErrInvalidInput  = errors.New("INVALID_INPUT")
	ErrMissingResult = errors.New("MISSING_RESULT")
	ErrAppendFailed  = errors.New("APPEND_FAILED")
)

var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("credit-risk-workers/"+TaskType))

// RecordIDForJob derives the record id from the job key, so every retry of
// a job appends under the same id.
func RecordIDForJob(jobKey int64) string {
	return uuid.NewSHA1(recordNamespace, []byte(strconv.FormatInt(jobKey, 10))).String()
}

type Handler struct {
	config       *Config
	store        records.Store
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, store records.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := inputFromJob(job)
	if err != nil {
		return h.failJob(client, job, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		return h.failJob(client, job, err)
	}

	return h.completeJob(client, job, output)
}

func inputFromJob(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, fmt.Errorf("%w: parse variables: %v", ErrInvalidInput, err)
	}
	if input.RecordID == "" {
		input.RecordID = RecordIDForJob(job.Key)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	attrs, vr, err := validation.DecodeApplicant(input.Applicant)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !vr.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, vr.Error())
	}

	result, err := h.resolveResult(input, attrs)
	if err != nil {
		return nil, err
	}

	collection := input.Collection
	if collection == "" {
		collection = h.config.Collection
	}
	if collection == "" {
		collection = records.DefaultCollection
	}

	rec := scoring.AssembleRecord(attrs, result)
	rec.RecordID = input.RecordID
	rec = records.Stamp(rec, h.now())

	if err := h.store.Append(ctx, collection, rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAppendFailed, err)
	}

	h.logger.Info("applicant record stored", map[string]interface{}{
		"recordId":   rec.RecordID,
		"collection": collection,
		"decision":   rec.Prediction,
		"score":      rec.CreditScore,
	})

	return &Output{
		RecordID:   rec.RecordID,
		Collection: collection,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

// resolveResult rebuilds the scoring result from its probability so the
// stored decision, score and explanation are always consistent with it.
func (h *Handler) resolveResult(input *Input, attrs models.ApplicantAttributes) (scoring.Result, error) {
	src := input.Result
	if src == nil {
		src = &ScoreResult{
			Probability: input.Probability,
			Decision:    input.Decision,
			Score:       input.Score,
		}
	}
	strategy := src.Strategy
	if strategy == "" {
		strategy = input.Strategy
	}

	if src.Probability == nil {
		return scoring.Result{}, fmt.Errorf("%w: probability is required", ErrMissingResult)
	}
	p := *src.Probability
	if math.IsNaN(p) || p < 0 || p > 1 {
		return scoring.Result{}, fmt.Errorf("%w: probability %v outside [0, 1]", ErrInvalidInput, p)
	}

	id, err := scoring.ParseStrategyID(strategy)
	if err != nil {
		return scoring.Result{}, err
	}

	result := scoring.NewResult(id, p, attrs)

	if src.Decision != "" && src.Decision != string(result.Decision) {
		h.logger.Warn("supplied decision disagrees with probability", map[string]interface{}{
			"supplied":    src.Decision,
			"derived":     result.Decision,
			"probability": p,
		})
	}
	if src.Score != nil && *src.Score != result.Score {
		h.logger.Warn("supplied score disagrees with probability", map[string]interface{}{
			"supplied":    *src.Score,
			"derived":     result.Score,
			"probability": p,
		})
	}

	return result, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return h.failJob(client, job, apperrors.NewExternalServiceError("zeebe", err))
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return apperrors.NewExternalServiceError("zeebe", err)
	}

	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":   job.Key,
		"recordId": output.RecordID,
	})
	return nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) error {
	stdErr := classify(err)
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
	return stdErr
}

func classify(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, ErrAppendFailed):
		return apperrors.NewPersistenceFailureError("append", err)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingResult):
		return apperrors.NewApplicantValidationFailedError(err.Error())
	default:
		return apperrors.Normalize(err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
