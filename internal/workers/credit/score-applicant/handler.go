// internal/workers/credit/score-applicant/handler.go
package scoreapplicant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/common/validation"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/scoring"
)

const (
	TaskType = "score-applicant"
)

var (
	ErrInvalidInput     = errors.New("INVALID_INPUT")
	ErrInvalidApplicant = errors.New("INVALID_APPLICANT")
)

// Scorer is the part of the scoring engine the worker needs.
type Scorer interface {
	Score(strategy string, attrs models.ApplicantAttributes) (scoring.Result, error)
}

type Handler struct {
	config       *Config
	scorer       Scorer
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, scorer Scorer, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scorer:       scorer,
		obs:          obs,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return h.failJob(client, job, fmt.Errorf("%w: parse variables: %v", ErrInvalidInput, err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		return h.failJob(client, job, err)
	}

	return h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	attrs, vr, err := validation.DecodeApplicant(input.Applicant)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !vr.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidApplicant, vr.Error())
	}

	strategy := input.Strategy
	if strategy == "" {
		strategy = h.config.DefaultStrategy
	}

	result, err := h.scorer.Score(strategy, attrs)
	if err != nil {
		return nil, err
	}

	metrics.ApplicantsScored.WithLabelValues(string(result.Strategy), string(result.Decision)).Inc()
	metrics.ApprovalProbability.WithLabelValues(string(result.Strategy)).Observe(result.Probability)
	h.obs.RecordScore(ctx, string(result.Strategy), string(result.Decision))

	h.logger.Info("applicant scored", map[string]interface{}{
		"strategy":    result.Strategy,
		"probability": result.Probability,
		"decision":    result.Decision,
		"score":       result.Score,
	})

	return &Output{
		Probability: result.Probability,
		Decision:    string(result.Decision),
		Score:       result.Score,
		Explanation: result.Explanation,
		Strategy:    string(result.Strategy),
	}, nil
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
		"jobKey": job.Key,
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
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidApplicant):
		return apperrors.NewApplicantValidationFailedError(err.Error())
	default:
		return apperrors.Normalize(err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
