// internal/workers/credit/list-applicant-records/handler.go
package listapplicantrecords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/records"
)

const (
	TaskType = "list-applicant-records"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
	ErrListFailed   = errors.New("LIST_FAILED")
)

type Handler struct {
	config       *Config
	store        records.Store
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, store records.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
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
	collection := input.Collection
	if collection == "" {
		collection = h.config.Collection
	}
	if collection == "" {
		collection = records.DefaultCollection
	}

	list, err := h.store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	if list == nil {
		list = []models.ApplicantRecord{}
	}

	output := &Output{Collection: collection, Count: len(list)}
	if h.config.MaxRecords > 0 && len(list) > h.config.MaxRecords {
		// keep the newest entries
		list = list[len(list)-h.config.MaxRecords:]
		output.Truncated = true
	}
	output.Records = list

	h.logger.Info("records listed", map[string]interface{}{
		"collection": collection,
		"count":      output.Count,
		"truncated":  output.Truncated,
	})

	return output, nil
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
	case errors.Is(err, ErrListFailed):
		return apperrors.NewRecordListFailedError("", err)
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewConfigurationError(err.Error())
	default:
		return apperrors.Normalize(err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
