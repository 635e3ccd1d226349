// internal/workers/credit/notify-decision/handler.go
package notifydecision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/scoring"
)

const (
	TaskType = "notify-decision"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
	ErrEmailFailed  = errors.New("EMAIL_SEND_FAILED")
	ErrSMSFailed    = errors.New("SMS_SEND_FAILED")
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config       *Config
	sesClient    SESService
	snsClient    SNSService
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
	now          func() time.Time
}

// NewHandler takes the SES and SNS clients, usually *ses.Client and
// *sns.Client. Either may be nil when its channel is disabled.
func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sesClient:    sesClient,
		snsClient:    snsClient,
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
	decision := scoring.Decision(input.Decision)
	if decision != scoring.Approved && decision != scoring.Denied {
		return nil, fmt.Errorf("%w: decision %q", ErrInvalidInput, input.Decision)
	}

	output := &Output{
		NotificationID: uuid.NewString(),
		Status:         StatusDisabled,
		Channels:       []string{},
	}

	if h.config.EmailEnabled && h.sesClient != nil && input.Email != "" {
		if err := h.sendEmail(ctx, input); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmailFailed, err)
		}
		output.Channels = append(output.Channels, ChannelEmail)
	}

	if h.shouldSendSMS(input, decision) {
		if err := h.sendSMS(ctx, input); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSMSFailed, err)
		}
		output.Channels = append(output.Channels, ChannelSMS)
	}

	if len(output.Channels) > 0 {
		output.Status = StatusSent
	}
	output.SentAt = h.now().UTC().Format(time.RFC3339)

	h.logger.Info("decision notification processed", map[string]interface{}{
		"recordId":       input.RecordID,
		"notificationId": output.NotificationID,
		"status":         output.Status,
		"channels":       output.Channels,
	})

	return output, nil
}

func (h *Handler) shouldSendSMS(input *Input, decision scoring.Decision) bool {
	if !h.config.SMSEnabled || h.snsClient == nil || input.Phone == "" {
		return false
	}
	return !h.config.OnlyOnDenial || decision == scoring.Denied
}

func (h *Handler) sendEmail(ctx context.Context, input *Input) error {
	subject := fmt.Sprintf("Loan application %s", input.Decision)
	body := fmt.Sprintf(
		"Your loan application has been %s.\nCredit score: %d\nReference: %s\n",
		input.Decision, input.Score, input.RecordID,
	)

	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(h.config.FromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{input.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, input *Input) error {
	message := fmt.Sprintf("Your loan application was %s (score %d). Ref %s",
		input.Decision, input.Score, input.RecordID)

	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(input.Phone),
		Message:     aws.String(message),
	})
	return err
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
	case errors.Is(err, ErrEmailFailed):
		return apperrors.NewNotificationSendFailedError(ChannelEmail, err)
	case errors.Is(err, ErrSMSFailed):
		return apperrors.NewNotificationSendFailedError(ChannelSMS, err)
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewApplicantValidationFailedError(err.Error())
	default:
		return apperrors.Normalize(err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
