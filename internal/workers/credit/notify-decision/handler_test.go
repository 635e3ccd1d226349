// internal/workers/credit/notify-decision/handler_test.go
package notifydecision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc == nil {
		return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
	}
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc == nil {
		return &sns.PublishOutput{MessageId: aws.String("sms-1")}, nil
	}
	return m.PublishFunc(ctx, params, optFns...)
}

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		OnlyOnDenial: true,
		FromEmail:    "decisions@lender.example",
		Timeout:      5 * time.Second,
	}
}

func createTestInput(decision string) *Input {
	return &Input{
		RecordID: "rec-001",
		Decision: decision,
		Score:    690,
		Email:    "applicant@example.com",
		Phone:    "+15550100",
	}
}

func newTestHandler(t *testing.T, cfg *Config, sesMock *MockSESService, snsMock *MockSNSService) *Handler {
	h := NewHandler(cfg, sesMock, snsMock, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) }
	return h
}

func TestHandler_Execute_Channels(t *testing.T) {
	tests := []struct {
		name       string
		config     func(*Config)
		input      *Input
		wantStatus string
		wantEmail  int
		wantSMS    int
	}{
		{
			name:       "approved sends email only",
			input:      createTestInput("Approved"),
			wantStatus: StatusSent,
			wantEmail:  1,
		},
		{
			name:       "denied sends email and sms",
			input:      createTestInput("Denied"),
			wantStatus: StatusSent,
			wantEmail:  1,
			wantSMS:    1,
		},
		{
			name:       "sms on every decision",
			config:     func(c *Config) { c.OnlyOnDenial = false },
			input:      createTestInput("Approved"),
			wantStatus: StatusSent,
			wantEmail:  1,
			wantSMS:    1,
		},
		{
			name:       "all channels disabled",
			config:     func(c *Config) { c.EmailEnabled = false; c.SMSEnabled = false },
			input:      createTestInput("Denied"),
			wantStatus: StatusDisabled,
		},
		{
			name:       "no contact details",
			input:      &Input{RecordID: "rec-002", Decision: "Denied", Score: 396},
			wantStatus: StatusDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			if tt.config != nil {
				tt.config(cfg)
			}
			sesMock := &MockSESService{}
			snsMock := &MockSNSService{}
			h := newTestHandler(t, cfg, sesMock, snsMock)

			output, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, output.Status)
			assert.NotEmpty(t, output.NotificationID)
			assert.Equal(t, "2024-05-02T08:00:00Z", output.SentAt)
			assert.Len(t, sesMock.calls, tt.wantEmail)
			assert.Len(t, snsMock.calls, tt.wantSMS)
			assert.Len(t, output.Channels, tt.wantEmail+tt.wantSMS)
		})
	}
}

func TestHandler_Execute_EmailContent(t *testing.T) {
	sesMock := &MockSESService{}
	h := newTestHandler(t, createTestConfig(), sesMock, &MockSNSService{})

	_, err := h.Execute(context.Background(), createTestInput("Approved"))
	require.NoError(t, err)
	require.Len(t, sesMock.calls, 1)

	sent := sesMock.calls[0]
	assert.Equal(t, "decisions@lender.example", aws.ToString(sent.Source))
	assert.Equal(t, []string{"applicant@example.com"}, sent.Destination.ToAddresses)
	assert.Equal(t, "Loan application Approved", aws.ToString(sent.Message.Subject.Data))
	assert.Contains(t, aws.ToString(sent.Message.Body.Text.Data), "Credit score: 690")
	assert.Contains(t, aws.ToString(sent.Message.Body.Text.Data), "rec-001")
}

func TestHandler_Execute_SendFailures(t *testing.T) {
	tests := []struct {
		name    string
		sesErr  error
		snsErr  error
		wantErr error
	}{
		{name: "email", sesErr: errors.New("throttled"), wantErr: ErrEmailFailed},
		{name: "sms", snsErr: errors.New("invalid parameter"), wantErr: ErrSMSFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sesMock := &MockSESService{SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				return &ses.SendEmailOutput{}, tt.sesErr
			}}
			snsMock := &MockSNSService{PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
				return &sns.PublishOutput{}, tt.snsErr
			}}
			h := newTestHandler(t, createTestConfig(), sesMock, snsMock)

			_, err := h.Execute(context.Background(), createTestInput("Denied"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))

			stdErr := classify(err)
			assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
			assert.True(t, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_InvalidDecision(t *testing.T) {
	h := newTestHandler(t, createTestConfig(), &MockSESService{}, &MockSNSService{})

	_, err := h.Execute(context.Background(), createTestInput("Maybe"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, classify(err).Retryable)
}

func TestHandler_Execute_NilClients(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput("Denied"))
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
}
