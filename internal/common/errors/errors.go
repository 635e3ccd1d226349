// internal/common/errors/errors.go
package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeConfiguration             ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeUnknownStrategy           ErrorCode = "UNKNOWN_STRATEGY"
	ErrCodeModelArtifactMissing      ErrorCode = "MODEL_ARTIFACT_MISSING"
	ErrCodeApplicantValidationFailed ErrorCode = "APPLICANT_VALIDATION_FAILED"
	ErrCodeSchemaDivergence          ErrorCode = "SCHEMA_DIVERGENCE"

	ErrCodePersistenceFailure       ErrorCode = "PERSISTENCE_FAILURE"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeRecordListFailed         ErrorCode = "RECORD_LIST_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// BPMNError is what gets thrown back to the process engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Scoring engine is misconfigured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownStrategyError(strategy string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownStrategy,
		Message:   "Unknown scoring strategy",
		Details:   fmt.Sprintf("strategy: %s", strategy),
		Retryable: false,
		Metadata:  map[string]interface{}{"strategy": strategy},
		Timestamp: time.Now().UTC(),
	}
}

func NewModelArtifactMissingError(strategy string) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelArtifactMissing,
		Message:   "Model artifact required by strategy is not loaded",
		Details:   fmt.Sprintf("strategy: %s", strategy),
		Retryable: false,
		Metadata:  map[string]interface{}{"strategy": strategy},
		Timestamp: time.Now().UTC(),
	}
}

func NewApplicantValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicantValidationFailed,
		Message:   "Applicant attributes failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPersistenceFailureError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailure,
		Message:   "Record store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewRecordListFailedError(collection string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordListFailed,
		Message:   "Listing records failed",
		Details:   fmt.Sprintf("collection: %s, error: %s", collection, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("%s call failed", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("%s timed out", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeConfiguration:             "CONFIGURATION_ERROR",
	ErrCodeUnknownStrategy:           "CONFIGURATION_ERROR",
	ErrCodeModelArtifactMissing:      "CONFIGURATION_ERROR",
	ErrCodeApplicantValidationFailed: "APPLICANT_VALIDATION_FAILED",
	ErrCodePersistenceFailure:        "PERSISTENCE_FAILURE",
	ErrCodeDatabaseConnectionFailed:  "PERSISTENCE_FAILURE",
	ErrCodeRecordListFailed:          "PERSISTENCE_FAILURE",
	ErrCodeNotificationSendFailed:    "NOTIFICATION_SEND_FAILED",
	ErrCodeExternalService:           "EXTERNAL_SERVICE_ERROR",
	ErrCodeTimeout:                   "TIMEOUT",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailure,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeRecordListFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout:
		return 2

	default:
		// configuration and validation problems never fix themselves
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIGURATION") || strings.Contains(codeStr, "STRATEGY") || strings.Contains(codeStr, "ARTIFACT"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "SCHEMA"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "RECORD"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
