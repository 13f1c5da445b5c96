package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"readiness-workers/internal/common/gateway"
)

type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeTransitionNotFound ErrorCode = "TRANSITION_NOT_FOUND"
	ErrCodeScorePersistFailed ErrorCode = "SCORE_PERSIST_FAILED"
	ErrCodeScoreNotFound      ErrorCode = "SCORE_NOT_FOUND"

	ErrCodeProviderAuthFailed  ErrorCode = "PROVIDER_AUTH_FAILED"
	ErrCodeProviderRateLimited ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderTimeout     ErrorCode = "PROVIDER_TIMEOUT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job input failed validation", details, false)
}

func NewTransitionNotFoundError(transitionID string) *StandardError {
	return newError(ErrCodeTransitionNotFound, "Career transition not found",
		fmt.Sprintf("transitionId: %s", transitionID), false)
}

func NewScoreNotFoundError(transitionID string) *StandardError {
	return newError(ErrCodeScoreNotFound, "No readiness score recorded for transition",
		fmt.Sprintf("transitionId: %s", transitionID), false)
}

func NewScorePersistFailedError(err error) *StandardError {
	return newError(ErrCodeScorePersistFailed, "Readiness score could not be saved", err.Error(), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("index: %s", index), true)
}

func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("index: %s", index), false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeProviderUnavailable, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeProviderTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewAuthenticationError(service, details string) *StandardError {
	return newError(ErrCodeProviderAuthFailed, fmt.Sprintf("Service '%s' rejected credentials", service), details, false)
}

// FromProviderError maps a gateway failure onto the standard taxonomy. Errors
// that are not provider errors become INTERNAL_ERROR.
func FromProviderError(err error) *StandardError {
	var pe *gateway.ProviderError
	if !stderrors.As(err, &pe) {
		return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
	}

	var std *StandardError
	switch pe.Kind {
	case gateway.KindAuth:
		std = NewAuthenticationError(pe.Service, pe.Message)
	case gateway.KindRateLimit:
		std = newError(ErrCodeProviderRateLimited, fmt.Sprintf("Service '%s' rate limit exceeded", pe.Service), pe.Message, true)
		if pe.RetryAfter > 0 {
			std.Metadata = map[string]interface{}{"retryAfterSeconds": int(pe.RetryAfter.Seconds())}
		}
	case gateway.KindTransport:
		std = NewTimeoutError(pe.Service, pe)
	default:
		std = NewExternalServiceError(pe.Service, pe)
	}
	if pe.StatusCode != 0 {
		if std.Metadata == nil {
			std.Metadata = map[string]interface{}{}
		}
		std.Metadata["statusCode"] = pe.StatusCode
	}
	return std
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:                  "INVALID_INPUT",
	ErrCodeTransitionNotFound:            "TRANSITION_NOT_FOUND",
	ErrCodeScorePersistFailed:            "SCORE_PERSIST_FAILED",
	ErrCodeScoreNotFound:                 "SCORE_NOT_FOUND",
	ErrCodeProviderAuthFailed:            "PROVIDER_AUTH_FAILED",
	ErrCodeProviderRateLimited:           "PROVIDER_RATE_LIMITED",
	ErrCodeProviderUnavailable:           "PROVIDER_UNAVAILABLE",
	ErrCodeProviderTimeout:               "PROVIDER_TIMEOUT",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeDatabaseInsertFailed:          "DATABASE_INSERT_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:                 "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeScorePersistFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeProviderUnavailable:
		return 3

	case ErrCodeSearchTimeout,
		ErrCodeProviderTimeout:
		return 2

	case ErrCodeProviderRateLimited:
		return 1

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PROVIDER"):
		return "PROVIDER"
	case strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "SCORE"):
		return "SCORING"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
