// Package errors provides standardized error handling for the Brand Score
// worker pipeline and its BPMN integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Technical scan (PageSpeed) errors. The audit orchestrator absorbs all
	// of these into a degraded crawl result; they surface only in logs and
	// in the report-persist audit trail.
	ErrCodeCrawlTimeout      ErrorCode = "CRAWL_TIMEOUT"
	ErrCodeCrawlRateLimited  ErrorCode = "CRAWL_RATE_LIMITED"
	ErrCodeCrawlAuthRejected ErrorCode = "CRAWL_AUTH_REJECTED"
	ErrCodeCrawlFailed       ErrorCode = "CRAWL_FAILED"

	// AI generation errors. Parse and schema failures consume a generation
	// attempt; exhaustion diverts to the fallback synthesizer.
	ErrCodeAIGenerationFailed ErrorCode = "AI_GENERATION_FAILED"
	ErrCodeAIParseFailed      ErrorCode = "AI_PARSE_FAILED"
	ErrCodeAISchemaMismatch   ErrorCode = "AI_SCHEMA_MISMATCH"
	ErrCodeAITimeout          ErrorCode = "AI_TIMEOUT"

	// Report persistence and indexing.
	ErrCodeReportPersistFailed ErrorCode = "REPORT_PERSIST_FAILED"
	ErrCodeDuplicateReport     ErrorCode = "DUPLICATE_REPORT"
	ErrCodeReportIndexFailed   ErrorCode = "REPORT_INDEX_FAILED"

	// Downstream delivery.
	ErrCodeWebhookDeliveryFailed ErrorCode = "WEBHOOK_DELIVERY_FAILED"
	ErrCodeWebhookRejected       ErrorCode = "WEBHOOK_REJECTED"
	ErrCodeEmailSendFailed       ErrorCode = "EMAIL_SEND_FAILED"

	// Job input handling.
	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
)

// StandardError represents a structured application error.
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewCrawlTimeoutError creates a crawl timeout error. The collector retries
// the anonymous tier itself, so the error is not retryable at job level.
func NewCrawlTimeoutError(url string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCrawlTimeout,
		Message:   "Performance scan timed out",
		Details:   fmt.Sprintf("url: %s", url),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCrawlRateLimitedError creates a 429 rate-limit error.
func NewCrawlRateLimitedError(url string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCrawlRateLimited,
		Message:   "Performance provider rate limited the request",
		Details:   fmt.Sprintf("url: %s", url),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCrawlAuthRejectedError creates a 403 credential-rejection error.
func NewCrawlAuthRejectedError(url string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCrawlAuthRejected,
		Message:   "Performance provider rejected the API credential",
		Details:   fmt.Sprintf("url: %s", url),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCrawlFailedError creates a generic crawl failure.
func NewCrawlFailedError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCrawlFailed,
		Message:   "Performance scan failed",
		Details:   fmt.Sprintf("url: %s, error: %s", url, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAIGenerationFailedError creates a retryable generation error.
func NewAIGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAIGenerationFailed,
		Message:   "AI report generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAIParseFailedError creates a retryable parse error; it consumes one
// generation attempt.
func NewAIParseFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAIParseFailed,
		Message:   "AI response was not valid JSON",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAISchemaMismatchError creates a retryable schema-validation error.
func NewAISchemaMismatchError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAISchemaMismatch,
		Message:   "AI response did not match the report schema",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportPersistFailedError creates a retryable database insert error.
func NewReportPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportPersistFailed,
		Message:   "Report insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateReportError creates a non-retryable duplicate-report error.
func NewDuplicateReportError(auditID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateReport,
		Message:   "Report already persisted",
		Details:   fmt.Sprintf("auditId: %s", auditID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportIndexFailedError creates a retryable search-index error.
func NewReportIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportIndexFailed,
		Message:   "Report search indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebhookDeliveryFailedError creates a retryable delivery error (5xx, timeout).
func NewWebhookDeliveryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWebhookDeliveryFailed,
		Message:   "Lead webhook delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebhookRejectedError creates a non-retryable 4xx rejection.
func NewWebhookRejectedError(status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWebhookRejected,
		Message:   "Lead webhook rejected the payload",
		Details:   fmt.Sprintf("status: %d, body: %s", status, body),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailSendFailedError creates a retryable email delivery error.
func NewEmailSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Report email delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputParsingFailedError creates a non-retryable job input error.
func NewInputParsingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable input validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. The codes
// are identical on both sides.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCrawlTimeout:          "CRAWL_TIMEOUT",
	ErrCodeCrawlRateLimited:      "CRAWL_RATE_LIMITED",
	ErrCodeCrawlAuthRejected:     "CRAWL_AUTH_REJECTED",
	ErrCodeCrawlFailed:           "CRAWL_FAILED",
	ErrCodeAIGenerationFailed:    "AI_GENERATION_FAILED",
	ErrCodeAIParseFailed:         "AI_PARSE_FAILED",
	ErrCodeAISchemaMismatch:      "AI_SCHEMA_MISMATCH",
	ErrCodeAITimeout:             "AI_TIMEOUT",
	ErrCodeReportPersistFailed:   "REPORT_PERSIST_FAILED",
	ErrCodeDuplicateReport:       "DUPLICATE_REPORT",
	ErrCodeReportIndexFailed:     "REPORT_INDEX_FAILED",
	ErrCodeWebhookDeliveryFailed: "WEBHOOK_DELIVERY_FAILED",
	ErrCodeWebhookRejected:       "WEBHOOK_REJECTED",
	ErrCodeEmailSendFailed:       "EMAIL_SEND_FAILED",
	ErrCodeInputParsingFailed:    "INPUT_PARSING_FAILED",
	ErrCodeValidationFailed:      "VALIDATION_FAILED",
}

// GetRetryCount returns the recommended job-level retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeReportPersistFailed,
		ErrCodeReportIndexFailed,
		ErrCodeWebhookDeliveryFailed,
		ErrCodeEmailSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeAIGenerationFailed,
		ErrCodeAIParseFailed,
		ErrCodeAISchemaMismatch:
		return 1 // The generator already retried internally

	case ErrCodeAITimeout:
		return 1

	default:
		return 0 // Validation, duplicates, degraded-mode crawl: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
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

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CRAWL"):
		return "SCAN"
	case strings.Contains(codeStr, "AI"):
		return "AI"
	case strings.Contains(codeStr, "REPORT"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "WEBHOOK") || strings.Contains(codeStr, "EMAIL"):
		return "DELIVERY"
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
