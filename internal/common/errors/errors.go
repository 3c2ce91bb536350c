// Package errors provides the standardized error taxonomy for the intake
// and review pipeline.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Client-visible validation and lookup failures.
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidStatus        ErrorCode = "INVALID_STATUS"
	ErrCodeDuplicateApplication ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeJobNotAccepting      ErrorCode = "JOB_NOT_ACCEPTING_APPLICATIONS"
	ErrCodeMissingDocument      ErrorCode = "MISSING_DOCUMENT"

	// Infrastructure failures that abort a request.
	ErrCodeStorageFailure  ErrorCode = "STORAGE_FAILURE"
	ErrCodeDatabaseFailure ErrorCode = "DATABASE_FAILURE"

	// Best-effort failures. Logged, never surfaced to a caller.
	ErrCodeExtractionFailure      ErrorCode = "EXTRACTION_FAILURE"
	ErrCodeScoringFailure         ErrorCode = "SCORING_FAILURE"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	// Interview recording processing failures (reviewer-visible).
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, or empty string when the chain
// carries no StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNotFoundError creates a non-retryable lookup error. Out-of-scope
// records use the same code as absent ones: invisible, not forbidden.
func NewNotFoundError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStatusError creates a non-retryable status validation error.
func NewInvalidStatusError(status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStatus,
		Message:   "Invalid status",
		Details:   fmt.Sprintf("status: %s", status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateApplicationError creates a non-retryable duplicate error.
func NewDuplicateApplicationError(jobID, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateApplication,
		Message:   "An application already exists for this job and email",
		Details:   fmt.Sprintf("jobId: %s, email: %s", jobID, email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewJobNotAcceptingError creates a non-retryable job lifecycle error.
func NewJobNotAcceptingError(jobID, status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobNotAccepting,
		Message:   "This job is not accepting applications",
		Details:   fmt.Sprintf("jobId: %s, status: %s", jobID, status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingDocumentError creates a non-retryable missing file error.
func NewMissingDocumentError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingDocument,
		Message:   fmt.Sprintf("A %s file is required", kind),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageFailureError creates a retryable document store error. This is
// the one infrastructure failure that aborts a submission.
func NewStorageFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageFailure,
		Message:   "Document storage failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseFailureError creates a retryable persistence error.
func NewDatabaseFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseFailure,
		Message:   "Database operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionFailureError creates a best-effort extraction error.
func NewExtractionFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailure,
		Message:   "Document text extraction failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScoringFailureError creates a best-effort scoring error.
func NewScoringFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringFailure,
		Message:   "Candidate scoring failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a best-effort notification error.
func NewNotificationSendFailedError(template string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("template: %s, error: %s", template, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranscriptionFailedError creates a retryable transcription error.
func NewTranscriptionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranscriptionFailed,
		Message:   "Audio transcription failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification
// ==========================

// HTTPStatus maps an error code to the status the API layer reports.
// Best-effort codes never reach a response; they map to 500 as a guard.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput,
		ErrCodeInvalidStatus,
		ErrCodeDuplicateApplication,
		ErrCodeJobNotAccepting,
		ErrCodeMissingDocument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsClientVisible reports whether a code is part of the caller-facing
// contract. Best-effort enrichment and notification codes are not.
func IsClientVisible(code ErrorCode) bool {
	switch code {
	case ErrCodeExtractionFailure, ErrCodeScoringFailure, ErrCodeNotificationSendFailed:
		return false
	default:
		return true
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "EXTRACTION") || strings.Contains(codeStr, "SCORING") || strings.Contains(codeStr, "TRANSCRIPTION"):
		return "AI"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "MISSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
