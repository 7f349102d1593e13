// Package errors provides standardized error handling for the matching pipeline.
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
	// Candidate store: covers outages and query deadline expiry alike.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	// Backend chain: one attempt against one backend.
	ErrCodeBackendTimeout       ErrorCode = "BACKEND_TIMEOUT"
	ErrCodeBackendError         ErrorCode = "BACKEND_ERROR"
	ErrCodeAllBackendsExhausted ErrorCode = "ALL_BACKENDS_EXHAUSTED"

	// Query parsing never rejects input; the code exists for observability.
	ErrCodeMalformedQuery ErrorCode = "MALFORMED_QUERY"

	ErrCodeProfileLookupFailed ErrorCode = "PROFILE_LOOKUP_FAILED"

	ErrCodeTemplateValidationFailed ErrorCode = "TEMPLATE_VALIDATION_FAILED"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"

	ErrCodeUnexpectedInternal ErrorCode = "UNEXPECTED_INTERNAL_ERROR"
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
// 2. Degradation Policy
// ==========================

// Disposition describes what the pipeline does when a given error code
// occurs. Nothing in this table turns into a user-facing failure except
// DispositionFailRequest.
type Disposition string

const (
	// Continue with an empty result from the failed collaborator.
	DispositionDegradeEmpty Disposition = "degrade_empty"
	// Move on to the next backend in the chain.
	DispositionAdvanceChain Disposition = "advance_chain"
	// Serve the templated fallback text, success stays true.
	DispositionFallback Disposition = "fallback"
	// Reject the request before the pipeline runs (bad request body).
	DispositionReject Disposition = "reject"
	// success:false envelope with the generic apology.
	DispositionFailRequest Disposition = "fail_request"
)

// GetDisposition returns the pipeline behavior for an error code.
func GetDisposition(code ErrorCode) Disposition {
	switch code {
	case ErrCodeStoreUnavailable,
		ErrCodeProfileLookupFailed,
		ErrCodeMalformedQuery,
		ErrCodeTemplateValidationFailed:
		return DispositionDegradeEmpty

	case ErrCodeBackendTimeout,
		ErrCodeBackendError:
		return DispositionAdvanceChain

	case ErrCodeAllBackendsExhausted:
		return DispositionFallback

	case ErrCodeInvalidRequest:
		return DispositionReject

	default:
		return DispositionFailRequest
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewStoreUnavailableError creates a retryable candidate store error.
func NewStoreUnavailableError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Candidate store unavailable",
		Details:   fmt.Sprintf("store: %s, error: %s", store, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendTimeoutError creates a retryable backend timeout error.
func NewBackendTimeoutError(backend string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendTimeout,
		Message:   "Text generation backend timeout",
		Details:   fmt.Sprintf("backend: %s", backend),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendError creates a retryable backend failure error.
func NewBackendError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendError,
		Message:   "Text generation backend error",
		Details:   fmt.Sprintf("backend: %s, error: %s", backend, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAllBackendsExhaustedError records that every backend in the chain
// failed. The request still succeeds with the fallback text.
func NewAllBackendsExhaustedError(attempts int) *StandardError {
	return &StandardError{
		Code:      ErrCodeAllBackendsExhausted,
		Message:   "All text generation backends failed",
		Details:   fmt.Sprintf("attempts: %d", attempts),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedQueryError creates a non-retryable query observation. The
// parser still returns empty filters; this only feeds logs and metrics.
func NewMalformedQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedQuery,
		Message:   "Query text could not be interpreted",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileLookupFailedError creates a retryable profile lookup error.
func NewProfileLookupFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileLookupFailed,
		Message:   "User profile lookup failed",
		Details:   fmt.Sprintf("userId: %s, error: %s", userID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateValidationFailedError creates a non-retryable template error.
func NewTemplateValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateValidationFailed,
		Message:   "Response template failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Request body failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnexpectedInternalError wraps an error the pipeline did not plan
// for. Full detail stays in logs; callers see only a generic apology.
func NewUnexpectedInternalError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnexpectedInternal,
		Message:   "Unexpected internal error",
		Details:   fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Retryable: false,
		Metadata:  map[string]interface{}{"stage": stage},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeStoreUnavailable,
		ErrCodeBackendTimeout,
		ErrCodeBackendError,
		ErrCodeProfileLookupFailed,
		ErrCodeDatabaseConnectionFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORE"):
		return "STORE"
	case strings.Contains(codeStr, "BACKEND"):
		return "BACKEND"
	case strings.Contains(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.Contains(codeStr, "QUERY"):
		return "QUERY"
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "REQUEST"):
		return "REQUEST"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	default:
		return "OTHER"
	}
}

// LogFields returns the structured log fields for the error's
// observability record. Every degraded path logs exactly one of these.
func (e *StandardError) LogFields() map[string]interface{} {
	fields := map[string]interface{}{
		"errorCode":   string(e.Code),
		"category":    GetErrorCategory(e.Code),
		"disposition": string(GetDisposition(e.Code)),
		"retryable":   e.Retryable,
	}
	if e.Details != "" {
		fields["details"] = e.Details
	}
	for k, v := range e.Metadata {
		fields[k] = v
	}
	return fields
}
