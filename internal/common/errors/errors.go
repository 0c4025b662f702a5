// Package errors provides standardized error handling for the REDCap client.
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
	ErrCodeAPIRequestFailed  ErrorCode = "API_REQUEST_FAILED"
	ErrCodeAPIUnauthorized   ErrorCode = "API_UNAUTHORIZED"
	ErrCodeResponseMalformed ErrorCode = "RESPONSE_MALFORMED"

	ErrCodeMetadataInvalid ErrorCode = "METADATA_INVALID"
	ErrCodeMetadataEmpty   ErrorCode = "METADATA_EMPTY"

	ErrCodeBatchTooLarge  ErrorCode = "BATCH_TOO_LARGE"
	ErrCodeBatchUnderflow ErrorCode = "BATCH_UNDERFLOW"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
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
// 2. Error Constructors
// ==========================

// NewAPIRequestFailedError creates a retryable transport-level error.
func NewAPIRequestFailedError(content string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAPIRequestFailed,
		Message:   "REDCap API request failed",
		Details:   fmt.Sprintf("content: %s, error: %s", content, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAPIUnauthorizedError creates a non-retryable authorization error.
func NewAPIUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAPIUnauthorized,
		Message:   "REDCap API rejected the token",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseMalformedError creates a non-retryable decode error.
func NewResponseMalformedError(content string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseMalformed,
		Message:   "REDCap API response could not be decoded",
		Details:   fmt.Sprintf("content: %s, error: %s", content, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMetadataInvalidError creates a non-retryable metadata validation error.
func NewMetadataInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMetadataInvalid,
		Message:   "Project metadata failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBatchUnderflowError marks the fatal case where a single-subject request
// is still rejected as oversized and the fetch cannot converge.
func NewBatchUnderflowError(subject string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchUnderflow,
		Message:   "Record batch cannot shrink below one subject",
		Details:   fmt.Sprintf("subject: %s, error: %s", subject, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Metadata cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsFatal reports whether the error should abort a records-tree build.
// Data-consistency findings never travel through this package; they are
// accumulated in the build's error report instead.
func IsFatal(err *StandardError) bool {
	return err.Code != ErrCodeBatchTooLarge
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "API") || strings.Contains(codeStr, "RESPONSE"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "METADATA"):
		return "METADATA"
	case strings.Contains(codeStr, "BATCH"):
		return "FETCH"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
