package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
	}{
		{"api request failed", NewAPIRequestFailedError("record", errors.New("timeout")), ErrCodeAPIRequestFailed, true},
		{"unauthorized", NewAPIUnauthorizedError("bad token"), ErrCodeAPIUnauthorized, false},
		{"response malformed", NewResponseMalformedError("metadata", errors.New("unexpected EOF")), ErrCodeResponseMalformed, false},
		{"metadata invalid", NewMetadataInvalidError("field_name missing"), ErrCodeMetadataInvalid, false},
		{"batch underflow", NewBatchUnderflowError("S1", errors.New("HTTP 500")), ErrCodeBatchUnderflow, false},
		{"cache unavailable", NewCacheUnavailableError(errors.New("connection refused")), ErrCodeCacheUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.Contains(t, tt.err.Error(), string(tt.code))
		})
	}
}

func TestBatchUnderflowError_CarriesSubject(t *testing.T) {
	err := NewBatchUnderflowError("S42", errors.New("HTTP 500"))
	assert.Contains(t, err.Details, "S42")
	assert.Contains(t, err.Details, "HTTP 500")
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		category string
	}{
		{ErrCodeAPIRequestFailed, "TRANSPORT"},
		{ErrCodeResponseMalformed, "TRANSPORT"},
		{ErrCodeMetadataInvalid, "METADATA"},
		{ErrCodeBatchUnderflow, "FETCH"},
		{ErrCodeCacheUnavailable, "CACHE"},
		{ErrorCode("SOMETHING_ELSE"), "OTHER"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.category, GetErrorCategory(tt.code), string(tt.code))
	}
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(&StandardError{Code: ErrCodeBatchTooLarge}))
	assert.True(t, IsFatal(&StandardError{Code: ErrCodeBatchUnderflow}))
	assert.True(t, IsFatal(&StandardError{Code: ErrCodeAPIUnauthorized}))
}
