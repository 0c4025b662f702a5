package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRetryClient(maxRetries int) *Client {
	c := NewClient(5*time.Second, maxRetries)
	c.retryDelay = time.Millisecond
	return c
}

func TestDoWithContext_RetriesGatewayStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad gateway", http.StatusBadGateway},
		{"service unavailable", http.StatusServiceUnavailable},
		{"gateway timeout", http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) == 1 {
					http.Error(w, "transient", tt.status)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			req, err := http.NewRequest(http.MethodPost, server.URL, strings.NewReader("a=1"))
			require.NoError(t, err)

			resp, err := newRetryClient(2).DoWithContext(context.Background(), req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, int32(2), attempts.Load())
		})
	}
}

func TestDoWithContext_NoRetryOn400And500(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			http.Error(w, "rejected", status)
		}))

		req, err := http.NewRequest(http.MethodPost, server.URL, nil)
		require.NoError(t, err)

		resp, err := newRetryClient(3).DoWithContext(context.Background(), req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
		server.Close()
	}
}

func TestDoWithContext_ExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodPost, server.URL, nil)
	require.NoError(t, err)

	resp, err := newRetryClient(2).DoWithContext(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// the last response is surfaced for the caller to classify
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDoWithContext_ReplaysBodyOnRetry(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		if len(bodies) == 1 {
			http.Error(w, "transient", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodPost, server.URL, strings.NewReader("token=t&content=record"))
	require.NoError(t, err)

	resp, err := newRetryClient(1).DoWithContext(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Len(t, bodies, 2)
	assert.Equal(t, "token=t&content=record", bodies[0])
	assert.Equal(t, bodies[0], bodies[1])
}

func TestDoWithContext_CancelledBetweenRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(5*time.Second, 3)
	client.retryDelay = 50 * time.Millisecond

	req, err := http.NewRequest(http.MethodPost, server.URL, nil)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = client.DoWithContext(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}
