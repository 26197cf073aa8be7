package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClient_RetriesServerErrors tests retry on 5xx responses
func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "temporarily down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(Config{RequestsPerSecond: 1000, Burst: 1000, MaxRetries: 5})

	resp, err := client.Get(context.Background(), server.URL, nil)

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

// TestClient_DoesNotRetryClientErrors tests that 4xx fails immediately
func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{RequestsPerSecond: 1000, Burst: 1000, MaxRetries: 5})

	_, err := client.Get(context.Background(), server.URL, nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Contains(t, statusErr.Body, "bad key")
}

// TestClient_RetriesTooManyRequests tests retry on 429
func TestClient_RetriesTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(Config{RequestsPerSecond: 1000, Burst: 1000, MaxRetries: 3})

	resp, err := client.Get(context.Background(), server.URL, nil)

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, int32(2), calls.Load())
}

// TestClient_AppliesHeaders tests header propagation
func TestClient_AppliesHeaders(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(Config{RequestsPerSecond: 1000, Burst: 1000})

	resp, err := client.Get(context.Background(), server.URL, map[string]string{"Authorization": "Bearer token"})

	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer token", gotAuth)
}

// TestClient_ContextCancelled tests that cancellation aborts the wait
func TestClient_ContextCancelled(t *testing.T) {
	client := NewClient(Config{RequestsPerSecond: 0.001, Burst: 1, MaxRetries: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "http://localhost:1", nil)
	assert.Error(t, err)
}
