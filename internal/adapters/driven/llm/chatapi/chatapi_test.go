package chatapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete_ReturnsMessageContent(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Paris"}}]}`)) //nolint:errcheck
	})

	c := New("testprov", srv.URL, "sk-test", "test-model", 5*time.Second)
	text, err := c.Complete(context.Background(), "capital of France?", driven.GenerateOptions{
		MaxTokens:   128,
		Temperature: 0.2,
	})

	require.NoError(t, err)
	assert.Equal(t, "Paris", text)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
	assert.EqualValues(t, 128, gotBody["max_tokens"])
}

func TestComplete_NoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`)) //nolint:errcheck
	})

	c := New("testprov", srv.URL, "", "m", 5*time.Second)
	_, err := c.Complete(context.Background(), "q", driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestComplete_APIErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`)) //nolint:errcheck
	})

	c := New("testprov", srv.URL, "sk-bad", "m", 5*time.Second)
	_, err := c.Complete(context.Background(), "q", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "testprov")
	assert.Contains(t, err.Error(), "bad key")
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`)) //nolint:errcheck
	})

	c := New("testprov", srv.URL, "", "m", 5*time.Second)
	_, err := c.Complete(context.Background(), "q", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion choices")
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"data":[]}`)) //nolint:errcheck
	})

	c := New("testprov", srv.URL, "", "m", 5*time.Second)
	assert.NoError(t, c.HealthCheck(context.Background()))
}

func TestHealthCheck_Unreachable(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c := New("testprov", srv.URL, "", "m", 5*time.Second)
	err := c.HealthCheck(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}
