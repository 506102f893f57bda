package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/openai"
)

func fastRetry(maxRetries int) llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1.0,
	}
}

func TestGenerateTextSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Zero(t, req.Temperature)
		assert.Equal(t, 512, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"A finding."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := openai.NewClient("test-key", "gpt-4o-mini")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry(0))

	text, err := client.GenerateText(context.Background(), "system prompt", "user prompt", 512, 0)
	require.NoError(t, err)
	assert.Equal(t, "A finding.", text)
}

func TestGenerateTextAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := openai.NewClient("bad-key", "gpt-4o-mini")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry(0))

	_, err := client.GenerateText(context.Background(), "s", "u", 10, 0)
	require.Error(t, err)

	var apiErr *llmhttp.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, apiErr.Type)
	assert.False(t, apiErr.Retryable)
	assert.Contains(t, apiErr.Message, "Invalid API key")
}

func TestGenerateTextRetriesServiceUnavailable(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	client := openai.NewClient("test-key", "gpt-4o-mini")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry(2))

	text, err := client.GenerateText(context.Background(), "s", "u", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := openai.NewClient("test-key", "gpt-4o-mini")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry(0))

	_, err := client.GenerateText(context.Background(), "s", "u", 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGenerateTextRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer server.Close()

	client := openai.NewClient("test-key", "gpt-4o-mini")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry(0))

	_, err := client.GenerateText(context.Background(), "s", "u", 10, 0)
	require.Error(t, err)

	var apiErr *llmhttp.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, llmhttp.ErrTypeRateLimit, apiErr.Type)
	assert.True(t, apiErr.Retryable)
}
