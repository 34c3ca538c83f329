package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func newTestClient(url, model string) *Client {
	return NewClient(Config{APIKey: "test-key", Model: model, BaseURL: url + "/v1"})
}

func TestGetAdvisory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.Equal(t, defaultMaxTokens, body.MaxTokens)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "You are an SME financial advisor.", body.Messages[0].Content)
		assert.Contains(t, body.Messages[1].Content, "Industry: Retail\nLanguage: English")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("  Healthy business.  "))
	}))
	defer ts.Close()

	got, err := newTestClient(ts.URL, "test-model").GetAdvisory(context.Background(), advisory.Request{
		Financials: map[string]any{"cashFlow": 100},
		Industry:   "Retail",
	})
	require.NoError(t, err)
	assert.Equal(t, "Healthy business.", got)
}

func TestGetAdvisory_ReasoningModelUsesMaxCompletionTokens(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "max_tokens")
		assert.EqualValues(t, defaultMaxTokens, body["max_completion_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("ok"))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL, "openai/o3-mini").GetAdvisory(context.Background(), advisory.Request{Industry: "Retail"})
	require.NoError(t, err)
}

func TestGetAdvisory_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   error
		quota  bool
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   map[string]any{"error": map[string]any{"message": "rate limited", "type": "rate_limit"}},
			want:   advisory.ErrUpstreamError,
			quota:  true,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   map[string]any{"error": map[string]any{"message": "boom", "type": "server_error"}},
			want:   advisory.ErrUpstreamError,
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   map[string]any{"id": "x", "choices": []any{}},
			want:   advisory.ErrUpstreamMalformed,
		},
		{
			name:   "empty content",
			status: http.StatusOK,
			body:   completion("   "),
			want:   advisory.ErrUpstreamMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer ts.Close()

			_, err := newTestClient(ts.URL, "test-model").GetAdvisory(context.Background(), advisory.Request{Industry: "Retail"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.quota, errorsIsQuota(err))
		})
	}
}

func TestGetAdvisory_Unavailable(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := ts.URL
		ts.Close()

		_, err := newTestClient(url, "test-model").GetAdvisory(context.Background(), advisory.Request{Industry: "Retail"})
		assert.ErrorIs(t, err, advisory.ErrUpstreamUnavailable)
	})

	t.Run("deadline", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := newTestClient(ts.URL, "test-model").GetAdvisory(ctx, advisory.Request{Industry: "Retail"})
		assert.ErrorIs(t, err, advisory.ErrUpstreamUnavailable)
	})
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o1-preview"))
	assert.True(t, isReasoningModel("openai/gpt-5-mini"))
	assert.False(t, isReasoningModel("anthropic/claude-3.5-sonnet"))
	assert.False(t, isReasoningModel("gpt-4o"))
}

func errorsIsQuota(err error) bool {
	return errors.Is(err, advisory.ErrQuotaExceeded)
}
