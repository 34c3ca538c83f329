package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
)

func message(blocks ...map[string]any) map[string]any {
	return map[string]any{
		"id":          "msg_test_001",
		"type":        "message",
		"role":        "assistant",
		"content":     blocks,
		"model":       DefaultModel,
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
	}
}

func TestGetAdvisory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var body struct {
			Model  string `json:"model"`
			System []struct {
				Text string `json:"text"`
			} `json:"system"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultModel, body.Model)
		require.Len(t, body.System, 1)
		assert.Equal(t, "You are an SME financial advisor.", body.System[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(message(
			map[string]any{"type": "text", "text": "Part one."},
			map[string]any{"type": "text", "text": "Part two."},
		))
	}))
	defer ts.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: ts.URL})
	got, err := c.GetAdvisory(context.Background(), advisory.Request{Industry: "Retail", Language: "Hindi"})
	require.NoError(t, err)
	assert.Equal(t, "Part one.\nPart two.", got)
}

func TestGetAdvisory_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   error
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   map[string]any{"type": "error", "error": map[string]any{"type": "rate_limit_error", "message": "slow down"}},
			want:   advisory.ErrQuotaExceeded,
		},
		{
			name:   "overloaded",
			status: http.StatusInternalServerError,
			body:   map[string]any{"type": "error", "error": map[string]any{"type": "api_error", "message": "Internal server error"}},
			want:   advisory.ErrUpstreamError,
		},
		{
			name:   "no text",
			status: http.StatusOK,
			body:   message(),
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

			c := NewClient(Config{APIKey: "test-key", BaseURL: ts.URL})
			_, err := c.GetAdvisory(context.Background(), advisory.Request{Industry: "Retail"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestGetAdvisory_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: url})
	_, err := c.GetAdvisory(context.Background(), advisory.Request{Industry: "Retail"})
	assert.ErrorIs(t, err, advisory.ErrUpstreamUnavailable)
}
