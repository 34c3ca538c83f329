package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
	"github.com/bryanwahyu/finadvisor/internal/infra/ai"
	"github.com/bryanwahyu/finadvisor/internal/infra/ai/prompt"
)

const (
	DefaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 2048
)

// Config holds the provider settings.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
}

// Client implements advisory.Client on the Messages API.
type Client struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewClient creates a client backed by the SDK. Retries are left to the
// caller's guard, so the SDK's own retry loop is disabled.
func NewClient(cfg Config, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		client:    sdk.NewClient(append(base, opts...)...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *Client) GetAdvisory(ctx context.Context, r advisory.Request) (string, error) {
	language := r.Language
	if language == "" {
		language = advisory.DefaultLanguage
	}
	user, err := prompt.GetUserPrompt(r.Financials, r.Industry, language)
	if err != nil {
		return "", err
	}

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []sdk.TextBlockParam{{Text: prompt.GetSystemPrompt()}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(user))},
	})
	if err != nil {
		return "", ai.Classify(err, statusOf(err), "anthropic: create message")
	}

	var parts []string
	for _, b := range msg.Content {
		if b.Type == "text" && strings.TrimSpace(b.Text) != "" {
			parts = append(parts, b.Text)
		}
	}
	content := strings.TrimSpace(strings.Join(parts, "\n"))
	if content == "" {
		return "", eris.Wrap(advisory.ErrUpstreamMalformed, "anthropic: no text content in message")
	}
	return content, nil
}

func statusOf(err error) int {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
