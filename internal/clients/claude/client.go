// Package claude provides a client for the Anthropic Messages API
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bobmcallan/nivesh/internal/common"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 2048

	jsonSystemPrompt = "Respond with a single JSON object only. Do not wrap it in markdown fences or add commentary."
)

// Client implements the LLMClient interface
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int
	logger    *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens caps the response length
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestOptions passes options through to the SDK, e.g. a base URL for tests
func WithRequestOptions(opts ...option.RequestOption) ClientOption {
	return func(c *Client) {
		c.client = anthropic.NewClient(opts...)
	}
}

// NewClient creates a new Claude client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		logger:    common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider
func (c *Client) Name() string {
	return "claude"
}

// GenerateContent generates text from a prompt
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, "", prompt)
}

// GenerateJSON generates a JSON object from a prompt
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, jsonSystemPrompt, prompt)
}

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("Generating content")

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no content generated")
	}

	return sb.String(), nil
}
