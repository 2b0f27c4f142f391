// Package gemini is the Google Gemini transport for the advice collaborator.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bobmcallan/nivesh/internal/common"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTemperature = 0.4
)

// Client implements interfaces.LLMClient on the Gemini API.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
	system      string
	logger      *common.Logger
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

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithSystemInstruction sets a persona sent with every request.
func WithSystemInstruction(s string) ClientOption {
	return func(c *Client) {
		c.system = s
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client:      genaiClient,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		logger:      common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Name identifies the provider
func (c *Client) Name() string {
	return "gemini"
}

// GenerateContent returns free text for a prompt.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, "")
}

// GenerateJSON asks for a single JSON object using Gemini's JSON response mode.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, "application/json")
}

func (c *Client) generate(ctx context.Context, prompt, mimeType string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		ResponseMIMEType: mimeType,
	}
	if c.system != "" {
		config.SystemInstruction = genai.NewContentFromText(c.system, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", c.model, err)
	}

	event := c.logger.Debug().Str("model", c.model).Bool("json", mimeType != "")
	if u := result.UsageMetadata; u != nil {
		event = event.Int32("prompt_tokens", u.PromptTokenCount).Int32("total_tokens", u.TotalTokenCount)
	}
	event.Msg("Gemini: content generated")

	return responseText(result)
}

// responseText joins the text parts of the first candidate. A response with
// no text is an error so callers fall back rather than show an empty answer.
func responseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		reason := string(result.Candidates[0].FinishReason)
		return "", fmt.Errorf("gemini returned empty content (finish reason %q)", reason)
	}
	return text, nil
}
