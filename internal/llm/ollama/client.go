// Package ollama runs chat completions against a local Ollama daemon through
// its OpenAI-compatible API.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/eugenenazirov/docqa/internal/qa"
)

// ErrEmptyResponse is returned when the daemon replies without any choices.
var ErrEmptyResponse = errors.New("ollama returned no choices")

// Ollama ignores the key but the OpenAI client requires one.
const placeholderAPIKey = "ollama"

// Client sends single-turn prompts to one Ollama model.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTemperature overrides the sampling temperature (default 0).
func WithTemperature(t float32) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for model served at host (e.g. "http://localhost:11434").
func New(host, model string, opts ...Option) *Client {
	cfg := openai.DefaultConfig(placeholderAPIKey)
	cfg.BaseURL = strings.TrimRight(host, "/") + "/v1"

	c := &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the Ollama model name.
func (c *Client) Model() string {
	return c.model
}

// Predict sends prompt as a single user message and returns the reply text.
func (c *Client) Predict(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("ollama request", zap.String("model", c.model), zap.Int("prompt_chars", len(prompt)))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: wireTemperature(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("ollama response",
		zap.String("model", c.model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// Func adapts the client to the QA engine's callable model contract.
func (c *Client) Func() qa.ModelFunc {
	return c.Predict
}

// go-openai drops a zero temperature from the payload, which would leave the
// server default in place.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
