// Package provider adapts hosted text-completion APIs to draw.Completer.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("provider API key not set")
	// ErrEmptyCompletion is returned when the API answers without choices.
	ErrEmptyCompletion = errors.New("provider returned no choices")
)

// Config configures an OpenAI-compatible chat completion client.
type Config struct {
	APIKey       string
	BaseURL      string // empty for the public API
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string

	// RatePerSecond limits requests client-side; zero disables the limit.
	RatePerSecond float64
	Burst         int

	Logger *log.Logger
}

// OpenAI implements draw.Completer over the chat completions API. It is safe
// for concurrent use; the rate limiter is shared across callers.
type OpenAI struct {
	client  *openai.Client
	config  Config
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewOpenAI builds a client from config.
func NewOpenAI(config Config) (*OpenAI, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.Model == "" {
		return nil, errors.New("provider model not set")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var limiter *rate.Limiter
	if config.RatePerSecond > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), burst)
	}

	return &OpenAI{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		limiter: limiter,
		logger:  logger.WithPrefix("openai"),
	}, nil
}

// Complete sends prompt as the user message and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       o.config.Model,
		Temperature: o.config.Temperature,
	}
	if o.config.SystemPrompt != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.config.SystemPrompt,
		})
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	if o.config.MaxTokens > 0 {
		req.MaxCompletionTokens = o.config.MaxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	o.logger.Debug("Completion received", "model", o.config.Model, "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
