// Package ai talks to an OpenAI-compatible chat completion endpoint to
// produce question analyses.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stemsi/quizroom-backend/internal/config"
)

// Generation parameters.
const (
	Temperature = 0.7
	MaxTokens   = 1000
)

var (
	ErrNotConfigured = errors.New("ai: api key not configured")
	ErrEmptyResponse = errors.New("ai: empty completion")
)

// Client generates question analyses.
type Client struct {
	api     *openai.Client
	model   string
	apiKey  string
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient creates a Client from the AI_* configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	ocfg := openai.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		ocfg.BaseURL = strings.TrimRight(cfg.AIBaseURL, "/")
	}

	return &Client{
		api:     openai.NewClientWithConfig(ocfg),
		model:   cfg.AIModel,
		apiKey:  cfg.AIAPIKey,
		timeout: cfg.AITimeout,
		log:     log.With().Str("component", "ai_client").Logger(),
	}
}

// AnalyzeQuestion asks the model for an analysis of one question. The call
// is bounded by the configured timeout regardless of ctx.
func (c *Client) AnalyzeQuestion(ctx context.Context, in QuestionInput) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(in)},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		c.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("Chat completion failed")
		return "", fmt.Errorf("ai: chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("Chat completion succeeded")
	return text, nil
}
