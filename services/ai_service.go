package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"petal-chatbot-backend/config"
	"petal-chatbot-backend/utils"
)

// ErrRateLimited is returned when the local limiter refuses an outbound
// call. Callers treat it like any other backend failure and fall back.
var ErrRateLimited = errors.New("generation backend rate limited")

// Completer is the generation backend collaborator. One implementation
// talks to the OpenAI API; tests inject stubs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error)
}

// AIService wraps the OpenAI chat completion API with a bounded timeout and
// a local rate limiter. Every call either returns prose or an error within
// the configured timeout; there is no retry loop.
type AIService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	limiter *utils.RateLimiter
}

// NewAIService builds the service, or returns nil when no API key is
// configured. Callers treat a nil Completer as "backend absent" and use
// deterministic templates instead.
func NewAIService(cfg *config.Config) *AIService {
	if !cfg.AIEnabled() {
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.AI.APIKey)
	if cfg.AI.BaseURL != "" {
		clientConfig.BaseURL = cfg.AI.BaseURL
	}

	return &AIService{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.AI.Model,
		timeout: cfg.AI.Timeout,
		limiter: utils.NewRateLimiter(
			cfg.AI.MinRequestInterval,
			cfg.AI.MaxRequestsPerMinute,
			cfg.AI.MaxRequestsPerDay,
			nil,
		),
	}
}

// Complete sends one chat completion request and returns the text of the
// first choice. An empty completion is reported as an error so callers hit
// their fallback path instead of delivering a blank answer.
func (s *AIService) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error) {
	if !s.limiter.TryAcquire() {
		return "", ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response generated")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("empty response generated")
	}
	return reply, nil
}
