package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

func NewOpenAIGenerator(apiKey string, model string, maxTokens int, temperature float64, timeout time.Duration, logger *zap.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   g.maxTokens,
			Temperature: float32(g.temperature),
		},
	)

	if err != nil {
		if isPolicyRejection(err) {
			g.logger.Warn("Generation rejected by content policy", zap.Error(err))
			return "", ErrBlocked
		}
		g.logger.Error("Failed to get model response", zap.Error(err))
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmpty
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		g.logger.Warn("Generation truncated by content filter")
		return "", ErrBlocked
	}

	answer := strings.TrimSpace(choice.Message.Content)
	if answer == "" {
		return "", ErrEmpty
	}

	return answer, nil
}

func isPolicyRejection(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if code, ok := apiErr.Code.(string); ok && strings.Contains(code, "content_policy") {
		return true
	}
	return apiErr.Type == "invalid_request_error" && strings.Contains(apiErr.Message, "content policy")
}
