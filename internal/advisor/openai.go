package advisor

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

// OpenAIClient completes conversations through an OpenAI-compatible API.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient builds a client for apiKey. An empty baseURL selects the
// public OpenAI endpoint.
func NewOpenAIClient(apiKey, baseURL, model string, maxTokens int) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, msgs []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  make([]openai.ChatCompletionMessage, 0, len(msgs)),
		MaxTokens: c.maxTokens,
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
