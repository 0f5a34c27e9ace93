// Package ai talks to an OpenAI-compatible chat completion API.
package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/iliyamo/devvibe-backend/internal/config"
)

// Completion parameters sent with every question.
const (
	SystemPrompt = "You are a helpful assistant for a developer portfolio website. Be concise, clear, and helpful."
	Temperature  = 0.7
	MaxTokens    = 400
)

// Completer answers a single user question.
type Completer interface {
	Complete(ctx context.Context, question string) (string, error)
	Model() string
}

// OpenAI is a Completer backed by the chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a client from cfg.  BaseURL overrides the API endpoint
// for compatible providers.
func NewOpenAI(cfg config.AIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(clientCfg), model: model}
}

func (o *OpenAI) Model() string { return o.model }

// Complete returns the text of the first choice, or "" when the API returns
// no choices.
func (o *OpenAI) Complete(ctx context.Context, question string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
