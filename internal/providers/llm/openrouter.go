package llm

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouter streams chat completions through the OpenRouter gateway,
// which exposes an OpenAI-compatible API for many hosted models.
type OpenRouter struct {
	client *openai.Client
}

func NewOpenRouter(apiKey string) (*OpenRouter, error) {
	if apiKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = openRouterBaseURL
	return &OpenRouter{client: openai.NewClientWithConfig(cfg)}, nil
}

func (o *OpenRouter) Close() error { return nil }

func (o *OpenRouter) StreamAnswer(ctx context.Context, model string, messages []Message) (<-chan Chunk, <-chan error) {
	out := make(chan Chunk, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:       model,
			Messages:    toChatMessages(messages),
			MaxTokens:   maxOutputTokens,
			Temperature: temperature,
			Stream:      true,
			StreamOptions: &openai.StreamOptions{
				IncludeUsage: true,
			},
		})
		if err != nil {
			errs <- err
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errs <- err
				return
			}

			if resp.Usage != nil {
				out <- Chunk{Usage: &Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				}}
			}
			for _, choice := range resp.Choices {
				if choice.Delta.Content != "" {
					out <- Chunk{Text: choice.Delta.Content}
				}
			}
		}
	}()

	return out, errs
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Text,
		})
	}
	return converted
}
