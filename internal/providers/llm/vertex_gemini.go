package llm

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

// VertexGemini streams answers from Gemini models on Vertex AI. Model ids
// arrive in the gateway form ("google/gemini-2.0-flash-001"); the vendor
// prefix is stripped before the call.
type VertexGemini struct {
	client *vertexgenai.Client
}

func NewVertexGemini(ctx context.Context, projectID, location string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}
	return &VertexGemini{client: c}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) StreamAnswer(ctx context.Context, model string, messages []Message) (<-chan Chunk, <-chan error) {
	out := make(chan Chunk, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		m := v.client.GenerativeModel(vertexModelName(model))
		m.SetMaxOutputTokens(maxOutputTokens)
		m.SetTemperature(temperature)

		contents := make([]*vertexgenai.Content, 0, len(messages))
		for _, msg := range messages {
			if msg.Role == RoleSystem {
				m.SystemInstruction = &vertexgenai.Content{
					Parts: []vertexgenai.Part{vertexgenai.Text(msg.Text)},
				}
				continue
			}
			role := "user"
			if msg.Role == RoleAssistant {
				role = "model"
			}
			contents = append(contents, &vertexgenai.Content{
				Role:  role,
				Parts: []vertexgenai.Part{vertexgenai.Text(msg.Text)},
			})
		}
		if len(contents) == 0 {
			return
		}

		chat := m.StartChat()
		chat.History = contents[:len(contents)-1]
		it := chat.SendMessageStream(ctx, contents[len(contents)-1].Parts...)

		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- err
				return
			}

			if resp.UsageMetadata != nil {
				out <- Chunk{Usage: &Usage{
					PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
					CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
					TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
				}}
			}
			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
						out <- Chunk{Text: string(t)}
					}
				}
			}
		}
	}()

	return out, errs
}

func vertexModelName(model string) string {
	if model == "" {
		return "gemini-2.0-flash-001"
	}
	if idx := strings.IndexByte(model, '/'); idx >= 0 {
		return model[idx+1:]
	}
	return model
}
