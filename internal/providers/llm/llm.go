package llm

import "context"

// Generation limits shared by all backends.
const (
	maxOutputTokens = 500
	temperature     = 0.7
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role
	Text string
}

// Usage is the token accounting a backend reports for one exchange.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Chunk is one increment of a streamed answer. Usage is non-nil only on
// the chunk that carries the backend's token report, usually the last.
type Chunk struct {
	Text  string
	Usage *Usage
}

type Provider interface {
	// StreamAnswer returns a stream of incremental answer chunks. Both
	// channels are closed when the stream ends; at most one error is sent.
	StreamAnswer(ctx context.Context, model string, messages []Message) (chunks <-chan Chunk, errs <-chan error)
	Close() error
}
