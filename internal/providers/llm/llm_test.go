package llm

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestVertexModelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"google/gemini-2.0-flash-001", "gemini-2.0-flash-001"},
		{"gemini-2.5-flash", "gemini-2.5-flash"},
		{"", "gemini-2.0-flash-001"},
	}
	for _, tt := range tests {
		if got := vertexModelName(tt.in); got != tt.want {
			t.Errorf("vertexModelName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToChatMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Text: "be helpful"},
		{Role: RoleUser, Text: "question"},
		{Role: RoleAssistant, Text: "answer"},
		{Role: Role("unknown"), Text: "fallback"},
	}

	converted := toChatMessages(messages)
	if len(converted) != 4 {
		t.Fatalf("got %d messages, want 4", len(converted))
	}

	wantRoles := []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleUser,
	}
	for i, want := range wantRoles {
		if converted[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, converted[i].Role, want)
		}
	}
	if converted[0].Content != "be helpful" {
		t.Errorf("content not carried over: %q", converted[0].Content)
	}
}
