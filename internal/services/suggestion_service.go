package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/metrics"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/providers/llm"
	pgrepo "github.com/blockscrafting-arch/VoiceCoPilot/internal/repositories/postgres"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/stream"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

const suggestionTimeout = 30 * time.Second

const suggestionSystemPrompt = `Ты помогаешь пользователю в деловых разговорах. В диалоге:
- «Вы» — это пользователь (тому, кому нужен ответ).
- «Собеседник» — клиент или партнёр.

Твоя задача: сформулировать один полноценный ответ пользователя (Вы) собеседнику на последнюю реплику. Длина ответа — оптимальная под вопрос: кратко по сути или развёрнуто, если нужно. Не предлагай варианты и не нумеруй. Только один готовый текст ответа от лица пользователя, без пояснений и преамбул. Только русский язык.`

const suggestionClosing = "Собеседник только что сказал последнее сообщение. Напиши один готовый ответ пользователя (Вы) собеседнику. Только текст ответа, без пояснений."

// suggestionHistoryWindow bounds how much dialogue goes into the prompt.
const suggestionHistoryWindow = 6

type SuggestionService interface {
	// GenerateReply produces one ready-to-say reply for the user based on
	// the recent dialogue. modelOverride, when non-empty, replaces the
	// configured primary model (per-project model selection).
	GenerateReply(ctx context.Context, projectID string, history []ContextEntry, contextText, modelOverride string) (string, error)
	// ListExchanges returns the most recent logged replies for a project.
	// Ownership is the caller's problem; pass a project id already checked
	// against the caller's token.
	ListExchanges(ctx context.Context, projectID string, limit int) ([]models.SuggestionExchange, error)
}

type suggestionService struct {
	provider      llm.Provider
	model         string
	fallbackModel string
	exchanges     pgrepo.ExchangeRepository // optional
	metrics       *metrics.Metrics
	log           *logrus.Entry
}

// NewSuggestionService wires the reply generator. provider may be nil when
// no LLM credentials are configured; generation then fails per request
// instead of blocking startup.
func NewSuggestionService(provider llm.Provider, model, fallbackModel string, exchanges pgrepo.ExchangeRepository, m *metrics.Metrics, log *logrus.Logger) SuggestionService {
	return &suggestionService{
		provider:      provider,
		model:         model,
		fallbackModel: fallbackModel,
		exchanges:     exchanges,
		metrics:       m,
		log:           log.WithField("component", "suggestions"),
	}
}

func (s *suggestionService) GenerateReply(ctx context.Context, projectID string, history []ContextEntry, contextText, modelOverride string) (string, error) {
	const op = "SuggestionService.GenerateReply"

	if s.provider == nil {
		return "", utils.E(utils.CodeUnavailable, op, "no llm provider configured", nil)
	}

	messages := buildSuggestionPrompt(history, contextText)

	primary := s.model
	if modelOverride != "" {
		primary = modelOverride
	}

	usedModel := primary
	text, usage, err := s.complete(ctx, primary, messages)
	if err != nil {
		s.log.WithError(err).WithField("model", primary).Warn("primary model failed, trying fallback")
		usedModel = s.fallbackModel
		text, usage, err = s.complete(ctx, s.fallbackModel, messages)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSuggestion("error")
		}
		return "", utils.E(utils.CodeInternal, op, "failed to generate suggestions", err)
	}

	reply := parseReply(text)
	if s.metrics != nil {
		s.metrics.RecordSuggestion("ok")
	}
	s.logExchange(ctx, projectID, usedModel, reply, usage)
	return reply, nil
}

func (s *suggestionService) ListExchanges(ctx context.Context, projectID string, limit int) ([]models.SuggestionExchange, error) {
	const op = "SuggestionService.ListExchanges"

	if s.exchanges == nil {
		return nil, nil
	}
	rows, err := s.exchanges.ListByProject(ctx, projectID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list suggestion history", err)
	}
	return rows, nil
}

// complete drains one streamed completion into a single string, keeping
// the last usage report the backend sent.
func (s *suggestionService) complete(ctx context.Context, model string, messages []llm.Message) (string, *llm.Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, suggestionTimeout)
	defer cancel()

	chunks, errs := s.provider.StreamAnswer(ctx, model, messages)

	var b strings.Builder
	var usage *llm.Usage
	for chunk := range chunks {
		b.WriteString(chunk.Text)
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}
	if err := <-errs; err != nil {
		return "", nil, err
	}
	return b.String(), usage, nil
}

// logExchange persists the accepted reply for usage accounting. Best
// effort: a storage failure must not break the response.
func (s *suggestionService) logExchange(ctx context.Context, projectID, model, reply string, usage *llm.Usage) {
	if s.exchanges == nil || reply == "" {
		return
	}
	ex := &models.SuggestionExchange{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Model:     model,
		Reply:     reply,
		CreatedAt: time.Now().UTC(),
	}
	if usage != nil {
		if raw, err := json.Marshal(usage); err == nil {
			ex.Usage = datatypes.JSON(raw)
		}
	}
	if err := s.exchanges.Insert(ctx, ex); err != nil {
		s.log.WithError(err).Warn("failed to log suggestion exchange")
	}
}

// buildSuggestionPrompt renders the dialogue window into the two-message
// prompt the reply generator expects.
func buildSuggestionPrompt(history []ContextEntry, contextText string) []llm.Message {
	start := 0
	if len(history) > suggestionHistoryWindow {
		start = len(history) - suggestionHistoryWindow
	}
	lines := make([]string, 0, suggestionHistoryWindow)
	for _, entry := range history[start:] {
		if entry.Speaker == stream.SpeakerOther {
			lines = append(lines, "Собеседник: "+entry.Text)
		} else {
			lines = append(lines, "Вы: "+entry.Text)
		}
	}

	parts := make([]string, 0, 4)
	if contextText != "" {
		parts = append(parts, "Контекст: "+contextText)
	}
	parts = append(parts, "Вот диалог:", strings.Join(lines, "\n"), suggestionClosing)

	return []llm.Message{
		{Role: llm.RoleSystem, Text: suggestionSystemPrompt},
		{Role: llm.RoleUser, Text: strings.Join(parts, "\n\n")},
	}
}

// parseReply keeps the first paragraph when the model returns several.
func parseReply(response string) string {
	raw := strings.TrimSpace(response)
	if raw == "" {
		return ""
	}
	first := strings.TrimSpace(strings.SplitN(raw, "\n\n", 2)[0])
	if first == "" {
		return raw
	}
	return first
}
