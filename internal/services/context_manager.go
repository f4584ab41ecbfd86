package services

import (
	"strings"
	"unicode/utf8"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/stream"
)

const (
	contextMaxHistory = 50
	contextKeepCount  = 20
	contextTopicLimit = 10

	topicSummaryPrefix = "Обсуждались темы: "
)

// ContextEntry is one remembered utterance.
type ContextEntry struct {
	Speaker stream.Speaker
	Text    string
}

// ContextManager keeps a rolling window of the conversation. When the
// window overflows, older entries are collapsed into a one-line topic
// summary so the context string stays bounded. Not safe for concurrent
// use; each session owns its own manager.
type ContextManager struct {
	history    []ContextEntry
	summary    string
	maxHistory int
}

func NewContextManager() *ContextManager {
	return &ContextManager{maxHistory: contextMaxHistory}
}

// Add appends one utterance. Blank text is ignored.
func (m *ContextManager) Add(speaker stream.Speaker, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	m.history = append(m.history, ContextEntry{Speaker: speaker, Text: text})

	keep := contextKeepCount
	if m.maxHistory < keep {
		keep = m.maxHistory
	}
	if len(m.history) > m.maxHistory || (m.summary != "" && len(m.history) > keep) {
		m.trim(keep)
	}
}

// Recent returns up to count of the latest entries, oldest first.
func (m *ContextManager) Recent(count int) []ContextEntry {
	if count <= 0 || len(m.history) == 0 {
		return nil
	}
	if count > len(m.history) {
		count = len(m.history)
	}
	return m.history[len(m.history)-count:]
}

func (m *ContextManager) Len() int { return len(m.history) }

// Summary returns the topic summary of trimmed-away history, empty until
// the first trim.
func (m *ContextManager) Summary() string { return m.summary }

// TopicsSummary condenses everything the manager has seen, including
// entries still in the window. Used for the session record; short
// conversations that never trimmed still get a topic line.
func (m *ContextManager) TopicsSummary() string {
	seen := make(map[string]struct{})
	topics := make([]string, 0, contextTopicLimit)
	if m.summary != "" {
		for _, w := range strings.Split(strings.TrimPrefix(m.summary, topicSummaryPrefix), ", ") {
			if w == "" {
				continue
			}
			seen[w] = struct{}{}
			if len(topics) < contextTopicLimit {
				topics = append(topics, w)
			}
		}
	}
	topics = appendTopics(topics, seen, m.history)
	if len(topics) == 0 {
		return ""
	}
	return topicSummaryPrefix + strings.Join(topics, ", ")
}

// ContextString formats the summary and the last ten utterances for use
// as LLM context.
func (m *ContextManager) ContextString() string {
	var parts []string
	if m.summary != "" {
		parts = append(parts, "Резюме предыдущего разговора: "+m.summary)
	}
	recent := m.Recent(10)
	if len(recent) > 0 {
		parts = append(parts, "Последние реплики:")
		for _, e := range recent {
			name := "Я"
			if e.Speaker == stream.SpeakerOther {
				name = "Собеседник"
			}
			parts = append(parts, name+": "+e.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (m *ContextManager) Clear() {
	m.history = nil
	m.summary = ""
}

// trim drops everything but the newest keep entries and condenses the
// dropped ones into a topic list. The summary is replaced, not merged;
// only TopicsSummary looks across trims.
func (m *ContextManager) trim(keep int) {
	if len(m.history) <= keep {
		return
	}
	old := m.history[:len(m.history)-keep]
	kept := make([]ContextEntry, keep)
	copy(kept, m.history[len(m.history)-keep:])

	topics := appendTopics(make([]string, 0, contextTopicLimit), make(map[string]struct{}), old)
	m.history = kept
	m.summary = topicSummaryPrefix + strings.Join(topics, ", ")
}

// appendTopics collects distinct words longer than five characters, in
// order of appearance, up to the topic limit. seen is shared across
// calls so repeated words never re-enter the list.
func appendTopics(topics []string, seen map[string]struct{}, entries []ContextEntry) []string {
	for _, e := range entries {
		for _, w := range strings.Fields(strings.ToLower(e.Text)) {
			if utf8.RuneCountInString(w) <= 5 {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			if len(topics) < contextTopicLimit {
				topics = append(topics, w)
			}
		}
	}
	return topics
}
