package stream

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// creditsPatterns match the subtitle-credit lines whisper fabricates on
// silence in Russian audio, plus the English equivalent.
var creditsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`субтитры\s+(сделал|создал|делал|подготовил)`),
	regexp.MustCompile(`редактор\s+субтитров`),
	regexp.MustCompile(`корректор\s`),
	regexp.MustCompile(`subtitles?\s+by`),
}

// outroPhrases are stock broadcast sign-offs, another common silence
// hallucination.
var outroPhrases = []string{
	"продолжение следует",
	"спасибо за просмотр",
	"подписывайтесь на канал",
	"до новых встреч",
	"всем пока",
	"thanks for watching",
	"thank you for watching",
}

// TextFilter suppresses recognition artifacts before they reach the
// client: blank or sub-two-rune fragments, credit and outro
// hallucinations, and an immediate repeat of the previous accepted line
// by the same speaker.
//
// Each session owns one filter; it is not safe for concurrent use.
type TextFilter struct {
	lastSent map[Speaker]string
}

func NewTextFilter() *TextFilter {
	return &TextFilter{lastSent: make(map[Speaker]string)}
}

// Accept reports whether text should be emitted for speaker. The repeat
// tracker is updated only on acceptance, keeping it in step with what the
// client actually received.
func (f *TextFilter) Accept(speaker Speaker, text string) bool {
	normalized := normalizeText(text)
	if utf8.RuneCountInString(normalized) < 2 {
		return false
	}

	lower := strings.ToLower(normalized)
	for _, re := range creditsPatterns {
		if re.MatchString(lower) {
			return false
		}
	}
	for _, phrase := range outroPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	if f.lastSent[speaker] == normalized {
		return false
	}
	f.lastSent[speaker] = normalized
	return true
}

// normalizeText trims the ends and collapses internal whitespace runs to
// single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
