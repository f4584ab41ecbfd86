package stream

import "testing"

func TestTextFilterSuppression(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		accept bool
	}{
		{"empty", "", false},
		{"whitespace only", "   \t  ", false},
		{"single rune", "а", false},
		{"single rune padded", "  а  ", false},
		{"two runes pass", "да", true},
		{"credits editor", "Редактор субтитров А.Синецкая", false},
		{"credits author", "Субтитры сделал DimaTorzok", false},
		{"credits proofreader", "Корректор А.Егорова", false},
		{"credits english", "Subtitles by the community", false},
		{"outro continuation", "Продолжение следует...", false},
		{"outro thanks", "Спасибо за просмотр!", false},
		{"outro subscribe", "Подписывайтесь на канал", false},
		{"outro farewell", "До новых встреч!", false},
		{"outro english", "Thanks for watching", false},
		{"normal phrase", "Привет, как дела?", true},
		{"mentions subtitles casually", "мы обсуждали субтитры к фильму", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTextFilter()
			if got := f.Accept(SpeakerUser, tt.text); got != tt.accept {
				t.Errorf("Accept(%q) = %v, want %v", tt.text, got, tt.accept)
			}
		})
	}
}

func TestTextFilterAdjacentDuplicate(t *testing.T) {
	f := NewTextFilter()

	if !f.Accept(SpeakerUser, "Привет") {
		t.Fatal("first occurrence should be accepted")
	}
	if f.Accept(SpeakerUser, "Привет") {
		t.Error("immediate repeat by the same speaker should be suppressed")
	}
	if f.Accept(SpeakerUser, "  Привет  ") {
		t.Error("repeat differing only in whitespace should be suppressed")
	}

	// A different speaker saying the same thing is not a duplicate.
	if !f.Accept(SpeakerOther, "Привет") {
		t.Error("same text from the other speaker should be accepted")
	}

	// After something else was said, the phrase is fresh again.
	if !f.Accept(SpeakerUser, "Как дела?") {
		t.Fatal("new text should be accepted")
	}
	if !f.Accept(SpeakerUser, "Привет") {
		t.Error("non-adjacent repeat should be accepted")
	}
}

func TestTextFilterTrackerNotUpdatedOnSuppression(t *testing.T) {
	f := NewTextFilter()

	if !f.Accept(SpeakerUser, "Нормальная фраза") {
		t.Fatal("setup: first phrase should be accepted")
	}
	// A suppressed hallucination must not become the comparison baseline.
	if f.Accept(SpeakerUser, "Спасибо за просмотр") {
		t.Fatal("hallucination should be suppressed")
	}
	if f.Accept(SpeakerUser, "Нормальная фраза") {
		t.Error("adjacent duplicate should still be suppressed after a suppressed line in between")
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  привет   мир  ", "привет мир"},
		{"a\t\nb", "a b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeText(tt.in); got != tt.want {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
