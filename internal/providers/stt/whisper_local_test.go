package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/audio"
)

func testSamples(n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0.25
	}
	return samples
}

func TestLocalWhisperTranscribeText(t *testing.T) {
	var gotLanguage, gotVAD string
	var gotWAV []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("path = %q, want /transcribe", r.URL.Path)
		}
		if err := r.ParseMultipartForm(4 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotLanguage = r.FormValue("language")
		gotVAD = r.FormValue("vad_filter")
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		gotWAV, _ = io.ReadAll(file)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "привет мир"}`))
	}))
	defer srv.Close()

	p := NewLocalWhisper(srv.URL)
	segments, err := p.Transcribe(context.Background(), testSamples(1600), "ru", true)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "привет мир" {
		t.Fatalf("segments = %+v, want one segment with text", segments)
	}
	if gotLanguage != "ru" {
		t.Errorf("language field = %q, want ru", gotLanguage)
	}
	if gotVAD != "true" {
		t.Errorf("vad_filter field = %q, want true", gotVAD)
	}

	pcm, rate, channels, err := audio.DecodeWAV(gotWAV)
	if err != nil {
		t.Fatalf("uploaded file is not a valid wav: %v", err)
	}
	if rate != TargetSampleRate || channels != 1 {
		t.Errorf("wav format = %d Hz %d ch, want %d Hz mono", rate, channels, TargetSampleRate)
	}
	if len(pcm) != 1600*2 {
		t.Errorf("wav payload = %d bytes, want %d", len(pcm), 1600*2)
	}
}

func TestLocalWhisperTranscribeSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"segments": [{"text": "первый"}, {"text": "второй"}]}`))
	}))
	defer srv.Close()

	p := NewLocalWhisper(srv.URL)
	segments, err := p.Transcribe(context.Background(), testSamples(1600), "ru", false)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if segments[0].Text != "первый" || segments[1].Text != "второй" {
		t.Errorf("segments out of order: %+v", segments)
	}
}

func TestLocalWhisperVADCapabilityError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		vad        bool
		capability bool
	}{
		{
			name:       "missing silero model with vad on",
			status:     http.StatusInternalServerError,
			body:       `{"detail": "silero_vad model is not available"}`,
			vad:        true,
			capability: true,
		},
		{
			name:       "missing onnxruntime with vad on",
			status:     http.StatusServiceUnavailable,
			body:       "ImportError: onnxruntime is required",
			vad:        true,
			capability: true,
		},
		{
			name:       "same failure with vad off stays generic",
			status:     http.StatusInternalServerError,
			body:       "onnxruntime crashed",
			vad:        false,
			capability: false,
		},
		{
			name:       "unrelated failure with vad on stays generic",
			status:     http.StatusBadGateway,
			body:       "model busy",
			vad:        true,
			capability: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewLocalWhisper(srv.URL)
			_, err := p.Transcribe(context.Background(), testSamples(1600), "ru", tt.vad)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := IsCapabilityUnavailable(err); got != tt.capability {
				t.Errorf("IsCapabilityUnavailable = %v, want %v (err: %v)", got, tt.capability, err)
			}
		})
	}
}

func TestLocalWhisperEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "  "}`))
	}))
	defer srv.Close()

	p := NewLocalWhisper(srv.URL)
	segments, err := p.Transcribe(context.Background(), testSamples(1600), "ru", false)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("got %d segments for blank text, want none", len(segments))
	}
}

func TestOpenAIWhisperWithoutKey(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	p := NewOpenAIWhisper("", "whisper-1", log)
	segments, err := p.Transcribe(context.Background(), testSamples(1600), "ru", false)
	if err != nil {
		t.Fatalf("Transcribe without key should not error, got: %v", err)
	}
	if segments != nil {
		t.Errorf("segments = %+v, want nil", segments)
	}
}

func TestBCP47Mapping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ru", "ru-RU"},
		{"en", "en-US"},
		{"", "ru-RU"},
		{"id-ID", "id-ID"},
	}
	for _, tt := range tests {
		if got := bcp47(tt.in); got != tt.want {
			t.Errorf("bcp47(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
