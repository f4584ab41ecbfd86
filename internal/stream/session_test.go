package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/metrics"
)

type fakeTranscriber struct {
	retain  bool
	calls   [][]byte
	results []string
	errs    []error
}

func (f *fakeTranscriber) Threshold(sampleRate, channels int) int {
	return sampleRate * channels * 2 // one second of PCM16
}

func (f *fakeTranscriber) RetainOnFailure() bool { return f.retain }

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(ctx context.Context, pcm []byte, sampleRate, channels int) (string, error) {
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	f.calls = append(f.calls, buf)

	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	var text string
	if len(f.results) > 0 {
		text = f.results[0]
		f.results = f.results[1:]
	}
	return text, err
}

type fakeSink struct {
	saves     int
	projectID string
	lines     []TranscriptLine
}

func (f *fakeSink) Save(ctx context.Context, projectID, sessionID string, lines []TranscriptLine) (string, error) {
	f.saves++
	f.projectID = projectID
	f.lines = lines
	return "stored", nil
}

type fakeEmitter struct {
	events []TranscriptionEvent
	err    error
}

func (f *fakeEmitter) Emit(event TranscriptionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestSession(t *testing.T, tr Transcriber, sink Sink, em Emitter) *Session {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewSession(context.Background(), SessionConfig{
		Transcriber:      tr,
		Sink:             sink,
		Emitter:          em,
		Metrics:          metrics.NewMetricsWith(prometheus.NewRegistry()),
		Log:              log,
		MaxBufferSeconds: 30,
	})
}

func configFrame(t *testing.T, speaker string, sampleRate, channels int, projectID string) []byte {
	t.Helper()
	payload := map[string]any{
		"type":        "config",
		"speaker":     speaker,
		"sample_rate": sampleRate,
		"channels":    channels,
	}
	if projectID != "" {
		payload["project_id"] = projectID
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func audioFrame(t *testing.T, speaker string, pcm []byte) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"type":    "audio",
		"speaker": speaker,
		"data":    base64.StdEncoding.EncodeToString(pcm),
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSessionEmitsOneEventAtThreshold(t *testing.T) {
	tr := &fakeTranscriber{results: []string{"Привет, как дела?"}}
	sink := &fakeSink{}
	em := &fakeEmitter{}
	s := newTestSession(t, tr, sink, em)
	ctx := context.Background()

	s.HandleText(ctx, configFrame(t, "user", 16000, 1, "demo"))
	// Threshold for 16 kHz mono is 32000 bytes; three chunks cross it.
	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 12000)))
	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 12000)))
	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 12000)))

	if len(tr.calls) != 1 {
		t.Fatalf("transcriber called %d times, want 1", len(tr.calls))
	}
	if len(tr.calls[0]) != 36000 {
		t.Errorf("transcriber received %d bytes, want the full 36000-byte buffer", len(tr.calls[0]))
	}
	if len(em.events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(em.events))
	}
	event := em.events[0]
	if event.Type != "transcription" || event.Text != "Привет, как дела?" || !event.IsFinal || event.Speaker != "user" {
		t.Errorf("unexpected event: %+v", event)
	}

	s.Close(ctx)
	if sink.saves != 1 {
		t.Fatalf("sink called %d times, want 1", sink.saves)
	}
	if sink.projectID != "demo" {
		t.Errorf("sink project = %q, want demo", sink.projectID)
	}
	if len(sink.lines) != 1 || sink.lines[0].Text != "Привет, как дела?" || sink.lines[0].Speaker != SpeakerUser {
		t.Errorf("sink lines = %+v", sink.lines)
	}
}

func TestSessionMalformedInputIsSkipped(t *testing.T) {
	tr := &fakeTranscriber{}
	s := newTestSession(t, tr, &fakeSink{}, &fakeEmitter{})
	ctx := context.Background()

	s.HandleText(ctx, []byte("not json at all"))
	s.HandleText(ctx, []byte(`{"type": "audio", "speaker": "user", "data": "@@@not-base64@@@"}`))
	s.HandleText(ctx, []byte(`{"type": "audio", "speaker": "user"}`))
	s.HandleText(ctx, []byte(`{"type": "mystery"}`))

	if len(tr.calls) != 0 {
		t.Errorf("transcriber called %d times for malformed input, want 0", len(tr.calls))
	}
}

func TestSessionConfigChangeDropsStaleAudio(t *testing.T) {
	tr := &fakeTranscriber{results: []string{"ок"}}
	s := newTestSession(t, tr, &fakeSink{}, &fakeEmitter{})
	ctx := context.Background()

	// Half a second of 16 kHz audio, then the client reconfigures to 8 kHz.
	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 16000)))
	s.HandleText(ctx, configFrame(t, "user", 8000, 1, ""))

	// 8 kHz mono threshold is 16000 bytes; only new-format bytes count.
	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 8000)))
	if len(tr.calls) != 0 {
		t.Fatal("stale bytes were counted toward the new threshold")
	}
	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 8000)))

	if len(tr.calls) != 1 {
		t.Fatalf("transcriber called %d times, want 1", len(tr.calls))
	}
	if len(tr.calls[0]) != 16000 {
		t.Errorf("transcriber received %d bytes, want only the 16000 new-format bytes", len(tr.calls[0]))
	}
}

func TestSessionBinaryFramesBelongToOther(t *testing.T) {
	tr := &fakeTranscriber{results: []string{"здравствуйте"}}
	em := &fakeEmitter{}
	s := newTestSession(t, tr, &fakeSink{}, em)
	ctx := context.Background()

	s.HandleBinary(ctx, make([]byte, 32000))

	if len(em.events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(em.events))
	}
	if em.events[0].Speaker != "other" {
		t.Errorf("binary audio attributed to %q, want other", em.events[0].Speaker)
	}
}

func TestSessionDisconnectMidBufferStillFlushesOnce(t *testing.T) {
	tr := &fakeTranscriber{}
	sink := &fakeSink{}
	s := newTestSession(t, tr, sink, &fakeEmitter{})
	ctx := context.Background()

	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 1000)))
	s.Close(ctx)
	s.Close(ctx)

	if len(tr.calls) != 0 {
		t.Errorf("incomplete buffer was transcribed %d times, want 0", len(tr.calls))
	}
	if sink.saves != 1 {
		t.Errorf("sink called %d times, want exactly 1", sink.saves)
	}
	if len(sink.lines) != 0 {
		t.Errorf("sink received %d lines, want 0", len(sink.lines))
	}
}

func TestSessionRetainOnFailureKeepsAudio(t *testing.T) {
	tr := &fakeTranscriber{
		retain:  true,
		errs:    []error{errors.New("model busy")},
		results: []string{"", "привет"},
	}
	em := &fakeEmitter{}
	s := newTestSession(t, tr, &fakeSink{}, em)
	ctx := context.Background()

	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 32000)))
	if len(tr.calls) != 1 {
		t.Fatalf("transcriber called %d times, want 1", len(tr.calls))
	}
	if len(em.events) != 0 {
		t.Fatal("failed call must not emit")
	}

	// The failed buffer stays; the next chunk retries with both.
	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 4000)))
	if len(tr.calls) != 2 {
		t.Fatalf("transcriber called %d times, want 2", len(tr.calls))
	}
	if len(tr.calls[1]) != 36000 {
		t.Errorf("retry received %d bytes, want 36000 (retained + new)", len(tr.calls[1]))
	}
	if len(em.events) != 1 || em.events[0].Text != "привет" {
		t.Errorf("events after retry = %+v", em.events)
	}
}

func TestSessionDropOnFailureDiscardsAudio(t *testing.T) {
	tr := &fakeTranscriber{
		retain: false,
		errs:   []error{errors.New("gateway timeout")},
	}
	s := newTestSession(t, tr, &fakeSink{}, &fakeEmitter{})
	ctx := context.Background()

	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 32000)))
	if len(tr.calls) != 1 {
		t.Fatalf("transcriber called %d times, want 1", len(tr.calls))
	}

	// Audio from the failed call is gone; a small chunk must not retrigger.
	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 4000)))
	if len(tr.calls) != 1 {
		t.Errorf("transcriber called %d times after drop, want still 1", len(tr.calls))
	}
}

func TestSessionSuppressesAdjacentDuplicateAcrossChunks(t *testing.T) {
	tr := &fakeTranscriber{results: []string{"Добрый день", "Добрый день", "Добрый день"}}
	em := &fakeEmitter{}
	sink := &fakeSink{}
	s := newTestSession(t, tr, sink, em)
	ctx := context.Background()

	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 32000)))
	s.HandleText(ctx, audioFrame(t, "user", make([]byte, 32000)))
	s.HandleBinary(ctx, make([]byte, 32000))

	if len(em.events) != 2 {
		t.Fatalf("emitted %d events, want 2 (duplicate for user suppressed, other accepted)", len(em.events))
	}
	if em.events[0].Speaker != "user" || em.events[1].Speaker != "other" {
		t.Errorf("event speakers = %s, %s", em.events[0].Speaker, em.events[1].Speaker)
	}

	s.Close(ctx)
	if len(sink.lines) != 2 {
		t.Errorf("transcript has %d lines, want 2", len(sink.lines))
	}
}

func TestSessionEmitFailureEndsSessionButKeepsLine(t *testing.T) {
	tr := &fakeTranscriber{results: []string{"первая реплика"}}
	em := &fakeEmitter{err: errors.New("broken pipe")}
	sink := &fakeSink{}
	s := newTestSession(t, tr, sink, em)
	ctx := context.Background()

	if err := s.HandleText(ctx, audioFrame(t, "user", make([]byte, 32000))); err == nil {
		t.Fatal("expected the emit failure to surface")
	}

	// The line was accepted before the write, so the flush still has it.
	s.Close(ctx)
	if sink.saves != 1 {
		t.Fatalf("sink called %d times, want 1", sink.saves)
	}
	if len(sink.lines) != 1 || sink.lines[0].Text != "первая реплика" {
		t.Errorf("sink lines = %+v", sink.lines)
	}
}

func TestSessionBufferCapBoundsRetainedAudio(t *testing.T) {
	tr := &fakeTranscriber{retain: true}
	for i := 0; i < 64; i++ {
		tr.errs = append(tr.errs, fmt.Errorf("failure %d", i))
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewSession(context.Background(), SessionConfig{
		Transcriber:      tr,
		Sink:             &fakeSink{},
		Emitter:          &fakeEmitter{},
		Metrics:          metrics.NewMetricsWith(prometheus.NewRegistry()),
		Log:              log,
		MaxBufferSeconds: 2, // cap at 64000 bytes for 16 kHz mono
	})
	ctx := context.Background()

	for i := 0; i < 16; i++ {
		s.HandleText(ctx, audioFrame(t, "user", make([]byte, 32000)))
	}
	for i, call := range tr.calls {
		if len(call) > 64000 {
			t.Fatalf("call %d carried %d bytes, cap is 64000", i, len(call))
		}
	}
}
