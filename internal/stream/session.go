package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/metrics"
)

// DefaultProjectID scopes transcripts when the client never names a project.
const DefaultProjectID = "default"

// TranscriptLine is one accepted utterance, in emission order.
type TranscriptLine struct {
	Speaker   Speaker
	Text      string
	Timestamp time.Time
}

// TranscriptionEvent is the server to client payload for one final result.
type TranscriptionEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
	Speaker string `json:"speaker"`
}

// Transcriber turns one flushed PCM buffer into text. A single instance is
// shared by every session and must be safe for concurrent use.
type Transcriber interface {
	// Threshold returns the minimum byte count to buffer before Transcribe
	// is worth calling for audio in the given format.
	Threshold(sampleRate, channels int) int
	// RetainOnFailure reports whether audio from a failed call should stay
	// buffered for the next attempt. Remote backends return false: the
	// buffer was already committed to a paid request and failures drop it.
	RetainOnFailure() bool
	// Name is the provider label used in logs and metrics.
	Name() string
	Transcribe(ctx context.Context, pcm []byte, sampleRate, channels int) (string, error)
}

// Sink archives the accumulated transcript when a session ends. An empty
// line list is a no-op. Must be safe for concurrent use.
type Sink interface {
	Save(ctx context.Context, projectID, sessionID string, lines []TranscriptLine) (location string, err error)
}

// Emitter delivers events to the connected client.
type Emitter interface {
	Emit(event TranscriptionEvent) error
}

// SessionSummary is handed to the Recorder when a session ends.
type SessionSummary struct {
	SessionID string
	ProjectID string
	Source    string
	StartedAt time.Time
	EndedAt   time.Time
	Totals    map[Speaker]SpeakerTotals
}

// Recorder observes session lifecycle for operational history. Calls are
// best-effort; implementations log their own failures and never block the
// audio path for long.
type Recorder interface {
	SessionStarted(ctx context.Context, sessionID string)
	LineEmitted(ctx context.Context, sessionID string, line TranscriptLine)
	SessionEnded(ctx context.Context, summary SessionSummary)
}

type SessionConfig struct {
	Transcriber Transcriber
	Sink        Sink
	Emitter     Emitter
	Recorder    Recorder // optional
	Metrics     *metrics.Metrics
	Log         *logrus.Logger

	// MaxBufferSeconds caps each speaker buffer; once exceeded the oldest
	// audio is dropped with a warning. Zero disables the cap.
	MaxBufferSeconds int
}

// Session owns all state for one streaming connection. The transport
// handler feeds it from a single receive loop, so message handling is
// strictly sequential and session state needs no locking.
type Session struct {
	ID string

	cfg       SessionConfig
	log       *logrus.Entry
	projectID string
	source    string

	filter   *TextFilter
	stats    *Stats
	channels map[Speaker]*ChannelState
	lines    []TranscriptLine

	started time.Time
	closed  bool
}

func NewSession(ctx context.Context, cfg SessionConfig) *Session {
	id := uuid.NewString()
	log := cfg.Log.WithField("session_id", id)

	s := &Session{
		ID:        id,
		cfg:       cfg,
		log:       log,
		projectID: DefaultProjectID,
		filter:    NewTextFilter(),
		stats:     NewStats(log),
		channels:  make(map[Speaker]*ChannelState),
		started:   time.Now(),
	}
	for _, speaker := range []Speaker{SpeakerUser, SpeakerOther} {
		ch := &ChannelState{}
		s.configureChannel(ch, DefaultSampleRate, DefaultChannels)
		s.channels[speaker] = ch
	}

	cfg.Metrics.RecordSessionStart()
	if cfg.Recorder != nil {
		cfg.Recorder.SessionStarted(ctx, id)
	}
	log.Info("audio stream connected")
	return s
}

// envelope is the client to server control message.
type envelope struct {
	Type       string `json:"type"`
	Speaker    string `json:"speaker"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	ProjectID  string `json:"project_id"`
	Source     string `json:"source"`
	Data       string `json:"data"`
}

// HandleText processes one text frame. Malformed JSON, bad base64 and
// unknown envelope types are skipped; the session keeps running. A non-nil
// error means the client transport failed and the session should end.
func (s *Session) HandleText(ctx context.Context, payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.log.WithError(err).Debug("skipping malformed control message")
		return nil
	}

	switch env.Type {
	case "config":
		s.applyConfig(env)
	case "audio":
		if env.Data == "" {
			return nil
		}
		raw, err := base64.StdEncoding.DecodeString(env.Data)
		if err != nil {
			s.log.WithError(err).Debug("skipping chunk with bad base64")
			return nil
		}
		return s.process(ctx, ParseSpeaker(env.Speaker), raw)
	}
	return nil
}

// HandleBinary processes one binary frame: bare audio for the far side of
// the call, in that speaker's last configured format.
func (s *Session) HandleBinary(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return s.process(ctx, SpeakerOther, data)
}

func (s *Session) applyConfig(env envelope) {
	speaker := ParseSpeaker(env.Speaker)

	sampleRate := env.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	channels := env.Channels
	if channels <= 0 {
		channels = DefaultChannels
	}
	s.configureChannel(s.channels[speaker], sampleRate, channels)

	if env.ProjectID != "" {
		s.projectID = env.ProjectID
	}
	if env.Source != "" {
		s.source = env.Source
	}

	s.log.WithFields(logrus.Fields{
		"speaker":     speaker,
		"sample_rate": sampleRate,
		"channels":    channels,
		"project_id":  s.projectID,
	}).Info("audio config received")
}

func (s *Session) configureChannel(ch *ChannelState, sampleRate, channels int) {
	threshold := s.cfg.Transcriber.Threshold(sampleRate, channels)
	maxBytes := 0
	if s.cfg.MaxBufferSeconds > 0 {
		maxBytes = sampleRate * channels * 2 * s.cfg.MaxBufferSeconds
		if maxBytes < threshold {
			maxBytes = threshold
		}
	}
	ch.Configure(sampleRate, channels, threshold, maxBytes)
}

func (s *Session) process(ctx context.Context, speaker Speaker, chunk []byte) error {
	ch := s.channels[speaker]

	s.stats.Record(speaker, chunk, ch.SampleRate(), ch.Channels())
	s.cfg.Metrics.RecordAudio(speaker.String(), len(chunk))

	if dropped := ch.Append(chunk); dropped > 0 {
		s.cfg.Metrics.BufferDrops.Inc()
		s.log.WithFields(logrus.Fields{
			"speaker":       speaker,
			"dropped_bytes": dropped,
		}).Warn("speaker buffer full, dropped oldest audio")
	}

	if ch.Ready() {
		return s.transcribeBuffered(ctx, speaker, ch)
	}
	return nil
}

// transcribeBuffered flushes one buffer through the transcriber. Provider
// failures keep the session alive; only a dead client transport on emit is
// returned to the caller.
func (s *Session) transcribeBuffered(ctx context.Context, speaker Speaker, ch *ChannelState) error {
	pcm := ch.Flush()
	s.cfg.Metrics.RecordFlush(speaker.String())

	start := time.Now()
	text, err := s.cfg.Transcriber.Transcribe(ctx, pcm, ch.SampleRate(), ch.Channels())
	s.cfg.Metrics.ObserveSTT(s.cfg.Transcriber.Name(), time.Since(start).Seconds())

	if err != nil {
		s.cfg.Metrics.RecordTranscription(metrics.OutcomeError)
		if s.cfg.Transcriber.RetainOnFailure() {
			if dropped := ch.Restore(pcm); dropped > 0 {
				s.cfg.Metrics.BufferDrops.Inc()
				s.log.WithFields(logrus.Fields{
					"speaker":       speaker,
					"dropped_bytes": dropped,
				}).Warn("speaker buffer full, dropped oldest audio")
			}
		}
		s.log.WithError(err).WithField("speaker", speaker).Error("transcription failed")
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.cfg.Metrics.RecordTranscription(metrics.OutcomeEmpty)
		return nil
	}
	if !s.filter.Accept(speaker, text) {
		s.cfg.Metrics.RecordTranscription(metrics.OutcomeSuppressed)
		s.log.WithField("speaker", speaker).Debug("transcription suppressed")
		return nil
	}

	// The line joins the transcript as soon as the filter accepts it; a
	// failed delivery still leaves it in the archived transcript.
	line := TranscriptLine{Speaker: speaker, Text: text, Timestamp: time.Now().UTC()}
	s.lines = append(s.lines, line)
	if s.cfg.Recorder != nil {
		s.cfg.Recorder.LineEmitted(ctx, s.ID, line)
	}

	s.cfg.Metrics.RecordTranscription(metrics.OutcomeEmitted)
	if err := s.cfg.Emitter.Emit(TranscriptionEvent{
		Type:    "transcription",
		Text:    text,
		IsFinal: true,
		Speaker: speaker.String(),
	}); err != nil {
		s.log.WithError(err).Warn("failed to deliver transcription event, ending session")
		return err
	}
	return nil
}

// Close ends the session and hands the transcript to the sink exactly
// once. Audio still below its threshold is not transcribed. Safe to call
// more than once.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true

	endedAt := time.Now().UTC()
	duration := endedAt.Sub(s.started)
	s.cfg.Metrics.RecordSessionEnd(duration.Seconds())

	if s.cfg.Recorder != nil {
		s.cfg.Recorder.SessionEnded(ctx, SessionSummary{
			SessionID: s.ID,
			ProjectID: s.projectID,
			Source:    s.source,
			StartedAt: s.started,
			EndedAt:   endedAt,
			Totals:    s.stats.Totals(),
		})
	}

	location, err := s.cfg.Sink.Save(ctx, s.projectID, s.ID, s.lines)
	if err != nil {
		s.log.WithError(err).Error("failed to save transcript")
	} else if location != "" {
		s.log.WithFields(logrus.Fields{
			"location": location,
			"lines":    len(s.lines),
		}).Info("transcript saved")
	}

	s.log.WithField("duration_seconds", int64(duration.Seconds())).Info("audio stream closed")
}
