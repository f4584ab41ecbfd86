package services

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/audio"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/metrics"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/providers/stt"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

// TranscriptionService adapts an stt.Provider to the session pipeline. It
// owns the provider-independent audio conversion (downmix, normalize,
// resample to 16 kHz) and the flush sizing rules: local engines get one
// second of audio per call, remote ones a configurable chunk length to
// keep request counts down.
//
// One instance serves every session in the process; the VAD downgrade
// below is deliberately process-wide.
type TranscriptionService struct {
	provider     stt.Provider
	name         string
	language     string
	chunkSeconds float64

	// vadDisabled latches when the engine reports its VAD model is
	// unavailable. There is no point asking again until a redeploy.
	vadDisabled atomic.Bool

	metrics *metrics.Metrics
	log     *logrus.Entry
}

func NewTranscriptionService(provider stt.Provider, name, language string, chunkSeconds float64, m *metrics.Metrics, log *logrus.Logger) *TranscriptionService {
	if chunkSeconds <= 0 {
		chunkSeconds = 2.0
	}
	return &TranscriptionService{
		provider:     provider,
		name:         name,
		language:     language,
		chunkSeconds: chunkSeconds,
		metrics:      m,
		log:          log.WithField("component", "transcription"),
	}
}

// Threshold returns the buffered byte count that triggers a flush for the
// given input format.
func (s *TranscriptionService) Threshold(sampleRate, channels int) int {
	oneSecond := sampleRate * channels * 2
	if s.provider.Kind() == stt.KindLocal {
		return oneSecond
	}
	return int(float64(oneSecond) * s.chunkSeconds)
}

// RetainOnFailure reports whether audio from a failed call should be kept
// for the next attempt. Local engine failures are usually transient
// (model still loading), so the audio is worth retrying; for remote
// providers retrying old audio only adds latency and cost.
func (s *TranscriptionService) RetainOnFailure() bool {
	return s.provider.Kind() == stt.KindLocal
}

func (s *TranscriptionService) Name() string { return s.name }

// Transcribe converts raw PCM16 in the session's input format and runs it
// through the provider. When the provider rejects the call because its VAD
// model is missing, VAD is disabled for the rest of the process and the
// call is retried once without it.
func (s *TranscriptionService) Transcribe(ctx context.Context, pcm []byte, sampleRate, channels int) (string, error) {
	const op = "TranscriptionService.Transcribe"

	if len(pcm) < 2 {
		return "", nil
	}
	if sampleRate <= 0 || channels <= 0 {
		return "", utils.E(utils.CodeInvalidArgument, op, "sample_rate and channels must be positive", nil)
	}

	samples := audio.SamplesFromPCM16(pcm)
	if channels > 1 {
		samples = audio.DownmixToMono(samples, channels)
	}
	floats := audio.Resample(audio.Normalize(samples), sampleRate, stt.TargetSampleRate)

	useVAD := !s.vadDisabled.Load()
	segments, err := s.provider.Transcribe(ctx, floats, s.language, useVAD)
	if err != nil && useVAD && stt.IsCapabilityUnavailable(err) {
		s.log.WithError(err).Warn("vad unavailable in stt engine, disabling for this process")
		s.vadDisabled.Store(true)
		if s.metrics != nil {
			s.metrics.VADDowngrades.Inc()
		}
		segments, err = s.provider.Transcribe(ctx, floats, s.language, false)
	}
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "transcription failed", err)
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying provider.
func (s *TranscriptionService) Close() error {
	return s.provider.Close()
}
