package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice copilot service.
type Metrics struct {
	// Session metrics
	ActiveSessions prometheus.Gauge
	SessionsTotal  prometheus.Counter
	SessionLength  prometheus.Histogram

	// Audio ingest metrics
	AudioBytes    *prometheus.CounterVec
	ChunksFlushed *prometheus.CounterVec
	BufferDrops   prometheus.Counter

	// Transcription metrics
	Transcriptions *prometheus.CounterVec
	STTDuration    *prometheus.HistogramVec
	VADDowngrades  prometheus.Counter

	// Suggestion metrics
	Suggestions *prometheus.CounterVec

	// Archive metrics
	ArchiveJobs *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on the default
// registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metrics on reg. Tests pass a fresh registry
// so parallel packages do not collide on the default one.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vcp_active_sessions",
			Help: "Current number of open websocket sessions",
		}),
		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcp_sessions_total",
			Help: "Total number of websocket sessions accepted",
		}),
		SessionLength: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vcp_session_duration_seconds",
			Help:    "Duration of websocket sessions",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}),

		AudioBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcp_audio_bytes_total",
			Help: "Total PCM bytes accepted into speaker buffers",
		}, []string{"speaker"}),
		ChunksFlushed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcp_chunks_flushed_total",
			Help: "Total buffered chunks handed to the transcriber",
		}, []string{"speaker"}),
		BufferDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcp_buffer_drops_total",
			Help: "Total times a speaker buffer hit its cap and dropped oldest audio",
		}),

		Transcriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcp_transcriptions_total",
			Help: "Total transcription attempts by outcome",
		}, []string{"outcome"}),
		STTDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vcp_stt_duration_seconds",
			Help:    "Duration of speech-to-text calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"provider"}),
		VADDowngrades: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcp_vad_downgrades_total",
			Help: "Total times voice activity filtering was disabled after a capability failure",
		}),

		Suggestions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcp_suggestion_requests_total",
			Help: "Total suggestion generations by outcome",
		}, []string{"outcome"}),

		ArchiveJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcp_archive_jobs_total",
			Help: "Total transcript archive jobs by outcome",
		}, []string{"outcome"}),
	}
}

// Transcription outcomes.
const (
	OutcomeEmitted    = "emitted"
	OutcomeSuppressed = "suppressed"
	OutcomeEmpty      = "empty"
	OutcomeError      = "error"
)

// RecordSessionStart marks one accepted session.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.ActiveSessions.Inc()
}

// RecordSessionEnd marks one closed session and observes its length.
func (m *Metrics) RecordSessionEnd(durationSeconds float64) {
	m.ActiveSessions.Dec()
	m.SessionLength.Observe(durationSeconds)
}

// RecordAudio accounts accepted PCM for one speaker.
func (m *Metrics) RecordAudio(speaker string, bytes int) {
	m.AudioBytes.WithLabelValues(speaker).Add(float64(bytes))
}

// RecordFlush marks one buffer handed to the transcriber.
func (m *Metrics) RecordFlush(speaker string) {
	m.ChunksFlushed.WithLabelValues(speaker).Inc()
}

// RecordTranscription marks one transcription attempt.
func (m *Metrics) RecordTranscription(outcome string) {
	m.Transcriptions.WithLabelValues(outcome).Inc()
}

// ObserveSTT observes the duration of one speech-to-text call.
func (m *Metrics) ObserveSTT(provider string, seconds float64) {
	m.STTDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordSuggestion marks one suggestion generation.
func (m *Metrics) RecordSuggestion(outcome string) {
	m.Suggestions.WithLabelValues(outcome).Inc()
}

// RecordArchiveJob marks one transcript archive job.
func (m *Metrics) RecordArchiveJob(outcome string) {
	m.ArchiveJobs.WithLabelValues(outcome).Inc()
}
