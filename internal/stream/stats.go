package stream

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/audio"
)

// statsInterval is how often per-speaker throughput is reported.
const statsInterval = 5 * time.Second

// rmsWindowSamples bounds the amplitude estimate to the head of a chunk.
const rmsWindowSamples = 4000

// Stats accumulates per-speaker ingest counters and logs one diagnostic
// line per speaker every statsInterval. Telemetry only: a degenerate
// buffer yields a zero amplitude, never an error.
type Stats struct {
	log      *logrus.Entry
	counters map[Speaker]*speakerCounters
	totals   map[Speaker]SpeakerTotals
	now      func() time.Time
}

type speakerCounters struct {
	bytes     int64
	chunks    int64
	lastFlush time.Time
}

// SpeakerTotals is the session-lifetime ingest accounting for one speaker.
type SpeakerTotals struct {
	Bytes  int64
	Chunks int64
}

func NewStats(log *logrus.Entry) *Stats {
	return &Stats{
		log:      log,
		counters: make(map[Speaker]*speakerCounters),
		totals:   make(map[Speaker]SpeakerTotals),
		now:      time.Now,
	}
}

// Record accounts one received chunk. When statsInterval has elapsed for
// the speaker it logs throughput, average chunk size and an RMS amplitude
// estimate over the head of the current chunk, then resets the interval
// counters.
func (s *Stats) Record(speaker Speaker, chunk []byte, sampleRate, channels int) {
	now := s.now()

	c := s.counters[speaker]
	if c == nil {
		c = &speakerCounters{lastFlush: now}
		s.counters[speaker] = c
	}
	c.bytes += int64(len(chunk))
	c.chunks++

	t := s.totals[speaker]
	t.Bytes += int64(len(chunk))
	t.Chunks++
	s.totals[speaker] = t

	elapsed := now.Sub(c.lastFlush)
	if elapsed < statsInterval {
		return
	}

	seconds := elapsed.Seconds()
	s.log.WithFields(logrus.Fields{
		"speaker":        speaker,
		"bytes_per_sec":  float64(c.bytes) / seconds,
		"avg_chunk_size": float64(c.bytes) / float64(c.chunks),
		"rms":            audio.RMS(chunk, rmsWindowSamples),
		"sample_rate":    sampleRate,
		"channels":       channels,
	}).Debug("audio ingest stats")

	c.bytes = 0
	c.chunks = 0
	c.lastFlush = now
}

// Totals returns the session-lifetime counters per speaker.
func (s *Stats) Totals() map[Speaker]SpeakerTotals {
	out := make(map[Speaker]SpeakerTotals, len(s.totals))
	for speaker, t := range s.totals {
		out[speaker] = t
	}
	return out
}
