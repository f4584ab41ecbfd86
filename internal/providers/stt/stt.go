package stt

import (
	"context"
	"errors"
	"fmt"
)

// TargetSampleRate is the rate every provider receives audio at. The
// transcription pipeline resamples to it before invoking a provider.
const TargetSampleRate = 16000

// Kind distinguishes local inference from remote API backends. The stream
// layer picks its buffering threshold from it: local backends are invoked
// with about one second of audio for latency, remote ones with larger
// chunks tuned for request cost.
type Kind int

const (
	KindLocal Kind = iota
	KindRemote
)

func (k Kind) String() string {
	if k == KindLocal {
		return "local"
	}
	return "remote"
}

// Segment is one recognized span of text, in utterance order.
type Segment struct {
	Text string
}

// Provider is the speech-to-text capability shared by all sessions.
// Implementations must be safe for concurrent use; a single instance is
// injected into every session at construction.
type Provider interface {
	// Transcribe recognizes normalized mono float samples at TargetSampleRate.
	// vad requests voice-activity filtering where the backend supports it;
	// providers without VAD ignore the flag. A missing optional capability is
	// reported as *CapabilityError so callers can downgrade and retry.
	Transcribe(ctx context.Context, samples []float32, language string, vad bool) ([]Segment, error)
	Kind() Kind
	Close() error
}

// CapabilityError reports an optional backend feature that turned out to be
// unavailable at runtime. Callers may retry without the capability.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s unavailable: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

func IsCapabilityUnavailable(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce)
}
