package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/audio"
)

// vadMarkers are substrings a whisper sidecar emits when its optional VAD
// stack (silero model running on onnxruntime) is missing. The heuristic is
// confined to this adapter; everything upstream sees a typed CapabilityError.
var vadMarkers = []string{"silero_vad", "onnxruntime"}

// LocalWhisper talks to a faster-whisper sidecar over HTTP. Audio is shipped
// as a 16 kHz mono WAV in a multipart form, matching the sidecar's
// /transcribe contract.
type LocalWhisper struct {
	baseURL string
	client  *http.Client
	warm    sync.Once
}

func NewLocalWhisper(baseURL string) *LocalWhisper {
	return &LocalWhisper{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (w *LocalWhisper) Kind() Kind { return KindLocal }

// WarmUp pings the sidecar health endpoint once so the first real chunk does
// not pay the model load. Failures are returned but non-fatal to callers.
func (w *LocalWhisper) WarmUp(ctx context.Context) error {
	var err error
	w.warm.Do(func() {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/health", nil)
		if reqErr != nil {
			err = reqErr
			return
		}
		resp, doErr := w.client.Do(req)
		if doErr != nil {
			err = doErr
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("whisper sidecar health: status %d", resp.StatusCode)
		}
	})
	return err
}

func (w *LocalWhisper) Transcribe(ctx context.Context, samples []float32, language string, vad bool) ([]Segment, error) {
	wav, err := audio.EncodeWAVFromFloat(samples, TargetSampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(wav); err != nil {
		return nil, err
	}
	if language != "" {
		if err := form.WriteField("language", language); err != nil {
			return nil, err
		}
	}
	if err := form.WriteField("vad_filter", fmt.Sprintf("%t", vad)); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/transcribe", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper sidecar: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("whisper sidecar: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errMsg := strings.TrimSpace(string(raw))
		if vad && mentionsVAD(errMsg) {
			return nil, &CapabilityError{Capability: "vad", Err: fmt.Errorf("whisper sidecar: status %d: %s", resp.StatusCode, errMsg)}
		}
		return nil, fmt.Errorf("whisper sidecar: status %d: %s", resp.StatusCode, errMsg)
	}

	var parsed struct {
		Text     string `json:"text"`
		Segments []struct {
			Text string `json:"text"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("whisper sidecar: decode response: %w", err)
	}

	if len(parsed.Segments) > 0 {
		segments := make([]Segment, 0, len(parsed.Segments))
		for _, s := range parsed.Segments {
			segments = append(segments, Segment{Text: s.Text})
		}
		return segments, nil
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return nil, nil
	}
	return []Segment{{Text: parsed.Text}}, nil
}

func (w *LocalWhisper) Close() error { return nil }

func mentionsVAD(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range vadMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
