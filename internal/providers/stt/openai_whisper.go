package stt

import (
	"bytes"
	"context"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/audio"
)

// OpenAIWhisper recognizes speech through the OpenAI audio API. Without an
// API key it degrades to a no-op that returns empty results, logging the
// missing configuration once.
type OpenAIWhisper struct {
	client   *openai.Client
	model    string
	log      *logrus.Logger
	warnOnce sync.Once
}

func NewOpenAIWhisper(apiKey, model string, log *logrus.Logger) *OpenAIWhisper {
	p := &OpenAIWhisper{model: model, log: log}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
	}
	return p
}

func (p *OpenAIWhisper) Kind() Kind { return KindRemote }

func (p *OpenAIWhisper) Transcribe(ctx context.Context, samples []float32, language string, vad bool) ([]Segment, error) {
	if p.client == nil {
		p.warnOnce.Do(func() {
			p.log.Warn("OPENAI_API_KEY is not set, transcription disabled")
		})
		return nil, nil
	}

	wav, err := audio.EncodeWAVFromFloat(samples, TargetSampleRate, 1)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(wav),
		Language: language,
	})
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, nil
	}
	return []Segment{{Text: text}}, nil
}

func (p *OpenAIWhisper) Close() error { return nil }
