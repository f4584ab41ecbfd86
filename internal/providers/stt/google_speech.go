package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/audio"
)

// regionedLanguages maps short language codes to the BCP-47 tags the Speech
// API expects. Unlisted codes pass through unchanged.
var regionedLanguages = map[string]string{
	"ru": "ru-RU",
	"en": "en-US",
	"de": "de-DE",
	"fr": "fr-FR",
	"es": "es-ES",
}

// GoogleSpeech recognizes speech through the Google Cloud Speech-to-Text
// API using application default credentials.
type GoogleSpeech struct {
	c *speech.Client
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &GoogleSpeech{c: c}, nil
}

func (g *GoogleSpeech) Kind() Kind { return KindRemote }

func (g *GoogleSpeech) Transcribe(ctx context.Context, samples []float32, language string, vad bool) ([]Segment, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            TargetSampleRate,
			AudioChannelCount:          1,
			LanguageCode:               bcp47(language),
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audio.PCM16FromFloat(samples),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	var segments []Segment
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		text := strings.TrimSpace(alts[0].GetTranscript())
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text})
	}
	return segments, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func bcp47(language string) string {
	if language == "" {
		return "ru-RU"
	}
	if tag, ok := regionedLanguages[strings.ToLower(language)]; ok {
		return tag
	}
	return language
}
