package audio

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeWAV(t *testing.T) {
	pcm := pcmBytes(0, 1000, -1000, 32767)

	wav, err := EncodeWAV(pcm, 16000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(pcm))
	}

	decoded, rate, channels, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 16000 || channels != 1 {
		t.Errorf("format = %d Hz %d ch, want 16000 Hz 1 ch", rate, channels)
	}
	if !bytes.Equal(decoded, pcm) {
		t.Errorf("payload mismatch")
	}
}

func TestEncodeWAVRejectsBadParams(t *testing.T) {
	if _, err := EncodeWAV(nil, 0, 1); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := EncodeWAV(nil, 16000, 0); err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestEncodeWAVFromFloatClamps(t *testing.T) {
	wav, err := EncodeWAVFromFloat([]float32{2.0, -2.0, 0.5}, 16000, 1)
	if err != nil {
		t.Fatalf("EncodeWAVFromFloat: %v", err)
	}
	pcm, _, _, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	samples := SamplesFromPCM16(pcm)
	if samples[0] != 32767 {
		t.Errorf("over-range sample = %d, want 32767", samples[0])
	}
	if samples[1] != -32768 {
		t.Errorf("under-range sample = %d, want -32768", samples[1])
	}
	if samples[2] != 16384 { // round(0.5 * 32767)
		t.Errorf("mid sample = %d, want 16384", samples[2])
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, _, err := DecodeWAV([]byte("nope")); err == nil {
		t.Error("expected error for short buffer")
	}
	junk := make([]byte, 64)
	if _, _, _, err := DecodeWAV(junk); err == nil {
		t.Error("expected error for non-RIFF buffer")
	}
}
