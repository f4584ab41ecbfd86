package audio

import (
	"math"
	"testing"
)

func TestResampleSameRateReturnsInput(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("expected unchanged length %d, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d changed: %v != %v", i, out[i], in[i])
		}
	}
}

func TestResampleEmptyInput(t *testing.T) {
	out := Resample(nil, 48000, 16000)
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d samples", len(out))
	}
}

func TestResampleOutputLength(t *testing.T) {
	tests := []struct {
		name       string
		inLen      int
		sourceRate int
		targetRate int
		wantLen    int
	}{
		{"downsample 48k to 16k", 4800, 48000, 16000, 1600},
		{"upsample 8k to 16k", 800, 8000, 16000, 1600},
		{"non integer ratio", 1000, 44100, 16000, 363}, // round(1000/44100*16000)
		{"tiny input", 1, 48000, 16000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]float32, tt.inLen)
			for i := range in {
				in[i] = float32(math.Sin(float64(i) / 10))
			}
			out := Resample(in, tt.sourceRate, tt.targetRate)
			if len(out) != tt.wantLen {
				t.Errorf("length = %d, want %d", len(out), tt.wantLen)
			}
		})
	}
}

func TestResampleEndpointsExact(t *testing.T) {
	in := []float32{-0.75, 0.1, 0.2, 0.3, 0.9}
	out := Resample(in, 8000, 16000)
	if out[0] != in[0] {
		t.Errorf("first sample = %v, want %v", out[0], in[0])
	}
	if out[len(out)-1] != in[len(in)-1] {
		t.Errorf("last sample = %v, want %v", out[len(out)-1], in[len(in)-1])
	}
}

func TestResampleLinearMidpoint(t *testing.T) {
	// Doubling the rate of a 2-sample ramp puts interpolated values between
	// the originals.
	in := []float32{0, 1}
	out := Resample(in, 8000, 16000)
	if len(out) != 4 {
		t.Fatalf("length = %d, want 4", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1] {
			t.Fatalf("output not monotonic at %d: %v", i, out)
		}
	}
	if out[0] != 0 || out[3] != 1 {
		t.Fatalf("endpoints wrong: %v", out)
	}
}
