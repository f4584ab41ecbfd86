package audio

import (
	"encoding/binary"
	"math"
)

// SamplesFromPCM16 converts little-endian PCM16 bytes into int16 samples.
// A trailing odd byte is dropped.
func SamplesFromPCM16(data []byte) []int16 {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return samples
}

// DownmixToMono averages interleaved channel samples per frame, rounding to
// the nearest integer. A trailing incomplete frame is truncated.
func DownmixToMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for f := 0; f < frames; f++ {
		var sum int64
		for c := 0; c < channels; c++ {
			sum += int64(samples[f*channels+c])
		}
		mono[f] = int16(math.Round(float64(sum) / float64(channels)))
	}
	return mono
}

// Normalize scales int16 samples into float32 amplitudes in [-1, 1).
func Normalize(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// PCM16FromFloat quantizes normalized float samples to little-endian PCM16
// bytes, clamping out-of-range amplitudes.
func PCM16FromFloat(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Round(float64(s) * 32767.0)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(int16(v)))
	}
	return out
}

// RMS computes the root mean square amplitude of up to the first maxSamples
// samples of a PCM16 little-endian buffer, normalized to [0, 1]. Degenerate
// input (empty, or shorter than one sample) yields 0.
func RMS(data []byte, maxSamples int) float64 {
	n := len(data) / 2
	if n == 0 {
		return 0
	}
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(data[i*2:i*2+2]))) / 32768.0
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
