package audio

import "math"

// Resample converts a mono float signal between sample rates using linear
// interpolation. It returns the input slice unchanged when the rates match
// or the input is empty. The output length is round(duration * targetRate),
// never less than one sample, and the first and last output samples equal
// the first and last input samples exactly.
func Resample(samples []float32, sourceRate, targetRate int) []float32 {
	if sourceRate == targetRate || len(samples) == 0 {
		return samples
	}

	duration := float64(len(samples)) / float64(sourceRate)
	targetLen := int(math.Round(duration * float64(targetRate)))
	if targetLen < 1 {
		targetLen = 1
	}

	out := make([]float32, targetLen)
	if targetLen == 1 {
		out[0] = samples[0]
		return out
	}

	step := float64(len(samples)-1) / float64(targetLen-1)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + frac*(samples[j+1]-samples[j])
	}
	return out
}
