// ABOUTME: Linear interpolation resampler for whole mono clips
// ABOUTME: Brings click samples recorded at other rates to the engine rate
package resample

import "math"

// Length is the number of samples a clip of n samples has after conversion
// from one rate to another. A non-empty clip never shrinks to nothing.
func Length(n, from, to int) int {
	if n == 0 || from <= 0 || to <= 0 {
		return 0
	}
	return max(1, int(math.Round(float64(n)*float64(to)/float64(from))))
}

// Mono converts a mono clip between sample rates. Positions past the last
// input sample hold that sample so the tail is not cut short.
func Mono(input []int16, from, to int) []int16 {
	n := Length(len(input), from, to)
	if n == 0 {
		return nil
	}
	if from == to {
		out := make([]int16, n)
		copy(out, input)
		return out
	}

	step := float64(from) / float64(to)
	last := len(input) - 1
	out := make([]int16, n)
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = input[last]
			continue
		}
		frac := pos - float64(idx)
		v := float64(input[idx])*(1-frac) + float64(input[idx+1])*frac
		out[i] = int16(math.Round(v))
	}
	return out
}
