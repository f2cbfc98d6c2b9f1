// ABOUTME: Audio type definitions
// ABOUTME: Defines the engine PCM format and sample arithmetic helpers
package audio

import (
	"math"
	"time"
)

const (
	// SampleRate is the fixed engine rate in Hz
	SampleRate = 44100
	// Channels is the engine channel count (mono)
	Channels = 1
	// BitDepth is the engine sample width
	BitDepth = 16

	MaxSample = math.MaxInt16
	MinSample = math.MinInt16
)

// Format describes audio stream format
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// EngineFormat is the format every rendered buffer uses
var EngineFormat = Format{
	SampleRate: SampleRate,
	Channels:   Channels,
	BitDepth:   BitDepth,
}

// Clamp converts a wide sample to int16, saturating at the int16 bounds
func Clamp(v int32) int16 {
	if v > MaxSample {
		return MaxSample
	}
	if v < MinSample {
		return MinSample
	}
	return int16(v)
}

// ClampFloat scales a unit-range value to int16 with saturation
func ClampFloat(v float64) int16 {
	scaled := v * MaxSample
	if scaled > MaxSample {
		return MaxSample
	}
	if scaled < MinSample {
		return MinSample
	}
	return int16(scaled)
}

// SaturatingAdd adds two samples without wrapping
func SaturatingAdd(a, b int16) int16 {
	return Clamp(int32(a) + int32(b))
}

// Mix sums two sample slices with saturation. The result has the length of
// the longer input; neither input is modified.
func Mix(a, b []int16) []int16 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int16, n)
	copy(out, a)
	for i, s := range b {
		out[i] = SaturatingAdd(out[i], s)
	}
	return out
}

// MixInto adds src into dst in place with saturation, starting at offset
func MixInto(dst []int16, src []int16, offset int) {
	for i, s := range src {
		j := offset + i
		if j < 0 {
			continue
		}
		if j >= len(dst) {
			return
		}
		dst[j] = SaturatingAdd(dst[j], s)
	}
}

// SamplesFor returns round(seconds * SampleRate)
func SamplesFor(seconds float64) int {
	return int(math.Round(seconds * SampleRate))
}

// DurationOf converts a sample count to wall-clock duration
func DurationOf(samples int64) time.Duration {
	return time.Duration(samples) * time.Second / SampleRate
}

// SamplesIn converts a duration to a sample count, rounding down
func SamplesIn(d time.Duration) int64 {
	return int64(d) * SampleRate / int64(time.Second)
}

// ToFloat converts an int16 sample to [-1, 1)
func ToFloat(s int16) float64 {
	return float64(s) / 32768.0
}

// FromFloat converts a [-1, 1] sample to int16 with saturation
func FromFloat(f float64) int16 {
	return Clamp(int32(math.Round(f * 32768.0)))
}
