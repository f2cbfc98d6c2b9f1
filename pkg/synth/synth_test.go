// ABOUTME: Tests for the oscillator bank
// ABOUTME: Tests frequency derivation, phase continuity and output bounds
package synth

import (
	"math"
	"testing"

	"github.com/metrodrone/metrodrone-go/pkg/pattern"
)

func TestFrequency(t *testing.T) {
	tests := []struct {
		name     string
		note     pattern.Note
		octave   int
		tuning   float64
		expected float64
	}{
		{"A4", pattern.A, 4, 440, 440},
		{"A5", pattern.A, 5, 440, 880},
		{"A3 at 442", pattern.A, 3, 442, 221},
		{"C4", pattern.C, 4, 440, 261.6256},
		{"B4", pattern.B, 4, 440, 493.8833},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Frequency(tt.note, tt.octave, tt.tuning)
			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("expected %.4f, got %.4f", tt.expected, got)
			}
		})
	}
}

func TestGenerateEmpty(t *testing.T) {
	var p Phase
	for _, n := range []int{0, -5} {
		if out := Generate(pattern.Sine, 440, 1, n, &p); len(out) != 0 {
			t.Errorf("n=%d: expected empty output, got %d samples", n, len(out))
		}
	}
}

func TestSineStartsAtZero(t *testing.T) {
	var p Phase
	out := Generate(pattern.Sine, 440, 0.5, 10, &p)
	if out[0] != 0 {
		t.Errorf("first sine sample should be 0, got %d", out[0])
	}
	if out[1] <= 0 {
		t.Errorf("sine should rise after the first sample, got %d", out[1])
	}
}

func TestPhaseContinuity(t *testing.T) {
	for _, w := range []pattern.Waveform{pattern.Sine, pattern.Organ, pattern.Cello} {
		t.Run(w.String(), func(t *testing.T) {
			var whole Phase
			full := Generate(w, 261.63, 0.7, 2000, &whole)

			var split Phase
			first := Generate(w, 261.63, 0.7, 1200, &split)
			second := Generate(w, 261.63, 0.7, 800, &split)
			joined := append(first, second...)

			for i := range full {
				if full[i] != joined[i] {
					t.Fatalf("sample %d differs: %d vs %d", i, full[i], joined[i])
				}
			}
		})
	}
}

func TestResetRestartsWaveform(t *testing.T) {
	var p Phase
	a := Generate(pattern.Organ, 330, 0.5, 100, &p)
	p.Reset()
	b := Generate(pattern.Organ, 330, 0.5, 100, &p)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs after reset", i)
		}
	}
}

func TestAmplitudeBounds(t *testing.T) {
	tests := []struct {
		waveform pattern.Waveform
		limit    int16
	}{
		{pattern.Sine, 16384},
		// organ harmonics sum past 1.0 and must clamp rather than wrap
		{pattern.Organ, 32767},
		{pattern.Cello, 32767},
	}

	for _, tt := range tests {
		t.Run(tt.waveform.String(), func(t *testing.T) {
			var p Phase
			amp := 1.0
			if tt.waveform == pattern.Sine {
				amp = 0.5
			}
			out := Generate(tt.waveform, 110, amp, 44100, &p)
			for i, s := range out {
				if s > tt.limit || s < -tt.limit-1 {
					t.Fatalf("sample %d out of bounds: %d", i, s)
				}
			}
		})
	}
}

func TestSilentAmplitude(t *testing.T) {
	var p Phase
	for _, s := range Generate(pattern.Cello, 220, 0, 500, &p) {
		if s != 0 {
			t.Fatalf("expected silence, got %d", s)
		}
	}
}

func TestVoiceFrequency(t *testing.T) {
	v := pattern.DefaultVoice()
	v.Note = pattern.A
	if got := VoiceFrequency(v); got != 440 {
		t.Errorf("expected 440, got %f", got)
	}
}
