// ABOUTME: Drone voice model: pitch classes, waveforms and voice parameters
// ABOUTME: Includes parsing of host-supplied names and numeric bounds
package pattern

import (
	"math"
	"strings"
)

// Note is one of the twelve pitch classes
type Note uint8

const (
	C Note = iota
	Cs
	D
	Ds
	E
	F
	Fs
	G
	Gs
	A
	As
	B
)

var noteNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Notes lists all pitch classes from C upward
var Notes = []Note{C, Cs, D, Ds, E, F, Fs, G, Gs, A, As, B}

func (n Note) String() string {
	if int(n) < len(noteNames) {
		return noteNames[n]
	}
	return "?"
}

// SemitonesFromA is the signed distance to A in the same octave
func (n Note) SemitonesFromA() int {
	return int(n) - int(A)
}

// ParseNote accepts "C#", "Cs", "CS" and lower-case forms
func ParseNote(s string) (Note, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if len(key) == 2 && key[1] == 'S' {
		key = key[:1] + "#"
	}
	for i, name := range noteNames {
		if name == key {
			return Note(i), nil
		}
	}
	return C, configErr("note", s, "unknown note name")
}

// Waveform selects the drone timbre
type Waveform uint8

const (
	Sine Waveform = iota
	Organ
	Cello
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "Sine"
	case Organ:
		return "Organ"
	case Cello:
		return "Cello"
	default:
		return "Unknown"
	}
}

// ParseWaveform matches a waveform name ignoring case
func ParseWaveform(s string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sine":
		return Sine, nil
	case "organ":
		return Organ, nil
	case "cello":
		return Cello, nil
	}
	return Sine, configErr("soundType", s, "unknown sound type")
}

const (
	DefaultTuning    = 440.0
	DefaultOctave    = 4
	DefaultAmplitude = 0.5
	DefaultRatio     = 0.5

	MinRatio  = 0.1
	MaxRatio  = 0.99
	MinOctave = 0
	MaxOctave = 8
)

// DroneVoice describes the drone tone and its gate ratio for pulsed mode
type DroneVoice struct {
	Waveform      Waveform
	Note          Note
	Octave        int
	Tuning        float64 // Hz for A4
	Amplitude     float64 // 0..1
	DurationRatio float64 // fraction of each sounding part the pulse lasts
}

// DefaultVoice is a C4 sine at half amplitude tuned to A=440
func DefaultVoice() DroneVoice {
	return DroneVoice{
		Waveform:      Sine,
		Note:          C,
		Octave:        DefaultOctave,
		Tuning:        DefaultTuning,
		Amplitude:     DefaultAmplitude,
		DurationRatio: DefaultRatio,
	}
}

// ClampRatio bounds a drone duration ratio to [0.1, 0.99]
func ClampRatio(r float64) float64 {
	return clampFloat(r, MinRatio, MaxRatio)
}

// ClampAmplitude bounds an amplitude to [0, 1]
func ClampAmplitude(a float64) float64 {
	return clampFloat(a, 0, 1)
}

// ClampOctave bounds an octave to [0, 8]
func ClampOctave(o int) int {
	if o < MinOctave {
		return MinOctave
	}
	if o > MaxOctave {
		return MaxOctave
	}
	return o
}

// ValidateTuning rejects non-positive reference frequencies
func ValidateTuning(hz float64) error {
	if !(hz > 0) {
		return configErr("tuningStandard", hz, "must be positive")
	}
	return nil
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
