// ABOUTME: Oscillator bank for the drone voices (sine, organ, cello)
// ABOUTME: Phase state is caller-owned so continuity across buffers is explicit
package synth

import (
	"math"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
)

const twoPi = 2 * math.Pi

var (
	organMultipliers = [4]float64{1, 2, 3, 4}
	organWeights     = [4]float64{1, 0.5, 0.25, 0.125}
)

const (
	vibratoRate  = 5.0
	vibratoDepth = 0.01
	tremoloRate  = 3.0
	tremoloDepth = 0.2
)

// Phase holds oscillator state between calls to Generate.
// The zero value is a freshly reset phase.
type Phase struct {
	Sine  float64
	Organ [4]float64
	Cello float64
}

// Reset zeroes every oscillator phase
func (p *Phase) Reset() {
	*p = Phase{}
}

// Frequency derives the pitch of a note from the A4 reference
func Frequency(note pattern.Note, octave int, tuning float64) float64 {
	offset := note.SemitonesFromA() + 12*(octave-4)
	return tuning * math.Pow(2, float64(offset)/12)
}

// VoiceFrequency is Frequency for a drone voice
func VoiceFrequency(v pattern.DroneVoice) float64 {
	return Frequency(v.Note, v.Octave, v.Tuning)
}

// Generate produces n samples of the waveform, advancing phase
func Generate(w pattern.Waveform, freq, amplitude float64, n int, phase *Phase) []int16 {
	if n <= 0 {
		return []int16{}
	}
	out := make([]int16, n)
	GenerateInto(out, w, freq, amplitude, phase)
	return out
}

// GenerateInto fills dst completely, advancing phase
func GenerateInto(dst []int16, w pattern.Waveform, freq, amplitude float64, phase *Phase) {
	if phase == nil {
		panic("synth: nil phase")
	}
	for i := range dst {
		var v float64
		switch w {
		case pattern.Organ:
			v = phase.organ(freq)
		case pattern.Cello:
			v = phase.cello(freq)
		default:
			v = phase.sine(freq)
		}
		dst[i] = audio.ClampFloat(v * amplitude)
	}
}

func wrap(p float64) float64 {
	if p > twoPi {
		p -= twoPi
	}
	return p
}

func (p *Phase) sine(freq float64) float64 {
	s := math.Sin(p.Sine)
	p.Sine = wrap(p.Sine + twoPi*freq/audio.SampleRate)
	return s
}

func (p *Phase) organ(freq float64) float64 {
	sum := 0.0
	for h := range p.Organ {
		sum += math.Sin(p.Organ[h]) * organWeights[h]
		p.Organ[h] = wrap(p.Organ[h] + twoPi*freq*organMultipliers[h]/audio.SampleRate)
	}
	return sum
}

// cello advances before sampling; the vibrato bends the increment
func (p *Phase) cello(freq float64) float64 {
	base := twoPi * freq / audio.SampleRate
	vibrato := math.Sin(p.Cello*(vibratoRate/freq)) * vibratoDepth
	p.Cello = wrap(p.Cello + base*(1+vibrato))

	frac := p.Cello / twoPi
	saw := 2 * (frac - math.Floor(frac+0.5)) * 0.8

	trem := 1 - math.Sin(p.Cello*(tremoloRate/vibratoRate))*tremoloDepth

	h := math.Sin(p.Cello)*0.3 + math.Sin(2*p.Cello)*0.2 + math.Sin(3*p.Cello)*0.1
	return (saw + h) * trem
}
