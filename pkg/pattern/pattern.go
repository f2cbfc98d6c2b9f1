// ABOUTME: Pattern aggregate: tempo, time signature, beats, subdivision and drone voice
// ABOUTME: Every mutation returns a new value so changes can be detected field by field
package pattern

import "fmt"

const (
	MinTempo     = 20
	MaxTempo     = 400
	DefaultTempo = 120

	// MaxBeats bounds the time signature numerator and the tick type list
	MaxBeats = 64
)

// ClampTempo bounds a BPM value to [MinTempo, MaxTempo]
func ClampTempo(bpm int) int {
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}

// TimeSignature is beats per bar over the beat unit
type TimeSignature struct {
	BeatCount int
	BeatUnit  int
}

// Beat is one pulse of the bar with its own copy of the subdivision parts
type Beat struct {
	Parts  []BeatPart
	Accent Accent
}

// Fingerprint returns a comparable encoding of the beat parts
func (b Beat) Fingerprint() string {
	return fingerprint(b.Parts)
}

func (b Beat) clone() Beat {
	return Beat{Parts: cloneParts(b.Parts), Accent: b.Accent}
}

// Pattern is the full engine configuration
type Pattern struct {
	Tempo         int
	TimeSignature TimeSignature
	Subdivision   Subdivision
	Beats         []Beat
	Voice         DroneVoice
	Pulsing       bool // drone layered into every beat
}

// DefaultPattern returns 120 BPM in 4/4, quarter notes, regular accents and the default voice
func DefaultPattern() Pattern {
	sub := DefaultSubdivision()
	p := Pattern{
		Tempo:         DefaultTempo,
		TimeSignature: TimeSignature{BeatCount: 4, BeatUnit: 4},
		Subdivision:   sub,
		Voice:         DefaultVoice(),
	}
	p.Beats = make([]Beat, 4)
	for i := range p.Beats {
		p.Beats[i] = Beat{Parts: cloneParts(sub.Parts), Accent: Default}
	}
	return p
}

// Clone deep-copies the pattern so the copy shares no slices
func (p Pattern) Clone() Pattern {
	out := p
	out.Subdivision.Parts = cloneParts(p.Subdivision.Parts)
	out.Beats = make([]Beat, len(p.Beats))
	for i, b := range p.Beats {
		out.Beats[i] = b.clone()
	}
	return out
}

// Accents returns the accent of every beat in order
func (p Pattern) Accents() []Accent {
	out := make([]Accent, len(p.Beats))
	for i, b := range p.Beats {
		out[i] = b.Accent
	}
	return out
}

// BeatAt returns the beat for a cyclic index
func (p Pattern) BeatAt(index int) (Beat, int) {
	if len(p.Beats) == 0 {
		return Beat{}, 0
	}
	i := index % len(p.Beats)
	if i < 0 {
		i += len(p.Beats)
	}
	return p.Beats[i], i
}

// WithBeatCount grows or truncates the beat list. New beats take the
// current subdivision with the default accent.
func (p Pattern) WithBeatCount(n int) (Pattern, error) {
	if n < 1 || n > MaxBeats {
		return p, configErr("timeSignatureNumerator", n, fmt.Sprintf("must be between 1 and %d", MaxBeats))
	}
	out := p.Clone()
	switch {
	case n < len(out.Beats):
		out.Beats = out.Beats[:n]
	case n > len(out.Beats):
		for len(out.Beats) < n {
			out.Beats = append(out.Beats, Beat{Parts: cloneParts(out.Subdivision.Parts), Accent: Default})
		}
	}
	out.TimeSignature.BeatCount = n
	return out, nil
}

// WithBeatUnit replaces the time signature denominator
func (p Pattern) WithBeatUnit(unit int) (Pattern, error) {
	if unit < 1 {
		return p, configErr("timeSignatureDenominator", unit, "must be at least 1")
	}
	out := p.Clone()
	out.TimeSignature.BeatUnit = unit
	return out, nil
}

// WithSubdivision applies the subdivision parts to every beat
func (p Pattern) WithSubdivision(s Subdivision) Pattern {
	out := p.Clone()
	out.Subdivision = Subdivision{Name: s.Name, Title: s.Title, Parts: cloneParts(s.Parts)}
	for i := range out.Beats {
		out.Beats[i].Parts = cloneParts(s.Parts)
	}
	return out
}

// WithTickTypes replaces every accent. The beat count follows the list
// length; beats past the old end use the current subdivision.
func (p Pattern) WithTickTypes(accents []Accent) (Pattern, error) {
	if len(accents) == 0 {
		return p, configErr("tickTypes", accents, "at least one beat is required")
	}
	if len(accents) > MaxBeats {
		return p, configErr("tickTypes", len(accents), fmt.Sprintf("at most %d beats", MaxBeats))
	}
	out := p.Clone()
	beats := make([]Beat, len(accents))
	for i, a := range accents {
		parts := out.Subdivision.Parts
		if i < len(out.Beats) {
			parts = out.Beats[i].Parts
		}
		beats[i] = Beat{Parts: cloneParts(parts), Accent: a}
	}
	out.Beats = beats
	out.TimeSignature.BeatCount = len(beats)
	return out, nil
}

// WithNextAccent advances the accent of one beat cyclically
func (p Pattern) WithNextAccent(index int) (Pattern, error) {
	if index < 0 || index >= len(p.Beats) {
		return p, configErr("tickIndex", index, "out of range")
	}
	out := p.Clone()
	out.Beats[index].Accent = out.Beats[index].Accent.Next()
	return out, nil
}
