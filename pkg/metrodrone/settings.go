// ABOUTME: JSON settings shared by the control protocol, presets and batch configuration
// ABOUTME: Apply validates every field before producing the new pattern
package metrodrone

import (
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
)

// SubdivisionSpec is the structural definition of a subdivision
type SubdivisionSpec struct {
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	RestPattern     []bool    `json:"restPattern,omitempty"`
	DurationPattern []float64 `json:"durationPattern,omitempty"`
}

// Resolve turns the requested subdivision into a catalog entry or custom pattern
func (s SubdivisionSpec) Resolve() (pattern.Subdivision, error) {
	return pattern.NewSubdivision(s.Name, s.Description, s.RestPattern, s.DurationPattern)
}

// SpecOf describes a subdivision structurally
func SpecOf(s pattern.Subdivision) SubdivisionSpec {
	return SubdivisionSpec{
		Name:            s.Name,
		Description:     s.Title,
		RestPattern:     s.RestPattern(),
		DurationPattern: s.DurationPattern(),
	}
}

// Settings is a partial engine configuration. Nil fields are left unchanged.
type Settings struct {
	BPM                      *int             `json:"bpm,omitempty"`
	TimeSignatureNumerator   *int             `json:"timeSignatureNumerator,omitempty"`
	TimeSignatureDenominator *int             `json:"timeSignatureDenominator,omitempty"`
	TickTypes                []string         `json:"tickTypes,omitempty"`
	Subdivision              *SubdivisionSpec `json:"subdivision,omitempty"`
	IsDroning                *bool            `json:"isDroning,omitempty"`
	DroneDurationRatio       *float64         `json:"droneDurationRatio,omitempty"`

	Note           *string  `json:"note,omitempty"`
	Octave         *int     `json:"octave,omitempty"`
	TuningStandard *float64 `json:"tuningStandard,omitempty"`
	SoundType      *string  `json:"soundType,omitempty"`
	Amplitude      *float64 `json:"amplitude,omitempty"`
	IsPulsing      *bool    `json:"isPulsing,omitempty"`
}

// Ptr returns a pointer to v, for building Settings literals
func Ptr[T any](v T) *T {
	return &v
}

// SettingsOf captures every field of a pattern
func SettingsOf(p pattern.Pattern) Settings {
	sub := SpecOf(p.Subdivision)
	return Settings{
		BPM:                      Ptr(p.Tempo),
		TimeSignatureNumerator:   Ptr(p.TimeSignature.BeatCount),
		TimeSignatureDenominator: Ptr(p.TimeSignature.BeatUnit),
		TickTypes:                pattern.TickTypes(p.Accents()),
		Subdivision:              &sub,
		IsDroning:                Ptr(p.Pulsing),
		DroneDurationRatio:       Ptr(p.Voice.DurationRatio),
		Note:                     Ptr(p.Voice.Note.String()),
		Octave:                   Ptr(p.Voice.Octave),
		TuningStandard:           Ptr(p.Voice.Tuning),
		SoundType:                Ptr(p.Voice.Waveform.String()),
		Amplitude:                Ptr(p.Voice.Amplitude),
		IsPulsing:                Ptr(p.Pulsing),
	}
}

// Apply returns p with every set field applied. On error p is returned
// unchanged along with the first *pattern.ConfigurationError.
//
// The subdivision is applied before tick types so new beats take it, and
// the numerator after tick types so an explicit count wins. isPulsing is
// applied after isDroning.
func (s Settings) Apply(p pattern.Pattern) (pattern.Pattern, error) {
	out := p.Clone()
	var err error

	if s.Subdivision != nil {
		sub, err := s.Subdivision.Resolve()
		if err != nil {
			return p, err
		}
		out = out.WithSubdivision(sub)
	}
	if s.TickTypes != nil {
		accents, err := pattern.ParseTickTypes(s.TickTypes)
		if err != nil {
			return p, err
		}
		if out, err = out.WithTickTypes(accents); err != nil {
			return p, err
		}
	}
	if s.TimeSignatureNumerator != nil {
		if out, err = out.WithBeatCount(*s.TimeSignatureNumerator); err != nil {
			return p, err
		}
	}
	if s.TimeSignatureDenominator != nil {
		if out, err = out.WithBeatUnit(*s.TimeSignatureDenominator); err != nil {
			return p, err
		}
	}
	if s.BPM != nil {
		out.Tempo = pattern.ClampTempo(*s.BPM)
	}
	if s.DroneDurationRatio != nil {
		out.Voice.DurationRatio = pattern.ClampRatio(*s.DroneDurationRatio)
	}

	if s.Note != nil {
		note, err := pattern.ParseNote(*s.Note)
		if err != nil {
			return p, err
		}
		out.Voice.Note = note
	}
	if s.Octave != nil {
		out.Voice.Octave = pattern.ClampOctave(*s.Octave)
	}
	if s.TuningStandard != nil {
		if err := pattern.ValidateTuning(*s.TuningStandard); err != nil {
			return p, err
		}
		out.Voice.Tuning = *s.TuningStandard
	}
	if s.SoundType != nil {
		w, err := pattern.ParseWaveform(*s.SoundType)
		if err != nil {
			return p, err
		}
		out.Voice.Waveform = w
	}
	if s.Amplitude != nil {
		out.Voice.Amplitude = pattern.ClampAmplitude(*s.Amplitude)
	}

	if s.IsDroning != nil {
		out.Pulsing = *s.IsDroning
	}
	if s.IsPulsing != nil {
		out.Pulsing = *s.IsPulsing
	}
	return out, nil
}
