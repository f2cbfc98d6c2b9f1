// ABOUTME: Beat subdivisions and the predefined subdivision catalog
// ABOUTME: Resolves subdivisions by catalog name, title, or explicit rest/duration patterns
package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Bounds for custom subdivisions. A part may last at most four beats.
const (
	MaxParts        = 64
	MaxPartDuration = 4.0
)

// BeatPart is one sub-beat: a fraction of the beat and whether it sounds
type BeatPart struct {
	Duration float64
	Sounds   bool
}

// Subdivision is a named pattern of beat parts applied to every beat
type Subdivision struct {
	Name  string
	Title string
	Parts []BeatPart
}

// RestPattern returns, per part, whether it sounds
func (s Subdivision) RestPattern() []bool {
	out := make([]bool, len(s.Parts))
	for i, p := range s.Parts {
		out[i] = p.Sounds
	}
	return out
}

// DurationPattern returns the per-part beat fractions
func (s Subdivision) DurationPattern() []float64 {
	out := make([]float64, len(s.Parts))
	for i, p := range s.Parts {
		out[i] = p.Duration
	}
	return out
}

// Equal reports whether two subdivisions have the same name and parts
func (s Subdivision) Equal(o Subdivision) bool {
	return s.Name == o.Name && s.Title == o.Title && partsEqual(s.Parts, o.Parts)
}

func partsEqual(a, b []BeatPart) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneParts(parts []BeatPart) []BeatPart {
	out := make([]BeatPart, len(parts))
	copy(out, parts)
	return out
}

// fingerprint encodes parts as a canonical comparable string
func fingerprint(parts []BeatPart) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(p.Duration, 'g', -1, 64))
		if p.Sounds {
			b.WriteString(":1")
		} else {
			b.WriteString(":0")
		}
	}
	return b.String()
}

const (
	whole        = 1.0
	half         = 1.0 / 2
	quarter      = 1.0 / 4
	third        = 1.0 / 3
	twoThirds    = 2.0 / 3
	threeQuarter = 3.0 / 4
	fifth        = 1.0 / 5
	seventh      = 1.0 / 7
)

func play(d float64) BeatPart { return BeatPart{Duration: d, Sounds: true} }
func rest(d float64) BeatPart { return BeatPart{Duration: d, Sounds: false} }

func repeatPart(p BeatPart, n int) []BeatPart {
	parts := make([]BeatPart, n)
	for i := range parts {
		parts[i] = p
	}
	return parts
}

var catalog = []Subdivision{
	{Name: "quarter", Title: "Quarter Notes", Parts: []BeatPart{play(whole)}},
	{Name: "eighth", Title: "Eighth Notes", Parts: repeatPart(play(half), 2)},
	{Name: "sixteenth", Title: "Sixteenth Notes", Parts: repeatPart(play(quarter), 4)},
	{Name: "triplet", Title: "Triplet", Parts: repeatPart(play(third), 3)},
	{Name: "swing", Title: "Swing", Parts: []BeatPart{play(twoThirds), play(third)}},
	{Name: "restAndEighth", Title: "Rest and Eighth Note", Parts: []BeatPart{rest(half), play(half)}},
	{Name: "dottedEighthAndSixteenth", Title: "Dotted Eighth and Sixteenth", Parts: []BeatPart{play(threeQuarter), play(quarter)}},
	{Name: "sixteenthAndDottedEighth", Title: "16th Note & Dotted Eighth", Parts: []BeatPart{play(quarter), play(threeQuarter)}},
	{Name: "twoSixteenthAndEighth", Title: "2 Sixteenth Notes & Eighth Note", Parts: []BeatPart{play(quarter), play(quarter), play(half)}},
	{Name: "eighthAndTwoSixteenth", Title: "Eighth Note & 2 Sixteenth Notes", Parts: []BeatPart{play(half), play(quarter), play(quarter)}},
	{Name: "sixteenthRestNoteRestNote", Title: "16th Rest, 16th Note, 16th Rest, 16th Note", Parts: []BeatPart{rest(quarter), play(quarter), rest(quarter), play(quarter)}},
	{Name: "sixteenthEighthSixteenth", Title: "16th Note, Eighth Note, 16th Note", Parts: []BeatPart{play(quarter), play(half), play(quarter)}},
	{Name: "twoTripletsAndRest", Title: "2 Triplets & Triplet Rest", Parts: []BeatPart{play(third), play(third), rest(third)}},
	{Name: "restAndTwoTriplets", Title: "Triplet Rest & 2 Triplets", Parts: []BeatPart{rest(third), play(third), play(third)}},
	{Name: "restTripletRest", Title: "Triplet Rest, Triplet, Triplet Rest", Parts: []BeatPart{rest(third), play(third), rest(third)}},
	{Name: "quintuplets", Title: "Quintuplets", Parts: repeatPart(play(fifth), 5)},
	{Name: "septuplets", Title: "Septuplets", Parts: repeatPart(play(seventh), 7)},
}

// Catalog returns a copy of the predefined subdivisions in display order
func Catalog() []Subdivision {
	out := make([]Subdivision, len(catalog))
	for i, s := range catalog {
		out[i] = Subdivision{Name: s.Name, Title: s.Title, Parts: cloneParts(s.Parts)}
	}
	return out
}

// DefaultSubdivision is quarter notes
func DefaultSubdivision() Subdivision {
	return Catalog()[0]
}

// LookupSubdivision finds a catalog entry by name, then by title.
// Both comparisons ignore case.
func LookupSubdivision(name, description string) (Subdivision, bool) {
	for _, key := range []string{name, description} {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		for _, s := range catalog {
			if strings.EqualFold(s.Name, key) || strings.EqualFold(s.Title, key) {
				return Subdivision{Name: s.Name, Title: s.Title, Parts: cloneParts(s.Parts)}, true
			}
		}
	}
	return Subdivision{}, false
}

// NewSubdivision resolves a subdivision from its structural definition.
// A catalog match wins; otherwise the rest and duration patterns describe a
// custom subdivision.
func NewSubdivision(name, description string, rests []bool, durations []float64) (Subdivision, error) {
	if s, ok := LookupSubdivision(name, description); ok {
		return s, nil
	}

	if len(rests) == 0 || len(durations) == 0 {
		return Subdivision{}, configErr("subdivision", name, "unknown subdivision and no pattern given")
	}
	if len(rests) != len(durations) {
		return Subdivision{}, configErr("subdivision", name, "rest and duration patterns differ in length")
	}

	if len(durations) > MaxParts {
		return Subdivision{}, configErr("subdivision", name, fmt.Sprintf("at most %d parts", MaxParts))
	}

	parts := make([]BeatPart, len(durations))
	for i, d := range durations {
		// NaN fails this check as well
		if !(d > 0 && d <= MaxPartDuration) {
			return Subdivision{}, configErr("subdivision", name, fmt.Sprintf("durations must be in (0, %g]", MaxPartDuration))
		}
		parts[i] = BeatPart{Duration: d, Sounds: rests[i]}
	}

	title := description
	if title == "" {
		title = name
	}
	if name == "" {
		name = "custom"
	}
	return Subdivision{Name: name, Title: title, Parts: parts}, nil
}
