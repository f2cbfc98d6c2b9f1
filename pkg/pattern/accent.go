// ABOUTME: Accent levels for metronome beats
// ABOUTME: Closed enumeration with cyclic Next and tick-type wire names
package pattern

import "strings"

// Accent is the loudness tier of a beat's click
type Accent uint8

const (
	Mute Accent = iota
	Default
	Accented
	Strong
)

const tickTypePrefix = "TickType."

// Next returns the following accent, wrapping Strong back to Mute
func (a Accent) Next() Accent {
	switch a {
	case Mute:
		return Default
	case Default:
		return Accented
	case Accented:
		return Strong
	default:
		return Mute
	}
}

func (a Accent) String() string {
	switch a {
	case Mute:
		return "Mute"
	case Default:
		return "Default"
	case Accented:
		return "Accent"
	case Strong:
		return "Strong"
	default:
		return "Unknown"
	}
}

// TickType returns the wire name used by hosts
func (a Accent) TickType() string {
	switch a {
	case Mute:
		return "silence"
	case Accented:
		return "accent"
	case Strong:
		return "strongAccent"
	default:
		return "regular"
	}
}

// ParseTickType maps a wire name (optionally prefixed with "TickType.") to an accent
func ParseTickType(s string) (Accent, error) {
	switch strings.TrimPrefix(s, tickTypePrefix) {
	case "silence":
		return Mute, nil
	case "regular":
		return Default, nil
	case "accent":
		return Accented, nil
	case "strongAccent":
		return Strong, nil
	}
	return Default, configErr("tickType", s, "unknown tick type")
}

// ParseTickTypes parses a full tick-type list, failing on the first bad entry
func ParseTickTypes(names []string) ([]Accent, error) {
	accents := make([]Accent, len(names))
	for i, name := range names {
		a, err := ParseTickType(name)
		if err != nil {
			return nil, err
		}
		accents[i] = a
	}
	return accents, nil
}

// TickTypes renders accents as wire names
func TickTypes(accents []Accent) []string {
	names := make([]string, len(accents))
	for i, a := range accents {
		names[i] = a.TickType()
	}
	return names
}
