// ABOUTME: Pattern model package documentation
// ABOUTME: Value types describing what the metronome and drone play
// Package pattern holds the value types that describe a metronome/drone
// configuration: tempo, time signature, subdivision, per-beat accents and the
// drone voice.
//
// Patterns are treated as immutable. Helpers such as WithBeatCount and
// WithSubdivision return a new Pattern, which lets the engine compare old and
// new values field by field and emit change notifications.
//
// Symbolic input from hosts (tick-type names, note names, waveform names,
// subdivision identifiers) is parsed here. Unknown values produce a
// *ConfigurationError. Numeric input is clamped instead.
package pattern
