// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the engine format and saturating sample arithmetic
// Package audio provides the PCM fundamentals shared by the metrodrone engine.
//
// Every buffer the engine renders is 16-bit signed mono at 44,100 Hz:
//   - Format / EngineFormat: describes that stream format
//   - Buffer: samples placed at a sink sample time
//
// Sample arithmetic never wraps. Mixing two layers clamps to the int16 range:
//
//	mixed := audio.Mix(clicks, drone)
//
// Conversions between sample counts and durations round the same way the
// scheduler does, so a beat of 0.5 s is exactly audio.SamplesFor(0.5) samples.
package audio
