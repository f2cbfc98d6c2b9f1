// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts mono int16 clips between sample rates
// Package resample converts click samples to the engine rate.
//
// Clips are short and converted once at load time, so the whole clip is
// processed in one call.
//
// Example:
//
//	tick := resample.Mono(samples, 48000, audio.SampleRate)
package resample
