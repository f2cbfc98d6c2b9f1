// ABOUTME: Drone package documentation
// ABOUTME: Continuous tone playback with debounced retuning
// Package drone plays a continuous tone in short look-ahead chunks.
//
// Voice changes (note, octave, tuning, waveform, amplitude) go through
// SetVoice. Calls arriving within the debounce interval collapse into one
// regeneration; each call takes a new generation token and a timer applies
// the voice only if its token is still current.
package drone
