// ABOUTME: Audio sink interface definition
// ABOUTME: Common contract for sample-clock playback backends
package output

import (
	"errors"
	"time"
)

// ErrSinkUnavailable reports that the audio device could not be started
var ErrSinkUnavailable = errors.New("audio sink unavailable")

// Sink plays mono 16-bit PCM at the engine sample rate. Buffers are placed on
// a sample clock that starts at zero and advances as audio is consumed.
type Sink interface {
	// Start opens the device and begins advancing the clock
	Start() error

	// Stop halts playback. Queued audio is kept until Reset.
	Stop() error

	// Reset discards queued audio without running completion callbacks
	Reset()

	// Enqueue schedules samples to start at sample time at. done, if not
	// nil, runs once the last sample has been consumed. It never runs on
	// the audio thread.
	Enqueue(samples []int16, at int64, done func()) error

	// CurrentSampleTime is the number of samples consumed so far
	CurrentSampleTime() int64

	// OutputLatency is the delay between consumption and audibility
	OutputLatency() time.Duration
}

// VolumeControl is implemented by sinks with a software master gain
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	Volume() int
	Muted() bool
}
