// ABOUTME: Drone stream: a drone Source driven by a look-ahead scheduler
// ABOUTME: Start resets phase, voice changes flow through the debounced Source
package drone

import (
	"time"

	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
	"github.com/metrodrone/metrodrone-go/pkg/scheduler"
)

// Config configures a drone stream
type Config struct {
	Voice     pattern.DroneVoice
	Chunk     time.Duration
	Debounce  time.Duration
	LookAhead int
}

// Stream plays the continuous drone
type Stream struct {
	source *Source
	sched  *scheduler.Scheduler
}

// NewStream creates an idle drone stream
func NewStream(cfg Config) *Stream {
	src := NewSource(cfg.Voice, cfg.Chunk, cfg.Debounce)
	return &Stream{
		source: src,
		sched: scheduler.New(scheduler.Config{
			Name:      "drone",
			Source:    src,
			LookAhead: cfg.LookAhead,
		}),
	}
}

// Start begins playback on sink with a fresh phase. Starting a running
// stream does nothing.
func (s *Stream) Start(sink output.Sink) error {
	if s.sched.Running() {
		return nil
	}
	s.source.Reset()
	return s.sched.Start(sink)
}

func (s *Stream) Stop() {
	s.sched.Stop()
}

func (s *Stream) Running() bool {
	return s.sched.Running()
}

// Close stops the stream and applies any pending voice
func (s *Stream) Close() {
	s.sched.Close()
	s.source.Flush()
}

func (s *Stream) SetVoice(v pattern.DroneVoice) { s.source.SetVoice(v) }
func (s *Stream) Voice() pattern.DroneVoice     { return s.source.Voice() }
func (s *Stream) Regenerations() int64          { return s.source.Regenerations() }
func (s *Stream) Flush()                        { s.source.Flush() }

// Stats exposes the underlying scheduler statistics
func (s *Stream) Stats() scheduler.Stats {
	return s.sched.Stats()
}
