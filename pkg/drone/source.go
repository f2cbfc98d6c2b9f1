// ABOUTME: Continuous drone source rendering fixed-length chunks with persistent phase
// ABOUTME: Voice changes are debounced and guarded by a generation token
package drone

import (
	"log"
	"sync"
	"time"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
	"github.com/metrodrone/metrodrone-go/pkg/scheduler"
	"github.com/metrodrone/metrodrone-go/pkg/synth"
)

const (
	DefaultChunk    = 100 * time.Millisecond
	DefaultDebounce = 50 * time.Millisecond

	// StartFade is the fade-in applied to the first chunk of a session
	StartFade = 100
)

// Source renders the drone as an endless run of chunks. Phase carries over
// from one chunk to the next so retuning never clicks.
type Source struct {
	mu       sync.Mutex
	chunk    int
	debounce time.Duration

	applied    pattern.DroneVoice
	pending    pattern.DroneVoice
	hasPending bool
	token      uint64
	timer      *time.Timer
	applies    int64

	phase synth.Phase
	fresh bool
}

// NewSource creates a source for voice. Zero durations use the defaults.
func NewSource(voice pattern.DroneVoice, chunk, debounce time.Duration) *Source {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	n := int(audio.SamplesIn(chunk))
	if n < 1 {
		n = 1
	}
	return &Source{
		chunk:    n,
		debounce: debounce,
		applied:  voice,
		fresh:    true,
	}
}

// ChunkSamples is the length of every rendered chunk
func (s *Source) ChunkSamples() int {
	return s.chunk
}

// Next renders the next chunk of the applied voice
func (s *Source) Next(index int) (scheduler.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.applied
	samples := synth.Generate(v.Waveform, synth.VoiceFrequency(v), v.Amplitude, s.chunk, &s.phase)
	if s.fresh {
		fadeIn(samples, StartFade)
		s.fresh = false
	}

	return scheduler.Segment{
		Samples: samples,
		Span:    int64(s.chunk),
		Index:   0,
		Count:   1,
	}, nil
}

// Reset zeroes the phase; the next chunk fades in
func (s *Source) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase.Reset()
	s.fresh = true
}

// SetVoice schedules v to replace the applied voice after the debounce
// interval. A newer call before then supersedes it.
func (s *Source) SetVoice(v pattern.DroneVoice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = v
	s.hasPending = true
	s.token++
	token := s.token

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.apply(token)
	})
}

// apply installs the pending voice if token is still the newest
func (s *Source) apply(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token || !s.hasPending {
		return
	}
	s.applyLocked()
}

func (s *Source) applyLocked() {
	s.applied = s.pending
	s.hasPending = false
	s.applies++
	log.Printf("Drone voice applied: %s%d %s @ A=%.1fHz", s.applied.Note, s.applied.Octave, s.applied.Waveform, s.applied.Tuning)
}

// Flush applies a pending voice immediately
func (s *Source) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.hasPending {
		s.token++
		s.applyLocked()
	}
}

// Voice returns the applied voice
func (s *Source) Voice() pattern.DroneVoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// Regenerations counts voices applied by SetVoice or Flush
func (s *Source) Regenerations() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applies
}

func fadeIn(samples []int16, n int) {
	if n > len(samples) {
		n = len(samples)
	}
	for i := 0; i < n; i++ {
		samples[i] = int16(float64(samples[i]) * float64(i) / float64(n))
	}
}
