// ABOUTME: Reference-counted sink sharing between the metronome and drone streams
// ABOUTME: The device starts on first acquire and stops on last release
package output

import (
	"fmt"
	"log"
	"sync"
)

// Shared hands one sink to several streams
type Shared struct {
	mu   sync.Mutex
	sink Sink
	refs int
}

// NewShared wraps a sink. The sink is not started until Acquire.
func NewShared(sink Sink) *Shared {
	return &Shared{sink: sink}
}

// Acquire starts the sink if this is the first holder. A start failure is
// reported as ErrSinkUnavailable and does not count as a reference.
func (s *Shared) Acquire() (Sink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		if err := s.sink.Start(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
		}
		log.Printf("Audio sink acquired")
	}
	s.refs++
	return s.sink, nil
}

// Release drops a reference. The last release stops the sink and discards
// anything still queued.
func (s *Shared) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		return
	}
	s.refs--
	if s.refs > 0 {
		return
	}

	if err := s.sink.Stop(); err != nil {
		log.Printf("Error stopping audio sink: %v", err)
	}
	s.sink.Reset()
	log.Printf("Audio sink released")
}

// Sink returns the wrapped sink without acquiring it
func (s *Shared) Sink() Sink {
	return s.sink
}
