// ABOUTME: Manually clocked sink for tests and offline rendering
// ABOUTME: The caller advances the sample clock and receives the mixed audio
package output

import (
	"sync"
	"time"
)

// Manual is a sink whose clock only moves when Advance is called.
// Completion callbacks run synchronously inside Advance.
type Manual struct {
	base

	mu       sync.Mutex
	running  bool
	startErr error
	starts   int
	latency  time.Duration
}

// NewManual creates a stopped manual sink at sample time zero
func NewManual() *Manual {
	return &Manual{base: newBase()}
}

// FailStart makes subsequent Start calls return err until cleared with nil
func (m *Manual) FailStart(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// SetLatency sets the value reported by OutputLatency
func (m *Manual) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

func (m *Manual) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.running = true
	m.starts++
	return nil
}

func (m *Manual) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Running reports whether Start succeeded and Stop has not been called since
func (m *Manual) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Starts counts successful Start calls
func (m *Manual) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

func (m *Manual) OutputLatency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latency
}

// Advance consumes n samples and returns them. Callbacks for buffers that
// finished run before Advance returns, after the timeline lock is released.
func (m *Manual) Advance(n int) []int16 {
	if n <= 0 {
		return []int16{}
	}
	out := make([]int16, n)
	for _, fn := range m.timeline.Read(out) {
		fn()
	}
	return out
}
