// ABOUTME: Tap tempo detector
// ABOUTME: Converts three taps within a window into a BPM estimate
package tap

import (
	"sync"
	"time"
)

// Window is the longest gap between taps that still counts as one sequence
const Window = 3000 * time.Millisecond

// Detector is a three-tap state machine. It is safe for concurrent use.
type Detector struct {
	mu     sync.Mutex
	now    func() time.Time
	first  *time.Time
	second *time.Time
}

// New creates a detector using the wall clock
func New() *Detector {
	return NewWithClock(time.Now)
}

// NewWithClock creates a detector with an injected clock
func NewWithClock(now func() time.Time) *Detector {
	return &Detector{now: now}
}

// Tap records a tap. The third tap of a sequence yields the tempo from the
// average of the two gaps and starts a new sequence at that tap.
func (d *Detector) Tap() (bpm int, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()

	switch {
	case d.first == nil:
		d.first = &now
		return 0, false

	case d.second == nil:
		if now.Sub(*d.first) <= Window {
			d.second = &now
		} else {
			d.first = &now
		}
		return 0, false

	case now.Sub(*d.second) > Window:
		// Too late for a third tap; keep first and restart from here
		d.second = &now
		return 0, false
	}

	gap := now.Sub(*d.first).Milliseconds() / 2
	d.first = &now
	d.second = nil

	if gap <= 0 {
		return 0, false
	}
	return int(60000 / gap), true
}

// Reset forgets all taps
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.first = nil
	d.second = nil
}
