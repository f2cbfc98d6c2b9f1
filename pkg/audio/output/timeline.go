// ABOUTME: Sample-clock mixer shared by every sink implementation
// ABOUTME: Mixes overlapping buffers, applies master volume and reports finished buffers
package output

import (
	"log"
	"sync"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
)

type entry struct {
	at      int64
	samples []int16
	done    func()
}

func (e entry) end() int64 {
	return e.at + int64(len(e.samples))
}

// Timeline holds scheduled buffers against a sample clock
type Timeline struct {
	mu      sync.Mutex
	clock   int64
	entries []entry
	volume  int
	muted   bool
}

// NewTimeline creates an empty timeline at sample time zero and full volume
func NewTimeline() *Timeline {
	return &Timeline{volume: 100}
}

// Add schedules samples at sample time at. Audio whose time has already
// passed is skipped; the buffer still completes on the next Read.
func (t *Timeline) Add(samples []int16, at int64, done func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if at < t.clock {
		log.Printf("Late buffer: scheduled at %d, clock at %d", at, t.clock)
	}
	t.entries = append(t.entries, entry{at: at, samples: samples, done: done})
}

// Read fills out with the mix for the next len(out) samples, advances the
// clock and returns the callbacks of buffers that finished in this window.
func (t *Timeline) Read(out []int16) []func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range out {
		out[i] = 0
	}

	start := t.clock
	stop := start + int64(len(out))

	var finished []func()
	kept := t.entries[:0]
	for _, e := range t.entries {
		from := e.at
		if from < start {
			from = start
		}
		to := e.end()
		if to > stop {
			to = stop
		}
		if from < to {
			audio.MixInto(out[from-start:to-start], e.samples[from-e.at:to-e.at], 0)
		}

		if e.end() <= stop {
			if e.done != nil {
				finished = append(finished, e.done)
			}
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(t.entries); i++ {
		t.entries[i] = entry{}
	}
	t.entries = kept

	applyVolume(out, t.volume, t.muted)
	t.clock = stop
	return finished
}

// Clock returns the current sample time
func (t *Timeline) Clock() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clock
}

// Pending returns the number of scheduled buffers not yet finished
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Clear drops every scheduled buffer. The clock keeps running.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// SetVolume sets the master volume (0-100)
func (t *Timeline) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	t.mu.Lock()
	t.volume = volume
	t.mu.Unlock()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (t *Timeline) SetMuted(muted bool) {
	t.mu.Lock()
	t.muted = muted
	t.mu.Unlock()
	log.Printf("Muted: %v", muted)
}

// Volume returns current volume
func (t *Timeline) Volume() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// Muted returns mute state
func (t *Timeline) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

// applyVolume scales samples in place. Full volume leaves them untouched.
func applyVolume(samples []int16, volume int, muted bool) {
	multiplier := getVolumeMultiplier(volume, muted)
	if multiplier == 1.0 {
		return
	}
	for i, s := range samples {
		samples[i] = audio.Clamp(int32(float64(s) * multiplier))
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
