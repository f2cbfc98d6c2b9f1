// ABOUTME: Shared sink plumbing embedded by the concrete sinks
// ABOUTME: Forwards enqueue, clock and volume calls to the timeline
package output

import "fmt"

type base struct {
	timeline *Timeline
}

func newBase() base {
	return base{timeline: NewTimeline()}
}

func (b *base) Enqueue(samples []int16, at int64, done func()) error {
	if at < 0 {
		return fmt.Errorf("invalid sample time: %d", at)
	}
	b.timeline.Add(samples, at, done)
	return nil
}

func (b *base) CurrentSampleTime() int64 {
	return b.timeline.Clock()
}

func (b *base) Reset() {
	b.timeline.Clear()
}

func (b *base) SetVolume(volume int) { b.timeline.SetVolume(volume) }
func (b *base) SetMuted(muted bool)  { b.timeline.SetMuted(muted) }
func (b *base) Volume() int          { return b.timeline.Volume() }
func (b *base) Muted() bool          { return b.timeline.Muted() }

// Pending returns the number of buffers not yet played out
func (b *base) Pending() int {
	return b.timeline.Pending()
}
