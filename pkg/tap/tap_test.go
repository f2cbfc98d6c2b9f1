// ABOUTME: Tests for the tap tempo detector
// ABOUTME: Drives the detector with a fake clock
package tap

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(ms int) { c.t = c.t.Add(time.Duration(ms) * time.Millisecond) }

func TestTapSequences(t *testing.T) {
	tests := []struct {
		name    string
		gaps    []int // ms before each tap after the first
		wantBPM []int // 0 means no result for that tap
	}{
		{
			name:    "steady 120",
			gaps:    []int{500, 500},
			wantBPM: []int{0, 0, 120},
		},
		{
			name:    "average of uneven gaps",
			gaps:    []int{400, 600},
			wantBPM: []int{0, 0, 120},
		},
		{
			name:    "late second tap restarts",
			gaps:    []int{3500, 1000, 1000},
			wantBPM: []int{0, 0, 0, 60},
		},
		{
			name:    "late third tap becomes second",
			gaps:    []int{500, 4000, 500},
			wantBPM: []int{0, 0, 0, 24},
		},
		{
			name:    "new sequence starts at the result tap",
			gaps:    []int{500, 500, 250, 250},
			wantBPM: []int{0, 0, 120, 0, 240},
		},
		{
			name:    "fourth tap long after gives nothing",
			gaps:    []int{500, 500, 4000},
			wantBPM: []int{0, 0, 120, 0},
		},
		{
			name:    "exactly the window still counts",
			gaps:    []int{3000, 3000},
			wantBPM: []int{0, 0, 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: time.Unix(1000, 0)}
			d := NewWithClock(clock.now)

			for i, want := range tt.wantBPM {
				if i > 0 {
					clock.advance(tt.gaps[i-1])
				}
				bpm, ok := d.Tap()
				if want == 0 {
					if ok {
						t.Errorf("tap %d: expected no result, got %d", i, bpm)
					}
					continue
				}
				if !ok || bpm != want {
					t.Errorf("tap %d: expected %d, got %d (ok=%v)", i, want, bpm, ok)
				}
			}
		})
	}
}

func TestZeroGapYieldsNothing(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	d := NewWithClock(clock.now)

	d.Tap()
	d.Tap()
	if bpm, ok := d.Tap(); ok {
		t.Errorf("simultaneous taps should not produce a tempo, got %d", bpm)
	}
}

func TestReset(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	d := NewWithClock(clock.now)

	d.Tap()
	clock.advance(500)
	d.Tap()
	d.Reset()
	clock.advance(500)
	if _, ok := d.Tap(); ok {
		t.Error("tap after Reset should start a new sequence")
	}
}
