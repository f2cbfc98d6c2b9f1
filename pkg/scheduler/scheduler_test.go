// ABOUTME: Tests for the look-ahead scheduler
// ABOUTME: Tests drift-free targets, cycle wrap, tick ordering, stop and stale callbacks
package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
)

// recordingSink remembers every enqueue target
type recordingSink struct {
	*output.Manual

	mu  sync.Mutex
	ats []int64
}

func newRecordingSink() *recordingSink {
	return &recordingSink{Manual: output.NewManual()}
}

func (r *recordingSink) Enqueue(samples []int16, at int64, done func()) error {
	r.mu.Lock()
	r.ats = append(r.ats, at)
	r.mu.Unlock()
	return r.Manual.Enqueue(samples, at, done)
}

func (r *recordingSink) targets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, len(r.ats))
	copy(out, r.ats)
	return out
}

// beatSource cycles through count beats of span samples each
type beatSource struct {
	mu      sync.Mutex
	span    int64
	count   int
	indices []int
}

func (b *beatSource) Next(index int) (Segment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.indices = append(b.indices, index)
	return Segment{
		Samples: make([]int16, 100),
		Span:    b.span,
		Index:   index,
		Count:   b.count,
	}, nil
}

func (b *beatSource) setSpan(span int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.span = span
}

func (b *beatSource) seen() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int, len(b.indices))
	copy(out, b.indices)
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDriftFreeTargets(t *testing.T) {
	sink := newRecordingSink()
	src := &beatSource{span: 22050, count: 4}
	s := New(Config{Source: src})
	defer s.Close()

	if err := s.Start(sink); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, "initial look-ahead", func() bool { return s.Stats().Scheduled == 2 })

	for n := 0; n < 10; n++ {
		sink.Advance(22050)
		want := int64(n + 3)
		waitFor(t, "top-up", func() bool { return s.Stats().Scheduled == want })
	}

	for i, at := range sink.targets() {
		if at != int64(i)*22050 {
			t.Errorf("segment %d: expected target %d, got %d", i, int64(i)*22050, at)
		}
	}
}

func TestLookAheadDepth(t *testing.T) {
	sink := newRecordingSink()
	s := New(Config{Source: &beatSource{span: 1000, count: 4}, LookAhead: 3})
	defer s.Close()

	s.Start(sink)
	waitFor(t, "look-ahead", func() bool { return s.Stats().Scheduled == 3 })

	time.Sleep(20 * time.Millisecond)
	if got := s.Stats().Scheduled; got != 3 {
		t.Errorf("scheduler should stop at the look-ahead depth, scheduled %d", got)
	}
}

func TestIndexWraps(t *testing.T) {
	sink := newRecordingSink()
	src := &beatSource{span: 100, count: 3}
	s := New(Config{Source: src})
	defer s.Close()

	s.Start(sink)
	waitFor(t, "initial look-ahead", func() bool { return s.Stats().Scheduled == 2 })
	for n := 0; n < 4; n++ {
		sink.Advance(100)
		want := int64(n + 3)
		waitFor(t, "top-up", func() bool { return s.Stats().Scheduled == want })
	}

	expected := []int{0, 1, 2, 0, 1, 2}
	seen := src.seen()
	if len(seen) != len(expected) {
		t.Fatalf("expected %d segments, got %v", len(expected), seen)
	}
	for i := range expected {
		if seen[i] != expected[i] {
			t.Errorf("segment %d: expected index %d, got %d", i, expected[i], seen[i])
		}
	}
}

func TestTicksInOrder(t *testing.T) {
	sink := newRecordingSink()
	s := New(Config{Source: &beatSource{span: 1000, count: 3}, Ticks: true})
	defer s.Close()

	s.Start(sink)

	var beats []int
	for len(beats) < 7 {
		select {
		case tick := <-s.Ticks():
			beats = append(beats, tick.Beat)
			sink.Advance(1000)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after ticks %v", beats)
		}
	}

	expected := []int{1, 2, 3, 1, 2, 3, 1}
	for i := range expected {
		if beats[i] != expected[i] {
			t.Errorf("tick %d: expected beat %d, got %d", i, expected[i], beats[i])
		}
	}
}

func TestTickWaitsForLatency(t *testing.T) {
	sink := newRecordingSink()
	sink.SetLatency(100 * time.Millisecond) // 4410 samples
	s := New(Config{Source: &beatSource{span: 22050, count: 4}, Ticks: true})
	defer s.Close()

	s.Start(sink)
	sink.Advance(4000)

	select {
	case tick := <-s.Ticks():
		t.Fatalf("tick for beat %d delivered before it was audible", tick.Beat)
	case <-time.After(30 * time.Millisecond):
	}

	sink.Advance(410)
	select {
	case tick := <-s.Ticks():
		if tick.Beat != 1 || tick.At != 0 {
			t.Errorf("unexpected tick %+v", tick)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tick not delivered once audible")
	}
}

func TestStopIdleIsNoOp(t *testing.T) {
	s := New(Config{Source: &beatSource{span: 100, count: 1}})
	s.Stop()
	s.Stop()
	if s.State() != Idle {
		t.Errorf("expected idle, got %v", s.State())
	}
}

func TestStaleCallbacksIgnored(t *testing.T) {
	sink := newRecordingSink()
	s := New(Config{Source: &beatSource{span: 1000, count: 4}, Ticks: true})
	defer s.Close()

	s.Start(sink)
	waitFor(t, "initial look-ahead", func() bool { return s.Stats().Scheduled == 2 })
	s.Stop()

	// Buffers queued before Stop still play and complete
	sink.Advance(2000)
	time.Sleep(20 * time.Millisecond)

	stats := s.Stats()
	if stats.Completed != 0 {
		t.Errorf("callbacks from a stopped session should be ignored, completed=%d", stats.Completed)
	}
	if stats.Scheduled != 2 {
		t.Errorf("nothing should be scheduled after Stop, scheduled=%d", stats.Scheduled)
	}

	// A new session starts from the current sink time
	s.Start(sink)
	waitFor(t, "restart", func() bool { return s.Stats().Scheduled == 4 })
	targets := sink.targets()
	if targets[2] != 2000 || targets[3] != 3000 {
		t.Errorf("restart should target the current clock, got %v", targets)
	}
}

func TestTempoChangeAppliesToNextSegment(t *testing.T) {
	sink := newRecordingSink()
	src := &beatSource{span: 1000, count: 4}
	s := New(Config{Source: src})
	defer s.Close()

	s.Start(sink)
	waitFor(t, "initial look-ahead", func() bool { return s.Stats().Scheduled == 2 })

	src.setSpan(500)
	sink.Advance(1000)
	waitFor(t, "top-up", func() bool { return s.Stats().Scheduled == 3 })
	sink.Advance(1000)
	waitFor(t, "top-up", func() bool { return s.Stats().Scheduled == 4 })

	// Targets 0 and 1000 were committed before the change
	expected := []int64{0, 1000, 2000, 2500}
	targets := sink.targets()
	for i := range expected {
		if targets[i] != expected[i] {
			t.Errorf("segment %d: expected %d, got %d", i, expected[i], targets[i])
		}
	}
}

func TestSourceErrorHaltsTopUp(t *testing.T) {
	sink := newRecordingSink()
	src := SourceFunc(func(index int) (Segment, error) {
		return Segment{}, errors.New("render failed")
	})
	s := New(Config{Source: src})
	defer s.Close()

	s.Start(sink)
	time.Sleep(20 * time.Millisecond)
	if s.Stats().Scheduled != 0 {
		t.Error("nothing should be scheduled when the source fails")
	}
	if !s.Running() {
		t.Error("scheduler should remain running after a source error")
	}
}

func TestCloseClosesTicks(t *testing.T) {
	s := New(Config{Source: &beatSource{span: 100, count: 1}, Ticks: true})
	s.Start(newRecordingSink())
	s.Close()

	// Ranging terminates only once the channel is closed
	for range s.Ticks() {
	}
	if err := s.Start(newRecordingSink()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Close is idempotent
	s.Close()
}

func TestStartRequiresSink(t *testing.T) {
	s := New(Config{Source: &beatSource{span: 100, count: 1}})
	if err := s.Start(nil); err == nil {
		t.Error("expected error for nil sink")
	}
}
