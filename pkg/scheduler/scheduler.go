// ABOUTME: Look-ahead scheduler placing audio segments on a sink's sample clock
// ABOUTME: Tops up on buffer completion and delivers beat ticks in order once audible
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
)

// DefaultLookAhead is the number of segments kept queued on the sink
const DefaultLookAhead = 2

const (
	tickPoll   = 5 * time.Millisecond
	tickBuffer = 64
)

// ErrClosed is returned by Start after Close
var ErrClosed = errors.New("scheduler closed")

// Segment is one unit of audio to place on the sink
type Segment struct {
	Samples []int16
	Span    int64 // distance to the next segment's start
	Index   int   // position within the cycle
	Count   int   // cycle length
}

// Source produces the segment for a cycle position. It is called from the
// scheduler's worker goroutine, never from the audio path.
type Source interface {
	Next(index int) (Segment, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(index int) (Segment, error)

func (f SourceFunc) Next(index int) (Segment, error) { return f(index) }

// Tick announces that a segment has become audible
type Tick struct {
	Beat int   // 1-based position within the cycle
	At   int64 // sample time the segment started
}

// State is the scheduler lifecycle state
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Stats tracks scheduler metrics
type Stats struct {
	Scheduled      int64
	Completed      int64
	TicksDelivered int64
	TicksDropped   int64
}

// Config configures a scheduler
type Config struct {
	Name      string // used in log lines
	Source    Source
	LookAhead int
	Ticks     bool // deliver ticks on Ticks()
}

// Scheduler keeps LookAhead segments queued on a sink. Each target time is
// the previous target plus the previous span, so timing never drifts.
type Scheduler struct {
	name      string
	source    Source
	lookAhead int
	withTicks bool

	// ctl serializes Start and Stop so the WaitGroup is never reused early
	ctl sync.Mutex

	mu      sync.Mutex
	state   State
	session uint64
	sink    output.Sink
	index   int
	cursor  int64
	queued  int
	pending tickQueue
	stats   Stats
	closed  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	wake   chan struct{}
	ticks  chan Tick
}

// New creates an idle scheduler
func New(cfg Config) *Scheduler {
	lookAhead := cfg.LookAhead
	if lookAhead < 1 {
		lookAhead = DefaultLookAhead
	}
	name := cfg.Name
	if name == "" {
		name = "scheduler"
	}
	return &Scheduler{
		name:      name,
		source:    cfg.Source,
		lookAhead: lookAhead,
		withTicks: cfg.Ticks,
		ticks:     make(chan Tick, tickBuffer),
	}
}

// Start begins scheduling onto sink from its current sample time.
// Starting a running scheduler is a no-op.
func (s *Scheduler) Start(sink output.Sink) error {
	if sink == nil {
		return fmt.Errorf("%s: nil sink", s.name)
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state == Running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.session++
	s.state = Running
	s.sink = sink
	s.index = 0
	s.cursor = sink.CurrentSampleTime()
	s.queued = 0
	s.pending = s.pending[:0]
	s.wake = make(chan struct{}, 1)

	s.wg.Add(1)
	go s.work(ctx, s.session, s.wake)
	if s.withTicks {
		s.wg.Add(1)
		go s.deliver(ctx, s.session)
	}

	log.Printf("%s: started at sample %d", s.name, s.cursor)
	s.signal(s.wake)
	return nil
}

// Stop cancels future scheduling and pending ticks. Segments already handed
// to the sink are left alone. Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	s.state = Idle
	s.session++
	s.cancel()
	s.pending = s.pending[:0]
	s.queued = 0
	s.sink = nil
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("%s: stopped", s.name)
}

// Close stops the scheduler and closes the tick channel
func (s *Scheduler) Close() {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ticks)
}

// Ticks delivers beat ticks in order. Ticks are dropped if the reader falls
// more than a few dozen behind.
func (s *Scheduler) Ticks() <-chan Tick {
	return s.ticks
}

// State returns the lifecycle state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether the scheduler is in the Running state
func (s *Scheduler) Running() bool {
	return s.State() == Running
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Scheduler) signal(wake chan struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}

// work tops up the queue each time it is woken
func (s *Scheduler) work(ctx context.Context, session uint64, wake <-chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
			s.topUp(session)
		}
	}
}

func (s *Scheduler) topUp(session uint64) {
	for {
		s.mu.Lock()
		if s.session != session || s.state != Running || s.queued >= s.lookAhead {
			s.mu.Unlock()
			return
		}
		index, at, sink := s.index, s.cursor, s.sink
		s.mu.Unlock()

		seg, err := s.source.Next(index)
		if err != nil {
			log.Printf("%s: failed to produce segment %d: %v", s.name, index, err)
			return
		}

		span := seg.Span
		if span <= 0 {
			span = int64(len(seg.Samples))
		}
		if span <= 0 {
			log.Printf("%s: segment %d is empty, scheduling halted", s.name, index)
			return
		}
		count := seg.Count
		if count < 1 {
			count = 1
		}

		s.mu.Lock()
		if s.session != session || s.state != Running {
			s.mu.Unlock()
			return
		}
		s.queued++
		s.stats.Scheduled++
		s.cursor = at + span
		s.index = (seg.Index + 1) % count
		if s.withTicks {
			heap.Push(&s.pending, Tick{Beat: seg.Index + 1, At: at})
		}
		s.mu.Unlock()

		if err := sink.Enqueue(seg.Samples, at, func() { s.complete(session) }); err != nil {
			log.Printf("%s: enqueue at %d failed: %v", s.name, at, err)
			s.mu.Lock()
			if s.session == session {
				s.queued--
			}
			s.mu.Unlock()
			return
		}
	}
}

// complete runs when the sink has consumed a segment
func (s *Scheduler) complete(session uint64) {
	s.mu.Lock()
	if s.session != session {
		s.mu.Unlock()
		return
	}
	s.queued--
	s.stats.Completed++
	wake := s.wake
	s.mu.Unlock()

	s.signal(wake)
}

// deliver hands out ticks once the sink clock passes their start plus latency
func (s *Scheduler) deliver(ctx context.Context, session uint64) {
	defer s.wg.Done()

	ticker := time.NewTicker(tickPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, tick := range s.due(session) {
			select {
			case s.ticks <- tick:
				s.mu.Lock()
				s.stats.TicksDelivered++
				s.mu.Unlock()
			default:
				s.mu.Lock()
				s.stats.TicksDropped++
				s.mu.Unlock()
				log.Printf("%s: dropped tick for beat %d, reader too slow", s.name, tick.Beat)
			}
		}
	}
}

// due pops every pending tick that is now audible
func (s *Scheduler) due(session uint64) []Tick {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != session || s.sink == nil || s.pending.Len() == 0 {
		return nil
	}

	audible := s.sink.CurrentSampleTime() - audio.SamplesIn(s.sink.OutputLatency())
	var out []Tick
	for s.pending.Len() > 0 && s.pending.Peek().At <= audible {
		out = append(out, heap.Pop(&s.pending).(Tick))
	}
	return out
}

// tickQueue is a priority queue of ticks ordered by start time
type tickQueue []Tick

func (q tickQueue) Len() int { return len(q) }

func (q tickQueue) Less(i, j int) bool { return q[i].At < q[j].At }

func (q tickQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *tickQueue) Push(x interface{}) {
	*q = append(*q, x.(Tick))
}

func (q *tickQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func (q tickQueue) Peek() Tick {
	return q[0]
}
