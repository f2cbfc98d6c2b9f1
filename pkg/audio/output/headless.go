// ABOUTME: Device-free sink that consumes the timeline in real time
// ABOUTME: Used for servers without audio hardware and as a fallback
package output

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
)

const headlessTick = 10 * time.Millisecond

// Headless advances the sample clock from the wall clock and discards audio
type Headless struct {
	base

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	dispatch *dispatcher
	sink     func([]int16)
}

// NewHeadless creates a headless sink. tap, if not nil, receives every
// mixed block; it is called on the ticker goroutine.
func NewHeadless(tap func([]int16)) *Headless {
	return &Headless{base: newBase(), sink: tap}
}

// Start begins draining the timeline every 10ms
func (h *Headless) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.dispatch = newDispatcher()

	h.wg.Add(1)
	go h.run(ctx, h.dispatch)

	log.Printf("Headless output started")
	return nil
}

func (h *Headless) run(ctx context.Context, d *dispatcher) {
	defer h.wg.Done()

	ticker := time.NewTicker(headlessTick)
	defer ticker.Stop()

	started := time.Now()
	origin := h.timeline.Clock()
	var buf []int16

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			target := origin + audio.SamplesIn(time.Since(started))
			n := int(target - h.timeline.Clock())
			if n <= 0 {
				continue
			}
			if cap(buf) < n {
				buf = make([]int16, n)
			}
			block := buf[:n]
			d.post(h.timeline.Read(block))
			if h.sink != nil {
				h.sink(block)
			}
		}
	}
}

// Stop halts the ticker
func (h *Headless) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel == nil {
		return nil
	}
	h.cancel()
	h.wg.Wait()
	h.cancel = nil

	h.dispatch.close()
	h.dispatch = nil

	log.Printf("Headless output stopped at sample %d", h.timeline.Clock())
	return nil
}

// OutputLatency is one ticker period
func (h *Headless) OutputLatency() time.Duration {
	return headlessTick
}
