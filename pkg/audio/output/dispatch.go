// ABOUTME: Completion callback dispatcher
// ABOUTME: Runs buffer-finished callbacks on a goroutine away from the audio path
package output

import "sync"

type dispatcher struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

// post queues callbacks without blocking the caller
func (d *dispatcher) post(fns []func()) {
	if len(fns) == 0 {
		return
	}
	d.mu.Lock()
	d.pending = append(d.pending, fns...)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.quit:
			return
		case <-d.wake:
		}

		d.mu.Lock()
		fns := d.pending
		d.pending = nil
		d.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	}
}

// close stops the goroutine; callbacks not yet run are dropped
func (d *dispatcher) close() {
	close(d.quit)
	<-d.done
}
