// ABOUTME: Oto-based audio sink implementation
// ABOUTME: A persistent oto player pulls mixed PCM from the timeline
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
	"github.com/metrodrone/metrodrone-go/pkg/audio/encode"
)

// DefaultOtoBuffer is the device buffer requested from oto
const DefaultOtoBuffer = 40 * time.Millisecond

// Oto sink implementation using oto library
type Oto struct {
	base

	mu         sync.Mutex
	bufferSize time.Duration
	otoCtx     *oto.Context
	player     *oto.Player
	dispatch   *dispatcher
	running    bool
}

// NewOto creates a new Oto sink. A zero buffer uses DefaultOtoBuffer.
func NewOto(buffer time.Duration) *Oto {
	if buffer <= 0 {
		buffer = DefaultOtoBuffer
	}
	return &Oto{
		base:       newBase(),
		bufferSize: buffer,
	}
}

// Start initializes the device on first use and starts the player
func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil
	}

	// oto allows one context per process, so a stopped sink resumes it
	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   audio.SampleRate,
			ChannelCount: audio.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   o.bufferSize,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan
		o.otoCtx = ctx
		log.Printf("Audio output initialized: %dHz, %d channel(s), buffer %v", audio.SampleRate, audio.Channels, o.bufferSize)
	} else if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	o.dispatch = newDispatcher()
	o.player = o.otoCtx.NewPlayer(&timelineReader{timeline: o.timeline, dispatch: o.dispatch})
	o.player.Play()
	o.running = true

	return nil
}

// Stop closes the player and suspends the device
func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return nil
	}
	o.running = false

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Error closing player: %v", err)
		}
		o.player = nil
	}
	if o.dispatch != nil {
		o.dispatch.close()
		o.dispatch = nil
	}
	if err := o.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend oto context: %w", err)
	}
	log.Printf("Audio output stopped at sample %d", o.timeline.Clock())
	return nil
}

// OutputLatency is the device buffer plus whatever the player holds
func (o *Oto) OutputLatency() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	latency := o.bufferSize
	if o.player != nil {
		latency += audio.DurationOf(int64(o.player.BufferedSize() / 2))
	}
	return latency
}

// timelineReader adapts the timeline to the io.Reader oto pulls from
type timelineReader struct {
	timeline *Timeline
	dispatch *dispatcher
	buf      []int16
}

func (r *timelineReader) Read(p []byte) (int, error) {
	n := len(p) / 2
	if n == 0 {
		return 0, nil
	}
	if cap(r.buf) < n {
		r.buf = make([]int16, n)
	}
	samples := r.buf[:n]

	finished := r.timeline.Read(samples)
	encode.PutInt16LE(p, samples)
	r.dispatch.post(finished)

	return n * 2, nil
}
