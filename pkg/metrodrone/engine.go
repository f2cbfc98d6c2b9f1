// ABOUTME: Metronome and drone engine driving the scheduler, renderer and sink
// ABOUTME: Owns the pattern, applies setters atomically and notifies observers
package metrodrone

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
	"github.com/metrodrone/metrodrone-go/pkg/drone"
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
	"github.com/metrodrone/metrodrone-go/pkg/render"
	"github.com/metrodrone/metrodrone-go/pkg/scheduler"
	"github.com/metrodrone/metrodrone-go/pkg/tap"
)

// Config holds engine configuration
type Config struct {
	// Sink receives rendered audio. Nil uses a headless sink.
	Sink output.Sink

	// Clicks are the click samples. Nil uses the synthesized defaults.
	Clicks *render.ClickBank

	// LookAhead is the number of beats or drone chunks kept queued (default: 2)
	LookAhead int

	// DroneChunk is the continuous drone chunk length (default: 100ms)
	DroneChunk time.Duration

	// Debounce delays drone regeneration after voice changes (default: 50ms)
	Debounce time.Duration

	// Clock drives tap tempo. Nil uses time.Now.
	Clock func() time.Time

	// After runs f once d has passed and returns a function that cancels
	// it. It delays the metronome start after a tapped tempo. Nil uses
	// time.AfterFunc.
	After func(d time.Duration, f func()) (stop func() bool)

	// Settings are applied over the default pattern
	Settings Settings
}

// Engine plays a metronome and a drone on one shared sink
type Engine struct {
	mu      sync.RWMutex
	pattern pattern.Pattern

	gen       *render.Generator
	metronome *scheduler.Scheduler
	drone     *drone.Stream
	tapper    *tap.Detector
	shared    *output.Shared

	// pending start after a tapped tempo, guarded by tapMu
	after     func(time.Duration, func()) func() bool
	tapMu     sync.Mutex
	tapGen    uint64
	tapStop   func() bool
	tapClosed bool

	// streams serializes start, stop and recovery
	streams     sync.Mutex
	metroWanted bool
	metroHeld   bool
	droneWanted bool
	droneHeld   bool

	fields *hub[FieldChange]
	ticks  *hub[Tick]

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates an engine with both streams stopped
func New(config Config) (*Engine, error) {
	p, err := config.Settings.Apply(pattern.DefaultPattern())
	if err != nil {
		return nil, err
	}

	sink := config.Sink
	if sink == nil {
		sink = output.NewHeadless(nil)
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	after := config.After
	if after == nil {
		after = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}

	e := &Engine{
		after:   after,
		pattern: p,
		gen:     render.NewGenerator(config.Clicks),
		tapper:  tap.NewWithClock(clock),
		shared:  output.NewShared(sink),
		fields:  newHub[FieldChange]("field"),
		ticks:   newHub[Tick]("tick"),
	}
	e.metronome = scheduler.New(scheduler.Config{
		Name:      "metronome",
		Source:    scheduler.SourceFunc(e.nextBeat),
		LookAhead: config.LookAhead,
		Ticks:     true,
	})
	e.drone = drone.NewStream(drone.Config{
		Voice:     p.Voice,
		Chunk:     config.DroneChunk,
		Debounce:  config.Debounce,
		LookAhead: config.LookAhead,
	})

	e.wg.Add(1)
	go e.forwardTicks()

	log.Printf("Engine created: %d BPM, %d/%d, %s", p.Tempo, p.TimeSignature.BeatCount, p.TimeSignature.BeatUnit, p.Subdivision.Title)
	return e, nil
}

// nextBeat renders the beat at a cycle position from the current pattern
func (e *Engine) nextBeat(index int) (scheduler.Segment, error) {
	e.mu.RLock()
	p := e.pattern
	e.mu.RUnlock()

	beat, i := p.BeatAt(index)
	buf := e.gen.Render(p.Tempo, beat, p.Voice, p.Pulsing)
	return scheduler.Segment{
		Samples: buf.Samples,
		Span:    render.IntervalSamples(p.Tempo),
		Index:   i,
		Count:   len(p.Beats),
	}, nil
}

func (e *Engine) forwardTicks() {
	defer e.wg.Done()
	for t := range e.metronome.Ticks() {
		e.ticks.publish(Tick{Beat: t.Beat, At: t.At})
	}
}

// update commits a pattern mutation and notifies observers of each changed
// field. A mutation error leaves the pattern untouched.
func (e *Engine) update(mutate func(p pattern.Pattern) (pattern.Pattern, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := mutate(e.pattern.Clone())
	if err != nil {
		return err
	}
	old := e.pattern
	e.pattern = next

	for _, c := range diff(old, next) {
		e.fields.publish(c)
	}
	if voiceChanged(old.Voice, next.Voice) {
		e.drone.SetVoice(next.Voice)
	}
	return nil
}

func (e *Engine) emit(stream, field string, value any) {
	e.fields.publish(FieldChange{Stream: stream, Field: field, Value: value})
}

// SetTempo sets the tempo, clamped to [20, 400] BPM
func (e *Engine) SetTempo(bpm int) {
	e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		p.Tempo = pattern.ClampTempo(bpm)
		return p, nil
	})
}

func (e *Engine) SetTimeSignatureNumerator(n int) error {
	return e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		return p.WithBeatCount(n)
	})
}

func (e *Engine) SetTimeSignatureDenominator(n int) error {
	return e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		return p.WithBeatUnit(n)
	})
}

// SetSubdivision applies a subdivision to every beat
func (e *Engine) SetSubdivision(spec SubdivisionSpec) error {
	sub, err := spec.Resolve()
	if err != nil {
		return err
	}
	return e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		return p.WithSubdivision(sub), nil
	})
}

// SetNextTickType cycles the accent of one beat
func (e *Engine) SetNextTickType(index int) error {
	return e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		return p.WithNextAccent(index)
	})
}

// SetTickTypes replaces every accent; the beat count follows the list
func (e *Engine) SetTickTypes(accents []pattern.Accent) error {
	return e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		return p.WithTickTypes(accents)
	})
}

// SetTickTypeNames is SetTickTypes for host tick-type names
func (e *Engine) SetTickTypeNames(names []string) error {
	accents, err := pattern.ParseTickTypes(names)
	if err != nil {
		return err
	}
	return e.SetTickTypes(accents)
}

// SetDurationRatio sets the pulse gate, clamped to [0.1, 0.99]
func (e *Engine) SetDurationRatio(ratio float64) {
	e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		p.Voice.DurationRatio = pattern.ClampRatio(ratio)
		return p, nil
	})
}

// SetDroning toggles the drone pulse layered into every beat
func (e *Engine) SetDroning(on bool) {
	e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		p.Pulsing = on
		return p, nil
	})
}

// SetNote sets the drone pitch class and octave
func (e *Engine) SetNote(name string, octave int) error {
	note, err := pattern.ParseNote(name)
	if err != nil {
		return err
	}
	return e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		p.Voice.Note = note
		p.Voice.Octave = pattern.ClampOctave(octave)
		return p, nil
	})
}

// SetTuning sets the A4 reference frequency
func (e *Engine) SetTuning(hz float64) error {
	if err := pattern.ValidateTuning(hz); err != nil {
		return err
	}
	return e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		p.Voice.Tuning = hz
		return p, nil
	})
}

func (e *Engine) SetWaveform(name string) error {
	w, err := pattern.ParseWaveform(name)
	if err != nil {
		return err
	}
	return e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		p.Voice.Waveform = w
		return p, nil
	})
}

func (e *Engine) SetAmplitude(amplitude float64) {
	e.update(func(p pattern.Pattern) (pattern.Pattern, error) {
		p.Voice.Amplitude = pattern.ClampAmplitude(amplitude)
		return p, nil
	})
}

// SetPulsing switches between the continuous drone and the pulsed drone.
// Enabling it stops the continuous drone.
func (e *Engine) SetPulsing(on bool) {
	if on {
		e.StopDrone()
	}
	e.SetDroning(on)
}

// Configure applies a batch of settings in one mutation. If any field is
// invalid nothing changes.
func (e *Engine) Configure(s Settings) error {
	if err := e.update(s.Apply); err != nil {
		return err
	}
	if s.IsPulsing != nil && *s.IsPulsing {
		e.StopDrone()
	}
	return nil
}

// Tap registers a tap. When a tempo is detected it is clamped and applied,
// and a stopped metronome starts one beat later. Every tap cancels a start
// still pending from an earlier estimate.
func (e *Engine) Tap() (int, bool) {
	e.cancelTapStart()

	bpm, ok := e.tapper.Tap()
	if !ok {
		return 0, false
	}
	bpm = pattern.ClampTempo(bpm)
	e.SetTempo(bpm)

	if !e.MetronomePlaying() {
		e.scheduleTapStart(time.Minute / time.Duration(bpm))
	}
	return bpm, true
}

func (e *Engine) scheduleTapStart(d time.Duration) {
	e.tapMu.Lock()
	defer e.tapMu.Unlock()

	if e.tapClosed {
		return
	}
	e.tapGen++
	gen := e.tapGen
	e.tapStop = e.after(d, func() {
		e.tapMu.Lock()
		defer e.tapMu.Unlock()

		if gen != e.tapGen || e.tapClosed {
			return
		}
		e.tapStop = nil
		if err := e.StartMetronome(); err != nil {
			log.Printf("Tapped tempo did not start the metronome: %v", err)
		}
	})
}

func (e *Engine) cancelTapStart() {
	e.tapMu.Lock()
	defer e.tapMu.Unlock()

	e.tapGen++
	if e.tapStop != nil {
		e.tapStop()
		e.tapStop = nil
	}
}

// SetClicks swaps the click samples. Beats already queued keep the old
// clicks; the next rendered beat uses the new bank.
func (e *Engine) SetClicks(clicks *render.ClickBank) {
	e.gen.SetClicks(clicks)
}

// Snapshot returns a copy of the current pattern
func (e *Engine) Snapshot() pattern.Pattern {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pattern.Clone()
}

// Settings returns the current pattern as settings
func (e *Engine) Settings() Settings {
	return SettingsOf(e.Snapshot())
}

// SubscribeFields delivers field changes until cancel is called
func (e *Engine) SubscribeFields() (<-chan FieldChange, func()) {
	return e.fields.subscribe()
}

// SubscribeTicks delivers audible beats until cancel is called
func (e *Engine) SubscribeTicks() (<-chan Tick, func()) {
	return e.ticks.subscribe()
}

// StartMetronome starts the click stream. If the sink cannot start the
// metronome is still marked playing, ErrSinkUnavailable is returned and
// Recover resumes audio later.
func (e *Engine) StartMetronome() error {
	e.streams.Lock()
	defer e.streams.Unlock()

	if e.metroWanted {
		return nil
	}
	e.metroWanted = true
	e.emit(StreamMetronome, FieldIsPlaying, true)
	return e.attachMetronome()
}

func (e *Engine) attachMetronome() error {
	sink, err := e.shared.Acquire()
	if err != nil {
		log.Printf("Metronome started without audio: %v", err)
		return err
	}
	if err := e.metronome.Start(sink); err != nil {
		e.shared.Release()
		return err
	}
	e.metroHeld = true
	return nil
}

func (e *Engine) StopMetronome() {
	e.cancelTapStart()

	e.streams.Lock()
	defer e.streams.Unlock()

	if !e.metroWanted {
		return
	}
	e.metroWanted = false
	if e.metroHeld {
		e.metronome.Stop()
		e.shared.Release()
		e.metroHeld = false
	}
	e.emit(StreamMetronome, FieldIsPlaying, false)
}

// StartDrone starts the continuous drone with a fresh phase
func (e *Engine) StartDrone() error {
	e.streams.Lock()
	defer e.streams.Unlock()

	if e.droneWanted {
		return nil
	}
	e.droneWanted = true
	e.emit(StreamDrone, FieldIsPlaying, true)
	return e.attachDrone()
}

func (e *Engine) attachDrone() error {
	sink, err := e.shared.Acquire()
	if err != nil {
		log.Printf("Drone started without audio: %v", err)
		return err
	}
	if err := e.drone.Start(sink); err != nil {
		e.shared.Release()
		return err
	}
	e.droneHeld = true
	return nil
}

func (e *Engine) StopDrone() {
	e.streams.Lock()
	defer e.streams.Unlock()

	if !e.droneWanted {
		return
	}
	e.droneWanted = false
	if e.droneHeld {
		e.drone.Stop()
		e.shared.Release()
		e.droneHeld = false
	}
	e.emit(StreamDrone, FieldIsPlaying, false)
}

// Recover re-acquires the sink for streams marked playing without audio
func (e *Engine) Recover() error {
	e.streams.Lock()
	defer e.streams.Unlock()

	var errs []error
	if e.metroWanted && !e.metroHeld {
		if err := e.attachMetronome(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.droneWanted && !e.droneHeld {
		if err := e.attachDrone(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MetronomePlaying reports whether the metronome is logically started
func (e *Engine) MetronomePlaying() bool {
	e.streams.Lock()
	defer e.streams.Unlock()
	return e.metroWanted
}

// DronePlaying reports whether the continuous drone is logically started
func (e *Engine) DronePlaying() bool {
	e.streams.Lock()
	defer e.streams.Unlock()
	return e.droneWanted
}

// Stats reports metronome scheduling statistics
func (e *Engine) Stats() scheduler.Stats {
	return e.metronome.Stats()
}

// DroneStats reports continuous drone scheduling statistics
func (e *Engine) DroneStats() scheduler.Stats {
	return e.drone.Stats()
}

// Close stops both streams and ends all subscriptions
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.tapMu.Lock()
		e.tapClosed = true
		e.tapMu.Unlock()

		e.StopMetronome()
		e.StopDrone()
		e.metronome.Close()
		e.drone.Close()
		e.wg.Wait()
		e.fields.close()
		e.ticks.close()
		log.Printf("Engine closed")
	})
}
