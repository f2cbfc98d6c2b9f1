// ABOUTME: Main application orchestration
// ABOUTME: Coordinates the engine, the optional control server and the TUI
package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/metrodrone/metrodrone-go/internal/server"
	"github.com/metrodrone/metrodrone-go/internal/ui"
	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
)

// Config holds application configuration
type Config struct {
	Engine *metrodrone.Engine

	// Volume is the master gain of the sink, if it has one
	Volume output.VolumeControl

	// Server, when set, is served alongside the local controls
	Server *server.Server

	UseTUI bool
}

// App runs an engine with local controls
type App struct {
	config   Config
	engine   *metrodrone.Engine
	controls *ui.Controls
	tuiProg  *tea.Program

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopOnce sync.Once
}

// New creates an application around config.Engine
func New(config Config) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		config: config,
		engine: config.Engine,
		ctx:    ctx,
		cancel: cancel,
	}
	if config.UseTUI {
		a.controls = ui.NewControls()
	}
	return a
}

// Run blocks until Stop is called or the TUI quits
func (a *App) Run() error {
	if a.config.Server != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.config.Server.Start(); err != nil {
				log.Printf("Control server error: %v", err)
			}
		}()
	}

	if a.config.UseTUI {
		tuiProg, err := ui.Run(a.controls)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		a.tuiProg = tuiProg

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if _, err := a.tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			a.Stop()
		}()

		a.send(a.state())
		a.wg.Add(1)
		go a.handleControls()
	}

	a.wg.Add(2)
	go a.forwardFields()
	go a.forwardTicks()

	<-a.ctx.Done()
	a.wg.Wait()
	return nil
}

// state captures the engine for a full TUI refresh
func (a *App) state() ui.StateMsg {
	return ui.StateMsg{
		Settings:         a.engine.Settings(),
		MetronomePlaying: a.engine.MetronomePlaying(),
		DronePlaying:     a.engine.DronePlaying(),
	}
}

// send forwards a message to the TUI if one is running
func (a *App) send(msg tea.Msg) {
	if a.tuiProg != nil {
		a.tuiProg.Send(msg)
	}
}

// handleControls applies TUI actions to the engine
func (a *App) handleControls() {
	defer a.wg.Done()
	for {
		select {
		case action := <-a.controls.Actions:
			if err := a.handle(action); err != nil {
				log.Printf("Action %s failed: %v", action.Kind, err)
				a.send(ui.ErrorMsg{Err: err})
			}

		case <-a.controls.Quit:
			a.Stop()
			return

		case <-a.ctx.Done():
			return
		}
	}
}

// forwardFields mirrors engine field changes into the TUI, or the log
func (a *App) forwardFields() {
	defer a.wg.Done()
	fields, cancel := a.engine.SubscribeFields()
	defer cancel()

	for {
		select {
		case c, ok := <-fields:
			if !ok {
				return
			}
			if a.tuiProg == nil {
				log.Printf("%s.%s = %v", c.Stream, c.Field, c.Value)
				continue
			}
			a.send(ui.FieldMsg{Stream: c.Stream, Field: c.Field, Value: c.Value})

		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) forwardTicks() {
	defer a.wg.Done()
	ticks, cancel := a.engine.SubscribeTicks()
	defer cancel()

	for {
		select {
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			a.send(ui.TickMsg{Beat: tick.Beat})

		case <-a.ctx.Done():
			return
		}
	}
}

// handle applies one action to the engine
func (a *App) handle(action ui.Action) error {
	e := a.engine
	p := e.Snapshot()

	switch action.Kind {
	case ui.ToggleMetronome:
		if e.MetronomePlaying() {
			e.StopMetronome()
			return nil
		}
		return e.StartMetronome()

	case ui.ToggleDrone:
		if e.DronePlaying() {
			e.StopDrone()
			return nil
		}
		return e.StartDrone()

	case ui.TogglePulsing:
		e.SetPulsing(!p.Pulsing)

	case ui.AdjustTempo:
		e.SetTempo(p.Tempo + action.Delta)

	case ui.Tap:
		if bpm, ok := e.Tap(); ok {
			log.Printf("Tap tempo: %d BPM", bpm)
		}

	case ui.CycleSubdivision:
		return e.SetSubdivision(metrodrone.SpecOf(nextSubdivision(p.Subdivision)))

	case ui.AdjustBeats:
		return e.SetTimeSignatureNumerator(p.TimeSignature.BeatCount + action.Delta)

	case ui.CycleTickType:
		return e.SetNextTickType(action.Index)

	case ui.StepNote:
		note, octave := stepNote(p.Voice.Note, p.Voice.Octave, action.Delta)
		return e.SetNote(note.String(), octave)

	case ui.StepOctave:
		return e.SetNote(p.Voice.Note.String(), p.Voice.Octave+action.Delta)

	case ui.CycleWaveform:
		return e.SetWaveform(nextWaveform(p.Voice.Waveform).String())

	case ui.AdjustAmplitude:
		e.SetAmplitude(p.Voice.Amplitude + float64(action.Delta)/100)

	case ui.AdjustVolume:
		if a.config.Volume != nil {
			a.config.Volume.SetVolume(action.Value)
		}

	case ui.ToggleMute:
		if a.config.Volume != nil {
			a.config.Volume.SetMuted(action.Value != 0)
		}

	default:
		return fmt.Errorf("unknown action %d", action.Kind)
	}
	return nil
}

// nextSubdivision returns the catalog entry after current, wrapping. A
// custom subdivision moves to the first entry.
func nextSubdivision(current pattern.Subdivision) pattern.Subdivision {
	catalog := pattern.Catalog()
	for i, s := range catalog {
		if s.Equal(current) {
			return catalog[(i+1)%len(catalog)]
		}
	}
	return catalog[0]
}

// stepNote moves delta semitones, carrying into the octave. Steps past
// the octave range are ignored.
func stepNote(note pattern.Note, octave, delta int) (pattern.Note, int) {
	index := 0
	for i, n := range pattern.Notes {
		if n == note {
			index = i
		}
	}

	abs := octave*len(pattern.Notes) + index + delta
	nextOctave := abs / len(pattern.Notes)
	if abs < 0 || nextOctave < pattern.MinOctave || nextOctave > pattern.MaxOctave {
		return note, octave
	}
	return pattern.Notes[abs%len(pattern.Notes)], nextOctave
}

var waveforms = []pattern.Waveform{pattern.Sine, pattern.Organ, pattern.Cello}

func nextWaveform(w pattern.Waveform) pattern.Waveform {
	for i, v := range waveforms {
		if v == w {
			return waveforms[(i+1)%len(waveforms)]
		}
	}
	return pattern.Sine
}

// Stop stops the application. It does not close the engine.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()

		if a.config.Server != nil {
			a.config.Server.Stop()
		}

		if a.tuiProg != nil {
			a.tuiProg.Quit()
		}
	})
}
