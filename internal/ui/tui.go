// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the action channel it feeds
package ui

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"
)

// ActionKind identifies what a key press asks the engine to do
type ActionKind int

const (
	ToggleMetronome ActionKind = iota
	ToggleDrone
	TogglePulsing
	AdjustTempo
	Tap
	CycleSubdivision
	AdjustBeats
	CycleTickType
	StepNote
	StepOctave
	CycleWaveform
	AdjustAmplitude
	AdjustVolume
	ToggleMute
)

var actionNames = [...]string{
	"toggle-metronome", "toggle-drone", "toggle-pulsing", "adjust-tempo", "tap",
	"cycle-subdivision", "adjust-beats", "cycle-tick-type", "step-note",
	"step-octave", "cycle-waveform", "adjust-amplitude", "adjust-volume",
	"toggle-mute",
}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return "unknown"
}

// Action is a user request from the TUI
type Action struct {
	Kind  ActionKind
	Delta int // step for Adjust* and Step* actions, percent for AdjustAmplitude
	Index int // zero-based beat for CycleTickType
	Value int // resulting volume, or 1 when muted
}

// Controls holds channels for TUI to application communication
type Controls struct {
	Actions chan Action
	Quit    chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Actions: make(chan Action, 32),
		Quit:    make(chan struct{}, 1),
	}
}

func (c *Controls) send(a Action) {
	if c == nil {
		return
	}
	select {
	case c.Actions <- a:
	default:
		log.Printf("TUI action queue full, dropping %s", a.Kind)
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		volume:   100,
		controls: controls,
	}
}

// Run creates the TUI program. The caller runs it.
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
