// ABOUTME: Bubbletea model for the metrodrone TUI
// ABOUTME: Mirrors engine state from messages and turns keys into actions
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
)

// Model represents the TUI state
type Model struct {
	// Metronome
	bpm              int
	numerator        int
	denominator      int
	tickTypes        []string
	subdivision      string
	ratio            float64
	metronomePlaying bool
	beat             int

	// Drone
	note         string
	octave       int
	soundType    string
	tuning       float64
	amplitude    float64
	pulsing      bool
	dronePlaying bool

	// Output
	volume int
	muted  bool

	lastErr string

	controls *Controls

	// Dimensions
	width  int
	height int
}

// StateMsg replaces the whole mirrored state
type StateMsg struct {
	Settings         metrodrone.Settings
	MetronomePlaying bool
	DronePlaying     bool
}

// FieldMsg carries one engine field change
type FieldMsg struct {
	Stream string
	Field  string
	Value  any
}

// TickMsg marks the beat that just became audible (1-based)
type TickMsg struct {
	Beat int
}

// ErrorMsg shows the result of a failed action
type ErrorMsg struct {
	Err error
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StateMsg:
		m.applyState(msg)
	case FieldMsg:
		m.applyField(msg)
	case TickMsg:
		m.beat = msg.Beat
	case ErrorMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	beatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	currentBeatStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Metrodrone"))
	b.WriteString("\n\n")
	b.WriteString(m.renderMetronome())
	b.WriteString("\n")
	b.WriteString(m.renderDrone())
	b.WriteString("\n")
	b.WriteString(m.renderOutput())

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("! " + m.lastErr))
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())

	return boxStyle.Render(b.String())
}

func (m Model) renderMetronome() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(playIcon(m.metronomePlaying) + " Metronome"))
	b.WriteString("\n")
	b.WriteString(valueStyle.Render(fmt.Sprintf("  %d BPM  %d/%d  %s", m.bpm, m.numerator, m.denominator, m.subdivision)))
	b.WriteString("\n  ")
	b.WriteString(m.renderBeats())
	return b.String()
}

// renderBeats draws one cell per beat, highlighting the audible one
func (m Model) renderBeats() string {
	cells := make([]string, len(m.tickTypes))
	for i, tt := range m.tickTypes {
		cell := fmt.Sprintf(" %d%s ", i+1, accentMark(tt))
		if m.metronomePlaying && m.beat == i+1 {
			cells[i] = currentBeatStyle.Render(cell)
		} else {
			cells[i] = beatStyle.Render(cell)
		}
	}
	return strings.Join(cells, "")
}

func (m Model) renderDrone() string {
	mode := "continuous"
	if m.pulsing {
		mode = fmt.Sprintf("pulsed %.0f%%", m.ratio*100)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(playIcon(m.dronePlaying) + " Drone"))
	b.WriteString("\n")
	b.WriteString(valueStyle.Render(fmt.Sprintf("  %s%d %s  A=%.1fHz  amp %.2f  %s",
		m.note, m.octave, m.soundType, m.tuning, m.amplitude, mode)))
	return b.String()
}

func (m Model) renderOutput() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}
	return valueStyle.Render(fmt.Sprintf("Volume: [%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return lipgloss.NewStyle().Faint(true).Render(
		"space:Metronome  d:Drone  p:Pulse  ↑/↓ +/-:Tempo  t:Tap  s:Subdivision  [/]:Beats  1-9:Accent\n" +
			"n/N:Note  o/O:Octave  w:Sound  a/A:Amp  ←/→:Volume  m:Mute  q:Quit")
}

// keyActions maps keys to the action they request
var keyActions = map[string]Action{
	" ":     {Kind: ToggleMetronome},
	"d":     {Kind: ToggleDrone},
	"p":     {Kind: TogglePulsing},
	"up":    {Kind: AdjustTempo, Delta: 5},
	"down":  {Kind: AdjustTempo, Delta: -5},
	"+":     {Kind: AdjustTempo, Delta: 1},
	"=":     {Kind: AdjustTempo, Delta: 1},
	"-":     {Kind: AdjustTempo, Delta: -1},
	"t":     {Kind: Tap},
	"s":     {Kind: CycleSubdivision},
	"]":     {Kind: AdjustBeats, Delta: 1},
	"[":     {Kind: AdjustBeats, Delta: -1},
	"n":     {Kind: StepNote, Delta: 1},
	"N":     {Kind: StepNote, Delta: -1},
	"o":     {Kind: StepOctave, Delta: 1},
	"O":     {Kind: StepOctave, Delta: -1},
	"w":     {Kind: CycleWaveform},
	"a":     {Kind: AdjustAmplitude, Delta: 5},
	"A":     {Kind: AdjustAmplitude, Delta: -5},
	"right": {Kind: AdjustVolume, Delta: 5},
	"left":  {Kind: AdjustVolume, Delta: -5},
	"m":     {Kind: ToggleMute},
}

// keyAction returns the action bound to key
func keyAction(key string) (Action, bool) {
	if a, ok := keyActions[key]; ok {
		return a, true
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return Action{Kind: CycleTickType, Index: int(key[0] - '1')}, true
	}
	return Action{}, false
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "q" || key == "ctrl+c" {
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	}

	action, ok := keyAction(key)
	if !ok {
		return m, nil
	}

	// Volume is local to this process so it is reflected immediately
	switch action.Kind {
	case AdjustVolume:
		m.volume = clampVolume(m.volume + action.Delta)
		action.Value = m.volume
	case ToggleMute:
		m.muted = !m.muted
		action.Value = boolInt(m.muted)
	}

	m.lastErr = ""
	m.controls.send(action)
	return m, nil
}

// applyState replaces the mirrored state
func (m *Model) applyState(msg StateMsg) {
	s := msg.Settings
	if s.BPM != nil {
		m.bpm = *s.BPM
	}
	if s.TimeSignatureNumerator != nil {
		m.numerator = *s.TimeSignatureNumerator
	}
	if s.TimeSignatureDenominator != nil {
		m.denominator = *s.TimeSignatureDenominator
	}
	if s.TickTypes != nil {
		m.tickTypes = append([]string(nil), s.TickTypes...)
	}
	if s.Subdivision != nil {
		m.subdivision = subdivisionTitle(*s.Subdivision)
	}
	if s.DroneDurationRatio != nil {
		m.ratio = *s.DroneDurationRatio
	}
	if s.Note != nil {
		m.note = *s.Note
	}
	if s.Octave != nil {
		m.octave = *s.Octave
	}
	if s.SoundType != nil {
		m.soundType = *s.SoundType
	}
	if s.TuningStandard != nil {
		m.tuning = *s.TuningStandard
	}
	if s.Amplitude != nil {
		m.amplitude = *s.Amplitude
	}
	if s.IsPulsing != nil {
		m.pulsing = *s.IsPulsing
	}
	m.metronomePlaying = msg.MetronomePlaying
	m.dronePlaying = msg.DronePlaying
	if !m.metronomePlaying {
		m.beat = 0
	}
}

// applyField updates a single mirrored field
func (m *Model) applyField(msg FieldMsg) {
	switch v := msg.Value.(type) {
	case int:
		switch msg.Field {
		case metrodrone.FieldBPM:
			m.bpm = v
		case metrodrone.FieldTimeSignatureNumerator:
			m.numerator = v
		case metrodrone.FieldTimeSignatureDenominator:
			m.denominator = v
		case metrodrone.FieldOctave:
			m.octave = v
		}
	case float64:
		switch msg.Field {
		case metrodrone.FieldDroneDurationRatio:
			m.ratio = v
		case metrodrone.FieldTuningStandard:
			m.tuning = v
		case metrodrone.FieldAmplitude:
			m.amplitude = v
		}
	case string:
		switch msg.Field {
		case metrodrone.FieldNote:
			m.note = v
		case metrodrone.FieldSoundType:
			m.soundType = v
		}
	case []string:
		if msg.Field == metrodrone.FieldTickTypes {
			m.tickTypes = append([]string(nil), v...)
		}
	case metrodrone.SubdivisionSpec:
		if msg.Field == metrodrone.FieldSubdivision {
			m.subdivision = subdivisionTitle(v)
		}
	case bool:
		switch {
		case msg.Field == metrodrone.FieldIsPlaying && msg.Stream == metrodrone.StreamMetronome:
			m.metronomePlaying = v
			if !v {
				m.beat = 0
			}
		case msg.Field == metrodrone.FieldIsPlaying && msg.Stream == metrodrone.StreamDrone:
			m.dronePlaying = v
		case msg.Field == metrodrone.FieldIsPulsing, msg.Field == metrodrone.FieldIsDroning:
			m.pulsing = v
		}
	}
}

// Utility functions
func subdivisionTitle(s metrodrone.SubdivisionSpec) string {
	if s.Description != "" {
		return s.Description
	}
	return s.Name
}

func accentMark(tickType string) string {
	switch strings.TrimPrefix(tickType, "TickType.") {
	case "silence":
		return "·"
	case "accent":
		return ">"
	case "strongAccent":
		return "^"
	default:
		return " "
	}
}

func playIcon(playing bool) string {
	if playing {
		return "▶"
	}
	return "■"
}

func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
