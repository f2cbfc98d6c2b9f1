// ABOUTME: Observer fan-out for field changes and beat ticks
// ABOUTME: Each subscriber gets its own buffered channel; slow readers lose events
package metrodrone

import (
	"log"
	"sync"

	"github.com/metrodrone/metrodrone-go/pkg/pattern"
)

// Stream names used in field changes
const (
	StreamMetronome = "metronome"
	StreamDrone     = "drone"
)

// Field names reported in FieldChange
const (
	FieldBPM                      = "bpm"
	FieldTimeSignatureNumerator   = "timeSignatureNumerator"
	FieldTimeSignatureDenominator = "timeSignatureDenominator"
	FieldTickTypes                = "tickTypes"
	FieldSubdivision              = "subdivision"
	FieldIsDroning                = "isDroning"
	FieldIsPlaying                = "isPlaying"
	FieldDroneDurationRatio       = "droneDurationRatio"
	FieldNote                     = "note"
	FieldOctave                   = "octave"
	FieldSoundType                = "soundType"
	FieldTuningStandard           = "tuningStandard"
	FieldAmplitude                = "amplitude"
	FieldIsPulsing                = "isPulsing"
)

const subscriberBuffer = 256

// FieldChange reports a new value for one observable field
type FieldChange struct {
	Stream string
	Field  string
	Value  any
}

// Tick reports that a beat became audible
type Tick struct {
	Beat int   // 1-based
	At   int64 // sample time
}

// hub fans values out to subscribers without blocking the publisher
type hub[T any] struct {
	name   string
	mu     sync.Mutex
	subs   map[int]chan T
	next   int
	closed bool
}

func newHub[T any](name string) *hub[T] {
	return &hub[T]{name: name, subs: make(map[int]chan T)}
}

func (h *hub[T]) subscribe() (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan T, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

func (h *hub[T]) publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- v:
		default:
			log.Printf("Dropping %s event for subscriber %d, channel full", h.name, id)
		}
	}
}

func (h *hub[T]) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// diff lists the observable fields that differ between two patterns
func diff(old, next pattern.Pattern) []FieldChange {
	var out []FieldChange
	add := func(stream, field string, value any) {
		out = append(out, FieldChange{Stream: stream, Field: field, Value: value})
	}

	if old.Tempo != next.Tempo {
		add(StreamMetronome, FieldBPM, next.Tempo)
	}
	if old.TimeSignature.BeatCount != next.TimeSignature.BeatCount {
		add(StreamMetronome, FieldTimeSignatureNumerator, next.TimeSignature.BeatCount)
	}
	if old.TimeSignature.BeatUnit != next.TimeSignature.BeatUnit {
		add(StreamMetronome, FieldTimeSignatureDenominator, next.TimeSignature.BeatUnit)
	}
	if !accentsEqual(old.Accents(), next.Accents()) {
		add(StreamMetronome, FieldTickTypes, pattern.TickTypes(next.Accents()))
	}
	if !old.Subdivision.Equal(next.Subdivision) {
		add(StreamMetronome, FieldSubdivision, SpecOf(next.Subdivision))
	}
	if old.Voice.DurationRatio != next.Voice.DurationRatio {
		add(StreamMetronome, FieldDroneDurationRatio, next.Voice.DurationRatio)
	}
	if old.Pulsing != next.Pulsing {
		add(StreamMetronome, FieldIsDroning, next.Pulsing)
		add(StreamDrone, FieldIsPulsing, next.Pulsing)
	}

	ov, nv := old.Voice, next.Voice
	if ov.Note != nv.Note {
		add(StreamDrone, FieldNote, nv.Note.String())
	}
	if ov.Octave != nv.Octave {
		add(StreamDrone, FieldOctave, nv.Octave)
	}
	if ov.Waveform != nv.Waveform {
		add(StreamDrone, FieldSoundType, nv.Waveform.String())
	}
	if ov.Tuning != nv.Tuning {
		add(StreamDrone, FieldTuningStandard, nv.Tuning)
	}
	if ov.Amplitude != nv.Amplitude {
		add(StreamDrone, FieldAmplitude, nv.Amplitude)
	}
	return out
}

func accentsEqual(a, b []pattern.Accent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// voiceChanged ignores the duration ratio, which only shapes pulses
func voiceChanged(a, b pattern.DroneVoice) bool {
	a.DurationRatio, b.DurationRatio = 0, 0
	return a != b
}
