// ABOUTME: Beat buffer generator: renders one beat of clicks plus an optional drone pulse
// ABOUTME: Output is memoized per synthesis key in two bounded caches
package render

import (
	"math"
	"sync"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
	"github.com/metrodrone/metrodrone-go/pkg/cache"
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
	"github.com/metrodrone/metrodrone-go/pkg/synth"
)

// CacheSize is the capacity of each generator cache
const CacheSize = 16

// MaxFade is the longest linear fade applied to a drone pulse
const MaxFade = 100

// Key identifies every input that affects a rendered beat
type Key struct {
	Tempo  int
	Accent pattern.Accent
	Parts  string

	Drone     bool
	Waveform  pattern.Waveform
	Note      pattern.Note
	Octave    int
	Amplitude float64
	Tuning    float64
	Ratio     float64
}

// Buffer is one rendered beat
type Buffer struct {
	Key     Key
	Samples []int16
}

// PartSamples is the length of a beat part at a tempo
func PartSamples(tempo int, fraction float64) int {
	return int(math.Round(60 / float64(tempo) * fraction * audio.SampleRate))
}

// BeatSamples is the rendered length of a beat
func BeatSamples(tempo int, parts []pattern.BeatPart) int {
	n := 0
	for _, p := range parts {
		n += PartSamples(tempo, p.Duration)
	}
	return n
}

// IntervalSamples is the distance between beat onsets at a tempo
func IntervalSamples(tempo int) int64 {
	return int64(math.Round(60 / float64(tempo) * audio.SampleRate))
}

// Generator renders beats. It is safe for concurrent use.
type Generator struct {
	// mu keeps a click bank swap from racing renders into the cache
	mu     sync.RWMutex
	clicks *ClickBank
	click  *cache.FixedSize[Key, []int16]
	pulse  *cache.FixedSize[Key, []int16]
}

// NewGenerator creates a generator. A nil bank uses DefaultClicks.
func NewGenerator(clicks *ClickBank) *Generator {
	if clicks == nil {
		clicks = DefaultClicks()
	}
	return &Generator{
		clicks: clicks,
		click:  cache.NewFixedSize[Key, []int16](CacheSize),
		pulse:  cache.NewFixedSize[Key, []int16](CacheSize),
	}
}

// KeyFor builds the cache key for a render call
func KeyFor(tempo int, beat pattern.Beat, voice pattern.DroneVoice, drone bool) Key {
	k := Key{Tempo: tempo, Accent: beat.Accent, Parts: beat.Fingerprint(), Drone: drone}
	if drone {
		k.Waveform = voice.Waveform
		k.Note = voice.Note
		k.Octave = voice.Octave
		k.Amplitude = voice.Amplitude
		k.Tuning = voice.Tuning
		k.Ratio = voice.DurationRatio
	}
	return k
}

// Render produces the buffer for one beat. Equal inputs give identical samples.
func (g *Generator) Render(tempo int, beat pattern.Beat, voice pattern.DroneVoice, drone bool) Buffer {
	if tempo <= 0 {
		panic("render: tempo must be positive")
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	key := KeyFor(tempo, beat, voice, drone)

	clickKey := Key{Tempo: tempo, Accent: beat.Accent, Parts: key.Parts}
	clicks := g.click.GetOrCreate(clickKey, func() []int16 {
		return g.renderClicks(tempo, beat)
	})

	if !drone || beat.Accent == pattern.Mute {
		return Buffer{Key: key, Samples: audio.Mix(clicks, nil)}
	}

	pulse := g.pulse.GetOrCreate(key, func() []int16 {
		return renderPulse(tempo, beat, voice)
	})
	return Buffer{Key: key, Samples: audio.Mix(clicks, pulse)}
}

// CacheStats reports hits and misses of the click and pulse caches
func (g *Generator) CacheStats() (clickHits, clickMisses, pulseHits, pulseMisses uint64) {
	clickHits, clickMisses = g.click.Stats()
	pulseHits, pulseMisses = g.pulse.Stats()
	return
}

// SetClicks replaces the click bank and drops every cached click buffer.
// A nil bank restores the synthesized defaults.
func (g *Generator) SetClicks(clicks *ClickBank) {
	if clicks == nil {
		clicks = DefaultClicks()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.clicks = clicks
	g.click.Clear()
}

// effectiveAccent picks the click for one part. The first part carries an
// emphasized beat accent; otherwise rests and muted beats are silent.
func effectiveAccent(i int, part pattern.BeatPart, beat pattern.Accent) pattern.Accent {
	switch {
	case i == 0 && (beat == pattern.Accented || beat == pattern.Strong):
		return beat
	case !part.Sounds || beat == pattern.Mute:
		return pattern.Mute
	default:
		return pattern.Default
	}
}

func (g *Generator) renderClicks(tempo int, beat pattern.Beat) []int16 {
	out := make([]int16, BeatSamples(tempo, beat.Parts))
	pos := 0
	for i, part := range beat.Parts {
		n := PartSamples(tempo, part.Duration)
		click := g.clicks.For(effectiveAccent(i, part, beat.Accent))
		copy(out[pos:pos+n], click)
		pos += n
	}
	return out
}

func renderPulse(tempo int, beat pattern.Beat, voice pattern.DroneVoice) []int16 {
	out := make([]int16, BeatSamples(tempo, beat.Parts))
	freq := synth.VoiceFrequency(voice)

	var phase synth.Phase
	pos := 0
	for _, part := range beat.Parts {
		n := PartSamples(tempo, part.Duration)
		if part.Sounds {
			sounding := int(math.Round(float64(n) * voice.DurationRatio))
			if sounding > n {
				sounding = n
			}
			if sounding > 0 {
				seg := out[pos : pos+sounding]
				synth.GenerateInto(seg, voice.Waveform, freq, voice.Amplitude, &phase)
				applyFade(seg)
			}
		}
		pos += n
	}
	return out
}

// applyFade ramps the first and last N samples linearly, N = min(MaxFade, len/2)
func applyFade(samples []int16) {
	n := len(samples)
	fade := MaxFade
	if n/2 < fade {
		fade = n / 2
	}
	if fade == 0 {
		return
	}
	for i := 0; i < n; i++ {
		var factor float64
		switch {
		case i < fade:
			factor = float64(i) / float64(fade)
		case i >= n-fade:
			factor = float64(n-i) / float64(fade)
		default:
			continue
		}
		samples[i] = int16(float64(samples[i]) * factor)
	}
}
