// ABOUTME: Click waveforms for each accent level
// ABOUTME: Synthesized sine bursts by default, optionally loaded from sample files
package render

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
	"github.com/metrodrone/metrodrone-go/pkg/audio/decode"
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
)

const (
	clickLength    = 30 * audio.SampleRate / 1000 // 30ms
	clickAttack    = 44                           // ~1ms
	clickAmplitude = 0.8
)

var clickPitch = map[pattern.Accent]float64{
	pattern.Default:  1000,
	pattern.Accented: 1500,
	pattern.Strong:   2000,
}

// clickFiles maps accent levels to file base names inside a click directory
var clickFiles = map[pattern.Accent]string{
	pattern.Default:  "tick",
	pattern.Accented: "accent",
	pattern.Strong:   "strong_accent",
}

// ClickBank holds one short waveform per accent level. Mute is always empty.
type ClickBank struct {
	clicks [4][]int16
}

// DefaultClicks synthesizes a decaying sine burst per accent level
func DefaultClicks() *ClickBank {
	b := &ClickBank{}
	for accent, freq := range clickPitch {
		b.clicks[accent] = synthClick(freq)
	}
	return b
}

// LoadClicks reads tick, accent and strong_accent samples from dir. Each
// may be .wav, .flac or .mp3; missing files keep the synthesized click.
func LoadClicks(dir string) (*ClickBank, error) {
	b := DefaultClicks()
	for accent, name := range clickFiles {
		path, ok := findClickFile(dir, name)
		if !ok {
			log.Printf("No %s sample in %s, using synthesized click", name, dir)
			continue
		}
		samples, err := decode.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load click %s: %w", name, err)
		}
		b.clicks[accent] = samples
		log.Printf("Loaded %s click from %s (%d samples)", accent, path, len(samples))
	}
	return b, nil
}

func findClickFile(dir, name string) (string, bool) {
	for _, ext := range decode.Extensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		} else if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Cannot stat %s: %v", path, err)
		}
	}
	return "", false
}

// For returns the click waveform for an accent. Callers must not modify it.
func (b *ClickBank) For(a pattern.Accent) []int16 {
	if a == pattern.Mute || int(a) >= len(b.clicks) {
		return nil
	}
	return b.clicks[a]
}

// Set replaces the click for an accent level. Setting Mute is ignored.
func (b *ClickBank) Set(a pattern.Accent, samples []int16) {
	if a == pattern.Mute || int(a) >= len(b.clicks) {
		return
	}
	c := make([]int16, len(samples))
	copy(c, samples)
	b.clicks[a] = c
}

func synthClick(freq float64) []int16 {
	out := make([]int16, clickLength)
	for i := range out {
		t := float64(i) / audio.SampleRate
		env := math.Exp(-t * 150)
		if i < clickAttack {
			env *= float64(i) / clickAttack
		}
		out[i] = audio.ClampFloat(math.Sin(2*math.Pi*freq*t) * env * clickAmplitude)
	}
	return out
}
