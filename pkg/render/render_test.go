// ABOUTME: Tests for the beat buffer generator
// ABOUTME: Tests lengths, accent selection, drone pulse gating, fades and purity
package render

import (
	"path/filepath"
	"testing"

	"github.com/metrodrone/metrodrone-go/pkg/audio/encode"
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
)

func beatOf(name string, accent pattern.Accent) pattern.Beat {
	s, ok := pattern.LookupSubdivision(name, "")
	if !ok {
		panic("unknown subdivision " + name)
	}
	return pattern.Beat{Parts: s.Parts, Accent: accent}
}

// testClicks uses constant, distinguishable clicks so layers are easy to inspect
func testClicks() *ClickBank {
	b := &ClickBank{}
	b.Set(pattern.Default, []int16{100, 100, 100})
	b.Set(pattern.Accented, []int16{200, 200, 200})
	b.Set(pattern.Strong, []int16{300, 300, 300})
	return b
}

func TestSampleCounts(t *testing.T) {
	tests := []struct {
		name     string
		tempo    int
		fraction float64
		expected int
	}{
		{"quarter at 120", 120, 1, 22050},
		{"eighth at 120", 120, 0.5, 11025},
		{"quarter at 60", 60, 1, 44100},
		{"triplet at 100", 100, 1.0 / 3, 8820},
		{"quarter at 400", 400, 1, 6615},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PartSamples(tt.tempo, tt.fraction); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}

	if IntervalSamples(120) != 22050 {
		t.Errorf("expected interval 22050, got %d", IntervalSamples(120))
	}
	if IntervalSamples(7) != 378000 {
		t.Errorf("expected interval 378000, got %d", IntervalSamples(7))
	}
}

func TestRenderLength(t *testing.T) {
	g := NewGenerator(testClicks())
	buf := g.Render(120, beatOf("quarter", pattern.Default), pattern.DefaultVoice(), false)
	if len(buf.Samples) != 22050 {
		t.Fatalf("expected 22050 samples, got %d", len(buf.Samples))
	}
	if buf.Samples[0] != 100 || buf.Samples[3] != 0 {
		t.Errorf("expected a default click followed by silence, got %v", buf.Samples[:4])
	}
}

func TestStrongAccentOnlyOnFirstPart(t *testing.T) {
	g := NewGenerator(testClicks())
	buf := g.Render(120, beatOf("eighth", pattern.Strong), pattern.DefaultVoice(), false)

	if len(buf.Samples) != 22050 {
		t.Fatalf("expected 22050 samples, got %d", len(buf.Samples))
	}
	if buf.Samples[0] != 300 {
		t.Errorf("first part should use the strong click, got %d", buf.Samples[0])
	}
	if buf.Samples[11025] != 100 {
		t.Errorf("second part should use the default click, got %d", buf.Samples[11025])
	}
}

func TestAccentSelection(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		part     pattern.BeatPart
		beat     pattern.Accent
		expected pattern.Accent
	}{
		{"first accented", 0, pattern.BeatPart{Duration: 1, Sounds: true}, pattern.Accented, pattern.Accented},
		{"later part of accented beat", 1, pattern.BeatPart{Duration: 1, Sounds: true}, pattern.Accented, pattern.Default},
		{"rest", 1, pattern.BeatPart{Duration: 1, Sounds: false}, pattern.Default, pattern.Mute},
		{"muted beat", 0, pattern.BeatPart{Duration: 1, Sounds: true}, pattern.Mute, pattern.Mute},
		{"default beat", 0, pattern.BeatPart{Duration: 1, Sounds: true}, pattern.Default, pattern.Default},
		{"strong first part wins over rest", 0, pattern.BeatPart{Duration: 1, Sounds: false}, pattern.Strong, pattern.Strong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := effectiveAccent(tt.index, tt.part, tt.beat); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestMuteBeatIsSilent(t *testing.T) {
	g := NewGenerator(nil)
	buf := g.Render(90, beatOf("sixteenth", pattern.Mute), pattern.DefaultVoice(), true)
	for i, s := range buf.Samples {
		if s != 0 {
			t.Fatalf("sample %d should be silent, got %d", i, s)
		}
	}
}

func TestRestPartIsSilent(t *testing.T) {
	g := NewGenerator(testClicks())
	buf := g.Render(120, beatOf("restAndEighth", pattern.Default), pattern.DefaultVoice(), true)

	for i := 0; i < 11025; i++ {
		if buf.Samples[i] != 0 {
			t.Fatalf("rest part sample %d should be silent, got %d", i, buf.Samples[i])
		}
	}
	if buf.Samples[11025] != 100 {
		t.Errorf("sounding part should start with a click, got %d", buf.Samples[11025])
	}
}

func TestPulseGating(t *testing.T) {
	g := NewGenerator(&ClickBank{})
	voice := pattern.DefaultVoice()
	voice.DurationRatio = 0.5

	buf := g.Render(120, beatOf("quarter", pattern.Default), voice, true)

	// round(22050 * 0.5) sounding samples, then silence
	sounding := 11025
	nonZero := false
	for i := 200; i < sounding-200; i++ {
		if buf.Samples[i] != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("drone pulse should sound during the gated portion")
	}
	for i := sounding; i < len(buf.Samples); i++ {
		if buf.Samples[i] != 0 {
			t.Fatalf("sample %d after the gate should be silent, got %d", i, buf.Samples[i])
		}
	}
}

func TestFade(t *testing.T) {
	samples := make([]int16, 1000)
	for i := range samples {
		samples[i] = 1000
	}
	applyFade(samples)

	if samples[0] != 0 {
		t.Errorf("fade-in should start at 0, got %d", samples[0])
	}
	if samples[50] != 500 {
		t.Errorf("fade-in midpoint should be 500, got %d", samples[50])
	}
	if samples[500] != 1000 {
		t.Errorf("middle should be untouched, got %d", samples[500])
	}
	if samples[999] != 10 {
		t.Errorf("last sample should be 1/100 of full scale, got %d", samples[999])
	}
}

func TestShortFadeNeverOverlaps(t *testing.T) {
	samples := []int16{1000, 1000, 1000, 1000, 1000, 1000}
	applyFade(samples)

	// N = 3: ramps 0, 1/3, 2/3 then 3/3, 2/3, 1/3
	expected := []int16{0, 333, 666, 1000, 666, 333}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], samples[i])
		}
	}
}

func TestRenderIsPure(t *testing.T) {
	voice := pattern.DefaultVoice()
	voice.Waveform = pattern.Cello
	beat := beatOf("triplet", pattern.Accented)

	first := NewGenerator(nil).Render(133, beat, voice, true)

	g := NewGenerator(nil)
	g.Render(133, beat, voice, true)
	cached := g.Render(133, beat, voice, true)

	if first.Key != cached.Key {
		t.Fatal("keys should match")
	}
	if len(first.Samples) != len(cached.Samples) {
		t.Fatalf("length mismatch: %d vs %d", len(first.Samples), len(cached.Samples))
	}
	for i := range first.Samples {
		if first.Samples[i] != cached.Samples[i] {
			t.Fatalf("sample %d differs between fresh and cached render", i)
		}
	}

	_, _, pulseHits, _ := g.CacheStats()
	if pulseHits != 1 {
		t.Errorf("expected 1 pulse cache hit, got %d", pulseHits)
	}
}

func TestCachedBufferIsNotShared(t *testing.T) {
	g := NewGenerator(testClicks())
	beat := beatOf("quarter", pattern.Default)

	a := g.Render(120, beat, pattern.DefaultVoice(), false)
	a.Samples[0] = 9999

	b := g.Render(120, beat, pattern.DefaultVoice(), false)
	if b.Samples[0] != 100 {
		t.Errorf("mutating a returned buffer leaked into the cache: %d", b.Samples[0])
	}
}

func TestMixSaturates(t *testing.T) {
	loud := make([]int16, 22050)
	for i := range loud {
		loud[i] = 32000
	}
	b := &ClickBank{}
	b.Set(pattern.Default, loud)
	g := NewGenerator(b)

	voice := pattern.DefaultVoice()
	voice.Amplitude = 1
	voice.DurationRatio = 0.99
	buf := g.Render(120, beatOf("quarter", pattern.Default), voice, true)

	saturated := false
	for i, s := range buf.Samples {
		// click + drone never drops below 32000 - 32767; wrapping would
		if s < -800 {
			t.Fatalf("sample %d wrapped to %d", i, s)
		}
		if s == 32767 {
			saturated = true
		}
	}
	if !saturated {
		t.Error("expected clipped samples at full scale")
	}
}

func TestEmptyPartsRenderEmpty(t *testing.T) {
	g := NewGenerator(nil)
	buf := g.Render(120, pattern.Beat{Accent: pattern.Default}, pattern.DefaultVoice(), true)
	if len(buf.Samples) != 0 {
		t.Errorf("expected empty buffer, got %d samples", len(buf.Samples))
	}
}

func TestRenderPanicsOnZeroTempo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero tempo")
		}
	}()
	NewGenerator(nil).Render(0, beatOf("quarter", pattern.Default), pattern.DefaultVoice(), false)
}

func TestKeyIgnoresVoiceWithoutDrone(t *testing.T) {
	beat := beatOf("quarter", pattern.Default)
	a := pattern.DefaultVoice()
	b := a
	b.Note = pattern.G

	if KeyFor(120, beat, a, false) != KeyFor(120, beat, b, false) {
		t.Error("voice should not affect the key when the drone is off")
	}
	if KeyFor(120, beat, a, true) == KeyFor(120, beat, b, true) {
		t.Error("voice should affect the key when the drone is on")
	}
}

func TestDefaultClicks(t *testing.T) {
	b := DefaultClicks()
	if b.For(pattern.Mute) != nil {
		t.Error("mute should have no click")
	}
	for _, a := range []pattern.Accent{pattern.Default, pattern.Accented, pattern.Strong} {
		if len(b.For(a)) != clickLength {
			t.Errorf("%v: expected %d samples, got %d", a, clickLength, len(b.For(a)))
		}
	}
}

func TestLoadClicks(t *testing.T) {
	dir := t.TempDir()
	if err := encode.SaveWAV(filepath.Join(dir, "accent.wav"), []int16{1000, 2000, 3000}); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	b, err := LoadClicks(dir)
	if err != nil {
		t.Fatalf("LoadClicks failed: %v", err)
	}
	if len(b.For(pattern.Accented)) != 3 {
		t.Errorf("expected loaded accent click of 3 samples, got %d", len(b.For(pattern.Accented)))
	}
	if len(b.For(pattern.Default)) != clickLength {
		t.Error("missing tick file should fall back to the synthesized click")
	}
}

func TestSetClicksDropsCachedClicks(t *testing.T) {
	g := NewGenerator(testClicks())
	beat := beatOf("quarter", pattern.Default)

	if got := g.Render(120, beat, pattern.DefaultVoice(), false).Samples[0]; got != 100 {
		t.Fatalf("expected first click sample 100, got %d", got)
	}

	swapped := &ClickBank{}
	swapped.Set(pattern.Default, []int16{7, 7, 7})
	g.SetClicks(swapped)

	if got := g.Render(120, beat, pattern.DefaultVoice(), false).Samples[0]; got != 7 {
		t.Errorf("expected the new click after a swap, got %d", got)
	}
	// Counters restart with the emptied cache
	if hits, misses, _, _ := g.CacheStats(); hits != 0 || misses != 1 {
		t.Errorf("expected one fresh render after the swap, got %d hits %d misses", hits, misses)
	}

	g.SetClicks(nil)
	got := g.Render(120, beat, pattern.DefaultVoice(), false).Samples
	want := DefaultClicks().For(pattern.Default)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("nil bank should restore the synthesized clicks, sample %d is %d", i, got[i])
		}
	}
}
