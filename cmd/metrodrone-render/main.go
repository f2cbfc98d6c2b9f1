// ABOUTME: Offline renderer that writes metronome bars to a WAV or raw PCM file
// ABOUTME: Drives a real engine on a manually clocked sink as fast as it can render
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metrodrone/metrodrone-go/internal/config"
	"github.com/metrodrone/metrodrone-go/pkg/audio"
	"github.com/metrodrone/metrodrone-go/pkg/audio/encode"
	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
	"github.com/metrodrone/metrodrone-go/pkg/drone"
	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
	"github.com/metrodrone/metrodrone-go/pkg/render"
)

// renderBlock is how far the manual clock moves per step (10ms)
const renderBlock = audio.SampleRate / 100

// topUpTimeout bounds the wait for a scheduler to queue the next segment
var topUpTimeout = 2 * time.Second

var (
	outPath    = flag.String("out", "metrodrone.wav", "Output path, .raw or .pcm writes headerless PCM")
	bits       = flag.Int("bits", 16, "Bit depth for raw PCM output (16 or 24)")
	bars       = flag.Int("bars", 4, "Number of bars to render")
	withDrone  = flag.Bool("drone", false, "Mix in the continuous drone")
	configPath = flag.String("config", "", "Preset file with settings")
	settings   = flag.String("settings", "", "Settings JSON applied over the preset, e.g. '{\"bpm\":90}'")
	clicksDir  = flag.String("clicks", "", "Directory with tick, accent and strong_accent samples")
)

func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	dir := cfg.ClicksDir
	if *clicksDir != "" {
		dir = *clicksDir
	}
	var clicks *render.ClickBank
	if dir != "" {
		var err error
		if clicks, err = render.LoadClicks(dir); err != nil {
			log.Fatalf("Failed to load clicks: %v", err)
		}
	}

	sink := output.NewManual()
	engine, err := metrodrone.New(metrodrone.Config{
		Sink:       sink,
		Clicks:     clicks,
		DroneChunk: drone.DefaultChunk,
		Settings:   cfg.Settings,
	})
	if err != nil {
		log.Fatalf("Invalid preset: %v", err)
	}
	defer engine.Close()

	if *settings != "" {
		var s metrodrone.Settings
		if err := json.Unmarshal([]byte(*settings), &s); err != nil {
			log.Fatalf("Invalid -settings JSON: %v", err)
		}
		if err := engine.Configure(s); err != nil {
			log.Fatalf("Invalid settings: %v", err)
		}
	}

	samples, err := renderBars(engine, sink, *bars, *withDrone)
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}
	if err := save(*outPath, samples, *bits); err != nil {
		log.Fatalf("Failed to write %s: %v", *outPath, err)
	}

	p := engine.Snapshot()
	log.Printf("Wrote %d bars of %d/%d at %d BPM (%s) to %s: %.2fs",
		*bars, p.TimeSignature.BeatCount, p.TimeSignature.BeatUnit, p.Tempo, p.Subdivision.Title,
		*outPath, float64(len(samples))/audio.SampleRate)
}

// renderBars plays bars of the engine's pattern on sink and returns the mix.
// The clock only advances once every stream has queued audio for the next
// block, so the result matches real-time playback.
func renderBars(e *metrodrone.Engine, sink *output.Manual, bars int, withDrone bool) ([]int16, error) {
	p := e.Snapshot()
	interval := render.IntervalSamples(p.Tempo)
	chunk := audio.SamplesIn(drone.DefaultChunk)
	total := int64(bars*len(p.Beats)) * interval

	if err := e.StartMetronome(); err != nil {
		return nil, err
	}
	defer e.StopMetronome()
	if withDrone {
		if err := e.StartDrone(); err != nil {
			return nil, err
		}
		defer e.StopDrone()
	}

	out := make([]int16, 0, total)
	for t := int64(0); t < total; t += renderBlock {
		n := min(int64(renderBlock), total-t)
		end := t + n

		if err := waitFor("metronome", func() bool { return e.Stats().Scheduled*interval >= end }); err != nil {
			return nil, err
		}
		if withDrone {
			if err := waitFor("drone", func() bool { return e.DroneStats().Scheduled*chunk >= end }); err != nil {
				return nil, err
			}
		}

		out = append(out, sink.Advance(int(n))...)
	}
	return out, nil
}

func waitFor(stream string, ready func() bool) error {
	deadline := time.Now().Add(topUpTimeout)
	for !ready() {
		if time.Now().After(deadline) {
			return fmt.Errorf("%s scheduler stalled", stream)
		}
		time.Sleep(100 * time.Microsecond)
	}
	return nil
}

// save writes samples as WAV unless path names a raw PCM file
func save(path string, samples []int16, bitDepth int) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raw", ".pcm":
	default:
		return encode.SaveWAV(path, samples)
	}

	format := audio.EngineFormat
	format.BitDepth = bitDepth
	enc, err := encode.NewPCM(format)
	if err != nil {
		return err
	}
	defer enc.Close()

	data, err := enc.Encode(samples)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
