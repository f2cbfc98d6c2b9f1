// ABOUTME: WAV file writer for rendered engine output
// ABOUTME: Wraps int16 mono samples in a beep streamer and encodes with beep/wav
package encode

import (
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
)

// sliceStreamer plays a fixed mono buffer once
type sliceStreamer struct {
	samples []int16
	pos     int
}

func (s *sliceStreamer) Stream(buf [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	for n < len(buf) && s.pos < len(s.samples) {
		v := wavFloat(s.samples[s.pos])
		buf[n][0] = v
		buf[n][1] = v
		n++
		s.pos++
	}
	return n, true
}

// wavFloat maps a sample so beep's 16-bit encoder, which scales by 32767
// and truncates toward zero, writes it back unchanged. -32768 saturates
// to -32767.
func wavFloat(s int16) float64 {
	v := float64(s)
	switch {
	case v > 0:
		v += 0.5
	case v < 0:
		v -= 0.5
	}
	return v / (1<<15 - 1)
}

func (s *sliceStreamer) Err() error {
	return nil
}

// WriteWAV encodes mono 16-bit samples at sampleRate as a WAV stream
func WriteWAV(w io.WriteSeeker, samples []int16, sampleRate int) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(w, &sliceStreamer{samples: samples}, format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	return nil
}

// SaveWAV writes samples at the engine sample rate to a new file
func SaveWAV(path string, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteWAV(f, samples, audio.SampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
