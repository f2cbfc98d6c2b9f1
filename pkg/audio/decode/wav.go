// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE files via beep to int16 samples
package decode

import (
	"bytes"
	"fmt"
	"math"

	"github.com/gopxl/beep/wav"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
)

const wavChunk = 512

// wavScale maps beep's decoded floats back to int16 units. beep divides
// 16 and 24-bit samples by the full unsigned range, so they arrive in
// [-0.5, 0.5] while 8-bit samples span [-1, 1].
func wavScale(precision int) float64 {
	switch precision {
	case 2:
		return 1<<16 - 1
	case 3:
		return (1<<24 - 1) / 256.0
	default:
		return 32768
	}
}

func wavSample(v, scale float64) int16 {
	return audio.Clamp(int32(math.Round(v * scale)))
}

// WAVDecoder decodes WAV files
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() Decoder {
	return &WAVDecoder{}
}

// Decode converts a WAV file body to int16 samples
func (d *WAVDecoder) Decode(data []byte) (Clip, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("failed to decode wav: %w", err)
	}
	defer streamer.Close()

	channels := format.NumChannels
	if channels > 2 {
		channels = 2
	}

	clip := Clip{
		Format: audio.Format{
			SampleRate: int(format.SampleRate),
			Channels:   channels,
			BitDepth:   16,
		},
		Samples: make([]int16, 0, streamer.Len()*channels),
	}

	scale := wavScale(format.Precision)
	buf := make([][2]float64, wavChunk)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			clip.Samples = append(clip.Samples, wavSample(buf[i][0], scale))
			if channels == 2 {
				clip.Samples = append(clip.Samples, wavSample(buf[i][1], scale))
			}
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return Clip{}, fmt.Errorf("wav stream error: %w", err)
	}

	return clip, nil
}

// Close releases decoder resources
func (d *WAVDecoder) Close() error {
	return nil
}
