// ABOUTME: Decoder interface definition and file loading helpers
// ABOUTME: Selects a decoder by file extension and normalizes to engine format
package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
	"github.com/metrodrone/metrodrone-go/pkg/audio/resample"
)

// Clip is decoded audio with its source format
type Clip struct {
	Format  audio.Format
	Samples []int16 // interleaved by channel
}

// Frames returns the number of sample frames in the clip
func (c Clip) Frames() int {
	if c.Format.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// Decoder decodes a complete encoded file body to PCM
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) (Clip, error)

	// Close releases decoder resources
	Close() error
}

// Extensions lists the file extensions Load understands, in lookup order
var Extensions = []string{".wav", ".flac", ".mp3", ".raw"}

// ForExtension returns a decoder for a file extension such as ".wav"
func ForExtension(ext string) (Decoder, error) {
	switch strings.ToLower(ext) {
	case ".wav", ".wave":
		return NewWAV(), nil
	case ".flac":
		return NewFLAC(), nil
	case ".mp3":
		return NewMP3(), nil
	case ".raw", ".pcm":
		// Raw files carry no header and must be in the engine format
		return NewPCM(audio.EngineFormat)
	default:
		return nil, fmt.Errorf("unsupported audio file extension: %q", ext)
	}
}

// Load decodes a file and converts it to mono int16 at the engine sample rate
func Load(path string) ([]int16, error) {
	dec, err := ForExtension(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	clip, err := dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return Normalize(clip), nil
}

// Normalize downmixes a clip to mono and resamples it to audio.SampleRate
func Normalize(clip Clip) []int16 {
	mono := ToMono(clip)
	if clip.Format.SampleRate == audio.SampleRate || clip.Format.SampleRate <= 0 || len(mono) == 0 {
		return mono
	}

	return resample.Mono(mono, clip.Format.SampleRate, audio.SampleRate)
}

// ToMono averages the channels of each frame
func ToMono(clip Clip) []int16 {
	ch := clip.Format.Channels
	if ch <= 1 {
		out := make([]int16, len(clip.Samples))
		copy(out, clip.Samples)
		return out
	}

	frames := clip.Frames()
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for c := 0; c < ch; c++ {
			sum += int32(clip.Samples[i*ch+c])
		}
		out[i] = int16(sum / int32(ch))
	}
	return out
}
