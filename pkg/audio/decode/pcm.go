// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit and 24-bit little-endian PCM to int16 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
)

// PCMDecoder decodes headerless PCM audio
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder for the given layout
func NewPCM(format audio.Format) (Decoder, error) {
	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}
	if format.Channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", format.Channels)
	}

	return &PCMDecoder{format: format}, nil
}

// Decode converts PCM bytes to int16 samples. 24-bit input keeps its top 16 bits.
func (d *PCMDecoder) Decode(data []byte) (Clip, error) {
	out := audio.Format{SampleRate: d.format.SampleRate, Channels: d.format.Channels, BitDepth: 16}

	if d.format.BitDepth == 24 {
		numSamples := len(data) / 3
		samples := make([]int16, numSamples)
		for i := 0; i < numSamples; i++ {
			v := int32(data[i*3]) | int32(data[i*3+1])<<8 | int32(int8(data[i*3+2]))<<16
			samples[i] = int16(v >> 8)
		}
		return Clip{Format: out, Samples: samples}, nil
	}

	numSamples := len(data) / 2
	samples := make([]int16, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return Clip{Format: out, Samples: samples}, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
