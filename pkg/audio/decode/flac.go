// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC audio frame by frame to int16 samples
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC() Decoder {
	return &FLACDecoder{}
}

// Decode converts FLAC bytes to int16 samples
func (d *FLACDecoder) Decode(data []byte) (Clip, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)

	clip := Clip{
		Format: audio.Format{
			SampleRate: int(info.SampleRate),
			Channels:   channels,
			BitDepth:   16,
		},
	}

	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Clip{}, fmt.Errorf("flac frame error: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				clip.Samples = append(clip.Samples, toInt16(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	return clip, nil
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return nil
}

// toInt16 rescales a sample of the given bit depth to 16 bits
func toInt16(sample int32, bitDepth int) int16 {
	shift := bitDepth - 16
	switch {
	case shift > 0:
		return int16(sample >> shift)
	case shift < 0:
		return int16(sample << -shift)
	default:
		return int16(sample)
	}
}
