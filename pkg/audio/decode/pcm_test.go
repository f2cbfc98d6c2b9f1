// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests 16-bit and 24-bit PCM decoding
package decode

import (
	"testing"

	"github.com/metrodrone/metrodrone-go/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	decoder, err := NewPCM(audio.EngineFormat)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestPCMDecode16Bit(t *testing.T) {
	decoder, err := NewPCM(audio.EngineFormat)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0x00, 0x01 -> 0x0100 = 256; 0x02, 0x03 -> 0x0302 = 770
	input := []byte{0x00, 0x01, 0x02, 0x03}
	clip, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(clip.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(clip.Samples))
	}
	if clip.Samples[0] != 256 || clip.Samples[1] != 770 {
		t.Errorf("unexpected samples: %v", clip.Samples)
	}
	if clip.Format.SampleRate != 44100 {
		t.Errorf("expected sample rate to carry through, got %d", clip.Format.SampleRate)
	}
}

func TestPCMDecode24Bit(t *testing.T) {
	decoder, err := NewPCM(audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 24})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0x020100 >> 8 = 0x0201; 0xFFFF00 is -256, >> 8 = -1
	input := []byte{0x00, 0x01, 0x02, 0x00, 0xFF, 0xFF}
	clip, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(clip.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(clip.Samples))
	}
	if clip.Samples[0] != 0x0201 {
		t.Errorf("expected first sample %d, got %d", 0x0201, clip.Samples[0])
	}
	if clip.Samples[1] != -1 {
		t.Errorf("expected second sample -1, got %d", clip.Samples[1])
	}
}

func TestNewPCM_UnsupportedBitDepth(t *testing.T) {
	decoder, err := NewPCM(audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 32})
	if err == nil {
		t.Fatal("expected error for unsupported bit depth, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for unsupported bit depth")
	}

	expectedError := "unsupported bit depth: 32 (supported: 16, 24)"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestPCMDecode_EmptyInput(t *testing.T) {
	decoder, err := NewPCM(audio.EngineFormat)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	clip, err := decoder.Decode([]byte{})
	if err != nil {
		t.Fatalf("decode failed with empty input: %v", err)
	}

	if len(clip.Samples) != 0 {
		t.Errorf("expected 0 samples from empty input, got %d", len(clip.Samples))
	}
}
