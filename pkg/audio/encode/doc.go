// ABOUTME: Audio encoder package for writing engine PCM
// ABOUTME: Provides Encoder interface, PCM byte encoding and WAV file export
// Package encode provides audio encoders for the engine's int16 output.
//
// Supports: PCM (16-bit and 24-bit little-endian), WAV files
//
// PCM encoding feeds the device sink; WAV export is used by the offline
// renderer.
//
// Example:
//
//	encoder, err := encode.NewPCM(audio.EngineFormat)
//	data, err := encoder.Encode(samples)
package encode
