// ABOUTME: Audio decoder package for click-sample files
// ABOUTME: Provides Decoder interface and implementations for PCM, WAV, FLAC, MP3
// Package decode turns encoded audio files into 16-bit PCM.
//
// Supports: raw PCM (16-bit and 24-bit), WAV, FLAC, MP3
//
// Decoders return a Clip holding interleaved int16 samples and the source
// format. Load additionally downmixes to mono and resamples to the engine
// rate so the result can be used directly as a click waveform.
//
// Example:
//
//	samples, err := decode.Load("clicks/accent.wav")
package decode
