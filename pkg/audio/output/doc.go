// ABOUTME: Audio output package for sample-clock playback
// ABOUTME: Provides the Sink interface with oto, headless and manual implementations
// Package output provides audio sinks driven by a sample clock.
//
// Every sink owns a Timeline. Buffers are enqueued at absolute sample times
// and mixed as the clock advances; the completion callback of a buffer runs
// once its last sample has been consumed.
//
// Implementations:
//   - Oto: the system audio device via oto
//   - Headless: advances in real time without a device
//   - Manual: advances only when told to, for tests and offline rendering
//
// Example:
//
//	sink := output.NewOto(0)
//	shared := output.NewShared(sink)
//	s, err := shared.Acquire()
//	err = s.Enqueue(samples, s.CurrentSampleTime(), func() { ... })
package output
