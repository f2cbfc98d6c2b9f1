// ABOUTME: Scheduler package documentation
// ABOUTME: Look-ahead placement of segments on a sample clock
// Package scheduler keeps a small number of audio segments queued on an
// output.Sink at precomputed sample times.
//
// A dedicated worker goroutine asks the Source for the next segment whenever
// the queue is below its look-ahead depth, and again each time the sink
// reports a segment finished. Targets are accumulated from spans, never read
// from a wall clock. Ticks for each segment are delivered on a separate
// goroutine once the sink clock, minus its output latency, reaches them.
package scheduler
