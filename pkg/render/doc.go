// ABOUTME: Beat rendering package documentation
// ABOUTME: Turns a beat description into a PCM buffer
// Package render builds the PCM buffer for one beat.
//
// A beat buffer is the click layer (one click per sounding part, chosen by
// accent) mixed with an optional drone pulse layer. Rendering is pure: the
// same Key always yields the same samples, which is what makes the bounded
// caches safe. Each pulse starts from a zeroed oscillator phase.
package render
