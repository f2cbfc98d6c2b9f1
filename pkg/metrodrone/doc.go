// ABOUTME: Engine package documentation
// ABOUTME: Describes the control surface and notification model
// Package metrodrone is the metronome and drone engine.
//
// An Engine owns the current pattern and two streams sharing one audio sink:
// the metronome, which renders one buffer per beat and schedules it ahead of
// the sink clock, and the continuous drone. Setters replace whole fields of
// the pattern; observers receive a FieldChange for every field whose value
// actually changed and a Tick for every beat once it is audible.
//
// Example:
//
//	engine, err := metrodrone.New(metrodrone.Config{Sink: output.NewOto(0)})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
//
//	engine.SetTempo(96)
//	if err := engine.StartMetronome(); err != nil {
//		log.Printf("no audio yet: %v", err)
//	}
package metrodrone
