// ABOUTME: Tests for control protocol decoding
// ABOUTME: Tests typed payload dispatch and embedded settings arguments
package protocol

import (
	"testing"
)

func TestDecodeCommand(t *testing.T) {
	raw := `{"type":"command","payload":{"id":"42","method":"metronome/configure","args":{"bpm":90,"note":"C#","tickIndex":2}}}`

	typ, payload, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if typ != TypeCommand {
		t.Fatalf("expected %s, got %s", TypeCommand, typ)
	}

	cmd, ok := payload.(*Command)
	if !ok {
		t.Fatalf("expected *Command, got %T", payload)
	}
	if cmd.ID != "42" || cmd.Method != MethodConfigure {
		t.Errorf("unexpected command: %+v", cmd)
	}
	if cmd.Args.BPM == nil || *cmd.Args.BPM != 90 {
		t.Error("bpm not decoded into embedded settings")
	}
	if cmd.Args.Note == nil || *cmd.Args.Note != "C#" {
		t.Error("note not decoded into embedded settings")
	}
	if cmd.Args.TickIndex == nil || *cmd.Args.TickIndex != 2 {
		t.Error("tickIndex not decoded")
	}
	if cmd.Args.Octave != nil {
		t.Error("absent fields should stay nil")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"unknown type", `{"type":"player/update","payload":{}}`},
		{"bad payload", `{"type":"event/tick","payload":{"beat":"one"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode([]byte(tt.raw)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMethodsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Methods {
		if seen[m] {
			t.Errorf("duplicate method %s", m)
		}
		seen[m] = true
	}
	if len(Methods) != 17 {
		t.Errorf("expected 17 methods, got %d", len(Methods))
	}
}
