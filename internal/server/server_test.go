// ABOUTME: Tests for the control server
// ABOUTME: Drives a real engine through WebSocket commands with the protocol client
package server

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/metrodrone/metrodrone-go/internal/client"
	"github.com/metrodrone/metrodrone-go/internal/protocol"
	"github.com/metrodrone/metrodrone-go/internal/version"
	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
)

type fixture struct {
	engine *metrodrone.Engine
	sink   *output.Manual
	server *Server
	client *client.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sink := output.NewManual()
	engine, err := metrodrone.New(metrodrone.Config{Sink: sink})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	srv := New(Config{Name: "Test Room", Engine: engine})
	ts := httptest.NewServer(srv.Handler())

	c := client.NewClient(client.Config{
		ServerAddr: strings.TrimPrefix(ts.URL, "http://"),
		Name:       "Test Controller",
	})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	t.Cleanup(func() {
		c.Close()
		srv.Stop()
		ts.Close()
		engine.Close()
	})
	return &fixture{engine: engine, sink: sink, server: srv, client: c}
}

func TestHandshakeSendsHelloAndState(t *testing.T) {
	f := newFixture(t)

	hello := f.client.Server()
	if hello.ServerID != f.server.ID() || hello.Name != "Test Room" {
		t.Errorf("unexpected server hello: %+v", hello)
	}
	if hello.Device.SoftwareVersion != version.Version {
		t.Errorf("expected software version %s, got %q", version.Version, hello.Device.SoftwareVersion)
	}

	select {
	case state := <-f.client.State:
		if state.Settings.BPM == nil || *state.Settings.BPM != 120 {
			t.Errorf("expected bpm 120 in state, got %+v", state.Settings.BPM)
		}
		if state.MetronomePlaying || state.DronePlaying {
			t.Error("streams should be stopped initially")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state")
	}
}

func TestSetBPMPushesFieldEvent(t *testing.T) {
	f := newFixture(t)

	result, err := f.client.Call(protocol.MethodSetBPM, protocol.Args{Settings: metrodrone.Settings{BPM: metrodrone.Ptr(500)}})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if result.BPM == nil || *result.BPM != 400 {
		t.Errorf("expected clamped bpm 400, got %v", result.BPM)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-f.client.Fields:
			if ev.Field != "bpm" {
				continue
			}
			// JSON numbers decode as float64
			if ev.Stream != "metronome" || ev.Value != float64(400) {
				t.Errorf("unexpected event: %+v", ev)
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for bpm event")
		}
	}
}

func TestErrorCodes(t *testing.T) {
	f := newFixture(t)
	f.sink.FailStart(errors.New("device busy"))

	tests := []struct {
		name   string
		method string
		args   protocol.Args
		code   string
	}{
		{"unknown method", "metronome/explode", protocol.Args{}, protocol.CodeUnknownMethod},
		{"missing argument", protocol.MethodSetBPM, protocol.Args{}, protocol.CodeInvalidArguments},
		{"bad sound type", protocol.MethodSetSoundType, protocol.Args{Settings: metrodrone.Settings{SoundType: metrodrone.Ptr("kazoo")}}, protocol.CodeConfigurationError},
		{"bad tick index", protocol.MethodSetNextTickType, protocol.Args{TickIndex: metrodrone.Ptr(9)}, protocol.CodeConfigurationError},
		{"sink unavailable", protocol.MethodMetronomeStart, protocol.Args{}, protocol.CodeSinkUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.client.Call(tt.method, tt.args)
			var cmdErr *client.CommandError
			if !errors.As(err, &cmdErr) {
				t.Fatalf("expected CommandError, got %v", err)
			}
			if result.OK || result.Code != tt.code || cmdErr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, result.Code)
			}
		})
	}

	if !f.engine.MetronomePlaying() {
		t.Error("metronome should be logically playing after SINK_UNAVAILABLE")
	}
}

func TestConfigureAndDroneCommands(t *testing.T) {
	f := newFixture(t)

	args := protocol.Args{Settings: metrodrone.Settings{
		BPM:         metrodrone.Ptr(72),
		TickTypes:   []string{"strongAccent", "regular", "regular"},
		Subdivision: &metrodrone.SubdivisionSpec{Name: "eighth"},
	}}
	if _, err := f.client.Call(protocol.MethodConfigure, args); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	note := protocol.Args{Settings: metrodrone.Settings{Note: metrodrone.Ptr("Bb"), Octave: metrodrone.Ptr(2)}}
	if _, err := f.client.Call(protocol.MethodSetNote, note); err == nil {
		t.Error("expected flat names to be rejected")
	}
	note.Note = metrodrone.Ptr("A#")
	if _, err := f.client.Call(protocol.MethodSetNote, note); err != nil {
		t.Fatalf("setNote failed: %v", err)
	}

	if _, err := f.client.Call(protocol.MethodDroneStart, protocol.Args{}); err != nil {
		t.Fatalf("drone/start failed: %v", err)
	}
	if _, err := f.client.Call(protocol.MethodSetPulsing, protocol.Args{Settings: metrodrone.Settings{IsPulsing: metrodrone.Ptr(true)}}); err != nil {
		t.Fatalf("setPulsing failed: %v", err)
	}

	p := f.engine.Snapshot()
	if p.Tempo != 72 || len(p.Beats) != 3 || len(p.Beats[0].Parts) != 2 {
		t.Errorf("configure not applied: tempo=%d beats=%d", p.Tempo, len(p.Beats))
	}
	if p.Voice.Note.String() != "A#" || p.Voice.Octave != 2 {
		t.Errorf("unexpected voice %v%d", p.Voice.Note, p.Voice.Octave)
	}
	if f.engine.DronePlaying() || !p.Pulsing {
		t.Error("setPulsing should stop the continuous drone and enable pulsing")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.server.Stop()
	f.server.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for f.client.IsConnected() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.client.IsConnected() {
		t.Error("client should be disconnected after Stop")
	}
}

func TestRenderStatus(t *testing.T) {
	out := renderStatus(ServerStatus{
		Name:      "Studio",
		Port:      8928,
		Metronome: "▶ 120 BPM 4/4 Quarter Notes",
		Clients:   []ClientInfo{{Name: "phone", ID: "abc"}},
	}, 90*time.Second)

	for _, want := range []string{"Metrodrone Server", "Studio", "8928", "1m30s", "120 BPM", "phone", "Connected Controllers (1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("status view missing %q", want)
		}
	}
}
