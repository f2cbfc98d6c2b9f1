// ABOUTME: TUI update helpers for server
// ABOUTME: Builds the status shown by the server TUI from clients and engine state
package server

import (
	"fmt"
	"sort"
)

// status captures the current server state for display
func (s *Server) status() ServerStatus {
	s.clientsMu.RLock()
	clients := make([]ClientInfo, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, ClientInfo{Name: client.Name, ID: client.ID})
	}
	s.clientsMu.RUnlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })

	p := s.engine.Snapshot()
	metronome := fmt.Sprintf("%d BPM %d/%d %s", p.Tempo, p.TimeSignature.BeatCount, p.TimeSignature.BeatUnit, p.Subdivision.Title)
	if s.engine.MetronomePlaying() {
		metronome = "▶ " + metronome
	}
	drone := fmt.Sprintf("%s%d %s A=%.1f", p.Voice.Note, p.Voice.Octave, p.Voice.Waveform, p.Voice.Tuning)
	if s.engine.DronePlaying() {
		drone = "▶ " + drone
	}

	return ServerStatus{
		Name:      s.config.Name,
		Port:      s.config.Port,
		Clients:   clients,
		Metronome: metronome,
		Drone:     drone,
	}
}

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}
	s.tui.Update(s.status())
}
