// ABOUTME: WebSocket control server for a metrodrone engine
// ABOUTME: Manages client connections, dispatches commands and pushes engine events
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/metrodrone/metrodrone-go/internal/discovery"
	"github.com/metrodrone/metrodrone-go/internal/protocol"
	"github.com/metrodrone/metrodrone-go/internal/version"
	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
)

const (
	// ProtocolVersion is sent in server/hello
	ProtocolVersion = 1

	// DefaultPort is the control server port
	DefaultPort = 8928

	sendBuffer    = 256
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
)

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	UseTUI     bool
	Engine     *metrodrone.Engine
}

// Server exposes an engine over WebSocket
type Server struct {
	config   Config
	serverID string
	engine   *metrodrone.Engine

	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager
	tui         *ServerTUI

	pumpOnce sync.Once
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Client is a connected controller
type Client struct {
	ID       string
	Name     string
	Conn     *websocket.Conn
	sendChan chan interface{}
}

// New creates a server for config.Engine
func New(config Config) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Name == "" {
		config.Name = "Metrodrone"
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		engine:   config.Engine,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network controllers only
				if origin := r.Header.Get("Origin"); origin != "" {
					log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)
	return s
}

// ID returns the server ID sent in server/hello
func (s *Server) ID() string {
	return s.serverID
}

// Handler returns the HTTP handler serving the control endpoint and starts
// forwarding engine events to clients
func (s *Server) Handler() http.Handler {
	s.pumpOnce.Do(s.startPumps)
	return s.mux
}

// Start serves until Stop is called
func (s *Server) Start() error {
	handler := s.Handler()

	if s.config.UseTUI {
		s.tui = NewServerTUI()
		status := s.status()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(status); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	}

	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        protocol.Path,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, protocol.Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case <-tuiQuitChan:
		log.Printf("TUI quit requested, shutting down...")
		s.Stop()
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
		s.Stop()
	}

	if s.tui != nil {
		s.tui.Stop()
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop disconnects every client and ends Start. It is safe to call more
// than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)

		s.clientsMu.RLock()
		for _, c := range s.clients {
			c.Conn.Close()
		}
		s.clientsMu.RUnlock()
	})
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// startPumps forwards engine notifications to every client
func (s *Server) startPumps() {
	fields, cancelFields := s.engine.SubscribeFields()
	ticks, cancelTicks := s.engine.SubscribeTicks()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancelFields()
		defer cancelTicks()

		for {
			select {
			case <-s.stopChan:
				return
			case c, ok := <-fields:
				if !ok {
					return
				}
				s.broadcast(protocol.TypeFieldEvent, protocol.FieldEvent{Stream: c.Stream, Field: c.Field, Value: c.Value})
				s.updateTUI()
			case t, ok := <-ticks:
				if !ok {
					return
				}
				s.broadcast(protocol.TypeTickEvent, protocol.TickEvent{Beat: t.Beat})
			}
		}
	}()
}

func (s *Server) broadcast(msgType string, payload interface{}) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		if err := s.sendMessage(c, msgType, payload); err != nil {
			log.Printf("Dropping %s for %s: %v", msgType, c.Name, err)
		}
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	select {
	case <-s.stopChan:
		log.Printf("Rejecting connection during shutdown")
		return
	default:
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	msgType, payload, err := protocol.Decode(data)
	if err != nil || msgType != protocol.TypeClientHello {
		log.Printf("Expected client/hello, got %s (%v)", msgType, err)
		return
	}
	hello := payload.(*protocol.ClientHello)

	if hello.ClientID == "" {
		log.Printf("Client hello missing ClientID")
		return
	}
	if hello.Name == "" {
		hello.Name = hello.ClientID
	}

	log.Printf("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, sendBuffer),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.Name)
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	s.updateTUI()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.sendChan)
		log.Printf("Client disconnected: %s", client.Name)

		s.updateTUI()
	}()

	s.sendMessage(client, protocol.TypeServerHello, protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  ProtocolVersion,
		Device: protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	})
	s.sendMessage(client, protocol.TypeState, s.state())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		s.handleClientMessage(client, data)
	}
}

// clientWriter sends queued messages to the client
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing text message: %v", err)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage processes messages from clients
func (s *Server) handleClientMessage(client *Client, data []byte) {
	msgType, payload, err := protocol.Decode(data)
	if err != nil {
		log.Printf("Error decoding message from %s: %v", client.Name, err)
		return
	}

	switch msgType {
	case protocol.TypeCommand:
		cmd := payload.(*protocol.Command)
		result := s.dispatch(*cmd)
		if !result.OK {
			log.Printf("Command %s from %s failed: %s", cmd.Method, client.Name, result.Error)
		}
		if err := s.sendMessage(client, protocol.TypeResult, result); err != nil {
			log.Printf("Error sending result: %v", err)
		}
	default:
		log.Printf("Unexpected message type from %s: %s", client.Name, msgType)
	}
}

func (s *Server) state() protocol.State {
	return protocol.State{
		Settings:         s.engine.Settings(),
		MetronomePlaying: s.engine.MetronomePlaying(),
		DronePlaying:     s.engine.DronePlaying(),
	}
}

// sendMessage queues a JSON message for the client writer
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}
