// ABOUTME: WebSocket client for the metrodrone control protocol
// ABOUTME: Handles connection, handshake, command calls and event routing
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/metrodrone/metrodrone-go/internal/protocol"
)

// CallTimeout bounds the wait for a command result
var CallTimeout = 5 * time.Second

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	Version    int
}

// CommandError is a failed command result
type CommandError struct {
	Method  string
	Code    string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed (%s): %s", e.Method, e.Code, e.Message)
}

// Client is a control connection to a metrodrone server
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// writeMu serializes writes on conn
	writeMu sync.Mutex

	// Message channels
	Fields chan protocol.FieldEvent
	Ticks  chan protocol.TickEvent
	State  chan protocol.State

	pendingMu sync.Mutex
	pending   map[string]chan protocol.Result

	// State
	server    protocol.ServerHello
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	if config.Version == 0 {
		config.Version = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:  config,
		Fields:  make(chan protocol.FieldEvent, 100),
		Ticks:   make(chan protocol.TickEvent, 100),
		State:   make(chan protocol.State, 1),
		pending: make(map[string]chan protocol.Result),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: protocol.Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake performs the protocol handshake
func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  c.config.Version,
	}

	if err := c.send(protocol.TypeClientHello, hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	msgType, payload, err := protocol.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if msgType != protocol.TypeServerHello {
		return fmt.Errorf("expected server/hello, got %s", msgType)
	}

	c.mu.Lock()
	c.server = *payload.(*protocol.ServerHello)
	c.mu.Unlock()

	log.Printf("Handshake complete with server %s", c.server.Name)
	return nil
}

// Server returns the server/hello received during the handshake
func (c *Client) Server() protocol.ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// Call invokes a method and waits for its result. A result that is not OK
// is returned together with a *CommandError.
func (c *Client) Call(method string, args protocol.Args) (protocol.Result, error) {
	id := uuid.New().String()
	wait := make(chan protocol.Result, 1)

	c.pendingMu.Lock()
	c.pending[id] = wait
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	cmd := protocol.Command{ID: id, Method: method, Args: args}
	if err := c.send(protocol.TypeCommand, cmd); err != nil {
		return protocol.Result{}, fmt.Errorf("failed to send %s: %w", method, err)
	}

	select {
	case result := <-wait:
		if !result.OK {
			return result, &CommandError{Method: method, Code: result.Code, Message: result.Error}
		}
		return result, nil
	case <-time.After(CallTimeout):
		return protocol.Result{}, fmt.Errorf("%s: no result after %v", method, CallTimeout)
	case <-c.ctx.Done():
		return protocol.Result{}, fmt.Errorf("%s: connection closed", method)
	}
}

// send writes one JSON message
func (c *Client) send(msgType string, payload interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	data, err := json.Marshal(protocol.Message{Type: msgType, Payload: payload})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.IsConnected() {
				log.Printf("Read error: %v", err)
			}
			return
		}

		c.handleMessage(data)
	}
}

// handleMessage routes one JSON message. Events are dropped when their
// channel is full so results are never held up.
func (c *Client) handleMessage(data []byte) {
	msgType, payload, err := protocol.Decode(data)
	if err != nil {
		log.Printf("Failed to parse message: %v", err)
		return
	}

	switch msgType {
	case protocol.TypeResult:
		result := payload.(*protocol.Result)
		c.pendingMu.Lock()
		wait, ok := c.pending[result.ID]
		c.pendingMu.Unlock()
		if !ok {
			log.Printf("Result for unknown command %s", result.ID)
			return
		}
		wait <- *result

	case protocol.TypeFieldEvent:
		select {
		case c.Fields <- *payload.(*protocol.FieldEvent):
		default:
		}

	case protocol.TypeTickEvent:
		select {
		case c.Ticks <- *payload.(*protocol.TickEvent):
		default:
		}

	case protocol.TypeState:
		state := *payload.(*protocol.State)
		// Keep only the newest snapshot
		select {
		case <-c.State:
		default:
		}
		select {
		case c.State <- state:
		default:
		}

	default:
		log.Printf("Unexpected message type: %s", msgType)
	}
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
