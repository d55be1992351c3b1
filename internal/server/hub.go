// Package server coordinates client registration, inbound event dispatch,
// and connection cleanup for the ChatFlow WebSocket system via the Hub type.
package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tyrowin/chatflow/internal/chat"
)

// inboundFrame is one raw frame received from a client, awaiting dispatch on
// the hub loop.
type inboundFrame struct {
	client  *Client
	payload []byte
}

// Hub owns the set of connected clients and is the single serialization
// point of the system: registration, unregistration, and every inbound chat
// event are processed one at a time, to completion, on the Run goroutine.
// The registry and log are therefore never mutated concurrently.
type Hub struct {
	room *chat.Room
	cfg  *Config
	log  zerolog.Logger

	clients    map[*Client]bool
	inbound    chan inboundFrame
	register   chan *Client
	unregister chan *Client

	mutex  sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub bound to the given room state and configuration. Call
// Run in its own goroutine before serving connections.
func NewHub(room *chat.Room, cfg *Config, log zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		room:       room,
		cfg:        cfg,
		log:        log,
		clients:    make(map[*Client]bool),
		inbound:    make(chan inboundFrame),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Room exposes the hub's chat state for read-only callers such as tests and
// the index page handler.
func (h *Hub) Room() *chat.Room {
	return h.room
}

// Run starts the hub's main event loop. This method should be called in a
// separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn().Msg("received nil client registration; skipping")
				continue
			}
			h.addClient(client)

		case client := <-h.unregister:
			// Transport close is an implicit leave: settle the session
			// before the client is dropped from the set.
			h.handleDisconnect(client)
			h.removeClient(client)

		case frame := <-h.inbound:
			h.dispatch(frame.client, frame.payload)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	connectionsActive.Set(float64(clientCount))
	client.log.Info().Int("total_clients", clientCount).Msg("client registered")

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock.
	close(client.send)
	connectionsActive.Set(float64(clientCount))
	client.log.Info().Int("total_clients", clientCount).Msg("client unregistered")
}

// safeSend attempts a non-blocking delivery to one client. It returns false
// when the client is gone or its buffer is full.
func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warn().Interface("panic", r).Msg("recovered from panic in safeSend")
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// removeFailedClients drops clients whose send buffers overflowed and closes
// their channels.
func (h *Hub) removeFailedClients(failed []*Client) {
	if len(failed) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range failed {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			client.log.Warn().Msg("client removed due to full send buffer")
		}
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
	connectionsActive.Set(float64(clientCount))
}

func (h *Hub) shutdownClients() {
	h.log.Info().Msg("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		client.closed = true
		delete(h.clients, client)
	}
	h.mutex.Unlock()

	// Closing the send channel lets the write pump deliver a close frame
	// and exit; closing the connection unblocks the read pump.
	for _, client := range clients {
		close(client.send)
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				client.log.Warn().Err(err).Msg("error closing client connection")
			}
		}
	}
	connectionsActive.Set(0)

	h.log.Info().Int("closed", len(clients)).Msg("closed client connections")
}

// Shutdown initiates graceful shutdown of the hub and waits for all client
// goroutines to finish, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info().Msg("initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info().Msg("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn().Msg("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

// isExpectedCloseError checks if an error is expected during connection
// closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
