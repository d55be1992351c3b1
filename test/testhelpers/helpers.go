// Package testhelpers provides common utilities for testing the ChatFlow
// server: starting a fully wired test server and driving the event protocol
// over real WebSocket connections.
package testhelpers

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Tyrowin/chatflow/internal/chat"
	"github.com/Tyrowin/chatflow/internal/server"
)

// ChatServer bundles a running test server with the hub and room behind it
// so tests can assert on server-side state.
type ChatServer struct {
	HTTP *httptest.Server
	Hub  *server.Hub
	Room *chat.Room
}

// StartChatServer boots a complete server on an ephemeral port. The
// customize hook may adjust the configuration and history policy before
// anything starts. Teardown is registered on the test.
func StartChatServer(t *testing.T, customize func(cfg *server.Config, policy *chat.HistoryPolicy)) *ChatServer {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{"*"}
	policy := chat.HistoryPolicy{}
	if customize != nil {
		customize(cfg, &policy)
	}

	room := chat.NewRoom(policy)
	hub := server.NewHub(room, cfg, zerolog.Nop())
	go hub.Run()

	ts := httptest.NewServer(server.SetupRoutes(hub))
	t.Cleanup(func() {
		_ = hub.Shutdown(2 * time.Second)
		ts.Close()
	})

	return &ChatServer{HTTP: ts, Hub: hub, Room: room}
}

// ChatClient is one WebSocket connection speaking the event protocol.
// Frames that carry several newline-separated envelopes are unpacked into an
// internal queue.
type ChatClient struct {
	t     *testing.T
	Conn  *websocket.Conn
	queue []server.Envelope
}

// Connect dials the test server's WebSocket endpoint.
func Connect(t *testing.T, s *ChatServer) *ChatClient {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(s.HTTP.URL, "http") + "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", "http://localhost:8080")

	conn, resp, err := dialer.Dial(wsURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &ChatClient{t: t, Conn: conn}
}

// Send writes one event envelope to the server.
func (c *ChatClient) Send(event string, data any) {
	c.t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		c.t.Fatalf("Failed to marshal payload: %v", err)
	}
	frame, err := json.Marshal(server.Envelope{Event: event, Data: payload})
	if err != nil {
		c.t.Fatalf("Failed to marshal envelope: %v", err)
	}
	if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// next returns the next envelope from the queue or the wire.
func (c *ChatClient) next(timeout time.Duration) (server.Envelope, error) {
	if len(c.queue) > 0 {
		env := c.queue[0]
		c.queue = c.queue[1:]
		return env, nil
	}

	if err := c.Conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return server.Envelope{}, err
	}
	_, raw, err := c.Conn.ReadMessage()
	if err != nil {
		return server.Envelope{}, err
	}

	for _, line := range bytes.Split(raw, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		var env server.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return server.Envelope{}, err
		}
		c.queue = append(c.queue, env)
	}

	return c.next(timeout)
}

// WaitFor reads events until one with the given name arrives, skipping any
// others, and returns its payload. Fails the test on timeout.
func (c *ChatClient) WaitFor(event string, timeout time.Duration) json.RawMessage {
	c.t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.t.Fatalf("Timed out waiting for event %q", event)
		}
		env, err := c.next(remaining)
		if err != nil {
			c.t.Fatalf("Error while waiting for event %q: %v", event, err)
		}
		if env.Event == event {
			return env.Data
		}
	}
}

// ExpectNone asserts that no event with the given name arrives within the
// wait window. Timeouts and connection closures count as absence.
func (c *ChatClient) ExpectNone(event string, wait time.Duration) {
	c.t.Helper()

	deadline := time.Now().Add(wait)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		env, err := c.next(remaining)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return
			}
			return
		}
		if env.Event == event {
			c.t.Fatalf("Received unexpected event %q", event)
		}
	}
}

// DialExpectingFailure attempts a WebSocket handshake with the given origin
// and returns the dial error, closing the connection if one was made.
func DialExpectingFailure(t *testing.T, wsURL, origin string) error {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", origin)

	conn, resp, err := dialer.Dial(wsURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
	return err
}

// Decode unmarshals an event payload into v.
func Decode(t *testing.T, data json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to decode payload %q: %v", data, err)
	}
}
