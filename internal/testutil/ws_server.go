package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// WSHandler handles a Socket.IO event sent by the client. It receives the event
// arguments and returns the events to push back, each as [name, data...].
type WSHandler func(args []json.RawMessage) [][]interface{}

// WSMock wraps httptest.Server with an Airzone-style Socket.IO stream for
// testing the WS client.
type WSMock struct {
	Server *httptest.Server
	Token  string

	mu       sync.Mutex
	handlers map[string]WSHandler
	received []string
	pongs    int
	pingOnce bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewWSMock creates a new mock stream accepting the given jwt. After the
// Engine.IO handshake it answers pings and dispatches events to handlers.
func NewWSMock(t *testing.T, token string) *WSMock {
	t.Helper()

	m := &WSMock{
		Token:    token,
		handlers: make(map[string]WSHandler),
	}

	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/websockets/" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("jwt") != m.Token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if q.Get("EIO") != "3" || q.Get("transport") != "websocket" {
			http.Error(w, "bad transport", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("WebSocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage,
			[]byte(`0{"sid":"test-sid","upgrades":[],"pingInterval":25000,"pingTimeout":60000}`))
		conn.WriteMessage(websocket.TextMessage, []byte("40"))

		m.mu.Lock()
		pingOnce := m.pingOnce
		m.mu.Unlock()
		if pingOnce {
			conn.WriteMessage(websocket.TextMessage, []byte("2"))
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				// Connection closed
				return
			}
			frame := string(data)

			m.mu.Lock()
			m.received = append(m.received, frame)
			m.mu.Unlock()

			switch {
			case frame == "2":
				conn.WriteMessage(websocket.TextMessage, []byte("3"))
			case frame == "3":
				m.mu.Lock()
				m.pongs++
				m.mu.Unlock()
			case strings.HasPrefix(frame, "42"):
				m.dispatch(conn, frame[2:])
			}
		}
	}))

	t.Cleanup(func() {
		m.Server.Close()
	})

	return m
}

func (m *WSMock) dispatch(conn *websocket.Conn, payload string) {
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &parts); err != nil || len(parts) == 0 {
		return
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return
	}

	m.mu.Lock()
	handler, ok := m.handlers[name]
	m.mu.Unlock()
	if !ok {
		return
	}

	for _, event := range handler(parts[1:]) {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		conn.WriteMessage(websocket.TextMessage, append([]byte("42"), data...))
	}
}

// URL returns the base URL of the mock server (http:// scheme, suitable for WS client).
func (m *WSMock) URL() string {
	return m.Server.URL
}

// Handle registers a handler for a client event name.
func (m *WSMock) Handle(event string, handler WSHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = handler
}

// PingAfterConnect makes the server send one ping right after the handshake.
func (m *WSMock) PingAfterConnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingOnce = true
}

// Pongs returns the number of pongs received from the client.
func (m *WSMock) Pongs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pongs
}

// Received returns the raw frames received from the client, in order.
func (m *WSMock) Received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.received))
	copy(out, m.received)
	return out
}
