package websocket

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// streamPath is the Socket.IO endpoint of the Airzone Cloud API.
const streamPath = "/api/v1/websockets/"

// Client is a live update stream for one Airzone Cloud account.
type Client struct {
	conn    *websocket.Conn
	open    OpenPacket
	timeout time.Duration

	// writeMu serializes writes; gorilla connections allow one concurrent writer.
	writeMu sync.Mutex
}

// NewClient dials the stream with a bearer token and reads the Engine.IO
// handshake. The timeout bounds the handshake and every write.
func NewClient(ctx context.Context, baseURL, token string, timeout time.Duration) (*Client, error) {
	wsURL, err := httpToWS(baseURL)
	if err != nil {
		return nil, err
	}
	query := url.Values{
		"jwt":       {token},
		"EIO":       {"3"},
		"transport": {"websocket"},
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL+streamPath+"?"+query.Encode(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect: HTTP %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	client := &Client{
		conn:    conn,
		timeout: timeout,
	}

	if err := client.handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	return client, nil
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) (string, error) {
	u, err := url.Parse(httpURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	return strings.TrimSuffix(u.String(), "/"), nil
}

// handshake reads the open packet.
func (c *Client) handshake() error {
	c.conn.SetReadDeadline(time.Now().Add(c.timeout))

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read open packet: %w", err)
	}
	open, err := parseOpen(string(data))
	if err != nil {
		return err
	}
	c.open = *open
	return nil
}

// SessionID returns the Engine.IO session id.
func (c *Client) SessionID() string {
	return c.open.SID
}

// PingInterval is how often the server expects a ping.
func (c *Client) PingInterval() time.Duration {
	if c.open.PingInterval <= 0 {
		return 25 * time.Second
	}
	return time.Duration(c.open.PingInterval) * time.Millisecond
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) writeText(frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

// Emit sends a Socket.IO event.
func (c *Client) Emit(name string, args ...interface{}) error {
	frame, err := encodeEvent(name, args...)
	if err != nil {
		return err
	}
	if err := c.writeText(frame); err != nil {
		return fmt.Errorf("failed to send %s: %w", name, err)
	}
	return nil
}

// ListenInstallation subscribes to the updates of one installation.
func (c *Client) ListenInstallation(installationID string) error {
	return c.Emit(EventListenInstallation, installationID)
}

// Ping sends an Engine.IO ping. Engine.IO v3 clients must ping every
// PingInterval or the server drops the session.
func (c *Client) Ping() error {
	if err := c.writeText(string(packetPing)); err != nil {
		return fmt.Errorf("failed to send ping: %w", err)
	}
	return nil
}

// ReadEvent reads the next Socket.IO event. Server pings are answered and
// control packets skipped. It blocks until an event arrives or the
// connection is closed.
func (c *Client) ReadEvent() (*Event, error) {
	// Clear deadline for long-running reads
	c.conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		frame := string(data)
		if frame == "" {
			continue
		}

		switch frame[0] {
		case packetPing:
			if err := c.writeText(string(packetPong) + frame[1:]); err != nil {
				return nil, fmt.Errorf("failed to send pong: %w", err)
			}
		case packetClose:
			return nil, ErrDisconnected
		case packetMessage:
			ev, err := c.handleMessage(frame[1:])
			if err != nil {
				return nil, err
			}
			if ev != nil {
				return ev, nil
			}
		}
	}
}

// handleMessage decodes a Socket.IO packet. It returns nil for packets that
// are not events.
func (c *Client) handleMessage(packet string) (*Event, error) {
	if packet == "" {
		return nil, nil
	}
	switch packet[0] {
	case sioEvent:
		ev, err := parseEvent(packet[1:])
		if err != nil {
			// Skip messages we can't parse
			return nil, nil
		}
		return ev, nil
	case sioDisconnect:
		return nil, ErrDisconnected
	case sioError:
		return nil, fmt.Errorf("stream error: %s", truncate(packet[1:]))
	default:
		return nil, nil
	}
}
