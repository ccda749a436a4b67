// Package websocket provides the Airzone Cloud live update stream. The server
// speaks Socket.IO over Engine.IO v3 text frames.
package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Engine.IO packet types.
const (
	packetOpen    = '0'
	packetClose   = '1'
	packetPing    = '2'
	packetPong    = '3'
	packetMessage = '4'
)

// Socket.IO packet types, carried inside an Engine.IO message.
const (
	sioConnect    = '0'
	sioDisconnect = '1'
	sioEvent      = '2'
	sioError      = '4'
)

// Event names emitted by the Airzone Cloud stream.
const (
	EventListenInstallation = "listen_installation"
	EventDevicesUpdates     = "DEVICES_UPDATES"
)

// ErrDisconnected is returned when the server closes the Socket.IO session.
var ErrDisconnected = errors.New("server disconnected")

// OpenPacket is the handshake sent by the server right after the upgrade.
type OpenPacket struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
}

// Event is a Socket.IO event. Data is the first argument, Args all of them.
type Event struct {
	Name string            `json:"name"`
	Data json.RawMessage   `json:"data,omitempty"`
	Args []json.RawMessage `json:"-"`
}

// DeviceUpdate is the payload of a DEVICES_UPDATES event.
type DeviceUpdate struct {
	DeviceID       string       `json:"device_id"`
	InstallationID string       `json:"installation_id,omitempty"`
	WebserverID    string       `json:"ws_id,omitempty"`
	Change         DeviceChange `json:"change"`
}

// DeviceChange holds the status and config fields that changed.
type DeviceChange struct {
	Status map[string]json.RawMessage `json:"status,omitempty"`
	Config map[string]json.RawMessage `json:"config,omitempty"`
}

// IsDeviceUpdate reports whether the event carries a device update. Event
// names may be suffixed with the installation id.
func (e *Event) IsDeviceUpdate() bool {
	return e.Name == EventDevicesUpdates || strings.HasPrefix(e.Name, EventDevicesUpdates+".")
}

// DeviceUpdate decodes the event data as a device update.
func (e *Event) DeviceUpdate() (*DeviceUpdate, error) {
	if !e.IsDeviceUpdate() {
		return nil, fmt.Errorf("event %q is not a device update", e.Name)
	}
	if len(e.Data) == 0 {
		return nil, fmt.Errorf("event %q has no data", e.Name)
	}
	var update DeviceUpdate
	if err := json.Unmarshal(e.Data, &update); err != nil {
		return nil, fmt.Errorf("failed to parse device update: %w", err)
	}
	return &update, nil
}

// parseOpen decodes an Engine.IO open packet.
func parseOpen(frame string) (*OpenPacket, error) {
	if len(frame) == 0 || frame[0] != packetOpen {
		return nil, fmt.Errorf("expected open packet, got %q", truncate(frame))
	}
	var open OpenPacket
	if err := json.Unmarshal([]byte(frame[1:]), &open); err != nil {
		return nil, fmt.Errorf("failed to parse open packet: %w", err)
	}
	return &open, nil
}

// parseEvent decodes the JSON array of a Socket.IO event packet, e.g.
// ["name", {...}]. An optional namespace prefix ending in a comma is skipped.
func parseEvent(payload string) (*Event, error) {
	if strings.HasPrefix(payload, "/") {
		if i := strings.IndexByte(payload, ','); i >= 0 {
			payload = payload[i+1:]
		}
	}
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &parts); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty event")
	}

	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return nil, fmt.Errorf("invalid event name: %w", err)
	}

	ev := &Event{Name: name, Args: parts[1:]}
	if len(ev.Args) > 0 {
		ev.Data = ev.Args[0]
	}
	return ev, nil
}

// encodeEvent builds the text frame of a Socket.IO event.
func encodeEvent(name string, args ...interface{}) (string, error) {
	parts := make([]interface{}, 0, len(args)+1)
	parts = append(parts, name)
	parts = append(parts, args...)
	data, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("failed to encode event: %w", err)
	}
	return string([]byte{packetMessage, sioEvent}) + string(data), nil
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
