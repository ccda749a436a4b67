package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dorinclisu/airzone-cli/internal/testutil"
)

const wsTestToken = "ws-test-token-12345"

func TestHttpToWS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "http to ws",
			input: "http://localhost:8080",
			want:  "ws://localhost:8080",
		},
		{
			name:  "https to wss",
			input: "https://m.airzonecloud.com",
			want:  "wss://m.airzonecloud.com",
		},
		{
			name:  "trailing slash stripped",
			input: "https://m.airzonecloud.com/",
			want:  "wss://m.airzonecloud.com",
		},
		{
			name:    "unsupported scheme",
			input:   "ftp://example.com",
			wantErr: true,
		},
		{
			name:    "invalid URL",
			input:   "://invalid",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := httpToWS(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("httpToWS(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("httpToWS(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("httpToWS(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func dial(t *testing.T, mock *testutil.WSMock, token string) (*Client, error) {
	t.Helper()
	return NewClient(context.Background(), mock.URL(), token, 5*time.Second)
}

func TestWSClient_Handshake(t *testing.T) {
	mock := testutil.NewWSMock(t, wsTestToken)

	client, err := dial(t, mock, wsTestToken)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	if client.SessionID() != "test-sid" {
		t.Errorf("SessionID() = %q, want %q", client.SessionID(), "test-sid")
	}
	if client.PingInterval() != 25*time.Second {
		t.Errorf("PingInterval() = %v, want 25s", client.PingInterval())
	}
}

func TestWSClient_BadToken(t *testing.T) {
	mock := testutil.NewWSMock(t, wsTestToken)

	_, err := dial(t, mock, "wrong-token")
	if err == nil {
		t.Error("NewClient() expected error for bad token")
	}
}

func TestWSClient_ListenInstallation(t *testing.T) {
	mock := testutil.NewWSMock(t, wsTestToken)
	mock.Handle(EventListenInstallation, func(args []json.RawMessage) [][]interface{} {
		var id string
		json.Unmarshal(args[0], &id)
		return [][]interface{}{
			{"DEVICES_UPDATES." + id, map[string]interface{}{
				"device_id": "d1",
				"change":    map[string]interface{}{"status": map[string]interface{}{"power": true}},
			}},
		}
	})

	client, err := dial(t, mock, wsTestToken)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	if err := client.ListenInstallation("inst1"); err != nil {
		t.Fatalf("ListenInstallation() error = %v", err)
	}

	ev, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if ev.Name != "DEVICES_UPDATES.inst1" {
		t.Errorf("Name = %q, want %q", ev.Name, "DEVICES_UPDATES.inst1")
	}
	update, err := ev.DeviceUpdate()
	if err != nil {
		t.Fatalf("DeviceUpdate() error = %v", err)
	}
	if update.DeviceID != "d1" {
		t.Errorf("DeviceID = %q, want %q", update.DeviceID, "d1")
	}

	received := mock.Received()
	if len(received) == 0 || received[0] != `42["listen_installation","inst1"]` {
		t.Errorf("received = %v", received)
	}
}

func TestWSClient_AnswersPing(t *testing.T) {
	mock := testutil.NewWSMock(t, wsTestToken)
	mock.PingAfterConnect()
	mock.Handle("echo", func(args []json.RawMessage) [][]interface{} {
		return [][]interface{}{{"echoed"}}
	})

	client, err := dial(t, mock, wsTestToken)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	if err := client.Emit("echo"); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	ev, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if ev.Name != "echoed" {
		t.Errorf("Name = %q, want %q", ev.Name, "echoed")
	}

	// A second round trip guarantees the server has read the pong.
	if err := client.Emit("echo"); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if _, err := client.ReadEvent(); err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if mock.Pongs() != 1 {
		t.Errorf("Pongs() = %d, want 1", mock.Pongs())
	}
}

func TestWSClient_Ping(t *testing.T) {
	mock := testutil.NewWSMock(t, wsTestToken)
	mock.Handle("done", func(args []json.RawMessage) [][]interface{} {
		return [][]interface{}{{"done"}}
	})

	client, err := dial(t, mock, wsTestToken)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	if err := client.Ping(); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := client.Emit("done"); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	// The server's pong arrives before the event and must be skipped.
	ev, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if ev.Name != "done" {
		t.Errorf("Name = %q, want %q", ev.Name, "done")
	}
}

func TestWSClient_ReadAfterClose(t *testing.T) {
	mock := testutil.NewWSMock(t, wsTestToken)

	client, err := dial(t, mock, wsTestToken)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	client.Close()

	if _, err := client.ReadEvent(); err == nil {
		t.Error("ReadEvent() expected error after Close")
	} else if errors.Is(err, ErrDisconnected) {
		t.Error("local close must not look like a server disconnect")
	}
}
