package websocket

import (
	"encoding/json"
	"testing"
)

func TestParseOpen(t *testing.T) {
	open, err := parseOpen(`0{"sid":"abc","upgrades":[],"pingInterval":25000,"pingTimeout":60000}`)
	if err != nil {
		t.Fatalf("parseOpen() error = %v", err)
	}
	if open.SID != "abc" {
		t.Errorf("SID = %q, want %q", open.SID, "abc")
	}
	if open.PingInterval != 25000 {
		t.Errorf("PingInterval = %d, want 25000", open.PingInterval)
	}

	for _, frame := range []string{"", "40", "0{not json"} {
		if _, err := parseOpen(frame); err == nil {
			t.Errorf("parseOpen(%q) expected error", frame)
		}
	}
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantName string
		wantArgs int
		wantData string
		wantErr  bool
	}{
		{
			name:     "event with data",
			payload:  `["DEVICES_UPDATES",{"device_id":"d1"}]`,
			wantName: "DEVICES_UPDATES",
			wantArgs: 1,
			wantData: `{"device_id":"d1"}`,
		},
		{
			name:     "event without data",
			payload:  `["auth"]`,
			wantName: "auth",
		},
		{
			name:     "multiple args",
			payload:  `["x","a","b"]`,
			wantName: "x",
			wantArgs: 2,
			wantData: `"a"`,
		},
		{
			name:     "namespace prefix",
			payload:  `/users,["USERS_UPDATES",{}]`,
			wantName: "USERS_UPDATES",
			wantArgs: 1,
			wantData: `{}`,
		},
		{name: "empty array", payload: `[]`, wantErr: true},
		{name: "name not a string", payload: `[1,2]`, wantErr: true},
		{name: "not json", payload: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parseEvent(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseEvent(%q) expected error", tt.payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEvent(%q) error = %v", tt.payload, err)
			}
			if ev.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", ev.Name, tt.wantName)
			}
			if len(ev.Args) != tt.wantArgs {
				t.Errorf("len(Args) = %d, want %d", len(ev.Args), tt.wantArgs)
			}
			if string(ev.Data) != tt.wantData {
				t.Errorf("Data = %s, want %s", ev.Data, tt.wantData)
			}
		})
	}
}

func TestEncodeEvent(t *testing.T) {
	frame, err := encodeEvent(EventListenInstallation, "inst1")
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	want := `42["listen_installation","inst1"]`
	if frame != want {
		t.Errorf("encodeEvent() = %q, want %q", frame, want)
	}

	ev, err := parseEvent(frame[2:])
	if err != nil {
		t.Fatalf("parseEvent() error = %v", err)
	}
	if ev.Name != EventListenInstallation {
		t.Errorf("Name = %q", ev.Name)
	}
}

func TestEvent_DeviceUpdate(t *testing.T) {
	t.Run("decodes change", func(t *testing.T) {
		ev := &Event{
			Name: "DEVICES_UPDATES.inst1",
			Data: json.RawMessage(`{"device_id":"d1","ws_id":"ws1","change":{"status":{"power":false,"local_temp":{"celsius":20.5}}}}`),
		}
		if !ev.IsDeviceUpdate() {
			t.Fatal("IsDeviceUpdate() = false")
		}
		update, err := ev.DeviceUpdate()
		if err != nil {
			t.Fatalf("DeviceUpdate() error = %v", err)
		}
		if update.DeviceID != "d1" || update.WebserverID != "ws1" {
			t.Errorf("update = %+v", update)
		}
		if string(update.Change.Status["power"]) != "false" {
			t.Errorf("power = %s, want false", update.Change.Status["power"])
		}
		if _, ok := update.Change.Status["local_temp"]; !ok {
			t.Error("local_temp missing from change")
		}
	})

	t.Run("other event", func(t *testing.T) {
		ev := &Event{Name: "USERS_UPDATES", Data: json.RawMessage(`{}`)}
		if ev.IsDeviceUpdate() {
			t.Error("IsDeviceUpdate() = true for USERS_UPDATES")
		}
		if _, err := ev.DeviceUpdate(); err == nil {
			t.Error("DeviceUpdate() expected error")
		}
	})

	t.Run("no data", func(t *testing.T) {
		ev := &Event{Name: EventDevicesUpdates}
		if _, err := ev.DeviceUpdate(); err == nil {
			t.Error("DeviceUpdate() expected error")
		}
	})
}
