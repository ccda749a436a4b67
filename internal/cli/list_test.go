package cli

import (
	"context"
	"testing"
)

func TestInstallationViews(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	views := newInstallationViews(tree)
	if len(views) != 2 {
		t.Fatalf("got %d installations, want 2", len(views))
	}

	home := views[0]
	if home.ID != "inst1" || len(home.Groups) != 1 {
		t.Fatalf("home = %+v", home)
	}
	devices := home.Groups[0].Devices
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2 (system device filtered)", len(devices))
	}

	living := devices[0]
	if living.ID != "d1" || living.GroupID != "A" || living.InstallationID != "inst1" {
		t.Errorf("living = %+v", living)
	}
	if !living.Master || !living.Power || living.Mode != "heating" || living.State != "synced" {
		t.Errorf("living state = %+v", living)
	}
	if len(living.ModesAvailable) != 3 || living.ModesAvailable[0] != "cooling" {
		t.Errorf("ModesAvailable = %v", living.ModesAvailable)
	}
	if living.Temperature == nil || *living.Temperature != 21.5 {
		t.Errorf("Temperature = %v, want 21.5", living.Temperature)
	}
	if living.Setpoint == nil || *living.Setpoint != 20 {
		t.Errorf("Setpoint = %v, want 20", living.Setpoint)
	}
	if living.Humidity == nil || *living.Humidity != 45 {
		t.Errorf("Humidity = %v, want 45", living.Humidity)
	}
	if living.MinTemperature != 18 || living.MaxTemperature != 30 || living.Step != 0.5 {
		t.Errorf("range = %v..%v step %v", living.MinTemperature, living.MaxTemperature, living.Step)
	}

	bedroom := devices[1]
	if bedroom.Master {
		t.Error("zone without advertised modes should not be master")
	}
	if bedroom.ModesAvailable == nil || len(bedroom.ModesAvailable) != 0 {
		t.Errorf("ModesAvailable = %v, want empty", bedroom.ModesAvailable)
	}
}
