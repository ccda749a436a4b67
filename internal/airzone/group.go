package airzone

import (
	"context"
	"fmt"
	"slices"

	"github.com/dorinclisu/airzone-cli/internal/api"
)

// Group is a system inside an installation. It owns devices.
type Group struct {
	installation *Installation
	id           string
	name         string
	devices      []*Device
}

func (g *Group) ID() string                  { return g.id }
func (g *Group) Name() string                { return g.name }
func (g *Group) Installation() *Installation { return g.installation }

func (g *Group) String() string {
	return fmt.Sprintf("group %q (%s)", g.name, g.id)
}

// Devices returns the devices in server order.
func (g *Group) Devices() []*Device {
	out := make([]*Device, len(g.devices))
	copy(out, g.devices)
	return out
}

// Masters returns the devices whose last snapshot advertises selectable modes.
func (g *Group) Masters() []*Device {
	var masters []*Device
	for _, d := range g.devices {
		if d.IsMaster() {
			masters = append(masters, d)
		}
	}
	return masters
}

// Refresh re-reads the parent installation's groups, then fetches the status
// of this group's devices. Device statuses are not fetched when the group was
// dropped by the server.
func (g *Group) Refresh(ctx context.Context) error {
	if err := g.installation.RefreshGroups(ctx); err != nil {
		return err
	}
	if !slices.Contains(g.installation.groups, g) {
		g.installation.client.logger.Debug("group no longer exists", "group_id", g.id)
		return nil
	}
	for _, d := range g.devices {
		if err := d.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RefreshAfterSettle waits for the settle delay, then calls Refresh.
func (g *Group) RefreshAfterSettle(ctx context.Context) error {
	if err := g.installation.client.settle(ctx); err != nil {
		return err
	}
	return g.Refresh(ctx)
}

// TurnOn powers on every device of the group.
func (g *Group) TurnOn(ctx context.Context) error {
	return eachDevice(g.devices, func(d *Device) error { return d.TurnOn(ctx) })
}

// TurnOff powers off every device of the group.
func (g *Group) TurnOff(ctx context.Context) error {
	return eachDevice(g.devices, func(d *Device) error { return d.TurnOff(ctx) })
}

// SetTemperature sends the setpoint to every device, each clamped to its own range.
func (g *Group) SetTemperature(ctx context.Context, celsius float64) error {
	if err := checkCelsius(g.String(), celsius); err != nil {
		return err
	}
	return eachDevice(g.devices, func(d *Device) error {
		_, err := d.SetTemperature(ctx, celsius)
		return err
	})
}

// SetMode sends the mode to the group's controlling units only.
func (g *Group) SetMode(ctx context.Context, name string) error {
	return setModeOnMasters(ctx, g.String(), g.devices, name)
}

func (g *Group) mergeDevices(records []api.DeviceRecord) {
	g.devices = g.deviceMerger().merge(g.devices, records)
}

func (g *Group) deviceMerger() merger[string, api.DeviceRecord, *Device] {
	return merger[string, api.DeviceRecord, *Device]{
		keep: func(r api.DeviceRecord) bool {
			return r.DeviceID != "" && r.Type != api.DeviceTypeSystem
		},
		recordKey: func(r api.DeviceRecord) string { return r.DeviceID },
		entityKey: func(d *Device) string { return d.id },
		update: func(d *Device, r api.DeviceRecord) {
			d.record = r
		},
		create: func(r api.DeviceRecord) *Device {
			g.installation.client.logger.Debug("device discovered",
				"group_id", g.id, "device_id", r.DeviceID, "name", r.Name)
			return &Device{group: g, id: r.DeviceID, record: r}
		},
	}
}

// eachDevice runs cmd on every device in order and stops at the first error.
func eachDevice(devices []*Device, cmd func(*Device) error) error {
	for _, d := range devices {
		if err := cmd(d); err != nil {
			return err
		}
	}
	return nil
}

// setModeOnMasters validates the mode name, loads missing snapshots and sends
// the mode to every controlling unit among devices that advertises it. Units
// lacking the mode are skipped; nothing is sent unless at least one accepts it.
func setModeOnMasters(ctx context.Context, target string, devices []*Device, name string) error {
	mode, ok := ModeByName(name)
	if !ok {
		return &ValidationError{Target: target, Mode: name, Err: ErrUnknownMode}
	}

	var masters, eligible []*Device
	for _, d := range devices {
		if err := d.ensureStatus(ctx); err != nil {
			return err
		}
		if !d.IsMaster() {
			continue
		}
		masters = append(masters, d)
		if slices.Contains(d.status.ModesAvailable, mode.ID) {
			eligible = append(eligible, d)
		}
	}
	if len(masters) == 0 {
		return &ValidationError{Target: target, Mode: name, Err: ErrNotControllingUnit}
	}
	if len(eligible) == 0 {
		return &ValidationError{Target: target, Mode: name, Err: ErrModeUnavailable}
	}

	for _, d := range masters {
		if !slices.Contains(eligible, d) {
			d.group.installation.client.logger.Debug("skipping controlling unit without mode",
				"device_id", d.id, "mode", name)
		}
	}
	return eachDevice(eligible, func(d *Device) error { return d.SetMode(ctx, name) })
}
