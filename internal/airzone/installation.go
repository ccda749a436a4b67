package airzone

import (
	"context"
	"fmt"

	"github.com/dorinclisu/airzone-cli/internal/api"
)

// Installation is a site of the account. It owns groups.
type Installation struct {
	client *Client
	id     string
	record api.InstallationRecord
	groups []*Group
}

func (i *Installation) ID() string             { return i.id }
func (i *Installation) Name() string           { return i.record.Name }
func (i *Installation) AccessType() string     { return i.record.AccessType }
func (i *Installation) LocationID() string     { return i.record.LocationID }
func (i *Installation) WebserverIDs() []string { return i.record.WebserverIDs }

func (i *Installation) String() string {
	return fmt.Sprintf("installation %q (%s)", i.record.Name, i.id)
}

// Groups returns the groups in server order.
func (i *Installation) Groups() []*Group {
	out := make([]*Group, len(i.groups))
	copy(out, i.groups)
	return out
}

// AllDevices returns the devices of every group, group by group.
func (i *Installation) AllDevices() []*Device {
	var devices []*Device
	for _, g := range i.groups {
		devices = append(devices, g.devices...)
	}
	return devices
}

// RefreshGroups fetches the installation detail and merges its groups and
// device identities. Device statuses are not fetched.
func (i *Installation) RefreshGroups(ctx context.Context) error {
	detail, err := i.client.api.GetInstallation(ctx, i.id)
	if err != nil {
		return fmt.Errorf("%s: refresh groups: %w", i, err)
	}
	if detail.Name != "" {
		i.record.Name = detail.Name
	}
	i.groups = i.groupMerger().merge(i.groups, detail.Groups)
	return nil
}

// Refresh fetches the groups, then the status of every device.
func (i *Installation) Refresh(ctx context.Context) error {
	if err := i.RefreshGroups(ctx); err != nil {
		return err
	}
	for _, d := range i.AllDevices() {
		if err := d.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RefreshAfterSettle waits for the settle delay, then calls Refresh.
func (i *Installation) RefreshAfterSettle(ctx context.Context) error {
	if err := i.client.settle(ctx); err != nil {
		return err
	}
	return i.Refresh(ctx)
}

// TurnOn powers on every device of the installation.
func (i *Installation) TurnOn(ctx context.Context) error {
	return eachDevice(i.AllDevices(), func(d *Device) error { return d.TurnOn(ctx) })
}

// TurnOff powers off every device of the installation.
func (i *Installation) TurnOff(ctx context.Context) error {
	return eachDevice(i.AllDevices(), func(d *Device) error { return d.TurnOff(ctx) })
}

// SetTemperature sends the setpoint to every device, each clamped to its own range.
func (i *Installation) SetTemperature(ctx context.Context, celsius float64) error {
	if err := checkCelsius(i.String(), celsius); err != nil {
		return err
	}
	return eachDevice(i.AllDevices(), func(d *Device) error {
		_, err := d.SetTemperature(ctx, celsius)
		return err
	})
}

// SetMode sends the mode to every controlling unit that advertises it.
func (i *Installation) SetMode(ctx context.Context, name string) error {
	return setModeOnMasters(ctx, i.String(), i.AllDevices(), name)
}

func (i *Installation) groupMerger() merger[string, api.GroupRecord, *Group] {
	logger := i.client.logger
	return merger[string, api.GroupRecord, *Group]{
		keep:      func(r api.GroupRecord) bool { return r.GroupID != "" },
		recordKey: func(r api.GroupRecord) string { return r.GroupID },
		entityKey: func(g *Group) string { return g.id },
		update: func(g *Group, r api.GroupRecord) {
			g.name = r.Name
			g.mergeDevices(r.Devices)
		},
		create: func(r api.GroupRecord) *Group {
			logger.Debug("group discovered", "installation_id", i.id, "group_id", r.GroupID, "name", r.Name)
			g := &Group{installation: i, id: r.GroupID, name: r.Name}
			g.mergeDevices(r.Devices)
			return g
		},
	}
}
