package airzone

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/dorinclisu/airzone-cli/internal/api"
)

// SyncState tracks how a device's snapshot relates to the server.
type SyncState int

const (
	// StateUnknown means no snapshot has been fetched yet.
	StateUnknown SyncState = iota
	// StateSynced means the snapshot was fetched and no command was sent since.
	StateSynced
	// StateStale means a command was sent after the last fetch.
	StateStale
)

func (s SyncState) String() string {
	switch s {
	case StateSynced:
		return "synced"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Device is a zone thermostat. Its identity comes from the installation detail,
// its snapshot from the device status endpoint.
type Device struct {
	group  *Group
	id     string
	record api.DeviceRecord

	status    *api.DeviceStatus
	state     SyncState
	fetchedAt time.Time
}

func (d *Device) ID() string                  { return d.id }
func (d *Device) Name() string                { return d.record.Name }
func (d *Device) Type() string                { return d.record.Type }
func (d *Device) WebserverID() string         { return d.record.WebserverID }
func (d *Device) SystemNumber() int           { return d.record.Meta.SystemNumber }
func (d *Device) ZoneNumber() int             { return d.record.Meta.ZoneNumber }
func (d *Device) Group() *Group               { return d.group }
func (d *Device) Installation() *Installation { return d.group.installation }
func (d *Device) InstallationID() string      { return d.group.installation.id }
func (d *Device) State() SyncState            { return d.state }
func (d *Device) FetchedAt() time.Time        { return d.fetchedAt }

func (d *Device) String() string {
	return fmt.Sprintf("device %q (%s)", d.record.Name, d.id)
}

// Status returns the last fetched snapshot, or nil before the first fetch.
func (d *Device) Status() *api.DeviceStatus {
	return d.status
}

// IsMaster reports whether the device can change the operating mode of its group.
func (d *Device) IsMaster() bool {
	return d.status != nil && len(d.status.ModesAvailable) > 0
}

func (d *Device) IsConnected() bool {
	return d.status != nil && d.status.IsConnected
}

func (d *Device) IsOn() bool {
	return d.status != nil && d.status.Power
}

// Mode returns the current mode. Before the first fetch it is the stop mode.
func (d *Device) Mode() Mode {
	if d.status == nil {
		m, _ := ModeByID(0)
		return m
	}
	m, _ := ModeByID(d.status.Mode)
	return m
}

// ModesAvailable returns the modes the device advertises, in server order.
// Ids missing from the mode table are skipped.
func (d *Device) ModesAvailable() []Mode {
	if d.status == nil {
		return nil
	}
	modes := make([]Mode, 0, len(d.status.ModesAvailable))
	for _, id := range d.status.ModesAvailable {
		if m, ok := ModeByID(id); ok {
			modes = append(modes, m)
		}
	}
	return modes
}

// CurrentTemperature is the measured room temperature in Celsius.
func (d *Device) CurrentTemperature() (float64, bool) {
	if d.status == nil {
		return 0, false
	}
	return d.status.LocalTemp.C()
}

// TargetTemperature is the setpoint of the current mode in Celsius.
func (d *Device) TargetTemperature() (float64, bool) {
	if d.status == nil {
		return 0, false
	}
	return d.Mode().Kind.setpoint(d.status).C()
}

// Humidity is the relative humidity in percent.
func (d *Device) Humidity() (int, bool) {
	if d.status == nil || d.status.Humidity == nil {
		return 0, false
	}
	return *d.status.Humidity, true
}

// MinTemperature is the lowest setpoint accepted in the current mode.
func (d *Device) MinTemperature() float64 {
	lo, _ := d.temperatureRange()
	return lo
}

// MaxTemperature is the highest setpoint accepted in the current mode.
func (d *Device) MaxTemperature() float64 {
	_, hi := d.temperatureRange()
	return hi
}

// Step is the setpoint resolution in Celsius.
func (d *Device) Step() float64 {
	if d.status != nil {
		if step, ok := d.status.Step.C(); ok && step > 0 {
			return step
		}
	}
	return DefaultStep
}

func (d *Device) temperatureRange() (float64, float64) {
	lo, hi := DefaultMinTemperature, DefaultMaxTemperature
	if d.status == nil {
		return lo, hi
	}
	minTemp, maxTemp := d.Mode().Kind.limits(d.status)
	if v, ok := minTemp.C(); ok {
		lo = v
	}
	if v, ok := maxTemp.C(); ok {
		hi = v
	}
	if lo > hi {
		return DefaultMinTemperature, DefaultMaxTemperature
	}
	return lo, hi
}

// Refresh fetches the status snapshot and replaces the previous one.
func (d *Device) Refresh(ctx context.Context) error {
	status, err := d.group.installation.client.api.GetDeviceStatus(ctx, d.id, d.InstallationID())
	if err != nil {
		return fmt.Errorf("%s: refresh status: %w", d, err)
	}
	d.status = status
	d.state = StateSynced
	d.fetchedAt = time.Now()
	return nil
}

// RefreshAfterSettle waits for the settle delay, then fetches the status.
func (d *Device) RefreshAfterSettle(ctx context.Context) error {
	if err := d.group.installation.client.settle(ctx); err != nil {
		return err
	}
	return d.Refresh(ctx)
}

// Config returns the device configuration (firmware, units).
func (d *Device) Config(ctx context.Context) (*api.DeviceConfig, error) {
	return d.group.installation.client.api.GetDeviceConfig(ctx, d.id, d.InstallationID())
}

// TurnOn powers the device on. The snapshot is left untouched.
func (d *Device) TurnOn(ctx context.Context) error {
	return d.send(ctx, "power", true)
}

// TurnOff powers the device off. The snapshot is left untouched.
func (d *Device) TurnOff(ctx context.Context) error {
	return d.send(ctx, "power", false)
}

// SetTemperature rounds celsius to the device step, clamps it into the range of
// the current mode and sends it as that mode's setpoint. It returns the value sent.
func (d *Device) SetTemperature(ctx context.Context, celsius float64) (float64, error) {
	if err := checkCelsius(d.String(), celsius); err != nil {
		return 0, err
	}
	if err := d.ensureStatus(ctx); err != nil {
		return 0, err
	}
	step := d.Step()
	value := math.Round(celsius/step) * step
	lo, hi := d.temperatureRange()
	value = math.Min(math.Max(value, lo), hi)

	if err := d.send(ctx, d.Mode().Kind.SetpointParam(), value); err != nil {
		return 0, err
	}
	return value, nil
}

// SetMode validates name against the mode table and the modes the device
// advertises, then sends it.
func (d *Device) SetMode(ctx context.Context, name string) error {
	mode, ok := ModeByName(name)
	if !ok {
		return &ValidationError{Target: d.String(), Mode: name, Err: ErrUnknownMode}
	}
	if err := d.ensureStatus(ctx); err != nil {
		return err
	}
	if len(d.status.ModesAvailable) == 0 {
		return &ValidationError{Target: d.String(), Mode: name, Err: ErrNotControllingUnit}
	}
	if !slices.Contains(d.status.ModesAvailable, mode.ID) {
		return &ValidationError{Target: d.String(), Mode: name, Err: ErrModeUnavailable}
	}
	return d.send(ctx, "mode", mode.ID)
}

// checkCelsius rejects NaN and infinite setpoints.
func checkCelsius(target string, celsius float64) error {
	if math.IsNaN(celsius) || math.IsInf(celsius, 0) {
		return &ValidationError{Target: target, Value: fmt.Sprint(celsius), Err: ErrInvalidTemperature}
	}
	return nil
}

// ensureStatus fetches the snapshot if none has been fetched yet.
func (d *Device) ensureStatus(ctx context.Context) error {
	if d.status != nil {
		return nil
	}
	return d.Refresh(ctx)
}

func (d *Device) send(ctx context.Context, param string, value interface{}) error {
	client := d.group.installation.client
	if err := client.api.PatchDevice(ctx, d.id, d.InstallationID(), param, value); err != nil {
		return err
	}
	if d.status != nil {
		d.state = StateStale
	}
	client.logger.Info("command sent", "device_id", d.id, "param", param, "value", value)
	return nil
}
