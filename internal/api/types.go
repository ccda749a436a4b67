package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Device record types returned inside a group.
const (
	DeviceTypeZone   = "az_zone"
	DeviceTypeSystem = "az_system"
)

// InstallationRecord is one entry of GET /api/v1/installations.
type InstallationRecord struct {
	InstallationID string   `json:"installation_id"`
	Name           string   `json:"name"`
	AccessType     string   `json:"access_type"`
	LocationID     string   `json:"location_id"`
	WebserverIDs   []string `json:"ws_ids"`
	Color          int      `json:"color"`
}

// InstallationDetail is the body of GET /api/v1/installations/{id}.
type InstallationDetail struct {
	InstallationID string        `json:"installation_id"`
	Name           string        `json:"name"`
	Groups         []GroupRecord `json:"groups"`
}

// GroupRecord is a group (system) inside an installation.
type GroupRecord struct {
	GroupID string         `json:"group_id"`
	Name    string         `json:"name"`
	Devices []DeviceRecord `json:"devices"`
}

// DeviceRecord is the identity data of a device inside a group.
type DeviceRecord struct {
	DeviceID    string     `json:"device_id"`
	Type        string     `json:"type"`
	Name        string     `json:"name"`
	WebserverID string     `json:"ws_id"`
	Meta        DeviceMeta `json:"meta"`
}

// DeviceMeta locates a zone on its webserver.
type DeviceMeta struct {
	SystemNumber int `json:"system_number"`
	ZoneNumber   int `json:"zone_number"`
}

// Temperature is a value reported in both units. Either field may be absent.
type Temperature struct {
	Celsius    *float64 `json:"celsius,omitempty"`
	Fahrenheit *float64 `json:"fah,omitempty"`
}

// C returns the Celsius value and whether it was reported.
func (t *Temperature) C() (float64, bool) {
	if t == nil || t.Celsius == nil {
		return 0, false
	}
	return *t.Celsius, true
}

// DeviceStatus is the mutable state snapshot of a device.
type DeviceStatus struct {
	IsConnected    bool  `json:"isConnected"`
	Power          bool  `json:"power"`
	Mode           int   `json:"mode"`
	ModesAvailable []int `json:"mode_available"`
	Humidity       *int  `json:"humidity,omitempty"`

	LocalTemp Temperature `json:"local_temp"`
	Step      Temperature `json:"step"`

	SetpointCool     *Temperature `json:"setpoint_air_cool,omitempty"`
	SetpointHeat     *Temperature `json:"setpoint_air_heat,omitempty"`
	SetpointAuto     *Temperature `json:"setpoint_air_auto,omitempty"`
	SetpointDry      *Temperature `json:"setpoint_air_dry,omitempty"`
	SetpointVent     *Temperature `json:"setpoint_air_vent,omitempty"`
	SetpointStop     *Temperature `json:"setpoint_air_stop,omitempty"`
	SetpointEmerheat *Temperature `json:"setpoint_air_emerheat,omitempty"`

	RangeCoolMin     *Temperature `json:"range_sp_cool_air_min,omitempty"`
	RangeCoolMax     *Temperature `json:"range_sp_cool_air_max,omitempty"`
	RangeHeatMin     *Temperature `json:"range_sp_hot_air_min,omitempty"`
	RangeHeatMax     *Temperature `json:"range_sp_hot_air_max,omitempty"`
	RangeAutoMin     *Temperature `json:"range_sp_auto_air_min,omitempty"`
	RangeAutoMax     *Temperature `json:"range_sp_auto_air_max,omitempty"`
	RangeDryMin      *Temperature `json:"range_sp_dry_air_min,omitempty"`
	RangeDryMax      *Temperature `json:"range_sp_dry_air_max,omitempty"`
	RangeVentMin     *Temperature `json:"range_sp_vent_air_min,omitempty"`
	RangeVentMax     *Temperature `json:"range_sp_vent_air_max,omitempty"`
	RangeStopMin     *Temperature `json:"range_sp_stop_air_min,omitempty"`
	RangeStopMax     *Temperature `json:"range_sp_stop_air_max,omitempty"`
	RangeEmerheatMin *Temperature `json:"range_sp_emerheat_air_min,omitempty"`
	RangeEmerheatMax *Temperature `json:"range_sp_emerheat_air_max,omitempty"`
}

// DecodeDeviceStatus decodes a status body. Missing fields keep their zero value;
// malformed JSON or a missing body is an error.
func DecodeDeviceStatus(data []byte) (*DeviceStatus, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty device status")
	}
	var status DeviceStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to decode device status: %w", err)
	}
	if status.ModesAvailable == nil {
		status.ModesAvailable = []int{}
	}
	return &status, nil
}

// DeviceConfig holds the rarely changing configuration of a device.
type DeviceConfig struct {
	WebserverFirmware string  `json:"ws_fw"`
	SystemFirmware    string  `json:"system_fw"`
	ZoneFirmware      string  `json:"zone_fw"`
	Units             int     `json:"units"`
	SleepTimes        []int   `json:"sleep_times"`
	SetpointStep      float64 `json:"step"`
}

// User is the account returned by GET /api/v1/user.
type User struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Lastname  string `json:"lastname"`
	Lang      string `json:"lang"`
	Validated bool   `json:"validated"`
}

// PatchBody is the body of PATCH /api/v1/devices/{id}.
type PatchBody struct {
	InstallationID string      `json:"installation_id"`
	Param          string      `json:"param"`
	Value          interface{} `json:"value"`
	Opts           PatchOpts   `json:"opts"`
}

// PatchOpts carries the unit system of a patched value (0 = Celsius).
type PatchOpts struct {
	Units int `json:"units"`
}
