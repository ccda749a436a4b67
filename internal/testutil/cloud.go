package testutil

import (
	"net/http"
	"strings"
	"sync"
	"testing"
)

// FakeDevice is a device served by Cloud. An empty Type means "az_zone".
type FakeDevice struct {
	ID   string
	Type string
	Name string
}

// FakeGroup is a group served by Cloud.
type FakeGroup struct {
	ID      string
	Name    string
	Devices []FakeDevice
}

// FakeInstallation is an installation served by Cloud.
type FakeInstallation struct {
	ID     string
	Name   string
	Groups []FakeGroup
}

// Cloud serves a mutable Airzone account on top of RESTMock: the installation
// list and detail endpoints, device status and config, PATCH, user and logout.
type Cloud struct {
	*RESTMock

	mu            sync.Mutex
	installations []FakeInstallation
	statuses      map[string]map[string]interface{}
	failures      map[string]int
}

// NewCloud creates an empty account accepting the given credentials.
func NewCloud(t *testing.T, email, password string) *Cloud {
	t.Helper()

	c := &Cloud{
		RESTMock: NewRESTMock(t, email, password),
		statuses: make(map[string]map[string]interface{}),
		failures: make(map[string]int),
	}

	c.Handle(http.MethodGet, "/api/v1/installations", c.handleList)
	c.Handle(http.MethodGet, "/api/v1/installations/*", c.handleDetail)
	c.Handle(http.MethodGet, "/api/v1/devices/*", c.handleDevice)
	c.HandleNoContent(http.MethodPatch, "/api/v1/devices/*")
	c.HandleNoContent(http.MethodGet, "/api/v1/auth/logout")
	c.HandleJSON(http.MethodGet, "/api/v1/user", http.StatusOK, map[string]interface{}{
		"_id":       "u1",
		"email":     email,
		"name":      "Test",
		"lastname":  "User",
		"lang":      "en",
		"validated": true,
	})

	return c
}

// SetInstallations replaces the whole account tree.
func (c *Cloud) SetInstallations(installations ...FakeInstallation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.installations = installations
}

// SetStatus sets the status body served for a device.
func (c *Cloud) SetStatus(deviceID string, status map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[deviceID] = status
	delete(c.failures, deviceID)
}

// FailStatus makes the status endpoint of a device answer with statusCode.
func (c *Cloud) FailStatus(deviceID string, statusCode int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[deviceID] = statusCode
}

// ZoneStatus returns a connected, powered zone in heating mode at 21.5 C with a
// 20 C setpoint, a heating range of 18-30 C and a 0.5 C step. A zone with
// modesAvailable is a controlling unit.
func ZoneStatus(modesAvailable ...int) map[string]interface{} {
	if modesAvailable == nil {
		modesAvailable = []int{}
	}
	return map[string]interface{}{
		"isConnected":          true,
		"power":                true,
		"mode":                 3,
		"mode_available":       modesAvailable,
		"humidity":             45,
		"local_temp":           map[string]float64{"celsius": 21.5, "fah": 70.7},
		"step":                 map[string]float64{"celsius": 0.5, "fah": 1},
		"setpoint_air_heat":    map[string]float64{"celsius": 20, "fah": 68},
		"setpoint_air_cool":    map[string]float64{"celsius": 25, "fah": 77},
		"range_sp_hot_air_min": map[string]float64{"celsius": 18, "fah": 64},
		"range_sp_hot_air_max": map[string]float64{"celsius": 30, "fah": 86},
	}
}

func (c *Cloud) handleList(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := make([]map[string]interface{}, 0, len(c.installations))
	for _, inst := range c.installations {
		list = append(list, map[string]interface{}{
			"installation_id": inst.ID,
			"name":            inst.Name,
			"access_type":     "admin",
			"location_id":     "loc-" + inst.ID,
			"ws_ids":          []string{"ws-" + inst.ID},
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"installations": list})
}

func (c *Cloud) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/installations/")

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, inst := range c.installations {
		if inst.ID != id {
			continue
		}
		groups := make([]map[string]interface{}, 0, len(inst.Groups))
		for _, g := range inst.Groups {
			devices := make([]map[string]interface{}, 0, len(g.Devices))
			for i, d := range g.Devices {
				typ := d.Type
				if typ == "" {
					typ = "az_zone"
				}
				devices = append(devices, map[string]interface{}{
					"device_id": d.ID,
					"type":      typ,
					"name":      d.Name,
					"ws_id":     "ws-" + inst.ID,
					"meta":      map[string]int{"system_number": 1, "zone_number": i + 1},
				})
			}
			groups = append(groups, map[string]interface{}{
				"group_id": g.ID,
				"name":     g.Name,
				"devices":  devices,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"installation_id": inst.ID,
			"name":            inst.Name,
			"groups":          groups,
		})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"msg": "installationNotFound"})
}

func (c *Cloud) handleDevice(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/devices/")
	id, resource, _ := strings.Cut(rest, "/")

	c.mu.Lock()
	defer c.mu.Unlock()

	if code, ok := c.failures[id]; ok {
		writeJSON(w, code, map[string]string{"msg": "deviceError"})
		return
	}
	status, ok := c.statuses[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "deviceNotFound"})
		return
	}

	switch resource {
	case "status":
		writeJSON(w, http.StatusOK, status)
	case "config":
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ws_fw":     "4.01",
			"system_fw": "3.44",
			"zone_fw":   "3.21",
			"units":     0,
		})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "notFound"})
	}
}
