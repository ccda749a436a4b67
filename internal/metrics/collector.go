package metrics

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dorinclisu/airzone-cli/internal/airzone"
)

// DefaultScrapeTimeout bounds the tree refresh done on every scrape.
const DefaultScrapeTimeout = 20 * time.Second

// Collector refreshes the device tree on every scrape and exports one series
// per device.
type Collector struct {
	client  *airzone.Client
	timeout time.Duration
	logger  *slog.Logger

	// mu serializes scrapes; the tree is not safe for concurrent use.
	mu sync.Mutex

	power       *prometheus.GaugeVec
	mode        *prometheus.GaugeVec
	temp        *prometheus.GaugeVec
	setpoint    *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	master      *prometheus.GaugeVec
	connected   *prometheus.GaugeVec
	devices     prometheus.Gauge
	lastSuccess prometheus.Gauge
	success     prometheus.Gauge
}

func NewCollector(client *airzone.Client, timeout time.Duration, logger *slog.Logger) *Collector {
	if timeout <= 0 {
		timeout = DefaultScrapeTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	labels := []string{"installation_id", "group_id", "device_id", "device_name"}
	return &Collector{
		client:  client,
		timeout: timeout,
		logger:  logger,
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airzone_device_power_on_bool",
			Help: "Power setting per device (1=on, 0=off)",
		}, labels),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airzone_device_mode",
			Help: "Operating mode id per device",
		}, labels),
		temp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airzone_device_temperature_celsius",
			Help: "Measured room temperature per device",
		}, labels),
		setpoint: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airzone_device_setpoint_celsius",
			Help: "Target temperature of the current mode per device",
		}, labels),
		humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airzone_device_humidity_percent",
			Help: "Relative humidity per device",
		}, labels),
		master: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airzone_device_master_bool",
			Help: "Device controls the group mode (1=yes, 0=no)",
		}, labels),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airzone_device_connected_bool",
			Help: "Device reachable by the cloud (1=yes, 0=no)",
		}, labels),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airzone_devices",
			Help: "Number of devices in the account",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airzone_last_success_timestamp_seconds",
			Help: "Last successful Airzone scrape timestamp (epoch seconds)",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airzone_scrape_success",
			Help: "Last scrape success (1=ok, 0=error)",
		}),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.power.Describe(ch)
	c.mode.Describe(ch)
	c.temp.Describe(ch)
	c.setpoint.Describe(ch)
	c.humidity.Describe(ch)
	c.master.Describe(ch)
	c.connected.Describe(ch)
	c.devices.Describe(ch)
	c.lastSuccess.Describe(ch)
	c.success.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.client.Refresh(ctx); err != nil {
		c.logger.Warn("scrape failed", "error", err)
		c.success.Set(0)
		c.collectAll(ch)
		return
	}

	c.power.Reset()
	c.mode.Reset()
	c.temp.Reset()
	c.setpoint.Reset()
	c.humidity.Reset()
	c.master.Reset()
	c.connected.Reset()

	devices := c.client.AllDevices()
	for _, d := range devices {
		if d.Status() == nil {
			continue
		}
		labels := prometheus.Labels{
			"installation_id": d.InstallationID(),
			"group_id":        d.Group().ID(),
			"device_id":       d.ID(),
			"device_name":     d.Name(),
		}
		c.power.With(labels).Set(boolToFloat(d.IsOn()))
		c.mode.With(labels).Set(float64(d.Mode().ID))
		c.master.With(labels).Set(boolToFloat(d.IsMaster()))
		c.connected.With(labels).Set(boolToFloat(d.IsConnected()))
		if v, ok := d.CurrentTemperature(); ok {
			c.temp.With(labels).Set(v)
		}
		if v, ok := d.TargetTemperature(); ok {
			c.setpoint.With(labels).Set(v)
		}
		if v, ok := d.Humidity(); ok {
			c.humidity.With(labels).Set(float64(v))
		}
	}

	c.devices.Set(float64(len(devices)))
	c.success.Set(1)
	c.lastSuccess.Set(float64(time.Now().Unix()))
	c.collectAll(ch)
}

func (c *Collector) collectAll(ch chan<- prometheus.Metric) {
	c.power.Collect(ch)
	c.mode.Collect(ch)
	c.temp.Collect(ch)
	c.setpoint.Collect(ch)
	c.humidity.Collect(ch)
	c.master.Collect(ch)
	c.connected.Collect(ch)
	c.devices.Collect(ch)
	c.lastSuccess.Collect(ch)
	c.success.Collect(ch)
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
