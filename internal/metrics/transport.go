// Package metrics exposes Airzone Cloud API and device metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transport records API request metrics. It implements api.Observer.
type Transport struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	relogins prometheus.Counter
}

func NewTransport() *Transport {
	return &Transport{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "airzone_api_requests_total",
			Help: "Airzone Cloud API requests by method and HTTP status code",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "airzone_api_request_duration_seconds",
			Help:    "Airzone Cloud API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		relogins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airzone_api_relogins_total",
			Help: "Logins triggered by an unauthorized response",
		}),
	}
}

func (t *Transport) ObserveRequest(method string, statusCode int, duration time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	t.requests.WithLabelValues(method, code).Inc()
	t.duration.WithLabelValues(method).Observe(duration.Seconds())
}

func (t *Transport) ObserveRelogin() {
	t.relogins.Inc()
}

func (t *Transport) Describe(ch chan<- *prometheus.Desc) {
	t.requests.Describe(ch)
	t.duration.Describe(ch)
	t.relogins.Describe(ch)
}

func (t *Transport) Collect(ch chan<- prometheus.Metric) {
	t.requests.Collect(ch)
	t.duration.Collect(ch)
	t.relogins.Collect(ch)
}

// Handler exposes the registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
