package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	AlertsReceived   prometheus.Counter
	AlertsRejected   *prometheus.CounterVec
	Dispatches       *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AlertsReceived: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "whistle_alerts_received_total", Help: "Webhook requests received"},
		),
		AlertsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "whistle_alerts_rejected_total", Help: "Webhook requests answered with Not found"},
			[]string{"reason"},
		),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "whistle_dispatch_total", Help: "Outbound Discord posts by result"},
			[]string{"result"},
		),
		DispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "whistle_dispatch_duration_seconds", Help: "Outbound Discord post latency"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AlertsReceived,
		m.AlertsRejected,
		m.Dispatches,
		m.DispatchDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
