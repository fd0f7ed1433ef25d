// Package observability exposes the core's metrics through Prometheus.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromObs registers the pipeline's metrics on its own registry, so multiple
// instances can coexist in one process. Unknown metric names are ignored.
type PromObs struct {
	registry *prometheus.Registry
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
}

func NewPromObs() *PromObs {
	counters := map[string]prometheus.Counter{}
	for name, help := range map[string]string{
		"grefur_events_published_total":        "Total events published on the bus.",
		"grefur_bus_handler_failures_total":    "Handler errors and panics during dispatch.",
		"grefur_bus_request_timeouts_total":    "Bus requests that expired without a matching response.",
		"grefur_cache_hits_total":              "Customer cache lookups served from a live entry.",
		"grefur_cache_misses_total":            "Customer cache lookups that found nothing or an expired entry.",
		"grefur_cache_evictions_total":         "Entries removed by the cache sweeper.",
		"grefur_alarms_raised_total":           "Anomalies that produced an alarm.",
		"grefur_telemetry_points_logged_total": "Telemetry points written to the store.",
		"grefur_telemetry_points_failed_total": "Telemetry points the store rejected.",
	} {
		counters[name] = prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}

	gauges := map[string]prometheus.Gauge{
		"grefur_cache_entries": prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grefur_cache_entries",
			Help: "Devices currently cached.",
		}),
	}

	registry := prometheus.NewRegistry()
	for _, c := range counters {
		registry.MustRegister(c)
	}
	for _, g := range gauges {
		registry.MustRegister(g)
	}

	return &PromObs{registry: registry, counters: counters, gauges: gauges}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

// Handler serves the /metrics scrape endpoint for this instance's registry.
func (p *PromObs) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
