package devtools

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/domkit-go/domkit/core"
)

// metrics mirrors a Diagnostics snapshot as Prometheus gauges/counters,
// grounded on the teacher's pkg/middleware/metrics.go factory pattern.
type metrics struct {
	handlerCount     prometheus.Gauge
	peakHandlerCount prometheus.Gauge
	matchCacheSize   prometheus.Gauge
	pathCacheSize    prometheus.Gauge
	warningsTotal    prometheus.Gauge
	throttleDropped  *prometheus.GaugeVec
	snapshotsTotal   prometheus.Counter
}

// newMetrics registers domkit's gauges/counters on registry, matching the
// namespace/subsystem convention of the teacher's MetricsConfig.
func newMetrics(registry prometheus.Registerer) *metrics {
	factory := promauto.With(registry)
	return &metrics{
		handlerCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "domkit", Name: "handler_count",
			Help: "Number of currently registered event handlers.",
		}),
		peakHandlerCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "domkit", Name: "peak_handler_count",
			Help: "Highest handler count observed since the core started.",
		}),
		matchCacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "domkit", Name: "selector_match_cache_size",
			Help: "Number of cached (target, selector) delegate-match results.",
		}),
		pathCacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "domkit", Name: "path_cache_size",
			Help: "Number of cached propagation paths.",
		}),
		warningsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "domkit", Name: "governor_warnings_total",
			Help: "Cumulative hot-element warnings raised by the memory governor.",
		}),
		throttleDropped: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "domkit", Name: "throttle_dropped_total",
			Help: "Cumulative events dropped by the per-type admission gate, by event type.",
		}, []string{"event_type"}),
		snapshotsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "domkit", Name: "diagnostics_snapshots_total",
			Help: "Number of diagnostics snapshots recorded.",
		}),
	}
}

// observe updates every gauge/counter from a fresh Diagnostics snapshot.
func (m *metrics) observe(d core.Diagnostics) {
	m.handlerCount.Set(float64(d.HandlerCount))
	m.peakHandlerCount.Set(float64(d.PeakHandlerCount))
	m.matchCacheSize.Set(float64(d.MatchCacheSize))
	m.pathCacheSize.Set(float64(d.PathCacheSize))
	m.warningsTotal.Set(float64(d.Warnings))
	for eventType, count := range d.ThrottleDropped {
		m.throttleDropped.WithLabelValues(string(eventType)).Set(float64(count))
	}
}
