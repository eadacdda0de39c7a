package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"time"
)

// outcomeSuccess labels fetches that returned records; failures use their ErrorKind
const outcomeSuccess = "success"

// Metrics collects Prometheus metrics about registry fetches
type Metrics struct {
	fetches *prometheus.CounterVec
	latency prometheus.Histogram
	records prometheus.Histogram
}

// NewMetrics creates the registry metrics and registers them on the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "registry",
			Name:      "fetches_total",
			Help:      "Number of site list fetches from the federation registry by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "registry",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of site list fetches from the federation registry.",
			Buckets:   prometheus.DefBuckets,
		}),
		records: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "registry",
			Name:      "fetched_sites",
			Help:      "Number of site records returned by successful fetches.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}),
	}
	reg.MustRegister(metrics.fetches, metrics.latency, metrics.records)
	return metrics
}

func (metrics *Metrics) observe(duration time.Duration, records int, err error) {
	if metrics == nil {
		return
	}
	metrics.latency.Observe(duration.Seconds())
	if err != nil {
		kind := KindOf(err)
		if kind == "" {
			kind = KindTransport
		}
		metrics.fetches.WithLabelValues(string(kind)).Inc()
		return
	}
	metrics.fetches.WithLabelValues(outcomeSuccess).Inc()
	metrics.records.Observe(float64(records))
}
