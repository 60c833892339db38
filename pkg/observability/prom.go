package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arteria"

// Prometheus implements every hook interface on top of client_golang
// collectors.
type Prometheus struct {
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	insertions    prometheus.Counter
	leafDepth     prometheus.Histogram
	siteDistance  prometheus.Histogram
	cacheEvents   *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)

// NewPrometheus creates the collectors and registers them with reg.
// It panics if any collector is already registered, like MustRegister.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Pipeline stages that returned an error.",
		}, []string{"stage"}),
		insertions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insertions_total",
			Help:      "Terminals connected to a tree.",
		}),
		leafDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leaf_depth",
			Help:      "Depth of each newly connected terminal.",
			Buckets:   prometheus.LinearBuckets(0, 2, 12),
		}),
		siteDistance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "site_distance_units",
			Help:      "Distance from a terminal to its bifurcation site.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes by key type.",
		}, []string{"type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"type"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(
		p.stageDuration, p.stageErrors,
		p.insertions, p.leafDepth, p.siteDistance,
		p.cacheEvents, p.cacheBytes,
		p.httpDuration,
	)
	return p
}

func (p *Prometheus) OnStageStart(context.Context, Stage) {}

func (p *Prometheus) OnStageComplete(_ context.Context, stage Stage, d time.Duration, err error) {
	p.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	if err != nil {
		p.stageErrors.WithLabelValues(string(stage)).Inc()
	}
}

func (p *Prometheus) OnInsertion(_ context.Context, _ int, depth int, distance float64) {
	p.insertions.Inc()
	p.leafDepth.Observe(float64(depth))
	p.siteDistance.Observe(distance)
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	p.httpDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}
