// Package metrics holds the Prometheus collectors for the progression cache
// and the flush scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "levelstar"

// Flush outcome label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusEmpty   = "empty"
)

// Metrics groups every collector the engine records to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	storeLoads   prometheus.Counter
	loadErrors   prometheus.Counter
	levelUps     prometheus.Counter
	cachedUsers  prometheus.Gauge
	flushSeconds *prometheus.HistogramVec
	flushRows    prometheus.Counter
	flushTotal   *prometheus.CounterVec
	reloadsTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Progression lookups served from memory",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Progression lookups that required a store load",
		}),
		storeLoads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_loads_total",
			Help:      "Point reads issued against the store",
		}),
		loadErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_load_errors_total",
			Help:      "Point reads that failed and fell back to defaults",
		}),
		levelUps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Level transitions produced by scoring",
		}),
		cachedUsers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_users",
			Help:      "Users currently held in the progression cache",
		}),
		flushSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Time to snapshot and persist the cache",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"status"}),
		flushRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_rows_total",
			Help:      "Rows written by successful flushes",
		}),
		flushTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Flush cycles by outcome",
		}, []string{"status"}),
		reloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Configuration reloads by outcome",
		}, []string{"status"}),
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

// StoreLoad records one point read; failed reports whether it errored.
func (m *Metrics) StoreLoad(failed bool) {
	if m == nil {
		return
	}
	m.storeLoads.Inc()
	if failed {
		m.loadErrors.Inc()
	}
}

func (m *Metrics) LevelUps(n int) {
	if m != nil && n > 0 {
		m.levelUps.Add(float64(n))
	}
}

func (m *Metrics) SetCachedUsers(n int) {
	if m != nil {
		m.cachedUsers.Set(float64(n))
	}
}

// ObserveFlush records one flush cycle. rows only counts toward
// flush_rows_total on success.
func (m *Metrics) ObserveFlush(status string, seconds float64, rows int) {
	if m == nil {
		return
	}
	m.flushSeconds.WithLabelValues(status).Observe(seconds)
	m.flushTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.flushRows.Add(float64(rows))
	}
}

func (m *Metrics) Reload(ok bool) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if !ok {
		status = StatusFailure
	}
	m.reloadsTotal.WithLabelValues(status).Inc()
}
