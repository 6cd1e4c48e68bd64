package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.StoreLoad(false)
	m.StoreLoad(true)
	m.LevelUps(3)
	m.LevelUps(0)
	m.SetCachedUsers(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeLoads))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadErrors))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.levelUps))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.cachedUsers))
}

func TestMetrics_ObserveFlush(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		rows     int
		wantRows float64
	}{
		{name: "success counts rows", status: StatusSuccess, rows: 10, wantRows: 10},
		{name: "failure does not count rows", status: StatusFailure, rows: 10, wantRows: 0},
		{name: "empty snapshot", status: StatusEmpty, rows: 0, wantRows: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics(prometheus.NewRegistry())

			m.ObserveFlush(tt.status, 0.02, tt.rows)

			assert.Equal(t, tt.wantRows, testutil.ToFloat64(m.flushRows))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.flushTotal.WithLabelValues(tt.status)))
			assert.Equal(t, 1, testutil.CollectAndCount(m.flushSeconds))
		})
	}
}

func TestMetrics_Reload(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Reload(true)
	m.Reload(false)
	m.Reload(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloadsTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reloadsTotal.WithLabelValues(StatusFailure)))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.CacheHit()
		m.CacheMiss()
		m.StoreLoad(true)
		m.LevelUps(1)
		m.SetCachedUsers(1)
		m.ObserveFlush(StatusSuccess, 1, 1)
		m.Reload(true)
	})
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	assert.Panics(t, func() { NewMetrics(reg) })
}
