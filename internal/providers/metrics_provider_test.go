package providers

import (
	"listenerd/internal/models"
	"listenerd/internal/services"
	"listenerd/internal/structures"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTestRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = prometheus.NewRegistry()
		prometheus.DefaultGatherer = prometheus.DefaultRegisterer.(prometheus.Gatherer)
	})
	return reg
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf, services.NewListenerService())
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	m.IncRequestsTotal("/live", 200)
	m.ObserveRequestDuration("/live", time.Millisecond)
	m.IncCacheHits("/live")
	m.IncCacheMisses("/series")
	m.ObservePersistenceDuration(time.Millisecond)
	m.ObserveFetchDuration("main", time.Millisecond)
	m.IncFetchErrors("main")
	m.ObserveCycleDuration(time.Second)
	m.SetListeners("t1", 10)
	m.SetSeriesPoints("Total", 10)
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	useTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf, services.NewListenerService())
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_IncrementCounters(t *testing.T) {
	useTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf, services.NewListenerService())

	m.IncRequestsTotal("/series", 200)
	m.IncRequestsTotal("/series", 404)
	m.ObserveRequestDuration("/series", 5*time.Millisecond)
	m.IncCacheHits("/live")
	m.IncCacheMisses("/series")
	m.ObservePersistenceDuration(100 * time.Millisecond)
	m.ObserveFetchDuration("main", 20*time.Millisecond)
	m.IncFetchErrors("main")
	m.ObserveCycleDuration(time.Second)
	m.SetListeners("t1", 42)
	m.SetSeriesPoints("Total", 1440)
}

func TestMetricsProvider_GaugesReadSnapshot(t *testing.T) {
	reg := useTestRegistry(t)

	service := services.NewListenerService()
	service.PutSnapshot(&models.Snapshot{
		Entities: map[string]*models.SourceRecord{
			"t1": {ID: "t1", Listeners: 12, IncludeInTotals: true},
			"t2": {ID: "t2", Offline: true, IncludeInTotals: true},
		},
		TotalListeners: 12,
		CapturedAt:     5000,
	})
	NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}}, service)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		if len(f.GetMetric()) == 1 && f.GetMetric()[0].GetGauge() != nil {
			values[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 12.0, values["listenerd_total_listeners"])
	assert.Equal(t, 1.0, values["listenerd_entities_offline"])
	assert.Equal(t, 5.0, values["listenerd_last_cycle_timestamp_seconds"])
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
