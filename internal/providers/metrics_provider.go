package providers

import (
	"listenerd/internal/services"
	"listenerd/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits(route string)
	IncCacheMisses(route string)
	ObservePersistenceDuration(duration time.Duration)
	ObserveFetchDuration(endpoint string, duration time.Duration)
	IncFetchErrors(endpoint string)
	ObserveCycleDuration(duration time.Duration)
	SetListeners(entity string, count int)
	SetSeriesPoints(series string, count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	fetchDuration       *prometheus.HistogramVec
	fetchErrors         *prometheus.CounterVec
	cycleDuration       prometheus.Histogram
	listeners           *prometheus.GaugeVec
	seriesPoints        *prometheus.GaugeVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(route string) {
	m.cacheHits.WithLabelValues(route).Inc()
}

func (m *MetricsProvider) IncCacheMisses(route string) {
	m.cacheMisses.WithLabelValues(route).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) ObserveFetchDuration(endpoint string, duration time.Duration) {
	m.fetchDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncFetchErrors(endpoint string) {
	m.fetchErrors.WithLabelValues(endpoint).Inc()
}

func (m *MetricsProvider) ObserveCycleDuration(duration time.Duration) {
	m.cycleDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetListeners(entity string, count int) {
	m.listeners.WithLabelValues(entity).Set(float64(count))
}

func (m *MetricsProvider) SetSeriesPoints(series string, count int) {
	m.seriesPoints.WithLabelValues(series).Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, service services.ListenerServiceInterface) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "listenerd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "listenerd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "listenerd_cache_hits_total",
			Help: "Response cache hits per route",
		}, []string{"route"}),

		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "listenerd_cache_misses_total",
			Help: "Response cache misses per route",
		}, []string{"route"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "listenerd_persistence_duration_seconds",
			Help:    "Duration of archive and snapshot writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		fetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "listenerd_fetch_duration_seconds",
			Help:    "Duration of status queries per endpoint in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		fetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "listenerd_fetch_errors_total",
			Help: "Total number of failed status queries per endpoint",
		}, []string{"endpoint"}),

		cycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "listenerd_cycle_duration_seconds",
			Help:    "Duration of a full collection pass in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		listeners: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "listenerd_listeners",
			Help: "Current listeners per entity",
		}, []string{"entity"}),

		seriesPoints: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "listenerd_rolling_points",
			Help: "Number of points per series in the rolling payload",
		}, []string{"series"}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "listenerd_total_listeners",
		Help: "Listeners summed over entities included in totals",
	}, func() float64 {
		snap := service.GetSnapshot()
		if snap == nil {
			return 0
		}
		return float64(snap.TotalListeners)
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "listenerd_entities_offline",
		Help: "Entities marked offline in the last cycle",
	}, func() float64 {
		snap := service.GetSnapshot()
		if snap == nil {
			return 0
		}
		return float64(snap.OfflineCount())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "listenerd_last_cycle_timestamp_seconds",
		Help: "Capture time of the last collection pass",
	}, func() float64 {
		return float64(service.LastCycleAt()) / 1000
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) ObserveFetchDuration(_ string, _ time.Duration)   {}
func (n *noopMetrics) IncFetchErrors(_ string)                          {}
func (n *noopMetrics) ObserveCycleDuration(_ time.Duration)             {}
func (n *noopMetrics) SetListeners(_ string, _ int)                     {}
func (n *noopMetrics) SetSeriesPoints(_ string, _ int)                  {}
