package testutil

import (
	"listenerd/internal/models"
	"listenerd/internal/providers"
	"strings"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level whose format contains
// substr.
func (m *MockLogger) Count(level, substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level && strings.Contains(e.Format, substr) {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface and keeps the
// collector and persistence observations.
type MockMetrics struct {
	mu           sync.Mutex
	FetchErrors  map[string]int
	Fetches      map[string]int
	Listeners    map[string]int
	SeriesPoints map[string]int
	Cycles       int
	Persists     int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		FetchErrors:  make(map[string]int),
		Fetches:      make(map[string]int),
		Listeners:    make(map[string]int),
		SeriesPoints: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits(_ string)                            {}
func (m *MockMetrics) IncCacheMisses(_ string)                          {}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persists++
}

func (m *MockMetrics) ObserveFetchDuration(endpoint string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fetches[endpoint]++
}

func (m *MockMetrics) IncFetchErrors(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchErrors[endpoint]++
}

func (m *MockMetrics) ObserveCycleDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cycles++
}

func (m *MockMetrics) SetListeners(entity string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Listeners[entity] = count
}

func (m *MockMetrics) SetSeriesPoints(series string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeriesPoints[series] = count
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu     sync.Mutex
	Data   map[string][]byte
	Clears int
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = make(map[string][]byte)
	m.Clears++
}

// MockCompressor is an identity compressor with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	return append([]byte(nil), val...), nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	return append([]byte(nil), val...), nil
}

func (m *MockCompressor) Close() {
	m.Closed = true
}

// Snapshot builds a snapshot from records keyed by their ID, with the total
// computed the same way the aggregator does.
func Snapshot(capturedAt int64, records ...*models.SourceRecord) *models.Snapshot {
	entities := make(map[string]*models.SourceRecord, len(records))
	for _, rec := range records {
		entities[rec.ID] = rec
	}
	return &models.Snapshot{
		CycleID:        "test-cycle",
		Entities:       entities,
		TotalListeners: models.SumTotals(entities),
		CapturedAt:     capturedAt,
	}
}
