package controllers

import (
	"encoding/json"
	"listenerd/internal/services"
	"listenerd/internal/structures"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func health(t *testing.T, hc *HealthController) map[string]any {
	t.Helper()
	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHealth_StartingBeforeFirstCycle(t *testing.T) {
	hc := NewHealthController(&structures.Config{Collector: structures.CollectorConfig{Interval: time.Minute}}, services.NewListenerService())

	resp := health(t, hc)
	assert.Equal(t, "starting", resp["status"])
	assert.Equal(t, 0.0, resp["cycles"])
	assert.Contains(t, resp, "uptime")
	assert.Contains(t, resp, "uptime_seconds")
}

func TestHealth_OkAndStale(t *testing.T) {
	svc := services.NewListenerService()
	hc := NewHealthController(&structures.Config{Collector: structures.CollectorConfig{Interval: time.Minute}}, svc)

	captured := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	svc.PutSnapshot(snapshotAt(captured.UnixMilli(), 3, 4))

	hc.now = func() time.Time { return captured.Add(30 * time.Second) }
	resp := health(t, hc)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, 2.0, resp["entities"])
	assert.Equal(t, 1.0, resp["cycles"])
	assert.Equal(t, float64(captured.UnixMilli()), resp["last_cycle_at"])

	hc.now = func() time.Time { return captured.Add(10 * time.Minute) }
	assert.Equal(t, "stale", health(t, hc)["status"])
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	hc := NewHealthController(&structures.Config{}, services.NewListenerService())
	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0h0m0s", formatDuration(0))
	assert.Equal(t, "1h1m1s", formatDuration(time.Hour+time.Minute+time.Second))
	assert.Equal(t, "25h0m0s", formatDuration(25*time.Hour))
}
