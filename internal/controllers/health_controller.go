package controllers

import (
	"fmt"
	"listenerd/internal/services"
	"listenerd/internal/structures"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// A live snapshot older than this many collection intervals is reported as
// stale.
const staleAfterIntervals = 3

type HealthController struct {
	conf      *structures.Config
	service   services.ListenerServiceInterface
	startTime time.Time
	now       func() time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Cycles        int64   `json:"cycles"`
	LastCycleAt   int64   `json:"last_cycle_at"`
	Entities      int     `json:"entities"`
	Offline       int     `json:"offline"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	now := hc.now()
	uptime := now.Sub(hc.startTime)
	resp := healthResponse{
		Status:        "starting",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Cycles:        hc.service.CycleCount(),
		LastCycleAt:   hc.service.LastCycleAt(),
	}
	if snap := hc.service.GetSnapshot(); snap != nil {
		resp.Status = "ok"
		resp.Entities = len(snap.Entities)
		resp.Offline = snap.OfflineCount()
		age := now.Sub(time.UnixMilli(snap.CapturedAt))
		if hc.conf.Collector.Interval > 0 && age > staleAfterIntervals*hc.conf.Collector.Interval {
			resp.Status = "stale"
		}
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(conf *structures.Config, service services.ListenerServiceInterface) *HealthController {
	return &HealthController{
		conf:      conf,
		service:   service,
		startTime: time.Now(),
		now:       time.Now,
	}
}
