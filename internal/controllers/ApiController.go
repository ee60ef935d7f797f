package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"listenerd/internal/archive"
	"listenerd/internal/events"
	"listenerd/internal/models"
	"listenerd/internal/providers"
	"listenerd/internal/services"
	"listenerd/internal/structures"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

const defaultLookback = 24 * time.Hour

var (
	errNoSnapshot = errors.New("no snapshot yet")
	errBadRequest = errors.New("bad request")
)

// badRequest wraps a client input error so it is answered with 400.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type ApiController struct {
	conf     *structures.Config
	logger   providers.Logger
	service  services.ListenerServiceInterface
	archive  archive.ArchiveInterface
	mirror   archive.SampleMirrorInterface
	schedule *events.Schedule
	cache    providers.CacheProviderInterface
	now      func() time.Time
}

func NewApiController(
	conf *structures.Config,
	logger providers.Logger,
	service services.ListenerServiceInterface,
	arch archive.ArchiveInterface,
	mirror archive.SampleMirrorInterface,
	schedule *events.Schedule,
	cache providers.CacheProviderInterface,
) *ApiController {
	return &ApiController{
		conf:     conf,
		logger:   logger,
		service:  service,
		archive:  arch,
		mirror:   mirror,
		schedule: schedule,
		cache:    cache,
		now:      time.Now,
	}
}

func cacheKey(r *http.Request) string {
	return r.URL.Path + "?" + r.URL.RawQuery
}

func (ac *ApiController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, errNoSnapshot):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, archive.ErrNotFound):
		status, msg = http.StatusNotFound, "no data"
	case errors.Is(err, archive.ErrMirrorDisabled):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInvalidRange), errors.Is(err, errBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		ac.logger.Errorf(providers.TypeAPI, "%s %s: %s", r.Method, r.URL.RequestURI(), err)
	}

	body, _ := json.Marshal(map[string]string{"error": msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// serveCached answers from the response cache or computes, stores and
// writes the body. Failed computations are never cached.
func (ac *ApiController) serveCached(w http.ResponseWriter, r *http.Request, contentType, filename string, compute func() ([]byte, error)) {
	key := cacheKey(r)
	data, ok := ac.cache.Get(key)
	if !ok {
		var err error
		if data, err = compute(); err != nil {
			ac.writeError(w, r, err)
			return
		}
		ac.cache.Set(key, data)
	}

	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, r *http.Request, compute func() (any, error)) {
	ac.serveCached(w, r, "application/json", "", func() ([]byte, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
}

func (ac *ApiController) GetLive(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, func() (any, error) {
		snap := ac.service.GetSnapshot()
		if snap == nil {
			return nil, errNoSnapshot
		}
		return snap, nil
	})
}

func (ac *ApiController) GetSeries(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, func() (any, error) {
		rng, err := models.ParseRange(r.URL.Query().Get("range"))
		if err != nil {
			return nil, err
		}
		return ac.archive.Load(rng)
	})
}

type bucketsResponse struct {
	Kind models.RangeKind `json:"kind"`
	Keys []string         `json:"keys"`
}

func (ac *ApiController) GetBuckets(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, func() (any, error) {
		var kind models.RangeKind
		switch strings.ToLower(r.URL.Query().Get("kind")) {
		case "", "monthly", "month":
			kind = models.RangeMonthly
		case "yearly", "year":
			kind = models.RangeYearly
		default:
			return nil, badRequest("kind must be monthly or yearly")
		}
		return bucketsResponse{Kind: kind, Keys: ac.archive.Keys(kind)}, nil
	})
}

type thresholdsResponse struct {
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	WindowMs int64   `json:"window_ms"`
}

type crashesResponse struct {
	Range      string              `json:"range"`
	Thresholds thresholdsResponse  `json:"thresholds"`
	Events     []models.CrashEvent `json:"events"`
}

func (ac *ApiController) GetCrashes(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, func() (any, error) {
		q := r.URL.Query()
		rng, err := models.ParseRange(q.Get("range"))
		if err != nil {
			return nil, err
		}
		th, err := crashThresholds(events.ThresholdsFromConfig(ac.conf), q.Get("high"), q.Get("low"), q.Get("window"))
		if err != nil {
			return nil, err
		}

		payload, err := ac.archive.Load(rng)
		if err != nil {
			return nil, err
		}
		var points []models.SeriesPoint
		if total := payload.Find(models.TotalSeries); total != nil {
			points = total.Points
		}

		return crashesResponse{
			Range:      rng.String(),
			Thresholds: thresholdsResponse{High: th.High, Low: th.Low, WindowMs: th.Window.Milliseconds()},
			Events:     events.DetectCrashes(points, th),
		}, nil
	})
}

func crashThresholds(th events.CrashThresholds, high, low, window string) (events.CrashThresholds, error) {
	if high != "" {
		v, err := cast.ToFloat64E(high)
		if err != nil || v < 0 {
			return th, badRequest("high must be a non-negative number")
		}
		th.High = v
	}
	if low != "" {
		v, err := cast.ToFloat64E(low)
		if err != nil || v < 0 {
			return th, badRequest("low must be a non-negative number")
		}
		th.Low = v
	}
	if window != "" {
		d, err := parseWindow(window)
		if err != nil {
			return th, err
		}
		th.Window = d
	}
	if th.Low > th.High {
		return th, badRequest("low must not exceed high")
	}
	return th, nil
}

// parseWindow accepts a Go duration ("5m") or plain milliseconds.
func parseWindow(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, nil
	}
	ms, err := cast.ToInt64E(s)
	if err != nil || ms <= 0 {
		return 0, badRequest("window must be a positive duration or milliseconds")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// parseInstant accepts RFC3339 or milliseconds since epoch.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	ms, err := cast.ToInt64E(s)
	if err != nil {
		return time.Time{}, badRequest("%q is neither RFC3339 nor milliseconds", s)
	}
	return time.UnixMilli(ms), nil
}

// timeBounds reads from/to, defaulting to the trailing 24 hours.
func (ac *ApiController) timeBounds(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	to := ac.now()
	if s := q.Get("to"); s != "" {
		t, err := parseInstant(s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	from := to.Add(-defaultLookback)
	if s := q.Get("from"); s != "" {
		t, err := parseInstant(s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, badRequest("from must not be after to")
	}
	return from, to, nil
}

type showsResponse struct {
	From     int64                 `json:"from"`
	To       int64                 `json:"to"`
	Timezone string                `json:"timezone"`
	Shows    []models.ShowInstance `json:"shows"`
}

func (ac *ApiController) GetShows(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, func() (any, error) {
		from, to, err := ac.timeBounds(r)
		if err != nil {
			return nil, err
		}
		display := ac.schedule.DisplayLocation()
		if tz := r.URL.Query().Get("tz"); tz != "" {
			display, err = time.LoadLocation(tz)
			if err != nil {
				return nil, badRequest("unknown timezone %q", tz)
			}
		}
		return showsResponse{
			From:     from.UnixMilli(),
			To:       to.UnixMilli(),
			Timezone: display.String(),
			Shows:    ac.schedule.Overlapping(from, to, display),
		}, nil
	})
}

func (ac *ApiController) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := models.ParseRange(q.Get("range"))
	if err != nil {
		ac.writeError(w, r, err)
		return
	}

	filename := "listeners-" + strings.ReplaceAll(rng.String(), ":", "-")
	switch strings.ToLower(q.Get("format")) {
	case "", "csv":
		ac.serveCached(w, r, "text/csv; charset=utf-8", filename+".csv", func() ([]byte, error) {
			payload, err := ac.archive.Load(rng)
			if err != nil {
				return nil, err
			}
			var buf bytes.Buffer
			if err := archive.WriteCSV(&buf, payload); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		})
	case "json":
		ac.serveCached(w, r, "application/json", filename+".json", func() ([]byte, error) {
			return ac.archive.LoadRaw(rng)
		})
	default:
		ac.writeError(w, r, badRequest("format must be csv or json"))
	}
}

type samplesResponse struct {
	Entity string               `json:"entity"`
	From   int64                `json:"from"`
	To     int64                `json:"to"`
	Points []models.SeriesPoint `json:"points"`
}

func (ac *ApiController) GetSamples(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, func() (any, error) {
		entity := r.URL.Query().Get("entity")
		if entity == "" {
			return nil, badRequest("entity is required")
		}
		from, to, err := ac.timeBounds(r)
		if err != nil {
			return nil, err
		}
		points, err := ac.mirror.Series(r.Context(), entity, from.UnixMilli(), to.UnixMilli())
		if err != nil {
			return nil, err
		}
		return samplesResponse{Entity: entity, From: from.UnixMilli(), To: to.UnixMilli(), Points: points}, nil
	})
}
