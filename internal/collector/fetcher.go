package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"listenerd/internal/icecast"
	"listenerd/internal/models"
	"listenerd/internal/providers"
	"listenerd/internal/structures"
	"net/http"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

const maxStatusBody = 4 << 20 // 4 MB

var ErrUnexpectedStatus = errors.New("unexpected status code")

// StatusFetcher queries one endpoint and returns its mounts keyed by path.
type StatusFetcher interface {
	Fetch(ctx context.Context, ep structures.Endpoint) (map[string]*models.SourceRecord, error)
}

type mountResult = map[string]*models.SourceRecord

type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	htmlFallback bool
	logger       providers.Logger

	mu             sync.Mutex
	breakers       map[string]*gobreaker.CircuitBreaker[mountResult]
	breakerTimeout time.Duration
}

func NewHTTPFetcher(conf *structures.Config, logger providers.Logger) StatusFetcher {
	return &HTTPFetcher{
		client:         &http.Client{},
		userAgent:      conf.Collector.UserAgent,
		htmlFallback:   conf.Collector.HTMLFallback,
		logger:         logger,
		breakers:       make(map[string]*gobreaker.CircuitBreaker[mountResult]),
		breakerTimeout: max(conf.Collector.Interval, 30*time.Second),
	}
}

// Fetch reads the JSON status document, then the HTML status page when the
// JSON one fails or lists no mounts and the fallback is enabled. Repeated
// failures open a per-endpoint breaker so a dead server is skipped until the
// breaker half-opens again.
func (f *HTTPFetcher) Fetch(ctx context.Context, ep structures.Endpoint) (map[string]*models.SourceRecord, error) {
	return f.breaker(ep.ID).Execute(func() (mountResult, error) {
		return f.fetch(ctx, ep)
	})
}

func (f *HTTPFetcher) breaker(id string) *gobreaker.CircuitBreaker[mountResult] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := f.breakers[id]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[mountResult](gobreaker.Settings{
		Name:        id,
		MaxRequests: 1,
		Timeout:     f.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warnf(providers.TypeCollector, "endpoint %s breaker %s -> %s", name, from, to)
		},
	})
	f.breakers[id] = cb
	return cb
}

func (f *HTTPFetcher) fetch(ctx context.Context, ep structures.Endpoint) (mountResult, error) {
	mounts, err := f.fetchJSON(ctx, ep)
	if !f.htmlFallback || (err == nil && len(mounts) > 0) {
		return mounts, err
	}

	htmlMounts, herr := f.fetchHTML(ctx, ep)
	if herr != nil {
		f.logger.Debugf(providers.TypeCollector, "endpoint %s html fallback failed: %s", ep.ID, herr)
		return mounts, err
	}
	if len(htmlMounts) == 0 {
		return mounts, err
	}
	return htmlMounts, nil
}

func (f *HTTPFetcher) fetchJSON(ctx context.Context, ep structures.Endpoint) (mountResult, error) {
	body, err := f.get(ctx, endpointURL(ep.URL, ep.StatusPath))
	if err != nil {
		return nil, err
	}
	return icecast.ParseStatusJSON(body)
}

func (f *HTTPFetcher) fetchHTML(ctx context.Context, ep structures.Endpoint) (mountResult, error) {
	body, err := f.get(ctx, endpointURL(ep.URL, ep.HTMLPath))
	if err != nil {
		return nil, err
	}
	return icecast.ParseStatusHTML(bytes.NewReader(body))
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxStatusBody))
		return nil, fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
}

func endpointURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
