// Package collector runs one collection pass: it queries every configured
// endpoint once, concurrently, and folds the results into a Snapshot.
package collector

import (
	"context"
	"listenerd/internal/models"
	"listenerd/internal/providers"
	"listenerd/internal/structures"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type AggregatorInterface interface {
	Collect(ctx context.Context) *models.Snapshot
	SeedCaptureFloor(ts int64)
}

type Aggregator struct {
	conf    *structures.Config
	fetcher StatusFetcher
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	now     func() time.Time

	mu             sync.Mutex
	lastCapturedAt int64
}

type endpointResult struct {
	mounts map[string]*models.SourceRecord
	err    error
}

func NewAggregator(conf *structures.Config, fetcher StatusFetcher, logger providers.Logger, metrics providers.MetricsProviderInterface) AggregatorInterface {
	return &Aggregator{
		conf:    conf,
		fetcher: fetcher,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Collect never fails: an endpoint that cannot be read turns its entities
// offline, and every configured entity is present in the result.
func (a *Aggregator) Collect(ctx context.Context) *models.Snapshot {
	endpoints := a.referencedEndpoints()
	results := make([]endpointResult, len(endpoints))

	var g errgroup.Group
	g.SetLimit(max(a.conf.Collector.Concurrency, 1))
	for i, ep := range endpoints {
		g.Go(func() error {
			results[i] = a.query(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	byEndpoint := make(map[string]endpointResult, len(endpoints))
	for i, ep := range endpoints {
		byEndpoint[ep.ID] = results[i]
	}

	entities := make(map[string]*models.SourceRecord, len(a.conf.Entities))
	for _, e := range a.conf.Entities {
		res, ok := byEndpoint[e.Endpoint]
		if !ok {
			a.logger.Warnf(providers.TypeCollector, "entity %s references unknown endpoint %s", e.ID, e.Endpoint)
		}
		entities[e.ID] = resolveEntity(e, res)
		a.metrics.SetListeners(e.ID, entities[e.ID].Listeners)
	}

	return &models.Snapshot{
		CycleID:        uuid.NewString(),
		Entities:       entities,
		TotalListeners: models.SumTotals(entities),
		CapturedAt:     a.captureTime(),
	}
}

func (a *Aggregator) query(ctx context.Context, ep structures.Endpoint) endpointResult {
	ctx, cancel := context.WithTimeout(ctx, a.conf.Collector.Timeout)
	defer cancel()

	start := time.Now()
	mounts, err := a.fetcher.Fetch(ctx, ep)
	a.metrics.ObserveFetchDuration(ep.ID, time.Since(start))
	if err != nil {
		a.metrics.IncFetchErrors(ep.ID)
		a.logger.Warnf(providers.TypeCollector, "endpoint %s unreachable: %s", ep.ID, err)
		return endpointResult{err: err}
	}
	a.logger.Debugf(providers.TypeCollector, "endpoint %s: %d mounts", ep.ID, len(mounts))
	return endpointResult{mounts: mounts}
}

// referencedEndpoints lists each endpoint used by at least one entity once,
// in configuration order.
func (a *Aggregator) referencedEndpoints() []structures.Endpoint {
	used := make(map[string]struct{}, len(a.conf.Entities))
	for _, e := range a.conf.Entities {
		used[e.Endpoint] = struct{}{}
	}
	out := make([]structures.Endpoint, 0, len(used))
	for _, ep := range a.conf.Endpoints {
		if _, ok := used[ep.ID]; ok {
			out = append(out, ep)
			delete(used, ep.ID)
		}
	}
	return out
}

func resolveEntity(e structures.Entity, res endpointResult) *models.SourceRecord {
	if res.err == nil {
		if src, ok := res.mounts[e.Mount]; ok && src != nil {
			rec := *src
			rec.ID = e.ID
			rec.Name = e.Label
			rec.Offline = false
			rec.IncludeInTotals = e.IncludeInTotals
			rec.IncludeInHistory = e.IncludeInHistory
			return &rec
		}
	}
	return models.OfflineRecord(e.ID, e.Label, e.Mount, e.IncludeInTotals, e.IncludeInHistory)
}

// captureTime keeps CapturedAt non-decreasing even if the wall clock steps
// back between cycles.
func (a *Aggregator) captureTime() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	ts := a.now().UnixMilli()
	if ts < a.lastCapturedAt {
		ts = a.lastCapturedAt
	}
	a.lastCapturedAt = ts
	return ts
}

// SeedCaptureFloor raises the lowest CapturedAt later passes may carry, so
// a clock that restarts behind restored data cannot reorder history.
func (a *Aggregator) SeedCaptureFloor(ts int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ts > a.lastCapturedAt {
		a.lastCapturedAt = ts
	}
}
