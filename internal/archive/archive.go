// Package archive accumulates snapshots into named series persisted as JSON
// payloads: a bounded rolling window, the full history and optional
// monthly and yearly buckets.
package archive

import (
	"errors"
	"fmt"
	"listenerd/internal/models"
	"listenerd/internal/providers"
	"listenerd/internal/structures"
	"path/filepath"
	"sync"
	"time"
)

const (
	rollingFile = "data_24h.json"
	fullFile    = "data_all.json"
)

type ArchiveInterface interface {
	Restore() error
	Append(snap *models.Snapshot) error
	Load(r models.ArchiveRange) (*models.ArchivePayload, error)
	LoadRaw(r models.ArchiveRange) ([]byte, error)
	Keys(kind models.RangeKind) []string
	LatestTimestamp() int64
}

type namedValue struct {
	name  string
	value float64
}

type Archive struct {
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	dir     string
	window  time.Duration
	buckets *BucketStore

	mu      sync.Mutex
	rolling *models.ArchivePayload
	full    *models.ArchivePayload
}

func NewArchive(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) ArchiveInterface {
	a := &Archive{
		conf:    conf,
		logger:  logger,
		metrics: metrics,
		dir:     conf.Archive.Dir,
		window:  conf.Archive.RollingWindow,
		rolling: models.NewArchivePayload(models.ArchiveRange{Kind: models.RangeRolling}),
		full:    models.NewArchivePayload(models.ArchiveRange{Kind: models.RangeFull}),
	}
	if conf.Archive.Buckets {
		a.buckets = NewBucketStore(conf.Archive.Dir, logger)
	}
	return a
}

// Restore loads the persisted rolling and full payloads. Missing files start
// empty; a corrupt file is an error because appending to it would drop
// history.
func (a *Archive) Restore() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, target := range []struct {
		file string
		dst  **models.ArchivePayload
	}{
		{rollingFile, &a.rolling},
		{fullFile, &a.full},
	} {
		p, err := readPayload(filepath.Join(a.dir, target.file))
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return err
		}
		*target.dst = p
		a.logger.Infof(providers.TypeArchive, "Restored %s: %d series, %d points", target.file, len(p.Series), p.PointCount())
	}
	a.rolling.Range = models.RangeRolling
	a.full.Range = models.RangeFull

	if a.buckets != nil {
		return a.buckets.RestoreIndex()
	}
	return nil
}

// Append adds one point per history entity plus one Total point at the
// snapshot's capture time, evicts rolling points older than the window and
// persists every payload touched. Any write error is returned.
func (a *Archive) Append(snap *models.Snapshot) error {
	if snap == nil {
		return errors.New("archive: nil snapshot")
	}
	values := a.historyValues(snap)
	ts := snap.CapturedAt

	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	for _, v := range values {
		point := models.SeriesPoint{Timestamp: ts, Value: v.value}
		rs := a.rolling.Ensure(v.name)
		rs.Points = append(rs.Points, point)
		fs := a.full.Ensure(v.name)
		fs.Points = append(fs.Points, point)
	}
	a.evict(ts - a.window.Milliseconds())

	if err := writePayload(filepath.Join(a.dir, rollingFile), a.rolling); err != nil {
		return fmt.Errorf("write rolling payload: %w", err)
	}
	if err := writePayload(filepath.Join(a.dir, fullFile), a.full); err != nil {
		return fmt.Errorf("write full payload: %w", err)
	}
	if a.buckets != nil {
		if err := a.buckets.Append(ts, values); err != nil {
			return fmt.Errorf("write buckets: %w", err)
		}
	}

	a.metrics.ObservePersistenceDuration(time.Since(start))
	for _, s := range a.rolling.Series {
		a.metrics.SetSeriesPoints(s.Name, len(s.Points))
	}
	return nil
}

// historyValues lists the values written for a snapshot: entities flagged for
// history in configuration order, then Total.
func (a *Archive) historyValues(snap *models.Snapshot) []namedValue {
	values := make([]namedValue, 0, len(a.conf.Entities)+1)
	for _, e := range a.conf.Entities {
		rec, ok := snap.Get(e.ID)
		if !ok || rec == nil || !rec.IncludeInHistory {
			continue
		}
		values = append(values, namedValue{name: e.Label, value: float64(rec.Listeners)})
	}
	return append(values, namedValue{name: models.TotalSeries, value: float64(snap.TotalListeners)})
}

// evict drops rolling points older than cutoff. Series left without points
// are removed unless they are still written every cycle.
func (a *Archive) evict(cutoff int64) {
	live := map[string]struct{}{models.TotalSeries: {}}
	for _, label := range a.conf.HistoryLabels() {
		live[label] = struct{}{}
	}

	kept := a.rolling.Series[:0]
	for _, s := range a.rolling.Series {
		points := s.Points[:0]
		for _, p := range s.Points {
			if p.Timestamp >= cutoff {
				points = append(points, p)
			}
		}
		s.Points = points
		if _, ok := live[s.Name]; ok || len(points) > 0 {
			kept = append(kept, s)
		}
	}
	a.rolling.Series = kept
}

// Load reads a payload back from disk in stored order.
// LatestTimestamp is the newest point in the full history, 0 when empty.
func (a *Archive) LatestTimestamp() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var latest int64
	for _, s := range a.full.Series {
		if n := len(s.Points); n > 0 && s.Points[n-1].Timestamp > latest {
			latest = s.Points[n-1].Timestamp
		}
	}
	return latest
}

func (a *Archive) Load(r models.ArchiveRange) (*models.ArchivePayload, error) {
	path, err := a.pathFor(r)
	if err != nil {
		return nil, err
	}
	return readPayload(path)
}

// LoadRaw returns the persisted bytes of a payload unchanged.
func (a *Archive) LoadRaw(r models.ArchiveRange) ([]byte, error) {
	path, err := a.pathFor(r)
	if err != nil {
		return nil, err
	}
	return readRaw(path)
}

// Keys lists the bucket keys of a calendar kind that hold data.
func (a *Archive) Keys(kind models.RangeKind) []string {
	if a.buckets == nil {
		return []string{}
	}
	return a.buckets.Keys(kind)
}

func (a *Archive) pathFor(r models.ArchiveRange) (string, error) {
	switch r.Kind {
	case models.RangeRolling:
		return filepath.Join(a.dir, rollingFile), nil
	case models.RangeFull:
		return filepath.Join(a.dir, fullFile), nil
	case models.RangeMonthly, models.RangeYearly:
		if !models.ValidBucketKey(r.Kind, r.Key) {
			return "", fmt.Errorf("%w: %s", models.ErrInvalidRange, r)
		}
		if a.buckets == nil || !a.buckets.Has(r.Kind, r.Key) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, r)
		}
		return a.buckets.path(r.Kind, r.Key), nil
	}
	return "", fmt.Errorf("%w: %s", models.ErrInvalidRange, r)
}
