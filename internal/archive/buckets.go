package archive

import (
	"errors"
	"listenerd/internal/models"
	"listenerd/internal/providers"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
)

type bucketLayout struct {
	dir       string
	indexFile string
	indexKey  string
}

var layouts = map[models.RangeKind]bucketLayout{
	models.RangeMonthly: {dir: "monthly", indexFile: "monthly_index.json", indexKey: "months"},
	models.RangeYearly:  {dir: "yearly", indexFile: "yearly_index.json", indexKey: "years"},
}

var bucketKinds = []models.RangeKind{models.RangeMonthly, models.RangeYearly}

// BucketStore keeps one payload file per calendar month and year, plus an
// index file per kind listing the keys that hold data.
type BucketStore struct {
	mu     sync.RWMutex
	dir    string
	index  map[models.RangeKind]map[string]struct{}
	loaded map[models.RangeKind]*models.ArchivePayload // current bucket per kind
	logger providers.Logger
}

func NewBucketStore(dir string, logger providers.Logger) *BucketStore {
	bs := &BucketStore{
		dir:    dir,
		index:  make(map[models.RangeKind]map[string]struct{}),
		loaded: make(map[models.RangeKind]*models.ArchivePayload),
		logger: logger,
	}
	for _, kind := range bucketKinds {
		bs.index[kind] = make(map[string]struct{})
	}
	return bs
}

// RestoreIndex scans the bucket directories and rebuilds the in-memory
// index, then rewrites the index files so they match the directory.
func (bs *BucketStore) RestoreIndex() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	for _, kind := range bucketKinds {
		layout := layouts[kind]
		dir := filepath.Join(bs.dir, layout.dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}

		files, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return err
		}

		keys := make(map[string]struct{}, len(files))
		for _, file := range files {
			key := strings.TrimSuffix(filepath.Base(file), ".json")
			if !models.ValidBucketKey(kind, key) {
				continue
			}
			keys[key] = struct{}{}
		}
		bs.index[kind] = keys

		if err := bs.writeIndex(kind); err != nil {
			return err
		}
	}
	return nil
}

func (bs *BucketStore) Has(kind models.RangeKind, key string) bool {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	_, ok := bs.index[kind][key]
	return ok
}

// Keys returns the bucket keys of kind in ascending order.
func (bs *BucketStore) Keys(kind models.RangeKind) []string {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return sortedKeys(bs.index[kind])
}

// Append writes the values into the month and year buckets ts falls in.
func (bs *BucketStore) Append(ts int64, values []namedValue) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	for _, kind := range bucketKinds {
		key := models.BucketKey(kind, ts)
		p, err := bs.getOrLoad(kind, key)
		if err != nil {
			return err
		}
		for _, v := range values {
			s := p.Ensure(v.name)
			s.Points = append(s.Points, models.SeriesPoint{Timestamp: ts, Value: v.value})
		}
		if err := writePayload(bs.path(kind, key), p); err != nil {
			return err
		}

		if _, ok := bs.index[kind][key]; !ok {
			bs.logger.Infof(providers.TypeArchive, "Opened %s bucket %s", kind, key)
			bs.index[kind][key] = struct{}{}
			if err := bs.writeIndex(kind); err != nil {
				return err
			}
		}
	}
	return nil
}

// getOrLoad returns the cached payload of the current bucket, reading it from
// disk when the bucket changes. Must be called under bs.mu.Lock().
func (bs *BucketStore) getOrLoad(kind models.RangeKind, key string) (*models.ArchivePayload, error) {
	if p, ok := bs.loaded[kind]; ok && p.Key == key {
		return p, nil
	}

	r := models.ArchiveRange{Kind: kind, Key: key}
	p, err := readPayload(bs.path(kind, key))
	switch {
	case errors.Is(err, ErrNotFound):
		p = models.NewArchivePayload(r)
	case err != nil:
		return nil, err
	}
	p.Range, p.Key = kind, key
	bs.loaded[kind] = p
	return p, nil
}

func (bs *BucketStore) writeIndex(kind models.RangeKind) error {
	layout := layouts[kind]
	data, err := json.Marshal(map[string][]string{layout.indexKey: sortedKeys(bs.index[kind])})
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(bs.dir, layout.indexFile), data)
}

func (bs *BucketStore) path(kind models.RangeKind, key string) string {
	return filepath.Join(bs.dir, layouts[kind].dir, key+".json")
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
