package services

import (
	"listenerd/internal/models"
	"sort"
	"sync"

	"go.uber.org/atomic"
)

type ListenerServiceInterface interface {
	PutSnapshot(snap *models.Snapshot)
	GetSnapshot() *models.Snapshot
	GetEntities() []string
	LastCycleAt() int64
	CycleCount() int64
}

type ListenerService struct {
	mu       sync.RWMutex
	snapshot *models.Snapshot

	lastCycleAt atomic.Int64
	cycles      atomic.Int64
}

func NewListenerService() ListenerServiceInterface {
	return &ListenerService{}
}

// PutSnapshot replaces the live snapshot. Older snapshots never overwrite a
// newer one.
func (ls *ListenerService) PutSnapshot(snap *models.Snapshot) {
	if snap == nil {
		return
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.snapshot != nil && snap.CapturedAt < ls.snapshot.CapturedAt {
		return
	}
	ls.snapshot = snap
	ls.lastCycleAt.Store(snap.CapturedAt)
	ls.cycles.Inc()
}

func (ls *ListenerService) GetSnapshot() *models.Snapshot {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.snapshot
}

func (ls *ListenerService) GetEntities() []string {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	if ls.snapshot == nil {
		return []string{}
	}
	ids := make([]string, 0, len(ls.snapshot.Entities))
	for id := range ls.snapshot.Entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (ls *ListenerService) LastCycleAt() int64 {
	return ls.lastCycleAt.Load()
}

func (ls *ListenerService) CycleCount() int64 {
	return ls.cycles.Load()
}
