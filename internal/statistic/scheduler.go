package statistic

import (
	"context"
	"errors"
	"fmt"
	"listenerd/internal/archive"
	"listenerd/internal/collector"
	"listenerd/internal/models"
	"listenerd/internal/providers"
	"listenerd/internal/services"
	"listenerd/internal/statistic/interfaces"
	"listenerd/internal/structures"
	"sync"
	"time"

	"github.com/roylee0704/gron"
)

var ErrPassInProgress = errors.New("collection pass already in progress")

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	service     services.ListenerServiceInterface
	aggregator  collector.AggregatorInterface
	archive     archive.ArchiveInterface
	mirror      archive.SampleMirrorInterface
	cache       providers.CacheProviderInterface
	metrics     providers.MetricsProviderInterface
	fileManager *FileManager
	cron        *gron.Cron

	// passMu is held for the whole collection pass, opsMu only around the
	// live snapshot file.
	passMu sync.Mutex
	opsMu  sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(
	config *structures.Config,
	logger providers.Logger,
	service services.ListenerServiceInterface,
	aggregator collector.AggregatorInterface,
	arch archive.ArchiveInterface,
	mirror archive.SampleMirrorInterface,
	cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface,
	fileManager *FileManager,
) interfaces.SchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:      config,
		logger:      logger,
		service:     service,
		aggregator:  aggregator,
		archive:     arch,
		mirror:      mirror,
		cache:       cache,
		metrics:     metrics,
		fileManager: fileManager,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Collector.Interval), s.tick)

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		if err := s.Persist(); err == nil {
			s.logger.Debugf(providers.TypeApp, "Persisted live snapshot to %s", s.config.Persistence.FilePath)
		}
	})

	s.cron.Start()
	go s.tick()
}

func (s *Scheduler) tick() {
	_, err := s.RunOnce(s.ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrPassInProgress):
		s.logger.Warnf(providers.TypeCollector, "Previous collection pass still running, tick skipped")
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Errorf(providers.TypeCollector, "Collection pass failed: %s", err)
	}
}

// RunOnce performs one collection pass: collect, append to the archive,
// record into the mirror and publish the live snapshot. Passes never run
// concurrently; a call made while one is running returns ErrPassInProgress.
// The live snapshot is published even when the archive write fails, and the
// archive error is returned.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.Snapshot, error) {
	if !s.passMu.TryLock() {
		return nil, ErrPassInProgress
	}
	defer s.passMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { s.metrics.ObserveCycleDuration(time.Since(start)) }()

	snap := s.aggregator.Collect(ctx)

	archiveErr := s.archive.Append(snap)
	if archiveErr != nil {
		archiveErr = fmt.Errorf("archive append for cycle %s: %w", snap.CycleID, archiveErr)
	}

	if err := s.mirror.Record(ctx, snap); err != nil {
		s.logger.Warnf(providers.TypeArchive, "Sample mirror record for cycle %s failed: %s", snap.CycleID, err)
	}

	s.service.PutSnapshot(snap)
	s.cache.Clear()

	s.logger.Infof(providers.TypeCollector, "Cycle %s: %d listeners, %d entities, %d offline in %s",
		snap.CycleID, snap.TotalListeners, len(snap.Entities), snap.OfflineCount(), time.Since(start))

	return snap, archiveErr
}

// Stop cancels the scheduler context and waits for an in-flight pass to
// return. Passes started afterwards see the cancelled context and do nothing.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.passMu.Lock()
	defer s.passMu.Unlock()
}

// Restore loads the persisted archive and then the last live snapshot. The
// newest restored timestamp becomes the aggregator's capture floor.
func (s *Scheduler) Restore() error {
	if err := s.archive.Restore(); err != nil {
		return fmt.Errorf("restore archive: %w", err)
	}
	if err := s.fileManager.LoadFromFile(s.config.Persistence.FilePath); err != nil {
		return fmt.Errorf("restore live snapshot: %w", err)
	}

	if floor := max(s.archive.LatestTimestamp(), s.service.LastCycleAt()); floor > 0 {
		s.aggregator.SeedCaptureFloor(floor)
		s.logger.Debugf(providers.TypeCollector, "Capture time floor set to %d", floor)
	}
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting live snapshot: %s", err)
		return err
	}
	s.metrics.ObservePersistenceDuration(time.Since(start))
	return nil
}
