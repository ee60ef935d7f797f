package statistic

import (
	"errors"
	"fmt"
	"listenerd/internal/models"
	"listenerd/internal/providers"
	"listenerd/internal/services"
	"listenerd/internal/statistic/interfaces"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

var ErrSnapshotCorrupt = errors.New("live snapshot file is corrupt")

// FileManager keeps the live snapshot across restarts as zstd compressed JSON.
type FileManager struct {
	service    services.ListenerServiceInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, service services.ListenerServiceInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		service:    service,
		logger:     logger,
	}
}

// SaveToFile writes the current snapshot. Nothing is written before the
// first cycle so an older file on disk is never replaced by an empty one.
func (f *FileManager) SaveToFile(fileName string) error {
	snap := f.service.GetSnapshot()
	if snap == nil {
		f.logger.Debugf(providers.TypeApp, "No live snapshot to persist yet")
		return nil
	}

	jsonData, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores the snapshot saved by SaveToFile. A missing file is
// not an error.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(decompressedData, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if snap.Entities == nil {
		return ErrSnapshotCorrupt
	}

	f.service.PutSnapshot(&snap)
	f.logger.Infof(providers.TypeApp, "Restored live snapshot %s with %d entities", snap.CycleID, len(snap.Entities))
	return nil
}
