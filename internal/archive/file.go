package archive

import (
	"errors"
	"fmt"
	"listenerd/internal/models"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

var (
	ErrNotFound = errors.New("archive payload not found")
	ErrCorrupt  = errors.New("archive payload corrupt")
)

// writeFileAtomic writes data to path.tmp, syncs it and renames it over
// path, so readers see either the previous or the new content.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpFile := path + ".tmp"
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

	return os.Rename(tmpFile, path)
}

func writePayload(path string, p *models.ArchivePayload) error {
	p.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func readRaw(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return nil, err
	}
	return data, nil
}

func readPayload(path string) (*models.ArchivePayload, error) {
	data, err := readRaw(path)
	if err != nil {
		return nil, err
	}

	var p models.ArchivePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	if p.Series == nil {
		p.Series = make([]*models.Series, 0)
	}
	for _, s := range p.Series {
		if s == nil {
			return nil, fmt.Errorf("%w: %s: null series", ErrCorrupt, filepath.Base(path))
		}
		if s.Points == nil {
			s.Points = make([]models.SeriesPoint, 0)
		}
	}
	return &p, nil
}
