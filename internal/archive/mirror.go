package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"listenerd/internal/models"
	"listenerd/internal/providers"
	"listenerd/internal/structures"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrMirrorDisabled = errors.New("sample mirror disabled")

// SampleMirrorInterface keeps every cycle in SQLite so per-entity history can
// be queried by time range without loading the full payload.
type SampleMirrorInterface interface {
	Record(ctx context.Context, snap *models.Snapshot) error
	Series(ctx context.Context, entityID string, from, to int64) ([]models.SeriesPoint, error)
	Close() error
}

type migration struct {
	Version int
	Name    string
	Up      string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			CREATE TABLE IF NOT EXISTS cycles (
				id TEXT PRIMARY KEY,
				captured_at INTEGER NOT NULL,
				total_listeners INTEGER NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_cycles_captured_at ON cycles(captured_at);

			CREATE TABLE IF NOT EXISTS listener_samples (
				cycle_id TEXT NOT NULL,
				entity_id TEXT NOT NULL,
				captured_at INTEGER NOT NULL,
				listeners INTEGER NOT NULL,
				peak INTEGER,
				title TEXT,
				offline BOOLEAN NOT NULL,
				PRIMARY KEY (cycle_id, entity_id),
				FOREIGN KEY (cycle_id) REFERENCES cycles(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_samples_entity_time ON listener_samples(entity_id, captured_at);
		`,
	},
}

type SampleMirror struct {
	db     *sql.DB
	logger providers.Logger
}

// NewSampleMirror opens the database at archive.mirrorPath and applies
// pending migrations. An empty path disables the mirror.
func NewSampleMirror(conf *structures.Config, logger providers.Logger) (SampleMirrorInterface, error) {
	path := conf.Archive.MirrorPath
	if path == "" {
		logger.Infof(providers.TypeArchive, "Sample mirror disabled")
		return &noopMirror{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sample mirror: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Infof(providers.TypeArchive, "Sample mirror opened at %s", path)
	return &SampleMirror{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UnixMilli(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// Record stores one cycle and all of its entity records. Recording the same
// cycle twice is a no-op.
func (m *SampleMirror) Record(ctx context.Context, snap *models.Snapshot) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO cycles (id, captured_at, total_listeners) VALUES (?, ?, ?)",
		snap.CycleID, snap.CapturedAt, snap.TotalListeners,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listener_samples (cycle_id, entity_id, captured_at, listeners, peak, title, offline)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for id, rec := range snap.Entities {
		if rec == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			snap.CycleID, id, snap.CapturedAt, rec.Listeners,
			nullInt(rec.Peak), nullString(rec.Title), rec.Offline,
		); err != nil {
			return fmt.Errorf("failed to insert sample for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Series returns an entity's listener counts in [from, to], oldest first.
// The Total series name reads the per-cycle totals.
func (m *SampleMirror) Series(ctx context.Context, entityID string, from, to int64) ([]models.SeriesPoint, error) {
	query := "SELECT captured_at, listeners FROM listener_samples WHERE entity_id = ? AND captured_at BETWEEN ? AND ? ORDER BY captured_at"
	args := []interface{}{entityID, from, to}
	if entityID == models.TotalSeries {
		query = "SELECT captured_at, total_listeners FROM cycles WHERE captured_at BETWEEN ? AND ? ORDER BY captured_at"
		args = args[1:]
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	points := make([]models.SeriesPoint, 0)
	for rows.Next() {
		var ts, v int64
		if err := rows.Scan(&ts, &v); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		points = append(points, models.SeriesPoint{Timestamp: ts, Value: float64(v)})
	}
	return points, rows.Err()
}

func (m *SampleMirror) Close() error {
	return m.db.Close()
}

func nullInt(n models.Nullable[int]) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n.Value), Valid: n.Valid}
}

func nullString(s models.Nullable[string]) sql.NullString {
	return sql.NullString{String: s.Value, Valid: s.Valid}
}

type noopMirror struct{}

func (n *noopMirror) Record(_ context.Context, _ *models.Snapshot) error { return nil }
func (n *noopMirror) Series(_ context.Context, _ string, _, _ int64) ([]models.SeriesPoint, error) {
	return nil, ErrMirrorDisabled
}
func (n *noopMirror) Close() error { return nil }
