// Package sqlite stores runs and artifacts in a single SQLite file using the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/matzehuels/arteria/pkg/storage"
)

// DefaultPath is used when Open is given an empty path.
const DefaultPath = "arteria.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	info       BLOB,
	payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at DESC);
CREATE TABLE IF NOT EXISTS artifacts (
	run_id  TEXT NOT NULL,
	format  TEXT NOT NULL,
	data    BLOB NOT NULL,
	PRIMARY KEY (run_id, format)
);`

// Store is a SQLite-backed run and artifact store.
type Store struct {
	db   *sql.DB
	path string
}

var (
	_ storage.Store         = (*Store)(nil)
	_ storage.ArtifactStore = (*Store)(nil)
)

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := addInfoColumn(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// addInfoColumn upgrades databases created before runs carried a separate
// info column. Rows without one fall back to the full payload in ListRuns.
func addInfoColumn(ctx context.Context, db *sql.DB) error {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info('runs') WHERE name = 'info'`).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, `ALTER TABLE runs ADD COLUMN info BLOB`); err != nil {
		return fmt.Errorf("add info column: %w", err)
	}
	return nil
}

func (s *Store) SaveRun(ctx context.Context, run *storage.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	info, err := json.Marshal(run.RunInfo)
	if err != nil {
		return fmt.Errorf("encode run info: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, info, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, info = excluded.info, payload = excluded.payload`,
		run.ID, run.CreatedAt.UnixMilli(), info, payload)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return decodeRun(payload)
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]storage.RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(info, payload) FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []storage.RunInfo
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		// RunInfo fields sit at the top level of a full payload too, so the
		// document is skipped rather than decoded.
		var info storage.RunInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("decode run info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *Store) PutArtifact(ctx context.Context, runID, format string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (run_id, format, data) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, format) DO UPDATE SET data = excluded.data`,
		runID, format, data)
	if err != nil {
		return fmt.Errorf("save artifact %s/%s: %w", runID, format, err)
	}
	return nil
}

func (s *Store) GetArtifact(ctx context.Context, runID, format string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM artifacts WHERE run_id = ? AND format = ?`, runID, format).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s/%s: %w", runID, format, err)
	}
	return data, nil
}

// Prune deletes runs created before cutoff together with their artifacts
// and returns the number of runs removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (n int64, retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	ms := cutoff.UnixMilli()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM artifacts WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)`, ms); err != nil {
		return 0, fmt.Errorf("prune artifacts: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, ms)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (s *Store) Close() error { return s.db.Close() }

func decodeRun(payload []byte) (*storage.Run, error) {
	var run storage.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &run, nil
}
