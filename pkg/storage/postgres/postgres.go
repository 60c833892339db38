// Package postgres stores runs and artifacts in PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/matzehuels/arteria/pkg/storage"
)

const (
	driver = "pgx"

	// DefaultDSN is used when Open is given an empty DSN.
	DefaultDSN = "postgres://localhost/arteria?sslmode=disable"
)

const schema = `
CREATE TABLE IF NOT EXISTS arteria_runs (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	payload    JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS arteria_runs_created_at ON arteria_runs (created_at DESC);
CREATE TABLE IF NOT EXISTS arteria_artifacts (
	run_id TEXT NOT NULL,
	format TEXT NOT NULL,
	data   BYTEA NOT NULL,
	PRIMARY KEY (run_id, format)
);`

// Store is a PostgreSQL-backed run and artifact store.
type Store struct {
	db *sql.DB
}

var (
	_ storage.Store         = (*Store)(nil)
	_ storage.ArtifactStore = (*Store)(nil)
)

// Open connects to dsn, pings the server and ensures the tables exist.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveRun(ctx context.Context, run *storage.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO arteria_runs (id, created_at, payload) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET created_at = EXCLUDED.created_at, payload = EXCLUDED.payload`,
		run.ID, run.CreatedAt, payload)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM arteria_runs WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	var run storage.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]storage.RunInfo, error) {
	// The document is dropped server-side; only the info fields come back.
	query := `SELECT payload - 'document' FROM arteria_runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []storage.RunInfo
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var info storage.RunInfo
		if err := json.Unmarshal(payload, &info); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *Store) PutArtifact(ctx context.Context, runID, format string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO arteria_artifacts (run_id, format, data) VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, format) DO UPDATE SET data = EXCLUDED.data`,
		runID, format, data)
	if err != nil {
		return fmt.Errorf("save artifact %s/%s: %w", runID, format, err)
	}
	return nil
}

func (s *Store) GetArtifact(ctx context.Context, runID, format string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM arteria_artifacts WHERE run_id = $1 AND format = $2`, runID, format).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s/%s: %w", runID, format, err)
	}
	return data, nil
}

func (s *Store) Close() error { return s.db.Close() }
