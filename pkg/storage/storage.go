// Package storage persists finished growth runs and their artifacts.
//
// A [Run] holds the tree document plus summary statistics. Run stores
// implement [Store]; artifact bytes go to an [ArtifactStore], which may be
// the same backend (sqlite, postgres, mongo, memory) or an S3 bucket.
//
// Backends live in subpackages:
//
//   - memory: process-local, used by tests and a bare `arteria serve`
//   - sqlite: a single file, the CLI default for --store
//   - postgres: shared relational store (pgx driver)
//   - mongo: shared document store
//   - s3: artifact uploads only
package storage

import (
	"context"
	"errors"
	"regexp"
	"time"

	arteriaio "github.com/matzehuels/arteria/pkg/io"
	"github.com/matzehuels/arteria/pkg/pipeline"
)

var (
	// ErrNotFound is returned when a run or artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned for run IDs that are not UUID-shaped.
	ErrInvalidID = errors.New("invalid run id")
)

// Summary holds the headline numbers of a run.
type Summary struct {
	Terminals int     `json:"terminals" bson:"terminals"`
	Segments  int     `json:"segments" bson:"segments"`
	MaxDepth  int     `json:"max_depth" bson:"max_depth"`
	Volume    float64 `json:"volume" bson:"volume"`
}

// RunInfo is a run without its document, as returned by [Store.ListRuns].
type RunInfo struct {
	ID         string    `json:"id" bson:"_id"`
	Label      string    `json:"label" bson:"label"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	ParamsHash string    `json:"params_hash" bson:"params_hash"`
	TreeHash   string    `json:"tree_hash" bson:"tree_hash"`
	Summary    Summary   `json:"summary" bson:"summary"`
	Formats    []string  `json:"formats,omitempty" bson:"formats,omitempty"`
}

// Run is a persisted growth run.
type Run struct {
	RunInfo  `bson:",inline"`
	Document *arteriaio.Document `json:"document" bson:"document"`
}

// Store persists runs.
type Store interface {
	// SaveRun inserts or replaces a run.
	SaveRun(ctx context.Context, run *Run) error
	// GetRun returns the run with the given ID, or ErrNotFound.
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]RunInfo, error)
	Close() error
}

// ArtifactStore persists rendered artifacts by run and format.
type ArtifactStore interface {
	PutArtifact(ctx context.Context, runID, format string, data []byte) error
	// GetArtifact returns the artifact bytes, or ErrNotFound.
	GetArtifact(ctx context.Context, runID, format string) ([]byte, error)
}

var idRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateID reports whether id looks like a run ID.
func ValidateID(id string) error {
	if !idRegex.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

// NewRun captures a pipeline result.
func NewRun(res *pipeline.Result, label string) *Run {
	formats := make([]string, 0, len(res.Artifacts))
	for _, f := range pipeline.Formats {
		if _, ok := res.Artifacts[f]; ok {
			formats = append(formats, f)
		}
	}
	return &Run{
		RunInfo: RunInfo{
			ID:         res.RunID,
			Label:      label,
			CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
			ParamsHash: res.Document.Params.Hash(),
			TreeHash:   res.TreeHash,
			Summary: Summary{
				Terminals: res.Stats.Terminals,
				Segments:  res.Stats.Segments,
				MaxDepth:  res.Stats.MaxDepth,
				Volume:    res.Stats.Volume,
			},
			Formats: formats,
		},
		Document: res.Document,
	}
}

// SaveResult stores the run and every artifact of res. arts may be nil to
// skip artifacts.
func SaveResult(ctx context.Context, s Store, arts ArtifactStore, res *pipeline.Result, label string) (*Run, error) {
	run := NewRun(res, label)
	if err := s.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	if arts == nil {
		return run, nil
	}
	for _, f := range run.Formats {
		if err := arts.PutArtifact(ctx, run.ID, f, res.Artifacts[f]); err != nil {
			return nil, err
		}
	}
	return run, nil
}
