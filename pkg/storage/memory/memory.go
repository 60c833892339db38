// Package memory is a process-local run and artifact store.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/arteria/pkg/storage"
)

// Store keeps runs and artifacts in maps. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	runs      map[string]*storage.Run
	artifacts map[string][]byte
}

var (
	_ storage.Store         = (*Store)(nil)
	_ storage.ArtifactStore = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{runs: make(map[string]*storage.Run), artifacts: make(map[string][]byte)}
}

func (s *Store) SaveRun(_ context.Context, run *storage.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *Store) GetRun(_ context.Context, id string) (*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (s *Store) ListRuns(_ context.Context, limit int) ([]storage.RunInfo, error) {
	s.mu.RLock()
	infos := make([]storage.RunInfo, 0, len(s.runs))
	for _, r := range s.runs {
		infos = append(infos, r.RunInfo)
	}
	s.mu.RUnlock()

	slices.SortFunc(infos, func(a, b storage.RunInfo) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

func (s *Store) PutArtifact(_ context.Context, runID, format string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[runID+"/"+format] = slices.Clone(data)
	return nil
}

func (s *Store) GetArtifact(_ context.Context, runID, format string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.artifacts[runID+"/"+format]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return slices.Clone(data), nil
}

func (s *Store) Close() error { return nil }
