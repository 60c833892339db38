// Package storagetest holds conformance checks shared by the storage
// backends' tests.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/arteria/pkg/config"
	arteriaio "github.com/matzehuels/arteria/pkg/io"
	"github.com/matzehuels/arteria/pkg/storage"
)

// NewRun returns a small run created at the given time.
func NewRun(created time.Time) *storage.Run {
	p := config.Default()
	p.Terminals = 1
	return &storage.Run{
		RunInfo: storage.RunInfo{
			ID:         uuid.NewString(),
			Label:      "test",
			CreatedAt:  created.UTC().Truncate(time.Millisecond),
			ParamsHash: p.Hash(),
			TreeHash:   "abc123",
			Summary:    storage.Summary{Terminals: 1, Segments: 1, Volume: 1.5e-7},
			Formats:    []string{"svg", "json"},
		},
		Document: &arteriaio.Document{
			Params: p,
			Points: []arteriaio.Point{{X: 3, Y: 4}},
			Segments: []arteriaio.Segment{{
				ID: 0, Parent: -1,
				Start: arteriaio.Point{X: -100}, End: arteriaio.Point{X: 3, Y: 4},
				Radius: 0.002, Flow: 8.33e-6, PressureIn: 13300, PressureOut: 8000,
			}},
		},
	}
}

// TestStore exercises a Store from empty.
func TestStore(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.GetRun(ctx, uuid.NewString()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetRun(missing) error = %v, want ErrNotFound", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := make([]*storage.Run, 3)
	for i := range runs {
		runs[i] = NewRun(base.Add(time.Duration(i) * time.Minute))
		runs[i].Label = fmt.Sprintf("run-%d", i)
		if err := s.SaveRun(ctx, runs[i]); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	got, err := s.GetRun(ctx, runs[1].ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	checkRun(t, got, runs[1])

	runs[1].Label = "renamed"
	if err := s.SaveRun(ctx, runs[1]); err != nil {
		t.Fatalf("SaveRun(replace): %v", err)
	}
	if got, _ := s.GetRun(ctx, runs[1].ID); got == nil || got.Label != "renamed" {
		t.Errorf("replace did not update the label: %+v", got)
	}

	all, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListRuns returned %d runs, want 3", len(all))
	}
	if all[0].ID != runs[2].ID || all[2].ID != runs[0].ID {
		t.Error("ListRuns should return newest first")
	}

	two, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 {
		t.Errorf("ListRuns(2) returned %d runs", len(two))
	}
}

func checkRun(t *testing.T, got, want *storage.Run) {
	t.Helper()
	if got.ID != want.ID || got.Label != want.Label || got.TreeHash != want.TreeHash || got.ParamsHash != want.ParamsHash {
		t.Errorf("run = %+v, want %+v", got.RunInfo, want.RunInfo)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if got.Summary != want.Summary {
		t.Errorf("Summary = %+v, want %+v", got.Summary, want.Summary)
	}
	if fmt.Sprint(got.Formats) != fmt.Sprint(want.Formats) {
		t.Errorf("Formats = %v, want %v", got.Formats, want.Formats)
	}
	if got.Document == nil || got.Document.Params != want.Document.Params || len(got.Document.Segments) != 1 {
		t.Fatalf("document not preserved: %+v", got.Document)
	}
	if !reflect.DeepEqual(got.Document.Segments[0], want.Document.Segments[0]) {
		t.Errorf("segment = %+v, want %+v", got.Document.Segments[0], want.Document.Segments[0])
	}
}

// TestArtifactStore exercises an ArtifactStore from empty.
func TestArtifactStore(t *testing.T, a storage.ArtifactStore) {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()

	if _, err := a.GetArtifact(ctx, id, "svg"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetArtifact(missing) error = %v, want ErrNotFound", err)
	}
	if err := a.PutArtifact(ctx, id, "svg", []byte("<svg/>")); err != nil {
		t.Fatalf("PutArtifact: %v", err)
	}
	if err := a.PutArtifact(ctx, id, "svg", []byte("<svg></svg>")); err != nil {
		t.Fatalf("PutArtifact(overwrite): %v", err)
	}
	data, err := a.GetArtifact(ctx, id, "svg")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if !bytes.Equal(data, []byte("<svg></svg>")) {
		t.Errorf("GetArtifact = %q", data)
	}
	if _, err := a.GetArtifact(ctx, id, "png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetArtifact(other format) error = %v, want ErrNotFound", err)
	}
}
