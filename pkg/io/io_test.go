package io

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/arteria/pkg/config"
	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/grow"
	"github.com/matzehuels/arteria/pkg/core/vessel"
)

func grownDocument(t *testing.T) (*Document, *grow.Builder) {
	t.Helper()
	p := config.Default()
	p.PerfusionRadius = 50
	p.Terminals = 3
	b, err := grow.New(p.Growth(), grow.WithSolver(p.Solver()))
	if err != nil {
		t.Fatal(err)
	}
	points := []geom.Point{geom.Pt(30, 0), geom.Pt(0, 30), geom.Pt(0, -30)}
	tree, err := b.Grow(context.Background(), points)
	if err != nil {
		t.Fatal(err)
	}
	return NewDocument(p, points, tree), b
}

func TestNewDocument(t *testing.T) {
	doc, _ := grownDocument(t)
	if len(doc.Segments) != 5 {
		t.Fatalf("got %d segments, want 5", len(doc.Segments))
	}
	if doc.Segments[0].Parent != -1 {
		t.Errorf("root parent = %d, want -1", doc.Segments[0].Parent)
	}
	for i, s := range doc.Segments {
		if s.ID != i {
			t.Errorf("segment %d has id %d", i, s.ID)
		}
		for _, c := range s.Children {
			if doc.Segments[c].Parent != s.ID {
				t.Errorf("child %d of %d points to parent %d", c, s.ID, doc.Segments[c].Parent)
			}
		}
	}
	if len(doc.Points) != 3 {
		t.Errorf("got %d points, want 3", len(doc.Points))
	}
}

func TestRoundTrip(t *testing.T) {
	doc, b := grownDocument(t)

	var buf bytes.Buffer
	if err := WriteJSON(doc, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	tree, err := got.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if err := vessel.Validate(tree, b.Tolerance()); err != nil {
		t.Errorf("imported tree is inconsistent: %v", err)
	}
	again := NewDocument(got.Params, got.GeomPoints(), tree)
	if !reflect.DeepEqual(doc, again) {
		t.Error("document changed across a round trip")
	}
}

func TestExportImportFile(t *testing.T) {
	doc, _ := grownDocument(t)
	path := filepath.Join(t.TempDir(), "tree.json")
	if err := ExportJSON(doc, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if got.Params != doc.Params {
		t.Errorf("params = %+v, want %+v", got.Params, doc.Params)
	}
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"segments": [], "nodes": []}`))
	if err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestEmptyDocument(t *testing.T) {
	doc := NewDocument(config.Default(), nil, nil)
	tree, err := doc.Tree()
	if err != nil {
		t.Fatal(err)
	}
	if tree.Root() != vessel.NoNode {
		t.Error("empty document should yield an empty tree")
	}
}

func TestTreeRejectsMalformedDocuments(t *testing.T) {
	seg := func(id, parent int, children ...int) Segment {
		return Segment{ID: id, Parent: parent, Children: children, Radius: 1, Flow: 1}
	}
	tests := []struct {
		name     string
		segments []Segment
	}{
		{"no root", []Segment{seg(0, 1), seg(1, 0)}},
		{"two roots", []Segment{seg(0, -1), seg(1, -1)}},
		{"duplicate id", []Segment{seg(0, -1, 1), seg(1, 0), seg(1, 0)}},
		{"unknown child", []Segment{seg(0, -1, 7)}},
		{"child listed twice", []Segment{seg(0, -1, 1, 2), seg(1, 0, 2), seg(2, 0)}},
		{"unlisted child", []Segment{seg(0, -1), seg(1, 0)}},
		{"detached cycle", []Segment{seg(0, -1), seg(1, 2, 2), seg(2, 1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Segments: tt.segments}
			if _, err := doc.Tree(); !errors.Is(err, ErrMalformed) {
				t.Errorf("Tree() error = %v, want ErrMalformed", err)
			}
		})
	}
}
