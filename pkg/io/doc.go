// Package io provides JSON import and export for grown vessel trees.
//
// # Overview
//
// A [Document] is the persisted form of a growth run: the parameters it was
// grown with, the sampled terminal points and every segment of the tree. The
// same document is written to disk by the CLI, cached, and stored by every
// backend in pkg/storage (the bson tags serve the MongoDB store).
//
// # JSON Format
//
//	{
//	  "params":   {"perfusion_radius": 100, "terminals": 2, ...},
//	  "points":   [{"x": 20, "y": 0}, {"x": 0, "y": 25}],
//	  "segments": [
//	    {"id": 0, "parent": -1, "children": [1, 2],
//	     "start": {"x": -100, "y": 0}, "end": {"x": 3.1, "y": 0},
//	     "radius": 0.0021, "flow": 8.33e-6,
//	     "pressure_in": 13300, "pressure_out": 9120.4},
//	    ...
//	  ]
//	}
//
// Segment IDs are dense and assigned in breadth-first order, so the root is
// always segment 0 with parent -1. A segment's start is implied by its
// parent's end on import.
//
// # Import
//
// Use [ImportJSON] to read a document from a file path, or [ReadJSON] to read
// from any io.Reader. [Document.Tree] rebuilds the vessel tree and reports
// malformed topology (unknown IDs, a second root, a node listed twice).
//
//	doc, err := io.ImportJSON("tree.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t, err := doc.Tree()
//
// # Export
//
// Use [NewDocument] to capture a tree, then [ExportJSON] or [WriteJSON].
package io
