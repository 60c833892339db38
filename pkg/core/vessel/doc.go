// Package vessel provides the vascular segment record and the tree that owns
// the segments of a growing arterial network.
//
// # Segments
//
// A [Segment] is a straight vessel from Start to End with a radius (metres),
// a volumetric flow (m³/s) and inlet/outlet pressures (Pa). Its length is
// always derived from the endpoints, so moving an endpoint can never leave a
// stale length behind. [Drop] and [RadiusFor] apply Poiseuille's law
//
//	ΔP = 8·η·L·Q / (π·r⁴),  η = 0.0035 Pa·s
//
// with L converted from raster units to metres.
//
// # Trees
//
// A [Tree] is an arena of nodes addressed by [NodeID]. Each node owns an
// ordered child list and keeps a single parent handle; the root's parent is
// [NoNode]. Payloads and child lists change only through [Tree.SetSegment] and
// [Tree.SetChildren], and both re-anchor the affected segments so that every
// child starts exactly where its parent ends.
//
//	t := vessel.New()
//	root, _ := t.SetRoot(seg)
//	a := t.NewNode(left)
//	b := t.NewNode(right)
//	_ = t.SetChildren(root, a, b)
//
// [Validate] checks the whole-tree invariants: structural continuity, flow
// conservation, Murray's law, pressure continuity and per-segment Poiseuille
// consistency.
//
// # Concurrency
//
// A Tree is not safe for concurrent use. Growth mutates it from a single
// goroutine; readers must wait until an insertion has completed.
package vessel
