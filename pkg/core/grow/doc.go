// Package grow builds an arterial tree by constrained constructive
// optimization: terminals are added one at a time and every insertion leaves
// the tree hemodynamically consistent.
//
// # Growth
//
// The first terminal creates the root vessel from the inlet at (−R, 0). Each
// following terminal is attached where the tree passes closest to it:
// [Builder.FindSite] walks every segment breadth-first and samples candidate
// sites at a fixed step along it. The chosen segment is split into an
// upstream half, a downstream half that inherits the original children, and a
// new leaf reaching the terminal.
//
// # Consistency
//
// Insertion is planned before anything is mutated. The plan solves the new
// junction with [junction.Solver] and then re-solves every ancestor junction
// up to the root, treating each child subtree as one equivalent vessel whose
// length reproduces the subtree's resistance. Applying the plan rescales each
// child subtree uniformly to its solved radius, which preserves Murray's law
// inside the subtree, and then re-derives all pressures from the inlet down.
// The inlet stays at the configured inlet pressure and every terminal drains
// at the terminal pressure.
//
// A failed plan returns an [*InsertionError] and leaves the tree untouched.
package grow
