// Package scene provides the data model of a feature map: groups, features,
// the edges between them, the camera, and display settings.
//
// # Overview
//
// A [World] is the aggregate root. Its node list is ordered: the last node is
// painted last and picked first. Groups and features share one id space; a
// feature always belongs to exactly one live group.
//
// # Invariants
//
// The mutators in this package preserve these rules:
//
//   - every feature's GroupID resolves to a live group
//   - every edge endpoint resolves to a live node
//   - ids are unique and never rewritten (undo restores old ids)
//   - radii stay positive; interactive resizing floors at [MinRadius]
//
// Nodes are never removed. Hiding a node ([World.SetVisible]) is the only
// form of deletion; whole-world replacement happens on import.
//
// # Usage
//
//	w := scene.New()
//	g, _ := w.AddGroup("Billing", scene.Point{})
//	f, _ := w.AddFeature(g.ID, "Invoices", scene.Point{X: 10})
//	_, _ = w.AddEdge(g.ID, f.ID)
//	if err := w.Validate(); err != nil {
//	    // corrupted input
//	}
//
// Snapshots for undo are taken with [World.Clone], which copies every node,
// edge and optional string so later edits never leak into history.
package scene
