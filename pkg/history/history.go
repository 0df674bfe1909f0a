// Package history implements bounded undo and redo over world snapshots.
//
// A snapshot is a deep copy made with [scene.World.Clone]. Callers record the
// state *before* a mutation; undo swaps the live world for the most recent
// snapshot and keeps the state it replaced for redo.
//
//	h := history.New(history.DefaultDepth)
//	h.Record(w)
//	w.ToggleAllEdges()
//	if prev, ok := h.Undo(w); ok {
//	    w = prev
//	}
package history

import "github.com/matzehuels/featuremap/pkg/scene"

// DefaultDepth is the number of undo steps kept.
const DefaultDepth = 120

// History holds the undo and redo stacks. The zero value is not usable; call
// [New].
type History struct {
	depth int
	undo  []*scene.World
	redo  []*scene.World
}

// New creates a history keeping at most depth undo snapshots. A non-positive
// depth selects [DefaultDepth].
func New(depth int) *History {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &History{depth: depth}
}

// Record pushes a snapshot of w and clears the redo stack. When the undo stack
// is full the oldest snapshot is dropped.
func (h *History) Record(w *scene.World) {
	h.undo = append(h.undo, w.Clone())
	if over := len(h.undo) - h.depth; over > 0 {
		clear(h.undo[:over])
		h.undo = h.undo[over:]
	}
	clear(h.redo)
	h.redo = h.redo[:0]
}

// Undo returns the most recent snapshot and pushes a copy of current onto the
// redo stack. It returns false when there is nothing to undo.
func (h *History) Undo(current *scene.World) (*scene.World, bool) {
	prev, ok := pop(&h.undo)
	if !ok {
		return nil, false
	}
	h.redo = append(h.redo, current.Clone())
	return prev, true
}

// Redo mirrors [History.Undo].
func (h *History) Redo(current *scene.World) (*scene.World, bool) {
	next, ok := pop(&h.redo)
	if !ok {
		return nil, false
	}
	h.undo = append(h.undo, current.Clone())
	return next, true
}

func pop(stack *[]*scene.World) (*scene.World, bool) {
	s := *stack
	if len(s) == 0 {
		return nil, false
	}
	top := s[len(s)-1]
	s[len(s)-1] = nil
	*stack = s[:len(s)-1]
	return top, true
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoDepth returns the number of undo snapshots held.
func (h *History) UndoDepth() int { return len(h.undo) }

// RedoDepth returns the number of redo snapshots held.
func (h *History) RedoDepth() int { return len(h.redo) }

// Cap returns the maximum undo depth.
func (h *History) Cap() int { return h.depth }

// Reset drops every snapshot.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}
