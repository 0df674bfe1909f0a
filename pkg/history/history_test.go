package history

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/matzehuels/featuremap/pkg/scene"
)

func TestUndoRedoSymmetry(t *testing.T) {
	w := scene.New()
	g, _ := w.AddGroup("G", scene.Point{})
	_, _ = w.AddFeature(g.ID, "F", scene.Point{X: 5})
	h := New(0)

	pre := w.Clone()
	h.Record(w)
	_ = w.SetNote(g.ID, "changed")
	g.X = 42
	post := w.Clone()

	undone, ok := h.Undo(w)
	if !ok {
		t.Fatal("Undo() returned false")
	}
	if !reflect.DeepEqual(undone, pre) {
		t.Errorf("undo did not restore pre-mutation state")
	}
	if !h.CanRedo() {
		t.Fatal("redo should be available after undo")
	}

	redone, ok := h.Redo(undone)
	if !ok {
		t.Fatal("Redo() returned false")
	}
	if !reflect.DeepEqual(redone, post) {
		t.Errorf("redo did not restore post-mutation state")
	}
	if h.UndoDepth() != 1 || h.RedoDepth() != 0 {
		t.Errorf("depths = %d/%d, want 1/0", h.UndoDepth(), h.RedoDepth())
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	w := scene.New()
	g, _ := w.AddGroup("G", scene.Point{})
	h := New(5)

	h.Record(w)
	g.Name = "renamed"
	g.X = 99

	prev, _ := h.Undo(w)
	pg, _ := prev.Node(g.ID)
	if pg.Name != "G" || pg.X != 0 {
		t.Errorf("snapshot aliased live world: %+v", pg)
	}
	if pg == g {
		t.Error("snapshot shares node pointer with live world")
	}
}

func TestRecordClearsRedo(t *testing.T) {
	w := scene.New()
	h := New(5)
	h.Record(w)
	w2, _ := h.Undo(w)
	if !h.CanRedo() {
		t.Fatal("expected redo")
	}
	h.Record(w2)
	if h.CanRedo() {
		t.Error("Record should clear redo")
	}
}

func TestDepthCap(t *testing.T) {
	w := scene.New()
	h := New(DefaultDepth)

	for i := 0; i < DefaultDepth+30; i++ {
		_, _ = w.AddGroup("g"+strconv.Itoa(i), scene.Point{})
		h.Record(w)
		if h.UndoDepth() > DefaultDepth {
			t.Fatalf("depth %d exceeds cap", h.UndoDepth())
		}
	}
	if h.UndoDepth() != DefaultDepth {
		t.Fatalf("depth = %d, want %d", h.UndoDepth(), DefaultDepth)
	}

	// unwind everything: the oldest kept snapshot holds 31 groups,
	// the first 30 recordings having been evicted
	var last *scene.World
	for h.CanUndo() {
		last, _ = h.Undo(w)
		w = last
	}
	if n := last.NodeCount(); n != 31 {
		t.Errorf("oldest snapshot has %d nodes, want 31", n)
	}
}

func TestEmptyStacks(t *testing.T) {
	h := New(3)
	w := scene.New()
	if _, ok := h.Undo(w); ok {
		t.Error("Undo on empty history should fail")
	}
	if _, ok := h.Redo(w); ok {
		t.Error("Redo on empty history should fail")
	}
	h.Record(w)
	h.Reset()
	if h.CanUndo() || h.Cap() != 3 {
		t.Error("Reset should drop snapshots and keep the cap")
	}
}
