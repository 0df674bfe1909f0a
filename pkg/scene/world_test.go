package scene

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func newTestWorld(t *testing.T) (*World, *Node, *Node) {
	t.Helper()
	w := New()
	g, err := w.AddGroup("G1", Point{})
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	f, err := w.AddFeature(g.ID, "F1", Point{X: 10, Y: 10})
	if err != nil {
		t.Fatalf("AddFeature: %v", err)
	}
	return w, g, f
}

func TestAddGroup(t *testing.T) {
	w := New()
	g1, err := w.AddGroup("  Alpha ", Point{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	g2, _ := w.AddGroup("Beta", Point{})

	if g1.Name != "Alpha" {
		t.Errorf("name = %q, want trimmed %q", g1.Name, "Alpha")
	}
	if g1.R != GroupRadius || !g1.Visible || g1.Note != nil {
		t.Errorf("unexpected defaults: %+v", g1)
	}
	if g1.Color != Palette[0] || g2.Color != Palette[1] {
		t.Errorf("colors = %s, %s; want palette order", g1.Color, g2.Color)
	}
	if w.Meta.NextGroupIx != 2 {
		t.Errorf("NextGroupIx = %d, want 2", w.Meta.NextGroupIx)
	}
	if g1.ID == g2.ID {
		t.Error("ids must be unique")
	}

	if _, err := w.AddGroup("   ", Point{}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name error = %v, want ErrEmptyName", err)
	}
}

func TestAddFeature(t *testing.T) {
	w, g, f := newTestWorld(t)

	if f.GroupID != g.ID || f.Color != g.Color || f.R != FeatureRadius {
		t.Errorf("feature not bound to group: %+v", f)
	}

	tests := []struct {
		name    string
		groupID string
		want    error
	}{
		{"UnknownGroup", "missing", ErrUnknownGroup},
		{"FeatureAsParent", f.ID, ErrNotAGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := w.NodeCount()
			if _, err := w.AddFeature(tt.groupID, "x", Point{}); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if w.NodeCount() != before {
				t.Error("rejected feature must not be appended")
			}
		})
	}
}

func TestAddEdge(t *testing.T) {
	w, g, f := newTestWorld(t)

	e, err := w.AddEdge(g.ID, f.ID)
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if !e.Visible || e.Label != "" || e.ImageRef != nil || e.ImageSize != DefaultImageSize {
		t.Errorf("unexpected edge defaults: %+v", e)
	}
	if _, err := w.AddEdge(g.ID, f.ID); err != nil {
		t.Errorf("parallel edge should be allowed: %v", err)
	}

	if _, err := w.AddEdge(g.ID, g.ID); !errors.Is(err, ErrSelfLoop) {
		t.Errorf("self loop err = %v, want ErrSelfLoop", err)
	}
	if _, err := w.AddEdge(g.ID, "nope"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("dangling err = %v, want ErrUnknownNode", err)
	}
	if w.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", w.EdgeCount())
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestNotesAndEdges(t *testing.T) {
	w, g, f := newTestWorld(t)
	e, _ := w.AddEdge(g.ID, f.ID)

	if err := w.SetNote(f.ID, "  hello  "); err != nil {
		t.Fatal(err)
	}
	if f.NoteText() != "hello" {
		t.Errorf("note = %q, want %q", f.NoteText(), "hello")
	}
	_ = w.SetNote(f.ID, "   ")
	if f.HasNote() {
		t.Error("blank note should clear")
	}
	if err := w.SetNote("missing", "x"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("err = %v, want ErrUnknownNode", err)
	}

	_ = w.UpdateEdge(e.ID, EdgeUpdate{Label: "uses", ImageRef: "https://example.com/a.png", ImageSize: 64})
	if e.Label != "uses" || e.ImageRef == nil || e.ImageSize != 64 {
		t.Errorf("update not applied: %+v", e)
	}
	_ = w.UpdateEdge(e.ID, EdgeUpdate{Label: "calls", ImageSize: 80})
	if e.ImageRef == nil {
		t.Error("empty image ref must keep the current image")
	}
	_ = w.ClearEdgeImage(e.ID)
	if e.ImageRef != nil {
		t.Error("ClearEdgeImage should drop the image")
	}
	if err := w.UpdateEdge("missing", EdgeUpdate{}); !errors.Is(err, ErrUnknownEdge) {
		t.Errorf("err = %v, want ErrUnknownEdge", err)
	}
}

func TestToggleEdges(t *testing.T) {
	w, g, f := newTestWorld(t)
	other, _ := w.AddGroup("G2", Point{X: 500})
	e1, _ := w.AddEdge(g.ID, f.ID)
	e2, _ := w.AddEdge(other.ID, g.ID)
	e3, _ := w.AddEdge(other.ID, f.ID)

	if n := w.ToggleEdgesOf(g.ID); n != 2 {
		t.Errorf("toggled %d edges, want 2", n)
	}
	if e1.Visible || e2.Visible || !e3.Visible {
		t.Errorf("visibility = %v %v %v, want false false true", e1.Visible, e2.Visible, e3.Visible)
	}

	w.ToggleAllEdges()
	if e1.Visible || e2.Visible || e3.Visible {
		t.Error("ToggleAllEdges with one visible edge should hide all")
	}
	w.ToggleAllEdges()
	if !e1.Visible || !e2.Visible || !e3.Visible {
		t.Error("ToggleAllEdges with none visible should show all")
	}
}

func TestResizeFloor(t *testing.T) {
	n := &Node{R: 30}
	n.Resize(3)
	if n.R != MinRadius {
		t.Errorf("R = %v, want %v", n.R, MinRadius)
	}
	n.Resize(40)
	if n.R != 40 {
		t.Errorf("R = %v, want 40", n.R)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(w *World, g, f *Node)
		want   error
	}{
		{"Valid", func(w *World, g, f *Node) {}, nil},
		{"EmptyID", func(w *World, g, f *Node) { f.ID = "" }, ErrInvalidNodeID},
		{"DuplicateID", func(w *World, g, f *Node) { f.ID = g.ID; f.GroupID = g.ID }, ErrDuplicateID},
		{"BadKind", func(w *World, g, f *Node) { f.Kind = "circle" }, ErrInvalidKind},
		{"ZeroRadius", func(w *World, g, f *Node) { g.R = 0 }, ErrInvalidRadius},
		{"OrphanFeature", func(w *World, g, f *Node) { f.GroupID = "gone" }, ErrUnknownGroup},
		{"FeatureParent", func(w *World, g, f *Node) { f.GroupID = f.ID }, ErrNotAGroup},
		{"DanglingEdge", func(w *World, g, f *Node) {
			w.Edges = append(w.Edges, &Edge{ID: "e", AID: g.ID, BID: "gone"})
		}, ErrUnknownNode},
		{"SelfLoop", func(w *World, g, f *Node) {
			w.Edges = append(w.Edges, &Edge{ID: "e", AID: g.ID, BID: g.ID})
		}, ErrSelfLoop},
		{"EdgeIDClash", func(w *World, g, f *Node) {
			w.Edges = append(w.Edges, &Edge{ID: g.ID, AID: g.ID, BID: f.ID})
		}, ErrDuplicateID},
		{"ZeroScale", func(w *World, g, f *Node) { w.Camera.Scale = 0 }, ErrInvalidScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, g, f := newTestWorld(t)
			tt.mutate(w, g, f)
			err := w.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	w, g, f := newTestWorld(t)
	_ = w.SetNote(f.ID, "original")
	e, _ := w.AddEdge(g.ID, f.ID)
	_ = w.UpdateEdge(e.ID, EdgeUpdate{ImageRef: "img", ImageSize: 10})

	c := w.Clone()

	f.X = 999
	*f.Note = "mutated"
	*e.ImageRef = "mutated"
	e.Visible = false
	w.Camera.X = 50
	w.Nodes = append(w.Nodes, &Node{ID: "extra"})

	cf, _ := c.Node(f.ID)
	ce, _ := c.Edge(e.ID)
	if cf.X == 999 || cf.NoteText() != "original" {
		t.Errorf("clone node shares state: %+v", cf)
	}
	if *ce.ImageRef != "img" || !ce.Visible {
		t.Errorf("clone edge shares state: %+v", ce)
	}
	if c.Camera.X != 0 || c.NodeCount() != 2 {
		t.Error("clone aggregate shares state")
	}
}

func TestBuildFromSource(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	src := Source{Groups: []SourceGroup{
		{Name: "orders", Features: []string{"id", "total"}},
		{Name: "customers", Features: []string{"email"}},
		{Name: "empty"},
	}}
	settings := Settings{ShowNotes: false, ShowIndicators: true}

	w := BuildFromSource(src, rng, settings)

	if err := w.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if w.NodeCount() != 6 {
		t.Fatalf("NodeCount = %d, want 6", w.NodeCount())
	}
	if w.Settings != settings {
		t.Error("settings should carry over")
	}
	if w.Camera != (Camera{Scale: 1}) {
		t.Errorf("camera = %+v, want reset", w.Camera)
	}

	groups := w.Groups()
	names := []string{groups[0].Name, groups[1].Name, groups[2].Name}
	if names[0] != "customers" || names[1] != "empty" || names[2] != "orders" {
		t.Errorf("group order = %v, want sorted by name", names)
	}
	if groups[0].Color != Palette[0] || groups[2].Color != Palette[2] {
		t.Error("palette should follow sorted group index")
	}
	feats := w.Features(groups[2].ID)
	if len(feats) != 2 || feats[0].Name != "id" || feats[1].Name != "total" {
		t.Errorf("features = %v, want source order", feats)
	}
	if feats[0].R != SourceFeatureRadius || feats[0].Color != groups[2].Color {
		t.Errorf("feature defaults wrong: %+v", feats[0])
	}
}

func TestTree(t *testing.T) {
	w := New()
	b, _ := w.AddGroup("beta", Point{})
	a, _ := w.AddGroup("Alpha", Point{})
	_, _ = w.AddFeature(b.ID, "zeta", Point{})
	_, _ = w.AddFeature(b.ID, "eta", Point{})

	tree := w.Tree()
	if len(tree) != 2 || tree[0].Group != a || tree[1].Group != b {
		t.Fatalf("tree groups not sorted case-insensitively")
	}
	if len(tree[1].Features) != 2 || tree[1].Features[0].Name != "eta" {
		t.Errorf("features not sorted: %v", tree[1].Features)
	}
}

func TestColorForWraps(t *testing.T) {
	if ColorFor(len(Palette)) != Palette[0] {
		t.Error("ColorFor should wrap")
	}
	if ColorFor(-1) != Palette[len(Palette)-1] {
		t.Error("ColorFor should handle negative slots")
	}
}
