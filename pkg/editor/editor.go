package editor

import (
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/featuremap/pkg/config"
	ferrors "github.com/matzehuels/featuremap/pkg/errors"
	"github.com/matzehuels/featuremap/pkg/history"
	fmio "github.com/matzehuels/featuremap/pkg/io"
	"github.com/matzehuels/featuremap/pkg/observability"
	"github.com/matzehuels/featuremap/pkg/physics"
	"github.com/matzehuels/featuremap/pkg/pick"
	"github.com/matzehuels/featuremap/pkg/scene"
	"github.com/matzehuels/featuremap/pkg/viewport"
)

// Scales used when the camera flies to a node.
const (
	// ClickFlyScale is the minimum scale after clicking a node.
	ClickFlyScale = 0.9
	// FocusFlyScale is the minimum scale after focusing a node from the
	// sidebar.
	FocusFlyScale = 0.85
)

// Placement rings for nodes added by hand.
const (
	groupRingMin    = 200.0
	groupRingMax    = 600.0
	featureRingMin  = 40.0
	featureRingMax  = 100.0
	featureRingStep = 0.25
)

// Options configures an Editor. The zero value is usable: every unset field
// falls back to its default.
type Options struct {
	Physics      physics.Params
	HistoryDepth int
	PickPadding  float64
	FlyDuration  time.Duration

	// Logger receives debug traces of imports and history operations.
	Logger *log.Logger

	// Rand places nodes added by hand and by source imports.
	Rand *rand.Rand

	// Now is the clock used for animations and frame timing.
	Now func() time.Time
}

// OptionsFromConfig maps the configuration onto editor options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Physics:      cfg.Physics,
		HistoryDepth: cfg.History.Depth,
		PickPadding:  cfg.View.PickPadding,
		FlyDuration:  cfg.View.FlyDuration(),
	}
}

// Editor owns a world and everything needed to edit it interactively.
type Editor struct {
	world    *scene.World
	history  *history.History
	animator *viewport.Animator
	picker   *pick.Picker
	params   physics.Params
	size     viewport.Size
	logger   *log.Logger
	rng      *rand.Rand
	now      func() time.Time
	lastTick time.Time
	revision uint64

	// selection
	selection     map[string]bool
	selectedID    string
	selectedGroup string
	hoverID       string
	mouse         scene.Point

	g gesture
}

// New creates an editor for w. A nil world starts from [scene.DefaultSource].
func New(w *scene.World, opts Options) *Editor {
	if opts.Physics == (physics.Params{}) {
		opts.Physics = physics.DefaultParams()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	padding := opts.PickPadding
	if padding == 0 {
		padding = pick.DefaultPadding
	}

	e := &Editor{
		history:   history.New(opts.HistoryDepth),
		animator:  viewport.NewAnimator(opts.FlyDuration),
		picker:    pick.New(padding),
		params:    opts.Physics,
		logger:    opts.Logger,
		rng:       opts.Rand,
		now:       opts.Now,
		selection: make(map[string]bool),
	}
	if w == nil {
		w = scene.BuildFromSource(scene.DefaultSource(), e.rng, scene.DefaultSettings())
	}
	e.world = w
	return e
}

// World returns the live world. Callers must treat it as read-only and go
// through the editor for every change.
func (e *Editor) World() *scene.World { return e.world }

// History returns the undo history.
func (e *Editor) History() *history.History { return e.history }

// Revision counts recorded changes, undos and redos. Hosts compare it with
// the revision they last saved to detect unsaved work.
func (e *Editor) Revision() uint64 { return e.revision }

// Mode returns the active interaction mode.
func (e *Editor) Mode() Mode { return e.g.mode }

// SetViewportSize tells the editor how large the drawing area is, in screen
// pixels. Fly-to animations center nodes in it.
func (e *Editor) SetViewportSize(width, height float64) {
	e.size = viewport.Size{Width: width, Height: height}
}

// ViewportSize returns the size set by [Editor.SetViewportSize].
func (e *Editor) ViewportSize() viewport.Size { return e.size }

// =============================================================================
// Frames
// =============================================================================

// Tick advances the fly-to animation and runs one layout step. The step is
// scaled by the time since the previous tick; the first tick counts as one
// frame.
func (e *Editor) Tick() physics.Stats {
	now := e.now()
	dt := 1.0
	if !e.lastTick.IsZero() {
		dt = physics.Frames(now.Sub(e.lastTick))
	}
	e.lastTick = now

	e.animator.Step(now, &e.world.Camera)

	start := time.Now()
	stats := physics.Step(e.world, e.params, dt, e.pinned())
	observability.Editor().OnTick(time.Since(start), stats.Groups, stats.Springs)
	return stats
}

// Animating reports whether a fly-to is in progress.
func (e *Editor) Animating() bool { return e.animator.Active() }

// FlyTo starts an animation that centers the node at the given minimum
// scale. The target scale is max(minScale, current scale), clamped to the
// fly-to bounds.
func (e *Editor) FlyTo(id string, minScale float64) error {
	n, ok := e.world.Node(id)
	if !ok {
		return ferrors.New(ferrors.ErrCodeNotFound, "unknown node %q", id)
	}
	e.flyTo(n, minScale)
	return nil
}

func (e *Editor) flyTo(n *scene.Node, minScale float64) {
	cam := e.world.Camera
	to := viewport.Center(scene.Point{X: n.X, Y: n.Y}, e.size, math.Max(minScale, cam.Scale))
	e.animator.FlyTo(e.now(), cam, to)
}

// =============================================================================
// History
// =============================================================================

// record pushes a snapshot of the current world before a mutation.
func (e *Editor) record(action string) {
	e.history.Record(e.world)
	e.afterRecord(action)
}

// recordSnapshot pushes a snapshot taken before a mutation that has already
// succeeded.
func (e *Editor) recordSnapshot(action string, snap *scene.World) {
	e.history.Record(snap)
	e.afterRecord(action)
}

func (e *Editor) afterRecord(action string) {
	e.revision++
	observability.Editor().OnAction(action)
	observability.Editor().OnHistory("record", e.history.UndoDepth(), e.history.RedoDepth())
	e.logger.Debug("history", "op", "record", "action", action, "undo", e.history.UndoDepth())
}

// mutate runs fn on the world and records the prior state only if fn
// succeeds. fn must leave the world unchanged when it fails.
func (e *Editor) mutate(action string, fn func(w *scene.World) error) error {
	snap := e.world.Clone()
	if err := fn(e.world); err != nil {
		return err
	}
	e.recordSnapshot(action, snap)
	return nil
}

// Undo restores the previous snapshot. It returns false when there is
// nothing to undo.
func (e *Editor) Undo() bool {
	prev, ok := e.history.Undo(e.world)
	if !ok {
		return false
	}
	e.swap(prev)
	e.revision++
	observability.Editor().OnHistory("undo", e.history.UndoDepth(), e.history.RedoDepth())
	e.logger.Debug("history", "op", "undo", "undo", e.history.UndoDepth(), "redo", e.history.RedoDepth())
	return true
}

// Redo re-applies the last undone snapshot.
func (e *Editor) Redo() bool {
	next, ok := e.history.Redo(e.world)
	if !ok {
		return false
	}
	e.swap(next)
	e.revision++
	observability.Editor().OnHistory("redo", e.history.UndoDepth(), e.history.RedoDepth())
	e.logger.Debug("history", "op", "redo", "undo", e.history.UndoDepth(), "redo", e.history.RedoDepth())
	return true
}

// swap replaces the live world. Any gesture in progress is dropped and ids
// that no longer resolve are removed from the selection.
func (e *Editor) swap(w *scene.World) {
	e.world = w
	e.g = gesture{}
	e.animator.Cancel()
	for id := range e.selection {
		if _, ok := w.Node(id); !ok {
			delete(e.selection, id)
		}
	}
	if _, ok := w.Node(e.selectedID); !ok {
		e.selectedID = ""
	}
	if _, ok := w.Node(e.selectedGroup); !ok {
		e.selectedGroup = ""
	}
	e.hoverID = e.picker.NodeID(w, e.mouse)
}

// =============================================================================
// World Actions
// =============================================================================

// AddGroup adds a group at a random point of the placement ring.
func (e *Editor) AddGroup(name string) (*scene.Node, error) {
	var n *scene.Node
	err := e.mutate("group.add", func(w *scene.World) error {
		var err error
		n, err = w.AddGroup(name, scene.RandomPointInRing(e.rng, groupRingMin, groupRingMax))
		return err
	})
	return n, err
}

// AddFeature adds a feature close to its group.
func (e *Editor) AddFeature(groupID, name string) (*scene.Node, error) {
	var n *scene.Node
	err := e.mutate("feature.add", func(w *scene.World) error {
		g, ok := w.Node(groupID)
		if !ok {
			return ferrors.Wrap(ferrors.ErrCodeNotFound, scene.ErrUnknownGroup, "group %q", groupID)
		}
		off := scene.RandomPointInRing(e.rng, featureRingMin, featureRingMax)
		at := scene.Point{X: g.X + off.X*featureRingStep, Y: g.Y + off.Y*featureRingStep}
		var err error
		n, err = w.AddFeature(groupID, name, at)
		return err
	})
	return n, err
}

// Connect adds an edge between two nodes.
func (e *Editor) Connect(aID, bID string) (*scene.Edge, error) {
	var edge *scene.Edge
	err := e.mutate("edge.create", func(w *scene.World) error {
		var err error
		edge, err = w.AddEdge(aID, bID)
		return err
	})
	return edge, err
}

// ToggleAllEdges hides every edge if any is visible, otherwise shows all.
func (e *Editor) ToggleAllEdges() {
	e.record("edges.toggle_all")
	e.world.ToggleAllEdges()
}

// SetShowNotes toggles note popovers. Not recorded in history.
func (e *Editor) SetShowNotes(on bool) { e.world.Settings.ShowNotes = on }

// SetShowIndicators toggles note markers on nodes. Not recorded in history.
func (e *Editor) SetShowIndicators(on bool) { e.world.Settings.ShowIndicators = on }

// =============================================================================
// Sidebar
// =============================================================================

// Tree returns the group/feature hierarchy sorted by name.
func (e *Editor) Tree() []scene.TreeGroup { return e.world.Tree() }

// SetVisible shows or hides a node.
func (e *Editor) SetVisible(id string, visible bool) error {
	return e.mutate("visibility", func(w *scene.World) error {
		return w.SetVisible(id, visible)
	})
}

// Focus flies to a node and selects it, as a click on a sidebar row does.
func (e *Editor) Focus(id string) error {
	n, ok := e.world.Node(id)
	if !ok {
		return ferrors.New(ferrors.ErrCodeNotFound, "unknown node %q", id)
	}
	e.flyTo(n, FocusFlyScale)
	e.selectOnly(n)
	return nil
}

// =============================================================================
// Modals
// =============================================================================

// SetNote attaches a note to a node. Blank text clears it.
func (e *Editor) SetNote(id, text string) error {
	return e.mutate("note.set", func(w *scene.World) error {
		return w.SetNote(id, text)
	})
}

// ClearNote removes the note of a node.
func (e *Editor) ClearNote(id string) error {
	return e.mutate("note.clear", func(w *scene.World) error {
		return w.ClearNote(id)
	})
}

// UpdateEdge writes the fields of the edge editor.
func (e *Editor) UpdateEdge(id string, u scene.EdgeUpdate) error {
	return e.mutate("edge.update", func(w *scene.World) error {
		return w.UpdateEdge(id, u)
	})
}

// ClearEdgeImage drops the image of an edge.
func (e *Editor) ClearEdgeImage(id string) error {
	return e.mutate("edge.clear_image", func(w *scene.World) error {
		return w.ClearEdgeImage(id)
	})
}

// =============================================================================
// Import / Export
// =============================================================================

// Rebuild replaces the world with one generated from src. Settings carry
// over; everything else, ids included, is new.
func (e *Editor) Rebuild(src scene.Source) {
	e.record("import.source")
	w := scene.BuildFromSource(src, e.rng, e.world.Settings)
	e.replace(w)
	observability.Editor().OnImport("source", w.NodeCount(), w.EdgeCount(), nil)
	e.logger.Debug("imported source", "groups", len(src.Groups), "nodes", w.NodeCount())
}

// ImportSource parses a source document and rebuilds the world from it. A
// document that fails to parse leaves the world untouched.
func (e *Editor) ImportSource(r io.Reader, format fmio.Format) error {
	src, err := fmio.ReadSource(r, format)
	if err != nil {
		observability.Editor().OnImport("source", 0, 0, err)
		return err
	}
	e.Rebuild(src)
	return nil
}

// ImportState replaces the world with a decoded board. Invalid input leaves
// the world untouched.
func (e *Editor) ImportState(r io.Reader) error {
	w, err := fmio.ReadState(r)
	if err != nil {
		observability.Editor().OnImport("state", 0, 0, err)
		return err
	}
	return e.Replace(w)
}

// Replace swaps in w after validating it. The previous world is recorded.
func (e *Editor) Replace(w *scene.World) error {
	if err := w.Validate(); err != nil {
		err = ferrors.Wrap(ferrors.ErrCodeInvalidState, err, "replace world")
		observability.Editor().OnImport("state", 0, 0, err)
		return err
	}
	e.record("import.state")
	e.replace(w)
	observability.Editor().OnImport("state", w.NodeCount(), w.EdgeCount(), nil)
	e.logger.Debug("imported state", "nodes", w.NodeCount(), "edges", w.EdgeCount())
	return nil
}

func (e *Editor) replace(w *scene.World) {
	e.swap(w)
	clear(e.selection)
	e.selectedID, e.selectedGroup, e.hoverID = "", "", ""
}

// Export writes the world as indented JSON.
func (e *Editor) Export(out io.Writer) error {
	return fmio.WriteState(e.world, out)
}

// Snapshot returns an independent copy of the world.
func (e *Editor) Snapshot() *scene.World { return e.world.Clone() }

// =============================================================================
// Selection
// =============================================================================

// selectOnly replaces the selection with n and updates the primary and group
// selection.
func (e *Editor) selectOnly(n *scene.Node) {
	clear(e.selection)
	e.selection[n.ID] = true
	e.setPrimary(n)
}

func (e *Editor) setPrimary(n *scene.Node) {
	e.selectedID = n.ID
	if n.IsFeature() {
		e.selectedGroup = n.GroupID
	} else {
		e.selectedGroup = n.ID
	}
}

func (e *Editor) clearSelection() {
	clear(e.selection)
	e.selectedID = ""
	e.selectedGroup = ""
}

// Selection returns the selected node ids in world order.
func (e *Editor) Selection() []string {
	var ids []string
	for _, n := range e.world.Nodes {
		if e.selection[n.ID] {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Selected returns the primary selection, or "".
func (e *Editor) Selected() string { return e.selectedID }

// pinned returns the nodes the layout step must not move.
func (e *Editor) pinned() map[string]bool {
	switch e.g.mode {
	case DraggingSingle, Resizing:
		return map[string]bool{e.g.nodeID: true}
	case DraggingSelection:
		m := make(map[string]bool, len(e.g.starts))
		for id := range e.g.starts {
			m[id] = true
		}
		return m
	}
	return nil
}

// =============================================================================
// View
// =============================================================================

// Popover is a note shown next to the hovered node.
type Popover struct {
	NodeID string
	Text   string
	// At is the screen anchor just above the node.
	At scene.Point
}

// View is the per-frame state a renderer reads. World must not be mutated.
type View struct {
	World         *scene.World
	Mode          Mode
	Hover         string
	Selected      string
	SelectedGroup string
	Selection     []string
	EdgeSource    string
	Mouse         scene.Point
	Popover       *Popover
}

// View returns the current render state.
func (e *Editor) View() View {
	v := View{
		World:         e.world,
		Mode:          e.g.mode,
		Hover:         e.hoverID,
		Selected:      e.selectedID,
		SelectedGroup: e.selectedGroup,
		Selection:     e.Selection(),
		Mouse:         e.mouse,
	}
	if e.g.mode == CreatingEdge {
		v.EdgeSource = e.g.edgeFrom
	}
	if n, ok := e.world.Node(e.hoverID); ok && n.HasNote() && e.world.Settings.ShowNotes {
		v.Popover = &Popover{
			NodeID: n.ID,
			Text:   n.NoteText(),
			At:     viewport.ToScreen(e.world.Camera, n.X, n.Y-math.Max(10, n.R)),
		}
	}
	return v
}

// Highlighted reports whether n is drawn highlighted: hovered, selected, or
// part of the selected group.
func (v View) Highlighted(n *scene.Node) bool {
	if n.ID == v.Hover || n.ID == v.Selected {
		return true
	}
	return v.SelectedGroup != "" && (n.ID == v.SelectedGroup || n.GroupID == v.SelectedGroup)
}

// EdgeHighlighted reports whether e touches the hovered or selected node.
func (v View) EdgeHighlighted(e *scene.Edge) bool {
	return (v.Hover != "" && e.Touches(v.Hover)) || (v.Selected != "" && e.Touches(v.Selected))
}

// InSelection reports whether id is part of the multi-selection.
func (v View) InSelection(id string) bool {
	return slices.Contains(v.Selection, id)
}
