package editor

import (
	"math"

	"github.com/matzehuels/featuremap/pkg/scene"
	"github.com/matzehuels/featuremap/pkg/viewport"
)

// ClickThreshold is the screen distance a press may travel and still count
// as a click on release.
const ClickThreshold = 4.0

// Mode is the active pointer interaction.
type Mode int

const (
	Idle Mode = iota
	Panning
	DraggingSingle
	DraggingSelection
	Resizing
	CreatingEdge
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DraggingSingle:
		return "dragging"
	case DraggingSelection:
		return "dragging-selection"
	case Resizing:
		return "resizing"
	case CreatingEdge:
		return "creating-edge"
	default:
		return "unknown"
	}
}

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// Mods are the modifier keys held during a pointer event.
type Mods struct {
	// Multi toggles nodes in and out of the selection (Ctrl or Cmd).
	Multi bool
	// Shift turns a drag into a resize.
	Shift bool
}

// gesture is the state of one press/move/release sequence. Only the fields
// of the active mode are set; entering a mode replaces the whole value.
type gesture struct {
	mode Mode

	// DraggingSingle, Resizing
	nodeID string
	offset scene.Point

	// DraggingSelection
	origin scene.Point
	starts map[string]scene.Point

	// Panning
	camStart scene.Camera
	panFrom  scene.Point

	// CreatingEdge
	edgeFrom string

	// click detection for the primary button
	pressed     bool
	pressAt     scene.Point
	preSelected string
}

// =============================================================================
// Pointer Events
// =============================================================================

// PointerDown handles a button press at the screen point p.
func (e *Editor) PointerDown(p scene.Point, b Button, m Mods) {
	e.mouse = p
	n := e.picker.Node(e.world, p)

	switch b {
	case ButtonSecondary:
		if n != nil {
			e.g = gesture{mode: CreatingEdge, edgeFrom: n.ID}
		}
		return
	case ButtonPrimary:
	default:
		return
	}

	g := gesture{pressed: true, pressAt: p, preSelected: e.selectedID}
	cursor := viewport.ToWorld(e.world.Camera, p.X, p.Y)

	switch {
	case n != nil && m.Multi:
		if e.selection[n.ID] {
			delete(e.selection, n.ID)
		} else {
			e.selection[n.ID] = true
		}
		e.setPrimary(n)
		e.record("select.toggle")

		g.mode = DraggingSelection
		g.origin = cursor
		g.starts = make(map[string]scene.Point, len(e.selection))
		for _, id := range e.Selection() {
			nd, _ := e.world.Node(id)
			g.starts[id] = scene.Point{X: nd.X, Y: nd.Y}
		}
		if m.Shift && len(g.starts) == 1 {
			for id := range g.starts {
				g.nodeID = id
			}
			g.mode = Resizing
			g.starts = nil
		}

	case n != nil:
		e.selectOnly(n)
		e.record("select")
		g.nodeID = n.ID
		if m.Shift {
			g.mode = Resizing
		} else {
			g.mode = DraggingSingle
			g.offset = scene.Point{X: n.X - cursor.X, Y: n.Y - cursor.Y}
		}

	default:
		if !m.Multi {
			e.clearSelection()
		}
		e.animator.Cancel()
		g.mode = Panning
		g.camStart = e.world.Camera
		g.panFrom = p
	}
	e.g = g
}

// PointerMove handles pointer motion to the screen point p, with or without
// a button held.
func (e *Editor) PointerMove(p scene.Point) {
	e.mouse = p
	cursor := viewport.ToWorld(e.world.Camera, p.X, p.Y)

	switch e.g.mode {
	case Panning:
		e.world.Camera = viewport.Pan(e.g.camStart, e.g.panFrom, p)

	case DraggingSelection:
		dx, dy := cursor.X-e.g.origin.X, cursor.Y-e.g.origin.Y
		for id, start := range e.g.starts {
			if n, ok := e.world.Node(id); ok {
				n.X = start.X + dx
				n.Y = start.Y + dy
			}
		}

	case DraggingSingle:
		if n, ok := e.world.Node(e.g.nodeID); ok {
			n.X = cursor.X + e.g.offset.X
			n.Y = cursor.Y + e.g.offset.Y
		}

	case Resizing:
		if n, ok := e.world.Node(e.g.nodeID); ok {
			n.Resize(math.Hypot(cursor.X-n.X, cursor.Y-n.Y))
		}
	}

	e.hoverID = e.picker.NodeID(e.world, p)
}

// PointerUp handles a button release at the screen point p. A primary
// release close enough to its press is also handled as a click.
func (e *Editor) PointerUp(p scene.Point, b Button, m Mods) {
	e.mouse = p

	if b == ButtonSecondary {
		if e.g.mode == CreatingEdge {
			if n := e.picker.Node(e.world, p); n != nil && n.ID != e.g.edgeFrom {
				if _, err := e.Connect(e.g.edgeFrom, n.ID); err != nil {
					e.logger.Debug("edge not created", "from", e.g.edgeFrom, "to", n.ID, "err", err)
				}
			}
			e.g = gesture{}
		}
		e.hoverID = e.picker.NodeID(e.world, p)
		return
	}

	prev := e.g
	e.g = gesture{}
	e.hoverID = e.picker.NodeID(e.world, p)

	if b != ButtonPrimary || !prev.pressed {
		return
	}
	if math.Hypot(p.X-prev.pressAt.X, p.Y-prev.pressAt.Y) < ClickThreshold {
		e.click(p, m, prev.preSelected)
	}
}

// PointerLeave clears hover when the pointer leaves the drawing area.
func (e *Editor) PointerLeave() {
	e.hoverID = ""
}

// click selects or deselects the node under p. wasSelected is the primary
// selection from before the press that started this click.
func (e *Editor) click(p scene.Point, m Mods, wasSelected string) {
	if m.Multi {
		return
	}
	n := e.picker.Node(e.world, p)
	if n == nil {
		e.clearSelection()
		return
	}

	e.flyTo(n, ClickFlyScale)
	if wasSelected == n.ID {
		e.clearSelection()
		e.record("click.deselect")
	} else {
		e.selectOnly(n)
		e.record("click.select")
	}
	e.world.ToggleEdgesOf(n.ID)
	e.hoverID = e.picker.NodeID(e.world, p)
}

// =============================================================================
// Other Input
// =============================================================================

// DoubleClick returns the id of the visible edge nearest to p within the
// picker's tolerance, or "". Hosts open the edge editor for it.
func (e *Editor) DoubleClick(p scene.Point) string {
	if ed := e.picker.Edge(e.world, p); ed != nil {
		return ed.ID
	}
	return ""
}

// Wheel zooms about the screen point p. dy follows the usual wheel sign:
// positive zooms out.
func (e *Editor) Wheel(p scene.Point, dy float64) {
	if dy == 0 {
		return
	}
	e.animator.Cancel()
	viewport.ZoomAt(&e.world.Camera, p, viewport.WheelScale(e.world.Camera.Scale, dy))
}

// Escape clears the selection, hover and note popover. It is legal in every
// mode and does not end a gesture in progress.
func (e *Editor) Escape() {
	e.clearSelection()
	e.hoverID = ""
}
