package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidNodeID is returned by [World.Validate] when a node or edge
	// has an empty identifier.
	ErrInvalidNodeID = errors.New("id must not be empty")

	// ErrDuplicateID is returned by [World.Validate] when two nodes, two
	// edges, or a node and an edge share an identifier.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUnknownNode is returned by mutators and [World.Validate] when an id
	// does not resolve to a live node.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownEdge is returned by edge mutators when the edge id does not
	// resolve to a live edge.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrUnknownGroup is returned by [World.AddFeature] and [World.Validate]
	// when a feature's group id does not resolve to a live node.
	ErrUnknownGroup = errors.New("unknown group")

	// ErrNotAGroup is returned when a feature's group id resolves to a
	// feature instead of a group.
	ErrNotAGroup = errors.New("parent is not a group")

	// ErrSelfLoop is returned by [World.AddEdge], [World.CanConnect] and
	// [World.Validate] when both endpoints are the same node.
	ErrSelfLoop = errors.New("edge endpoints must differ")

	// ErrInvalidKind is returned by [World.Validate] for unknown node types.
	ErrInvalidKind = errors.New("invalid node type")

	// ErrInvalidRadius is returned by [World.Validate] when r <= 0.
	ErrInvalidRadius = errors.New("radius must be positive")

	// ErrInvalidScale is returned by [World.Validate] when the camera scale
	// is not positive.
	ErrInvalidScale = errors.New("camera scale must be positive")

	// ErrEmptyName is returned by [World.AddGroup] and [World.AddFeature]
	// when the trimmed name is empty.
	ErrEmptyName = errors.New("name must not be empty")
)

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// New creates an empty world with an identity camera and default settings.
func New() *World {
	return &World{
		Nodes:    []*Node{},
		Edges:    []*Edge{},
		Camera:   Camera{Scale: 1},
		Settings: DefaultSettings(),
	}
}

// =============================================================================
// Lookup
// =============================================================================

// Node returns the node with the given id.
func (w *World) Node(id string) (*Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Edge returns the edge with the given id.
func (w *World) Edge(id string) (*Edge, bool) {
	for _, e := range w.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// NodeIndex builds an id → node map. Callers that resolve many edges in one
// pass use it instead of repeated [World.Node] scans.
func (w *World) NodeIndex() map[string]*Node {
	idx := make(map[string]*Node, len(w.Nodes))
	for _, n := range w.Nodes {
		idx[n.ID] = n
	}
	return idx
}

// Groups returns all group nodes in paint order.
func (w *World) Groups() []*Node {
	var out []*Node
	for _, n := range w.Nodes {
		if n.IsGroup() {
			out = append(out, n)
		}
	}
	return out
}

// Features returns the features of groupID in paint order.
func (w *World) Features(groupID string) []*Node {
	var out []*Node
	for _, n := range w.Nodes {
		if n.IsFeature() && n.GroupID == groupID {
			out = append(out, n)
		}
	}
	return out
}

// EdgesOf returns the edges touching id.
func (w *World) EdgesOf(id string) []*Edge {
	var out []*Edge
	for _, e := range w.Edges {
		if e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (w *World) NodeCount() int { return len(w.Nodes) }

// EdgeCount returns the number of edges.
func (w *World) EdgeCount() int { return len(w.Edges) }

// =============================================================================
// Mutators
// =============================================================================

// AddGroup appends a group at the given position. The color is taken from the
// palette slot meta.nextGroupIx, which is then advanced.
func (w *World) AddGroup(name string, at Point) (*Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	n := &Node{
		ID:      NewID(),
		Kind:    KindGroup,
		Name:    name,
		X:       at.X,
		Y:       at.Y,
		R:       GroupRadius,
		Color:   ColorFor(w.Meta.NextGroupIx),
		Visible: true,
	}
	w.Meta.NextGroupIx++
	w.Nodes = append(w.Nodes, n)
	return n, nil
}

// AddFeature appends a feature to groupID at the given position. The feature
// inherits the group's color.
func (w *World) AddFeature(groupID, name string, at Point) (*Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	g, err := w.group(groupID)
	if err != nil {
		return nil, err
	}
	n := &Node{
		ID:      NewID(),
		Kind:    KindFeature,
		Name:    name,
		X:       at.X,
		Y:       at.Y,
		R:       FeatureRadius,
		Color:   g.Color,
		Visible: true,
		GroupID: g.ID,
	}
	w.Nodes = append(w.Nodes, n)
	return n, nil
}

func (w *World) group(id string) (*Node, error) {
	g, ok := w.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}
	if !g.IsGroup() {
		return nil, fmt.Errorf("%w: %s", ErrNotAGroup, id)
	}
	return g, nil
}

// CanConnect reports whether an edge between aID and bID would be accepted
// by [World.AddEdge]. Parallel edges are allowed.
func (w *World) CanConnect(aID, bID string) error {
	if aID == bID {
		return ErrSelfLoop
	}
	if _, ok := w.Node(aID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, aID)
	}
	if _, ok := w.Node(bID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, bID)
	}
	return nil
}

// AddEdge appends a visible, unlabeled edge with no image.
func (w *World) AddEdge(aID, bID string) (*Edge, error) {
	if err := w.CanConnect(aID, bID); err != nil {
		return nil, err
	}
	e := &Edge{
		ID:        NewID(),
		AID:       aID,
		BID:       bID,
		Visible:   true,
		ImageSize: DefaultImageSize,
	}
	w.Edges = append(w.Edges, e)
	return e, nil
}

// SetVisible sets the visibility flag of a node. Hiding is the only form of
// deletion: nodes are never removed.
func (w *World) SetVisible(id string, visible bool) error {
	n, ok := w.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.Visible = visible
	return nil
}

// SetNote attaches a note. The text is trimmed; an empty result clears the
// note.
func (w *World) SetNote(id, text string) error {
	n, ok := w.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		n.Note = nil
		return nil
	}
	n.Note = &text
	return nil
}

// ClearNote removes the note of a node.
func (w *World) ClearNote(id string) error {
	return w.SetNote(id, "")
}

// EdgeUpdate carries the fields written by the edge editor. ImageRef is only
// applied when non-empty after trimming, so saving without a new image keeps
// the current one.
type EdgeUpdate struct {
	Label     string
	ImageRef  string
	ImageSize float64
}

// UpdateEdge writes label, image and size.
func (w *World) UpdateEdge(id string, u EdgeUpdate) error {
	e, ok := w.Edge(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEdge, id)
	}
	e.Label = u.Label
	if ref := strings.TrimSpace(u.ImageRef); ref != "" {
		e.ImageRef = &ref
	}
	e.ImageSize = u.ImageSize
	return nil
}

// ClearEdgeImage drops the image of an edge.
func (w *World) ClearEdgeImage(id string) error {
	e, ok := w.Edge(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEdge, id)
	}
	e.ImageRef = nil
	return nil
}

// ToggleEdgesOf flips the visibility of every edge touching id and returns
// how many edges changed.
func (w *World) ToggleEdgesOf(id string) int {
	count := 0
	for _, e := range w.Edges {
		if e.Touches(id) {
			e.Visible = !e.Visible
			count++
		}
	}
	return count
}

// ToggleAllEdges hides every edge if any is visible, otherwise shows all.
func (w *World) ToggleAllEdges() {
	anyVisible := false
	for _, e := range w.Edges {
		if e.Visible {
			anyVisible = true
			break
		}
	}
	for _, e := range w.Edges {
		e.Visible = !anyVisible
	}
}

// Resize sets the radius, floored at [MinRadius].
func (n *Node) Resize(r float64) {
	n.R = max(MinRadius, r)
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks every structural invariant: unique non-empty ids, known
// kinds, positive radii, features pointing at live groups, edges joining two
// distinct live nodes, and a positive camera scale. It returns the first
// violation.
func (w *World) Validate() error {
	seen := make(map[string]bool, len(w.Nodes)+len(w.Edges))
	kinds := make(map[string]Kind, len(w.Nodes))

	for i, n := range w.Nodes {
		if n == nil {
			return fmt.Errorf("node %d: %w", i, ErrInvalidNodeID)
		}
		if n.ID == "" {
			return fmt.Errorf("node %d: %w", i, ErrInvalidNodeID)
		}
		if seen[n.ID] {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateID)
		}
		seen[n.ID] = true
		if !n.Kind.Valid() {
			return fmt.Errorf("node %s: %w %q", n.ID, ErrInvalidKind, n.Kind)
		}
		if !(n.R > 0) {
			return fmt.Errorf("node %s: %w", n.ID, ErrInvalidRadius)
		}
		kinds[n.ID] = n.Kind
	}

	for _, n := range w.Nodes {
		if !n.IsFeature() {
			continue
		}
		k, ok := kinds[n.GroupID]
		if !ok {
			return fmt.Errorf("feature %s: %w: %s", n.ID, ErrUnknownGroup, n.GroupID)
		}
		if k != KindGroup {
			return fmt.Errorf("feature %s: %w: %s", n.ID, ErrNotAGroup, n.GroupID)
		}
	}

	for i, e := range w.Edges {
		if e == nil || e.ID == "" {
			return fmt.Errorf("edge %d: %w", i, ErrInvalidNodeID)
		}
		if seen[e.ID] {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateID)
		}
		seen[e.ID] = true
		if _, ok := kinds[e.AID]; !ok {
			return fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownNode, e.AID)
		}
		if _, ok := kinds[e.BID]; !ok {
			return fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownNode, e.BID)
		}
		if e.AID == e.BID {
			return fmt.Errorf("edge %s: %w", e.ID, ErrSelfLoop)
		}
	}

	if !(w.Camera.Scale > 0) {
		return ErrInvalidScale
	}
	return nil
}

// =============================================================================
// Clone
// =============================================================================

// Clone returns a deep copy sharing no mutable state with w. Note and image
// strings are copied into fresh pointers.
func (w *World) Clone() *World {
	out := &World{
		Nodes:    make([]*Node, len(w.Nodes)),
		Edges:    make([]*Edge, len(w.Edges)),
		Camera:   w.Camera,
		Meta:     w.Meta,
		Settings: w.Settings,
	}
	for i, n := range w.Nodes {
		c := *n
		c.Note = cloneString(n.Note)
		out.Nodes[i] = &c
	}
	for i, e := range w.Edges {
		c := *e
		c.ImageRef = cloneString(e.ImageRef)
		out.Edges[i] = &c
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
