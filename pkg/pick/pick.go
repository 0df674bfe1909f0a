// Package pick resolves screen points to the nodes and edges under them.
//
// Features are tested before groups: a feature drawn inside a group's square
// must stay selectable regardless of paint order. Within each pass the
// topmost node (last in the world's node list) wins. Hidden nodes are never
// hit.
package pick

import (
	"math"

	"github.com/matzehuels/featuremap/pkg/scene"
	"github.com/matzehuels/featuremap/pkg/viewport"
)

const (
	// DefaultPadding is the screen-space slop added around feature circles.
	DefaultPadding = 8.0

	// DefaultEdgeTolerance is the screen-space distance within which an edge
	// segment is hit.
	DefaultEdgeTolerance = 12.0

	minScale = 0.0001
)

// Picker hit-tests a world against screen coordinates.
type Picker struct {
	// Padding is added to every feature radius, in screen pixels.
	Padding float64
	// EdgeTolerance is the maximum distance of an edge hit, in screen pixels.
	EdgeTolerance float64
}

// New returns a picker with the given feature padding. A negative padding is
// treated as zero.
func New(padding float64) *Picker {
	return &Picker{Padding: math.Max(0, padding), EdgeTolerance: DefaultEdgeTolerance}
}

// Node returns the topmost visible node under the screen point, or nil.
func (p *Picker) Node(w *scene.World, screen scene.Point) *scene.Node {
	at := viewport.ToWorld(w.Camera, screen.X, screen.Y)
	pad := p.Padding / math.Max(minScale, w.Camera.Scale)

	for i := len(w.Nodes) - 1; i >= 0; i-- {
		n := w.Nodes[i]
		if n == nil || !n.Visible || !n.IsFeature() {
			continue
		}
		if math.Hypot(at.X-n.X, at.Y-n.Y) <= n.R+pad {
			return n
		}
	}

	for i := len(w.Nodes) - 1; i >= 0; i-- {
		n := w.Nodes[i]
		if n == nil || !n.Visible || !n.IsGroup() {
			continue
		}
		if at.X >= n.X-n.R && at.X <= n.X+n.R && at.Y >= n.Y-n.R && at.Y <= n.Y+n.R {
			return n
		}
	}
	return nil
}

// NodeID is like [Picker.Node] but returns the id, or "" for a miss.
func (p *Picker) NodeID(w *scene.World, screen scene.Point) string {
	if n := p.Node(w, screen); n != nil {
		return n.ID
	}
	return ""
}

// Edge returns the visible edge nearest to the screen point whose endpoints
// are both visible, provided it lies strictly within the edge tolerance.
// Edges touching unknown nodes are ignored.
func (p *Picker) Edge(w *scene.World, screen scene.Point) *scene.Edge {
	at := viewport.ToWorld(w.Camera, screen.X, screen.Y)
	best := p.EdgeTolerance / math.Max(minScale, w.Camera.Scale)
	idx := w.NodeIndex()

	var nearest *scene.Edge
	for _, e := range w.Edges {
		if !e.Visible {
			continue
		}
		a, b := idx[e.AID], idx[e.BID]
		if a == nil || b == nil || !a.Visible || !b.Visible {
			continue
		}
		d := SegmentDistance(at, scene.Point{X: a.X, Y: a.Y}, scene.Point{X: b.X, Y: b.Y})
		if d < best {
			best = d
			nearest = e
		}
	}
	return nearest
}

// SegmentDistance returns the distance from p to the segment ab.
func SegmentDistance(p, a, b scene.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = viewport.Clamp(t, 0, 1)
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
