package scene

// =============================================================================
// Constants
// =============================================================================

// Kind discriminates the two node variants. Groups and features share one id
// space and one ordered node list.
type Kind string

// Node kinds.
const (
	KindGroup   Kind = "group"
	KindFeature Kind = "feature"
)

// Valid reports whether k is one of the known node kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindGroup, KindFeature:
		return true
	default:
		return false
	}
}

// Default geometry for nodes created by user actions and source imports.
const (
	GroupRadius         = 50.0
	FeatureRadius       = 18.0
	SourceFeatureRadius = 16.0

	// MinRadius is the floor applied when a node is resized interactively.
	MinRadius = 12.0

	// DefaultImageSize is the display size given to new edges.
	DefaultImageSize = 120.0
)

// =============================================================================
// Node - Group / Feature
// =============================================================================

// Node is a group or a feature placed on the plane. X and Y are the world
// space center; R is the half-extent (circle radius for features, half side
// of the rounded square for groups).
//
// GroupID is only meaningful for features and must name a live group in the
// same World. Groups always carry an empty GroupID.
type Node struct {
	ID      string  `json:"id" bson:"id"`
	Kind    Kind    `json:"type" bson:"type"`
	Name    string  `json:"name" bson:"name"`
	X       float64 `json:"x" bson:"x"`
	Y       float64 `json:"y" bson:"y"`
	R       float64 `json:"r" bson:"r"`
	Color   string  `json:"color" bson:"color"`
	Visible bool    `json:"visible" bson:"visible"`
	Note    *string `json:"note" bson:"note"`
	GroupID string  `json:"groupId,omitempty" bson:"groupId,omitempty"`
}

// IsGroup returns true if n is a group.
func (n *Node) IsGroup() bool { return n.Kind == KindGroup }

// IsFeature returns true if n is a feature.
func (n *Node) IsFeature() bool { return n.Kind == KindFeature }

// HasNote returns true if a non-nil note is attached.
func (n *Node) HasNote() bool { return n.Note != nil }

// NoteText returns the note or the empty string.
func (n *Node) NoteText() string {
	if n.Note == nil {
		return ""
	}
	return *n.Note
}

// =============================================================================
// Edge - Undirected Link
// =============================================================================

// Edge links two nodes. The pair is stored ordered (AID, BID) but physics and
// rendering treat it as undirected.
type Edge struct {
	ID        string  `json:"id" bson:"id"`
	AID       string  `json:"aId" bson:"aId"`
	BID       string  `json:"bId" bson:"bId"`
	Visible   bool    `json:"visible" bson:"visible"`
	Label     string  `json:"label" bson:"label"`
	ImageRef  *string `json:"imageRef" bson:"imageRef"`
	ImageSize float64 `json:"imageSize" bson:"imageSize"`
}

// Touches reports whether id is one of the edge endpoints.
func (e *Edge) Touches(id string) bool { return e.AID == id || e.BID == id }

// Other returns the endpoint opposite id, or "" if id is not an endpoint.
func (e *Edge) Other(id string) string {
	switch id {
	case e.AID:
		return e.BID
	case e.BID:
		return e.AID
	default:
		return ""
	}
}

// =============================================================================
// Camera, Settings, Meta
// =============================================================================

// Camera holds the world-space top-left corner of the viewport and the zoom.
type Camera struct {
	X     float64 `json:"x" bson:"x"`
	Y     float64 `json:"y" bson:"y"`
	Scale float64 `json:"scale" bson:"scale"`
}

// Settings are display toggles persisted with the world.
type Settings struct {
	ShowNotes      bool `json:"showNotes" bson:"showNotes"`
	ShowIndicators bool `json:"showIndicators" bson:"showIndicators"`
}

// DefaultSettings returns the settings of a fresh world.
func DefaultSettings() Settings {
	return Settings{ShowNotes: true, ShowIndicators: true}
}

// Meta holds monotonic counters.
type Meta struct {
	NextGroupIx int `json:"nextGroupIx" bson:"nextGroupIx"`
}

// =============================================================================
// World - Aggregate Root
// =============================================================================

// World is the full mutable scene. Node order encodes paint and pick
// priority: the last node is topmost.
//
// World is not safe for concurrent use. It is owned by a single controller
// (see package editor) and mutated only through the methods in this package.
type World struct {
	Nodes    []*Node  `json:"nodes" bson:"nodes"`
	Edges    []*Edge  `json:"edges" bson:"edges"`
	Camera   Camera   `json:"camera" bson:"camera"`
	Meta     Meta     `json:"meta" bson:"meta"`
	Settings Settings `json:"settings" bson:"settings"`
}

// Point is a 2D coordinate in either screen or world space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
