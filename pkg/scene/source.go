package scene

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"
)

// Source is the external structured representation a world can be rebuilt
// from: one group per entry, one feature per listed name.
type Source struct {
	Groups []SourceGroup
}

// SourceGroup is one top-level entry of a Source.
type SourceGroup struct {
	Name     string
	Features []string
}

// DefaultSource is the content of a brand-new board.
func DefaultSource() Source {
	return Source{Groups: []SourceGroup{{Name: "Getting Started"}}}
}

// Placement rings used when building from a source.
const (
	sourceGroupRingMin   = 200.0
	sourceGroupRingMax   = 700.0
	sourceFeatureRingMin = 10.0
	sourceFeatureRingMax = 90.0
	sourceFeatureSpread  = 0.3
)

// BuildFromSource creates a fresh world from src. Groups are laid out in name
// order on a random ring, each with the next palette color; features are
// scattered close to their group. Every id is newly generated. The camera and
// counters start from zero; settings are carried over from the caller.
func BuildFromSource(src Source, rng *rand.Rand, settings Settings) *World {
	w := New()
	w.Settings = settings

	groups := slices.Clone(src.Groups)
	slices.SortStableFunc(groups, func(a, b SourceGroup) int {
		return cmp.Compare(a.Name, b.Name)
	})

	for gix, sg := range groups {
		pos := RandomPointInRing(rng, sourceGroupRingMin, sourceGroupRingMax)
		color := ColorFor(gix)
		g := &Node{
			ID:      NewID(),
			Kind:    KindGroup,
			Name:    sg.Name,
			X:       pos.X,
			Y:       pos.Y,
			R:       GroupRadius,
			Color:   color,
			Visible: true,
		}
		w.Nodes = append(w.Nodes, g)

		for _, name := range sg.Features {
			rp := RandomPointInRing(rng, sourceFeatureRingMin, sourceFeatureRingMax)
			w.Nodes = append(w.Nodes, &Node{
				ID:      NewID(),
				Kind:    KindFeature,
				Name:    name,
				X:       pos.X + rp.X*sourceFeatureSpread,
				Y:       pos.Y + rp.Y*sourceFeatureSpread,
				R:       SourceFeatureRadius,
				Color:   color,
				Visible: true,
				GroupID: g.ID,
			})
		}
	}
	return w
}

// =============================================================================
// Visibility Tree
// =============================================================================

// TreeGroup is one row of the sidebar hierarchy.
type TreeGroup struct {
	Group    *Node
	Features []*Node
}

// Tree returns groups sorted by name, each with its features sorted by name.
// The nodes are the live ones; callers must not mutate them directly.
func (w *World) Tree() []TreeGroup {
	groups := w.Groups()
	slices.SortStableFunc(groups, byName)

	out := make([]TreeGroup, 0, len(groups))
	for _, g := range groups {
		feats := w.Features(g.ID)
		slices.SortStableFunc(feats, byName)
		out = append(out, TreeGroup{Group: g, Features: feats})
	}
	return out
}

func byName(a, b *Node) int {
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}
