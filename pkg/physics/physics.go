// Package physics relaxes a world one frame at a time.
//
// Each [Step] runs two passes over the live world:
//
//  1. Group cohesion. Every group with visible features drifts toward their
//     centroid by GroupFollow, then each of those features drifts toward the
//     group's updated center by FeatureCohesion.
//  2. Edge springs. A visible edge between visible nodes whose length d
//     exceeds (ra+rb)*2*EdgeSpringRange is shortened by
//     (d - threshold)*EdgeSpringK, split equally between both endpoints.
//     Below the threshold the spring is slack and exerts nothing.
//
// Every displacement is multiplied by dt, the elapsed time expressed in
// reference frames ([FrameInterval]). Nodes listed as pinned are never moved
// but still attract others.
package physics

import (
	"math"
	"time"

	"github.com/matzehuels/featuremap/pkg/scene"
)

// FrameInterval is the reference frame length that dt = 1 stands for.
const FrameInterval = 16670 * time.Microsecond

// Params are the relaxation constants.
type Params struct {
	GroupFollow     float64 `toml:"group_follow"`
	FeatureCohesion float64 `toml:"feature_cohesion"`
	EdgeSpringK     float64 `toml:"edge_spring_k"`
	EdgeSpringRange float64 `toml:"edge_spring_range"`
	// MaxStep caps dt so a stalled frame loop cannot fling nodes.
	MaxStep float64 `toml:"max_step"`
}

// DefaultParams returns the stock constants.
func DefaultParams() Params {
	return Params{
		GroupFollow:     0.0001,
		FeatureCohesion: 0.000003,
		EdgeSpringK:     0.00012,
		EdgeSpringRange: 6.0,
		MaxStep:         3.0,
	}
}

// Stats reports what one step touched.
type Stats struct {
	// Groups is the number of groups that had visible features to follow.
	Groups int
	// Springs is the number of edges stretched past their slack threshold.
	Springs int
}

// Frames converts an elapsed duration into reference frames.
func Frames(elapsed time.Duration) float64 {
	return float64(elapsed) / float64(FrameInterval)
}

// Step advances the layout by dt frames. dt is clamped to [0, p.MaxStep]
// (no upper bound when MaxStep <= 0). pinned may be nil.
func Step(w *scene.World, p Params, dt float64, pinned map[string]bool) Stats {
	dt = math.Max(0, dt)
	if p.MaxStep > 0 {
		dt = math.Min(dt, p.MaxStep)
	}
	var st Stats
	if dt == 0 {
		return st
	}
	st.Groups = cohere(w, p, dt, pinned)
	st.Springs = springs(w, p, dt, pinned)
	return st
}

func cohere(w *scene.World, p Params, dt float64, pinned map[string]bool) int {
	byGroup := make(map[string][]*scene.Node)
	for _, n := range w.Nodes {
		if n.IsFeature() && n.Visible {
			byGroup[n.GroupID] = append(byGroup[n.GroupID], n)
		}
	}

	moved := 0
	for _, g := range w.Nodes {
		if !g.IsGroup() {
			continue
		}
		feats := byGroup[g.ID]
		if len(feats) == 0 {
			continue
		}
		moved++

		var cx, cy float64
		for _, f := range feats {
			cx += f.X
			cy += f.Y
		}
		cx /= float64(len(feats))
		cy /= float64(len(feats))

		if !pinned[g.ID] {
			g.X += (cx - g.X) * p.GroupFollow * dt
			g.Y += (cy - g.Y) * p.GroupFollow * dt
		}
		for _, f := range feats {
			if pinned[f.ID] {
				continue
			}
			f.X += (g.X - f.X) * p.FeatureCohesion * dt
			f.Y += (g.Y - f.Y) * p.FeatureCohesion * dt
		}
	}
	return moved
}

func springs(w *scene.World, p Params, dt float64, pinned map[string]bool) int {
	idx := w.NodeIndex()
	active := 0
	for _, e := range w.Edges {
		if !e.Visible {
			continue
		}
		a, b := idx[e.AID], idx[e.BID]
		if a == nil || b == nil || !a.Visible || !b.Visible {
			continue
		}
		d := math.Hypot(b.X-a.X, b.Y-a.Y)
		threshold := (a.R + b.R) * 2 * p.EdgeSpringRange
		if d <= threshold || d == 0 {
			continue
		}
		active++

		dirX, dirY := (b.X-a.X)/d, (b.Y-a.Y)/d
		half := (d - threshold) * p.EdgeSpringK * dt * 0.5
		if !pinned[a.ID] {
			a.X += dirX * half
			a.Y += dirY * half
		}
		if !pinned[b.ID] {
			b.X -= dirX * half
			b.Y -= dirY * half
		}
	}
	return active
}
