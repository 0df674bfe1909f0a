package viewport

import (
	"math"

	"github.com/matzehuels/featuremap/pkg/scene"
)

// Zoom bounds.
const (
	// MinScale and MaxScale bound interactive zoom.
	MinScale = 0.25
	MaxScale = 3.5

	// MinFlyScale and MaxFlyScale bound the target scale of a fly-to.
	MinFlyScale = 0.5
	MaxFlyScale = 3.0

	// WheelStep is the relative scale change of one wheel notch.
	WheelStep = 0.1
)

// Size is the viewport extent in screen pixels.
type Size struct {
	Width  float64
	Height float64
}

// ToWorld maps the screen point (px, py) to world space.
func ToWorld(cam scene.Camera, px, py float64) scene.Point {
	return scene.Point{
		X: px/cam.Scale + cam.X,
		Y: py/cam.Scale + cam.Y,
	}
}

// ToScreen maps the world point (wx, wy) to screen space. It is the inverse
// of [ToWorld] for any camera with a positive scale.
func ToScreen(cam scene.Camera, wx, wy float64) scene.Point {
	return scene.Point{
		X: (wx - cam.X) * cam.Scale,
		Y: (wy - cam.Y) * cam.Scale,
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ZoomAt changes the scale of cam to scale (clamped to [MinScale, MaxScale])
// while keeping the world point under the screen point p fixed.
func ZoomAt(cam *scene.Camera, p scene.Point, scale float64) {
	before := ToWorld(*cam, p.X, p.Y)
	cam.Scale = Clamp(scale, MinScale, MaxScale)
	after := ToWorld(*cam, p.X, p.Y)
	cam.X += before.X - after.X
	cam.Y += before.Y - after.Y
}

// WheelScale returns the scale after one wheel event with vertical delta dy.
// Only the sign of dy matters: scrolling down zooms out, up zooms in.
func WheelScale(scale, dy float64) float64 {
	var sign float64
	switch {
	case dy > 0:
		sign = 1
	case dy < 0:
		sign = -1
	}
	return Clamp(scale*(1-sign*WheelStep), MinScale, MaxScale)
}

// Pan returns the camera that keeps the world point under from (in screen
// space, captured together with start) under the current screen point to.
// The result depends only on the total pointer displacement, never on the
// number of intermediate moves.
func Pan(start scene.Camera, from, to scene.Point) scene.Camera {
	out := start
	out.X = start.X - (to.X-from.X)/start.Scale
	out.Y = start.Y - (to.Y-from.Y)/start.Scale
	return out
}

// Center returns the camera at the given scale (clamped to the fly-to bounds)
// that puts target in the middle of a viewport of the given size.
func Center(target scene.Point, size Size, scale float64) scene.Camera {
	s := Clamp(scale, MinFlyScale, MaxFlyScale)
	return scene.Camera{
		X:     target.X - (size.Width/2)/s,
		Y:     target.Y - (size.Height/2)/s,
		Scale: s,
	}
}

// Ease is the quadratic ease-in-out curve used by fly-to animations. p is
// clamped to [0, 1].
func Ease(p float64) float64 {
	p = Clamp(p, 0, 1)
	if p < 0.5 {
		return 2 * p * p
	}
	return 1 - 2*(1-p)*(1-p)
}

// Lerp interpolates every camera field from a to b by t.
func Lerp(a, b scene.Camera, t float64) scene.Camera {
	return scene.Camera{
		X:     a.X + (b.X-a.X)*t,
		Y:     a.Y + (b.Y-a.Y)*t,
		Scale: a.Scale + (b.Scale-a.Scale)*t,
	}
}
