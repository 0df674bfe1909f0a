package viewport

import (
	"time"

	"github.com/matzehuels/featuremap/pkg/scene"
)

// DefaultFlyDuration is the length of a fly-to animation.
const DefaultFlyDuration = 450 * time.Millisecond

// Animator drives at most one fly-to animation at a time. Starting a new
// flight replaces the running one; the replaced flight never writes the
// camera again.
//
// Animator is not safe for concurrent use. It is stepped from the same loop
// that handles input.
type Animator struct {
	duration time.Duration
	gen      uint64
	flight   *flight
}

type flight struct {
	gen   uint64
	from  scene.Camera
	to    scene.Camera
	start time.Time
}

// NewAnimator creates an animator whose flights last d. A non-positive d
// selects [DefaultFlyDuration].
func NewAnimator(d time.Duration) *Animator {
	if d <= 0 {
		d = DefaultFlyDuration
	}
	return &Animator{duration: d}
}

// Duration returns the length of one flight.
func (a *Animator) Duration() time.Duration { return a.duration }

// FlyTo starts a flight from the camera from to the camera to, beginning at
// now. It returns the generation number of the new flight.
func (a *Animator) FlyTo(now time.Time, from, to scene.Camera) uint64 {
	a.gen++
	a.flight = &flight{gen: a.gen, from: from, to: to, start: now}
	return a.gen
}

// Step writes the interpolated camera for time now into cam. It returns true
// while a flight is still in progress after this step. Once the flight
// reaches p >= 1 the camera is set exactly to the target and the slot is
// cleared.
func (a *Animator) Step(now time.Time, cam *scene.Camera) bool {
	f := a.flight
	if f == nil {
		return false
	}
	p := float64(now.Sub(f.start)) / float64(a.duration)
	if p >= 1 {
		*cam = f.to
		a.flight = nil
		return false
	}
	*cam = Lerp(f.from, f.to, Ease(p))
	return true
}

// Active reports whether a flight is running.
func (a *Animator) Active() bool { return a.flight != nil }

// Generation returns the number of flights started so far.
func (a *Animator) Generation() uint64 { return a.gen }

// Target returns the destination of the running flight.
func (a *Animator) Target() (scene.Camera, bool) {
	if a.flight == nil {
		return scene.Camera{}, false
	}
	return a.flight.to, true
}

// Cancel stops the running flight, leaving the camera where it is.
func (a *Animator) Cancel() {
	a.flight = nil
}
