package viewport

import (
	"math"
	"testing"
	"time"

	"github.com/matzehuels/featuremap/pkg/scene"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestRoundTrip(t *testing.T) {
	cams := []scene.Camera{
		{X: 0, Y: 0, Scale: 1},
		{X: -120.5, Y: 33, Scale: 0.25},
		{X: 1e4, Y: -1e4, Scale: 3.5},
		{X: 7, Y: 9, Scale: 1.37},
	}
	points := []scene.Point{{X: 0, Y: 0}, {X: 640, Y: 480}, {X: -20, Y: 15.5}, {X: 1e5, Y: -3}}

	for _, cam := range cams {
		for _, p := range points {
			w := ToWorld(cam, p.X, p.Y)
			s := ToScreen(cam, w.X, w.Y)
			if math.Abs(s.X-p.X) > 1e-6 || math.Abs(s.Y-p.Y) > 1e-6 {
				t.Errorf("cam %+v: ToScreen(ToWorld(%v)) = %v", cam, p, s)
			}
		}
	}
}

func TestZoomAtKeepsCursorFixed(t *testing.T) {
	tests := []struct {
		name  string
		scale float64
		want  float64
	}{
		{"ZoomIn", 2, 2},
		{"ZoomOut", 0.5, 0.5},
		{"ClampLow", 0.01, MinScale},
		{"ClampHigh", 50, MaxScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := scene.Camera{X: 10, Y: -40, Scale: 1}
			cursor := scene.Point{X: 300, Y: 200}
			before := ToWorld(cam, cursor.X, cursor.Y)

			ZoomAt(&cam, cursor, tt.scale)

			if cam.Scale != tt.want {
				t.Errorf("scale = %v, want %v", cam.Scale, tt.want)
			}
			after := ToWorld(cam, cursor.X, cursor.Y)
			if !near(before.X, after.X) || !near(before.Y, after.Y) {
				t.Errorf("world point under cursor moved: %v -> %v", before, after)
			}
		})
	}
}

func TestWheelScale(t *testing.T) {
	tests := []struct {
		scale, dy, want float64
	}{
		{1, 120, 0.9},
		{1, -3, 1.1},
		{1, 0, 1},
		{0.26, 500, MinScale},
		{3.4, -1, MaxScale},
	}
	for _, tt := range tests {
		if got := WheelScale(tt.scale, tt.dy); !near(got, tt.want) {
			t.Errorf("WheelScale(%v, %v) = %v, want %v", tt.scale, tt.dy, got, tt.want)
		}
	}
}

func TestPanIsDeltaInvariant(t *testing.T) {
	start := scene.Camera{X: 100, Y: 50, Scale: 2}
	from := scene.Point{X: 10, Y: 10}
	anchor := ToWorld(start, from.X, from.Y)

	// one move vs. many moves to the same end point
	direct := Pan(start, from, scene.Point{X: 90, Y: -30})
	var stepped scene.Camera
	for i := 1; i <= 8; i++ {
		stepped = Pan(start, from, scene.Point{X: 10 + 10*float64(i), Y: 10 - 5*float64(i)})
	}
	if direct != stepped {
		t.Errorf("pan depends on path: %+v vs %+v", direct, stepped)
	}

	under := ToWorld(direct, 90, -30)
	if !near(under.X, anchor.X) || !near(under.Y, anchor.Y) {
		t.Errorf("grabbed point drifted: %v, want %v", under, anchor)
	}
}

func TestCenter(t *testing.T) {
	size := Size{Width: 800, Height: 600}
	cam := Center(scene.Point{X: 100, Y: 200}, size, 10)
	if cam.Scale != MaxFlyScale {
		t.Errorf("scale = %v, want clamp to %v", cam.Scale, MaxFlyScale)
	}
	mid := ToWorld(cam, size.Width/2, size.Height/2)
	if !near(mid.X, 100) || !near(mid.Y, 200) {
		t.Errorf("viewport center = %v, want target", mid)
	}
}

func TestEase(t *testing.T) {
	tests := []struct{ p, want float64 }{
		{-1, 0}, {0, 0}, {0.25, 0.125}, {0.5, 0.5}, {0.75, 0.875}, {1, 1}, {2, 1},
	}
	for _, tt := range tests {
		if got := Ease(tt.p); !near(got, tt.want) {
			t.Errorf("Ease(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestAnimator(t *testing.T) {
	t0 := time.Unix(1000, 0)
	a := NewAnimator(400 * time.Millisecond)
	from := scene.Camera{X: 0, Y: 0, Scale: 1}
	to := scene.Camera{X: 100, Y: 100, Scale: 2}
	a.FlyTo(t0, from, to)

	cam := from
	if !a.Step(t0.Add(200*time.Millisecond), &cam) {
		t.Fatal("flight ended early")
	}
	if !near(cam.X, 50) || !near(cam.Scale, 1.5) {
		t.Errorf("midpoint camera = %+v", cam)
	}

	if a.Step(t0.Add(400*time.Millisecond), &cam) {
		t.Error("flight should finish at p = 1")
	}
	if cam != to {
		t.Errorf("final camera = %+v, want %+v", cam, to)
	}
	if a.Active() || a.Step(t0.Add(time.Second), &cam) {
		t.Error("idle animator should not step")
	}
}

func TestAnimatorReplacesFlight(t *testing.T) {
	t0 := time.Unix(0, 0)
	a := NewAnimator(0)
	if a.Duration() != DefaultFlyDuration {
		t.Fatalf("default duration = %v", a.Duration())
	}

	first := scene.Camera{X: -500, Y: -500, Scale: 1}
	second := scene.Camera{X: 500, Y: 500, Scale: 1}
	cam := scene.Camera{Scale: 1}

	g1 := a.FlyTo(t0, cam, first)
	a.Step(t0.Add(100*time.Millisecond), &cam)
	g2 := a.FlyTo(t0.Add(100*time.Millisecond), cam, second)
	if g2 <= g1 {
		t.Errorf("generation did not advance: %d -> %d", g1, g2)
	}

	prevX := cam.X
	for ms := 150; ms <= 600; ms += 50 {
		a.Step(t0.Add(time.Duration(ms)*time.Millisecond), &cam)
		if cam.X < prevX {
			t.Fatalf("camera moved back toward replaced target at %dms", ms)
		}
		prevX = cam.X
	}
	if cam != second {
		t.Errorf("final camera = %+v, want %+v", cam, second)
	}
}
