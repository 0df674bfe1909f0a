package scene

import (
	"math"
	"math/rand/v2"
)

// Palette is the cycle of group colors.
var Palette = []string{
	"#6ee7b7", "#93c5fd", "#f9a8d4", "#fdba74", "#a5b4fc",
	"#86efac", "#67e8f9", "#fca5a5", "#fcd34d", "#c4b5fd",
}

// ColorFor returns the palette color for slot ix, wrapping around.
func ColorFor(ix int) string {
	n := len(Palette)
	return Palette[((ix%n)+n)%n]
}

// RandomPointInRing returns a point at a uniformly random angle and a
// distance in [r1, r2) from the origin.
func RandomPointInRing(rng *rand.Rand, r1, r2 float64) Point {
	t := rng.Float64() * math.Pi * 2
	r := r1 + rng.Float64()*(r2-r1)
	return Point{X: math.Cos(t) * r, Y: math.Sin(t) * r}
}
