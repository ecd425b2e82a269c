package pbn

import "image"

// Simplify reduces a closed ring to the vertices where the direction of travel
// changes. Straight runs collapse to their end points, so the polygon outline is
// unchanged. The result starts at the first kept vertex of ring; applying Simplify
// to its own output returns it unchanged.
func Simplify(ring []image.Point) []image.Point {
	n := len(ring)
	if n <= 2 {
		return append([]image.Point(nil), ring...)
	}
	out := make([]image.Point, 0, 8)
	for i, p := range ring {
		prev := ring[(i+n-1)%n]
		next := ring[(i+1)%n]
		if direction(p.Sub(prev)) != direction(next.Sub(p)) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		// every step points the same way; only possible for malformed input
		return []image.Point{ring[0]}
	}
	return out
}

// direction normalises d to its smallest integer step.
func direction(d image.Point) image.Point {
	g := gcd(abs(d.X), abs(d.Y))
	if g == 0 {
		return d
	}
	return image.Point{X: d.X / g, Y: d.Y / g}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
