package pbn

import (
	"image"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// anchorNudge moves the chord midpoint off the ring lines onto a pixel center.
const anchorNudge = 0.5

// placeAnchor picks the label position for a region given its rings, ring 0 being
// the outer one. Starting from the outer ring's centroid it looks along the centroid's
// row and column for ring pixels and takes the midpoint of the widest chord. Whether
// the centroid is inside is decided by ray-cast parity; that is a heuristic, so the
// placement is best effort for strongly non-convex or multiply holed regions.
// The bool result reports a degenerate placement with no usable chord.
func placeAnchor(rings []Ring, w, h int) (r2.Vec, bool) {
	outer := rings[0].Trace
	sx, sy := 0, 0
	for _, p := range outer {
		sx += p.X
		sy += p.Y
	}
	c := image.Point{X: sx / len(outer), Y: sy / len(outer)}

	onRing := make(map[image.Point]bool)
	for _, r := range rings {
		for _, p := range r.Trace {
			onRing[p] = true
		}
	}
	if onRing[c] {
		moved := false
		for k := range 4 {
			n := image.Point{X: c.X + dx4[k], Y: c.Y + dy4[k]}
			if n.In(image.Rect(0, 0, w, h)) && !onRing[n] {
				c, moved = n, true
				break
			}
		}
		if !moved {
			return nudge(toVec(c), w, h), true
		}
	}

	var left, right, up, down []image.Point
	for p := range onRing {
		switch {
		case p.Y == c.Y && p.X < c.X:
			left = append(left, p)
		case p.Y == c.Y && p.X > c.X:
			right = append(right, p)
		case p.X == c.X && p.Y < c.Y:
			up = append(up, p)
		case p.X == c.X && p.Y > c.Y:
			down = append(down, p)
		}
	}
	byDistance := func(a, b image.Point) int {
		return distSq(a, c) - distSq(b, c)
	}
	for _, side := range [][]image.Point{left, right, up, down} {
		slices.SortFunc(side, byDistance)
	}

	// ray-cast parity toward +x
	inside := len(right)%2 == 1

	var chords [][2]image.Point
	if inside {
		if len(left) > 0 && len(right) > 0 {
			chords = append(chords, [2]image.Point{left[0], right[0]})
		}
		if len(up) > 0 && len(down) > 0 {
			chords = append(chords, [2]image.Point{up[0], down[0]})
		}
	} else {
		for _, side := range [][]image.Point{left, right, up, down} {
			if len(side) >= 2 {
				chords = append(chords, [2]image.Point{side[0], side[1]})
			}
		}
	}
	if len(chords) == 0 {
		return nudge(toVec(c), w, h), true
	}

	best := chords[0]
	for _, ch := range chords[1:] {
		if distSq(ch[0], ch[1]) > distSq(best[0], best[1]) {
			best = ch
		}
	}
	mid := r2.Scale(0.5, r2.Add(toVec(best[0]), toVec(best[1])))
	return nudge(mid, w, h), false
}

// Inside applies the label placement parity rule: p is inside when an odd number of
// ring pixels lie on its row to the right of it.
func Inside(rings []Ring, p image.Point) bool {
	n := 0
	for _, r := range rings {
		for _, q := range r.Trace {
			if q.Y == p.Y && q.X > p.X {
				n++
			}
		}
	}
	return n%2 == 1
}

// AnchorPixel is the pixel an anchor falls in.
func AnchorPixel(a r2.Vec) image.Point {
	return image.Point{X: int(math.Floor(a.X)), Y: int(math.Floor(a.Y))}
}

func nudge(v r2.Vec, w, h int) r2.Vec {
	return r2.Vec{
		X: math.Min(math.Max(v.X+anchorNudge, 0), float64(w-1)),
		Y: math.Min(math.Max(v.Y+anchorNudge, 0), float64(h-1)),
	}
}

func toVec(p image.Point) r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

func distSq(a, b image.Point) int {
	d := a.Sub(b)
	return d.X*d.X + d.Y*d.Y
}
