package pbn

import (
	"image"

	"github.com/pkg/errors"
)

// Vectorize traces every 4-connected region of g into boundary rings, places a label
// anchor inside each and numbers colors by first appearance. The grid is only read.
// Rings that cannot be closed are kept, marked incomplete and reported as anomalies.
func Vectorize(g *Grid) (*Document, error) {
	if g.Empty() {
		return nil, errors.Wrap(ErrEmptyInput, "vectorize")
	}

	doc := &Document{Width: g.W, Height: g.H}
	labels := make(map[Color]int)
	for _, c := range g.Pix {
		if _, ok := labels[c]; !ok {
			doc.Colors = append(doc.Colors, c)
			labels[c] = len(doc.Colors)
		}
	}

	v := &vectorizer{
		g:       g,
		claimed: make([]bool, len(g.Pix)),
		traced:  make([]bool, len(g.Pix)),
	}
	for seed := range g.Pix {
		if v.claimed[seed] {
			continue
		}
		idx := len(doc.Regions)
		region := v.region(seed)
		region.Label = labels[region.Color]

		for ri, ring := range region.Rings {
			if ring.Complete {
				continue
			}
			last := ring.Trace[len(ring.Trace)-1]
			doc.Anomalies = append(doc.Anomalies, Anomaly{
				Region: idx,
				Seed:   region.Seed,
				Err:    errors.Wrapf(ErrInconsistentRegion, "ring %d not closed at (%d,%d)", ri, last.X, last.Y),
			})
		}

		var degenerate bool
		region.Anchor, degenerate = placeAnchor(region.Rings, g.W, g.H)
		region.Degenerate = degenerate || !region.Rings[0].Complete
		doc.Regions = append(doc.Regions, region)
	}
	return doc, nil
}

// vectorizer owns two masks: claimed marks pixels assigned to a region by the flood
// fill, traced marks pixels already used as ring vertices.
type vectorizer struct {
	g       *Grid
	claimed []bool
	traced  []bool
	queue   []int
}

func (v *vectorizer) enqueue(i int) {
	if !v.claimed[i] {
		v.claimed[i] = true
		v.queue = append(v.queue, i)
	}
}

func (v *vectorizer) region(seed int) Region {
	g := v.g
	col := g.Pix[seed]
	r := Region{Color: col, Seed: g.point(seed)}

	v.queue = v.queue[:0]
	v.enqueue(seed)
	for len(v.queue) > 0 {
		cur := v.queue[0]
		v.queue = v.queue[1:]
		r.Area++

		if !v.traced[cur] && v.isBorder(cur) {
			trace, complete := v.follow(cur)
			points := Simplify(trace)
			r.Rings = append(r.Rings, Ring{Trace: trace, Points: points, Complete: complete})
		}

		g.forNeighbors4(cur, func(nb int) {
			if g.Pix[nb] == col {
				v.enqueue(nb)
			}
		})
	}
	return r
}

// isBorder reports whether pixel i touches the grid edge or has a differently colored
// pixel among its 8 neighbors.
func (v *vectorizer) isBorder(i int) bool {
	g := v.g
	x, y := i%g.W, i/g.W
	if x == 0 || y == 0 || x == g.W-1 || y == g.H-1 {
		return true
	}
	c := g.Pix[i]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if g.Pix[g.offset(x+dx, y+dy)] != c {
				return true
			}
		}
	}
	return false
}

// follow walks the boundary from start, scanning cardinal neighbors clockwise from up
// and stepping to the first same-colored, untraced border pixel. Same-colored interior
// pixels seen on the way go to the flood fill. The walk stops when start is adjacent;
// if it gets stuck elsewhere the partial ring is returned incomplete.
func (v *vectorizer) follow(start int) ([]image.Point, bool) {
	g := v.g
	col := g.Pix[start]
	ring := []image.Point{g.point(start)}
	v.traced[start] = true

	prev, cur := -1, start
	for {
		next := -1
		x, y := cur%g.W, cur/g.W
		for k := range 4 {
			nx, ny := x+dx4[k], y+dy4[k]
			if !g.in(nx, ny) {
				continue
			}
			n := g.offset(nx, ny)
			if n == prev {
				continue
			}
			if n == start {
				return ring, true
			}
			if v.traced[n] || g.Pix[n] != col {
				continue
			}
			if !v.isBorder(n) {
				v.enqueue(n)
				continue
			}
			next = n
			break
		}
		if next < 0 {
			return ring, len(ring) == 1 || adjacent4(ring[len(ring)-1], ring[0])
		}
		v.traced[next] = true
		ring = append(ring, g.point(next))
		prev, cur = cur, next
	}
}

func adjacent4(a, b image.Point) bool {
	d := a.Sub(b)
	return (d.X == 0 && (d.Y == 1 || d.Y == -1)) || (d.Y == 0 && (d.X == 1 || d.X == -1))
}
