package pbn

import (
	"image"

	"github.com/pkg/errors"
)

// RegionFlag identifies a consolidated region that finished below the minimum area.
type RegionFlag struct {
	Seed   image.Point
	Pixels int
	Color  Color
}

// ConsolidationReport describes what Consolidate did beyond the repainted grid.
type ConsolidationReport struct {
	// Regions is the number of candidate regions processed.
	Regions int
	// Merged counts regions repainted to a neighbor's color.
	Merged int
	// Inherited lists regions that took a finalized neighbor's color without absorbing
	// enough pixels. They join that neighbor's component, so the area bound still holds
	// for the component in the output grid.
	Inherited []RegionFlag
	// Undersized lists regions that ran out of neighbors before reaching the minimum area,
	// e.g. a grid smaller than the minimum area.
	Undersized []RegionFlag
	Anomalies  []Anomaly
}

// Err combines the anomalies, nil when there are none.
func (r ConsolidationReport) Err() error {
	return combineAnomalies(r.Anomalies)
}

// Consolidate merges every 4-connected region smaller than minArea into the dominant
// color of its surroundings. Regions are processed in row-major seed order; finalized
// regions are never reopened. The input grid is left untouched.
func Consolidate(g *Grid, minArea int) (*Grid, ConsolidationReport, error) {
	var report ConsolidationReport
	if g.Empty() {
		return nil, report, errors.Wrap(ErrEmptyInput, "consolidate")
	}
	if minArea <= 0 {
		return nil, report, errors.Wrapf(ErrInvalidParameter, "min area %d must be positive", minArea)
	}

	c := newConsolidator(g, minArea)
	for seed := range g.Pix {
		if c.visited[seed] {
			continue
		}
		c.region(seed, &report)
	}
	return c.out, report, nil
}

type consolidator struct {
	src, out *Grid
	minArea  int

	// visited marks finalized pixels.
	visited []bool
	// member and edgeMark hold the current stamp for pixels in the working set and
	// the edge set; -stamp marks an edge already consumed for this region.
	member   []int
	edgeMark []int
	stamp    int

	work  []int
	edges []int
	live  []int
	queue []int
}

func newConsolidator(g *Grid, minArea int) *consolidator {
	return &consolidator{
		src:      g,
		out:      g.Clone(),
		minArea:  minArea,
		visited:  make([]bool, len(g.Pix)),
		member:   make([]int, len(g.Pix)),
		edgeMark: make([]int, len(g.Pix)),
	}
}

// current is the color a pixel shows right now: its final color once finalized,
// otherwise its original one.
func (c *consolidator) current(i int) Color {
	if c.visited[i] {
		return c.out.Pix[i]
	}
	return c.src.Pix[i]
}

// flood adds start and every unvisited pixel of color col 4-connected to it to the
// working set. Neighbors that are finalized or of another color become edges.
func (c *consolidator) flood(start int, col Color) {
	c.member[start] = c.stamp
	c.edgeMark[start] = 0
	c.work = append(c.work, start)
	c.queue = append(c.queue[:0], start)
	for len(c.queue) > 0 {
		cur := c.queue[0]
		c.queue = c.queue[1:]
		c.src.forNeighbors4(cur, func(nb int) {
			if c.member[nb] == c.stamp {
				return
			}
			if !c.visited[nb] && c.src.Pix[nb] == col {
				c.member[nb] = c.stamp
				c.edgeMark[nb] = 0
				c.work = append(c.work, nb)
				c.queue = append(c.queue, nb)
				return
			}
			if m := c.edgeMark[nb]; m != c.stamp && m != -c.stamp {
				c.edgeMark[nb] = c.stamp
				c.edges = append(c.edges, nb)
			}
		})
	}
}

// liveEdges compacts the edge list to the pixels still in the edge set and returns a
// copy that stays valid while flood appends new edges.
func (c *consolidator) liveEdges() []int {
	c.live = c.live[:0]
	for _, e := range c.edges {
		if c.edgeMark[e] == c.stamp {
			c.live = append(c.live, e)
		}
	}
	c.edges = append(c.edges[:0], c.live...)
	return c.live
}

// dominant returns the most frequent current color among edges, the earliest seen
// color winning ties.
func (c *consolidator) dominant(edges []int) Color {
	counts := make(map[Color]int)
	var order []Color
	for _, e := range edges {
		col := c.current(e)
		if counts[col] == 0 {
			order = append(order, col)
		}
		counts[col]++
	}
	best := order[0]
	for _, col := range order[1:] {
		if counts[col] > counts[best] {
			best = col
		}
	}
	return best
}

func (c *consolidator) region(seed int, report *ConsolidationReport) {
	c.stamp++
	c.work = c.work[:0]
	c.edges = c.edges[:0]

	seedColor := c.src.Pix[seed]
	effective := seedColor
	c.flood(seed, seedColor)

	// bonus is the area credited for bordering finalized regions of the chosen color
	bonus := 0
	flagged := false
	for len(c.work)+bonus < c.minArea {
		edges := c.liveEdges()
		if len(edges) == 0 {
			break
		}
		dom := c.dominant(edges)
		for _, e := range edges {
			if c.edgeMark[e] != c.stamp {
				// absorbed by a flood earlier in this pass
				continue
			}
			col := c.current(e)
			if col != dom {
				if c.visited[e] && col == seedColor && !flagged {
					// A finalized neighbor still showing this region's own color should
					// have absorbed it. Report instead of crediting area for it.
					flagged = true
					report.Anomalies = append(report.Anomalies, Anomaly{
						Region: report.Regions,
						Seed:   c.src.point(seed),
						Err: errors.Wrapf(ErrInconsistentRegion,
							"finalized neighbor at (%d,%d) keeps the region color", e%c.src.W, e/c.src.W),
					})
				}
				continue
			}
			if c.visited[e] {
				c.edgeMark[e] = -c.stamp
				bonus += c.minArea
				continue
			}
			c.flood(e, dom)
		}
		effective = dom
	}

	for _, p := range c.work {
		c.visited[p] = true
		c.out.Pix[p] = effective
	}

	pixels := len(c.work)
	flag := RegionFlag{Seed: c.src.point(seed), Pixels: pixels, Color: effective}
	switch {
	case pixels+bonus < c.minArea:
		report.Undersized = append(report.Undersized, flag)
	case pixels < c.minArea:
		report.Inherited = append(report.Inherited, flag)
	}
	if effective != seedColor {
		report.Merged++
	}
	report.Regions++
}
