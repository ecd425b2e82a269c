package pbn

import (
	"image"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Ring is one closed boundary of a region. Ring 0 of a region is its outer boundary,
// any further rings outline holes.
type Ring struct {
	// Trace holds the walked border pixels in walk order.
	Trace []image.Point
	// Points is Trace reduced to the vertices where the walk changes direction.
	Points []image.Point
	// Complete is false when the walk could not return to its start.
	Complete bool
}

// Region is one vectorized, labelled area of the consolidated grid.
type Region struct {
	// Label is the 1-based index into Document.Colors.
	Label int
	Color Color
	Area  int
	Seed  image.Point
	Rings []Ring
	// Anchor is where the label is drawn.
	Anchor r2.Vec
	// Degenerate is set when no chord through the region could be found for the
	// anchor, or the outer ring is incomplete.
	Degenerate bool
}

// Document is the vector form of a consolidated grid.
type Document struct {
	Width, Height int
	// Colors lists distinct colors in row-major first appearance; label n is Colors[n-1].
	Colors    []Color
	Regions   []Region
	Anomalies []Anomaly
}

// Err combines all anomalies, nil when every ring closed.
func (d *Document) Err() error {
	return combineAnomalies(d.Anomalies)
}

// Label returns the label number of c, 0 if c does not occur in the document.
func (d *Document) Label(c Color) int {
	return slices.Index(d.Colors, c) + 1
}

// Stats summarises region areas.
type Stats struct {
	Regions    int
	Colors     int
	Incomplete int
	MeanArea   float64
	StdDevArea float64
	MedianArea float64
	MinArea    int
}

func (d *Document) Stats() Stats {
	s := Stats{Regions: len(d.Regions), Colors: len(d.Colors)}
	if len(d.Regions) == 0 {
		return s
	}
	areas := make([]float64, len(d.Regions))
	s.MinArea = d.Regions[0].Area
	for i, r := range d.Regions {
		areas[i] = float64(r.Area)
		s.MinArea = min(s.MinArea, r.Area)
		for _, ring := range r.Rings {
			if !ring.Complete {
				s.Incomplete++
			}
		}
	}
	if len(areas) > 1 {
		s.MeanArea, s.StdDevArea = stat.MeanStdDev(areas, nil)
	} else {
		s.MeanArea = areas[0]
	}
	slices.Sort(areas)
	s.MedianArea = stat.Quantile(0.5, stat.Empirical, areas, nil)
	return s
}
