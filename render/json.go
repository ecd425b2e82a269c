package render

import (
	"encoding/json"
	"image"
	"io"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/setanarut/pbn"
)

type jsonDocument struct {
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Colors    []string     `json:"colors"`
	Regions   []jsonRegion `json:"regions"`
	Anomalies []string     `json:"anomalies,omitempty"`
}

type jsonRegion struct {
	Label      int        `json:"label"`
	Color      string     `json:"color"`
	Area       int        `json:"area"`
	Anchor     [2]float64 `json:"anchor"`
	Degenerate bool       `json:"degenerate,omitempty"`
	Rings      []jsonRing `json:"rings"`
}

type jsonRing struct {
	Points   [][2]int `json:"points"`
	Complete bool     `json:"complete"`
}

// JSON writes doc as an indented JSON object with hex colors and simplified rings.
func JSON(w io.Writer, doc *pbn.Document) error {
	if doc == nil {
		return errors.Wrap(pbn.ErrEmptyInput, "render json")
	}
	out := jsonDocument{
		Width:  doc.Width,
		Height: doc.Height,
		Colors: pbn.HexColors(doc.Colors),
		Regions: lo.Map(doc.Regions, func(r pbn.Region, _ int) jsonRegion {
			return jsonRegion{
				Label:      r.Label,
				Color:      pbn.Hex(r.Color),
				Area:       r.Area,
				Anchor:     [2]float64{r.Anchor.X, r.Anchor.Y},
				Degenerate: r.Degenerate,
				Rings: lo.Map(r.Rings, func(ring pbn.Ring, _ int) jsonRing {
					return jsonRing{
						Points: lo.Map(ring.Points, func(p image.Point, _ int) [2]int {
							return [2]int{p.X, p.Y}
						}),
						Complete: ring.Complete,
					}
				}),
			}
		}),
		Anomalies: lo.Map(doc.Anomalies, func(a pbn.Anomaly, _ int) string {
			return a.Error()
		}),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(out), "render json")
}
