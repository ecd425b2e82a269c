// Package render writes a vectorized Document as SVG or JSON.
package render

import (
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/setanarut/pbn"
)

type Options struct {
	// Outline color of region boundaries.
	Stroke      string
	StrokeWidth int
	// Color, family and size of the region numbers.
	LabelColor string
	FontFamily string
	FontSize   int
	// Fill paints every region with its palette color, giving a preview of the finished
	// picture instead of a blank template.
	Fill bool
	// Legend appends rows of numbered swatches below the drawing.
	Legend bool
	// Swatch side length in the legend.
	SwatchSize int
	// Swatches per legend row.
	LegendColumns int
}

func DefaultOptions() Options {
	return Options{
		Stroke:        "white",
		StrokeWidth:   1,
		LabelColor:    "red",
		FontFamily:    "Verdana",
		FontSize:      10,
		SwatchSize:    24,
		LegendColumns: 10,
	}
}

// SVG writes doc to w. Each region becomes one path with a subpath per ring and a text
// element with its label at the anchor. Regions with an unclosed ring carry
// class="incomplete".
func SVG(w io.Writer, doc *pbn.Document, opt Options) error {
	if doc == nil || doc.Width <= 0 || doc.Height <= 0 {
		return errors.Wrap(pbn.ErrEmptyInput, "render svg")
	}
	opt.SwatchSize = max(opt.SwatchSize, 1)
	opt.LegendColumns = max(opt.LegendColumns, 1)

	var legendRows [][]pbn.Color
	height := doc.Height
	if opt.Legend && len(doc.Colors) > 0 {
		legendRows = lo.Chunk(doc.Colors, opt.LegendColumns)
		height += len(legendRows) * legendRowHeight(opt)
	}

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Startview(doc.Width, height, 0, 0, doc.Width, height)
	canvas.Title("paint by numbers")

	canvas.Gid("regions")
	for _, r := range doc.Regions {
		style := []string{
			attr("stroke", opt.Stroke),
			attr("stroke-width", strconv.Itoa(opt.StrokeWidth)),
			attr("fill-rule", "evenodd"),
		}
		if opt.Fill {
			style = append(style, attr("fill", pbn.Hex(r.Color)))
		} else {
			style = append(style, attr("fill", "none"))
		}
		if lo.ContainsBy(r.Rings, func(ring pbn.Ring) bool { return !ring.Complete }) {
			style = append(style, attr("class", "incomplete"))
		}
		canvas.Path(PathData(r.Rings), style...)
	}
	canvas.Gend()

	canvas.Gid("labels")
	for _, r := range doc.Regions {
		canvas.Text(
			int(math.Round(r.Anchor.X)), int(math.Round(r.Anchor.Y)),
			strconv.Itoa(r.Label),
			labelStyle(opt)...,
		)
	}
	canvas.Gend()

	if len(legendRows) > 0 {
		canvas.Gid("legend")
		rowH := legendRowHeight(opt)
		for ri, row := range legendRows {
			y := doc.Height + ri*rowH + opt.SwatchSize/4
			for ci, c := range row {
				x := ci * opt.SwatchSize * 2
				label := doc.Label(c)
				canvas.Rect(x, y, opt.SwatchSize, opt.SwatchSize,
					attr("fill", pbn.Hex(c)), attr("stroke", "black"))
				canvas.Text(x+opt.SwatchSize/2, y+opt.SwatchSize/2, strconv.Itoa(label), labelStyle(opt)...)
			}
		}
		canvas.Gend()
	}

	canvas.End()
	return errors.Wrap(ew.err, "render svg")
}

// PathData builds the d attribute for a region: one "M x y L ... Z" subpath per ring.
func PathData(rings []pbn.Ring) string {
	var sb strings.Builder
	for _, ring := range rings {
		for i, p := range ring.Points {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			if i == 0 {
				sb.WriteString("M ")
			} else {
				sb.WriteString("L ")
			}
			sb.WriteString(strconv.Itoa(p.X))
			sb.WriteByte(' ')
			sb.WriteString(strconv.Itoa(p.Y))
		}
		if len(ring.Points) > 0 {
			sb.WriteString(" Z")
		}
	}
	return sb.String()
}

func labelStyle(opt Options) []string {
	return []string{
		attr("font-family", opt.FontFamily),
		attr("font-size", strconv.Itoa(opt.FontSize)),
		attr("fill", opt.LabelColor),
		attr("text-anchor", "middle"),
		attr("dominant-baseline", "middle"),
	}
}

func legendRowHeight(opt Options) int {
	return opt.SwatchSize + opt.SwatchSize/2
}

// attr formats a name="value" pair; svgo copies such strings into the element verbatim.
func attr(name, value string) string {
	return name + `="` + value + `"`
}

// errWriter keeps the first write error, svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
