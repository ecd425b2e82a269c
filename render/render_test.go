package render

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"image"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/setanarut/pbn"
)

type svgDoc struct {
	ViewBox string     `xml:"viewBox,attr"`
	Title   string     `xml:"title"`
	Groups  []svgGroup `xml:"g"`
}

type svgGroup struct {
	ID    string    `xml:"id,attr"`
	Paths []svgPath `xml:"path"`
	Texts []svgText `xml:"text"`
	Rects []svgRect `xml:"rect"`
}

type svgPath struct {
	D     string `xml:"d,attr"`
	Fill  string `xml:"fill,attr"`
	Class string `xml:"class,attr"`
}

type svgText struct {
	X    int    `xml:"x,attr"`
	Y    int    `xml:"y,attr"`
	Body string `xml:",chardata"`
}

type svgRect struct {
	Fill string `xml:"fill,attr"`
}

func vectorize(t *testing.T, rows ...string) *pbn.Document {
	t.Helper()
	key := map[byte]pbn.Color{'A': {255, 0, 0}, 'B': {0, 0, 255}}
	g := pbn.NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		for x := range len(row) {
			g.Set(x, y, key[row[x]])
		}
	}
	doc, err := pbn.Vectorize(g)
	test.That(t, err, test.ShouldBeNil)
	return doc
}

func parseSVG(t *testing.T, data []byte) svgDoc {
	t.Helper()
	var s svgDoc
	test.That(t, xml.Unmarshal(data, &s), test.ShouldBeNil)
	return s
}

func group(s svgDoc, id string) svgGroup {
	for _, g := range s.Groups {
		if g.ID == id {
			return g
		}
	}
	return svgGroup{}
}

func TestSVG(t *testing.T) {
	doc := vectorize(t, "AAAA", "AAAA", "AAAA", "AAAA")

	var buf bytes.Buffer
	test.That(t, SVG(&buf, doc, DefaultOptions()), test.ShouldBeNil)
	s := parseSVG(t, buf.Bytes())

	test.That(t, s.ViewBox, test.ShouldEqual, "0 0 4 4")
	test.That(t, s.Title, test.ShouldEqual, "paint by numbers")
	regions := group(s, "regions")
	test.That(t, regions.Paths, test.ShouldHaveLength, 1)
	test.That(t, regions.Paths[0].D, test.ShouldEqual, "M 0 0 L 3 0 L 3 3 L 0 3 Z")
	test.That(t, regions.Paths[0].Fill, test.ShouldEqual, "none")
	test.That(t, regions.Paths[0].Class, test.ShouldEqual, "")

	labels := group(s, "labels")
	test.That(t, labels.Texts, test.ShouldHaveLength, 1)
	test.That(t, labels.Texts[0].Body, test.ShouldEqual, "1")
	test.That(t, labels.Texts[0].X, test.ShouldEqual, 2)
	test.That(t, labels.Texts[0].Y, test.ShouldEqual, 2)
	test.That(t, group(s, "legend").Rects, test.ShouldBeEmpty)
}

func TestSVGFillAndLegend(t *testing.T) {
	doc := vectorize(t,
		"AAAABBBB",
		"AAAABBBB",
		"AAAABBBB",
		"AAAABBBB",
	)
	opt := DefaultOptions()
	opt.Fill = true
	opt.Legend = true
	opt.LegendColumns = 1

	var buf bytes.Buffer
	test.That(t, SVG(&buf, doc, opt), test.ShouldBeNil)
	s := parseSVG(t, buf.Bytes())

	// two legend rows of 24+12 below the 4 pixel drawing
	test.That(t, s.ViewBox, test.ShouldEqual, "0 0 8 76")
	regions := group(s, "regions")
	test.That(t, regions.Paths, test.ShouldHaveLength, 2)
	test.That(t, regions.Paths[0].Fill, test.ShouldEqual, "#ff0000")
	test.That(t, regions.Paths[1].Fill, test.ShouldEqual, "#0000ff")

	legend := group(s, "legend")
	test.That(t, legend.Rects, test.ShouldHaveLength, 2)
	test.That(t, legend.Rects[1].Fill, test.ShouldEqual, "#0000ff")
	test.That(t, legend.Texts[1].Body, test.ShouldEqual, "2")
}

func TestSVGIncomplete(t *testing.T) {
	doc := vectorize(t,
		"BBBBB",
		"BAAAB",
		"BBBBB",
	)
	var buf bytes.Buffer
	test.That(t, SVG(&buf, doc, DefaultOptions()), test.ShouldBeNil)
	paths := group(parseSVG(t, buf.Bytes()), "regions").Paths
	test.That(t, paths, test.ShouldHaveLength, 2)
	test.That(t, paths[0].Class, test.ShouldEqual, "")
	test.That(t, paths[1].Class, test.ShouldEqual, "incomplete")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestSVGErrors(t *testing.T) {
	doc := vectorize(t, "AB")
	err := SVG(failingWriter{}, doc, DefaultOptions())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "disk full")

	err = SVG(&bytes.Buffer{}, nil, DefaultOptions())
	test.That(t, errors.Is(err, pbn.ErrEmptyInput), test.ShouldBeTrue)
}

func TestPathData(t *testing.T) {
	rings := []pbn.Ring{
		{Points: []image.Point{{0, 0}, {6, 0}, {6, 6}, {0, 6}}},
		{Points: []image.Point{{2, 2}}},
	}
	test.That(t, PathData(rings), test.ShouldEqual, "M 0 0 L 6 0 L 6 6 L 0 6 Z M 2 2 Z")
	test.That(t, PathData(nil), test.ShouldEqual, "")
}

func TestJSON(t *testing.T) {
	doc := vectorize(t,
		"BBBBB",
		"BAAAB",
		"BBBBB",
	)
	var buf bytes.Buffer
	test.That(t, JSON(&buf, doc), test.ShouldBeNil)

	var out jsonDocument
	test.That(t, json.Unmarshal(buf.Bytes(), &out), test.ShouldBeNil)
	test.That(t, out.Width, test.ShouldEqual, 5)
	test.That(t, out.Height, test.ShouldEqual, 3)
	test.That(t, out.Colors, test.ShouldResemble, []string{"#0000ff", "#ff0000"})
	test.That(t, out.Regions, test.ShouldHaveLength, 2)
	test.That(t, out.Regions[0].Rings[0].Points, test.ShouldResemble, [][2]int{{0, 0}, {4, 0}, {4, 2}, {0, 2}})
	test.That(t, out.Regions[1].Label, test.ShouldEqual, 2)
	test.That(t, out.Regions[1].Area, test.ShouldEqual, 3)
	test.That(t, out.Regions[1].Degenerate, test.ShouldBeTrue)
	test.That(t, out.Regions[1].Rings[0].Complete, test.ShouldBeFalse)
	test.That(t, out.Anomalies, test.ShouldHaveLength, 1)

	test.That(t, errors.Is(JSON(&buf, nil), pbn.ErrEmptyInput), test.ShouldBeTrue)
}
