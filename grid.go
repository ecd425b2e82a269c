package pbn

import (
	"image"
	"image/color"
	"math"
)

// Color is a three channel pixel value. Equality is exact and componentwise.
type Color struct {
	R, G, B uint8
}

// RGBA implements color.Color so grids and palettes can be handed to image code directly.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}.RGBA()
}

// Distance is the Euclidean distance in channel space.
func (c Color) Distance(o Color) float64 {
	return math.Sqrt(float64(c.distSq(o)))
}

func (c Color) distSq(o Color) int {
	dr := int(c.R) - int(o.R)
	dg := int(c.G) - int(o.G)
	db := int(c.B) - int(o.B)
	return dr*dr + dg*dg + db*db
}

// ColorOf drops alpha and converts any color to 8-bit channels.
func ColorOf(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return Color{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

// Palette is an ordered set of representative colors.
type Palette []Color

// Colors returns the palette as image/color values.
func (p Palette) Colors() []color.Color {
	out := make([]color.Color, len(p))
	for i, c := range p {
		out[i] = c
	}
	return out
}

// Nearest returns the index of the closest palette color, lowest index on ties.
func (p Palette) Nearest(c Color) int {
	best := 0
	bestD := math.MaxInt
	for i, pc := range p {
		d := c.distSq(pc)
		if d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

// Grid is a W×H pixel raster stored row-major, pixel (x, y) at Pix[y*W+x].
type Grid struct {
	W, H int
	Pix  []Color
}

func NewGrid(w, h int) *Grid {
	return &Grid{W: w, H: h, Pix: make([]Color, w*h)}
}

func (g *Grid) offset(x, y int) int {
	return y*g.W + x
}

func (g *Grid) point(i int) image.Point {
	return image.Point{X: i % g.W, Y: i / g.W}
}

func (g *Grid) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.W && y < g.H
}

func (g *Grid) At(x, y int) Color {
	return g.Pix[g.offset(x, y)]
}

func (g *Grid) Set(x, y int, c Color) {
	g.Pix[g.offset(x, y)] = c
}

// Empty reports whether the grid holds no pixels.
func (g *Grid) Empty() bool {
	return g == nil || g.W <= 0 || g.H <= 0 || len(g.Pix) == 0
}

func (g *Grid) Clone() *Grid {
	out := &Grid{W: g.W, H: g.H, Pix: make([]Color, len(g.Pix))}
	copy(out.Pix, g.Pix)
	return out
}

// GridFromImage copies img into a grid anchored at (0, 0).
func GridFromImage(img image.Image) *Grid {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	g := NewGrid(w, h)
	if rgba, ok := img.(*image.RGBA); ok {
		for y := range h {
			for x := range w {
				off := rgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				g.Pix[g.offset(x, y)] = Color{rgba.Pix[off], rgba.Pix[off+1], rgba.Pix[off+2]}
			}
		}
		return g
	}
	for y := range h {
		for x := range w {
			g.Pix[g.offset(x, y)] = ColorOf(img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return g
}

// Image returns an opaque RGBA copy of the grid.
func (g *Grid) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.W, g.H))
	for i, c := range g.Pix {
		off := i * 4
		img.Pix[off] = c.R
		img.Pix[off+1] = c.G
		img.Pix[off+2] = c.B
		img.Pix[off+3] = 255
	}
	return img
}

// Regions counts the 4-connected same-color components of the grid.
func (g *Grid) Regions() int {
	if g.Empty() {
		return 0
	}
	seen := make([]bool, len(g.Pix))
	queue := make([]int, 0, 64)
	n := 0
	for start := range g.Pix {
		if seen[start] {
			continue
		}
		n++
		seen[start] = true
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			g.forNeighbors4(cur, func(nb int) {
				if !seen[nb] && g.Pix[nb] == g.Pix[cur] {
					seen[nb] = true
					queue = append(queue, nb)
				}
			})
		}
	}
	return n
}

var (
	dx4 = [4]int{0, 1, 0, -1}
	dy4 = [4]int{-1, 0, 1, 0}
)

// forNeighbors4 visits in-bounds cardinal neighbors in clockwise order starting at up.
func (g *Grid) forNeighbors4(i int, fn func(int)) {
	x, y := i%g.W, i/g.W
	for k := range 4 {
		nx, ny := x+dx4[k], y+dy4[k]
		if g.in(nx, ny) {
			fn(g.offset(nx, ny))
		}
	}
}
