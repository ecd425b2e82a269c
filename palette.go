package pbn

import (
	"image/color"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/pkg/errors"
)

type PaletteMethod int

const (
	// PaletteKMeansPP runs Quantize over the whole population.
	PaletteKMeansPP PaletteMethod = iota
	// PaletteKMeans clusters a subsample with muesli/kmeans and keeps the most
	// diverse weighted centers.
	PaletteKMeans
	// PaletteDominant uses dominantcolor candidates and keeps the most diverse.
	PaletteDominant
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteKMeans:
		return "kmeans"
	case PaletteDominant:
		return "dominantcolor"
	default:
		return "kmeans++"
	}
}

// ParsePaletteMethod is the inverse of String.
func ParsePaletteMethod(s string) (PaletteMethod, error) {
	for _, m := range []PaletteMethod{PaletteKMeansPP, PaletteKMeans, PaletteDominant} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidParameter, "unknown palette method %q", s)
}

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

// ExtractPalette returns exactly k colors for g using method. All methods share the
// k-means++ parameter checks; the library backed ones are topped up with the colors
// the palette serves worst when they come back short.
func ExtractPalette(g *Grid, k int, method PaletteMethod, rng *rand.Rand) (Palette, error) {
	if g.Empty() {
		return nil, errors.Wrap(ErrEmptyInput, "palette")
	}
	if k <= 0 || k > len(g.Pix) {
		return nil, errors.Wrapf(ErrInvalidParameter, "k=%d must be in [1, %d]", k, len(g.Pix))
	}

	var cands []weightedColor
	switch method {
	case PaletteKMeans:
		var err error
		cands, err = kmeansCandidates(g, k)
		if err != nil {
			return nil, err
		}
	case PaletteDominant:
		cands = dominantCandidates(g, k)
	default:
		return Quantize(g.Pix, k, rng)
	}

	var p Palette
	for _, c := range selectDiverseColors(cands, k) {
		r, gg, b := c.Clamped().RGB255()
		p = append(p, Color{r, gg, b})
	}
	return topUp(p, g.Pix, k), nil
}

func dominantCandidates(g *Grid, k int) []weightedColor {
	nCandidates := max(24, k*8)
	found := dominantcolor.FindWeight(g.Image(), nCandidates)
	out := make([]weightedColor, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, weightedColor{Col: col.Clamped(), Weight: c.Weight})
	}
	return out
}

func kmeansCandidates(g *Grid, k int) ([]weightedColor, error) {
	// Subsample to keep kmeans tractable on large images.
	maxSamples := 12000
	step := 1
	if len(g.Pix) > maxSamples {
		step = int(math.Sqrt(float64(len(g.Pix))/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(len(g.Pix), maxSamples))
	for y := 0; y < g.H; y += step {
		for x := 0; x < g.W; x += step {
			c := g.At(x, y)
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}

	workK := min(max(k*4, k+2), len(dataset))
	km := kmeans.New()
	cc, err := km.Partition(dataset, workK)
	if err != nil {
		return nil, errors.Wrap(err, "kmeans partition")
	}

	// Sort by cluster population so dominant colors come first.
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	out := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		out = append(out, weightedColor{Col: col, Weight: float64(len(c.Observations))})
	}
	return out, nil
}

// selectDiverseColors greedily picks up to k candidates, starting from the
// heaviest and then preferring colors far (in Lab) from those already chosen, scaled
// by their weight.
func selectDiverseColors(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	type item struct {
		col colorful.Color
		w   float64
	}
	items := make([]item, 0, len(cands))
	maxW := 0.0
	for _, c := range cands {
		w := c.Weight
		if w <= 0 {
			w = 1e-6
		}
		maxW = max(maxW, w)
		items = append(items, item{col: c.Col.Clamped(), w: w})
	}
	k = min(k, len(items))

	selected := make([]bool, len(items))
	selectedIdx := make([]int, 0, k)

	// Seed with strongest color to stay close to dominant tones.
	bestSeed := 0
	for i := 1; i < len(items); i++ {
		if items[i].w > items[bestSeed].w {
			bestSeed = i
		}
	}
	selected[bestSeed] = true
	selectedIdx = append(selectedIdx, bestSeed)

	for len(selectedIdx) < k {
		bestIdx := -1
		bestScore := -1.0
		for i := range items {
			if selected[i] {
				continue
			}
			minD := math.MaxFloat64
			for _, s := range selectedIdx {
				minD = min(minD, items[i].col.DistanceLab(items[s].col))
			}
			score := minD * (0.55 + 0.45*math.Sqrt(items[i].w/maxW))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		selectedIdx = append(selectedIdx, bestIdx)
	}

	out := make([]colorful.Color, 0, len(selectedIdx))
	for _, idx := range selectedIdx {
		out = append(out, items[idx].col)
	}
	return out
}

// topUp dedupes p and grows it to k entries with the worst served population colors.
// Once the population has no color left outside p, the last entry is repeated.
func topUp(p Palette, pixels []Color, k int) Palette {
	out := make(Palette, 0, k)
	for _, c := range p {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = append(out, pixels[0])
	}
	for len(out) < k {
		c := worstServed(pixels, out)
		if slices.Contains(out, c) {
			break
		}
		out = append(out, c)
	}
	for len(out) < k {
		out = append(out, out[len(out)-1])
	}
	return out[:k]
}

// HexColors renders a palette as #rrggbb strings.
func HexColors(p []Color) []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = Hex(c)
	}
	return out
}

// Hex returns c as #rrggbb.
func Hex(c Color) string {
	col, _ := colorful.MakeColor(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
	return col.Hex()
}
