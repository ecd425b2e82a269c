package pbn

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Recolor returns a new grid where every pixel is replaced by its nearest palette color
// (Euclidean, lowest palette index on ties). The input grid is not modified.
func Recolor(g *Grid, palette Palette) (*Grid, error) {
	if g.Empty() {
		return nil, errors.Wrap(ErrEmptyInput, "recolor")
	}
	if len(palette) == 0 {
		return nil, errors.Wrap(ErrInvalidParameter, "recolor: empty palette")
	}

	out := NewGrid(g.W, g.H)
	workers := runtime.GOMAXPROCS(0)
	rows := max((g.H+workers-1)/workers, 1)

	var eg errgroup.Group
	eg.SetLimit(workers)
	for y0 := 0; y0 < g.H; y0 += rows {
		lo := y0 * g.W
		hi := min(y0+rows, g.H) * g.W
		eg.Go(func() error {
			cache := make(map[Color]Color, len(palette)*4)
			for i := lo; i < hi; i++ {
				c := g.Pix[i]
				nc, ok := cache[c]
				if !ok {
					nc = palette[palette.Nearest(c)]
					cache[c] = nc
				}
				out.Pix[i] = nc
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
