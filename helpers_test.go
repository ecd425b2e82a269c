package pbn

import (
	"math/rand/v2"
)

var (
	black = Color{0, 0, 0}
	white = Color{255, 255, 255}
	red   = Color{255, 0, 0}
	green = Color{0, 255, 0}
	blue  = Color{0, 0, 255}
)

// gridOf builds a grid from equal length rows, one character per pixel.
func gridOf(key map[byte]Color, rows ...string) *Grid {
	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		for x := range len(row) {
			g.Set(x, y, key[row[x]])
		}
	}
	return g
}

var abKey = map[byte]Color{'A': red, 'B': blue, 'C': green, 'H': black, 'O': white}

func randomGrid(w, h int, colors []Color, seed uint64) *Grid {
	rng := rand.New(rand.NewPCG(seed, seed))
	g := NewGrid(w, h)
	for i := range g.Pix {
		g.Pix[i] = colors[rng.IntN(len(colors))]
	}
	return g
}

func noisyGrid(w, h int, seed uint64) *Grid {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	g := NewGrid(w, h)
	for i := range g.Pix {
		g.Pix[i] = Color{uint8(rng.IntN(256)), uint8(rng.IntN(256)), uint8(rng.IntN(256))}
	}
	return g
}

// components returns the area of every 4-connected same-color component.
func components(g *Grid) []int {
	seen := make([]bool, len(g.Pix))
	var areas []int
	for start := range g.Pix {
		if seen[start] {
			continue
		}
		seen[start] = true
		stack := []int{start}
		n := 0
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n++
			g.forNeighbors4(cur, func(nb int) {
				if !seen[nb] && g.Pix[nb] == g.Pix[cur] {
					seen[nb] = true
					stack = append(stack, nb)
				}
			})
		}
		areas = append(areas, n)
	}
	return areas
}
