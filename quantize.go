package pbn

import (
	"math/rand/v2"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// MaxIterations caps the k-means refinement loop.
const MaxIterations = 100

// pixels handed to one assignment worker at minimum
const minChunk = 4096

// Quantize clusters the pixel population into exactly k representative colors using
// k-means++ seeding and Lloyd refinement. Pixels are weighted by multiplicity, so pass
// every pixel including duplicates. A nil rng seeds a fresh source, making the result
// vary between calls.
func Quantize(pixels []Color, k int, rng *rand.Rand) (Palette, error) {
	p, _, err := quantize(pixels, k, rng)
	return p, err
}

func quantize(pixels []Color, k int, rng *rand.Rand) (Palette, int, error) {
	if len(pixels) == 0 {
		return nil, 0, errors.Wrap(ErrEmptyInput, "quantize")
	}
	if k <= 0 || k > len(pixels) {
		return nil, 0, errors.Wrapf(ErrInvalidParameter, "k=%d must be in [1, %d]", k, len(pixels))
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	centroids := seedCentroids(pixels, k, rng)

	iter := 0
	for iter < MaxIterations {
		iter++
		sums, err := accumulate(pixels, centroids)
		if err != nil {
			return nil, iter, err
		}
		changed := false
		for i := range centroids {
			s := sums[i]
			if s.n == 0 {
				// Empty cluster: take over the point the palette serves worst.
				if w := worstServed(pixels, centroids); w != centroids[i] {
					centroids[i] = w
					changed = true
				}
				continue
			}
			c := Color{uint8(s.r / s.n), uint8(s.g / s.n), uint8(s.b / s.n)}
			if c != centroids[i] {
				centroids[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return centroids, iter, nil
}

// seedCentroids implements k-means++: the first centroid is uniform, each next one is
// drawn with probability proportional to its squared distance to the nearest centroid.
func seedCentroids(pixels []Color, k int, rng *rand.Rand) Palette {
	notPicked := make([]int, len(pixels))
	for i := range notPicked {
		notPicked[i] = i
	}
	minD2 := make([]int64, 0, len(pixels))

	remove := func(pos int) {
		last := len(notPicked) - 1
		notPicked[pos] = notPicked[last]
		notPicked = notPicked[:last]
		if len(minD2) > 0 {
			minD2[pos] = minD2[last]
			minD2 = minD2[:last]
		}
	}

	centroids := make(Palette, 0, k)
	first := rng.IntN(len(notPicked))
	centroids = append(centroids, pixels[notPicked[first]])
	remove(first)
	for _, idx := range notPicked {
		minD2 = append(minD2, int64(pixels[idx].distSq(centroids[0])))
	}

	for len(centroids) < k {
		var total int64
		for _, d := range minD2 {
			total += d
		}
		pick := 0
		if total == 0 {
			// every remaining point coincides with a centroid
			pick = rng.IntN(len(notPicked))
		} else {
			r := rng.Int64N(total)
			for i, d := range minD2 {
				if r < d {
					pick = i
					break
				}
				r -= d
			}
		}
		c := pixels[notPicked[pick]]
		centroids = append(centroids, c)
		remove(pick)
		for i, idx := range notPicked {
			if d := int64(pixels[idx].distSq(c)); d < minD2[i] {
				minD2[i] = d
			}
		}
	}
	return centroids
}

type clusterSum struct {
	r, g, b, n int64
}

// accumulate assigns every pixel to its nearest centroid and sums each cluster.
// Chunks run in parallel; the centroid table is read-only while they do.
func accumulate(pixels []Color, centroids Palette) ([]clusterSum, error) {
	workers := runtime.GOMAXPROCS(0)
	chunk := max((len(pixels)+workers-1)/workers, minChunk)

	var parts [][]clusterSum
	var eg errgroup.Group
	eg.SetLimit(workers)
	for lo := 0; lo < len(pixels); lo += chunk {
		hi := min(lo+chunk, len(pixels))
		part := make([]clusterSum, len(centroids))
		parts = append(parts, part)
		eg.Go(func() error {
			cache := make(map[Color]int)
			for _, p := range pixels[lo:hi] {
				ci, ok := cache[p]
				if !ok {
					ci = centroids.Nearest(p)
					cache[p] = ci
				}
				s := &part[ci]
				s.r += int64(p.R)
				s.g += int64(p.G)
				s.b += int64(p.B)
				s.n++
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sums := make([]clusterSum, len(centroids))
	for _, part := range parts {
		for i, s := range part {
			sums[i].r += s.r
			sums[i].g += s.g
			sums[i].b += s.b
			sums[i].n += s.n
		}
	}
	return sums, nil
}

// worstServed returns the population point farthest from its nearest centroid.
func worstServed(pixels []Color, centroids Palette) Color {
	best := pixels[0]
	bestD := -1
	for _, p := range pixels {
		d := p.distSq(centroids[centroids.Nearest(p)])
		if d > bestD {
			bestD = d
			best = p
		}
	}
	return best
}
