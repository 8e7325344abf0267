package sampling

import (
	"fmt"
	"math"
	"strings"
)

// PointSet is an immutable ordered set of points in [0,1)^2.
type PointSet struct {
	xs []float64
	ys []float64
}

// NewPointSet copies xs and ys into a point set. Extra values in the longer
// slice are dropped.
func NewPointSet(xs, ys []float64) PointSet {
	n := min(len(xs), len(ys))
	ps := PointSet{xs: make([]float64, n), ys: make([]float64, n)}
	copy(ps.xs, xs)
	copy(ps.ys, ys)
	return ps
}

func (p PointSet) Len() int { return len(p.xs) }

func (p PointSet) At(i int) (x, y float64) { return p.xs[i], p.ys[i] }

// Xs returns a copy of the x coordinates.
func (p PointSet) Xs() []float64 { return append([]float64(nil), p.xs...) }

// Ys returns a copy of the y coordinates.
func (p PointSet) Ys() []float64 { return append([]float64(nil), p.ys...) }

// MinPairwiseDistance returns the smallest distance between two points, or 0
// for sets with fewer than two points.
func MinPairwiseDistance(p PointSet) float64 {
	if p.Len() < 2 {
		return 0
	}
	best := math.Inf(1)
	for i := 0; i < p.Len(); i++ {
		for j := i + 1; j < p.Len(); j++ {
			dx := p.xs[i] - p.xs[j]
			dy := p.ys[i] - p.ys[j]
			if d := dx*dx + dy*dy; d < best {
				best = d
			}
		}
	}
	return math.Sqrt(best)
}

// Kind names a point generator.
type Kind string

const (
	KindHalton    Kind = "halton"
	KindR2        Kind = "r2"
	KindSobol     Kind = "sobol"
	KindRandom    Kind = "random"
	KindBlueNoise Kind = "blue"
)

// Kinds lists every generator in display order.
func Kinds() []Kind {
	return []Kind{KindHalton, KindR2, KindSobol, KindRandom, KindBlueNoise}
}

// ParseKind parses a generator name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sampler %q (valid: halton, r2, sobol, random, blue)", s)
}

// Generate returns n points of the given kind. seed only affects the random
// and blue-noise generators; candidates only affects blue noise. Halton
// starts at index 1, the others at index 0.
func Generate(kind Kind, n int, seed uint32, candidates int) (PointSet, error) {
	if n < 0 {
		return PointSet{}, fmt.Errorf("point count must not be negative, got %d", n)
	}
	if kind == KindBlueNoise {
		return BlueNoise(n, candidates, seed), nil
	}

	var next func(i uint32) (float64, float64)
	switch kind {
	case KindHalton:
		next = func(i uint32) (float64, float64) { return Halton2D(i + 1) }
	case KindR2:
		next = R2
	case KindSobol:
		next = Sobol2D
	case KindRandom:
		next = func(i uint32) (float64, float64) { return Random2D(i, seed) }
	default:
		return PointSet{}, fmt.Errorf("unknown sampler %q", kind)
	}

	ps := PointSet{xs: make([]float64, n), ys: make([]float64, n)}
	for i := 0; i < n; i++ {
		ps.xs[i], ps.ys[i] = next(uint32(i))
	}
	return ps, nil
}
