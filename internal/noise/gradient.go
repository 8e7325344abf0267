// Package noise implements seeded gradient noise (Perlin, Simplex) and the
// fractal compositions built on top of it. Every function is a pure function
// of its coordinates and seed; gradients are recomputed from lattice hashes
// on each call, so nothing is cached between calls.
package noise

import (
	"math"

	"github.com/MeKo-Tech/noiselab/internal/hash"
)

const (
	skew2   = 0.36602540378443864676 // (sqrt(3)-1)/2
	unskew2 = 0.21132486540518711775 // (3-sqrt(3))/6

	simplexScale2 = 70.0
)

// Fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3. Its first and second
// derivatives vanish at 0 and 1.
func Fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// Grad1D returns +dx when the low bit of h is clear, -dx otherwise.
func Grad1D(h uint32, dx float64) float64 {
	if h&1 == 0 {
		return dx
	}
	return -dx
}

// Grad2D dots (dx, dy) with one of the four diagonals (±1, ±1) chosen by h&3.
func Grad2D(h uint32, dx, dy float64) float64 {
	switch h & 3 {
	case 0:
		return dx + dy
	case 1:
		return -dx + dy
	case 2:
		return dx - dy
	default:
		return -dx - dy
	}
}

// Grad3D dots (dx, dy, dz) with one of the 12 cube-edge gradients chosen by
// h&15 (four of the sixteen codes repeat an edge).
func Grad3D(h uint32, dx, dy, dz float64) float64 {
	h &= 15
	u := dx
	if h >= 8 {
		u = dy
	}
	var v float64
	switch {
	case h < 4:
		v = dy
	case h == 12 || h == 14:
		v = dx
	default:
		v = dz
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

// lattice floors v and returns the cell coordinate (wrapped to 32 bits for
// hashing) together with the fractional offset.
func lattice(v float64) (uint32, float64) {
	f := math.Floor(v)
	return uint32(int64(f)), v - f
}

func corner1(x, seed uint32) uint32 {
	return hash.Wang(hash.Combine(hash.Wang(x), seed))
}

func corner2(x, y, seed uint32) uint32 {
	return hash.Wang(hash.Combine(hash.Hash2D(x, y), seed))
}

func corner3(x, y, z, seed uint32) uint32 {
	return hash.Wang(hash.Combine(hash.Hash3D(x, y, z), seed))
}

// Perlin1D evaluates 1D gradient noise. It is exactly 0 at integer x.
func Perlin1D(x float64, seed uint32) float64 {
	ix, fx := lattice(x)
	n0 := Grad1D(corner1(ix, seed), fx)
	n1 := Grad1D(corner1(ix+1, seed), fx-1)
	return lerp(n0, n1, Fade(fx))
}

// Perlin2D evaluates 2D gradient noise in [-1, 1]. It is exactly 0 at every
// integer lattice point.
func Perlin2D(x, y float64, seed uint32) float64 {
	ix, fx := lattice(x)
	iy, fy := lattice(y)
	u := Fade(fx)
	v := Fade(fy)

	n00 := Grad2D(corner2(ix, iy, seed), fx, fy)
	n10 := Grad2D(corner2(ix+1, iy, seed), fx-1, fy)
	n01 := Grad2D(corner2(ix, iy+1, seed), fx, fy-1)
	n11 := Grad2D(corner2(ix+1, iy+1, seed), fx-1, fy-1)

	return lerp(lerp(n00, n10, u), lerp(n01, n11, u), v)
}

// Perlin3D evaluates 3D gradient noise. It is exactly 0 at every integer
// lattice point.
func Perlin3D(x, y, z float64, seed uint32) float64 {
	ix, fx := lattice(x)
	iy, fy := lattice(y)
	iz, fz := lattice(z)
	u := Fade(fx)
	v := Fade(fy)
	w := Fade(fz)

	n000 := Grad3D(corner3(ix, iy, iz, seed), fx, fy, fz)
	n100 := Grad3D(corner3(ix+1, iy, iz, seed), fx-1, fy, fz)
	n010 := Grad3D(corner3(ix, iy+1, iz, seed), fx, fy-1, fz)
	n110 := Grad3D(corner3(ix+1, iy+1, iz, seed), fx-1, fy-1, fz)
	n001 := Grad3D(corner3(ix, iy, iz+1, seed), fx, fy, fz-1)
	n101 := Grad3D(corner3(ix+1, iy, iz+1, seed), fx-1, fy, fz-1)
	n011 := Grad3D(corner3(ix, iy+1, iz+1, seed), fx, fy-1, fz-1)
	n111 := Grad3D(corner3(ix+1, iy+1, iz+1, seed), fx-1, fy-1, fz-1)

	return lerp(
		lerp(lerp(n000, n100, u), lerp(n010, n110, u), v),
		lerp(lerp(n001, n101, u), lerp(n011, n111, u), v),
		w,
	)
}

// Simplex2D evaluates 2D simplex noise on the skewed triangular lattice.
// Each of the three triangle corners contributes (0.5 - d²)^4 * grad, and
// nothing once d² reaches 0.5.
func Simplex2D(x, y float64, seed uint32) float64 {
	s := (x + y) * skew2
	i := math.Floor(x + s)
	j := math.Floor(y + s)

	t := (i + j) * unskew2
	x0 := x - (i - t)
	y0 := y - (j - t)

	// Lower triangle (x0 > y0) steps along x first, upper along y.
	var i1, j1 uint32
	if x0 > y0 {
		i1 = 1
	} else {
		j1 = 1
	}

	x1 := x0 - float64(i1) + unskew2
	y1 := y0 - float64(j1) + unskew2
	x2 := x0 - 1 + 2*unskew2
	y2 := y0 - 1 + 2*unskew2

	ii := uint32(int64(i))
	jj := uint32(int64(j))

	n0 := simplexCorner(corner2(ii, jj, seed), x0, y0)
	n1 := simplexCorner(corner2(ii+i1, jj+j1, seed), x1, y1)
	n2 := simplexCorner(corner2(ii+1, jj+1, seed), x2, y2)

	return simplexScale2 * (n0 + n1 + n2)
}

func simplexCorner(h uint32, dx, dy float64) float64 {
	t := 0.5 - dx*dx - dy*dy
	if t <= 0 {
		return 0
	}
	t *= t
	return t * t * Grad2D(h, dx, dy)
}
