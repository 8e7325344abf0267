// Package sampling generates 2D point sets in the unit square: the Halton,
// R2 and Sobol low-discrepancy sequences, a hash-driven pseudo-random
// baseline, and best-candidate blue noise.
//
// The low-discrepancy generators are pure functions of their index, so any
// element can be computed without computing the ones before it.
package sampling

import (
	"fmt"
	"math"
	"math/bits"
)

const (
	// plastic is the real root of p^3 = p + 1.
	plastic = 1.32471795724474602596
	// golden is the real root of p^2 = p + 1.
	golden = 1.61803398874989484820

	inv32 = 1.0 / (1 << 32)
)

func frac(v float64) float64 { return v - math.Floor(v) }

// vanDerCorput is the base-2 radical inverse, computed by reversing the bits
// of index.
func vanDerCorput(index uint32) float64 {
	return float64(bits.Reverse32(index)) * inv32
}

// Halton returns the radical inverse of index in base: the base-b digits of
// index mirrored around the radix point. Halton(0, b) is 0. base must be at
// least 2 and should be prime when several bases are paired into points.
func Halton(index, base uint32) float64 {
	if base < 2 {
		panic(fmt.Sprintf("sampling: halton base must be at least 2, got %d", base))
	}
	if base == 2 {
		return vanDerCorput(index)
	}

	inv := 1.0 / float64(base)
	f := inv
	r := 0.0
	for index > 0 {
		r += f * float64(index%base)
		index /= base
		f *= inv
	}
	return r
}

// Halton2D pairs bases 2 and 3.
func Halton2D(index uint32) (x, y float64) {
	return Halton(index, 2), Halton(index, 3)
}

// R1 is the golden-ratio additive recurrence frac(0.5 + n/phi).
func R1(index uint32) float64 {
	return frac(0.5 + float64(index)/golden)
}

// R2 is the plastic-constant additive recurrence, the 2D generalization of
// R1. index starts at 0.
func R2(index uint32) (x, y float64) {
	n := float64(index)
	return frac(0.5 + n/plastic), frac(0.5 + n/(plastic*plastic))
}

// SobolDirections derives the 32 direction numbers for a primitive polynomial
// over GF(2) of the given degree. coeffs packs the inner coefficients
// a_1..a_{degree-1}, a_1 in the most significant of those bits, and m holds the
// degree initial odd integers m_1..m_degree.
func SobolDirections(degree uint, coeffs uint32, m []uint32) [32]uint32 {
	if degree == 0 || degree > 31 || uint(len(m)) < degree {
		panic(fmt.Sprintf("sampling: sobol polynomial of degree %d (want 1..31) got %d initial values", degree, len(m)))
	}

	var v [32]uint32
	for i := uint(0); i < 32; i++ {
		if i < degree {
			v[i] = m[i] << (31 - i)
			continue
		}
		v[i] = v[i-degree] ^ (v[i-degree] >> degree)
		for k := uint(1); k < degree; k++ {
			if (coeffs>>(degree-1-k))&1 == 1 {
				v[i] ^= v[i-k]
			}
		}
	}
	return v
}

// Sobol2D returns point index of the 2D Sobol sequence. x is the base-2 Van
// der Corput sequence; y XORs the direction numbers of the polynomial x + 1
// selected by the set bits of index. The first 2^k points put exactly one
// point in every dyadic box of area 2^-k.
func Sobol2D(index uint32) (x, y float64) {
	v := SobolDirections(1, 0, []uint32{1})

	var r uint32
	for i, n := 0, index; n != 0; i, n = i+1, n>>1 {
		if n&1 != 0 {
			r ^= v[i]
		}
	}
	return vanDerCorput(index), float64(r) * inv32
}
