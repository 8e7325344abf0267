package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFadeEndpoints(t *testing.T) {
	assert.Equal(t, 0.0, Fade(0))
	assert.Equal(t, 1.0, Fade(1))
	assert.Equal(t, 0.5, Fade(0.5))
}

func TestFadeMonotonic(t *testing.T) {
	prev := Fade(0)
	for i := 1; i <= 1000; i++ {
		cur := Fade(float64(i) / 1000)
		require.GreaterOrEqual(t, cur, prev, "fade decreased at t=%v", float64(i)/1000)
		prev = cur
	}
}

func TestFadeFlatAtEndpoints(t *testing.T) {
	const h = 1e-4
	slope0 := (Fade(h) - Fade(0)) / h
	slope1 := (Fade(1) - Fade(1-h)) / h
	assert.InDelta(t, 0, slope0, 1e-6)
	assert.InDelta(t, 0, slope1, 1e-6)
}

func TestGrad1D(t *testing.T) {
	assert.Equal(t, 0.25, Grad1D(0, 0.25))
	assert.Equal(t, -0.25, Grad1D(1, 0.25))
	assert.Equal(t, 0.25, Grad1D(2, 0.25))
}

func TestGrad2DDiagonals(t *testing.T) {
	assert.Equal(t, 3.0, Grad2D(0, 1, 2))
	assert.Equal(t, 1.0, Grad2D(1, 1, 2))
	assert.Equal(t, -1.0, Grad2D(2, 1, 2))
	assert.Equal(t, -3.0, Grad2D(3, 1, 2))
	assert.Equal(t, Grad2D(0, 1, 2), Grad2D(4, 1, 2))
}

func TestGradZeroOffset(t *testing.T) {
	for h := uint32(0); h < 16; h++ {
		assert.Equal(t, 0.0, math.Abs(Grad1D(h, 0)))
		assert.Equal(t, 0.0, math.Abs(Grad2D(h, 0, 0)))
		assert.Equal(t, 0.0, math.Abs(Grad3D(h, 0, 0, 0)))
	}
}

func TestNoiseDeterministic(t *testing.T) {
	for _, seed := range []uint32{0, 1, 42, 0xFFFFFFFF} {
		for i := 0; i < 200; i++ {
			x := float64(i)*0.37 - 20
			y := float64(i)*0.53 + 3
			z := float64(i) * 0.11
			require.Equal(t, Perlin1D(x, seed), Perlin1D(x, seed))
			require.Equal(t, Perlin2D(x, y, seed), Perlin2D(x, y, seed))
			require.Equal(t, Perlin3D(x, y, z, seed), Perlin3D(x, y, z, seed))
			require.Equal(t, Simplex2D(x, y, seed), Simplex2D(x, y, seed))
		}
	}
}

func TestPerlinZeroAtLattice(t *testing.T) {
	for _, seed := range []uint32{0, 7, 42, 1337, 0xFFFFFFFF} {
		for i := -8; i <= 8; i++ {
			require.Zero(t, Perlin1D(float64(i), seed), "perlin1d(%d, %d)", i, seed)
			for j := -8; j <= 8; j++ {
				require.Zero(t, Perlin2D(float64(i), float64(j), seed), "perlin2d(%d, %d, %d)", i, j, seed)
				require.Zero(t, Perlin3D(float64(i), float64(j), 3, seed), "perlin3d(%d, %d, 3, %d)", i, j, seed)
			}
		}
	}
}

func TestNoiseRange(t *testing.T) {
	const bound = 1.05
	for _, seed := range []uint32{0, 42, 1337} {
		for i := -50; i <= 50; i++ {
			for j := -50; j <= 50; j++ {
				x := float64(i)*0.173 + 0.05
				y := float64(j)*0.219 - 0.03
				p := Perlin2D(x, y, seed)
				s := Simplex2D(x, y, seed)
				require.LessOrEqual(t, math.Abs(p), bound, "perlin2d(%v, %v)", x, y)
				require.LessOrEqual(t, math.Abs(s), bound, "simplex2d(%v, %v)", x, y)
			}
		}
	}
}

func TestNoiseVaries(t *testing.T) {
	nonZero := 0
	for i := 0; i < 100; i++ {
		x := float64(i)*0.31 + 0.1
		if Perlin2D(x, x*0.7, 42) != 0 && Simplex2D(x, x*0.7, 42) != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 90)

	// A different seed gives a different field.
	assert.NotEqual(t, Perlin2D(3.7, 2.1, 1), Perlin2D(3.7, 2.1, 2))
	assert.NotEqual(t, Simplex2D(3.7, 2.1, 1), Simplex2D(3.7, 2.1, 2))
}

func TestPerlinContinuousAcrossCells(t *testing.T) {
	const eps = 1e-9
	for i := -3; i <= 3; i++ {
		edge := float64(i)
		left := Perlin2D(edge-eps, 0.37, 9)
		right := Perlin2D(edge+eps, 0.37, 9)
		assert.InDelta(t, left, right, 1e-6)
	}
}

func TestFBMSingleOctaveIsPerlin(t *testing.T) {
	assert.Equal(t, Perlin2D(3.7, 2.1, 42), FBM2D(3.7, 2.1, 42, 1, 2.0, 0.5))

	for _, lp := range [][2]float64{{2, 0.5}, {3.1, 0.25}, {1, 0.9}} {
		for i := 0; i < 50; i++ {
			x := float64(i) * 0.41
			y := float64(i)*0.17 - 4
			require.Equal(t, Perlin2D(x, y, 7), FBM2D(x, y, 7, 1, lp[0], lp[1]))
			require.Equal(t, Perlin3D(x, y, 1.3, 7), FBM3D(x, y, 1.3, 7, 1, lp[0], lp[1]))
		}
	}
}

func TestFBMZeroOctaves(t *testing.T) {
	for _, octaves := range []int{0, -1, -10} {
		assert.Equal(t, 0.0, FBM2D(3.7, 2.1, 42, octaves, 2, 0.5))
		assert.Equal(t, 0.0, FBM3D(3.7, 2.1, 0.4, 42, octaves, 2, 0.5))
		assert.Equal(t, 0.0, Turbulence2D(3.7, 2.1, 42, octaves, 2, 0.5))
	}
}

func TestFBMUsesSeedPerOctave(t *testing.T) {
	x, y := 1.3, 2.7
	want := Perlin2D(x, y, 10) + 0.5*Perlin2D(2*x, 2*y, 11)
	assert.InDelta(t, want, FBM2D(x, y, 10, 2, 2, 0.5), 1e-15)
}

func TestFBMSeedWraps(t *testing.T) {
	x, y := 0.3, 0.9
	want := Perlin2D(x, y, 0xFFFFFFFF) + 0.5*Perlin2D(2*x, 2*y, 0)
	assert.InDelta(t, want, FBM2D(x, y, 0xFFFFFFFF, 2, 2, 0.5), 1e-15)
}

func TestTurbulenceNonNegative(t *testing.T) {
	for i := 0; i < 200; i++ {
		x := float64(i) * 0.29
		require.GreaterOrEqual(t, Turbulence2D(x, -x, 5, 5, 2, 0.5), 0.0)
	}
}

func TestDomainWarpZeroStrength(t *testing.T) {
	for i := 0; i < 50; i++ {
		x := float64(i)*0.23 + 0.5
		y := float64(i)*0.61 - 2
		require.Equal(t, FBM2D(x, y, 44, 4, 2, 0.5), DomainWarp2D(x, y, 42, 0))
	}
}

func TestDomainWarpMovesSamples(t *testing.T) {
	differ := 0
	for i := 0; i < 50; i++ {
		x := float64(i)*0.23 + 0.5
		y := float64(i)*0.61 - 2
		if DomainWarp2D(x, y, 42, 4) != DomainWarp2D(x, y, 42, 0) {
			differ++
		}
	}
	assert.Greater(t, differ, 40)
}

func TestEndToEndExample(t *testing.T) {
	got := FBM2D(3.7, 2.1, 42, 1, 2.0, 0.5)
	assert.Equal(t, Perlin2D(3.7, 2.1, 42), got)
}

func BenchmarkPerlin2D(b *testing.B) {
	sink := 0.0
	for i := 0; i < b.N; i++ {
		sink += Perlin2D(float64(i)*0.01, 0.5, 42)
	}
	_ = sink
}

func BenchmarkSimplex2D(b *testing.B) {
	sink := 0.0
	for i := 0; i < b.N; i++ {
		sink += Simplex2D(float64(i)*0.01, 0.5, 42)
	}
	_ = sink
}

func BenchmarkFBM2D(b *testing.B) {
	sink := 0.0
	for i := 0; i < b.N; i++ {
		sink += FBM2D(float64(i)*0.01, 0.5, 42, 6, 2, 0.5)
	}
	_ = sink
}
