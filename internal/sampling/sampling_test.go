package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaltonBase2(t *testing.T) {
	assert.Equal(t, 0.5, Halton(1, 2))
	assert.Equal(t, 0.25, Halton(2, 2))
	assert.Equal(t, 0.75, Halton(3, 2))
	assert.Equal(t, 0.125, Halton(4, 2))
}

func TestHaltonBase3(t *testing.T) {
	assert.InDelta(t, 1.0/3, Halton(1, 3), 1e-15)
	assert.InDelta(t, 2.0/3, Halton(2, 3), 1e-15)
	assert.InDelta(t, 1.0/9, Halton(3, 3), 1e-15)
	assert.InDelta(t, 4.0/9, Halton(4, 3), 1e-15)
}

func TestHaltonIndexZero(t *testing.T) {
	assert.Equal(t, 0.0, Halton(0, 2))
	assert.Equal(t, 0.0, Halton(0, 5))
}

func TestHaltonRejectsBadBase(t *testing.T) {
	assert.Panics(t, func() { Halton(3, 1) })
	assert.Panics(t, func() { Halton(3, 0) })
}

func TestHaltonRangeAndOrderIndependence(t *testing.T) {
	forward := make([]float64, 500)
	for i := range forward {
		forward[i] = Halton(uint32(i+1), 5)
	}
	for i := len(forward) - 1; i >= 0; i-- {
		v := Halton(uint32(i+1), 5)
		require.Equal(t, forward[i], v)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestR1(t *testing.T) {
	assert.Equal(t, 0.5, R1(0))
	for i := uint32(0); i < 1000; i++ {
		v := R1(i)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestR2(t *testing.T) {
	x, y := R2(0)
	assert.Equal(t, 0.5, x)
	assert.Equal(t, 0.5, y)

	x, y = R2(1)
	assert.InDelta(t, 0.5+1/plastic-1, x, 1e-12)
	assert.InDelta(t, 0.5+1/(plastic*plastic)-1, y, 1e-12)

	for i := uint32(0); i < 2000; i++ {
		x, y := R2(i)
		require.GreaterOrEqual(t, x, 0.0)
		require.Less(t, x, 1.0)
		require.GreaterOrEqual(t, y, 0.0)
		require.Less(t, y, 1.0)
	}
}

func TestPlasticConstant(t *testing.T) {
	assert.InDelta(t, plastic+1, plastic*plastic*plastic, 1e-12)
}

func TestSobolDirectionsPolynomialXPlus1(t *testing.T) {
	v := SobolDirections(1, 0, []uint32{1})
	assert.Equal(t, uint32(0x80000000), v[0])
	assert.Equal(t, uint32(0xC0000000), v[1])
	assert.Equal(t, uint32(0xA0000000), v[2])
	assert.Equal(t, uint32(0xF0000000), v[3])
}

func TestSobolDirectionsDegree2(t *testing.T) {
	// x^2 + x + 1 with m = (1, 3) gives m = 1, 3, 3, 9, 29, 23, ...
	v := SobolDirections(2, 1, []uint32{1, 3})
	want := []uint32{1, 3, 3, 9, 29, 23}
	for i, m := range want {
		assert.Equal(t, m<<(31-i), v[i], "v[%d]", i)
	}
	for i, d := range v {
		// m_i is odd, so the lowest set bit of v[i] sits at 31-i.
		require.Equal(t, uint32(1), (d>>(31-i))&1, "v[%d]", i)
		require.Zero(t, d&(1<<(31-i)-1), "v[%d]", i)
	}
}

func TestSobolDirectionsRejectsBadPolynomial(t *testing.T) {
	assert.Panics(t, func() { SobolDirections(0, 0, nil) })
	assert.Panics(t, func() { SobolDirections(2, 1, []uint32{1}) })
}

func TestSobolFirstPoints(t *testing.T) {
	want := [][2]float64{{0, 0}, {0.5, 0.5}, {0.25, 0.75}, {0.75, 0.25}}
	for i, w := range want {
		x, y := Sobol2D(uint32(i))
		assert.Equal(t, w[0], x, "x[%d]", i)
		assert.Equal(t, w[1], y, "y[%d]", i)
	}
}

func TestSobolStratification(t *testing.T) {
	for k := 1; k <= 4; k++ {
		n := 1 << k
		// Every split of the unit square into 2^a x 2^b boxes with a+b = k.
		for a := 0; a <= k; a++ {
			b := k - a
			seen := make(map[[2]int]bool, n)
			for i := 0; i < n; i++ {
				x, y := Sobol2D(uint32(i))
				cell := [2]int{int(x * float64(int(1)<<a)), int(y * float64(int(1)<<b))}
				require.False(t, seen[cell], "k=%d a=%d: box %v holds two points", k, a, cell)
				seen[cell] = true
			}
			assert.Len(t, seen, n)
		}
	}
}

func TestRandom2DDeterministic(t *testing.T) {
	for i := uint32(0); i < 100; i++ {
		x1, y1 := Random2D(i, 9)
		x2, y2 := Random2D(i, 9)
		require.Equal(t, x1, x2)
		require.Equal(t, y1, y2)
	}
	x1, _ := Random2D(3, 1)
	x2, _ := Random2D(3, 2)
	assert.NotEqual(t, x1, x2)
}

func TestBlueNoiseDeterministic(t *testing.T) {
	a := BlueNoise(40, 10, 7)
	b := BlueNoise(40, 10, 7)
	require.Equal(t, a.Len(), b.Len())
	assert.Equal(t, a.Xs(), b.Xs())
	assert.Equal(t, a.Ys(), b.Ys())

	c := BlueNoise(40, 10, 8)
	assert.NotEqual(t, a.Xs(), c.Xs())
}

func TestBlueNoiseInUnitSquare(t *testing.T) {
	ps := BlueNoise(60, 8, 3)
	require.Equal(t, 60, ps.Len())
	for i := 0; i < ps.Len(); i++ {
		x, y := ps.At(i)
		require.GreaterOrEqual(t, x, 0.0)
		require.Less(t, x, 1.0)
		require.GreaterOrEqual(t, y, 0.0)
		require.Less(t, y, 1.0)
	}
}

func TestBlueNoiseFirstPointIsFirstCandidate(t *testing.T) {
	xs := make([]float64, 5)
	ys := make([]float64, 5)
	BlueNoise2D(xs, ys, 5, 12, 99)
	cx, cy := candidate(0, 0, 99)
	assert.Equal(t, cx, xs[0])
	assert.Equal(t, cy, ys[0])
}

func TestBlueNoisePrefixStable(t *testing.T) {
	// Points are placed in order, so a shorter run is a prefix of a longer one.
	short := BlueNoise(10, 6, 4)
	long := BlueNoise(30, 6, 4)
	assert.Equal(t, short.Xs(), long.Xs()[:10])
	assert.Equal(t, short.Ys(), long.Ys()[:10])
}

func TestBlueNoiseFallbacks(t *testing.T) {
	xs := []float64{-1, -1}
	ys := []float64{-1, -1}
	BlueNoise2D(xs, ys, 0, 10, 1)
	assert.Equal(t, []float64{-1, -1}, xs)

	// A non-positive candidate count behaves like a single candidate.
	BlueNoise2D(xs, ys, 2, 0, 1)
	oneX := make([]float64, 2)
	oneY := make([]float64, 2)
	BlueNoise2D(oneX, oneY, 2, 1, 1)
	assert.Equal(t, oneX, xs)
	assert.Equal(t, oneY, ys)

	assert.Equal(t, 0, BlueNoise(-3, 10, 1).Len())
}

func TestBlueNoiseShortBufferPanics(t *testing.T) {
	assert.Panics(t, func() {
		BlueNoise2D(make([]float64, 3), make([]float64, 5), 5, 4, 1)
	})
}

func TestBlueNoiseSpacing(t *testing.T) {
	const trials = 5
	for _, count := range []int{20, 40, 80} {
		blue, random := 0.0, 0.0
		for s := uint32(0); s < trials; s++ {
			blue += MinPairwiseDistance(BlueNoise(count, 10, s))
			rnd, err := Generate(KindRandom, count, s, 0)
			require.NoError(t, err)
			random += MinPairwiseDistance(rnd)
		}
		assert.Greater(t, blue/trials, random/trials, "count=%d", count)
	}
}

func TestPointSetCopies(t *testing.T) {
	xs := []float64{0.1, 0.2, 0.3}
	ys := []float64{0.4, 0.5}
	ps := NewPointSet(xs, ys)
	require.Equal(t, 2, ps.Len())

	xs[0] = 0.9
	x, _ := ps.At(0)
	assert.Equal(t, 0.1, x)

	out := ps.Xs()
	out[1] = 0.7
	x, _ = ps.At(1)
	assert.Equal(t, 0.2, x)
}

func TestMinPairwiseDistance(t *testing.T) {
	assert.Equal(t, 0.0, MinPairwiseDistance(PointSet{}))
	ps := NewPointSet([]float64{0, 0.3, 0.9}, []float64{0, 0.4, 0.9})
	assert.InDelta(t, 0.5, MinPairwiseDistance(ps), 1e-12)
}

func TestGenerate(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			ps, err := Generate(kind, 32, 5, 8)
			require.NoError(t, err)
			assert.Equal(t, 32, ps.Len())
		})
	}

	ps, err := Generate(KindHalton, 3, 0, 0)
	require.NoError(t, err)
	x, y := ps.At(0)
	assert.Equal(t, 0.5, x)
	assert.InDelta(t, 1.0/3, y, 1e-15)

	_, err = Generate("grid", 4, 0, 0)
	assert.Error(t, err)
	_, err = Generate(KindSobol, -1, 0, 0)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Sobol ")
	require.NoError(t, err)
	assert.Equal(t, KindSobol, k)

	_, err = ParseKind("poisson")
	assert.Error(t, err)
}

func BenchmarkBlueNoise64(b *testing.B) {
	xs := make([]float64, 64)
	ys := make([]float64, 64)
	for i := 0; i < b.N; i++ {
		BlueNoise2D(xs, ys, 64, 10, uint32(i))
	}
}
