package texture

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/noiselab/internal/sampling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceFieldSinglePoint(t *testing.T) {
	ps := sampling.NewPointSet([]float64{0.5}, []float64{0.5})
	field, err := DistanceField(ps, 64)
	require.NoError(t, err)

	assert.Equal(t, 0.0, field[32*64+32])
	assert.InDelta(t, 5.0, field[36*64+35], 1e-12)
	assert.InDelta(t, 32*math.Sqrt2, field[0], 1e-9)

	d, err := Dispersion(ps, 64)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2/2, d, 1e-9)
}

func TestDistanceFieldMatchesBruteForce(t *testing.T) {
	ps, err := sampling.Generate(sampling.KindHalton, 20, 0, 0)
	require.NoError(t, err)

	const size = 32
	field, err := DistanceField(ps, size)
	require.NoError(t, err)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			best := math.Inf(1)
			for i := 0; i < ps.Len(); i++ {
				sx, sy := ps.At(i)
				dx := float64(x - int(sx*size))
				dy := float64(y - int(sy*size))
				best = math.Min(best, math.Hypot(dx, dy))
			}
			require.InDelta(t, best, field[y*size+x], 1e-9, "pixel (%d, %d)", x, y)
		}
	}
}

func TestDistanceFieldValidation(t *testing.T) {
	_, err := DistanceField(sampling.PointSet{}, 16)
	assert.Error(t, err)
	_, err = DistanceField(sampling.NewPointSet([]float64{0.1}, []float64{0.1}), 0)
	assert.Error(t, err)
}

func TestBlueNoiseCoversBetterThanRandom(t *testing.T) {
	var blue, random float64
	for seed := uint32(1); seed <= 4; seed++ {
		b, err := Dispersion(sampling.BlueNoise(64, 10, seed), 128)
		require.NoError(t, err)
		r, err := sampling.Generate(sampling.KindRandom, 64, seed, 0)
		require.NoError(t, err)
		rd, err := Dispersion(r, 128)
		require.NoError(t, err)
		blue += b
		random += rd
	}
	assert.Less(t, blue, random)
}

func TestRenderCoverage(t *testing.T) {
	ps := sampling.NewPointSet([]float64{0.5}, []float64{0.5})
	img, d, err := RenderCoverage(ps, 64)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2/2, d, 1e-9)
	assert.Equal(t, uint8(0), img.GrayAt(32, 32).Y)
	assert.Equal(t, uint8(255), img.GrayAt(0, 0).Y)
}
