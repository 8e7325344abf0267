package texture

import (
	"fmt"
	"image"
	"math"

	"github.com/MeKo-Tech/noiselab/internal/sampling"
)

// DistanceField rasterizes ps onto a size x size grid over the unit square
// and returns, row-major, the Euclidean distance in pixels from every pixel
// to the nearest pixel holding a sample.
//
// The transform is the separable Felzenszwalb & Huttenlocher lower-envelope
// method: one 1D pass over rows, then one over columns, O(size²) overall.
func DistanceField(ps sampling.PointSet, size int) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be positive, got %d", size)
	}
	if ps.Len() == 0 {
		return nil, fmt.Errorf("distance field needs at least one point")
	}

	// Larger than any squared distance on the grid; stays finite so the
	// envelope intersections never compute inf - inf.
	far := float64(4 * size * size)

	field := make([]float64, size*size)
	for i := range field {
		field[i] = far
	}
	for i := 0; i < ps.Len(); i++ {
		x, y := ps.At(i)
		px := min(max(int(x*float64(size)), 0), size-1)
		py := min(max(int(y*float64(size)), 0), size-1)
		field[py*size+px] = 0
	}

	in := make([]float64, size)
	out := make([]float64, size)
	env := newEnvelope(size)

	for y := 0; y < size; y++ {
		row := field[y*size : (y+1)*size]
		copy(in, row)
		env.transform(in, out)
		copy(row, out)
	}
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			in[y] = field[y*size+x]
		}
		env.transform(in, out)
		for y := 0; y < size; y++ {
			field[y*size+x] = math.Sqrt(out[y])
		}
	}
	return field, nil
}

// Dispersion approximates the radius of the largest empty circle among the
// samples, in unit-square units, at the given raster resolution.
func Dispersion(ps sampling.PointSet, size int) (float64, error) {
	field, err := DistanceField(ps, size)
	if err != nil {
		return 0, err
	}
	worst := 0.0
	for _, d := range field {
		worst = max(worst, d)
	}
	return worst / float64(size), nil
}

// RenderCoverage draws the distance field of ps: samples are black and gaps
// brighten with their distance to the nearest sample, reaching white at the
// widest gap. It also returns the dispersion.
func RenderCoverage(ps sampling.PointSet, size int) (*image.Gray, float64, error) {
	field, err := DistanceField(ps, size)
	if err != nil {
		return nil, 0, err
	}
	worst := 0.0
	for _, d := range field {
		worst = max(worst, d)
	}

	img := image.NewGray(image.Rect(0, 0, size, size))
	w := Window{Min: 0, Max: worst}
	for i, d := range field {
		img.Pix[(i/size)*img.Stride+i%size] = w.Gray(d)
	}
	return img, worst / float64(size), nil
}

// envelope holds the scratch buffers of the 1D squared distance transform so
// a full pass allocates them once.
type envelope struct {
	v []int     // parabola vertices in the lower envelope
	z []float64 // boundaries between consecutive parabolas
}

func newEnvelope(n int) *envelope {
	return &envelope{v: make([]int, n), z: make([]float64, n+1)}
}

// transform writes, for every q, min over i of (q-i)² + in[i].
func (e *envelope) transform(in, out []float64) {
	n := len(in)
	v, z := e.v, e.z

	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	for q := 1; q < n; q++ {
		var s float64
		for k >= 0 {
			s = ((in[q] + float64(q*q)) - (in[v[k]] + float64(v[k]*v[k]))) / (2 * float64(q-v[k]))
			if s > z[k] {
				break
			}
			k--
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dx := float64(q - v[k])
		out[q] = dx*dx + in[v[k]]
	}
}
