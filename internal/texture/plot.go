package texture

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/MeKo-Tech/noiselab/internal/sampling"
	"golang.org/x/image/vector"
)

// discSegments is the polygon resolution used to approximate a point marker.
const discSegments = 16

// RenderPoints plots a point set from the unit square as dark discs of the
// given pixel radius on a white size x size canvas.
func RenderPoints(ps sampling.PointSet, size int, radius float64) (*image.Gray, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be positive")
	}
	if radius <= 0 {
		return nil, fmt.Errorf("radius must be positive")
	}

	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)

	ras := vector.NewRasterizer(size, size)
	for i := 0; i < ps.Len(); i++ {
		x, y := ps.At(i)
		addDisc(ras, x*float64(size), y*float64(size), radius)
	}

	ras.Draw(dst, dst.Bounds(), image.NewUniform(ink), image.Point{})
	return dst, nil
}

func addDisc(ras *vector.Rasterizer, cx, cy, r float64) {
	for k := 0; k <= discSegments; k++ {
		a := 2 * math.Pi * float64(k) / discSegments
		px := float32(cx + r*math.Cos(a))
		py := float32(cy + r*math.Sin(a))
		if k == 0 {
			ras.MoveTo(px, py)
		} else {
			ras.LineTo(px, py)
		}
	}
	ras.ClosePath()
}
