// Package texture turns noise fields and point sets into grayscale images.
package texture

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/noiselab/internal/noise"
	"github.com/disintegration/gift"
)

// Window maps field values in [Min, Max] onto the 0..255 gray range.
// Values outside the window are clamped.
type Window struct {
	Min float64
	Max float64
}

// WindowFor returns the value window for a named field.
func WindowFor(kind noise.Kind, p noise.FieldParams) Window {
	lo, hi := noise.Range(kind, p)
	return Window{Min: lo, Max: hi}
}

// Gray converts a field value to an 8-bit intensity.
func (w Window) Gray(v float64) uint8 {
	span := w.Max - w.Min
	if span <= 0 {
		return 0
	}
	t := clamp01((v - w.Min) / span)
	return uint8(math.Round(t * 255))
}

// RenderField samples f on a size x size grid covering bounds
// [minX, minY, maxX, maxY]. Pixel (i, j) samples the world point at its
// top-left corner, so a tile and its right neighbour meet at the shared edge.
func RenderField(f noise.Field, size int, bounds [4]float64, w Window) (*image.Gray, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be positive")
	}
	if bounds[2] <= bounds[0] || bounds[3] <= bounds[1] {
		return nil, fmt.Errorf("empty bounds %v", bounds)
	}

	img := image.NewGray(image.Rect(0, 0, size, size))
	stepX := (bounds[2] - bounds[0]) / float64(size)
	stepY := (bounds[3] - bounds[1]) / float64(size)
	for j := 0; j < size; j++ {
		y := bounds[1] + float64(j)*stepY
		row := img.Pix[j*img.Stride : j*img.Stride+size]
		for i := range row {
			row[i] = w.Gray(f.At(bounds[0]+float64(i)*stepX, y))
		}
	}
	return img, nil
}

// Blur applies a Gaussian blur with the given sigma. A non-positive sigma
// returns the input unchanged.
func Blur(src *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return src
	}
	g := gift.New(gift.GaussianBlur(float32(sigma)))
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

// Stats reports the mean and range of an image's gray values.
func Stats(img *image.Gray) (mean float64, lo, hi uint8) {
	b := img.Bounds()
	if b.Empty() {
		return 0, 0, 0
	}
	lo = 255
	sum := 0.0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := img.GrayAt(x, y).Y
			sum += float64(v)
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return sum / float64(b.Dx()*b.Dy()), lo, hi
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

var (
	paper = color.Gray{Y: 255}
	ink   = color.Gray{Y: 0}
)
