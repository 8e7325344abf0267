package noise

import "math"

// Octaves controls fractal composition: Count layers, each Lacunarity times
// the previous frequency and Persistence times the previous amplitude.
type Octaves struct {
	Count       int
	Lacunarity  float64
	Persistence float64
}

// DefaultOctaves returns the four-octave, doubling, halving set used by the
// domain warp.
func DefaultOctaves() Octaves {
	return Octaves{Count: 4, Lacunarity: 2, Persistence: 0.5}
}

// Amplitude returns the sum of the octave amplitudes, which bounds the
// magnitude of FBM2D and Turbulence2D for these parameters.
func (o Octaves) Amplitude() float64 {
	sum := 0.0
	amp := 1.0
	for i := 0; i < o.Count; i++ {
		sum += amp
		amp *= o.Persistence
	}
	return sum
}

// FBM2D sums octaves of Perlin2D. Octave i uses seed+i. A non-positive octave
// count yields 0, and a single octave is exactly Perlin2D(x, y, seed).
func FBM2D(x, y float64, seed uint32, octaves int, lacunarity, persistence float64) float64 {
	sum := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < octaves; i++ {
		sum += amp * Perlin2D(freq*x, freq*y, seed+uint32(i))
		freq *= lacunarity
		amp *= persistence
	}
	return sum
}

// FBM3D is the 3D counterpart of FBM2D.
func FBM3D(x, y, z float64, seed uint32, octaves int, lacunarity, persistence float64) float64 {
	sum := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < octaves; i++ {
		sum += amp * Perlin3D(freq*x, freq*y, freq*z, seed+uint32(i))
		freq *= lacunarity
		amp *= persistence
	}
	return sum
}

// Turbulence2D sums |Perlin2D| over octaves, giving the creased look used for
// marble and fire. Same octave and seed schedule as FBM2D.
func Turbulence2D(x, y float64, seed uint32, octaves int, lacunarity, persistence float64) float64 {
	sum := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < octaves; i++ {
		sum += amp * math.Abs(Perlin2D(freq*x, freq*y, seed+uint32(i)))
		freq *= lacunarity
		amp *= persistence
	}
	return sum
}

// DomainWarp2D offsets (x, y) by two independent fBm fields (seeds seed and
// seed+1) scaled by strength, then samples a third fBm (seed+2) at the
// warped position. With strength 0 it is exactly FBM2D(x, y, seed+2, 4, 2, 0.5).
func DomainWarp2D(x, y float64, seed uint32, strength float64) float64 {
	o := DefaultOctaves()
	dx := FBM2D(x, y, seed, o.Count, o.Lacunarity, o.Persistence)
	dy := FBM2D(x, y, seed+1, o.Count, o.Lacunarity, o.Persistence)
	return FBM2D(x+strength*dx, y+strength*dy, seed+2, o.Count, o.Lacunarity, o.Persistence)
}
