package noise

import (
	"fmt"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Field is a scalar field sampled at 2D coordinates.
type Field interface {
	At(x, y float64) float64
}

// Kind names a field type.
type Kind string

const (
	KindPerlin      Kind = "perlin"
	KindSimplex     Kind = "simplex"
	KindFBM         Kind = "fbm"
	KindWarp        Kind = "warp"
	KindTurbulence  Kind = "turbulence"
	KindRefPerlin   Kind = "ref-perlin"
	KindOpenSimplex Kind = "opensimplex"
)

// Kinds lists every field kind accepted by NewField.
func Kinds() []Kind {
	return []Kind{KindPerlin, KindSimplex, KindFBM, KindWarp, KindTurbulence, KindRefPerlin, KindOpenSimplex}
}

// FieldParams collects the knobs NewField needs; fields ignore the ones that
// do not apply to them.
type FieldParams struct {
	Octaves  Octaves
	Seed     uint32
	Strength float64
}

// NewField builds the named field.
func NewField(kind Kind, p FieldParams) (Field, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindPerlin:
		return PerlinField{Seed: p.Seed}, nil
	case KindSimplex:
		return SimplexField{Seed: p.Seed}, nil
	case KindFBM:
		return FBMField{Seed: p.Seed, Octaves: p.Octaves}, nil
	case KindWarp:
		return WarpField{Seed: p.Seed, Strength: p.Strength}, nil
	case KindTurbulence:
		return TurbulenceField{Seed: p.Seed, Octaves: p.Octaves}, nil
	case KindRefPerlin:
		return NewReferencePerlin(p.Seed, p.Octaves), nil
	case KindOpenSimplex:
		return NewOpenSimplexField(p.Seed), nil
	default:
		return nil, fmt.Errorf("unknown field kind %q", kind)
	}
}

// Range returns the interval the named field's values fall into, used to map
// samples to pixel intensities.
func Range(kind Kind, p FieldParams) (lo, hi float64) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindFBM, KindRefPerlin:
		a := p.Octaves.Amplitude()
		if a <= 0 {
			a = 1
		}
		return -a, a
	case KindTurbulence:
		a := p.Octaves.Amplitude()
		if a <= 0 {
			a = 1
		}
		return 0, a
	case KindWarp:
		a := DefaultOctaves().Amplitude()
		return -a, a
	default:
		return -1, 1
	}
}

// PerlinField samples Perlin2D.
type PerlinField struct {
	Seed uint32
}

func (f PerlinField) At(x, y float64) float64 { return Perlin2D(x, y, f.Seed) }

// SimplexField samples Simplex2D.
type SimplexField struct {
	Seed uint32
}

func (f SimplexField) At(x, y float64) float64 { return Simplex2D(x, y, f.Seed) }

// FBMField samples FBM2D.
type FBMField struct {
	Octaves Octaves
	Seed    uint32
}

func (f FBMField) At(x, y float64) float64 {
	return FBM2D(x, y, f.Seed, f.Octaves.Count, f.Octaves.Lacunarity, f.Octaves.Persistence)
}

// WarpField samples DomainWarp2D.
type WarpField struct {
	Seed     uint32
	Strength float64
}

func (f WarpField) At(x, y float64) float64 { return DomainWarp2D(x, y, f.Seed, f.Strength) }

// TurbulenceField samples Turbulence2D.
type TurbulenceField struct {
	Octaves Octaves
	Seed    uint32
}

func (f TurbulenceField) At(x, y float64) float64 {
	return Turbulence2D(x, y, f.Seed, f.Octaves.Count, f.Octaves.Lacunarity, f.Octaves.Persistence)
}

// ReferencePerlin wraps the permutation-table Perlin implementation from
// aquilax/go-perlin so lessons can compare it with the hash-based one.
type ReferencePerlin struct {
	p *perlin.Perlin
}

// NewReferencePerlin builds the reference generator. The library's alpha is
// the inverse of persistence and beta is the lacunarity.
func NewReferencePerlin(seed uint32, o Octaves) ReferencePerlin {
	alpha := 2.0
	if o.Persistence > 0 {
		alpha = 1 / o.Persistence
	}
	beta := o.Lacunarity
	if beta <= 0 {
		beta = 2
	}
	n := int32(o.Count)
	if n <= 0 {
		n = 1
	}
	return ReferencePerlin{p: perlin.NewPerlin(alpha, beta, n, int64(seed))}
}

func (f ReferencePerlin) At(x, y float64) float64 { return f.p.Noise2D(x, y) }

// OpenSimplexField wraps ojrac/opensimplex-go.
type OpenSimplexField struct {
	n opensimplex.Noise
}

func NewOpenSimplexField(seed uint32) OpenSimplexField {
	return OpenSimplexField{n: opensimplex.New(int64(seed))}
}

func (f OpenSimplexField) At(x, y float64) float64 { return f.n.Eval2(x, y) }
