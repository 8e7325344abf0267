package cmd

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/noiselab/internal/noise"
	"github.com/MeKo-Tech/noiselab/internal/texture"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// fieldConfig is the noise field selection shared by noise, tiles and serve.
type fieldConfig struct {
	Kind   noise.Kind
	Params noise.FieldParams
}

// addFieldFlags registers the field flags on cmd and binds them under
// prefix (e.g. "tiles.field").
func addFieldFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().String("field", string(noise.KindFBM), "Noise field: perlin, simplex, fbm, warp, turbulence, ref-perlin, opensimplex")
	cmd.Flags().Uint32("seed", 1337, "Deterministic seed")
	cmd.Flags().Int("octaves", 4, "Octave count for fbm, turbulence and ref-perlin")
	cmd.Flags().Float64("lacunarity", 2, "Frequency multiplier between octaves")
	cmd.Flags().Float64("gain", 0.5, "Amplitude multiplier between octaves (persistence)")
	cmd.Flags().Float64("strength", 1, "Domain warp strength")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(prefix+"."+key, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
	mustBind("field", "field")
	mustBind("seed", "seed")
	mustBind("octaves", "octaves")
	mustBind("lacunarity", "lacunarity")
	mustBind("gain", "gain")
	mustBind("strength", "strength")
}

// readFieldConfig reads the values bound by addFieldFlags.
func readFieldConfig(prefix string) (fieldConfig, error) {
	return newFieldConfig(
		viper.GetString(prefix+".field"),
		viper.GetUint32(prefix+".seed"),
		viper.GetInt(prefix+".octaves"),
		viper.GetFloat64(prefix+".lacunarity"),
		viper.GetFloat64(prefix+".gain"),
		viper.GetFloat64(prefix+".strength"),
	)
}

func newFieldConfig(kind string, seed uint32, octaves int, lacunarity, gain, strength float64) (fieldConfig, error) {
	fc := fieldConfig{
		Kind: noise.Kind(strings.ToLower(strings.TrimSpace(kind))),
		Params: noise.FieldParams{
			Seed:     seed,
			Strength: strength,
			Octaves:  noise.Octaves{Count: octaves, Lacunarity: lacunarity, Persistence: gain},
		},
	}
	if octaves < 1 {
		return fieldConfig{}, fmt.Errorf("octaves must be at least 1, got %d", octaves)
	}
	if lacunarity <= 0 {
		return fieldConfig{}, fmt.Errorf("lacunarity must be positive, got %g", lacunarity)
	}
	if gain <= 0 || gain > 1 {
		return fieldConfig{}, fmt.Errorf("gain must be within (0,1], got %g", gain)
	}
	if _, err := fc.build(); err != nil {
		return fieldConfig{}, err
	}
	return fc, nil
}

func (fc fieldConfig) build() (noise.Field, error) {
	return noise.NewField(fc.Kind, fc.Params)
}

func (fc fieldConfig) window() texture.Window {
	return texture.WindowFor(fc.Kind, fc.Params)
}

// logAttrs returns the config as slog key/value pairs.
func (fc fieldConfig) logAttrs() []any {
	return []any{
		"field", string(fc.Kind),
		"seed", fc.Params.Seed,
		"octaves", fc.Params.Octaves.Count,
		"lacunarity", fc.Params.Octaves.Lacunarity,
		"gain", fc.Params.Octaves.Persistence,
	}
}
