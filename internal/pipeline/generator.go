// Package pipeline renders noise tiles and hands them to a storage sink.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/noiselab/internal/noise"
	"github.com/MeKo-Tech/noiselab/internal/texture"
	"github.com/MeKo-Tech/noiselab/internal/tile"
	"github.com/MeKo-Tech/noiselab/internal/worker"
)

// Options controls how tiles are rendered.
type Options struct {
	TileSize  int     // pixels per tile edge
	WorldSize float64 // noise-space extent of the z0 tile
	BlurSigma float64 // optional Gaussian blur, 0 disables
}

// DefaultOptions returns 256px tiles over an 8x8 noise domain.
func DefaultOptions() Options {
	return Options{TileSize: 256, WorldSize: 8}
}

// Generator renders tiles of one noise field and stores them in a sink.
// It is safe for concurrent use when the sink is.
type Generator struct {
	field  noise.Field
	window texture.Window
	sink   Sink
	logger *slog.Logger
	opts   Options
}

// NewGenerator prepares a generator. sink may be nil when the caller only
// uses Render.
func NewGenerator(field noise.Field, window texture.Window, sink Sink, opts Options, logger *slog.Logger) (*Generator, error) {
	if field == nil {
		return nil, fmt.Errorf("field is required")
	}
	if opts.TileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive")
	}
	if opts.WorldSize <= 0 {
		return nil, fmt.Errorf("world size must be positive")
	}

	return &Generator{
		field:  field,
		window: window,
		sink:   sink,
		opts:   opts,
		logger: logger,
	}, nil
}

// Render samples the field over the tile's world bounds.
func (g *Generator) Render(ctx context.Context, coords tile.Coords) (*image.Gray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !coords.Valid() {
		return nil, fmt.Errorf("invalid tile %s", coords)
	}

	bounds := coords.WorldBounds(g.opts.WorldSize)
	img, err := texture.RenderField(g.field, g.opts.TileSize, bounds, g.window)
	if err != nil {
		return nil, fmt.Errorf("failed to render tile %s: %w", coords, err)
	}
	return texture.Blur(img, g.opts.BlurSigma), nil
}

// RenderPNG renders and encodes a tile.
func (g *Generator) RenderPNG(ctx context.Context, coords tile.Coords) ([]byte, error) {
	img, err := g.Render(ctx, coords)
	if err != nil {
		return nil, err
	}
	return texture.PNGBytes(img, true)
}

// Generate renders the tile and writes it to the sink. Existing tiles are
// skipped unless force is set.
func (g *Generator) Generate(ctx context.Context, coords tile.Coords, force bool) (worker.Output, error) {
	if g.sink == nil {
		return worker.Output{}, fmt.Errorf("generator has no sink")
	}

	if !force {
		exists, err := g.sink.Has(coords)
		if err != nil {
			return worker.Output{}, err
		}
		if exists {
			g.log().Debug("Tile already exists; skipping", "coords", coords.String())
			return worker.Output{Location: g.sink.Location(coords), Skipped: true}, nil
		}
	}

	g.log().Debug("Rendering tile", "coords", coords.String())
	data, err := g.RenderPNG(ctx, coords)
	if err != nil {
		return worker.Output{}, err
	}

	if err := g.sink.Put(coords, data); err != nil {
		return worker.Output{}, fmt.Errorf("failed to store tile %s: %w", coords, err)
	}

	return worker.Output{Location: g.sink.Location(coords), Bytes: len(data)}, nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
