package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/noiselab/internal/mbtiles"
	"github.com/MeKo-Tech/noiselab/internal/tile"
)

// Sink stores encoded tiles.
type Sink interface {
	Has(c tile.Coords) (bool, error)
	Put(c tile.Coords, data []byte) error
	Location(c tile.Coords) string
}

// DirSink writes tiles as PNG files below Dir, either flat
// (z3_x1_y2.png) or nested (3/1/2.png).
type DirSink struct {
	Dir    string
	Nested bool
}

func (s DirSink) path(c tile.Coords) string {
	if s.Nested {
		return filepath.Join(s.Dir, filepath.FromSlash(c.NestedPath("png")))
	}
	return filepath.Join(s.Dir, c.Path("png"))
}

// Location returns the file path for c.
func (s DirSink) Location(c tile.Coords) string { return s.path(c) }

// Has reports whether the tile file exists.
func (s DirSink) Has(c tile.Coords) (bool, error) {
	_, err := os.Stat(s.path(c))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat tile %s: %w", c, err)
}

// Put writes the tile file, creating parent directories as needed. The file
// is written under a temporary name and renamed so readers never see a
// partial tile.
func (s DirSink) Put(c tile.Coords, data []byte) error {
	path := s.path(c)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tile file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move tile file into place: %w", err)
	}
	return nil
}

// MBTilesSink stores tiles in an MBTiles writer.
type MBTilesSink struct {
	Writer *mbtiles.Writer
}

// Location names the tile inside the database.
func (s MBTilesSink) Location(c tile.Coords) string {
	return "mbtiles:" + c.NestedPath("png")
}

func (s MBTilesSink) Has(c tile.Coords) (bool, error) { return s.Writer.HasTile(c) }

func (s MBTilesSink) Put(c tile.Coords, data []byte) error { return s.Writer.WriteTile(c, data) }
