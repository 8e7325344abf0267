package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/noiselab/internal/mbtiles"
)

// MBTilesHandler serves tiles from a pre-rendered MBTiles pyramid.
type MBTilesHandler struct {
	reader       *mbtiles.Reader
	logger       *slog.Logger
	cacheControl string
}

// MBTilesConfig configures the MBTiles handler.
type MBTilesConfig struct {
	MBTilesPath  string
	CacheControl string
}

// NewMBTilesHandler creates a new MBTiles handler.
func NewMBTilesHandler(cfg MBTilesConfig, logger *slog.Logger) (*MBTilesHandler, error) {
	reader, err := mbtiles.OpenReader(cfg.MBTilesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MBTiles: %w", err)
	}

	return &MBTilesHandler{
		reader:       reader,
		logger:       logger,
		cacheControl: cfg.CacheControl,
	}, nil
}

// Handler returns the tile handler. The @2x suffix is ignored; a pyramid
// holds a single tile size.
func (h *MBTilesHandler) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		coords, _, ok := parseTilePath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}

		data, err := h.reader.ReadTile(coords)
		if errors.Is(err, mbtiles.ErrTileNotFound) {
			http.Error(w, "tile not found", http.StatusNotFound)
			return
		}
		if err != nil {
			h.log().Error("failed to read tile", "coords", coords.String(), "error", err)
			http.Error(w, "failed to read tile", http.StatusInternalServerError)
			return
		}

		if h.cacheControl != "" {
			w.Header().Set("Cache-Control", h.cacheControl)
		}
		writePNG(w, data, h.log())
	})
}

// MetadataHandler reports the pyramid's metadata as JSON.
func (h *MBTilesHandler) MetadataHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta, err := h.reader.Metadata()
		if err != nil {
			h.log().Error("failed to read metadata", "error", err)
			http.Error(w, "failed to read metadata", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(meta); err != nil {
			h.log().Error("failed to encode metadata", "error", err)
		}
	})
}

// Close closes the MBTiles reader.
func (h *MBTilesHandler) Close() error {
	return h.reader.Close()
}

func (h *MBTilesHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
