// Package server serves noise tiles over HTTP, rendered on demand or read
// from an MBTiles pyramid.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/noiselab/internal/noise"
	"github.com/MeKo-Tech/noiselab/internal/pipeline"
	"github.com/MeKo-Tech/noiselab/internal/texture"
	"github.com/MeKo-Tech/noiselab/internal/tile"
)

type OnDemandTilesConfig struct {
	// CacheDir stores rendered tiles on disk when set; empty keeps every
	// render in memory only.
	CacheDir             string
	CacheControl         string
	BaseTileSize         int
	WorldSize            float64
	BlurSigma            float64
	MaxConcurrentRenders int
	RenderTimeout        time.Duration
}

type OnDemandTiles struct {
	field  noise.Field
	window texture.Window
	logger *slog.Logger
	sem    chan struct{}
	locks  sync.Map
	gens   sync.Map
	cfg    OnDemandTilesConfig

	activeRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	cacheHits      atomic.Int64
	currentRenders sync.Map // tile key -> start time

	queuedRenders atomic.Int32
	queuedTiles   sync.Map // tile key -> queue time
}

// RenderStatus contains current render operation status.
type RenderStatus struct {
	ActiveRenders int      `json:"active_renders"`
	TotalRendered int64    `json:"total_rendered"`
	TotalFailed   int64    `json:"total_failed"`
	CacheHits     int64    `json:"cache_hits"`
	CurrentTiles  []string `json:"current_tiles"`
	MaxConcurrent int      `json:"max_concurrent"`
	QueuedRenders int      `json:"queued_renders"`
	QueuedTiles   []string `json:"queued_tiles"`
}

func NewOnDemandTiles(field noise.Field, window texture.Window, cfg OnDemandTilesConfig, logger *slog.Logger) (*OnDemandTiles, error) {
	if field == nil {
		return nil, fmt.Errorf("field is required")
	}
	if cfg.BaseTileSize <= 0 {
		cfg.BaseTileSize = 256
	}
	if cfg.WorldSize <= 0 {
		cfg.WorldSize = pipeline.DefaultOptions().WorldSize
	}
	if cfg.MaxConcurrentRenders <= 0 {
		cfg.MaxConcurrentRenders = 1
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	return &OnDemandTiles{
		field:  field,
		window: window,
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentRenders),
	}, nil
}

// Status returns the current render status.
func (t *OnDemandTiles) Status() RenderStatus {
	return RenderStatus{
		ActiveRenders: int(t.activeRenders.Load()),
		TotalRendered: t.totalRendered.Load(),
		TotalFailed:   t.totalFailed.Load(),
		CacheHits:     t.cacheHits.Load(),
		CurrentTiles:  sortedKeys(&t.currentRenders),
		MaxConcurrent: t.cfg.MaxConcurrentRenders,
		QueuedRenders: int(t.queuedRenders.Load()),
		QueuedTiles:   sortedKeys(&t.queuedTiles),
	}
}

// StatusHandler returns an HTTP handler for the status endpoint (JSON).
func (t *OnDemandTiles) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(t.Status()); err != nil {
			t.log().Error("failed to encode status", "error", err)
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	})
}

// StatusStreamHandler pushes the status as Server-Sent Events every interval.
func (t *OnDemandTiles) StatusStreamHandler(interval time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		t.sendStatusEvent(w, flusher)
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				t.sendStatusEvent(w, flusher)
			}
		}
	})
}

func (t *OnDemandTiles) sendStatusEvent(w http.ResponseWriter, flusher http.Flusher) {
	data, err := json.Marshal(t.Status())
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func (t *OnDemandTiles) Handler() http.Handler {
	return http.HandlerFunc(t.serveTile)
}

func (t *OnDemandTiles) serveTile(w http.ResponseWriter, r *http.Request) {
	coords, suffix, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	tileSize := tileSizeForSuffix(t.cfg.BaseTileSize, suffix)
	gen, sink, err := t.getGenerator(tileSize)
	if err != nil {
		t.log().Error("failed to init generator", "error", err)
		http.Error(w, "failed to init generator", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", t.cfg.CacheControl)

	if t.serveCached(w, r, sink, coords) {
		return
	}

	key := coords.String() + suffix
	mu := t.getLock(key)
	mu.Lock()
	defer mu.Unlock()

	// Another request may have rendered the tile while we waited.
	if t.serveCached(w, r, sink, coords) {
		return
	}

	t.queuedRenders.Add(1)
	t.queuedTiles.Store(key, time.Now())

	select {
	case t.sem <- struct{}{}:
		t.queuedRenders.Add(-1)
		t.queuedTiles.Delete(key)
		defer func() { <-t.sem }()
	case <-r.Context().Done():
		t.queuedRenders.Add(-1)
		t.queuedTiles.Delete(key)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.RenderTimeout)
	defer cancel()

	start := time.Now()
	t.activeRenders.Add(1)
	t.currentRenders.Store(key, start)

	data, err := gen.RenderPNG(ctx, coords)

	t.activeRenders.Add(-1)
	t.currentRenders.Delete(key)

	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to render tile", "coords", coords.String(), "suffix", suffix, "error", err)
		http.Error(w, fmt.Sprintf("failed to render tile %s: %v", key, err), http.StatusInternalServerError)
		return
	}
	t.totalRendered.Add(1)
	t.log().Debug("tile rendered on-demand", "coords", coords.String(), "suffix", suffix, "ms", time.Since(start).Milliseconds())

	if sink != nil {
		if err := sink.Put(coords, data); err != nil {
			// The response is still valid; only the cache write failed.
			t.log().Warn("failed to cache tile", "coords", coords.String(), "error", err)
		}
	}

	writePNG(w, data, t.log())
}

func (t *OnDemandTiles) serveCached(w http.ResponseWriter, r *http.Request, sink *pipeline.DirSink, coords tile.Coords) bool {
	if sink == nil {
		return false
	}
	p := sink.Location(coords)
	if !fileExists(p) {
		return false
	}
	t.cacheHits.Add(1)
	http.ServeFile(w, r, p)
	return true
}

// getGenerator returns the generator and optional disk cache for a tile size.
func (t *OnDemandTiles) getGenerator(tileSize int) (*pipeline.Generator, *pipeline.DirSink, error) {
	var sink *pipeline.DirSink
	if t.cfg.CacheDir != "" {
		sink = &pipeline.DirSink{Dir: filepath.Join(t.cfg.CacheDir, strconv.Itoa(tileSize))}
	}

	if v, ok := t.gens.Load(tileSize); ok {
		return v.(*pipeline.Generator), sink, nil
	}

	g, err := pipeline.NewGenerator(t.field, t.window, nil, pipeline.Options{
		TileSize:  tileSize,
		WorldSize: t.cfg.WorldSize,
		BlurSigma: t.cfg.BlurSigma,
	}, t.logger)
	if err != nil {
		return nil, nil, err
	}

	actual, _ := t.gens.LoadOrStore(tileSize, g)
	return actual.(*pipeline.Generator), sink, nil
}

func (t *OnDemandTiles) getLock(key string) *sync.Mutex {
	if v, ok := t.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	actual, _ := t.locks.LoadOrStore(key, mu)
	return actual.(*sync.Mutex)
}

func (t *OnDemandTiles) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

// parseTilePath accepts /tiles/z3_x1_y2.png and /tiles/3/1/2.png, each
// optionally with an @2x suffix before the extension.
func parseTilePath(requestPath string) (tile.Coords, string, bool) {
	rest, ok := strings.CutPrefix(requestPath, "/tiles/")
	if !ok {
		return tile.Coords{}, "", false
	}
	name, ok := strings.CutSuffix(rest, ".png")
	if !ok {
		return tile.Coords{}, "", false
	}
	suffix := ""
	if trimmed, ok := strings.CutSuffix(name, "@2x"); ok {
		suffix = "@2x"
		name = trimmed
	}

	var coords tile.Coords
	if parts := strings.Split(name, "/"); len(parts) == 3 {
		var nums [3]uint32
		for i, p := range parts {
			v, err := strconv.ParseUint(p, 10, 32)
			if err != nil {
				return tile.Coords{}, "", false
			}
			nums[i] = uint32(v)
		}
		coords = tile.NewCoords(nums[0], nums[1], nums[2])
		if !coords.Valid() {
			return tile.Coords{}, "", false
		}
	} else {
		var err error
		coords, err = tile.ParseCoords(name)
		if err != nil || strings.Contains(name, "/") {
			return tile.Coords{}, "", false
		}
	}
	return coords, suffix, true
}

func tileSizeForSuffix(base int, suffix string) int {
	if suffix == "@2x" {
		return base * 2
	}
	return base
}

func writePNG(w http.ResponseWriter, data []byte, logger *slog.Logger) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !st.IsDir()
}

func sortedKeys(m *sync.Map) []string {
	keys := []string{}
	m.Range(func(key, _ any) bool {
		keys = append(keys, key.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}
