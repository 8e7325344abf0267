package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/MeKo-Tech/noiselab/internal/export"
	"github.com/MeKo-Tech/noiselab/internal/mbtiles"
	"github.com/MeKo-Tech/noiselab/internal/pipeline"
	"github.com/MeKo-Tech/noiselab/internal/tile"
	"github.com/MeKo-Tech/noiselab/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Render a z/x/y noise tile pyramid",
	Long: `Render a z/x/y tile pyramid of a noise field into a folder or an MBTiles file.

The z0 tile covers [0, world-size) of noise space on both axes and every zoom
level halves the extent, so tiles stitch seamlessly across zoom levels.
Use --bbox to restrict rendering to the tiles under a WGS84 bounding box.`,
	RunE: runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)

	tilesCmd.Flags().Int("zoom-min", 0, "Minimum zoom level")
	tilesCmd.Flags().Int("zoom-max", 3, "Maximum zoom level")
	tilesCmd.Flags().String("bbox", "", "Bounding box: minLon,minLat,maxLon,maxLat (default: whole pyramid)")
	tilesCmd.Flags().Int("tile-size", 256, "Tile size in pixels")
	tilesCmd.Flags().Float64("world-size", pipeline.DefaultOptions().WorldSize, "Noise-space extent of the z0 tile")
	tilesCmd.Flags().Float64("blur", 0, "Gaussian blur sigma in pixels (0 disables)")
	tilesCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	tilesCmd.Flags().Bool("progress", true, "Show progress bar")
	tilesCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some tiles fail")
	tilesCmd.Flags().Bool("force", false, "Re-render tiles that already exist")
	tilesCmd.Flags().String("format", "folder", "Output format: folder or mbtiles")
	tilesCmd.Flags().String("output-file", "", "Output file path for MBTiles format (e.g., noise.mbtiles)")
	tilesCmd.Flags().String("folder-structure", "flat", "Folder structure: flat (z{z}_x{x}_y{y}.png) or nested ({z}/{x}/{y}.png)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"tiles.zoom_min", "zoom-min"},
		{"tiles.zoom_max", "zoom-max"},
		{"tiles.bbox", "bbox"},
		{"tiles.tile_size", "tile-size"},
		{"tiles.world_size", "world-size"},
		{"tiles.blur", "blur"},
		{"tiles.workers", "workers"},
		{"tiles.progress", "progress"},
		{"tiles.allow_failures", "allow-failures"},
		{"tiles.force", "force"},
		{"tiles.format", "format"},
		{"tiles.output_file", "output-file"},
		{"tiles.folder_structure", "folder-structure"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, tilesCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}

	addFieldFlags(tilesCmd, "tiles")
}

type tilesOptions struct {
	ZoomMin         int
	ZoomMax         int
	BBox            string
	TileSize        int
	WorldSize       float64
	Blur            float64
	Workers         int
	Progress        bool
	AllowFailures   bool
	Force           bool
	Format          string
	OutputDir       string
	OutputFile      string
	FolderStructure string
}

func (o tilesOptions) validate() error {
	if o.Format != "folder" && o.Format != "mbtiles" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'mbtiles'", o.Format)
	}
	if o.FolderStructure != "flat" && o.FolderStructure != "nested" {
		return fmt.Errorf("invalid folder-structure %q: must be 'flat' or 'nested'", o.FolderStructure)
	}
	if o.Format == "mbtiles" && o.OutputFile == "" {
		return fmt.Errorf("--output-file is required when using --format=mbtiles")
	}
	if o.ZoomMin < 0 || o.ZoomMax > tile.MaxZoom {
		return fmt.Errorf("zoom levels must be within [0,%d]", tile.MaxZoom)
	}
	if o.ZoomMin > o.ZoomMax {
		return fmt.Errorf("--zoom-min (%d) must be <= --zoom-max (%d)", o.ZoomMin, o.ZoomMax)
	}
	if o.TileSize <= 0 {
		return fmt.Errorf("tile-size must be positive")
	}
	if o.WorldSize <= 0 {
		return fmt.Errorf("world-size must be positive")
	}
	if o.Blur < 0 {
		return fmt.Errorf("blur must not be negative")
	}
	return nil
}

// coords lists the tiles to render.
func (o tilesOptions) coords() ([]tile.Coords, error) {
	if o.BBox == "" {
		return tile.Pyramid(o.ZoomMin, o.ZoomMax), nil
	}
	bbox, err := parseBBox(o.BBox)
	if err != nil {
		return nil, fmt.Errorf("invalid bbox: %w", err)
	}
	return tile.TilesInBBox(bbox, o.ZoomMin, o.ZoomMax), nil
}

func runTiles(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	opts := tilesOptions{
		ZoomMin:         viper.GetInt("tiles.zoom_min"),
		ZoomMax:         viper.GetInt("tiles.zoom_max"),
		BBox:            viper.GetString("tiles.bbox"),
		TileSize:        viper.GetInt("tiles.tile_size"),
		WorldSize:       viper.GetFloat64("tiles.world_size"),
		Blur:            viper.GetFloat64("tiles.blur"),
		Workers:         viper.GetInt("tiles.workers"),
		Progress:        viper.GetBool("tiles.progress"),
		AllowFailures:   viper.GetBool("tiles.allow_failures"),
		Force:           viper.GetBool("tiles.force"),
		Format:          viper.GetString("tiles.format"),
		OutputDir:       viper.GetString("output-dir"),
		OutputFile:      viper.GetString("tiles.output_file"),
		FolderStructure: viper.GetString("tiles.folder_structure"),
	}
	if err := opts.validate(); err != nil {
		return err
	}
	fc, err := readFieldConfig("tiles")
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	_, err = renderTiles(ctx, opts, fc)
	return err
}

// renderTiles renders the pyramid described by opts and writes its manifest.
func renderTiles(ctx context.Context, opts tilesOptions, fc fieldConfig) (worker.Summary, error) {
	coords, err := opts.coords()
	if err != nil {
		return worker.Summary{}, err
	}
	field, err := fc.build()
	if err != nil {
		return worker.Summary{}, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	logger.Info("Starting tile rendering", append(fc.logAttrs(),
		"zoom_range", fmt.Sprintf("%d-%d", opts.ZoomMin, opts.ZoomMax),
		"tiles", len(coords),
		"workers", opts.Workers,
		"format", opts.Format,
	)...)

	manifestDir := opts.OutputDir
	var sink pipeline.Sink
	var writer *mbtiles.Writer
	if opts.Format == "mbtiles" {
		writer, err = mbtiles.New(opts.OutputFile, tilesMetadata(opts, fc, coords))
		if err != nil {
			return worker.Summary{}, fmt.Errorf("failed to create MBTiles writer: %w", err)
		}
		defer writer.Close()
		sink = pipeline.MBTilesSink{Writer: writer}
		manifestDir = filepath.Dir(opts.OutputFile)
	} else {
		sink = pipeline.DirSink{Dir: opts.OutputDir, Nested: opts.FolderStructure == "nested"}
	}

	gen, err := pipeline.NewGenerator(field, fc.window(), sink, pipeline.Options{
		TileSize:  opts.TileSize,
		WorldSize: opts.WorldSize,
		BlurSigma: opts.Blur,
	}, logger)
	if err != nil {
		return worker.Summary{}, fmt.Errorf("failed to init generator: %w", err)
	}

	var progressOut io.Writer
	if opts.Progress {
		progressOut = os.Stderr
	}
	progress := worker.NewProgress(len(coords), progressOut)

	pool := worker.New(worker.Config{
		Workers:    opts.Workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, worker.TasksFor(coords, opts.Force))
	progress.Done()

	for _, r := range results {
		if r.Err != nil {
			logger.Error("Tile rendering failed", "coords", r.Task.Coords.String(), "error", r.Err)
		}
	}

	summary, failures := worker.Summarize(results)
	logger.Info(progress.Summary(), "bytes", summary.Bytes)

	if writer != nil {
		if err := writer.Flush(); err != nil {
			return summary, fmt.Errorf("failed to flush MBTiles: %w", err)
		}
	}

	m := export.NewManifest("tiles")
	recordField(m, fc)
	m.Set("zoom_min", opts.ZoomMin)
	m.Set("zoom_max", opts.ZoomMax)
	m.Set("tile_size", opts.TileSize)
	m.Set("world_size", opts.WorldSize)
	m.Set("blur", opts.Blur)
	m.Set("format", opts.Format)
	if opts.BBox != "" {
		m.Set("bbox", opts.BBox)
	}
	if opts.Format == "folder" {
		m.Set("folder_structure", opts.FolderStructure)
		m.AddOutput(manifestDir, opts.OutputDir)
	} else {
		m.AddOutput(manifestDir, opts.OutputFile)
	}
	m.Stat("tiles", len(coords))
	m.Stat("rendered", summary.Rendered)
	m.Stat("skipped", summary.Skipped)
	m.Stat("failed", summary.Failed)
	m.Stat("bytes", summary.Bytes)
	if _, err := export.WriteManifest(manifestDir, m); err != nil {
		return summary, err
	}

	if failures != nil {
		if opts.AllowFailures {
			logger.Warn("Some tiles failed to render, but continuing due to --allow-failures flag", "failed_count", summary.Failed)
			return summary, nil
		}
		if ctx.Err() != nil {
			return summary, fmt.Errorf("rendering cancelled: %w", ctx.Err())
		}
		return summary, fmt.Errorf("%d tiles failed to render: %w", summary.Failed, failures)
	}
	return summary, nil
}

// tilesMetadata describes the pyramid for the MBTiles metadata table.
func tilesMetadata(opts tilesOptions, fc fieldConfig, coords []tile.Coords) mbtiles.Metadata {
	bounds := [4]float64{-180, -85.0511, 180, 85.0511}
	if bbox, err := parseBBox(opts.BBox); err == nil {
		bounds = bbox
	}
	return mbtiles.Metadata{
		Name:        fmt.Sprintf("noiselab %s", fc.Kind),
		Format:      "png",
		Description: fmt.Sprintf("%s noise, seed %d, %d tiles", fc.Kind, fc.Params.Seed, len(coords)),
		Type:        "overlay",
		Version:     "1.0",
		Bounds:      bounds,
		Center: [3]float64{
			(bounds[0] + bounds[2]) / 2,
			(bounds[1] + bounds[3]) / 2,
			float64((opts.ZoomMin + opts.ZoomMax) / 2),
		},
		MinZoom:    opts.ZoomMin,
		MaxZoom:    opts.ZoomMax,
		Field:      string(fc.Kind),
		Seed:       fc.Params.Seed,
		Octaves:    fc.Params.Octaves.Count,
		Lacunarity: fc.Params.Octaves.Lacunarity,
		Gain:       fc.Params.Octaves.Persistence,
		WorldSize:  opts.WorldSize,
	}
}

// parseBBox parses a bounding box string "minLon,minLat,maxLon,maxLat" into [4]float64.
func parseBBox(s string) ([4]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return [4]float64{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	var bbox [4]float64
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return [4]float64{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		bbox[i] = val
	}

	if bbox[0] >= bbox[2] {
		return [4]float64{}, fmt.Errorf("minLon (%.4f) must be < maxLon (%.4f)", bbox[0], bbox[2])
	}
	if bbox[1] >= bbox[3] {
		return [4]float64{}, fmt.Errorf("minLat (%.4f) must be < maxLat (%.4f)", bbox[1], bbox[3])
	}

	return bbox, nil
}
