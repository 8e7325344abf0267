package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/noiselab/internal/export"
	"github.com/MeKo-Tech/noiselab/internal/mbtiles"
	"github.com/MeKo-Tech/noiselab/internal/tile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Pack a tile folder into an MBTiles file",
	Long: `Pack a folder written by 'tiles --format folder' (flat or nested layout) into
an MBTiles database. Field parameters are taken from the folder's
manifest.yaml when present.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("input-dir", "", "Input directory containing tiles (defaults to --output-dir)")
	convertCmd.Flags().StringP("output", "o", "", "Output MBTiles file path (required)")
	convertCmd.Flags().String("name", "", "Tileset name (default: derived from the manifest)")
	convertCmd.Flags().String("description", "", "Tileset description")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"convert.input_dir", "input-dir"},
		{"convert.output", "output"},
		{"convert.name", "name"},
		{"convert.description", "description"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, convertCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	inputDir := viper.GetString("convert.input_dir")
	if inputDir == "" {
		inputDir = viper.GetString("output-dir")
	}
	outputFile := viper.GetString("convert.output")
	if outputFile == "" {
		return fmt.Errorf("--output is required")
	}

	n, err := convertFolder(inputDir, outputFile, viper.GetString("convert.name"), viper.GetString("convert.description"))
	if err != nil {
		return err
	}
	logger.Info("Conversion complete", "output", outputFile, "tiles", n)
	return nil
}

type tileFile struct {
	coords tile.Coords
	path   string
}

// convertFolder copies every tile under inputDir into a new MBTiles file and
// returns the number of tiles written.
func convertFolder(inputDir, outputFile, name, description string) (int, error) {
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		return 0, fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	tiles, minZoom, maxZoom, err := scanTilesDirectory(inputDir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan tiles directory: %w", err)
	}
	if len(tiles) == 0 {
		return 0, fmt.Errorf("no tiles found in %s", inputDir)
	}
	logger.Info("Found tiles", "count", len(tiles), "min_zoom", minZoom, "max_zoom", maxZoom)

	meta := mbtiles.Metadata{
		Name:        name,
		Format:      "png",
		Description: description,
		Type:        "overlay",
		Version:     "1.0",
		Bounds:      [4]float64{-180, -85.0511, 180, 85.0511},
		Center:      [3]float64{0, 0, float64((minZoom + maxZoom) / 2)},
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
	}
	if m, err := export.ReadManifest(filepath.Join(inputDir, export.ManifestName)); err == nil {
		applyManifest(&meta, m)
	} else {
		logger.Debug("No usable manifest, writing plain metadata", "error", err)
	}
	if meta.Name == "" {
		meta.Name = "noiselab"
	}

	writer, err := mbtiles.New(outputFile, meta)
	if err != nil {
		return 0, fmt.Errorf("failed to create MBTiles writer: %w", err)
	}
	defer writer.Close()

	for i, tf := range tiles {
		data, err := os.ReadFile(tf.path)
		if err != nil {
			return 0, fmt.Errorf("failed to read tile %s: %w", tf.path, err)
		}
		if err := writer.WriteTile(tf.coords, data); err != nil {
			return 0, fmt.Errorf("failed to write tile %s: %w", tf.coords, err)
		}
		if (i+1)%1000 == 0 {
			logger.Info("Progress", "converted", i+1, "total", len(tiles))
		}
	}

	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to close MBTiles: %w", err)
	}
	return len(tiles), nil
}

// applyManifest copies the field parameters recorded by the tiles command.
func applyManifest(meta *mbtiles.Metadata, m *export.Manifest) {
	p := m.Parameters
	meta.Field = p["field"]
	if v, err := strconv.ParseUint(p["seed"], 10, 32); err == nil {
		meta.Seed = uint32(v)
	}
	meta.Octaves, _ = strconv.Atoi(p["octaves"])
	meta.Lacunarity, _ = strconv.ParseFloat(p["lacunarity"], 64)
	meta.Gain, _ = strconv.ParseFloat(p["gain"], 64)
	meta.WorldSize, _ = strconv.ParseFloat(p["world_size"], 64)
	if bbox, err := parseBBox(p["bbox"]); err == nil {
		meta.Bounds = bbox
		meta.Center[0] = (bbox[0] + bbox[2]) / 2
		meta.Center[1] = (bbox[1] + bbox[3]) / 2
	}
	if meta.Name == "" && meta.Field != "" {
		meta.Name = "noiselab " + meta.Field
	}
}

var (
	flatTilePattern   = regexp.MustCompile(`^z(\d+)_x(\d+)_y(\d+)\.png$`)
	nestedTilePattern = regexp.MustCompile(`^(\d+)/(\d+)/(\d+)\.png$`)
)

// scanTilesDirectory finds flat (z3_x1_y2.png) and nested (3/1/2.png) tiles
// below dir.
func scanTilesDirectory(dir string) ([]tileFile, int, int, error) {
	var tiles []tileFile
	minZoom := tile.MaxZoom
	maxZoom := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		matches := flatTilePattern.FindStringSubmatch(filepath.Base(rel))
		if matches == nil || strings.Contains(rel, "/") {
			matches = nestedTilePattern.FindStringSubmatch(rel)
		}
		if matches == nil {
			return nil
		}

		var nums [3]uint32
		for i := range nums {
			v, err := strconv.ParseUint(matches[i+1], 10, 32)
			if err != nil {
				return nil
			}
			nums[i] = uint32(v)
		}
		c := tile.NewCoords(nums[0], nums[1], nums[2])
		if !c.Valid() {
			return nil
		}

		tiles = append(tiles, tileFile{coords: c, path: path})
		minZoom = min(minZoom, int(c.Z))
		maxZoom = max(maxZoom, int(c.Z))
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}

	if len(tiles) == 0 {
		minZoom = 0
		maxZoom = 0
	}
	return tiles, minZoom, maxZoom, nil
}
