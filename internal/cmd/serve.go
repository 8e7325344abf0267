package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"
	"runtime"
	"time"

	"github.com/MeKo-Tech/noiselab/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve noise tiles over HTTP (rendered on demand or from MBTiles)",
	Long: `Serve noise tiles at /tiles/z{z}_x{x}_y{y}.png and /tiles/{z}/{x}/{y}.png
(append @2x for double resolution when rendering on demand).

Without --mbtiles, tiles are rendered on demand and cached below
<output-dir>/cache; /status and /status/stream report render activity.
With --mbtiles, tiles are read from the pyramid and /metadata describes it.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("mbtiles", "", "Serve tiles from this MBTiles file instead of rendering")
	serveCmd.Flags().String("cache-dir", "", "Directory for rendered tiles (defaults to <output-dir>/cache)")
	serveCmd.Flags().Bool("disable-cache", false, "Render every request without touching disk")
	serveCmd.Flags().Int("max-concurrent-renders", runtime.NumCPU(), "Max concurrent tile renders (default: number of CPUs)")
	serveCmd.Flags().Duration("render-timeout", 30*time.Second, "Timeout per tile render")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served tiles")
	serveCmd.Flags().Duration("status-interval", time.Second, "Push interval of /status/stream")

	serveCmd.Flags().Int("tile-size", 256, "Base tile size in pixels (256; @2x requests render 512)")
	serveCmd.Flags().Float64("world-size", 8, "Noise-space extent of the z0 tile")
	serveCmd.Flags().Float64("blur", 0, "Gaussian blur sigma in pixels (0 disables)")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.mbtiles", "mbtiles")
	mustBind("serve.cache_dir", "cache-dir")
	mustBind("serve.disable_cache", "disable-cache")
	mustBind("serve.max_concurrent_renders", "max-concurrent-renders")
	mustBind("serve.render_timeout", "render-timeout")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.status_interval", "status-interval")

	mustBind("serve.tile_size", "tile-size")
	mustBind("serve.world_size", "world-size")
	mustBind("serve.blur", "blur")

	addFieldFlags(serveCmd, "serve")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	mbtilesPath := viper.GetString("serve.mbtiles")
	cacheControl := viper.GetString("serve.cache_control")

	handler, err := buildServeHandler(mbtilesPath, cacheControl)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

// buildServeHandler assembles the mux for either serving mode.
func buildServeHandler(mbtilesPath, cacheControl string) (http.Handler, error) {
	if mbtilesPath != "" {
		h, err := server.NewMBTilesHandler(server.MBTilesConfig{
			MBTilesPath:  mbtilesPath,
			CacheControl: cacheControl,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("tile server listening", "addr", viper.GetString("serve.addr"), "mbtiles", mbtilesPath)
		return server.Routes(h.Handler(), map[string]http.Handler{
			"/metadata": h.MetadataHandler(),
		}), nil
	}

	fc, err := readFieldConfig("serve")
	if err != nil {
		return nil, err
	}
	field, err := fc.build()
	if err != nil {
		return nil, err
	}

	cacheDir := viper.GetString("serve.cache_dir")
	if cacheDir == "" {
		cacheDir = filepath.Join(viper.GetString("output-dir"), "cache", fmt.Sprintf("%s_%d", fc.Kind, fc.Params.Seed))
	}
	if viper.GetBool("serve.disable_cache") {
		cacheDir = ""
	}
	maxConc := viper.GetInt("serve.max_concurrent_renders")

	od, err := server.NewOnDemandTiles(field, fc.window(), server.OnDemandTilesConfig{
		CacheDir:             cacheDir,
		CacheControl:         cacheControl,
		BaseTileSize:         viper.GetInt("serve.tile_size"),
		WorldSize:            viper.GetFloat64("serve.world_size"),
		BlurSigma:            viper.GetFloat64("serve.blur"),
		MaxConcurrentRenders: maxConc,
		RenderTimeout:        viper.GetDuration("serve.render_timeout"),
	}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("tile server listening", append(fc.logAttrs(),
		"addr", viper.GetString("serve.addr"),
		"cache_dir", cacheDir,
		"max_concurrent_renders", maxConc,
	)...)

	return server.Routes(od.Handler(), map[string]http.Handler{
		"/status":        od.StatusHandler(),
		"/status/stream": od.StatusStreamHandler(viper.GetDuration("serve.status_interval")),
	}), nil
}
