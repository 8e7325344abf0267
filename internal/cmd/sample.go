package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/MeKo-Tech/noiselab/internal/discrepancy"
	"github.com/MeKo-Tech/noiselab/internal/export"
	"github.com/MeKo-Tech/noiselab/internal/sampling"
	"github.com/MeKo-Tech/noiselab/internal/texture"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate a 2D point set",
	Long: `Generate a point set in the unit square with one of the low-discrepancy
sequences (halton, r2, sobol), the hash-driven random baseline or blue noise.

The points are written as CSV and plotted to a PNG; the star discrepancy and
minimum pairwise spacing are reported.`,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().String("kind", string(sampling.KindHalton), "Generator: halton, r2, sobol, random, blue")
	sampleCmd.Flags().IntP("count", "n", 256, "Number of points")
	sampleCmd.Flags().Uint32("seed", 1337, "Seed for random and blue noise")
	sampleCmd.Flags().Int("candidates", 10, "Best-candidate count for blue noise")
	sampleCmd.Flags().Bool("csv", true, "Write points.csv")
	sampleCmd.Flags().Bool("plot", true, "Write a PNG plot of the points")
	sampleCmd.Flags().Int("plot-size", 512, "Plot size in pixels")
	sampleCmd.Flags().Float64("radius", 3, "Plotted point radius in pixels")
	sampleCmd.Flags().Bool("coverage", false, "Write a distance-to-nearest-sample map and report dispersion")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, sampleCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
	mustBind("sample.kind", "kind")
	mustBind("sample.count", "count")
	mustBind("sample.seed", "seed")
	mustBind("sample.candidates", "candidates")
	mustBind("sample.csv", "csv")
	mustBind("sample.plot", "plot")
	mustBind("sample.plot_size", "plot-size")
	mustBind("sample.radius", "radius")
	mustBind("sample.coverage", "coverage")
}

type sampleOptions struct {
	Kind       sampling.Kind
	Count      int
	Seed       uint32
	Candidates int
	CSV        bool
	Plot       bool
	PlotSize   int
	Radius     float64
	Coverage   bool
}

func (o sampleOptions) validate() error {
	if o.Count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	if o.Kind == sampling.KindBlueNoise && o.Candidates <= 0 {
		return fmt.Errorf("candidates must be positive for blue noise")
	}
	if o.Coverage && o.PlotSize <= 0 {
		return fmt.Errorf("plot-size must be positive")
	}
	if o.Plot {
		if o.PlotSize <= 0 {
			return fmt.Errorf("plot-size must be positive")
		}
		if o.Radius <= 0 {
			return fmt.Errorf("radius must be positive")
		}
	}
	return nil
}

func runSample(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	kind, err := sampling.ParseKind(viper.GetString("sample.kind"))
	if err != nil {
		return err
	}
	opts := sampleOptions{
		Kind:       kind,
		Count:      viper.GetInt("sample.count"),
		Seed:       viper.GetUint32("sample.seed"),
		Candidates: viper.GetInt("sample.candidates"),
		CSV:        viper.GetBool("sample.csv"),
		Plot:       viper.GetBool("sample.plot"),
		PlotSize:   viper.GetInt("sample.plot_size"),
		Radius:     viper.GetFloat64("sample.radius"),
		Coverage:   viper.GetBool("sample.coverage"),
	}
	if err := opts.validate(); err != nil {
		return err
	}

	outputDir := viper.GetString("output-dir")
	m, err := writeSample(outputDir, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d points, star discrepancy %s, min spacing %s\n",
		opts.Kind, opts.Count, m.Stats["star_discrepancy"], m.Stats["min_spacing"])
	return nil
}

// writeSample generates the point set and writes its CSV, plot and manifest
// into dir.
func writeSample(dir string, opts sampleOptions) (*export.Manifest, error) {
	ps, err := sampling.Generate(opts.Kind, opts.Count, opts.Seed, opts.Candidates)
	if err != nil {
		return nil, err
	}

	star := discrepancy.Star2D(ps.Xs(), ps.Ys())
	spacing := sampling.MinPairwiseDistance(ps)
	logger.Info("Point set generated", "kind", opts.Kind, "count", ps.Len(), "star_discrepancy", star, "min_spacing", spacing)

	m := export.NewManifest("sample")
	m.Set("kind", opts.Kind)
	m.Set("count", opts.Count)
	m.Set("seed", opts.Seed)
	if opts.Kind == sampling.KindBlueNoise {
		m.Set("candidates", opts.Candidates)
	}
	m.Stat("star_discrepancy", fmt.Sprintf("%.6f", star))
	m.Stat("min_spacing", fmt.Sprintf("%.6f", spacing))

	tag := fmt.Sprintf("%s_%d", opts.Kind, opts.Count)
	if opts.CSV {
		p := filepath.Join(dir, "points_"+tag+".csv")
		if err := export.WritePointsCSV(p, ps); err != nil {
			return nil, err
		}
		m.AddOutput(dir, p)
		logger.Debug("Points written", "path", p)
	}
	if opts.Plot {
		img, err := texture.RenderPoints(ps, opts.PlotSize, opts.Radius)
		if err != nil {
			return nil, fmt.Errorf("failed to plot points: %w", err)
		}
		p := filepath.Join(dir, "points_"+tag+".png")
		if err := texture.WritePNG(p, img); err != nil {
			return nil, err
		}
		m.AddOutput(dir, p)
		logger.Debug("Plot written", "path", p)
	}
	if opts.Coverage {
		img, dispersion, err := texture.RenderCoverage(ps, opts.PlotSize)
		if err != nil {
			return nil, fmt.Errorf("failed to map coverage: %w", err)
		}
		p := filepath.Join(dir, "coverage_"+tag+".png")
		if err := texture.WritePNG(p, img); err != nil {
			return nil, err
		}
		m.AddOutput(dir, p)
		m.Stat("dispersion", fmt.Sprintf("%.6f", dispersion))
		logger.Info("Coverage map written", "path", p, "dispersion", dispersion)
	}

	if _, err := export.WriteManifest(dir, m); err != nil {
		return nil, err
	}
	return m, nil
}
