package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/MeKo-Tech/noiselab/internal/discrepancy"
	"github.com/MeKo-Tech/noiselab/internal/export"
	"github.com/MeKo-Tech/noiselab/internal/sampling"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var discrepancyCmd = &cobra.Command{
	Use:   "discrepancy",
	Short: "Compare the star discrepancy of point generators",
	Long: `Measure the star discrepancy of each generator at several sizes, averaged
over trials (trial t uses seed t, which only changes random and blue noise).`,
	RunE: runDiscrepancy,
}

func init() {
	rootCmd.AddCommand(discrepancyCmd)

	discrepancyCmd.Flags().StringSlice("kinds", []string{"halton", "r2", "sobol", "random", "blue"}, "Generators to compare")
	discrepancyCmd.Flags().String("sizes", "16,64,256", "Comma-separated point counts")
	discrepancyCmd.Flags().Int("trials", 8, "Trials averaged per generator and size")
	discrepancyCmd.Flags().Int("candidates", 10, "Best-candidate count for blue noise")
	discrepancyCmd.Flags().Bool("csv", false, "Also write comparison.csv and a manifest to --output-dir")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, discrepancyCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
	mustBind("discrepancy.kinds", "kinds")
	mustBind("discrepancy.sizes", "sizes")
	mustBind("discrepancy.trials", "trials")
	mustBind("discrepancy.candidates", "candidates")
	mustBind("discrepancy.csv", "csv")
}

func runDiscrepancy(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	sizes, err := parseSizes(viper.GetString("discrepancy.sizes"))
	if err != nil {
		return err
	}
	trials := viper.GetInt("discrepancy.trials")
	candidates := viper.GetInt("discrepancy.candidates")
	samplers, err := buildSamplers(viper.GetStringSlice("discrepancy.kinds"), candidates)
	if err != nil {
		return err
	}

	logger.Info("Comparing generators", "samplers", len(samplers), "sizes", sizes, "trials", trials)
	rows, err := discrepancy.Compare(samplers, sizes, trials)
	if err != nil {
		return err
	}

	if err := writeComparisonTable(cmd.OutOrStdout(), rows); err != nil {
		return err
	}

	if !viper.GetBool("discrepancy.csv") {
		return nil
	}

	outputDir := viper.GetString("output-dir")
	path := filepath.Join(outputDir, "comparison.csv")
	if err := export.WriteComparisonCSV(path, rows); err != nil {
		return err
	}
	m := export.NewManifest("discrepancy")
	m.Set("sizes", viper.GetString("discrepancy.sizes"))
	m.Set("trials", trials)
	m.Set("candidates", candidates)
	m.AddOutput(outputDir, path)
	if _, err := export.WriteManifest(outputDir, m); err != nil {
		return err
	}
	logger.Info("Comparison written", "path", path)
	return nil
}

// buildSamplers maps generator names to discrepancy samplers.
func buildSamplers(names []string, candidates int) ([]discrepancy.NamedSampler, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one generator is required")
	}
	samplers := make([]discrepancy.NamedSampler, 0, len(names))
	for _, name := range names {
		kind, err := sampling.ParseKind(name)
		if err != nil {
			return nil, err
		}
		samplers = append(samplers, discrepancy.NamedSampler{
			Name: string(kind),
			Sample: func(n int, seed uint32) ([]float64, []float64) {
				ps, err := sampling.Generate(kind, n, seed, candidates)
				if err != nil {
					// Compare validates n before sampling.
					panic(err)
				}
				return ps.Xs(), ps.Ys()
			},
		})
	}
	return samplers, nil
}

func parseSizes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	sizes := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", part, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("sizes must be positive, got %d", n)
		}
		sizes = append(sizes, n)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("at least one size is required")
	}
	return sizes, nil
}

func writeComparisonTable(w io.Writer, rows []discrepancy.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "N\tSAMPLER\tMEAN\tSTDDEV\tTRIALS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.5f\t%.5f\t%d\n", r.N, r.Sampler, r.Mean, r.StdDev, r.Trials)
	}
	return tw.Flush()
}
