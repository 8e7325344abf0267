package discrepancy

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Sampler produces n points for one trial. Deterministic generators ignore
// seed.
type Sampler func(n int, seed uint32) (xs, ys []float64)

// NamedSampler pairs a sampler with its display name.
type NamedSampler struct {
	Name   string
	Sample Sampler
}

// Row is the averaged discrepancy of one sampler at one size.
type Row struct {
	Sampler string  `csv:"sampler" yaml:"sampler"`
	N       int     `csv:"n" yaml:"n"`
	Trials  int     `csv:"trials" yaml:"trials"`
	Mean    float64 `csv:"mean" yaml:"mean"`
	StdDev  float64 `csv:"stddev" yaml:"stddev"`
}

// Compare measures Star2D for every sampler and size, averaged over trials.
// Trial t passes seed t to the sampler. Rows are ordered by size, then by
// sampler order.
func Compare(samplers []NamedSampler, sizes []int, trials int) ([]Row, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", trials)
	}
	for _, n := range sizes {
		if n <= 0 {
			return nil, fmt.Errorf("sizes must be positive, got %d", n)
		}
	}

	rows := make([]Row, 0, len(samplers)*len(sizes))
	scores := make([]float64, trials)
	for _, n := range sizes {
		for _, s := range samplers {
			for t := 0; t < trials; t++ {
				xs, ys := s.Sample(n, uint32(t))
				scores[t] = Star2D(xs, ys)
			}

			row := Row{Sampler: s.Name, N: n, Trials: trials}
			if trials == 1 {
				row.Mean = scores[0]
			} else {
				row.Mean, row.StdDev = stat.MeanStdDev(scores, nil)
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Lookup returns the row for sampler at size n.
func Lookup(rows []Row, sampler string, n int) (Row, bool) {
	for _, r := range rows {
		if r.Sampler == sampler && r.N == n {
			return r, true
		}
	}
	return Row{}, false
}
