// Package export writes point sets, discrepancy tables and run manifests to
// disk as CSV and YAML.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/noiselab/internal/discrepancy"
	"github.com/MeKo-Tech/noiselab/internal/sampling"
	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// ManifestName is the file every command drops next to its outputs.
const ManifestName = "manifest.yaml"

// PointRow is one sample in a points CSV.
type PointRow struct {
	Index int     `csv:"index"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
}

// PointRows flattens a point set into CSV rows.
func PointRows(ps sampling.PointSet) []PointRow {
	rows := make([]PointRow, ps.Len())
	for i := range rows {
		x, y := ps.At(i)
		rows[i] = PointRow{Index: i, X: x, Y: y}
	}
	return rows
}

// WritePoints writes ps as CSV with an index,x,y header.
func WritePoints(w io.Writer, ps sampling.PointSet) error {
	rows := PointRows(ps)
	if len(rows) == 0 {
		// gocsv needs at least one element to derive the header.
		_, err := io.WriteString(w, "index,x,y\n")
		return err
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing points: %w", err)
	}
	return nil
}

// WritePointsCSV writes ps to path.
func WritePointsCSV(path string, ps sampling.PointSet) error {
	return writeFile(path, func(w io.Writer) error { return WritePoints(w, ps) })
}

// WriteComparison writes discrepancy rows as CSV.
func WriteComparison(w io.Writer, rows []discrepancy.Row) error {
	if len(rows) == 0 {
		_, err := io.WriteString(w, "sampler,n,trials,mean,stddev\n")
		return err
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing comparison: %w", err)
	}
	return nil
}

// WriteComparisonCSV writes discrepancy rows to path.
func WriteComparisonCSV(path string, rows []discrepancy.Row) error {
	return writeFile(path, func(w io.Writer) error { return WriteComparison(w, rows) })
}

// ReadComparisonCSV reads rows written by WriteComparisonCSV.
func ReadComparisonCSV(path string) ([]discrepancy.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var rows []discrepancy.Row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("reading comparison: %w", err)
	}
	return rows, nil
}

// Manifest describes one command run and the files it produced.
type Manifest struct {
	Command    string            `yaml:"command"`
	CreatedAt  time.Time         `yaml:"created_at"`
	Parameters map[string]string `yaml:"parameters,omitempty"`
	Outputs    []string          `yaml:"outputs,omitempty"`
	Stats      map[string]string `yaml:"stats,omitempty"`
}

// NewManifest starts a manifest for command, stamped with the current time.
func NewManifest(command string) *Manifest {
	return &Manifest{
		Command:    command,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		Parameters: map[string]string{},
		Stats:      map[string]string{},
	}
}

// Set records a parameter.
func (m *Manifest) Set(key string, value any) {
	m.Parameters[key] = fmt.Sprint(value)
}

// Stat records a result statistic.
func (m *Manifest) Stat(key string, value any) {
	m.Stats[key] = fmt.Sprint(value)
}

// AddOutput records a produced file; paths are stored relative to the
// manifest directory when possible.
func (m *Manifest) AddOutput(dir, path string) {
	if rel, err := filepath.Rel(dir, path); err == nil {
		path = filepath.ToSlash(rel)
	}
	m.Outputs = append(m.Outputs, path)
}

// WriteManifest saves m as dir/manifest.yaml and returns the path.
func WriteManifest(dir string, m *Manifest) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", ManifestName, err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
