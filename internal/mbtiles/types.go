// Package mbtiles stores rendered noise pyramids in MBTiles (SQLite) databases.
package mbtiles

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrTileNotFound is returned by Reader.ReadTile for tiles the database does not hold.
var ErrTileNotFound = errors.New("tile not found")

// Metadata contains the MBTiles metadata rows for a noise pyramid.
type Metadata struct {
	Name        string // Human-readable tileset identifier
	Format      string // Tile data type, always png here
	Description string
	Type        string // "baselayer" or "overlay"
	Version     string
	Bounds      [4]float64
	Center      [3]float64
	MinZoom     int
	MaxZoom     int

	// Noise parameters, stored as extra rows under the "noise." prefix so
	// the server can report how a pyramid was produced.
	Field      string
	Seed       uint32
	Octaves    int
	Lacunarity float64
	Gain       float64
	WorldSize  float64
}

const noisePrefix = "noise."

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	put := func(key, value string) {
		if value != "" {
			result[key] = value
		}
	}
	put("name", m.Name)
	put("format", m.Format)
	put("description", m.Description)
	put("type", m.Type)
	put("version", m.Version)

	// minzoom 0 is meaningful for a full pyramid, so it is always written.
	result["minzoom"] = strconv.Itoa(m.MinZoom)
	result["maxzoom"] = strconv.Itoa(m.MaxZoom)

	if m.Bounds != [4]float64{} {
		result["bounds"] = fmt.Sprintf("%.6f,%.6f,%.6f,%.6f",
			m.Bounds[0], m.Bounds[1], m.Bounds[2], m.Bounds[3])
	}
	if m.Center != [3]float64{} {
		result["center"] = fmt.Sprintf("%.6f,%.6f,%d",
			m.Center[0], m.Center[1], int(m.Center[2]))
	}

	if m.Field != "" {
		result[noisePrefix+"field"] = m.Field
		result[noisePrefix+"seed"] = strconv.FormatUint(uint64(m.Seed), 10)
		result[noisePrefix+"octaves"] = strconv.Itoa(m.Octaves)
		result[noisePrefix+"lacunarity"] = strconv.FormatFloat(m.Lacunarity, 'g', -1, 64)
		result[noisePrefix+"gain"] = strconv.FormatFloat(m.Gain, 'g', -1, 64)
		result[noisePrefix+"world_size"] = strconv.FormatFloat(m.WorldSize, 'g', -1, 64)
	}

	return result
}

// metadataFromMap is the inverse of ToMap. Unparseable values are left zero.
func metadataFromMap(rows map[string]string) Metadata {
	meta := Metadata{
		Name:        rows["name"],
		Format:      rows["format"],
		Description: rows["description"],
		Type:        rows["type"],
		Version:     rows["version"],
		Field:       rows[noisePrefix+"field"],
	}

	meta.MinZoom, _ = strconv.Atoi(rows["minzoom"])
	meta.MaxZoom, _ = strconv.Atoi(rows["maxzoom"])

	// "minLon,minLat,maxLon,maxLat"
	parseFloats(rows["bounds"], meta.Bounds[:])
	// "lon,lat,zoom"
	parseFloats(rows["center"], meta.Center[:])

	if v, err := strconv.ParseUint(rows[noisePrefix+"seed"], 10, 32); err == nil {
		meta.Seed = uint32(v)
	}
	meta.Octaves, _ = strconv.Atoi(rows[noisePrefix+"octaves"])
	meta.Lacunarity, _ = strconv.ParseFloat(rows[noisePrefix+"lacunarity"], 64)
	meta.Gain, _ = strconv.ParseFloat(rows[noisePrefix+"gain"], 64)
	meta.WorldSize, _ = strconv.ParseFloat(rows[noisePrefix+"world_size"], 64)

	return meta
}

func parseFloats(s string, dst []float64) {
	parts := strings.Split(s, ",")
	if len(parts) != len(dst) {
		return
	}
	for i, part := range parts {
		if f, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
			dst[i] = f
		}
	}
}

// sortedKeys keeps metadata inserts in a stable order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
