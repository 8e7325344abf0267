package tile

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxZoom is the deepest zoom level the noise pyramid supports.
const MaxZoom = 20

// Coords represents a tile coordinate in the z/x/y quadtree
type Coords struct {
	Z uint32 // Zoom level (0-20)
	X uint32 // X coordinate (column)
	Y uint32 // Y coordinate (row)
}

// String returns the tile coordinate as a string in format "z{zoom}_x{x}_y{y}"
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Path returns the flat file name for this tile
func (c Coords) Path(extension string) string {
	return fmt.Sprintf("%s.%s", c.String(), extension)
}

// NestedPath returns the {z}/{x}/{y}.ext path for this tile
func (c Coords) NestedPath(extension string) string {
	return fmt.Sprintf("%d/%d/%d.%s", c.Z, c.X, c.Y, extension)
}

// Tile returns the maptile.Tile for this coordinate
func (c Coords) Tile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Z))
}

// Valid reports whether the coordinate lies inside the pyramid.
func (c Coords) Valid() bool {
	return c.Z <= MaxZoom && c.Tile().Valid()
}

// Parent returns the tile one zoom level up. The root tile is its own parent.
func (c Coords) Parent() Coords {
	if c.Z == 0 {
		return c
	}
	p := c.Tile().Parent()
	return NewCoords(uint32(p.Z), p.X, p.Y)
}

// Children returns the four tiles one zoom level down.
func (c Coords) Children() []Coords {
	ts := c.Tile().Children()
	out := make([]Coords, 0, len(ts))
	for _, t := range ts {
		out = append(out, NewCoords(uint32(t.Z), t.X, t.Y))
	}
	return out
}

// Bounds returns the geographic bounding box for this tile in WGS84.
// Returns [minLon, minLat, maxLon, maxLat]
func (c Coords) Bounds() [4]float64 {
	bound := c.Tile().Bound()
	return [4]float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()}
}

// WorldBounds returns the square of the noise domain this tile covers when the
// root tile spans [0, worldSize)^2. Returns [minX, minY, maxX, maxY].
// Neighbouring tiles share their edge coordinates exactly, so per-pixel
// sampling is continuous across tile seams.
func (c Coords) WorldBounds(worldSize float64) [4]float64 {
	span := worldSize / float64(uint64(1)<<c.Z)
	minX := float64(c.X) * span
	minY := float64(c.Y) * span
	return [4]float64{minX, minY, float64(c.X+1) * span, float64(c.Y+1) * span}
}

// NewCoords creates a new Coords from zoom, x, y values
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// ParseCoords parses a tile string like "z13_x4297_y2754" into Coords
func ParseCoords(s string) (Coords, error) {
	var c Coords
	_, err := fmt.Sscanf(s, "z%d_x%d_y%d", &c.Z, &c.X, &c.Y)
	if err != nil {
		return c, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	if !c.Valid() {
		return c, fmt.Errorf("tile coordinate out of range: %s", s)
	}
	return c, nil
}

// Pyramid returns every tile from zoomMin to zoomMax, zoom by zoom.
func Pyramid(zoomMin, zoomMax int) []Coords {
	tiles := make([]Coords, 0, PyramidCount(zoomMin, zoomMax))
	for z := zoomMin; z <= zoomMax; z++ {
		n := uint32(1) << z
		for x := uint32(0); x < n; x++ {
			for y := uint32(0); y < n; y++ {
				tiles = append(tiles, NewCoords(uint32(z), x, y))
			}
		}
	}
	return tiles
}

// PyramidCount returns the number of tiles Pyramid would return.
func PyramidCount(zoomMin, zoomMax int) int {
	count := 0
	for z := zoomMin; z <= zoomMax; z++ {
		count += 1 << (2 * z)
	}
	return count
}

// TilesInBBox returns all tile coordinates within a bounding box across a zoom range.
// bbox: [minLon, minLat, maxLon, maxLat] in WGS84
// Calculates correct tile coordinates at each zoom level independently.
func TilesInBBox(bbox [4]float64, zoomMin, zoomMax int) []Coords {
	tiles := make([]Coords, 0, TileCount(bbox, zoomMin, zoomMax))

	for z := zoomMin; z <= zoomMax; z++ {
		minX, minY, maxX, maxY := bboxRange(bbox, maptile.Zoom(z))
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				tiles = append(tiles, NewCoords(uint32(z), x, y))
			}
		}
	}

	return tiles
}

// TileCount returns the number of tiles in a bounding box across a zoom range.
// This is useful for progress estimation without allocating the full tile list.
func TileCount(bbox [4]float64, zoomMin, zoomMax int) int {
	count := 0
	for z := zoomMin; z <= zoomMax; z++ {
		minX, minY, maxX, maxY := bboxRange(bbox, maptile.Zoom(z))
		count += int(maxX-minX+1) * int(maxY-minY+1)
	}
	return count
}

func bboxRange(bbox [4]float64, zoom maptile.Zoom) (minX, minY, maxX, maxY uint32) {
	minTile := maptile.At(orb.Point{bbox[0], bbox[1]}, zoom)
	maxTile := maptile.At(orb.Point{bbox[2], bbox[3]}, zoom)

	// Y grows southwards, so the bbox corners arrive swapped.
	minX, maxX = minTile.X, maxTile.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY = minTile.Y, maxTile.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return minX, minY, maxX, maxY
}
