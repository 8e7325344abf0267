package mbtiles

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/noiselab/internal/tile"
)

func testMetadata() Metadata {
	return Metadata{
		Name:        "fbm pyramid",
		Format:      "png",
		MinZoom:     0,
		MaxZoom:     3,
		Bounds:      [4]float64{-180, -85.051129, 180, 85.051129},
		Center:      [3]float64{0, 0, 1},
		Description: "Test description",
		Type:        "baselayer",
		Version:     "1.0",
		Field:       "fbm",
		Seed:        42,
		Octaves:     5,
		Lacunarity:  2,
		Gain:        0.5,
		WorldSize:   8,
	}
}

func TestWriter_New(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")

	w, err := New(dbPath, testMetadata())
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("Database file was not created")
	}

	var count int
	err = w.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tiles'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected tiles table to exist, got count=%d", count)
	}

	var seed string
	err = w.db.QueryRow("SELECT value FROM metadata WHERE name='noise.seed'").Scan(&seed)
	if err != nil {
		t.Fatalf("Failed to query metadata: %v", err)
	}
	if seed != "42" {
		t.Errorf("noise.seed = %q, want 42", seed)
	}
}

func TestWriter_WriteTileStoresTMSRow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")

	w, err := New(dbPath, Metadata{Name: "Test", Format: "png"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	c := tile.NewCoords(3, 5, 1)
	if err := w.WriteTile(c, []byte("png bytes")); err != nil {
		t.Fatalf("Failed to write tile: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	var data []byte
	err = w.db.QueryRow("SELECT tile_data FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=?",
		3, 5, 6).Scan(&data)
	if err != nil {
		t.Fatalf("Failed to read tile: %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("stored %q", data)
	}
	if w.Written() != 1 {
		t.Errorf("Written() = %d, want 1", w.Written())
	}
}

func TestWriter_RejectsInvalidTile(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "test.mbtiles"), Metadata{Name: "Test"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	if err := w.WriteTile(tile.NewCoords(2, 4, 0), []byte("x")); err == nil {
		t.Error("expected error for out-of-range tile")
	}
}

func TestWriter_BatchFlush(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")

	w, err := New(dbPath, Metadata{Name: "Test", Format: "png"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	for i := 0; i < 150; i++ {
		if err := w.WriteTile(tile.NewCoords(8, uint32(i), 100), []byte("tile")); err != nil {
			t.Fatalf("Failed to write tile %d: %v", i, err)
		}
	}
	// The first hundred went out with the automatic flush.
	if w.Written() != DefaultBatchSize {
		t.Errorf("Written() = %d before close, want %d", w.Written(), DefaultBatchSize)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count); err != nil {
		t.Fatalf("Failed to query tiles: %v", err)
	}
	if count != 150 {
		t.Errorf("Expected 150 tiles, got %d", count)
	}
}

func TestWriter_ReplaceExisting(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "test.mbtiles"), Metadata{Name: "Test", Format: "png"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	c := tile.NewCoords(4, 10, 2)
	if err := w.WriteTile(c, []byte("first version")); err != nil {
		t.Fatalf("Failed to write first tile: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteTile(c, []byte("second version")); err != nil {
		t.Fatalf("Failed to write second tile: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count); err != nil {
		t.Fatalf("Failed to query tiles: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 tile (replaced), got %d", count)
	}
}

func TestWriter_HasTileAndResume(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")
	c := tile.NewCoords(2, 1, 3)

	w, err := New(dbPath, testMetadata())
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if ok, err := w.HasTile(c); err != nil || ok {
		t.Fatalf("HasTile before write = %v, %v", ok, err)
	}
	if err := w.WriteTile(c, []byte("a")); err != nil {
		t.Fatal(err)
	}
	// Still buffered, but already counts as present.
	if ok, err := w.HasTile(c); err != nil || !ok {
		t.Fatalf("HasTile while buffered = %v, %v", ok, err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	w, err = New(dbPath, testMetadata())
	if err != nil {
		t.Fatalf("Failed to reopen writer: %v", err)
	}
	defer w.Close()
	if ok, err := w.HasTile(c); err != nil || !ok {
		t.Fatalf("HasTile after reopen = %v, %v", ok, err)
	}
}
