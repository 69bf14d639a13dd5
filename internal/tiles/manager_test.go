package tiles

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// writeTestArchive creates a minimal valid MBTiles file at dir/name with
// the given bounds and zoom levels, mirroring the schema used by the
// reference MBTiles generator this reader is grounded on.
func writeTestArchive(t *testing.T, dir, name string, bounds Bounds, zooms []int) string {
	t.Helper()
	path := filepath.Join(dir, name)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE metadata (name TEXT, value TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB)`)
	require.NoError(t, err)

	boundsStr := formatBounds(bounds)
	_, err = db.Exec(`INSERT INTO metadata (name, value) VALUES ('name', ?), ('bounds', ?), ('minzoom', ?), ('maxzoom', ?)`,
		name, boundsStr, zooms[0], zooms[len(zooms)-1])
	require.NoError(t, err)

	for _, z := range zooms {
		_, err = db.Exec(`INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, 0, 0, ?)`,
			z, []byte{0x89, 'P', 'N', 'G'})
		require.NoError(t, err)
	}

	return path
}

func formatBounds(b Bounds) string {
	return fmt.Sprintf("%g,%g,%g,%g", b.West, b.South, b.East, b.North)
}

func TestReaderOpenMetadata(t *testing.T) {
	dir := t.TempDir()
	path := writeTestArchive(t, dir, "europe.mbtiles", Bounds{South: 35, West: -10, North: 60, East: 30}, []int{8, 10, 12})

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	meta := r.Metadata()
	require.Equal(t, "europe.mbtiles", meta.Name)
	require.Equal(t, []int{8, 10, 12}, meta.ZoomLevels)
	require.True(t, r.Contains(45, 10))
	require.False(t, r.Contains(0, 0))
}

func TestArchiveSelectionDeterminism(t *testing.T) {
	dir := t.TempDir()
	writeTestArchive(t, dir, "europe.mbtiles", Bounds{South: 35, West: -10, North: 60, East: 30}, []int{8, 10, 12})
	writeTestArchive(t, dir, "na.mbtiles", Bounds{South: 25, West: -130, North: 50, East: -65}, []int{8, 10, 12})

	m, err := NewManager(3)
	require.NoError(t, err)
	require.NoError(t, m.Discover(dir))

	r1, err := m.ReaderFor(45.0, 10.0, 10, 4, 4)
	require.NoError(t, err)
	require.Equal(t, "europe.mbtiles", r1.Metadata().Name)

	// A fresh manager over the same working set must pick the same
	// archive for the same coordinate: reader_for is a pure function of
	// (lat, lon) over a fixed working set.
	m2, err := NewManager(3)
	require.NoError(t, err)
	require.NoError(t, m2.Discover(dir))
	r2, err := m2.ReaderFor(45.0, 10.0, 10, 4, 4)
	require.NoError(t, err)
	require.Equal(t, r1.Metadata().Name, r2.Metadata().Name)
}

func TestReaderForClosestFallback(t *testing.T) {
	dir := t.TempDir()
	writeTestArchive(t, dir, "europe.mbtiles", Bounds{South: 35, West: -10, North: 60, East: 30}, []int{10})

	m, err := NewManager(3)
	require.NoError(t, err)
	require.NoError(t, m.Discover(dir))

	// Far outside any archive's bounds: must fall back to the closest one
	// rather than failing.
	r, err := m.ReaderFor(0.0, 0.0, 10, 4, 4)
	require.NoError(t, err)
	require.Equal(t, "europe.mbtiles", r.Metadata().Name)
}
