// Package tiles implements the tile engine: MBTilesReader opens a single
// regional archive, MBTilesManager holds a cache of readers over a
// directory of archives and picks the best one for a coordinate, and
// TileComposer assembles a centered raster composite from a reader.
package tiles

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Bounds is a geographic bounding box in degrees (south, west, north, east).
type Bounds struct {
	South, West, North, East float64
}

// Contains reports whether (lat, lon) falls inside the box.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// Center returns the midpoint of the box.
func (b Bounds) Center() (lat, lon float64) {
	return (b.South + b.North) / 2, (b.West + b.East) / 2
}

// Metadata is the archive's static description, read once at open time.
type Metadata struct {
	Name        string
	Description string
	Bounds      Bounds
	MinZoom     int
	MaxZoom     int
	ZoomLevels  []int
}

// Coverage reports how much of a tile grid an archive can fill at a zoom.
type Coverage struct {
	Available int
	Total     int
	Ratio     float64
}

// Reader opens one MBTiles archive read-only and serves metadata and tile
// lookups against it. It never writes to the archive.
type Reader struct {
	db   *sql.DB
	path string
	meta Metadata
}

// OpenReader opens the archive at path and reads its metadata and zoom
// set. The archive is opened read-only and immutable: this process is
// never the writer of a tile archive.
func OpenReader(path string) (*Reader, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mbtiles %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mbtiles %s: %w", path, err)
	}

	r := &Reader{db: db, path: path}
	if err := r.loadMetadata(); err != nil {
		db.Close()
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	if err := r.loadZoomLevels(); err != nil {
		db.Close()
		return nil, fmt.Errorf("read zoom levels %s: %w", path, err)
	}

	return r, nil
}

// Path returns the filesystem path this reader was opened from, used as
// the MBTilesManager's cache key.
func (r *Reader) Path() string { return r.path }

func (r *Reader) loadMetadata() error {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return err
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return err
		}
		kv[name] = value
	}
	if err := rows.Err(); err != nil {
		return err
	}

	r.meta.Name = kv["name"]
	r.meta.Description = kv["description"]
	r.meta.MinZoom, _ = strconv.Atoi(kv["minzoom"])
	r.meta.MaxZoom, _ = strconv.Atoi(kv["maxzoom"])
	r.meta.Bounds = parseBounds(kv["bounds"])

	return nil
}

// parseBounds parses the MBTiles "w,s,e,n" bounds string. Malformed or
// absent bounds yield the zero Bounds, which Contains() reports false for
// every point except (0, 0) — treated like an archive covering nothing
// until a fallback selection picks it up by distance.
func parseBounds(raw string) Bounds {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return Bounds{}
	}
	w, errW := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	s, errS := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	e, errE := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	n, errN := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if errW != nil || errS != nil || errE != nil || errN != nil {
		return Bounds{}
	}
	return Bounds{South: s, West: w, North: n, East: e}
}

func (r *Reader) loadZoomLevels() error {
	rows, err := r.db.Query("SELECT DISTINCT zoom_level FROM tiles ORDER BY zoom_level")
	if err != nil {
		return err
	}
	defer rows.Close()

	var levels []int
	for rows.Next() {
		var z int
		if err := rows.Scan(&z); err != nil {
			return err
		}
		levels = append(levels, z)
	}
	r.meta.ZoomLevels = levels
	return rows.Err()
}

// Metadata returns the archive's static description.
func (r *Reader) Metadata() Metadata { return r.meta }

// Contains reports whether (lat, lon) is inside the archive's bounds.
func (r *Reader) Contains(lat, lon float64) bool {
	return r.meta.Bounds.Contains(lat, lon)
}

// DistanceToCenter returns the angular distance in degrees (a simple
// planar approximation, monotone and sufficient for ranking fallback
// archives) between (lat, lon) and the archive's bounds center.
func (r *Reader) DistanceToCenter(lat, lon float64) float64 {
	clat, clon := r.meta.Bounds.Center()
	dlat := lat - clat
	dlon := lon - clon
	return math.Sqrt(dlat*dlat + dlon*dlon)
}

// flipY converts between XYZ and TMS row addressing. The archive's sole
// storage quirk is that tile rows are stored TMS-up; this is its own
// inverse, tms_y = 2^z - 1 - y.
func flipY(z, y int) int {
	return (1 << uint(z)) - 1 - y
}

// GetTile returns the raw tile payload for (z, x, y) in XYZ addressing,
// applying the TMS row flip internally. A tile absent from storage is not
// an error: it returns (nil, false).
func (r *Reader) GetTile(z, x, y int) ([]byte, bool) {
	tmsY := flipY(z, y)

	var data []byte
	err := r.db.QueryRow(
		"SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?",
		z, x, tmsY,
	).Scan(&data)
	if err != nil {
		return nil, false
	}
	return data, true
}

// TileCoverage reports how many tiles in a w_tiles x h_tiles grid centered
// on (center_x, center_y) (tile coordinates, not necessarily integral)
// actually exist in the archive at zoom z.
func (r *Reader) TileCoverage(z int, centerX, centerY float64, wTiles, hTiles int) Coverage {
	originX := int(math.Floor(centerX)) - wTiles/2
	originY := int(math.Floor(centerY)) - hTiles/2

	total := wTiles * hTiles
	available := 0
	maxTile := 1 << uint(z)

	for dy := 0; dy < hTiles; dy++ {
		for dx := 0; dx < wTiles; dx++ {
			x := originX + dx
			y := originY + dy
			if x < 0 || y < 0 || x >= maxTile || y >= maxTile {
				continue
			}
			if r.tileExists(z, x, y) {
				available++
			}
		}
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(available) / float64(total)
	}
	return Coverage{Available: available, Total: total, Ratio: ratio}
}

func (r *Reader) tileExists(z, x, y int) bool {
	tmsY := flipY(z, y)
	var one int
	err := r.db.QueryRow(
		"SELECT 1 FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ? LIMIT 1",
		z, x, tmsY,
	).Scan(&one)
	return err == nil
}

// Close releases the underlying database handle.
func (r *Reader) Close() error {
	return r.db.Close()
}

const (
	minAcceptableAvailability = 0.10
)

// BestAvailableZoom implements the zoom selection algorithm from §4.1:
// prefer the requested zoom when it's present and covers enough of the
// frame, otherwise score every available zoom and walk down in score
// order until one clears the availability floor.
func (r *Reader) BestAvailableZoom(requestedZoom int, lat, lon float64, wTiles, hTiles int) (int, bool) {
	if len(r.meta.ZoomLevels) == 0 {
		return requestedZoom, false
	}

	if containsInt(r.meta.ZoomLevels, requestedZoom) {
		cx, cy := tileCoordinates(lat, lon, requestedZoom)
		cov := r.TileCoverage(requestedZoom, cx, cy, wTiles, hTiles)
		if cov.Ratio >= minAcceptableAvailability {
			return requestedZoom, false
		}
	}

	type scored struct {
		zoom  int
		score float64
		ratio float64
	}

	candidates := make([]scored, 0, len(r.meta.ZoomLevels))
	for _, z := range r.meta.ZoomLevels {
		cx, cy := tileCoordinates(lat, lon, z)
		cov := r.TileCoverage(z, cx, cy, wTiles, hTiles)

		score := 0.0
		switch {
		case z >= 12:
			score += 100
		case z >= 10:
			score += 50
		default:
			score += 10
		}
		score += 200 * cov.Ratio
		score -= 10 * math.Abs(float64(z-requestedZoom))
		if z == requestedZoom {
			score += 50
		}

		candidates = append(candidates, scored{zoom: z, score: score, ratio: cov.Ratio})
	}

	// Stable sort by descending score, keeping the archive's own
	// ascending zoom order as the tie-break so the result is
	// deterministic.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	if len(candidates) == 0 {
		return requestedZoom, false
	}

	for _, c := range candidates {
		if c.ratio >= minAcceptableAvailability {
			return c.zoom, c.zoom != requestedZoom
		}
	}

	best := candidates[0]
	return best.zoom, best.zoom != requestedZoom
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// tileCoordinates is the standard slippy-map projection from §4.3:
// x = (lon+180)/360 * 2^z, y = (1 - asinh(tan(lat))/pi)/2 * 2^z.
// Latitude is clamped to the Web Mercator usable range before projecting.
func tileCoordinates(lat, lon float64, z int) (x, y float64) {
	lat = clampLatitude(lat)
	lon = wrapLongitude(lon)

	n := math.Pow(2, float64(z))
	x = (lon + 180.0) / 360.0 * n
	latRad := lat * math.Pi / 180.0
	y = (1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * n
	return x, y
}

// ProjectLatLon exposes the slippy-map tile-coordinate projection for
// callers outside this package, namely the Supervisor placing a trip's
// waypoints in screen space and elcano-tilecheck's coverage report.
func ProjectLatLon(lat, lon float64, z int) (x, y float64) {
	return tileCoordinates(lat, lon, z)
}

const maxWebMercatorLatitude = 85.0511287798

func clampLatitude(lat float64) float64 {
	if lat > maxWebMercatorLatitude {
		return maxWebMercatorLatitude
	}
	if lat < -maxWebMercatorLatitude {
		return -maxWebMercatorLatitude
	}
	return lat
}

func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < -180 {
		lon += 360
	}
	if lon > 180 {
		lon -= 360
	}
	return lon
}
