package tiles

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/oleche/elcano-nav-go/internal/logging"
)

// archiveInfo is what Manager keeps for every discovered archive, whether
// or not it's currently open.
type archiveInfo struct {
	path string
	meta Metadata
}

// Manager holds a cache of Readers over a directory of MBTiles archives
// and picks the best one for a coordinate. Open readers are kept in an LRU
// of configurable size; discovery metadata for every archive (open or not)
// is kept indefinitely so reader_for can rank candidates without reopening
// them.
type Manager struct {
	mu       sync.Mutex
	archives []archiveInfo
	open     *lru.Cache[string, *Reader]
	current  *Reader
	log      *logging.Logger
}

// NewManager creates a manager whose open-reader cache holds at most
// maxOpen archives (default 3 per §6's mbtiles_settings.max_open_files).
func NewManager(maxOpen int) (*Manager, error) {
	if maxOpen <= 0 {
		maxOpen = 3
	}

	m := &Manager{log: logging.NewLogger("tiles")}

	cache, err := lru.NewWithEvict[string, *Reader](maxOpen, func(_ string, r *Reader) {
		if r == m.current {
			m.current = nil
		}
		if err := r.Close(); err != nil {
			m.log.Warning("close evicted archive %s: %v", r.Path(), err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create archive cache: %w", err)
	}
	m.open = cache

	return m, nil
}

// Discover scans assetsDir for *.mbtiles files, opens each just long
// enough to read its metadata, then releases it. Discovery order is
// lexicographic by filename, which is also the final tie-break order used
// by selectArchive when archives tie on both score and center distance.
func (m *Manager) Discover(assetsDir string) error {
	matches, err := filepath.Glob(filepath.Join(assetsDir, "*.mbtiles"))
	if err != nil {
		return fmt.Errorf("glob %s: %w", assetsDir, err)
	}
	sort.Strings(matches)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.archives = m.archives[:0]
	for _, path := range matches {
		r, err := OpenReader(path)
		if err != nil {
			m.log.Warning("discover: %s failed metadata read, dropping: %v", path, err)
			continue
		}
		meta := r.Metadata()
		_ = r.Close()

		m.archives = append(m.archives, archiveInfo{path: path, meta: meta})
	}

	m.log.Info("discover: %d archive(s) in %s", len(m.archives), assetsDir)
	return nil
}

// ArchiveCount returns the number of archives in the working set.
func (m *Manager) ArchiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.archives)
}

// ReaderFor resolves the archive best covering (lat, lon), per §4.2:
// keep the current reader if it still contains the point; otherwise rank
// every containing archive by coverage (tie-break: proximity to bounds
// center); otherwise fall back to the archive nearest by bounds-center
// distance. Apart from the current-reader shortcut, which depends on the
// previous call, the result is a function of (lat, lon) over a fixed
// working set, so fresh Managers over the same archives agree.
func (m *Manager) ReaderFor(lat, lon float64, defaultZoom, frameWTiles, frameHTiles int) (*Reader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.Contains(lat, lon) {
		return m.current, nil
	}

	if len(m.archives) == 0 {
		return nil, fmt.Errorf("no archives in working set")
	}

	chosen, closest := m.selectArchive(lat, lon, defaultZoom, frameWTiles, frameHTiles)
	if chosen == nil {
		return nil, fmt.Errorf("no archive could be selected")
	}
	if closest {
		m.log.Info("reader_for: no archive covers (%.5f,%.5f), using closest fallback %s", lat, lon, chosen.path)
	}

	r, ok := m.open.Get(chosen.path)
	if !ok {
		opened, err := OpenReader(chosen.path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", chosen.path, err)
		}
		m.open.Add(chosen.path, opened)
		r = opened
	}

	m.current = r
	return r, nil
}

// selectArchive picks the containing archive with the best zoom coverage
// score (tie-break: proximity to bounds center), or the closest archive by
// center distance if none contain the point. Returns (nil, true) if the
// working set is empty.
func (m *Manager) selectArchive(lat, lon float64, defaultZoom, wTiles, hTiles int) (*archiveInfo, bool) {
	var containing []*archiveInfo
	for i := range m.archives {
		if m.archives[i].meta.Bounds.Contains(lat, lon) {
			containing = append(containing, &m.archives[i])
		}
	}

	if len(containing) > 0 {
		cx, cy := tileCoordinates(lat, lon, defaultZoom)
		best := containing[0]
		bestScore := -1.0
		bestDist := 0.0

		for _, info := range containing {
			score, dist := coverageScore(info, lat, lon, defaultZoom, cx, cy, wTiles, hTiles)
			if score > bestScore || (score == bestScore && dist < bestDist) {
				best = info
				bestScore = score
				bestDist = dist
			}
		}
		return best, false
	}

	var nearest *archiveInfo
	nearestDist := math.MaxFloat64
	for i := range m.archives {
		clat, clon := m.archives[i].meta.Bounds.Center()
		dlat := lat - clat
		dlon := lon - clon
		dist := dlat*dlat + dlon*dlon
		if dist < nearestDist {
			nearestDist = dist
			nearest = &m.archives[i]
		}
	}
	return nearest, true
}

func coverageScore(info *archiveInfo, lat, lon float64, defaultZoom int, cx, cy float64, wTiles, hTiles int) (score, centerDist float64) {
	clat, clon := info.meta.Bounds.Center()
	dlat := lat - clat
	dlon := lon - clon
	centerDist = dlat*dlat + dlon*dlon

	// Coverage is approximated at the configured default zoom using the
	// archive's own declared zoom set; an archive whose max zoom is
	// below defaultZoom still "covers" the point, just at a coarser
	// zoom, so score it by how close its best zoom is to the request.
	z := defaultZoom
	if z > info.meta.MaxZoom {
		z = info.meta.MaxZoom
	}
	if z < info.meta.MinZoom {
		z = info.meta.MinZoom
	}
	score = 100 - float64(abs(defaultZoom-z))
	return score, centerDist
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ArchiveNames returns the working set's archive names in discovery
// (lexicographic) order, for the Supervisor's manual region override.
func (m *Manager) ArchiveNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.archives))
	for i, a := range m.archives {
		names[i] = a.meta.Name
	}
	return names
}

// OpenArchiveByIndex opens (or returns already-open) the archive at the
// given discovery-order index, bypassing the location-based selection in
// ReaderFor, and makes that archive the current reader. This backs the
// manual region override that Back cycles in Map mode; the Supervisor
// drops the override once the chosen archive no longer contains the
// device's position, and ReaderFor then selects by location again.
func (m *Manager) OpenArchiveByIndex(idx int) (*Reader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.archives) == 0 {
		return nil, fmt.Errorf("no archives in working set")
	}
	idx = ((idx % len(m.archives)) + len(m.archives)) % len(m.archives)
	chosen := m.archives[idx]

	r, ok := m.open.Get(chosen.path)
	if !ok {
		opened, err := OpenReader(chosen.path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", chosen.path, err)
		}
		m.open.Add(chosen.path, opened)
		r = opened
	}

	m.current = r
	return r, nil
}

// current_info equivalent.

// CurrentInfo returns the active archive's metadata, if one is open.
func (m *Manager) CurrentInfo() (Metadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Metadata{}, false
	}
	return m.current.Metadata(), true
}
