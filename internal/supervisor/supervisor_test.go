package supervisor

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleche/elcano-nav-go/internal/config"
	"github.com/oleche/elcano-nav-go/internal/menu"
	"github.com/oleche/elcano-nav-go/internal/render"
	"github.com/oleche/elcano-nav-go/internal/sensors/compass"
	"github.com/oleche/elcano-nav-go/internal/sensors/gnss"
	"github.com/oleche/elcano-nav-go/internal/store"
	"github.com/oleche/elcano-nav-go/internal/sync"
	"github.com/oleche/elcano-nav-go/internal/telemetry"
	"github.com/oleche/elcano-nav-go/internal/tiles"
)

func writeTestArchive(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE metadata (name TEXT, value TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO metadata (name, value) VALUES ('name', ?), ('bounds', '4,52,5,53'), ('minzoom', '10'), ('maxzoom', '14')`, name)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (12, 0, 0, ?)`, []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)

	return path
}

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()

	dir := t.TempDir()
	writeTestArchive(t, dir, "a.mbtiles")
	writeTestArchive(t, dir, "b.mbtiles")

	st, err := store.NewStore(filepath.Join(dir, "nav.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tileManager, err := tiles.NewManager(3)
	require.NoError(t, err)
	require.NoError(t, tileManager.Discover(dir))

	cfg := config.Default()
	cfg.PanelWidth, cfg.PanelHeight = 200, 150

	gnssR := gnss.NewReader("/dev/null", 9600)
	compassR := compass.NewReader("/dev/null", filepath.Join(dir, "compass.json"))

	return &Supervisor{
		cfg:           cfg,
		store:         st,
		tileManager:   tileManager,
		syncEngine:    sync.NewEngine("", st),
		menuCtl:       menu.NewController(st),
		telemetryCore: telemetry.NewCore(gnssR, compassR, cfg.LogbookIntervalDuration()),
		zoom:          cfg.DefaultZoom,
		mode:          modeMap,
	}
}

func TestHandleButtonDebouncesRapidPresses(t *testing.T) {
	s := newTestSupervisor(t)
	s.zoom = 10

	s.HandleButton(ButtonUp)
	assert.Equal(t, 11, s.zoom)

	s.HandleButton(ButtonUp) // arrives within the debounce window
	assert.Equal(t, 11, s.zoom, "second press inside the debounce window should be ignored")
}

func TestHandleButtonZoomClampsToConfiguredRange(t *testing.T) {
	s := newTestSupervisor(t)
	s.zoom = s.cfg.MaxZoom

	s.lastPress = time.Time{}
	s.HandleButton(ButtonUp)
	assert.Equal(t, s.cfg.MaxZoom, s.zoom)

	s.zoom = s.cfg.MinZoom
	s.lastPress = time.Time{}
	s.HandleButton(ButtonDown)
	assert.Equal(t, s.cfg.MinZoom, s.zoom)
}

func TestBackInMapModeCyclesRegionOverride(t *testing.T) {
	s := newTestSupervisor(t)

	s.lastPress = time.Time{}
	s.HandleButton(ButtonBack)
	assert.True(t, s.regionOverride)
	assert.Equal(t, 1, s.regionIdx)

	s.lastPress = time.Time{}
	s.HandleButton(ButtonBack)
	assert.Equal(t, 2, s.regionIdx)
}

func TestResolveReaderHonorsOverrideUntilOutOfBounds(t *testing.T) {
	s := newTestSupervisor(t)
	s.regionOverride = true
	s.regionIdx = 0

	r, err := s.resolveReader(52.5, 4.5)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, s.regionOverride, "override stays active while the chosen archive still contains the point")

	_, err = s.resolveReader(10, 10)
	require.NoError(t, err) // falls through to distance-based fallback selection
	assert.False(t, s.regionOverride, "override clears once the archive no longer contains the device position")
}

func TestSelectInMapModeEntersMenu(t *testing.T) {
	s := newTestSupervisor(t)

	s.lastPress = time.Time{}
	s.HandleButton(ButtonSelect)
	assert.Equal(t, modeMenu, s.mode)
	assert.Equal(t, "Menu", s.menuCtl.Title())
}

func TestApplyMenuActionStartAndStopTrip(t *testing.T) {
	s := newTestSupervisor(t)
	require.NoError(t, s.store.UpsertFromRemote(store.Trip{ID: "trip-1", Title: "Coastal Loop"}))

	s.applyMenuAction(menu.Action{Kind: menu.ActionStartTrip, TripID: "trip-1"})
	assert.Equal(t, "trip-1", s.activeTripID)
	assert.Equal(t, modeMap, s.mode)

	active, ok, err := s.store.GetActive()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "trip-1", active.ID)

	s.applyMenuAction(menu.Action{Kind: menu.ActionStopTrip, TripID: "trip-1"})
	assert.Equal(t, "", s.activeTripID)
}

func TestSyncStatusLineReflectsSetupRequirement(t *testing.T) {
	s := newTestSupervisor(t)
	assert.Equal(t, render.SyncLine("Sync: setup required"), s.syncStatusLine())

	s.syncEngine.SetSyncKey("a-real-device-sync-key-1234")
	assert.NotEqual(t, render.SyncLine("Sync: setup required"), s.syncStatusLine())
}

func TestSqlNullStringEmptyIsInvalid(t *testing.T) {
	assert.False(t, sqlNullString("").Valid)
	assert.True(t, sqlNullString("x").Valid)
}
