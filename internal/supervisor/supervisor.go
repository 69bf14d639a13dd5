// Package supervisor owns the navigator's process lifecycle: startup
// sequencing, the ~2Hz main loop, button dispatch, and shutdown.
package supervisor

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	"time"

	"github.com/oleche/elcano-nav-go/internal/config"
	"github.com/oleche/elcano-nav-go/internal/core"
	"github.com/oleche/elcano-nav-go/internal/display"
	"github.com/oleche/elcano-nav-go/internal/logging"
	"github.com/oleche/elcano-nav-go/internal/menu"
	"github.com/oleche/elcano-nav-go/internal/netstatus"
	"github.com/oleche/elcano-nav-go/internal/render"
	"github.com/oleche/elcano-nav-go/internal/sensors/compass"
	"github.com/oleche/elcano-nav-go/internal/sensors/gnss"
	"github.com/oleche/elcano-nav-go/internal/store"
	"github.com/oleche/elcano-nav-go/internal/sync"
	"github.com/oleche/elcano-nav-go/internal/telemetry"
	"github.com/oleche/elcano-nav-go/internal/tiles"
)

// tickInterval is the main loop's cadence, per §4.12 ("≈2Hz, sleep 0.5s").
const tickInterval = 500 * time.Millisecond

// debounceWindow is the minimum spacing between accepted button presses.
const debounceWindow = 100 * time.Millisecond

// Button identifies one of the four physical buttons. Reading the GPIO
// line itself is the out-of-scope collaborator's job (§1); the
// Supervisor only reacts to logical presses handed to it.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonSelect
	ButtonBack
)

// screenMode tracks which screen is currently authoritative.
type screenMode int

const (
	modeSplash screenMode = iota
	modeSyncSetup
	modeWaiting
	modeMap
	modeMenu
)

// Supervisor wires every other component together and drives the
// process from startup through shutdown.
type Supervisor struct {
	cfg *config.Config
	log *logging.Logger

	store    *store.Store
	manager  *core.Manager
	gnssR    *gnss.Reader
	compassR *compass.Reader
	telemetryCore *telemetry.Core
	tileManager   *tiles.Manager
	composer      *tiles.Composer
	syncEngine    *sync.Engine
	settingsWatch *config.SettingsWatcher
	netProber     *netstatus.Prober
	renderer      *render.Renderer
	menuCtl       *menu.Controller
	panel         display.Device

	mode          screenMode
	zoom          int
	regionOverride bool
	regionIdx     int
	lastFix       gnss.Fix
	lastRender    time.Time
	lastPing      time.Time
	lastWifi      netstatus.Sample
	forceRefresh  bool
	splashStart   time.Time

	lastPress    time.Time

	activeTripID string
}

// New constructs a Supervisor and all the subsystems it owns, per the
// startup sequence in §4.12 steps 1-3 (config, store, sync key). Steps
// 4-6 (display/GnssReader/CompassReader) happen in Run so their failures
// can produce the documented exit behavior.
func New(cfg *config.Config) (*Supervisor, error) {
	log := logging.NewLogger("supervisor")

	st, err := store.NewStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("supervisor: open store: %w", err)
	}

	watcher, err := config.NewSettingsWatcher(cfg.SettingsPath)
	if err != nil {
		log.Warning("settings watcher unavailable: %v", err)
	}

	syncEngine := sync.NewEngine(cfg.BaseURL, st)
	if watcher != nil {
		syncEngine.SetSyncKey(watcher.Current())
	} else if key, err := config.ReadSyncKey(cfg.SettingsPath); err == nil {
		syncEngine.SetSyncKey(key)
	}

	tileManager, err := tiles.NewManager(cfg.MBTilesSettings.MaxOpenFiles)
	if err != nil {
		return nil, fmt.Errorf("supervisor: create tile manager: %w", err)
	}
	if err := tileManager.Discover(cfg.AssetsFolder); err != nil {
		log.Warning("tile discovery: %v", err)
	}

	gnssR := gnss.NewReader("/dev/ttyAMA0", 9600)
	compassR := compass.NewReader("/dev/i2c-1", "/opt/elcano/compass-calibration.json")
	telemetryCore := telemetry.NewCore(gnssR, compassR, cfg.LogbookIntervalDuration())

	manager := core.NewManager()
	_ = manager.Register(gnssR)
	_ = manager.Register(compassR)

	sup := &Supervisor{
		cfg:           cfg,
		log:           log,
		store:         st,
		manager:       manager,
		gnssR:         gnssR,
		compassR:      compassR,
		telemetryCore: telemetryCore,
		tileManager:   tileManager,
		composer:      tiles.NewComposer(),
		syncEngine:    syncEngine,
		settingsWatch: watcher,
		netProber:     netstatus.NewProber(""),
		renderer:      render.NewRenderer(cfg.PanelWidth, cfg.PanelHeight),
		menuCtl:       menu.NewController(st),
		zoom:          cfg.DefaultZoom,
		mode:          modeSplash,
		splashStart:   time.Now(),
	}

	if active, ok, err := st.GetActive(); err == nil && ok {
		sup.activeTripID = active.ID
		telemetryCore.SetTripActive(true)
	}

	if !syncEngine.HasValidSyncKey() {
		sup.mode = modeSyncSetup
	}

	return sup, nil
}

// Run executes the startup sequence's remaining steps (display, sensors)
// then the main loop until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context, panel display.Device) error {
	s.panel = panel

	if err := s.panel.Init(); err != nil {
		return fmt.Errorf("supervisor: display init: %w", err)
	}

	// GnssReader's Enable returns an error on failure (fatal, per §7);
	// CompassReader's Enable never does — it swallows hardware failure
	// internally and leaves itself unavailable. EnableAll's "stop at the
	// first error" behavior therefore gives exactly the fatal/non-fatal
	// split §4.12 steps 5-6 call for, in registration order.
	if err := s.manager.EnableAll(ctx); err != nil {
		return fmt.Errorf("supervisor: sensor startup: %w", err)
	}
	defer s.manager.DisableAll(context.Background())

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	minSplash := 2 * time.Second
	if s.mode == modeSplash {
		if err := s.renderAndPush(); err != nil {
			s.log.Error("splash push failed: %v", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.mode == modeSplash && time.Since(s.splashStart) < minSplash {
				continue
			}
			if s.mode == modeSplash {
				s.mode = modeWaiting
				if s.lastFix.Valid() {
					s.mode = modeMap
				}
			}
			s.tick(ctx)
		}
	}
}

// tick runs one iteration of the ~2Hz main loop per §4.12.
func (s *Supervisor) tick(ctx context.Context) {
	prevWifiState := s.lastWifi.State
	s.lastWifi = s.netProber.Sample()
	if s.lastWifi.State != prevWifiState {
		_ = config.WriteStatus(s.cfg.StatusPath, s.lastWifi.State)
	}

	fix := s.gnssR.LatestFix()
	if fix.Valid() && fix.Timestamp.After(s.lastFix.Timestamp) {
		s.lastFix = fix
		if s.mode == modeWaiting {
			s.mode = modeMap
		}
		if trigger, ok := s.telemetryCore.OnNewFix(fix); ok {
			s.recordLogbookEntry(ctx, trigger)
		}
	}

	if s.settingsWatch != nil {
		s.syncEngine.SetSyncKey(s.settingsWatch.Current())
	}

	if time.Since(s.lastRender) >= s.cfg.DisplayUpdateDuration() || s.forceRefresh {
		s.forceRefresh = false
		s.lastRender = time.Now()
		if err := s.renderAndPush(); err != nil {
			s.log.Error("render/push failed: %v", err)
		}
	}

	if s.lastWifi.State == netstatus.Connected && s.syncEngine.HasValidSyncKey() {
		if s.syncEngine.ShouldPing() {
			go s.pingOnce(fix)
		}
		if time.Since(s.lastPing) >= s.cfg.SyncIntervalDuration() {
			s.lastPing = time.Now()
			go s.syncOnce(ctx)
		}
	}
}

func (s *Supervisor) pingOnce(fix gnss.Fix) {
	syncFix := &sync.Fix{Latitude: fix.Latitude, Longitude: fix.Longitude, HeadingDeg: fix.HeadingDeg, CourseDeg: fix.HeadingDeg, Valid: fix.Valid()}
	if ok, msg := s.syncEngine.Ping(context.Background(), syncFix); !ok {
		s.log.Warning("ping failed: %s", msg)
	}
}

func (s *Supervisor) syncOnce(ctx context.Context) {
	if ok, msg := s.syncEngine.PullDevice(ctx); !ok {
		s.log.Warning("pull failed: %s", msg)
	}
	if ok, msg := s.syncEngine.DrainPending(ctx); !ok {
		s.log.Warning("drain failed: %s", msg)
	}
}

func (s *Supervisor) recordLogbookEntry(ctx context.Context, trigger telemetry.LogbookTrigger) {
	if s.activeTripID == "" {
		return
	}
	entry := store.LogbookEntry{
		TripID:     sqlNullString(s.activeTripID),
		Timestamp:  trigger.Fix.Timestamp.UTC().Format(time.RFC3339),
		Lat:        trigger.Fix.Latitude,
		Lon:        trigger.Fix.Longitude,
		Altitude:   trigger.Fix.Altitude,
		SpeedKmh:   trigger.Fix.SpeedKmh,
		HeadingDeg: trigger.Fix.HeadingDeg,
		Satellites: trigger.Fix.Satellites,
		Content:    string(trigger.Reason),
		SyncStatus: "pending",
	}
	id, err := s.store.InsertLogbookEntry(entry)
	if err != nil {
		s.log.Error("logbook insert: %v", err)
		return
	}
	entry.ID = id

	if s.lastWifi.State == netstatus.Connected {
		go func() {
			if ok, msg := s.syncEngine.PushLogbook(ctx, []store.LogbookEntry{entry}); !ok {
				s.log.Warning("logbook upload: %s", msg)
			}
		}()
	}
}

// renderAndPush builds the screen appropriate to the current mode and
// pushes it to the Display.
func (s *Supervisor) renderAndPush() error {
	status := render.StatusContext{
		Satellites: s.lastFix.Satellites,
		HasFix:     s.lastFix.Valid(),
		WifiSSID:   s.lastWifi.SSID,
		WifiUp:     s.lastWifi.State == netstatus.Connected,
		Now:        time.Now(),
	}

	var frame *image.Gray
	switch s.mode {
	case modeSplash:
		frame = s.renderer.RenderSplash("Elcano Navigator", "Starting up...")
	case modeSyncSetup:
		frame = s.renderer.RenderSyncSetup("Connect to the setup access point to configure sync")
	case modeWaiting:
		frame = s.renderer.RenderWaiting(status)
	case modeMenu:
		frame = s.renderer.RenderMenu(render.MenuContext{
			Title:       s.menuCtl.Title(),
			Items:       s.menuCtl.Items(),
			SelectedIdx: s.menuCtl.Selected(),
			Footer:      "Up/Down select, Select choose, Back back",
		})
	case modeMap:
		f, err := s.renderMapScreen(status)
		if err != nil {
			return err
		}
		frame = f
	}

	return s.panel.PushFrame(frame)
}

func (s *Supervisor) renderMapScreen(status render.StatusContext) (*image.Gray, error) {
	lat, lon := s.lastFix.Latitude, s.lastFix.Longitude
	if !s.lastFix.Valid() {
		lat, lon = s.cfg.FallbackCoordinates.Latitude, s.cfg.FallbackCoordinates.Longitude
	}

	reader, err := s.resolveReader(lat, lon)
	if err != nil || reader == nil {
		return s.renderer.RenderNoMap(status), nil
	}

	imgBytes, meta, err := s.composer.Compose(reader, lat, lon, s.zoom, s.cfg.PanelWidth, s.cfg.PanelHeight, true)
	if err != nil || meta.AvailabilityRatio == 0 {
		return s.renderer.RenderNoMap(status), nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return s.renderer.RenderNoMap(status), nil
	}

	heading, hasHeading := s.telemetryCore.CurrentHeading()

	mapCtx := render.MapContext{
		Composite:       decoded,
		ArchiveName:     meta.ArchiveName,
		CenterLat:       lat,
		CenterLon:       lon,
		RequestedZoom:   meta.RequestedZoom,
		ActualZoom:      meta.ActualZoom,
		ZoomAdjusted:    meta.ZoomAdjusted,
		AvailabilityPct: meta.AvailabilityRatio,
		Route:           s.projectRoute(lat, lon, meta.ActualZoom),
		HeadingDeg:      heading,
		HasHeading:      hasHeading,
	}

	return s.renderer.RenderMap(status, mapCtx, s.syncStatusLine())
}

// resolveReader honors an active manual region override (cycled by Back in
// Map mode); otherwise it defers to the manager's location-based
// selection. The override is cleared the moment the chosen archive no
// longer contains the device's position, matching §10's decision that
// the override resets implicitly once the device moves out of it.
func (s *Supervisor) resolveReader(lat, lon float64) (*tiles.Reader, error) {
	if s.regionOverride {
		r, err := s.tileManager.OpenArchiveByIndex(s.regionIdx)
		if err == nil && r != nil && r.Contains(lat, lon) {
			return r, nil
		}
		s.regionOverride = false
	}

	tilesAcrossFrame := (s.cfg.PanelWidth / 256) + 2
	return s.tileManager.ReaderFor(lat, lon, s.zoom, tilesAcrossFrame, tilesAcrossFrame)
}

// projectRoute converts the active trip's waypoints into screen-space
// points centered on (lat, lon) at the given zoom, per §4.9's "only
// segments with at least one on-screen endpoint are drawn" rule -
// Renderer enforces that rule; this just does the projection.
func (s *Supervisor) projectRoute(lat, lon float64, zoom int) []render.RoutePoint {
	if s.activeTripID == "" {
		return nil
	}
	waypoints, err := s.store.WaypointsByTrip(s.activeTripID)
	if err != nil {
		return nil
	}

	centerX, centerY := tiles.ProjectLatLon(lat, lon, zoom)
	pxPerTile := 256.0

	points := make([]render.RoutePoint, 0, len(waypoints))
	for _, w := range waypoints {
		x, y := tiles.ProjectLatLon(w.Lat, w.Lon, zoom)
		screenX := float64(s.cfg.PanelWidth)/2 + (x-centerX)*pxPerTile
		screenY := float64(s.cfg.PanelHeight)/2 + (y-centerY)*pxPerTile
		onScreen := screenX >= 0 && screenX <= float64(s.cfg.PanelWidth) && screenY >= 0 && screenY <= float64(s.cfg.PanelHeight)
		points = append(points, render.RoutePoint{ScreenX: screenX, ScreenY: screenY, OnScreen: onScreen})
	}
	return points
}

func (s *Supervisor) syncStatusLine() render.SyncLine {
	if !s.syncEngine.HasValidSyncKey() {
		return "Sync: setup required"
	}
	pending, err := s.store.PendingSync()
	if err == nil && len(pending) > 0 {
		return render.SyncLine(fmt.Sprintf("Sync: %d pending", len(pending)))
	}
	return "Sync: up to date"
}

// HandleButton dispatches a logical button press according to the
// current screen's semantics (§4.12), subject to the debounce window.
func (s *Supervisor) HandleButton(b Button) {
	now := time.Now()
	if now.Sub(s.lastPress) < debounceWindow {
		return
	}
	s.lastPress = now

	switch s.mode {
	case modeSyncSetup:
		if key, err := config.ReadSyncKey(s.cfg.SettingsPath); err == nil {
			s.syncEngine.SetSyncKey(key)
			if sync.IsValidSyncKey(key) {
				s.mode = modeWaiting
			}
		}
	case modeMap:
		s.handleMapButton(b)
	case modeMenu:
		s.handleMenuButton(b)
	}
	s.forceRefresh = true
}

// handleMapButton implements §4.12's Map semantics. The hardware exposes
// four buttons, not the five named in that section (Up/Down/Left/Right/
// Center); Back stands in for the missing Left/Right pair and cycles the
// manual region override forward one archive at a time, which covers the
// same "step through the working set" need with one less button.
func (s *Supervisor) handleMapButton(b Button) {
	switch b {
	case ButtonUp:
		if s.zoom < s.cfg.MaxZoom {
			s.zoom++
		}
	case ButtonDown:
		if s.zoom > s.cfg.MinZoom {
			s.zoom--
		}
	case ButtonBack:
		if s.tileManager.ArchiveCount() > 0 {
			s.regionOverride = true
			s.regionIdx++
		}
	case ButtonSelect:
		s.menuCtl.Reset()
		s.mode = modeMenu
	}
}

func (s *Supervisor) handleMenuButton(b Button) {
	switch b {
	case ButtonUp:
		s.menuCtl.Up()
	case ButtonDown:
		s.menuCtl.Down()
	case ButtonSelect:
		action := s.menuCtl.Select()
		s.applyMenuAction(action)
	case ButtonBack:
		action := s.menuCtl.Back()
		s.applyMenuAction(action)
	}
}

func (s *Supervisor) applyMenuAction(action menu.Action) {
	switch action.Kind {
	case menu.ActionExitMenu:
		s.mode = modeMap
	case menu.ActionStartTrip:
		if err := s.store.SetActive(action.TripID); err == nil {
			s.activeTripID = action.TripID
			s.telemetryCore.SetTripActive(true)
		}
		s.mode = modeMap
	case menu.ActionStopTrip:
		_ = s.store.SetLocalStatus(action.TripID, "stopped")
		s.activeTripID = ""
		s.telemetryCore.SetTripActive(false)
		s.mode = modeMap
	case menu.ActionForceSync:
		go s.syncOnce(context.Background())
		s.mode = modeMap
	}
}

func sqlNullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

// Close releases every owned resource; safe to call after Run returns.
func (s *Supervisor) Close() error {
	if s.settingsWatch != nil {
		_ = s.settingsWatch.Close()
	}
	return s.store.Close()
}
