// Package sync implements the backend sync protocol: device liveness
// pings, full-device pulls, trip status pushes, and bulk logbook uploads,
// all gated on a valid sync key and all safe to retry on the next tick.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/oleche/elcano-nav-go/internal/logging"
	"github.com/oleche/elcano-nav-go/internal/store"
)

const (
	httpTimeout  = 30 * time.Second
	pingCooldown = 60 * time.Second
)

var blacklistedSyncKeys = map[string]bool{
	"ABC1234567": true,
	"PLACEHOLDER": true,
	"DEFAULT":     true,
	"TEST123456":  true,
}

// IsValidSyncKey reports whether key is syntactically usable: non-empty,
// at least 10 characters, and not one of the known placeholder values
// shipped in example configs.
func IsValidSyncKey(key string) bool {
	if len(key) < 10 {
		return false
	}
	return !blacklistedSyncKeys[key]
}

// Fix is the minimal position/heading shape the ping needs; it mirrors gnss.Fix's fields without importing the sensor
// package, keeping SyncEngine's dependency surface to the Store and the
// wire format.
type Fix struct {
	Latitude, Longitude float64
	HeadingDeg          float64
	CourseDeg           float64
	Valid               bool
}

// Engine talks to the fleet-management backend on behalf of the
// navigator. All operations are no-ops when the sync key is missing or
// fails IsValidSyncKey.
type Engine struct {
	baseURL string
	client  *http.Client
	store   *store.Store
	log     *logging.Logger

	mu       sync.Mutex
	syncKey  string
	lastPing time.Time
}

// NewEngine creates a sync engine bound to baseURL and st, with an
// initially empty sync key (set via SetSyncKey once the settings file is
// read).
func NewEngine(baseURL string, st *store.Store) *Engine {
	return &Engine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
		store:   st,
		log:     logging.NewLogger("sync"),
	}
}

// SetSyncKey updates the key used for subsequent calls.
func (e *Engine) SetSyncKey(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syncKey = key
}

func (e *Engine) currentSyncKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncKey
}

// HasValidSyncKey reports whether the currently configured sync key
// would pass IsValidSyncKey, used by the Supervisor to decide whether to
// show the SyncSetup screen or attempt a ping/sync.
func (e *Engine) HasValidSyncKey() bool {
	return IsValidSyncKey(e.currentSyncKey())
}

// ShouldPing reports whether enough time has passed since the last
// successful ping (or none has ever succeeded).
func (e *Engine) ShouldPing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPing.IsZero() || time.Since(e.lastPing) >= pingCooldown
}

type pingRequest struct {
	LastLatitude  *float64 `json:"lastLatitude,omitempty"`
	LastLongitude *float64 `json:"lastLongitude,omitempty"`
	LastHeading   *float64 `json:"lastHeading,omitempty"`
	LastCourse    *float64 `json:"lastCourse,omitempty"`
}

type pingResponse struct {
	LastLatitude  float64 `json:"lastLatitude"`
	LastLongitude float64 `json:"lastLongitude"`
	LastHeading   float64 `json:"lastHeading"`
	LastCourse    float64 `json:"lastCourse"`
	LastUpdate    string  `json:"lastUpdate"`
}

// Ping asserts liveness and, when fix is non-nil and valid, reports
// position. On success it records last_ping and stores the server-echoed
// position under the key "last_ping_position".
func (e *Engine) Ping(ctx context.Context, fix *Fix) (ok bool, message string) {
	key := e.currentSyncKey()
	if !IsValidSyncKey(key) {
		return false, "sync key missing or invalid"
	}

	body := pingRequest{}
	if fix != nil && fix.Valid {
		body.LastLatitude = &fix.Latitude
		body.LastLongitude = &fix.Longitude
		body.LastHeading = &fix.HeadingDeg
		body.LastCourse = &fix.CourseDeg
	}

	url := fmt.Sprintf("%s/api/sync/device/%s/ping", e.baseURL, key)
	var resp pingResponse
	status, err := e.postJSON(ctx, url, body, &resp)
	if err != nil {
		e.log.Warning("ping: %v", err)
		return false, err.Error()
	}
	if status != http.StatusOK {
		return false, fmt.Sprintf("ping: unexpected status %d", status)
	}

	e.mu.Lock()
	e.lastPing = time.Now()
	e.mu.Unlock()

	payload, _ := json.Marshal(map[string]float64{
		"lastLatitude":  resp.LastLatitude,
		"lastLongitude": resp.LastLongitude,
		"lastHeading":   resp.LastHeading,
		"lastCourse":    resp.LastCourse,
	})
	if err := e.store.SetKV("last_ping_position", string(payload)); err != nil {
		e.log.Warning("ping: failed to record last_ping_position: %v", err)
	}

	return true, "ok"
}

// PullDevice fetches the device's full remote state and stores it
// transactionally via Store.StoreRemoteSync.
func (e *Engine) PullDevice(ctx context.Context) (ok bool, message string) {
	key := e.currentSyncKey()
	if !IsValidSyncKey(key) {
		return false, "sync key missing or invalid"
	}

	url := fmt.Sprintf("%s/api/sync/device/%s", e.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err.Error()
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Warning("pull_device: %v", err)
		return false, err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Sprintf("pull_device: unexpected status %d", resp.StatusCode)
	}

	var payload store.RemoteSyncPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Sprintf("pull_device: decode: %v", err)
	}
	normalizePayloadText(&payload)

	if err := e.store.StoreRemoteSync(payload); err != nil {
		e.log.Warning("pull_device: store_remote_sync failed: %v", err)
		return false, err.Error()
	}

	return true, "ok"
}

// normalizePayloadText applies Unicode NFC normalization to free-text
// fields in a pull response, so titles and descriptions with combining
// diacritics compare and sort consistently regardless of how the backend
// encoded them.
func normalizePayloadText(payload *store.RemoteSyncPayload) {
	payload.Device.Name = norm.NFC.String(payload.Device.Name)
	for i := range payload.Trips {
		payload.Trips[i].Title = norm.NFC.String(payload.Trips[i].Title)
		payload.Trips[i].Description = norm.NFC.String(payload.Trips[i].Description)
		for j := range payload.Trips[i].Points {
			payload.Trips[i].Points[j].Name = norm.NFC.String(payload.Trips[i].Points[j].Name)
		}
	}
}

type tripStatusRequest struct {
	Status string `json:"status"`
}

// PushTripStatus sends a trip's local status override to the backend and
// marks it synced on success.
func (e *Engine) PushTripStatus(ctx context.Context, tripID, status string) (ok bool, message string) {
	key := e.currentSyncKey()
	if !IsValidSyncKey(key) {
		return false, "sync key missing or invalid"
	}

	url := fmt.Sprintf("%s/api/sync/device/%s/trip/%s", e.baseURL, key, tripID)
	status2, err := e.putJSON(ctx, url, tripStatusRequest{Status: status})
	if err != nil {
		e.log.Warning("push_trip_status: %v", err)
		return false, err.Error()
	}
	if status2 != http.StatusOK {
		return false, fmt.Sprintf("push_trip_status: unexpected status %d", status2)
	}

	if err := e.store.MarkSynced(tripID); err != nil {
		return false, err.Error()
	}
	return true, "ok"
}

type bulkLogbookEntry struct {
	Timestamp string `json:"timestamp"`
	Location  struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Vessel struct {
		Speed  float64 `json:"speed"`
		Course float64 `json:"course"`
	} `json:"vessel"`
	Content string `json:"content,omitempty"`
	Trip    string `json:"trip,omitempty"`
}

type bulkLogbookRequest struct {
	Entries []bulkLogbookEntry `json:"entries"`
}

// PushLogbook uploads entries in one batch and marks them all synced on
// success. Per §4.8 the reference behavior is all-or-nothing: a failure
// anywhere in the batch leaves every entry pending for the next attempt.
func (e *Engine) PushLogbook(ctx context.Context, entries []store.LogbookEntry) (ok bool, message string) {
	if len(entries) == 0 {
		return true, "nothing to sync"
	}

	key := e.currentSyncKey()
	if !IsValidSyncKey(key) {
		return false, "sync key missing or invalid"
	}

	req := bulkLogbookRequest{Entries: make([]bulkLogbookEntry, 0, len(entries))}
	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		be := bulkLogbookEntry{Timestamp: entry.Timestamp, Content: entry.Content}
		be.Location.Latitude = entry.Lat
		be.Location.Longitude = entry.Lon
		be.Vessel.Speed = entry.SpeedKmh
		be.Vessel.Course = entry.HeadingDeg
		if entry.TripID.Valid {
			be.Trip = entry.TripID.String
		}
		req.Entries = append(req.Entries, be)
		ids = append(ids, entry.ID)
	}

	url := fmt.Sprintf("%s/api/logbook/sync/%s/bulk", e.baseURL, key)
	var discard struct{}
	status, err := e.postJSON(ctx, url, req, &discard)
	if err != nil {
		e.log.Warning("push_logbook: %v", err)
		return false, err.Error()
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return false, fmt.Sprintf("push_logbook: unexpected status %d", status)
	}

	if err := e.store.MarkLogbookSynced(ids); err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("uploaded %d entr(ies)", len(ids))
}

// DrainPending pushes every trip needing sync, then performs a single
// bulk logbook upload, in that order, per §4.8.
func (e *Engine) DrainPending(ctx context.Context) (ok bool, message string) {
	trips, err := e.store.TripsNeedingSync()
	if err != nil {
		return false, err.Error()
	}

	for _, t := range trips {
		status := t.RemoteStatus
		if t.LocalStatus.Valid {
			status = t.LocalStatus.String
		}
		if ok, msg := e.PushTripStatus(ctx, t.ID, status); !ok {
			e.log.Warning("drain_pending: trip %s push failed: %s", t.ID, msg)
		}
	}

	pending, err := e.store.PendingSync()
	if err != nil {
		return false, err.Error()
	}

	return e.PushLogbook(ctx, pending)
}

func (e *Engine) postJSON(ctx context.Context, url string, body interface{}, out interface{}) (int, error) {
	return e.doJSON(ctx, http.MethodPost, url, body, out)
}

func (e *Engine) putJSON(ctx context.Context, url string, body interface{}) (int, error) {
	var discard struct{}
	return e.doJSON(ctx, http.MethodPut, url, body, &discard)
}

func (e *Engine) doJSON(ctx context.Context, method, url string, body interface{}, out interface{}) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if out != nil {
			_ = json.NewDecoder(resp.Body).Decode(out)
		}
	}

	return resp.StatusCode, nil
}
