// Package store implements the navigator's single persistent database:
// device info, trips, waypoints, logbook entries, and small key/value
// bookkeeping, all serialized through one connection so SQLite's
// single-writer behavior and the Go-level mutex agree.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/google/uuid"

	"github.com/oleche/elcano-nav-go/internal/errs"
	"github.com/oleche/elcano-nav-go/internal/logging"
)

// Trip is a planned or in-progress voyage. At most one row has
// IsActive = true at any moment.
type Trip struct {
	ID          string
	Title       string
	Description string
	StartDate   string
	EndDate     string
	RemoteStatus string
	LocalStatus  sql.NullString
	SyncStatus   string // "synced" | "pending"
	IsActive     bool
}

// Waypoint belongs to exactly one trip.
type Waypoint struct {
	ID       int64
	TripID   string
	Sequence int
	Lat      float64
	Lon      float64
	Name     string
}

// LogbookEntry is one recorded position/telemetry sample. IDs are
// monotonic and, once SyncStatus is "synced", the row is read-only.
type LogbookEntry struct {
	ID         int64
	TripID     sql.NullString
	Timestamp  string
	Lat        float64
	Lon        float64
	Altitude   float64
	SpeedKmh   float64
	HeadingDeg float64
	Satellites int
	Content    string
	SyncStatus string
}

// DeviceInfo is the device's identity as known to the backend.
type DeviceInfo struct {
	ID            string
	SyncKey       string
	Name          string
	Model         string
	Owner         string
	LastFetched   string
}

// Store is the navigator's single persistent database file. All
// operations serialize through the standard library's connection pool,
// which is pinned to a single connection so SQLite's own single-writer
// semantics and the pool agree (see NewStore).
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logging.Logger
}

// NewStore opens (creating if absent) the SQLite database at path, runs
// the additive schema migration, and reconciles any logical state errors
// left over from a previous run (two active trips, orphan waypoints) per
// §7.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.NewIntegrity("open store", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: logging.NewLogger("store")}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errs.NewIntegrity("migrate store", err)
	}
	if err := s.reconcile(); err != nil {
		db.Close()
		return nil, errs.NewIntegrity("reconcile store", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			start_date TEXT,
			end_date TEXT,
			remote_status TEXT DEFAULT 'planned',
			local_status TEXT,
			sync_status TEXT DEFAULT 'pending',
			is_active INTEGER NOT NULL DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS waypoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trip_id TEXT NOT NULL,
			name TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			order_index INTEGER DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (trip_id) REFERENCES trips (id)
		)`,
		`CREATE TABLE IF NOT EXISTS logbook_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			speed REAL DEFAULT 0,
			heading REAL DEFAULT 0,
			altitude REAL DEFAULT 0,
			satellites INTEGER DEFAULT 0,
			trip_id TEXT,
			content TEXT,
			sync_status TEXT DEFAULT 'pending',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (trip_id) REFERENCES trips (id)
		)`,
		`CREATE TABLE IF NOT EXISTS device_info (
			id TEXT PRIMARY KEY,
			sync_key TEXT,
			name TEXT,
			model TEXT,
			owner TEXT,
			last_fetched TEXT,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sync_kv (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_waypoints_trip_seq ON waypoints(trip_id, order_index)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// reconcile repairs the logical state errors named in §7: if more than
// one trip is somehow marked active, keep only the most recently updated
// one. Orphan waypoints (no matching trip) are retained but reported.
func (s *Store) reconcile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var activeCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM trips WHERE is_active = 1`).Scan(&activeCount); err != nil {
		return err
	}
	if activeCount > 1 {
		s.log.Warning("reconcile: %d trips marked active, keeping most recently updated", activeCount)
		if _, err := s.db.Exec(`UPDATE trips SET is_active = 0 WHERE id NOT IN (
			SELECT id FROM trips WHERE is_active = 1 ORDER BY updated_at DESC LIMIT 1
		)`); err != nil {
			return err
		}
	}

	var orphanCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM waypoints w WHERE NOT EXISTS (SELECT 1 FROM trips t WHERE t.id = w.trip_id)`).Scan(&orphanCount); err != nil {
		return err
	}
	if orphanCount > 0 {
		s.log.Warning("reconcile: %d orphan waypoint(s) found, retained", orphanCount)
	}

	return nil
}

// GetTrips returns trips, optionally filtered by remote_status.
func (s *Store) GetTrips(status string) ([]Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, title, description, start_date, end_date, remote_status, local_status, sync_status, is_active FROM trips`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE remote_status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		var t Trip
		var isActive int
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.RemoteStatus, &t.LocalStatus, &t.SyncStatus, &isActive); err != nil {
			return nil, err
		}
		t.IsActive = isActive != 0
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// GetByID returns a single trip by id.
func (s *Store) GetByID(id string) (Trip, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getByIDLocked(id)
}

func (s *Store) getByIDLocked(id string) (Trip, bool, error) {
	var t Trip
	var isActive int
	err := s.db.QueryRow(
		`SELECT id, title, description, start_date, end_date, remote_status, local_status, sync_status, is_active FROM trips WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.RemoteStatus, &t.LocalStatus, &t.SyncStatus, &isActive)
	if err == sql.ErrNoRows {
		return Trip{}, false, nil
	}
	if err != nil {
		return Trip{}, false, err
	}
	t.IsActive = isActive != 0
	return t, true, nil
}

// GetActive returns the single active trip, if any.
func (s *Store) GetActive() (Trip, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t Trip
	var isActive int
	err := s.db.QueryRow(
		`SELECT id, title, description, start_date, end_date, remote_status, local_status, sync_status, is_active FROM trips WHERE is_active = 1 LIMIT 1`,
	).Scan(&t.ID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.RemoteStatus, &t.LocalStatus, &t.SyncStatus, &isActive)
	if err == sql.ErrNoRows {
		return Trip{}, false, nil
	}
	if err != nil {
		return Trip{}, false, err
	}
	t.IsActive = true
	return t, true, nil
}

// SetActive clears is_active on every trip, then sets it on id, all
// inside one transaction so a concurrent reader never observes zero or
// two active trips.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE trips SET is_active = 0`); err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE trips SET is_active = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set_active: trip %q not found", id)
	}

	return tx.Commit()
}

// UpsertFromRemote inserts or updates a trip as pulled from the backend.
func (s *Store) UpsertFromRemote(t Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO trips (id, title, description, start_date, end_date, remote_status, sync_status, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, 'synced', 0)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   start_date = excluded.start_date,
		   end_date = excluded.end_date,
		   remote_status = excluded.remote_status,
		   updated_at = CURRENT_TIMESTAMP`,
		t.ID, t.Title, t.Description, t.StartDate, t.EndDate, t.RemoteStatus,
	)
	return err
}

// NewLocalTripID mints an opaque id for a trip planned on-device, ahead of
// any backend-assigned id.
func NewLocalTripID() string {
	return uuid.NewString()
}

// SetLocalStatus records a user-driven status override and marks the trip
// pending sync.
func (s *Store) SetLocalStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE trips SET local_status = ?, sync_status = 'pending', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set_local_status: trip %q not found", id)
	}
	return nil
}

// MarkSynced transitions a trip to sync_status = synced.
func (s *Store) MarkSynced(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE trips SET sync_status = 'synced', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// TripsNeedingSync returns trips with sync_status = pending, in the order
// set_local_status was called (insertion order via updated_at), so
// drain_pending pushes them to the server in that order.
func (s *Store) TripsNeedingSync() ([]Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, title, description, start_date, end_date, remote_status, local_status, sync_status, is_active
		 FROM trips WHERE sync_status = 'pending' ORDER BY updated_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		var t Trip
		var isActive int
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.RemoteStatus, &t.LocalStatus, &t.SyncStatus, &isActive); err != nil {
			return nil, err
		}
		t.IsActive = isActive != 0
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// InsertWaypoint adds a waypoint to a trip.
func (s *Store) InsertWaypoint(w Waypoint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO waypoints (trip_id, name, latitude, longitude, order_index) VALUES (?, ?, ?, ?, ?)`,
		w.TripID, w.Name, w.Lat, w.Lon, w.Sequence,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// WaypointsByTrip returns a trip's waypoints sorted by sequence.
func (s *Store) WaypointsByTrip(tripID string) ([]Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, trip_id, order_index, latitude, longitude, name FROM waypoints WHERE trip_id = ? ORDER BY order_index ASC`,
		tripID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waypoints []Waypoint
	for rows.Next() {
		var w Waypoint
		if err := rows.Scan(&w.ID, &w.TripID, &w.Sequence, &w.Lat, &w.Lon, &w.Name); err != nil {
			return nil, err
		}
		waypoints = append(waypoints, w)
	}
	return waypoints, rows.Err()
}

// InsertLogbookEntry records one entry and returns its monotonic id.
func (s *Store) InsertLogbookEntry(e LogbookEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO logbook_entries (timestamp, latitude, longitude, speed, heading, altitude, satellites, trip_id, content, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		e.Timestamp, e.Lat, e.Lon, e.SpeedKmh, e.HeadingDeg, e.Altitude, e.Satellites, e.TripID, e.Content,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, optionally filtered by trip, in
// strictly decreasing id order.
func (s *Store) Recent(tripID string, limit int) ([]LogbookEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, timestamp, latitude, longitude, altitude, speed, heading, satellites, trip_id, content, sync_status FROM logbook_entries`
	args := []interface{}{}
	if tripID != "" {
		query += ` WHERE trip_id = ?`
		args = append(args, tripID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	return s.queryLogbook(query, args...)
}

// PendingSync returns entries awaiting upload, in strictly increasing id
// order (oldest first), matching upload order.
func (s *Store) PendingSync() ([]LogbookEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queryLogbook(
		`SELECT id, timestamp, latitude, longitude, altitude, speed, heading, satellites, trip_id, content, sync_status
		 FROM logbook_entries WHERE sync_status = 'pending' ORDER BY id ASC`,
	)
}

func (s *Store) queryLogbook(query string, args ...interface{}) ([]LogbookEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LogbookEntry
	for rows.Next() {
		var e LogbookEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Lat, &e.Lon, &e.Altitude, &e.SpeedKmh, &e.HeadingDeg, &e.Satellites, &e.TripID, &e.Content, &e.SyncStatus); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkLogbookSynced marks the given ids as synced. Already-synced ids are
// a no-op, so repeated calls with overlapping id sets are idempotent.
func (s *Store) MarkLogbookSynced(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE logbook_entries SET sync_status = 'synced' WHERE id = ? AND sync_status != 'synced'`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.Exec(id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpsertDeviceInfo stores the device identity as pulled from the backend.
func (s *Store) UpsertDeviceInfo(d DeviceInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO device_info (id, sync_key, name, model, owner, last_fetched)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   sync_key = excluded.sync_key, name = excluded.name, model = excluded.model,
		   owner = excluded.owner, last_fetched = excluded.last_fetched, updated_at = CURRENT_TIMESTAMP`,
		d.ID, d.SyncKey, d.Name, d.Model, d.Owner, d.LastFetched,
	)
	return err
}

// GetDeviceInfo returns the single stored device record, if any.
func (s *Store) GetDeviceInfo() (DeviceInfo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var d DeviceInfo
	err := s.db.QueryRow(`SELECT id, sync_key, name, model, owner, last_fetched FROM device_info LIMIT 1`).
		Scan(&d.ID, &d.SyncKey, &d.Name, &d.Model, &d.Owner, &d.LastFetched)
	if err == sql.ErrNoRows {
		return DeviceInfo{}, false, nil
	}
	if err != nil {
		return DeviceInfo{}, false, err
	}
	return d, true, nil
}

// SetKV stores a named timestamp or small JSON payload (e.g. last ping
// position) under key.
func (s *Store) SetKV(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO sync_kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

// GetKV retrieves a value set by SetKV, or ok=false if absent.
func (s *Store) GetKV(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM sync_kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// RemoteSyncPayload is the decoded body of GET /api/sync/device/{key}, as
// consumed by StoreRemoteSync.
type RemoteSyncPayload struct {
	Device struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		SyncKey string `json:"syncKey"`
		Model   string `json:"model"`
		Owner   string `json:"owner"`
	} `json:"device"`
	Trips []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		Points      []struct {
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
			Name        string  `json:"name"`
			Description string  `json:"description"`
		} `json:"points"`
	} `json:"trips"`
	SyncTimestamp string `json:"syncTimestamp"`
}

// StoreRemoteSync upserts device info, trips, and waypoints from a pull
// response inside one transaction, then records last_full_sync. Either
// everything in the payload lands, or nothing does.
func (s *Store) StoreRemoteSync(payload RemoteSyncPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if payload.Device.ID != "" {
		if _, err := tx.Exec(
			`INSERT INTO device_info (id, sync_key, name, model, owner, last_fetched)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   sync_key = excluded.sync_key, name = excluded.name, model = excluded.model,
			   owner = excluded.owner, last_fetched = excluded.last_fetched, updated_at = CURRENT_TIMESTAMP`,
			payload.Device.ID, payload.Device.SyncKey, payload.Device.Name, payload.Device.Model, payload.Device.Owner, payload.SyncTimestamp,
		); err != nil {
			return fmt.Errorf("upsert device: %w", err)
		}
	}

	for _, t := range payload.Trips {
		if _, err := tx.Exec(
			`INSERT INTO trips (id, title, description, start_date, end_date, remote_status, sync_status, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, 'synced', 0)
			 ON CONFLICT(id) DO UPDATE SET
			   title = excluded.title, description = excluded.description, start_date = excluded.start_date,
			   end_date = excluded.end_date, remote_status = excluded.remote_status, updated_at = CURRENT_TIMESTAMP`,
			t.ID, t.Title, t.Description, t.StartDate, t.EndDate, t.Status,
		); err != nil {
			return fmt.Errorf("upsert trip %s: %w", t.ID, err)
		}

		if _, err := tx.Exec(`DELETE FROM waypoints WHERE trip_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear waypoints for %s: %w", t.ID, err)
		}
		for i, p := range t.Points {
			if _, err := tx.Exec(
				`INSERT INTO waypoints (trip_id, name, latitude, longitude, order_index) VALUES (?, ?, ?, ?, ?)`,
				t.ID, p.Name, p.Latitude, p.Longitude, i,
			); err != nil {
				return fmt.Errorf("insert waypoint for %s: %w", t.ID, err)
			}
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT INTO sync_kv (key, value) VALUES ('last_full_sync', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		now,
	); err != nil {
		return fmt.Errorf("record last_full_sync: %w", err)
	}

	return tx.Commit()
}

// SetSetting and GetSetting manage the free-form settings table, used for
// small operator preferences that don't warrant a first-class column.
func (s *Store) SetSetting(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal setting %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(data),
	)
	return err
}

// GetSetting retrieves and JSON-decodes a setting into dest.
func (s *Store) GetSetting(key string, dest interface{}) (bool, error) {
	s.mu.Lock()
	var raw string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	s.mu.Unlock()

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("unmarshal setting %s: %w", key, err)
	}
	return true, nil
}
