package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nav.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTrip(t *testing.T, s *Store, id, title string) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO trips (id, title, remote_status, sync_status, is_active) VALUES (?, ?, 'planned', 'pending', 0)`,
		id, title,
	)
	require.NoError(t, err)
}

func TestSingleActiveTripInvariant(t *testing.T) {
	s := newTestStore(t)
	insertTrip(t, s, "a", "Trip A")
	insertTrip(t, s, "b", "Trip B")

	require.NoError(t, s.SetActive("a"))
	require.NoError(t, s.SetActive("b"))

	var activeCount int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM trips WHERE is_active = 1`).Scan(&activeCount))
	require.Equal(t, 1, activeCount)

	active, ok, err := s.GetActive()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", active.ID)
}

func TestSetLocalStatusMarksPending(t *testing.T) {
	s := newTestStore(t)
	insertTrip(t, s, "a", "Trip A")

	require.NoError(t, s.MarkSynced("a"))
	require.NoError(t, s.SetLocalStatus("a", "IN_ROUTE"))

	trip, ok, err := s.GetByID("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "pending", trip.SyncStatus)
	require.True(t, trip.LocalStatus.Valid)
	require.Equal(t, "IN_ROUTE", trip.LocalStatus.String)
}

func TestLogbookOrderingAndSyncIdempotence(t *testing.T) {
	s := newTestStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := s.InsertLogbookEntry(LogbookEntry{Timestamp: "2026-01-01T00:00:00Z", Lat: 1, Lon: 2})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	recent, err := s.Recent("", 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	for i := 1; i < len(recent); i++ {
		require.Less(t, recent[i].ID, recent[i-1].ID, "recent() must be strictly decreasing")
	}

	pending, err := s.PendingSync()
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i := 1; i < len(pending); i++ {
		require.Greater(t, pending[i].ID, pending[i-1].ID, "pending_sync() must be strictly increasing")
	}

	require.NoError(t, s.MarkLogbookSynced(ids))
	pendingAfter, err := s.PendingSync()
	require.NoError(t, err)
	require.Empty(t, pendingAfter)

	// Idempotence: marking already-synced ids again is a no-op and they
	// never reappear in pending_sync().
	require.NoError(t, s.MarkLogbookSynced(ids))
	pendingAgain, err := s.PendingSync()
	require.NoError(t, err)
	require.Empty(t, pendingAgain)
}

func TestTripsNeedingSyncOrder(t *testing.T) {
	s := newTestStore(t)
	insertTrip(t, s, "a", "Trip A")
	insertTrip(t, s, "b", "Trip B")

	require.NoError(t, s.SetLocalStatus("a", "IN_ROUTE"))
	require.NoError(t, s.SetLocalStatus("b", "PLANNED"))

	pending, err := s.TripsNeedingSync()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "a", pending[0].ID)
	require.Equal(t, "b", pending[1].ID)
}

func TestReconcileDeactivatesExtraActiveTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.db")
	s, err := NewStore(path)
	require.NoError(t, err)

	insertTrip(t, s, "a", "Trip A")
	insertTrip(t, s, "b", "Trip B")
	_, err = s.db.Exec(`UPDATE trips SET is_active = 1`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening triggers reconcile() again, which must collapse back to
	// a single active trip.
	s2, err := NewStore(path)
	require.NoError(t, err)
	defer s2.Close()

	var activeCount int
	require.NoError(t, s2.db.QueryRow(`SELECT COUNT(*) FROM trips WHERE is_active = 1`).Scan(&activeCount))
	require.Equal(t, 1, activeCount)
}
