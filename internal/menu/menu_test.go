package menu

import (
	"path/filepath"
	"testing"

	"github.com/oleche/elcano-nav-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nav.db")
	s, err := store.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRootMenuLevels(t *testing.T) {
	c := NewController(newTestStore(t))
	assert.Equal(t, "Menu", c.Title())
	assert.Equal(t, []string{"Trips", "Sync", "Settings"}, c.Items())
}

func TestNavigationClampsAtEnds(t *testing.T) {
	c := NewController(newTestStore(t))
	c.Up()
	assert.Equal(t, 0, c.Selected())

	c.Down()
	c.Down()
	c.Down()
	assert.Equal(t, 2, c.Selected(), "should clamp at the last item, not wrap")
}

func TestSelectEntersSubmenuAndBackReturns(t *testing.T) {
	c := NewController(newTestStore(t))
	action := c.Select() // enters Trips
	assert.Equal(t, ActionNone, action.Kind)
	assert.Equal(t, "Trips", c.Title())

	back := c.Back()
	assert.Equal(t, ActionNone, back.Kind)
	assert.Equal(t, "Menu", c.Title())
}

func TestBackFromRootExitsMenu(t *testing.T) {
	c := NewController(newTestStore(t))
	action := c.Back()
	assert.Equal(t, ActionExitMenu, action.Kind)
}

func TestTripsMenuReflectsStoreAndProducesActions(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertFromRemote(store.Trip{ID: "trip-1", Title: "Coastal Loop", RemoteStatus: "planned"}))

	c := NewController(s)
	c.Select() // enter Trips, re-enumerates from Store
	assert.Equal(t, "Trips", c.Title())
	assert.Equal(t, []string{"Start: Coastal Loop"}, c.Items())

	action := c.Select()
	assert.Equal(t, ActionStartTrip, action.Kind)
	assert.Equal(t, "trip-1", action.TripID)
}

func TestForceSyncAction(t *testing.T) {
	s := newTestStore(t)
	c := NewController(s)
	c.Down() // Trips -> Sync
	action := c.Select()
	assert.Equal(t, ActionNone, action.Kind)
	assert.Equal(t, "Sync", c.Title())

	syncAction := c.Select()
	assert.Equal(t, ActionForceSync, syncAction.Kind)
}

func TestResetReturnsToRoot(t *testing.T) {
	c := NewController(newTestStore(t))
	c.Select()
	c.Reset()
	assert.Equal(t, "Menu", c.Title())
}
