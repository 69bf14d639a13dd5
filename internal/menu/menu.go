// Package menu implements the hierarchical menu state machine: Main →
// {Trips, Sync, Settings}, enumerated from the Store at entry so it
// always reflects current data.
package menu

import (
	"fmt"

	"github.com/oleche/elcano-nav-go/internal/store"
)

// ActionKind enumerates the actions the Supervisor must carry out after
// a Select in the menu.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionStartTrip
	ActionStopTrip
	ActionForceSync
	ActionExitMenu
)

// Action is produced by Select and consumed by the Supervisor.
type Action struct {
	Kind   ActionKind
	TripID string
}

// nodeID identifies a menu level in the stack.
type nodeID int

const (
	nodeMain nodeID = iota
	nodeTrips
	nodeSync
	nodeSettings
)

// item is one enumerated row within a menu level.
type item struct {
	label  string
	action Action
	child  nodeID
	hasChild bool
}

// Controller holds the menu stack and the current selection within the
// top level. It is not safe for concurrent use; the Supervisor owns it
// exclusively.
type Controller struct {
	store     *store.Store
	stack     []nodeID
	selection map[nodeID]int
	items     []item
}

// NewController creates a Controller rooted at Main, backed by st for
// item enumeration.
func NewController(st *store.Store) *Controller {
	c := &Controller{
		store:     st,
		stack:     []nodeID{nodeMain},
		selection: map[nodeID]int{},
	}
	c.refresh()
	return c
}

// current returns the node at the top of the stack.
func (c *Controller) current() nodeID {
	return c.stack[len(c.stack)-1]
}

// refresh re-enumerates the current level's items from the Store.
func (c *Controller) refresh() {
	switch c.current() {
	case nodeMain:
		c.items = []item{
			{label: "Trips", child: nodeTrips, hasChild: true},
			{label: "Sync", child: nodeSync, hasChild: true},
			{label: "Settings", child: nodeSettings, hasChild: true},
		}
	case nodeTrips:
		c.items = c.tripItems()
	case nodeSync:
		c.items = []item{
			{label: "Force Sync Now", action: Action{Kind: ActionForceSync}},
		}
	case nodeSettings:
		c.items = []item{
			{label: "(no adjustable settings yet)"},
		}
	}
}

func (c *Controller) tripItems() []item {
	trips, err := c.store.GetTrips("")
	if err != nil {
		return []item{{label: "Unable to load trips"}}
	}

	items := make([]item, 0, len(trips))
	for _, t := range trips {
		if t.IsActive {
			items = append(items, item{
				label:  fmt.Sprintf("Stop: %s", t.Title),
				action: Action{Kind: ActionStopTrip, TripID: t.ID},
			})
			continue
		}
		items = append(items, item{
			label:  fmt.Sprintf("Start: %s", t.Title),
			action: Action{Kind: ActionStartTrip, TripID: t.ID},
		})
	}
	if len(items) == 0 {
		items = append(items, item{label: "No trips available"})
	}
	return items
}

// Title returns the display title for the current level.
func (c *Controller) Title() string {
	switch c.current() {
	case nodeMain:
		return "Menu"
	case nodeTrips:
		return "Trips"
	case nodeSync:
		return "Sync"
	case nodeSettings:
		return "Settings"
	}
	return ""
}

// Items returns the current level's labels in display order, for the
// Renderer.
func (c *Controller) Items() []string {
	labels := make([]string, len(c.items))
	for i, it := range c.items {
		labels[i] = it.label
	}
	return labels
}

// Selected returns the current level's highlighted index.
func (c *Controller) Selected() int {
	return c.selection[c.current()]
}

// Up moves the selection up within the current level, clamped at 0.
func (c *Controller) Up() {
	idx := c.selection[c.current()]
	if idx > 0 {
		c.selection[c.current()] = idx - 1
	}
}

// Down moves the selection down within the current level, clamped at
// the last item.
func (c *Controller) Down() {
	idx := c.selection[c.current()]
	if idx < len(c.items)-1 {
		c.selection[c.current()] = idx + 1
	}
}

// Select enters a submenu, or returns the action bound to a leaf item.
// Entering a submenu re-enumerates it from the Store.
func (c *Controller) Select() Action {
	if len(c.items) == 0 {
		return Action{Kind: ActionNone}
	}
	it := c.items[c.selection[c.current()]]
	if it.hasChild {
		c.stack = append(c.stack, it.child)
		c.refresh()
		return Action{Kind: ActionNone}
	}
	return it.action
}

// Back pops the menu stack. Popping past the root signals ExitMenu so
// the Supervisor returns to the Map screen.
func (c *Controller) Back() Action {
	if len(c.stack) == 1 {
		return Action{Kind: ActionExitMenu}
	}
	c.stack = c.stack[:len(c.stack)-1]
	c.refresh()
	return Action{Kind: ActionNone}
}

// Reset returns the Controller to its root level, used whenever the
// Supervisor re-enters the menu from the Map screen.
func (c *Controller) Reset() {
	c.stack = []nodeID{nodeMain}
	c.refresh()
}
