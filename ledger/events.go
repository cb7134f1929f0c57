/*
events.go - Domain events and the reaction dispatcher

PURPOSE:
  Lifecycle transitions have side effects on OTHER rows of the ledger: a new
  check-in clears a stale "cleaned" advertisement on older rows and marks
  superseded rows historical. Instead of scattering those corrective scans
  through the edit handler, transitions emit events and a small set of named
  reactions applies the corrections. Each reaction is independently testable.

EVENTS:
  RoomCheckedIn        - a row's check-in flag became true
  RoomCheckedOut       - a row's check-out flag became true
  RoomHousekeepingDone - a row's housekeeping-done flag became true

FAILURE POLICY:
  A failing reaction never blocks the others; errors are collected and
  surfaced to the controller boundary, which logs them per edit.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// EVENTS
// =============================================================================

type Event interface {
	EventName() string
}

// RoomCheckedIn fires when a row's check-in flag becomes true.
type RoomCheckedIn struct {
	Room string
	Row  int
}

func (RoomCheckedIn) EventName() string { return "room_checked_in" }

// RoomCheckedOut fires when a row's check-out flag becomes true.
type RoomCheckedOut struct {
	Room string
	Row  int
}

func (RoomCheckedOut) EventName() string { return "room_checked_out" }

// RoomHousekeepingDone fires when a row's housekeeping-done flag becomes true.
type RoomHousekeepingDone struct {
	Room string
	Row  int
}

func (RoomHousekeepingDone) EventName() string { return "room_housekeeping_done" }

// =============================================================================
// REACTIONS
// =============================================================================

// Reaction applies one corrective side effect in response to an event.
// Reactions receive the ledger directly and mutate rows through Save.
type Reaction interface {
	// Name identifies the reaction in logs.
	Name() string

	// React applies the correction. Events the reaction does not care about
	// must be ignored without error.
	React(ctx context.Context, l *Ledger, ev Event) error
}

// Dispatcher fans an event out to its registered reactions.
type Dispatcher struct {
	reactions []Reaction
}

func NewDispatcher(reactions ...Reaction) *Dispatcher {
	return &Dispatcher{reactions: reactions}
}

// Register appends a reaction. Reactions run in registration order.
func (d *Dispatcher) Register(r Reaction) {
	d.reactions = append(d.reactions, r)
}

// Dispatch runs every reaction against the event. All reactions run even if
// one fails; failures are joined and returned together.
func (d *Dispatcher) Dispatch(ctx context.Context, l *Ledger, ev Event) error {
	var errs []error
	for _, r := range d.reactions {
		if err := r.React(ctx, l, ev); err != nil {
			errs = append(errs, fmt.Errorf("reaction %s on %s: %w", r.Name(), ev.EventName(), err))
		}
	}
	return errors.Join(errs...)
}
