/*
Package engine derives current room state from booking history.

PURPOSE:
  A room's state is never stored; it is a pure function of the ordered set
  of BookingRecords sharing that room's normalized identity. The engine
  walks a room's records in row order and resolves the current occupancy
  and cleaning status, tolerating histories that violate the one-occupancy
  invariant instead of assuming it.

DERIVATION RULES (most recent row wins):
  1. The last checked-in-active record makes the room Occupied
  2. Otherwise the last checked-out record with housekeeping pending makes
     it Ready for Cleaning
  3. A checked-out record with housekeeping done folds to Available
     ("cleaned" is momentary, not a persisted distinct state)
  4. No records at all for the room: Available

COMPLEXITY:
  The ledger keeps a per-room position index, so a derivation is
  O(records-for-room) and never a full-table rescan.

SEE ALSO:
  - reactions.go: Cross-row corrective side effects on check-in
*/
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/innkeep/frontdesk/ledger"
)

// =============================================================================
// OVERRIDE FEED - External maintenance list, display precedence only
// =============================================================================

// OverrideFeed supplies the room-master maintenance statuses. A non-Available
// override wins over the derived status for display only; booking logic
// never consults it.
type OverrideFeed interface {
	Overrides(ctx context.Context) (map[string]ledger.Override, error)
}

// =============================================================================
// ROOM STATE
// =============================================================================

// RoomState is the derived state of one room. DisplayStatus equals Status
// unless a maintenance override takes precedence.
type RoomState struct {
	Room          string
	Status        ledger.RoomStatus
	Guest         string
	CheckInTime   time.Time
	CheckOutTime  time.Time
	Override      ledger.Override
	DisplayStatus string
}

type Engine struct {
	led  *ledger.Ledger
	feed OverrideFeed // optional
}

func New(led *ledger.Ledger, feed OverrideFeed) *Engine {
	return &Engine{led: led, feed: feed}
}

// RoomState derives the current state of one room.
func (e *Engine) RoomState(ctx context.Context, room string) (RoomState, error) {
	state := e.derive(room)
	if err := e.applyOverride(ctx, &state); err != nil {
		return state, err
	}
	return state, nil
}

// AllRoomStates derives the state of every room in the ledger, sorted by
// room identity.
func (e *Engine) AllRoomStates(ctx context.Context) ([]RoomState, error) {
	var overrides map[string]ledger.Override
	if e.feed != nil {
		var err error
		overrides, err = e.feed.Overrides(ctx)
		if err != nil {
			return nil, err
		}
	}

	rooms := e.led.Rooms()
	sort.Strings(rooms)

	states := make([]RoomState, 0, len(rooms))
	for _, room := range rooms {
		state := e.derive(room)
		if ov, ok := overrides[state.Room]; ok && ov != ledger.OverrideAvailable {
			state.Override = ov
			state.DisplayStatus = string(ov)
		}
		states = append(states, state)
	}
	return states, nil
}

// derive folds a room's records in row order. Later rows overwrite earlier
// conclusions, so the most recent row wins while every row is still seen.
func (e *Engine) derive(room string) RoomState {
	state := RoomState{
		Room:   ledger.NormalizeRoom(room),
		Status: ledger.RoomAvailable,
	}

	for _, rec := range e.led.ForRoom(room) {
		switch {
		case rec.CheckedInActive():
			state.Status = ledger.RoomOccupied
			state.Guest = rec.Guest
			state.CheckInTime = rec.CheckInTime
			state.CheckOutTime = time.Time{}
		case rec.IsCheckedOut() && !rec.HKDone:
			state.Status = ledger.RoomReadyForCleaning
			state.Guest = rec.Guest
			state.CheckInTime = time.Time{}
			state.CheckOutTime = rec.CheckOutTime
		case rec.IsCheckedOut() && rec.HKDone:
			state.Status = ledger.RoomAvailable
			state.Guest = ""
			state.CheckInTime = time.Time{}
			state.CheckOutTime = time.Time{}
		}
	}

	state.DisplayStatus = string(state.Status)
	return state
}

func (e *Engine) applyOverride(ctx context.Context, state *RoomState) error {
	if e.feed == nil {
		return nil
	}
	overrides, err := e.feed.Overrides(ctx)
	if err != nil {
		return err
	}
	if ov, ok := overrides[state.Room]; ok && ov != ledger.OverrideAvailable {
		state.Override = ov
		state.DisplayStatus = string(ov)
	}
	return nil
}

// =============================================================================
// OCCUPANCY CHECK - Used by the housekeeping-done transition
// =============================================================================

// ReoccupiedAfter reports whether the room has a checked-in-active record on
// a row strictly after fromRow. The housekeeping-done transition uses this
// to avoid advertising a room as ready when a newer guest already has it.
func (e *Engine) ReoccupiedAfter(room string, fromRow int) bool {
	for _, rec := range e.led.ForRoom(room) {
		if rec.RowIndex <= fromRow {
			continue
		}
		if rec.CheckedInActive() {
			return true
		}
	}
	return false
}
