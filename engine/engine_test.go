package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/frontdesk/engine"
	"github.com/innkeep/frontdesk/ledger"
	"github.com/innkeep/frontdesk/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newEngineFixture(t *testing.T) (*engine.Engine, *ledger.Ledger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	led, err := ledger.Open(context.Background(), mem)
	require.NoError(t, err)
	return engine.New(led, mem), led, mem
}

func mustAppend(t *testing.T, led *ledger.Ledger, rec ledger.BookingRecord) ledger.BookingRecord {
	t.Helper()
	out, err := led.Append(context.Background(), rec)
	require.NoError(t, err)
	return out
}

var (
	arrive = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	depart = time.Date(2026, time.March, 12, 11, 0, 0, 0, time.UTC)
)

// =============================================================================
// DERIVATION
// =============================================================================

func TestRoomState_NoHistory(t *testing.T) {
	eng, _, _ := newEngineFixture(t)

	state, err := eng.RoomState(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, ledger.RoomAvailable, state.Status)
	assert.Equal(t, string(ledger.RoomAvailable), state.DisplayStatus)
}

func TestRoomState_Occupied(t *testing.T) {
	eng, led, _ := newEngineFixture(t)
	mustAppend(t, led, ledger.BookingRecord{Room: "7", Guest: "Alice Smith", CheckedIn: true, CheckInTime: arrive})

	state, err := eng.RoomState(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, ledger.RoomOccupied, state.Status)
	assert.Equal(t, "Alice Smith", state.Guest)
	assert.Equal(t, arrive, state.CheckInTime)
}

func TestRoomState_ReadyForCleaningAfterCheckout(t *testing.T) {
	eng, led, _ := newEngineFixture(t)
	mustAppend(t, led, ledger.BookingRecord{
		Room: "7", Guest: "Alice Smith",
		CheckedIn: true, CheckInTime: arrive,
		CheckedOut: true, CheckOutTime: depart,
	})

	state, err := eng.RoomState(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, ledger.RoomReadyForCleaning, state.Status)
	assert.Equal(t, depart, state.CheckOutTime)
}

func TestRoomState_AvailableAfterHousekeeping(t *testing.T) {
	eng, led, _ := newEngineFixture(t)
	mustAppend(t, led, ledger.BookingRecord{
		Room: "7", Guest: "Alice Smith",
		CheckedIn: true, CheckedOut: true, CheckOutTime: depart,
		HKDone: true,
	})

	state, err := eng.RoomState(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, ledger.RoomAvailable, state.Status)
	assert.Empty(t, state.Guest)
}

func TestRoomState_MostRecentRowWins(t *testing.T) {
	// GIVEN: Guest A checked out, guest B checked in later on the same room
	// WHEN: Deriving the room state
	// THEN: The room is Occupied by guest B

	eng, led, _ := newEngineFixture(t)
	mustAppend(t, led, ledger.BookingRecord{
		Room: "7", Guest: "Alice Smith",
		CheckedIn: true, CheckedOut: true, CheckOutTime: depart,
	})
	mustAppend(t, led, ledger.BookingRecord{
		Room: "7", Guest: "Bob Jones", CheckedIn: true, CheckInTime: arrive,
	})

	state, err := eng.RoomState(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, ledger.RoomOccupied, state.Status)
	assert.Equal(t, "Bob Jones", state.Guest)
}

func TestRoomState_LabelVariantsAreOneRoom(t *testing.T) {
	// GIVEN: Rows written as "07" and " 7 "
	// WHEN: Deriving by any spelling
	// THEN: One room, one state

	eng, led, _ := newEngineFixture(t)
	mustAppend(t, led, ledger.BookingRecord{Room: "07", Guest: "Alice Smith", CheckedIn: true})

	state, err := eng.RoomState(context.Background(), " 7 ")

	require.NoError(t, err)
	assert.Equal(t, "7", state.Room)
	assert.Equal(t, ledger.RoomOccupied, state.Status)

	states, err := eng.AllRoomStates(context.Background())
	require.NoError(t, err)
	assert.Len(t, states, 1)
}

// =============================================================================
// MAINTENANCE OVERRIDES
// =============================================================================

func TestRoomState_OverrideWinsForDisplayOnly(t *testing.T) {
	// GIVEN: An occupied room under a maintenance override
	// WHEN: Deriving
	// THEN: DisplayStatus shows the override; the derived Status is untouched

	eng, led, mem := newEngineFixture(t)
	mustAppend(t, led, ledger.BookingRecord{Room: "7", Guest: "Alice Smith", CheckedIn: true})
	require.NoError(t, mem.SetOverride(context.Background(), "07", ledger.OverrideMaintenance))

	state, err := eng.RoomState(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, ledger.RoomOccupied, state.Status)
	assert.Equal(t, string(ledger.OverrideMaintenance), state.DisplayStatus)
	assert.Equal(t, ledger.OverrideMaintenance, state.Override)
}

func TestRoomState_AvailableOverrideClears(t *testing.T) {
	eng, led, mem := newEngineFixture(t)
	mustAppend(t, led, ledger.BookingRecord{Room: "7", Guest: "Alice Smith", CheckedIn: true})
	require.NoError(t, mem.SetOverride(context.Background(), "7", ledger.OverrideRepair))
	require.NoError(t, mem.SetOverride(context.Background(), "7", ledger.OverrideAvailable))

	state, err := eng.RoomState(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, string(ledger.RoomOccupied), state.DisplayStatus)
}

// =============================================================================
// OCCUPANCY CHECK
// =============================================================================

func TestReoccupiedAfter(t *testing.T) {
	// GIVEN: Row 1 checked out, row 2 a newer active check-in on the room
	// WHEN: Asking from row 1's perspective
	// THEN: Re-occupied; from row 2's perspective, not

	eng, led, _ := newEngineFixture(t)
	mustAppend(t, led, ledger.BookingRecord{
		Room: "7", Guest: "Alice Smith", CheckedIn: true, CheckedOut: true, CheckOutTime: depart,
	})
	mustAppend(t, led, ledger.BookingRecord{Room: "7", Guest: "Bob Jones", CheckedIn: true})

	assert.True(t, eng.ReoccupiedAfter("7", 1))
	assert.False(t, eng.ReoccupiedAfter("7", 2))
}
