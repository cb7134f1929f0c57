package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/frontdesk/ledger"
	"github.com/innkeep/frontdesk/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	led, err := ledger.Open(context.Background(), store.NewMemory())
	require.NoError(t, err)
	return led
}

func appendRow(t *testing.T, led *ledger.Ledger, room, guest string) ledger.BookingRecord {
	t.Helper()
	rec, err := led.Append(context.Background(), ledger.BookingRecord{Room: room, Guest: guest})
	require.NoError(t, err)
	return rec
}

// =============================================================================
// APPEND / GET
// =============================================================================

func TestAppend_AssignsStrictlyIncreasingRowIndex(t *testing.T) {
	led := newTestLedger(t)

	first := appendRow(t, led, "7", "Alice Smith")
	second := appendRow(t, led, "8", "Bob Jones")

	assert.Equal(t, 1, first.RowIndex)
	assert.Equal(t, 2, second.RowIndex)
	assert.Equal(t, 2, led.Len())
}

func TestGet_UnknownRow(t *testing.T) {
	led := newTestLedger(t)
	appendRow(t, led, "7", "Alice Smith")

	_, err := led.Get(99)

	assert.ErrorIs(t, err, ledger.ErrRowNotFound)
}

// =============================================================================
// ROOM INDEX
// =============================================================================

func TestForRoom_NormalizedIdentity(t *testing.T) {
	// GIVEN: Rows written as "07", " 7 " and "7"
	// WHEN: Looking up room 7
	// THEN: All three rows belong to the same room, in row order

	led := newTestLedger(t)
	appendRow(t, led, "07", "Alice Smith")
	appendRow(t, led, "12", "Bob Jones")
	appendRow(t, led, " 7 ", "Carol White")
	appendRow(t, led, "7", "Dan Brown")

	recs := led.ForRoom("007")

	require.Len(t, recs, 3)
	assert.Equal(t, []int{1, 3, 4}, []int{recs[0].RowIndex, recs[1].RowIndex, recs[2].RowIndex})
}

func TestForRoom_EmptyRoomExcluded(t *testing.T) {
	led := newTestLedger(t)
	appendRow(t, led, "", "Walk In")
	appendRow(t, led, "  ", "No Room Yet")

	assert.Empty(t, led.Rooms())
	assert.Empty(t, led.ForRoom(""))
}

func TestSave_RoomChangeReindexes(t *testing.T) {
	// GIVEN: A row filed under room 7
	// WHEN: The room cell is corrected to 9
	// THEN: The row moves between room histories

	led := newTestLedger(t)
	rec := appendRow(t, led, "7", "Alice Smith")

	rec.Room = "9"
	require.NoError(t, led.Save(context.Background(), rec))

	assert.Empty(t, led.ForRoom("7"))
	require.Len(t, led.ForRoom("9"), 1)
	assert.Equal(t, "Alice Smith", led.ForRoom("9")[0].Guest)
}

func TestSave_UnknownRow(t *testing.T) {
	led := newTestLedger(t)

	err := led.Save(context.Background(), ledger.BookingRecord{RowIndex: 5})

	assert.ErrorIs(t, err, ledger.ErrRowNotFound)
}

// =============================================================================
// GUEST HISTORY
// =============================================================================

func TestGuestHistory_CaseInsensitiveSubstring(t *testing.T) {
	led := newTestLedger(t)
	appendRow(t, led, "7", "Alice Smith")
	appendRow(t, led, "8", "Bob Jones")
	appendRow(t, led, "9", "alice smith")

	recs := led.GuestHistory("ALICE")

	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].RowIndex)
	assert.Equal(t, 3, recs[1].RowIndex)

	assert.Empty(t, led.GuestHistory("   "), "blank term matches nothing")
}

// =============================================================================
// EVENT DISPATCH
// =============================================================================

type recordingReaction struct {
	seen []string
	fail bool
}

func (r *recordingReaction) Name() string { return "recording" }

func (r *recordingReaction) React(_ context.Context, _ *ledger.Ledger, ev ledger.Event) error {
	r.seen = append(r.seen, ev.EventName())
	if r.fail {
		return assert.AnError
	}
	return nil
}

func TestDispatch_AllReactionsRunEvenOnFailure(t *testing.T) {
	// GIVEN: Two reactions where the first one fails
	// WHEN: Dispatching an event
	// THEN: The second reaction still runs and the error is surfaced

	led := newTestLedger(t)
	failing := &recordingReaction{fail: true}
	ok := &recordingReaction{}
	d := ledger.NewDispatcher(failing, ok)

	err := d.Dispatch(context.Background(), led, ledger.RoomCheckedIn{Room: "7", Row: 1})

	assert.Error(t, err)
	assert.Equal(t, []string{"room_checked_in"}, failing.seen)
	assert.Equal(t, []string{"room_checked_in"}, ok.seen)
}
