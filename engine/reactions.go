/*
reactions.go - Cross-row corrective side effects

A new check-in supersedes what older rows of the same room advertise. Two
named reactions run on RoomCheckedIn, both scanning strictly BEFORE the
triggering row and never touching the triggering row or rows after it:

  clear_stale_cleaned  - an older row still saying "Cleaned - ReadyFor Rent"
                         is cleared; a new occupant invalidates the ad
  mark_superseded      - an older row that is already checked out is marked
                         historical; a newer occupancy has begun

The scan windows are asymmetric on purpose: the check-in corrections look
backward to kill stale advertising, while the housekeeping-done occupancy
check (engine.ReoccupiedAfter) looks forward to avoid overwriting a newer
cycle.
*/
package engine

import (
	"context"

	"github.com/innkeep/frontdesk/ledger"
)

// =============================================================================
// CLEAR STALE CLEANED STATUS
// =============================================================================

// ClearStaleCleaned clears the "cleaned, ready to rent" status from older
// rows of a freshly checked-in room.
type ClearStaleCleaned struct{}

func (ClearStaleCleaned) Name() string { return "clear_stale_cleaned" }

func (ClearStaleCleaned) React(ctx context.Context, l *ledger.Ledger, ev ledger.Event) error {
	checkedIn, ok := ev.(ledger.RoomCheckedIn)
	if !ok {
		return nil
	}
	for _, rec := range l.ForRoom(checkedIn.Room) {
		if rec.RowIndex >= checkedIn.Row {
			break
		}
		if rec.HKStatus != ledger.HKDoneText {
			continue
		}
		rec.HKStatus = ""
		if err := l.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// MARK SUPERSEDED ROWS HISTORICAL
// =============================================================================

// MarkSuperseded marks older checked-out rows of a freshly checked-in room
// as historical. Historical rows stay in the ledger forever; they are only
// excluded from current-state reasoning and flagged for display.
type MarkSuperseded struct{}

func (MarkSuperseded) Name() string { return "mark_superseded" }

func (MarkSuperseded) React(ctx context.Context, l *ledger.Ledger, ev ledger.Event) error {
	checkedIn, ok := ev.(ledger.RoomCheckedIn)
	if !ok {
		return nil
	}
	for _, rec := range l.ForRoom(checkedIn.Room) {
		if rec.RowIndex >= checkedIn.Row {
			break
		}
		if rec.Historical || !rec.IsCheckedOut() {
			continue
		}
		rec.Historical = true
		if err := l.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// FULL RESWEEP - Ledger-wide historical marking
// =============================================================================

// ResweepHistorical walks the whole ledger and marks every checked-out row
// that has a newer check-in for the same room. Used to repair a ledger
// whose markers drifted (bulk imports, manual edits outside the
// controller). Returns the number of rows marked.
func ResweepHistorical(ctx context.Context, l *ledger.Ledger) (int, error) {
	marked := 0
	for _, room := range l.Rooms() {
		recs := l.ForRoom(room)
		lastCheckIn := -1
		for i := len(recs) - 1; i >= 0; i-- {
			if recs[i].IsCheckedIn() {
				lastCheckIn = recs[i].RowIndex
				break
			}
		}
		if lastCheckIn < 0 {
			continue
		}
		for _, rec := range recs {
			if rec.RowIndex >= lastCheckIn || rec.Historical || !rec.IsCheckedOut() {
				continue
			}
			rec.Historical = true
			if err := l.Save(ctx, rec); err != nil {
				return marked, err
			}
			marked++
		}
	}
	return marked, nil
}
