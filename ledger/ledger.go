/*
ledger.go - Append-only booking ledger with a per-room index

PURPOSE:
  The Ledger is the sole data store: an arena of BookingRecords in strict
  insertion order plus a secondary index from normalized room identity to
  the ordered positions of that room's records. "Most recent" and
  "superseded" relationships are first-class lookups instead of full-table
  rescans.

CRITICAL INVARIANTS:
  1. APPEND-ONLY at row level: rows are never deleted, only marked Historical
  2. RowIndex is assigned on append and strictly increasing
  3. Rows with an empty room identifier are excluded from every room scan
  4. Field mutation goes through Save (the lifecycle controller); intake
     appends a new row

CONCURRENCY:
  Edits arrive serialized from a single event source, but HTTP reads can
  overlap them, so the arena is guarded by an RWMutex. This is belt and
  braces, not a consistency mechanism.

SEE ALSO:
  - store/memory.go: In-memory Store for tests
  - store/sqlite:    Persistent Store
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// =============================================================================
// STORE - Persistence interface (append + field update, no delete)
// =============================================================================

// Store persists ledger rows. There is deliberately no Delete: history is
// permanent.
type Store interface {
	// LoadAll returns every row ordered by row index.
	LoadAll(ctx context.Context) ([]BookingRecord, error)

	// Insert persists a new row.
	Insert(ctx context.Context, rec BookingRecord) error

	// Update persists field changes to an existing row, addressed by RowIndex.
	Update(ctx context.Context, rec BookingRecord) error

	// LoadHeaders returns the persisted header row of the backing table.
	LoadHeaders(ctx context.Context) ([]string, error)

	// SaveHeaders replaces the persisted header row. Never reorders columns.
	SaveHeaders(ctx context.Context, headers []string) error
}

// =============================================================================
// LEDGER - Record arena + room index
// =============================================================================

type Ledger struct {
	mu      sync.RWMutex
	store   Store
	records []BookingRecord // arena; position = RowIndex - 1
	byRoom  map[string][]int // normalized room -> ascending arena positions
}

// Open loads the full ledger from the store and builds the room index.
func Open(ctx context.Context, store Store) (*Ledger, error) {
	records, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	l := &Ledger{
		store:   store,
		records: records,
		byRoom:  make(map[string][]int),
	}
	for pos, rec := range records {
		l.indexLocked(pos, rec.Room)
	}
	return l, nil
}

func (l *Ledger) indexLocked(pos int, room string) {
	key := NormalizeRoom(room)
	if key == "" {
		return
	}
	l.byRoom[key] = append(l.byRoom[key], pos)
}

func (l *Ledger) unindexLocked(pos int, room string) {
	key := NormalizeRoom(room)
	if key == "" {
		return
	}
	positions := l.byRoom[key]
	for i, p := range positions {
		if p == pos {
			l.byRoom[key] = append(positions[:i], positions[i+1:]...)
			return
		}
	}
}

// Append adds a new row, assigning the next RowIndex.
func (l *Ledger) Append(ctx context.Context, rec BookingRecord) (BookingRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec.RowIndex = len(l.records) + 1
	if err := l.store.Insert(ctx, rec); err != nil {
		return BookingRecord{}, fmt.Errorf("append row %d: %w", rec.RowIndex, err)
	}
	l.records = append(l.records, rec)
	l.indexLocked(rec.RowIndex-1, rec.Room)
	return rec, nil
}

// Get returns the row at the given index.
func (l *Ledger) Get(row int) (BookingRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if row < 1 || row > len(l.records) {
		return BookingRecord{}, fmt.Errorf("row %d: %w", row, ErrRowNotFound)
	}
	return l.records[row-1], nil
}

// Save persists field changes to an existing row. If the room identifier
// changed, the room index is updated accordingly.
func (l *Ledger) Save(ctx context.Context, rec BookingRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.RowIndex < 1 || rec.RowIndex > len(l.records) {
		return fmt.Errorf("row %d: %w", rec.RowIndex, ErrRowNotFound)
	}
	if err := l.store.Update(ctx, rec); err != nil {
		return fmt.Errorf("save row %d: %w", rec.RowIndex, err)
	}

	pos := rec.RowIndex - 1
	prev := l.records[pos]
	if NormalizeRoom(prev.Room) != NormalizeRoom(rec.Room) {
		l.unindexLocked(pos, prev.Room)
		l.indexLocked(pos, rec.Room)
	}
	l.records[pos] = rec
	return nil
}

// Len returns the number of rows.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// All returns a copy of every row in insertion order.
func (l *Ledger) All() []BookingRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]BookingRecord, len(l.records))
	copy(out, l.records)
	return out
}

// ForRoom returns the records sharing the given room identity, ascending by
// row index. The room is matched after normalization.
func (l *Ledger) ForRoom(room string) []BookingRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	positions := l.byRoom[NormalizeRoom(room)]
	out := make([]BookingRecord, 0, len(positions))
	for _, pos := range positions {
		out = append(out, l.records[pos])
	}
	return out
}

// Rooms returns every normalized room identity present in the ledger.
func (l *Ledger) Rooms() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rooms := make([]string, 0, len(l.byRoom))
	for room := range l.byRoom {
		rooms = append(rooms, room)
	}
	return rooms
}

// GuestHistory returns every row whose guest name contains the search term,
// case-insensitively, in insertion order.
func (l *Ledger) GuestHistory(term string) []BookingRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}
	var out []BookingRecord
	for _, rec := range l.records {
		if strings.Contains(strings.ToLower(rec.Guest), needle) {
			out = append(out, rec)
		}
	}
	return out
}
