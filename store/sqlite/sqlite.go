/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements every persistence interface of the front desk (ledger.Store,
  the invoice counter store, the room override feed) on a single SQLite
  file. The same patterns apply to PostgreSQL with minor dialect changes.

INTERFACES IMPLEMENTED:
  ledger.Store:         Booking rows + the persisted header row
  invoice.CounterStore: Monotonic named counters (invoice sequence)
  engine.OverrideFeed:  Room maintenance overrides

APPEND-ONLY ENFORCEMENT:
  booking_records carries no DELETE path. Rows are inserted once and then
  updated in place field by field; supersession is expressed by the
  historical flag, never by removal.

KEY TABLES:
  booking_records: One row per ledger row, keyed by row_index
  headers:         The persisted header row, one title per column position
  counters:        Named monotonic counters
  room_overrides:  Maintenance overrides keyed by normalized room

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; SQLite is opened with WAL so
  readers do not block the single writer.

USAGE:
  st, err := sqlite.New("./data/frontdesk.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  led, err := ledger.Open(ctx, st)

SEE ALSO:
  - ledger/ledger.go:       The Store interface and the arena built on it
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/innkeep/frontdesk/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Booking rows (append-only at row level; fields update in place)
	CREATE TABLE IF NOT EXISTS booking_records (
		row_index      INTEGER PRIMARY KEY,
		booking_date   TEXT NOT NULL DEFAULT '',
		room           TEXT NOT NULL DEFAULT '',
		room_key       TEXT NOT NULL DEFAULT '',
		guest          TEXT NOT NULL DEFAULT '',
		rate           TEXT NOT NULL DEFAULT '0',
		nights         INTEGER NOT NULL DEFAULT 1,
		tax_rate       TEXT NOT NULL DEFAULT '0',
		subtotal       TEXT NOT NULL DEFAULT '0',
		total          TEXT NOT NULL DEFAULT '0',
		payment_type   TEXT NOT NULL DEFAULT '',
		checked_in     BOOLEAN NOT NULL DEFAULT FALSE,
		check_in_time  TEXT,
		checked_out    BOOLEAN NOT NULL DEFAULT FALSE,
		check_out_time TEXT,
		hk_status      TEXT NOT NULL DEFAULT '',
		hk_done        BOOLEAN NOT NULL DEFAULT FALSE,
		cleaned_time   TEXT,
		desk_notes     TEXT NOT NULL DEFAULT '',
		hk_notes       TEXT NOT NULL DEFAULT '',
		guest_email    TEXT NOT NULL DEFAULT '',
		processor      TEXT NOT NULL DEFAULT '',
		receipt        TEXT NOT NULL DEFAULT '',
		card_last4     TEXT NOT NULL DEFAULT '',
		auth_code      TEXT NOT NULL DEFAULT '',
		invoice_no     TEXT NOT NULL DEFAULT '',
		invoice_status TEXT NOT NULL DEFAULT '',
		invoice_url    TEXT NOT NULL DEFAULT '',
		historical     BOOLEAN NOT NULL DEFAULT FALSE
	);

	-- Room scans go through the normalized key, never the raw label
	CREATE INDEX IF NOT EXISTS idx_booking_records_room_key
		ON booking_records(room_key) WHERE room_key != '';

	CREATE INDEX IF NOT EXISTS idx_booking_records_guest
		ON booking_records(guest) WHERE guest != '';

	-- Persisted header row of the backing table, one title per position
	CREATE TABLE IF NOT EXISTS headers (
		position INTEGER PRIMARY KEY,
		title    TEXT NOT NULL
	);

	-- Named monotonic counters (invoice sequence)
	CREATE TABLE IF NOT EXISTS counters (
		name  TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0
	);

	-- Maintenance overrides from the room master, keyed by normalized room
	CREATE TABLE IF NOT EXISTS room_overrides (
		room       TEXT PRIMARY KEY,
		status     TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BOOKING ROWS (ledger.Store interface)
// =============================================================================

const recordColumns = `row_index, booking_date, room, guest, rate, nights, tax_rate,
	subtotal, total, payment_type, checked_in, check_in_time, checked_out,
	check_out_time, hk_status, hk_done, cleaned_time, desk_notes, hk_notes,
	guest_email, processor, receipt, card_last4, auth_code, invoice_no,
	invoice_status, invoice_url, historical`

// LoadAll returns every booking row ordered by row index.
func (s *Store) LoadAll(ctx context.Context) ([]ledger.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + recordColumns + `
		FROM booking_records
		ORDER BY row_index ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking rows: %w", err)
	}
	defer rows.Close()

	var records []ledger.BookingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Insert persists a new booking row.
func (s *Store) Insert(ctx context.Context, rec ledger.BookingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO booking_records
		(row_index, booking_date, room, room_key, guest, rate, nights, tax_rate,
		 subtotal, total, payment_type, checked_in, check_in_time, checked_out,
		 check_out_time, hk_status, hk_done, cleaned_time, desk_notes, hk_notes,
		 guest_email, processor, receipt, card_last4, auth_code, invoice_no,
		 invoice_status, invoice_url, historical)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, recordArgs(rec)...); err != nil {
		return fmt.Errorf("failed to insert row %d: %w", rec.RowIndex, err)
	}
	return nil
}

// Update persists field changes to an existing row, addressed by RowIndex.
func (s *Store) Update(ctx context.Context, rec ledger.BookingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE booking_records SET
			booking_date = ?, room = ?, room_key = ?, guest = ?, rate = ?,
			nights = ?, tax_rate = ?, subtotal = ?, total = ?, payment_type = ?,
			checked_in = ?, check_in_time = ?, checked_out = ?, check_out_time = ?,
			hk_status = ?, hk_done = ?, cleaned_time = ?, desk_notes = ?,
			hk_notes = ?, guest_email = ?, processor = ?, receipt = ?,
			card_last4 = ?, auth_code = ?, invoice_no = ?, invoice_status = ?,
			invoice_url = ?, historical = ?
		WHERE row_index = ?
	`

	args := append(recordArgs(rec)[1:], rec.RowIndex)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update row %d: %w", rec.RowIndex, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("row %d: %w", rec.RowIndex, ledger.ErrRowNotFound)
	}
	return nil
}

func recordArgs(rec ledger.BookingRecord) []any {
	return []any{
		rec.RowIndex,
		rec.Date,
		rec.Room,
		ledger.NormalizeRoom(rec.Room),
		rec.Guest,
		rec.Rate.String(),
		rec.Nights,
		rec.TaxRate.String(),
		rec.Subtotal.String(),
		rec.Total.String(),
		rec.PaymentType,
		rec.CheckedIn,
		nullTime(rec.CheckInTime),
		rec.CheckedOut,
		nullTime(rec.CheckOutTime),
		rec.HKStatus,
		rec.HKDone,
		nullTime(rec.CleanedTime),
		rec.DeskNotes,
		rec.HKNotes,
		rec.GuestEmail,
		rec.Processor,
		rec.Receipt,
		rec.CardLast4,
		rec.AuthCode,
		rec.InvoiceNo,
		rec.InvoiceStatus,
		rec.InvoiceURL,
		rec.Historical,
	}
}

func scanRecord(rows *sql.Rows) (ledger.BookingRecord, error) {
	var (
		rec          ledger.BookingRecord
		rate         string
		taxRate      string
		subtotal     string
		total        string
		checkInTime  sql.NullString
		checkOutTime sql.NullString
		cleanedTime  sql.NullString
	)

	err := rows.Scan(
		&rec.RowIndex, &rec.Date, &rec.Room, &rec.Guest, &rate, &rec.Nights,
		&taxRate, &subtotal, &total, &rec.PaymentType, &rec.CheckedIn,
		&checkInTime, &rec.CheckedOut, &checkOutTime, &rec.HKStatus,
		&rec.HKDone, &cleanedTime, &rec.DeskNotes, &rec.HKNotes,
		&rec.GuestEmail, &rec.Processor, &rec.Receipt, &rec.CardLast4,
		&rec.AuthCode, &rec.InvoiceNo, &rec.InvoiceStatus, &rec.InvoiceURL,
		&rec.Historical,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan booking row: %w", err)
	}

	rec.Rate = parseDecimal(rate)
	rec.TaxRate = parseDecimal(taxRate)
	rec.Subtotal = parseDecimal(subtotal)
	rec.Total = parseDecimal(total)
	rec.CheckInTime = parseTime(checkInTime)
	rec.CheckOutTime = parseTime(checkOutTime)
	rec.CleanedTime = parseTime(cleanedTime)
	return rec, nil
}

// =============================================================================
// HEADER ROW
// =============================================================================

// LoadHeaders returns the persisted header row in column order.
func (s *Store) LoadHeaders(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT title FROM headers ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query headers: %w", err)
	}
	defer rows.Close()

	var headers []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		headers = append(headers, title)
	}
	return headers, rows.Err()
}

// SaveHeaders replaces the persisted header row. Column positions are
// preserved exactly as given; titles are never reordered.
func (s *Store) SaveHeaders(ctx context.Context, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM headers"); err != nil {
		return err
	}
	for pos, title := range headers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO headers (position, title) VALUES (?, ?)", pos, title); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// COUNTERS (invoice.CounterStore interface)
// =============================================================================

// LoadCounter returns the current value of a named counter, zero if absent.
func (s *Store) LoadCounter(ctx context.Context, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM counters WHERE name = ?", name).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load counter %s: %w", name, err)
	}
	return value, nil
}

// SaveCounter persists a counter value.
func (s *Store) SaveCounter(ctx context.Context, name string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO counters (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to save counter %s: %w", name, err)
	}
	return nil
}

// =============================================================================
// ROOM OVERRIDES (engine.OverrideFeed interface)
// =============================================================================

// Overrides returns every active maintenance override keyed by normalized
// room.
func (s *Store) Overrides(ctx context.Context) (map[string]ledger.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT room, status FROM room_overrides")
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ledger.Override)
	for rows.Next() {
		var room, status string
		if err := rows.Scan(&room, &status); err != nil {
			return nil, err
		}
		out[room] = ledger.Override(status)
	}
	return out, rows.Err()
}

// SetOverride records a maintenance override, keyed by normalized room.
// Setting Available clears the override.
func (s *Store) SetOverride(ctx context.Context, room string, status ledger.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledger.NormalizeRoom(room)
	if key == "" {
		return fmt.Errorf("set override: empty room")
	}

	if status == ledger.OverrideAvailable {
		_, err := s.db.ExecContext(ctx,
			"DELETE FROM room_overrides WHERE room = ?", key)
		return err
	}

	query := `
		INSERT INTO room_overrides (room, status, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(room) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, key, string(status),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"booking_records", "headers", "counters", "room_overrides"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s.String)
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
