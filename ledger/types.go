/*
Package ledger provides the core front-desk ledger model.

PURPOSE:
  This package contains the domain types and the append-only booking ledger
  shared by every other component. One BookingRecord corresponds to one row
  of the front-desk log; row order is the only reliable recency signal
  (dates are user-entered and cannot be trusted for ordering).

KEY CONCEPTS IN THIS FILE (types.go):
  - BookingRecord: One ledger row with every logical field of the table
  - RoomStatus: Derived occupancy state (never stored)
  - NormalizeRoom: Canonical room identity ("05", " 5 " and "5" are one room)
  - ParseYes/ParseNumber: Tolerant coercion of user-entered cell values

DESIGN PRINCIPLES:
  1. Rows are never deleted: superseded rows are marked Historical
  2. Precision: money fields use decimal.Decimal, rounded to 2 places
  3. Timestamps are stamped once and never overwritten automatically
  4. Derived state (RoomStatus) is always recomputed, never persisted

SEE ALSO:
  - ledger.go: The append-only record arena with its per-room index
  - events.go: Domain events dispatched on lifecycle transitions
  - errors.go: Sentinel and structured error types
*/
package ledger

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROOM STATUS - Derived occupancy state (computed on demand, never stored)
// =============================================================================

type RoomStatus string

const (
	RoomAvailable        RoomStatus = "Available"
	RoomOccupied         RoomStatus = "Occupied"
	RoomReadyForCleaning RoomStatus = "Ready for Cleaning"

	// RoomCleaned is a momentary state: once housekeeping is done the room
	// folds back to Available for derivation purposes.
	RoomCleaned RoomStatus = "Cleaned"
)

// =============================================================================
// HOUSEKEEPING STATUS TEXT - Closed set of free-text values
// =============================================================================

const (
	HKReadyText = "Ready for Cleaning"
	HKDoneText  = "Cleaned - ReadyFor Rent"
)

// Invoice status values. An invoice number is never reused, even after VOID.
const (
	InvoicePaid = "PAID"
	InvoiceVoid = "VOID"
)

// Recognized payment types. Non-standard values are allowed but logged.
var PaymentTypes = []string{"Cash", "Credit Card", "Debit Card", "Check", "Other"}

// =============================================================================
// MAINTENANCE OVERRIDE - External feed, display precedence only
// =============================================================================

// Override is a maintenance status supplied by the external room-master
// feed. A non-Available override takes precedence over the derived room
// status for display purposes only; it never affects booking logic.
type Override string

const (
	OverrideAvailable    Override = "Available"
	OverrideMaintenance  Override = "Maintenance"
	OverrideConstruction Override = "Construction"
	OverrideOutOfOrder   Override = "Out of Order"
	OverrideRepair       Override = "Repair"
)

// ParseOverride maps free-text feed values onto the known override set.
// Unrecognized non-empty values pass through trimmed.
func ParseOverride(v string) Override {
	s := strings.ToLower(strings.TrimSpace(v))
	switch {
	case s == "":
		return OverrideAvailable
	case strings.Contains(s, "maintenance"):
		return OverrideMaintenance
	case strings.Contains(s, "construction"):
		return OverrideConstruction
	case strings.Contains(s, "out of order"):
		return OverrideOutOfOrder
	case strings.Contains(s, "repair"):
		return OverrideRepair
	case strings.Contains(s, "available"):
		return OverrideAvailable
	}
	return Override(strings.TrimSpace(v))
}

// =============================================================================
// BOOKING RECORD - One ledger row
// =============================================================================

// BookingRecord is a single row of the front-desk log. RowIndex is assigned
// on append and is strictly increasing; it is the authoritative ordering.
type BookingRecord struct {
	RowIndex int

	Date  string // user-entered, unreliable; kept verbatim
	Room  string
	Guest string

	Rate     decimal.Decimal // per-night
	Nights   int
	TaxRate  decimal.Decimal // fraction 0..1
	Subtotal decimal.Decimal // derived
	Total    decimal.Decimal // derived, frozen after checkout

	PaymentType string

	CheckedIn    bool
	CheckInTime  time.Time // zero = unset; stamped once
	CheckedOut   bool
	CheckOutTime time.Time

	HKStatus    string // "", HKReadyText or HKDoneText
	HKDone      bool
	CleanedTime time.Time

	DeskNotes string
	HKNotes   string

	GuestEmail string
	Processor  string
	Receipt    string
	CardLast4  string
	AuthCode   string

	InvoiceNo     string // assigned at most once
	InvoiceStatus string // "", PAID or VOID
	InvoiceURL    string

	// Historical marks a superseded row: kept for audit, semantically inert.
	Historical bool
}

// IsCheckedIn reports whether the row has a check-in, counting either the
// flag or a stamped check-in time as evidence.
func (r BookingRecord) IsCheckedIn() bool {
	return r.CheckedIn || !r.CheckInTime.IsZero()
}

// IsCheckedOut reports whether the row has a check-out, counting either the
// flag or a stamped check-out time.
func (r BookingRecord) IsCheckedOut() bool {
	return r.CheckedOut || !r.CheckOutTime.IsZero()
}

// CheckedInActive reports whether the row represents a current occupancy:
// checked in and not yet checked out.
func (r BookingRecord) CheckedInActive() bool {
	return r.IsCheckedIn() && !r.IsCheckedOut()
}

// =============================================================================
// VALUE NORMALIZATION - Tolerant coercion of user-entered cells
// =============================================================================

var leadingZeros = regexp.MustCompile(`^0+`)

// NormalizeRoom canonicalizes a room label: trim whitespace, strip leading
// zeros. "05", " 5 " and "5" all normalize to "5". When two visually
// different labels collide after normalization they are the same room; this
// is intended behavior, not an error.
func NormalizeRoom(room string) string {
	return leadingZeros.ReplaceAllString(strings.TrimSpace(room), "")
}

// ParseYes interprets a checkbox-like cell value.
func ParseYes(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// ParseNumber coerces a cell value to a decimal, stripping currency symbols
// and separators. Blank or unparseable input coerces to zero rather than
// failing; a garbled cell must never take the whole ledger down.
func ParseNumber(v string) decimal.Decimal {
	cleaned := nonNumeric.ReplaceAllString(strings.TrimSpace(v), "")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds a money value to 2 decimal places. Money is rounded at each
// derivation step, not only at the end.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
