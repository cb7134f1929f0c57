/*
Package lifecycle orchestrates booking state transitions per record.

PURPOSE:
  Every mutation of a BookingRecord flows through the Controller in
  response to a single field edit. The controller decides which transition
  the edit triggers, applies its side effects (idempotent timestamp
  stamping, quote recompute, housekeeping status, invoice generation,
  corrective events) and persists the result.

STATE MACHINE (per record, driven by field edits):
  New -> CheckedIn -> CheckedOut -> HousekeepingDone
  CheckedOut doubles as HousekeepingReady: checkout auto-enqueues cleaning.

PROTECTED FIELDS:
  Check-in time, check-out time, cleaned time, an already-assigned invoice
  number, and the total after checkout reject direct edits: the prior value
  stands and the caller gets a ProtectedFieldEditError.

ERROR ISOLATION:
  Edits arrive serialized from one event source; each edit is processed to
  completion and its failures never abort other edits. Side-effect failures
  (a reaction, invoice generation) are logged with room/row context and
  surfaced alongside the applied edit.
*/
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/innkeep/frontdesk/engine"
	"github.com/innkeep/frontdesk/invoice"
	"github.com/innkeep/frontdesk/ledger"
	"github.com/innkeep/frontdesk/quote"
	"github.com/innkeep/frontdesk/schema"
)

// =============================================================================
// CONTROLLER
// =============================================================================

type Controller struct {
	led        *ledger.Ledger
	sch        *schema.Schema
	calc       quote.Calculator
	invoices   *invoice.Service
	eng        *engine.Engine
	dispatcher *ledger.Dispatcher
	logger     *log.Logger
	now        func() time.Time
}

func New(led *ledger.Ledger, sch *schema.Schema, calc quote.Calculator, invoices *invoice.Service, eng *engine.Engine, opts ...Option) *Controller {
	c := &Controller{
		led:      led,
		sch:      sch,
		calc:     calc,
		invoices: invoices,
		eng:      eng,
		dispatcher: ledger.NewDispatcher(
			engine.ClearStaleCleaned{},
			engine.MarkSuperseded{},
		),
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*Controller)

// WithLogger overrides the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithDispatcher replaces the default corrective reactions.
func WithDispatcher(d *ledger.Dispatcher) Option {
	return func(c *Controller) { c.dispatcher = d }
}

// =============================================================================
// INTAKE
// =============================================================================

// Intake appends a new row, normalizing numeric inputs on the way in.
// Record creation itself is an external action; the controller only makes
// sure the row enters the ledger in canonical form.
func (c *Controller) Intake(ctx context.Context, rec ledger.BookingRecord) (ledger.BookingRecord, error) {
	rec.Nights = quote.ClampNights(rec.Nights)
	rec.TaxRate = c.calc.NormalizeTaxRate(rec.TaxRate)
	rec.Rate = ledger.Round2(rec.Rate)
	if c.quoteReady() && ledger.NormalizeRoom(rec.Room) != "" {
		rec.Subtotal, rec.Total = c.calc.Forward(rec.Rate, rec.Nights, rec.TaxRate)
	}
	return c.led.Append(ctx, rec)
}

// =============================================================================
// EDIT ENTRY POINTS
// =============================================================================

// ApplyCellEdit resolves a physical column position to its logical field
// and applies the edit. Edits to unmapped columns are ignored, matching the
// table contract: unknown columns hold free data the engine does not own.
func (c *Controller) ApplyCellEdit(ctx context.Context, row, col int, value string) (ledger.BookingRecord, error) {
	field, ok := c.sch.FieldAt(col)
	if !ok {
		return c.led.Get(row)
	}
	return c.ApplyEdit(ctx, row, field, value)
}

// ApplyEdit applies a single field edit to a row and runs the transition it
// triggers. The returned record reflects the ledger after the edit; when a
// side effect fails the edit itself still stands and the error carries the
// room/row/operation context.
func (c *Controller) ApplyEdit(ctx context.Context, row int, field schema.Field, value string) (ledger.BookingRecord, error) {
	rec, err := c.led.Get(row)
	if err != nil {
		return ledger.BookingRecord{}, err
	}

	switch field {
	case schema.FieldCheckInTime, schema.FieldCheckOutTime, schema.FieldCleanedTime:
		// Timestamps are stamped automatically, never edited.
		return rec, &ledger.ProtectedFieldEditError{
			Row:       row,
			Field:     string(field),
			Attempted: value,
			Reverted:  c.timestampText(rec, field),
		}

	case schema.FieldInvoiceNo:
		if rec.InvoiceNo != "" {
			// An invoice number is assigned at most once and never reused.
			return rec, &ledger.ProtectedFieldEditError{
				Row:       row,
				Field:     string(field),
				Attempted: value,
				Reverted:  rec.InvoiceNo,
			}
		}
		rec.InvoiceNo = strings.TrimSpace(value)
		return rec, c.led.Save(ctx, rec)

	case schema.FieldTotal:
		return c.editTotal(ctx, rec, value)

	case schema.FieldRate:
		rec.Rate = ledger.ParseNumber(value)
		return c.recalcAndSave(ctx, rec)

	case schema.FieldNights:
		rec.Nights = quote.ParseNights(value)
		return c.recalcAndSave(ctx, rec)

	case schema.FieldTaxRate:
		rec.TaxRate = c.calc.ParseTaxRate(value)
		return c.recalcAndSave(ctx, rec)

	case schema.FieldCheckIn:
		return c.editCheckIn(ctx, rec, value)

	case schema.FieldCheckOut:
		return c.editCheckOut(ctx, rec, value)

	case schema.FieldHKDone:
		return c.editHKDone(ctx, rec, value)

	case schema.FieldPaymentType:
		return c.editPaymentType(ctx, rec, value)

	default:
		c.setPlainField(&rec, field, value)
		return rec, c.led.Save(ctx, rec)
	}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// editTotal handles a direct edit of the tax-inclusive total: rejected after
// checkout, otherwise a numeric value triggers the backward calculation and
// takes precedence over any forward recompute.
func (c *Controller) editTotal(ctx context.Context, rec ledger.BookingRecord, value string) (ledger.BookingRecord, error) {
	if rec.IsCheckedOut() {
		return rec, &ledger.ProtectedFieldEditError{
			Row:       rec.RowIndex,
			Field:     string(schema.FieldTotal),
			Attempted: value,
			Reverted:  rec.Total.StringFixed(2),
		}
	}

	flat, ok := strictNumber(value)
	if !ok || !c.quoteReady() || ledger.NormalizeRoom(rec.Room) == "" {
		// Empty or non-numeric input never triggers the backward path.
		return rec, nil
	}

	rec.Nights = quote.ClampNights(rec.Nights)
	taxRate := c.calc.NormalizeTaxRate(rec.TaxRate)
	rec.Rate, rec.Subtotal, rec.Total = c.calc.Backward(flat, rec.Nights, taxRate)
	return rec, c.led.Save(ctx, rec)
}

// editCheckIn handles the New -> CheckedIn transition.
func (c *Controller) editCheckIn(ctx context.Context, rec ledger.BookingRecord, value string) (ledger.BookingRecord, error) {
	if !ledger.ParseYes(value) {
		rec.CheckedIn = false
		return rec, c.led.Save(ctx, rec)
	}

	rec.CheckedIn = true
	if rec.CheckInTime.IsZero() {
		rec.CheckInTime = c.now()
	}
	c.recalcForward(&rec)
	if err := c.led.Save(ctx, rec); err != nil {
		return rec, err
	}

	// Corrective pass over older rows of the same room.
	if room := ledger.NormalizeRoom(rec.Room); room != "" {
		if err := c.dispatcher.Dispatch(ctx, c.led, ledger.RoomCheckedIn{Room: room, Row: rec.RowIndex}); err != nil {
			c.logger.Printf("check-in room=%s row=%d: corrective pass: %v", room, rec.RowIndex, err)
			return rec, fmt.Errorf("check-in room %s row %d: %w", room, rec.RowIndex, err)
		}
	}
	c.logger.Printf("check-in processed room=%s row=%d", rec.Room, rec.RowIndex)
	return rec, nil
}

// editCheckOut handles CheckedIn -> CheckedOut. Checkout stamps the time,
// enqueues housekeeping, recomputes the quote, freezes the total and
// invokes invoice generation.
func (c *Controller) editCheckOut(ctx context.Context, rec ledger.BookingRecord, value string) (ledger.BookingRecord, error) {
	if !ledger.ParseYes(value) {
		rec.CheckedOut = false
		return rec, c.led.Save(ctx, rec)
	}

	rec.CheckedOut = true
	if rec.CheckOutTime.IsZero() {
		rec.CheckOutTime = c.now()
	}
	if c.sch.Has(schema.FieldHKStatus) {
		rec.HKStatus = ledger.HKReadyText
	}
	c.recalcForward(&rec)
	if err := c.led.Save(ctx, rec); err != nil {
		return rec, err
	}

	var errs []error
	updated, err := c.invoices.GenerateForRow(ctx, c.led, rec.RowIndex, false)
	if err != nil {
		// Invoice failure aborts the invoice for this record only; the
		// checkout itself stands.
		c.logger.Printf("check-out room=%s row=%d: invoice: %v", rec.Room, rec.RowIndex, err)
		errs = append(errs, fmt.Errorf("invoice for row %d: %w", rec.RowIndex, err))
	} else {
		rec = updated
	}

	if room := ledger.NormalizeRoom(rec.Room); room != "" {
		if err := c.dispatcher.Dispatch(ctx, c.led, ledger.RoomCheckedOut{Room: room, Row: rec.RowIndex}); err != nil {
			c.logger.Printf("check-out room=%s row=%d: %v", room, rec.RowIndex, err)
			errs = append(errs, err)
		}
	}
	c.logger.Printf("check-out processed room=%s row=%d", rec.Room, rec.RowIndex)
	return rec, errors.Join(errs...)
}

// editHKDone handles CheckedOut -> HousekeepingDone. Before advertising the
// room as ready it checks whether a newer row already re-occupied it; if
// so, the status is cleared instead of set.
func (c *Controller) editHKDone(ctx context.Context, rec ledger.BookingRecord, value string) (ledger.BookingRecord, error) {
	if !ledger.ParseYes(value) {
		rec.HKDone = false
		return rec, c.led.Save(ctx, rec)
	}

	rec.HKDone = true
	if c.sch.Has(schema.FieldCleanedTime) && rec.CleanedTime.IsZero() {
		rec.CleanedTime = c.now()
	}

	room := ledger.NormalizeRoom(rec.Room)
	if c.sch.Has(schema.FieldHKStatus) {
		if room != "" && c.eng.ReoccupiedAfter(room, rec.RowIndex) {
			// The room is already re-rented; advertising it as ready would
			// be false, so the status is cleared.
			rec.HKStatus = ""
		} else {
			rec.HKStatus = ledger.HKDoneText
		}
	}
	if err := c.led.Save(ctx, rec); err != nil {
		return rec, err
	}

	if room != "" {
		if err := c.dispatcher.Dispatch(ctx, c.led, ledger.RoomHousekeepingDone{Room: room, Row: rec.RowIndex}); err != nil {
			c.logger.Printf("hk-done room=%s row=%d: %v", room, rec.RowIndex, err)
			return rec, err
		}
	}
	c.logger.Printf("hk-done processed room=%s row=%d", rec.Room, rec.RowIndex)
	return rec, nil
}

func (c *Controller) editPaymentType(ctx context.Context, rec ledger.BookingRecord, value string) (ledger.BookingRecord, error) {
	rec.PaymentType = strings.TrimSpace(value)
	if rec.PaymentType != "" && !knownPaymentType(rec.PaymentType) {
		// Non-standard types are allowed, just noted.
		c.logger.Printf("non-standard payment type %q row=%d", rec.PaymentType, rec.RowIndex)
	}
	return rec, c.led.Save(ctx, rec)
}

// =============================================================================
// QUOTE RECOMPUTE
// =============================================================================

// recalcAndSave applies the forward calculation (unless the row is already
// checked out, whose total is frozen) and persists.
func (c *Controller) recalcAndSave(ctx context.Context, rec ledger.BookingRecord) (ledger.BookingRecord, error) {
	if !rec.IsCheckedOut() {
		c.recalcForward(&rec)
	}
	return rec, c.led.Save(ctx, rec)
}

// recalcForward derives subtotal and total in place. Skipped when the table
// is missing quote columns or the row has no room: a partially configured
// ledger degrades instead of failing.
func (c *Controller) recalcForward(rec *ledger.BookingRecord) {
	if !c.quoteReady() || ledger.NormalizeRoom(rec.Room) == "" {
		return
	}
	rec.Nights = quote.ClampNights(rec.Nights)
	taxRate := c.calc.NormalizeTaxRate(rec.TaxRate)
	rec.Subtotal, rec.Total = c.calc.Forward(rec.Rate, rec.Nights, taxRate)
}

func (c *Controller) quoteReady() bool {
	for _, f := range []schema.Field{
		schema.FieldRoom, schema.FieldRate, schema.FieldNights,
		schema.FieldSubtotal, schema.FieldTotal, schema.FieldTaxRate,
	} {
		if !c.sch.Has(f) {
			return false
		}
	}
	return true
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Controller) setPlainField(rec *ledger.BookingRecord, field schema.Field, value string) {
	v := strings.TrimSpace(value)
	switch field {
	case schema.FieldDate:
		rec.Date = v
	case schema.FieldRoom:
		rec.Room = v
	case schema.FieldGuest:
		rec.Guest = v
	case schema.FieldSubtotal:
		rec.Subtotal = ledger.Round2(ledger.ParseNumber(v))
	case schema.FieldHKStatus:
		rec.HKStatus = v
	case schema.FieldDeskNotes:
		rec.DeskNotes = v
	case schema.FieldHKNotes:
		rec.HKNotes = v
	case schema.FieldGuestEmail:
		rec.GuestEmail = v
	case schema.FieldProcessor:
		rec.Processor = v
	case schema.FieldReceipt:
		rec.Receipt = v
	case schema.FieldCardLast4:
		rec.CardLast4 = v
	case schema.FieldAuthCode:
		rec.AuthCode = v
	case schema.FieldInvoiceStatus:
		rec.InvoiceStatus = strings.ToUpper(v)
	case schema.FieldInvoiceURL:
		rec.InvoiceURL = v
	}
}

func (c *Controller) timestampText(rec ledger.BookingRecord, field schema.Field) string {
	var t time.Time
	switch field {
	case schema.FieldCheckInTime:
		t = rec.CheckInTime
	case schema.FieldCheckOutTime:
		t = rec.CheckOutTime
	case schema.FieldCleanedTime:
		t = rec.CleanedTime
	}
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// strictNumber parses a cell value and reports whether it carried an actual
// number, unlike ParseNumber which coerces garbage to zero.
func strictNumber(v string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func knownPaymentType(v string) bool {
	lower := strings.ToLower(v)
	for _, pt := range ledger.PaymentTypes {
		if strings.Contains(lower, strings.ToLower(pt)) || strings.Contains(strings.ToLower(pt), lower) {
			return true
		}
	}
	return false
}
