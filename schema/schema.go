/*
Package schema maps the logical field set onto physical column positions.

PURPOSE:
  The front-desk table is header-driven: column order is not contractual,
  headers get renamed, and optional columns may be missing entirely. This
  package resolves each logical field against the actual header row once,
  and every consumer receives the resolved Schema instead of re-deriving
  positions ad hoc.

MATCHING ORDER:
  1. Exact header match
  2. Case-insensitive match
  3. Alias table (known rename cases, e.g. "Checkout" / "Check Out")

DEGRADATION:
  A field that cannot be resolved is absent, not an error. Consumers check
  Has() and skip the dependent behavior. Only operations that genuinely
  require a field report ledger.ErrSchemaMissing.

SEE ALSO:
  - repair.go: Idempotent header repair for known broken states
*/
package schema

import "strings"

// =============================================================================
// LOGICAL FIELDS
// =============================================================================

// Field is a logical field name, stable across header renames.
type Field string

const (
	FieldDate          Field = "date"
	FieldRoom          Field = "room"
	FieldGuest         Field = "guest"
	FieldRate          Field = "rate"
	FieldNights        Field = "nights"
	FieldSubtotal      Field = "subtotal"
	FieldTotal         Field = "total"
	FieldPaymentType   Field = "payment_type"
	FieldCheckIn       Field = "check_in"
	FieldCheckInTime   Field = "check_in_time"
	FieldCheckOut      Field = "check_out"
	FieldCheckOutTime  Field = "check_out_time"
	FieldHKStatus      Field = "hk_status"
	FieldHKDone        Field = "hk_done"
	FieldCleanedTime   Field = "cleaned_time"
	FieldDeskNotes     Field = "desk_notes"
	FieldHKNotes       Field = "hk_notes"
	FieldTaxRate       Field = "tax_rate"
	FieldGuestEmail    Field = "guest_email"
	FieldProcessor     Field = "processor"
	FieldReceipt       Field = "receipt"
	FieldCardLast4     Field = "card_last4"
	FieldAuthCode      Field = "auth_code"
	FieldInvoiceNo     Field = "invoice_no"
	FieldInvoiceStatus Field = "invoice_status"
	FieldInvoiceURL    Field = "invoice_url"
)

// =============================================================================
// DESCRIPTORS - Canonical header, aliases, required flag per field
// =============================================================================

// Descriptor declares how one logical field appears in the table.
type Descriptor struct {
	Field    Field
	Header   string // canonical header text
	Aliases  []string
	Required bool
}

// Descriptors returns the full field list of the table contract. Required
// fields are the minimum for quote calculation and lifecycle transitions;
// everything else degrades gracefully when absent.
func Descriptors() []Descriptor {
	return []Descriptor{
		{Field: FieldDate, Header: "Date"},
		{Field: FieldRoom, Header: "Room #", Required: true},
		{Field: FieldGuest, Header: "Full Name", Aliases: []string{"Name"}, Required: true},
		{Field: FieldRate, Header: "Amount", Required: true},
		{Field: FieldNights, Header: "Number of Night(s)", Aliases: []string{"Quoted Nights"}, Required: true},
		{Field: FieldSubtotal, Header: "Subtotal", Required: true},
		{Field: FieldTotal, Header: "Total With Tax", Required: true},
		{Field: FieldPaymentType, Header: "Payment Type"},
		{Field: FieldCheckIn, Header: "CheckIn", Aliases: []string{"Checkin", "Check In"}, Required: true},
		{Field: FieldCheckInTime, Header: "CheckInTime", Required: true},
		{Field: FieldCheckOut, Header: "CheckOut", Aliases: []string{"Checkout", "Check Out"}, Required: true},
		{Field: FieldCheckOutTime, Header: "CheckOutTime", Required: true},
		{Field: FieldHKStatus, Header: "HK Status"},
		{Field: FieldHKDone, Header: "HK Done"},
		{Field: FieldCleanedTime, Header: "CleanedTime"},
		{Field: FieldDeskNotes, Header: "Desk Notes"},
		{Field: FieldHKNotes, Header: "HK Notes"},
		{Field: FieldTaxRate, Header: "Tax Rate", Required: true},
		{Field: FieldGuestEmail, Header: "Guest Email"},
		{Field: FieldProcessor, Header: "Payment Processor"},
		{Field: FieldReceipt, Header: "Processor Receipt #"},
		{Field: FieldCardLast4, Header: "Card Last4"},
		{Field: FieldAuthCode, Header: "Auth Code"},
		{Field: FieldInvoiceNo, Header: "Invoice #"},
		{Field: FieldInvoiceStatus, Header: "Invoice Status", Aliases: []string{"VOID"}},
		{Field: FieldInvoiceURL, Header: "Invoice PDF URL"},
	}
}

// CanonicalHeaders returns the canonical header row, one column per field in
// descriptor order. Used to seed a fresh table.
func CanonicalHeaders() []string {
	descs := Descriptors()
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = d.Header
	}
	return out
}

// =============================================================================
// SCHEMA - Resolved field -> column mapping
// =============================================================================

// Schema maps logical fields to 1-based column positions. Absent fields map
// to nothing; callers check Has or the second return of Column.
type Schema struct {
	positions map[Field]int
	byColumn  map[int]Field
}

// Resolve matches every descriptor against the header row. Headers are
// trimmed before matching. Fields with no match are absent.
func Resolve(headers []string) *Schema {
	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}

	s := &Schema{
		positions: make(map[Field]int),
		byColumn:  make(map[int]Field),
	}
	for _, d := range Descriptors() {
		if col := matchHeader(trimmed, d); col > 0 {
			s.positions[d.Field] = col
			s.byColumn[col] = d.Field
		}
	}
	return s
}

func matchHeader(headers []string, d Descriptor) int {
	// Exact match first.
	for i, h := range headers {
		if h == d.Header {
			return i + 1
		}
	}
	// Case-insensitive.
	for i, h := range headers {
		if strings.EqualFold(h, d.Header) {
			return i + 1
		}
	}
	// Known rename aliases, case-insensitive.
	for _, alias := range d.Aliases {
		for i, h := range headers {
			if strings.EqualFold(h, alias) {
				return i + 1
			}
		}
	}
	return 0
}

// Column returns the 1-based column of a field, or false if absent.
func (s *Schema) Column(f Field) (int, bool) {
	col, ok := s.positions[f]
	return col, ok
}

// Has reports whether the field resolved to a column.
func (s *Schema) Has(f Field) bool {
	_, ok := s.positions[f]
	return ok
}

// FieldAt returns the logical field mapped to a 1-based column, if any.
func (s *Schema) FieldAt(col int) (Field, bool) {
	f, ok := s.byColumn[col]
	return f, ok
}

// MissingRequired lists required fields that did not resolve.
func (s *Schema) MissingRequired() []Field {
	var missing []Field
	for _, d := range Descriptors() {
		if d.Required && !s.Has(d.Field) {
			missing = append(missing, d.Field)
		}
	}
	return missing
}
