/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  JSON shapes exchanged with clients. DTOs are deliberately separate from
  the domain types: money renders as fixed 2-decimal strings, timestamps
  as RFC3339, and zero timestamps as absent fields.

SEE ALSO:
  - handlers.go: Handler implementations using these DTOs
*/
package api

import (
	"time"

	"github.com/innkeep/frontdesk/engine"
	"github.com/innkeep/frontdesk/ledger"
	"github.com/innkeep/frontdesk/lifecycle"
)

// =============================================================================
// BOOKING RECORDS
// =============================================================================

// RecordDTO is one ledger row as exposed over HTTP.
type RecordDTO struct {
	Row   int    `json:"row"`
	Date  string `json:"date,omitempty"`
	Room  string `json:"room"`
	Guest string `json:"guest"`

	Rate     string `json:"rate"`
	Nights   int    `json:"nights"`
	TaxRate  string `json:"tax_rate"`
	Subtotal string `json:"subtotal"`
	Total    string `json:"total"`

	PaymentType string `json:"payment_type,omitempty"`

	CheckedIn    bool   `json:"checked_in"`
	CheckInTime  string `json:"check_in_time,omitempty"`
	CheckedOut   bool   `json:"checked_out"`
	CheckOutTime string `json:"check_out_time,omitempty"`

	HKStatus    string `json:"hk_status,omitempty"`
	HKDone      bool   `json:"hk_done"`
	CleanedTime string `json:"cleaned_time,omitempty"`

	DeskNotes string `json:"desk_notes,omitempty"`
	HKNotes   string `json:"hk_notes,omitempty"`

	GuestEmail string `json:"guest_email,omitempty"`
	Processor  string `json:"processor,omitempty"`
	Receipt    string `json:"receipt,omitempty"`
	CardLast4  string `json:"card_last4,omitempty"`
	AuthCode   string `json:"auth_code,omitempty"`

	InvoiceNo     string `json:"invoice_no,omitempty"`
	InvoiceStatus string `json:"invoice_status,omitempty"`
	InvoiceURL    string `json:"invoice_url,omitempty"`

	Historical bool `json:"historical,omitempty"`
}

func toRecordDTO(rec ledger.BookingRecord) RecordDTO {
	return RecordDTO{
		Row:           rec.RowIndex,
		Date:          rec.Date,
		Room:          rec.Room,
		Guest:         rec.Guest,
		Rate:          rec.Rate.StringFixed(2),
		Nights:        rec.Nights,
		TaxRate:       rec.TaxRate.String(),
		Subtotal:      rec.Subtotal.StringFixed(2),
		Total:         rec.Total.StringFixed(2),
		PaymentType:   rec.PaymentType,
		CheckedIn:     rec.CheckedIn,
		CheckInTime:   formatTime(rec.CheckInTime),
		CheckedOut:    rec.CheckedOut,
		CheckOutTime:  formatTime(rec.CheckOutTime),
		HKStatus:      rec.HKStatus,
		HKDone:        rec.HKDone,
		CleanedTime:   formatTime(rec.CleanedTime),
		DeskNotes:     rec.DeskNotes,
		HKNotes:       rec.HKNotes,
		GuestEmail:    rec.GuestEmail,
		Processor:     rec.Processor,
		Receipt:       rec.Receipt,
		CardLast4:     rec.CardLast4,
		AuthCode:      rec.AuthCode,
		InvoiceNo:     rec.InvoiceNo,
		InvoiceStatus: rec.InvoiceStatus,
		InvoiceURL:    rec.InvoiceURL,
		Historical:    rec.Historical,
	}
}

func toRecordDTOs(recs []ledger.BookingRecord) []RecordDTO {
	dtos := make([]RecordDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toRecordDTO(rec)
	}
	return dtos
}

// CreateRecordRequest is the intake payload for a new booking row. Numeric
// fields arrive as strings exactly as typed; the engine coerces them.
type CreateRecordRequest struct {
	Date        string `json:"date"`
	Room        string `json:"room"`
	Guest       string `json:"guest"`
	Rate        string `json:"rate"`
	Nights      string `json:"nights"`
	TaxRate     string `json:"tax_rate"`
	PaymentType string `json:"payment_type"`
	GuestEmail  string `json:"guest_email"`
	DeskNotes   string `json:"desk_notes"`
}

// EditRequest is a single cell edit: the field is addressed either by its
// logical name or by physical column position (1-based).
type EditRequest struct {
	Field  string `json:"field,omitempty"`
	Column *int   `json:"column,omitempty"`
	Value  string `json:"value"`
}

// =============================================================================
// ROOM STATES
// =============================================================================

// RoomStateDTO is the derived occupancy view of one room.
type RoomStateDTO struct {
	Room          string `json:"room"`
	Status        string `json:"status"`
	DisplayStatus string `json:"display_status"`
	Override      string `json:"override,omitempty"`
	Guest         string `json:"guest,omitempty"`
	CheckInTime   string `json:"check_in_time,omitempty"`
	CheckOutTime  string `json:"check_out_time,omitempty"`
}

func toRoomStateDTO(st engine.RoomState) RoomStateDTO {
	dto := RoomStateDTO{
		Room:          st.Room,
		Status:        string(st.Status),
		DisplayStatus: st.DisplayStatus,
		Guest:         st.Guest,
		CheckInTime:   formatTime(st.CheckInTime),
		CheckOutTime:  formatTime(st.CheckOutTime),
	}
	if st.Override != ledger.OverrideAvailable {
		dto.Override = string(st.Override)
	}
	return dto
}

// OverrideRequest sets or clears a maintenance override for a room.
type OverrideRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// BULK OPERATIONS
// =============================================================================

// BulkRequest names the rows a bulk operation targets.
type BulkRequest struct {
	Rows    []int  `json:"rows"`
	TaxRate string `json:"tax_rate,omitempty"` // bulk tax update only
	Force   bool   `json:"force,omitempty"`    // bulk invoice only
}

// BulkRowResult reports the outcome for one row.
type BulkRowResult struct {
	Row     int    `json:"row"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BulkResponse summarizes a bulk operation.
type BulkResponse struct {
	Processed int             `json:"processed"`
	Skipped   int             `json:"skipped"`
	Failed    int             `json:"failed"`
	Results   []BulkRowResult `json:"results"`
}

func toBulkResponse(results []lifecycle.RowResult) BulkResponse {
	resp := BulkResponse{Results: make([]BulkRowResult, len(results))}
	for i, res := range results {
		row := BulkRowResult{Row: res.Row, OK: res.Err == nil && !res.Skipped, Skipped: res.Skipped}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		resp.Results[i] = row
		switch {
		case res.Err != nil:
			resp.Failed++
		case res.Skipped:
			resp.Skipped++
		default:
			resp.Processed++
		}
	}
	return resp
}

// =============================================================================
// MISC
// =============================================================================

// InvoiceRequest controls per-row invoice generation.
type InvoiceRequest struct {
	Force bool `json:"force"`
}

// SchemaDTO exposes the resolved column mapping.
type SchemaDTO struct {
	Headers []string       `json:"headers"`
	Fields  map[string]int `json:"fields"`
	Missing []string       `json:"missing_required,omitempty"`
}

// ErrorResponse is the envelope for all error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
