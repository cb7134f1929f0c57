/*
handlers.go - HTTP API handlers for the front-desk ledger

PURPOSE:
  Exposes the ledger interpretation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Records:
    GET    /api/records                List all booking rows
    POST   /api/records                Intake a new booking row
    GET    /api/records/{row}          Get one row
    POST   /api/records/{row}/edits    Apply a single cell edit
    POST   /api/records/{row}/invoice  Generate the row's invoice

  Rooms:
    GET    /api/rooms                  Derived state of every room
    GET    /api/rooms/{room}           Derived state of one room
    PUT    /api/rooms/{room}/override  Set/clear a maintenance override

  Guests:
    GET    /api/guests/{name}/history  Rows matching a guest name

  Bulk:
    POST   /api/bulk/checkout          Check out many rows
    POST   /api/bulk/tax-rate          Set tax rate on many rows
    POST   /api/bulk/invoices          Regenerate invoices for many rows

  Schema:
    GET    /api/schema                 Resolved column mapping

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Row not found
  - 409: Protected field edit rejected
  - 503: Invoice sequence lock unavailable
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/innkeep/frontdesk/engine"
	"github.com/innkeep/frontdesk/invoice"
	"github.com/innkeep/frontdesk/ledger"
	"github.com/innkeep/frontdesk/lifecycle"
	"github.com/innkeep/frontdesk/quote"
	"github.com/innkeep/frontdesk/schema"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger     *ledger.Ledger
	Schema     *schema.Schema
	Headers    []string
	Controller *lifecycle.Controller
	Engine     *engine.Engine
	Invoices   *invoice.Service
	Calc       quote.Calculator

	// SetOverride persists a maintenance override; nil disables the endpoint.
	SetOverride func(ctx context.Context, room string, status ledger.Override) error
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// ListRecords returns every booking row in insertion order.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toRecordDTOs(h.Ledger.All()))
}

// GetRecord returns a single row.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(w, r)
	if !ok {
		return
	}
	rec, err := h.Ledger.Get(row)
	if err != nil {
		writeDomainError(w, "Failed to get record", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// CreateRecord intakes a new booking row.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Guest) == "" {
		writeError(w, http.StatusBadRequest, "Guest name is required", nil)
		return
	}

	rec := ledger.BookingRecord{
		Date:        strings.TrimSpace(req.Date),
		Room:        strings.TrimSpace(req.Room),
		Guest:       strings.TrimSpace(req.Guest),
		Rate:        ledger.ParseNumber(req.Rate),
		Nights:      quote.ParseNights(req.Nights),
		TaxRate:     h.Calc.ParseTaxRate(req.TaxRate),
		PaymentType: strings.TrimSpace(req.PaymentType),
		GuestEmail:  strings.TrimSpace(req.GuestEmail),
		DeskNotes:   req.DeskNotes,
	}

	created, err := h.Controller.Intake(r.Context(), rec)
	if err != nil {
		writeDomainError(w, "Failed to create record", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(created))
}

// ApplyEdit applies a single cell edit to a row.
func (h *Handler) ApplyEdit(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(w, r)
	if !ok {
		return
	}

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var (
		rec ledger.BookingRecord
		err error
	)
	switch {
	case req.Field != "":
		field, known := fieldByName(req.Field)
		if !known {
			writeError(w, http.StatusBadRequest, "Unknown field "+req.Field, nil)
			return
		}
		rec, err = h.Controller.ApplyEdit(r.Context(), row, field, req.Value)
	case req.Column != nil:
		rec, err = h.Controller.ApplyCellEdit(r.Context(), row, *req.Column, req.Value)
	default:
		writeError(w, http.StatusBadRequest, "Either field or column is required", nil)
		return
	}

	if err != nil {
		// The edit may have partially applied (e.g. checkout stood but the
		// invoice failed); the protected-field case is the clean rejection.
		var protected *ledger.ProtectedFieldEditError
		if errors.As(err, &protected) {
			writeJSON(w, http.StatusConflict, ErrorResponse{
				Error:   "Protected field edit rejected",
				Details: protected.Error(),
			})
			return
		}
		writeDomainError(w, "Failed to apply edit", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// GenerateInvoice generates (or regenerates with force) a row's invoice.
func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(w, r)
	if !ok {
		return
	}

	var req InvoiceRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	rec, err := h.Invoices.GenerateForRow(r.Context(), h.Ledger, row, req.Force)
	if err != nil {
		writeDomainError(w, "Failed to generate invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// =============================================================================
// ROOM HANDLERS
// =============================================================================

// ListRooms returns the derived state of every room.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	states, err := h.Engine.AllRoomStates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to derive room states", err)
		return
	}
	dtos := make([]RoomStateDTO, len(states))
	for i, st := range states {
		dtos[i] = toRoomStateDTO(st)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRoom returns the derived state of one room.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	state, err := h.Engine.RoomState(r.Context(), room)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to derive room state", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomStateDTO(state))
}

// PutOverride sets or clears a room's maintenance override.
func (h *Handler) PutOverride(w http.ResponseWriter, r *http.Request) {
	if h.SetOverride == nil {
		writeError(w, http.StatusNotFound, "Override feed not configured", nil)
		return
	}

	room := chi.URLParam(r, "room")
	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := ledger.ParseOverride(req.Status)
	if err := h.SetOverride(r.Context(), room, status); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set override", err)
		return
	}

	state, err := h.Engine.RoomState(r.Context(), room)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to derive room state", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomStateDTO(state))
}

// =============================================================================
// GUEST HANDLERS
// =============================================================================

// GuestHistory returns every row whose guest name matches the search term.
func (h *Handler) GuestHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "Guest name is required", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(h.Ledger.GuestHistory(name)))
}

// =============================================================================
// BULK HANDLERS
// =============================================================================

// BulkCheckout checks out every eligible row in the request.
func (h *Handler) BulkCheckout(w http.ResponseWriter, r *http.Request) {
	req, ok := bulkRequest(w, r)
	if !ok {
		return
	}
	results := h.Controller.BulkCheckout(r.Context(), req.Rows)
	writeJSON(w, http.StatusOK, toBulkResponse(results))
}

// BulkTaxRate sets the tax rate on the requested rows.
func (h *Handler) BulkTaxRate(w http.ResponseWriter, r *http.Request) {
	req, ok := bulkRequest(w, r)
	if !ok {
		return
	}
	rate, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(req.TaxRate), "%"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tax rate", err)
		return
	}
	if strings.Contains(req.TaxRate, "%") || rate.GreaterThan(decimal.NewFromInt(1)) {
		rate = rate.Div(decimal.NewFromInt(100))
	}
	results := h.Controller.BulkUpdateTaxRate(r.Context(), req.Rows, rate)
	writeJSON(w, http.StatusOK, toBulkResponse(results))
}

// BulkInvoices regenerates invoices for the requested rows.
func (h *Handler) BulkInvoices(w http.ResponseWriter, r *http.Request) {
	req, ok := bulkRequest(w, r)
	if !ok {
		return
	}
	results := h.Controller.BulkGenerateInvoices(r.Context(), req.Rows, req.Force)
	writeJSON(w, http.StatusOK, toBulkResponse(results))
}

func bulkRequest(w http.ResponseWriter, r *http.Request) (BulkRequest, bool) {
	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, false
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "At least one row is required", nil)
		return req, false
	}
	return req, true
}

// =============================================================================
// SCHEMA HANDLER
// =============================================================================

// GetSchema exposes the resolved column mapping.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	fields := make(map[string]int)
	for _, d := range schema.Descriptors() {
		if col, ok := h.Schema.Column(d.Field); ok {
			fields[string(d.Field)] = col
		}
	}
	var missing []string
	for _, f := range h.Schema.MissingRequired() {
		missing = append(missing, string(f))
	}
	writeJSON(w, http.StatusOK, SchemaDTO{
		Headers: h.Headers,
		Fields:  fields,
		Missing: missing,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func rowParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || row < 1 {
		writeError(w, http.StatusBadRequest, "Invalid row number", err)
		return 0, false
	}
	return row, true
}

func fieldByName(name string) (schema.Field, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, d := range schema.Descriptors() {
		if string(d.Field) == needle {
			return d.Field, true
		}
	}
	return "", false
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ledger.ErrRowNotFound):
		writeError(w, http.StatusNotFound, "Record not found", err)
	case errors.Is(err, ledger.ErrLockUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Invoice sequence busy, retry shortly", err)
	case errors.Is(err, ledger.ErrSchemaMissing):
		writeError(w, http.StatusBadRequest, "Required column missing from the table", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
