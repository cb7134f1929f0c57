/*
generator.go - Invoice document generation and notification boundary

The core never inspects document contents: it hands the collaborator the
invoice data and stores the returned reference. Re-invocation with force
false is a no-op once a reference exists; force true always regenerates.
Notification fires once per successful generation and its failure never
fails the invoice.
*/
package invoice

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/innkeep/frontdesk/ledger"
	"github.com/innkeep/frontdesk/quote"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Data is everything a document generator receives for one invoice.
type Data struct {
	Row         int
	Room        string
	Guest       string
	Rate        decimal.Decimal
	Nights      int
	TaxRate     decimal.Decimal
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	PaymentType string
	Processor   string
	Receipt     string
	CardLast4   string
	AuthCode    string
	Number      string
	IssuedAt    time.Time
}

// DocumentGenerator renders an invoice document and returns a reference to
// it. The core stores the reference verbatim.
type DocumentGenerator interface {
	Generate(ctx context.Context, data Data) (string, error)
}

// Notifier delivers an invoice notification. Best effort only.
type Notifier interface {
	Notify(ctx context.Context, recipient, invoiceNo, documentRef string) error
}

// =============================================================================
// FILE GENERATOR - Default collaborator: plain-text summary on disk
// =============================================================================

// FileGenerator writes a plain-text invoice summary under Dir/YYYY-MM-DD/
// and returns the file path as the document reference.
type FileGenerator struct {
	Dir string
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

func safeGuestName(guest string) string {
	s := strings.TrimSpace(unsafeName.ReplaceAllString(guest, ""))
	s = strings.Join(strings.Fields(s), "_")
	if len(s) > 20 {
		s = s[:20]
	}
	if s == "" {
		return "Guest"
	}
	return s
}

func (g FileGenerator) Generate(_ context.Context, data Data) (string, error) {
	dir := filepath.Join(g.Dir, data.IssuedAt.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("invoice dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.txt", data.Room, safeGuestName(data.Guest), data.IssuedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	nightsWord := "nights"
	if data.Nights == 1 {
		nightsWord = "night"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice %s\n", data.Number)
	fmt.Fprintf(&b, "Guest: %s\nRoom: %s\nDate: %s\n\n", data.Guest, data.Room, data.IssuedAt.Format("01/02/2006 03:04 PM"))
	fmt.Fprintf(&b, "Lodging: %d %s @ $%s/night  $%s\n", data.Nights, nightsWord, data.Rate.StringFixed(2), data.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Tax (%s%%): $%s\n", data.TaxRate.Mul(decimal.NewFromInt(100)).StringFixed(2), data.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Total Paid: $%s\n", data.Total.StringFixed(2))
	if data.PaymentType != "" {
		fmt.Fprintf(&b, "\nPayment Type: %s\n", data.PaymentType)
	}
	if data.Processor != "" {
		fmt.Fprintf(&b, "Processor: %s  Receipt: %s\n", data.Processor, data.Receipt)
	}
	if data.CardLast4 != "" {
		fmt.Fprintf(&b, "Card Last4: %s  Auth: %s\n", data.CardLast4, data.AuthCode)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write invoice: %w", err)
	}
	return path, nil
}

// =============================================================================
// SERVICE - Orchestrates number assignment, generation and notification
// =============================================================================

type Service struct {
	seq      *Sequence
	gen      DocumentGenerator
	notifier Notifier // optional
	calc     quote.Calculator
	logger   *log.Logger
	now      func() time.Time
}

func NewService(seq *Sequence, gen DocumentGenerator, calc quote.Calculator, opts ...ServiceOption) *Service {
	s := &Service{
		seq:    seq,
		gen:    gen,
		calc:   calc,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ServiceOption func(*Service)

// WithNotifier attaches an optional notifier.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithLogger overrides the logger.
func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// GenerateForRow generates (or reprints, with force) the invoice for a row:
//   - assigns an invoice number once, never reassigning or reusing it
//   - defaults a blank status to PAID; a VOID invoice is never regenerated
//   - skips generation when a document reference exists and force is false
//   - money fields for the document are rederived from rate/nights/tax so a
//     reprint reflects the row as it stands
//
// Returns the updated record. Rows with an empty room are a no-op.
func (s *Service) GenerateForRow(ctx context.Context, led *ledger.Ledger, row int, force bool) (ledger.BookingRecord, error) {
	rec, err := led.Get(row)
	if err != nil {
		return ledger.BookingRecord{}, err
	}
	if strings.TrimSpace(rec.Room) == "" {
		return rec, nil
	}

	if rec.InvoiceNo == "" {
		number, err := s.seq.Next(ctx)
		if err != nil {
			return rec, fmt.Errorf("row %d: %w", row, err)
		}
		rec.InvoiceNo = number
	}
	if rec.InvoiceStatus == "" {
		rec.InvoiceStatus = ledger.InvoicePaid
	}

	// Persist the number/status even when generation is skipped below: the
	// number is issued exactly once and must not be lost.
	if err := led.Save(ctx, rec); err != nil {
		return rec, fmt.Errorf("row %d: persist invoice number: %w", row, err)
	}

	if strings.EqualFold(rec.InvoiceStatus, ledger.InvoiceVoid) {
		return rec, nil
	}
	if rec.InvoiceURL != "" && !force {
		return rec, nil
	}

	nights := quote.ClampNights(rec.Nights)
	taxRate := s.calc.NormalizeTaxRate(rec.TaxRate)
	subtotal, total := s.calc.Forward(rec.Rate, nights, taxRate)
	tax := s.calc.Tax(subtotal, taxRate)

	issuedAt := rec.CheckOutTime
	if issuedAt.IsZero() {
		issuedAt = s.now()
	}

	ref, err := s.gen.Generate(ctx, Data{
		Row:         row,
		Room:        rec.Room,
		Guest:       rec.Guest,
		Rate:        rec.Rate,
		Nights:      nights,
		TaxRate:     taxRate,
		Subtotal:    subtotal,
		Tax:         tax,
		Total:       total,
		PaymentType: rec.PaymentType,
		Processor:   rec.Processor,
		Receipt:     rec.Receipt,
		CardLast4:   rec.CardLast4,
		AuthCode:    rec.AuthCode,
		Number:      rec.InvoiceNo,
		IssuedAt:    issuedAt,
	})
	if err != nil {
		return rec, fmt.Errorf("row %d: generate document: %w", row, err)
	}

	rec.InvoiceURL = ref
	if err := led.Save(ctx, rec); err != nil {
		return rec, fmt.Errorf("row %d: persist document ref: %w", row, err)
	}

	if s.notifier != nil && rec.GuestEmail != "" {
		if err := s.notifier.Notify(ctx, rec.GuestEmail, rec.InvoiceNo, ref); err != nil {
			// Notification failure never fails the invoice.
			s.logger.Printf("invoice %s: notify %s failed: %v", rec.InvoiceNo, rec.GuestEmail, err)
		}
	}
	return rec, nil
}
