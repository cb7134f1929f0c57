package invoice_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/frontdesk/invoice"
	"github.com/innkeep/frontdesk/ledger"
	"github.com/innkeep/frontdesk/ledger/store"
	"github.com/innkeep/frontdesk/quote"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newInvoiceFixture(t *testing.T) (*invoice.Service, *ledger.Ledger) {
	t.Helper()
	mem := store.NewMemory()
	led, err := ledger.Open(context.Background(), mem)
	require.NoError(t, err)

	calc := quote.NewCalculator(decimal.NewFromFloat(0.13))
	seq := invoice.NewSequence(mem)
	svc := invoice.NewService(seq, invoice.FileGenerator{Dir: t.TempDir()}, calc)
	return svc, led
}

func checkoutRow(t *testing.T, led *ledger.Ledger, room, guest string) ledger.BookingRecord {
	t.Helper()
	rec, err := led.Append(context.Background(), ledger.BookingRecord{
		Room:         room,
		Guest:        guest,
		Rate:         decimal.NewFromInt(100),
		Nights:       2,
		TaxRate:      decimal.NewFromFloat(0.13),
		CheckedOut:   true,
		CheckOutTime: time.Date(2026, time.March, 12, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return rec
}

// =============================================================================
// GENERATION
// =============================================================================

func TestGenerateForRow_AssignsNumberWritesDocument(t *testing.T) {
	// GIVEN: A checked-out row without an invoice
	// WHEN: Generating
	// THEN: Number assigned, status PAID, document reference stored

	svc, led := newInvoiceFixture(t)
	rec := checkoutRow(t, led, "7", "Alice Smith")

	got, err := svc.GenerateForRow(context.Background(), led, rec.RowIndex, false)

	require.NoError(t, err)
	assert.Equal(t, "INV-000001", got.InvoiceNo)
	assert.Equal(t, ledger.InvoicePaid, got.InvoiceStatus)
	require.NotEmpty(t, got.InvoiceURL)

	content, err := os.ReadFile(got.InvoiceURL)
	require.NoError(t, err)
	assert.Contains(t, string(content), "INV-000001")
	assert.Contains(t, string(content), "Alice Smith")
	assert.Contains(t, string(content), "$226.00", "total = 100 x 2 x 1.13")

	// The ledger row carries the same state.
	stored, err := led.Get(rec.RowIndex)
	require.NoError(t, err)
	assert.Equal(t, got.InvoiceNo, stored.InvoiceNo)
	assert.Equal(t, got.InvoiceURL, stored.InvoiceURL)
}

func TestGenerateForRow_SecondCallIsNoOpWithoutForce(t *testing.T) {
	svc, led := newInvoiceFixture(t)
	rec := checkoutRow(t, led, "7", "Alice Smith")

	first, err := svc.GenerateForRow(context.Background(), led, rec.RowIndex, false)
	require.NoError(t, err)
	second, err := svc.GenerateForRow(context.Background(), led, rec.RowIndex, false)
	require.NoError(t, err)

	assert.Equal(t, first.InvoiceNo, second.InvoiceNo, "number never reassigned")
	assert.Equal(t, first.InvoiceURL, second.InvoiceURL, "document not regenerated")
}

func TestGenerateForRow_ForceRegeneratesKeepingNumber(t *testing.T) {
	// GIVEN: An already-invoiced row
	// WHEN: Regenerating with force
	// THEN: A fresh document is written under the same invoice number

	svc, led := newInvoiceFixture(t)
	rec := checkoutRow(t, led, "7", "Alice Smith")

	first, err := svc.GenerateForRow(context.Background(), led, rec.RowIndex, false)
	require.NoError(t, err)

	// Change the rate so the reprint reflects the row as it stands.
	first.Rate = decimal.NewFromInt(150)
	require.NoError(t, led.Save(context.Background(), first))

	forced, err := svc.GenerateForRow(context.Background(), led, rec.RowIndex, true)
	require.NoError(t, err)

	assert.Equal(t, first.InvoiceNo, forced.InvoiceNo)
	content, err := os.ReadFile(forced.InvoiceURL)
	require.NoError(t, err)
	assert.Contains(t, string(content), "$339.00", "reprint uses current figures")
}

func TestGenerateForRow_VoidNeverRegenerated(t *testing.T) {
	// GIVEN: A voided invoice
	// WHEN: Generating, even with force
	// THEN: No document is written; the number stays burned

	svc, led := newInvoiceFixture(t)
	rec := checkoutRow(t, led, "7", "Alice Smith")
	rec.InvoiceStatus = ledger.InvoiceVoid
	require.NoError(t, led.Save(context.Background(), rec))

	got, err := svc.GenerateForRow(context.Background(), led, rec.RowIndex, true)

	require.NoError(t, err)
	assert.Equal(t, "INV-000001", got.InvoiceNo, "number issued and kept even for VOID")
	assert.Empty(t, got.InvoiceURL)

	// The next row continues the sequence past the burned number.
	next := checkoutRow(t, led, "8", "Bob Jones")
	gotNext, err := svc.GenerateForRow(context.Background(), led, next.RowIndex, false)
	require.NoError(t, err)
	assert.Equal(t, "INV-000002", gotNext.InvoiceNo)
}

func TestGenerateForRow_EmptyRoomIsNoOp(t *testing.T) {
	svc, led := newInvoiceFixture(t)
	rec, err := led.Append(context.Background(), ledger.BookingRecord{Guest: "Walk In"})
	require.NoError(t, err)

	got, err := svc.GenerateForRow(context.Background(), led, rec.RowIndex, false)

	require.NoError(t, err)
	assert.Empty(t, got.InvoiceNo)
	assert.Empty(t, got.InvoiceURL)
}

// =============================================================================
// NOTIFICATION
// =============================================================================

type recordingNotifier struct {
	recipients []string
	fail       bool
}

func (n *recordingNotifier) Notify(_ context.Context, recipient, _, _ string) error {
	n.recipients = append(n.recipients, recipient)
	if n.fail {
		return assert.AnError
	}
	return nil
}

func TestGenerateForRow_NotifierFailureNeverFailsInvoice(t *testing.T) {
	mem := store.NewMemory()
	led, err := ledger.Open(context.Background(), mem)
	require.NoError(t, err)

	notifier := &recordingNotifier{fail: true}
	svc := invoice.NewService(
		invoice.NewSequence(mem),
		invoice.FileGenerator{Dir: t.TempDir()},
		quote.NewCalculator(decimal.NewFromFloat(0.13)),
		invoice.WithNotifier(notifier),
	)

	rec, err := led.Append(context.Background(), ledger.BookingRecord{
		Room:       "7",
		Guest:      "Alice Smith",
		Rate:       decimal.NewFromInt(100),
		Nights:     1,
		TaxRate:    decimal.NewFromFloat(0.13),
		GuestEmail: "alice@example.com",
	})
	require.NoError(t, err)

	got, err := svc.GenerateForRow(context.Background(), led, rec.RowIndex, false)

	require.NoError(t, err, "notification failure is swallowed")
	assert.NotEmpty(t, got.InvoiceURL)
	assert.Equal(t, []string{"alice@example.com"}, notifier.recipients)
}
