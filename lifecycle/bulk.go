/*
bulk.go - Batch operations over selected rows

PURPOSE:
  Desk staff act on many rows at once: checking out everyone who left,
  fixing a tax rate across a block of bookings, regenerating invoices.
  Each row is processed independently; one failure never aborts the rest.
*/
package lifecycle

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/innkeep/frontdesk/schema"
)

// RowResult reports the outcome for one row of a bulk operation.
type RowResult struct {
	Row     int
	Skipped bool
	Err     error
}

// BulkCheckout checks out every listed row that is currently checked in and
// not yet checked out. Rows in any other state are reported as skipped.
func (c *Controller) BulkCheckout(ctx context.Context, rows []int) []RowResult {
	results := make([]RowResult, 0, len(rows))
	for _, row := range rows {
		rec, err := c.led.Get(row)
		if err != nil {
			results = append(results, RowResult{Row: row, Err: err})
			continue
		}
		if !rec.IsCheckedIn() || rec.IsCheckedOut() {
			results = append(results, RowResult{Row: row, Skipped: true})
			continue
		}
		_, err = c.ApplyEdit(ctx, row, schema.FieldCheckOut, "yes")
		results = append(results, RowResult{Row: row, Err: err})
	}
	return results
}

// BulkUpdateTaxRate sets the tax rate on the listed rows and recomputes
// their quotes. The rate must be a fraction in (0, 1].
func (c *Controller) BulkUpdateTaxRate(ctx context.Context, rows []int, rate decimal.Decimal) []RowResult {
	one := decimal.NewFromInt(1)
	if !rate.IsPositive() || rate.GreaterThan(one) {
		out := make([]RowResult, len(rows))
		for i, row := range rows {
			out[i] = RowResult{Row: row, Err: fmt.Errorf("tax rate %s outside (0, 1]", rate)}
		}
		return out
	}

	results := make([]RowResult, 0, len(rows))
	for _, row := range rows {
		_, err := c.ApplyEdit(ctx, row, schema.FieldTaxRate, rate.String())
		results = append(results, RowResult{Row: row, Err: err})
	}
	return results
}

// BulkGenerateInvoices regenerates the invoice for every listed row,
// recomputing the quote first so the document reflects current figures.
// Force mode reissues even when a document reference already exists.
func (c *Controller) BulkGenerateInvoices(ctx context.Context, rows []int, force bool) []RowResult {
	results := make([]RowResult, 0, len(rows))
	for _, row := range rows {
		rec, err := c.led.Get(row)
		if err != nil {
			results = append(results, RowResult{Row: row, Err: err})
			continue
		}
		if !rec.IsCheckedOut() {
			c.recalcForward(&rec)
			if err := c.led.Save(ctx, rec); err != nil {
				results = append(results, RowResult{Row: row, Err: err})
				continue
			}
		}
		if _, err := c.invoices.GenerateForRow(ctx, c.led, row, force); err != nil {
			results = append(results, RowResult{Row: row, Err: err})
			continue
		}
		results = append(results, RowResult{Row: row})
	}
	return results
}
