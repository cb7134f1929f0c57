/*
Package quote computes lodging money fields in both directions.

PURPOSE:
  The bidirectional money calculator. Forward derives subtotal/total from
  rate x nights x tax; Backward starts from a flat tax-inclusive total the
  clerk typed and recovers rate and subtotal. Money is rounded to 2 places
  at each derivation step, not only at the end, so the stored fields always
  agree with what a calculator on the desk would show.

BACKWARD PRESERVES THE ENTERED TOTAL:
  Backward keeps the flat total exactly as entered instead of recomputing
  it from the rounded subtotal. Recomputing would oscillate: 339.00 ->
  subtotal 300.00 -> total 339.00 is stable, but odd tax rates can round to
  a total a cent off from what was typed, which then retriggers the
  backward path on the next edit.

INPUT NORMALIZATION:
  - nights: floored to an integer, clamped to a minimum of 1
  - tax rate: values > 1 are percentages; "13%" parses as 0.13; blank or
    invalid input falls back to the configured default
*/
package quote

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/innkeep/frontdesk/ledger"
)

// DefaultTaxRate is the fallback when a row carries no usable tax rate.
var DefaultTaxRate = decimal.NewFromFloat(0.13)

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator carries the configured default tax rate. The zero value uses
// DefaultTaxRate.
type Calculator struct {
	defaultRate decimal.Decimal
}

func NewCalculator(defaultRate decimal.Decimal) Calculator {
	return Calculator{defaultRate: defaultRate}
}

func (c Calculator) fallbackRate() decimal.Decimal {
	if c.defaultRate.IsZero() {
		return DefaultTaxRate
	}
	return c.defaultRate
}

// Forward computes subtotal and total from a per-night rate.
//
//	subtotal = round2(rate * nights)
//	total    = round2(subtotal * (1 + taxRate))
func (c Calculator) Forward(rate decimal.Decimal, nights int, taxRate decimal.Decimal) (subtotal, total decimal.Decimal) {
	nights = ClampNights(nights)
	subtotal = ledger.Round2(rate.Mul(decimal.NewFromInt(int64(nights))))
	total = ledger.Round2(subtotal.Mul(onePlus(taxRate)))
	return subtotal, total
}

// Backward recovers rate and subtotal from a flat tax-inclusive total. The
// returned total is the flat total exactly as entered.
//
//	subtotal = round2(flatTotal / (1 + taxRate))
//	rate     = round2(subtotal / nights)
func (c Calculator) Backward(flatTotal decimal.Decimal, nights int, taxRate decimal.Decimal) (rate, subtotal, total decimal.Decimal) {
	nights = ClampNights(nights)
	subtotal = ledger.Round2(flatTotal.Div(onePlus(taxRate)))
	rate = ledger.Round2(subtotal.Div(decimal.NewFromInt(int64(nights))))
	return rate, subtotal, flatTotal
}

// Tax returns the tax amount on a subtotal, rounded to 2 places.
func (c Calculator) Tax(subtotal, taxRate decimal.Decimal) decimal.Decimal {
	return ledger.Round2(subtotal.Mul(taxRate))
}

func onePlus(taxRate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(taxRate)
}

// =============================================================================
// INPUT NORMALIZATION
// =============================================================================

// ClampNights floors to an integer minimum of 1. Zero, negative and missing
// nights all normalize to a single night.
func ClampNights(nights int) int {
	if nights < 1 {
		return 1
	}
	return nights
}

// ParseNights coerces a cell value to a night count: floored, minimum 1.
func ParseNights(v string) int {
	n := ledger.ParseNumber(v)
	return ClampNights(int(n.IntPart()))
}

// ParseTaxRate normalizes a tax-rate cell to a fraction:
//   - "13%"  -> 0.13
//   - "13"   -> 0.13 (values > 1 read as percentages)
//   - "0.13" -> 0.13
//   - blank or unparseable -> the configured default
func (c Calculator) ParseTaxRate(v string) decimal.Decimal {
	s := strings.TrimSpace(v)
	if s == "" {
		return c.fallbackRate()
	}
	if strings.Contains(s, "%") {
		return ledger.ParseNumber(s).Div(decimal.NewFromInt(100))
	}
	n := ledger.ParseNumber(s)
	if n.GreaterThan(decimal.NewFromInt(1)) {
		return n.Div(decimal.NewFromInt(100))
	}
	if n.IsZero() {
		return c.fallbackRate()
	}
	return n
}

// NormalizeTaxRate applies the > 1 percentage rule to an already-numeric
// rate, falling back to the default when zero.
func (c Calculator) NormalizeTaxRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate.Div(decimal.NewFromInt(100))
	}
	if rate.IsZero() {
		return c.fallbackRate()
	}
	return rate
}
