/*
repair.go - Idempotent header repair

Fixes the known broken header states the table accumulates in the field:
renamed columns ("Quoted Nights", "VOID", "Name") and blank titles left by
column insertions. Repair never reorders columns: renames happen in place
and missing headers are only written into already-blank slots. Running
repair twice is a no-op.
*/
package schema

import "strings"

// renames maps legacy header text to its canonical replacement. Applied only
// when the canonical header is not already present.
var renames = map[string]string{
	"Quoted Nights": "Number of Night(s)",
	"VOID":          "Invoice Status",
	"Name":          "Full Name",
}

// fillable lists headers that, when missing, are written into blank columns.
// These are the columns most often lost to the blank-title problem.
var fillable = []string{
	"Tax Rate",
	"Guest Email",
	"Payment Type",
	"HK Done",
	"CleanedTime",
	"Payment Processor",
	"Processor Receipt #",
	"Invoice #",
	"Invoice Status",
	"Invoice PDF URL",
}

// Repair returns a repaired copy of the header row. Column positions are
// preserved; only header text in place and blank slots change.
func Repair(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.TrimSpace(h)
	}

	present := func(name string) bool {
		for _, h := range out {
			if strings.EqualFold(h, name) {
				return true
			}
		}
		return false
	}

	// In-place renames for known legacy headers.
	for i, h := range out {
		if canonical, ok := renames[h]; ok && !present(canonical) {
			out[i] = canonical
		}
	}

	// Fill blank slots with missing well-known headers, first blank first.
	for _, name := range fillable {
		if present(name) {
			continue
		}
		for i, h := range out {
			if h == "" {
				out[i] = name
				break
			}
		}
	}

	return out
}
