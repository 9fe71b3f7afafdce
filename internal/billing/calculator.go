// Package billing creates invoices for completed appointments and service
// requests. Amounts are integer cents; the tax rate is expressed in basis
// points so no floating point enters the calculation.
package billing

// Totals holds the computed invoice amounts in cents.
type Totals struct {
	SubtotalCents int64 `json:"subtotalCents"`
	TaxCents      int64 `json:"taxCents"`
	TotalCents    int64 `json:"totalCents"`
}

// Calculate applies the fixed tax rate to a subtotal. Tax is rounded to the
// nearest cent, half up.
func Calculate(subtotalCents int64, taxRateBps int) Totals {
	tax := (subtotalCents*int64(taxRateBps) + 5000) / 10000
	return Totals{
		SubtotalCents: subtotalCents,
		TaxCents:      tax,
		TotalCents:    subtotalCents + tax,
	}
}
