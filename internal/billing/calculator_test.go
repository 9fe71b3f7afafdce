package billing

import "testing"

func TestCalculate_AppliesTaxRate(t *testing.T) {
	totals := Calculate(10000, 800)

	if totals.SubtotalCents != 10000 {
		t.Fatalf("expected subtotal 10000, got %d", totals.SubtotalCents)
	}
	if totals.TaxCents != 800 {
		t.Fatalf("expected tax 800, got %d", totals.TaxCents)
	}
	if totals.TotalCents != 10800 {
		t.Fatalf("expected total 10800, got %d", totals.TotalCents)
	}
}

func TestCalculate_RoundsTaxToNearestCent(t *testing.T) {
	// 1234 * 8% = 98.72 -> 99
	totals := Calculate(1234, 800)
	if totals.TaxCents != 99 {
		t.Fatalf("expected tax 99, got %d", totals.TaxCents)
	}

	// 1230 * 8% = 98.4 -> 98
	totals = Calculate(1230, 800)
	if totals.TaxCents != 98 {
		t.Fatalf("expected tax 98, got %d", totals.TaxCents)
	}
}

func TestCalculate_ZeroRate(t *testing.T) {
	totals := Calculate(5000, 0)
	if totals.TaxCents != 0 || totals.TotalCents != 5000 {
		t.Fatalf("expected no tax, got %+v", totals)
	}
}
