package specialization

import (
	"testing"

	"petcare_ops_backend/internal/employees"
)

func TestCanonicalize_KnownLabels(t *testing.T) {
	cases := map[string]Category{
		"Surgery":        CategorySurgery,
		"  checkup  ":    CategoryExamination,
		"VACCINE":        CategoryVaccination,
		"nail trimming":  CategoryGrooming,
		"spa treatment":  CategorySpa,
		"daycare":        CategoryBoarding,
		"puppy training": CategoryTraining,
	}
	for label, want := range cases {
		if got := Canonicalize(label); got != want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestCanonicalize_UnknownLabelFallsThrough(t *testing.T) {
	if got := Canonicalize("  Exotic Bird Care "); got != Category("exotic bird care") {
		t.Fatalf("unknown label should pass through normalized, got %q", got)
	}
}

func TestMatches_SplitsOnDelimiters(t *testing.T) {
	fields := []string{
		"surgery,vaccination",
		"grooming; surgery",
		"exam/surgery",
		"spa|surgery",
		"boarding-surgery",
	}
	for _, field := range fields {
		if !Matches(field, CategorySurgery) {
			t.Fatalf("expected %q to match surgery", field)
		}
	}
}

func TestMatches_SubstringBothDirections(t *testing.T) {
	// part contains the category
	if !Matches("small animal surgery", CategorySurgery) {
		t.Fatal("expected part containing category to match")
	}
	// category contains the part
	if !Matches("exam", CategoryExamination) {
		t.Fatal("expected category containing part to match")
	}
	if Matches("grooming", CategorySurgery) {
		t.Fatal("expected unrelated specialization not to match")
	}
}

func TestFilterEmployees_FiltersByCategory(t *testing.T) {
	pool := []employees.Employee{
		{FullName: "A", Specialization: "surgery"},
		{FullName: "B", Specialization: "grooming, spa"},
		{FullName: "C", Specialization: "vaccination/surgery"},
	}

	got := FilterEmployees(pool, CategorySurgery)
	if len(got) != 2 {
		t.Fatalf("expected 2 surgery matches, got %d", len(got))
	}
	if got[0].FullName != "A" || got[1].FullName != "C" {
		t.Fatalf("unexpected matches: %v", got)
	}
}

func TestFilterEmployees_FallsBackToFullPool(t *testing.T) {
	pool := []employees.Employee{
		{FullName: "A", Specialization: "grooming"},
		{FullName: "B", Specialization: "spa"},
	}

	got := FilterEmployees(pool, CategorySurgery)
	if len(got) != len(pool) {
		t.Fatalf("expected fallback to full pool of %d, got %d", len(pool), len(got))
	}
}

func TestFilterEmployees_NeverEmptyForNonEmptyPool(t *testing.T) {
	pool := []employees.Employee{{FullName: "Solo", Specialization: ""}}
	for _, cat := range []Category{CategorySurgery, CategoryGrooming, Category("unmapped label")} {
		if got := FilterEmployees(pool, cat); len(got) == 0 {
			t.Fatalf("filter for %q returned empty set from non-empty pool", cat)
		}
	}
}
