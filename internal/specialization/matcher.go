// Package specialization maps free-text service labels onto the canonical
// specialization categories used to filter eligible staff, and ranks an
// employee pool against a category.
//
// The matcher deliberately prefers over-inclusion to blocking assignment:
// when no employee matches the requested category, the whole pool is
// returned so an administrator can still assign someone.
package specialization

import (
	"strings"

	"petcare_ops_backend/internal/employees"
)

// Category is a canonical specialization used to filter eligible staff.
type Category string

const (
	CategoryExamination Category = "examination"
	CategorySurgery     Category = "surgery"
	CategoryVaccination Category = "vaccination"
	CategoryGrooming    Category = "grooming"
	CategorySpa         Category = "spa"
	CategoryBoarding    Category = "boarding"
	CategoryTraining    Category = "training"
)

// labelCategories maps normalized service labels to canonical categories.
// The taxonomy is static configuration; labels missing here fall through to
// the normalized raw label so filtering degrades to plain substring matching.
var labelCategories = map[string]Category{
	"examination":      CategoryExamination,
	"exam":             CategoryExamination,
	"checkup":          CategoryExamination,
	"check-up":         CategoryExamination,
	"health check":     CategoryExamination,
	"consultation":     CategoryExamination,
	"surgery":          CategorySurgery,
	"operation":        CategorySurgery,
	"sterilization":    CategorySurgery,
	"neutering":        CategorySurgery,
	"spay":             CategorySurgery,
	"dental surgery":   CategorySurgery,
	"vaccination":      CategoryVaccination,
	"vaccine":          CategoryVaccination,
	"immunization":     CategoryVaccination,
	"rabies shot":      CategoryVaccination,
	"grooming":         CategoryGrooming,
	"haircut":          CategoryGrooming,
	"trim":             CategoryGrooming,
	"nail trimming":    CategoryGrooming,
	"bathing":          CategoryGrooming,
	"spa":              CategorySpa,
	"massage":          CategorySpa,
	"spa treatment":    CategorySpa,
	"boarding":         CategoryBoarding,
	"hotel":            CategoryBoarding,
	"daycare":          CategoryBoarding,
	"overnight stay":   CategoryBoarding,
	"training":         CategoryTraining,
	"obedience":        CategoryTraining,
	"behavior":         CategoryTraining,
	"puppy training":   CategoryTraining,
}

// specializationDelimiters are the separators accepted in the free-form
// employee specialization field.
const specializationDelimiters = ",;/|-"

// Canonicalize normalizes a requested service label and resolves it to a
// canonical category. Unknown labels are returned as the normalized raw
// label, which disables category-level filtering but keeps substring
// matching working.
func Canonicalize(label string) Category {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if cat, ok := labelCategories[normalized]; ok {
		return cat
	}
	return Category(normalized)
}

// Matches reports whether an employee's free-form specialization field is
// compatible with the target category. The field is split on common
// delimiters; a part matches when it equals, contains or is contained by the
// category (case-insensitive substring, not fuzzy matching).
func Matches(specializationField string, target Category) bool {
	want := string(target)
	if want == "" {
		return true
	}

	parts := strings.FieldsFunc(strings.ToLower(specializationField), func(r rune) bool {
		return strings.ContainsRune(specializationDelimiters, r)
	})

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == want || strings.Contains(part, want) || strings.Contains(want, part) {
			return true
		}
	}
	return false
}

// FilterEmployees returns the members of pool whose specialization matches
// the target category. An empty result falls back to the entire pool: the
// system prefers over-inclusion to blocking assignment, and this fallback is
// a deliberate policy, not an error path.
func FilterEmployees(pool []employees.Employee, target Category) []employees.Employee {
	matched := make([]employees.Employee, 0, len(pool))
	for _, candidate := range pool {
		if Matches(candidate.Specialization, target) {
			matched = append(matched, candidate)
		}
	}
	if len(matched) == 0 {
		return pool
	}
	return matched
}
