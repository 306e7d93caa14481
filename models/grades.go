package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GradeCategory is the coarse school level a grade belongs to.
type GradeCategory string

const (
	CategoryMaternelle GradeCategory = "maternelle"
	CategoryPrimaire   GradeCategory = "primaire"
	CategorySecondaire GradeCategory = "secondaire"
	CategoryUnknown    GradeCategory = "unknown"
)

// RegistrationTier selects which registration price applies to a category.
type RegistrationTier string

const (
	TierEarly RegistrationTier = "early"
	TierLate  RegistrationTier = "late"
	TierNone  RegistrationTier = ""
)

// GradeInfo pairs a grade label with its category.
type GradeInfo struct {
	Grade    string        `json:"grade"`
	Category GradeCategory `json:"category"`
}

// KnownGrades lists every grade label in teaching order.
var KnownGrades = []GradeInfo{
	{"Maternal", CategoryMaternelle},
	{"1ère année primaire", CategoryPrimaire},
	{"2ème année primaire", CategoryPrimaire},
	{"3ème année primaire", CategoryPrimaire},
	{"4ème année primaire", CategoryPrimaire},
	{"5ème année primaire", CategoryPrimaire},
	{"6ème année primaire", CategoryPrimaire},
	{"7ème année", CategorySecondaire},
	{"8ème année", CategorySecondaire},
	{"9ème année", CategorySecondaire},
	{"1ère année lycée", CategorySecondaire},
	{"2ème année lycée", CategorySecondaire},
	{"3ème année lycée", CategorySecondaire},
	{"4ème année lycée", CategorySecondaire},
}

// ClassifyGrade maps a grade label to its category.
func ClassifyGrade(grade string) GradeCategory {
	for _, g := range KnownGrades {
		if g.Grade == grade {
			return g.Category
		}
	}
	return CategoryUnknown
}

// IsKnownGrade reports whether grade is one of KnownGrades.
func IsKnownGrade(grade string) bool {
	return ClassifyGrade(grade) != CategoryUnknown
}

// RegistrationTier returns the registration price tier for the category.
func (c GradeCategory) RegistrationTier() RegistrationTier {
	switch c {
	case CategoryMaternelle, CategoryPrimaire:
		return TierEarly
	case CategorySecondaire:
		return TierLate
	}
	return TierNone
}

// IsValid reports whether c is one of the declared categories.
func (c GradeCategory) IsValid() bool {
	switch c {
	case CategoryMaternelle, CategoryPrimaire, CategorySecondaire, CategoryUnknown:
		return true
	}
	return false
}

// ParseAcademicYear returns the starting calendar year of a "YYYY-YYYY" label.
// The second year must follow the first.
func ParseAcademicYear(label string) (int, error) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return 0, ErrInvalidAcademicYear.With("%q is not YYYY-YYYY", label)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, ErrInvalidAcademicYear.With("%q is not YYYY-YYYY", label)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil || end != start+1 {
		return 0, ErrInvalidAcademicYear.With("%q does not span consecutive years", label)
	}
	return start, nil
}

// AcademicYearAt returns the label of the academic year running at t, for a
// year that opens in startMonth.
func AcademicYearAt(t time.Time, startMonth int) string {
	start := t.Year()
	if int(t.Month()) < startMonth {
		start--
	}
	return fmt.Sprintf("%d-%d", start, start+1)
}
