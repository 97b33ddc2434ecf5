package domain

import (
	"strconv"
	"strings"
	"time"
)

// Person the subset of the user profile the pipeline needs.
// BirthDate is kept as "YYYY-MM-DD" text; upstream profile data arrives in
// that form and may be empty or malformed.
type Person struct {
	ID        int64  `db:"id"`
	Email     string `db:"email"`
	Sex       string `db:"sex"`       // 'm'/'f'/'' (unknown)
	BirthDate string `db:"birthdate"` // "YYYY-MM-DD", may be empty
}

// SexFacet maps the profile sex to a reference-range facet.
// Anything other than m/f scores as "any".
func (p *Person) SexFacet() string {
	if p.Sex == SexMale || p.Sex == SexFemale {
		return p.Sex
	}
	return SexAny
}

// AgeYears integer age by birth-year subtraction, used for reference-range
// banding and eGFR. ok=false when the birth date is absent or unparseable.
func (p *Person) AgeYears(now time.Time) (int, bool) {
	if p.BirthDate == "" {
		return 0, false
	}
	yearStr, _, _ := strings.Cut(p.BirthDate, "-")
	year, err := strconv.Atoi(yearStr)
	if err != nil || year <= 0 {
		return 0, false
	}
	return now.Year() - year, true
}

// ChronologicalAge fractional age in years ((now-birth)/365.25), used by the
// biological-age engines. ok=false when the birth date is absent or unparseable.
func (p *Person) ChronologicalAge(now time.Time) (float64, bool) {
	if p.BirthDate == "" {
		return 0, false
	}
	birth, err := time.Parse("2006-01-02", p.BirthDate)
	if err != nil {
		return 0, false
	}
	return now.Sub(birth).Hours() / 24 / 365.25, true
}
