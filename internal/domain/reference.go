package domain

// Sex facets used by reference ranges and persons.
const (
	SexMale   = "m"
	SexFemale = "f"
	SexAny    = "any"
)

// ReferenceRange one scoring candidate for a biomarker.
// Multiple ranges may exist per biomarker; the best match for a person is
// selected at read time, never at storage time.
type ReferenceRange struct {
	ID          int64    `db:"id"`
	BiomarkerID int64    `db:"biomarker_id"`
	Sex         string   `db:"sex"`     // 'm'/'f'/'any'
	AgeMin      int      `db:"age_min"` // inclusive
	AgeMax      int      `db:"age_max"` // inclusive
	Low         *float64 `db:"low"`     // nullable; nil bound => classification unknown
	High        *float64 `db:"high"`
	Source      string   `db:"source"` // provenance tag, e.g. 'generic'
}
