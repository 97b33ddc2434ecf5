package domain

import "time"

// Measurement source kinds.
const (
	SourceManual     = "manual"
	SourceLabImport  = "lab_import"
	SourceWearable   = "wearable"
	SourceCalculated = "calculated"
)

// Measurement a standardized fact for one person.
// Raw measurements are append-only; only recent 'calculated' rows may be
// overwritten by the composite engine's auto-save.
type Measurement struct {
	ID          int64 `db:"id"` // BIGSERIAL
	PersonID    int64 `db:"person_id"`
	BiomarkerID int64 `db:"biomarker_id"`

	ValueStd float64 `db:"value_std"` // value in the biomarker's standard unit
	UnitStd  string  `db:"unit_std"`

	// Provenance: what was actually observed before normalization.
	OriginalName  string `db:"original_name"`
	OriginalValue string `db:"original_value"`
	OriginalUnit  string `db:"original_unit"`

	SourceType string `db:"source_type"` // manual/lab_import/wearable/calculated
	SourceRef  string `db:"source_ref"`  // upload or sync id (uuid), may be empty

	SampleTime *time.Time `db:"sample_time"` // TIMESTAMPTZ, nil when the source date was absent/unparseable
	CreatedAt  time.Time  `db:"created_at"`  // TIMESTAMPTZ

	// Set when standardization was low-confidence, e.g. an unknown unit fell
	// back to identity conversion.
	QualityNote string `db:"quality_note"`
}
