package domain

// Biomarker canonical biomarker identity (row in biomarkers table).
// Code is the stable key; it never changes after creation.
type Biomarker struct {
	ID     int64  `db:"id" json:"id"` // BIGSERIAL
	Code   string `db:"code" json:"code"`
	NameEN string `db:"name_en" json:"name_en"`
	NameRU string `db:"name_ru" json:"name_ru"`
	// 'lipids'/'glucose'/'inflammation'/.../'other'
	Category string `db:"category" json:"category"`
	// Canonical unit; empty until the first measurement for auto-created codes.
	UnitStd             string `db:"unit_std" json:"unit_std"`
	RiskDirection       string `db:"risk_direction" json:"risk_direction"` // 'high_bad'/'low_bad'/'both'
	IsWearableSupported bool   `db:"is_wearable_supported" json:"is_wearable_supported"`
	Description         string `db:"description" json:"description,omitempty"`
}

// BiomarkerSynonym language-tagged alias bound to exactly one biomarker.
// Matched case-insensitively during resolution.
type BiomarkerSynonym struct {
	ID          int64  `db:"id" json:"id"`
	BiomarkerID int64  `db:"biomarker_id" json:"biomarker_id"`
	Language    string `db:"language" json:"language"` // 'en'/'ru'
	Text        string `db:"text" json:"text"`
}
