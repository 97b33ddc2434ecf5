package repository

import (
	"context"
	"time"

	"biotrack-data/internal/domain"
)

// MeasurementsRepository standardized measurements per person.
// Raw rows are insert-only; UpsertCalculated is the single mutation point
// (composite auto-save de-duplicates recomputation noise).
type MeasurementsRepository interface {
	Insert(ctx context.Context, m *domain.Measurement) (int64, error)

	// LatestInWindow newest measurement by sample time at or after `since`.
	// Rows without a sample time never fall inside a window.
	// Returns (nil, nil) when the window is empty.
	LatestInWindow(ctx context.Context, personID, biomarkerID int64, since time.Time) (*domain.Measurement, error)

	// LatestByCreated newest measurement by created_at regardless of sample
	// time; used by the biological-age engines (latest-available semantics).
	LatestByCreated(ctx context.Context, personID, biomarkerID int64) (*domain.Measurement, error)

	ListByPerson(ctx context.Context, personID int64, limit int) ([]*domain.Measurement, error)

	// UpsertCalculated overwrites value/sample time of an existing
	// 'calculated' row newer than `since` for (person, biomarker), or inserts
	// m when none exists. Must be atomic with respect to concurrent writers
	// for the same person and biomarker.
	UpsertCalculated(ctx context.Context, m *domain.Measurement, since time.Time) error
}

// PersonsRepository minimal person profile access for the API layer.
type PersonsRepository interface {
	GetPerson(ctx context.Context, id int64) (*domain.Person, error)
	CreatePerson(ctx context.Context, p *domain.Person) (int64, error)
}
