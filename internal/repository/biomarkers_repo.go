package repository

import (
	"context"

	"biotrack-data/internal/domain"
)

// BiomarkersRepository catalog of canonical biomarkers and their synonyms.
// Shared reference data; the pipeline only writes through auto-creation.
// Lookup methods return (nil, nil) when nothing matches.
type BiomarkersRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Biomarker, error)
	GetByID(ctx context.Context, id int64) (*domain.Biomarker, error)

	// ListBiomarkers returns the whole catalog ordered by id, so scoring
	// passes over it are reproducible.
	ListBiomarkers(ctx context.Context) ([]*domain.Biomarker, error)

	CreateBiomarker(ctx context.Context, bm *domain.Biomarker) (int64, error)

	// SetUnitStd fills the standard unit of a biomarker whose unit was left
	// empty at auto-creation (first measurement defines it).
	SetUnitStd(ctx context.Context, id int64, unitStd string) error

	// FindSynonym case-insensitive exact match over synonym text.
	FindSynonym(ctx context.Context, text string) (*domain.BiomarkerSynonym, error)
	CreateSynonym(ctx context.Context, syn *domain.BiomarkerSynonym) (int64, error)
	ListSynonyms(ctx context.Context, biomarkerID int64) ([]*domain.BiomarkerSynonym, error)
}
