package repository

import (
	"context"

	"biotrack-data/internal/domain"
)

// ReferenceRangesRepository reference ranges per biomarker.
type ReferenceRangesRepository interface {
	// ListRanges returns all candidates for a biomarker ordered by id
	// (stable key => reproducible tie-breaks during selection).
	ListRanges(ctx context.Context, biomarkerID int64) ([]*domain.ReferenceRange, error)
	CreateRange(ctx context.Context, rr *domain.ReferenceRange) (int64, error)
}

// UnitConversionsRepository directed unit-conversion edges.
type UnitConversionsRepository interface {
	// FindConversion returns (nil, nil) when no edge exists; callers fall
	// back to identity.
	FindConversion(ctx context.Context, fromUnit, toUnit string) (*domain.UnitConversion, error)
	CreateConversion(ctx context.Context, uc *domain.UnitConversion) (int64, error)
}
