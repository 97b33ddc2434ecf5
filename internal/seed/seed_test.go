package seed

import (
	"context"
	"testing"

	"biotrack-data/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadIdempotent(t *testing.T) {
	ctx := context.Background()
	biomarkers := repository.NewMemoryBiomarkersRepo()
	ranges := repository.NewMemoryReferenceRangesRepo()
	conversions := repository.NewMemoryUnitConversionsRepo()

	require.NoError(t, Load(ctx, biomarkers, ranges, conversions, zap.NewNop()))

	first, err := biomarkers.ListBiomarkers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Second run must not duplicate anything.
	require.NoError(t, Load(ctx, biomarkers, ranges, conversions, zap.NewNop()))

	second, err := biomarkers.ListBiomarkers(ctx)
	require.NoError(t, err)
	require.Len(t, second, len(first))
}

func TestLoadSeedsCoreCatalog(t *testing.T) {
	ctx := context.Background()
	biomarkers := repository.NewMemoryBiomarkersRepo()
	ranges := repository.NewMemoryReferenceRangesRepo()
	conversions := repository.NewMemoryUnitConversionsRepo()

	require.NoError(t, Load(ctx, biomarkers, ranges, conversions, zap.NewNop()))

	// The biological-age inputs and composite outputs must exist.
	for _, code := range []string{"ALB", "CREAT", "GLU", "CRP", "LYMPH_PCT", "MCV", "RDW", "ALP", "WBC", "NON_HDL", "AI", "EGFR", "BMI"} {
		bm, err := biomarkers.GetByCode(ctx, code)
		require.NoError(t, err)
		require.NotNil(t, bm, code)
	}

	glu, err := biomarkers.GetByCode(ctx, "GLU")
	require.NoError(t, err)
	require.Equal(t, "mmol/L", glu.UnitStd)

	// Sex-split hemoglobin ranges.
	hgb, err := biomarkers.GetByCode(ctx, "HGB")
	require.NoError(t, err)
	hgbRanges, err := ranges.ListRanges(ctx, hgb.ID)
	require.NoError(t, err)
	require.Len(t, hgbRanges, 2)

	// Glucose mg/dL -> mmol/L conversion edge.
	uc, err := conversions.FindConversion(ctx, "mg/dL", "mmol/L")
	require.NoError(t, err)
	require.NotNil(t, uc)
	require.InDelta(t, 0.0555, uc.Factor, 1e-9)
}
