package service

import (
	"context"
	"testing"
	"time"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ingestFixture struct {
	svc          IngestService
	biomarkers   *repository.MemoryBiomarkersRepo
	measurements *repository.MemoryMeasurementsRepo
	person       *domain.Person
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	ctx := context.Background()
	biomarkers := repository.NewMemoryBiomarkersRepo()
	ranges := repository.NewMemoryReferenceRangesRepo()
	conversions := repository.NewMemoryUnitConversionsRepo()
	measurements := repository.NewMemoryMeasurementsRepo()

	for _, seed := range []struct {
		code, name, unit string
	}{
		{"GLU", "Glucose", "mmol/L"},
		{"CHOL", "Total Cholesterol", "mmol/L"},
		{"HDL", "HDL Cholesterol", "mmol/L"},
		{"NON_HDL", "Non-HDL Cholesterol", "mmol/L"},
		{"AI", "Atherogenic Index", ""},
	} {
		_, err := biomarkers.CreateBiomarker(ctx, &domain.Biomarker{Code: seed.code, NameEN: seed.name, UnitStd: seed.unit})
		require.NoError(t, err)
	}
	_, err := conversions.CreateConversion(ctx, &domain.UnitConversion{FromUnit: "mg/dL", ToUnit: "mmol/L", Factor: 0.0555})
	require.NoError(t, err)

	normalize := NewNormalizeService(biomarkers, ranges, conversions, zap.NewNop())
	composites := NewCompositeService(biomarkers, measurements, zap.NewNop())
	return &ingestFixture{
		svc:          NewIngestService(normalize, composites, biomarkers, measurements, zap.NewNop()),
		biomarkers:   biomarkers,
		measurements: measurements,
		person:       &domain.Person{ID: 1, Sex: domain.SexMale, BirthDate: "1990-03-10"},
	}
}

func TestIngestCandidatesMixedBatch(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)

	res, err := f.svc.IngestCandidates(ctx, f.person, IngestRequest{
		SourceType: domain.SourceLabImport,
		SourceRef:  "upload-1",
		Candidates: []domain.ParseCandidate{
			// Comma decimal and a leading comparison marker both parse.
			{OriginalName: "GLU", ValueRaw: "5,5", UnitRaw: "mmol/L", SampleTimeRaw: "2026-08-20"},
			{OriginalName: "Glucose", ValueRaw: "<0.5", UnitRaw: "mmol/L"},
			// Malformed value is skipped, not fatal.
			{OriginalName: "GLU", ValueRaw: "pending", UnitRaw: "mmol/L"},
			// Unknown name without auto-create is reported back.
			{OriginalName: "Mystery marker", ValueRaw: "1.0"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, []string{"Mystery marker"}, res.Unmatched)

	rows, err := f.measurements.ListByPerson(ctx, f.person.ID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, m := range rows {
		require.Equal(t, "upload-1", m.SourceRef)
		require.Equal(t, domain.SourceLabImport, m.SourceType)
	}
}

func TestIngestCandidatesUnitConversion(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)

	res, err := f.svc.IngestCandidates(ctx, f.person, IngestRequest{
		Candidates: []domain.ParseCandidate{
			{OriginalName: "GLU", ValueRaw: "100", UnitRaw: "mg/dL"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	m, err := f.measurements.LatestByCreated(ctx, f.person.ID, mustBiomarkerID(t, f.biomarkers, "GLU"))
	require.NoError(t, err)
	require.NotNil(t, m)
	require.InDelta(t, 5.55, m.ValueStd, 1e-9)
	require.Equal(t, "mmol/L", m.UnitStd)
	require.Equal(t, "100", m.OriginalValue)
	require.Equal(t, "mg/dL", m.OriginalUnit)
	require.Empty(t, m.QualityNote)
}

func TestIngestCandidatesUnconvertedUnitNote(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)

	res, err := f.svc.IngestCandidates(ctx, f.person, IngestRequest{
		Candidates: []domain.ParseCandidate{
			{OriginalName: "GLU", ValueRaw: "99", UnitRaw: "mEq/L"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	m, err := f.measurements.LatestByCreated(ctx, f.person.ID, mustBiomarkerID(t, f.biomarkers, "GLU"))
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, 99.0, m.ValueStd)
	require.Equal(t, "unconverted unit: mEq/L", m.QualityNote)
}

func TestIngestCandidatesAutoCreateSetsUnit(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)

	res, err := f.svc.IngestCandidates(ctx, f.person, IngestRequest{
		AutoCreate: true,
		Candidates: []domain.ParseCandidate{
			{OriginalName: "Osmolality", ValueRaw: "285", UnitRaw: "mOsm/kg"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	bm, err := f.biomarkers.GetByCode(ctx, "OSMOLALITY")
	require.NoError(t, err)
	require.NotNil(t, bm)
	// First measurement defines the standard unit for the new biomarker.
	require.Equal(t, "mOsm/kg", bm.UnitStd)
}

func TestIngestCandidatesTriggersCompositeAutoSave(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)

	res, err := f.svc.IngestCandidates(ctx, f.person, IngestRequest{
		Candidates: []domain.ParseCandidate{
			{OriginalName: "CHOL", ValueRaw: "5.0", UnitRaw: "mmol/L", SampleTimeRaw: time.Now().UTC().Format("2006-01-02")},
			{OriginalName: "HDL", ValueRaw: "1.2", UnitRaw: "mmol/L", SampleTimeRaw: time.Now().UTC().Format("2006-01-02")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)

	calc, err := f.measurements.LatestByCreated(ctx, f.person.ID, mustBiomarkerID(t, f.biomarkers, "NON_HDL"))
	require.NoError(t, err)
	require.NotNil(t, calc)
	require.Equal(t, domain.SourceCalculated, calc.SourceType)
	require.InDelta(t, 3.8, calc.ValueStd, 1e-9)
}

func TestParseSampleTimeLayouts(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2026-08-20T10:30:00Z", "2026-08-20"},
		{"2026-08-20 10:30:00", "2026-08-20"},
		{"2026-08-20", "2026-08-20"},
		{"20.08.2026", "2026-08-20"},
		{"20/08/2026", "2026-08-20"},
	}
	for _, tt := range tests {
		got := parseSampleTime(tt.raw)
		require.NotNil(t, got, tt.raw)
		require.Equal(t, tt.want, got.Format("2006-01-02"), tt.raw)
	}

	require.Nil(t, parseSampleTime(""))
	require.Nil(t, parseSampleTime("august twentieth"))
}

func mustBiomarkerID(t *testing.T, repo *repository.MemoryBiomarkersRepo, code string) int64 {
	t.Helper()
	bm, err := repo.GetByCode(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, bm)
	return bm.ID
}
