package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExportWearablePanel(t *testing.T) {
	ctx := context.Background()
	biomarkers := repository.NewMemoryBiomarkersRepo()
	measurements := repository.NewMemoryMeasurementsRepo()
	svc := NewExportService(biomarkers, measurements, zap.NewNop())

	tc := &domain.Biomarker{Code: "TC", NameEN: "Total Cholesterol", NameRU: "Общий холестерин", UnitStd: "mmol/L"}
	_, err := biomarkers.CreateBiomarker(ctx, tc)
	require.NoError(t, err)
	// Not in the wearable panel, must not appear in the export.
	alb := &domain.Biomarker{Code: "ALB", NameEN: "Albumin", UnitStd: "g/dL"}
	_, err = biomarkers.CreateBiomarker(ctx, alb)
	require.NoError(t, err)

	person := &domain.Person{ID: 1, Sex: domain.SexMale, BirthDate: "1990-01-01"}
	sampled := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	for _, bm := range []*domain.Biomarker{tc, alb} {
		_, err = measurements.Insert(ctx, &domain.Measurement{
			PersonID:    person.ID,
			BiomarkerID: bm.ID,
			ValueStd:    5.2,
			UnitStd:     bm.UnitStd,
			SourceType:  domain.SourceLabImport,
			SampleTime:  &sampled,
		})
		require.NoError(t, err)
	}

	data, err := svc.ExportWearablePanel(ctx, person, "en", 365000)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"Biomarker", "Value", "Units", "Date", "Code"}, rows[0])
	require.Equal(t, "Total Cholesterol", rows[1][0])
	require.Equal(t, "mmol/L", rows[1][2])
	require.Equal(t, "2026-08-20", rows[1][3])
	require.Equal(t, "TC", rows[1][4])
}

func TestExportWearablePanelRussianNames(t *testing.T) {
	ctx := context.Background()
	biomarkers := repository.NewMemoryBiomarkersRepo()
	measurements := repository.NewMemoryMeasurementsRepo()
	svc := NewExportService(biomarkers, measurements, zap.NewNop())

	tc := &domain.Biomarker{Code: "TC", NameEN: "Total Cholesterol", NameRU: "Общий холестерин", UnitStd: "mmol/L"}
	_, err := biomarkers.CreateBiomarker(ctx, tc)
	require.NoError(t, err)

	person := &domain.Person{ID: 1}
	now := time.Now().UTC()
	_, err = measurements.Insert(ctx, &domain.Measurement{
		PersonID: person.ID, BiomarkerID: tc.ID, ValueStd: 5.2, UnitStd: "mmol/L",
		SourceType: domain.SourceLabImport, SampleTime: &now,
	})
	require.NoError(t, err)

	data, err := svc.ExportWearablePanel(ctx, person, "ru", 0)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Общий холестерин", rows[1][0])
}

func TestExportWearablePanelEmpty(t *testing.T) {
	ctx := context.Background()
	svc := NewExportService(repository.NewMemoryBiomarkersRepo(), repository.NewMemoryMeasurementsRepo(), zap.NewNop())

	data, err := svc.ExportWearablePanel(ctx, &domain.Person{ID: 1}, "en", 30)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	// Header only.
	require.Len(t, rows, 1)
}
