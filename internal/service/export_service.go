package service

import (
	"context"
	"fmt"
	"time"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// wearablePanelCodes the panel accepted by the wearable vendor's lab upload.
var wearablePanelCodes = map[string]bool{
	"TC": true, "LDL": true, "HDL": true, "TG": true, "APOB": true, "LPA": true,
	"GLU": true, "A1C": true, "CRP": true, "INS": true, "TSH": true, "FT": true,
	"TESTO": true, "FER": true, "VD": true, "NA": true, "K": true, "CA": true,
	"MG": true, "CL": true,
}

var exportHeader = []string{"Biomarker", "Value", "Units", "Date", "Code"}

// ExportService renders a person's latest panel values to spreadsheet bytes.
type ExportService interface {
	// ExportWearablePanel latest value per panel code within the last `days`
	// days, as an XLSX workbook.
	ExportWearablePanel(ctx context.Context, person *domain.Person, lang string, days int) ([]byte, error)
}

type exportService struct {
	biomarkers   repository.BiomarkersRepository
	measurements repository.MeasurementsRepository
	logger       *zap.Logger
}

func NewExportService(
	biomarkers repository.BiomarkersRepository,
	measurements repository.MeasurementsRepository,
	logger *zap.Logger,
) ExportService {
	return &exportService{biomarkers: biomarkers, measurements: measurements, logger: logger}
}

func (s *exportService) ExportWearablePanel(ctx context.Context, person *domain.Person, lang string, days int) ([]byte, error) {
	if days <= 0 {
		days = 365
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	catalog, err := s.biomarkers.ListBiomarkers(ctx)
	if err != nil {
		return nil, err
	}

	type exportRow struct {
		name   string
		value  float64
		unit   string
		date   string
		code   string
	}
	var rows []exportRow
	for _, bm := range catalog {
		if !wearablePanelCodes[bm.Code] {
			continue
		}
		m, err := s.measurements.LatestInWindow(ctx, person.ID, bm.ID, since)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		name := bm.NameEN
		if lang == "ru" {
			name = bm.NameRU
		}
		date := ""
		if m.SampleTime != nil {
			date = m.SampleTime.Format("2006-01-02")
		}
		rows = append(rows, exportRow{name: name, value: m.ValueStd, unit: m.UnitStd, date: date, code: bm.Code})
	}

	f := excelize.NewFile()
	// Note: no deferred Close here, WriteToBuffer needs the file open.
	sheet := f.GetSheetName(0)

	for col, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, row := range rows {
		values := []any{row.name, row.value, row.unit, row.date, row.code}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write export row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	s.logger.Info("generated wearable panel export",
		zap.Int64("person_id", person.ID), zap.Int("rows", len(rows)))
	return buf.Bytes(), nil
}
