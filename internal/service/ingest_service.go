package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"

	"go.uber.org/zap"
)

// IngestRequest a batch of raw candidates from one source.
type IngestRequest struct {
	SourceType string // manual/lab_import/wearable
	SourceRef  string // upload or sync id, may be empty
	// AutoCreate controls resolver auto-creation; when false, unresolved
	// names are reported back for manual mapping instead.
	AutoCreate bool
	Candidates []domain.ParseCandidate
}

// IngestResult per-batch outcome. One malformed candidate never blocks the
// others.
type IngestResult struct {
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Unmatched []string `json:"unmatched,omitempty"`
}

// IngestService turns raw candidate tuples into standardized measurements
// and triggers the composite auto-save.
type IngestService interface {
	IngestCandidates(ctx context.Context, person *domain.Person, req IngestRequest) (*IngestResult, error)
}

type ingestService struct {
	normalize    NormalizeService
	composites   CompositeService
	biomarkers   repository.BiomarkersRepository
	measurements repository.MeasurementsRepository
	logger       *zap.Logger
}

func NewIngestService(
	normalize NormalizeService,
	composites CompositeService,
	biomarkers repository.BiomarkersRepository,
	measurements repository.MeasurementsRepository,
	logger *zap.Logger,
) IngestService {
	return &ingestService{
		normalize:    normalize,
		composites:   composites,
		biomarkers:   biomarkers,
		measurements: measurements,
		logger:       logger,
	}
}

func (s *ingestService) IngestCandidates(ctx context.Context, person *domain.Person, req IngestRequest) (*IngestResult, error) {
	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = domain.SourceLabImport
	}

	result := &IngestResult{}
	for _, cand := range req.Candidates {
		value, ok := parseValueRaw(cand.ValueRaw)
		if !ok {
			result.Skipped++
			continue
		}

		bm, err := s.normalize.ResolveBiomarker(ctx, cand.OriginalName, req.AutoCreate)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", cand.OriginalName, err)
		}
		if bm == nil {
			result.Unmatched = append(result.Unmatched, cand.OriginalName)
			continue
		}

		unitRaw := strings.TrimSpace(cand.UnitRaw)
		if bm.UnitStd == "" && unitRaw != "" {
			// Auto-created biomarker: the first measurement defines the
			// standard unit.
			if err := s.biomarkers.SetUnitStd(ctx, bm.ID, unitRaw); err != nil {
				return nil, err
			}
			bm.UnitStd = unitRaw
		}

		valueStd, converted, err := s.normalize.ConvertUnit(ctx, value, unitRaw, bm.UnitStd)
		if err != nil {
			return nil, err
		}
		qualityNote := ""
		if !converted {
			qualityNote = "unconverted unit: " + unitRaw
		}

		m := &domain.Measurement{
			PersonID:      person.ID,
			BiomarkerID:   bm.ID,
			ValueStd:      valueStd,
			UnitStd:       bm.UnitStd,
			OriginalName:  cand.OriginalName,
			OriginalValue: cand.ValueRaw,
			OriginalUnit:  cand.UnitRaw,
			SourceType:    sourceType,
			SourceRef:     req.SourceRef,
			SampleTime:    parseSampleTime(cand.SampleTimeRaw),
			QualityNote:   qualityNote,
		}
		if _, err := s.measurements.Insert(ctx, m); err != nil {
			return nil, err
		}
		result.Imported++
	}

	if result.Imported > 0 {
		if err := s.composites.AutoSave(ctx, person); err != nil {
			return nil, fmt.Errorf("failed to auto-save composites: %w", err)
		}
	}

	s.logger.Info("ingested candidates",
		zap.Int64("person_id", person.ID),
		zap.String("source_type", sourceType),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("unmatched", len(result.Unmatched)))
	return result, nil
}

// parseValueRaw tolerant numeric parse: trims whitespace, accepts comma
// decimals and leading comparison markers ("<0.5").
func parseValueRaw(raw string) (float64, bool) {
	v := strings.TrimSpace(raw)
	v = strings.TrimLeft(v, "<>~=")
	v = strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var sampleTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
}

// parseSampleTime nil when the raw date is empty or matches no known layout;
// the measurement is still stored (best-effort policy).
func parseSampleTime(raw string) *time.Time {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	for _, layout := range sampleTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
