package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"

	"go.uber.org/zap"
)

// Classification statuses against a reference range.
const (
	StatusOptimal    = "optimal"
	StatusBorderline = "borderline"
	StatusOutOfRange = "out_of_range"
	StatusUnknown    = "unknown"
)

const autoCreateCodeMaxLen = 20

// NormalizeService maps observed names to canonical biomarkers, converts
// units to the biomarker's standard and selects reference ranges.
type NormalizeService interface {
	// ConvertUnit returns the standardized value. converted is true when an
	// actual transform was applied (including the from==to identity) and
	// false when no conversion edge existed and the value passed through
	// unchanged - a deliberate lenient fallback, not an error.
	ConvertUnit(ctx context.Context, value float64, fromUnit, toUnit string) (result float64, converted bool, err error)

	// ResolveBiomarker resolves an observed name: exact code match, then
	// case-insensitive synonym, then scored substring match over display
	// names, then (when autoCreate) a synthesized biomarker. Returns
	// (nil, nil) when nothing matched and autoCreate is false.
	ResolveBiomarker(ctx context.Context, observedName string, autoCreate bool) (*domain.Biomarker, error)

	// SelectReference picks the best-matching range for (biomarker, person),
	// or nil when the biomarker has no ranges.
	SelectReference(ctx context.Context, biomarkerID int64, person *domain.Person) (*domain.ReferenceRange, error)
}

type normalizeService struct {
	biomarkers  repository.BiomarkersRepository
	ranges      repository.ReferenceRangesRepository
	conversions repository.UnitConversionsRepository
	logger      *zap.Logger

	// Serializes the check-then-create of auto-created codes so concurrent
	// first-time imports of the same unknown name cannot mint duplicates.
	createMu sync.Mutex
}

func NewNormalizeService(
	biomarkers repository.BiomarkersRepository,
	ranges repository.ReferenceRangesRepository,
	conversions repository.UnitConversionsRepository,
	logger *zap.Logger,
) NormalizeService {
	return &normalizeService{
		biomarkers:  biomarkers,
		ranges:      ranges,
		conversions: conversions,
		logger:      logger,
	}
}

func (s *normalizeService) ConvertUnit(ctx context.Context, value float64, fromUnit, toUnit string) (float64, bool, error) {
	if fromUnit == toUnit {
		return value, true, nil
	}
	uc, err := s.conversions.FindConversion(ctx, fromUnit, toUnit)
	if err != nil {
		return value, false, fmt.Errorf("failed to look up conversion %s->%s: %w", fromUnit, toUnit, err)
	}
	if uc == nil {
		// Unknown unit pair: pass the value through so the record still
		// exists for manual correction.
		return value, false, nil
	}
	return value*uc.Factor + uc.Offset, true, nil
}

func (s *normalizeService) ResolveBiomarker(ctx context.Context, observedName string, autoCreate bool) (*domain.Biomarker, error) {
	// 1. Exact code match.
	bm, err := s.biomarkers.GetByCode(ctx, strings.ToUpper(observedName))
	if err != nil {
		return nil, err
	}
	if bm != nil {
		return bm, nil
	}

	// 2. Synonym match.
	syn, err := s.biomarkers.FindSynonym(ctx, observedName)
	if err != nil {
		return nil, err
	}
	if syn != nil {
		return s.biomarkers.GetByID(ctx, syn.BiomarkerID)
	}

	// 3. Scored substring match across display names.
	bm, err = s.matchByName(ctx, observedName)
	if err != nil {
		return nil, err
	}
	if bm != nil {
		return bm, nil
	}

	if autoCreate {
		return s.createFromName(ctx, observedName)
	}
	return nil, nil
}

// matchByName substring match in either direction over both localized names.
// Deterministic: the longest contained name wins, ties go to the lowest
// biomarker id (the catalog list is id-ordered).
func (s *normalizeService) matchByName(ctx context.Context, observedName string) (*domain.Biomarker, error) {
	needle := strings.ToLower(strings.TrimSpace(observedName))
	if needle == "" {
		return nil, nil
	}
	catalog, err := s.biomarkers.ListBiomarkers(ctx)
	if err != nil {
		return nil, err
	}

	var best *domain.Biomarker
	bestScore := 0
	for _, bm := range catalog {
		score := 0
		for _, name := range []string{bm.NameEN, bm.NameRU} {
			lname := strings.ToLower(name)
			if lname == "" {
				continue
			}
			var matched int
			switch {
			case strings.Contains(needle, lname):
				matched = len(lname)
			case strings.Contains(lname, needle):
				matched = len(needle)
			}
			if matched > score {
				score = matched
			}
		}
		if score > bestScore {
			bestScore = score
			best = bm
		}
	}
	return best, nil
}

func (s *normalizeService) createFromName(ctx context.Context, name string) (*domain.Biomarker, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	code := codeFromName(name)
	if existing, err := s.biomarkers.GetByCode(ctx, code); err != nil {
		return nil, err
	} else if existing != nil {
		// Collision on the derived code: append an incrementing suffix.
		for suffix := 1; ; suffix++ {
			candidate := fmt.Sprintf("%s_%d", code, suffix)
			bm, err := s.biomarkers.GetByCode(ctx, candidate)
			if err != nil {
				return nil, err
			}
			if bm == nil {
				code = candidate
				break
			}
		}
	}

	bm := &domain.Biomarker{
		Code:        code,
		NameEN:      name,
		NameRU:      name,
		Category:    "other",
		UnitStd:     "", // filled from the first measurement
		Description: "Auto-created from uploaded data",
	}
	if _, err := s.biomarkers.CreateBiomarker(ctx, bm); err != nil {
		return nil, err
	}
	if _, err := s.biomarkers.CreateSynonym(ctx, &domain.BiomarkerSynonym{
		BiomarkerID: bm.ID,
		Language:    "en",
		Text:        name,
	}); err != nil {
		return nil, err
	}
	s.logger.Info("auto-created biomarker",
		zap.String("code", bm.Code), zap.String("observed_name", name))
	return bm, nil
}

// codeFromName derives a stable code: uppercase, non-alphanumerics collapsed
// to underscores, truncated.
func codeFromName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	code := b.String()
	if len(code) > autoCreateCodeMaxLen {
		code = code[:autoCreateCodeMaxLen]
	}
	return code
}

func (s *normalizeService) SelectReference(ctx context.Context, biomarkerID int64, person *domain.Person) (*domain.ReferenceRange, error) {
	candidates, err := s.ranges.ListRanges(ctx, biomarkerID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	facet := person.SexFacet()
	age, ageKnown := person.AgeYears(time.Now().UTC())

	var best *domain.ReferenceRange
	bestScore := -1
	for _, rr := range candidates {
		score := 0
		if rr.Sex == facet {
			score += 2
		} else if rr.Sex == domain.SexAny {
			score++
		}
		if ageKnown && rr.AgeMin <= age && age <= rr.AgeMax {
			score += 2
		}
		// Strict > keeps the first-encountered candidate on ties; the list
		// is id-ordered so the tie-break is reproducible.
		if score > bestScore {
			bestScore = score
			best = rr
		}
	}
	return best, nil
}

// ClassifyValue three-tier banding of a value against (low, high).
// unknown when a bound is missing or degenerate; out_of_range outside the
// bounds; optimal when the normalized position is within [0.3, 0.7]
// inclusive; borderline otherwise.
func ClassifyValue(value float64, low, high *float64) string {
	if low == nil || high == nil || *high == *low {
		return StatusUnknown
	}
	if value < *low || value > *high {
		return StatusOutOfRange
	}
	pos := (value - *low) / (*high - *low)
	if pos >= 0.3 && pos <= 0.7 {
		return StatusOptimal
	}
	return StatusBorderline
}
