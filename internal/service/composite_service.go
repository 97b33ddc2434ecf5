package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"

	"go.uber.org/zap"
)

// Composite keys returned by ComputeAll.
const (
	CompositeNonHDL           = "non_hdl"
	CompositeAtherogenicIndex = "atherogenic_index"
	CompositeHomaIR           = "homa_ir"
	CompositeEGFR             = "egfr"
	CompositeBMI              = "bmi"
)

// Lookback windows for composite inputs.
const (
	compositeLookbackDays      = 30
	anthropometricLookbackDays = 365 // weight/height change slowly
	calculatedOverwriteDays    = 1
)

// compositeCodes maps composite keys to the catalog codes their results are
// persisted under.
var compositeCodes = map[string]string{
	CompositeNonHDL:           "NON_HDL",
	CompositeAtherogenicIndex: "AI",
	CompositeHomaIR:           "HOMA_IR",
	CompositeEGFR:             "EGFR",
	CompositeBMI:              "BMI",
}

// CompositeService derives secondary biomarkers from standardized
// measurements. A nil entry means a required input was missing within its
// lookback window - not an error.
type CompositeService interface {
	ComputeAll(ctx context.Context, person *domain.Person) (map[string]*float64, error)

	// AutoSave persists every non-nil composite as a 'calculated'
	// measurement, overwriting one recomputed within the last day instead of
	// appending. Runs synchronously after new raw measurements are imported.
	AutoSave(ctx context.Context, person *domain.Person) error
}

type compositeService struct {
	biomarkers   repository.BiomarkersRepository
	measurements repository.MeasurementsRepository
	logger       *zap.Logger
}

func NewCompositeService(
	biomarkers repository.BiomarkersRepository,
	measurements repository.MeasurementsRepository,
	logger *zap.Logger,
) CompositeService {
	return &compositeService{biomarkers: biomarkers, measurements: measurements, logger: logger}
}

// latestValue latest standardized value for a catalog code within the window.
func (s *compositeService) latestValue(ctx context.Context, personID int64, code string, withinDays int) (*float64, error) {
	bm, err := s.biomarkers.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if bm == nil {
		return nil, nil
	}
	since := time.Now().UTC().AddDate(0, 0, -withinDays)
	m, err := s.measurements.LatestInWindow(ctx, personID, bm.ID, since)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	v := m.ValueStd
	return &v, nil
}

func (s *compositeService) ComputeAll(ctx context.Context, person *domain.Person) (map[string]*float64, error) {
	nonHDL, err := s.nonHDL(ctx, person)
	if err != nil {
		return nil, err
	}
	ai, err := s.atherogenicIndex(ctx, person)
	if err != nil {
		return nil, err
	}
	egfr, err := s.egfrCKDEPI2021(ctx, person)
	if err != nil {
		return nil, err
	}
	bmi, err := s.bmi(ctx, person)
	if err != nil {
		return nil, err
	}
	return map[string]*float64{
		CompositeNonHDL:           nonHDL,
		CompositeAtherogenicIndex: ai,
		CompositeHomaIR:           nil, // requires fasting insulin, which no current source supplies
		CompositeEGFR:             egfr,
		CompositeBMI:              bmi,
	}, nil
}

// nonHDL = total cholesterol - HDL.
func (s *compositeService) nonHDL(ctx context.Context, person *domain.Person) (*float64, error) {
	chol, err := s.latestValue(ctx, person.ID, "CHOL", compositeLookbackDays)
	if err != nil {
		return nil, err
	}
	hdl, err := s.latestValue(ctx, person.ID, "HDL", compositeLookbackDays)
	if err != nil {
		return nil, err
	}
	if chol == nil || hdl == nil {
		return nil, nil
	}
	v := *chol - *hdl
	return &v, nil
}

// atherogenicIndex = total cholesterol / HDL.
func (s *compositeService) atherogenicIndex(ctx context.Context, person *domain.Person) (*float64, error) {
	chol, err := s.latestValue(ctx, person.ID, "CHOL", compositeLookbackDays)
	if err != nil {
		return nil, err
	}
	hdl, err := s.latestValue(ctx, person.ID, "HDL", compositeLookbackDays)
	if err != nil {
		return nil, err
	}
	if chol == nil || hdl == nil || *hdl <= 0 {
		return nil, nil
	}
	v := *chol / *hdl
	return &v, nil
}

// egfrCKDEPI2021 race-free CKD-EPI 2021:
// eGFR = 142 * min(Scr/k,1)^a * max(Scr/k,1)^-1.200 * 0.9938^age * sexFactor
// with Scr in mg/dL (serum creatinine arrives in umol/L, /88.4).
func (s *compositeService) egfrCKDEPI2021(ctx context.Context, person *domain.Person) (*float64, error) {
	creat, err := s.latestValue(ctx, person.ID, "CREAT", compositeLookbackDays)
	if err != nil {
		return nil, err
	}
	if creat == nil {
		return nil, nil
	}
	age, ok := person.AgeYears(time.Now().UTC())
	if !ok {
		return nil, nil
	}

	scr := *creat / 88.4

	kappa, alpha, sexFactor := 0.9, -0.302, 1.0 // male or unknown
	if person.Sex == domain.SexFemale {
		kappa, alpha, sexFactor = 0.7, -0.241, 1.012
	}

	egfr := 142 *
		math.Pow(math.Min(scr/kappa, 1), alpha) *
		math.Pow(math.Max(scr/kappa, 1), -1.200) *
		math.Pow(0.9938, float64(age)) *
		sexFactor
	v := round1(egfr)
	return &v, nil
}

// bmi = weight kg / (height m)^2; height is stored in cm.
func (s *compositeService) bmi(ctx context.Context, person *domain.Person) (*float64, error) {
	weight, err := s.latestValue(ctx, person.ID, "WEIGHT", anthropometricLookbackDays)
	if err != nil {
		return nil, err
	}
	height, err := s.latestValue(ctx, person.ID, "HEIGHT", anthropometricLookbackDays)
	if err != nil {
		return nil, err
	}
	if weight == nil || height == nil || *height <= 0 {
		return nil, nil
	}
	heightM := *height / 100
	v := round1(*weight / (heightM * heightM))
	return &v, nil
}

func (s *compositeService) AutoSave(ctx context.Context, person *domain.Person) error {
	composites, err := s.ComputeAll(ctx, person)
	if err != nil {
		return fmt.Errorf("failed to compute composites: %w", err)
	}

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -calculatedOverwriteDays)
	for key, value := range composites {
		if value == nil {
			continue
		}
		bm, err := s.biomarkers.GetByCode(ctx, compositeCodes[key])
		if err != nil {
			return err
		}
		if bm == nil {
			continue
		}
		sample := now
		m := &domain.Measurement{
			PersonID:      person.ID,
			BiomarkerID:   bm.ID,
			ValueStd:      *value,
			UnitStd:       bm.UnitStd,
			OriginalName:  "Calculated " + bm.Code,
			OriginalValue: fmt.Sprintf("%v", *value),
			OriginalUnit:  bm.UnitStd,
			SourceType:    domain.SourceCalculated,
			SampleTime:    &sample,
		}
		if err := s.measurements.UpsertCalculated(ctx, m, since); err != nil {
			return fmt.Errorf("failed to save composite %s: %w", key, err)
		}
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
