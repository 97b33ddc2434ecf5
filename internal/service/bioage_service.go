package service

import (
	"context"
	"math"
	"time"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"

	"go.uber.org/zap"
)

// Error tokens for biological-age results. Missing data is a result value,
// never a Go error: callers render "insufficient data" without crashing.
const (
	ErrMissingBirthdate  = "missing_birthdate"
	ErrMissingBiomarkers = "missing_biomarkers"
)

// PhenoAgeResult PhenoAge (Levine 2018) outcome. When Error is set only
// Error/Missing are meaningful; the formula is never partially computed.
type PhenoAgeResult struct {
	Error            string   `json:"error,omitempty"`
	Missing          []string `json:"missing,omitempty"`
	PhenoAge         float64  `json:"phenoage"`
	ChronologicalAge float64  `json:"chronological_age"`
	AgeDelta         float64  `json:"age_delta"`
	MortalityScore   float64  `json:"mortality_score"` // percent
	Interpretation   string   `json:"interpretation"`
}

// SimpleBioAgeResult threshold-table biological age over commonly available
// biomarkers.
type SimpleBioAgeResult struct {
	Error            string  `json:"error,omitempty"`
	BioAge           float64 `json:"bioage"`
	ChronologicalAge float64 `json:"chronological_age"`
	AgeDelta         float64 `json:"age_delta"`
	AgingScore       float64 `json:"aging_score"`
	BiomarkersUsed   int     `json:"biomarkers_used"`
	Interpretation   string  `json:"interpretation"`
}

// BioAgeAverage mean of the deltas of the methods that succeeded.
type BioAgeAverage struct {
	AgeDelta       float64 `json:"age_delta"`
	Interpretation string  `json:"interpretation"`
}

// AllBioAgesResult aggregate of every available method. A method that failed
// (missing data) is simply absent.
type AllBioAgesResult struct {
	PhenoAge     *PhenoAgeResult     `json:"phenoage,omitempty"`
	SimpleBioAge *SimpleBioAgeResult `json:"simple_bioage,omitempty"`
	Average      *BioAgeAverage      `json:"average,omitempty"`
}

// BioAgeService point-in-time biological-age estimates from the latest
// available standardized measurements.
type BioAgeService interface {
	PhenoAge(ctx context.Context, person *domain.Person) (*PhenoAgeResult, error)
	SimpleBioAge(ctx context.Context, person *domain.Person) (*SimpleBioAgeResult, error)
	AllBioAges(ctx context.Context, person *domain.Person) (*AllBioAgesResult, error)
}

type bioAgeService struct {
	biomarkers   repository.BiomarkersRepository
	measurements repository.MeasurementsRepository
	logger       *zap.Logger
}

func NewBioAgeService(
	biomarkers repository.BiomarkersRepository,
	measurements repository.MeasurementsRepository,
	logger *zap.Logger,
) BioAgeService {
	return &bioAgeService{biomarkers: biomarkers, measurements: measurements, logger: logger}
}

// latestAvailable newest standardized value regardless of sample window.
func (s *bioAgeService) latestAvailable(ctx context.Context, personID int64, code string) (*float64, error) {
	bm, err := s.biomarkers.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if bm == nil {
		return nil, nil
	}
	m, err := s.measurements.LatestByCreated(ctx, personID, bm.ID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	v := m.ValueStd
	return &v, nil
}

// phenoAgeInputs the nine required biomarkers, in reporting order.
var phenoAgeInputs = []struct {
	code string
	name string
}{
	{"ALB", "Albumin"},
	{"CREAT", "Creatinine"},
	{"GLU", "Glucose"},
	{"CRP", "CRP"},
	{"LYMPH_PCT", "Lymphocyte %"},
	{"MCV", "MCV"},
	{"RDW", "RDW"},
	{"ALP", "ALP"},
	{"WBC", "WBC"},
}

// PhenoAge Levine 2018. Requires all nine inputs; creatinine arrives in
// umol/L (*0.0113 -> mg/dL) and glucose in mmol/L (*18.0 -> mg/dL); WBC in
// 10^9/L already matches the formula's 1000 cells/uL scale.
func (s *bioAgeService) PhenoAge(ctx context.Context, person *domain.Person) (*PhenoAgeResult, error) {
	age, ok := person.ChronologicalAge(time.Now().UTC())
	if !ok {
		return &PhenoAgeResult{Error: ErrMissingBirthdate}, nil
	}

	values := make(map[string]float64, len(phenoAgeInputs))
	var missing []string
	for _, in := range phenoAgeInputs {
		v, err := s.latestAvailable(ctx, person.ID, in.code)
		if err != nil {
			return nil, err
		}
		if v == nil {
			missing = append(missing, in.name)
			continue
		}
		values[in.code] = *v
	}
	if len(missing) > 0 {
		return &PhenoAgeResult{Error: ErrMissingBiomarkers, Missing: missing}, nil
	}

	creatinineMgdl := values["CREAT"] * 0.0113
	glucoseMgdl := values["GLU"] * 18.0

	xb := -0.0336*values["ALB"] +
		0.0095*creatinineMgdl +
		0.1953*glucoseMgdl +
		0.0954*math.Log(values["CRP"]) +
		-0.0120*values["LYMPH_PCT"] +
		0.0268*values["MCV"] +
		0.3306*values["RDW"] +
		0.0019*values["ALP"] +
		0.0554*values["WBC"] +
		-0.0804*age

	mortalityScore := 1 - math.Exp(-1.51714*math.Exp(xb)*math.Exp(0.0076927*age))
	// The survival term underflows to 0 on extreme panels, which would send
	// the outer log to +Inf; cap mortality just below certainty.
	if mortalityScore >= 1 {
		mortalityScore = math.Nextafter(1, 0)
	}
	phenoAge := 141.50225 + math.Log(-0.00553*math.Log(1-mortalityScore))/0.090165
	ageDelta := phenoAge - age

	return &PhenoAgeResult{
		PhenoAge:         round1(phenoAge),
		ChronologicalAge: round1(age),
		AgeDelta:         round1(ageDelta),
		MortalityScore:   round2(mortalityScore * 100),
		Interpretation:   phenoAgeInterpretation(ageDelta),
	}, nil
}

// simpleBioAgeCodes everything the simplified method looks at; only the codes
// with a threshold table below contribute points.
var simpleBioAgeCodes = []string{
	"TC", "HDL", "LDL", "TG", "GLU", "HBA1C", "CRP", "ALT", "AST", "CREAT", "EGFR", "HGB", "WBC",
}

// SimpleBioAge hand-authored threshold tables over whichever biomarkers are
// available; each contributes a fixed penalty, averaged into an age delta.
func (s *bioAgeService) SimpleBioAge(ctx context.Context, person *domain.Person) (*SimpleBioAgeResult, error) {
	age, ok := person.ChronologicalAge(time.Now().UTC())
	if !ok {
		return &SimpleBioAgeResult{Error: ErrMissingBirthdate}, nil
	}

	values := make(map[string]*float64, len(simpleBioAgeCodes))
	for _, code := range simpleBioAgeCodes {
		v, err := s.latestAvailable(ctx, person.ID, code)
		if err != nil {
			return nil, err
		}
		values[code] = v
	}

	score := 0.0
	count := 0
	add := func(points float64) {
		score += points
		count++
	}

	// Lipids (mmol/L).
	if tc := values["TC"]; tc != nil {
		switch {
		case *tc < 5.2:
			add(0)
		case *tc < 6.2:
			add(5)
		default:
			add(10)
		}
	}
	if hdl := values["HDL"]; hdl != nil {
		switch {
		case *hdl > 1.5:
			add(0)
		case *hdl > 1.0:
			add(5)
		default:
			add(10)
		}
	}
	if ldl := values["LDL"]; ldl != nil {
		switch {
		case *ldl < 2.6:
			add(0)
		case *ldl < 4.1:
			add(5)
		default:
			add(10)
		}
	}
	if tg := values["TG"]; tg != nil {
		switch {
		case *tg < 1.7:
			add(0)
		case *tg < 2.3:
			add(5)
		default:
			add(10)
		}
	}

	// Glucose metabolism.
	if glu := values["GLU"]; glu != nil {
		switch {
		case 4.0 <= *glu && *glu <= 5.6:
			add(0)
		case *glu < 7.0:
			add(7)
		default:
			add(15)
		}
	}
	if a1c := values["HBA1C"]; a1c != nil {
		switch {
		case *a1c < 5.7:
			add(0)
		case *a1c < 6.5:
			add(7)
		default:
			add(15)
		}
	}

	// Inflammation (mg/L).
	if crp := values["CRP"]; crp != nil {
		switch {
		case *crp < 1:
			add(0)
		case *crp < 3:
			add(5)
		default:
			add(10)
		}
	}

	// Liver (U/L).
	if alt := values["ALT"]; alt != nil {
		switch {
		case *alt < 30:
			add(0)
		case *alt < 40:
			add(3)
		default:
			add(8)
		}
	}

	// Kidney (mL/min/1.73m2).
	if egfr := values["EGFR"]; egfr != nil {
		switch {
		case *egfr > 90:
			add(0)
		case *egfr > 60:
			add(5)
		default:
			add(12)
		}
	}

	// Blood (g/L).
	if hgb := values["HGB"]; hgb != nil {
		if 120 <= *hgb && *hgb <= 170 {
			add(0)
		} else {
			add(5)
		}
	}

	if count == 0 {
		return &SimpleBioAgeResult{Error: ErrMissingBiomarkers}, nil
	}

	avgScore := score / float64(count)
	// Score 0 => -5 years, score 10 => +5 years.
	ageDelta := (avgScore - 5) * 1.0
	bioAge := age + ageDelta

	return &SimpleBioAgeResult{
		BioAge:           round1(bioAge),
		ChronologicalAge: round1(age),
		AgeDelta:         round1(ageDelta),
		AgingScore:       round1(avgScore),
		BiomarkersUsed:   count,
		Interpretation:   simpleBioAgeInterpretation(ageDelta),
	}, nil
}

func (s *bioAgeService) AllBioAges(ctx context.Context, person *domain.Person) (*AllBioAgesResult, error) {
	out := &AllBioAgesResult{}

	pheno, err := s.PhenoAge(ctx, person)
	if err != nil {
		return nil, err
	}
	if pheno.Error == "" {
		out.PhenoAge = pheno
	}

	simple, err := s.SimpleBioAge(ctx, person)
	if err != nil {
		return nil, err
	}
	if simple.Error == "" {
		out.SimpleBioAge = simple
	}

	if out.PhenoAge != nil && out.SimpleBioAge != nil {
		avgDelta := (out.PhenoAge.AgeDelta + out.SimpleBioAge.AgeDelta) / 2
		out.Average = &BioAgeAverage{
			AgeDelta:       round1(avgDelta),
			Interpretation: simpleBioAgeInterpretation(avgDelta),
		}
	}
	return out, nil
}

// phenoAgeInterpretation bands on the delta; each threshold belongs to the
// lower band.
func phenoAgeInterpretation(ageDelta float64) string {
	switch {
	case ageDelta < -5:
		return "Excellent - You are aging significantly slower than average"
	case ageDelta < -2:
		return "Good - You are aging slower than average"
	case ageDelta < 2:
		return "Average - You are aging at a normal rate"
	case ageDelta < 5:
		return "Fair - You are aging faster than average"
	default:
		return "Poor - You are aging significantly faster than average"
	}
}

func simpleBioAgeInterpretation(ageDelta float64) string {
	switch {
	case ageDelta < -3:
		return "Excellent biological health - significantly younger than chronological age"
	case ageDelta < -1:
		return "Good biological health - younger than chronological age"
	case ageDelta < 1:
		return "Average biological health - matches chronological age"
	case ageDelta < 3:
		return "Fair biological health - older than chronological age"
	default:
		return "Poor biological health - significantly older than chronological age"
	}
}
