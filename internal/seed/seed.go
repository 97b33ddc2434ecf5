package seed

import (
	"context"
	"fmt"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"

	"go.uber.org/zap"
)

// Catalog seed. Codes are the stable keys everything else hangs off;
// re-running the seed is a no-op for rows that already exist.

type biomarkerSeed struct {
	code          string
	nameEN        string
	nameRU        string
	category      string
	unitStd       string
	riskDirection string
	wearable      bool
	synonymsEN    []string
	synonymsRU    []string
}

var biomarkerSeeds = []biomarkerSeed{
	{code: "ALB", nameEN: "Albumin", nameRU: "Альбумин", category: "protein", unitStd: "g/dL", riskDirection: "low_bad"},
	{code: "CREAT", nameEN: "Creatinine", nameRU: "Креатинин", category: "kidney", unitStd: "µmol/L", riskDirection: "high_bad",
		synonymsEN: []string{"serum creatinine"}, synonymsRU: []string{"креатинин сыворотки"}},
	{code: "GLU", nameEN: "Glucose", nameRU: "Глюкоза", category: "glucose", unitStd: "mmol/L", riskDirection: "high_bad",
		synonymsEN: []string{"fasting glucose", "blood glucose"}, synonymsRU: []string{"глюкоза натощак"}},
	{code: "CRP", nameEN: "C-Reactive Protein", nameRU: "С-реактивный белок", category: "inflammation", unitStd: "mg/L", riskDirection: "high_bad",
		synonymsEN: []string{"hs-crp"}, synonymsRU: []string{"срб"}},
	{code: "LYMPH_PCT", nameEN: "Lymphocyte %", nameRU: "Лимфоциты %", category: "blood", unitStd: "%", riskDirection: "both"},
	{code: "MCV", nameEN: "Mean Cell Volume", nameRU: "Средний объём эритроцита", category: "blood", unitStd: "fL", riskDirection: "both"},
	{code: "RDW", nameEN: "Red Cell Distribution Width", nameRU: "Ширина распределения эритроцитов", category: "blood", unitStd: "%", riskDirection: "high_bad"},
	{code: "ALP", nameEN: "Alkaline Phosphatase", nameRU: "Щелочная фосфатаза", category: "liver", unitStd: "U/L", riskDirection: "high_bad"},
	{code: "WBC", nameEN: "White Blood Cells", nameRU: "Лейкоциты", category: "blood", unitStd: "10^9/L", riskDirection: "both",
		synonymsEN: []string{"white cell count", "leukocytes"}, synonymsRU: []string{"лейкоциты"}},
	{code: "TC", nameEN: "Total Cholesterol", nameRU: "Общий холестерин", category: "lipids", unitStd: "mmol/L", riskDirection: "high_bad"},
	{code: "CHOL", nameEN: "Cholesterol (serum)", nameRU: "Холестерин (сыворотка)", category: "lipids", unitStd: "mmol/L", riskDirection: "high_bad",
		synonymsEN: []string{"cholesterol"}, synonymsRU: []string{"холестерин"}},
	{code: "HDL", nameEN: "HDL Cholesterol", nameRU: "ЛПВП", category: "lipids", unitStd: "mmol/L", riskDirection: "low_bad",
		synonymsEN: []string{"hdl-c"}, synonymsRU: []string{"лпвп"}},
	{code: "LDL", nameEN: "LDL Cholesterol", nameRU: "ЛПНП", category: "lipids", unitStd: "mmol/L", riskDirection: "high_bad",
		synonymsEN: []string{"ldl-c"}, synonymsRU: []string{"лпнп"}},
	{code: "TG", nameEN: "Triglycerides", nameRU: "Триглицериды", category: "lipids", unitStd: "mmol/L", riskDirection: "high_bad"},
	{code: "HBA1C", nameEN: "Hemoglobin A1c", nameRU: "Гликированный гемоглобин", category: "glucose", unitStd: "%", riskDirection: "high_bad",
		synonymsEN: []string{"hba1c", "glycated hemoglobin"}},
	{code: "ALT", nameEN: "Alanine Aminotransferase", nameRU: "АЛТ", category: "liver", unitStd: "U/L", riskDirection: "high_bad",
		synonymsRU: []string{"алт"}},
	{code: "AST", nameEN: "Aspartate Aminotransferase", nameRU: "АСТ", category: "liver", unitStd: "U/L", riskDirection: "high_bad",
		synonymsRU: []string{"аст"}},
	{code: "HGB", nameEN: "Hemoglobin", nameRU: "Гемоглобин", category: "blood", unitStd: "g/L", riskDirection: "both",
		synonymsRU: []string{"гемоглобин"}},
	{code: "WEIGHT", nameEN: "Body Weight", nameRU: "Вес тела", category: "anthropometry", unitStd: "kg", riskDirection: "both", wearable: true},
	{code: "HEIGHT", nameEN: "Body Height", nameRU: "Рост", category: "anthropometry", unitStd: "cm", riskDirection: "both", wearable: true},
	{code: "HR", nameEN: "Heart Rate", nameRU: "Пульс", category: "vitals", unitStd: "bpm", riskDirection: "both", wearable: true},
	{code: "RHR", nameEN: "Resting Heart Rate", nameRU: "Пульс в покое", category: "vitals", unitStd: "bpm", riskDirection: "high_bad", wearable: true},
	{code: "HRV", nameEN: "Heart Rate Variability", nameRU: "Вариабельность пульса", category: "vitals", unitStd: "ms", riskDirection: "low_bad", wearable: true},
	{code: "RESP_RATE", nameEN: "Respiratory Rate", nameRU: "Частота дыхания", category: "vitals", unitStd: "br/min", riskDirection: "both", wearable: true},
	{code: "SPO2", nameEN: "Blood Oxygen Saturation", nameRU: "Сатурация", category: "vitals", unitStd: "%", riskDirection: "low_bad", wearable: true},

	// Derived biomarkers the composite engine persists.
	{code: "NON_HDL", nameEN: "Non-HDL Cholesterol", nameRU: "Не-ЛПВП холестерин", category: "lipids", unitStd: "mmol/L", riskDirection: "high_bad"},
	{code: "AI", nameEN: "Atherogenic Index", nameRU: "Индекс атерогенности", category: "lipids", unitStd: "ratio", riskDirection: "high_bad"},
	{code: "HOMA_IR", nameEN: "HOMA-IR", nameRU: "Индекс HOMA-IR", category: "glucose", unitStd: "ratio", riskDirection: "high_bad"},
	{code: "EGFR", nameEN: "Estimated GFR", nameRU: "Расчётная СКФ", category: "kidney", unitStd: "mL/min/1.73m2", riskDirection: "low_bad"},
	{code: "BMI", nameEN: "Body Mass Index", nameRU: "Индекс массы тела", category: "anthropometry", unitStd: "kg/m2", riskDirection: "both"},
}

type rangeSeed struct {
	code   string
	sex    string
	ageMin int
	ageMax int
	low    float64
	high   float64
}

var rangeSeeds = []rangeSeed{
	{code: "GLU", sex: domain.SexAny, ageMin: 0, ageMax: 200, low: 3.9, high: 5.6},
	{code: "TC", sex: domain.SexAny, ageMin: 0, ageMax: 200, low: 3.0, high: 5.2},
	{code: "CHOL", sex: domain.SexAny, ageMin: 0, ageMax: 200, low: 3.0, high: 5.2},
	{code: "HDL", sex: domain.SexMale, ageMin: 0, ageMax: 200, low: 1.0, high: 2.2},
	{code: "HDL", sex: domain.SexFemale, ageMin: 0, ageMax: 200, low: 1.2, high: 2.4},
	{code: "LDL", sex: domain.SexAny, ageMin: 0, ageMax: 200, low: 1.0, high: 3.0},
	{code: "TG", sex: domain.SexAny, ageMin: 0, ageMax: 200, low: 0.4, high: 1.7},
	{code: "HGB", sex: domain.SexMale, ageMin: 18, ageMax: 200, low: 130, high: 170},
	{code: "HGB", sex: domain.SexFemale, ageMin: 18, ageMax: 200, low: 120, high: 150},
	{code: "CRP", sex: domain.SexAny, ageMin: 0, ageMax: 200, low: 0, high: 3},
	{code: "CREAT", sex: domain.SexMale, ageMin: 18, ageMax: 200, low: 62, high: 106},
	{code: "CREAT", sex: domain.SexFemale, ageMin: 18, ageMax: 200, low: 44, high: 80},
	{code: "HBA1C", sex: domain.SexAny, ageMin: 0, ageMax: 200, low: 4.0, high: 5.7},
}

type conversionSeed struct {
	fromUnit string
	toUnit   string
	factor   float64
	offset   float64
}

var conversionSeeds = []conversionSeed{
	{fromUnit: "mg/dL", toUnit: "mmol/L", factor: 0.0555, offset: 0},
	{fromUnit: "mmol/L", toUnit: "mg/dL", factor: 18.0182, offset: 0},
	{fromUnit: "g/L", toUnit: "g/dL", factor: 0.1, offset: 0},
	{fromUnit: "g/dL", toUnit: "g/L", factor: 10, offset: 0},
	{fromUnit: "mg/L", toUnit: "mg/dL", factor: 0.1, offset: 0},
}

// Load seeds the reference catalog. Safe to run at every startup.
func Load(
	ctx context.Context,
	biomarkers repository.BiomarkersRepository,
	ranges repository.ReferenceRangesRepository,
	conversions repository.UnitConversionsRepository,
	logger *zap.Logger,
) error {
	created := 0
	for _, bs := range biomarkerSeeds {
		bm, err := biomarkers.GetByCode(ctx, bs.code)
		if err != nil {
			return fmt.Errorf("seed: failed to check biomarker %s: %w", bs.code, err)
		}
		if bm == nil {
			bm = &domain.Biomarker{
				Code:                bs.code,
				NameEN:              bs.nameEN,
				NameRU:              bs.nameRU,
				Category:            bs.category,
				UnitStd:             bs.unitStd,
				RiskDirection:       bs.riskDirection,
				IsWearableSupported: bs.wearable,
			}
			if _, err := biomarkers.CreateBiomarker(ctx, bm); err != nil {
				return fmt.Errorf("seed: failed to create biomarker %s: %w", bs.code, err)
			}
			created++
		}
		if err := seedSynonyms(ctx, biomarkers, bm, "en", bs.synonymsEN); err != nil {
			return err
		}
		if err := seedSynonyms(ctx, biomarkers, bm, "ru", bs.synonymsRU); err != nil {
			return err
		}
	}

	for _, rs := range rangeSeeds {
		bm, err := biomarkers.GetByCode(ctx, rs.code)
		if err != nil || bm == nil {
			continue
		}
		existing, err := ranges.ListRanges(ctx, bm.ID)
		if err != nil {
			return fmt.Errorf("seed: failed to list ranges for %s: %w", rs.code, err)
		}
		if hasRange(existing, rs) {
			continue
		}
		low, high := rs.low, rs.high
		rr := &domain.ReferenceRange{
			BiomarkerID: bm.ID,
			Sex:         rs.sex,
			AgeMin:      rs.ageMin,
			AgeMax:      rs.ageMax,
			Low:         &low,
			High:        &high,
			Source:      "generic",
		}
		if _, err := ranges.CreateRange(ctx, rr); err != nil {
			return fmt.Errorf("seed: failed to create range for %s: %w", rs.code, err)
		}
	}

	for _, cs := range conversionSeeds {
		uc, err := conversions.FindConversion(ctx, cs.fromUnit, cs.toUnit)
		if err != nil {
			return fmt.Errorf("seed: failed to check conversion %s->%s: %w", cs.fromUnit, cs.toUnit, err)
		}
		if uc != nil {
			continue
		}
		if _, err := conversions.CreateConversion(ctx, &domain.UnitConversion{
			FromUnit: cs.fromUnit,
			ToUnit:   cs.toUnit,
			Factor:   cs.factor,
			Offset:   cs.offset,
		}); err != nil {
			return fmt.Errorf("seed: failed to create conversion %s->%s: %w", cs.fromUnit, cs.toUnit, err)
		}
	}

	logger.Info("reference catalog seeded", zap.Int("biomarkers_created", created))
	return nil
}

func seedSynonyms(ctx context.Context, biomarkers repository.BiomarkersRepository, bm *domain.Biomarker, lang string, texts []string) error {
	for _, text := range texts {
		existing, err := biomarkers.FindSynonym(ctx, text)
		if err != nil {
			return fmt.Errorf("seed: failed to check synonym %q: %w", text, err)
		}
		if existing != nil {
			continue
		}
		if _, err := biomarkers.CreateSynonym(ctx, &domain.BiomarkerSynonym{
			BiomarkerID: bm.ID,
			Language:    lang,
			Text:        text,
		}); err != nil {
			return fmt.Errorf("seed: failed to create synonym %q: %w", text, err)
		}
	}
	return nil
}

func hasRange(existing []*domain.ReferenceRange, rs rangeSeed) bool {
	for _, rr := range existing {
		if rr.Sex == rs.sex && rr.AgeMin == rs.ageMin && rr.AgeMax == rs.ageMax {
			return true
		}
	}
	return false
}
