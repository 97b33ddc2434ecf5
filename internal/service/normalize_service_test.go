package service

import (
	"context"
	"testing"

	"biotrack-data/internal/domain"
	"biotrack-data/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNormalizeFixture(t *testing.T) (NormalizeService, *repository.MemoryBiomarkersRepo, *repository.MemoryReferenceRangesRepo, *repository.MemoryUnitConversionsRepo) {
	t.Helper()
	biomarkers := repository.NewMemoryBiomarkersRepo()
	ranges := repository.NewMemoryReferenceRangesRepo()
	conversions := repository.NewMemoryUnitConversionsRepo()
	svc := NewNormalizeService(biomarkers, ranges, conversions, zap.NewNop())
	return svc, biomarkers, ranges, conversions
}

func f64(v float64) *float64 { return &v }

func TestConvertUnit(t *testing.T) {
	ctx := context.Background()
	svc, _, _, conversions := newNormalizeFixture(t)

	_, err := conversions.CreateConversion(ctx, &domain.UnitConversion{
		FromUnit: "mg/dL", ToUnit: "mmol/L", Factor: 0.0555,
	})
	require.NoError(t, err)

	// Identity: same unit counts as converted.
	v, converted, err := svc.ConvertUnit(ctx, 5.5, "mmol/L", "mmol/L")
	require.NoError(t, err)
	require.True(t, converted)
	require.Equal(t, 5.5, v)

	// Known edge applies factor and offset.
	v, converted, err = svc.ConvertUnit(ctx, 100, "mg/dL", "mmol/L")
	require.NoError(t, err)
	require.True(t, converted)
	require.InDelta(t, 5.55, v, 1e-9)

	// Unknown pair passes the value through; converted=false distinguishes
	// the fallback from a real 1.0-factor conversion.
	v, converted, err = svc.ConvertUnit(ctx, 42, "furlongs", "mmol/L")
	require.NoError(t, err)
	require.False(t, converted)
	require.Equal(t, 42.0, v)
}

func TestResolveBiomarkerPrecedence(t *testing.T) {
	ctx := context.Background()
	svc, biomarkers, _, _ := newNormalizeFixture(t)

	glu := &domain.Biomarker{Code: "GLU", NameEN: "Glucose", NameRU: "Глюкоза", UnitStd: "mmol/L"}
	_, err := biomarkers.CreateBiomarker(ctx, glu)
	require.NoError(t, err)
	_, err = biomarkers.CreateSynonym(ctx, &domain.BiomarkerSynonym{
		BiomarkerID: glu.ID, Language: "en", Text: "Blood sugar",
	})
	require.NoError(t, err)

	// Exact code, case-insensitive.
	bm, err := svc.ResolveBiomarker(ctx, "glu", false)
	require.NoError(t, err)
	require.NotNil(t, bm)
	require.Equal(t, "GLU", bm.Code)

	// Synonym with surrounding whitespace and different case.
	bm, err = svc.ResolveBiomarker(ctx, "  BLOOD SUGAR ", false)
	require.NoError(t, err)
	require.NotNil(t, bm)
	require.Equal(t, "GLU", bm.Code)

	// Substring over display names.
	bm, err = svc.ResolveBiomarker(ctx, "Glucose (fasting)", false)
	require.NoError(t, err)
	require.NotNil(t, bm)
	require.Equal(t, "GLU", bm.Code)

	// No match and no auto-create.
	bm, err = svc.ResolveBiomarker(ctx, "Mystery marker", false)
	require.NoError(t, err)
	require.Nil(t, bm)
}

func TestResolveBiomarkerSubstringDeterminism(t *testing.T) {
	ctx := context.Background()
	svc, biomarkers, _, _ := newNormalizeFixture(t)

	chol := &domain.Biomarker{Code: "CHOL", NameEN: "Cholesterol", UnitStd: "mmol/L"}
	_, err := biomarkers.CreateBiomarker(ctx, chol)
	require.NoError(t, err)
	hdl := &domain.Biomarker{Code: "HDL", NameEN: "HDL Cholesterol", UnitStd: "mmol/L"}
	_, err = biomarkers.CreateBiomarker(ctx, hdl)
	require.NoError(t, err)

	// The longer contained name wins.
	bm, err := svc.ResolveBiomarker(ctx, "HDL Cholesterol, serum", false)
	require.NoError(t, err)
	require.NotNil(t, bm)
	require.Equal(t, "HDL", bm.Code)

	// Ties go to the lowest id.
	bm, err = svc.ResolveBiomarker(ctx, "Cholesterol", false)
	require.NoError(t, err)
	require.NotNil(t, bm)
	require.Equal(t, "CHOL", bm.Code)
}

func TestResolveBiomarkerAutoCreate(t *testing.T) {
	ctx := context.Background()
	svc, biomarkers, _, _ := newNormalizeFixture(t)

	bm, err := svc.ResolveBiomarker(ctx, "Novel Marker 5", true)
	require.NoError(t, err)
	require.NotNil(t, bm)
	require.Equal(t, "NOVEL_MARKER_5", bm.Code)
	require.Equal(t, "Novel Marker 5", bm.NameEN)
	require.Equal(t, "other", bm.Category)
	require.Empty(t, bm.UnitStd)

	// The created name resolves again via its synonym, not a new row.
	again, err := svc.ResolveBiomarker(ctx, "Novel Marker 5", true)
	require.NoError(t, err)
	require.Equal(t, bm.ID, again.ID)

	syns, err := biomarkers.ListSynonyms(ctx, bm.ID)
	require.NoError(t, err)
	require.Len(t, syns, 1)
}

func TestResolveBiomarkerAutoCreateCodeCollision(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newNormalizeFixture(t)

	first, err := svc.ResolveBiomarker(ctx, "Qq Zz", true)
	require.NoError(t, err)
	require.Equal(t, "QQ_ZZ", first.Code)

	// A different raw name deriving the same code gets a numeric suffix.
	second, err := svc.ResolveBiomarker(ctx, "Qq-Zz", true)
	require.NoError(t, err)
	require.Equal(t, "QQ_ZZ_1", second.Code)
	require.NotEqual(t, first.ID, second.ID)
}

func TestCreateFromNameNeverReusesCode(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newNormalizeFixture(t)
	ns := svc.(*normalizeService)

	// The creation layer itself never reuses a code, even for an identical
	// name; the resolver normally catches the repeat earlier via synonyms.
	first, err := ns.createFromName(ctx, "Foo")
	require.NoError(t, err)
	require.Equal(t, "FOO", first.Code)

	second, err := ns.createFromName(ctx, "Foo")
	require.NoError(t, err)
	require.Equal(t, "FOO_1", second.Code)
}

func TestCodeFromNameTruncation(t *testing.T) {
	code := codeFromName("A very long biomarker name indeed")
	require.Len(t, code, autoCreateCodeMaxLen)
	require.Equal(t, "A_VERY_LONG_BIOMARKE", code)
}

func TestSelectReference(t *testing.T) {
	ctx := context.Background()
	svc, biomarkers, ranges, _ := newNormalizeFixture(t)

	hgb := &domain.Biomarker{Code: "HGB", NameEN: "Hemoglobin", UnitStd: "g/L"}
	_, err := biomarkers.CreateBiomarker(ctx, hgb)
	require.NoError(t, err)

	anyRange := &domain.ReferenceRange{BiomarkerID: hgb.ID, Sex: domain.SexAny, AgeMin: 0, AgeMax: 120, Low: f64(115), High: f64(160)}
	_, err = ranges.CreateRange(ctx, anyRange)
	require.NoError(t, err)
	maleRange := &domain.ReferenceRange{BiomarkerID: hgb.ID, Sex: domain.SexMale, AgeMin: 18, AgeMax: 120, Low: f64(130), High: f64(170)}
	_, err = ranges.CreateRange(ctx, maleRange)
	require.NoError(t, err)

	male := &domain.Person{ID: 1, Sex: domain.SexMale, BirthDate: "1990-06-01"}
	rr, err := svc.SelectReference(ctx, hgb.ID, male)
	require.NoError(t, err)
	require.NotNil(t, rr)
	require.Equal(t, maleRange.ID, rr.ID)

	// Unknown sex scores the "any" facet; exact-sex rows lose their bonus.
	unknown := &domain.Person{ID: 2, Sex: "", BirthDate: "1990-06-01"}
	rr, err = svc.SelectReference(ctx, hgb.ID, unknown)
	require.NoError(t, err)
	require.NotNil(t, rr)
	require.Equal(t, anyRange.ID, rr.ID)

	// No ranges at all.
	other := &domain.Biomarker{Code: "XX", NameEN: "X"}
	_, err = biomarkers.CreateBiomarker(ctx, other)
	require.NoError(t, err)
	rr, err = svc.SelectReference(ctx, other.ID, male)
	require.NoError(t, err)
	require.Nil(t, rr)
}

func TestClassifyValue(t *testing.T) {
	low, high := f64(0), f64(10)

	tests := []struct {
		name  string
		value float64
		low   *float64
		high  *float64
		want  string
	}{
		{"mid range is optimal", 5, low, high, StatusOptimal},
		{"lower optimal edge inclusive", 3.0, low, high, StatusOptimal},
		{"upper optimal edge inclusive", 7.0, low, high, StatusOptimal},
		{"just below optimal band", 2.99, low, high, StatusBorderline},
		{"just above optimal band", 7.01, low, high, StatusBorderline},
		{"at the low bound", 0, low, high, StatusBorderline},
		{"below range", -1, low, high, StatusOutOfRange},
		{"above range", 11, low, high, StatusOutOfRange},
		{"missing low bound", 5, nil, high, StatusUnknown},
		{"missing high bound", 5, low, nil, StatusUnknown},
		{"degenerate range", 5, f64(5), f64(5), StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyValue(tt.value, tt.low, tt.high))
		})
	}
}
