package repository

import (
	"context"
	"testing"

	"biotrack-data/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var biomarkerTestColumns = []string{
	"id", "code", "name_en", "name_ru", "category", "unit_std",
	"risk_direction", "is_wearable_supported", "coalesce",
}

func TestPostgresBiomarkersGetByCode(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresBiomarkersRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM biomarkers WHERE code = \$1`).
		WithArgs("GLU").
		WillReturnRows(sqlmock.NewRows(biomarkerTestColumns).
			AddRow(3, "GLU", "Glucose", "Глюкоза", "metabolic", "mmol/L", "high", false, ""))

	bm, err := repo.GetByCode(context.Background(), "GLU")
	require.NoError(t, err)
	require.NotNil(t, bm)
	require.Equal(t, int64(3), bm.ID)
	require.Equal(t, "Glucose", bm.NameEN)
	require.Equal(t, "mmol/L", bm.UnitStd)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBiomarkersGetByCodeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresBiomarkersRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM biomarkers WHERE code = \$1`).
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows(biomarkerTestColumns))

	bm, err := repo.GetByCode(context.Background(), "NOPE")
	require.NoError(t, err)
	require.Nil(t, bm)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBiomarkersCreate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresBiomarkersRepo(db)

	mock.ExpectQuery(`INSERT INTO biomarkers .+ RETURNING id`).
		WithArgs("NEW", "New Marker", "New Marker", "other", "", "", false, "Auto-created from uploaded data").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	bm := &domain.Biomarker{
		Code: "NEW", NameEN: "New Marker", NameRU: "New Marker",
		Category: "other", Description: "Auto-created from uploaded data",
	}
	id, err := repo.CreateBiomarker(context.Background(), bm)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.Equal(t, int64(42), bm.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBiomarkersSetUnitStd(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresBiomarkersRepo(db)

	// Guarded update: only an empty unit_std may be filled.
	mock.ExpectExec(`UPDATE biomarkers SET unit_std = \$2 WHERE id = \$1 AND unit_std = ''`).
		WithArgs(int64(7), "mmol/L").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetUnitStd(context.Background(), 7, "mmol/L"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBiomarkersFindSynonym(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresBiomarkersRepo(db)

	mock.ExpectQuery(`SELECT id, biomarker_id, language, text\s+FROM biomarker_synonyms`).
		WithArgs("blood sugar").
		WillReturnRows(sqlmock.NewRows([]string{"id", "biomarker_id", "language", "text"}).
			AddRow(1, 3, "en", "Blood sugar"))

	syn, err := repo.FindSynonym(context.Background(), "blood sugar")
	require.NoError(t, err)
	require.NotNil(t, syn)
	require.Equal(t, int64(3), syn.BiomarkerID)
	require.NoError(t, mock.ExpectationsWereMet())
}
