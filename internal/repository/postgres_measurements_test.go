package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"biotrack-data/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPostgresMeasurementsUpsertCalculatedInserts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresMeasurementsRepo(db)

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -1)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM measurements`).
		WithArgs(int64(1), int64(10), domain.SourceCalculated, since).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO measurements`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	m := &domain.Measurement{
		PersonID: 1, BiomarkerID: 10, ValueStd: 3.8,
		SourceType: domain.SourceCalculated, SampleTime: &now,
	}
	require.NoError(t, repo.UpsertCalculated(context.Background(), m, since))
	require.Equal(t, int64(5), m.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMeasurementsUpsertCalculatedUpdates(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresMeasurementsRepo(db)

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -1)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM measurements`).
		WithArgs(int64(1), int64(10), domain.SourceCalculated, since).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(`UPDATE measurements SET value_std = \$2, sample_time = \$3 WHERE id = \$1`).
		WithArgs(int64(7), 4.8, &now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := &domain.Measurement{
		PersonID: 1, BiomarkerID: 10, ValueStd: 4.8,
		SourceType: domain.SourceCalculated, SampleTime: &now,
	}
	require.NoError(t, repo.UpsertCalculated(context.Background(), m, since))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMeasurementsLatestInWindowNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresMeasurementsRepo(db)

	since := time.Now().UTC().AddDate(0, 0, -30)
	mock.ExpectQuery(`SELECT .+ FROM measurements`).
		WithArgs(int64(1), int64(10), since).
		WillReturnError(sql.ErrNoRows)

	m, err := repo.LatestInWindow(context.Background(), 1, 10, since)
	require.NoError(t, err)
	require.Nil(t, m)
	require.NoError(t, mock.ExpectationsWereMet())
}
