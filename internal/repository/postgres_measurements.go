package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"biotrack-data/internal/domain"
)

// PostgresMeasurementsRepo measurements backed by Postgres.
type PostgresMeasurementsRepo struct {
	db *sql.DB
}

func NewPostgresMeasurementsRepo(db *sql.DB) *PostgresMeasurementsRepo {
	return &PostgresMeasurementsRepo{db: db}
}

var _ MeasurementsRepository = (*PostgresMeasurementsRepo)(nil)

const measurementColumns = `id, person_id, biomarker_id, value_std, unit_std,
	original_name, original_value, original_unit, source_type, COALESCE(source_ref, ''),
	sample_time, created_at, COALESCE(quality_note, '')`

func scanMeasurement(scan func(dest ...any) error) (*domain.Measurement, error) {
	m := &domain.Measurement{}
	err := scan(&m.ID, &m.PersonID, &m.BiomarkerID, &m.ValueStd, &m.UnitStd,
		&m.OriginalName, &m.OriginalValue, &m.OriginalUnit, &m.SourceType, &m.SourceRef,
		&m.SampleTime, &m.CreatedAt, &m.QualityNote)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan measurement: %w", err)
	}
	return m, nil
}

func (r *PostgresMeasurementsRepo) Insert(ctx context.Context, m *domain.Measurement) (int64, error) {
	return insertMeasurement(ctx, r.db, m)
}

// insertMeasurement works against *sql.DB and *sql.Tx alike.
func insertMeasurement(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, m *domain.Measurement) (int64, error) {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO measurements
		   (person_id, biomarker_id, value_std, unit_std, original_name, original_value,
		    original_unit, source_type, source_ref, sample_time, created_at, quality_note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		m.PersonID, m.BiomarkerID, m.ValueStd, m.UnitStd, m.OriginalName, m.OriginalValue,
		m.OriginalUnit, m.SourceType, m.SourceRef, m.SampleTime, createdAt, m.QualityNote,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert measurement: %w", err)
	}
	m.ID = id
	m.CreatedAt = createdAt
	return id, nil
}

func (r *PostgresMeasurementsRepo) LatestInWindow(ctx context.Context, personID, biomarkerID int64, since time.Time) (*domain.Measurement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+measurementColumns+`
		 FROM measurements
		 WHERE person_id = $1 AND biomarker_id = $2 AND sample_time >= $3
		 ORDER BY sample_time DESC
		 LIMIT 1`, personID, biomarkerID, since)
	return scanMeasurement(row.Scan)
}

func (r *PostgresMeasurementsRepo) LatestByCreated(ctx context.Context, personID, biomarkerID int64) (*domain.Measurement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+measurementColumns+`
		 FROM measurements
		 WHERE person_id = $1 AND biomarker_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`, personID, biomarkerID)
	return scanMeasurement(row.Scan)
}

func (r *PostgresMeasurementsRepo) ListByPerson(ctx context.Context, personID int64, limit int) ([]*domain.Measurement, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+measurementColumns+`
		 FROM measurements
		 WHERE person_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, personID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	var out []*domain.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertCalculated transactional read-then-write. FOR UPDATE alone locks
// nothing when no calculated row exists yet, so the transaction first takes a
// per-person advisory lock; without it two concurrent auto-saves for the same
// person+biomarker could both see no row and both insert.
func (r *PostgresMeasurementsRepo) UpsertCalculated(ctx context.Context, m *domain.Measurement, since time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock($1)`, m.PersonID); err != nil {
		return fmt.Errorf("failed to lock calculated upsert: %w", err)
	}

	var existingID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM measurements
		 WHERE person_id = $1 AND biomarker_id = $2 AND source_type = $3 AND sample_time >= $4
		 ORDER BY sample_time DESC
		 LIMIT 1
		 FOR UPDATE`,
		m.PersonID, m.BiomarkerID, domain.SourceCalculated, since,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		if _, err := insertMeasurement(ctx, tx, m); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("failed to query calculated measurement: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE measurements SET value_std = $2, sample_time = $3 WHERE id = $1`,
			existingID, m.ValueStd, m.SampleTime); err != nil {
			return fmt.Errorf("failed to update calculated measurement: %w", err)
		}
	}
	return tx.Commit()
}

// PostgresPersonsRepo person profiles backed by Postgres.
type PostgresPersonsRepo struct {
	db *sql.DB
}

func NewPostgresPersonsRepo(db *sql.DB) *PostgresPersonsRepo {
	return &PostgresPersonsRepo{db: db}
}

var _ PersonsRepository = (*PostgresPersonsRepo)(nil)

func (r *PostgresPersonsRepo) GetPerson(ctx context.Context, id int64) (*domain.Person, error) {
	p := &domain.Person{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(email, ''), COALESCE(sex, ''), COALESCE(birthdate, '')
		 FROM persons WHERE id = $1`, id,
	).Scan(&p.ID, &p.Email, &p.Sex, &p.BirthDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

func (r *PostgresPersonsRepo) CreatePerson(ctx context.Context, p *domain.Person) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO persons (email, sex, birthdate) VALUES ($1, $2, $3) RETURNING id`,
		p.Email, p.Sex, p.BirthDate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create person: %w", err)
	}
	p.ID = id
	return id, nil
}
