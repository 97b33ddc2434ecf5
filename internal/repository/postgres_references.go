package repository

import (
	"context"
	"database/sql"
	"fmt"

	"biotrack-data/internal/domain"
)

// PostgresReferenceRangesRepo reference ranges backed by Postgres.
type PostgresReferenceRangesRepo struct {
	db *sql.DB
}

func NewPostgresReferenceRangesRepo(db *sql.DB) *PostgresReferenceRangesRepo {
	return &PostgresReferenceRangesRepo{db: db}
}

var _ ReferenceRangesRepository = (*PostgresReferenceRangesRepo)(nil)

func (r *PostgresReferenceRangesRepo) ListRanges(ctx context.Context, biomarkerID int64) ([]*domain.ReferenceRange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, biomarker_id, sex, age_min, age_max, low, high, source
		 FROM reference_ranges
		 WHERE biomarker_id = $1
		 ORDER BY id`, biomarkerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference ranges: %w", err)
	}
	defer rows.Close()

	var out []*domain.ReferenceRange
	for rows.Next() {
		rr := &domain.ReferenceRange{}
		if err := rows.Scan(&rr.ID, &rr.BiomarkerID, &rr.Sex, &rr.AgeMin, &rr.AgeMax,
			&rr.Low, &rr.High, &rr.Source); err != nil {
			return nil, fmt.Errorf("failed to scan reference range: %w", err)
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

func (r *PostgresReferenceRangesRepo) CreateRange(ctx context.Context, rr *domain.ReferenceRange) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO reference_ranges (biomarker_id, sex, age_min, age_max, low, high, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		rr.BiomarkerID, rr.Sex, rr.AgeMin, rr.AgeMax, rr.Low, rr.High, rr.Source,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create reference range: %w", err)
	}
	rr.ID = id
	return id, nil
}

// PostgresUnitConversionsRepo conversion edges backed by Postgres.
type PostgresUnitConversionsRepo struct {
	db *sql.DB
}

func NewPostgresUnitConversionsRepo(db *sql.DB) *PostgresUnitConversionsRepo {
	return &PostgresUnitConversionsRepo{db: db}
}

var _ UnitConversionsRepository = (*PostgresUnitConversionsRepo)(nil)

func (r *PostgresUnitConversionsRepo) FindConversion(ctx context.Context, fromUnit, toUnit string) (*domain.UnitConversion, error) {
	uc := &domain.UnitConversion{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, from_unit, to_unit, factor, "offset"
		 FROM unit_conversions
		 WHERE from_unit = $1 AND to_unit = $2
		 ORDER BY id
		 LIMIT 1`, fromUnit, toUnit,
	).Scan(&uc.ID, &uc.FromUnit, &uc.ToUnit, &uc.Factor, &uc.Offset)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find unit conversion: %w", err)
	}
	return uc, nil
}

func (r *PostgresUnitConversionsRepo) CreateConversion(ctx context.Context, uc *domain.UnitConversion) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO unit_conversions (from_unit, to_unit, factor, "offset")
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		uc.FromUnit, uc.ToUnit, uc.Factor, uc.Offset,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create unit conversion: %w", err)
	}
	uc.ID = id
	return id, nil
}
