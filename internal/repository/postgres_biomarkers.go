package repository

import (
	"context"
	"database/sql"
	"fmt"

	"biotrack-data/internal/domain"
)

// PostgresBiomarkersRepo biomarker catalog backed by Postgres.
type PostgresBiomarkersRepo struct {
	db *sql.DB
}

func NewPostgresBiomarkersRepo(db *sql.DB) *PostgresBiomarkersRepo {
	return &PostgresBiomarkersRepo{db: db}
}

var _ BiomarkersRepository = (*PostgresBiomarkersRepo)(nil)

const biomarkerColumns = `id, code, name_en, name_ru, category, unit_std, risk_direction, is_wearable_supported, COALESCE(description, '')`

func scanBiomarker(row *sql.Row) (*domain.Biomarker, error) {
	bm := &domain.Biomarker{}
	err := row.Scan(&bm.ID, &bm.Code, &bm.NameEN, &bm.NameRU, &bm.Category,
		&bm.UnitStd, &bm.RiskDirection, &bm.IsWearableSupported, &bm.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan biomarker: %w", err)
	}
	return bm, nil
}

func (r *PostgresBiomarkersRepo) GetByCode(ctx context.Context, code string) (*domain.Biomarker, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+biomarkerColumns+` FROM biomarkers WHERE code = $1`, code)
	return scanBiomarker(row)
}

func (r *PostgresBiomarkersRepo) GetByID(ctx context.Context, id int64) (*domain.Biomarker, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+biomarkerColumns+` FROM biomarkers WHERE id = $1`, id)
	return scanBiomarker(row)
}

func (r *PostgresBiomarkersRepo) ListBiomarkers(ctx context.Context) ([]*domain.Biomarker, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+biomarkerColumns+` FROM biomarkers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list biomarkers: %w", err)
	}
	defer rows.Close()

	var out []*domain.Biomarker
	for rows.Next() {
		bm := &domain.Biomarker{}
		if err := rows.Scan(&bm.ID, &bm.Code, &bm.NameEN, &bm.NameRU, &bm.Category,
			&bm.UnitStd, &bm.RiskDirection, &bm.IsWearableSupported, &bm.Description); err != nil {
			return nil, fmt.Errorf("failed to scan biomarker row: %w", err)
		}
		out = append(out, bm)
	}
	return out, rows.Err()
}

func (r *PostgresBiomarkersRepo) CreateBiomarker(ctx context.Context, bm *domain.Biomarker) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO biomarkers (code, name_en, name_ru, category, unit_std, risk_direction, is_wearable_supported, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		bm.Code, bm.NameEN, bm.NameRU, bm.Category, bm.UnitStd,
		bm.RiskDirection, bm.IsWearableSupported, bm.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create biomarker %s: %w", bm.Code, err)
	}
	bm.ID = id
	return id, nil
}

func (r *PostgresBiomarkersRepo) SetUnitStd(ctx context.Context, id int64, unitStd string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE biomarkers SET unit_std = $2 WHERE id = $1 AND unit_std = ''`, id, unitStd)
	if err != nil {
		return fmt.Errorf("failed to set biomarker unit: %w", err)
	}
	return nil
}

func (r *PostgresBiomarkersRepo) FindSynonym(ctx context.Context, text string) (*domain.BiomarkerSynonym, error) {
	syn := &domain.BiomarkerSynonym{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, biomarker_id, language, text
		 FROM biomarker_synonyms
		 WHERE LOWER(text) = LOWER(TRIM($1))
		 ORDER BY id
		 LIMIT 1`, text,
	).Scan(&syn.ID, &syn.BiomarkerID, &syn.Language, &syn.Text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find synonym: %w", err)
	}
	return syn, nil
}

func (r *PostgresBiomarkersRepo) CreateSynonym(ctx context.Context, syn *domain.BiomarkerSynonym) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO biomarker_synonyms (biomarker_id, language, text)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		syn.BiomarkerID, syn.Language, syn.Text,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create synonym: %w", err)
	}
	syn.ID = id
	return id, nil
}

func (r *PostgresBiomarkersRepo) ListSynonyms(ctx context.Context, biomarkerID int64) ([]*domain.BiomarkerSynonym, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, biomarker_id, language, text
		 FROM biomarker_synonyms WHERE biomarker_id = $1 ORDER BY id`, biomarkerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list synonyms: %w", err)
	}
	defer rows.Close()

	var out []*domain.BiomarkerSynonym
	for rows.Next() {
		syn := &domain.BiomarkerSynonym{}
		if err := rows.Scan(&syn.ID, &syn.BiomarkerID, &syn.Language, &syn.Text); err != nil {
			return nil, fmt.Errorf("failed to scan synonym row: %w", err)
		}
		out = append(out, syn)
	}
	return out, rows.Err()
}
