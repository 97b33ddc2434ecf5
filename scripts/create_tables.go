//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"

	"biotrack-data/internal/config"
	"biotrack-data/internal/database"

	_ "github.com/lib/pq"
)

// Creates the biotrack-data schema. Run with: go run scripts/create_tables.go
func main() {
	cfg := config.Load()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS persons (
			id BIGSERIAL PRIMARY KEY,
			email VARCHAR(255),
			sex VARCHAR(3),
			birthdate VARCHAR(10)
		)`,
		`CREATE TABLE IF NOT EXISTS biomarkers (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(32) UNIQUE NOT NULL,
			name_en VARCHAR(255) NOT NULL DEFAULT '',
			name_ru VARCHAR(255) NOT NULL DEFAULT '',
			category VARCHAR(64) NOT NULL DEFAULT 'other',
			unit_std VARCHAR(32) NOT NULL DEFAULT '',
			risk_direction VARCHAR(16) NOT NULL DEFAULT '',
			is_wearable_supported BOOLEAN NOT NULL DEFAULT FALSE,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS biomarker_synonyms (
			id BIGSERIAL PRIMARY KEY,
			biomarker_id BIGINT NOT NULL REFERENCES biomarkers(id),
			language VARCHAR(8) NOT NULL DEFAULT 'en',
			text VARCHAR(255) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_biomarker_synonyms_text
			ON biomarker_synonyms (LOWER(text))`,
		`CREATE TABLE IF NOT EXISTS reference_ranges (
			id BIGSERIAL PRIMARY KEY,
			biomarker_id BIGINT NOT NULL REFERENCES biomarkers(id),
			sex VARCHAR(3) NOT NULL DEFAULT 'any',
			age_min INT NOT NULL DEFAULT 0,
			age_max INT NOT NULL DEFAULT 200,
			low DOUBLE PRECISION,
			high DOUBLE PRECISION,
			source VARCHAR(64) NOT NULL DEFAULT 'generic'
		)`,
		`CREATE TABLE IF NOT EXISTS unit_conversions (
			id BIGSERIAL PRIMARY KEY,
			from_unit VARCHAR(32) NOT NULL,
			to_unit VARCHAR(32) NOT NULL,
			factor DOUBLE PRECISION NOT NULL,
			"offset" DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS measurements (
			id BIGSERIAL PRIMARY KEY,
			person_id BIGINT NOT NULL,
			biomarker_id BIGINT NOT NULL REFERENCES biomarkers(id),
			value_std DOUBLE PRECISION NOT NULL,
			unit_std VARCHAR(32) NOT NULL DEFAULT '',
			original_name VARCHAR(255) NOT NULL DEFAULT '',
			original_value VARCHAR(64) NOT NULL DEFAULT '',
			original_unit VARCHAR(32) NOT NULL DEFAULT '',
			source_type VARCHAR(16) NOT NULL,
			source_ref VARCHAR(64),
			sample_time TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			quality_note VARCHAR(255)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_measurements_person_biomarker
			ON measurements (person_id, biomarker_id, sample_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_measurements_person_created
			ON measurements (person_id, created_at DESC)`,
	}

	ctx := context.Background()
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to execute statement: %v\n%s\n", err, stmt)
			os.Exit(1)
		}
	}
	fmt.Println("biotrack-data tables created")
}
