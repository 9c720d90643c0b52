package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'weather_source') THEN
			CREATE TYPE weather_source AS ENUM ('openweathermap', 'fallback');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		farmer_id VARCHAR(128),
		crop_input VARCHAR(128) NOT NULL,
		crop_label VARCHAR(128) NOT NULL,
		ph NUMERIC(4,2) NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		temperature DOUBLE PRECISION NOT NULL,
		humidity DOUBLE PRECISION NOT NULL,
		rainfall DOUBLE PRECISION NOT NULL,
		weather_source weather_source NOT NULL DEFAULT 'fallback',
		nitrogen_kg_ha DOUBLE PRECISION NOT NULL,
		phosphorus_kg_ha DOUBLE PRECISION NOT NULL,
		potassium_kg_ha DOUBLE PRECISION NOT NULL,
		plan_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_farmer_created ON recommendations (farmer_id, created_at DESC) WHERE farmer_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_crop_label ON recommendations (crop_label);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
