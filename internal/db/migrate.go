/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/friendsincode/deepcrate/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		// Library
		&models.Track{},

		// Planned sets
		&models.SetPlan{},
		&models.SetTrack{},
		&models.Gap{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := applyPostgresTrackChecks(database); err != nil {
		return err
	}

	return nil
}

// applyPostgresTrackChecks guards analysed values at the database level.
// Other backends rely on the importer's validation.
func applyPostgresTrackChecks(database *gorm.DB) error {
	if database.Dialector.Name() != "postgres" {
		return nil
	}

	stmt := `
DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_tracks_energy_range') THEN
    ALTER TABLE tracks ADD CONSTRAINT chk_tracks_energy_range CHECK (energy >= 0 AND energy <= 1);
  END IF;
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_tracks_bpm_non_negative') THEN
    ALTER TABLE tracks ADD CONSTRAINT chk_tracks_bpm_non_negative CHECK (bpm >= 0 AND duration >= 0);
  END IF;
END;
$$;
`
	if err := database.Exec(stmt).Error; err != nil {
		return fmt.Errorf("apply postgres track checks: %w", err)
	}

	return nil
}
