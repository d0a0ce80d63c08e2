package database

import (
	"earthslight/server/internal/models"
	"fmt"
)

func (d *Database) RunMigrations() error {
	if err := d.gorm.AutoMigrate(&models.PredictionRecord{}); err != nil {
		return fmt.Errorf("failed to migrate prediction_records: %w", err)
	}

	// Insights filter on the lowercased name
	_, err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_prediction_records_location_lower
		ON prediction_records(LOWER(location));
	`)
	if err != nil {
		return err
	}

	return nil
}
