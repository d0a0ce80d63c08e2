package database

import (
	"database/sql"
	"earthslight/server/internal/models"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db   *sql.DB
	gorm *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.New(sqlite.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return &Database{db: db, gorm: gdb}, nil
}

// NewInMemory opens a migrated in-memory database
func NewInMemory() (*Database, error) {
	d, err := NewDatabase(":memory:")
	if err != nil {
		return nil, err
	}
	if err := d.RunMigrations(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Gorm returns the ORM session used for batch writes
func (d *Database) Gorm() *gorm.DB {
	return d.gorm
}

// SavePredictions inserts a batch of prediction records. It is meant to run
// inside a transaction opened by the caller.
func SavePredictions(tx *gorm.DB, records []*models.PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := tx.Create(records).Error; err != nil {
		return fmt.Errorf("failed to insert predictions: %w", err)
	}
	return nil
}

// SavePredictions inserts a batch of prediction records in one transaction
func (d *Database) SavePredictions(records []*models.PredictionRecord) error {
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		return SavePredictions(tx, records)
	})
}

// GetPredictionHistory returns the newest predictions first. An empty userID
// returns predictions of every user.
func (d *Database) GetPredictionHistory(userID string, limit int) ([]models.PredictionRecord, error) {
	query := d.gorm.Order("created_at DESC").Limit(limit)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var records []models.PredictionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query prediction history: %w", err)
	}
	return records, nil
}

// GetLocationInsights aggregates stored predictions for a location. Trend
// and growth are left for the caller.
func (d *Database) GetLocationInsights(location string) (models.LocationInsights, error) {
	query := `
        SELECT
            COUNT(*) as prediction_count,
            COALESCE(AVG(predicted_price), 0) as average_price,
            COALESCE(MIN(predicted_price), 0) as min_price,
            COALESCE(MAX(predicted_price), 0) as max_price,
            COALESCE(AVG(CAST(predicted_price AS FLOAT) / NULLIF(area, 0)), 0) as price_per_sqft
        FROM prediction_records
        WHERE LOWER(location) = LOWER(?)
    `

	insights := models.LocationInsights{Location: location}
	err := d.db.QueryRow(query, location).Scan(
		&insights.PredictionCount,
		&insights.AveragePrice,
		&insights.MinPrice,
		&insights.MaxPrice,
		&insights.PricePerSqFt,
	)
	if err != nil {
		return insights, fmt.Errorf("failed to aggregate predictions: %w", err)
	}
	return insights, nil
}

// DeleteOlderThan removes predictions created before cutoff. Records are
// stored with UTC timestamps so the text comparison in sqlite holds.
func (d *Database) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := d.gorm.Where("created_at < ?", cutoff.UTC()).Delete(&models.PredictionRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old predictions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
