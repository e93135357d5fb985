// Package ledger tracks which listing fingerprints have already been
// surfaced, so an ad is never notified twice. Records accumulate for the
// lifetime of the store; there is no expiry.
package ledger

import (
	"database/sql"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"dealradar/internal/models"
)

// Metadata is the context stored alongside a fingerprint on first sight.
type Metadata struct {
	URL          string
	Title        string
	PriceNumeric *float64
	PublishedAt  string
	Reason       models.SeenReason
}

type Ledger struct {
	db *gorm.DB
}

// NewLedger opens a gorm session over an existing sqlite connection and
// ensures the seen_ads table exists.
func NewLedger(conn *sql.DB) (*Ledger, error) {
	db, err := gorm.Open(sqlite.Dialector{Conn: conn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger session: %w", err)
	}

	if err := db.AutoMigrate(&models.SeenRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate seen_ads table: %w", err)
	}

	return &Ledger{db: db}, nil
}

// HasSeen reports whether a fingerprint was recorded before.
func (l *Ledger) HasSeen(fingerprint string) (bool, error) {
	var count int64
	err := l.db.Model(&models.SeenRecord{}).
		Where("ad_hash = ?", fingerprint).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query seen_ads: %w", err)
	}
	return count > 0, nil
}

// MarkSeen records a fingerprint with its metadata. First-seen wins: a
// second call for the same fingerprint is a silent no-op, never an error or
// an overwrite.
func (l *Ledger) MarkSeen(fingerprint string, meta Metadata) error {
	if fingerprint == "" {
		return nil
	}

	record := models.SeenRecord{
		Fingerprint:  fingerprint,
		URL:          meta.URL,
		Title:        meta.Title,
		PriceNumeric: meta.PriceNumeric,
		PublishedAt:  meta.PublishedAt,
		Reason:       meta.Reason,
	}

	err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ad_hash"}},
		DoNothing: true,
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to insert seen record: %w", err)
	}
	return nil
}

// Count returns the number of distinct fingerprints recorded.
func (l *Ledger) Count() (int64, error) {
	var count int64
	err := l.db.Model(&models.SeenRecord{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count seen_ads: %w", err)
	}
	return count, nil
}
