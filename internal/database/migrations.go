package database

import "fmt"

func (d *Database) RunMigrations() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_stats (
			group_key    TEXT PRIMARY KEY,
			brand        TEXT,
			model        TEXT,
			fuel         TEXT,
			year_bin     TEXT,
			mileage_bin  TEXT,
			sample_count INTEGER NOT NULL,
			price_median REAL NOT NULL,
			price_p25    REAL,
			price_p75    REAL,
			updated_at   TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create market_stats table: %v", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_market_stats_brand_model
		ON market_stats(brand, model);
	`)
	if err != nil {
		return err
	}

	return nil
}
