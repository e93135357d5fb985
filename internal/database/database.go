package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dealradar/internal/models"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL keeps concurrent scan cycles from blocking each other
	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// GetMarketStats returns the cached stats row for a group key, or nil when
// no row exists. An unparsable updated_at leaves the zero time on the row;
// freshness checks treat that as stale.
func (d *Database) GetMarketStats(groupKey string) (*models.MarketStatsRow, error) {
	query := `
        SELECT group_key, brand, model, fuel, year_bin, mileage_bin,
               sample_count, price_median, price_p25, price_p75,
               COALESCE(updated_at, '') as updated_at
        FROM market_stats
        WHERE group_key = ?
    `

	var row models.MarketStatsRow
	var brand, model, fuel, yearBin, mileageBin sql.NullString
	var p25, p75 sql.NullFloat64
	var updatedAt string

	err := d.db.QueryRow(query, groupKey).Scan(
		&row.GroupKey,
		&brand,
		&model,
		&fuel,
		&yearBin,
		&mileageBin,
		&row.SampleCount,
		&row.PriceMedian,
		&p25,
		&p75,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query market stats: %w", err)
	}

	if brand.Valid {
		row.Brand = brand.String
	}
	if model.Valid {
		row.Model = model.String
	}
	if fuel.Valid {
		row.Fuel = fuel.String
	}
	if yearBin.Valid {
		row.YearBin = yearBin.String
	}
	if mileageBin.Valid {
		row.MileageBin = mileageBin.String
	}
	if p25.Valid {
		v := p25.Float64
		row.PriceP25 = &v
	}
	if p75.Valid {
		v := p75.Float64
		row.PriceP75 = &v
	}
	if updatedAt != "" {
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			row.UpdatedAt = t
		}
	}

	return &row, nil
}

// UpsertMarketStats replaces the row for the group key wholesale. A refresh
// recomputes statistics from a fresh sample set, it never merges with the
// previous row.
func (d *Database) UpsertMarketStats(row models.MarketStatsRow) error {
	query := `
        INSERT INTO market_stats
            (group_key, brand, model, fuel, year_bin, mileage_bin,
             sample_count, price_median, price_p25, price_p75, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(group_key) DO UPDATE SET
            brand        = excluded.brand,
            model        = excluded.model,
            fuel         = excluded.fuel,
            year_bin     = excluded.year_bin,
            mileage_bin  = excluded.mileage_bin,
            sample_count = excluded.sample_count,
            price_median = excluded.price_median,
            price_p25    = excluded.price_p25,
            price_p75    = excluded.price_p75,
            updated_at   = excluded.updated_at
    `

	var p25, p75 interface{}
	if row.PriceP25 != nil {
		p25 = *row.PriceP25
	}
	if row.PriceP75 != nil {
		p75 = *row.PriceP75
	}

	_, err := d.db.Exec(query,
		row.GroupKey,
		row.Brand,
		row.Model,
		row.Fuel,
		row.YearBin,
		row.MileageBin,
		row.SampleCount,
		row.PriceMedian,
		p25,
		p75,
		row.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert market stats: %w", err)
	}
	return nil
}

// CountMarketStats returns the number of cached group rows.
func (d *Database) CountMarketStats() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(1) FROM market_stats").Scan(&count)
	return count, err
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}
