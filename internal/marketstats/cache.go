package marketstats

import (
	"errors"
	"math"
	"time"

	"dealradar/internal/groupkey"
	"dealradar/internal/models"
)

// ErrEmptyGroupKey rejects upserts without a group key; retrying with the
// same input will never succeed.
var ErrEmptyGroupKey = errors.New("market stats row has empty group key")

// DefaultFreshnessMinutes is the TTL applied when callers pass no explicit
// maximum age.
const DefaultFreshnessMinutes = 120

// Store is the persistence contract the cache needs: keyed get plus
// full-overwrite upsert.
type Store interface {
	GetMarketStats(groupKey string) (*models.MarketStatsRow, error)
	UpsertMarketStats(row models.MarketStatsRow) error
}

// Freshness reports whether a cached row is still usable and how old it is.
type Freshness struct {
	Fresh      bool
	Row        *models.MarketStatsRow
	AgeMinutes float64
}

// Cache is reactive storage for market statistics. It performs no
// background refresh; callers recompute a Summary from a freshly collected
// sample set and upsert it.
type Cache struct {
	store Store
	now   func() time.Time
}

func NewCache(store Store) *Cache {
	return &Cache{
		store: store,
		now:   time.Now,
	}
}

// Get returns the cached row for a group key, or nil when none exists.
func (c *Cache) Get(groupKey string) (*models.MarketStatsRow, error) {
	return c.store.GetMarketStats(groupKey)
}

// IsFresh looks up the row and compares its age against maxAgeMinutes.
// Missing rows and rows with an unparsable or missing timestamp count as
// not fresh.
func (c *Cache) IsFresh(groupKey string, maxAgeMinutes int) (Freshness, error) {
	row, err := c.store.GetMarketStats(groupKey)
	if err != nil {
		return Freshness{}, err
	}
	if row == nil {
		return Freshness{}, nil
	}

	if row.UpdatedAt.IsZero() {
		return Freshness{Row: row, AgeMinutes: math.MaxFloat64}, nil
	}

	age := c.now().Sub(row.UpdatedAt).Minutes()
	return Freshness{
		Fresh:      age <= float64(maxAgeMinutes),
		Row:        row,
		AgeMinutes: age,
	}, nil
}

// Upsert replaces any existing row for the same group key entirely.
func (c *Cache) Upsert(row models.MarketStatsRow) error {
	if row.GroupKey == "" {
		return ErrEmptyGroupKey
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = c.now()
	}
	return c.store.UpsertMarketStats(row)
}

// Refresh aggregates a fresh price sample for the segment and overwrites
// the cached row. Returns the stored row, or nil when the sample had no
// finite prices.
func (c *Cache) Refresh(attrs models.ExtractedAttributes, groupKey string, prices []float64) (*models.MarketStatsRow, error) {
	summary := ComputeStats(prices)
	if summary == nil {
		return nil, nil
	}

	p25 := summary.PriceP25
	p75 := summary.PriceP75
	row := models.MarketStatsRow{
		GroupKey:    groupKey,
		Brand:       attrs.Brand,
		Model:       attrs.Model,
		Fuel:        string(attrs.Fuel),
		YearBin:     groupkey.YearBin(attrs.Year),
		MileageBin:  groupkey.MileageBin(attrs.MileageKm),
		SampleCount: summary.SampleCount,
		PriceMedian: summary.PriceMedian,
		PriceP25:    &p25,
		PriceP75:    &p75,
		UpdatedAt:   c.now(),
	}

	if err := c.Upsert(row); err != nil {
		return nil, err
	}
	return &row, nil
}
