package models

import "time"

// FuelType is the normalized fuel category extracted from listing text.
type FuelType string

const (
	FuelDiesel   FuelType = "diesel"
	FuelPetrol   FuelType = "petrol"
	FuelHybrid   FuelType = "hybrid"
	FuelElectric FuelType = "electric"
	FuelUnknown  FuelType = "unknown"
)

// Listing is one raw scraped ad. It lives for a single scan cycle; only the
// fingerprint of a listing is ever persisted.
type Listing struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	PriceText   string `json:"price_text"`
	Location    string `json:"location"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
	Link        string `json:"link"`
	DetailURL   string `json:"detail_url"`
}

// ExtractedAttributes holds the structured attributes parsed out of a
// listing's free text. Optional fields are nil when extraction found nothing.
type ExtractedAttributes struct {
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Fuel         FuelType `json:"fuel"`
	Year         *int     `json:"year"`
	MileageKm    *int     `json:"mileage_km"`
	PriceNumeric *float64 `json:"price_numeric"`
}

// MarketStatsRow is the cached price distribution summary for one group key.
// Rows are replaced wholesale on refresh, never merged.
type MarketStatsRow struct {
	GroupKey    string    `json:"group_key"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Fuel        string    `json:"fuel"`
	YearBin     string    `json:"year_bin"`
	MileageBin  string    `json:"mileage_bin"`
	SampleCount int       `json:"sample_count"`
	PriceMedian float64   `json:"price_median"`
	PriceP25    *float64  `json:"price_p25"`
	PriceP75    *float64  `json:"price_p75"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SeenReason records why a fingerprint entered the dedup ledger.
type SeenReason string

const (
	ReasonScrape SeenReason = "scrape"
	ReasonTop    SeenReason = "top"
	ReasonDrop   SeenReason = "drop"
)

// SeenRecord is one row of the dedup ledger. First insert wins; later
// inserts for the same fingerprint are no-ops.
type SeenRecord struct {
	ID           int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Fingerprint  string     `json:"fingerprint" gorm:"column:ad_hash;uniqueIndex;not null"`
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	PriceNumeric *float64   `json:"price_numeric" gorm:"column:price_num"`
	PublishedAt  string     `json:"published_at"`
	Reason       SeenReason `json:"reason" gorm:"column:sent_reason"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName keeps the table name the storage schema uses.
func (SeenRecord) TableName() string {
	return "seen_ads"
}

// Verdict is a positive below-market decision. Absence of a verdict is
// expressed as a nil pointer, not an error.
type Verdict struct {
	BelowMarket     bool     `json:"below_market"`
	MarketPrice     float64  `json:"market_price"`
	Threshold       float64  `json:"threshold"`
	HardCap         *float64 `json:"hard_cap"`
	DiscountApplied float64  `json:"discount_applied"`
	SampleCount     int      `json:"sample_count"`
	GroupKey        string   `json:"group_key"`
}
