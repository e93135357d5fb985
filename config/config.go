package config

import (
	"strings"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// SQLitePath is the path of the database file holding the dedup ledger
	// and the market statistics cache
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/dealradar.sqlite"`

	// StartURLs is the newline-separated list of search result pages to scan
	StartURLs string `env:"START_URLS"`

	// ScanIntervalMinutes is the pause between scheduled scan cycles
	ScanIntervalMinutes int `env:"SCAN_INTERVAL_MINUTES" envDefault:"15"`

	// NotifyNewListings also pushes plain new-listing cards, not only hot deals
	NotifyNewListings bool `env:"NOTIFY_NEW_LISTINGS" envDefault:"false"`

	// APIPort is the port of the admin HTTP API
	APIPort string `env:"API_PORT" envDefault:"5250"`

	// Market statistics and hot-deal thresholds
	Market struct {
		// Minimum sample count before the standard discount rule applies
		MinSamples int `env:"MIN_SAMPLES" envDefault:"10"`

		// Required discount for well-sampled groups
		DiscountStandard float64 `env:"DISCOUNT_STANDARD" envDefault:"0.15"`

		// Required discount for groups with fewer than MinSamples prices
		DiscountWeak float64 `env:"DISCOUNT_WEAK" envDefault:"0.22"`

		// Maximum age of cached statistics before a refresh is needed
		FreshnessMinutes int `env:"MARKET_FRESHNESS_MINUTES" envDefault:"120"`

		// Minimum priced listings in a group before stats are aggregated
		MinGroupSize int `env:"MIN_GROUP_SIZE" envDefault:"5"`

		// Path of the JSON hard-cap rule table
		HardCapRulesPath string `env:"HARD_CAP_RULES_PATH" envDefault:"config/hard_caps.json"`
	}

	// Apify actor used as the scraping collaborator
	Apify struct {
		Token    string `env:"APIFY_TOKEN"`
		Actor    string `env:"APIFY_ACTOR" envDefault:"ecomscrape/olx-product-search-scraper"`
		UseProxy bool   `env:"APIFY_USE_PROXY" envDefault:"false"`
		MaxItems int    `env:"APIFY_MAX_ITEMS" envDefault:"100"`
	}

	// Telegram delivery channel
	Telegram struct {
		BotToken  string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID    string `env:"TELEGRAM_CHAT_ID"`
		IsEnabled bool   `env:"TELEGRAM_ENABLED" envDefault:"true"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseStartURLs splits the newline-separated START_URLS value into a
// trimmed, non-empty list.
func (c *Config) ParseStartURLs() []string {
	var urls []string
	for _, line := range strings.Split(c.StartURLs, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}
