// Package engine runs one scraped batch through the full pipeline:
// fingerprint, dedup check, attribute extraction, group-key resolution,
// market statistics refresh, hot-deal evaluation and ledger update.
package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"dealradar/internal/evaluator"
	"dealradar/internal/extract"
	"dealradar/internal/fingerprint"
	"dealradar/internal/groupkey"
	"dealradar/internal/ledger"
	"dealradar/internal/marketstats"
	"dealradar/internal/models"
)

// DedupLedger is the persistence contract for seen fingerprints.
type DedupLedger interface {
	HasSeen(fingerprint string) (bool, error)
	MarkSeen(fingerprint string, meta ledger.Metadata) error
}

// Notifier delivers a formatted card for a listing, optionally with a
// below-market verdict badge.
type Notifier interface {
	NotifyListing(l models.Listing, attrs models.ExtractedAttributes, verdict *models.Verdict) error
}

// Options are the engine's decision thresholds and behavior switches.
type Options struct {
	MinSamples        int
	DiscountStandard  float64
	DiscountWeak      float64
	FreshnessMinutes  int
	MinGroupSize      int
	NotifyNewListings bool

	// HardCaps returns the current hard-cap rule table; called once per
	// batch so rule edits apply without a restart.
	HardCaps func() map[string]float64
}

// DefaultMinGroupSize is the smallest sample set worth aggregating.
const DefaultMinGroupSize = 5

// Result summarizes one processed batch.
type Result struct {
	Processed       int `json:"processed"`
	Duplicates      int `json:"duplicates"`
	HotDeals        int `json:"hot_deals"`
	Notified        int `json:"notified"`
	GroupsRefreshed int `json:"groups_refreshed"`
}

type Engine struct {
	cache    *marketstats.Cache
	ledger   DedupLedger
	notifier Notifier
	logger   *logrus.Logger
	opts     Options
}

func NewEngine(cache *marketstats.Cache, dedup DedupLedger, notifier Notifier, opts Options, logger *logrus.Logger) *Engine {
	if opts.FreshnessMinutes <= 0 {
		opts.FreshnessMinutes = marketstats.DefaultFreshnessMinutes
	}
	if opts.MinGroupSize <= 0 {
		opts.MinGroupSize = DefaultMinGroupSize
	}
	return &Engine{
		cache:    cache,
		ledger:   dedup,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

type batchItem struct {
	listing models.Listing
	fp      string
	attrs   models.ExtractedAttributes
	key     string
}

// ProcessBatch refreshes market statistics from the batch's price samples,
// then walks every listing through dedup, evaluation and notification.
// Persistence errors abort the batch; extraction and notification failures
// never drop a listing.
func (e *Engine) ProcessBatch(listings []models.Listing) (Result, error) {
	var res Result

	items := make([]batchItem, 0, len(listings))
	for _, l := range listings {
		attrs := extract.Extract(l)
		items = append(items, batchItem{
			listing: l,
			fp:      fingerprint.Fingerprint(l),
			attrs:   attrs,
			key:     groupkey.Build(attrs),
		})
	}

	refreshed, err := e.refreshStats(items)
	if err != nil {
		return res, err
	}
	res.GroupsRefreshed = refreshed

	evalCfg := evaluator.Config{
		MinSamples:       e.opts.MinSamples,
		DiscountStandard: e.opts.DiscountStandard,
		DiscountWeak:     e.opts.DiscountWeak,
	}
	if e.opts.HardCaps != nil {
		evalCfg.HardCaps = e.opts.HardCaps()
	}

	for _, it := range items {
		if it.fp == "" {
			continue
		}

		seen, err := e.ledger.HasSeen(it.fp)
		if err != nil {
			return res, fmt.Errorf("dedup lookup failed: %w", err)
		}
		if seen {
			res.Duplicates++
			continue
		}

		stats, err := e.resolveStats(it.attrs)
		if err != nil {
			return res, err
		}

		verdict := evaluator.Evaluate(it.attrs, stats, evalCfg)

		reason := models.ReasonDrop
		if verdict != nil {
			res.HotDeals++
			reason = models.ReasonTop
			if e.notify(it, verdict) {
				res.Notified++
			}
		} else if e.opts.NotifyNewListings {
			reason = models.ReasonScrape
			if e.notify(it, nil) {
				res.Notified++
			}
		}

		err = e.ledger.MarkSeen(it.fp, ledger.Metadata{
			URL:          it.fp,
			Title:        it.listing.Title,
			PriceNumeric: it.attrs.PriceNumeric,
			PublishedAt:  it.listing.PublishedAt,
			Reason:       reason,
		})
		if err != nil {
			return res, fmt.Errorf("dedup insert failed: %w", err)
		}
		res.Processed++
	}

	return res, nil
}

// refreshStats aggregates the batch's prices per full group key and
// overwrites the cache for every group with enough samples. The whole batch
// feeds the sample set, duplicates included: market truth does not care
// whether an ad was already notified.
func (e *Engine) refreshStats(items []batchItem) (int, error) {
	type group struct {
		attrs  models.ExtractedAttributes
		prices []float64
	}
	groups := make(map[string]*group)

	for _, it := range items {
		if it.key == "" || it.attrs.PriceNumeric == nil {
			continue
		}
		g, ok := groups[it.key]
		if !ok {
			g = &group{attrs: it.attrs}
			groups[it.key] = g
		}
		g.prices = append(g.prices, *it.attrs.PriceNumeric)
	}

	refreshed := 0
	for key, g := range groups {
		if len(g.prices) < e.opts.MinGroupSize {
			continue
		}
		row, err := e.cache.Refresh(g.attrs, key, g.prices)
		if err != nil {
			return refreshed, fmt.Errorf("stats refresh failed for %q: %w", key, err)
		}
		if row != nil {
			refreshed++
			e.logger.WithFields(logrus.Fields{
				"group_key":    key,
				"sample_count": row.SampleCount,
				"price_median": row.PriceMedian,
			}).Debug("Refreshed market stats")
		}
	}
	return refreshed, nil
}

// resolveStats walks the fallback key chain and returns the first fresh
// cached row, or nil when no segment has usable market knowledge.
func (e *Engine) resolveStats(attrs models.ExtractedAttributes) (*models.MarketStatsRow, error) {
	for _, key := range groupkey.Candidates(attrs) {
		f, err := e.cache.IsFresh(key, e.opts.FreshnessMinutes)
		if err != nil {
			return nil, fmt.Errorf("stats lookup failed for %q: %w", key, err)
		}
		if f.Fresh {
			return f.Row, nil
		}
	}
	return nil, nil
}

func (e *Engine) notify(it batchItem, verdict *models.Verdict) bool {
	if e.notifier == nil {
		return false
	}
	if err := e.notifier.NotifyListing(it.listing, it.attrs, verdict); err != nil {
		e.logger.WithError(err).WithField("url", it.fp).Error("Failed to send notification")
		return false
	}
	return true
}
