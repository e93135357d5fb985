// Package evaluator implements the hot-deal decision rule: an adaptive
// relative discount against the segment median, vetoed by an optional
// absolute price ceiling.
package evaluator

import (
	"strings"

	"dealradar/internal/models"
)

// Config carries the decision thresholds. Zero values fall back to the
// defaults below.
type Config struct {
	// MinSamples is the sample count under which the weak (wider) discount
	// applies to compensate for noisy small-sample medians.
	MinSamples int

	// DiscountStandard is the required discount for well-sampled groups.
	DiscountStandard float64

	// DiscountWeak is the required discount for thin groups.
	DiscountWeak float64

	// HardCaps maps lower-cased "brand model" or "brand" to an absolute
	// price ceiling; the optional "default" entry caps everything else.
	HardCaps map[string]float64
}

const (
	DefaultMinSamples       = 10
	DefaultDiscountStandard = 0.15
	DefaultDiscountWeak     = 0.22
)

func (c Config) minSamples() int {
	if c.MinSamples > 0 {
		return c.MinSamples
	}
	return DefaultMinSamples
}

func (c Config) discountStandard() float64 {
	if c.DiscountStandard > 0 {
		return c.DiscountStandard
	}
	return DefaultDiscountStandard
}

func (c Config) discountWeak() float64 {
	if c.DiscountWeak > 0 {
		return c.DiscountWeak
	}
	return DefaultDiscountWeak
}

// ResolveHardCap looks up the price ceiling for a brand/model pair, falling
// back from "brand model" to "brand" to "default". Returns nil when no rule
// applies.
func (c Config) ResolveHardCap(brand, model string) *float64 {
	keys := []string{
		strings.TrimSpace(strings.ToLower(brand + " " + model)),
		strings.ToLower(brand),
		"default",
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		if ceiling, ok := c.HardCaps[k]; ok {
			return &ceiling
		}
	}
	return nil
}

// Evaluate decides whether a listing is priced sufficiently below its
// segment's market median. A nil result is the expected, frequent outcome:
// no market knowledge, no usable price, or thresholds not met. A price equal
// to the threshold qualifies.
func Evaluate(attrs models.ExtractedAttributes, stats *models.MarketStatsRow, cfg Config) *models.Verdict {
	if stats == nil || attrs.PriceNumeric == nil {
		return nil
	}

	price := *attrs.PriceNumeric

	discount := cfg.discountStandard()
	if stats.SampleCount < cfg.minSamples() {
		discount = cfg.discountWeak()
	}
	threshold := stats.PriceMedian * (1 - discount)

	if price > threshold {
		return nil
	}

	hardCap := cfg.ResolveHardCap(attrs.Brand, attrs.Model)
	if hardCap != nil && price > *hardCap {
		// Below segment median but still too expensive in absolute terms.
		return nil
	}

	return &models.Verdict{
		BelowMarket:     true,
		MarketPrice:     stats.PriceMedian,
		Threshold:       threshold,
		HardCap:         hardCap,
		DiscountApplied: discount,
		SampleCount:     stats.SampleCount,
		GroupKey:        stats.GroupKey,
	}
}
