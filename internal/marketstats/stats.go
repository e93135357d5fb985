// Package marketstats computes and caches robust price distribution
// summaries per vehicle segment.
package marketstats

import (
	"math"
	"sort"
)

// Summary is the outcome of one aggregation pass over a sample of prices.
type Summary struct {
	SampleCount int
	PriceMedian float64
	PriceP25    float64
	PriceP75    float64
}

// ComputeStats filters non-finite values from the sample, sorts it and
// returns median plus quartiles, or nil when nothing usable remains.
// Percentiles use linear interpolation between order statistics: for a
// sorted sample of length n and percentile p, idx = (n-1)*p, interpolating
// on the fractional part of idx.
func ComputeStats(prices []float64) *Summary {
	sample := make([]float64, 0, len(prices))
	for _, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		sample = append(sample, p)
	}
	if len(sample) == 0 {
		return nil
	}

	sort.Float64s(sample)

	return &Summary{
		SampleCount: len(sample),
		PriceMedian: percentile(sample, 0.50),
		PriceP25:    percentile(sample, 0.25),
		PriceP75:    percentile(sample, 0.75),
	}
}

func percentile(sorted []float64, p float64) float64 {
	idx := float64(len(sorted)-1) * p
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
