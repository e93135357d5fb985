// Package groupkey builds the hierarchical key that pools comparable
// vehicle listings for market-price statistics.
package groupkey

import (
	"strings"

	"dealradar/internal/models"
)

// YearBin buckets a manufacture year into one of five coarse labels. A nil
// year maps to the empty token, which makes the segment coarser.
func YearBin(year *int) string {
	if year == nil {
		return ""
	}
	switch y := *year; {
	case y <= 2005:
		return "≤2005"
	case y <= 2010:
		return "2006–2010"
	case y <= 2015:
		return "2011–2015"
	case y <= 2020:
		return "2016–2020"
	default:
		return "≥2021"
	}
}

// MileageBin buckets a mileage in kilometers into one of five coarse labels.
func MileageBin(km *int) string {
	if km == nil {
		return ""
	}
	switch m := *km; {
	case m <= 80000:
		return "≤80k"
	case m <= 150000:
		return "80–150k"
	case m <= 220000:
		return "150–220k"
	case m <= 300000:
		return "220–300k"
	default:
		return "≥300k"
	}
}

func fuelToken(fuel models.FuelType) string {
	if fuel == models.FuelUnknown {
		return ""
	}
	return string(fuel)
}

func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " | ")
}

// Build returns the full group key for a set of extracted attributes, or ""
// when the brand is empty and there is no usable signal. Components are
// pipe-joined in order brand, model, fuel, year bin, mileage bin; empty
// components are dropped. Keys compare by exact string equality only.
func Build(attrs models.ExtractedAttributes) string {
	if attrs.Brand == "" {
		return ""
	}
	return join(
		attrs.Brand,
		attrs.Model,
		fuelToken(attrs.Fuel),
		YearBin(attrs.Year),
		MileageBin(attrs.MileageKm),
	)
}

// Constructor derives one candidate key from extracted attributes. An empty
// result means the constructor has no signal to offer.
type Constructor struct {
	Name  string
	Build func(models.ExtractedAttributes) string
}

// ResolutionChain is the ordered list of fallback key constructors, most
// specific first. Callers walk it until a key with cached statistics turns
// up; later entries pool progressively coarser segments.
var ResolutionChain = []Constructor{
	{Name: "full", Build: Build},
	{Name: "no-mileage", Build: func(a models.ExtractedAttributes) string {
		if a.Brand == "" {
			return ""
		}
		return join(a.Brand, a.Model, fuelToken(a.Fuel), YearBin(a.Year))
	}},
	{Name: "no-year", Build: func(a models.ExtractedAttributes) string {
		if a.Brand == "" {
			return ""
		}
		return join(a.Brand, a.Model, fuelToken(a.Fuel))
	}},
	{Name: "brand-model", Build: func(a models.ExtractedAttributes) string {
		if a.Brand == "" {
			return ""
		}
		return join(a.Brand, a.Model)
	}},
}

// Candidates returns the distinct candidate keys for the attributes, in
// resolution order.
func Candidates(attrs models.ExtractedAttributes) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, c := range ResolutionChain {
		k := c.Build(attrs)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
