// Package extract parses structured vehicle attributes out of noisy,
// multi-language listing text. Every heuristic lives in swappable package
// data (alias table, keyword sets, stop words) rather than control flow.
// Extraction never fails: anything unparsable degrades to nil or unknown.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dealradar/internal/models"
)

// BrandAliases maps common shorthands and misspellings to canonical brand
// names. Resolution applies to the first title token only.
var BrandAliases = map[string]string{
	"vw":            "volkswagen",
	"merc":          "mercedes",
	"mercedes-benz": "mercedes",
	"bмw":           "bmw", // cyrillic м shows up in pasted titles
}

// ModelStopWords are generic marketing/condition terms that never belong to
// a model name.
var ModelStopWords = map[string]struct{}{
	"klima": {}, "super": {}, "full": {}, "opc": {}, "line": {},
	"kupie": {}, "sprzedam": {}, "bezwypadkowy": {}, "combo": {},
	"idealny": {}, "nowy": {}, "lpg": {}, "diesel": {}, "benzyna": {},
	"hybryda": {}, "elektryczny": {},
}

// FuelKeywords maps each fuel category to the technology abbreviations and
// local-language words that signal it.
var FuelKeywords = map[models.FuelType][]string{
	models.FuelDiesel:   {"diesel", "dci", "tdi", "cdti", "d", "d-4d", "hdi", "multijet"},
	models.FuelPetrol:   {"benzyna", "benzin", "pb", "lpg", "mpi", "fsi", "tsi", "tce", "essence", "gasoline"},
	models.FuelHybrid:   {"hybrid", "hybryda", "phev"},
	models.FuelElectric: {"ev", "electric", "elektryczny", "elektryk", "ze"},
}

// fuelOrder is the detection priority; first category with a match wins.
var fuelOrder = []models.FuelType{
	models.FuelElectric,
	models.FuelHybrid,
	models.FuelDiesel,
	models.FuelPetrol,
}

var (
	yearRx    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	mileageRx = regexp.MustCompile(`(?i)\b(\d{1,3}(?:[ .]?\d{3})+|\d{4,6}|\d{1,3})\s*(?:km|tys\.?|tys|k)\b`)
	priceRx   = regexp.MustCompile(`\d[\d.,]*`)
	intDotsRx = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)

	separatorRx  = regexp.MustCompile(`[/|_]+`)
	punctRx      = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
	whitespaceRx = regexp.MustCompile(`\s+`)

	fuelRx = buildFuelPatterns()
)

func buildFuelPatterns() map[models.FuelType]*regexp.Regexp {
	out := make(map[models.FuelType]*regexp.Regexp, len(FuelKeywords))
	for fuel, words := range FuelKeywords {
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		out[fuel] = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return out
}

// Extract derives structured attributes from a listing. The brand/model
// tokens come from the title alone; fuel, year and mileage may also hide in
// the subtitle or description.
func Extract(l models.Listing) models.ExtractedAttributes {
	text := joinText(l.Title, l.Subtitle, l.Description)
	if text == "" {
		text = l.Title
	}

	brand, model := BrandModel(l.Title)

	return models.ExtractedAttributes{
		Brand:        brand,
		Model:        model,
		Fuel:         DetectFuel(text),
		Year:         ExtractYear(text),
		MileageKm:    ExtractMileageKm(text),
		PriceNumeric: ExtractPrice(l.PriceText),
	}
}

func joinText(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// BrandModel tokenizes a title and returns the alias-resolved brand followed
// by up to three model tokens.
func BrandModel(title string) (string, string) {
	tokens := normalizeTokens(title)
	if len(tokens) == 0 {
		return "", ""
	}

	brand := tokens[0]
	if canonical, ok := BrandAliases[brand]; ok {
		brand = canonical
	}

	var modelTokens []string
	for i := 1; i < len(tokens) && len(modelTokens) < 3; i++ {
		tk := tokens[i]
		if _, stop := ModelStopWords[tk]; stop {
			continue
		}
		if len([]rune(tk)) == 1 {
			continue
		}
		modelTokens = append(modelTokens, tk)
	}

	return brand, strings.TrimSpace(strings.Join(modelTokens, " "))
}

func normalizeTokens(title string) []string {
	t := strings.ToLower(title)
	t = separatorRx.ReplaceAllString(t, " ")
	t = punctRx.ReplaceAllString(t, " ")
	t = whitespaceRx.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)
	if t == "" {
		return nil
	}
	return strings.Split(t, " ")
}

// DetectFuel scans text for fuel keywords in priority order
// electric → hybrid → diesel → petrol.
func DetectFuel(text string) models.FuelType {
	for _, fuel := range fuelOrder {
		if fuelRx[fuel].MatchString(text) {
			return fuel
		}
	}
	return models.FuelUnknown
}

// ExtractYear returns the first 4-digit token that is a plausible
// manufacture year, or nil. Years before 1980 or after next year are noise
// (engine displacements, phone numbers, prices).
func ExtractYear(text string) *int {
	m := yearRx.FindString(text)
	if m == "" {
		return nil
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	if y < 1980 || y > time.Now().Year()+1 {
		return nil
	}
	return &y
}

// ExtractMileageKm returns the mileage in kilometers, or nil. Numbers below
// 1000 are understood as thousands ("150 tys" means 150000 km).
func ExtractMileageKm(text string) *int {
	text = strings.ReplaceAll(text, " ", " ")
	m := mileageRx.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	digits := strings.NewReplacer(" ", "", ".", "").Replace(m[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	if n < 1000 {
		n *= 1000
	}
	return &n
}

// ExtractPrice pulls the first numeric run out of a raw price string and
// normalizes decimal notation. When both separators appear, dots group
// thousands and the comma marks decimals; a lone dot only groups thousands
// when every group has exactly three digits.
func ExtractPrice(raw string) *float64 {
	s := whitespaceRx.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, " ", "")
	m := priceRx.FindString(s)
	if m == "" {
		return nil
	}

	hasDot := strings.Contains(m, ".")
	hasComma := strings.Contains(m, ",")
	switch {
	case hasDot && hasComma:
		m = strings.ReplaceAll(m, ".", "")
		m = strings.ReplaceAll(m, ",", ".")
	case hasComma:
		m = strings.ReplaceAll(m, ",", ".")
	case hasDot && intDotsRx.MatchString(m):
		m = strings.ReplaceAll(m, ".", "")
	}

	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
