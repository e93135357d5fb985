package extract

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealradar/internal/models"
)

func TestBrandModel(t *testing.T) {
	tests := []struct {
		title string
		brand string
		model string
	}{
		{"BMW 320d xDrive", "bmw", "320d xdrive"},
		{"VW Golf VII 1.6 TDI", "volkswagen", "golf vii tdi"},
		{"Mercedes-Benz C220 CDI", "mercedes", "c220 cdi"},
		{"Opel Astra Sprzedam Klima", "opel", "astra"},
		{"Toyota Corolla | Super stan!", "toyota", "corolla stan"},
		{"audi a4 b8 2.0", "audi", "a4 b8"},
		{"", "", ""},
	}

	for _, tt := range tests {
		brand, model := BrandModel(tt.title)
		assert.Equal(t, tt.brand, brand, "brand for %q", tt.title)
		assert.Equal(t, tt.model, model, "model for %q", tt.title)
	}
}

func TestBrandAliasFirstTokenOnly(t *testing.T) {
	// "vw" resolves only in brand position, never inside the model.
	brand, model := BrandModel("Golf vw edition")
	assert.Equal(t, "golf", brand)
	assert.Equal(t, "vw edition", model)
}

func TestDetectFuelPriority(t *testing.T) {
	assert.Equal(t, models.FuelDiesel, DetectFuel("bmw 2.0 tdi sedan"))
	assert.Equal(t, models.FuelPetrol, DetectFuel("corsa 1.2 benzyna"))
	assert.Equal(t, models.FuelHybrid, DetectFuel("toyota yaris hybryda"))
	assert.Equal(t, models.FuelElectric, DetectFuel("nissan leaf electric"))
	assert.Equal(t, models.FuelUnknown, DetectFuel("fiat panda city car"))

	// electric outranks hybrid, hybrid outranks diesel
	assert.Equal(t, models.FuelElectric, DetectFuel("phev ev plug-in"))
	assert.Equal(t, models.FuelHybrid, DetectFuel("hybrid tdi wtf"))
}

func TestDetectFuelWholeWordsOnly(t *testing.T) {
	// "d" is a diesel marker only as its own token
	assert.Equal(t, models.FuelDiesel, DetectFuel("bmw 2.0 d"))
	assert.Equal(t, models.FuelUnknown, DetectFuel("honda accord"))
}

func TestExtractYear(t *testing.T) {
	y := ExtractYear("Audi A4 2019")
	require.NotNil(t, y)
	assert.Equal(t, 2019, *y)

	assert.Nil(t, ExtractYear("Opel Astra 1899 diesel"))
	assert.Nil(t, ExtractYear("Opel Astra 1979"))
	assert.Nil(t, ExtractYear("no year here"))

	next := time.Now().Year() + 1
	y = ExtractYear(fmt.Sprintf("nowka %d", next))
	require.NotNil(t, y)
	assert.Equal(t, next, *y)

	assert.Nil(t, ExtractYear(fmt.Sprintf("rok %d", next+1)))
}

func TestExtractMileageKm(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"150 tys", 150000},
		{"150000 km", 150000},
		{"150 000 km", 150000},
		{"150.000 km", 150000},
		{"przebieg 89 tys.", 89000},
		{"220k przebiegu", 220000},
		{"12345 km", 12345},
	}
	for _, tt := range tests {
		got := ExtractMileageKm(tt.text)
		require.NotNil(t, got, "text %q", tt.text)
		assert.Equal(t, tt.want, *got, "text %q", tt.text)
	}

	assert.Nil(t, ExtractMileageKm("bez przebiegu"))
	assert.Nil(t, ExtractMileageKm(""))
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"45 000 zł", 45000},
		{"45.000 zł", 45000},
		{"45.000,50 zł", 45000.50},
		{"45000", 45000},
		{"1.5", 1.5},
		{"12,99", 12.99},
		{"od 3 500 PLN", 3500},
	}
	for _, tt := range tests {
		got := ExtractPrice(tt.raw)
		require.NotNil(t, got, "raw %q", tt.raw)
		assert.Equal(t, tt.want, *got, "raw %q", tt.raw)
	}

	assert.Nil(t, ExtractPrice("za darmo"))
	assert.Nil(t, ExtractPrice(""))
}

func TestExtractNeverFails(t *testing.T) {
	attrs := Extract(models.Listing{})
	assert.Equal(t, "", attrs.Brand)
	assert.Equal(t, "", attrs.Model)
	assert.Equal(t, models.FuelUnknown, attrs.Fuel)
	assert.Nil(t, attrs.Year)
	assert.Nil(t, attrs.MileageKm)
	assert.Nil(t, attrs.PriceNumeric)
}

func TestExtractFull(t *testing.T) {
	l := models.Listing{
		Title:       "BMW 320d xDrive",
		Description: "2014, przebieg 145 000 km, diesel, stan idealny",
		PriceText:   "42 900 zł",
	}
	attrs := Extract(l)

	assert.Equal(t, "bmw", attrs.Brand)
	assert.Equal(t, "320d xdrive", attrs.Model)
	assert.Equal(t, models.FuelDiesel, attrs.Fuel)
	require.NotNil(t, attrs.Year)
	assert.Equal(t, 2014, *attrs.Year)
	require.NotNil(t, attrs.MileageKm)
	assert.Equal(t, 145000, *attrs.MileageKm)
	require.NotNil(t, attrs.PriceNumeric)
	assert.Equal(t, 42900.0, *attrs.PriceNumeric)
}
