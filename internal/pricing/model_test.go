package pricing

import (
	"earthslight/server/internal/geometry"
	"earthslight/server/internal/models"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func laInput() models.PropertyInput {
	return models.PropertyInput{
		Floors:    2,
		Area:      1200,
		Bedrooms:  3,
		Bathrooms: 2,
		Age:       5,
		Location:  "Los Angeles",
	}
}

func TestBaselineMultipliers(t *testing.T) {
	assert.Equal(t, 1.0, BedroomMultiplier(2))
	assert.Equal(t, 1.0, BathroomMultiplier(1))
	assert.Equal(t, 1.0, FloorMultiplier(1))
	assert.Equal(t, 1.0, AgeMultiplier(0))
	assert.Equal(t, 1.0, AreaMultiplier(1000))
}

func TestAgeMultiplier_MonotonicWithFloor(t *testing.T) {
	prev := AgeMultiplier(0)
	for age := 1; age <= 100; age++ {
		cur := AgeMultiplier(age)
		assert.LessOrEqual(t, cur, prev, "age %d", age)
		assert.GreaterOrEqual(t, cur, 0.7, "age %d", age)
		prev = cur
	}
	assert.Equal(t, 0.7, AgeMultiplier(100))
}

func TestMarketTrend(t *testing.T) {
	tests := []struct {
		growth   float64
		expected string
	}{
		{0.045, models.TrendIncreasing},
		{0.04, models.TrendStable},
		{0.03, models.TrendStable},
		{0.02, models.TrendDecreasing},
		{0, models.TrendDecreasing},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MarketTrend(tt.growth), "growth %v", tt.growth)
	}
}

func TestLocationScore(t *testing.T) {
	assert.Equal(t, 70, LocationScore(1.3))
	assert.Equal(t, 70, LocationScore(1.5))
	assert.Equal(t, 80, LocationScore(2.0))
	assert.Equal(t, 90, LocationScore(2.5))
	assert.Equal(t, 100, LocationScore(3.0))
	assert.Equal(t, 100, LocationScore(4.0))
}

func TestEstimate_LosAngeles(t *testing.T) {
	m := NewModel()
	in := laInput()
	loc := geometry.ParseLocation(in.Location, nil, nil)

	// 150000 x 2.5 x 1.2 x 1.15 x 1.1 x 1.05 x 0.95
	const raw = 567826.875

	result := m.Estimate(in, loc, fixedRandom(0.5))
	assert.InDelta(t, raw, float64(result.CurrentPrice), 1)
	assert.Equal(t, 100, result.Confidence)
	assert.Equal(t, ModelType, result.ModelType)
	assert.Equal(t, 0.04, result.BaseGrowth)
	assert.Equal(t, models.TrendStable, result.MarketTrend)
	assert.Equal(t, 90, result.LocationScore)

	require.Len(t, result.Factors, 5)
	assert.Equal(t, models.Factor{Name: "Location", Impact: "2.50", Description: "Location premium"}, result.Factors[0])
	assert.Equal(t, models.Factor{Name: "Area", Impact: "1.20", Description: "Square footage"}, result.Factors[1])
	assert.Equal(t, models.Factor{Name: "Bedrooms", Impact: "1.15", Description: "Number of bedrooms"}, result.Factors[2])
	assert.Equal(t, models.Factor{Name: "Bathrooms", Impact: "1.10", Description: "Number of bathrooms"}, result.Factors[3])
	assert.Equal(t, models.Factor{Name: "Age", Impact: "0.95", Description: "Property age"}, result.Factors[4])

	low := m.Estimate(in, loc, fixedRandom(0))
	assert.InDelta(t, raw*0.9, float64(low.CurrentPrice), 1)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		price := float64(m.Estimate(in, loc, rng).CurrentPrice)
		assert.GreaterOrEqual(t, price, math.Floor(raw*0.9))
		assert.LessOrEqual(t, price, raw*1.1+1)
	}
}

func TestEstimate_Confidence(t *testing.T) {
	tests := []struct {
		name     string
		in       models.PropertyInput
		expected int
	}{
		{
			name:     "Unknown city, all bonuses",
			in:       models.PropertyInput{Floors: 1, Area: 1500, Bedrooms: 3, Bathrooms: 2, Age: 10, Location: "Amsterdam"},
			expected: 90,
		},
		{
			name:     "Large old house",
			in:       models.PropertyInput{Floors: 3, Area: 8000, Bedrooms: 8, Bathrooms: 4, Age: 80, Location: "Amsterdam"},
			expected: 75,
		},
		{
			name:     "Known city, tiny area",
			in:       models.PropertyInput{Floors: 1, Area: 300, Bedrooms: 1, Bathrooms: 1, Age: 0, Location: "Chicago"},
			expected: 95,
		},
		{
			name:     "Boundaries inclusive",
			in:       models.PropertyInput{Floors: 1, Area: 5000, Bedrooms: 5, Bathrooms: 1, Age: 50, Location: "Boston"},
			expected: 100,
		},
	}

	m := NewModel()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := geometry.ParseLocation(tt.in.Location, tt.in.Lat, tt.in.Lng)
			result := m.Estimate(tt.in, loc, fixedRandom(0.5))
			assert.Equal(t, tt.expected, result.Confidence)
		})
	}
}

func TestEstimate_PositiveAcrossBounds(t *testing.T) {
	m := NewModel()
	rng := rand.New(rand.NewPCG(7, 7))
	loc := geometry.ParseLocation("", nil, nil)

	for _, floors := range []int{1, 50} {
		for _, area := range []float64{100, 10000} {
			for _, bedrooms := range []int{1, 10} {
				for _, bathrooms := range []int{1, 10} {
					for _, age := range []int{0, 100} {
						in := models.PropertyInput{Floors: floors, Area: area, Bedrooms: bedrooms, Bathrooms: bathrooms, Age: age}
						result := m.Estimate(in, loc, rng)
						assert.Positive(t, result.CurrentPrice)
						assert.GreaterOrEqual(t, result.Confidence, 75)
						assert.LessOrEqual(t, result.Confidence, 100)
					}
				}
			}
		}
	}
}

func TestEstimate_CoordinateString(t *testing.T) {
	m := NewModel()
	in := models.PropertyInput{Floors: 1, Area: 1000, Bedrooms: 2, Bathrooms: 1, Age: 0, Location: "12.5,77.2"}
	loc := geometry.ParseLocation(in.Location, nil, nil)

	result := m.Estimate(in, loc, fixedRandom(0.5))

	assert.InDelta(t, 150000*1.9, float64(result.CurrentPrice), 1)
	assert.Equal(t, 0.04, result.BaseGrowth)
	assert.Equal(t, 90, result.Confidence)
	assert.Equal(t, "1.90", result.Factors[0].Impact)
}
