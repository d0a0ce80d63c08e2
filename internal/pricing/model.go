package pricing

import (
	"earthslight/server/internal/geometry"
	"earthslight/server/internal/models"
	"math"
	"strconv"
)

// ModelType tags results produced by the formula model
const ModelType = "Go Simulation"

// Random is the noise source for price jitter
type Random interface {
	Float64() float64
}

// Parameters of the multiplier formula
type Parameters struct {
	BasePrice      float64
	Noise          float64
	BaseConfidence int
	MaxConfidence  int
	KnownCityBonus int
	AttributeBonus int
}

// Model is the deterministic fallback price model
type Model struct {
	params Parameters
}

// NewModel creates a model with the default parameters
func NewModel() *Model {
	return &Model{
		params: Parameters{
			BasePrice:      150000,
			Noise:          0.1, // ±10%
			BaseConfidence: 75,
			MaxConfidence:  100,
			KnownCityBonus: 10,
			AttributeBonus: 5,
		},
	}
}

func AreaMultiplier(area float64) float64 {
	return area / 1000
}

func BedroomMultiplier(bedrooms int) float64 {
	return 1 + float64(bedrooms-2)*0.15
}

func BathroomMultiplier(bathrooms int) float64 {
	return 1 + float64(bathrooms-1)*0.10
}

func FloorMultiplier(floors int) float64 {
	return 1 + float64(floors-1)*0.05
}

// AgeMultiplier discounts one percent per year, never below 0.7
func AgeMultiplier(age int) float64 {
	return math.Max(0.7, 1-float64(age)*0.01)
}

// MarketTrend buckets an annual growth rate
func MarketTrend(growth float64) string {
	switch {
	case growth > 0.04:
		return models.TrendIncreasing
	case growth > 0.02:
		return models.TrendStable
	default:
		return models.TrendDecreasing
	}
}

// LocationScore maps a location multiplier onto [70,100]
func LocationScore(multiplier float64) int {
	score := int(math.Round(70 + (multiplier-1.5)*20))
	if score < 70 {
		return 70
	}
	if score > 100 {
		return 100
	}
	return score
}

// Estimate prices a property. The input must already be validated.
func (m *Model) Estimate(in models.PropertyInput, loc geometry.Location, rng Random) models.PredictionResult {
	region := geometry.Classify(loc)

	areaMult := AreaMultiplier(in.Area)
	bedroomMult := BedroomMultiplier(in.Bedrooms)
	bathroomMult := BathroomMultiplier(in.Bathrooms)
	floorMult := FloorMultiplier(in.Floors)
	ageMult := AgeMultiplier(in.Age)

	raw := m.params.BasePrice * region.Multiplier * areaMult * bedroomMult * bathroomMult * floorMult * ageMult
	jitter := 1 - m.params.Noise + rng.Float64()*2*m.params.Noise
	price := int64(math.Round(raw * jitter))

	return models.PredictionResult{
		CurrentPrice: price,
		Confidence:   m.confidence(in, region.KnownCity),
		Factors: []models.Factor{
			{Name: "Location", Impact: formatImpact(region.Multiplier), Description: "Location premium"},
			{Name: "Area", Impact: formatImpact(areaMult), Description: "Square footage"},
			{Name: "Bedrooms", Impact: formatImpact(bedroomMult), Description: "Number of bedrooms"},
			{Name: "Bathrooms", Impact: formatImpact(bathroomMult), Description: "Number of bathrooms"},
			{Name: "Age", Impact: formatImpact(ageMult), Description: "Property age"},
		},
		ModelType:     ModelType,
		MarketTrend:   MarketTrend(region.Growth),
		LocationScore: LocationScore(region.Multiplier),
		BaseGrowth:    region.Growth,
	}
}

func (m *Model) confidence(in models.PropertyInput, knownCity bool) int {
	confidence := m.params.BaseConfidence
	if in.Area >= 500 && in.Area <= 5000 {
		confidence += m.params.AttributeBonus
	}
	if in.Bedrooms >= 1 && in.Bedrooms <= 5 {
		confidence += m.params.AttributeBonus
	}
	if in.Age <= 50 {
		confidence += m.params.AttributeBonus
	}
	if knownCity {
		confidence += m.params.KnownCityBonus
	}
	return min(confidence, m.params.MaxConfidence)
}

func formatImpact(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
