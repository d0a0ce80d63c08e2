package environment

import (
	"math"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Risk types
const (
	TypeDeforestation = "deforestation"
	TypeMining        = "mining"
	TypeForestFire    = "forest_fire"
)

// Random is the source the generator draws from
type Random interface {
	Float64() float64
	IntN(n int) int
}

type riskKind struct {
	name        string
	color       string
	icon        string
	description string
}

var kinds = []riskKind{
	{TypeDeforestation, "#FF4444", "🌳", "Deforestation detected"},
	{TypeMining, "#8B4513", "⛏️", "Mining activity detected"},
	{TypeForestFire, "#FF8C00", "🔥", "Forest fire risk detected"},
}

var severities = []string{"Low", "Medium", "High"}

type site struct {
	name  string
	point orb.Point
}

var sites = []site{
	{"Kathmandu, Nepal", orb.Point{85.324, 27.7172}},
	{"New York, USA", orb.Point{-74.0060, 40.7128}},
	{"London, UK", orb.Point{-0.1278, 51.5074}},
	{"Tokyo, Japan", orb.Point{139.6503, 35.6762}},
	{"Sydney, Australia", orb.Point{151.2093, -33.8688}},
	{"Moscow, Russia", orb.Point{37.6176, 55.7558}},
	{"São Paulo, Brazil", orb.Point{-46.6333, -23.5505}},
	{"New Delhi, India", orb.Point{77.2090, 28.6139}},
	{"Beijing, China", orb.Point{116.4074, 39.9042}},
	{"Johannesburg, South Africa", orb.Point{28.0473, -26.2041}},
}

// Types lists the risk types in the order they are assigned
func Types() []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.name
	}
	return out
}

// Generator produces synthetic environmental risk points around a fixed set
// of world cities
type Generator struct {
	rng   Random
	clock clockwork.Clock
}

func NewGenerator(rng Random, clock clockwork.Clock) *Generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Generator{rng: rng, clock: clock}
}

// Generate returns one risk feature per site
func (g *Generator) Generate() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	stamp := g.clock.Now().UTC().Format(time.RFC3339)

	for i, s := range sites {
		kind := kinds[i%len(kinds)]
		// up to 0.05 degrees either way
		point := orb.Point{
			s.point.Lon() + (g.rng.Float64()-0.5)*0.1,
			s.point.Lat() + (g.rng.Float64()-0.5)*0.1,
		}

		f := geojson.NewFeature(point)
		f.Properties["id"] = "risk_" + strconv.Itoa(i+1)
		f.Properties["type"] = kind.name
		f.Properties["severity"] = severities[g.rng.IntN(len(severities))]
		f.Properties["confidence"] = 70 + g.rng.IntN(30)
		f.Properties["description"] = kind.description
		f.Properties["color"] = kind.color
		f.Properties["icon"] = kind.icon
		f.Properties["location"] = s.name
		f.Properties["timestamp"] = stamp
		f.Properties["area"] = 100 + g.rng.IntN(1000)
		f.Properties["impact"] = map[string]int{
			"trees_affected":   1000 + g.rng.IntN(10000),
			"carbon_emissions": 500 + g.rng.IntN(5000),
			"wildlife_impact":  10 + g.rng.IntN(100),
		}
		fc.Append(f)
	}
	return fc
}

// Statistics aggregates a risk collection
type Statistics struct {
	TotalRisks        int            `json:"total_risks"`
	ByType            map[string]int `json:"by_type"`
	BySeverity        map[string]int `json:"by_severity"`
	TotalAreaAffected int            `json:"total_area_affected"`
	AverageConfidence int            `json:"average_confidence"`
}

// CountByType counts features per risk type. Every known type is present.
func CountByType(fc *geojson.FeatureCollection) map[string]int {
	counts := make(map[string]int, len(kinds))
	for _, k := range kinds {
		counts[k.name] = 0
	}
	for _, f := range fc.Features {
		counts[f.Properties.MustString("type", "")]++
	}
	delete(counts, "")
	return counts
}

func Summarize(fc *geojson.FeatureCollection) Statistics {
	stats := Statistics{
		TotalRisks: len(fc.Features),
		ByType:     CountByType(fc),
		BySeverity: map[string]int{"low": 0, "medium": 0, "high": 0},
	}

	confidence := 0
	for _, f := range fc.Features {
		switch f.Properties.MustString("severity", "") {
		case "Low":
			stats.BySeverity["low"]++
		case "Medium":
			stats.BySeverity["medium"]++
		case "High":
			stats.BySeverity["high"]++
		}
		stats.TotalAreaAffected += f.Properties.MustInt("area", 0)
		confidence += f.Properties.MustInt("confidence", 0)
	}

	if stats.TotalRisks > 0 {
		stats.AverageConfidence = int(math.Round(float64(confidence) / float64(stats.TotalRisks)))
	}
	return stats
}

// FilterByType returns a new collection holding only features of riskType
func FilterByType(fc *geojson.FeatureCollection, riskType string) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if f.Properties.MustString("type", "") == riskType {
			out.Append(f)
		}
	}
	return out
}
