package environment

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earthslight/server/internal/predictor"
)

func newTestGenerator(seed uint64) *Generator {
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC))
	return NewGenerator(predictor.NewRandom(seed), clock)
}

func TestGenerate_Shape(t *testing.T) {
	fc := newTestGenerator(7).Generate()
	require.Len(t, fc.Features, len(sites))

	for i, f := range fc.Features {
		point, ok := f.Geometry.(orb.Point)
		require.True(t, ok, "feature %d is not a point", i)
		assert.LessOrEqual(t, math.Abs(point.Lon()-sites[i].point.Lon()), 0.05)
		assert.LessOrEqual(t, math.Abs(point.Lat()-sites[i].point.Lat()), 0.05)

		props := f.Properties
		assert.Equal(t, kinds[i%3].name, props.MustString("type"))
		assert.Equal(t, sites[i].name, props.MustString("location"))
		assert.Contains(t, severities, props.MustString("severity"))
		assert.Equal(t, "2026-03-03T09:30:00Z", props.MustString("timestamp"))

		confidence := props.MustInt("confidence")
		assert.GreaterOrEqual(t, confidence, 70)
		assert.LessOrEqual(t, confidence, 99)

		area := props.MustInt("area")
		assert.GreaterOrEqual(t, area, 100)
		assert.LessOrEqual(t, area, 1099)

		impact, ok := props["impact"].(map[string]int)
		require.True(t, ok)
		assert.GreaterOrEqual(t, impact["wildlife_impact"], 10)
		assert.LessOrEqual(t, impact["wildlife_impact"], 109)
		assert.GreaterOrEqual(t, impact["trees_affected"], 1000)
		assert.GreaterOrEqual(t, impact["carbon_emissions"], 500)
	}

	assert.Equal(t, "risk_1", fc.Features[0].Properties.MustString("id"))
	assert.Equal(t, "Mining activity detected", fc.Features[1].Properties.MustString("description"))
}

func TestGenerate_SeededIsDeterministic(t *testing.T) {
	a, err := json.Marshal(newTestGenerator(99).Generate())
	require.NoError(t, err)
	b, err := json.Marshal(newTestGenerator(99).Generate())
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestSummarize(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	add := func(kind, severity string, area, confidence int) {
		f := geojson.NewFeature(orb.Point{0, 0})
		f.Properties["type"] = kind
		f.Properties["severity"] = severity
		f.Properties["area"] = area
		f.Properties["confidence"] = confidence
		fc.Append(f)
	}
	add(TypeDeforestation, "Low", 100, 70)
	add(TypeDeforestation, "High", 250, 80)
	add(TypeForestFire, "High", 650, 75)

	stats := Summarize(fc)
	assert.Equal(t, 3, stats.TotalRisks)
	assert.Equal(t, map[string]int{TypeDeforestation: 2, TypeMining: 0, TypeForestFire: 1}, stats.ByType)
	assert.Equal(t, map[string]int{"low": 1, "medium": 0, "high": 2}, stats.BySeverity)
	assert.Equal(t, 1000, stats.TotalAreaAffected)
	assert.Equal(t, 75, stats.AverageConfidence)
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(geojson.NewFeatureCollection())
	assert.Zero(t, stats.TotalRisks)
	assert.Zero(t, stats.AverageConfidence)
	assert.Len(t, stats.ByType, 3)
}

func TestSummarize_GeneratedCountsMatch(t *testing.T) {
	stats := Summarize(newTestGenerator(3).Generate())
	assert.Equal(t, 10, stats.TotalRisks)
	assert.Equal(t, 4, stats.ByType[TypeDeforestation])
	assert.Equal(t, 3, stats.ByType[TypeMining])
	assert.Equal(t, 3, stats.ByType[TypeForestFire])
	assert.Equal(t, 10, stats.BySeverity["low"]+stats.BySeverity["medium"]+stats.BySeverity["high"])
}

func TestFilterByType(t *testing.T) {
	fc := newTestGenerator(5).Generate()

	mining := FilterByType(fc, TypeMining)
	require.Len(t, mining.Features, 3)
	for _, f := range mining.Features {
		assert.Equal(t, TypeMining, f.Properties.MustString("type"))
	}

	assert.Empty(t, FilterByType(fc, "volcano").Features)
}

func TestTypes(t *testing.T) {
	assert.Equal(t, []string{"deforestation", "mining", "forest_fire"}, Types())
}
