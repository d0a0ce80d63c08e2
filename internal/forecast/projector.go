package forecast

import (
	"earthslight/server/internal/models"
	"math"
	"strconv"
)

const (
	Horizon         = 10
	maxConfidence   = 90
	minConfidence   = 55
	confidenceDecay = 2.5
	noise           = 0.04 // ±4%
)

// Random is the noise source for projected prices
type Random interface {
	Float64() float64
}

// Confidence is the confidence for a point h years out
func Confidence(h int) int {
	return max(minConfidence, int(math.Round(maxConfidence-float64(h)*confidenceDecay)))
}

// Project compounds currentPrice at a constant annual growth rate for the
// next Horizon years. Only price and confidence vary between points.
func Project(currentPrice int64, growth float64, startYear int, rng Random) []models.ForecastPoint {
	growthLabel := strconv.FormatFloat(growth*100, 'f', 1, 64)
	points := make([]models.ForecastPoint, 0, Horizon)

	for h := 1; h <= Horizon; h++ {
		future := float64(currentPrice) * math.Pow(1+growth, float64(h))
		jitter := 1 + (rng.Float64()-0.5)*2*noise
		points = append(points, models.ForecastPoint{
			Year:       startYear + h,
			Price:      int64(math.Round(future * jitter)),
			Growth:     growthLabel,
			Confidence: Confidence(h),
		})
	}
	return points
}
