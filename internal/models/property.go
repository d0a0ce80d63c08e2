package models

import "time"

// PropertyInput is a validated prediction request. Either Location is set or
// both Lat and Lng are.
type PropertyInput struct {
	Floors    int      `json:"floors"`
	Area      float64  `json:"area"`
	Bedrooms  int      `json:"bedrooms"`
	Bathrooms int      `json:"bathrooms"`
	Age       int      `json:"age"`
	Location  string   `json:"location,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
}

type Factor struct {
	Name        string `json:"name"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
}

const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDecreasing = "decreasing"
)

type PredictionResult struct {
	CurrentPrice  int64    `json:"currentPrice"`
	Confidence    int      `json:"confidence"`
	Factors       []Factor `json:"factors"`
	ModelType     string   `json:"modelType"`
	MarketTrend   string   `json:"marketTrend"`
	LocationScore int      `json:"locationScore"`
	BaseGrowth    float64  `json:"baseGrowth"`
}

type ForecastPoint struct {
	Year       int    `json:"year"`
	Price      int64  `json:"price"`
	Growth     string `json:"growth"`
	Confidence int    `json:"confidence"`
}

type Summary struct {
	TotalProperties int    `json:"totalProperties"`
	AveragePrice    int64  `json:"averagePrice"`
	MarketTrend     string `json:"marketTrend"`
	LocationScore   int    `json:"locationScore"`
}

// Prediction is the prediction block of the response payload
type Prediction struct {
	PredictionResult
	ProcessingTime int64 `json:"processingTime"`
}

type PredictionResponse struct {
	Success      bool            `json:"success"`
	PredictionID string          `json:"predictionId"`
	Prediction   Prediction      `json:"prediction"`
	Forecast     []ForecastPoint `json:"forecast"`
	Summary      Summary         `json:"summary"`
	Timestamp    time.Time       `json:"timestamp"`

	// Why the primary strategy was not used. Kept for history, never sent.
	FallbackReason string `json:"-"`
}

type ModelInfo struct {
	IsLoaded           bool     `json:"isLoaded"`
	ModelType          string   `json:"modelType"`
	ModelFile          string   `json:"modelFile"`
	SupportedLocations []string `json:"supportedLocations"`
	Features           []string `json:"features"`
	Status             string   `json:"status"`
}
