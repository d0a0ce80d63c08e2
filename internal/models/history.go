package models

import "time"

// PredictionRecord is a persisted prediction
type PredictionRecord struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	CreatedAt      time.Time `json:"timestamp" gorm:"index"`
	UserID         string    `json:"user_id,omitempty" gorm:"index"`
	Location       string    `json:"location" gorm:"index"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	Floors         int       `json:"floors"`
	Area           float64   `json:"area"`
	Bedrooms       int       `json:"bedrooms"`
	Bathrooms      int       `json:"bathrooms"`
	Age            int       `json:"age"`
	PredictedPrice int64     `json:"predicted_price"`
	Confidence     int       `json:"confidence"`
	ModelType      string    `json:"model_type"`
	MarketTrend    string    `json:"market_trend"`
	BaseGrowth     float64   `json:"base_growth"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
}

// LocationInsights summarises stored predictions for one location
type LocationInsights struct {
	Location        string  `json:"location"`
	PredictionCount int64   `json:"prediction_count"`
	AveragePrice    float64 `json:"average_price"`
	MinPrice        int64   `json:"min_price"`
	MaxPrice        int64   `json:"max_price"`
	PricePerSqFt    float64 `json:"price_per_sqft"`
	MarketTrend     string  `json:"market_trend"`
	BaseGrowth      float64 `json:"base_growth"`
}
