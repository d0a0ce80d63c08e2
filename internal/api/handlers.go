package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"earthslight/server/internal/geometry"
	"earthslight/server/internal/models"
	"earthslight/server/internal/observability"
	"earthslight/server/internal/predictor"
	"earthslight/server/internal/pricing"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var recommendations = []string{
	"Consider properties in emerging neighborhoods",
	"Look for properties with renovation potential",
	"Focus on properties with good school districts",
}

// HistoryStore reads persisted predictions
type HistoryStore interface {
	GetPredictionHistory(userID string, limit int) ([]models.PredictionRecord, error)
	GetLocationInsights(location string) (models.LocationInsights, error)
}

// Recorder accepts prediction records for asynchronous persistence
type Recorder interface {
	Push(records []*models.PredictionRecord) error
}

type Handler struct {
	orchestrator *predictor.Orchestrator
	history      HistoryStore
	recorder     Recorder
	metrics      *observability.Metrics
	logger       *logrus.Logger
}

// PredictRequest is the body of POST /api/predict. Pointers tell a missing
// field apart from a zero one.
type PredictRequest struct {
	Floors    *int     `json:"floors" binding:"required"`
	Area      *float64 `json:"area" binding:"required"`
	Bedrooms  *int     `json:"bedrooms" binding:"required"`
	Bathrooms *int     `json:"bathrooms" binding:"required"`
	Age       *int     `json:"age" binding:"required"`
	Location  string   `json:"location"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

func (r PredictRequest) input() models.PropertyInput {
	return models.PropertyInput{
		Floors:    *r.Floors,
		Area:      *r.Area,
		Bedrooms:  *r.Bedrooms,
		Bathrooms: *r.Bathrooms,
		Age:       *r.Age,
		Location:  r.Location,
		Lat:       r.Lat,
		Lng:       r.Lng,
	}
}

type insightsResponse struct {
	models.LocationInsights
	Recommendations []string `json:"recommendations"`
}

// NewHandler creates the prediction handler. history and recorder may be
// nil, which disables the history endpoints and recording respectively.
func NewHandler(orchestrator *predictor.Orchestrator, history HistoryStore, recorder Recorder, metrics *observability.Metrics, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}

	return &Handler{
		orchestrator: orchestrator,
		history:      history,
		recorder:     recorder,
		metrics:      metrics,
		logger:       logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"message": "EarthSlight Backend is running",
	})
}

func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Location == "" && (req.Lat == nil || req.Lng == nil)) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Required: floors, area, bedrooms, bathrooms, age, and either location string or lat/lng",
		})
		return
	}

	in := req.input()
	if err := predictor.Validate(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.orchestrator.Predict(c.Request.Context(), in)
	if err != nil {
		if !errors.Is(err, predictor.ErrComputation) {
			h.logger.WithError(err).Error("Prediction failed")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate prediction"})
		return
	}

	h.record(c.GetString(userIDKey), in, resp)
	c.JSON(http.StatusOK, resp)
}

// record queues the prediction for persistence. A full queue drops it.
func (h *Handler) record(userID string, in models.PropertyInput, resp *models.PredictionResponse) {
	if h.recorder == nil {
		return
	}

	loc := geometry.ParseLocation(in.Location, in.Lat, in.Lng)
	rec := &models.PredictionRecord{
		ID:             resp.PredictionID,
		CreatedAt:      resp.Timestamp,
		UserID:         userID,
		Location:       loc.Label(),
		Latitude:       loc.Lat(),
		Longitude:      loc.Lng(),
		Floors:         in.Floors,
		Area:           in.Area,
		Bedrooms:       in.Bedrooms,
		Bathrooms:      in.Bathrooms,
		Age:            in.Age,
		PredictedPrice: resp.Prediction.CurrentPrice,
		Confidence:     resp.Prediction.Confidence,
		ModelType:      resp.Prediction.ModelType,
		MarketTrend:    resp.Prediction.MarketTrend,
		BaseGrowth:     resp.Prediction.BaseGrowth,
		FallbackReason: resp.FallbackReason,
	}

	if err := h.recorder.Push([]*models.PredictionRecord{rec}); err != nil {
		h.metrics.HistoryDropped.Inc()
		h.logger.WithError(err).WithField("prediction_id", rec.ID).Warn("Dropped prediction record")
		return
	}
	h.metrics.HistoryQueued.Inc()
}

func (h *Handler) ModelStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"modelInfo": h.orchestrator.ModelInfo(),
	})
}

func (h *Handler) TestModel(c *gin.Context) {
	if err := h.orchestrator.TestModel(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Model test failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to test model"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "AI model tested successfully",
	})
}

func (h *Handler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	history := []models.PredictionRecord{}
	if h.history != nil {
		history, err = h.history.GetPredictionHistory(c.GetString(userIDKey), limit)
		if err != nil {
			h.logger.WithError(err).Error("Failed to get prediction history")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get prediction history"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
	})
}

func (h *Handler) Insights(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Location parameter is required"})
		return
	}

	insights := models.LocationInsights{Location: location}
	if h.history != nil {
		var err error
		insights, err = h.history.GetLocationInsights(location)
		if err != nil {
			h.logger.WithError(err).WithField("location", location).Error("Failed to get market insights")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get market insights"})
			return
		}
	}

	growth := geometry.GrowthFor(geometry.ParseLocation(location, nil, nil))
	insights.BaseGrowth = growth
	insights.MarketTrend = pricing.MarketTrend(growth)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"insights": insightsResponse{
			LocationInsights: insights,
			Recommendations:  recommendations,
		},
	})
}
