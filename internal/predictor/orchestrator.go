package predictor

import (
	"context"
	"earthslight/server/config"
	"earthslight/server/internal/aimodel"
	"earthslight/server/internal/forecast"
	"earthslight/server/internal/geometry"
	"earthslight/server/internal/models"
	"earthslight/server/internal/observability"
	"earthslight/server/internal/pricing"
	"errors"
	"math"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// ErrComputation is returned when a price or growth rate is not finite
var ErrComputation = errors.New("prediction produced a non-finite value")

// Features are the request attributes the models consume
var Features = []string{"floors", "area", "bedrooms", "bathrooms", "age", "location"}

// ExternalModel is the out-of-process primary strategy
type ExternalModel interface {
	Probe(ctx context.Context) error
	Predict(ctx context.Context, in models.PropertyInput, location string) (*models.PredictionResult, error)
	ModelFile() string
}

// Status is decided once at startup and never changes afterwards
type Status struct {
	Loaded    bool
	ModelType string
	ModelFile string
}

// Outcome is the result of one strategy attempt. Reason is empty when the
// external model produced Result.
type Outcome struct {
	Result *models.PredictionResult
	Reason aimodel.FailureReason
}

func (o Outcome) UsedPrimary() bool {
	return o.Reason == ""
}

// Orchestrator tries the external model once and falls back to the formula
// model on any failure
type Orchestrator struct {
	logger   *logrus.Logger
	primary  ExternalModel
	fallback *pricing.Model
	rng      Random
	clock    clockwork.Clock
	metrics  *observability.Metrics

	initOnce sync.Once
	status   Status
}

// NewOrchestrator creates a new orchestrator. primary may be nil, in which
// case every request uses the formula model.
func NewOrchestrator(primary ExternalModel, rng Random, clock clockwork.Clock, metrics *observability.Metrics, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if rng == nil {
		rng = NewRandom(0)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}

	return &Orchestrator{
		logger:   logger,
		primary:  primary,
		fallback: pricing.NewModel(),
		rng:      rng,
		clock:    clock,
		metrics:  metrics,
		status:   Status{ModelType: pricing.ModelType},
	}
}

// Initialize probes the external model. Only the first call has an effect.
func (o *Orchestrator) Initialize(ctx context.Context) Status {
	o.initOnce.Do(func() {
		if o.primary == nil {
			o.logger.Info("No external model configured, using formula model")
			return
		}

		o.status.ModelFile = o.primary.ModelFile()
		if err := o.primary.Probe(ctx); err != nil {
			o.logger.WithError(err).WithField("reason", aimodel.ReasonOf(err)).
				Warn("External model unavailable, using formula model")
			return
		}

		o.status.Loaded = true
		o.status.ModelType = aimodel.DefaultModelType
		o.metrics.ModelLoaded.Set(1)
	})
	return o.status
}

// Status returns the status decided by Initialize
func (o *Orchestrator) Status() Status {
	return o.status
}

// TestModel runs the load probe on demand without touching Status
func (o *Orchestrator) TestModel(ctx context.Context) error {
	if o.primary == nil {
		return &aimodel.StrategyError{Reason: aimodel.ReasonNotLoaded}
	}
	return o.primary.Probe(ctx)
}

// ModelInfo reports the model state for the status endpoint
func (o *Orchestrator) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		IsLoaded:           o.status.Loaded,
		ModelType:          o.status.ModelType,
		ModelFile:          o.status.ModelFile,
		SupportedLocations: config.GetCityNames(),
		Features:           Features,
		Status:             "Ready",
	}
}

// Resolve attempts the external model at most once and falls back to the
// formula model. It never fails.
func (o *Orchestrator) Resolve(ctx context.Context, in models.PropertyInput, loc geometry.Location) Outcome {
	if !o.status.Loaded {
		return o.fallbackOutcome(in, loc, aimodel.ReasonNotLoaded)
	}

	start := o.clock.Now()
	result, err := o.primary.Predict(ctx, in, loc.Label())
	o.metrics.PrimaryDuration.Observe(o.clock.Since(start).Seconds())
	if err != nil {
		reason := aimodel.ReasonOf(err)
		o.logger.WithError(err).WithFields(logrus.Fields{
			"reason":   reason,
			"location": loc.Label(),
		}).Warn("External model failed, falling back to formula model")
		return o.fallbackOutcome(in, loc, reason)
	}

	return Outcome{Result: result}
}

func (o *Orchestrator) fallbackOutcome(in models.PropertyInput, loc geometry.Location, reason aimodel.FailureReason) Outcome {
	result := o.fallback.Estimate(in, loc, o.rng)
	return Outcome{Result: &result, Reason: reason}
}

// Predict prices a validated request and projects it ten years forward
func (o *Orchestrator) Predict(ctx context.Context, in models.PropertyInput) (*models.PredictionResponse, error) {
	start := o.clock.Now()
	loc := geometry.ParseLocation(in.Location, in.Lat, in.Lng)

	outcome := o.Resolve(ctx, in, loc)
	result := *outcome.Result

	// zero means the strategy did not report a rate; negative rates are kept
	if result.BaseGrowth == 0 {
		result.BaseGrowth = geometry.GrowthFor(loc)
	}
	if !finite(result.CurrentPrice, result.BaseGrowth) {
		o.metrics.ComputationError.Inc()
		o.logger.WithFields(logrus.Fields{
			"price":  result.CurrentPrice,
			"growth": result.BaseGrowth,
			"model":  result.ModelType,
		}).Error("Prediction produced a non-finite value")
		return nil, ErrComputation
	}

	series := forecast.Project(result.CurrentPrice, result.BaseGrowth, start.Year(), o.rng)

	if outcome.UsedPrimary() {
		o.metrics.Predictions.WithLabelValues("primary").Inc()
	} else {
		o.metrics.Predictions.WithLabelValues("fallback").Inc()
		o.metrics.Fallbacks.WithLabelValues(string(outcome.Reason)).Inc()
	}

	return &models.PredictionResponse{
		Success:      true,
		PredictionID: uuid.NewString(),
		Prediction: models.Prediction{
			PredictionResult: result,
			ProcessingTime:   o.clock.Since(start).Milliseconds(),
		},
		Forecast: series,
		Summary: models.Summary{
			TotalProperties: 500 + o.rng.IntN(1000),
			AveragePrice:    int64(math.Floor(float64(result.CurrentPrice) * 0.9)),
			MarketTrend:     result.MarketTrend,
			LocationScore:   result.LocationScore,
		},
		Timestamp:      o.clock.Now().UTC(),
		FallbackReason: string(outcome.Reason),
	}, nil
}

// finite reports whether price compounded over the forecast horizon, with
// maximum noise, stays a positive finite integer
func finite(price int64, growth float64) bool {
	if price <= 0 || math.IsNaN(growth) || math.IsInf(growth, 0) || growth <= -1 {
		return false
	}
	peak := float64(price) * math.Pow(1+growth, forecast.Horizon) * 1.04
	return !math.IsInf(peak, 0) && peak < math.MaxInt64
}
