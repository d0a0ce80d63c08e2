package aimodel

import (
	"context"
	"earthslight/server/internal/models"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const successOutput = `echo "Pre-trained model loaded from model.pkl"
cat <<'JSON'
{
  "currentPrice": 612345.7,
  "confidence": 95,
  "marketTrend": "stable",
  "locationScore": 90,
  "factors": [
    {"name": "Location", "impact": 2.5, "description": "Location premium"},
    {"name": "Area", "impact": "1.2", "description": "Square footage"}
  ]
}
JSON
`

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newTestRunner(t *testing.T, script string, withModel bool) *Runner {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "predict.sh"), []byte(script), 0o644))
	if withModel {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "model.pkl"), []byte("model"), 0o644))
	}
	return NewRunner(Options{
		Interpreter:    "/bin/sh",
		Dir:            dir,
		Script:         "predict.sh",
		ModelFile:      "model.pkl",
		PredictTimeout: 2 * time.Second,
		LoadTimeout:    2 * time.Second,
	}, testLogger())
}

func sampleInput() models.PropertyInput {
	return models.PropertyInput{Floors: 2, Area: 1200, Bedrooms: 3, Bathrooms: 2, Age: 5}
}

func assertReason(t *testing.T, err error, expected FailureReason) {
	t.Helper()
	require.Error(t, err)
	var se *StrategyError
	require.True(t, errors.As(err, &se), "expected StrategyError, got %T", err)
	assert.Equal(t, expected, se.Reason)
	assert.Equal(t, expected, ReasonOf(err))
}

func TestPredict_Success(t *testing.T) {
	r := newTestRunner(t, successOutput, true)

	result, err := r.Predict(context.Background(), sampleInput(), "Los Angeles")
	require.NoError(t, err)

	assert.Equal(t, int64(612346), result.CurrentPrice)
	assert.Equal(t, 95, result.Confidence)
	assert.Equal(t, models.TrendStable, result.MarketTrend)
	assert.Equal(t, 90, result.LocationScore)
	assert.Equal(t, DefaultModelType, result.ModelType)
	assert.Zero(t, result.BaseGrowth)
	assert.Equal(t, []models.Factor{
		{Name: "Location", Impact: "2.50", Description: "Location premium"},
		{Name: "Area", Impact: "1.20", Description: "Square footage"},
	}, result.Factors)
}

func TestPredict_PassesPositionalArguments(t *testing.T) {
	script := `printf '%s|' "$@" > args.txt
echo '{"currentPrice": 1000, "confidence": 80, "marketTrend": "increasing", "locationScore": 75, "factors": [], "modelType": "Custom", "baseGrowth": 0.05}'
`
	r := newTestRunner(t, script, true)
	in := sampleInput()
	in.Area = 1199.6

	result, err := r.Predict(context.Background(), in, "12.5,77.2")
	require.NoError(t, err)
	assert.Equal(t, "Custom", result.ModelType)
	assert.Equal(t, 0.05, result.BaseGrowth)

	args, err := os.ReadFile(filepath.Join(r.workDir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "predict|2|1200|3|2|5|12.5,77.2|", string(args))
}

func TestPredict_Failures(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		expected FailureReason
	}{
		{
			name:     "Non-zero exit",
			script:   "echo 'model exploded' >&2\nexit 3\n",
			expected: ReasonNonZeroExit,
		},
		{
			name:     "No JSON",
			script:   "echo 'Prediction failed. Check model and input data.'\n",
			expected: ReasonMalformedOutput,
		},
		{
			name:     "Truncated JSON",
			script:   "echo '{\"currentPrice\": 10'\n",
			expected: ReasonMalformedOutput,
		},
		{
			name:     "Missing price",
			script:   "echo '{\"confidence\": 80, \"marketTrend\": \"stable\"}'\n",
			expected: ReasonMalformedOutput,
		},
		{
			name:     "Unknown trend",
			script:   "echo '{\"currentPrice\": 1000, \"confidence\": 80, \"marketTrend\": \"sideways\"}'\n",
			expected: ReasonMalformedOutput,
		},
		{
			name:     "Confidence out of range",
			script:   "echo '{\"currentPrice\": 1000, \"confidence\": 180, \"marketTrend\": \"stable\"}'\n",
			expected: ReasonMalformedOutput,
		},
		{
			name:     "Price overflows int64",
			script:   "echo '{\"currentPrice\": 1e30, \"confidence\": 80, \"marketTrend\": \"stable\"}'\n",
			expected: ReasonMalformedOutput,
		},
		{
			name:     "Bad factor impact",
			script:   "echo '{\"currentPrice\": 1000, \"confidence\": 80, \"marketTrend\": \"stable\", \"factors\": [{\"name\": \"Area\", \"impact\": \"big\"}]}'\n",
			expected: ReasonMalformedOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t, tt.script, true)
			result, err := r.Predict(context.Background(), sampleInput(), "Boston")
			assert.Nil(t, result)
			assertReason(t, err, tt.expected)
		})
	}
}

func TestPredict_NonZeroExitKeepsStderr(t *testing.T) {
	r := newTestRunner(t, "echo 'model exploded' >&2\nexit 1\n", true)

	_, err := r.Predict(context.Background(), sampleInput(), "Boston")
	var se *StrategyError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Stderr, "model exploded")
}

func TestPredict_Timeout(t *testing.T) {
	r := newTestRunner(t, "exec sleep 10\n", true)
	r.predictTimeout = 100 * time.Millisecond

	start := time.Now()
	_, err := r.Predict(context.Background(), sampleInput(), "Boston")

	assertReason(t, err, ReasonTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestPredict_Canceled(t *testing.T) {
	r := newTestRunner(t, "exec sleep 10\n", true)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Predict(ctx, sampleInput(), "Boston")

	assertReason(t, err, ReasonCanceled)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestPredict_SpawnFailed(t *testing.T) {
	r := newTestRunner(t, successOutput, true)
	r.interpreter = filepath.Join(t.TempDir(), "no-such-python")

	_, err := r.Predict(context.Background(), sampleInput(), "Boston")
	assertReason(t, err, ReasonSpawnFailed)
}

func TestProbe(t *testing.T) {
	t.Run("Model file missing", func(t *testing.T) {
		r := newTestRunner(t, "exit 0\n", false)
		assertReason(t, r.Probe(context.Background()), ReasonNotLoaded)
	})

	t.Run("Load succeeds", func(t *testing.T) {
		r := newTestRunner(t, "[ \"$1\" = load ] || exit 2\necho 'Pre-trained model loaded successfully!'\n", true)
		assert.NoError(t, r.Probe(context.Background()))
	})

	t.Run("Load fails", func(t *testing.T) {
		r := newTestRunner(t, "exit 1\n", true)
		assertReason(t, r.Probe(context.Background()), ReasonNonZeroExit)
	})

	t.Run("Load hangs", func(t *testing.T) {
		r := newTestRunner(t, "exec sleep 10\n", true)
		r.loadTimeout = 100 * time.Millisecond
		assertReason(t, r.Probe(context.Background()), ReasonTimeout)
	})
}

func TestModelFile(t *testing.T) {
	r := newTestRunner(t, "", false)
	assert.True(t, filepath.IsAbs(r.ModelFile()))
	assert.True(t, strings.HasSuffix(r.ModelFile(), "model.pkl"))
}

func TestReasonOf_ForeignError(t *testing.T) {
	assert.Equal(t, ReasonMalformedOutput, ReasonOf(errors.New("boom")))
}
