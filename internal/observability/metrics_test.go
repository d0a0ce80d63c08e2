package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Predictions.WithLabelValues("fallback").Inc()
	a.Fallbacks.WithLabelValues("timeout").Add(2)
	a.ModelLoaded.Set(1)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Predictions.WithLabelValues("fallback")))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.Fallbacks.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ModelLoaded))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Predictions.WithLabelValues("fallback")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ModelLoaded))
}
