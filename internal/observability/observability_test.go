package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger("info", "xml")
	assert.Error(t, err)

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
}

func TestNewMetricsForTesting_Isolated(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Predictions.WithLabelValues(OutcomeSuccess).Inc()
	a.HandoffEntries.Set(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Predictions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Predictions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.HandoffEntries))
}
