package observability

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/readstyle/message"
	"github.com/hazyhaar/readstyle/resolve"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveDecision(resolve.Decision{Tier: resolve.TierSite})
	m.ObserveDecision(resolve.Decision{Tier: resolve.TierActive, Stale: true})
	m.ObserveDecision(resolve.Decision{Tier: resolve.TierActive, Stale: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("site", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("active", "true")))

	m.ObserveMessage(message.GetSettings, message.OutcomeOK, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Messages.WithLabelValues("GET_SETTINGS", "ok")))

	m.ObserveAnalysis("static", 5*time.Millisecond)
	m.ObserveNavigation("applied")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StylesApplied.WithLabelValues("applied")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	m := NewMetrics(nil)
	m.ObserveNavigation("skipped")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StylesApplied.WithLabelValues("skipped")))
}

func TestLogger(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")
	logger.Debug("hidden")
	logger.Info("store: seeded defaults", "keys", 4)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"store: seeded defaults"`)
}
