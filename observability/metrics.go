// Package observability holds the readstyle Prometheus metrics and the slog
// logger setup shared by the binary.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hazyhaar/readstyle/message"
	"github.com/hazyhaar/readstyle/resolve"
)

// Metrics are the service counters and histograms.
type Metrics struct {
	Resolutions      *prometheus.CounterVec
	Messages         *prometheus.CounterVec
	MessageDuration  *prometheus.HistogramVec
	AnalysisDuration *prometheus.HistogramVec
	StylesApplied    *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them on reg. A nil reg
// leaves them unregistered, which tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "readstyle",
			Name:      "resolutions_total",
			Help:      "Settings resolutions by winning tier.",
		}, []string{"tier", "stale"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "readstyle",
			Name:      "messages_total",
			Help:      "Dispatched messages by type and outcome.",
		}, []string{"type", "outcome"}),
		MessageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "readstyle",
			Name:      "message_duration_seconds",
			Help:      "Message handler latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"type"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "readstyle",
			Name:      "analysis_duration_seconds",
			Help:      "Page analysis latency by source (static, rendered).",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"source"}),
		StylesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "readstyle",
			Name:      "navigation_styles_total",
			Help:      "Navigation events by delivery result (applied, skipped, failed).",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.Resolutions, m.Messages, m.MessageDuration, m.AnalysisDuration, m.StylesApplied)
	}
	return m
}

// ObserveDecision counts one resolution.
func (m *Metrics) ObserveDecision(d resolve.Decision) {
	stale := "false"
	if d.Stale {
		stale = "true"
	}
	m.Resolutions.WithLabelValues(string(d.Tier), stale).Inc()
}

// ObserveMessage implements message.Observer.
func (m *Metrics) ObserveMessage(t message.Type, outcome string, d time.Duration) {
	m.Messages.WithLabelValues(string(t), outcome).Inc()
	m.MessageDuration.WithLabelValues(string(t)).Observe(d.Seconds())
}

// ObserveAnalysis records one page analysis.
func (m *Metrics) ObserveAnalysis(source string, d time.Duration) {
	m.AnalysisDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveNavigation counts one navigation event.
func (m *Metrics) ObserveNavigation(result string) {
	m.StylesApplied.WithLabelValues(result).Inc()
}
