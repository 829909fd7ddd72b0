package adjuster

import (
	"context"

	"github.com/hazyhaar/readstyle/message"
)

// StyleSink delivers a message to the page a navigation event came from.
type StyleSink interface {
	Send(ctx context.Context, req message.Request) error
}

// StyleSinkFunc adapts a function to StyleSink.
type StyleSinkFunc func(ctx context.Context, req message.Request) error

// Send calls f.
func (f StyleSinkFunc) Send(ctx context.Context, req message.Request) error { return f(ctx, req) }

// Navigation results.
const (
	NavApplied = "applied"
	NavSkipped = "skipped"
	NavFailed  = "failed"
)

// OnNavigate handles a completed page load: it resolves url and, when the
// result is enabled, sends APPLY_STYLES to sink. Delivery failures are
// expected (the page may not be listening yet) and only logged.
func (a *Adjuster) OnNavigate(ctx context.Context, url string, sink StyleSink) string {
	settings := a.SettingsForURL(ctx, url)
	if settings == nil || !settings.Enabled {
		a.metrics.ObserveNavigation(NavSkipped)
		return NavSkipped
	}
	err := sink.Send(ctx, message.Request{Type: message.ApplyStyles, URL: url, Settings: settings})
	if err != nil {
		a.logger.Info("adjuster: could not deliver styles, page not listening", "url", url, "error", err)
		a.metrics.ObserveNavigation(NavFailed)
		return NavFailed
	}
	a.metrics.ObserveNavigation(NavApplied)
	return NavApplied
}
