// Package adjuster is the readstyle service: it owns the preference store,
// answers messages from every surface, resolves settings on navigation and
// reports page structure.
//
//	a, err := adjuster.New(ctx, cfg, logger)
//	defer a.Close()
//	a.RegisterHTTP(router)
//	a.RegisterMCP(mcpServer)
//	resp := a.Dispatch(ctx, message.Request{Type: message.GetSettings, URL: u})
package adjuster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hazyhaar/readstyle/idgen"
	"github.com/hazyhaar/readstyle/message"
	"github.com/hazyhaar/readstyle/observability"
	"github.com/hazyhaar/readstyle/pageprobe"
	"github.com/hazyhaar/readstyle/prefs"
	"github.com/hazyhaar/readstyle/resolve"
	"github.com/hazyhaar/readstyle/store"
)

// Adjuster is the readstyle orchestrator.
type Adjuster struct {
	prefs    *store.Prefs
	router   *message.Router
	renderer pageprobe.Renderer
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	config   *Config

	// mu serialises read-modify-write cycles on the stored state.
	mu sync.Mutex

	// closers run on Close, in reverse order.
	closers   []func() error
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures an Adjuster.
type Option func(*Adjuster)

// WithRenderer enables live rendering for page analysis.
func WithRenderer(r pageprobe.Renderer) Option {
	return func(a *Adjuster) { a.renderer = r }
}

// WithRegistry registers the metrics on reg and serves it on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *Adjuster) {
		a.metrics = observability.NewMetrics(reg)
		a.gatherer = reg
	}
}

// New opens the configured store (and browser, when enabled) and builds
// an Adjuster on top of it. The store is seeded on first run.
func New(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...Option) (*Adjuster, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	kv, err := OpenKV(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a := NewWithStore(store.NewPrefs(kv, logger), cfg, logger, opts...)
	a.closers = append(a.closers, kv.Close)

	if cfg.Browser.Enabled && a.renderer == nil {
		b := pageprobe.New(pageprobe.Config{
			RemoteURL:        cfg.Browser.RemoteURL,
			Stealth:          cfg.Browser.Stealth,
			NavTimeout:       cfg.Browser.NavTimeout,
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			AllowPrivate:     cfg.Browser.AllowPrivate,
			Logger:           logger,
		})
		a.renderer = b
		a.closers = append(a.closers, b.Close)
	}

	if err := a.Start(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// OpenKV opens the backend named by cfg.Backend.
func OpenKV(ctx context.Context, cfg StoreConfig) (store.KV, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		kv, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case BackendRedis:
		kv, err := store.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case BackendMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("adjuster: unknown store backend %q", cfg.Backend)
	}
}

// NewWithStore builds an Adjuster over an existing Prefs. The caller keeps
// ownership of the store. Start is not called.
func NewWithStore(p *store.Prefs, cfg *Config, logger *slog.Logger, opts ...Option) *Adjuster {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adjuster{
		prefs:  p,
		logger: logger,
		config: cfg,
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observability.NewMetrics(nil)
	}
	a.router = message.NewRouter(
		message.WithLogger(logger),
		message.WithMiddleware(
			message.RequestID(idgen.Message),
			message.Logging(logger),
			message.Observe(a.metrics),
			message.Recovery(logger),
		),
	)
	a.registerHandlers()
	return a
}

// Start seeds an empty store and repairs broken references left by older
// writers (missing Default, dangling active profile or site entries).
func (a *Adjuster) Start(ctx context.Context) error {
	seeded, err := a.prefs.EnsureSeeded(ctx)
	if err != nil {
		return fmt.Errorf("adjuster: start: %w", err)
	}
	if seeded {
		a.logger.Info("adjuster: first run, defaults written")
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.repair(ctx, "start")
}

// repair restores the editor invariants on the stored state: Default
// exists, Active names a stored profile, site entries name stored profiles.
// The caller holds a.mu.
func (a *Adjuster) repair(ctx context.Context, after string) error {
	prev := a.prefs.State(ctx)
	next, changed := prefs.Repair(prev)
	if !changed {
		return nil
	}
	a.logger.Warn("adjuster: repaired stored preferences", "after", after)
	if _, err := a.prefs.SaveState(ctx, prev, next); err != nil {
		return fmt.Errorf("adjuster: repair: %w", err)
	}
	return nil
}

// Close releases the store and browser opened by New.
func (a *Adjuster) Close() error {
	a.closeOnce.Do(func() { close(a.done) })
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// Prefs returns the preference repository.
func (a *Adjuster) Prefs() *store.Prefs { return a.prefs }

// Router returns the message router.
func (a *Adjuster) Router() *message.Router { return a.router }

// Metrics returns the service metrics.
func (a *Adjuster) Metrics() *observability.Metrics { return a.metrics }

// Dispatch answers one message. It never fails: errors are carried in the
// response.
func (a *Adjuster) Dispatch(ctx context.Context, req message.Request) message.Response {
	return a.router.Dispatch(ctx, req)
}

// Decide resolves url against a fresh snapshot of the store.
func (a *Adjuster) Decide(ctx context.Context, url string) resolve.Decision {
	d := a.prefs.Snapshot(ctx).Decide(url)
	a.metrics.ObserveDecision(d)
	return d
}

// SettingsForURL returns the settings to apply on url, or nil when the URL
// is empty or its site is excepted.
func (a *Adjuster) SettingsForURL(ctx context.Context, url string) *prefs.Settings {
	if url == "" {
		return nil
	}
	return a.Decide(ctx, url).Settings
}

// mutate loads the state, applies fn and saves the documents that changed.
func (a *Adjuster) mutate(ctx context.Context, fn func(prefs.State) (prefs.State, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.prefs.State(ctx)
	next, err := fn(prev)
	if err != nil {
		return err
	}
	if _, err := a.prefs.SaveState(ctx, prev, next); err != nil {
		return fmt.Errorf("adjuster: save: %w", err)
	}
	return nil
}
