// Package pageprobe renders pages in headless Chrome (through Rod) and
// measures every element, so the content heuristic can run against real
// computed styles and layout boxes.
package pageprobe

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/hazyhaar/readstyle/netguard"
)

// Config configures the Browser.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local headless Chrome on first use.
	RemoteURL string
	// Stealth opens pages through go-rod/stealth.
	Stealth bool
	// NavTimeout bounds navigation plus measurement. Default 30s.
	NavTimeout time.Duration
	// ResourceBlocking lists resource kinds not to load: images, fonts,
	// media. Stylesheets are never blocked since they drive layout.
	ResourceBlocking []string
	// AllowPrivate lets Render fetch loopback and private addresses.
	AllowPrivate bool
	// Resolver is used for the private address check. Default net.DefaultResolver.
	Resolver netguard.Resolver
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser owns one Chrome connection shared by concurrent renders.
type Browser struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// New returns a Browser. Chrome is started on the first Render.
func New(cfg Config) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg}
}

// connection returns the live browser, launching or connecting if needed.
func (b *Browser) connection() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("pageprobe: browser is closed")
	}
	if b.browser != nil {
		return b.browser, nil
	}

	log := b.cfg.Logger
	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true).Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("pageprobe: launch chrome: %w", err)
		}
		wsURL = u
		b.lnch = l
		log.Info("pageprobe: launched local chrome", "url", wsURL)
	} else {
		log.Info("pageprobe: connecting to chrome", "url", wsURL)
	}

	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("pageprobe: connect: %w", err)
	}
	b.browser = rb
	return rb, nil
}

// reset drops a connection that failed, so the next Render reconnects.
func (b *Browser) reset(stale *rod.Browser) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == stale {
		b.cfg.Logger.Warn("pageprobe: dropping browser connection")
		b.cleanup()
	}
}

// Close shuts Chrome down. Renders after Close fail.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cleanup()
	return nil
}

func (b *Browser) cleanup() {
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
}
