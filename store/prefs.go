package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/readstyle/prefs"
	"github.com/hazyhaar/readstyle/resolve"
)

// Prefs is the typed view over a KV. Reads never fail: a missing key, a
// backend error or an undecodable value yields the documented default (the
// failure is logged). Writes log and return their error.
type Prefs struct {
	kv     KV
	logger *slog.Logger
}

// NewPrefs wraps kv. A nil logger uses slog.Default().
func NewPrefs(kv KV, logger *slog.Logger) *Prefs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prefs{kv: kv, logger: logger}
}

// KV returns the underlying backend.
func (p *Prefs) KV() KV { return p.kv }

// Close closes the backend.
func (p *Prefs) Close() error { return p.kv.Close() }

func getValue[T any](ctx context.Context, p *Prefs, key string, def T) T {
	raw, ok, err := p.kv.Get(ctx, key)
	if err != nil {
		p.logger.Error("store: get", "key", key, "error", err)
		return def
	}
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		p.logger.Error("store: decode", "key", key, "error", err)
		return def
	}
	return v
}

func (p *Prefs) setValue(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("store: encode", "key", key, "error", err)
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := p.kv.Set(ctx, key, raw); err != nil {
		p.logger.Error("store: set", "key", key, "error", err)
		return err
	}
	return nil
}

// Profiles returns the saved profiles, DefaultProfiles() when unset.
func (p *Prefs) Profiles(ctx context.Context) []prefs.Profile {
	return getValue(ctx, p, prefs.KeyProfiles, prefs.DefaultProfiles())
}

// ActiveProfile returns the active profile, DefaultProfile when unset.
func (p *Prefs) ActiveProfile(ctx context.Context) prefs.Profile {
	return getValue(ctx, p, prefs.KeyActiveProfile, prefs.DefaultProfile)
}

// SiteExceptions returns the excepted domains, empty when unset.
func (p *Prefs) SiteExceptions(ctx context.Context) []string {
	v := getValue(ctx, p, prefs.KeySiteExceptions, []string{})
	if v == nil {
		return []string{}
	}
	return v
}

// SiteProfiles returns the domain to profile name map, empty when unset.
func (p *Prefs) SiteProfiles(ctx context.Context) map[string]string {
	v := getValue(ctx, p, prefs.KeySiteProfiles, map[string]string{})
	if v == nil {
		return map[string]string{}
	}
	return v
}

func (p *Prefs) SetProfiles(ctx context.Context, profiles []prefs.Profile) error {
	return p.setValue(ctx, prefs.KeyProfiles, profiles)
}

func (p *Prefs) SetActiveProfile(ctx context.Context, profile prefs.Profile) error {
	return p.setValue(ctx, prefs.KeyActiveProfile, profile)
}

func (p *Prefs) SetSiteExceptions(ctx context.Context, exceptions []string) error {
	if exceptions == nil {
		exceptions = []string{}
	}
	return p.setValue(ctx, prefs.KeySiteExceptions, exceptions)
}

func (p *Prefs) SetSiteProfiles(ctx context.Context, siteProfiles map[string]string) error {
	if siteProfiles == nil {
		siteProfiles = map[string]string{}
	}
	return p.setValue(ctx, prefs.KeySiteProfiles, siteProfiles)
}

// Snapshot reads the four documents concurrently.
func (p *Prefs) Snapshot(ctx context.Context) resolve.Snapshot {
	var snap resolve.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { snap.Exceptions = p.SiteExceptions(gctx); return nil })
	g.Go(func() error { snap.SiteProfiles = p.SiteProfiles(gctx); return nil })
	g.Go(func() error { snap.Profiles = p.Profiles(gctx); return nil })
	g.Go(func() error { snap.Active = p.ActiveProfile(gctx); return nil })
	_ = g.Wait()
	return snap
}

// State returns the full preference state.
func (p *Prefs) State(ctx context.Context) prefs.State {
	snap := p.Snapshot(ctx)
	return prefs.State{
		Profiles:     snap.Profiles,
		Active:       snap.Active,
		Exceptions:   snap.Exceptions,
		SiteProfiles: snap.SiteProfiles,
	}
}

// SaveState writes the documents of next that differ from prev. Backends
// implementing Batcher get a single atomic write.
func (p *Prefs) SaveState(ctx context.Context, prev, next prefs.State) ([]string, error) {
	next = next.Clone()
	docs := []struct {
		key        string
		prev, next any
	}{
		{prefs.KeyProfiles, prev.Profiles, next.Profiles},
		{prefs.KeyActiveProfile, prev.Active, next.Active},
		{prefs.KeySiteExceptions, prev.Exceptions, next.Exceptions},
		{prefs.KeySiteProfiles, prev.SiteProfiles, next.SiteProfiles},
	}

	changed := make(map[string][]byte)
	var keys []string
	for _, d := range docs {
		a, err := json.Marshal(d.prev)
		if err != nil {
			return nil, fmt.Errorf("store: encode %s: %w", d.key, err)
		}
		b, err := json.Marshal(d.next)
		if err != nil {
			return nil, fmt.Errorf("store: encode %s: %w", d.key, err)
		}
		if !bytes.Equal(a, b) {
			changed[d.key] = b
			keys = append(keys, d.key)
		}
	}
	if len(changed) == 0 {
		return nil, nil
	}

	if b, ok := p.kv.(Batcher); ok {
		if err := b.SetMany(ctx, changed); err != nil {
			p.logger.Error("store: save state", "keys", keys, "error", err)
			return nil, err
		}
		return keys, nil
	}
	for _, k := range keys {
		if err := p.kv.Set(ctx, k, changed[k]); err != nil {
			p.logger.Error("store: save state", "key", k, "error", err)
			return nil, err
		}
	}
	return keys, nil
}
