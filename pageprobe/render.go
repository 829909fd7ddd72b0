package pageprobe

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/readstyle/netguard"
)

// Renderer loads a URL and returns the measured page.
type Renderer interface {
	Render(ctx context.Context, url string) (*Page, error)
}

// Render opens url in a new tab, waits for load, measures every element and
// closes the tab.
func (b *Browser) Render(ctx context.Context, url string) (*Page, error) {
	if !b.cfg.AllowPrivate {
		if err := netguard.CheckURL(ctx, b.cfg.Resolver, url); err != nil {
			return nil, fmt.Errorf("pageprobe: %w", err)
		}
	}

	rb, err := b.connection()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if b.cfg.Stealth {
		page, err = stealth.Page(rb)
	} else {
		page, err = rb.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		b.reset(rb)
		return nil, fmt.Errorf("pageprobe: open tab: %w", err)
	}
	defer page.Close()

	if router := blockResources(page, b.cfg.ResourceBlocking); router != nil {
		defer router.Stop()
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()
	p := page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("pageprobe: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		b.cfg.Logger.Warn("pageprobe: wait load", "url", url, "error", err)
	}

	res, err := p.Eval(measureJS)
	if err != nil {
		return nil, fmt.Errorf("pageprobe: measure %s: %w", url, err)
	}
	var snap snapshot
	if err := res.Value.Unmarshal(&snap); err != nil {
		return nil, fmt.Errorf("pageprobe: decode measurements: %w", err)
	}
	pg, err := snap.build()
	if err != nil {
		return nil, err
	}
	b.cfg.Logger.Debug("pageprobe: rendered", "url", url, "elements", len(snap.Metrics))
	return pg, nil
}
