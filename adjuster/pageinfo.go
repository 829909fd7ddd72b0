package adjuster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/readstyle/contentscan"
	"github.com/hazyhaar/readstyle/message"
	"github.com/hazyhaar/readstyle/prefs"
	"github.com/hazyhaar/readstyle/resolve"
	"github.com/hazyhaar/readstyle/style"
)

// ErrNoSource is returned when a page is requested without HTML and no
// renderer is configured.
var ErrNoSource = errors.New("adjuster: no html given and rendering is disabled")

// Analysis sources.
const (
	SourceStatic   = "static"
	SourceRendered = "rendered"
)

// PageInfo reports the structure of a page. Supplied rawHTML is analysed
// statically; with no HTML the page is rendered, when a renderer is set.
func (a *Adjuster) PageInfo(ctx context.Context, url, rawHTML string) (*message.PageInfo, error) {
	var (
		doc    *html.Node
		probe  contentscan.Probe
		title  string
		source string
	)
	start := time.Now()
	switch {
	case rawHTML != "":
		parsed, err := html.Parse(strings.NewReader(rawHTML))
		if err != nil {
			return nil, fmt.Errorf("adjuster: page info: %w", err)
		}
		doc, probe, title, source = parsed, contentscan.NewStaticProbe(), documentTitle(parsed), SourceStatic
	case a.renderer != nil && url != "":
		page, err := a.renderer.Render(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("adjuster: page info: %w", err)
		}
		doc, probe, title, source = page.Doc, page.Probe, page.Title, SourceRendered
		if page.URL != "" {
			url = page.URL
		}
	default:
		return nil, ErrNoSource
	}

	analysis := contentscan.Analyze(doc, probe, contentscan.Options{
		PageURL:         url,
		ExcerptMaxChars: a.config.Analysis.ExcerptMaxChars,
	})
	a.metrics.ObserveAnalysis(source, time.Since(start))
	a.logger.Debug("adjuster: analysed page",
		"url", url, "source", source,
		"text_elements", analysis.TextElementCount,
		"main", analysis.HasMainContent,
		"duration", analysis.Duration)

	return &message.PageInfo{
		URL:         url,
		Domain:      resolve.ExtractDomain(url),
		Title:       title,
		DOMAnalysis: analysis,
	}, nil
}

func documentTitle(doc *html.Node) string {
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := find(c); t != nil {
				return t
			}
		}
		return nil
	}
	if t := find(doc); t != nil {
		return strings.TrimSpace(contentscan.TextContent(t))
	}
	return ""
}

// restyle parses rawHTML, applies s (nil removes the styles) and renders
// the document back.
func restyle(rawHTML string, s *prefs.Settings) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("adjuster: restyle: %w", err)
	}
	if s == nil {
		style.Remove(doc)
	} else if err := style.Apply(doc, s); err != nil {
		return "", fmt.Errorf("adjuster: restyle: %w", err)
	}
	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return "", fmt.Errorf("adjuster: restyle: %w", err)
	}
	return b.String(), nil
}

// Preview renders the main content of rawHTML as a standalone page styled
// with the settings resolved for url.
func (a *Adjuster) Preview(ctx context.Context, url, rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("adjuster: preview: %w", err)
	}
	main := contentscan.FindMainContentElement(doc, contentscan.NewStaticProbe())
	return style.Preview(doc, a.SettingsForURL(ctx, url), main)
}
