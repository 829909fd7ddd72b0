// Package contentscan locates readable text on an HTML page.
//
// FindTextElements lists the elements a reading stylesheet targets.
// FindMainContentElement picks the single region most likely to be the
// article body: a fixed list of landmark selectors first, then the largest
// qualifying text element. Layout questions (visibility, size) go through a
// Probe so the decision logic runs the same against a real browser or a
// synthetic fixture.
//
// Nothing in this package mutates the document.
package contentscan

import (
	"golang.org/x/net/html"

	"github.com/andybalholm/cascadia"
)

// Main content thresholds. Absolute, in characters and CSS pixels.
const (
	MinMainTextLength = 100
	MinMainWidth      = 200
	MinMainHeight     = 100
)

// FindTextElements returns, selector by selector in TextContentSelectors
// order, every element under doc that matches, minus elements matched by
// any ExcludeSelectors entry. An element matching several allow-list
// selectors appears once per selector.
func FindTextElements(doc *html.Node) []*html.Node {
	if doc == nil {
		return nil
	}
	var all []*html.Node
	for _, sel := range textMatchers {
		all = append(all, cascadia.QueryAll(doc, sel)...)
	}

	excluded := make(map[*html.Node]struct{})
	for _, n := range cascadia.QueryAll(doc, excludeGroup) {
		excluded[n] = struct{}{}
	}

	out := make([]*html.Node, 0, len(all))
	for _, n := range all {
		if _, skip := excluded[n]; !skip {
			out = append(out, n)
		}
	}
	return out
}

// IsMainContentElement reports whether n is large, visible and wordy enough
// to be the main content. The checks run in order and stop at the first
// failure: trimmed text length, visibility, non-empty box, minimum size.
func IsMainContentElement(n *html.Node, probe Probe) bool {
	if n == nil || probe == nil {
		return false
	}
	if probe.TextLength(n) < MinMainTextLength {
		return false
	}
	if !probe.IsVisible(n) {
		return false
	}
	box := probe.BoundingBox(n)
	if box.Width == 0 || box.Height == 0 {
		return false
	}
	if box.Width < MinMainWidth || box.Height < MinMainHeight {
		return false
	}
	return true
}

// FindMainContentElement returns the first MainContentSelectors match that
// qualifies (only the first element per selector is considered). Failing
// that, it returns the qualifying text element with the longest raw
// textContent, keeping the earliest on ties. It returns nil when nothing
// qualifies.
func FindMainContentElement(doc *html.Node, probe Probe) *html.Node {
	if doc == nil {
		return nil
	}
	for _, sel := range mainMatchers {
		if n := cascadia.Query(doc, sel); n != nil && IsMainContentElement(n, probe) {
			return n
		}
	}

	var best *html.Node
	bestLen := -1
	for _, n := range FindTextElements(doc) {
		if !IsMainContentElement(n, probe) {
			continue
		}
		if l := RawTextLength(n); l > bestLen {
			best, bestLen = n, l
		}
	}
	return best
}
