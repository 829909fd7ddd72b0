package contentscan

import (
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Box is a rendered bounding box in CSS pixels.
type Box struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Probe answers the layout questions the heuristic needs. Implementations
// wrap a rendering engine (see pageprobe) or approximate one.
type Probe interface {
	// IsVisible reports computed display != none and visibility != hidden.
	IsVisible(n *html.Node) bool
	// BoundingBox returns the rendered size of n.
	BoundingBox(n *html.Node) Box
	// TextLength returns the trimmed textContent length of n in characters.
	TextLength(n *html.Node) int
}

// Metrics are layout facts for one element, as reported by a browser.
type Metrics struct {
	Display    string  `json:"display"`
	Visibility string  `json:"visibility"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// MetricsProbe answers from measured metrics. Elements without an entry are
// treated as not rendered.
type MetricsProbe map[*html.Node]Metrics

func (p MetricsProbe) IsVisible(n *html.Node) bool {
	m, ok := p[n]
	return ok && m.Display != "none" && m.Visibility != "hidden"
}

func (p MetricsProbe) BoundingBox(n *html.Node) Box {
	m := p[n]
	return Box{Width: m.Width, Height: m.Height}
}

func (p MetricsProbe) TextLength(n *html.Node) int { return TrimmedTextLength(n) }

// StaticProbe approximates layout for HTML that was never rendered.
//
// Visibility comes from the hidden attribute and inline display/visibility
// declarations (visibility inherits, display does not). An element is given
// a zero box when it or an ancestor is not rendered, or when it has neither
// text nor a declared size. Declared sizes are read from inline
// width/height in px, then from data-rs-width/data-rs-height; anything else
// gets DefaultWidth x DefaultHeight.
type StaticProbe struct {
	DefaultWidth  float64
	DefaultHeight float64
}

// NewStaticProbe returns a StaticProbe that assumes an 800x400 box for
// rendered text blocks.
func NewStaticProbe() StaticProbe {
	return StaticProbe{DefaultWidth: 800, DefaultHeight: 400}
}

var nonRendered = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Title:    true,
	atom.Meta:     true,
	atom.Link:     true,
}

func (p StaticProbe) IsVisible(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if displayNone(n) {
		return false
	}
	for c := n; c != nil && c.Type == html.ElementNode; c = c.Parent {
		if v, ok := inlineStyle(c)["visibility"]; ok {
			return v != "hidden"
		}
	}
	return true
}

func (p StaticProbe) BoundingBox(n *html.Node) Box {
	if n == nil || n.Type != html.ElementNode {
		return Box{}
	}
	for c := n; c != nil && c.Type == html.ElementNode; c = c.Parent {
		if nonRendered[c.DataAtom] || displayNone(c) {
			return Box{}
		}
	}

	decl := inlineStyle(n)
	w, wok := pixels(decl["width"])
	h, hok := pixels(decl["height"])
	if !wok {
		w, wok = number(n, "data-rs-width")
	}
	if !hok {
		h, hok = number(n, "data-rs-height")
	}
	if !wok && !hok && strings.TrimSpace(TextContent(n)) == "" {
		return Box{}
	}
	if !wok {
		w = p.DefaultWidth
	}
	if !hok {
		h = p.DefaultHeight
	}
	return Box{Width: w, Height: h}
}

func (p StaticProbe) TextLength(n *html.Node) int { return TrimmedTextLength(n) }

func displayNone(n *html.Node) bool {
	if _, ok := attr(n, "hidden"); ok {
		return true
	}
	return inlineStyle(n)["display"] == "none"
}

// inlineStyle parses the style attribute of n into lowercased
// property -> value pairs. Later declarations win.
func inlineStyle(n *html.Node) map[string]string {
	raw, ok := attr(n, "style")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	out := map[string]string{}
	p := css.NewParser(parse.NewInputString(raw), true)
	for i := 0; i <= len(raw); i++ {
		gt, _, data := p.Next()
		if gt == css.ErrorGrammar {
			if p.HasParseError() {
				continue
			}
			return out
		}
		if gt != css.DeclarationGrammar {
			continue
		}
		var val strings.Builder
		for _, tok := range p.Values() {
			val.Write(tok.Data)
		}
		v := strings.ToLower(strings.TrimSpace(val.String()))
		v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
		out[strings.ToLower(string(data))] = v
	}
	return out
}

func pixels(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasSuffix(v, "px") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

func number(n *html.Node, key string) (float64, bool) {
	v, ok := attr(n, key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}
