package pageprobe

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/readstyle/contentscan"
)

// IndexAttr is stamped on every element before measuring, then stripped
// from the parsed copy.
const IndexAttr = "data-rs-idx"

// measureJS stamps and measures every element, then serialises the DOM.
const measureJS = `() => {
	const metrics = [];
	document.querySelectorAll('*').forEach((el, i) => {
		el.setAttribute('` + IndexAttr + `', String(i));
		const cs = getComputedStyle(el);
		const r = el.getBoundingClientRect();
		metrics.push({display: cs.display, visibility: cs.visibility, width: r.width, height: r.height});
	});
	return {
		url: location.href,
		title: document.title,
		html: document.documentElement.outerHTML,
		metrics: metrics,
	};
}`

// snapshot is what measureJS returns.
type snapshot struct {
	URL     string                `json:"url"`
	Title   string                `json:"title"`
	HTML    string                `json:"html"`
	Metrics []contentscan.Metrics `json:"metrics"`
}

// Page is a rendered, measured page. Doc is a parsed copy of the live DOM;
// Probe answers layout questions for its elements.
type Page struct {
	URL   string
	Title string
	Doc   *html.Node
	Probe contentscan.MetricsProbe
}

// build parses the serialised DOM and attaches each element's metrics by
// its stamped index. Elements the parser synthesised carry no index and so
// count as not rendered.
func (s snapshot) build() (*Page, error) {
	doc, err := html.Parse(strings.NewReader(s.HTML))
	if err != nil {
		return nil, fmt.Errorf("pageprobe: parse dom: %w", err)
	}
	probe := make(contentscan.MetricsProbe)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for i, a := range n.Attr {
				if a.Key != IndexAttr {
					continue
				}
				if idx, err := strconv.Atoi(a.Val); err == nil && idx >= 0 && idx < len(s.Metrics) {
					probe[n] = s.Metrics[idx]
				}
				n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return &Page{URL: s.URL, Title: s.Title, Doc: doc, Probe: probe}, nil
}
