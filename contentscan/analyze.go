package contentscan

import (
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ElementRef describes an element without holding on to it, so analysis
// results can cross process and message boundaries.
type ElementRef struct {
	// Index is the element's position among all elements in document order.
	Index      int      `json:"index"`
	Tag        string   `json:"tag"`
	ID         string   `json:"id,omitempty"`
	Classes    []string `json:"classes,omitempty"`
	TextLength int      `json:"textLength"`
	Path       string   `json:"path"`
}

// Analysis is the serialisable page structure report.
type Analysis struct {
	TextElements     []ElementRef  `json:"textElements"`
	MainContent      *ElementRef   `json:"mainContentElement"`
	HasMainContent   bool          `json:"hasMainContent"`
	TextElementCount int           `json:"textElementCount"`
	Excerpt          string        `json:"excerpt,omitempty"`
	Duration         time.Duration `json:"-"`
}

// Options tune Analyze.
type Options struct {
	// PageURL resolves relative links in the excerpt.
	PageURL string
	// ExcerptMaxChars caps the Markdown excerpt of the main content.
	// Zero disables the excerpt.
	ExcerptMaxChars int
}

// Analyze runs both scans and describes the results.
func Analyze(doc *html.Node, probe Probe, opts Options) Analysis {
	start := time.Now()
	index := ElementIndex(doc)

	elems := FindTextElements(doc)
	a := Analysis{
		TextElements:     make([]ElementRef, 0, len(elems)),
		TextElementCount: len(elems),
	}
	for _, n := range elems {
		a.TextElements = append(a.TextElements, Describe(n, index))
	}

	if main := FindMainContentElement(doc, probe); main != nil {
		ref := Describe(main, index)
		a.MainContent = &ref
		a.HasMainContent = true
		if opts.ExcerptMaxChars > 0 {
			a.Excerpt = Excerpt(main, opts.PageURL, opts.ExcerptMaxChars)
		}
	}
	a.Duration = time.Since(start)
	return a
}

// ElementIndex numbers every element under doc in document order.
func ElementIndex(doc *html.Node) map[*html.Node]int {
	index := make(map[*html.Node]int)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				index[c] = len(index)
			}
			if c.FirstChild != nil {
				walk(c.FirstChild)
			}
		}
	}
	if doc != nil {
		walk(doc)
	}
	return index
}

// Describe builds the ElementRef for n. Index is -1 when n is missing from
// index.
func Describe(n *html.Node, index map[*html.Node]int) ElementRef {
	ref := ElementRef{
		Index:      -1,
		Tag:        n.Data,
		TextLength: RawTextLength(n),
		Path:       path(n),
	}
	if i, ok := index[n]; ok {
		ref.Index = i
	}
	if id, ok := attr(n, "id"); ok {
		ref.ID = id
	}
	if class, ok := attr(n, "class"); ok {
		ref.Classes = strings.Fields(class)
	}
	return ref
}

// path renders the ancestor chain as "html > body > main > p".
func path(n *html.Node) string {
	var parts []string
	for c := n; c != nil && c.Type == html.ElementNode; c = c.Parent {
		parts = append(parts, c.Data)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
