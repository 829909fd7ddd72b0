package contentscan

import (
	"strings"

	"github.com/andybalholm/cascadia"
)

// TextContentSelectors match elements that usually hold readable text.
// Order matters: FindTextElements emits matches selector by selector.
var TextContentSelectors = []string{
	"p", "article", "section", "div > p", "main", ".content", ".article",
	"h1", "h2", "h3", "h4", "h5", "h6", "li", "span", "blockquote",
}

// ExcludeSelectors match UI chrome and code that must never be restyled.
var ExcludeSelectors = []string{
	"button", "input", "select", "textarea", "code", "pre",
	".code", ".pre", "nav", "header", "footer", ".navigation",
}

// MainContentSelectors are tried in order before the length-based fallback.
var MainContentSelectors = []string{
	"main",
	"article",
	".content",
	".article",
	"#content",
	"#main",
	".main",
	".post",
	".post-content",
	".entry-content",
}

var (
	textMatchers = mustParseAll(TextContentSelectors)
	mainMatchers = mustParseAll(MainContentSelectors)
	excludeGroup = mustParseGroup(strings.Join(ExcludeSelectors, ", "))
)

func mustParseAll(sels []string) []cascadia.Sel {
	out := make([]cascadia.Sel, len(sels))
	for i, s := range sels {
		sel, err := cascadia.Parse(s)
		if err != nil {
			panic("contentscan: bad selector " + s + ": " + err.Error())
		}
		out[i] = sel
	}
	return out
}

func mustParseGroup(s string) cascadia.SelectorGroup {
	g, err := cascadia.ParseGroup(s)
	if err != nil {
		panic("contentscan: bad selector group " + s + ": " + err.Error())
	}
	return g
}
