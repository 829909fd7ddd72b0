package contentscan

import (
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Excerpt renders n as Markdown, reader-mode style, cut to at most max
// characters. The node is serialised first, so the converter never touches
// the live tree. Conversion failures fall back to the trimmed textContent.
func Excerpt(n *html.Node, pageURL string, max int) string {
	if n == nil || max <= 0 {
		return ""
	}
	fallback := strings.TrimSpace(TextContent(n))

	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return truncate(fallback, max)
	}
	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	md, err := mdConverter.ConvertString(b.String(), opts...)
	if err != nil || strings.TrimSpace(md) == "" {
		return truncate(fallback, max)
	}
	return truncate(strings.TrimSpace(md), max)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max])) + "…"
}
