package contentscan

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// TextContent returns the DOM textContent of n: every descendant text node
// concatenated in document order, script and style bodies included.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode, html.DocumentNode:
				walk(c.FirstChild)
			}
		}
	}
	walk(n.FirstChild)
	return b.String()
}

// TrimmedTextLength is the character count of TextContent after trimming
// leading and trailing whitespace.
func TrimmedTextLength(n *html.Node) int {
	return utf8.RuneCountInString(strings.TrimSpace(TextContent(n)))
}

// RawTextLength is the character count of the untrimmed TextContent.
func RawTextLength(n *html.Node) int {
	return utf8.RuneCountInString(TextContent(n))
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
