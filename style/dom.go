package style

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/readstyle/contentscan"
	"github.com/hazyhaar/readstyle/prefs"
)

// ErrNoDocument is returned when a tree has no <html> element to attach to.
var ErrNoDocument = errors.New("style: document has no html element")

// Apply writes the stylesheet for s into the readstyle <style> element of
// doc, creating it at the end of <head> when missing. Disabled settings
// leave an empty element behind, same as Remove.
func Apply(doc *html.Node, s *prefs.Settings) error {
	el, err := styleElement(doc, true)
	if err != nil {
		return err
	}
	setText(el, GenerateCSS(s))
	return nil
}

// Remove blanks the readstyle <style> element. The element itself stays so
// a later Apply reuses it. A document without one is left untouched.
func Remove(doc *html.Node) {
	if el, _ := styleElement(doc, false); el != nil {
		setText(el, "")
	}
}

func styleElement(doc *html.Node, create bool) (*html.Node, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	if el := findElement(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Style && hasID(n, StyleElementID)
	}); el != nil {
		return el, nil
	}
	if !create {
		return nil, nil
	}

	head := findElement(doc, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	if head == nil {
		root := findElement(doc, func(n *html.Node) bool { return n.DataAtom == atom.Html })
		if root == nil {
			return nil, ErrNoDocument
		}
		head = &html.Node{Type: html.ElementNode, DataAtom: atom.Head, Data: "head"}
		root.InsertBefore(head, root.FirstChild)
	}
	el := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Style,
		Data:     "style",
		Attr:     []html.Attribute{{Key: "id", Val: StyleElementID}},
	}
	head.AppendChild(el)
	return el, nil
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasID(n *html.Node, id string) bool {
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val == id {
			return true
		}
	}
	return false
}

var previewTmpl = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style id="{{.StyleID}}">{{.CSS}}</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Preview renders main as a standalone page styled with s. The content goes
// through bluemonday's UGC policy, so scripts, handlers and inline styles
// from the source page are dropped. The title is taken from doc.
func Preview(doc *html.Node, s *prefs.Settings, main *html.Node) (string, error) {
	if main == nil {
		return "", fmt.Errorf("style: preview: no content element")
	}
	var raw strings.Builder
	if err := html.Render(&raw, main); err != nil {
		return "", fmt.Errorf("style: preview: render: %w", err)
	}
	body := bluemonday.UGCPolicy().Sanitize(raw.String())

	title := ""
	if doc != nil {
		if t := findElement(doc, func(n *html.Node) bool { return n.DataAtom == atom.Title }); t != nil {
			title = strings.TrimSpace(contentscan.TextContent(t))
		}
	}

	var out strings.Builder
	err := previewTmpl.Execute(&out, map[string]any{
		"Title":   title,
		"StyleID": StyleElementID,
		"CSS":     template.CSS(GenerateCSS(s)),
		"Body":    template.HTML(body),
	})
	if err != nil {
		return "", fmt.Errorf("style: preview: %w", err)
	}
	return out.String(), nil
}
