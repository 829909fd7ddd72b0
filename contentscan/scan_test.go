package contentscan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<!DOCTYPE html><html><head><title>t</title></head><body>" + body + "</body></html>"))
	require.NoError(t, err)
	return doc
}

func tags(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data
	}
	return out
}

func byID(t *testing.T, doc *html.Node, id string) *html.Node {
	t.Helper()
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n; c != nil && found == nil; c = c.NextSibling {
			if v, ok := attr(c, "id"); ok && v == id {
				found = c
				return
			}
			if c.FirstChild != nil {
				walk(c.FirstChild)
			}
		}
	}
	walk(doc)
	require.NotNil(t, found, "no element with id %q", id)
	return found
}

func TestFindTextElements_SelectorOrder(t *testing.T) {
	doc := parseDoc(t, `<article><h1>T</h1><p>one</p></article><ul><li>x</li></ul>`)
	assert.Equal(t, []string{"p", "article", "h1", "li"}, tags(FindTextElements(doc)))
}

func TestFindTextElements_DuplicatesPerSelector(t *testing.T) {
	doc := parseDoc(t, `<div><p id="p">hi</p></div>`)
	got := FindTextElements(doc)
	require.Len(t, got, 2)
	assert.Same(t, got[0], got[1])
}

func TestFindTextElements_ExclusionIsByIdentity(t *testing.T) {
	doc := parseDoc(t, `<nav><p>in nav</p></nav><span class="code">c</span><header><h1>H</h1></header><p>keep</p><button>b</button>`)
	got := FindTextElements(doc)
	assert.Equal(t, []string{"p", "p", "h1"}, tags(got))
	for _, n := range got {
		assert.NotEqual(t, "span", n.Data)
	}
}

func TestFindTextElements_Nil(t *testing.T) {
	assert.Nil(t, FindTextElements(nil))
}

func TestIsMainContentElement_TextThreshold(t *testing.T) {
	probe := NewStaticProbe()

	doc := parseDoc(t, `<div id="short">`+strings.Repeat("a", 99)+`</div><div id="exact">`+strings.Repeat("a", 100)+`</div><div id="padded">   `+strings.Repeat("a", 100)+`   </div>`)
	assert.False(t, IsMainContentElement(byID(t, doc, "short"), probe))
	assert.True(t, IsMainContentElement(byID(t, doc, "exact"), probe))
	assert.True(t, IsMainContentElement(byID(t, doc, "padded"), probe))
}

func TestIsMainContentElement_Layout(t *testing.T) {
	text := strings.Repeat("word ", 40)
	probe := NewStaticProbe()

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"plain", `<div id="x">` + text + `</div>`, true},
		{"display none", `<div id="x" style="display:none">` + text + `</div>`, false},
		{"display none important", `<div id="x" style="DISPLAY: NONE !important">` + text + `</div>`, false},
		{"hidden attribute", `<div id="x" hidden>` + text + `</div>`, false},
		{"inherited visibility", `<section style="visibility: hidden"><div id="x">` + text + `</div></section>`, false},
		{"visibility restored", `<section style="visibility: hidden"><div id="x" style="visibility: visible">` + text + `</div></section>`, true},
		{"ancestor display none", `<section style="display:none"><div id="x">` + text + `</div></section>`, false},
		{"narrow", `<div id="x" style="width: 150px">` + text + `</div>`, false},
		{"short", `<div id="x" data-rs-height="50">` + text + `</div>`, false},
		{"zero width", `<div id="x" style="width:0px">` + text + `</div>`, false},
		{"minimum size", `<div id="x" style="width:200px;height:100px">` + text + `</div>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, tt.body)
			assert.Equal(t, tt.want, IsMainContentElement(byID(t, doc, "x"), probe))
		})
	}
}

func TestIsMainContentElement_NilInputs(t *testing.T) {
	doc := parseDoc(t, `<div id="x">`+strings.Repeat("a", 200)+`</div>`)
	assert.False(t, IsMainContentElement(nil, NewStaticProbe()))
	assert.False(t, IsMainContentElement(byID(t, doc, "x"), nil))
}

func TestMetricsProbe(t *testing.T) {
	doc := parseDoc(t, `<div id="a">`+strings.Repeat("a", 120)+`</div><div id="b">`+strings.Repeat("b", 120)+`</div><div id="c">`+strings.Repeat("c", 120)+`</div>`)
	a, b, c := byID(t, doc, "a"), byID(t, doc, "b"), byID(t, doc, "c")
	probe := MetricsProbe{
		a: {Display: "block", Visibility: "visible", Width: 640, Height: 300},
		b: {Display: "block", Visibility: "hidden", Width: 640, Height: 300},
	}
	assert.True(t, IsMainContentElement(a, probe))
	assert.False(t, IsMainContentElement(b, probe))
	assert.False(t, IsMainContentElement(c, probe), "unmeasured elements are not rendered")
	assert.Equal(t, Box{}, probe.BoundingBox(c))
}

func TestFindMainContentElement_SelectorBeatsLongerText(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"longer paragraph", `<main id="main">` + strings.Repeat("m", 150) + `</main><p id="long">` + strings.Repeat("p", 500) + `</p>`},
		{"longer article", `<main id="main">` + strings.Repeat("m", 150) + `</main><article id="long">` + strings.Repeat("a", 500) + `</article>`},
		{"longer article first", `<article id="long">` + strings.Repeat("a", 500) + `</article><main id="main">` + strings.Repeat("m", 150) + `</main>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, tt.body)
			assert.Same(t, byID(t, doc, "main"), FindMainContentElement(doc, NewStaticProbe()))
		})
	}
}

func TestFindMainContentElement_SkipsFailingSelector(t *testing.T) {
	doc := parseDoc(t, `<main>short</main><article id="art">`+strings.Repeat("a", 300)+`</article>`)
	assert.Same(t, byID(t, doc, "art"), FindMainContentElement(doc, NewStaticProbe()))
}

func TestFindMainContentElement_FallbackLongest(t *testing.T) {
	doc := parseDoc(t, `<div><p id="one">`+strings.Repeat("a", 150)+`</p><p id="two">`+strings.Repeat("b", 250)+`</p></div>`)
	assert.Same(t, byID(t, doc, "two"), FindMainContentElement(doc, NewStaticProbe()))
}

func TestFindMainContentElement_FallbackTieKeepsFirst(t *testing.T) {
	doc := parseDoc(t, `<div><p id="one">`+strings.Repeat("a", 150)+`</p><p id="two">`+strings.Repeat("b", 150)+`</p></div>`)
	assert.Same(t, byID(t, doc, "one"), FindMainContentElement(doc, NewStaticProbe()))
}

func TestFindMainContentElement_None(t *testing.T) {
	doc := parseDoc(t, ``)
	assert.Nil(t, FindMainContentElement(doc, NewStaticProbe()))
	assert.Nil(t, FindMainContentElement(nil, NewStaticProbe()))

	doc = parseDoc(t, `<p>tiny</p><main>also tiny</main>`)
	assert.Nil(t, FindMainContentElement(doc, NewStaticProbe()))
}

func TestTextLengths(t *testing.T) {
	doc := parseDoc(t, `<p id="x">  héllo <b>wörld</b>  </p>`)
	n := byID(t, doc, "x")
	assert.Equal(t, "  héllo wörld  ", TextContent(n))
	assert.Equal(t, 11, TrimmedTextLength(n))
	assert.Equal(t, 15, RawTextLength(n))
}
