// Package style turns Settings into the reading stylesheet and applies it to
// parsed documents.
package style

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/hazyhaar/readstyle/contentscan"
	"github.com/hazyhaar/readstyle/prefs"
)

// StyleElementID is the id of the single <style> element owned by readstyle.
const StyleElementID = "reading-style-adjuster-styles"

// GenerateCSS renders the stylesheet for s. It returns "" when s is nil or
// disabled. Every declaration is !important so page styles cannot win.
func GenerateCSS(s *prefs.Settings) string {
	if s == nil || !s.Enabled {
		return ""
	}
	family := strings.TrimSpace(s.FontFamily)
	if !ValidFontFamily(family) {
		family = prefs.DefaultSettings.FontFamily
	}
	align := s.TextAlignment
	if !align.Valid() {
		align = prefs.AlignLeft
	}

	var b strings.Builder
	b.WriteString(strings.Join(contentscan.TextContentSelectors, ", "))
	b.WriteString(" {\n")
	fmt.Fprintf(&b, "  font-size: %spx !important;\n", num(s.FontSize))
	fmt.Fprintf(&b, "  font-family: %q, sans-serif !important;\n", family)
	fmt.Fprintf(&b, "  line-height: %s !important;\n", num(s.LineHeight))
	fmt.Fprintf(&b, "  word-spacing: %sem !important;\n", num(s.WordSpacing))
	fmt.Fprintf(&b, "  text-align: %s !important;\n", align)
	b.WriteString("}\n")
	return b.String()
}

// ValidFontFamily reports whether f is safe to drop inside a quoted
// font-family value. Names, numbers, commas and plain punctuation pass;
// quotes, backslashes, braces, semicolons, angle brackets and control
// characters do not.
func ValidFontFamily(f string) bool {
	if strings.TrimSpace(f) == "" || strings.ContainsAny(f, "\"'\\;{}<>") {
		return false
	}
	if strings.IndexFunc(f, unicode.IsControl) >= 0 {
		return false
	}
	l := css.NewLexer(parse.NewInputString(f))
	words := 0
	for {
		tt, _ := l.Next()
		switch tt {
		case css.ErrorToken:
			return words > 0 && errors.Is(l.Err(), io.EOF)
		case css.IdentToken, css.NumberToken, css.DimensionToken, css.PercentageToken, css.HashToken:
			words++
		case css.WhitespaceToken, css.CommaToken, css.DelimToken, css.ColonToken:
		default:
			return false
		}
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
