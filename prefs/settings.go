// Package prefs holds the reading-style preference model: text settings,
// named profiles, site exceptions and the site-to-profile map, plus the pure
// state transitions used by editors to change them.
//
// Values in this package are plain data. Every editor function takes a State
// and returns a new one; the input is never mutated, so callers can keep the
// previous snapshot for diffing or rollback.
package prefs

import (
	"errors"
	"fmt"
	"strings"
)

// Alignment is a CSS text-align keyword.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignRight   Alignment = "right"
	AlignCenter  Alignment = "center"
	AlignJustify Alignment = "justify"
)

// Alignments lists the accepted alignments in display order.
var Alignments = []Alignment{AlignLeft, AlignRight, AlignCenter, AlignJustify}

// Valid reports whether a is one of the four supported keywords.
func (a Alignment) Valid() bool {
	switch a {
	case AlignLeft, AlignRight, AlignCenter, AlignJustify:
		return true
	}
	return false
}

// Label returns the capitalised form shown in pickers.
func (a Alignment) Label() string {
	if a == "" {
		return ""
	}
	s := string(a)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Settings is one complete set of text rendering preferences.
// FontSize is in px, WordSpacing in em, LineHeight is unitless.
type Settings struct {
	Enabled       bool      `json:"enabled"`
	FontSize      float64   `json:"fontSize"`
	FontFamily    string    `json:"fontFamily"`
	LineHeight    float64   `json:"lineHeight"`
	WordSpacing   float64   `json:"wordSpacing"`
	TextAlignment Alignment `json:"textAlignment"`
}

// ErrInvalidSettings wraps every Settings.Validate failure.
var ErrInvalidSettings = errors.New("prefs: invalid settings")

// Validate checks the ranges an editor accepts. Resolution never calls it:
// stored values are applied as they are.
func (s Settings) Validate() error {
	switch {
	case s.FontSize <= 0:
		return fmt.Errorf("%w: font size must be positive, got %v", ErrInvalidSettings, s.FontSize)
	case strings.TrimSpace(s.FontFamily) == "":
		return fmt.Errorf("%w: font family is empty", ErrInvalidSettings)
	case s.LineHeight <= 0:
		return fmt.Errorf("%w: line height must be positive, got %v", ErrInvalidSettings, s.LineHeight)
	case s.WordSpacing < 0:
		return fmt.Errorf("%w: word spacing must not be negative, got %v", ErrInvalidSettings, s.WordSpacing)
	case !s.TextAlignment.Valid():
		return fmt.Errorf("%w: unknown text alignment %q", ErrInvalidSettings, s.TextAlignment)
	}
	return nil
}

// Profile is a named Settings value. Names are unique within a State.
type Profile struct {
	Name     string   `json:"name"`
	Settings Settings `json:"settings"`
}
