// Package view turns buffer state into visible rows. The pipeline is a pure
// function of (buffer state, viewport, theme, overlays): identical inputs
// produce identical ViewLine vectors, which is what the test suite and the
// render cache rely on.
package view

import "github.com/nsf/termbox-go"

// Style is a terminal attribute pair.
type Style struct {
	Fg termbox.Attribute
	Bg termbox.Attribute
}

// StyleSpan styles the chars [Start, End) of a ViewLine.
type StyleSpan struct {
	Start int
	End   int
	Style Style
}

// Theme is the minimal style table the pipeline consumes.
type Theme struct {
	Default   Style
	Gutter    Style
	Selection Style
	Virtual   Style
}

func DefaultTheme() Theme {
	return Theme{
		Default:   Style{Fg: termbox.ColorDefault, Bg: termbox.ColorDefault},
		Gutter:    Style{Fg: termbox.ColorBlue, Bg: termbox.ColorDefault},
		Selection: Style{Fg: termbox.ColorDefault, Bg: termbox.ColorBlue},
		Virtual:   Style{Fg: termbox.ColorYellow, Bg: termbox.ColorDefault},
	}
}

// InjectedByte marks a ViewLine char with no source byte: inline and
// pre/post-line virtual text. Tab padding keeps the tab's own source byte.
const InjectedByte = -1

// ViewLine is one visible row. Chars are grapheme clusters of the rendered
// text; CharSourceBytes maps each back to a source byte offset or
// InjectedByte; VisualToChar maps each visual column to the char occupying
// it, which makes mouse-click resolution O(1).
type ViewLine struct {
	Text            string
	CharSourceBytes []int
	VisualToChar    []int
	SourceStart     int
	LineEndByte     int
	// Continuation is set on the second and later rows of a wrapped source
	// line; the gutter shows no line number for these.
	Continuation bool
	// Virtual is set on rows injected by pre-line/post-line virtual text.
	Virtual    bool
	StyleSpans []StyleSpan
}

// Width returns the visual width of the rendered text.
func (vl *ViewLine) Width() int {
	return len(vl.VisualToChar)
}

// CharAtVisual returns the char index at visual column col, or the char
// count when col is past the end of the text.
func (vl *ViewLine) CharAtVisual(col int) int {
	if col < 0 {
		return 0
	}
	if col >= len(vl.VisualToChar) {
		return len(vl.CharSourceBytes)
	}
	return vl.VisualToChar[col]
}

// SourceByteAtVisual resolves a visual column to a source byte. Columns over
// injected content resolve to the next source char after it; columns past
// the end of visible text, or with only injected content after them, snap
// to LineEndByte.
func (vl *ViewLine) SourceByteAtVisual(col int) int {
	idx := vl.CharAtVisual(col)
	for idx < len(vl.CharSourceBytes) {
		if b := vl.CharSourceBytes[idx]; b != InjectedByte {
			return b
		}
		idx++
	}
	return vl.LineEndByte
}
