package view

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/yididiel7/fresh/event"
)

// cell is one rendered grapheme cluster before wrapping.
type cell struct {
	text    string
	srcByte int // InjectedByte for virtual content
	width   int
}

// Params bundles the pipeline inputs that are not buffer state.
type Params struct {
	Width       int
	WrapEnabled bool
	TabSize     int
	Theme       Theme
	Overlays    *OverlaySet
}

// Render produces the ViewLine vector for the source lines starting at
// startByte (a line start) until either maxRows rows are emitted or the
// buffer ends. It is a pure function of its inputs.
func Render(state *event.BufferState, p Params, startByte, maxRows int) []ViewLine {
	if p.TabSize <= 0 {
		p.TabSize = state.Buf.TabSize()
	}
	if p.Width <= 0 {
		return nil
	}
	overlays := p.Overlays
	if overlays == nil {
		overlays = NewOverlaySet()
	}

	var out []ViewLine
	it := state.Buf.Lines(startByte)
	for len(out) < maxRows {
		lineStart, content, ok := it.Forward()
		if !ok {
			break
		}
		out = append(out, renderLine(state, p, overlays, lineStart, content)...)
	}
	if len(out) > maxRows {
		out = out[:maxRows]
	}
	return out
}

// renderLine expands one source line into one or more ViewLines.
func renderLine(state *event.BufferState, p Params, overlays *OverlaySet, lineStart int, content []byte) []ViewLine {
	text := content
	hasNewline := len(text) > 0 && text[len(text)-1] == '\n'
	if hasNewline {
		text = text[:len(text)-1]
	}
	lineEnd := lineStart + len(text)
	nextStart := lineEnd
	if hasNewline {
		nextStart++
	}

	cells := expandCells(text, lineStart, p.TabSize)
	cells = injectInline(cells, overlays.VirtualIn(lineStart, nextStart), p.Theme)

	var out []ViewLine
	for _, vt := range overlays.VirtualIn(lineStart, nextStart) {
		if vt.Placement == PlacementPreLine {
			out = append(out, virtualRow(vt, lineStart, lineEnd))
		}
	}

	segments := [][]cell{cells}
	if p.WrapEnabled {
		segments = wrapCells(cells, p.Width)
	}
	for i, seg := range segments {
		vl := buildViewLine(seg, lineStart, lineEnd, i > 0)
		vl.StyleSpans = styleSpans(&vl, overlays, state, p.Theme)
		out = append(out, vl)
	}

	for _, vt := range overlays.VirtualIn(lineStart, nextStart) {
		if vt.Placement == PlacementPostLine {
			out = append(out, virtualRow(vt, lineStart, lineEnd))
		}
	}
	return out
}

// expandCells splits a source line into grapheme-cluster cells, expanding
// tabs against the running visual column. Tab padding keeps the tab's source
// byte so clicks on the padding land on the tab.
func expandCells(text []byte, lineStart, tabSize int) []cell {
	var cells []cell
	col := 0
	off := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster []byte
		cluster, rest, _, state = uniseg.Step(rest, state)
		src := lineStart + off
		off += len(cluster)
		if len(cluster) == 1 && cluster[0] == '\t' {
			pad := tabSize - col%tabSize
			cells = append(cells, cell{text: strings.Repeat(" ", pad), srcByte: src, width: pad})
			col += pad
			continue
		}
		w := runewidth.StringWidth(string(cluster))
		if w < 1 {
			// zero-width cluster: keep it attached with a minimal cell so the
			// bytes stay addressable
			w = 1
		}
		cells = append(cells, cell{text: string(cluster), srcByte: src, width: w})
		col += w
	}
	return cells
}

// injectInline splices inline virtual text cells at their anchor positions.
func injectInline(cells []cell, virtual []VirtualText, theme Theme) []cell {
	for _, vt := range virtual {
		if vt.Placement != PlacementInline {
			continue
		}
		at := len(cells)
		for i, c := range cells {
			if c.srcByte != InjectedByte && c.srcByte >= vt.Position {
				at = i
				break
			}
		}
		injected := make([]cell, 0, 4)
		state := -1
		rest := vt.Text
		for len(rest) > 0 {
			var cluster string
			cluster, rest, _, state = uniseg.StepString(rest, state)
			w := runewidth.StringWidth(cluster)
			if w < 1 {
				w = 1
			}
			injected = append(injected, cell{text: cluster, srcByte: InjectedByte, width: w})
		}
		next := make([]cell, 0, len(cells)+len(injected))
		next = append(next, cells[:at]...)
		next = append(next, injected...)
		next = append(next, cells[at:]...)
		cells = next
	}
	return cells
}

// wrapCells breaks cells into width-fitting segments at grapheme boundaries,
// preferring the last whitespace cell when one exists in the segment.
func wrapCells(cells []cell, width int) [][]cell {
	if len(cells) == 0 {
		return [][]cell{nil}
	}
	var segments [][]cell
	start := 0
	for start < len(cells) {
		col := 0
		end := start
		lastSpace := -1
		for end < len(cells) {
			c := cells[end]
			if col+c.width > width && end > start {
				break
			}
			if c.text == " " || strings.TrimSpace(c.text) == "" {
				lastSpace = end
			}
			col += c.width
			end++
		}
		if end < len(cells) && lastSpace >= start && lastSpace+1 > start {
			// break after the last whitespace that fits
			end = lastSpace + 1
		}
		if end == start {
			// a single cell wider than the viewport still gets a row
			end = start + 1
		}
		segments = append(segments, cells[start:end])
		start = end
	}
	return segments
}

func buildViewLine(cells []cell, lineStart, lineEnd int, continuation bool) ViewLine {
	var text strings.Builder
	srcBytes := make([]int, 0, len(cells))
	var visual []int
	for i, c := range cells {
		text.WriteString(c.text)
		srcBytes = append(srcBytes, c.srcByte)
		for w := 0; w < c.width; w++ {
			visual = append(visual, i)
		}
	}
	sourceStart := lineStart
	for _, c := range cells {
		if c.srcByte != InjectedByte {
			sourceStart = c.srcByte
			break
		}
	}
	return ViewLine{
		Text:            text.String(),
		CharSourceBytes: srcBytes,
		VisualToChar:    visual,
		SourceStart:     sourceStart,
		LineEndByte:     lineEnd,
		Continuation:    continuation,
	}
}

func virtualRow(vt VirtualText, lineStart, lineEnd int) ViewLine {
	srcBytes := make([]int, 0, len(vt.Text))
	var visual []int
	state := -1
	rest := vt.Text
	i := 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		w := runewidth.StringWidth(cluster)
		if w < 1 {
			w = 1
		}
		srcBytes = append(srcBytes, InjectedByte)
		for j := 0; j < w; j++ {
			visual = append(visual, i)
		}
		i++
	}
	return ViewLine{
		Text:            vt.Text,
		CharSourceBytes: srcBytes,
		VisualToChar:    visual,
		SourceStart:     lineStart,
		LineEndByte:     lineEnd,
		Virtual:         true,
		StyleSpans:      []StyleSpan{{Start: 0, End: len(srcBytes), Style: vt.Style}},
	}
}

// styleSpans maps selection ranges and overlay byte ranges onto char indexes
// of one ViewLine.
func styleSpans(vl *ViewLine, overlays *OverlaySet, state *event.BufferState, theme Theme) []StyleSpan {
	var spans []StyleSpan
	addRange := func(start, end int, style Style) {
		first, last := -1, -1
		for i, b := range vl.CharSourceBytes {
			if b == InjectedByte {
				continue
			}
			if b >= start && b < end {
				if first == -1 {
					first = i
				}
				last = i
			}
		}
		if first != -1 {
			spans = append(spans, StyleSpan{Start: first, End: last + 1, Style: style})
		}
	}
	for _, o := range overlays.OverlaysIn(vl.SourceStart, vl.LineEndByte+1) {
		addRange(o.Start, o.End, o.Style)
	}
	for _, c := range state.Cursors.Cursors() {
		if c.HasSelection() {
			start, end := c.SelectionRange()
			addRange(start, end, theme.Selection)
		}
	}
	return spans
}

//----------------------------------------------------------------------------
// gutter
//----------------------------------------------------------------------------

// GutterWidth is 1 indicator column, the line-number field (at least 4
// digits) and the " │ " separator.
func GutterWidth(lineCount int) int {
	digits := 0
	for n := lineCount; n > 0; n /= 10 {
		digits++
	}
	if digits < 4 {
		digits = 4
	}
	return 1 + digits + 3
}

// GutterText renders the gutter slot for a ViewLine. Continuation and
// virtual rows show an empty number field.
func GutterText(vl *ViewLine, lineNum, lineCount int, relative bool, current int) string {
	width := GutterWidth(lineCount)
	numWidth := width - 4
	if vl.Continuation || vl.Virtual {
		return " " + strings.Repeat(" ", numWidth) + " │ "
	}
	n := lineNum + 1
	if relative && lineNum != current {
		n = lineNum - current
		if n < 0 {
			n = -n
		}
	}
	num := rightAlign(n, numWidth)
	return " " + num + " │ "
}

func rightAlign(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
