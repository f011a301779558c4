package editor

import (
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
	"github.com/nsf/tulib"
	"github.com/rivo/uniseg"

	"github.com/yididiel7/fresh/input"
	"github.com/yididiel7/fresh/view"
)

// Resize re-reads the terminal size and lays the split tree out again,
// reserving the last row for the status bar.
func (e *Editor) Resize() {
	e.uiBuf = tulib.TermboxBuffer()
	area := e.uiBuf.Rect
	area.Height--
	e.splits.resize(area)
}

// Draw renders every split and the status bar into the terminal-backed cell
// buffer and refreshes the mouse hit-testing layout as it goes.
func (e *Editor) Draw() {
	if e.uiBuf.Width == 0 {
		e.Resize()
	}
	e.layout = input.CachedLayout{}

	e.splits.traverse(func(t *splitTree) {
		e.drawSplit(t)
	})
	e.drawDividers(e.splits)
	e.drawStatus()

	e.layout.StatusBar = input.Rect{X: 0, Y: e.uiBuf.Rect.Height - 1, W: e.uiBuf.Rect.Width, H: 1}

	if x, y, ok := e.cursorScreenPosition(); ok {
		termbox.SetCursor(x, y)
	} else {
		termbox.HideCursor()
	}
}

func (e *Editor) drawSplit(t *splitTree) {
	split := t.leaf
	be := e.buffers[split.BufferID]
	vp := split.Viewport
	st := be.state

	rect := t.Rect
	if rect.Width <= 0 || rect.Height <= 0 {
		return
	}

	gutterWidth := 0
	lineCount, _ := st.Buf.LineCount()
	if *e.cfg.LineNumbers {
		gutterWidth = view.GutterWidth(lineCount)
	}
	scrollbar := 0
	if rect.Width > gutterWidth+2 {
		scrollbar = 1
	}
	textWidth := rect.Width - gutterWidth - scrollbar
	if textWidth <= 0 {
		return
	}

	if vp.NeedsSync() && split.Focused {
		vp.EnsureVisible(st.Buf, st.Cursors.Primary())
		vp.ClearNeedsSync()
	}
	vp.Width = textWidth
	vp.Height = rect.Height

	params := view.Params{
		Width:       textWidth,
		WrapEnabled: vp.LineWrapEnabled,
		TabSize:     st.Buf.TabSize(),
		Theme:       e.theme,
		Overlays:    be.overlays,
	}
	maxRows := rect.Height + vp.TopViewLineOffset
	lines := view.Render(st, params, vp.TopByte, maxRows)
	if vp.EnsureVisibleInLayout(st.Buf, st.Cursors.Primary().Position, lines) {
		lines = view.Render(st, params, vp.TopByte, rect.Height+vp.TopViewLineOffset)
	}

	// clear the split area
	e.uiBuf.Fill(rect, termbox.Cell{Ch: ' ', Fg: e.theme.Default.Fg, Bg: e.theme.Default.Bg})

	currentLine, _ := st.Buf.LineNumber(st.Cursors.Primary().Position)
	visible := lines
	if vp.TopViewLineOffset < len(visible) {
		visible = visible[vp.TopViewLineOffset:]
	} else {
		visible = nil
	}
	for row := 0; row < rect.Height && row < len(visible); row++ {
		vl := &visible[row]
		y := rect.Y + row
		x := rect.X
		if gutterWidth > 0 {
			lineNum, _ := st.Buf.LineNumber(vl.SourceStart)
			gtext := view.GutterText(vl, lineNum, lineCount, *e.cfg.RelativeLineNumbers, currentLine)
			x = drawString(&e.uiBuf, x, y, gtext, e.theme.Gutter)
			for x < rect.X+gutterWidth {
				e.uiBuf.Set(x, y, termbox.Cell{Ch: ' ', Fg: e.theme.Gutter.Fg, Bg: e.theme.Gutter.Bg})
				x++
			}
		}
		e.drawViewLine(rect.X+gutterWidth, y, textWidth, vl, vp.LeftColumn)
	}

	sbArea := e.drawScrollbar(t, rect, scrollbar, lineCount)

	e.layout.Splits = append(e.layout.Splits, input.SplitArea{
		SplitID:     int(split.ID),
		BufferID:    int(split.BufferID),
		Area:        input.Rect{X: rect.X + gutterWidth, Y: rect.Y, W: textWidth, H: rect.Height},
		GutterWidth: 0,
		TopRow:      vp.TopViewLineOffset,
		Lines:       lines,
	})
	if sbArea != nil {
		e.layout.Scrollbars = append(e.layout.Scrollbars, *sbArea)
	}
}

// drawViewLine paints one rendered row, honoring style spans and horizontal
// scroll.
func (e *Editor) drawViewLine(x, y, width int, vl *view.ViewLine, leftColumn int) {
	styleOf := func(charIdx int) view.Style {
		style := e.theme.Default
		for _, span := range vl.StyleSpans {
			if charIdx >= span.Start && charIdx < span.End {
				style = span.Style
			}
		}
		return style
	}

	col := 0
	charIdx := 0
	rest := vl.Text
	state := -1
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		w := runewidth.StringWidth(cluster)
		if w < 1 {
			w = 1
		}
		screenCol := col - leftColumn
		if screenCol >= width {
			break
		}
		if screenCol >= 0 {
			style := styleOf(charIdx)
			r := []rune(cluster)[0]
			e.uiBuf.Set(x+screenCol, y, termbox.Cell{Ch: r, Fg: style.Fg, Bg: style.Bg})
			for i := 1; i < w && screenCol+i < width; i++ {
				e.uiBuf.Set(x+screenCol+i, y, termbox.Cell{Ch: ' ', Fg: style.Fg, Bg: style.Bg})
			}
		}
		col += w
		charIdx++
	}
}

// drawScrollbar paints the thumb and returns the hit zone. The thumb has a
// fixed size for large files, where exact line counts are estimates.
func (e *Editor) drawScrollbar(t *splitTree, rect tulib.Rect, scrollbar, lineCount int) *input.ScrollbarArea {
	if scrollbar == 0 {
		return nil
	}
	split := t.leaf
	be := e.buffers[split.BufferID]
	sx := rect.X + rect.Width - 1

	thumbH := rect.Height * rect.Height / maxInt(lineCount, 1)
	if thumbH < 1 || be.state.Buf.IsLarge() {
		thumbH = 1
	}
	if thumbH > rect.Height {
		thumbH = rect.Height
	}
	topLine, _ := be.state.Buf.LineNumber(split.Viewport.TopByte)
	maxTop := rect.Height - thumbH
	thumbY := rect.Y
	if lineCount > 1 {
		thumbY = rect.Y + topLine*maxTop/maxInt(lineCount-1, 1)
	}

	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		ch := '│'
		if y >= thumbY && y < thumbY+thumbH {
			ch = '█'
		}
		e.uiBuf.Set(sx, y, termbox.Cell{Ch: ch, Fg: e.theme.Gutter.Fg, Bg: e.theme.Gutter.Bg})
	}
	return &input.ScrollbarArea{
		SplitID:    int(split.ID),
		Track:      input.Rect{X: sx, Y: rect.Y, W: 1, H: rect.Height},
		ThumbY:     thumbY,
		ThumbH:     thumbH,
		TotalLines: lineCount,
	}
}

// drawDividers paints the vertical split separators.
func (e *Editor) drawDividers(t *splitTree) {
	if t.leaf != nil {
		return
	}
	if t.left != nil {
		e.drawDividers(t.left)
		e.drawDividers(t.right)
		divider := t.right.Rect
		divider.X--
		divider.Width = 1
		e.uiBuf.Fill(divider, termbox.Cell{Ch: '│', Fg: termbox.AttrReverse, Bg: termbox.AttrReverse})
	} else {
		e.drawDividers(t.top)
		e.drawDividers(t.bottom)
	}
}

func (e *Editor) drawStatus() {
	be := e.activeBuffer()
	text := e.status.current
	if text == "" {
		name := be.state.Meta.DisplayName
		if name == "" {
			name = "unnamed"
		}
		mod := ""
		if be.modified() {
			mod = " [+]"
		}
		ro := ""
		if be.state.ReadOnly {
			ro = " [ro]"
		}
		line, exact := be.state.Buf.LineNumber(be.state.Cursors.Primary().Position)
		approx := ""
		if !exact {
			approx = "~"
		}
		text = name + mod + ro + "  " + approx + "L" + strconv.Itoa(line+1)
	}

	lp := tulib.DefaultLabelParams
	r := e.uiBuf.Rect
	r.Y = r.Height - 1
	r.Height = 1
	e.uiBuf.Fill(r, termbox.Cell{Fg: lp.Fg, Bg: lp.Bg, Ch: ' '})
	e.uiBuf.DrawLabel(r, &lp, []byte(text))
}

func (e *Editor) cursorScreenPosition() (int, int, bool) {
	t := e.active
	split := t.leaf
	be := e.buffers[split.BufferID]
	vp := split.Viewport

	for _, sa := range e.layout.Splits {
		if sa.SplitID != int(split.ID) {
			continue
		}
		pos := be.state.Cursors.Primary().Position
		row := view.VisualRowOf(sa.Lines, pos)
		if row < 0 {
			return 0, 0, false
		}
		screenRow := row - sa.TopRow
		if screenRow < 0 || screenRow >= sa.Area.H {
			return 0, 0, false
		}
		vl := &sa.Lines[row]
		col := visualColInRow(vl, pos)
		x := sa.Area.X + col - vp.LeftColumn
		if x < sa.Area.X || x >= sa.Area.X+sa.Area.W {
			return 0, 0, false
		}
		return x, sa.Area.Y + screenRow, true
	}
	return 0, 0, false
}

// visualColInRow finds the visual column of a source byte within one row.
func visualColInRow(vl *view.ViewLine, pos int) int {
	for col, charIdx := range vl.VisualToChar {
		b := vl.CharSourceBytes[charIdx]
		if b != view.InjectedByte && b >= pos {
			return col
		}
	}
	return vl.Width()
}

func drawString(buf *tulib.Buffer, x, y int, s string, style view.Style) int {
	for _, r := range s {
		buf.Set(x, y, termbox.Cell{Ch: r, Fg: style.Fg, Bg: style.Bg})
		x += runewidth.RuneWidth(r)
	}
	return x
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
