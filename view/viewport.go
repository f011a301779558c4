package view

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/yididiel7/fresh/buffer"
)

// Viewport owns the scroll state of one split. TopByte is the source anchor
// and always sits at the beginning of a logical line; TopViewLineOffset
// counts wrapped or injected rows of that line already scrolled past.
type Viewport struct {
	TopByte           int
	TopViewLineOffset int
	LeftColumn        int
	Width             int
	Height            int

	ScrollOffset           int
	HorizontalScrollOffset int
	LineWrapEnabled        bool

	// skipResizeSync makes the next Resize leave needsSync unset, so a scroll
	// position set before that resize is kept. skipEnsureVisible is set by
	// scroll-by-line actions so cursor-follow does not immediately undo them.
	skipResizeSync    bool
	skipEnsureVisible bool

	needsSync bool
}

func NewViewport(width, height int) *Viewport {
	return &Viewport{
		Width:                  width,
		Height:                 height,
		ScrollOffset:           3,
		HorizontalScrollOffset: 5,
		LineWrapEnabled:        true,
	}
}

func (vp *Viewport) Resize(width, height int) {
	vp.Width = width
	vp.Height = height
	if !vp.skipResizeSync {
		vp.needsSync = true
	}
	vp.skipResizeSync = false
}

func (vp *Viewport) SetSkipResizeSync() { vp.skipResizeSync = true }

func (vp *Viewport) SetSkipEnsureVisible() { vp.skipEnsureVisible = true }

func (vp *Viewport) ShouldSkipEnsureVisible() bool { return vp.skipEnsureVisible }

func (vp *Viewport) ClearSkipEnsureVisible() { vp.skipEnsureVisible = false }

func (vp *Viewport) MarkNeedsSync() { vp.needsSync = true }

func (vp *Viewport) NeedsSync() bool { return vp.needsSync }

func (vp *Viewport) ClearNeedsSync() { vp.needsSync = false }

// ScrollUp moves the anchor up by whole source lines, keeping TopByte on a
// line start.
func (vp *Viewport) ScrollUp(buf *buffer.Buffer, lines int) {
	it := buf.Lines(vp.TopByte)
	for i := 0; i < lines; i++ {
		start, _, ok := it.Backward()
		if !ok {
			break
		}
		vp.TopByte = start
	}
	vp.TopViewLineOffset = 0
}

// ScrollDown moves the anchor down by whole source lines.
func (vp *Viewport) ScrollDown(buf *buffer.Buffer, lines int) {
	for i := 0; i < lines; i++ {
		next := buf.NextLineStart(vp.TopByte)
		if next >= buf.Len() {
			// keep at least the final line anchored
			last := buf.LineStart(buf.Len())
			if vp.TopByte >= last {
				break
			}
			vp.TopByte = last
			continue
		}
		vp.TopByte = next
	}
	vp.TopViewLineOffset = 0
}

// ScrollTo anchors the viewport at a 0-based line number.
func (vp *Viewport) ScrollTo(buf *buffer.Buffer, line int) {
	vp.TopByte = buf.LineStartOfLine(line)
	vp.TopViewLineOffset = 0
}

// ScrollViewLines scrolls by rendered rows: within the wrapped rows of the
// anchor line it only moves TopViewLineOffset; past them it advances the
// anchor line.
func (vp *Viewport) ScrollViewLines(buf *buffer.Buffer, viewLines []ViewLine, offset int) {
	for offset > 0 {
		rows := rowsOfLine(viewLines, vp.TopByte)
		if vp.TopViewLineOffset+1 < rows {
			vp.TopViewLineOffset++
		} else {
			next := buf.NextLineStart(vp.TopByte)
			if next == vp.TopByte || next >= buf.Len() {
				break
			}
			vp.TopByte = next
			vp.TopViewLineOffset = 0
		}
		offset--
	}
	for offset < 0 {
		if vp.TopViewLineOffset > 0 {
			vp.TopViewLineOffset--
		} else {
			it := buf.Lines(vp.TopByte)
			start, _, ok := it.Backward()
			if !ok {
				break
			}
			vp.TopByte = start
			vp.TopViewLineOffset = 0
		}
		offset++
	}
}

func rowsOfLine(viewLines []ViewLine, lineStart int) int {
	rows := 0
	seen := false
	for i := range viewLines {
		vl := &viewLines[i]
		if vl.Virtual {
			continue
		}
		if !seen {
			if !vl.Continuation && vl.SourceStart == lineStart {
				seen = true
				rows = 1
			}
			continue
		}
		if !vl.Continuation {
			break
		}
		rows++
	}
	if rows == 0 {
		rows = 1
	}
	return rows
}

// VisualRowOf returns the row index of pos within viewLines, or -1 when pos
// is not covered.
func VisualRowOf(viewLines []ViewLine, pos int) int {
	for i := range viewLines {
		vl := &viewLines[i]
		if vl.Virtual {
			continue
		}
		first, last := rowByteRange(vl)
		if first == -1 {
			// empty line: only the line-end position lands here
			if pos == vl.LineEndByte {
				return i
			}
			continue
		}
		if pos >= first && pos <= last {
			return i
		}
		// The end-of-line position belongs to the row holding the line tail.
		if pos == vl.LineEndByte && !nextRowContinues(viewLines, i) {
			return i
		}
	}
	return -1
}

func rowByteRange(vl *ViewLine) (first, last int) {
	first, last = -1, -1
	for _, b := range vl.CharSourceBytes {
		if b == InjectedByte {
			continue
		}
		if first == -1 {
			first = b
		}
		last = b
	}
	return first, last
}

func nextRowContinues(viewLines []ViewLine, i int) bool {
	for j := i + 1; j < len(viewLines); j++ {
		if viewLines[j].Virtual {
			continue
		}
		return viewLines[j].Continuation
	}
	return false
}

// EnsureVisibleResult reports what EnsureVisible changed.
type EnsureVisibleResult struct {
	Scrolled bool
}

// EnsureVisible adjusts the viewport so the cursor row lies inside the
// scroll-offset margins. A cursor a short step outside the window scrolls
// minimally; a jump re-centers. Horizontal scroll follows the same
// discipline against LeftColumn.
func (vp *Viewport) EnsureVisible(buf *buffer.Buffer, cursor *buffer.Cursor) EnsureVisibleResult {
	if vp.skipEnsureVisible {
		vp.skipEnsureVisible = false
		return EnsureVisibleResult{}
	}
	res := vp.ensureLineVisible(buf, cursor.Position)
	if !vp.LineWrapEnabled {
		if vp.ensureColumnVisible(buf, cursor.Position) {
			res.Scrolled = true
		}
	} else if vp.LeftColumn != 0 {
		vp.LeftColumn = 0
		res.Scrolled = true
	}
	return res
}

func (vp *Viewport) ensureLineVisible(buf *buffer.Buffer, pos int) EnsureVisibleResult {
	cursorLine := buf.LineStart(pos)
	// Row distance from the anchor, counted in source lines. Wrapped rows
	// are handled by EnsureVisibleInLayout when a rendered frame exists.
	delta := lineDelta(buf, vp.TopByte, cursorLine)

	top := vp.ScrollOffset
	bottom := vp.Height - vp.ScrollOffset
	if bottom <= top {
		top = 0
		bottom = vp.Height
	}

	switch {
	case delta < 0:
		// above the window
		if delta >= -vp.ScrollOffset-1 {
			vp.ScrollUp(buf, -delta+vp.ScrollOffset)
		} else {
			vp.center(buf, cursorLine)
		}
		return EnsureVisibleResult{Scrolled: true}
	case delta < top && vp.TopByte > 0:
		vp.ScrollUp(buf, top-delta)
		return EnsureVisibleResult{Scrolled: true}
	case delta >= bottom:
		if delta < vp.Height+vp.ScrollOffset {
			vp.ScrollDown(buf, delta-bottom+1)
		} else {
			vp.center(buf, cursorLine)
		}
		return EnsureVisibleResult{Scrolled: true}
	}
	return EnsureVisibleResult{}
}

// center anchors the viewport half a screen above the cursor line.
func (vp *Viewport) center(buf *buffer.Buffer, cursorLine int) {
	vp.TopByte = cursorLine
	vp.TopViewLineOffset = 0
	vp.ScrollUp(buf, vp.Height/2)
}

// lineDelta counts source lines from fromLine to toLine, negative when
// toLine is above. Both must be line starts. The walk is bounded; distant
// positions saturate so callers fall into the centering path.
func lineDelta(buf *buffer.Buffer, fromLine, toLine int) int {
	const bound = 4096
	if fromLine == toLine {
		return 0
	}
	if toLine > fromLine {
		delta := 0
		cur := fromLine
		for cur < toLine && delta < bound {
			next := buf.NextLineStart(cur)
			if next == cur {
				break
			}
			cur = next
			delta++
		}
		return delta
	}
	delta := 0
	cur := fromLine
	it := buf.Lines(cur)
	for cur > toLine && delta > -bound {
		start, _, ok := it.Backward()
		if !ok {
			break
		}
		cur = start
		delta--
	}
	return delta
}

// ensureColumnVisible adjusts LeftColumn for non-wrapping viewports.
// Returns true when it scrolled.
func (vp *Viewport) ensureColumnVisible(buf *buffer.Buffer, pos int) bool {
	col := VisualColumn(buf, pos)
	margin := vp.HorizontalScrollOffset
	width := vp.Width
	if width <= 0 {
		return false
	}
	left := vp.LeftColumn
	switch {
	case col < left+margin:
		left = col - margin
		if left < 0 {
			left = 0
		}
	case col >= left+width-margin:
		left = col - width + margin + 1
	default:
		return false
	}
	if left == vp.LeftColumn {
		return false
	}
	vp.LeftColumn = left
	return true
}

// EnsureVisibleInLayout refines vertical position against an actual rendered
// frame, handling wrapped rows: the cursor row index inside viewLines must
// fall within the margin window.
func (vp *Viewport) EnsureVisibleInLayout(buf *buffer.Buffer, pos int, viewLines []ViewLine) bool {
	row := VisualRowOf(viewLines, pos)
	if row == -1 {
		return false
	}
	top := vp.TopViewLineOffset + vp.ScrollOffset
	bottom := vp.TopViewLineOffset + vp.Height - vp.ScrollOffset
	if bottom <= top {
		top = vp.TopViewLineOffset
		bottom = vp.TopViewLineOffset + vp.Height
	}
	switch {
	case row < top && vp.TopViewLineOffset > 0 || row < vp.TopViewLineOffset:
		vp.ScrollViewLines(buf, viewLines, row-top)
		return true
	case row >= bottom:
		vp.ScrollViewLines(buf, viewLines, row-bottom+1)
		return true
	}
	return false
}

// VisualColumn computes the visual column of pos within its line, honoring
// tab expansion and wide clusters.
func VisualColumn(buf *buffer.Buffer, pos int) int {
	start := buf.LineStart(pos)
	line := buf.Slice(start, pos)
	col := 0
	state := -1
	rest := line
	tab := buf.TabSize()
	for len(rest) > 0 {
		var cluster []byte
		cluster, rest, _, state = uniseg.Step(rest, state)
		if len(cluster) == 1 && cluster[0] == '\t' {
			col += tab - col%tab
			continue
		}
		w := runewidth.StringWidth(string(cluster))
		if w < 1 {
			w = 1
		}
		col += w
	}
	return col
}

// PositionAtColumn returns the byte position of the grapheme at visual
// column col of the line containing lineStart, clamping to line end. Used by
// sticky-column vertical motion.
func PositionAtColumn(buf *buffer.Buffer, lineStart, col int) int {
	end := buf.LineEnd(lineStart)
	line := buf.Slice(lineStart, end)
	c := 0
	off := 0
	state := -1
	rest := line
	tab := buf.TabSize()
	for len(rest) > 0 {
		var cluster []byte
		cluster, rest, _, state = uniseg.Step(rest, state)
		w := 0
		if len(cluster) == 1 && cluster[0] == '\t' {
			w = tab - c%tab
		} else {
			w = runewidth.StringWidth(string(cluster))
			if w < 1 {
				w = 1
			}
		}
		if c+w > col {
			return lineStart + off
		}
		c += w
		off += len(cluster)
	}
	return end
}
