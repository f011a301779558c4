package input

import (
	"time"

	"github.com/nsf/termbox-go"

	"github.com/yididiel7/fresh/buffer"
	"github.com/yididiel7/fresh/event"
	"github.com/yididiel7/fresh/view"
)

// DefaultDoubleClickTime is the window for a second click to count as a
// double click.
const DefaultDoubleClickTime = 400 * time.Millisecond

// Rect is a screen rectangle in cells.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// SplitArea is the hit zone of one split, with the ViewLine mapping captured
// at render time so clicks resolve against exactly what was drawn.
type SplitArea struct {
	SplitID     int
	BufferID    int
	Area        Rect
	GutterWidth int
	// TopRow is the index into Lines of the first visible row.
	TopRow int
	Lines  []view.ViewLine
}

// ScrollbarArea is the scrollbar track of one split.
type ScrollbarArea struct {
	SplitID    int
	Track      Rect
	ThumbY     int
	ThumbH     int
	TotalLines int
}

// CachedLayout is populated during each render and consulted by mouse
// dispatch. Screen regions missing from the cache ignore clicks.
type CachedLayout struct {
	Splits     []SplitArea
	Scrollbars []ScrollbarArea
	StatusBar  Rect
}

func (cl *CachedLayout) SplitAt(x, y int) *SplitArea {
	for i := range cl.Splits {
		if cl.Splits[i].Area.Contains(x, y) {
			return &cl.Splits[i]
		}
	}
	return nil
}

func (cl *CachedLayout) ScrollbarAt(x, y int) *ScrollbarArea {
	for i := range cl.Scrollbars {
		if cl.Scrollbars[i].Track.Contains(x, y) {
			return &cl.Scrollbars[i]
		}
	}
	return nil
}

// SourceByteAt resolves a screen cell inside the split to a source byte:
// row → ViewLine, visual column → char → byte, past-end snapping to the
// line's end.
func (sa *SplitArea) SourceByteAt(x, y int, leftColumn int) (int, bool) {
	row := sa.TopRow + (y - sa.Area.Y)
	if row < 0 || row >= len(sa.Lines) {
		// below the last line: snap to buffer tail via the final row
		if len(sa.Lines) == 0 {
			return 0, false
		}
		row = len(sa.Lines) - 1
	}
	vl := &sa.Lines[row]
	col := x - sa.Area.X - sa.GutterWidth + leftColumn
	if col < 0 {
		col = 0
	}
	return vl.SourceByteAtVisual(col), true
}

// MouseResult mirrors Result for mouse dispatch.
type MouseResult struct {
	Handled bool
	Redraw  bool
	// FocusSplit asks the editor to focus this split; -1 means no change.
	FocusSplit int
}

// Mouse tracks click state across events: double-click detection, selection
// dragging and scrollbar dragging.
type Mouse struct {
	DoubleClickTime time.Duration

	lastClickAt  time.Time
	lastClickX   int
	lastClickY   int
	dragging     bool
	dragSplit    int
	scrollDrag   bool
	scrollSplit  int
	scrollGrabDY int
}

func NewMouse() *Mouse {
	return &Mouse{DoubleClickTime: DefaultDoubleClickTime}
}

// Dispatch handles one termbox mouse event against the cached layout.
func (m *Mouse) Dispatch(ev *termbox.Event, layout *CachedLayout, env *Env, now time.Time) MouseResult {
	switch ev.Key {
	case termbox.MouseLeft:
		return m.leftDown(ev.MouseX, ev.MouseY, layout, env, now)
	case termbox.MouseRelease:
		m.dragging = false
		m.scrollDrag = false
		return MouseResult{Handled: true, FocusSplit: -1}
	case termbox.MouseWheelUp:
		return m.wheel(ev.MouseX, ev.MouseY, layout, env, -3)
	case termbox.MouseWheelDown:
		return m.wheel(ev.MouseX, ev.MouseY, layout, env, 3)
	}
	return MouseResult{FocusSplit: -1}
}

func (m *Mouse) leftDown(x, y int, layout *CachedLayout, env *Env, now time.Time) MouseResult {
	res := MouseResult{Handled: true, FocusSplit: -1}

	if m.scrollDrag {
		return m.scrollTo(y, layout, env)
	}

	if sb := layout.ScrollbarAt(x, y); sb != nil && !m.dragging {
		m.scrollDrag = true
		m.scrollSplit = sb.SplitID
		m.scrollGrabDY = y - sb.ThumbY
		if y < sb.ThumbY || y >= sb.ThumbY+sb.ThumbH {
			m.scrollGrabDY = 0
		}
		return m.scrollTo(y, layout, env)
	}

	sa := layout.SplitAt(x, y)
	if sa == nil {
		return MouseResult{FocusSplit: -1}
	}
	res.FocusSplit = sa.SplitID

	pos, ok := sa.SourceByteAt(x, y, env.Viewport.LeftColumn)
	if !ok {
		return res
	}
	pos = env.State.Buf.SnapToBoundary(pos)

	doubleClick := !m.dragging &&
		now.Sub(m.lastClickAt) <= m.DoubleClickTime &&
		x == m.lastClickX && y == m.lastClickY

	c := env.State.Cursors.Primary()
	switch {
	case doubleClick:
		start, end := WordRange(env.State.Buf, pos)
		if start != end {
			appendEvents(env, event.MoveCursor(c.ID, c.Position, end, c.Anchor, start, c.StickyCol, 0))
			res.Redraw = true
		}
		m.lastClickAt = time.Time{}
	case m.dragging:
		// drag extends the selection from the anchor
		anchor := c.Anchor
		if anchor == buffer.NoAnchor {
			anchor = c.Position
		}
		if pos != c.Position {
			appendEvents(env, event.MoveCursor(c.ID, c.Position, pos, c.Anchor, anchor, c.StickyCol, 0))
			res.Redraw = true
		}
	default:
		appendEvents(env, event.MoveCursor(c.ID, c.Position, pos, c.Anchor, buffer.NoAnchor, c.StickyCol, 0))
		res.Redraw = true
		m.dragging = true
		m.dragSplit = sa.SplitID
		m.lastClickAt = now
		m.lastClickX, m.lastClickY = x, y
	}
	return res
}

// DispatchShiftClick extends the selection from the current anchor, like a
// drag in one step.
func (m *Mouse) DispatchShiftClick(x, y int, layout *CachedLayout, env *Env) MouseResult {
	sa := layout.SplitAt(x, y)
	if sa == nil {
		return MouseResult{FocusSplit: -1}
	}
	pos, ok := sa.SourceByteAt(x, y, env.Viewport.LeftColumn)
	if !ok {
		return MouseResult{Handled: true, FocusSplit: sa.SplitID}
	}
	pos = env.State.Buf.SnapToBoundary(pos)
	c := env.State.Cursors.Primary()
	anchor := c.Anchor
	if anchor == buffer.NoAnchor {
		anchor = c.Position
	}
	appendEvents(env, event.MoveCursor(c.ID, c.Position, pos, c.Anchor, anchor, c.StickyCol, 0))
	return MouseResult{Handled: true, Redraw: true, FocusSplit: sa.SplitID}
}

func (m *Mouse) wheel(x, y int, layout *CachedLayout, env *Env, lines int) MouseResult {
	sa := layout.SplitAt(x, y)
	if sa == nil {
		return MouseResult{FocusSplit: -1}
	}
	if lines < 0 {
		env.Viewport.ScrollUp(env.State.Buf, -lines)
	} else {
		env.Viewport.ScrollDown(env.State.Buf, lines)
	}
	env.Viewport.SetSkipEnsureVisible()
	return MouseResult{Handled: true, Redraw: true, FocusSplit: -1}
}

// scrollTo maps a scrollbar drag position linearly onto the buffer's lines
// and re-anchors TopByte on the resulting line start.
func (m *Mouse) scrollTo(y int, layout *CachedLayout, env *Env) MouseResult {
	var sb *ScrollbarArea
	for i := range layout.Scrollbars {
		if layout.Scrollbars[i].SplitID == m.scrollSplit {
			sb = &layout.Scrollbars[i]
		}
	}
	if sb == nil || sb.Track.H <= sb.ThumbH {
		return MouseResult{Handled: true, FocusSplit: -1}
	}
	top := y - m.scrollGrabDY - sb.Track.Y
	if top < 0 {
		top = 0
	}
	maxTop := sb.Track.H - sb.ThumbH
	if top > maxTop {
		top = maxTop
	}
	line := top * (sb.TotalLines - 1) / maxTop
	env.Viewport.ScrollTo(env.State.Buf, line)
	env.Viewport.SetSkipEnsureVisible()
	return MouseResult{Handled: true, Redraw: true, FocusSplit: -1}
}
