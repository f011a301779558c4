package input

import (
	"strings"

	"github.com/yididiel7/fresh/buffer"
	"github.com/yididiel7/fresh/event"
	"github.com/yididiel7/fresh/view"
)

// Clipboard abstracts the system clipboard so tests run without one.
type Clipboard interface {
	Read() (string, error)
	Write(string) error
}

// MemClipboard is the in-process fallback register, also used by tests.
type MemClipboard struct {
	content string
}

func (m *MemClipboard) Read() (string, error) { return m.content, nil }
func (m *MemClipboard) Write(s string) error  { m.content = s; return nil }

// Env is everything the executor may touch for one action: the active
// buffer, its log, the viewport of the focused split and the clipboard.
type Env struct {
	State     *event.BufferState
	Log       *event.Log
	Viewport  *view.Viewport
	Clipboard Clipboard
}

// Result reports what an action did.
type Result struct {
	// Handled is false for editor-level actions the executor does not own.
	Handled bool
	// Redraw is set when any state visible on screen changed.
	Redraw bool
	// Status carries a user-visible message (errors, mode notes).
	Status string
}

// Execute turns one action into zero or more events against the active
// buffer, appends them to the log and marks the viewport for sync.
func Execute(a Action, env *Env) Result {
	if a.IsEditorLevel() {
		return Result{}
	}
	st := env.State
	res := Result{Handled: true}

	switch a.Kind {
	case ActionNone:
		return res

	case ActionMoveLeft:
		res.Redraw = moveAll(env, a.Extend, func(c *buffer.Cursor) (int, int) {
			p := st.Buf.PrevBoundary(c.Position)
			return p, view.VisualColumn(st.Buf, p)
		})
	case ActionMoveRight:
		res.Redraw = moveAll(env, a.Extend, func(c *buffer.Cursor) (int, int) {
			p := st.Buf.NextBoundary(c.Position)
			return p, view.VisualColumn(st.Buf, p)
		})
	case ActionMoveUp:
		res.Redraw = moveVertical(env, a.Extend, -1)
	case ActionMoveDown:
		res.Redraw = moveVertical(env, a.Extend, +1)
	case ActionMovePageUp:
		res.Redraw = moveVertical(env, a.Extend, -pageSize(env))
	case ActionMovePageDown:
		res.Redraw = moveVertical(env, a.Extend, pageSize(env))
	case ActionMoveWordForward:
		res.Redraw = moveAll(env, a.Extend, func(c *buffer.Cursor) (int, int) {
			p := WordForward(st.Buf, c.Position)
			return p, view.VisualColumn(st.Buf, p)
		})
	case ActionMoveWordBackward:
		res.Redraw = moveAll(env, a.Extend, func(c *buffer.Cursor) (int, int) {
			p := WordBackward(st.Buf, c.Position)
			return p, view.VisualColumn(st.Buf, p)
		})
	case ActionMoveLineStart:
		res.Redraw = moveAll(env, a.Extend, func(c *buffer.Cursor) (int, int) {
			return st.Buf.LineStart(c.Position), 0
		})
	case ActionMoveLineEnd:
		res.Redraw = moveAll(env, a.Extend, func(c *buffer.Cursor) (int, int) {
			p := st.Buf.LineEnd(c.Position)
			return p, view.VisualColumn(st.Buf, p)
		})
	case ActionMoveDocStart:
		res.Redraw = moveAll(env, a.Extend, func(*buffer.Cursor) (int, int) { return 0, 0 })
	case ActionMoveDocEnd:
		res.Redraw = moveAll(env, a.Extend, func(*buffer.Cursor) (int, int) {
			p := st.Buf.Len()
			return p, view.VisualColumn(st.Buf, p)
		})
	case ActionGotoLine:
		line := a.Line - 1
		if line < 0 {
			line = 0
		}
		p := st.Buf.LineStartOfLine(line)
		res.Redraw = moveAll(env, false, func(*buffer.Cursor) (int, int) { return p, 0 })

	case ActionInsertChar:
		res = insertText(env, string(a.Ch))
	case ActionInsertNewline:
		res = insertText(env, "\n")
	case ActionInsertTab:
		res = insertText(env, "\t")

	case ActionBackspace:
		res = deleteAll(env, func(c *buffer.Cursor) (int, int) {
			if c.HasSelection() {
				return c.SelectionRange()
			}
			return st.Buf.PrevBoundary(c.Position), c.Position
		})
	case ActionDelete:
		res = deleteAll(env, func(c *buffer.Cursor) (int, int) {
			if c.HasSelection() {
				return c.SelectionRange()
			}
			return c.Position, st.Buf.NextBoundary(c.Position)
		})
	case ActionDeleteLine:
		res = deleteAll(env, func(c *buffer.Cursor) (int, int) {
			return st.Buf.LineStart(c.Position), st.Buf.NextLineStart(c.Position)
		})

	case ActionUndo:
		if env.Log.Undo(st) {
			res.Redraw = true
		} else {
			res.Status = "Nothing to undo"
		}
	case ActionRedo:
		if env.Log.Redo(st) {
			res.Redraw = true
		} else {
			res.Status = "Nothing to redo"
		}

	case ActionAddCursorBelow:
		res.Redraw = addCursorVertical(env, +1)
	case ActionAddCursorAbove:
		res.Redraw = addCursorVertical(env, -1)
	case ActionCollapseCursors:
		res.Redraw = collapseCursors(env)

	case ActionSelectWord:
		res.Redraw = moveAllAnchored(env, func(c *buffer.Cursor) (int, int) {
			return WordRange(st.Buf, c.Position)
		})
	case ActionSelectLine:
		res.Redraw = moveAllAnchored(env, func(c *buffer.Cursor) (int, int) {
			return st.Buf.LineStart(c.Position), st.Buf.NextLineStart(c.Position)
		})
	case ActionSelectAll:
		var events []event.Event
		for _, c := range st.Cursors.Cursors() {
			if !c.Primary {
				events = append(events, event.RemoveCursor(c.ID, c.Position, c.Anchor))
			}
		}
		p := st.Cursors.Primary()
		events = append(events, event.MoveCursor(p.ID, p.Position, st.Buf.Len(), p.Anchor, 0, p.StickyCol, 0))
		res.Redraw = appendEvents(env, events...)

	case ActionCopy:
		res = copySelection(env, false)
	case ActionCut:
		res = copySelection(env, true)
	case ActionPaste:
		text, err := env.Clipboard.Read()
		if err != nil {
			return Result{Handled: true, Status: "Clipboard read failed: " + err.Error()}
		}
		if text != "" {
			res = insertText(env, text)
		}

	case ActionScrollLineUp:
		env.Viewport.ScrollUp(st.Buf, 1)
		env.Viewport.SetSkipEnsureVisible()
		res.Redraw = true
	case ActionScrollLineDown:
		env.Viewport.ScrollDown(st.Buf, 1)
		env.Viewport.SetSkipEnsureVisible()
		res.Redraw = true
	case ActionToggleWrap:
		env.Viewport.LineWrapEnabled = !env.Viewport.LineWrapEnabled
		env.Viewport.LeftColumn = 0
		res.Redraw = true
	}

	if res.Redraw {
		env.Viewport.MarkNeedsSync()
	}
	return res
}

func pageSize(env *Env) int {
	h := env.Viewport.Height
	if h < 2 {
		return 1
	}
	return h - 1
}

// appendEvents wraps multiple events into one batch so the whole action is a
// single undo step.
func appendEvents(env *Env, events ...event.Event) bool {
	if len(events) == 0 {
		return false
	}
	var ev event.Event
	if len(events) == 1 {
		ev = events[0]
	} else {
		ev = event.Batch("action", events...)
	}
	if err := env.Log.Append(env.State, ev); err != nil {
		return false
	}
	return true
}

// moveAll emits MoveCursor events for every cursor. target returns the new
// position and the new sticky column.
func moveAll(env *Env, extend bool, target func(*buffer.Cursor) (int, int)) bool {
	st := env.State
	var events []event.Event
	for _, c := range st.Cursors.Cursors() {
		cur := st.Cursors.Get(c.ID)
		newPos, sticky := target(cur)
		newAnchor := buffer.NoAnchor
		if extend {
			newAnchor = cur.Anchor
			if newAnchor == buffer.NoAnchor {
				newAnchor = cur.Position
			}
		}
		if newPos == cur.Position && newAnchor == cur.Anchor {
			continue
		}
		events = append(events, event.MoveCursor(c.ID, cur.Position, newPos, cur.Anchor, newAnchor, cur.StickyCol, sticky))
	}
	return appendEvents(env, events...)
}

// moveAllAnchored sets an explicit anchor..position selection per cursor.
func moveAllAnchored(env *Env, target func(*buffer.Cursor) (int, int)) bool {
	st := env.State
	var events []event.Event
	for _, c := range st.Cursors.Cursors() {
		cur := st.Cursors.Get(c.ID)
		anchor, pos := target(cur)
		if anchor == pos {
			continue
		}
		events = append(events, event.MoveCursor(c.ID, cur.Position, pos, cur.Anchor, anchor, cur.StickyCol, 0))
	}
	return appendEvents(env, events...)
}

// moveVertical moves every cursor by delta lines, holding the sticky column.
func moveVertical(env *Env, extend bool, delta int) bool {
	st := env.State
	return moveAll(env, extend, func(c *buffer.Cursor) (int, int) {
		sticky := c.StickyCol
		if col := view.VisualColumn(st.Buf, c.Position); col > sticky {
			sticky = col
		}
		target := targetLineStart(st.Buf, c.Position, delta)
		return view.PositionAtColumn(st.Buf, target, sticky), sticky
	})
}

func targetLineStart(buf *buffer.Buffer, pos, delta int) int {
	cur := buf.LineStart(pos)
	it := buf.Lines(cur)
	for delta > 0 {
		next := buf.NextLineStart(cur)
		if next >= buf.Len() {
			nextStart := buf.LineStart(buf.Len())
			if nextStart > cur {
				cur = nextStart
			}
			break
		}
		cur = next
		delta--
	}
	for delta < 0 {
		start, _, ok := it.Backward()
		if !ok {
			break
		}
		cur = start
		delta++
	}
	return cur
}

// insertText inserts text at every cursor as one batch with positions
// resolved from the pre-state snapshot. Selections are replaced.
func insertText(env *Env, text string) Result {
	st := env.State
	data := []byte(text)
	var events []event.Event
	for _, c := range st.Cursors.Cursors() {
		if c.HasSelection() {
			start, end := c.SelectionRange()
			events = append(events, event.Replace(c.ID, start, st.Buf.Slice(start, end), data))
		} else {
			events = append(events, event.Insert(c.ID, c.Position, data))
		}
	}
	if !appendEvents(env, events...) {
		return Result{Handled: true, Status: editFailedStatus(env)}
	}
	return Result{Handled: true, Redraw: true}
}

// deleteAll removes one range per cursor as one batch. Ranges are widened to
// grapheme boundaries.
func deleteAll(env *Env, rng func(*buffer.Cursor) (int, int)) Result {
	st := env.State
	var events []event.Event
	for _, c := range st.Cursors.Cursors() {
		cur := st.Cursors.Get(c.ID)
		start, end := rng(cur)
		start, end = st.Buf.WidenToBoundaries(start, end)
		if start >= end {
			continue
		}
		events = append(events, event.Delete(c.ID, start, st.Buf.Slice(start, end)))
	}
	if len(events) == 0 {
		return Result{Handled: true}
	}
	if !appendEvents(env, events...) {
		return Result{Handled: true, Status: editFailedStatus(env)}
	}
	return Result{Handled: true, Redraw: true}
}

func editFailedStatus(env *Env) string {
	if env.State.ReadOnly {
		return "Buffer is read-only"
	}
	return "Edit rejected"
}

// addCursorVertical adds a cursor on the line below (or above) the extreme
// cursor, at that cursor's sticky column or its current column, whichever
// is larger.
func addCursorVertical(env *Env, delta int) bool {
	st := env.State
	cursors := st.Cursors.Cursors()
	edge := cursors[0]
	if delta > 0 {
		edge = cursors[len(cursors)-1]
	}
	cur := st.Cursors.Get(edge.ID)
	target := targetLineStart(st.Buf, cur.Position, delta)
	if target == st.Buf.LineStart(cur.Position) {
		return false
	}
	sticky := cur.StickyCol
	if col := view.VisualColumn(st.Buf, cur.Position); col > sticky {
		sticky = col
	}
	pos := view.PositionAtColumn(st.Buf, target, sticky)
	id := st.Cursors.AllocID()
	return appendEvents(env, event.AddCursor(id, pos, buffer.NoAnchor))
}

// collapseCursors removes every secondary cursor as one batch.
func collapseCursors(env *Env) bool {
	st := env.State
	var events []event.Event
	for _, c := range st.Cursors.Cursors() {
		if c.Primary {
			continue
		}
		events = append(events, event.RemoveCursor(c.ID, c.Position, c.Anchor))
	}
	return appendEvents(env, events...)
}

// copySelection concatenates every selection (whole lines for cursors with
// none) into the clipboard. Cut also deletes the copied ranges.
func copySelection(env *Env, cut bool) Result {
	st := env.State
	var parts []string
	type span struct {
		cursor     buffer.CursorID
		start, end int
	}
	var spans []span
	for _, c := range st.Cursors.Cursors() {
		start, end := c.SelectionRange()
		if start == end {
			start = st.Buf.LineStart(c.Position)
			end = st.Buf.NextLineStart(c.Position)
		}
		if start == end {
			continue
		}
		parts = append(parts, string(st.Buf.Slice(start, end)))
		spans = append(spans, span{c.ID, start, end})
	}
	if len(parts) == 0 {
		return Result{Handled: true}
	}
	if err := env.Clipboard.Write(strings.Join(parts, "")); err != nil {
		return Result{Handled: true, Status: "Clipboard write failed: " + err.Error()}
	}
	if !cut {
		return Result{Handled: true, Status: "Copied"}
	}
	var events []event.Event
	for _, sp := range spans {
		events = append(events, event.Delete(sp.cursor, sp.start, st.Buf.Slice(sp.start, sp.end)))
	}
	if !appendEvents(env, events...) {
		return Result{Handled: true, Status: editFailedStatus(env)}
	}
	return Result{Handled: true, Redraw: true}
}
