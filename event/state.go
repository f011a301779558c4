package event

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/yididiel7/fresh/buffer"
)

// Margins carries the per-buffer scroll margin configuration consumed by the
// viewport.
type Margins struct {
	ScrollOffset           int
	HorizontalScrollOffset int
}

// BufferState bundles a buffer with its cursors and the flags the editor
// tracks per document. All mutation flows through Apply.
type BufferState struct {
	Buf      *buffer.Buffer
	Cursors  *buffer.CursorSet
	Meta     *buffer.Metadata
	Language string
	Mode     string
	Margins  Margins
	ReadOnly bool

	// Version increments on every applied event. Async collaborators use it
	// as the staleness baseline for their responses.
	Version uint64
}

func NewBufferState(buf *buffer.Buffer, meta *buffer.Metadata) *BufferState {
	if buf == nil {
		buf = buffer.NewEmpty()
	}
	if meta == nil {
		meta = buffer.NewVirtualMetadata("unnamed", "")
	}
	return &BufferState{
		Buf:      buf,
		Cursors:  buffer.NewCursorSet(),
		Meta:     meta,
		ReadOnly: meta.ReadOnly,
	}
}

// Snapshot is the read-only view handed to LSP and plugin collaborators at
// request time.
type Snapshot struct {
	Bytes    []byte
	Version  uint64
	Language string
	URI      string
}

func (s *BufferState) Snapshot() Snapshot {
	return Snapshot{
		Bytes:    s.Buf.Bytes(),
		Version:  s.Version,
		Language: s.Language,
		URI:      s.Meta.URI,
	}
}

// Apply mutates the state according to ev. It is deterministic given the
// pre-state, keeps content valid UTF-8, keeps cursors on grapheme boundaries
// and re-anchors cursors overlapped by the edit. Precondition violations
// return an error with the state untouched; malformed events that can only
// arise from editor bugs panic.
func (s *BufferState) Apply(ev Event) error {
	if err := s.validate(&ev); err != nil {
		return err
	}
	s.apply(ev)
	s.Version++
	return nil
}

func (s *BufferState) validate(ev *Event) error {
	switch ev.Kind {
	case KindInsert, KindDelete, KindReplace:
		if s.ReadOnly {
			return fmt.Errorf("buffer is read-only")
		}
		if ev.Position < 0 {
			panic("event: negative position")
		}
		if len(ev.Bytes) > 0 && !utf8.Valid(ev.Bytes) {
			return fmt.Errorf("insert is not valid UTF-8")
		}
		if ev.Position <= s.Buf.Len() && !s.Buf.IsGraphemeBoundary(ev.Position) {
			return fmt.Errorf("position %d splits a grapheme cluster", ev.Position)
		}
		if ev.Kind != KindInsert {
			// The recorded pre-state must match the buffer.
			end := ev.Position + len(ev.RemovedBytes)
			if end > s.Buf.Len() {
				return fmt.Errorf("removal [%d, %d) past end %d", ev.Position, end, s.Buf.Len())
			}
			if got := s.Buf.Slice(ev.Position, end); !bytes.Equal(got, ev.RemovedBytes) {
				return fmt.Errorf("removal pre-state mismatch at %d", ev.Position)
			}
			if end < s.Buf.Len() && !utf8.RuneStart(s.Buf.Slice(end, end+1)[0]) {
				return fmt.Errorf("removal end %d splits a UTF-8 sequence", end)
			}
		}
	case KindBatch:
		// Positions were resolved against a single pre-state snapshot by the
		// emitter, so every sub-event is checked against that snapshot before
		// any of them applies.
		for i := range ev.Sub {
			if err := s.validate(&ev.Sub[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *BufferState) apply(ev Event) {
	switch ev.Kind {
	case KindInsert:
		s.Buf.Insert(ev.Position, ev.Bytes)
		s.Cursors.AdjustForEdit(ev.Cursor, ev.Position, 0, len(ev.Bytes))
		if c := s.Cursors.Get(ev.Cursor); c != nil {
			c.Position = ev.Position + len(ev.Bytes)
			c.Anchor = buffer.NoAnchor
		}
		s.Cursors.SnapAll(s.Buf)

	case KindDelete:
		end := ev.Position + len(ev.RemovedBytes)
		s.Buf.Remove(ev.Position, end)
		s.Cursors.AdjustForEdit(ev.Cursor, ev.Position, len(ev.RemovedBytes), 0)
		if c := s.Cursors.Get(ev.Cursor); c != nil {
			c.Position = ev.Position
			c.Anchor = buffer.NoAnchor
		}
		s.Cursors.SnapAll(s.Buf)

	case KindReplace:
		end := ev.Position + len(ev.RemovedBytes)
		s.Buf.Remove(ev.Position, end)
		s.Buf.Insert(ev.Position, ev.Bytes)
		s.Cursors.AdjustForEdit(ev.Cursor, ev.Position, len(ev.RemovedBytes), len(ev.Bytes))
		if c := s.Cursors.Get(ev.Cursor); c != nil {
			c.Position = ev.Position + len(ev.Bytes)
			c.Anchor = buffer.NoAnchor
		}
		s.Cursors.SnapAll(s.Buf)

	case KindMoveCursor:
		if c := s.Cursors.Get(ev.Cursor); c != nil {
			c.Position = s.Buf.SnapToBoundary(ev.NewPosition)
			c.Anchor = ev.NewAnchor
			if c.Anchor != buffer.NoAnchor {
				c.Anchor = s.Buf.SnapToBoundary(c.Anchor)
				if c.Anchor == c.Position {
					c.Anchor = buffer.NoAnchor
				}
			}
			c.StickyCol = ev.NewSticky
		}

	case KindAddCursor:
		c := s.Cursors.Add(ev.Cursor, ev.NewPosition, ev.NewAnchor)
		c.Position = s.Buf.SnapToBoundary(c.Position)

	case KindRemoveCursor:
		s.Cursors.Remove(ev.Cursor)

	case KindSetMode:
		s.Mode = ev.NewValue

	case KindSetReadOnly:
		s.ReadOnly = ev.NewFlag

	case KindSetLanguage:
		s.Language = ev.NewValue

	case KindBatch:
		// Sub-event positions were resolved against one pre-state snapshot;
		// shift each by the earlier edits at or below its own position.
		shifts := batchShifts(ev.Sub)
		for i, sub := range ev.Sub {
			shifted := sub
			if sub.IsEdit() {
				shifted.Position += shifts[i]
			}
			s.apply(shifted)
		}
	}
}

// CheckInvariants panics when a structural invariant is broken. Called from
// tests and from debug builds of the editor loop.
func (s *BufferState) CheckInvariants() {
	if !s.Buf.IsValidUTF8() {
		panic("event: buffer content is not valid UTF-8")
	}
	for _, c := range s.Cursors.Cursors() {
		if !s.Buf.IsGraphemeBoundary(c.Position) {
			panic(fmt.Sprintf("event: cursor %d at %d is not on a grapheme boundary", c.ID, c.Position))
		}
		if c.Anchor != buffer.NoAnchor && c.Anchor == c.Position {
			panic(fmt.Sprintf("event: cursor %d has a degenerate selection", c.ID))
		}
	}
}
