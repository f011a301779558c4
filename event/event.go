// Package event implements event-sourced buffer mutation. Every change to
// text, cursors or buffer flags is an Event appended to the buffer's log;
// BufferState.Apply is the only code that mutates state. Undo and redo are
// defined as replay against the log's committed index.
package event

import (
	"fmt"

	"github.com/yididiel7/fresh/buffer"
)

// Kind tags the event variants.
type Kind int

const (
	KindInsert Kind = iota
	KindDelete
	KindReplace
	KindMoveCursor
	KindAddCursor
	KindRemoveCursor
	KindSetMode
	KindSetReadOnly
	KindSetLanguage
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	case KindReplace:
		return "replace"
	case KindMoveCursor:
		return "move-cursor"
	case KindAddCursor:
		return "add-cursor"
	case KindRemoveCursor:
		return "remove-cursor"
	case KindSetMode:
		return "set-mode"
	case KindSetReadOnly:
		return "set-read-only"
	case KindSetLanguage:
		return "set-language"
	case KindBatch:
		return "batch"
	}
	return "unknown"
}

// Event describes one atomic change. The payload carries enough pre-state to
// invert the event; Invert is total for every kind. Events are immutable once
// appended.
type Event struct {
	Kind   Kind
	Cursor buffer.CursorID

	// Insert / Delete / Replace
	Position     int
	Bytes        []byte // inserted bytes
	RemovedBytes []byte // pre-state of a deleted or replaced range
	// MoveCursor / AddCursor / RemoveCursor
	OldPosition int
	NewPosition int
	OldAnchor   int
	NewAnchor   int
	OldSticky   int
	NewSticky   int

	// SetMode / SetLanguage
	OldValue string
	NewValue string
	// SetReadOnly
	OldFlag bool
	NewFlag bool

	// Batch
	Sub   []Event
	Label string
}

func Insert(cursor buffer.CursorID, position int, data []byte) Event {
	return Event{Kind: KindInsert, Cursor: cursor, Position: position, Bytes: data}
}

func Delete(cursor buffer.CursorID, start int, removed []byte) Event {
	return Event{Kind: KindDelete, Cursor: cursor, Position: start, RemovedBytes: removed}
}

func Replace(cursor buffer.CursorID, start int, removed, inserted []byte) Event {
	return Event{
		Kind:         KindReplace,
		Cursor:       cursor,
		Position:     start,
		RemovedBytes: removed,
		Bytes:        inserted,
	}
}

func MoveCursor(cursor buffer.CursorID, oldPos, newPos, oldAnchor, newAnchor, oldSticky, newSticky int) Event {
	return Event{
		Kind:        KindMoveCursor,
		Cursor:      cursor,
		OldPosition: oldPos,
		NewPosition: newPos,
		OldAnchor:   oldAnchor,
		NewAnchor:   newAnchor,
		OldSticky:   oldSticky,
		NewSticky:   newSticky,
	}
}

func AddCursor(cursor buffer.CursorID, position, anchor int) Event {
	return Event{Kind: KindAddCursor, Cursor: cursor, NewPosition: position, NewAnchor: anchor}
}

func RemoveCursor(cursor buffer.CursorID, oldPosition, oldAnchor int) Event {
	return Event{Kind: KindRemoveCursor, Cursor: cursor, OldPosition: oldPosition, OldAnchor: oldAnchor}
}

func SetMode(old, new string) Event {
	return Event{Kind: KindSetMode, OldValue: old, NewValue: new}
}

func SetReadOnly(old, new bool) Event {
	return Event{Kind: KindSetReadOnly, OldFlag: old, NewFlag: new}
}

func SetLanguage(old, new string) Event {
	return Event{Kind: KindSetLanguage, OldValue: old, NewValue: new}
}

func Batch(label string, sub ...Event) Event {
	return Event{Kind: KindBatch, Label: label, Sub: sub}
}

// RemovedLen returns the length of the range the event removes.
func (e *Event) RemovedLen() int {
	return len(e.RemovedBytes)
}

// InsertedLen returns the length of the bytes the event inserts.
func (e *Event) InsertedLen() int {
	return len(e.Bytes)
}

// IsEdit reports whether the event changes buffer bytes.
func (e *Event) IsEdit() bool {
	return e.Kind == KindInsert || e.Kind == KindDelete || e.Kind == KindReplace
}

func (e *Event) delta() int {
	return e.InsertedLen() - e.RemovedLen()
}

// batchShifts returns, for each sub-event, the offset its recorded position
// gains from the sub-events applied before it. Recorded positions are
// pre-state coordinates resolved from one snapshot; a sub-event is shifted by
// every earlier edit at or below its own position.
func batchShifts(sub []Event) []int {
	shifts := make([]int, len(sub))
	for i := range sub {
		if !sub[i].IsEdit() {
			continue
		}
		for j := 0; j < i; j++ {
			if sub[j].IsEdit() && sub[j].Position <= sub[i].Position {
				shifts[i] += sub[j].delta()
			}
		}
	}
	return shifts
}

// Invert returns the event that undoes e. Batches invert sub-events in
// reverse order.
func (e Event) Invert() Event {
	switch e.Kind {
	case KindInsert:
		return Event{Kind: KindDelete, Cursor: e.Cursor, Position: e.Position, RemovedBytes: e.Bytes}
	case KindDelete:
		return Event{Kind: KindInsert, Cursor: e.Cursor, Position: e.Position, Bytes: e.RemovedBytes}
	case KindReplace:
		return Event{
			Kind:         KindReplace,
			Cursor:       e.Cursor,
			Position:     e.Position,
			RemovedBytes: e.Bytes,
			Bytes:        e.RemovedBytes,
		}
	case KindMoveCursor:
		return Event{
			Kind:        KindMoveCursor,
			Cursor:      e.Cursor,
			OldPosition: e.NewPosition,
			NewPosition: e.OldPosition,
			OldAnchor:   e.NewAnchor,
			NewAnchor:   e.OldAnchor,
			OldSticky:   e.NewSticky,
			NewSticky:   e.OldSticky,
		}
	case KindAddCursor:
		return Event{Kind: KindRemoveCursor, Cursor: e.Cursor, OldPosition: e.NewPosition, OldAnchor: e.NewAnchor}
	case KindRemoveCursor:
		return Event{Kind: KindAddCursor, Cursor: e.Cursor, NewPosition: e.OldPosition, NewAnchor: e.OldAnchor}
	case KindSetMode:
		return SetMode(e.NewValue, e.OldValue)
	case KindSetReadOnly:
		return SetReadOnly(e.NewFlag, e.OldFlag)
	case KindSetLanguage:
		return SetLanguage(e.NewValue, e.OldValue)
	case KindBatch:
		// Sub-events invert in reverse order. Their recorded positions are
		// pre-state coordinates of the forward application, so the inverses
		// carry the post-state coordinates instead: that is the pre-state of
		// the undo.
		shifts := batchShifts(e.Sub)
		sub := make([]Event, 0, len(e.Sub))
		for i := len(e.Sub) - 1; i >= 0; i-- {
			inv := e.Sub[i].Invert()
			if inv.IsEdit() {
				inv.Position += shifts[i]
			}
			sub = append(sub, inv)
		}
		return Event{Kind: KindBatch, Label: e.Label, Sub: sub}
	}
	panic(fmt.Sprintf("event: cannot invert kind %v", e.Kind))
}
