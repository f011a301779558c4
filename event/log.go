package event

// Log is the append-only event history of one buffer and the undo/redo
// structure over it. Undo never pops events: it moves the committed index
// backwards while applying inverses, keeping the forward tail replayable
// until a new append truncates it.
type Log struct {
	events    []Event
	committed int

	// snapshotInterval reserves the cadence for replay snapshots; the log
	// itself only records event counts.
	snapshotInterval int
}

const DefaultSnapshotInterval = 512

func NewLog() *Log {
	return &Log{snapshotInterval: DefaultSnapshotInterval}
}

func (l *Log) Len() int {
	return len(l.events)
}

// Committed returns the committed index: the number of events currently in
// effect.
func (l *Log) Committed() int {
	return l.committed
}

// Events returns the log prefix currently in effect.
func (l *Log) Events() []Event {
	return l.events[:l.committed]
}

// CanUndo reports whether an event can be rolled back.
func (l *Log) CanUndo() bool {
	return l.committed > 0
}

// CanRedo reports whether a rolled-back event can be re-applied.
func (l *Log) CanRedo() bool {
	return l.committed < len(l.events)
}

// Append records ev and applies it to state. Any redo tail past the
// committed index is truncated first.
func (l *Log) Append(state *BufferState, ev Event) error {
	if err := state.Apply(ev); err != nil {
		return err
	}
	l.events = append(l.events[:l.committed], ev)
	l.committed = len(l.events)
	return nil
}

// Undo rolls back the most recent committed event by applying its inverse.
// A batch rolls back atomically as one step.
func (l *Log) Undo(state *BufferState) bool {
	if !l.CanUndo() {
		return false
	}
	l.committed--
	if err := state.Apply(l.events[l.committed].Invert()); err != nil {
		// The inverse of an applied event always applies cleanly; anything
		// else is a corrupted log.
		panic("event: undo failed: " + err.Error())
	}
	return true
}

// Redo re-applies the event at the committed index.
func (l *Log) Redo(state *BufferState) bool {
	if !l.CanRedo() {
		return false
	}
	if err := state.Apply(l.events[l.committed]); err != nil {
		panic("event: redo failed: " + err.Error())
	}
	l.committed++
	return true
}

// Trim drops the whole history. Called when the buffer closes.
func (l *Log) Trim() {
	l.events = nil
	l.committed = 0
}
