package input

import (
	"time"

	"github.com/nsf/termbox-go"
)

// DefaultChordTimeout aborts a partial chord that receives no follow-up key.
const DefaultChordTimeout = time.Second

// Dispatcher resolves key events against a keymap, buffering partial chords
// with a timeout. It is fed from the editor loop; the loop also calls
// CheckTimeout when timers expire.
type Dispatcher struct {
	keymap       *Keymap
	ChordTimeout time.Duration

	pending  []KeyPress
	deadline time.Time
}

func NewDispatcher(keymap *Keymap) *Dispatcher {
	return &Dispatcher{keymap: keymap, ChordTimeout: DefaultChordTimeout}
}

func (d *Dispatcher) SetKeymap(km *Keymap) {
	d.keymap = km
	d.pending = nil
}

// Pending reports whether a partial chord is buffered.
func (d *Dispatcher) Pending() bool {
	return len(d.pending) > 0
}

// Deadline returns the instant the pending chord expires; zero when no chord
// is pending.
func (d *Dispatcher) Deadline() time.Time {
	if len(d.pending) == 0 {
		return time.Time{}
	}
	return d.deadline
}

// DispatchKey feeds one key event. It returns the resolved actions: usually
// zero (partial chord, unbound key swallowed by the chord abort) or one.
// A non-matching key aborts the pending chord and re-dispatches from
// scratch, so a printable key typed after a stale prefix still inserts.
func (d *Dispatcher) DispatchKey(ev *termbox.Event, ctx Context, custom []string, now time.Time) []Action {
	kp := FromEvent(ev)

	keys := append(append([]KeyPress(nil), d.pending...), kp)
	action, match := d.keymap.Resolve(keys, ctx, custom)
	switch match {
	case MatchExact:
		d.pending = nil
		return []Action{action}
	case MatchPartial:
		d.pending = keys
		d.deadline = now.Add(d.ChordTimeout)
		return nil
	}

	if len(d.pending) > 0 {
		// Abort the chord and re-dispatch the key on its own.
		d.pending = nil
		return d.DispatchKey(ev, ctx, custom, now)
	}

	// Unbound single key: printable runes insert in editing contexts.
	if ctx == ContextNormal && kp.IsPrintable() {
		return []Action{{Kind: ActionInsertChar, Ch: kp.Ch}}
	}
	return nil
}

// CheckTimeout aborts an expired partial chord. Returns true when it did.
func (d *Dispatcher) CheckTimeout(now time.Time) bool {
	if len(d.pending) == 0 || now.Before(d.deadline) {
		return false
	}
	d.pending = nil
	return true
}
