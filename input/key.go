// Package input translates terminal events into actions and actions into
// buffer events. Key chords resolve through a keymap hierarchy scoped by
// context; mouse events resolve through the layout cached at render time.
package input

import (
	"fmt"
	"strings"

	"github.com/nsf/termbox-go"
)

// Context says which part of the UI owns the keyboard. Exactly one context is
// active per event; plugins may push custom contexts by name.
type Context string

const (
	ContextNormal       Context = "normal"
	ContextFileExplorer Context = "file_explorer"
	ContextTerminal     Context = "terminal"
	ContextPrompt       Context = "prompt"
	ContextPopup        Context = "popup"
)

// KeyPress is one normalized key event. Ch is set for printable keys, Key
// for specials; never both.
type KeyPress struct {
	Key termbox.Key
	Ch  rune
	Mod termbox.Modifier
}

func FromEvent(ev *termbox.Event) KeyPress {
	return KeyPress{Key: ev.Key, Ch: ev.Ch, Mod: ev.Mod}
}

func (k KeyPress) Equal(other KeyPress) bool {
	return k.Key == other.Key && k.Ch == other.Ch && k.Mod == other.Mod
}

// IsPrintable reports whether the press inserts its rune in insert-like
// contexts.
func (k KeyPress) IsPrintable() bool {
	return k.Ch != 0 && k.Mod&termbox.ModAlt == 0
}

func (k KeyPress) String() string {
	var parts []string
	if k.Mod&termbox.ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if k.Ch != 0 {
		parts = append(parts, string(k.Ch))
		return strings.Join(parts, "+")
	}
	if name, ok := specialName[k.Key]; ok {
		parts = append(parts, name)
	} else {
		parts = append(parts, fmt.Sprintf("key(%d)", k.Key))
	}
	return strings.Join(parts, "+")
}

var specialName = map[termbox.Key]string{
	termbox.KeyEnter:      "enter",
	termbox.KeyEsc:        "esc",
	termbox.KeyBackspace2: "backspace",
	termbox.KeyBackspace:  "ctrl+h",
	termbox.KeyTab:        "tab",
	termbox.KeySpace:      "space",
	termbox.KeyDelete:     "delete",
	termbox.KeyHome:       "home",
	termbox.KeyEnd:        "end",
	termbox.KeyPgup:       "pageup",
	termbox.KeyPgdn:       "pagedown",
	termbox.KeyArrowUp:    "up",
	termbox.KeyArrowDown:  "down",
	termbox.KeyArrowLeft:  "left",
	termbox.KeyArrowRight: "right",
	termbox.KeyCtrlA:      "ctrl+a",
	termbox.KeyCtrlB:      "ctrl+b",
	termbox.KeyCtrlC:      "ctrl+c",
	termbox.KeyCtrlD:      "ctrl+d",
	termbox.KeyCtrlE:      "ctrl+e",
	termbox.KeyCtrlF:      "ctrl+f",
	termbox.KeyCtrlG:      "ctrl+g",
	termbox.KeyCtrlJ:      "ctrl+j",
	termbox.KeyCtrlK:      "ctrl+k",
	termbox.KeyCtrlL:      "ctrl+l",
	termbox.KeyCtrlN:      "ctrl+n",
	termbox.KeyCtrlO:      "ctrl+o",
	termbox.KeyCtrlP:      "ctrl+p",
	termbox.KeyCtrlQ:      "ctrl+q",
	termbox.KeyCtrlR:      "ctrl+r",
	termbox.KeyCtrlS:      "ctrl+s",
	termbox.KeyCtrlT:      "ctrl+t",
	termbox.KeyCtrlU:      "ctrl+u",
	termbox.KeyCtrlV:      "ctrl+v",
	termbox.KeyCtrlW:      "ctrl+w",
	termbox.KeyCtrlX:      "ctrl+x",
	termbox.KeyCtrlY:      "ctrl+y",
	termbox.KeyCtrlZ:      "ctrl+z",
}

var nameToKey = func() map[string]termbox.Key {
	m := make(map[string]termbox.Key, len(specialName))
	for k, name := range specialName {
		m[name] = k
	}
	return m
}()

// ParseKeyPress parses a config key spec like "ctrl+s", "alt+x", "enter" or a
// single printable character.
func ParseKeyPress(spec string) (KeyPress, error) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" {
		return KeyPress{}, fmt.Errorf("empty key spec")
	}
	var mod termbox.Modifier
	for strings.HasPrefix(spec, "alt+") {
		mod |= termbox.ModAlt
		spec = spec[len("alt+"):]
	}
	if key, ok := nameToKey[spec]; ok {
		return KeyPress{Key: key, Mod: mod}, nil
	}
	runes := []rune(spec)
	if len(runes) == 1 {
		return KeyPress{Ch: runes[0], Mod: mod}, nil
	}
	return KeyPress{}, fmt.Errorf("unknown key spec %q", spec)
}

// ParseChord parses a whitespace-separated chord spec like "ctrl+x ctrl+s".
func ParseChord(spec string) ([]KeyPress, error) {
	var chord []KeyPress
	for _, part := range strings.Fields(spec) {
		kp, err := ParseKeyPress(part)
		if err != nil {
			return nil, err
		}
		chord = append(chord, kp)
	}
	if len(chord) == 0 {
		return nil, fmt.Errorf("empty chord spec")
	}
	return chord, nil
}
