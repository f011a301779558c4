package editor

import (
	"github.com/yididiel7/fresh/input"
)

// DefaultKeymap is the built-in binding set. Config keybindings load into a
// child keymap so they shadow these without losing them.
func DefaultKeymap() *input.Keymap {
	km := input.NewKeymap(nil)
	bind := func(spec string, a input.Action) {
		chord, err := input.ParseChord(spec)
		if err != nil {
			panic("bad builtin binding: " + spec)
		}
		km.Bind(input.Binding{Keys: chord, Action: a})
	}
	editing := func(spec string, a input.Action) {
		chord, err := input.ParseChord(spec)
		if err != nil {
			panic("bad builtin binding: " + spec)
		}
		km.Bind(input.Binding{Keys: chord, Action: a, Contexts: []input.Context{input.ContextNormal}})
	}

	editing("left", input.Action{Kind: input.ActionMoveLeft})
	editing("right", input.Action{Kind: input.ActionMoveRight})
	editing("up", input.Action{Kind: input.ActionMoveUp})
	editing("down", input.Action{Kind: input.ActionMoveDown})
	editing("home", input.Action{Kind: input.ActionMoveLineStart})
	editing("end", input.Action{Kind: input.ActionMoveLineEnd})
	editing("pageup", input.Action{Kind: input.ActionMovePageUp})
	editing("pagedown", input.Action{Kind: input.ActionMovePageDown})
	editing("alt+b", input.Action{Kind: input.ActionMoveWordBackward})
	editing("alt+f", input.Action{Kind: input.ActionMoveWordForward})

	editing("enter", input.Action{Kind: input.ActionInsertNewline})
	editing("tab", input.Action{Kind: input.ActionInsertTab})
	editing("space", input.Action{Kind: input.ActionInsertChar, Ch: ' '})
	editing("backspace", input.Action{Kind: input.ActionBackspace})
	editing("ctrl+h", input.Action{Kind: input.ActionBackspace})
	editing("delete", input.Action{Kind: input.ActionDelete})
	editing("ctrl+k", input.Action{Kind: input.ActionDeleteLine})

	editing("ctrl+z", input.Action{Kind: input.ActionUndo})
	editing("ctrl+y", input.Action{Kind: input.ActionRedo})
	editing("ctrl+d", input.Action{Kind: input.ActionAddCursorBelow})
	editing("esc", input.Action{Kind: input.ActionCollapseCursors})
	editing("ctrl+a", input.Action{Kind: input.ActionSelectAll})
	editing("ctrl+c", input.Action{Kind: input.ActionCopy})
	editing("ctrl+x ctrl+x", input.Action{Kind: input.ActionCut})
	editing("ctrl+v", input.Action{Kind: input.ActionPaste})

	editing("ctrl+e", input.Action{Kind: input.ActionScrollLineDown})
	editing("ctrl+u", input.Action{Kind: input.ActionScrollLineUp})
	editing("alt+w", input.Action{Kind: input.ActionToggleWrap})

	bind("ctrl+s", input.Action{Kind: input.ActionSave})
	bind("ctrl+q", input.Action{Kind: input.ActionQuit})
	bind("ctrl+x 2", input.Action{Kind: input.ActionSplitHorizontal})
	bind("ctrl+x 3", input.Action{Kind: input.ActionSplitVertical})
	bind("ctrl+x 0", input.Action{Kind: input.ActionCloseSplit})
	bind("ctrl+x o", input.Action{Kind: input.ActionFocusNextSplit})
	bind("ctrl+x ctrl+z", input.Action{Kind: input.ActionSuspend})

	return km
}

var actionNames = map[string]input.ActionKind{
	"move_left":          input.ActionMoveLeft,
	"move_right":         input.ActionMoveRight,
	"move_up":            input.ActionMoveUp,
	"move_down":          input.ActionMoveDown,
	"move_word_forward":  input.ActionMoveWordForward,
	"move_word_backward": input.ActionMoveWordBackward,
	"move_line_start":    input.ActionMoveLineStart,
	"move_line_end":      input.ActionMoveLineEnd,
	"move_doc_start":     input.ActionMoveDocStart,
	"move_doc_end":       input.ActionMoveDocEnd,
	"page_up":            input.ActionMovePageUp,
	"page_down":          input.ActionMovePageDown,
	"backspace":          input.ActionBackspace,
	"delete":             input.ActionDelete,
	"delete_line":        input.ActionDeleteLine,
	"undo":               input.ActionUndo,
	"redo":               input.ActionRedo,
	"add_cursor_below":   input.ActionAddCursorBelow,
	"add_cursor_above":   input.ActionAddCursorAbove,
	"collapse_cursors":   input.ActionCollapseCursors,
	"select_word":        input.ActionSelectWord,
	"select_line":        input.ActionSelectLine,
	"select_all":         input.ActionSelectAll,
	"copy":               input.ActionCopy,
	"cut":                input.ActionCut,
	"paste":              input.ActionPaste,
	"scroll_line_up":     input.ActionScrollLineUp,
	"scroll_line_down":   input.ActionScrollLineDown,
	"toggle_wrap":        input.ActionToggleWrap,
	"save":               input.ActionSave,
	"open":               input.ActionOpen,
	"quit":               input.ActionQuit,
	"split_horizontal":   input.ActionSplitHorizontal,
	"split_vertical":     input.ActionSplitVertical,
	"close_split":        input.ActionCloseSplit,
	"focus_next_split":   input.ActionFocusNextSplit,
}

// applyConfigKeybindings layers the config's bindings over the defaults.
// Invalid entries are reported once and skipped; the defaults stay intact.
func (e *Editor) applyConfigKeybindings() {
	if len(e.cfg.Keybindings) == 0 {
		return
	}
	child := input.NewKeymap(e.keymap)
	bad := 0
	for _, kb := range e.cfg.Keybindings {
		chord, err := input.ParseChord(kb.Keys)
		if err != nil {
			bad++
			e.logger.Warn().Str("keys", kb.Keys).Err(err).Msg("invalid keybinding")
			continue
		}
		kind, ok := actionNames[kb.Action]
		if !ok {
			bad++
			e.logger.Warn().Str("action", kb.Action).Msg("unknown keybinding action")
			continue
		}
		var contexts []input.Context
		for _, c := range kb.Contexts {
			contexts = append(contexts, input.Context(c))
		}
		child.Bind(input.Binding{Keys: chord, Action: input.Action{Kind: kind}, Contexts: contexts})
	}
	if bad > 0 {
		e.status.warn("config", "%d invalid keybinding(s) ignored", bad)
	}
	e.keymap = child
}
