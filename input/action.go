package input

// ActionKind enumerates the commands the dispatcher can emit. An Action is a
// pure description; the executor turns it into events against the active
// buffer, and anything it does not handle bubbles up to the editor.
type ActionKind int

const (
	ActionNone ActionKind = iota

	// cursor motion
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionMoveWordForward
	ActionMoveWordBackward
	ActionMoveLineStart
	ActionMoveLineEnd
	ActionMoveDocStart
	ActionMoveDocEnd
	ActionMovePageUp
	ActionMovePageDown
	ActionGotoLine

	// editing
	ActionInsertChar
	ActionInsertNewline
	ActionInsertTab
	ActionBackspace
	ActionDelete
	ActionDeleteLine
	ActionUndo
	ActionRedo

	// cursors and selection
	ActionAddCursorBelow
	ActionAddCursorAbove
	ActionCollapseCursors
	ActionSelectWord
	ActionSelectLine
	ActionSelectAll

	// clipboard
	ActionCopy
	ActionCut
	ActionPaste

	// view
	ActionScrollLineUp
	ActionScrollLineDown
	ActionToggleWrap

	// editor level: handled outside the executor
	ActionSave
	ActionOpen
	ActionQuit
	ActionSplitHorizontal
	ActionSplitVertical
	ActionCloseSplit
	ActionFocusNextSplit
	ActionOpenPrompt
	ActionSuspend
)

// Action is an ActionKind plus its arguments.
type Action struct {
	Kind ActionKind
	// Ch is the rune for InsertChar.
	Ch rune
	// Line is the 1-based target for GotoLine.
	Line int
	// Extend keeps the selection anchor during motion.
	Extend bool
	// Arg carries opaque arguments for editor-level actions.
	Arg string
}

// IsEditorLevel reports whether the action is resolved by the editor rather
// than the buffer executor.
func (a Action) IsEditorLevel() bool {
	switch a.Kind {
	case ActionSave, ActionOpen, ActionQuit, ActionSplitHorizontal,
		ActionSplitVertical, ActionCloseSplit, ActionFocusNextSplit,
		ActionOpenPrompt, ActionSuspend:
		return true
	}
	return false
}
