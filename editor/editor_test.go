package editor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/require"

	"github.com/yididiel7/fresh/config"
	"github.com/yididiel7/fresh/input"
	"github.com/yididiel7/fresh/view"
)

func newTestEditor(t *testing.T, paths []string, opts Options) *Editor {
	t.Helper()
	cfg := config.Resolve()
	e, err := NewEditor(cfg, config.DirsAt(t.TempDir()), paths, opts)
	require.NoError(t, err)
	return e
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewEditorCreatesScratchBuffer(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	require.Len(t, e.buffers, 1)
	require.NotNil(t, e.active.leaf)
	require.True(t, e.active.leaf.Focused)
}

func TestOpenFileDeduplicatesByPath(t *testing.T) {
	path := writeFile(t, "a.txt", "hello\n")
	e := newTestEditor(t, []string{path}, Options{})
	be1, err := e.openFile(path, false)
	require.NoError(t, err)
	require.Len(t, e.buffers, 1)
	require.Equal(t, e.active.leaf.BufferID, be1.id)
}

func TestOpenWithLineOption(t *testing.T) {
	path := writeFile(t, "a.txt", "one\ntwo\nthree\nfour\n")
	e := newTestEditor(t, []string{path}, Options{Line: 3})
	be := e.activeBuffer()
	require.Equal(t, 8, be.state.Cursors.Primary().Position) // start of "three"
}

func TestReadOnlyOption(t *testing.T) {
	path := writeFile(t, "a.txt", "x")
	e := newTestEditor(t, []string{path}, Options{ReadOnly: true})
	require.True(t, e.activeBuffer().state.ReadOnly)
}

func TestBinaryFileOpensReadOnly(t *testing.T) {
	path := writeFile(t, "bin", "ab\x00cd")
	e := newTestEditor(t, []string{path}, Options{})
	be := e.activeBuffer()
	require.True(t, be.state.Meta.Binary)
	require.True(t, be.state.ReadOnly)
	require.False(t, be.state.Meta.LSPEnabled)
}

func TestSplitSharesBufferAndCloseReleases(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	bufID := e.active.leaf.BufferID
	require.Equal(t, 1, e.buffers[bufID].refs)

	e.splitActive(false)
	require.Equal(t, 2, e.buffers[bufID].refs)

	// two leaves now exist, both showing the same buffer
	var leaves int
	e.splits.traverse(func(*splitTree) { leaves++ })
	require.Equal(t, 2, leaves)

	e.closeActiveSplit()
	require.Equal(t, 1, e.buffers[bufID].refs)
	leaves = 0
	e.splits.traverse(func(*splitTree) { leaves++ })
	require.Equal(t, 1, leaves)
}

func TestClosingLastSplitQuits(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	e.closeActiveSplit()
	require.True(t, e.quitFlag)
}

func TestFocusNextSplitCycles(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	e.splitActive(true)
	first := e.active.leaf.ID
	e.handleAction(input.Action{Kind: input.ActionFocusNextSplit})
	require.NotEqual(t, first, e.active.leaf.ID)
	e.handleAction(input.Action{Kind: input.ActionFocusNextSplit})
	require.Equal(t, first, e.active.leaf.ID)
}

func TestKeyEventDrivesExecutor(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	ev := termbox.Event{Type: termbox.EventKey, Ch: 'h'}
	require.NoError(t, e.handleEvent(&ev))
	require.Equal(t, "h", string(e.activeBuffer().state.Buf.Bytes()))
}

func TestQuitActionStopsLoop(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	ev := termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlQ}
	require.ErrorIs(t, e.handleEvent(&ev), ErrQuit)
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeFile(t, "a.txt", "line one\nline two\n")
	e := newTestEditor(t, []string{path}, Options{})
	be := e.activeBuffer()
	require.True(t, be.modified() == false)

	ev := termbox.Event{Type: termbox.EventKey, Ch: 'X'}
	require.NoError(t, e.handleEvent(&ev))
	require.True(t, be.modified())

	e.saveActive()
	require.False(t, be.modified())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Xline one\nline two\n", string(data))
}

func TestSaveFailureLeavesBufferIntact(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	// scratch buffer has no file name
	e.saveActive()
	require.Equal(t, "No file name", e.status.current)
}

func TestAsyncDiagnosticsApplyAtMatchingVersion(t *testing.T) {
	path := writeFile(t, "a.go", "package a\n")
	e := newTestEditor(t, []string{path}, Options{})
	be := e.activeBuffer()

	e.handleAsync(AsyncMessage{
		Kind:            MsgLspDiagnostics,
		URI:             be.state.Meta.URI,
		BaselineVersion: be.state.Version,
		Diagnostics:     []Diagnostic{{Start: 0, End: 7, Message: "oops"}},
	})
	require.Len(t, be.diagnostics, 1)
	require.Len(t, be.overlays.OverlaysIn(0, 100), 1)
}

// A response whose baseline is behind the buffer's version is dropped: the
// buffer moved on while the request was in flight.
func TestAsyncDiagnosticsDroppedWhenStale(t *testing.T) {
	path := writeFile(t, "a.go", "package a\n")
	e := newTestEditor(t, []string{path}, Options{})
	be := e.activeBuffer()
	stale := be.state.Version

	ev := termbox.Event{Type: termbox.EventKey, Ch: 'x'}
	require.NoError(t, e.handleEvent(&ev))

	e.handleAsync(AsyncMessage{
		Kind:            MsgLspDiagnostics,
		URI:             be.state.Meta.URI,
		BaselineVersion: stale,
		Diagnostics:     []Diagnostic{{Start: 0, End: 7}},
	})
	require.Empty(t, be.diagnostics)
	require.Empty(t, be.overlays.OverlaysIn(0, 100))
}

func TestAsyncErrorLandsInWarningLog(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	e.handleAsync(AsyncMessage{Kind: MsgLspError, Err: "server crashed"})
	require.Equal(t, 1, e.status.warnings.Len())
	w, _ := e.status.warnings.Last()
	require.Equal(t, "lsp", w.Source)
}

func TestBridgeDropsWhenFull(t *testing.T) {
	b := NewAsyncBridge()
	sent := 0
	for i := 0; i < bridgeCapacity+10; i++ {
		if b.Send(AsyncMessage{Kind: MsgLspError}) {
			sent++
		}
	}
	require.Equal(t, bridgeCapacity, sent)

	drained := b.Drain(bridgeCapacity * 2)
	require.Len(t, drained, bridgeCapacity)
}

func TestBridgeRequestIDsMonotonic(t *testing.T) {
	b := NewAsyncBridge()
	a := b.NextRequestID()
	require.Greater(t, b.NextRequestID(), a)
}

func TestChordPrefixTimesOut(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	ev := termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlX}
	require.NoError(t, e.handleEvent(&ev))
	require.True(t, e.dispatcher.Pending())
	require.True(t, e.dispatcher.CheckTimeout(time.Now().Add(2*time.Second)))
}

func TestConfigKeybindingOverridesDefault(t *testing.T) {
	cfg := config.Resolve(&config.Config{
		Keybindings: []config.KeybindingConfig{
			{Keys: "ctrl+g", Action: "quit"},
			{Keys: "totally bogus spec+++", Action: "quit"},
			{Keys: "ctrl+f", Action: "no_such_action"},
		},
	})
	e, err := NewEditor(cfg, config.DirsAt(t.TempDir()), nil, Options{})
	require.NoError(t, err)

	// the valid binding resolved, the invalid ones were dropped with a warning
	ev := termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlG}
	require.ErrorIs(t, e.handleEvent(&ev), ErrQuit)
	require.GreaterOrEqual(t, e.status.warnings.Len(), 1)
}

func TestStatusHistoryIsBounded(t *testing.T) {
	s := newStatusBar(5)
	for i := 0; i < 200; i++ {
		s.set("message %d", i)
	}
	require.Equal(t, statusHistorySize, s.history.Len())
}

type recordingSender struct {
	messages [][]byte
}

func (r *recordingSender) Send(m []byte) { r.messages = append(r.messages, m) }

func TestLspChangeNotificationsFollowEdits(t *testing.T) {
	path := writeFile(t, "a.go", "package a\n")
	e := newTestEditor(t, []string{path}, Options{})
	sender := &recordingSender{}
	e.SetLspSender(sender)

	ev := termbox.Event{Type: termbox.EventKey, Ch: 'x'}
	require.NoError(t, e.handleEvent(&ev))
	require.NotEmpty(t, sender.messages)
	require.Contains(t, string(sender.messages[0]), "textDocument/didChange")
}

func TestPluginMutationsAreUndoable(t *testing.T) {
	path := writeFile(t, "a.txt", "hello")
	e := newTestEditor(t, []string{path}, Options{})
	api := e.Plugins()
	be := e.activeBuffer()

	require.NoError(t, api.Insert(int(be.id), 5, " world"))
	require.Equal(t, "hello world", string(be.state.Buf.Bytes()))

	// a plugin edit rides the same log as user input
	e.handleAction(input.Action{Kind: input.ActionUndo})
	require.Equal(t, "hello", string(be.state.Buf.Bytes()))
}

func TestPluginVirtualBuffer(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	api := e.Plugins()
	id := api.OpenVirtualBuffer("*scratch*", "scratch", "generated\ncontent")
	be := e.activeBuffer()
	require.Equal(t, id, int(be.id))
	require.Equal(t, "*scratch*", be.state.Meta.DisplayName)
	require.Equal(t, "generated\ncontent", string(be.state.Buf.Bytes()))

	infos := api.Buffers()
	require.Len(t, infos, 1)
}

func TestPluginOverlayLifecycle(t *testing.T) {
	path := writeFile(t, "a.txt", "hello world")
	e := newTestEditor(t, []string{path}, Options{})
	api := e.Plugins()
	be := e.activeBuffer()

	api.AddOverlay(int(be.id), view.Overlay{ID: "demo.hl.1", Start: 0, End: 5})
	api.AddOverlay(int(be.id), view.Overlay{ID: "demo.hl.2", Start: 6, End: 11})
	require.Len(t, be.overlays.OverlaysIn(0, 100), 2)

	api.RemoveOverlayPrefix(int(be.id), "demo.hl.")
	require.Empty(t, be.overlays.OverlaysIn(0, 100))
}

func TestContextStack(t *testing.T) {
	e := newTestEditor(t, nil, Options{})
	e.PushContext("plugin.picker")
	require.Equal(t, []string{"plugin.picker"}, e.contextStack)
	e.PopContext("plugin.picker")
	require.Empty(t, e.contextStack)
}
