// Package editor owns the single-threaded core: buffers, splits, input
// dispatch and the event loop. External work reaches the core only through
// the AsyncBridge; nothing here blocks on I/O besides file open and save.
package editor

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nsf/termbox-go"
	"github.com/nsf/tulib"
	"github.com/rs/zerolog"

	"github.com/yididiel7/fresh/buffer"
	"github.com/yididiel7/fresh/config"
	"github.com/yididiel7/fresh/event"
	"github.com/yididiel7/fresh/input"
	"github.com/yididiel7/fresh/view"
)

// ErrQuit signals a clean exit from the event loop.
var ErrQuit = errors.New("quit")

const bridgeDrainBudget = 32

type bufferEntry struct {
	id       BufferID
	state    *event.BufferState
	log      *event.Log
	overlays *view.OverlaySet
	// refs counts the splits showing this buffer; the buffer dies with its
	// last reference.
	refs         int
	savedVersion uint64
	diagnostics  []Diagnostic
}

func (be *bufferEntry) modified() bool {
	return be.state.Version != be.savedVersion
}

// Options configures editor construction from the CLI.
type Options struct {
	ReadOnly bool
	Line     int // 1-based; 0 means unset
}

type Editor struct {
	cfg  *config.Config
	dirs config.Dirs

	uiBuf   tulib.Buffer
	buffers map[BufferID]*bufferEntry
	nextBuf BufferID
	nextSpl SplitID

	splits *splitTree
	active *splitTree

	keymap     *input.Keymap
	dispatcher *input.Dispatcher
	mouse      *input.Mouse
	clipboard  input.Clipboard

	bridge    *AsyncBridge
	status    *statusBar
	theme     view.Theme
	layout    input.CachedLayout
	logger    zerolog.Logger
	lspSender LspSender
	hooks     map[HookKind][]Hook

	searchHistory  *config.History
	replaceHistory *config.History

	// custom contexts pushed by plugins, innermost last
	contextStack []string
	promptOpen   bool

	quitFlag bool
	dirty    bool

	// Events is fed by the termbox poll goroutine.
	Events chan termbox.Event
}

func NewEditor(cfg *config.Config, dirs config.Dirs, paths []string, opts Options) (*Editor, error) {
	warnCap := 0
	if cfg.Warnings != nil && cfg.Warnings.MaxEntries != nil {
		warnCap = *cfg.Warnings.MaxEntries
	}
	e := &Editor{
		cfg:            cfg,
		dirs:           dirs,
		buffers:        map[BufferID]*bufferEntry{},
		mouse:          input.NewMouse(),
		clipboard:      newSystemClipboard(),
		bridge:         NewAsyncBridge(),
		hooks:          map[HookKind][]Hook{},
		status:         newStatusBar(warnCap),
		theme:          view.DefaultTheme(),
		logger:         newLogger(dirs),
		searchHistory:  config.LoadHistory(dirs.SearchHistoryPath()),
		replaceHistory: config.LoadHistory(dirs.ReplaceHistoryPath()),
		Events:         make(chan termbox.Event, 20),
	}
	e.mouse.DoubleClickTime = time.Duration(*cfg.DoubleClickTimeMs) * time.Millisecond
	e.keymap = DefaultKeymap()
	e.applyConfigKeybindings()
	e.dispatcher = input.NewDispatcher(e.keymap)

	var first *bufferEntry
	for _, path := range paths {
		be, err := e.openFile(path, opts.ReadOnly)
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = be
		}
	}
	if first == nil {
		first = e.newBufferEntry(buffer.NewEmpty(), buffer.NewVirtualMetadata("unnamed", ""))
		if opts.ReadOnly {
			first.state.ReadOnly = true
		}
	}

	leaf := e.newSplit(first)
	e.splits = newSplitTreeLeaf(nil, leaf)
	e.active = e.splits
	e.active.leaf.Focused = true

	if opts.Line > 0 {
		st := first.state
		pos := st.Buf.LineStartOfLine(opts.Line - 1)
		c := st.Cursors.Primary()
		c.Position = pos
		e.active.leaf.Viewport.ScrollTo(st.Buf, opts.Line-1)
	}
	return e, nil
}

func newLogger(dirs config.Dirs) zerolog.Logger {
	if err := dirs.EnsureDataDirs(); err != nil {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(dirs.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger()
}

func (e *Editor) Bridge() *AsyncBridge {
	return e.bridge
}

func (e *Editor) SetStatus(format string, args ...interface{}) {
	e.status.set(format, args...)
	e.dirty = true
}

//----------------------------------------------------------------------------
// buffers
//----------------------------------------------------------------------------

func (e *Editor) newBufferEntry(buf *buffer.Buffer, meta *buffer.Metadata) *bufferEntry {
	e.nextBuf++
	st := event.NewBufferState(buf, meta)
	if e.cfg.LargeFileThresholdB != nil {
		buf.SetLargeFileThreshold(*e.cfg.LargeFileThresholdB)
	}
	if e.cfg.EstimatedLineLength != nil {
		buf.SetEstimatedLineLength(*e.cfg.EstimatedLineLength)
	}
	if meta != nil && meta.Path != "" {
		_, _, tabSize := e.cfg.ForLanguage(extOf(meta.Path))
		buf.SetTabSize(tabSize)
	} else {
		buf.SetTabSize(*e.cfg.TabSize)
	}
	be := &bufferEntry{
		id:       e.nextBuf,
		state:    st,
		log:      event.NewLog(),
		overlays: view.NewOverlaySet(),
	}
	e.buffers[be.id] = be
	return be
}

func (e *Editor) openFile(path string, readonly bool) (*bufferEntry, error) {
	abs, err := filepath.Abs(path)
	if err == nil {
		for _, be := range e.buffers {
			if be.state.Meta.Path == abs {
				return be, nil
			}
		}
	}
	buf, meta, err := buffer.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		buf = buffer.NewEmpty()
		meta = buffer.NewFileMetadata(path)
		e.SetStatus("(New file)")
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if readonly {
		meta.ReadOnly = true
	}
	be := e.newBufferEntry(buf, meta)
	be.state.ReadOnly = meta.ReadOnly
	be.state.Language = extOf(meta.Path)
	e.logger.Info().Str("path", meta.Path).Int("bytes", buf.Len()).Msg("opened")
	e.fireHooks(HookBufferOpen, be.id)
	return be, nil
}

func extOf(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// releaseBuffer drops one split reference; the last one destroys the buffer
// and trims its log.
func (e *Editor) releaseBuffer(id BufferID) {
	be, ok := e.buffers[id]
	if !ok {
		return
	}
	be.refs--
	if be.refs <= 0 {
		be.log.Trim()
		delete(e.buffers, id)
	}
}

func (e *Editor) saveActive() {
	be := e.activeBuffer()
	meta := be.state.Meta
	if meta.Kind != buffer.KindFile || meta.Path == "" {
		e.SetStatus("No file name")
		return
	}
	trim, finalNL, _ := e.cfg.ForLanguage(extOf(meta.Path))
	opts := buffer.SaveOptions{TrimTrailingWhitespace: trim, EnsureFinalNewline: finalNL}
	if err := buffer.Save(be.state.Buf, meta.Path, opts); err != nil {
		// buffer state is untouched on failure
		e.status.warn("save", "%v", err)
		e.logger.Error().Err(err).Str("path", meta.Path).Msg("save failed")
		return
	}
	be.savedVersion = be.state.Version
	e.fireHooks(HookBufferSave, be.id)
	e.SetStatus("Wrote %s", meta.Path)
}

//----------------------------------------------------------------------------
// splits
//----------------------------------------------------------------------------

func (e *Editor) newSplit(be *bufferEntry) *SplitViewState {
	e.nextSpl++
	be.refs++
	vp := view.NewViewport(80, 24)
	vp.ScrollOffset = *e.cfg.ScrollOffset
	vp.LineWrapEnabled = *e.cfg.LineWrap
	return &SplitViewState{ID: e.nextSpl, BufferID: be.id, Viewport: vp}
}

func (e *Editor) activeBuffer() *bufferEntry {
	return e.buffers[e.active.leaf.BufferID]
}

func (e *Editor) splitActive(vertical bool) {
	be := e.activeBuffer()
	leaf := e.newSplit(be)
	// the new split starts at the same scroll position
	leaf.Viewport.TopByte = e.active.leaf.Viewport.TopByte
	if vertical {
		e.active.splitVertically(leaf)
		e.setActive(e.active.left)
	} else {
		e.active.splitHorizontally(leaf)
		e.setActive(e.active.top)
	}
	e.Resize()
}

func (e *Editor) closeActiveSplit() {
	next := e.active.close()
	if next == nil {
		// last split: closing it quits
		e.quitFlag = true
		return
	}
	e.releaseBuffer(e.active.leaf.BufferID)
	e.setActive(next)
	e.Resize()
}

func (e *Editor) setActive(t *splitTree) {
	if e.active != nil && e.active.leaf != nil {
		e.active.leaf.Focused = false
	}
	e.active = t
	e.active.leaf.Focused = true
}

func (e *Editor) focusSplitByID(id SplitID) {
	e.splits.traverse(func(t *splitTree) {
		if t.leaf != nil && t.leaf.ID == id {
			e.setActive(t)
		}
	})
}

//----------------------------------------------------------------------------
// contexts and dispatch
//----------------------------------------------------------------------------

// context computes the active key context from UI state.
func (e *Editor) context() input.Context {
	if e.promptOpen {
		return input.ContextPrompt
	}
	return input.ContextNormal
}

// PushContext and PopContext let the plugin layer scope its keybindings.
func (e *Editor) PushContext(name string) {
	e.contextStack = append(e.contextStack, name)
}

func (e *Editor) PopContext(name string) {
	for i := len(e.contextStack) - 1; i >= 0; i-- {
		if e.contextStack[i] == name {
			e.contextStack = append(e.contextStack[:i], e.contextStack[i+1:]...)
			return
		}
	}
}

func (e *Editor) execEnv() *input.Env {
	be := e.activeBuffer()
	return &input.Env{
		State:     be.state,
		Log:       be.log,
		Viewport:  e.active.leaf.Viewport,
		Clipboard: e.clipboard,
	}
}

func (e *Editor) handleAction(a input.Action) {
	env := e.execEnv()
	res := input.Execute(a, env)
	if res.Handled {
		if res.Status != "" {
			e.SetStatus("%s", res.Status)
		}
		if res.Redraw {
			e.dirty = true
			e.NotifyLspChange(e.active.leaf.BufferID)
		}
		return
	}

	switch a.Kind {
	case input.ActionQuit:
		e.quitFlag = true
	case input.ActionSave:
		e.saveActive()
		e.dirty = true
	case input.ActionOpen:
		if a.Arg != "" {
			be, err := e.openFile(a.Arg, false)
			if err != nil {
				e.status.warn("open", "%v", err)
				return
			}
			e.releaseBuffer(e.active.leaf.BufferID)
			be.refs++
			e.active.leaf.BufferID = be.id
			e.active.leaf.Viewport.TopByte = 0
		}
		e.dirty = true
	case input.ActionSplitHorizontal:
		e.splitActive(false)
		e.dirty = true
	case input.ActionSplitVertical:
		e.splitActive(true)
		e.dirty = true
	case input.ActionCloseSplit:
		e.closeActiveSplit()
		e.dirty = true
	case input.ActionFocusNextSplit:
		e.setActive(e.splits.nextLeaf(e.active))
		e.dirty = true
	case input.ActionOpenPrompt:
		e.promptOpen = true
		e.dirty = true
	case input.ActionSuspend:
		suspend(e)
		e.dirty = true
	}
}

func (e *Editor) handleEvent(ev *termbox.Event) error {
	switch ev.Type {
	case termbox.EventKey:
		e.status.current = ""
		actions := e.dispatcher.DispatchKey(ev, e.context(), e.contextStack, time.Now())
		for _, a := range actions {
			e.handleAction(a)
		}
		if e.quitFlag {
			return ErrQuit
		}
		e.dirty = true
	case termbox.EventMouse:
		env := e.execEnv()
		res := e.mouse.Dispatch(ev, &e.layout, env, time.Now())
		if res.FocusSplit >= 0 {
			e.focusSplitByID(SplitID(res.FocusSplit))
		}
		if res.Redraw {
			e.dirty = true
		}
	case termbox.EventResize:
		termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
		e.Resize()
		e.dirty = true
	case termbox.EventError:
		return ev.Err
	}
	return nil
}

// handleAsync merges one bridge message into core state. Stale responses
// (baseline behind the buffer's version) are dropped; messages never modify
// committed buffer state, only external metadata.
func (e *Editor) handleAsync(msg AsyncMessage) {
	switch msg.Kind {
	case MsgLspDiagnostics:
		be := e.bufferByURI(msg.URI)
		if be == nil {
			return
		}
		if msg.BaselineVersion != be.state.Version {
			e.logger.Debug().Uint64("baseline", msg.BaselineVersion).Msg("dropped stale diagnostics")
			return
		}
		be.diagnostics = msg.Diagnostics
		be.overlays.RemoveOverlayPrefix("lsp.diag.")
		for i, d := range msg.Diagnostics {
			be.overlays.AddOverlay(view.Overlay{
				ID:    "lsp.diag." + strconv.Itoa(i),
				Start: d.Start,
				End:   d.End,
				Style: view.Style{Fg: termbox.ColorRed},
			})
		}
		e.dirty = true
	case MsgLspError:
		e.status.warn("lsp", "%s", msg.Err)
		e.dirty = true
	case MsgFileChanged:
		e.status.warn("fs", "%s changed on disk", msg.Path)
		e.dirty = true
	case MsgPluginCallback:
		if msg.Callback != nil {
			msg.Callback()
			e.dirty = true
		}
	}
}

func (e *Editor) bufferByURI(uri string) *bufferEntry {
	for _, be := range e.buffers {
		if be.state.Meta.URI == uri {
			return be
		}
	}
	return nil
}

//----------------------------------------------------------------------------
// event loop
//----------------------------------------------------------------------------

// Loop runs the editor: drain terminal input, drain the bridge up to a
// budget, run expired timers, render once when anything changed.
func (e *Editor) Loop() error {
	timer := time.NewTicker(100 * time.Millisecond)
	defer timer.Stop()

	e.dirty = true
	for {
		if e.dirty {
			e.Draw()
			termbox.Flush()
			e.dirty = false
		}

		select {
		case ev := <-e.Events:
		consume:
			for {
				if err := e.handleEvent(&ev); err != nil {
					return err
				}
				select {
				case next := <-e.Events:
					ev = next
				default:
					break consume
				}
			}
		case msg := <-e.bridge.Chan():
			e.handleAsync(msg)
			for _, more := range e.bridge.Drain(bridgeDrainBudget - 1) {
				e.handleAsync(more)
			}
		case now := <-timer.C:
			if e.dispatcher.CheckTimeout(now) {
				e.SetStatus("Chord aborted")
			}
		}
	}
}

