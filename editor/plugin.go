package editor

import (
	"encoding/json"

	"github.com/yididiel7/fresh/buffer"
	"github.com/yididiel7/fresh/event"
	"github.com/yididiel7/fresh/view"
)

// The collaborator surface. The LSP client and the plugin runtime live on
// the task pool; they observe buffers through read-only snapshots and feed
// work back through the AsyncBridge. Every mutation a plugin issues goes
// through the same log-append path as user input, so plugin edits are
// undoable. Each mutation call is its own undo step; the edits of one hook
// invocation are not grouped into a single step.

// LspSender is the outbound half of the LSP transport. Send must not block;
// responses come back as AsyncMessages.
type LspSender interface {
	Send(message []byte)
}

// SetLspSender attaches the transport once the collaborator starts.
func (e *Editor) SetLspSender(s LspSender) {
	e.lspSender = s
}

// lspNotify hands a snapshot-tagged notification to the transport. The
// payload carries the version the LSP layer echoes back as its baseline.
type lspNotify struct {
	Method  string `json:"method"`
	URI     string `json:"uri"`
	Version uint64 `json:"version"`
	Text    string `json:"text,omitempty"`
}

// NotifyLspChange publishes the current buffer content to the LSP layer.
// Non-blocking; a missing transport or disabled buffer is a no-op.
func (e *Editor) NotifyLspChange(id BufferID) {
	be, ok := e.buffers[id]
	if !ok || e.lspSender == nil || !be.state.Meta.LSPEnabled {
		return
	}
	snap := be.state.Snapshot()
	payload, err := json.Marshal(lspNotify{
		Method:  "textDocument/didChange",
		URI:     snap.URI,
		Version: snap.Version,
		Text:    string(snap.Bytes),
	})
	if err != nil {
		return
	}
	e.lspSender.Send(payload)
}

// HookKind enumerates the plugin hook points the core fires.
type HookKind int

const (
	HookBufferOpen HookKind = iota
	HookBufferSave
	HookMouseMove
)

// Hook is dispatched fire-and-forget; a slow or failing plugin cannot stall
// the core.
type Hook func(bufferID int)

// RegisterHook attaches a plugin hook.
func (e *Editor) RegisterHook(kind HookKind, h Hook) {
	e.hooks[kind] = append(e.hooks[kind], h)
}

func (e *Editor) fireHooks(kind HookKind, bufferID BufferID) {
	for _, h := range e.hooks[kind] {
		h := h
		go func() {
			defer func() {
				if r := recover(); r != nil {
					e.bridge.Send(AsyncMessage{Kind: MsgLspError, Err: "plugin hook panicked"})
				}
			}()
			h(int(bufferID))
		}()
	}
}

// PluginAPI is the mutation and query surface handed to the plugin runtime.
// All methods must be called from the core task (plugin callbacks arrive
// through the bridge, so this holds by construction).
type PluginAPI struct {
	e *Editor
}

func (e *Editor) Plugins() *PluginAPI {
	return &PluginAPI{e: e}
}

// BufferInfo is the plugin-visible description of one buffer.
type BufferInfo struct {
	ID       int
	Name     string
	Path     string
	Length   int
	ReadOnly bool
	Modified bool
}

func (p *PluginAPI) Buffers() []BufferInfo {
	var out []BufferInfo
	for id, be := range p.e.buffers {
		out = append(out, BufferInfo{
			ID:       int(id),
			Name:     be.state.Meta.DisplayName,
			Path:     be.state.Meta.Path,
			Length:   be.state.Buf.Len(),
			ReadOnly: be.state.ReadOnly,
			Modified: be.modified(),
		})
	}
	return out
}

// Snapshot returns the read-only view of a buffer at its current version.
func (p *PluginAPI) Snapshot(bufferID int) (event.Snapshot, bool) {
	be, ok := p.e.buffers[BufferID(bufferID)]
	if !ok {
		return event.Snapshot{}, false
	}
	return be.state.Snapshot(), true
}

// Cursors returns the cursor and selection state of a buffer.
func (p *PluginAPI) Cursors(bufferID int) []buffer.Cursor {
	be, ok := p.e.buffers[BufferID(bufferID)]
	if !ok {
		return nil
	}
	return be.state.Cursors.Cursors()
}

// Insert splices text through the buffer's event log.
func (p *PluginAPI) Insert(bufferID, position int, text string) error {
	be, ok := p.e.buffers[BufferID(bufferID)]
	if !ok {
		return errBufferGone
	}
	id := be.state.Cursors.Primary().ID
	return be.log.Append(be.state, event.Insert(id, position, []byte(text)))
}

// Delete removes a range through the buffer's event log.
func (p *PluginAPI) Delete(bufferID, start, end int) error {
	be, ok := p.e.buffers[BufferID(bufferID)]
	if !ok {
		return errBufferGone
	}
	start, end = be.state.Buf.WidenToBoundaries(start, end)
	id := be.state.Cursors.Primary().ID
	return be.log.Append(be.state, event.Delete(id, start, be.state.Buf.Slice(start, end)))
}

// Replace swaps a range through the buffer's event log.
func (p *PluginAPI) Replace(bufferID, start, end int, text string) error {
	be, ok := p.e.buffers[BufferID(bufferID)]
	if !ok {
		return errBufferGone
	}
	start, end = be.state.Buf.WidenToBoundaries(start, end)
	id := be.state.Cursors.Primary().ID
	return be.log.Append(be.state, event.Replace(id, start, be.state.Buf.Slice(start, end), []byte(text)))
}

// AddOverlay attaches a styled range; the id prefix convention lets the
// plugin clear its family with RemoveOverlayPrefix.
func (p *PluginAPI) AddOverlay(bufferID int, o view.Overlay) {
	if be, ok := p.e.buffers[BufferID(bufferID)]; ok {
		be.overlays.AddOverlay(o)
		p.e.dirty = true
	}
}

func (p *PluginAPI) RemoveOverlayPrefix(bufferID int, prefix string) {
	if be, ok := p.e.buffers[BufferID(bufferID)]; ok {
		be.overlays.RemoveOverlayPrefix(prefix)
		p.e.dirty = true
	}
}

func (p *PluginAPI) AddVirtualText(bufferID int, vt view.VirtualText) {
	if be, ok := p.e.buffers[BufferID(bufferID)]; ok {
		be.overlays.AddVirtualText(vt)
		p.e.dirty = true
	}
}

// OpenVirtualBuffer creates a buffer not backed by a file and shows it in
// the active split.
func (p *PluginAPI) OpenVirtualBuffer(name, mode, content string) int {
	be := p.e.newBufferEntry(buffer.FromBytes([]byte(content)), buffer.NewVirtualMetadata(name, mode))
	p.e.releaseBuffer(p.e.active.leaf.BufferID)
	be.refs++
	p.e.active.leaf.BufferID = be.id
	p.e.active.leaf.Viewport.TopByte = 0
	p.e.dirty = true
	return int(be.id)
}

type bufferGoneError struct{}

func (bufferGoneError) Error() string { return "buffer no longer exists" }

var errBufferGone = bufferGoneError{}
