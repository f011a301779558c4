package view

import (
	"sort"
	"strings"
)

// Overlay is a styled byte range attached to a buffer without modifying its
// content. Overlays are keyed by id; an id prefix removes a whole family at
// once, which is how plugins clear their decorations per hook invocation.
type Overlay struct {
	ID    string
	Start int
	End   int
	Style Style
}

// Placement positions virtual text relative to its source line.
type Placement int

const (
	PlacementPreLine Placement = iota
	PlacementInline
	PlacementPostLine
)

// VirtualText is injected content: rendered by the pipeline, absent from the
// buffer. Inline text appears at Position; pre/post-line text becomes its own
// row above or below the line containing Position.
type VirtualText struct {
	ID        string
	Position  int
	Placement Placement
	Text      string
	Style     Style
}

// OverlaySet holds the decorations of one buffer in a deterministic order.
type OverlaySet struct {
	overlays []Overlay
	virtual  []VirtualText
}

func NewOverlaySet() *OverlaySet {
	return &OverlaySet{}
}

func (os *OverlaySet) AddOverlay(o Overlay) {
	os.RemoveOverlay(o.ID)
	os.overlays = append(os.overlays, o)
	sort.SliceStable(os.overlays, func(i, j int) bool { return os.overlays[i].Start < os.overlays[j].Start })
}

func (os *OverlaySet) RemoveOverlay(id string) {
	os.overlays = removeByID(os.overlays, func(o Overlay) string { return o.ID }, id, false)
}

// RemoveOverlayPrefix removes every overlay whose id starts with prefix.
func (os *OverlaySet) RemoveOverlayPrefix(prefix string) {
	os.overlays = removeByID(os.overlays, func(o Overlay) string { return o.ID }, prefix, true)
}

func (os *OverlaySet) AddVirtualText(vt VirtualText) {
	os.RemoveVirtualText(vt.ID)
	os.virtual = append(os.virtual, vt)
	sort.SliceStable(os.virtual, func(i, j int) bool { return os.virtual[i].Position < os.virtual[j].Position })
}

func (os *OverlaySet) RemoveVirtualText(id string) {
	os.virtual = removeByID(os.virtual, func(v VirtualText) string { return v.ID }, id, false)
}

func (os *OverlaySet) RemoveVirtualTextPrefix(prefix string) {
	os.virtual = removeByID(os.virtual, func(v VirtualText) string { return v.ID }, prefix, true)
}

// Clear drops every decoration.
func (os *OverlaySet) Clear() {
	os.overlays = nil
	os.virtual = nil
}

// OverlaysIn returns the overlays intersecting [start, end).
func (os *OverlaySet) OverlaysIn(start, end int) []Overlay {
	var out []Overlay
	for _, o := range os.overlays {
		if o.Start < end && o.End > start {
			out = append(out, o)
		}
	}
	return out
}

// VirtualIn returns the virtual texts anchored in [start, end).
func (os *OverlaySet) VirtualIn(start, end int) []VirtualText {
	var out []VirtualText
	for _, v := range os.virtual {
		if v.Position >= start && v.Position < end {
			out = append(out, v)
		}
	}
	return out
}

// AdjustForEdit shifts decoration anchors for an edit, following the cursor
// re-anchoring rule.
func (os *OverlaySet) AdjustForEdit(start, removed, inserted int) {
	adjust := func(pos int) int {
		switch {
		case pos < start:
			return pos
		case pos < start+removed:
			return start + inserted
		default:
			return pos + inserted - removed
		}
	}
	for i := range os.overlays {
		os.overlays[i].Start = adjust(os.overlays[i].Start)
		os.overlays[i].End = adjust(os.overlays[i].End)
	}
	for i := range os.virtual {
		os.virtual[i].Position = adjust(os.virtual[i].Position)
	}
}

func removeByID[T any](items []T, id func(T) string, key string, prefix bool) []T {
	out := items[:0]
	for _, item := range items {
		match := id(item) == key
		if prefix {
			match = strings.HasPrefix(id(item), key)
		}
		if !match {
			out = append(out, item)
		}
	}
	return out
}
