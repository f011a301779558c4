package editor

import (
	"github.com/nsf/tulib"

	"github.com/yididiel7/fresh/view"
)

// BufferID and SplitID are opaque, allocated monotonically by the editor.
type BufferID int

type SplitID int

// SplitViewState is the per-split state: which buffer the split shows and
// the viewport scrolling it.
type SplitViewState struct {
	ID       SplitID
	BufferID BufferID
	Viewport *view.Viewport
	Focused  bool
}

//----------------------------------------------------------------------------
// split tree
//
// At the same time only one of these groups can be valid:
// 1) 'left', 'right' and 'split'
// 2) 'top', 'bottom' and 'split'
// 3) 'leaf'
//----------------------------------------------------------------------------

type splitTree struct {
	parent *splitTree
	left   *splitTree
	top    *splitTree
	right  *splitTree
	bottom *splitTree
	leaf   *SplitViewState
	split  float32
	tulib.Rect // updated with 'resize' call
}

func newSplitTreeLeaf(parent *splitTree, s *SplitViewState) *splitTree {
	return &splitTree{parent: parent, leaf: s}
}

// splitHorizontally stacks the current leaf on top of a new split showing
// the same buffer.
func (t *splitTree) splitHorizontally(newLeaf *SplitViewState) {
	top := t.leaf
	*t = splitTree{
		parent: t.parent,
		top:    newSplitTreeLeaf(t, top),
		bottom: newSplitTreeLeaf(t, newLeaf),
		split:  0.5,
		Rect:   t.Rect,
	}
}

func (t *splitTree) splitVertically(newLeaf *SplitViewState) {
	left := t.leaf
	*t = splitTree{
		parent: t.parent,
		left:   newSplitTreeLeaf(t, left),
		right:  newSplitTreeLeaf(t, newLeaf),
		split:  0.5,
		Rect:   t.Rect,
	}
}

func (t *splitTree) resize(pos tulib.Rect) {
	t.Rect = pos
	if t.leaf != nil {
		t.leaf.Viewport.Resize(pos.Width, pos.Height)
		return
	}

	if t.left != nil {
		// vertical divider takes one column
		w := pos.Width
		if w > 0 {
			w--
		}
		lw := int(float32(w) * t.split)
		rw := w - lw
		t.left.resize(tulib.Rect{X: pos.X, Y: pos.Y, Width: lw, Height: pos.Height})
		t.right.resize(tulib.Rect{X: pos.X + lw + 1, Y: pos.Y, Width: rw, Height: pos.Height})
	} else {
		h := pos.Height
		th := int(float32(h) * t.split)
		bh := h - th
		t.top.resize(tulib.Rect{X: pos.X, Y: pos.Y, Width: pos.Width, Height: th})
		t.bottom.resize(tulib.Rect{X: pos.X, Y: pos.Y + th, Width: pos.Width, Height: bh})
	}
}

func (t *splitTree) traverse(cb func(*splitTree)) {
	if t.leaf != nil {
		cb(t)
		return
	}
	if t.left != nil {
		t.left.traverse(cb)
		t.right.traverse(cb)
	} else if t.top != nil {
		t.top.traverse(cb)
		t.bottom.traverse(cb)
	}
}

func (t *splitTree) reparent() {
	if t.left != nil {
		t.left.parent = t
		t.right.parent = t
	} else if t.top != nil {
		t.top.parent = t
		t.bottom.parent = t
	}
}

func (t *splitTree) sibling() *splitTree {
	p := t.parent
	if p == nil {
		return nil
	}
	switch {
	case t == p.left:
		return p.right
	case t == p.right:
		return p.left
	case t == p.top:
		return p.bottom
	case t == p.bottom:
		return p.top
	}
	panic("unreachable")
}

func (t *splitTree) firstLeafNode() *splitTree {
	if t.left != nil {
		return t.left.firstLeafNode()
	} else if t.top != nil {
		return t.top.firstLeafNode()
	} else if t.leaf != nil {
		return t
	}
	panic("unreachable")
}

// nextLeaf cycles through leaves in traversal order.
func (t *splitTree) nextLeaf(after *splitTree) *splitTree {
	var leaves []*splitTree
	t.traverse(func(n *splitTree) { leaves = append(leaves, n) })
	for i, n := range leaves {
		if n == after {
			return leaves[(i+1)%len(leaves)]
		}
	}
	return leaves[0]
}

// close removes this leaf from the tree, collapsing the parent onto the
// sibling. Returns the leaf to focus next, or nil when this was the root.
func (t *splitTree) close() *splitTree {
	p := t.parent
	if p == nil {
		return nil
	}
	pp := p.parent
	sib := t.sibling()
	*p = *sib
	p.parent = pp
	p.reparent()
	return p.firstLeafNode()
}
