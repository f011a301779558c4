package chunktree

//----------------------------------------------------------------------------
// piece iterator
//----------------------------------------------------------------------------

// PieceIterator yields the non-empty leaves and gaps of a tree in order.
type PieceIterator struct {
	stack []pieceFrame
}

type pieceFrame struct {
	node     node
	childIdx int
}

func (t Tree) Iter() *PieceIterator {
	it := &PieceIterator{}
	it.stack = append(it.stack, pieceFrame{node: t.root})
	return it
}

func (it *PieceIterator) Next() (Piece, bool) {
	for len(it.stack) > 0 {
		frame := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		if isEmptyNode(frame.node) {
			// hide empty leaves and zero gaps
			continue
		}
		switch t := frame.node.(type) {
		case leaf:
			return Piece{Data: t}, true
		case gap:
			return Piece{Gap: int(t)}, true
		case *internal:
			if frame.childIdx+1 < len(t.children) {
				it.stack = append(it.stack, pieceFrame{node: frame.node, childIdx: frame.childIdx + 1})
			}
			it.stack = append(it.stack, pieceFrame{node: t.children[frame.childIdx]})
		}
	}
	return Piece{}, false
}

//----------------------------------------------------------------------------
// byte range iterator
//
// Collects the chunks overlapping [start, end) on construction and then steps
// through them from either end. Gap chunks materialize as GapByte.
//----------------------------------------------------------------------------

type chunkRef struct {
	start int
	data  []byte // nil for a gap chunk
	size  int
}

type ByteRangeIterator struct {
	chunks []chunkRef

	frontChunk  int
	frontOffset int
	backChunk   int
	backOffset  int
}

// BytesRange returns a byte iterator over [start, end), both clamped to Len.
func (t Tree) BytesRange(start, end int) *ByteRangeIterator {
	if start > t.Len() {
		start = t.Len()
	}
	if end > t.Len() {
		end = t.Len()
	}
	var chunks []chunkRef
	collectChunks(t.root, start, end, 0, &chunks)

	backChunk := len(chunks) - 1
	backOffset := 0
	if backChunk >= 0 {
		backOffset = chunks[backChunk].size
	} else {
		backChunk = 0
	}
	return &ByteRangeIterator{
		chunks:     chunks,
		backChunk:  backChunk,
		backOffset: backOffset,
	}
}

// BytesFrom returns a byte iterator from start to the end of the tree.
func (t Tree) BytesFrom(start int) *ByteRangeIterator {
	return t.BytesRange(start, t.Len())
}

func collectChunks(n node, start, end, pos int, out *[]chunkRef) {
	nodeEnd := pos + n.length()
	if nodeEnd <= start || pos >= end || n.length() == 0 {
		return
	}
	from := 0
	if start > pos {
		from = start - pos
	}
	to := n.length()
	if end < nodeEnd {
		to = end - pos
	}
	switch t := n.(type) {
	case leaf:
		*out = append(*out, chunkRef{start: pos + from, data: t[from:to], size: to - from})
	case gap:
		*out = append(*out, chunkRef{start: pos + from, size: to - from})
	case *internal:
		childPos := pos
		for _, child := range t.children {
			collectChunks(child, start, end, childPos, out)
			childPos += child.length()
		}
	}
}

// Next yields the next byte from the front, or false when the front meets the
// back.
func (it *ByteRangeIterator) Next() (byte, bool) {
	for it.frontChunk < len(it.chunks) {
		if it.frontChunk == it.backChunk && it.frontOffset >= it.backOffset {
			return 0, false
		}
		chunk := it.chunks[it.frontChunk]
		if it.frontOffset < chunk.size {
			b := byte(GapByte)
			if chunk.data != nil {
				b = chunk.data[it.frontOffset]
			}
			it.frontOffset++
			return b, true
		}
		it.frontChunk++
		it.frontOffset = 0
	}
	return 0, false
}

// NextBack yields the next byte from the back.
func (it *ByteRangeIterator) NextBack() (byte, bool) {
	for it.backChunk >= 0 && it.backChunk < len(it.chunks) {
		if it.frontChunk == it.backChunk && it.backOffset <= it.frontOffset {
			return 0, false
		}
		if it.backOffset > 0 {
			chunk := it.chunks[it.backChunk]
			it.backOffset--
			b := byte(GapByte)
			if chunk.data != nil {
				b = chunk.data[it.backOffset]
			}
			return b, true
		}
		it.backChunk--
		if it.backChunk >= 0 {
			it.backOffset = it.chunks[it.backChunk].size
		}
	}
	return 0, false
}

//----------------------------------------------------------------------------
// byte cursor
//
// A bidirectional cursor with O(log n) seek and O(1) amortized step. The
// cursor keeps the path from the root to the current leaf; moving within a
// leaf touches only the top of the stack.
//----------------------------------------------------------------------------

type cursorFrame struct {
	node      node
	childIdx  int
	nodeStart int
}

type ByteIterator struct {
	root     node
	stack    []cursorFrame
	position int
	treeLen  int
}

// BytesAt returns a cursor positioned at position, clamped to Len.
func (t Tree) BytesAt(position int) *ByteIterator {
	it := &ByteIterator{root: t.root, treeLen: t.root.length()}
	it.Seek(position)
	return it
}

func (it *ByteIterator) Position() int {
	return it.position
}

// Seek repositions the cursor, rebuilding the root-to-leaf path.
func (it *ByteIterator) Seek(position int) {
	it.stack = it.stack[:0]
	if position > it.treeLen {
		position = it.treeLen
	}
	it.position = position
	if it.position >= it.treeLen {
		return
	}

	n := it.root
	nodeStart := 0
	for {
		inner, ok := n.(*internal)
		if !ok {
			it.stack = append(it.stack, cursorFrame{node: n, nodeStart: nodeStart})
			return
		}
		pos := nodeStart
		for childIdx, child := range inner.children {
			childEnd := pos + child.length()
			if position < childEnd {
				it.stack = append(it.stack, cursorFrame{node: n, childIdx: childIdx, nodeStart: nodeStart})
				n = child
				nodeStart = pos
				break
			}
			pos = childEnd
		}
	}
}

// Peek returns the byte under the cursor without moving.
func (it *ByteIterator) Peek() (byte, bool) {
	if it.position >= it.treeLen || len(it.stack) == 0 {
		return 0, false
	}
	top := it.stack[len(it.stack)-1]
	offset := it.position - top.nodeStart
	switch t := top.node.(type) {
	case leaf:
		if offset < len(t) {
			return t[offset], true
		}
	case gap:
		return GapByte, true
	}
	return 0, false
}

// Next returns the byte under the cursor and advances.
func (it *ByteIterator) Next() (byte, bool) {
	b, ok := it.Peek()
	if !ok {
		return 0, false
	}
	it.advance()
	return b, true
}

// Prev moves backward and returns the byte now under the cursor.
func (it *ByteIterator) Prev() (byte, bool) {
	if !it.retreat() {
		return 0, false
	}
	return it.Peek()
}

func (it *ByteIterator) advance() bool {
	if it.position >= it.treeLen {
		return false
	}
	it.position++
	if it.position >= it.treeLen {
		return false
	}
	if len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		if it.position < top.nodeStart+top.node.length() {
			return true
		}
	}
	pos := it.position
	it.Seek(pos)
	return true
}

func (it *ByteIterator) retreat() bool {
	if it.position == 0 {
		return false
	}
	it.position--
	if len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		if it.position >= top.nodeStart {
			return true
		}
	}
	pos := it.position
	it.Seek(pos)
	return true
}
