// Package chunktree implements the persistent rope backing every buffer.
//
// A tree value is immutable: Insert, Remove and Fill return a new tree whose
// root shares every unmodified subtree with the receiver. Gap nodes stand for
// runs of unallocated bytes and are materialized only on read, which makes
// sparse inserts beyond end-of-buffer O(log n).
package chunktree

import "fmt"

// GapByte is the byte value gaps materialize as when read through a byte
// iterator.
const GapByte = ' '

type Config struct {
	ChunkSize   int
	MaxChildren int
}

func NewConfig(chunkSize, maxChildren int) Config {
	if chunkSize <= 0 {
		panic("chunktree: chunk size must be positive")
	}
	if maxChildren < 3 {
		panic("chunktree: max children must be at least 3")
	}
	return Config{ChunkSize: chunkSize, MaxChildren: maxChildren}
}

// DefaultConfig is the production configuration. The small values used by the
// tests exercise node splitting; these keep leaves at a size where copying on
// edit stays cheap.
var DefaultConfig = Config{ChunkSize: 4096, MaxChildren: 16}

//----------------------------------------------------------------------------
// nodes
//
// Three node kinds: leaf (a byte slice), gap (a size without storage) and
// internal (children plus a cached subtree size). Nodes are frozen once
// created; every edit builds replacements bottom-up.
//----------------------------------------------------------------------------

type node interface {
	length() int
}

type leaf []byte

type gap int

type internal struct {
	children []node
	size     int
}

func (l leaf) length() int      { return len(l) }
func (g gap) length() int       { return int(g) }
func (n *internal) length() int { return n.size }

func emptyNode() node {
	return gap(0)
}

func isEmptyNode(n node) bool {
	return n.length() == 0
}

func fromBytes(data []byte, config Config) node {
	if len(data) <= config.ChunkSize {
		return leaf(data)
	}
	mid := len(data) / 2
	left := fromBytes(data[:mid], config)
	right := fromBytes(data[mid:], config)
	return &internal{children: []node{left, right}, size: len(data)}
}

// buildInternal wraps children into an internal node, splitting at the median
// when the count exceeds MaxChildren so the tree stays roughly balanced.
func buildInternal(config Config, size int, children []node) node {
	if len(children) <= config.MaxChildren {
		return &internal{children: children, size: size}
	}
	mid := len(children) / 2
	leftChildren := children[:mid:mid]
	rightChildren := children[mid:]
	leftSize := 0
	for _, c := range leftChildren {
		leftSize += c.length()
	}
	rightSize := 0
	for _, c := range rightChildren {
		rightSize += c.length()
	}
	if leftSize+rightSize != size {
		panic("chunktree: size mismatch while splitting node")
	}
	return &internal{
		children: []node{
			&internal{children: leftChildren, size: leftSize},
			&internal{children: rightChildren, size: rightSize},
		},
		size: size,
	}
}

func nodeGet(n node, index int) Piece {
	if index >= n.length() {
		panic(fmt.Sprintf("chunktree: index %d out of range %d", index, n.length()))
	}
	switch t := n.(type) {
	case leaf:
		return Piece{Data: t[index:]}
	case gap:
		return Piece{Gap: int(t) - index}
	case *internal:
		offset := 0
		for _, child := range t.children {
			next := offset + child.length()
			if index < next {
				return nodeGet(child, index-offset)
			}
			offset = next
		}
	}
	panic("chunktree: unreachable")
}

// nodeAppend concatenates other after n with an optional separating gap.
func nodeAppend(n node, gapSize int, other node, config Config) node {
	otherLen := other.length()
	if t, ok := n.(*internal); ok {
		if len(t.children) > config.MaxChildren {
			panic("chunktree: overfull node")
		}
		children := make([]node, 0, len(t.children)+2)
		children = append(children, t.children...)
		if gapSize > 0 {
			children = append(children, gap(gapSize))
		}
		children = append(children, other)
		return buildInternal(config, t.size+gapSize+otherLen, children)
	}
	children := make([]node, 0, 3)
	children = append(children, n)
	if gapSize > 0 {
		children = append(children, gap(gapSize))
	}
	children = append(children, other)
	return &internal{children: children, size: n.length() + gapSize + otherLen}
}

func nodeInsert(n node, index int, data []byte, config Config) node {
	if index > n.length() {
		panic("chunktree: insert index out of range")
	}
	if len(data) == 0 {
		panic("chunktree: insert of empty data")
	}
	switch t := n.(type) {
	case leaf:
		children := make([]node, 0, 3)
		if index > 0 {
			children = append(children, fromBytes(t[:index:index], config))
		}
		children = append(children, fromBytes(data, config))
		if index < len(t) {
			children = append(children, fromBytes(t[index:], config))
		}
		return &internal{children: children, size: len(t) + len(data)}
	case gap:
		children := make([]node, 0, 3)
		if index > 0 {
			children = append(children, gap(index))
		}
		children = append(children, fromBytes(data, config))
		if index < int(t) {
			children = append(children, gap(int(t)-index))
		}
		return &internal{children: children, size: int(t) + len(data)}
	case *internal:
		if len(t.children) > config.MaxChildren {
			panic("chunktree: overfull node")
		}
		// Find the child the index lands in.
		pos := 0
		i := 0
		for idx, child := range t.children {
			if pos+child.length() >= index {
				i = idx
				break
			}
			pos += child.length()
		}
		relative := index - pos
		children := make([]node, len(t.children))
		copy(children, t.children)
		switch {
		case relative == 0:
			// Insert before child i as a sibling.
			children = append(children, nil)
			copy(children[i+1:], children[i:])
			children[i] = fromBytes(data, config)
		case relative == t.children[i].length():
			children = append(children, nil)
			copy(children[i+2:], children[i+1:])
			children[i+1] = fromBytes(data, config)
		default:
			children[i] = nodeInsert(children[i], relative, data, config)
		}
		return buildInternal(config, t.size+len(data), children)
	}
	panic("chunktree: unreachable")
}

func nodeRemove(n node, start, end int, config Config) node {
	if start > n.length() || end > n.length() {
		panic("chunktree: remove range out of range")
	}
	if start >= end {
		panic("chunktree: remove of empty range")
	}
	if isEmptyNode(n) {
		return emptyNode()
	}
	switch t := n.(type) {
	case leaf:
		return &internal{
			children: []node{
				fromBytes(t[:start:start], config),
				fromBytes(t[end:], config),
			},
			size: len(t) - (end - start),
		}
	case gap:
		return gap(int(t) - (end - start))
	case *internal:
		pos := 0
		remainingStart := start
		children := make([]node, 0, len(t.children))
		for _, child := range t.children {
			childPos := pos
			childEnd := childPos + child.length()
			pos = childEnd
			if child.length() == 0 {
				continue
			}
			if childEnd <= remainingStart || childPos >= end {
				children = append(children, child)
				continue
			}
			removeEnd := childEnd
			if end < removeEnd {
				removeEnd = end
			}
			newChild := nodeRemove(child, remainingStart-childPos, removeEnd-childPos, config)
			if !isEmptyNode(newChild) {
				children = append(children, newChild)
			}
			remainingStart = removeEnd
		}
		switch len(children) {
		case 0:
			return emptyNode()
		case 1:
			return children[0]
		}
		return &internal{children: children, size: t.size - (end - start)}
	}
	panic("chunktree: unreachable")
}

// nodeFill overwrites data at index without changing the subtree length.
// Leaves keep their bytes; only gap regions gain content.
func nodeFill(n node, index int, data []byte, config Config) node {
	if index > n.length() || index+len(data) > n.length() {
		panic("chunktree: fill range out of range")
	}
	if len(data) == 0 {
		panic("chunktree: fill of empty data")
	}
	switch t := n.(type) {
	case leaf:
		return t
	case gap:
		children := make([]node, 0, 3)
		if index > 0 {
			children = append(children, gap(index))
		}
		children = append(children, fromBytes(data, config))
		if end := index + len(data); end < int(t) {
			children = append(children, gap(int(t)-end))
		}
		return &internal{children: children, size: int(t)}
	case *internal:
		pos := 0
		children := make([]node, 0, len(t.children))
		for _, child := range t.children {
			childPos := pos
			childLen := child.length()
			pos += childLen
			if childPos+childLen <= index || childPos >= index+len(data) {
				children = append(children, child)
				continue
			}
			relative := 0
			if index > childPos {
				relative = index - childPos
			}
			dataIndex := 0
			if childPos > index {
				dataIndex = childPos - index
			}
			dataEnd := dataIndex + childLen - relative
			if dataEnd > len(data) {
				dataEnd = len(data)
			}
			if dataIndex >= dataEnd {
				children = append(children, child)
				continue
			}
			children = append(children, nodeFill(child, relative, data[dataIndex:dataEnd], config))
		}
		return &internal{children: children, size: t.size}
	}
	panic("chunktree: unreachable")
}

func collectBytesInto(n node, gapValue byte, out []byte) []byte {
	switch t := n.(type) {
	case leaf:
		out = append(out, t...)
	case gap:
		for i := 0; i < int(t); i++ {
			out = append(out, gapValue)
		}
	case *internal:
		for _, child := range t.children {
			out = collectBytesInto(child, gapValue, out)
		}
	}
	return out
}

//----------------------------------------------------------------------------
// tree
//----------------------------------------------------------------------------

// Piece is the result of a point query: either a byte slice starting at the
// queried offset within its leaf, or the remaining size of the gap covering
// the offset.
type Piece struct {
	Data []byte
	Gap  int
}

func (p Piece) IsGap() bool {
	return p.Data == nil
}

// Tree is a persistent rope value. The zero value is not usable; construct
// with New or FromBytes.
type Tree struct {
	root   node
	config Config
}

func New(config Config) Tree {
	return FromBytes(nil, config)
}

func FromBytes(data []byte, config Config) Tree {
	return Tree{root: fromBytes(data, config), config: config}
}

func (t Tree) Len() int {
	return t.root.length()
}

func (t Tree) IsEmpty() bool {
	return t.root.length() == 0
}

// Get returns the piece covering index. Panics if index >= Len.
func (t Tree) Get(index int) Piece {
	return nodeGet(t.root, index)
}

// Insert returns a tree with data inserted at index. An index past the end
// materializes the difference as a gap preceding the data.
func (t Tree) Insert(index int, data []byte) Tree {
	if len(data) == 0 {
		return t
	}
	if index <= t.Len() {
		return Tree{root: nodeInsert(t.root, index, data, t.config), config: t.config}
	}
	// sparse insert
	return Tree{
		root:   nodeAppend(t.root, index-t.Len(), fromBytes(data, t.config), t.config),
		config: t.config,
	}
}

// Remove returns a tree with [start, end) removed. An empty range or a range
// entirely past the end returns the receiver; end clamps to Len.
func (t Tree) Remove(start, end int) Tree {
	if start >= end || start >= t.Len() {
		return t
	}
	if end > t.Len() {
		end = t.Len()
	}
	return Tree{root: nodeRemove(t.root, start, end, t.config), config: t.config}
}

// Fill overwrites len(data) bytes starting at index, extending the tree when
// the range reaches past the end. Leaf content under the range is unchanged;
// only gaps gain data.
func (t Tree) Fill(index int, data []byte) Tree {
	if len(data) == 0 {
		return t
	}
	if index <= t.Len() {
		inRange := t.Len() - index
		if inRange > len(data) {
			inRange = len(data)
		}
		root := t.root
		if inRange > 0 {
			root = nodeFill(root, index, data[:inRange], t.config)
		}
		if inRange < len(data) {
			root = nodeAppend(root, 0, fromBytes(data[inRange:], t.config), t.config)
		}
		return Tree{root: root, config: t.config}
	}
	// sparse fill
	return Tree{
		root:   nodeAppend(t.root, index-t.Len(), fromBytes(data, t.config), t.config),
		config: t.config,
	}
}

// Append concatenates other after the receiver, separated by gapSize bytes of
// gap.
func (t Tree) Append(gapSize int, other Tree) Tree {
	return Tree{root: nodeAppend(t.root, gapSize, other.root, t.config), config: t.config}
}

func (t Tree) CollectBytes(gapValue byte) []byte {
	return collectBytesInto(t.root, gapValue, make([]byte, 0, t.Len()))
}

func (t Tree) CollectBytesInto(gapValue byte, out []byte) []byte {
	return collectBytesInto(t.root, gapValue, out)
}
