// Package buffer implements the in-memory text document: a chunktree value
// plus line bookkeeping, grapheme-boundary helpers and cursor management.
// Byte offsets into the UTF-8 content are the single source of truth; lines,
// columns and grapheme indexes are derived on demand.
package buffer

import (
	"bytes"

	"github.com/yididiel7/fresh/chunktree"
)

// LineEnding is the dominant line ending detected on load. The internal
// representation always normalizes to LF; the original is restored on save.
type LineEnding int

const (
	LineEndingLF LineEnding = iota
	LineEndingCRLF
	LineEndingCR
)

func (le LineEnding) Bytes() []byte {
	switch le {
	case LineEndingCRLF:
		return []byte("\r\n")
	case LineEndingCR:
		return []byte("\r")
	}
	return []byte("\n")
}

func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "crlf"
	case LineEndingCR:
		return "cr"
	}
	return "lf"
}

const (
	// DefaultLargeFileThreshold is the size above which the buffer degrades
	// gracefully: line numbers become estimates and LSP is disabled.
	DefaultLargeFileThreshold = 1 << 20

	// DefaultEstimatedLineLength seeds line-number estimation for files above
	// the threshold until exact numbers are requested.
	DefaultEstimatedLineLength = 60
)

// Buffer holds the text of one document. The tree inside is persistent, so
// snapshots are cheap; the Buffer itself is mutated only through
// BufferState.Apply in the event package.
type Buffer struct {
	tree       chunktree.Tree
	lineEnding LineEnding
	tabSize    int

	largeFileThreshold  int
	estimatedLineLength int

	// lineStarts caches the byte offset of every line start. Built on demand,
	// dropped on every edit. Never built eagerly for large files.
	lineStarts []int
}

func NewEmpty() *Buffer {
	return &Buffer{
		tree:                chunktree.New(chunktree.DefaultConfig),
		tabSize:             4,
		largeFileThreshold:  DefaultLargeFileThreshold,
		estimatedLineLength: DefaultEstimatedLineLength,
	}
}

// FromBytes builds a buffer over content that is already LF-normalized valid
// UTF-8.
func FromBytes(content []byte) *Buffer {
	b := NewEmpty()
	b.tree = chunktree.FromBytes(content, chunktree.DefaultConfig)
	return b
}

func (b *Buffer) Len() int {
	return b.tree.Len()
}

func (b *Buffer) IsEmpty() bool {
	return b.tree.IsEmpty()
}

func (b *Buffer) LineEnding() LineEnding {
	return b.lineEnding
}

func (b *Buffer) SetLineEnding(le LineEnding) {
	b.lineEnding = le
}

func (b *Buffer) TabSize() int {
	return b.tabSize
}

func (b *Buffer) SetTabSize(n int) {
	if n > 0 {
		b.tabSize = n
	}
}

func (b *Buffer) SetLargeFileThreshold(n int) {
	if n > 0 {
		b.largeFileThreshold = n
	}
}

func (b *Buffer) SetEstimatedLineLength(n int) {
	if n > 0 {
		b.estimatedLineLength = n
	}
}

// IsLarge reports whether the buffer is past the large-file threshold.
// Large buffers estimate line numbers and keep LSP disabled.
func (b *Buffer) IsLarge() bool {
	return b.tree.Len() > b.largeFileThreshold
}

// Bytes flattens the buffer. Gaps never survive inside an editor buffer, but
// the gap byte keeps flattening total even if one does.
func (b *Buffer) Bytes() []byte {
	return b.tree.CollectBytes(chunktree.GapByte)
}

// Slice returns the bytes in [start, end), clamped to the buffer.
func (b *Buffer) Slice(start, end int) []byte {
	if start < 0 {
		start = 0
	}
	if end > b.Len() {
		end = b.Len()
	}
	if start >= end {
		return nil
	}
	out := make([]byte, 0, end-start)
	it := b.tree.BytesRange(start, end)
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

// Tree returns the current persistent tree value. Used to take snapshots for
// async collaborators; the returned value never changes.
func (b *Buffer) Tree() chunktree.Tree {
	return b.tree
}

// Insert splices data in at pos. The position must lie on a grapheme
// boundary; the caller (BufferState.Apply) validates that before calling.
func (b *Buffer) Insert(pos int, data []byte) {
	if pos > b.Len() {
		pos = b.Len()
	}
	b.tree = b.tree.Insert(pos, data)
	b.lineStarts = nil
}

// Remove deletes [start, end).
func (b *Buffer) Remove(start, end int) {
	b.tree = b.tree.Remove(start, end)
	b.lineStarts = nil
}

//----------------------------------------------------------------------------
// line bookkeeping
//----------------------------------------------------------------------------

// LineStart returns the byte offset of the start of the line containing pos.
func (b *Buffer) LineStart(pos int) int {
	if pos > b.Len() {
		pos = b.Len()
	}
	it := b.tree.BytesAt(pos)
	for {
		c, ok := it.Prev()
		if !ok {
			return 0
		}
		if c == '\n' {
			return it.Position() + 1
		}
	}
}

// LineEnd returns the byte offset of the newline terminating the line
// containing pos, or Len for the final line.
func (b *Buffer) LineEnd(pos int) int {
	if pos > b.Len() {
		pos = b.Len()
	}
	it := b.tree.BytesAt(pos)
	for {
		c, ok := it.Peek()
		if !ok {
			return b.Len()
		}
		if c == '\n' {
			return it.Position()
		}
		it.Next()
	}
}

// NextLineStart returns the byte offset of the line after the one containing
// pos, or Len when pos is on the final line.
func (b *Buffer) NextLineStart(pos int) int {
	end := b.LineEnd(pos)
	if end >= b.Len() {
		return b.Len()
	}
	return end + 1
}

func (b *Buffer) buildLineStarts() {
	if b.lineStarts != nil {
		return
	}
	starts := []int{0}
	it := b.tree.BytesAt(0)
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		if c == '\n' {
			starts = append(starts, it.Position())
		}
	}
	b.lineStarts = starts
}

// LineCount returns the number of logical lines and whether the count is
// exact. Above the large-file threshold the count is estimated from
// estimatedLineLength until exact numbers have been built.
func (b *Buffer) LineCount() (int, bool) {
	if b.lineStarts != nil {
		return len(b.lineStarts), true
	}
	if b.IsLarge() {
		return b.Len()/b.estimatedLineLength + 1, false
	}
	b.buildLineStarts()
	return len(b.lineStarts), true
}

// ExactLineCount forces the line index and returns the exact count.
func (b *Buffer) ExactLineCount() int {
	b.buildLineStarts()
	return len(b.lineStarts)
}

// LineNumber returns the 0-based line number of pos and whether it is exact.
func (b *Buffer) LineNumber(pos int) (int, bool) {
	if b.lineStarts == nil && b.IsLarge() {
		return pos / b.estimatedLineLength, false
	}
	b.buildLineStarts()
	lo, hi := 0, len(b.lineStarts)
	for lo < hi {
		mid := (lo + hi) / 2
		if b.lineStarts[mid] <= pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1, true
}

// ExactLineNumber forces the line index and returns an exact number.
func (b *Buffer) ExactLineNumber(pos int) int {
	b.buildLineStarts()
	n, _ := b.LineNumber(pos)
	return n
}

// LineStartOfLine returns the byte offset of 0-based line n, clamped to the
// last line.
func (b *Buffer) LineStartOfLine(n int) int {
	b.buildLineStarts()
	if n < 0 {
		n = 0
	}
	if n >= len(b.lineStarts) {
		n = len(b.lineStarts) - 1
	}
	return b.lineStarts[n]
}

//----------------------------------------------------------------------------
// line iterator
//
// Restartable forward/backward iteration over (lineStart, content including
// the trailing newline). The iterator walks the tree byte cursor and never
// needs the full line index, so it works unchanged on large files.
//----------------------------------------------------------------------------

type LineIterator struct {
	buf *Buffer
	// Start of the line the next Forward call yields. done marks the forward
	// walk as finished.
	next int
	done bool
}

// Lines returns an iterator positioned at the line containing pos.
func (b *Buffer) Lines(pos int) *LineIterator {
	return &LineIterator{buf: b, next: b.LineStart(pos)}
}

// Forward yields the line at the iterator position and advances. The content
// includes the trailing newline except on the final line. A buffer ending in
// a newline has an empty final line after it.
func (li *LineIterator) Forward() (start int, content []byte, ok bool) {
	if li.done {
		return 0, nil, false
	}
	start = li.next
	end := li.buf.NextLineStart(start)
	content = li.buf.Slice(start, end)
	if end >= li.buf.Len() {
		if len(content) > 0 && content[len(content)-1] == '\n' {
			// One more (empty) line follows the trailing newline.
			li.next = end
		} else {
			li.done = true
		}
		return start, content, true
	}
	li.next = end
	return start, content, true
}

// Backward yields the line before the iterator position and moves the
// position onto it.
func (li *LineIterator) Backward() (start int, content []byte, ok bool) {
	if li.next <= 0 && !li.done {
		return 0, nil, false
	}
	li.done = false
	if li.next <= 0 {
		return 0, nil, false
	}
	start = li.buf.LineStart(li.next - 1)
	end := li.next
	li.next = start
	return start, li.buf.Slice(start, end), true
}

// Seek repositions the iterator at the line containing pos.
func (li *LineIterator) Seek(pos int) {
	li.next = li.buf.LineStart(pos)
	li.done = false
}

//----------------------------------------------------------------------------
// line endings
//----------------------------------------------------------------------------

// DetectLineEnding returns the dominant line ending in raw content.
func DetectLineEnding(data []byte) LineEnding {
	var lf, crlf, cr int
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			lf++
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				crlf++
				i++
			} else {
				cr++
			}
		}
	}
	switch {
	case crlf >= lf && crlf >= cr && crlf > 0:
		return LineEndingCRLF
	case cr > lf && cr > crlf:
		return LineEndingCR
	}
	return LineEndingLF
}

// NormalizeLineEndings rewrites CRLF and CR to LF.
func NormalizeLineEndings(data []byte) []byte {
	if !bytes.ContainsRune(data, '\r') {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\r' {
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			out = append(out, '\n')
			continue
		}
		out = append(out, data[i])
	}
	return out
}
