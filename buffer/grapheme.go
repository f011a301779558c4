package buffer

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Grapheme segmentation backs the cursor-boundary invariant: every cursor
// position must be a grapheme-cluster boundary. Segmentation never crosses a
// newline and the internal representation is LF-only, so the line containing
// a position is a sufficient window.

// IsGraphemeBoundary reports whether pos is a valid cursor stop.
func (b *Buffer) IsGraphemeBoundary(pos int) bool {
	if pos <= 0 || pos >= b.Len() {
		return pos >= 0 && pos <= b.Len()
	}
	start := b.LineStart(pos)
	line := b.Slice(start, b.NextLineStart(pos))
	off := start
	state := -1
	rest := line
	for len(rest) > 0 {
		if off == pos {
			return true
		}
		if off > pos {
			return false
		}
		var cluster []byte
		cluster, rest, _, state = uniseg.Step(rest, state)
		off += len(cluster)
	}
	return off == pos
}

// SnapToBoundary returns pos if it is a grapheme boundary, otherwise the
// nearest preceding boundary.
func (b *Buffer) SnapToBoundary(pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= b.Len() {
		return b.Len()
	}
	start := b.LineStart(pos)
	line := b.Slice(start, b.NextLineStart(pos))
	off := start
	state := -1
	rest := line
	for len(rest) > 0 {
		var cluster []byte
		cluster, rest, _, state = uniseg.Step(rest, state)
		if off+len(cluster) > pos {
			return off
		}
		off += len(cluster)
	}
	return off
}

// NextBoundary returns the first grapheme boundary strictly after pos,
// clamped to Len.
func (b *Buffer) NextBoundary(pos int) int {
	if pos >= b.Len() {
		return b.Len()
	}
	start := b.SnapToBoundary(pos)
	line := b.Slice(start, b.NextLineStart(start))
	if len(line) == 0 {
		return b.Len()
	}
	cluster, _, _, _ := uniseg.Step(line, -1)
	next := start + len(cluster)
	if next <= pos {
		return b.NextBoundary(next)
	}
	return next
}

// PrevBoundary returns the last grapheme boundary strictly before pos,
// clamped to 0.
func (b *Buffer) PrevBoundary(pos int) int {
	if pos <= 0 {
		return 0
	}
	pos = b.SnapToBoundary(pos)
	if pos == 0 {
		return 0
	}
	// The previous boundary lies on the same line, or it is the newline that
	// ends the previous line.
	start := b.LineStart(pos)
	if pos == start {
		return pos - 1
	}
	line := b.Slice(start, pos)
	off := start
	prev := start
	state := -1
	rest := line
	for len(rest) > 0 {
		var cluster []byte
		cluster, rest, _, state = uniseg.Step(rest, state)
		if off+len(cluster) >= pos {
			return off
		}
		prev = off
		off += len(cluster)
	}
	return prev
}

// GraphemeAt returns the cluster starting at the boundary pos and its byte
// length.
func (b *Buffer) GraphemeAt(pos int) ([]byte, int) {
	if pos >= b.Len() {
		return nil, 0
	}
	line := b.Slice(pos, b.NextLineStart(pos))
	if len(line) == 0 {
		return nil, 0
	}
	cluster, _, _, _ := uniseg.Step(line, -1)
	return cluster, len(cluster)
}

// IsValidUTF8 reports whether the whole buffer is valid UTF-8. Used by the
// invariant checks in tests; editing never produces invalid content because
// Apply validates event payloads.
func (b *Buffer) IsValidUTF8() bool {
	return utf8.Valid(b.Bytes())
}

// WidenToBoundaries expands [start, end) outward so both endpoints lie on
// grapheme boundaries.
func (b *Buffer) WidenToBoundaries(start, end int) (int, int) {
	start = b.SnapToBoundary(start)
	if end > b.Len() {
		end = b.Len()
	}
	if !b.IsGraphemeBoundary(end) {
		end = b.NextBoundary(end)
	}
	return start, end
}
