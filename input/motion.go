package input

import (
	"unicode"
	"unicode/utf8"

	"github.com/yididiel7/fresh/buffer"
	"github.com/yididiel7/fresh/utils"
)

// Rune-level peeking around a byte offset. Each call reads a tiny window
// from the tree, so motions stay O(log n) per step regardless of file size.

func runeAfter(buf *buffer.Buffer, pos int) (rune, int) {
	window := buf.Slice(pos, pos+utf8.UTFMax)
	if len(window) == 0 {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRune(window)
}

func runeBefore(buf *buffer.Buffer, pos int) (rune, int) {
	start := pos - utf8.UTFMax
	if start < 0 {
		start = 0
	}
	window := buf.Slice(start, pos)
	if len(window) == 0 {
		return utf8.RuneError, 0
	}
	return utf8.DecodeLastRune(window)
}

// WordForward moves to the beginning of the next word. Word runes and other
// non-whitespace runes form separate word classes, the way the lowercase
// word motion distinguishes them.
func WordForward(buf *buffer.Buffer, pos int) int {
	r, n := runeAfter(buf, pos)
	if n > 0 && !unicode.IsSpace(r) {
		sameClass := utils.IsWord(r)
		for n > 0 && !unicode.IsSpace(r) && utils.IsWord(r) == sameClass {
			pos += n
			r, n = runeAfter(buf, pos)
		}
	}
	for n > 0 && unicode.IsSpace(r) {
		pos += n
		r, n = runeAfter(buf, pos)
	}
	return pos
}

// WordBackward moves to the beginning of the previous word.
func WordBackward(buf *buffer.Buffer, pos int) int {
	r, n := runeBefore(buf, pos)
	for n > 0 && unicode.IsSpace(r) {
		pos -= n
		r, n = runeBefore(buf, pos)
	}
	if n > 0 {
		sameClass := utils.IsWord(r)
		for n > 0 && !unicode.IsSpace(r) && utils.IsWord(r) == sameClass {
			pos -= n
			r, n = runeBefore(buf, pos)
		}
	}
	return pos
}

// WordRange returns the word under pos, or an empty range on whitespace.
func WordRange(buf *buffer.Buffer, pos int) (int, int) {
	r, n := runeAfter(buf, pos)
	if n == 0 || !utils.IsWord(r) {
		// fall back to the rune before, so clicks at word end still select
		rb, nb := runeBefore(buf, pos)
		if nb == 0 || !utils.IsWord(rb) {
			return pos, pos
		}
		pos -= nb
	}
	start, end := pos, pos
	for {
		r, n := runeBefore(buf, start)
		if n == 0 || !utils.IsWord(r) {
			break
		}
		start -= n
	}
	for {
		r, n := runeAfter(buf, end)
		if n == 0 || !utils.IsWord(r) {
			break
		}
		end += n
	}
	return start, end
}
