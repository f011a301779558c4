package buffer

import (
	"bytes"
	"testing"
)

func TestLineStartEnd(t *testing.T) {
	b := FromBytes([]byte("abc\ndef\nghi"))
	tests := []struct {
		pos, start, end int
	}{
		{0, 0, 3},
		{2, 0, 3},
		{3, 0, 3},
		{4, 4, 7},
		{8, 8, 11},
		{11, 8, 11},
	}
	for _, tt := range tests {
		if got := b.LineStart(tt.pos); got != tt.start {
			t.Errorf("LineStart(%d) = %d, want %d", tt.pos, got, tt.start)
		}
		if got := b.LineEnd(tt.pos); got != tt.end {
			t.Errorf("LineEnd(%d) = %d, want %d", tt.pos, got, tt.end)
		}
	}
}

func TestLineNumber(t *testing.T) {
	b := FromBytes([]byte("abc\ndef\nghi"))
	for _, tt := range []struct{ pos, line int }{
		{0, 0}, {3, 0}, {4, 1}, {7, 1}, {8, 2}, {11, 2},
	} {
		n, exact := b.LineNumber(tt.pos)
		if !exact {
			t.Fatalf("LineNumber(%d) not exact for small buffer", tt.pos)
		}
		if n != tt.line {
			t.Errorf("LineNumber(%d) = %d, want %d", tt.pos, n, tt.line)
		}
	}
	if n := b.ExactLineCount(); n != 3 {
		t.Errorf("ExactLineCount() = %d, want 3", n)
	}
}

func TestLineNumberEstimatedForLargeBuffers(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789\n"), 100)
	b := FromBytes(content)
	b.SetLargeFileThreshold(10)
	b.SetEstimatedLineLength(11)

	n, exact := b.LineCount()
	if exact {
		t.Fatal("LineCount should be an estimate above the threshold")
	}
	if n == 0 {
		t.Fatal("estimate should be positive")
	}
	// Once exact numbers are requested, they are served from the index.
	if got := b.ExactLineCount(); got != 101 {
		t.Errorf("ExactLineCount() = %d, want 101", got)
	}
	if _, exact := b.LineCount(); !exact {
		t.Error("LineCount should be exact after the index is built")
	}
}

func TestLineIteratorForward(t *testing.T) {
	b := FromBytes([]byte("abc\ndef\nghi"))
	it := b.Lines(0)
	var lines []string
	var starts []int
	for {
		start, content, ok := it.Forward()
		if !ok {
			break
		}
		starts = append(starts, start)
		lines = append(lines, string(content))
	}
	wantLines := []string{"abc\n", "def\n", "ghi"}
	wantStarts := []int{0, 4, 8}
	if len(lines) != len(wantLines) {
		t.Fatalf("got %d lines %q, want %d", len(lines), lines, len(wantLines))
	}
	for i := range wantLines {
		if lines[i] != wantLines[i] || starts[i] != wantStarts[i] {
			t.Errorf("line %d = (%d, %q), want (%d, %q)", i, starts[i], lines[i], wantStarts[i], wantLines[i])
		}
	}
}

func TestLineIteratorTrailingNewline(t *testing.T) {
	b := FromBytes([]byte("abc\n"))
	it := b.Lines(0)
	_, first, ok := it.Forward()
	if !ok || string(first) != "abc\n" {
		t.Fatalf("first line = %q, %v", first, ok)
	}
	start, second, ok := it.Forward()
	if !ok || start != 4 || len(second) != 0 {
		t.Fatalf("expected empty final line at 4, got (%d, %q, %v)", start, second, ok)
	}
	if _, _, ok := it.Forward(); ok {
		t.Error("iterator should be exhausted")
	}
}

func TestLineIteratorBackward(t *testing.T) {
	b := FromBytes([]byte("abc\ndef\nghi"))
	it := b.Lines(9) // on "ghi"
	start, content, ok := it.Backward()
	if !ok || start != 4 || string(content) != "def\n" {
		t.Fatalf("Backward = (%d, %q, %v), want (4, \"def\\n\", true)", start, content, ok)
	}
	start, content, ok = it.Backward()
	if !ok || start != 0 || string(content) != "abc\n" {
		t.Fatalf("Backward = (%d, %q, %v), want (0, \"abc\\n\", true)", start, content, ok)
	}
	if _, _, ok := it.Backward(); ok {
		t.Error("iterator should stop at the first line")
	}
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		in   string
		want LineEnding
	}{
		{"a\nb\n", LineEndingLF},
		{"a\r\nb\r\n", LineEndingCRLF},
		{"a\rb\r", LineEndingCR},
		{"plain", LineEndingLF},
		{"a\r\nb\nc\r\n", LineEndingCRLF},
	}
	for _, tt := range tests {
		if got := DetectLineEnding([]byte(tt.in)); got != tt.want {
			t.Errorf("DetectLineEnding(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLineEndings(t *testing.T) {
	got := NormalizeLineEndings([]byte("a\r\nb\rc\n"))
	if string(got) != "a\nb\nc\n" {
		t.Errorf("NormalizeLineEndings = %q, want %q", got, "a\nb\nc\n")
	}
}

func TestGraphemeBoundaries(t *testing.T) {
	// "a" + wide CJK + "b"
	b := FromBytes([]byte("a你b")) // a=0, 你=1..3, b=4
	for _, pos := range []int{0, 1, 4, 5} {
		if !b.IsGraphemeBoundary(pos) {
			t.Errorf("pos %d should be a boundary", pos)
		}
	}
	for _, pos := range []int{2, 3} {
		if b.IsGraphemeBoundary(pos) {
			t.Errorf("pos %d should not be a boundary", pos)
		}
	}
	if got := b.SnapToBoundary(2); got != 1 {
		t.Errorf("SnapToBoundary(2) = %d, want 1", got)
	}
	if got := b.NextBoundary(1); got != 4 {
		t.Errorf("NextBoundary(1) = %d, want 4", got)
	}
	if got := b.PrevBoundary(4); got != 1 {
		t.Errorf("PrevBoundary(4) = %d, want 1", got)
	}
}

func TestGraphemeBoundariesAcrossLines(t *testing.T) {
	b := FromBytes([]byte("ab\ncd"))
	if got := b.PrevBoundary(3); got != 2 {
		t.Errorf("PrevBoundary(3) = %d, want 2 (the newline)", got)
	}
	if got := b.NextBoundary(2); got != 3 {
		t.Errorf("NextBoundary(2) = %d, want 3", got)
	}
}

func TestWidenToBoundaries(t *testing.T) {
	b := FromBytes([]byte("你好")) // 6 bytes, boundaries at 0, 3, 6
	start, end := b.WidenToBoundaries(1, 4)
	if start != 0 || end != 6 {
		t.Errorf("WidenToBoundaries(1, 4) = (%d, %d), want (0, 6)", start, end)
	}
	start, end = b.WidenToBoundaries(0, 3)
	if start != 0 || end != 3 {
		t.Errorf("WidenToBoundaries(0, 3) = (%d, %d), want (0, 3)", start, end)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	raw := []byte("line one\r\nline two\r\n")
	le := DetectLineEnding(raw)
	b := FromBytes(NormalizeLineEndings(raw))
	b.SetLineEnding(le)

	got := Serialize(b, SaveOptions{})
	if !bytes.Equal(got, raw) {
		t.Errorf("round trip = %q, want %q", got, raw)
	}
}

func TestSerializeTrimAndFinalNewline(t *testing.T) {
	b := FromBytes([]byte("a  \nb\t\nc"))
	got := Serialize(b, SaveOptions{TrimTrailingWhitespace: true, EnsureFinalNewline: true})
	if string(got) != "a\nb\nc\n" {
		t.Errorf("Serialize = %q, want %q", got, "a\nb\nc\n")
	}
}

func TestIsBinary(t *testing.T) {
	if !isBinary([]byte("ab\x00cd")) {
		t.Error("NUL byte should mark content binary")
	}
	if isBinary([]byte("plain text\n")) {
		t.Error("plain text should not be binary")
	}
	if isBinary([]byte("UTF-8: 你好\n")) {
		t.Error("valid multibyte UTF-8 should not be binary")
	}
}

func TestCursorSetAdjustForEdit(t *testing.T) {
	cs := NewCursorSet()
	cs.Primary().Position = 10
	id := cs.AllocID()
	cs.Add(id, 20, NoAnchor)

	// Insert 3 bytes at 0: both cursors shift right.
	cs.AdjustForEdit(-1, 0, 0, 3)
	if cs.Primary().Position != 13 {
		t.Errorf("primary at %d, want 13", cs.Primary().Position)
	}
	if cs.Get(id).Position != 23 {
		t.Errorf("secondary at %d, want 23", cs.Get(id).Position)
	}

	// Delete [11, 15): primary is inside the range and snaps to range start.
	cs.AdjustForEdit(-1, 11, 4, 0)
	if cs.Primary().Position != 11 {
		t.Errorf("primary at %d, want 11", cs.Primary().Position)
	}
	if cs.Get(id).Position != 19 {
		t.Errorf("secondary at %d, want 19", cs.Get(id).Position)
	}

	// Edit after both: unchanged.
	cs.AdjustForEdit(-1, 30, 2, 5)
	if cs.Primary().Position != 11 || cs.Get(id).Position != 19 {
		t.Error("cursors before the edit must not move")
	}
}

func TestCursorSetPrimaryPromotion(t *testing.T) {
	cs := NewCursorSet()
	primaryID := cs.Primary().ID
	id := cs.AllocID()
	cs.Add(id, 5, NoAnchor)

	if !cs.Remove(primaryID) {
		t.Fatal("removing primary should succeed with another cursor present")
	}
	if !cs.Primary().Primary || cs.Primary().ID != id {
		t.Error("remaining cursor should be promoted to primary")
	}
	if cs.Remove(id) {
		t.Error("last cursor must not be removable")
	}
}

func TestCursorSelection(t *testing.T) {
	c := Cursor{Position: 5, Anchor: 10}
	start, end := c.SelectionRange()
	if start != 5 || end != 10 {
		t.Errorf("SelectionRange = (%d, %d), want (5, 10)", start, end)
	}
	c.Anchor = NoAnchor
	if c.HasSelection() {
		t.Error("NoAnchor means no selection")
	}
}

func TestRecoveryID(t *testing.T) {
	m1 := NewFileMetadata("/tmp/x.txt")
	m2 := NewFileMetadata("/tmp/x.txt")
	if m1.RecoveryID() != m2.RecoveryID() {
		t.Error("recovery id must be stable for the same path")
	}
	v1 := NewVirtualMetadata("scratch", "scratch")
	v2 := NewVirtualMetadata("scratch", "scratch")
	if v1.RecoveryID() == v2.RecoveryID() {
		t.Error("unnamed buffers get unique recovery ids")
	}
	if v1.RecoveryID() != v1.RecoveryID() {
		t.Error("recovery id is computed once")
	}
}
