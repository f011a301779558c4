package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yididiel7/fresh/buffer"
	"github.com/yididiel7/fresh/event"
)

func newState(content string) *event.BufferState {
	return event.NewBufferState(buffer.FromBytes([]byte(content)), nil)
}

func render(s *event.BufferState, p Params, startByte, maxRows int) []ViewLine {
	return Render(s, p, startByte, maxRows)
}

func TestRenderPlainLines(t *testing.T) {
	s := newState("abc\ndef")
	lines := render(s, Params{Width: 80}, 0, 10)
	require.Len(t, lines, 2)
	require.Equal(t, "abc", lines[0].Text)
	require.Equal(t, "def", lines[1].Text)
	require.Equal(t, 3, lines[0].LineEndByte)
	require.Equal(t, 7, lines[1].LineEndByte)
	require.Equal(t, []int{0, 1, 2}, lines[0].CharSourceBytes)
	require.Equal(t, []int{4, 5, 6}, lines[1].CharSourceBytes)
}

func TestRenderIsDeterministic(t *testing.T) {
	s := newState("tab\there\nsecond line with some text\n你好 wide")
	p := Params{Width: 12, WrapEnabled: true, TabSize: 4}
	a := render(s, p, 0, 50)
	b := render(s, p, 0, 50)
	require.Equal(t, a, b)
}

func TestTabExpansion(t *testing.T) {
	s := newState("a\tb")
	lines := render(s, Params{Width: 80, TabSize: 4}, 0, 1)
	require.Len(t, lines, 1)
	// "a" at col 0, tab pads to the next stop at col 4, then "b".
	require.Equal(t, "a   b", lines[0].Text)
	// Tab padding keeps the tab's source byte so clicks land on the tab.
	require.Equal(t, []int{0, 1, 2}, lines[0].CharSourceBytes)
	require.Equal(t, []int{0, 1, 1, 1, 2}, lines[0].VisualToChar)
}

func TestDoubleWidthCluster(t *testing.T) {
	s := newState("a你b")
	lines := render(s, Params{Width: 80}, 0, 1)
	require.Len(t, lines, 1)
	// Visual columns: a=0, 你=1..2, b=3.
	require.Equal(t, []int{0, 1, 1, 2}, lines[0].VisualToChar)
	require.Equal(t, []int{0, 1, 4}, lines[0].CharSourceBytes)

	// A click in the middle of the wide cluster resolves to its start byte,
	// never inside it.
	require.Equal(t, 1, lines[0].SourceByteAtVisual(1))
	require.Equal(t, 1, lines[0].SourceByteAtVisual(2))
	require.Equal(t, 4, lines[0].SourceByteAtVisual(3))
}

func TestClickPastEndSnapsToLineEnd(t *testing.T) {
	s := newState("ab\ncd")
	lines := render(s, Params{Width: 80}, 0, 2)
	require.Equal(t, 2, lines[0].SourceByteAtVisual(50))
	require.Equal(t, 5, lines[1].SourceByteAtVisual(50))
}

func TestWrapAtWidth(t *testing.T) {
	s := newState(strings.Repeat("x", 25))
	lines := render(s, Params{Width: 10, WrapEnabled: true}, 0, 10)
	require.Len(t, lines, 3)
	require.Equal(t, 10, len(lines[0].CharSourceBytes))
	require.Equal(t, 10, len(lines[1].CharSourceBytes))
	require.Equal(t, 5, len(lines[2].CharSourceBytes))
	require.False(t, lines[0].Continuation)
	require.True(t, lines[1].Continuation)
	require.True(t, lines[2].Continuation)
	require.Equal(t, 10, lines[1].CharSourceBytes[0])
	require.Equal(t, 20, lines[2].CharSourceBytes[0])
}

func TestWrapPrefersWhitespace(t *testing.T) {
	s := newState("hello world again")
	lines := render(s, Params{Width: 8, WrapEnabled: true}, 0, 10)
	require.True(t, len(lines) >= 2)
	// The break lands after "hello ", not mid-word.
	require.Equal(t, "hello ", lines[0].Text)
	require.Equal(t, "world ", lines[1].Text)
	require.Equal(t, "again", lines[2].Text)
}

func TestWrapNeverSplitsWideCluster(t *testing.T) {
	s := newState("你你你你你") // each 2 cols
	lines := render(s, Params{Width: 3, WrapEnabled: true}, 0, 10)
	for _, vl := range lines {
		require.LessOrEqual(t, vl.Width(), 3)
		// every row holds whole clusters
		for _, b := range vl.CharSourceBytes {
			require.Zero(t, b%3, "cluster start %d is not a boundary", b)
		}
	}
}

func TestCursorFollowWithWrap(t *testing.T) {
	// One line of 25 chars at width 10 wraps to rows of 10/10/5; the cursor
	// at byte 20 sits on visual row 2, and with everything fitting in
	// height 4 the anchor offset stays 0.
	s := newState(strings.Repeat("a", 25))
	lines := render(s, Params{Width: 10, WrapEnabled: true}, 0, 10)
	require.Equal(t, 2, VisualRowOf(lines, 20))

	vp := NewViewport(10, 4)
	vp.ScrollOffset = 1
	scrolled := vp.EnsureVisibleInLayout(s.Buf, 20, lines)
	require.False(t, scrolled)
	require.Equal(t, 0, vp.TopViewLineOffset)
	require.Equal(t, 0, vp.TopByte)
}

func TestOverlayStyling(t *testing.T) {
	s := newState("hello world")
	ov := NewOverlaySet()
	ov.AddOverlay(Overlay{ID: "diag.1", Start: 6, End: 11, Style: Style{Fg: 2}})
	lines := render(s, Params{Width: 80, Overlays: ov}, 0, 1)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].StyleSpans, 1)
	require.Equal(t, 6, lines[0].StyleSpans[0].Start)
	require.Equal(t, 11, lines[0].StyleSpans[0].End)
}

func TestOverlayPrefixRemoval(t *testing.T) {
	ov := NewOverlaySet()
	ov.AddOverlay(Overlay{ID: "lsp.diag.1", Start: 0, End: 1})
	ov.AddOverlay(Overlay{ID: "lsp.diag.2", Start: 2, End: 3})
	ov.AddOverlay(Overlay{ID: "search.1", Start: 4, End: 5})
	ov.RemoveOverlayPrefix("lsp.diag.")
	require.Len(t, ov.OverlaysIn(0, 100), 1)
	require.Equal(t, "search.1", ov.OverlaysIn(0, 100)[0].ID)
}

func TestVirtualTextRows(t *testing.T) {
	s := newState("abc\ndef")
	ov := NewOverlaySet()
	ov.AddVirtualText(VirtualText{ID: "hint", Position: 4, Placement: PlacementPreLine, Text: "-- hint --"})
	lines := render(s, Params{Width: 80, Overlays: ov}, 0, 10)
	require.Len(t, lines, 3)
	require.Equal(t, "abc", lines[0].Text)
	require.True(t, lines[1].Virtual)
	require.Equal(t, "-- hint --", lines[1].Text)
	require.Equal(t, "def", lines[2].Text)
	// Virtual chars carry no source bytes.
	for _, b := range lines[1].CharSourceBytes {
		require.Equal(t, InjectedByte, b)
	}
}

func TestInlineVirtualText(t *testing.T) {
	s := newState("ab")
	ov := NewOverlaySet()
	ov.AddVirtualText(VirtualText{ID: "p", Position: 1, Placement: PlacementInline, Text: ": int"})
	lines := render(s, Params{Width: 80, Overlays: ov}, 0, 1)
	require.Len(t, lines, 1)
	require.Equal(t, "a: intb", lines[0].Text)
	require.Equal(t, 0, lines[0].CharSourceBytes[0])
	require.Equal(t, InjectedByte, lines[0].CharSourceBytes[1])
	require.Equal(t, 1, lines[0].CharSourceBytes[len(lines[0].CharSourceBytes)-1])
}

func TestGutterWidth(t *testing.T) {
	require.Equal(t, 8, GutterWidth(1))      // 1 + 4 + 3
	require.Equal(t, 8, GutterWidth(9999))   // still 4 digits
	require.Equal(t, 9, GutterWidth(10000))  // 5 digits
	require.Equal(t, 10, GutterWidth(123456)) // 6 digits
}

func TestGutterText(t *testing.T) {
	vl := ViewLine{}
	require.Equal(t, "    7 │ ", GutterText(&vl, 6, 100, false, 0))
	cont := ViewLine{Continuation: true}
	require.Equal(t, "      │ ", GutterText(&cont, 6, 100, false, 0))
	// relative numbering measures distance to the current line
	require.Equal(t, "    3 │ ", GutterText(&vl, 6, 100, true, 9))
}

func TestViewportScrollKeepsLineStarts(t *testing.T) {
	s := newState("one\ntwo\nthree\nfour\nfive")
	vp := NewViewport(80, 3)
	vp.ScrollDown(s.Buf, 2)
	require.Equal(t, 8, vp.TopByte) // "three"
	require.Equal(t, vp.TopByte, s.Buf.LineStart(vp.TopByte))
	vp.ScrollUp(s.Buf, 1)
	require.Equal(t, 4, vp.TopByte) // "two"
	vp.ScrollUp(s.Buf, 10)
	require.Equal(t, 0, vp.TopByte)
}

func TestEnsureVisibleScrollsDown(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("line\n")
	}
	s := newState(b.String())
	vp := NewViewport(80, 10)
	vp.ScrollOffset = 2
	vp.LineWrapEnabled = false

	c := s.Cursors.Primary()
	c.Position = s.Buf.LineStartOfLine(9)
	res := vp.EnsureVisible(s.Buf, c)
	require.True(t, res.Scrolled)
	require.Equal(t, vp.TopByte, s.Buf.LineStart(vp.TopByte))
	// Cursor line must now be inside the margin window.
	delta := s.Buf.ExactLineNumber(c.Position) - s.Buf.ExactLineNumber(vp.TopByte)
	require.GreaterOrEqual(t, delta, vp.ScrollOffset)
	require.Less(t, delta, vp.Height-vp.ScrollOffset)
}

func TestEnsureVisibleCentersOnJump(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("line\n")
	}
	s := newState(b.String())
	vp := NewViewport(80, 10)
	vp.ScrollOffset = 2
	vp.LineWrapEnabled = false

	c := s.Cursors.Primary()
	c.Position = s.Buf.LineStartOfLine(150)
	res := vp.EnsureVisible(s.Buf, c)
	require.True(t, res.Scrolled)
	topLine := s.Buf.ExactLineNumber(vp.TopByte)
	require.Equal(t, 150-vp.Height/2, topLine)
}

func TestSkipEnsureVisibleLatch(t *testing.T) {
	s := newState("a\nb\nc")
	vp := NewViewport(80, 2)
	vp.SetSkipEnsureVisible()
	c := s.Cursors.Primary()
	c.Position = 4
	res := vp.EnsureVisible(s.Buf, c)
	require.False(t, res.Scrolled)
	// The latch is one-shot.
	require.False(t, vp.ShouldSkipEnsureVisible())
}

func TestEnsureColumnVisible(t *testing.T) {
	s := newState(strings.Repeat("x", 200))
	vp := NewViewport(40, 5)
	vp.LineWrapEnabled = false
	vp.HorizontalScrollOffset = 5

	c := s.Cursors.Primary()
	c.Position = 100
	res := vp.EnsureVisible(s.Buf, c)
	require.True(t, res.Scrolled)
	col := VisualColumn(s.Buf, 100)
	require.GreaterOrEqual(t, col, vp.LeftColumn+vp.HorizontalScrollOffset)
	require.Less(t, col, vp.LeftColumn+vp.Width-vp.HorizontalScrollOffset)
}

func TestVisualColumnWithTabsAndWide(t *testing.T) {
	s := newState("\ta你b")
	s.Buf.SetTabSize(4)
	require.Equal(t, 0, VisualColumn(s.Buf, 0))
	require.Equal(t, 4, VisualColumn(s.Buf, 1)) // after tab
	require.Equal(t, 5, VisualColumn(s.Buf, 2)) // after "a"
	require.Equal(t, 7, VisualColumn(s.Buf, 5)) // after wide cluster
}

func TestPositionAtColumn(t *testing.T) {
	s := newState("a你b")
	require.Equal(t, 0, PositionAtColumn(s.Buf, 0, 0))
	require.Equal(t, 1, PositionAtColumn(s.Buf, 0, 1))
	require.Equal(t, 1, PositionAtColumn(s.Buf, 0, 2)) // middle of wide cluster
	require.Equal(t, 4, PositionAtColumn(s.Buf, 0, 3))
	require.Equal(t, 5, PositionAtColumn(s.Buf, 0, 99)) // clamps to line end
}

func TestScrollViewLinesThroughWrappedLine(t *testing.T) {
	s := newState(strings.Repeat("z", 25) + "\nshort")
	p := Params{Width: 10, WrapEnabled: true}
	lines := render(s, p, 0, 10)
	vp := NewViewport(10, 4)

	vp.ScrollViewLines(s.Buf, lines, 1)
	require.Equal(t, 0, vp.TopByte)
	require.Equal(t, 1, vp.TopViewLineOffset)

	vp.ScrollViewLines(s.Buf, lines, 2)
	require.Equal(t, 26, vp.TopByte) // "short"
	require.Equal(t, 0, vp.TopViewLineOffset)

	vp.ScrollViewLines(s.Buf, lines, -1)
	require.Equal(t, 0, vp.TopByte)
}