package chunktree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

var testConfig = NewConfig(2, 3)

func TestFromBytes(t *testing.T) {
	tree := FromBytes([]byte("hello world"), testConfig)
	require.Equal(t, 11, tree.Len())
	require.False(t, tree.IsEmpty())
	require.Equal(t, []byte("hello world"), tree.CollectBytes('_'))
}

func TestEmptyTree(t *testing.T) {
	tree := New(testConfig)
	require.Equal(t, 0, tree.Len())
	require.True(t, tree.IsEmpty())
	require.Empty(t, tree.CollectBytes('_'))
}

func TestInsertAtEndAppends(t *testing.T) {
	tree := FromBytes([]byte("abc"), testConfig)
	tree = tree.Insert(3, []byte("def"))
	require.Equal(t, []byte("abcdef"), tree.CollectBytes('_'))
}

func TestInsertMiddle(t *testing.T) {
	tree := FromBytes([]byte("abcdef"), testConfig)
	tree = tree.Insert(3, []byte("XY"))
	require.Equal(t, []byte("abcXYdef"), tree.CollectBytes('_'))
}

func TestInsertEmptyDataReturnsSelf(t *testing.T) {
	tree := FromBytes([]byte("abc"), testConfig)
	require.Equal(t, []byte("abc"), tree.Insert(1, nil).CollectBytes('_'))
}

func TestSparseInsertMaterializesGap(t *testing.T) {
	tree := FromBytes([]byte("ab"), testConfig)
	tree = tree.Insert(5, []byte("cd"))
	require.Equal(t, 7, tree.Len())
	require.Equal(t, []byte("ab___cd"), tree.CollectBytes('_'))
}

// The sparse-operation sequence from the viewport's virtual-space handling:
// insert past the end, remove across the gap boundary, insert into the
// remaining gap. The gap split must be preserved.
func TestSparseOperationSequence(t *testing.T) {
	tree := New(testConfig)

	tree = tree.Insert(10, []byte("hello"))
	require.Equal(t, 15, tree.Len())
	require.Equal(t, []byte("__________hello"), tree.CollectBytes('_'))

	tree = tree.Remove(5, 12)
	require.Equal(t, []byte("_____llo"), tree.CollectBytes('_'))

	tree = tree.Insert(2, []byte("ABC"))
	require.Equal(t, []byte("__ABC___llo"), tree.CollectBytes('_'))
}

func TestRemoveEmptyRangeReturnsEqualTree(t *testing.T) {
	tree := FromBytes([]byte("abcdef"), testConfig)
	for i := 0; i <= tree.Len(); i++ {
		require.Equal(t, []byte("abcdef"), tree.Remove(i, i).CollectBytes('_'))
	}
}

func TestRemovePastEndReturnsSelf(t *testing.T) {
	tree := FromBytes([]byte("abc"), testConfig)
	require.Equal(t, []byte("abc"), tree.Remove(10, 20).CollectBytes('_'))
}

func TestRemoveClampsEnd(t *testing.T) {
	tree := FromBytes([]byte("abcdef"), testConfig)
	require.Equal(t, []byte("abc"), tree.Remove(3, 100).CollectBytes('_'))
}

func TestRemoveAll(t *testing.T) {
	tree := FromBytes([]byte("abcdef"), testConfig)
	tree = tree.Remove(0, 6)
	require.Equal(t, 0, tree.Len())
	require.True(t, tree.IsEmpty())

	// an emptied tree accepts edits again
	tree = tree.Insert(0, []byte("xy"))
	require.Equal(t, []byte("xy"), tree.CollectBytes('_'))
}

func TestGet(t *testing.T) {
	tree := FromBytes([]byte("abcdef"), testConfig)
	p := tree.Get(0)
	require.False(t, p.IsGap())
	require.Equal(t, byte('a'), p.Data[0])

	p = tree.Get(5)
	require.False(t, p.IsGap())
	require.Equal(t, byte('f'), p.Data[0])
}

func TestGetInGap(t *testing.T) {
	tree := New(testConfig).Insert(4, []byte("x"))
	p := tree.Get(1)
	require.True(t, p.IsGap())
	require.Equal(t, 3, p.Gap)
}

func TestGetOutOfRangePanics(t *testing.T) {
	tree := FromBytes([]byte("ab"), testConfig)
	require.Panics(t, func() { tree.Get(2) })
}

func TestFillOverwritesGapOnly(t *testing.T) {
	tree := New(testConfig).Insert(4, []byte("xy"))
	require.Equal(t, []byte("____xy"), tree.CollectBytes('_'))

	tree = tree.Fill(1, []byte("AB"))
	require.Equal(t, 6, tree.Len())
	require.Equal(t, []byte("_AB_xy"), tree.CollectBytes('_'))
}

func TestFillPastEndExtends(t *testing.T) {
	tree := FromBytes([]byte("abcd"), testConfig)
	tree = tree.Fill(2, []byte("WXYZ"))
	// In-range leaf bytes are untouched; the tail past the end is appended.
	require.Equal(t, 6, tree.Len())
	require.Equal(t, []byte("abcdYZ"), tree.CollectBytes('_'))
}

func TestFillSparse(t *testing.T) {
	tree := FromBytes([]byte("ab"), testConfig)
	tree = tree.Fill(5, []byte("cd"))
	require.Equal(t, []byte("ab___cd"), tree.CollectBytes('_'))
}

func TestAppendWithGap(t *testing.T) {
	left := FromBytes([]byte("ab"), testConfig)
	right := FromBytes([]byte("cd"), testConfig)
	require.Equal(t, []byte("ab__cd"), left.Append(2, right).CollectBytes('_'))
	require.Equal(t, []byte("abcd"), left.Append(0, right).CollectBytes('_'))
}

func TestEditsShareUnmodifiedSubtrees(t *testing.T) {
	original := FromBytes([]byte("abcdefghijklmnop"), testConfig)
	edited := original.Insert(8, []byte("XX"))
	// The original is unchanged by the edit.
	require.Equal(t, []byte("abcdefghijklmnop"), original.CollectBytes('_'))
	require.Equal(t, []byte("abcdefghXXijklmnop"), edited.CollectBytes('_'))
}

func TestManyInsertsStayBalanced(t *testing.T) {
	tree := New(testConfig)
	var want []byte
	for i := 0; i < 200; i++ {
		tree = tree.Insert(tree.Len(), []byte("ab"))
		want = append(want, "ab"...)
	}
	require.Equal(t, want, tree.CollectBytes('_'))
	require.Equal(t, 400, tree.Len())
}

func TestPieceIterator(t *testing.T) {
	tree := New(testConfig).Insert(3, []byte("abcd"))
	var total int
	var data []byte
	it := tree.Iter()
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		if p.IsGap() {
			total += p.Gap
		} else {
			total += len(p.Data)
			data = append(data, p.Data...)
		}
	}
	require.Equal(t, tree.Len(), total)
	require.Equal(t, []byte("abcd"), data)
}

func TestBytesRange(t *testing.T) {
	tree := FromBytes([]byte("abcdefghij"), testConfig)
	it := tree.BytesRange(2, 7)
	var got []byte
	for {
		b, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, b)
	}
	require.Equal(t, []byte("cdefg"), got)
}

func TestBytesRangeBackward(t *testing.T) {
	tree := FromBytes([]byte("abcdefghij"), testConfig)
	it := tree.BytesRange(2, 7)
	var got []byte
	for {
		b, ok := it.NextBack()
		if !ok {
			break
		}
		got = append(got, b)
	}
	require.Equal(t, []byte("gfedc"), got)
}

func TestBytesRangeAcrossGap(t *testing.T) {
	tree := FromBytes([]byte("ab"), testConfig).Insert(4, []byte("cd"))
	it := tree.BytesRange(0, tree.Len())
	var got []byte
	for {
		b, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, b)
	}
	require.Equal(t, []byte("ab  cd"), got)
}

func TestBytesAtCursor(t *testing.T) {
	tree := FromBytes([]byte("abcdefghij"), testConfig)
	it := tree.BytesAt(5)
	require.Equal(t, 5, it.Position())

	b, ok := it.Peek()
	require.True(t, ok)
	require.Equal(t, byte('f'), b)

	b, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, byte('f'), b)
	require.Equal(t, 6, it.Position())

	b, ok = it.Prev()
	require.True(t, ok)
	require.Equal(t, byte('f'), b)
	require.Equal(t, 5, it.Position())
}

func TestBytesAtWalksWholeTree(t *testing.T) {
	content := []byte("the quick brown fox jumps over the lazy dog")
	tree := FromBytes(content, testConfig)

	it := tree.BytesAt(0)
	var forward []byte
	for {
		b, ok := it.Next()
		if !ok {
			break
		}
		forward = append(forward, b)
	}
	require.Equal(t, content, forward)

	it = tree.BytesAt(tree.Len())
	var backward []byte
	for {
		b, ok := it.Prev()
		if !ok {
			break
		}
		backward = append(backward, b)
	}
	reversed := make([]byte, len(content))
	for i, b := range content {
		reversed[len(content)-1-i] = b
	}
	require.Equal(t, reversed, backward)
}

func TestBytesAtSeek(t *testing.T) {
	tree := FromBytes([]byte("abcdefghij"), testConfig)
	it := tree.BytesAt(0)
	it.Seek(8)
	b, ok := it.Peek()
	require.True(t, ok)
	require.Equal(t, byte('i'), b)
}

func TestCollectBytesIntoAppends(t *testing.T) {
	tree := FromBytes([]byte("abc"), testConfig)
	out := tree.CollectBytesInto('_', []byte("x:"))
	require.True(t, bytes.Equal(out, []byte("x:abc")))
}
