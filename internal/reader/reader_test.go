package reader

import (
	"testing"

	"cosec/lang/token"
	"github.com/stretchr/testify/require"
)

func readAll(r *Reader) string {
	var sb []rune
	for {
		c := r.Next()
		if c == EOF {
			break
		}
		sb = append(sb, c)
	}
	return string(sb)
}

func newReader(src string) *Reader {
	f := token.NewFile("t.c", 1, len(src))
	return New(f, []byte(src))
}

func TestCRLFNormalized(t *testing.T) {
	r := newReader("a\r\nb\rc\n")
	require.Equal(t, "a\nb\nc\n", readAll(r))
}

func TestSyntheticTrailingNewline(t *testing.T) {
	r := newReader("int a")
	require.Equal(t, "int a\n", readAll(r))
}

func TestNoSyntheticNewlineWhenPresent(t *testing.T) {
	r := newReader("int a\n")
	require.Equal(t, "int a\n", readAll(r))
}

func TestLineSplice(t *testing.T) {
	r := newReader("ab\\\ncd\n")
	require.Equal(t, "abcd\n", readAll(r))
}

func TestLineSpliceCRLF(t *testing.T) {
	r := newReader("ab\\\r\ncd\n")
	require.Equal(t, "abcd\n", readAll(r))
}

func TestPeekThenNext(t *testing.T) {
	r := newReader("xy\n")
	require.Equal(t, 'x', r.Peek())
	require.Equal(t, 'x', r.Next())
	require.Equal(t, 'y', r.Peek())
	require.Equal(t, 'y', r.Next())
}

func TestUndo(t *testing.T) {
	r := newReader("abc\n")
	c1 := r.Next()
	c2 := r.Next()
	r.Undo(c2)
	r.Undo(c1)
	require.Equal(t, "abc\n", readAll(r))
}

func TestUndoString(t *testing.T) {
	r := newReader("x\n")
	r.UndoString("pre")
	require.Equal(t, "prex\n", readAll(r))
}

func TestEOFReportedOnceAndSticky(t *testing.T) {
	r := newReader("a\n")
	require.Equal(t, 'a', r.Next())
	require.Equal(t, '\n', r.Next())
	require.Equal(t, EOF, r.Next())
	require.Equal(t, EOF, r.Next())
}
