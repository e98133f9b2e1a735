package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilePosition(t *testing.T) {
	src := "int a;\nint b;\n"
	f := NewFile("t.c", 1, len(src))
	for i, c := range src {
		if c == '\n' {
			f.AddLine(i + 1)
		}
	}

	pos := f.Pos(0)
	got := f.Position(pos)
	require.Equal(t, "t.c", got.Filename)
	require.Equal(t, 1, got.Line)
	require.Equal(t, 1, got.Column)

	pos2 := f.Pos(7) // start of second line
	got2 := f.Position(pos2)
	require.Equal(t, 2, got2.Line)
	require.Equal(t, 1, got2.Column)
}

func TestFileLineOverride(t *testing.T) {
	src := "a\nb\nc\n"
	f := NewFile("t.c", 1, len(src))
	f.AddLine(2)
	f.AddLine(4)
	f.AddLine(6)
	// pretend a #line 100 "other.c" directive took effect at the start of
	// line 2 (offset 2)
	f.SetLineOverride(2, "other.c", 100)

	got := f.Position(f.Pos(2))
	require.Equal(t, "other.c", got.Filename)
	require.Equal(t, 100, got.Line)

	got2 := f.Position(f.Pos(4))
	require.Equal(t, "other.c", got2.Filename)
	require.Equal(t, 101, got2.Line)
}

func TestFileSet(t *testing.T) {
	fs := NewFileSet()
	f1 := fs.AddFile("a.c", 10)
	f2 := fs.AddFile("b.c", 10)

	require.Same(t, f1, fs.File(f1.Pos(0)))
	require.Same(t, f2, fs.File(f2.Pos(0)))
	require.NotEqual(t, f1.Pos(0), f2.Pos(0))
}
