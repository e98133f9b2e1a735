package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructLayoutPadding(t *testing.T) {
	rec := NewStructDecl("s")
	CompleteRecord(rec, []Field{
		{Name: "a", Type: CharType},
		{Name: "b", Type: IntType},
		{Name: "c", Type: CharType},
	})
	require.Equal(t, 0, rec.Fields[0].Offset)
	require.Equal(t, 4, rec.Fields[1].Offset) // padded to int's alignment
	require.Equal(t, 8, rec.Fields[2].Offset)
	require.Equal(t, 12, rec.Size()) // padded to the struct's own alignment (4)
	require.Equal(t, 4, rec.Align())
	require.False(t, rec.Incomplete)
}

func TestUnionLayoutSharesOffsetZero(t *testing.T) {
	rec := NewUnionDecl("u")
	CompleteRecord(rec, []Field{
		{Name: "i", Type: IntType},
		{Name: "d", Type: DoubleType},
	})
	require.Equal(t, 0, rec.Fields[0].Offset)
	require.Equal(t, 0, rec.Fields[1].Offset)
	require.Equal(t, 8, rec.Size())
	require.Equal(t, 8, rec.Align())
}

func TestEnumUnderlyingAllNonNegativeIsInt(t *testing.T) {
	e := NewEnumDecl("e")
	CompleteEnum(e, []EnumConst{{"A", 0}, {"B", 1}, {"C", 2}})
	require.Equal(t, IntType, e.Underlying)
	require.True(t, e.IsInt())
	require.False(t, e.IsUnsigned())
}

func TestEnumUnderlyingNegativeStaysSigned(t *testing.T) {
	e := NewEnumDecl("e")
	CompleteEnum(e, []EnumConst{{"NEG", -1}, {"POS", 1}})
	require.Equal(t, IntType, e.Underlying)
	require.False(t, e.IsUnsigned())
}

func TestPointerAndArrayEquality(t *testing.T) {
	p1 := NewPointer(IntType)
	p2 := NewPointer(IntType)
	require.True(t, Equal(p1, p2))
	require.True(t, Equal(NewArray(IntType, 4), NewArray(IntType, -1)), "unknown-length array is compatible with a known-length one")
	require.False(t, Equal(p1, NewPointer(CharType)))
}

func TestStructEqualityIsByIdentity(t *testing.T) {
	a := NewStructDecl("point")
	b := NewStructDecl("point")
	require.False(t, Equal(a, b), "same tag but distinct declarations are not the same type")
	require.True(t, Equal(a, a))
}

func TestIsIncompleteVoidAndArray(t *testing.T) {
	require.True(t, VoidType.IsIncomplete())
	require.True(t, NewArray(IntType, -1).IsIncomplete())
	require.False(t, NewArray(IntType, 3).IsIncomplete())
}

func TestIsStringType(t *testing.T) {
	require.True(t, NewArray(CharType, 5).IsStringType())
	require.False(t, NewArray(IntType, 5).IsStringType())
}
