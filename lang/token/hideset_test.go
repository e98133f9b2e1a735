package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHideSetAdd(t *testing.T) {
	var h HideSet
	require.False(t, h.Has("X"))
	h2 := h.Add("X")
	require.False(t, h.Has("X"), "Add must not mutate the receiver")
	require.True(t, h2.Has("X"))
	h3 := h2.Add("X")
	require.Equal(t, h2.Len(), h3.Len())
}

func TestHideSetUnion(t *testing.T) {
	a := HideSet{}.Add("A").Add("B")
	b := HideSet{}.Add("B").Add("C")
	u := a.Union(b)
	require.True(t, u.Has("A"))
	require.True(t, u.Has("B"))
	require.True(t, u.Has("C"))
	require.Equal(t, 3, u.Len())
}

func TestHideSetIntersect(t *testing.T) {
	a := HideSet{}.Add("A").Add("B")
	b := HideSet{}.Add("B").Add("C")
	i := a.Intersect(b)
	require.False(t, i.Has("A"))
	require.True(t, i.Has("B"))
	require.False(t, i.Has("C"))
	require.Equal(t, 1, i.Len())
}
