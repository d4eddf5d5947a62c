package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewParams(t *testing.T) {
	require.Equal(t, Params{Page: 1, PerPage: DefaultPerPage}, NewParams(0, 0))
	require.Equal(t, Params{Page: 3, PerPage: 25}, NewParams(3, 25))
	require.Equal(t, Params{Page: 1, PerPage: MaxPerPage}, NewParams(-4, 1000))
	require.Equal(t, 50, NewParams(3, 25).Offset())
}

func TestNewMeta_Empty(t *testing.T) {
	m := NewMeta(NewParams(1, 10), 0, 0)
	require.Equal(t, 1, m.LastPage)
	require.Nil(t, m.From)
	require.Nil(t, m.To)
	require.False(t, m.HasMore)
}

func TestNewMeta_MiddleAndLastPage(t *testing.T) {
	mid := NewMeta(NewParams(2, 10), 25, 10)
	require.Equal(t, 3, mid.LastPage)
	require.Equal(t, 11, *mid.From)
	require.Equal(t, 20, *mid.To)
	require.True(t, mid.HasMore)

	last := NewMeta(NewParams(3, 10), 25, 5)
	require.Equal(t, 21, *last.From)
	require.Equal(t, 25, *last.To)
	require.False(t, last.HasMore)
}

func TestNewMeta_PastTheEnd(t *testing.T) {
	m := NewMeta(NewParams(9, 10), 25, 0)
	require.Equal(t, 9, m.CurrentPage)
	require.Equal(t, 3, m.LastPage)
	require.Nil(t, m.From)
	require.False(t, m.HasMore)
}
