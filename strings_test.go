package pfalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveString(t *testing.T) {
	a := newTestAllocator(t, &Config{Debug: DebugChecked})

	s := a.SaveString("hello, world")
	require.Equal(t, "hello, world", string(s))
	require.Equal(t, 16, cap(s))
	require.EqualValues(t, 16, a.LiveBytes())

	empty := a.SaveString("")
	require.Empty(t, empty)
	require.EqualValues(t, 24, a.LiveBytes())

	a.FreeString(s)
	a.FreeString(empty)
	require.Zero(t, a.LiveBytes())
	require.Equal(t, 1, a.FreeCount(16))
	require.Equal(t, 1, a.FreeCount(0))
}

func TestSaveStringLong(t *testing.T) {
	a := newTestAllocator(t, nil)
	long := make([]byte, 4000)
	for i := range long {
		long[i] = 'a' + byte(i%26)
	}
	s := a.SaveString(string(long))
	require.Equal(t, long, s)
	require.Equal(t, 1, a.Statistics().LargeBlocks)
	a.FreeString(s)
	require.Zero(t, a.Statistics().LargeBlocks)
}

func TestDefaultAllocator(t *testing.T) {
	InitAlloc()
	t.Cleanup(InitAlloc)

	p1 := Alloc(12)
	p2 := Alloc(12)
	require.NotEqual(t, addr(p1), addr(p2))
	Unalloc(12, p1)
	require.Equal(t, addr(p1), addr(Alloc(12)))
	Unalloc(12, p1)
	Unalloc(12, p2)
	require.Equal(t, 2, Default.FreeCount(12))

	s := SaveString("default")
	require.Equal(t, "default", string(s))
	FreeString(s)
	require.Zero(t, Default.LiveBytes())
}
