package pfalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	r := emptyRange()
	require.True(t, r.Empty())
	require.False(t, r.Contains(0, 1))
	require.False(t, r.Contains(0x1000, 1))
	require.Equal(t, "[empty]", r.String())

	r.Widen(0x2000, 0x1000)
	require.False(t, r.Empty())
	require.Equal(t, Range{Low: 0x2000, High: 0x3000}, r)
	require.True(t, r.Contains(0x2000, 0x1000))
	require.True(t, r.Contains(0x2ff8, 8))
	require.False(t, r.Contains(0x2ff8, 9))
	require.False(t, r.Contains(0x1ff8, 8))

	r.Widen(0x1000, 0x100)
	require.Equal(t, Range{Low: 0x1000, High: 0x3000}, r)
	r.Widen(0x2800, 0x100)
	require.Equal(t, Range{Low: 0x1000, High: 0x3000}, r, "inner widen changes nothing")
	require.Equal(t, "[0x1000, 0x3000)", r.String())
}
