package pfalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocSized(t *testing.T) {
	for _, level := range []DebugLevel{DebugOff, DebugChecked} {
		t.Run(level.String(), func(t *testing.T) {
			a := newTestAllocator(t, &Config{Debug: level})

			b := a.AllocSized(20)
			require.Len(t, b, 20)
			n, err := a.SizeOf(b)
			require.NoError(t, err)
			require.Equal(t, 20, n)

			big := a.AllocSized(3000)
			a.Free(big)
			require.Zero(t, a.Statistics().LargeBlocks)

			a.Free(b[:0])
			require.Zero(t, a.LiveBytes())
			require.Equal(t, 1, a.FreeCount(20))

			_, err = a.SizeOf(b)
			require.Error(t, err)
			requireFault(t, FaultUnknownBlock, func() { a.Free(b) })
		})
	}
}

func TestFreeForeignBlock(t *testing.T) {
	a := newTestAllocator(t, nil)
	plain := a.Alloc(16)
	requireFault(t, FaultUnknownBlock, func() { a.Free(plain) })
	requireFault(t, FaultUnknownBlock, func() { a.Free(make([]byte, 4)) })
}
