package pfalloc

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type testRecord struct {
	a int64
	b int32
	c int16
	d int8
}

func TestAllocRecord(t *testing.T) {
	a := newTestAllocator(t, &Config{Debug: DebugFilled})

	r := AllocRecord[testRecord](a)
	require.NotNil(t, r)
	require.Equal(t, testRecord{}, *r, "record is zeroed even over sentinel fill")

	r.a = 100
	r.d = -1
	require.Equal(t, testRecord{a: 100, d: -1}, *r)
	require.EqualValues(t, 16, a.LiveBytes())

	UnallocRecord(a, r)
	require.Zero(t, a.LiveBytes())
	require.Equal(t, 1, a.FreeCount(int(unsafe.Sizeof(testRecord{}))))

	again := AllocRecord[testRecord](a)
	require.Same(t, r, again)
}

func TestAllocRecordUninitialized(t *testing.T) {
	a := newTestAllocator(t, &Config{Debug: DebugFilled})
	p := AllocRecordUninitialized[uint64](a)
	require.Equal(t, uint64(0xcccccccccccccccc), *p)
	UnallocRecord(a, p)
}

func TestAllocRecords(t *testing.T) {
	a := newTestAllocator(t, nil)

	s := AllocRecords[int32](a, 5)
	require.Len(t, s, 5)
	for i := range s {
		s[i] = int32(i * 10)
	}
	require.Equal(t, []int32{0, 10, 20, 30, 40}, s)
	require.EqualValues(t, 24, a.LiveBytes())

	UnallocRecords(a, s)
	require.Zero(t, a.LiveBytes())
	require.Equal(t, 1, a.FreeCount(20))

	require.Nil(t, AllocRecords[int32](a, 0))
	require.Nil(t, AllocRecords[int32](a, -3))
	UnallocRecords[int32](a, nil)
	require.Zero(t, a.LiveBytes())
}

func TestAllocRecordsLarge(t *testing.T) {
	a := newTestAllocator(t, &Config{Debug: DebugChecked})
	s := AllocRecords[int64](a, 1000)
	require.Len(t, s, 1000)
	require.Equal(t, 1, a.Statistics().LargeBlocks)
	UnallocRecords(a, s)
	require.Zero(t, a.Statistics().LargeBlocks)
}

func TestRecordAlignment(t *testing.T) {
	a := newTestAllocator(t, nil)
	for i := 0; i < 10; i++ {
		p := AllocRecord[int64](a)
		require.Zero(t, uintptr(unsafe.Pointer(p))%unsafe.Alignof(int64(0)), "record %d", i)
	}

	if unsafe.Alignof(int64(0)) <= 4 {
		t.Skip("int64 is 4-byte aligned on this platform")
	}
	narrow := newTestAllocator(t, &Config{Quantum: 4})
	require.Panics(t, func() { AllocRecord[int64](narrow) })
}

func TestPtrAndKeepAlive(t *testing.T) {
	a := newTestAllocator(t, nil)
	p := AllocRecord[int](a)
	*p = 42

	result := PtrAndKeepAlive(a, p)
	require.Same(t, p, result)
	require.Equal(t, 42, *result)
}

func BenchmarkAllocRecord(b *testing.B) {
	a := newTestAllocator(b, nil)

	b.Run("AllocRecord[int]", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			UnallocRecord(a, AllocRecord[int](a))
		}
	})

	b.Run("AllocRecordUninitialized[int]", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			UnallocRecord(a, AllocRecordUninitialized[int](a))
		}
	})
}

func BenchmarkAllocRecords(b *testing.B) {
	a := newTestAllocator(b, nil)
	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("AllocRecords-%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				UnallocRecords(a, AllocRecords[int](a, size))
			}
		})
	}
}
