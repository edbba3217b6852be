package pfalloc

import (
	"fmt"
	"runtime"
	"testing"

	"go.uber.org/zap"
)

func newBenchAllocator(level DebugLevel) *Allocator {
	return New(&Config{Debug: level, Logger: zap.NewNop()})
}

// BenchmarkAllocUnalloc measures the steady-state pop/push cycle of one class
func BenchmarkAllocUnalloc(b *testing.B) {
	for _, level := range []DebugLevel{DebugOff, DebugChecked, DebugFilled} {
		for _, size := range []int{8, 64, 512, 1024} {
			b.Run(fmt.Sprintf("%s/%d", level, size), func(b *testing.B) {
				a := newBenchAllocator(level)
				a.Unalloc(size, a.Alloc(size))
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					a.Unalloc(size, a.Alloc(size))
				}
			})
		}
	}

	b.Run("Builtin/64", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = make([]byte, 64)
		}
	})
}

// BenchmarkRealisticUsage tests scenarios where recycling size classes should excel
func BenchmarkRealisticUsage(b *testing.B) {

	// Test 1: Many small allocations released in batches
	b.Run("ManySmallAllocs/Allocator", func(b *testing.B) {
		a := newBenchAllocator(DebugOff)
		held := make([][]byte, 100)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			for j := range held {
				held[j] = a.Alloc(64)
			}
			for _, h := range held {
				a.Unalloc(64, h)
			}
		}
	})

	b.Run("ManySmallAllocs/Builtin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			objects := make([][]byte, 100)
			for j := 0; j < 100; j++ {
				objects[j] = make([]byte, 64)
			}
			if i%10 == 0 {
				runtime.GC()
			}
		}
	})

	// Test 2: Fixed-size records
	type record struct {
		ID   int64
		Data [56]byte
	}

	b.Run("RecordAllocs/Allocator", func(b *testing.B) {
		a := newBenchAllocator(DebugOff)
		held := make([]*record, 50)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			for j := range held {
				held[j] = AllocRecordUninitialized[record](a)
				held[j].ID = int64(j)
			}
			for _, r := range held {
				UnallocRecord(a, r)
			}
		}
	})

	b.Run("RecordAllocs/Builtin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			records := make([]*record, 50)
			for j := 0; j < 50; j++ {
				records[j] = &record{ID: int64(j)}
			}
			if i%10 == 0 {
				runtime.GC()
			}
		}
	})

	// Test 3: Mixed sizes, one above the fast threshold
	b.Run("MixedSizes/Allocator", func(b *testing.B) {
		a := newBenchAllocator(DebugOff)
		sizes := []int{24, 1024, 2048, 512}
		held := make([][]byte, len(sizes))
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			for j, n := range sizes {
				held[j] = a.Alloc(n)
				held[j][0] = byte(j)
			}
			for j, n := range sizes {
				a.Unalloc(n, held[j])
			}
		}
	})

	// Test 4: Short strings
	b.Run("Strings/Allocator", func(b *testing.B) {
		a := newBenchAllocator(DebugOff)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			a.FreeString(a.SaveString("GET /index.html HTTP/1.1"))
		}
	})
}

// BenchmarkArenaGrowth measures carving fresh blocks, including new arenas
func BenchmarkArenaGrowth(b *testing.B) {
	a := newBenchAllocator(DebugOff)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Alloc(128)
		if i%100000 == 99999 {
			a.Init()
		}
	}
}
