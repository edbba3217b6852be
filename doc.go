// Package pfalloc implements a perfect-fit memory allocator for small,
// frequently allocated fixed-size records.
//
// # Overview
//
// Every request is rounded up to a multiple of the quantum (8 bytes by
// default). Sizes up to FastMax (1 KiB by default) belong to a size class;
// each class owns a LIFO chain of released blocks of exactly that size, so
// allocation and release are a pop and a push. When a chain is empty the
// block is bump-allocated from the current arena, a 64 KiB region obtained
// from the underlying Source. Larger requests bypass the classes and go
// straight to the Source.
//
// Memory is never handed back to the Source except for large blocks; arenas
// live as long as the allocator.
//
// # Basic Usage
//
//	a := pfalloc.New(nil)
//
//	b := a.Alloc(12)  // len 12, cap 16, contents undefined
//	a.Unalloc(12, b)  // the caller supplies the original size
//
//	c := a.Alloc(12)  // same block again: last released, first reused
//
// The caller must pass the same size to Unalloc that it gave to Alloc. The
// allocator does not remember sizes unless AllocSized and Free are used.
//
// # Debug Levels
//
// Config.Debug selects one of three strategies:
//
//   - DebugOff: no header, no checks. Misuse is undefined behaviour.
//   - DebugChecked: a hidden header per block records size, in-use flag and
//     a magic word. Release checks all three and the address range.
//   - DebugFilled: as DebugChecked, and released payloads are filled with
//     SentinelByte (0xcc), which is verified on reuse to catch writes after
//     release.
//
// Violations panic with a *Fault. Building with the pfalloc_debug tag makes
// DebugFilled the default; ConfigFromEnv honours PFALLOC_DEBUG.
//
// # Thread Safety
//
// Allocator is not thread-safe. For concurrent access, use SafeAllocator:
//
//	s := pfalloc.NewSafe(nil)
//	b := s.Alloc(64)
//	s.Unalloc(64, b)
//
// # Accounting
//
// LiveBytes is the sum of quantized sizes of unreleased blocks; WastedBytes
// is the sum of quantized sizes idle on free chains. ReportWasted prints the
// chain occupancy:
//
//	a.ReportWasted(os.Stdout, false)
//
// The pfmetrics package exports the same numbers to Prometheus.
package pfalloc
