package pfalloc

import (
	"io"
	"sync"

	"go.uber.org/atomic"
)

// SafeAllocator serialises every call to one Allocator behind a mutex, so it
// can be shared between goroutines. Ops reads its counters without taking
// the lock.
type SafeAllocator struct {
	mu sync.Mutex
	a  *Allocator

	// readable without the lock
	allocs   atomic.Uint64
	releases atomic.Uint64
}

// NewSafe creates a thread-safe allocator. A nil cfg means DefaultConfig().
func NewSafe(cfg *Config) *SafeAllocator {
	return &SafeAllocator{a: New(cfg)}
}

// Init thread-safely resets the allocator.
func (s *SafeAllocator) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Init()
}

// Alloc thread-safely allocates n bytes.
func (s *SafeAllocator) Alloc(n int) []byte {
	s.allocs.Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(n)
}

// Unalloc thread-safely releases a block from Alloc(n).
func (s *SafeAllocator) Unalloc(n int, b []byte) {
	s.releases.Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Unalloc(n, b)
}

// AllocSized thread-safely allocates n bytes and records the size.
func (s *SafeAllocator) AllocSized(n int) []byte {
	s.allocs.Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AllocSized(n)
}

// Free thread-safely releases a block from AllocSized.
func (s *SafeAllocator) Free(b []byte) {
	s.releases.Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Free(b)
}

// SaveString thread-safely copies str into a new block.
func (s *SafeAllocator) SaveString(str string) []byte {
	s.allocs.Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.SaveString(str)
}

// FreeString thread-safely releases a block from SaveString.
func (s *SafeAllocator) FreeString(b []byte) {
	s.releases.Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.FreeString(b)
}

// CheckFreeChains thread-safely validates every free chain.
func (s *SafeAllocator) CheckFreeChains() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.CheckFreeChains()
}

// Statistics thread-safely returns an accounting snapshot.
func (s *SafeAllocator) Statistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Statistics()
}

// ReportWasted thread-safely writes the free-chain report to w.
func (s *SafeAllocator) ReportWasted(w io.Writer, verbose bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.ReportWasted(w, verbose)
}

// Ops returns the number of allocations and releases made through s,
// without waiting for the lock.
func (s *SafeAllocator) Ops() (allocs, releases uint64) {
	return s.allocs.Load(), s.releases.Load()
}

// Do runs fn with exclusive access to the underlying allocator, for
// sequences that must not interleave with other goroutines.
func (s *SafeAllocator) Do(fn func(a *Allocator)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.a)
}
