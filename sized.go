package pfalloc

import "fmt"

// AllocSized is Alloc for callers that cannot keep track of the requested
// size. The allocator records it so the block can be released with Free.
// Blocks from AllocSized must not be passed to Unalloc.
func (a *Allocator) AllocSized(n int) []byte {
	b := a.Alloc(n)
	if a.sized == nil {
		a.sized = make(map[uintptr]int)
	}
	a.sized[addr(b)] = n
	return b
}

// Free releases a block returned by AllocSized. Unknown or already released
// blocks panic with a *Fault at every debug level.
func (a *Allocator) Free(b []byte) {
	p := addr(b)
	n, ok := a.sized[p]
	if !ok {
		a.fault(FaultUnknownBlock, p, cap(b), "not allocated by AllocSized or already freed")
	}
	a.Unalloc(n, b[:n])
	delete(a.sized, p)
}

// SizeOf returns the size recorded for a block from AllocSized.
func (a *Allocator) SizeOf(b []byte) (int, error) {
	n, ok := a.sized[addr(b)]
	if !ok {
		return 0, fmt.Errorf("pfalloc: block %#x was not allocated by AllocSized", addr(b))
	}
	return n, nil
}
