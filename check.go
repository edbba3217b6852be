package pfalloc

import "fmt"

// CheckFreeChains walks every free chain and panics with a *Fault on the
// first corrupt entry: a block outside the tracked range, a block whose size
// does not match its class, a block listed twice, or, with a debug level
// set, a damaged header or sentinel fill.
func (a *Allocator) CheckFreeChains() {
	seen := make(map[uintptr]int, a.freeBlocks())
	for m := range a.free {
		q := m * a.quantum
		a.free[m].each(func(b []byte) {
			p := addr(b)
			if len(b) != q || cap(b) != q {
				a.fault(FaultChainCorrupt, p, q,
					fmt.Sprintf("block of %d bytes on chain of %d", cap(b), q))
			}
			if !a.rng.Contains(p, q) {
				a.fault(FaultOutOfRange, p, q, "outside "+a.rng.String())
			}
			if prev, dup := seen[p]; dup {
				a.fault(FaultChainCorrupt, p, q,
					fmt.Sprintf("block already on chain of %d", prev))
			}
			seen[p] = q
			a.check.verifyFree(a, b, q)
		})
	}
}
