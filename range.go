package pfalloc

import "fmt"

// Range is the lowest and highest address ever handed out from an arena.
// It only widens and is used for sanity checks, never for addressing.
type Range struct {
	Low  uintptr
	High uintptr // exclusive
}

func emptyRange() Range {
	return Range{Low: ^uintptr(0)}
}

// Empty reports whether no arena has been recorded yet.
func (r Range) Empty() bool {
	return r.High == 0
}

// Widen extends r to cover [base, base+size).
func (r *Range) Widen(base uintptr, size int) {
	if base < r.Low {
		r.Low = base
	}
	if top := base + uintptr(size); top > r.High {
		r.High = top
	}
}

// Contains reports whether [p, p+size) lies inside r.
func (r Range) Contains(p uintptr, size int) bool {
	return p >= r.Low && p+uintptr(size) <= r.High
}

func (r Range) String() string {
	if r.Empty() {
		return "[empty]"
	}
	return fmt.Sprintf("[%#x, %#x)", r.Low, r.High)
}
