package pfalloc

import (
	"fmt"
	"io"
)

// ClassStats is the free-chain occupancy of one size class.
type ClassStats struct {
	Size int // quantized block size
	Free int // blocks on the chain
}

// Stats is a snapshot of allocator accounting.
type Stats struct {
	LiveBytes      int64 // quantized bytes handed out and not yet released
	WastedBytes    int64 // quantized bytes idle on free chains
	Arenas         int
	ArenaBytes     int // total arena capacity
	ArenaFree      int // unused tail of the current arena
	AbandonedBytes int // arena tails too small to reuse
	LargeBlocks    int // live blocks above FastMax
	Utilization    float64
	Classes        []ClassStats // non-empty classes, ascending size
}

// LiveBytes returns the sum of quantized sizes of all unreleased blocks.
func (a *Allocator) LiveBytes() int64 {
	return a.allocated
}

// WastedBytes returns the sum of quantized sizes sitting on free chains.
func (a *Allocator) WastedBytes() int64 {
	return a.wasted
}

// NumArenas returns the number of arenas acquired since Init.
func (a *Allocator) NumArenas() int {
	return len(a.zones.chunks)
}

// Capacity returns the total size of all arenas.
func (a *Allocator) Capacity() int {
	return a.zones.capacity
}

// Utilization returns the share of arena capacity carved into blocks that are
// currently live, debug headers included (0.0 to 1.0).
func (a *Allocator) Utilization() float64 {
	if a.zones.capacity == 0 {
		return 0
	}
	used := a.zones.capacity - len(a.zones.space) - a.zones.abandoned - int(a.wasted) -
		a.hdr*a.freeBlocks()
	return float64(used) / float64(a.zones.capacity)
}

// FreeCount returns the number of blocks on the chain for size n, or 0 when
// n is above FastMax.
func (a *Allocator) FreeCount(n int) int {
	q := a.roundAlloc(n)
	if q > a.fastMax {
		return 0
	}
	return a.free[q/a.quantum].len()
}

func (a *Allocator) freeBlocks() int {
	total := 0
	for i := range a.free {
		total += a.free[i].len()
	}
	return total
}

// Statistics returns a read-only snapshot of the allocator counters.
func (a *Allocator) Statistics() Stats {
	s := Stats{
		LiveBytes:      a.allocated,
		WastedBytes:    a.wasted,
		Arenas:         len(a.zones.chunks),
		ArenaBytes:     a.zones.capacity,
		ArenaFree:      len(a.zones.space),
		AbandonedBytes: a.zones.abandoned,
		LargeBlocks:    a.largeBlocks,
		Utilization:    a.Utilization(),
	}
	for m := range a.free {
		if n := a.free[m].len(); n > 0 {
			s.Classes = append(s.Classes, ClassStats{Size: m * a.quantum, Free: n})
		}
	}
	return s
}

// ReportWasted writes the occupancy of every non-empty free chain to w and
// returns the total number of idle bytes. With verbose set every block
// address is listed instead of a count.
func (a *Allocator) ReportWasted(w io.Writer, verbose bool) int64 {
	var total int64
	fmt.Fprintln(w, "Wasted core:")
	for m := range a.free {
		c := &a.free[m]
		if c.len() == 0 {
			continue
		}
		size := m * a.quantum
		if verbose {
			fmt.Fprintf(w, "    Size = %d:\n", size)
			c.each(func(b []byte) {
				fmt.Fprintf(w, "\t%#x\n", addr(b))
			})
		} else {
			fmt.Fprintf(w, "\tSize = %3d\t%4d cells\n", size, c.len())
		}
		total += int64(size * c.len())
	}
	fmt.Fprintf(w, "Total wasted: %d bytes\n", total)
	return total
}
