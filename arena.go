package pfalloc

import (
	"slices"
	"sort"
	"unsafe"
)

// chunk is one arena block obtained from the Source. Chunks are held for the
// life of the allocator.
type chunk struct {
	buf  []byte
	base uintptr
}

// arena is the bump allocator behind the small-object path. space is the
// unused tail of the newest chunk: its start is the cursor and its length is
// the remaining capacity.
type arena struct {
	chunks    []chunk // ordered by base address
	space     []byte
	capacity  int
	abandoned int
}

// take carves need bytes from the current chunk, or returns nil when the tail
// is too short. The result cannot be appended into the next block.
func (ar *arena) take(need int) []byte {
	if need > len(ar.space) {
		return nil
	}
	z := ar.space[:need:need]
	ar.space = ar.space[need:]
	return z
}

// tail detaches and returns whatever is left of the current chunk.
func (ar *arena) tail() []byte {
	t := ar.space
	ar.space = nil
	return t
}

// install makes buf the current chunk.
func (ar *arena) install(buf []byte) chunk {
	c := chunk{buf: buf, base: addr(buf)}
	i, _ := slices.BinarySearchFunc(ar.chunks, c.base, func(c chunk, p uintptr) int {
		switch {
		case c.base < p:
			return -1
		case c.base > p:
			return 1
		}
		return 0
	})
	ar.chunks = slices.Insert(ar.chunks, i, c)
	ar.space = buf
	ar.capacity += len(buf)
	return c
}

// find returns the chunk holding [p, p+size) and the offset of p inside it.
func (ar *arena) find(p uintptr, size int) (chunk, int, bool) {
	i := sort.Search(len(ar.chunks), func(i int) bool {
		return ar.chunks[i].base > p
	}) - 1
	if i < 0 {
		return chunk{}, 0, false
	}
	c := ar.chunks[i]
	off := int(p - c.base)
	if off+size > len(c.buf) {
		return chunk{}, 0, false
	}
	return c, off, true
}

func (ar *arena) reset() {
	*ar = arena{}
}

// addr is the identity of a block: the address of its first byte.
func addr(b []byte) uintptr {
	if cap(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
