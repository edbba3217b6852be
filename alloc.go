package pfalloc

import (
	"fmt"
	"runtime"
	"unsafe"
)

// AllocRecord returns a zeroed *T stored in a block from a. T must not contain
// Go pointers: the garbage collector does not scan allocator memory.
// Release it with UnallocRecord.
func AllocRecord[T any](a *Allocator) *T {
	p := AllocRecordUninitialized[T](a)
	var zero T
	*p = zero
	return p
}

// AllocRecordUninitialized is AllocRecord without zeroing. The contents are
// whatever the previous owner of the block left behind.
func AllocRecordUninitialized[T any](a *Allocator) *T {
	size := recordSize[T](a)
	b := a.Alloc(size)
	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// UnallocRecord releases a record from AllocRecord.
func UnallocRecord[T any](a *Allocator, p *T) {
	size := recordSize[T](a)
	a.Unalloc(size, unsafe.Slice((*byte)(unsafe.Pointer(p)), a.roundAlloc(size))[:size])
}

// AllocRecords allocates n uninitialised records as one block. Release it
// with UnallocRecords and the same n.
func AllocRecords[T any](a *Allocator, n int) []T {
	if n <= 0 {
		return nil
	}
	size := recordSize[T](a) * n
	b := a.Alloc(size)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// UnallocRecords releases a block from AllocRecords.
func UnallocRecords[T any](a *Allocator, s []T) {
	if len(s) == 0 {
		return
	}
	size := recordSize[T](a) * len(s)
	p := (*byte)(unsafe.Pointer(unsafe.SliceData(s)))
	a.Unalloc(size, unsafe.Slice(p, a.roundAlloc(size))[:size])
}

// PtrAndKeepAlive returns t and keeps a reachable until this call, so arena
// memory behind t cannot be collected while unsafe code still uses it.
func PtrAndKeepAlive[T any](a *Allocator, t *T) *T {
	runtime.KeepAlive(a)
	return t
}

func recordSize[T any](a *Allocator) int {
	var zero T
	if align := int(unsafe.Alignof(zero)); align > a.quantum {
		panic(fmt.Sprintf("pfalloc: %T needs %d-byte alignment, quantum is %d", zero, align, a.quantum))
	}
	return int(unsafe.Sizeof(zero))
}
