package pfalloc

// Source is the underlying system allocator. Arenas and large blocks are
// obtained from it; only large blocks are ever handed back.
type Source interface {
	Acquire(size int) ([]byte, error)
	Release(b []byte) error
}

// HeapSource serves memory from the Go heap. Release drops the reference and
// leaves reclamation to the garbage collector.
type HeapSource struct{}

// Acquire returns a fresh zeroed slice of size bytes.
func (HeapSource) Acquire(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// Release is a no-op.
func (HeapSource) Release(b []byte) error {
	return nil
}
