//go:build linux || darwin

package pfalloc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapSource maps anonymous private memory for every request, keeping arena
// memory outside the Go heap.
type MmapSource struct{}

// Acquire maps size bytes of zeroed memory.
func (MmapSource) Acquire(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap(%d): %w", size, err)
	}
	return b, nil
}

// Release unmaps b, which must be a whole mapping returned by Acquire.
func (MmapSource) Release(b []byte) error {
	if err := unix.Munmap(b[:cap(b)]); err != nil {
		return fmt.Errorf("munmap(%d): %w", cap(b), err)
	}
	return nil
}
