//go:build !linux && !darwin

package pfalloc

// MmapSource falls back to the Go heap where anonymous mappings are not
// available.
type MmapSource struct {
	HeapSource
}
