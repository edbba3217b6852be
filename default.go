package pfalloc

// Default is the process-wide allocator behind the package-level functions.
// Like every Allocator it is not reentrant; callers on several goroutines
// need their own locking or a SafeAllocator.
var Default = New(nil)

// InitAlloc resets Default.
func InitAlloc() {
	Default.Init()
}

// Alloc allocates n bytes from Default.
func Alloc(n int) []byte {
	return Default.Alloc(n)
}

// Unalloc releases a block from Alloc(n) to Default.
func Unalloc(n int, b []byte) {
	Default.Unalloc(n, b)
}

// SaveString copies s into a block from Default.
func SaveString(s string) []byte {
	return Default.SaveString(s)
}

// FreeString releases a block from SaveString to Default.
func FreeString(b []byte) {
	Default.FreeString(b)
}
