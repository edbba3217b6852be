package pfalloc

// SaveString copies s into a block from a. The result must be released with
// FreeString without being resliced.
func (a *Allocator) SaveString(s string) []byte {
	b := a.Alloc(len(s))
	copy(b, s)
	return b
}

// FreeString releases a block returned by SaveString.
func (a *Allocator) FreeString(b []byte) {
	a.Unalloc(len(b), b)
}
