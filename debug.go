package pfalloc

import (
	"encoding/binary"
	"fmt"
)

// headerMagic marks an intact block header.
const headerMagic uint32 = 0xdf6556fd

// Header layout: size (u32), magic (u32), in-use flag (u8), padding.
const (
	hdrSizeOff  = 0
	hdrMagicOff = 4
	hdrInUseOff = 8
	hdrLen      = 16
)

// headerSize is the per-block overhead for level, rounded to the quantum so
// payloads stay aligned.
func headerSize(level DebugLevel, quantum int) int {
	if level == DebugOff {
		return 0
	}
	return roundUp(hdrLen, quantum)
}

// checker is the validation strategy selected by the debug level. Every hook
// sits on a hot path, so DebugOff gets an implementation that does nothing.
type checker interface {
	arena(buf []byte)
	carve(hdr []byte, q int)
	spill(hdr []byte, q int)
	reuse(a *Allocator, b []byte, q int)
	release(a *Allocator, b []byte, q int)
	allocLarge(a *Allocator, b []byte, q int)
	releaseLarge(a *Allocator, b []byte, q int)
	verifyFree(a *Allocator, b []byte, q int)
}

func newChecker(level DebugLevel) checker {
	switch level {
	case DebugChecked:
		return headerChecks{}
	case DebugFilled:
		return headerChecks{fill: true}
	}
	return noChecks{}
}

type noChecks struct{}

func (noChecks) arena([]byte)                         {}
func (noChecks) carve([]byte, int)                    {}
func (noChecks) spill([]byte, int)                    {}
func (noChecks) reuse(*Allocator, []byte, int)        {}
func (noChecks) release(*Allocator, []byte, int)      {}
func (noChecks) allocLarge(*Allocator, []byte, int)   {}
func (noChecks) releaseLarge(*Allocator, []byte, int) {}
func (noChecks) verifyFree(*Allocator, []byte, int)   {}

// headerChecks keeps a hidden header in front of every small block. With
// fill set, released payloads are overwritten with SentinelByte and must
// still hold it when reused.
type headerChecks struct {
	fill bool
}

func (headerChecks) arena(buf []byte) {
	fillSentinel(buf)
}

func (headerChecks) carve(hdr []byte, q int) {
	writeHeader(hdr, q, true)
}

func (headerChecks) spill(hdr []byte, q int) {
	writeHeader(hdr, q, false)
}

func (c headerChecks) reuse(a *Allocator, b []byte, q int) {
	p := addr(b)
	hdr := a.header(p, q)
	c.checkFree(a, hdr, b, p, q)
	hdr[hdrInUseOff] = 1
}

func (c headerChecks) release(a *Allocator, b []byte, q int) {
	p := addr(b)
	hdr := a.header(p, q)
	if binary.LittleEndian.Uint32(hdr[hdrMagicOff:]) != headerMagic {
		a.fault(FaultBadMagic, p, q, "")
	}
	if hdr[hdrInUseOff] == 0 {
		a.fault(FaultDoubleRelease, p, q, "")
	}
	if sz := int(binary.LittleEndian.Uint32(hdr[hdrSizeOff:])); sz != q {
		a.fault(FaultSizeMismatch, p, q, fmt.Sprintf("allocated as %d bytes", sz))
	}
	hdr[hdrInUseOff] = 0
	if c.fill {
		fillSentinel(b[:q])
	}
}

func (c headerChecks) allocLarge(a *Allocator, b []byte, q int) {
	a.large[addr(b)] = q
	if c.fill {
		fillSentinel(b)
	}
}

func (c headerChecks) releaseLarge(a *Allocator, b []byte, q int) {
	p := addr(b)
	sz, ok := a.large[p]
	if !ok {
		a.fault(FaultDoubleRelease, p, q, "large block is not live")
	}
	if sz != q {
		a.fault(FaultSizeMismatch, p, q, fmt.Sprintf("allocated as %d bytes", sz))
	}
	delete(a.large, p)
	if c.fill {
		fillSentinel(b[:q])
	}
}

func (c headerChecks) verifyFree(a *Allocator, b []byte, q int) {
	p := addr(b)
	c.checkFree(a, a.header(p, q), b, p, q)
}

func (c headerChecks) checkFree(a *Allocator, hdr, b []byte, p uintptr, q int) {
	if binary.LittleEndian.Uint32(hdr[hdrMagicOff:]) != headerMagic {
		a.fault(FaultBadMagic, p, q, "")
	}
	if hdr[hdrInUseOff] != 0 {
		a.fault(FaultChainCorrupt, p, q, "free block marked in use")
	}
	if sz := int(binary.LittleEndian.Uint32(hdr[hdrSizeOff:])); sz != q {
		a.fault(FaultChainCorrupt, p, q, fmt.Sprintf("block of %d bytes on chain of %d", sz, q))
	}
	if c.fill {
		for i, v := range b[:q] {
			if v != SentinelByte {
				a.fault(FaultUseAfterFree, p, q, fmt.Sprintf("byte %d is %#02x", i, v))
			}
		}
	}
}

func writeHeader(hdr []byte, q int, inUse bool) {
	binary.LittleEndian.PutUint32(hdr[hdrSizeOff:], uint32(q))
	binary.LittleEndian.PutUint32(hdr[hdrMagicOff:], headerMagic)
	hdr[hdrInUseOff] = 0
	if inUse {
		hdr[hdrInUseOff] = 1
	}
}

func fillSentinel(b []byte) {
	for i := range b {
		b[i] = SentinelByte
	}
}
