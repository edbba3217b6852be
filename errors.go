package pfalloc

import (
	"errors"
	"fmt"
)

// ErrArenaExhausted is passed (wrapped) to Config.OnFatal when the Source
// cannot supply an arena or a large block.
var ErrArenaExhausted = errors.New("pfalloc: underlying allocator out of memory")

// FaultKind classifies a contract violation caught by the debug layer.
type FaultKind int

const (
	FaultSizeMismatch FaultKind = iota + 1
	FaultDoubleRelease
	FaultUseAfterFree
	FaultBadMagic
	FaultOutOfRange
	FaultChainCorrupt
	FaultUnknownBlock
)

var faultNames = map[FaultKind]string{
	FaultSizeMismatch:  "size mismatch",
	FaultDoubleRelease: "double release",
	FaultUseAfterFree:  "write after release",
	FaultBadMagic:      "corrupt block header",
	FaultOutOfRange:    "pointer outside allocator range",
	FaultChainCorrupt:  "corrupt free chain",
	FaultUnknownBlock:  "block not allocated here",
}

func (k FaultKind) String() string {
	if s, ok := faultNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FaultKind(%d)", int(k))
}

// Fault is the panic value raised when a debug check fails.
type Fault struct {
	Kind   FaultKind
	Addr   uintptr
	Size   int
	Detail string
}

func (f *Fault) Error() string {
	msg := fmt.Sprintf("pfalloc: %s at %#x (size %d)", f.Kind, f.Addr, f.Size)
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	return msg
}
