package pfalloc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultQuantum is the rounding granularity of every request.
	DefaultQuantum = 8

	// DefaultFastMax is the largest quantized size served from free lists.
	DefaultFastMax = 1024

	// DefaultArenaSize is the size of every arena obtained from the Source (64 KiB).
	DefaultArenaSize = 1 << 16

	// SentinelByte fills released and never-touched memory in debug modes.
	SentinelByte = 0xcc
)

// DebugLevel selects the validation strategy of an Allocator.
type DebugLevel int

const (
	// DebugOff performs no runtime checks. Release trusts the caller-supplied size.
	DebugOff DebugLevel = iota
	// DebugChecked keeps a hidden header per block and validates size,
	// double release and range on every release and reuse.
	DebugChecked
	// DebugFilled adds sentinel fill on release and verifies it on reuse.
	DebugFilled
)

func (l DebugLevel) String() string {
	switch l {
	case DebugOff:
		return "off"
	case DebugChecked:
		return "checked"
	case DebugFilled:
		return "filled"
	}
	return "DebugLevel(" + strconv.Itoa(int(l)) + ")"
}

// ParseDebugLevel accepts "off", "checked", "filled" or the numeric levels 0-2.
func ParseDebugLevel(s string) (DebugLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "off", "none":
		return DebugOff, nil
	case "1", "checked", "check":
		return DebugChecked, nil
	case "2", "filled", "fill":
		return DebugFilled, nil
	}
	return DebugOff, fmt.Errorf("pfalloc: invalid debug level %q", s)
}

// Config holds the tunables of an Allocator. The zero value of every field
// means "use the default".
type Config struct {
	// Quantum is the rounding granularity. Must be a power of two.
	Quantum int

	// FastMax is the largest quantized size kept on free lists. Larger
	// requests go straight to the Source.
	FastMax int

	// ArenaSize is the size of each block requested from the Source for
	// bump allocation.
	ArenaSize int

	// MinRemainder is the smallest arena tail (header included) that is
	// spilled onto a free list when a new arena is needed. Smaller tails
	// are abandoned. It is never lower than one header plus one Quantum.
	MinRemainder int

	Debug DebugLevel

	// Trace logs every allocate and release at debug level.
	Trace bool

	Source Source
	Logger *zap.Logger

	// OnFatal is called when the Source cannot supply memory. The default
	// logs with Logger.Fatal, which terminates the process.
	OnFatal func(err error)
}

// DefaultConfig returns the configuration used when New is given nil.
func DefaultConfig() *Config {
	return &Config{
		Quantum:   DefaultQuantum,
		FastMax:   DefaultFastMax,
		ArenaSize: DefaultArenaSize,
		Debug:     defaultDebugLevel,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by the PFALLOC_* environment
// variables.
func ConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if v, ok := os.LookupEnv("PFALLOC_DEBUG"); ok {
		lvl, err := ParseDebugLevel(v)
		if err != nil {
			return nil, err
		}
		cfg.Debug = lvl
	}
	if v := os.Getenv("PFALLOC_TRACE"); v != "" {
		trace, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("pfalloc: PFALLOC_TRACE: %w", err)
		}
		cfg.Trace = trace
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"PFALLOC_FAST_MAX", &cfg.FastMax},
		{"PFALLOC_ARENA_SIZE", &cfg.ArenaSize},
		{"PFALLOC_MIN_REMAINDER", &cfg.MinRemainder},
	}
	for _, e := range ints {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("pfalloc: %s: invalid size %q", e.name, v)
		}
		*e.dst = n
	}
	return cfg, nil
}

// normalize fills defaults and enforces the layout constraints.
func (c Config) normalize() Config {
	switch {
	case c.Debug < DebugOff:
		c.Debug = DebugOff
	case c.Debug > DebugFilled:
		c.Debug = DebugFilled
	}
	if c.Quantum <= 0 || c.Quantum&(c.Quantum-1) != 0 {
		c.Quantum = DefaultQuantum
	}
	if c.FastMax <= 0 {
		c.FastMax = DefaultFastMax
	}
	c.FastMax = roundUp(c.FastMax, c.Quantum)
	if c.ArenaSize <= 0 {
		c.ArenaSize = DefaultArenaSize
	}
	c.ArenaSize = roundUp(c.ArenaSize, c.Quantum)
	hdr := headerSize(c.Debug, c.Quantum)
	if c.ArenaSize < hdr+c.FastMax {
		c.ArenaSize = hdr + c.FastMax
	}
	if c.MinRemainder < hdr+c.Quantum {
		c.MinRemainder = hdr + c.Quantum
	}
	if c.Source == nil {
		c.Source = HeapSource{}
	}
	if c.Logger == nil {
		c.Logger = zap.L()
	}
	return c
}

func roundUp(n, quantum int) int {
	return (n + quantum - 1) &^ (quantum - 1)
}
