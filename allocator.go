package pfalloc

import (
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Allocator is a perfect-fit allocator. Requests are rounded to the quantum;
// sizes up to FastMax are recycled through per-class free chains and carved
// from arenas, larger ones go straight to the Source.
//
// An Allocator is not safe for concurrent use. Use SafeAllocator to share one
// between goroutines.
type Allocator struct {
	cfg     Config
	quantum int
	fastMax int
	hdr     int
	check   checker
	log     *zap.Logger

	zones arena
	free  []freeChain // indexed by q / quantum
	rng   Range

	allocated int64
	wasted    int64

	largeBlocks int
	large       map[uintptr]int // live large blocks, debug levels only
	sized       map[uintptr]int // blocks from AllocSized
}

// New returns an initialised Allocator. A nil cfg means DefaultConfig().
func New(cfg *Config) *Allocator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := cfg.normalize()
	a := &Allocator{
		cfg:     c,
		quantum: c.Quantum,
		fastMax: c.FastMax,
		hdr:     headerSize(c.Debug, c.Quantum),
		check:   newChecker(c.Debug),
		log:     c.Logger.Named("pfalloc"),
	}
	a.Init()
	return a
}

// Init resets the free chains, the counters, the arena cursor and the address
// range. Arenas acquired before are forgotten, so blocks handed out earlier
// must not be released afterwards.
func (a *Allocator) Init() {
	a.zones.reset()
	a.free = make([]freeChain, a.fastMax/a.quantum+1)
	a.rng = emptyRange()
	a.allocated = 0
	a.wasted = 0
	a.largeBlocks = 0
	a.large = nil
	if a.cfg.Debug != DebugOff {
		a.large = make(map[uintptr]int)
	}
	a.sized = nil
}

// Alloc returns a block of n bytes. The result has length n and capacity
// equal to the quantized size; its contents are undefined. Alloc never
// returns nil: if the Source fails the process is terminated through
// Config.OnFatal.
func (a *Allocator) Alloc(n int) []byte {
	q := a.roundAlloc(n)

	if q <= a.fastMax {
		m := q / a.quantum
		c := &a.free[m]
		var b []byte
		if h := c.head(); h != nil {
			// Checked while still on the chain so a fault leaves it there.
			a.check.reuse(a, h, q)
			b = c.pop()
			a.wasted -= int64(q)
			if a.cfg.Trace {
				a.log.Debug("alloc: reuse", zap.Int("size", q), zap.Int("left", c.len()))
			}
		} else {
			if a.cfg.Trace {
				a.log.Debug("alloc: new", zap.Int("size", q))
			}
			b = a.carve(q)
		}
		a.allocated += int64(q)
		return b[:n]
	}

	b := a.allocLarge(q)
	a.allocated += int64(q)
	return b[:n]
}

// Unalloc releases b, which must have been returned by Alloc(n) with the same
// n. With DebugOff this contract is not verified.
func (a *Allocator) Unalloc(n int, b []byte) {
	q := a.roundAlloc(n)

	if q <= a.fastMax {
		m := q / a.quantum
		a.check.release(a, b, q)
		a.free[m].push(b[:q:q])
		a.wasted += int64(q)
		a.allocated -= int64(q)
		if a.cfg.Trace {
			a.log.Debug("unalloc",
				zap.Int("size", q),
				zap.Uintptr("addr", addr(b)),
				zap.Int("chain", a.free[m].len()))
		}
		return
	}

	a.releaseLarge(b, q)
	a.allocated -= int64(q)
}

// roundAlloc quantizes n. Every block is at least one quantum.
func (a *Allocator) roundAlloc(n int) int {
	if n < 0 {
		panic(fmt.Sprintf("pfalloc: negative size %d", n))
	}
	if n > math.MaxInt-a.quantum {
		panic(fmt.Sprintf("pfalloc: size %d too large", n))
	}
	if n < a.quantum {
		return a.quantum
	}
	return roundUp(n, a.quantum)
}

// carve bump-allocates q payload bytes plus the debug header.
func (a *Allocator) carve(q int) []byte {
	need := a.hdr + q
	z := a.zones.take(need)
	if z == nil {
		a.spill()
		a.grow()
		z = a.zones.take(need)
	}
	a.check.carve(z[:a.hdr], q)
	return z[a.hdr:]
}

// spill hands the unused tail of the current arena to the free chain of its
// size, or abandons it when it is below MinRemainder.
func (a *Allocator) spill() {
	t := a.zones.tail()
	if len(t) == 0 {
		return
	}
	if len(t) < a.cfg.MinRemainder {
		a.zones.abandoned += len(t)
		return
	}
	q := len(t) - a.hdr
	a.check.spill(t[:a.hdr], q)
	a.free[q/a.quantum].push(t[a.hdr:])
	a.wasted += int64(q)
	if a.cfg.Trace {
		a.log.Debug("arena remainder released", zap.Int("size", q))
	}
}

// grow installs a fresh arena from the Source.
func (a *Allocator) grow() {
	size := a.cfg.ArenaSize
	buf, err := a.cfg.Source.Acquire(size)
	if err != nil || len(buf) < size {
		if err == nil {
			err = fmt.Errorf("short block of %d bytes", len(buf))
		}
		a.fatal(fmt.Errorf("%w: arena of %d bytes: %v", ErrArenaExhausted, size, err))
	}
	buf = buf[:size:size]
	a.check.arena(buf)
	c := a.zones.install(buf)
	a.AllocRange(c.base, size)
	if a.cfg.Trace {
		a.log.Debug("arena acquired",
			zap.Int("size", size),
			zap.Uintptr("base", c.base),
			zap.Int("arenas", len(a.zones.chunks)))
	}
}

func (a *Allocator) allocLarge(q int) []byte {
	b, err := a.cfg.Source.Acquire(q)
	if err != nil || len(b) < q {
		if err == nil {
			err = fmt.Errorf("short block of %d bytes", len(b))
		}
		a.fatal(fmt.Errorf("%w: large block of %d bytes: %v", ErrArenaExhausted, q, err))
	}
	b = b[:q:q]
	a.largeBlocks++
	a.check.allocLarge(a, b, q)
	if a.cfg.Trace {
		a.log.Debug("alloc: large", zap.Int("size", q), zap.Uintptr("addr", addr(b)))
	}
	return b
}

func (a *Allocator) releaseLarge(b []byte, q int) {
	a.check.releaseLarge(a, b, q)
	a.largeBlocks--
	if err := a.cfg.Source.Release(b); err != nil {
		a.log.Warn("release of large block failed",
			zap.Int("size", q),
			zap.Uintptr("addr", addr(b)),
			zap.Error(err))
	}
}

// AllocRange widens the tracked address range to cover [base, base+size).
func (a *Allocator) AllocRange(base uintptr, size int) {
	a.rng.Widen(base, size)
}

// Range returns the tracked address range.
func (a *Allocator) Range() Range {
	return a.rng
}

// HeaderSize returns the hidden per-block overhead of the debug level, 0
// with DebugOff.
func (a *Allocator) HeaderSize() int {
	return a.hdr
}

// Config returns the normalised configuration in use.
func (a *Allocator) Config() Config {
	return a.cfg
}

// header locates the hidden header of the block at p.
func (a *Allocator) header(p uintptr, q int) []byte {
	if !a.rng.Contains(p, 1) {
		a.fault(FaultOutOfRange, p, q, "outside "+a.rng.String())
	}
	c, off, ok := a.zones.find(p, 1)
	if !ok || off < a.hdr {
		a.fault(FaultOutOfRange, p, q, "not inside any arena")
	}
	if (off-a.hdr)%a.quantum != 0 {
		a.fault(FaultUnknownBlock, p, q, "misaligned block")
	}
	return c.buf[off-a.hdr : off]
}

// fault reports a contract violation and aborts the caller by panicking
// with a *Fault.
func (a *Allocator) fault(kind FaultKind, p uintptr, size int, detail string) {
	f := &Fault{Kind: kind, Addr: p, Size: size, Detail: detail}
	a.log.Error("allocator fault",
		zap.Stringer("kind", kind),
		zap.Uintptr("addr", p),
		zap.Int("size", size),
		zap.String("detail", detail))
	panic(f)
}

// fatal reports that no more memory can be obtained. It never returns.
func (a *Allocator) fatal(err error) {
	if a.cfg.OnFatal != nil {
		a.cfg.OnFatal(err)
	} else {
		a.fatalLogger().Fatal("cannot obtain memory, swap space full?", zap.Error(err))
	}
	panic(err)
}

// fatalLogger returns a.log, or a stderr logger when a.log drops fatal
// entries, as the no-op global logger does.
func (a *Allocator) fatalLogger() *zap.Logger {
	if a.log.Core().Enabled(zapcore.FatalLevel) {
		return a.log
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zapcore.ErrorLevel)
	return zap.New(core).Named("pfalloc")
}
