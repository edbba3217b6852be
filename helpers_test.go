package pfalloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// newTestAllocator returns an allocator logging to t. A nil cfg gets the
// default sizes with DebugOff regardless of build tags.
func newTestAllocator(t testing.TB, cfg *Config) *Allocator {
	t.Helper()
	if cfg == nil {
		cfg = &Config{Debug: DebugOff}
	}
	if cfg.Logger == nil {
		cfg.Logger = zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	}
	return New(cfg)
}

// requireFault runs fn and asserts that it panics with a *Fault of kind.
func requireFault(t *testing.T, kind FaultKind, fn func()) *Fault {
	t.Helper()
	var f *Fault
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected %s", kind)
			var ok bool
			f, ok = r.(*Fault)
			require.True(t, ok, "panic value %v is not a *Fault", r)
		}()
		fn()
	}()
	require.Equal(t, kind, f.Kind, f.Error())
	return f
}

// recordingSource serves from the heap, counts calls and can be told to fail.
type recordingSource struct {
	acquired []int
	released []int
	fail     bool
	short    bool
}

var errNoMemory = errors.New("no memory")

func (s *recordingSource) Acquire(size int) ([]byte, error) {
	s.acquired = append(s.acquired, size)
	if s.fail {
		return nil, errNoMemory
	}
	if s.short {
		return make([]byte, size/2), nil
	}
	return make([]byte, size), nil
}

func (s *recordingSource) Release(b []byte) error {
	s.released = append(s.released, cap(b))
	return nil
}
