// Package arena implements the monotonic heap handed to a program for the
// duration of one invocation.
//
// An Arena owns a fixed byte region mapped at a virtual base address. Alloc
// bumps a cursor and returns the virtual address of the new block; nothing is
// ever freed individually. The cursor is an ordinary field of the Arena, the
// region itself holds only program data.
//
//	heap := arena.New(accountruntime.HeapStart, arena.DefaultSize)
//	addr, err := heap.Alloc(40, 8)
//	buf, _ := heap.Bytes(addr, 40)
package arena

import (
	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/errors"
)

// DefaultSize is the heap size given to a program unless configured.
const DefaultSize = 32 * 1024

// MaxSize bounds configurable heap sizes.
const MaxSize = 256 * 1024

// Arena is a bump allocator over a fixed region.
type Arena struct {
	buf    []byte
	base   uint64
	cursor uint64
}

// New allocates a zeroed region of size bytes mapped at base.
func New(base uint64, size int) *Arena {
	return NewFromBuffer(base, make([]byte, size))
}

// NewFromBuffer builds an arena over buf, mapped at base.
func NewFromBuffer(base uint64, buf []byte) *Arena {
	return &Arena{buf: buf, base: base}
}

// Alloc reserves size bytes aligned to align and returns their address.
// align must be zero or a power of two.
func (a *Arena) Alloc(size, align uint64) (uint64, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Value(align).
			Detail("alignment %d is not a power of two", align).
			Build()
	}

	start := (a.base + a.cursor + align - 1) &^ (align - 1)
	off := start - a.base
	end := off + size
	if end < off || end > uint64(len(a.buf)) {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align)
	}
	a.cursor = end
	return start, nil
}

// Free is a no-op; memory is reclaimed when the arena is dropped.
func (a *Arena) Free(addr, size, align uint64) {}

// AllocBytes allocates room for data, copies it in and returns its address.
func (a *Arena) AllocBytes(data []byte, align uint64) (uint64, error) {
	addr, err := a.Alloc(uint64(len(data)), align)
	if err != nil {
		return 0, err
	}
	copy(a.buf[addr-a.base:], data)
	return addr, nil
}

// Bytes returns the n bytes at addr. The slice aliases the arena.
func (a *Arena) Bytes(addr, n uint64) ([]byte, error) {
	if addr < a.base {
		return nil, errors.OutOfBounds(errors.PhaseAlloc, addr, n)
	}
	off := addr - a.base
	end := off + n
	if end < off || end > uint64(len(a.buf)) {
		return nil, errors.OutOfBounds(errors.PhaseAlloc, addr, n)
	}
	return a.buf[off:end:end], nil
}

// Base returns the virtual address of the first byte of the region.
func (a *Arena) Base() uint64 { return a.base }

// Region returns the backing buffer.
func (a *Arena) Region() []byte { return a.buf }

// Used returns the number of bytes consumed, including alignment padding.
func (a *Arena) Used() uint64 { return a.cursor }

// Remaining returns the number of bytes still available.
func (a *Arena) Remaining() uint64 { return uint64(len(a.buf)) - a.cursor }

var _ accountruntime.Allocator = (*Arena)(nil)
