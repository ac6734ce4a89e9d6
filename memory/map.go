// Package memory maps byte regions at virtual addresses and exposes them
// through accountruntime.Memory.
//
// Each execution frame owns a Map with two regions: its heap at HeapStart
// and its serialized input at InputStart. The host reads ABI structures and
// account records through the Map using the addresses a program wrote.
package memory

import (
	"encoding/binary"
	"sort"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/errors"
)

// Region is a contiguous block of bytes mapped at Start.
type Region struct {
	Data     []byte
	Start    uint64
	Writable bool
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return r.Start + uint64(len(r.Data))
}

// Map resolves virtual addresses to region bytes.
type Map struct {
	regions []Region
}

// NewMap builds a map from non-overlapping regions.
func NewMap(regions ...Region) (*Map, error) {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End() {
			return nil, errors.New(errors.PhaseValidate, errors.KindInvalidInput).
				Detail("region at 0x%x overlaps region at 0x%x", sorted[i].Start, sorted[i-1].Start).
				Build()
		}
	}
	return &Map{regions: sorted}, nil
}

func (m *Map) slice(addr, length uint64, write bool) ([]byte, error) {
	for i := range m.regions {
		r := &m.regions[i]
		if addr < r.Start || addr > r.End() || (addr == r.End() && length > 0) {
			continue
		}
		off := addr - r.Start
		end := off + length
		if end < off || end > uint64(len(r.Data)) {
			break
		}
		if write && !r.Writable {
			return nil, errors.New(errors.PhaseRuntime, errors.KindImmutable).
				Value(addr).
				Detail("write to read-only region at 0x%x", addr).
				Build()
		}
		return r.Data[off:end:end], nil
	}
	return nil, errors.OutOfBounds(errors.PhaseRuntime, addr, length)
}

// Read returns a view of length bytes at addr. The slice aliases the region.
func (m *Map) Read(addr uint64, length uint64) ([]byte, error) {
	return m.slice(addr, length, false)
}

// Write copies data to addr.
func (m *Map) Write(addr uint64, data []byte) error {
	dst, err := m.slice(addr, uint64(len(data)), true)
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

func (m *Map) ReadU8(addr uint64) (uint8, error) {
	b, err := m.slice(addr, 1, false)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *Map) ReadU32(addr uint64) (uint32, error) {
	b, err := m.slice(addr, 4, false)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *Map) ReadU64(addr uint64) (uint64, error) {
	b, err := m.slice(addr, 8, false)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *Map) WriteU8(addr uint64, value uint8) error {
	b, err := m.slice(addr, 1, true)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

func (m *Map) WriteU32(addr uint64, value uint32) error {
	b, err := m.slice(addr, 4, true)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (m *Map) WriteU64(addr uint64, value uint64) error {
	b, err := m.slice(addr, 8, true)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// Size returns the total number of mapped bytes.
func (m *Map) Size() uint64 {
	var n uint64
	for _, r := range m.regions {
		n += uint64(len(r.Data))
	}
	return n
}

// Compile-time check that Map implements accountruntime.Memory and MemorySizer
var _ accountruntime.Memory = (*Map)(nil)
var _ accountruntime.MemorySizer = (*Map)(nil)
