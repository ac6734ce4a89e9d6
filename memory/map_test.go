package memory

import (
	"testing"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/errors"
)

func newTestMap(t *testing.T) (*Map, []byte, []byte) {
	t.Helper()
	heap := make([]byte, 32)
	input := make([]byte, 16)
	m, err := NewMap(
		Region{Start: accountruntime.InputStart, Data: input, Writable: true},
		Region{Start: accountruntime.HeapStart, Data: heap, Writable: true},
	)
	if err != nil {
		t.Fatalf("NewMap failed: %v", err)
	}
	return m, heap, input
}

func TestMap_ReadWrite(t *testing.T) {
	m, heap, input := newTestMap(t)

	if err := m.WriteU64(accountruntime.HeapStart+8, 0x1122334455667788); err != nil {
		t.Fatalf("WriteU64 failed: %v", err)
	}
	if heap[8] != 0x88 || heap[15] != 0x11 {
		t.Fatalf("little-endian write mismatch: %x", heap[8:16])
	}
	v, err := m.ReadU64(accountruntime.HeapStart + 8)
	if err != nil || v != 0x1122334455667788 {
		t.Fatalf("ReadU64 = %x, %v", v, err)
	}

	if err := m.WriteU32(accountruntime.InputStart, 7); err != nil {
		t.Fatalf("WriteU32 failed: %v", err)
	}
	if input[0] != 7 {
		t.Fatal("write did not reach input region")
	}
	u32, _ := m.ReadU32(accountruntime.InputStart)
	u8, _ := m.ReadU8(accountruntime.InputStart)
	if u32 != 7 || u8 != 7 {
		t.Fatalf("ReadU32=%d ReadU8=%d", u32, u8)
	}

	view, err := m.Read(accountruntime.InputStart, 4)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	view[1] = 9
	if input[1] != 9 {
		t.Fatal("Read must alias the region")
	}

	if m.Size() != 48 {
		t.Fatalf("Size() = %d, want 48", m.Size())
	}
}

func TestMap_Bounds(t *testing.T) {
	m, _, _ := newTestMap(t)

	if _, err := m.Read(accountruntime.HeapStart+30, 4); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
	if _, err := m.ReadU64(0x1000); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Fatalf("expected out of bounds for unmapped address, got %v", err)
	}
	if _, err := m.Read(accountruntime.HeapStart+32, 0); err != nil {
		t.Fatalf("zero-length read at region end should succeed: %v", err)
	}
}

func TestMap_ReadOnlyRegion(t *testing.T) {
	m, err := NewMap(Region{Start: 0x100, Data: make([]byte, 8)})
	if err != nil {
		t.Fatalf("NewMap failed: %v", err)
	}
	if err := m.WriteU8(0x100, 1); !errors.IsKind(err, errors.KindImmutable) {
		t.Fatalf("expected immutable error, got %v", err)
	}
	if _, err := m.ReadU8(0x100); err != nil {
		t.Fatalf("read from read-only region failed: %v", err)
	}
}

func TestNewMap_Overlap(t *testing.T) {
	_, err := NewMap(
		Region{Start: 0x100, Data: make([]byte, 16)},
		Region{Start: 0x108, Data: make([]byte, 16)},
	)
	if err == nil {
		t.Fatal("expected overlap error")
	}
}
