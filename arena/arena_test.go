package arena

import (
	"testing"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/errors"
)

func TestArena_AllocIsMonotonic(t *testing.T) {
	a := New(accountruntime.HeapStart, 64)

	p1, err := a.Alloc(3, 1)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if p1 != accountruntime.HeapStart {
		t.Fatalf("first allocation at 0x%x, want heap start", p1)
	}

	p2, err := a.Alloc(8, 8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if p2 != accountruntime.HeapStart+8 {
		t.Fatalf("aligned allocation at 0x%x, want 0x%x", p2, accountruntime.HeapStart+8)
	}
	if a.Used() != 16 {
		t.Fatalf("Used() = %d, want 16", a.Used())
	}

	a.Free(p2, 8, 8)
	p3, err := a.Alloc(1, 1)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if p3 <= p2 {
		t.Fatal("Free must not make memory reusable")
	}
}

func TestArena_Exhaustion(t *testing.T) {
	a := New(accountruntime.HeapStart, 16)

	if _, err := a.Alloc(16, 8); err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	_, err := a.Alloc(1, 1)
	if !errors.IsKind(err, errors.KindAllocation) {
		t.Fatalf("expected allocation error, got %v", err)
	}
	if a.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", a.Remaining())
	}
}

func TestArena_RejectsBadAlignment(t *testing.T) {
	a := New(0, 16)
	if _, err := a.Alloc(1, 3); err == nil {
		t.Fatal("expected error for non power of two alignment")
	}
	if _, err := a.Alloc(1, 0); err != nil {
		t.Fatalf("zero alignment should mean byte alignment: %v", err)
	}
}

func TestArena_BytesAndCopy(t *testing.T) {
	a := New(accountruntime.HeapStart, 32)

	addr, err := a.AllocBytes([]byte("hello"), 1)
	if err != nil {
		t.Fatalf("AllocBytes failed: %v", err)
	}
	got, err := a.Bytes(addr, 5)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("Bytes = %q", got)
	}

	if _, err := a.Bytes(addr, 64); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
	if _, err := a.Bytes(addr-1, 1); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Fatalf("expected out of bounds below base, got %v", err)
	}
}
