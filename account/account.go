// Package account provides zero-copy handles onto the records of an input
// buffer and the borrow protocol that guards them.
//
// # Record Layout
//
// A record is an 88-byte header followed by its payload:
//
//	offset  size  field
//	0       1     borrow state
//	1       1     signer
//	2       1     writable
//	3       1     executable
//	4       4     resize delta (i32)
//	8       32    key
//	40      32    owner
//	72      8     balance
//	80      8     payload length
//	88      n     payload
//
// # Aliasing
//
// An Account is a non-owning handle: the input buffer owns the record and
// outlives every handle. Several handles may refer to the same record when
// the buffer lists an account more than once. The borrow state lives in the
// record itself, so a hold taken through one handle is visible through every
// alias:
//
//	w, _ := accounts[0].TryBorrowMutData()
//	_, err := accounts[2].TryBorrowData() // accounts[2] aliases accounts[0]
//	// err is a borrow conflict until w.Release()
//
// # Borrow Protocol
//
// Each of the two resources, Data and Balance, admits either up to seven
// shared holds (Ref) or a single exclusive hold (RefMut). Acquisition never
// waits: a conflicting request fails with errors.KindBorrowConflict.
package account

import (
	"encoding/binary"

	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/errors"
)

// Account is a handle onto one record of an input buffer.
type Account struct {
	buf  []byte
	off  int
	base uint64
}

// At returns a handle for the record whose header starts at off within an
// input buffer mapped at base. The layout is trusted, not validated.
func At(buf []byte, off int, base uint64) Account {
	return Account{buf: buf, off: off, base: base}
}

// IsValid reports whether the handle refers to a record.
func (a Account) IsValid() bool {
	return a.buf != nil
}

// Same reports whether a and b refer to the same record.
func (a Account) Same(b Account) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	return a.off == b.off && &a.buf[0] == &b.buf[0]
}

// Offset returns the position of the record header within the buffer.
func (a Account) Offset() int {
	return a.off
}

// Addr returns the virtual address of the record header.
func (a Account) Addr() uint64 {
	return a.base + uint64(a.off)
}

// KeyAddr returns the virtual address of the record key.
func (a Account) KeyAddr() uint64 { return a.Addr() + OffsetKey }

// OwnerAddr returns the virtual address of the record owner.
func (a Account) OwnerAddr() uint64 { return a.Addr() + OffsetOwner }

// BalanceAddr returns the virtual address of the record balance.
func (a Account) BalanceAddr() uint64 { return a.Addr() + OffsetBalance }

// DataAddr returns the virtual address of the first payload byte.
func (a Account) DataAddr() uint64 { return a.Addr() + HeaderSize }

func (a Account) hdr() []byte {
	return a.buf[a.off : a.off+HeaderSize]
}

func (a Account) state() *byte {
	return &a.buf[a.off+OffsetBorrowState]
}

// Key returns the record's address.
func (a Account) Key() address.Address {
	var k address.Address
	copy(k[:], a.hdr()[OffsetKey:OffsetOwner])
	return k
}

// Owner returns the address of the owning program.
func (a Account) Owner() address.Address {
	var o address.Address
	copy(o[:], a.hdr()[OffsetOwner:OffsetBalance])
	return o
}

// IsOwnedBy reports whether program owns the record.
func (a Account) IsOwnedBy(program address.Address) bool {
	return a.Owner() == program
}

func (a Account) IsSigner() bool   { return a.hdr()[OffsetSigner] != 0 }
func (a Account) IsWritable() bool { return a.hdr()[OffsetWritable] != 0 }
func (a Account) Executable() bool { return a.hdr()[OffsetExecutable] != 0 }

// Balance reads the balance without taking a hold.
func (a Account) Balance() uint64 {
	return binary.LittleEndian.Uint64(a.hdr()[OffsetBalance:])
}

// DataLen returns the current payload length.
func (a Account) DataLen() uint64 {
	return binary.LittleEndian.Uint64(a.hdr()[OffsetDataLen:])
}

// DataIsEmpty reports whether the payload is empty.
func (a Account) DataIsEmpty() bool {
	return a.DataLen() == 0
}

// ResizeDelta returns how far the payload has grown (or shrunk) since the
// invocation started.
func (a Account) ResizeDelta() int32 {
	return int32(binary.LittleEndian.Uint32(a.hdr()[OffsetResizeDelta:]))
}

// BorrowState returns the record's current control byte.
func (a Account) BorrowState() State {
	return State(*a.state())
}

// Header decodes the full record header.
func (a Account) Header() Header {
	return ReadHeader(a.hdr())
}

func (a Account) dataView() []byte {
	start := a.off + HeaderSize
	end := start + int(a.DataLen())
	return a.buf[start:end:end]
}

func (a Account) balanceView() []byte {
	start := a.off + OffsetBalance
	return a.buf[start : start+8 : start+8]
}

// UncheckedData returns the payload without consulting the borrow state.
// Callers must already hold a guard covering the access they perform.
func (a Account) UncheckedData() []byte {
	return a.dataView()
}

// CheckBorrowBalance reports whether a shared balance hold is available.
func (a Account) CheckBorrowBalance() error {
	return a.BorrowState().CanAcquireShared(Balance)
}

// CheckBorrowMutBalance reports whether an exclusive balance hold is available.
func (a Account) CheckBorrowMutBalance() error {
	return a.BorrowState().CanAcquireExclusive(Balance)
}

// CheckBorrowData reports whether a shared data hold is available.
func (a Account) CheckBorrowData() error {
	return a.BorrowState().CanAcquireShared(Data)
}

// CheckBorrowMutData reports whether an exclusive data hold is available.
func (a Account) CheckBorrowMutData() error {
	return a.BorrowState().CanAcquireExclusive(Data)
}

func (a Account) borrow(r Resource, view []byte) (Ref, error) {
	if err := a.BorrowState().CanAcquireShared(r); err != nil {
		return Ref{}, err
	}
	st := a.state()
	acquireShared(st, r)
	return Ref{state: st, view: view, res: r}, nil
}

func (a Account) borrowMut(r Resource, view []byte) (RefMut, error) {
	if err := a.BorrowState().CanAcquireExclusive(r); err != nil {
		return RefMut{}, err
	}
	st := a.state()
	acquireExclusive(st, r)
	return RefMut{state: st, view: view, res: r}, nil
}

// TryBorrowBalance takes a shared hold on the balance.
func (a Account) TryBorrowBalance() (Ref, error) {
	return a.borrow(Balance, a.balanceView())
}

// TryBorrowMutBalance takes an exclusive hold on the balance.
func (a Account) TryBorrowMutBalance() (RefMut, error) {
	return a.borrowMut(Balance, a.balanceView())
}

// TryBorrowData takes a shared hold on the payload.
func (a Account) TryBorrowData() (Ref, error) {
	return a.borrow(Data, a.dataView())
}

// TryBorrowMutData takes an exclusive hold on the payload.
func (a Account) TryBorrowMutData() (RefMut, error) {
	return a.borrowMut(Data, a.dataView())
}

// Resize changes the payload length. Growth is bounded by the allowance
// reserved in the input buffer and new bytes are zeroed. No data hold may be
// outstanding, since existing views would not observe the new length.
func (a Account) Resize(newLen uint64) error {
	if err := a.CheckBorrowMutData(); err != nil {
		return err
	}
	if newLen > MaxDataLen {
		return errors.New(errors.PhaseAccount, errors.KindInvalidArgument).
			Value(newLen).
			Detail("payload length %d exceeds %d", newLen, MaxDataLen).
			Build()
	}

	cur := a.DataLen()
	if newLen == cur {
		return nil
	}
	original := int64(cur) - int64(a.ResizeDelta())
	delta := int64(newLen) - original
	if delta > MaxPermittedDataIncrease {
		return errors.New(errors.PhaseAccount, errors.KindInvalidArgument).
			Value(newLen).
			Detail("growth of %d bytes exceeds allowance of %d", delta, MaxPermittedDataIncrease).
			Build()
	}

	h := a.hdr()
	binary.LittleEndian.PutUint32(h[OffsetResizeDelta:], uint32(int32(delta)))
	binary.LittleEndian.PutUint64(h[OffsetDataLen:], newLen)
	if newLen > cur {
		start := a.off + HeaderSize + int(cur)
		clear(a.buf[start : a.off+HeaderSize+int(newLen)])
	}
	return nil
}

// Assign changes the owning program. It requires that no data hold is
// outstanding.
func (a Account) Assign(owner address.Address) error {
	if err := a.CheckBorrowMutData(); err != nil {
		return err
	}
	copy(a.hdr()[OffsetOwner:OffsetBalance], owner[:])
	return nil
}

// Close zeroes the balance, truncates the payload and clears the owner.
func (a Account) Close() error {
	if err := a.CheckBorrowMutBalance(); err != nil {
		return err
	}
	if err := a.Resize(0); err != nil {
		return err
	}
	h := a.hdr()
	binary.LittleEndian.PutUint64(h[OffsetBalance:], 0)
	clear(h[OffsetOwner:OffsetBalance])
	return nil
}
