package account

import (
	"fmt"

	"github.com/wippyai/account-runtime/errors"
)

// Resource selects one half of a record's borrow state.
type Resource uint8

const (
	// Data is the record payload; it occupies the low half of the state.
	Data Resource = iota
	// Balance is the record balance; it occupies the high half.
	Balance
)

func (r Resource) shift() uint {
	if r == Balance {
		return 4
	}
	return 0
}

func (r Resource) String() string {
	if r == Balance {
		return "balance"
	}
	return "data"
}

const (
	freeBit      = 0b1000
	capacityMask = 0b0111

	// MaxShared is the number of concurrent shared holds per resource.
	MaxShared = capacityMask
)

// Unborrowed is the state of a record with no outstanding holds.
const Unborrowed State = 0xFF

// State is a record's borrow control byte. Each 4-bit half describes one
// resource: the top bit is set while no exclusive hold exists and the low
// three bits count the shared holds still available.
type State byte

func (s State) half(r Resource) byte {
	return byte(s>>r.shift()) & 0x0F
}

// CanAcquireShared reports whether a shared hold on r may be taken.
func (s State) CanAcquireShared(r Resource) error {
	h := s.half(r)
	if h&freeBit == 0 || h&capacityMask == 0 {
		return errors.BorrowConflict(r.String(), false)
	}
	return nil
}

// CanAcquireExclusive reports whether an exclusive hold on r may be taken.
func (s State) CanAcquireExclusive(r Resource) error {
	if s.half(r) != freeBit|capacityMask {
		return errors.BorrowConflict(r.String(), true)
	}
	return nil
}

// SharedHolds returns the number of outstanding shared holds on r.
func (s State) SharedHolds(r Resource) int {
	return MaxShared - int(s.half(r)&capacityMask)
}

// Exclusive reports whether an exclusive hold on r is outstanding.
func (s State) Exclusive(r Resource) bool {
	return s.half(r)&freeBit == 0
}

func (s State) String() string {
	return fmt.Sprintf("balance(shared=%d exclusive=%t) data(shared=%d exclusive=%t)",
		s.SharedHolds(Balance), s.Exclusive(Balance), s.SharedHolds(Data), s.Exclusive(Data))
}

// The transitions below assume the matching CanAcquire check has passed.
// The state is plain memory: an invocation runs on a single goroutine.

func acquireShared(b *byte, r Resource) {
	*b -= 1 << r.shift()
}

func releaseShared(b *byte, r Resource) {
	*b += 1 << r.shift()
}

func acquireExclusive(b *byte, r Resource) {
	*b &^= freeBit << r.shift()
}

func releaseExclusive(b *byte, r Resource) {
	*b |= freeBit << r.shift()
}
