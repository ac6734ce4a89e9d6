package entrypoint

import (
	"encoding/binary"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/account"
	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/errors"
)

// MaybeAccount is one record as seen by Reader: either a new record or a
// reference to an earlier one.
type MaybeAccount struct {
	Account account.Account
	// DuplicateOf is the index of the aliased record when Duplicate is set.
	DuplicateOf int
	Duplicate   bool
}

// Reader walks an input buffer one record at a time.
type Reader struct {
	buf       []byte
	base      uint64
	cursor    int
	remaining uint64
}

// NewReader returns a Reader over a buffer mapped at InputStart.
func NewReader(buf []byte) *Reader {
	return NewReaderAt(accountruntime.InputStart, buf)
}

// NewReaderAt returns a Reader over a buffer mapped at base.
func NewReaderAt(base uint64, buf []byte) *Reader {
	return &Reader{
		buf:       buf,
		base:      base,
		cursor:    8,
		remaining: binary.LittleEndian.Uint64(buf),
	}
}

// Remaining returns the number of records not yet read.
func (r *Reader) Remaining() uint64 {
	return r.remaining
}

// Next returns the next record. It fails with KindNotEnoughAccounts once
// every record has been read.
func (r *Reader) Next() (MaybeAccount, error) {
	if r.remaining == 0 {
		return MaybeAccount{}, errors.MissingAccount(errors.PhaseParse, "no records left")
	}
	r.remaining--

	marker := binary.LittleEndian.Uint64(r.buf[r.cursor:])
	r.cursor += markerSize
	if marker != NonDuplicate {
		return MaybeAccount{DuplicateOf: int(marker), Duplicate: true}, nil
	}
	acct := account.At(r.buf, r.cursor, r.base)
	r.cursor += int(account.RecordSpan(acct.DataLen()))
	return MaybeAccount{Account: acct}, nil
}

// Skip advances past n records without producing handles.
func (r *Reader) Skip(n uint64) {
	if n > r.remaining {
		n = r.remaining
	}
	for ; n > 0; n-- {
		r.cursor = skipRecord(r.buf, r.cursor)
		r.remaining--
	}
}

// InstructionData skips any unread records and returns the instruction data
// and the invoked program's address.
func (r *Reader) InstructionData() ([]byte, address.Address) {
	r.Skip(r.remaining)
	return trailer(r.buf, r.cursor)
}
