package entrypoint

import (
	"encoding/binary"

	"github.com/wippyai/account-runtime/account"
	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/errors"
)

// InputAccount describes one record to serialize.
type InputAccount struct {
	Data       []byte
	Key        address.Address
	Owner      address.Address
	Balance    uint64
	Signer     bool
	Writable   bool
	Executable bool
	// Duplicate makes this entry an alias of entry DuplicateOf, which must
	// precede it. The remaining fields are ignored.
	Duplicate   bool
	DuplicateOf int
}

// SerializedSize returns the length of the buffer Serialize produces.
func SerializedSize(accounts []InputAccount, dataLen int) int {
	n := 8
	for _, a := range accounts {
		n += markerSize
		if !a.Duplicate {
			n += int(account.RecordSpan(uint64(len(a.Data))))
		}
	}
	return n + 8 + dataLen + address.Size
}

// Serialize builds an input buffer. Every record starts unborrowed.
func Serialize(accounts []InputAccount, data []byte, program address.Address) ([]byte, error) {
	for i, a := range accounts {
		if !a.Duplicate {
			if len(a.Data) > account.MaxDataLen {
				return nil, errors.New(errors.PhaseParse, errors.KindInvalidArgument).
					Value(i).
					Detail("account %d payload of %d bytes exceeds %d", i, len(a.Data), account.MaxDataLen).
					Build()
			}
			continue
		}
		if a.DuplicateOf < 0 || a.DuplicateOf >= i || uint64(a.DuplicateOf) == NonDuplicate {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidArgument).
				Value(a.DuplicateOf).
				Detail("account %d cannot duplicate account %d", i, a.DuplicateOf).
				Build()
		}
	}

	buf := make([]byte, SerializedSize(accounts, len(data)))
	binary.LittleEndian.PutUint64(buf, uint64(len(accounts)))
	cursor := 8

	for _, a := range accounts {
		if a.Duplicate {
			binary.LittleEndian.PutUint64(buf[cursor:], uint64(a.DuplicateOf))
			cursor += markerSize
			continue
		}
		binary.LittleEndian.PutUint64(buf[cursor:], NonDuplicate)
		cursor += markerSize

		account.PutHeader(buf[cursor:], account.Header{
			Key:         a.Key,
			Owner:       a.Owner,
			Balance:     a.Balance,
			DataLen:     uint64(len(a.Data)),
			BorrowState: account.Unborrowed,
			Signer:      a.Signer,
			Writable:    a.Writable,
			Executable:  a.Executable,
		})
		copy(buf[cursor+account.HeaderSize:], a.Data)
		cursor += int(account.RecordSpan(uint64(len(a.Data))))
	}

	binary.LittleEndian.PutUint64(buf[cursor:], uint64(len(data)))
	cursor += 8
	cursor += copy(buf[cursor:], data)
	copy(buf[cursor:], program[:])
	return buf, nil
}
