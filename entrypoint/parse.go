package entrypoint

import (
	"encoding/binary"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/account"
	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/errors"
)

// NonDuplicate is the marker of a record that does not alias an earlier one.
const NonDuplicate uint64 = 0xFF

// MaxAccounts is the default handle capacity.
const MaxAccounts = 254

const markerSize = 8

// Input is the parsed form of an input buffer.
type Input struct {
	Accounts  []account.Account
	Data      []byte
	ProgramID address.Address
}

// Parse reads an input buffer mapped at InputStart into accounts, which
// bounds how many handles are produced. It returns the invoked program's
// address, the produced handles and the instruction data. Records beyond
// len(accounts) are skipped but still walked, so the trailing fields are
// read from the right offset.
//
// Duplicated records yield a copy of the earlier handle. The buffer layout is
// trusted; a malformed buffer panics.
func Parse(buf []byte, accounts []account.Account) (address.Address, []account.Account, []byte) {
	return ParseAt(accountruntime.InputStart, buf, accounts)
}

// ParseAt is Parse for a buffer mapped at base.
func ParseAt(base uint64, buf []byte, accounts []account.Account) (address.Address, []account.Account, []byte) {
	total := binary.LittleEndian.Uint64(buf)
	cursor := 8

	n := len(accounts)
	if total < uint64(n) {
		n = int(total)
	}

	for i := 0; i < n; i++ {
		marker := binary.LittleEndian.Uint64(buf[cursor:])
		cursor += markerSize
		if marker != NonDuplicate {
			accounts[i] = accounts[marker]
			continue
		}
		accounts[i] = account.At(buf, cursor, base)
		cursor += int(account.RecordSpan(accounts[i].DataLen()))
	}

	for i := uint64(n); i < total; i++ {
		cursor = skipRecord(buf, cursor)
	}

	data, program := trailer(buf, cursor)
	return program, accounts[:n], data
}

func skipRecord(buf []byte, cursor int) int {
	marker := binary.LittleEndian.Uint64(buf[cursor:])
	cursor += markerSize
	if marker != NonDuplicate {
		return cursor
	}
	dataLen := binary.LittleEndian.Uint64(buf[cursor+account.OffsetDataLen:])
	return cursor + int(account.RecordSpan(dataLen))
}

func trailer(buf []byte, cursor int) ([]byte, address.Address) {
	dataLen := int(binary.LittleEndian.Uint64(buf[cursor:]))
	cursor += 8
	data := buf[cursor : cursor+dataLen : cursor+dataLen]
	cursor += dataLen

	var program address.Address
	copy(program[:], buf[cursor:cursor+address.Size])
	return data, program
}

// ParseInput is Parse returning an Input that owns a fresh handle slice of
// the given capacity.
func ParseInput(buf []byte, capacity int) *Input {
	program, accounts, data := Parse(buf, make([]account.Account, capacity))
	return &Input{Accounts: accounts, Data: data, ProgramID: program}
}

// ParseChecked is ParseInput with every length and marker validated against
// the buffer. Use it for buffers that did not come from the runtime.
func ParseChecked(buf []byte, capacity int) (*Input, error) {
	if err := Validate(buf); err != nil {
		return nil, err
	}
	return ParseInput(buf, capacity), nil
}

// Validate walks buf and reports the first structural problem.
func Validate(buf []byte) error {
	size := uint64(len(buf))
	need := func(cursor, n uint64, what string) error {
		if cursor+n < cursor || cursor+n > size {
			return errors.New(errors.PhaseParse, errors.KindInvalidAccountData).
				Path(what).
				Value(cursor).
				Detail("%d bytes at offset %d exceed buffer of %d", n, cursor, size).
				Build()
		}
		return nil
	}

	if err := need(0, 8, "count"); err != nil {
		return err
	}
	total := binary.LittleEndian.Uint64(buf)
	cursor := uint64(8)

	for i := uint64(0); i < total; i++ {
		if err := need(cursor, markerSize, "marker"); err != nil {
			return err
		}
		marker := binary.LittleEndian.Uint64(buf[cursor:])
		cursor += markerSize
		if marker != NonDuplicate {
			if marker >= i {
				return errors.New(errors.PhaseParse, errors.KindInvalidAccountData).
					Path("marker").
					Value(marker).
					Detail("record %d duplicates record %d which does not precede it", i, marker).
					Build()
			}
			continue
		}
		if err := need(cursor, account.HeaderSize, "header"); err != nil {
			return err
		}
		dataLen := binary.LittleEndian.Uint64(buf[cursor+account.OffsetDataLen:])
		if dataLen > account.MaxDataLen {
			return errors.New(errors.PhaseParse, errors.KindInvalidAccountData).
				Path("header", "data_len").
				Value(dataLen).
				Detail("payload length %d exceeds %d", dataLen, account.MaxDataLen).
				Build()
		}
		span := account.RecordSpan(dataLen)
		if err := need(cursor, span, "record"); err != nil {
			return err
		}
		cursor += span
	}

	if err := need(cursor, 8, "data_len"); err != nil {
		return err
	}
	dataLen := binary.LittleEndian.Uint64(buf[cursor:])
	cursor += 8
	if err := need(cursor, dataLen, "data"); err != nil {
		return err
	}
	cursor += dataLen
	return need(cursor, address.Size, "program_id")
}
