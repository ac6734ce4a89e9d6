package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/docker/go-units"

	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/cpi"
	"github.com/wippyai/account-runtime/entrypoint"
	"github.com/wippyai/account-runtime/runtime"
)

// accountRow is one record of an input buffer.
type accountRow struct {
	Data        []byte
	Index       int
	DuplicateOf int
	Key         address.Address
	Owner       address.Address
	Balance     uint64
	Signer      bool
	Writable    bool
	Executable  bool
}

func (r accountRow) flags() string {
	b := []byte("---")
	if r.Signer {
		b[0] = 's'
	}
	if r.Writable {
		b[1] = 'w'
	}
	if r.Executable {
		b[2] = 'x'
	}
	return string(b)
}

// snapshot is a decoded input buffer.
type snapshot struct {
	Rows    []accountRow
	Data    []byte
	Program address.Address
	Size    int
}

func decode(buf []byte, capacity int) (*snapshot, error) {
	if err := entrypoint.Validate(buf); err != nil {
		return nil, err
	}

	r := entrypoint.NewReader(buf)
	snap := &snapshot{Size: len(buf)}
	for i := 0; r.Remaining() > 0; i++ {
		if i >= capacity {
			r.Skip(r.Remaining())
			break
		}
		m, err := r.Next()
		if err != nil {
			return nil, err
		}
		if m.Duplicate {
			row := snap.Rows[m.DuplicateOf]
			row.Index, row.DuplicateOf = i, m.DuplicateOf
			snap.Rows = append(snap.Rows, row)
			continue
		}
		a := m.Account
		snap.Rows = append(snap.Rows, accountRow{
			Data:        append([]byte(nil), a.UncheckedData()...),
			Index:       i,
			DuplicateOf: -1,
			Key:         a.Key(),
			Owner:       a.Owner(),
			Balance:     a.Balance(),
			Signer:      a.IsSigner(),
			Writable:    a.IsWritable(),
			Executable:  a.Executable(),
		})
	}
	data, program := r.InstructionData()
	snap.Data = append([]byte(nil), data...)
	snap.Program = program
	return snap, nil
}

// instruction rebuilds the top-level instruction the buffer describes.
func (s *snapshot) instruction() cpi.Instruction {
	ix := cpi.Instruction{ProgramID: s.Program, Data: s.Data}
	for _, row := range s.Rows {
		ix.Accounts = append(ix.Accounts, cpi.AccountMeta{Key: row.Key, Writable: row.Writable, Signer: row.Signer})
	}
	return ix
}

// stored returns the accounts to seed a store with.
func (s *snapshot) stored() []runtime.StoredAccount {
	var out []runtime.StoredAccount
	for _, row := range s.Rows {
		if row.DuplicateOf >= 0 {
			continue
		}
		out = append(out, runtime.StoredAccount{
			Data:       row.Data,
			Address:    row.Key,
			Owner:      row.Owner,
			Balance:    row.Balance,
			Executable: row.Executable,
		})
	}
	return out
}

// rebuild serializes the snapshot's records with their state taken from
// store.
func (s *snapshot) rebuild(store *runtime.Store) ([]byte, error) {
	entries := make([]entrypoint.InputAccount, len(s.Rows))
	for i, row := range s.Rows {
		if row.DuplicateOf >= 0 {
			entries[i] = entrypoint.InputAccount{Duplicate: true, DuplicateOf: row.DuplicateOf}
			continue
		}
		acct, ok := store.Get(row.Key)
		if !ok {
			return nil, fmt.Errorf("account %s missing from store", row.Key)
		}
		entries[i] = entrypoint.InputAccount{
			Data:       acct.Data,
			Key:        acct.Address,
			Owner:      acct.Owner,
			Balance:    acct.Balance,
			Signer:     row.Signer,
			Writable:   row.Writable,
			Executable: acct.Executable,
		}
	}
	return entrypoint.Serialize(entries, s.Data, s.Program)
}

func printSnapshot(w io.Writer, s *snapshot) {
	fmt.Fprintf(w, "Program: %s\n", s.Program)
	fmt.Fprintf(w, "Buffer: %s, %d records, %s instruction data\n",
		units.HumanSize(float64(s.Size)), len(s.Rows), units.HumanSize(float64(len(s.Data))))
	if len(s.Data) > 0 {
		fmt.Fprintf(w, "Data: %s\n", hex.EncodeToString(s.Data))
	}
	fmt.Fprintln(w)
	for _, row := range s.Rows {
		if row.DuplicateOf >= 0 {
			fmt.Fprintf(w, "  %3d  duplicate of %d\n", row.Index, row.DuplicateOf)
			continue
		}
		fmt.Fprintf(w, "  %3d  %s %s  balance=%d  data=%s  owner=%s\n",
			row.Index, row.flags(), row.Key, row.Balance, units.HumanSize(float64(len(row.Data))), row.Owner)
	}
}

func printResult(w io.Writer, res *runtime.Result, before *snapshot, store *runtime.Store) {
	fmt.Fprintf(w, "Invocation: %s\n", res.ID)
	fmt.Fprintf(w, "Status: %d\n", res.Status)
	fmt.Fprintf(w, "Units consumed: %d\n", res.UnitsConsumed)
	for _, line := range res.Logs {
		fmt.Fprintf(w, "  log: %s\n", line)
	}
	if len(res.ReturnData) > 0 {
		fmt.Fprintf(w, "Return data from %s: %s\n", res.ReturnProgram, hex.EncodeToString(res.ReturnData))
	}

	for _, row := range before.Rows {
		if row.DuplicateOf >= 0 {
			continue
		}
		after, ok := store.Get(row.Key)
		if !ok {
			continue
		}
		if after.Balance != row.Balance || len(after.Data) != len(row.Data) || after.Owner != row.Owner {
			fmt.Fprintf(w, "  %s  balance %d -> %d  data %s -> %s\n", row.Key,
				row.Balance, after.Balance,
				units.HumanSize(float64(len(row.Data))), units.HumanSize(float64(len(after.Data))))
		}
	}
}
