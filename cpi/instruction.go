package cpi

import "github.com/wippyai/account-runtime/address"

// AccountMeta names one account of an Instruction and the privileges the
// callee receives on it.
type AccountMeta struct {
	Key      address.Address
	Writable bool
	Signer   bool
}

// Readonly returns a meta for a read-only, non-signing account.
func Readonly(key address.Address) AccountMeta {
	return AccountMeta{Key: key}
}

// Writable returns a meta for a writable, non-signing account.
func Writable(key address.Address) AccountMeta {
	return AccountMeta{Key: key, Writable: true}
}

// ReadonlySigner returns a meta for a read-only signing account.
func ReadonlySigner(key address.Address) AccountMeta {
	return AccountMeta{Key: key, Signer: true}
}

// WritableSigner returns a meta for a writable signing account.
func WritableSigner(key address.Address) AccountMeta {
	return AccountMeta{Key: key, Writable: true, Signer: true}
}

// Instruction describes a call into another program.
type Instruction struct {
	ProgramID address.Address
	Accounts  []AccountMeta
	Data      []byte
}

// Seed is one seed of a derived address.
type Seed []byte

// Signer is the seed list of one derived address the caller signs for. The
// host recomputes the address from the seeds and the caller's program id.
type Signer []Seed

// Bytes returns the seeds as the slice form used by address.Create.
func (s Signer) Bytes() [][]byte {
	out := make([][]byte, len(s))
	for i, seed := range s {
		out[i] = seed
	}
	return out
}
