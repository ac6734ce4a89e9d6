// Package address defines 32-byte account and program addresses and the
// derivation of program-controlled addresses from seeds.
//
// A derived address is the SHA-256 digest of the seeds, the owning program's
// address and a fixed marker. Only digests that do not decode to a point on
// the ed25519 curve are accepted, so no private key can exist for them and
// the runtime treats the owning program as their sole signer.
//
//	addr, bump, err := address.Find([][]byte{[]byte("vault"), owner[:]}, programID)
//
// The bump seed returned by Find is appended to the seeds when the program
// later signs for addr:
//
//	addr, err := address.Create([][]byte{[]byte("vault"), owner[:], {bump}}, programID)
package address

import (
	"bytes"

	"github.com/mr-tron/base58"

	"github.com/wippyai/account-runtime/errors"
)

// Size is the length of an address in bytes.
const Size = 32

const (
	// MaxSeeds is the maximum number of seeds, bump included.
	MaxSeeds = 16
	// MaxSeedLen is the maximum length of a single seed.
	MaxSeedLen = 32
)

var derivedMarker = []byte("ProgramDerivedAddress")

// Address identifies an account or a program.
type Address [Size]byte

// Zero is the all-zero address, used as the owner of closed accounts.
var Zero Address

// String returns the base58 form of a.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether every byte of a is zero.
func (a Address) IsZero() bool {
	return a == Zero
}

// Equal reports whether a and b hold the same bytes.
func (a Address) Equal(b Address) bool {
	return a == b
}

// Compare orders addresses bytewise.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Parse decodes a base58 address.
func Parse(s string) (Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Zero, errors.Wrap(errors.PhaseAddress, errors.KindInvalidInput, err, "decode base58 address")
	}
	if len(raw) != Size {
		return Zero, errors.New(errors.PhaseAddress, errors.KindInvalidInput).
			Value(s).
			Detail("address decodes to %d bytes, want %d", len(raw), Size).
			Build()
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromBytes copies b into an address. b must be exactly Size bytes long.
func FromBytes(b []byte) (Address, error) {
	if len(b) != Size {
		return Zero, errors.InvalidInput(errors.PhaseAddress, "address must be 32 bytes")
	}
	var a Address
	copy(a[:], b)
	return a, nil
}
