package address

import (
	"crypto/sha256"

	"filippo.io/edwards25519"

	"github.com/wippyai/account-runtime/errors"
)

// Create derives the address owned by program for the given seeds. It fails
// when the seeds exceed MaxSeeds or MaxSeedLen, and when the digest happens
// to be a valid curve point.
func Create(seeds [][]byte, program Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Zero, errors.New(errors.PhaseAddress, errors.KindMaxSeedLengthExceeded).
			Detail("%d seeds, max %d", len(seeds), MaxSeeds).
			Build()
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Zero, errors.New(errors.PhaseAddress, errors.KindMaxSeedLengthExceeded).
				Value(i).
				Detail("seed %d is %d bytes, max %d", i, len(seed), MaxSeedLen).
				Build()
		}
	}

	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write(derivedMarker)

	var out Address
	h.Sum(out[:0])
	if IsOnCurve(out[:]) {
		return Zero, errors.New(errors.PhaseAddress, errors.KindInvalidSeeds).
			Detail("derived address lies on the curve").
			Build()
	}
	return out, nil
}

// Find searches bump seeds from 255 down and returns the first derived
// address that is off the curve together with its bump.
func Find(seeds [][]byte, program Address) (Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Zero, 0, errors.New(errors.PhaseAddress, errors.KindMaxSeedLengthExceeded).
			Detail("%d seeds leave no room for a bump seed", len(seeds)).
			Build()
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	withBump[len(seeds)] = bump

	for b := 255; b >= 0; b-- {
		bump[0] = uint8(b)
		addr, err := Create(withBump, program)
		if err == nil {
			return addr, uint8(b), nil
		}
		if !errors.IsKind(err, errors.KindInvalidSeeds) {
			return Zero, 0, err
		}
	}
	return Zero, 0, errors.New(errors.PhaseAddress, errors.KindInvalidSeeds).
		Detail("no viable bump seed").
		Build()
}

// IsOnCurve reports whether b decodes to a point on the ed25519 curve.
func IsOnCurve(b []byte) bool {
	if len(b) != Size {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
