package account

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/errors"
)

func newRecord(t *testing.T, data []byte) Account {
	t.Helper()
	buf := make([]byte, RecordSpan(uint64(len(data))))
	PutHeader(buf, Header{
		BorrowState: Unborrowed,
		Key:         address.Address{1},
		Owner:       address.Address{2},
		Balance:     100,
		DataLen:     uint64(len(data)),
		Signer:      true,
		Writable:    true,
	})
	copy(buf[HeaderSize:], data)
	return At(buf, 0, accountruntime.InputStart)
}

func TestLayout_HeaderSize(t *testing.T) {
	require.Equal(t, 88, HeaderSize)
	require.Equal(t, 72, OffsetBalance)
	require.Equal(t, uint64(HeaderSize+MaxPermittedDataIncrease+8), RecordSpan(3))
	require.Equal(t, uint64(HeaderSize+MaxPermittedDataIncrease), RecordSpan(0))
}

func TestAccount_Accessors(t *testing.T) {
	a := newRecord(t, []byte{1, 2, 3})

	require.Equal(t, address.Address{1}, a.Key())
	require.Equal(t, address.Address{2}, a.Owner())
	require.True(t, a.IsOwnedBy(address.Address{2}))
	require.True(t, a.IsSigner())
	require.True(t, a.IsWritable())
	require.False(t, a.Executable())
	require.Equal(t, uint64(100), a.Balance())
	require.Equal(t, uint64(3), a.DataLen())
	require.Equal(t, Unborrowed, a.BorrowState())
	require.Equal(t, accountruntime.InputStart+OffsetBalance, a.BalanceAddr())
	require.Equal(t, accountruntime.InputStart+HeaderSize, a.DataAddr())

	h := a.Header()
	require.Equal(t, a.Key(), h.Key)
	require.Equal(t, uint64(3), h.DataLen)
}

func TestBorrow_SharedCapacity(t *testing.T) {
	a := newRecord(t, []byte{1})

	refs := make([]Ref, 0, MaxShared)
	for i := 0; i < MaxShared; i++ {
		r, err := a.TryBorrowData()
		require.NoError(t, err, "shared hold %d", i+1)
		refs = append(refs, r)
	}
	require.Equal(t, MaxShared, a.BorrowState().SharedHolds(Data))

	_, err := a.TryBorrowData()
	require.True(t, errors.IsKind(err, errors.KindBorrowConflict))

	refs[0].Release()
	r, err := a.TryBorrowData()
	require.NoError(t, err)
	r.Release()

	for i := 1; i < len(refs); i++ {
		refs[i].Release()
	}
	require.Equal(t, Unborrowed, a.BorrowState())
}

func TestBorrow_ExclusiveExcludesShared(t *testing.T) {
	a := newRecord(t, []byte{1})

	r, err := a.TryBorrowData()
	require.NoError(t, err)
	_, err = a.TryBorrowMutData()
	require.True(t, errors.IsKind(err, errors.KindBorrowConflict))
	r.Release()

	w, err := a.TryBorrowMutData()
	require.NoError(t, err)
	_, err = a.TryBorrowData()
	require.True(t, errors.IsKind(err, errors.KindBorrowConflict))
	w.Release()

	require.NoError(t, a.CheckBorrowData())
}

func TestBorrow_ExclusiveTwice(t *testing.T) {
	a := newRecord(t, nil)

	w, err := a.TryBorrowMutData()
	require.NoError(t, err)

	_, err = a.TryBorrowMutData()
	require.Error(t, err)

	w.Release()
	w2, err := a.TryBorrowMutData()
	require.NoError(t, err)
	w2.Release()
}

func TestBorrow_ResourcesAreIndependent(t *testing.T) {
	a := newRecord(t, []byte{1, 2})

	w, err := a.TryBorrowMutData()
	require.NoError(t, err)
	defer w.Release()

	b, err := a.TryBorrowMutBalance()
	require.NoError(t, err)
	b.SetUint64(42)
	b.Release()

	require.Equal(t, uint64(42), a.Balance())
	require.True(t, a.BorrowState().Exclusive(Data))
	require.False(t, a.BorrowState().Exclusive(Balance))
}

func TestBorrow_AliasesShareState(t *testing.T) {
	a := newRecord(t, []byte{9})
	alias := At(a.buf, a.off, accountruntime.InputStart)
	require.True(t, a.Same(alias))

	w, err := a.TryBorrowMutData()
	require.NoError(t, err)
	w.Bytes()[0] = 7

	_, err = alias.TryBorrowData()
	require.True(t, errors.IsKind(err, errors.KindBorrowConflict))

	w.Release()
	r, err := alias.TryBorrowData()
	require.NoError(t, err)
	require.Equal(t, []byte{7}, r.Bytes())
	r.Release()
}

func TestRef_DoubleReleaseIsNoop(t *testing.T) {
	a := newRecord(t, nil)

	r, err := a.TryBorrowBalance()
	require.NoError(t, err)
	require.Equal(t, uint64(100), r.Uint64())
	r.Release()
	r.Release()
	require.Equal(t, Unborrowed, a.BorrowState())

	var zero RefMut
	zero.Release()
}

// Drives random acquire/release sequences and checks the state against a
// simple model after every step.
func TestBorrow_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := newRecord(t, []byte{0})

	for _, res := range []Resource{Data, Balance} {
		var shared []Ref
		var exclusive []RefMut

		for step := 0; step < 2000; step++ {
			switch rng.Intn(4) {
			case 0:
				var r Ref
				var err error
				if res == Data {
					r, err = a.TryBorrowData()
				} else {
					r, err = a.TryBorrowBalance()
				}
				wantOK := len(exclusive) == 0 && len(shared) < MaxShared
				require.Equal(t, wantOK, err == nil, "step %d shared", step)
				if err == nil {
					shared = append(shared, r)
				}
			case 1:
				var w RefMut
				var err error
				if res == Data {
					w, err = a.TryBorrowMutData()
				} else {
					w, err = a.TryBorrowMutBalance()
				}
				wantOK := len(exclusive) == 0 && len(shared) == 0
				require.Equal(t, wantOK, err == nil, "step %d exclusive", step)
				if err == nil {
					exclusive = append(exclusive, w)
				}
			case 2:
				if n := len(shared); n > 0 {
					i := rng.Intn(n)
					shared[i].Release()
					shared = append(shared[:i], shared[i+1:]...)
				}
			case 3:
				if len(exclusive) > 0 {
					exclusive[0].Release()
					exclusive = exclusive[:0]
				}
			}

			st := a.BorrowState()
			require.LessOrEqual(t, st.SharedHolds(res), MaxShared)
			require.Equal(t, len(shared), st.SharedHolds(res))
			require.Equal(t, len(exclusive) == 1, st.Exclusive(res))
			if st.Exclusive(res) {
				require.Zero(t, st.SharedHolds(res))
			}
		}

		for i := range shared {
			shared[i].Release()
		}
		for i := range exclusive {
			exclusive[i].Release()
		}
		require.Equal(t, Unborrowed, a.BorrowState())
	}
}

func TestAccount_Resize(t *testing.T) {
	a := newRecord(t, []byte{1, 2, 3, 4})
	a.buf[HeaderSize+4] = 0xAA

	require.NoError(t, a.Resize(8))
	require.Equal(t, uint64(8), a.DataLen())
	require.Equal(t, int32(4), a.ResizeDelta())
	require.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, a.UncheckedData())

	require.NoError(t, a.Resize(2))
	require.Equal(t, int32(-2), a.ResizeDelta())

	require.NoError(t, a.Resize(4+MaxPermittedDataIncrease))
	err := a.Resize(5 + MaxPermittedDataIncrease)
	require.True(t, errors.IsKind(err, errors.KindInvalidArgument))

	r, err := a.TryBorrowData()
	require.NoError(t, err)
	require.True(t, errors.IsKind(a.Resize(1), errors.KindBorrowConflict))
	r.Release()
}

func TestAccount_AssignAndClose(t *testing.T) {
	a := newRecord(t, []byte{1, 2})

	require.NoError(t, a.Assign(address.Address{5}))
	require.Equal(t, address.Address{5}, a.Owner())

	w, err := a.TryBorrowMutData()
	require.NoError(t, err)
	require.Error(t, a.Assign(address.Address{6}))
	require.Error(t, a.Close())
	w.Release()

	require.NoError(t, a.Close())
	require.Zero(t, a.Balance())
	require.Zero(t, a.DataLen())
	require.True(t, a.DataIsEmpty())
	require.True(t, a.Owner().IsZero())
}

func TestState_String(t *testing.T) {
	require.Contains(t, Unborrowed.String(), "data(shared=0 exclusive=false)")
}
