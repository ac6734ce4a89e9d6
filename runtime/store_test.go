package runtime

import (
	"context"
	"testing"

	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/errors"
)

func TestStore_CopiesValues(t *testing.T) {
	s := NewStore()
	data := []byte{1, 2, 3}
	s.Put(StoredAccount{Address: address.Address{2}, Data: data, Balance: 7})
	data[0] = 9

	got, ok := s.Get(address.Address{2})
	if !ok {
		t.Fatal("account not found")
	}
	if got.Data[0] != 1 {
		t.Error("store aliases the caller's slice")
	}
	got.Data[1] = 9
	again, _ := s.Get(address.Address{2})
	if again.Data[1] != 2 {
		t.Error("store hands out its own slice")
	}
}

func TestStore_OrderAndTotals(t *testing.T) {
	s := NewStore()
	for _, b := range []byte{3, 1, 2} {
		s.Put(StoredAccount{Address: address.Address{b}, Balance: uint64(b) * 10})
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}

	var order []byte
	s.Ascend(func(a StoredAccount) bool {
		order = append(order, a.Address[0])
		return true
	})
	if string(order) != "\x01\x02\x03" {
		t.Errorf("order = %v", order)
	}
	if snap := s.Snapshot(); len(snap) != 3 || snap[0].Address[0] != 1 {
		t.Errorf("snapshot = %v", snap)
	}

	total, ok := s.TotalBalance()
	if !ok || total != 60 {
		t.Errorf("total = %d, %v", total, ok)
	}
	s.Put(StoredAccount{Address: address.Address{4}, Balance: ^uint64(0)})
	if _, ok := s.TotalBalance(); ok {
		t.Error("overflow not reported")
	}

	if !s.Delete(address.Address{4}) || s.Delete(address.Address{4}) {
		t.Error("delete should succeed once")
	}
}

func TestTxn_CheckpointRollback(t *testing.T) {
	s := NewStore()
	s.Put(StoredAccount{Address: address.Address{1}, Balance: 10})
	tx := newTxn(s)

	a, ok := tx.get(address.Address{1})
	if !ok {
		t.Fatal("account not found")
	}
	a.Balance = 20
	tx.put(a)

	mark := tx.checkpoint()
	a.Balance = 30
	tx.put(a)
	a.Balance = 40
	tx.put(a)
	tx.rollback(mark)

	got, _ := tx.get(address.Address{1})
	if got.Balance != 20 {
		t.Errorf("balance after rollback = %d, want 20", got.Balance)
	}
	if stored, _ := s.Get(address.Address{1}); stored.Balance != 10 {
		t.Error("txn wrote through before commit")
	}

	tx.commit()
	if stored, _ := s.Get(address.Address{1}); stored.Balance != 20 {
		t.Errorf("committed balance = %d, want 20", stored.Balance)
	}
}

func TestMeter_StickyExhaustion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := newMeter(250, cancel)

	if err := m.consume(100); err != nil {
		t.Fatal(err)
	}
	if m.remaining() != 150 {
		t.Errorf("remaining = %d, want 150", m.remaining())
	}
	if err := m.consume(200); !errors.IsKind(err, errors.KindBudgetExceeded) {
		t.Fatalf("consume = %v, want budget exceeded", err)
	}
	if ctx.Err() == nil {
		t.Error("exhaustion did not cancel the context")
	}
	if m.remaining() != 0 {
		t.Errorf("remaining = %d, want 0", m.remaining())
	}
	if err := m.consume(0); err == nil {
		t.Error("exhaustion is not sticky")
	}
}
