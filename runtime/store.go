package runtime

import (
	"sync"

	"github.com/google/btree"

	"github.com/wippyai/account-runtime/address"
)

// StoredAccount is the persistent state of one account.
type StoredAccount struct {
	Data       []byte
	Address    address.Address
	Owner      address.Address
	Balance    uint64
	Executable bool
}

func (a StoredAccount) clone() StoredAccount {
	a.Data = append([]byte(nil), a.Data...)
	return a
}

func lessAccount(a, b StoredAccount) bool {
	return a.Address.Compare(b.Address) < 0
}

// Store holds accounts ordered by address. It is safe for concurrent use.
// Values handed in and out are copies.
type Store struct {
	tree *btree.BTreeG[StoredAccount]
	mu   sync.RWMutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{tree: btree.NewG(16, lessAccount)}
}

// Get returns the account at addr.
func (s *Store) Get(addr address.Address) (StoredAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.tree.Get(StoredAccount{Address: addr})
	if !ok {
		return StoredAccount{}, false
	}
	return a.clone(), true
}

// Put inserts or replaces an account.
func (s *Store) Put(a StoredAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ReplaceOrInsert(a.clone())
}

// Delete removes the account at addr and reports whether it existed.
func (s *Store) Delete(addr address.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tree.Delete(StoredAccount{Address: addr})
	return ok
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// Ascend calls fn for every account in address order until fn returns
// false. fn must not modify the store.
func (s *Store) Ascend(fn func(StoredAccount) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.tree.Ascend(func(a StoredAccount) bool {
		return fn(a.clone())
	})
}

// Snapshot returns every account in address order.
func (s *Store) Snapshot() []StoredAccount {
	out := make([]StoredAccount, 0, s.Len())
	s.Ascend(func(a StoredAccount) bool {
		out = append(out, a)
		return true
	})
	return out
}

// TotalBalance returns the sum of all balances. The second result is false
// if the sum overflows.
func (s *Store) TotalBalance() (uint64, bool) {
	var total uint64
	ok := true
	s.Ascend(func(a StoredAccount) bool {
		next := total + a.Balance
		if next < total {
			ok = false
			return false
		}
		total = next
		return true
	})
	return total, ok
}
