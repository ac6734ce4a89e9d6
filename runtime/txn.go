package runtime

import "github.com/wippyai/account-runtime/address"

// txn is the working set of one execution. Writes stay in the txn until
// commit; checkpoints let a failed nested call discard its writes.
type txn struct {
	store    *Store
	accounts map[address.Address]StoredAccount
	journal  []StoredAccount
}

func newTxn(store *Store) *txn {
	return &txn{store: store, accounts: make(map[address.Address]StoredAccount)}
}

func (t *txn) get(addr address.Address) (StoredAccount, bool) {
	if a, ok := t.accounts[addr]; ok {
		return a, true
	}
	a, ok := t.store.Get(addr)
	if ok {
		t.accounts[addr] = a
	}
	return a, ok
}

// put replaces an account the txn has already read.
func (t *txn) put(a StoredAccount) {
	t.journal = append(t.journal, t.accounts[a.Address])
	t.accounts[a.Address] = a
}

func (t *txn) checkpoint() int {
	return len(t.journal)
}

func (t *txn) rollback(mark int) {
	for i := len(t.journal) - 1; i >= mark; i-- {
		prev := t.journal[i]
		t.accounts[prev.Address] = prev
	}
	t.journal = t.journal[:mark]
}

func (t *txn) commit() {
	for _, a := range t.accounts {
		t.store.Put(a)
	}
}
