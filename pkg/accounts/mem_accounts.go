package accounts

import (
	"bytes"

	"github.com/tidwall/btree"
)

// MemAccounts is the authoritative in-memory account store of the simulated bank.
// Accounts are stored and returned as deep copies, ordered by key.
type MemAccounts struct {
	tree *btree.BTreeG[*Account]
}

func accountLess(a, b *Account) bool {
	return bytes.Compare(a.Key[:], b.Key[:]) < 0
}

func NewMemAccounts() MemAccounts {
	return MemAccounts{
		tree: btree.NewBTreeG[*Account](accountLess),
	}
}

func (m MemAccounts) GetAccount(pubkey *[32]byte) (*Account, error) {
	acct, ok := m.tree.Get(&Account{Key: *pubkey})
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (m MemAccounts) SetAccount(pubkey *[32]byte, acc *Account) error {
	c := acc.Clone()
	c.Key = *pubkey
	m.tree.Set(c)
	return nil
}

// DeleteAccount removes pubkey from the store. Deleting a missing account is a no-op.
func (m MemAccounts) DeleteAccount(pubkey *[32]byte) {
	m.tree.Delete(&Account{Key: *pubkey})
}

func (m MemAccounts) Len() int {
	return m.tree.Len()
}

// Keys returns all stored keys in ascending byte order.
func (m MemAccounts) Keys() [][32]byte {
	keys := make([][32]byte, 0, m.tree.Len())
	m.tree.Scan(func(acct *Account) bool {
		keys = append(keys, acct.Key)
		return true
	})
	return keys
}

// Range calls f with a copy of every account in key order until f returns false.
func (m MemAccounts) Range(f func(acct *Account) bool) {
	m.tree.Scan(func(acct *Account) bool {
		return f(acct.Clone())
	})
}
