package sealevel

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/accounts"
)

var ErrDivergentDuplicateAccount = errors.New("ErrDivergentDuplicateAccount")

type storeEntry struct {
	account  *accounts.Account
	lamports *LamportsCell
	data     *DataCell
}

// AccountStore owns one copy of every account referenced by an invocation,
// keyed by address. It lives for a single invocation.
type AccountStore struct {
	order   []solana.PublicKey
	records map[solana.PublicKey]*storeEntry
}

// SnapshotAccounts copies the keyed accounts into a deduplicated store whose
// order is the order of first occurrence. A key reported twice with different
// state is rejected, since the runtime never stores one account twice.
func SnapshotAccounts(keyedAccounts []*KeyedAccount) (*AccountStore, error) {
	store := &AccountStore{
		order:   make([]solana.PublicKey, 0, len(keyedAccounts)),
		records: make(map[solana.PublicKey]*storeEntry, len(keyedAccounts)),
	}

	for _, ka := range keyedAccounts {
		key := ka.UnsignedKey()
		if existing, ok := store.records[key]; ok {
			if !sameAccountState(existing.account, ka) {
				return nil, fmt.Errorf("%w: %s", ErrDivergentDuplicateAccount, key)
			}
			continue
		}

		acct := ka.Account()
		store.records[key] = &storeEntry{
			account:  acct,
			lamports: &LamportsCell{lamports: &acct.Lamports},
			data:     &DataCell{data: &acct.Data},
		}
		store.order = append(store.order, key)
	}

	return store, nil
}

func sameAccountState(acct *accounts.Account, ka *KeyedAccount) bool {
	return acct.Lamports == ka.Lamports() &&
		acct.Owner == ka.Owner() &&
		acct.Executable == ka.Executable() &&
		acct.RentEpoch == ka.RentEpoch() &&
		bytes.Equal(acct.Data, ka.Data())
}

func (store *AccountStore) Len() int {
	return len(store.order)
}

func (store *AccountStore) Keys() []solana.PublicKey {
	keys := make([]solana.PublicKey, len(store.order))
	copy(keys, store.order)
	return keys
}

// Get returns the store's own record for key; mutations through views are
// visible on it.
func (store *AccountStore) Get(key solana.PublicKey) (*accounts.Account, bool) {
	entry, ok := store.records[key]
	if !ok {
		return nil, false
	}
	return entry.account, true
}

// BuildAccountInfos creates one view per keyed account, in keyed-account order.
// Views for the same key share the store's cells.
func BuildAccountInfos(keyedAccounts []*KeyedAccount, store *AccountStore) []*AccountInfo {
	accountInfos := make([]*AccountInfo, 0, len(keyedAccounts))

	for _, ka := range keyedAccounts {
		entry, ok := store.records[ka.UnsignedKey()]
		if !ok {
			panic(fmt.Sprintf("programming error - account %s missing from account store", ka.UnsignedKey()))
		}

		accountInfos = append(accountInfos, &AccountInfo{
			Key:        ka.UnsignedKey(),
			IsSigner:   ka.SignerKey() != nil,
			IsWritable: ka.IsWritable(),
			Executable: ka.Executable(),
			RentEpoch:  ka.RentEpoch(),
			Lamports:   entry.lamports,
			Data:       entry.data,
			owner:      &entry.account.Owner,
		})
	}

	return accountInfos
}

// commit writes the store's lamports and data back through every keyed
// account, in keyed-account order.
func (store *AccountStore) commit(keyedAccounts []*KeyedAccount) {
	for _, ka := range keyedAccounts {
		entry := store.records[ka.UnsignedKey()]
		ka.SetLamports(entry.lamports.Get())
		ka.SetData(entry.data.Bytes())
	}
}
