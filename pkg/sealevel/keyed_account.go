package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/safemath"
)

// KeyedAccount pairs an account key and its role flags in the current
// instruction with a handle to the runtime's authoritative account state.
// Several keyed accounts may share one handle when an instruction references
// the same account more than once.
type KeyedAccount struct {
	key        solana.PublicKey
	isSigner   bool
	isWritable bool
	account    *accounts.Account
}

func NewKeyedAccount(key solana.PublicKey, isSigner bool, isWritable bool, account *accounts.Account) *KeyedAccount {
	return &KeyedAccount{key: key, isSigner: isSigner, isWritable: isWritable, account: account}
}

func (ka *KeyedAccount) UnsignedKey() solana.PublicKey {
	return ka.key
}

// SignerKey returns the key if the account signed the transaction, nil otherwise.
func (ka *KeyedAccount) SignerKey() *solana.PublicKey {
	if !ka.isSigner {
		return nil
	}
	key := ka.key
	return &key
}

func (ka *KeyedAccount) IsSigner() bool {
	return ka.isSigner
}

func (ka *KeyedAccount) IsWritable() bool {
	return ka.isWritable
}

func (ka *KeyedAccount) Executable() bool {
	return ka.account.Executable
}

func (ka *KeyedAccount) RentEpoch() uint64 {
	return ka.account.RentEpoch
}

func (ka *KeyedAccount) Lamports() uint64 {
	return ka.account.Lamports
}

func (ka *KeyedAccount) Data() []byte {
	return ka.account.Data
}

func (ka *KeyedAccount) Owner() solana.PublicKey {
	return ka.account.Owner
}

// Account returns a deep copy of the current authoritative state.
func (ka *KeyedAccount) Account() *accounts.Account {
	acct := ka.account.Clone()
	acct.Key = ka.key
	return acct
}

func (ka *KeyedAccount) SetLamports(lamports uint64) {
	ka.account.Lamports = lamports
}

func (ka *KeyedAccount) SetData(data []byte) {
	ka.account.SetData(data)
}

func (ka *KeyedAccount) CheckedAddLamports(lamports uint64) error {
	sum, err := safemath.CheckedAddU64(ka.account.Lamports, lamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}
	ka.account.Lamports = sum
	return nil
}

func (ka *KeyedAccount) CheckedSubLamports(lamports uint64) error {
	diff, err := safemath.CheckedSubU64(ka.account.Lamports, lamports)
	if err != nil {
		return InstrErrInsufficientFunds
	}
	ka.account.Lamports = diff
	return nil
}

// SetOwner, SetDataLength and SetExecutable are reserved for native programs;
// processing functions running through the adapter cannot reach them.

func (ka *KeyedAccount) SetOwner(owner solana.PublicKey) {
	ka.account.Owner = owner
}

func (ka *KeyedAccount) SetDataLength(length uint64) {
	data := make([]byte, length)
	copy(data, ka.account.Data)
	ka.account.Data = data
}

func (ka *KeyedAccount) SetExecutable(executable bool) {
	ka.account.Executable = executable
}
