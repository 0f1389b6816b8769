package util

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"go.firedancer.io/programtest/pkg/accounts"
)

func TestCalculateAcctHash(t *testing.T) {
	acct := accounts.Account{Key: solana.NewWallet().PublicKey(), Lamports: 10, Data: []byte{1, 2}, Owner: solana.SystemProgramID}

	hash := CalculateAcctHash(acct)
	assert.Len(t, hash, 32)
	assert.Equal(t, hash, CalculateAcctHash(*acct.Clone()))

	changed := *acct.Clone()
	changed.Data[1] = 3
	assert.NotEqual(t, hash, CalculateAcctHash(changed))

	changed = *acct.Clone()
	changed.Executable = true
	assert.NotEqual(t, hash, CalculateAcctHash(changed))
}

func TestPubkeyCmp(t *testing.T) {
	a := solana.PublicKey{0, 1}
	b := solana.PublicKey{0, 2}
	assert.True(t, PubkeyCmp(a, b))
	assert.False(t, PubkeyCmp(b, a))
	assert.False(t, PubkeyCmp(a, a))
}

func TestPrettyPrintAcct(t *testing.T) {
	acct := &accounts.Account{Key: solana.SystemProgramID, Lamports: 5, Owner: solana.SystemProgramID}
	assert.Contains(t, PrettyPrintAcct(acct), "lamports=5")
	assert.Contains(t, PrettyPrintAcct(acct), "data_len=0")
}
