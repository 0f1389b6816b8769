package accounts

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccounts_MemAccountsCopies(t *testing.T) {
	accts := NewMemAccounts()
	key := [32]byte{1}
	acct := &Account{Lamports: 1000, Data: []byte{1, 2, 3}, Owner: solana.SystemProgramID}
	require.NoError(t, accts.SetAccount(&key, acct))

	// mutating the caller's copy must not leak into the store
	acct.Data[0] = 9
	acct.Lamports = 0

	got, err := accts.GetAccount(&key)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), got.Lamports)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	assert.Equal(t, solana.PublicKey(key), got.Key)

	got.Data[1] = 7
	again, err := accts.GetAccount(&key)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again.Data)
}

func TestAccounts_NotFound(t *testing.T) {
	accts := NewMemAccounts()
	_, err := accts.GetAccount(&[32]byte{5})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccounts_Delete(t *testing.T) {
	accts := NewMemAccounts()
	key := [32]byte{3}
	require.NoError(t, accts.SetAccount(&key, &Account{Lamports: 1}))

	accts.DeleteAccount(&key)
	_, err := accts.GetAccount(&key)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// deleting again is fine
	accts.DeleteAccount(&key)
}

func TestAccounts_KeysSorted(t *testing.T) {
	accts := NewMemAccounts()
	for _, b := range []byte{3, 1, 2} {
		k := [32]byte{b}
		require.NoError(t, accts.SetAccount(&k, &Account{}))
	}
	assert.Equal(t, [][32]byte{{1}, {2}, {3}}, accts.Keys())
	assert.Equal(t, 3, accts.Len())

	var seen []byte
	accts.Range(func(acct *Account) bool {
		seen = append(seen, acct.Key[0])
		return acct.Key[0] < 2
	})
	assert.Equal(t, []byte{1, 2}, seen)
}

func TestAccounts_Codec(t *testing.T) {
	acct := &Account{
		Key:        solana.PublicKey{7},
		Lamports:   42,
		Data:       []byte("state"),
		Owner:      solana.SystemProgramID,
		Executable: true,
		RentEpoch:  100,
	}

	buf := new(bytes.Buffer)
	require.NoError(t, acct.MarshalWithEncoder(bin.NewBinEncoder(buf)))

	var decoded Account
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(buf.Bytes())))
	assert.True(t, acct.Equal(&decoded))

	truncated := buf.Bytes()[:40]
	var bad Account
	assert.Error(t, bad.UnmarshalWithDecoder(bin.NewBinDecoder(truncated)))
}
