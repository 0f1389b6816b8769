package sealevel

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotAccounts_DedupesInFirstOccurrenceOrder(t *testing.T) {
	a := newTestAccount(1000, []byte{1, 2, 3}, SystemProgramAddr)
	b := newTestAccount(500, nil, SystemProgramAddr)
	c := newTestAccount(0, make([]byte, 16), SystemProgramAddr)

	// a appears twice, sharing one authoritative record
	keyed := []*KeyedAccount{
		newTestKeyedAccount(b, false, true),
		newTestKeyedAccount(a, true, true),
		newTestKeyedAccount(c, false, false),
		newTestKeyedAccount(a, true, true),
	}

	store, err := SnapshotAccounts(keyed)
	require.NoError(t, err)

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, []solana.PublicKey{b.Key, a.Key, c.Key}, store.Keys())
	assert.Equal(t, lo.Uniq(lo.Map(keyed, func(ka *KeyedAccount, _ int) solana.PublicKey { return ka.UnsignedKey() })), store.Keys())

	rec, ok := store.Get(a.Key)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), rec.Lamports)
	assert.Equal(t, []byte{1, 2, 3}, rec.Data)

	// the store owns its copy
	rec.Data[0] = 9
	assert.Equal(t, byte(1), a.Data[0])
}

func TestSnapshotAccounts_RejectsDivergentDuplicates(t *testing.T) {
	a := newTestAccount(1000, nil, SystemProgramAddr)
	stale := a.Clone()
	stale.Lamports = 999

	keyed := []*KeyedAccount{
		newTestKeyedAccount(a, false, true),
		NewKeyedAccount(a.Key, false, true, stale),
	}

	_, err := SnapshotAccounts(keyed)
	assert.ErrorIs(t, err, ErrDivergentDuplicateAccount)
}

func TestSnapshotAccounts_EqualDuplicatesAccepted(t *testing.T) {
	a := newTestAccount(1000, []byte{7}, SystemProgramAddr)

	keyed := []*KeyedAccount{
		newTestKeyedAccount(a, false, true),
		NewKeyedAccount(a.Key, true, false, a.Clone()),
	}

	store, err := SnapshotAccounts(keyed)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestSnapshotAccounts_Idempotent(t *testing.T) {
	a := newTestAccount(42, []byte{1, 2}, SystemProgramAddr)
	b := newTestAccount(7, nil, SystemProgramAddr)
	keyed := []*KeyedAccount{newTestKeyedAccount(a, true, true), newTestKeyedAccount(b, false, false)}

	first, err := SnapshotAccounts(keyed)
	require.NoError(t, err)
	second, err := SnapshotAccounts(keyed)
	require.NoError(t, err)

	assert.Equal(t, first.Keys(), second.Keys())
	for _, key := range first.Keys() {
		r1, _ := first.Get(key)
		r2, _ := second.Get(key)
		assert.True(t, r1.Equal(r2))
	}
}

func TestBuildAccountInfos_PreservesKeyedOrderAndFlags(t *testing.T) {
	a := newTestAccount(1, nil, SystemProgramAddr)
	b := newTestAccount(2, []byte{0xaa}, NativeLoaderAddr)
	b.Executable = true

	keyed := []*KeyedAccount{
		newTestKeyedAccount(b, false, false),
		newTestKeyedAccount(a, true, true),
		newTestKeyedAccount(b, false, false),
	}

	store, err := SnapshotAccounts(keyed)
	require.NoError(t, err)

	infos := BuildAccountInfos(keyed, store)
	require.Len(t, infos, 3)

	for i, ka := range keyed {
		assert.Equal(t, ka.UnsignedKey(), infos[i].Key)
		assert.Equal(t, ka.IsSigner(), infos[i].IsSigner)
		assert.Equal(t, ka.IsWritable(), infos[i].IsWritable)
		assert.Equal(t, ka.Executable(), infos[i].Executable)
		assert.Equal(t, ka.RentEpoch(), infos[i].RentEpoch)
		assert.Equal(t, ka.Owner(), infos[i].Owner())
	}
	assert.True(t, infos[0].IsOwnedBy(NativeLoaderAddr))
}

func TestBuildAccountInfos_DuplicateViewsShareCells(t *testing.T) {
	a := newTestAccount(1000, make([]byte, 4), SystemProgramAddr)
	keyed := []*KeyedAccount{newTestKeyedAccount(a, true, true), newTestKeyedAccount(a, true, true)}

	store, err := SnapshotAccounts(keyed)
	require.NoError(t, err)
	infos := BuildAccountInfos(keyed, store)

	assert.Same(t, infos[0].Lamports, infos[1].Lamports)
	assert.Same(t, infos[0].Data, infos[1].Data)

	infos[0].Lamports.Set(10)
	infos[1].Data.Bytes()[2] = 0xff
	assert.Equal(t, uint64(10), infos[1].Lamports.Get())
	assert.Equal(t, byte(0xff), infos[0].Data.Bytes()[2])

	rec, _ := store.Get(a.Key)
	assert.Equal(t, uint64(10), rec.Lamports)
	assert.Equal(t, []byte{0, 0, 0xff, 0}, rec.Data)

	// the authoritative record is untouched until commit
	assert.Equal(t, uint64(1000), a.Lamports)
	assert.Equal(t, make([]byte, 4), a.Data)
}

func TestBuildAccountInfos_Empty(t *testing.T) {
	store, err := SnapshotAccounts(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, BuildAccountInfos(nil, store))
}

func TestDataCell_Realloc(t *testing.T) {
	a := newTestAccount(0, []byte{1, 2, 3}, SystemProgramAddr)
	keyed := []*KeyedAccount{newTestKeyedAccount(a, false, true)}
	store, err := SnapshotAccounts(keyed)
	require.NoError(t, err)
	info := BuildAccountInfos(keyed, store)[0]

	require.NoError(t, info.Data.Realloc(5))
	assert.Equal(t, []byte{1, 2, 3, 0, 0}, info.Data.Bytes())

	require.NoError(t, info.Data.Realloc(1))
	assert.Equal(t, 1, info.Data.Len())

	assert.ErrorIs(t, info.Data.Realloc(-1), ProgramErrInvalidRealloc)

	info.Data.Set([]byte{4, 5})
	rec, _ := store.Get(a.Key)
	assert.Equal(t, []byte{4, 5}, rec.Data)
}

func TestLamportsCell_CheckedArithmetic(t *testing.T) {
	a := newTestAccount(10, nil, SystemProgramAddr)
	keyed := []*KeyedAccount{newTestKeyedAccount(a, false, true)}
	store, err := SnapshotAccounts(keyed)
	require.NoError(t, err)
	cell := BuildAccountInfos(keyed, store)[0].Lamports

	assert.ErrorIs(t, cell.CheckedSub(11), ProgramErrInsufficientFunds)
	assert.Equal(t, uint64(10), cell.Get())

	cell.Set(^uint64(0))
	assert.ErrorIs(t, cell.CheckedAdd(1), ProgramErrArithmeticOverflow)

	require.NoError(t, cell.CheckedSub(5))
	assert.Equal(t, ^uint64(0)-5, cell.Get())
}
