package programtest

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/programtest/pkg/sealevel"
	"go.firedancer.io/programtest/pkg/token"
)

func newKeypair(t *testing.T) solana.PrivateKey {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func TestFixtures_MintLifecycle(t *testing.T) {
	ctx, err := New().Start()
	require.NoError(t, err)

	mint := newKeypair(t)
	manager := ctx.Payer.PublicKey()
	freeze := solana.NewWallet().PublicKey()

	require.NoError(t, CreateMint(ctx, mint, manager, &freeze))

	mintState, err := GetMint(ctx, mint.PublicKey())
	require.NoError(t, err)
	assert.True(t, mintState.IsInitialized)
	assert.Equal(t, manager, *mintState.MintAuthority)
	assert.Equal(t, freeze, *mintState.FreezeAuthority)
	assert.Equal(t, uint8(0), mintState.Decimals)
	assert.Equal(t, uint64(0), mintState.Supply)

	mintAcct, err := GetAccount(ctx, mint.PublicKey())
	require.NoError(t, err)
	rent, err := ctx.BanksClient.GetRent()
	require.NoError(t, err)
	assert.Equal(t, token.ProgramID, mintAcct.Owner)
	assert.Equal(t, rent.MinimumBalance(token.MintLen), mintAcct.Lamports)

	alice := newKeypair(t)
	bob := newKeypair(t)
	aliceTokens := newKeypair(t)
	bobTokens := newKeypair(t)

	require.NoError(t, CreateTokenAccount(ctx, aliceTokens, mint.PublicKey(), alice.PublicKey()))
	require.NoError(t, CreateTokenAccount(ctx, bobTokens, mint.PublicKey(), bob.PublicKey()))

	require.NoError(t, MintTokens(ctx, mint.PublicKey(), aliceTokens.PublicKey(), 100, manager, nil))
	require.NoError(t, TransferTokens(ctx, aliceTokens.PublicKey(), bobTokens.PublicKey(), alice, 40))

	aliceState, err := GetTokenAccount(ctx, aliceTokens.PublicKey())
	require.NoError(t, err)
	bobState, err := GetTokenAccount(ctx, bobTokens.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(60), aliceState.Amount)
	assert.Equal(t, uint64(40), bobState.Amount)
	assert.Equal(t, alice.PublicKey(), aliceState.Owner)
	assert.Equal(t, mint.PublicKey(), bobState.Mint)

	mintState, err = GetMint(ctx, mint.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), mintState.Supply)
}

func TestFixtures_SeparateMintAuthority(t *testing.T) {
	ctx, err := New().Start()
	require.NoError(t, err)

	mint := newKeypair(t)
	authority := newKeypair(t)
	holder := newKeypair(t)

	require.NoError(t, CreateMint(ctx, mint, authority.PublicKey(), nil))
	require.NoError(t, CreateTokenAccount(ctx, holder, mint.PublicKey(), ctx.Payer.PublicKey()))

	require.NoError(t, MintTokens(ctx, mint.PublicKey(), holder.PublicKey(), 5, authority.PublicKey(), &authority))

	// the payer is not the mint authority
	err = MintTokens(ctx, mint.PublicKey(), holder.PublicKey(), 5, ctx.Payer.PublicKey(), nil)
	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 0, txErr.InstructionIndex)
	assert.ErrorIs(t, err, &sealevel.InstrErrCustom{Code: 4})

	holderState, err := GetTokenAccount(ctx, holder.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), holderState.Amount)
}

func TestFixtures_CreateMintTwiceFails(t *testing.T) {
	ctx, err := New().Start()
	require.NoError(t, err)

	mint := newKeypair(t)
	require.NoError(t, CreateMint(ctx, mint, ctx.Payer.PublicKey(), nil))

	ctx.LastBlockhash = ctx.BanksClient.GetNewLatestBlockhash()
	err = CreateMint(ctx, mint, ctx.Payer.PublicKey(), nil)
	assert.ErrorIs(t, err, sealevel.SystemProgErrAccountAlreadyInUse)
}

func TestFixtures_MissingAccounts(t *testing.T) {
	ctx, err := New().Start()
	require.NoError(t, err)

	_, err = GetMint(ctx, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, ErrAccountEmpty)

	// the payer is not a mint
	_, err = GetMint(ctx, ctx.Payer.PublicKey())
	assert.ErrorIs(t, err, sealevel.ProgramErrInvalidAccountData)

	_, err = GetTokenAccount(ctx, ctx.Payer.PublicKey())
	assert.ErrorIs(t, err, sealevel.ProgramErrInvalidAccountData)
}
