package programtest

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/token"
)

var ErrAccountEmpty = errors.New("account empty")

// GetAccount returns the committed account at pubkey, failing if it does not exist.
func GetAccount(ctx *Context, pubkey solana.PublicKey) (*accounts.Account, error) {
	acct, err := ctx.BanksClient.GetAccount(pubkey)
	if err != nil {
		return nil, fmt.Errorf("account not found: %w", err)
	}
	if acct == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountEmpty, pubkey)
	}
	return acct, nil
}

func GetMint(ctx *Context, pubkey solana.PublicKey) (*token.Mint, error) {
	acct, err := GetAccount(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	mint, err := token.UnpackMint(acct.Data)
	if err != nil {
		return nil, fmt.Errorf("unpacking mint %s: %w", pubkey, err)
	}
	return mint, nil
}

func GetTokenAccount(ctx *Context, pubkey solana.PublicKey) (*token.Account, error) {
	acct, err := GetAccount(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	tokenAcct, err := token.UnpackAccount(acct.Data)
	if err != nil {
		return nil, fmt.Errorf("unpacking token account %s: %w", pubkey, err)
	}
	return tokenAcct, nil
}

// CreateMint creates and initializes mint with zero decimals, manager as the
// mint authority and an optional freeze authority.
func CreateMint(ctx *Context, mint solana.PrivateKey, manager solana.PublicKey, freezeAuthority *solana.PublicKey) error {
	rent, err := ctx.BanksClient.GetRent()
	if err != nil {
		return err
	}

	mintKey := mint.PublicKey()
	instrs := []solana.Instruction{
		system.NewCreateAccountInstruction(
			rent.MinimumBalance(token.MintLen),
			token.MintLen,
			token.ProgramID,
			ctx.Payer.PublicKey(),
			mintKey,
		).Build(),
		token.NewInitializeMintInstruction(mintKey, manager, freezeAuthority, 0),
	}

	return ctx.SignAndProcess(instrs, mint)
}

// CreateTokenAccount creates and initializes account for mint, owned by manager.
func CreateTokenAccount(ctx *Context, account solana.PrivateKey, mint solana.PublicKey, manager solana.PublicKey) error {
	rent, err := ctx.BanksClient.GetRent()
	if err != nil {
		return err
	}

	accountKey := account.PublicKey()
	instrs := []solana.Instruction{
		system.NewCreateAccountInstruction(
			rent.MinimumBalance(token.AccountLen),
			token.AccountLen,
			token.ProgramID,
			ctx.Payer.PublicKey(),
			accountKey,
		).Build(),
		token.NewInitializeAccountInstruction(accountKey, mint, manager),
	}

	return ctx.SignAndProcess(instrs, account)
}

// MintTokens mints amount tokens of mint into account. owner is the mint
// authority; when it is not the payer its key must be passed as
// additionalSigner.
func MintTokens(ctx *Context, mint solana.PublicKey, account solana.PublicKey, amount uint64, owner solana.PublicKey, additionalSigner *solana.PrivateKey) error {
	var signers []solana.PrivateKey
	if additionalSigner != nil {
		signers = append(signers, *additionalSigner)
	}

	instrs := []solana.Instruction{
		token.NewMintToInstruction(mint, account, owner, amount),
	}

	return ctx.SignAndProcess(instrs, signers...)
}

// TransferTokens moves amount tokens between two token accounts of one mint.
func TransferTokens(ctx *Context, source solana.PublicKey, destination solana.PublicKey, owner solana.PrivateKey, amount uint64) error {
	instrs := []solana.Instruction{
		token.NewTransferInstruction(source, destination, owner.PublicKey(), amount),
	}

	return ctx.SignAndProcess(instrs, owner)
}
