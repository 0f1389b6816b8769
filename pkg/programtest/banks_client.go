package programtest

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/sealevel"
)

// BanksClient is the test's handle on a started bank.
type BanksClient struct {
	bank *Bank
}

func (client *BanksClient) ProcessTransaction(tx *solana.Transaction) error {
	_, err := client.bank.ProcessTransaction(tx)
	return err
}

// ProcessTransactionWithResult is ProcessTransaction also returning the
// program logs and the compute units consumed.
func (client *BanksClient) ProcessTransactionWithResult(tx *solana.Transaction) (*TransactionResult, error) {
	return client.bank.ProcessTransaction(tx)
}

// GetAccount returns the committed state of pubkey, or nil if the bank holds
// no such account.
func (client *BanksClient) GetAccount(pubkey solana.PublicKey) (*accounts.Account, error) {
	acct, err := client.bank.getAccount(pubkey)
	if errors.Is(err, accounts.ErrAccountNotFound) {
		return nil, nil
	}
	return acct, err
}

func (client *BanksClient) GetBalance(pubkey solana.PublicKey) (uint64, error) {
	acct, err := client.GetAccount(pubkey)
	if err != nil || acct == nil {
		return 0, err
	}
	return acct.Lamports, nil
}

func (client *BanksClient) GetRent() (sealevel.SysvarRent, error) {
	client.bank.mu.Lock()
	defer client.bank.mu.Unlock()
	return sealevel.ReadRentSysvar(client.bank.accounts)
}

func (client *BanksClient) GetLatestBlockhash() solana.Hash {
	client.bank.mu.Lock()
	defer client.bank.mu.Unlock()
	return client.bank.latestBlockhash()
}

// GetNewLatestBlockhash advances the bank a slot, so that otherwise identical
// transactions get distinct signatures.
func (client *BanksClient) GetNewLatestBlockhash() solana.Hash {
	return client.bank.advanceSlot()
}

// Context is what a started ProgramTest hands to the test.
type Context struct {
	BanksClient   *BanksClient
	Payer         solana.PrivateKey
	LastBlockhash solana.Hash
}

// SignAndProcess builds a transaction paid for by the context payer, signs it
// with the payer and signers and processes it.
func (ctx *Context) SignAndProcess(instrs []solana.Instruction, signers ...solana.PrivateKey) error {
	tx, err := ctx.NewSignedTransaction(instrs, signers...)
	if err != nil {
		return err
	}
	return ctx.BanksClient.ProcessTransaction(tx)
}

func (ctx *Context) NewSignedTransaction(instrs []solana.Instruction, signers ...solana.PrivateKey) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(instrs, ctx.LastBlockhash, solana.TransactionPayer(ctx.Payer.PublicKey()))
	if err != nil {
		return nil, err
	}

	keys := append([]solana.PrivateKey{ctx.Payer}, signers...)
	_, err = tx.Sign(func(pubkey solana.PublicKey) *solana.PrivateKey {
		for idx := range keys {
			if keys[idx].PublicKey() == pubkey {
				return &keys[idx]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tx, nil
}

// SetAccount overwrites the committed state of pubkey outside of any
// transaction. A zero-lamport account is removed.
func (ctx *Context) SetAccount(pubkey solana.PublicKey, acct *accounts.Account) error {
	if acct.Lamports == 0 {
		ctx.BanksClient.bank.deleteAccount(pubkey)
		return nil
	}
	return ctx.BanksClient.bank.setAccount(pubkey, acct)
}
