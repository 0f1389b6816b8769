package sealevel

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/cu"
)

func newTestAccount(lamports uint64, data []byte, owner solana.PublicKey) *accounts.Account {
	key := solana.NewWallet().PublicKey()
	return &accounts.Account{Key: key, Lamports: lamports, Data: data, Owner: owner, RentEpoch: 100}
}

func newTestKeyedAccount(acct *accounts.Account, isSigner bool, isWritable bool) *KeyedAccount {
	return NewKeyedAccount(acct.Key, isSigner, isWritable, acct)
}

func newTestExecCtx(programId solana.PublicKey, keyedAccounts []*KeyedAccount, budget uint64) (*ExecutionCtx, *LogRecorder) {
	logs := &LogRecorder{}
	meter := cu.NewComputeMeter(budget)
	if keyedAccounts == nil {
		keyedAccounts = []*KeyedAccount{}
	}
	return &ExecutionCtx{
		Log:          logs,
		ComputeMeter: &meter,
		Rent:         DefaultRent,
		ProgramId:    programId,
		Accounts:     keyedAccounts,
	}, logs
}

// transferProcessor moves the amount encoded in input from the first account
// to the second, the way a minimal on-chain transfer program would.
func transferProcessor(programId solana.PublicKey, accountInfos []*AccountInfo, input []byte) error {
	if len(accountInfos) < 2 {
		return ProgramErrNotEnoughAccountKeys
	}
	amount, err := bin.NewBinDecoder(input).ReadUint64(bin.LE)
	if err != nil {
		return ProgramErrInvalidInstructionData
	}

	from, to := accountInfos[0], accountInfos[1]
	err = from.Lamports.CheckedSub(amount)
	if err != nil {
		return err
	}
	return to.Lamports.CheckedAdd(amount)
}

func transferInput(amount uint64) []byte {
	buf := new(bytes.Buffer)
	err := bin.NewBinEncoder(buf).WriteUint64(amount, bin.LE)
	if err != nil {
		panic("shouldn't fail")
	}
	return buf.Bytes()
}
