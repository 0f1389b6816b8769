package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/cu"
)

// InvokeContext is the runtime's per-instruction handle: the keyed accounts
// participating in the instruction plus the environment they execute in.
type InvokeContext interface {
	CurrentProgramId() solana.PublicKey
	KeyedAccounts() ([]*KeyedAccount, error)
	Logger() Logger
	Meter() *cu.ComputeMeter
	RentSysvar() SysvarRent
}

// ExecutionCtx is the InvokeContext the simulated runtime builds for every
// instruction it dispatches.
type ExecutionCtx struct {
	Log          Logger
	ComputeMeter *cu.ComputeMeter
	Rent         SysvarRent
	ProgramId    solana.PublicKey

	// Accounts must be non-nil; a nil slice means no account list was
	// configured, which is distinct from an instruction without accounts.
	Accounts []*KeyedAccount
}

func (execCtx *ExecutionCtx) CurrentProgramId() solana.PublicKey {
	return execCtx.ProgramId
}

func (execCtx *ExecutionCtx) KeyedAccounts() ([]*KeyedAccount, error) {
	if execCtx.Accounts == nil {
		return nil, InstrErrMissingAccount
	}
	return execCtx.Accounts, nil
}

func (execCtx *ExecutionCtx) Logger() Logger {
	return execCtx.Log
}

func (execCtx *ExecutionCtx) Meter() *cu.ComputeMeter {
	return execCtx.ComputeMeter
}

func (execCtx *ExecutionCtx) RentSysvar() SysvarRent {
	return execCtx.Rent
}

