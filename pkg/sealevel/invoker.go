package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// ProcessInstruction is the entrypoint of a program under test.
type ProcessInstruction func(programId solana.PublicKey, accounts []*AccountInfo, input []byte) error

// BuiltinProgram is the callback signature the runtime dispatches
// instructions to.
type BuiltinProgram func(programId solana.PublicKey, input []byte, invokeCtx InvokeContext) error

// ProgramInvoker adapts a ProcessInstruction to the BuiltinProgram signature.
type ProgramInvoker struct {
	process ProcessInstruction
}

func NewProgramInvoker(process ProcessInstruction) *ProgramInvoker {
	return &ProgramInvoker{process: process}
}

func (pi *ProgramInvoker) Invoke(programId solana.PublicKey, input []byte, invokeCtx InvokeContext) error {
	return BuiltinProcessInstruction(pi.process, programId, input, invokeCtx)
}

// BuiltinProcessInstruction runs process against the accounts of invokeCtx:
// the accounts are snapshotted into an AccountStore, exposed to process as
// AccountInfo views in keyed-account order, and, only if process succeeds,
// their lamports and data are written back to the keyed accounts. A process
// that ran past the compute budget fails even if it returned nil. Owner,
// executable flag and rent epoch are never written back.
func BuiltinProcessInstruction(process ProcessInstruction, programId solana.PublicKey, input []byte, invokeCtx InvokeContext) error {
	release := CaptureInvokeContext(invokeCtx)
	defer release()

	keyedAccounts, err := invokeCtx.KeyedAccounts()
	if err != nil {
		klog.Errorf("program %s: unable to get keyed accounts: %s", programId, err)
		if !IsInstructionError(err) {
			return InstrErrMissingAccount
		}
		return err
	}

	store, err := SnapshotAccounts(keyedAccounts)
	if err != nil {
		klog.Errorf("program %s: %s", programId, err)
		return InstrErrInvalidArgument
	}

	accountInfos := BuildAccountInfos(keyedAccounts, store)

	err = process(programId, accountInfos, input)
	if err != nil {
		instrErr := InstructionErrorFromProgramError(err)
		klog.V(2).Infof("program %s failed: %s", programId, instrErr)
		return instrErr
	}

	if meter := invokeCtx.Meter(); meter != nil && meter.Exceeded() {
		klog.V(2).Infof("program %s exceeded its compute budget", programId)
		return InstrErrComputationalBudgetExceeded
	}

	store.commit(keyedAccounts)
	return nil
}
