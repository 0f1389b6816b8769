package programtest

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/safemath"
	"go.firedancer.io/programtest/pkg/sealevel"
	"k8s.io/klog/v2"
)

type preInstrAccount struct {
	account    *accounts.Account
	isWritable bool
}

// snapshotInstrAccounts records the state of every distinct account an
// instruction references, before it runs.
func snapshotInstrAccounts(keyedAccounts []*sealevel.KeyedAccount) map[solana.PublicKey]*preInstrAccount {
	pre := make(map[solana.PublicKey]*preInstrAccount, len(keyedAccounts))
	for _, ka := range keyedAccounts {
		if existing, ok := pre[ka.UnsignedKey()]; ok {
			existing.isWritable = existing.isWritable || ka.IsWritable()
			continue
		}
		pre[ka.UnsignedKey()] = &preInstrAccount{account: ka.Account(), isWritable: ka.IsWritable()}
	}
	return pre
}

// verifyInstrAccounts applies the runtime's post-instruction account rules
// to every account the instruction referenced.
func verifyInstrAccounts(programId solana.PublicKey, pre map[solana.PublicKey]*preInstrAccount, keyedAccounts []*sealevel.KeyedAccount) error {
	var preSum, postSum uint64
	seen := make(map[solana.PublicKey]bool, len(pre))

	for _, ka := range keyedAccounts {
		key := ka.UnsignedKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		before := pre[key]
		after := ka.Account()

		err := verifyAccount(programId, before.account, after, before.isWritable)
		if err != nil {
			klog.Errorf("instruction for program %s violated account rules on %s: %s", programId, key, err)
			return err
		}

		preSum, err = safemath.CheckedAddU64(preSum, before.account.Lamports)
		if err != nil {
			return sealevel.InstrErrUnbalancedInstruction
		}
		postSum, err = safemath.CheckedAddU64(postSum, after.Lamports)
		if err != nil {
			return sealevel.InstrErrUnbalancedInstruction
		}
	}

	if preSum != postSum {
		klog.Errorf("instruction for program %s unbalanced: %d lamports before, %d after", programId, preSum, postSum)
		return sealevel.InstrErrUnbalancedInstruction
	}

	return nil
}

func verifyAccount(programId solana.PublicKey, before *accounts.Account, after *accounts.Account, isWritable bool) error {
	ownedByProgram := before.Owner == programId

	if before.Owner != after.Owner {
		if !isWritable || !ownedByProgram || before.Executable || !isZeroed(after.Data) {
			return sealevel.InstrErrModifiedProgramId
		}
	}

	if before.Executable != after.Executable {
		return sealevel.InstrErrExecutableModified
	}

	if before.Lamports != after.Lamports {
		if !isWritable {
			return sealevel.InstrErrReadonlyLamportChange
		}
		if before.Executable {
			return sealevel.InstrErrExecutableLamportChange
		}
		if !ownedByProgram && after.Lamports < before.Lamports {
			return sealevel.InstrErrExternalAccountLamportSpend
		}
	}

	if !bytes.Equal(before.Data, after.Data) {
		if before.Executable {
			return sealevel.InstrErrExecutableDataModified
		}
		if !isWritable {
			return sealevel.InstrErrReadonlyDataModified
		}
		// only the owner may change data
		if !ownedByProgram {
			return sealevel.InstrErrExternalAccountDataModified
		}
	}

	if before.RentEpoch != after.RentEpoch {
		return sealevel.InstrErrRentEpochModified
	}

	return nil
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
