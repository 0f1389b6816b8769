package programtest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"github.com/zeebo/blake3"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/cu"
	"go.firedancer.io/programtest/pkg/sealevel"
	"go.firedancer.io/programtest/pkg/util"
	"k8s.io/klog/v2"
)

var (
	ErrBlockhashNotFound   = errors.New("TxErrBlockhashNotFound")
	ErrAlreadyProcessed    = errors.New("TxErrAlreadyProcessed")
	ErrAccountNotFound     = errors.New("TxErrAccountNotFound")
	ErrMissingSignatures   = errors.New("TxErrMissingSignatures")
	ErrInvalidProgramIndex = errors.New("TxErrInvalidProgramIndex")
)

// TransactionError reports the instruction that failed a transaction. No
// account state of a failed transaction is committed.
type TransactionError struct {
	InstructionIndex int
	Err              error
}

func (err *TransactionError) Error() string {
	return fmt.Sprintf("instruction %d failed: %s", err.InstructionIndex, err.Err)
}

func (err *TransactionError) Unwrap() error {
	return err.Err
}

// TransactionResult carries what a transaction produced, successful or not.
type TransactionResult struct {
	Logs                 []string
	ComputeUnitsConsumed uint64
}

type builtinEntry struct {
	name    string
	process sealevel.BuiltinProgram

	// charged before dispatch; native builtins meter themselves
	computeUnits uint64
}

// Bank is the simulated runtime: an authoritative account store plus the
// registered builtins, processing one transaction at a time.
type Bank struct {
	mu sync.Mutex

	accounts        accounts.MemAccounts
	builtins        map[solana.PublicKey]builtinEntry
	rent            sealevel.SysvarRent
	computeMaxUnits uint64
	metrics         *metrics

	slot        uint64
	blockhashes []solana.Hash
	signatures  map[solana.Signature]bool
}

func newBank(accts accounts.MemAccounts, builtins map[solana.PublicKey]builtinEntry, rent sealevel.SysvarRent, computeMaxUnits uint64, m *metrics) *Bank {
	bank := &Bank{
		accounts:        accts,
		builtins:        builtins,
		rent:            rent,
		computeMaxUnits: computeMaxUnits,
		metrics:         m,
		signatures:      make(map[solana.Signature]bool),
	}
	bank.blockhashes = append(bank.blockhashes, blockhashForSlot(0))
	return bank
}

func blockhashForSlot(slot uint64) solana.Hash {
	var slotBytes [8]byte
	binary.LittleEndian.PutUint64(slotBytes[:], slot)
	return solana.Hash(blake3.Sum256(append([]byte("programtest blockhash"), slotBytes[:]...)))
}

func (bank *Bank) latestBlockhash() solana.Hash {
	return bank.blockhashes[len(bank.blockhashes)-1]
}

// advanceSlot moves to the next slot and produces a fresh blockhash. Older
// blockhashes stay valid.
func (bank *Bank) advanceSlot() solana.Hash {
	bank.mu.Lock()
	defer bank.mu.Unlock()

	bank.slot++
	hash := blockhashForSlot(bank.slot)
	bank.blockhashes = append(bank.blockhashes, hash)
	return hash
}

func (bank *Bank) getAccount(pubkey solana.PublicKey) (*accounts.Account, error) {
	bank.mu.Lock()
	defer bank.mu.Unlock()
	return bank.accounts.GetAccount((*[32]byte)(&pubkey))
}

func (bank *Bank) setAccount(pubkey solana.PublicKey, acct *accounts.Account) error {
	bank.mu.Lock()
	defer bank.mu.Unlock()
	return bank.accounts.SetAccount((*[32]byte)(&pubkey), acct)
}

func (bank *Bank) deleteAccount(pubkey solana.PublicKey) {
	bank.mu.Lock()
	defer bank.mu.Unlock()
	bank.accounts.DeleteAccount((*[32]byte)(&pubkey))
}

// loadTransactionAccounts returns one record per message account key. Builtin
// programs are presented as executable native-loader accounts and keys the
// bank has never seen as empty system accounts.
func (bank *Bank) loadTransactionAccounts(tx *solana.Transaction) ([]*accounts.Account, error) {
	txAccts := make([]*accounts.Account, 0, len(tx.Message.AccountKeys))

	for _, key := range tx.Message.AccountKeys {
		if _, isBuiltin := bank.builtins[key]; isBuiltin {
			txAccts = append(txAccts, &accounts.Account{Key: key, Owner: sealevel.NativeLoaderAddr, Executable: true})
			continue
		}

		acct, err := bank.accounts.GetAccount((*[32]byte)(&key))
		if errors.Is(err, accounts.ErrAccountNotFound) {
			acct = &accounts.Account{Key: key, Owner: sealevel.SystemProgramAddr}
		} else if err != nil {
			return nil, err
		}
		txAccts = append(txAccts, acct)
	}

	return txAccts, nil
}

// writableKeys returns the message keys an instruction may modify. Builtin
// programs and sysvars are demoted to readonly whatever the message says.
func (bank *Bank) writableKeys(tx *solana.Transaction) (map[solana.PublicKey]bool, error) {
	txAcctMetas, err := tx.AccountMetaList()
	if err != nil {
		return nil, err
	}

	writable := make(map[solana.PublicKey]bool, len(txAcctMetas))
	for _, am := range txAcctMetas {
		_, isBuiltin := bank.builtins[am.PublicKey]
		writable[am.PublicKey] = am.IsWritable && !isBuiltin && !sealevel.IsSysvar(am.PublicKey)
	}
	return writable, nil
}

func (bank *Bank) checkTransaction(tx *solana.Transaction) error {
	if len(tx.Message.AccountKeys) == 0 {
		return ErrAccountNotFound
	}

	if len(tx.Signatures) == 0 || len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		return ErrMissingSignatures
	}

	if !lo.Contains(bank.blockhashes, tx.Message.RecentBlockhash) {
		return ErrBlockhashNotFound
	}

	if bank.signatures[tx.Signatures[0]] {
		return ErrAlreadyProcessed
	}

	payer, err := bank.accounts.GetAccount((*[32]byte)(&tx.Message.AccountKeys[0]))
	if err != nil || payer.Lamports == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// ProcessTransaction executes every instruction of tx in order against a
// private copy of the referenced accounts. The copy replaces the bank's state
// only if all instructions succeed.
func (bank *Bank) ProcessTransaction(tx *solana.Transaction) (*TransactionResult, error) {
	bank.mu.Lock()
	defer bank.mu.Unlock()

	result := &TransactionResult{}

	err := bank.checkTransaction(tx)
	if err != nil {
		klog.Errorf("transaction rejected: %s", err)
		return result, err
	}

	txAccts, err := bank.loadTransactionAccounts(tx)
	if err != nil {
		return result, err
	}

	writable, err := bank.writableKeys(tx)
	if err != nil {
		return result, err
	}

	var log sealevel.LogRecorder
	meter := cu.NewComputeMeter(bank.computeMaxUnits)

	err = bank.executeInstructions(tx, txAccts, writable, &log, &meter)

	result.Logs = log.Logs
	result.ComputeUnitsConsumed = meter.Used()
	for _, l := range log.Logs {
		klog.V(2).Infof("%s", l)
	}
	bank.metrics.recordTransaction(err, meter.Used())

	if err != nil {
		klog.Infof("[-] tx %s failed: %s", tx.Signatures[0], err)
		return result, err
	}

	for idx, acct := range txAccts {
		key := tx.Message.AccountKeys[idx]
		if !writable[key] {
			continue
		}
		if acct.Lamports == 0 {
			bank.accounts.DeleteAccount((*[32]byte)(&key))
			continue
		}
		err = bank.accounts.SetAccount((*[32]byte)(&key), acct)
		if err != nil {
			return result, err
		}
		klog.V(2).Infof("committed %s", util.PrettyPrintAcct(acct))
	}
	bank.signatures[tx.Signatures[0]] = true

	klog.Infof("[+] tx %s - compute units consumed: %d", tx.Signatures[0], meter.Used())
	return result, nil
}

func (bank *Bank) executeInstructions(tx *solana.Transaction, txAccts []*accounts.Account, writable map[solana.PublicKey]bool, log *sealevel.LogRecorder, meter *cu.ComputeMeter) error {
	keyIndex := make(map[solana.PublicKey]int, len(tx.Message.AccountKeys))
	for idx, key := range tx.Message.AccountKeys {
		keyIndex[key] = idx
	}

	for instrIdx, instr := range tx.Message.Instructions {
		programId, err := tx.ResolveProgramIDIndex(instr.ProgramIDIndex)
		if err != nil {
			return &TransactionError{InstructionIndex: instrIdx, Err: ErrInvalidProgramIndex}
		}

		builtin, ok := bank.builtins[programId]
		if !ok {
			klog.Errorf("no builtin registered for program %s", programId)
			return &TransactionError{InstructionIndex: instrIdx, Err: sealevel.InstrErrUnsupportedProgramId}
		}

		resolvedAccountMetas, err := instr.ResolveInstructionAccounts(&tx.Message)
		if err != nil {
			return &TransactionError{InstructionIndex: instrIdx, Err: sealevel.InstrErrMissingAccount}
		}

		keyedAccounts := make([]*sealevel.KeyedAccount, 0, len(resolvedAccountMetas))
		for _, am := range resolvedAccountMetas {
			acct := txAccts[keyIndex[am.PublicKey]]
			keyedAccounts = append(keyedAccounts, sealevel.NewKeyedAccount(am.PublicKey, am.IsSigner, writable[am.PublicKey], acct))
		}

		pre := snapshotInstrAccounts(keyedAccounts)

		execCtx := &sealevel.ExecutionCtx{
			Log:          log,
			ComputeMeter: meter,
			Rent:         bank.rent,
			ProgramId:    programId,
			Accounts:     keyedAccounts,
		}

		bank.metrics.instructions.WithLabelValues(builtin.name).Inc()
		log.Log(fmt.Sprintf("Program %s invoke [1]", programId))

		err = meter.Consume(builtin.computeUnits)
		if err != nil {
			err = sealevel.InstrErrComputationalBudgetExceeded
		} else {
			err = builtin.process(programId, instr.Data, execCtx)
			if err == nil && meter.Exceeded() {
				err = sealevel.InstrErrComputationalBudgetExceeded
			}
		}
		if err == nil {
			err = verifyInstrAccounts(programId, pre, keyedAccounts)
		}

		if err != nil {
			log.Log(fmt.Sprintf("Program %s failed: %s", programId, err))
			return &TransactionError{InstructionIndex: instrIdx, Err: err}
		}
		log.Log(fmt.Sprintf("Program %s success", programId))
	}

	return nil
}
