package sealevel

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

const SystemProgMaxPermittedDataLen = 10 * 1024 * 1024

const (
	SystemProgramInstrTypeCreateAccount = iota
	SystemProgramInstrTypeAssign
	SystemProgramInstrTypeTransfer
	SystemProgramInstrTypeCreateAccountWithSeed
	SystemProgramInstrTypeAdvanceNonceAccount
	SystemProgramInstrTypeWithdrawNonceAccount
	SystemProgramInstrTypeInitializeNonceAccount
	SystemProgramInstrTypeAuthorizeNonceAccount
	SystemProgramInstrTypeAllocate
)

// system program errors, reported as custom instruction errors
var (
	SystemProgErrAccountAlreadyInUse        = &InstrErrCustom{Code: 0}
	SystemProgErrResultWithNegativeLamports = &InstrErrCustom{Code: 1}
	SystemProgErrInvalidAccountDataLength   = &InstrErrCustom{Code: 3}
)

type SystemInstrCreateAccount struct {
	Lamports uint64
	Space    uint64
	Owner    solana.PublicKey
}

type SystemInstrAssign struct {
	Owner solana.PublicKey
}

type SystemInstrTransfer struct {
	Lamports uint64
}

type SystemInstrAllocate struct {
	Space uint64
}

func checkWithinDeserializationLimit(decoder *bin.Decoder) error {
	if decoder.Position() > 1232 {
		return InstrErrInvalidInstructionData
	} else {
		return nil
	}
}

func (instr *SystemInstrCreateAccount) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.Lamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	instr.Space, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(instr.Owner[:], pk)

	return checkWithinDeserializationLimit(decoder)
}

func (instr *SystemInstrCreateAccount) MarshalWithEncoder(encoder *bin.Encoder) error {
	var err error

	err = encoder.WriteUint32(SystemProgramInstrTypeCreateAccount, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.Lamports, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.Space, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(instr.Owner[:], false)
	return err
}

func (instr *SystemInstrAssign) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(instr.Owner[:], pk)

	return checkWithinDeserializationLimit(decoder)
}

func (instr *SystemInstrAssign) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(SystemProgramInstrTypeAssign, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(instr.Owner[:], false)
}

func (instr *SystemInstrTransfer) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.Lamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	return checkWithinDeserializationLimit(decoder)
}

func (instr *SystemInstrTransfer) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(SystemProgramInstrTypeTransfer, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(instr.Lamports, bin.LE)
}

func (instr *SystemInstrAllocate) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.Space, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	return checkWithinDeserializationLimit(decoder)
}

func (instr *SystemInstrAllocate) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(SystemProgramInstrTypeAllocate, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(instr.Space, bin.LE)
}

type marshaler interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}

func systemInstruction(instr marshaler, metas ...*solana.AccountMeta) *solana.GenericInstruction {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)

	err := instr.MarshalWithEncoder(encoder)
	if err != nil {
		panic("shouldn't fail")
	}

	return solana.NewInstruction(SystemProgramAddr, metas, buf.Bytes())
}

func NewCreateAccountInstruction(from solana.PublicKey, to solana.PublicKey, lamports uint64, space uint64, owner solana.PublicKey) *solana.GenericInstruction {
	return systemInstruction(&SystemInstrCreateAccount{Lamports: lamports, Space: space, Owner: owner},
		solana.NewAccountMeta(from, true, true),
		solana.NewAccountMeta(to, true, true))
}

func NewTransferInstruction(from solana.PublicKey, to solana.PublicKey, lamports uint64) *solana.GenericInstruction {
	return systemInstruction(&SystemInstrTransfer{Lamports: lamports},
		solana.NewAccountMeta(from, true, true),
		solana.NewAccountMeta(to, true, false))
}

func NewAllocateInstruction(pubkey solana.PublicKey, space uint64) *solana.GenericInstruction {
	return systemInstruction(&SystemInstrAllocate{Space: space},
		solana.NewAccountMeta(pubkey, true, true))
}

func NewAssignInstruction(pubkey solana.PublicKey, owner solana.PublicKey) *solana.GenericInstruction {
	return systemInstruction(&SystemInstrAssign{Owner: owner},
		solana.NewAccountMeta(pubkey, true, true))
}

func checkNumOfKeyedAccounts(keyedAccounts []*KeyedAccount, num int) error {
	if len(keyedAccounts) < num {
		return InstrErrNotEnoughAccountKeys
	}
	return nil
}

// SystemProgramExecute is the native system program. It works on the keyed
// accounts directly instead of going through the account views.
func SystemProgramExecute(programId solana.PublicKey, input []byte, invokeCtx InvokeContext) error {
	if meter := invokeCtx.Meter(); meter != nil {
		err := meter.Consume(CUSystemProgramDefaultComputeUnits)
		if err != nil {
			return InstrErrComputationalBudgetExceeded
		}
	}

	keyedAccounts, err := invokeCtx.KeyedAccounts()
	if err != nil {
		return err
	}

	decoder := bin.NewBinDecoder(input)

	instructionType, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return InstrErrInvalidInstructionData
	}

	switch instructionType {

	case SystemProgramInstrTypeCreateAccount:
		{
			var createAccount SystemInstrCreateAccount
			err = createAccount.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = checkNumOfKeyedAccounts(keyedAccounts, 2)
			if err != nil {
				return err
			}
			err = SystemProgramCreateAccount(keyedAccounts[0], keyedAccounts[1], createAccount.Lamports, createAccount.Space, createAccount.Owner)
		}

	case SystemProgramInstrTypeAssign:
		{
			var assign SystemInstrAssign
			err = assign.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = checkNumOfKeyedAccounts(keyedAccounts, 1)
			if err != nil {
				return err
			}
			err = SystemProgramAssign(keyedAccounts[0], assign.Owner)
		}

	case SystemProgramInstrTypeTransfer:
		{
			var transfer SystemInstrTransfer
			err = transfer.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = checkNumOfKeyedAccounts(keyedAccounts, 2)
			if err != nil {
				return err
			}
			err = SystemProgramTransfer(keyedAccounts[0], keyedAccounts[1], transfer.Lamports)
		}

	case SystemProgramInstrTypeAllocate:
		{
			var allocate SystemInstrAllocate
			err = allocate.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = checkNumOfKeyedAccounts(keyedAccounts, 1)
			if err != nil {
				return err
			}
			err = SystemProgramAllocate(keyedAccounts[0], allocate.Space)
		}

	default:
		klog.Errorf("system program: unsupported instruction type %d", instructionType)
		return InstrErrInvalidInstructionData
	}

	return err
}

func SystemProgramCreateAccount(from *KeyedAccount, to *KeyedAccount, lamports uint64, space uint64, owner solana.PublicKey) error {
	if to.Lamports() > 0 {
		klog.Errorf("CreateAccount: account %s already in use (non-zero lamports)", to.UnsignedKey())
		return SystemProgErrAccountAlreadyInUse
	}

	err := SystemProgramAllocate(to, space)
	if err != nil {
		return err
	}

	err = SystemProgramAssign(to, owner)
	if err != nil {
		return err
	}

	return SystemProgramTransfer(from, to, lamports)
}

func SystemProgramAllocate(acct *KeyedAccount, space uint64) error {
	if !acct.IsSigner() {
		klog.Errorf("Allocate: 'to' account %s must sign", acct.UnsignedKey())
		return InstrErrMissingRequiredSignature
	}

	if len(acct.Data()) != 0 || acct.Owner() != SystemProgramAddr {
		klog.Errorf("Allocate: account %s already in use", acct.UnsignedKey())
		return SystemProgErrAccountAlreadyInUse
	}

	if space > SystemProgMaxPermittedDataLen {
		klog.Errorf("Allocate: requested %d, max allowed %d", space, SystemProgMaxPermittedDataLen)
		return SystemProgErrInvalidAccountDataLength
	}

	acct.SetDataLength(space)
	return nil
}

func SystemProgramAssign(acct *KeyedAccount, owner solana.PublicKey) error {
	if acct.Owner() == owner {
		return nil
	}

	if !acct.IsSigner() {
		klog.Errorf("Assign: account %s must sign", acct.UnsignedKey())
		return InstrErrMissingRequiredSignature
	}

	acct.SetOwner(owner)
	return nil
}

func SystemProgramTransfer(from *KeyedAccount, to *KeyedAccount, lamports uint64) error {
	if !from.IsSigner() {
		klog.Errorf("Transfer: `from` account %s must sign", from.UnsignedKey())
		return InstrErrMissingRequiredSignature
	}

	if len(from.Data()) != 0 {
		klog.Errorf("Transfer: `from` must not carry data")
		return InstrErrInvalidArgument
	}

	if lamports > from.Lamports() {
		klog.Errorf("Transfer: insufficient lamports %d, need %d", from.Lamports(), lamports)
		return SystemProgErrResultWithNegativeLamports
	}

	err := from.CheckedSubLamports(lamports)
	if err != nil {
		return err
	}

	return to.CheckedAddLamports(lamports)
}
