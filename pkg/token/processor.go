package token

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/safemath"
	"go.firedancer.io/programtest/pkg/sealevel"
)

// Process is the token program's entrypoint. It only sees the account views
// handed to it, and reaches the runtime through the sealevel logging and
// sysvar helpers.
func Process(programId solana.PublicKey, accountInfos []*sealevel.AccountInfo, input []byte) error {
	decoder := bin.NewBinDecoder(input)

	instrType, err := decoder.ReadUint8()
	if err != nil {
		return sealevel.ProgramErrInvalidInstructionData
	}

	switch instrType {
	case InstrTypeInitializeMint:
		var instr InstrInitializeMint
		err = instr.UnmarshalWithDecoder(decoder)
		if err != nil {
			return sealevel.ProgramErrInvalidInstructionData
		}
		sealevel.Msg("Instruction: InitializeMint")
		return processInitializeMint(accountInfos, &instr)

	case InstrTypeInitializeAccount:
		sealevel.Msg("Instruction: InitializeAccount")
		return processInitializeAccount(programId, accountInfos)

	case InstrTypeTransfer:
		var instr InstrAmount
		err = instr.UnmarshalWithDecoder(decoder)
		if err != nil {
			return sealevel.ProgramErrInvalidInstructionData
		}
		sealevel.Msg("Instruction: Transfer")
		return processTransfer(programId, accountInfos, instr.Amount)

	case InstrTypeMintTo:
		var instr InstrAmount
		err = instr.UnmarshalWithDecoder(decoder)
		if err != nil {
			return sealevel.ProgramErrInvalidInstructionData
		}
		sealevel.Msg("Instruction: MintTo")
		return processMintTo(programId, accountInfos, instr.Amount)

	default:
		return sealevel.ProgramErrInvalidInstructionData
	}
}

func checkNumAccounts(accountInfos []*sealevel.AccountInfo, num int) error {
	if len(accountInfos) < num {
		return sealevel.ProgramErrNotEnoughAccountKeys
	}
	return nil
}

func rentFromSysvarAccount(info *sealevel.AccountInfo) (sealevel.SysvarRent, error) {
	if info.Key != sealevel.SysvarRentAddr {
		return sealevel.SysvarRent{}, sealevel.ProgramErrInvalidArgument
	}
	return sealevel.GetRent()
}

func processInitializeMint(accountInfos []*sealevel.AccountInfo, instr *InstrInitializeMint) error {
	err := checkNumAccounts(accountInfos, 2)
	if err != nil {
		return err
	}
	mintInfo := accountInfos[0]

	rent, err := rentFromSysvarAccount(accountInfos[1])
	if err != nil {
		return err
	}

	mint, err := unpackMintUnchecked(mintInfo.Data.Bytes())
	if err != nil {
		return err
	}
	if mint.IsInitialized {
		return ErrAlreadyInUse
	}

	if !rent.IsExempt(mintInfo.Lamports.Get(), uint64(mintInfo.Data.Len())) {
		return ErrNotRentExempt
	}

	mintAuthority := instr.MintAuthority
	mint.MintAuthority = &mintAuthority
	mint.Decimals = instr.Decimals
	mint.IsInitialized = true
	mint.FreezeAuthority = instr.FreezeAuthority

	mintInfo.Data.Set(mint.Pack())
	return nil
}

func processInitializeAccount(programId solana.PublicKey, accountInfos []*sealevel.AccountInfo) error {
	err := checkNumAccounts(accountInfos, 4)
	if err != nil {
		return err
	}
	newAccountInfo := accountInfos[0]
	mintInfo := accountInfos[1]
	ownerInfo := accountInfos[2]

	rent, err := rentFromSysvarAccount(accountInfos[3])
	if err != nil {
		return err
	}

	acct, err := unpackAccountUnchecked(newAccountInfo.Data.Bytes())
	if err != nil {
		return err
	}
	if acct.State != AccountStateUninitialized {
		return ErrAlreadyInUse
	}

	if !rent.IsExempt(newAccountInfo.Lamports.Get(), uint64(newAccountInfo.Data.Len())) {
		return ErrNotRentExempt
	}

	if !mintInfo.IsOwnedBy(programId) {
		return sealevel.ProgramErrIncorrectProgramId
	}
	if _, err := UnpackMint(mintInfo.Data.Bytes()); err != nil {
		return ErrInvalidMint
	}

	acct.Mint = mintInfo.Key
	acct.Owner = ownerInfo.Key
	acct.Delegate = nil
	acct.DelegatedAmount = 0
	acct.State = AccountStateInitialized

	newAccountInfo.Data.Set(acct.Pack())
	return nil
}

func validateOwner(expected solana.PublicKey, ownerInfo *sealevel.AccountInfo) error {
	if expected != ownerInfo.Key {
		return ErrOwnerMismatch
	}
	if !ownerInfo.IsSigner {
		return sealevel.ProgramErrMissingRequiredSignatures
	}
	return nil
}

func processMintTo(programId solana.PublicKey, accountInfos []*sealevel.AccountInfo, amount uint64) error {
	err := checkNumAccounts(accountInfos, 3)
	if err != nil {
		return err
	}
	mintInfo := accountInfos[0]
	destInfo := accountInfos[1]
	ownerInfo := accountInfos[2]

	if !destInfo.IsOwnedBy(programId) || !mintInfo.IsOwnedBy(programId) {
		return sealevel.ProgramErrIncorrectProgramId
	}

	dest, err := UnpackAccount(destInfo.Data.Bytes())
	if err != nil {
		return err
	}
	if dest.IsFrozen() {
		return ErrAccountFrozen
	}
	if dest.Mint != mintInfo.Key {
		return ErrMintMismatch
	}

	mint, err := UnpackMint(mintInfo.Data.Bytes())
	if err != nil {
		return err
	}
	if mint.MintAuthority == nil {
		return ErrFixedSupply
	}
	err = validateOwner(*mint.MintAuthority, ownerInfo)
	if err != nil {
		return err
	}

	dest.Amount, err = safemath.CheckedAddU64(dest.Amount, amount)
	if err != nil {
		return ErrOverflow
	}
	mint.Supply, err = safemath.CheckedAddU64(mint.Supply, amount)
	if err != nil {
		return ErrOverflow
	}

	destInfo.Data.Set(dest.Pack())
	mintInfo.Data.Set(mint.Pack())
	sealevel.Msgf("minted %d to %s", amount, destInfo.Key)
	return nil
}

func processTransfer(programId solana.PublicKey, accountInfos []*sealevel.AccountInfo, amount uint64) error {
	err := checkNumAccounts(accountInfos, 3)
	if err != nil {
		return err
	}
	sourceInfo := accountInfos[0]
	destInfo := accountInfos[1]
	ownerInfo := accountInfos[2]

	if !sourceInfo.IsOwnedBy(programId) || !destInfo.IsOwnedBy(programId) {
		return sealevel.ProgramErrIncorrectProgramId
	}

	source, err := UnpackAccount(sourceInfo.Data.Bytes())
	if err != nil {
		return err
	}
	dest, err := UnpackAccount(destInfo.Data.Bytes())
	if err != nil {
		return err
	}

	if source.IsFrozen() || dest.IsFrozen() {
		return ErrAccountFrozen
	}
	if source.Amount < amount {
		return ErrInsufficientFunds
	}
	if source.Mint != dest.Mint {
		return ErrMintMismatch
	}

	err = validateOwner(source.Owner, ownerInfo)
	if err != nil {
		return err
	}

	// self transfers leave the balance unchanged
	if sourceInfo.Key == destInfo.Key {
		return nil
	}

	source.Amount -= amount
	dest.Amount, err = safemath.CheckedAddU64(dest.Amount, amount)
	if err != nil {
		return ErrOverflow
	}

	sourceInfo.Data.Set(source.Pack())
	destInfo.Data.Set(dest.Pack())
	return nil
}
