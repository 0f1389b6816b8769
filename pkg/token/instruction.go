package token

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/sealevel"
)

var ProgramID = solana.TokenProgramID

const (
	InstrTypeInitializeMint    = 0
	InstrTypeInitializeAccount = 1
	InstrTypeTransfer          = 3
	InstrTypeMintTo            = 7
)

type InstrInitializeMint struct {
	Decimals        uint8
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

type InstrAmount struct {
	Amount uint64
}

func (instr *InstrInitializeMint) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.Decimals, err = decoder.ReadUint8()
	if err != nil {
		return err
	}

	instr.MintAuthority, err = readPubkey(decoder)
	if err != nil {
		return err
	}

	// instruction options use a one byte tag, and the value is omitted when absent
	tag, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		instr.FreezeAuthority = nil
	case 1:
		pk, err := readPubkey(decoder)
		if err != nil {
			return err
		}
		instr.FreezeAuthority = &pk
	default:
		return sealevel.ProgramErrInvalidInstructionData
	}

	return nil
}

func (instr *InstrInitializeMint) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint8(InstrTypeInitializeMint)
	if err != nil {
		return err
	}

	err = encoder.WriteUint8(instr.Decimals)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(instr.MintAuthority[:], false)
	if err != nil {
		return err
	}

	if instr.FreezeAuthority == nil {
		return encoder.WriteUint8(0)
	}
	err = encoder.WriteUint8(1)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(instr.FreezeAuthority[:], false)
}

func (instr *InstrAmount) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	instr.Amount, err = decoder.ReadUint64(bin.LE)
	return err
}

func encodeInstruction(f func(encoder *bin.Encoder) error) []byte {
	buf := new(bytes.Buffer)
	err := f(bin.NewBinEncoder(buf))
	if err != nil {
		panic("shouldn't fail")
	}
	return buf.Bytes()
}

func encodeAmountInstruction(instrType uint8, amount uint64) []byte {
	return encodeInstruction(func(encoder *bin.Encoder) error {
		err := encoder.WriteUint8(instrType)
		if err != nil {
			return err
		}
		return encoder.WriteUint64(amount, bin.LE)
	})
}

// NewInitializeMintInstruction initializes mint. Accounts:
//  0. [writable] the mint
//  1. [] the rent sysvar
func NewInitializeMintInstruction(mint solana.PublicKey, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey, decimals uint8) *solana.GenericInstruction {
	instr := &InstrInitializeMint{Decimals: decimals, MintAuthority: mintAuthority, FreezeAuthority: freezeAuthority}
	data := encodeInstruction(instr.MarshalWithEncoder)

	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(mint, true, false),
		solana.NewAccountMeta(sealevel.SysvarRentAddr, false, false),
	}, data)
}

// NewInitializeAccountInstruction initializes a token account. Accounts:
//  0. [writable] the account
//  1. [] the mint
//  2. [] the account owner
//  3. [] the rent sysvar
func NewInitializeAccountInstruction(account solana.PublicKey, mint solana.PublicKey, owner solana.PublicKey) *solana.GenericInstruction {
	data := encodeInstruction(func(encoder *bin.Encoder) error {
		return encoder.WriteUint8(InstrTypeInitializeAccount)
	})

	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(account, true, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(owner, false, false),
		solana.NewAccountMeta(sealevel.SysvarRentAddr, false, false),
	}, data)
}

// NewMintToInstruction mints amount new tokens. Accounts:
//  0. [writable] the mint
//  1. [writable] the destination token account
//  2. [signer] the mint authority
func NewMintToInstruction(mint solana.PublicKey, destination solana.PublicKey, mintAuthority solana.PublicKey, amount uint64) *solana.GenericInstruction {
	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(mint, true, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(mintAuthority, false, true),
	}, encodeAmountInstruction(InstrTypeMintTo, amount))
}

// NewTransferInstruction moves amount tokens between two accounts of one mint. Accounts:
//  0. [writable] the source token account
//  1. [writable] the destination token account
//  2. [signer] the source account owner
func NewTransferInstruction(source solana.PublicKey, destination solana.PublicKey, owner solana.PublicKey, amount uint64) *solana.GenericInstruction {
	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(source, true, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(owner, false, true),
	}, encodeAmountInstruction(InstrTypeTransfer, amount))
}
