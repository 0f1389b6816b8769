package token

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/sealevel"
)

const (
	MintLen    = 82
	AccountLen = 165
)

type AccountState uint8

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

type Mint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

type Account struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        *solana.PublicKey
	State           AccountState
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  *solana.PublicKey
}

func readPubkey(decoder *bin.Decoder) (solana.PublicKey, error) {
	b, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

// optional values are a u32 tag followed by the value, which is present even
// when the tag is zero
func readOptionalPubkey(decoder *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	pk, err := readPubkey(decoder)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		return &pk, nil
	default:
		return nil, fmt.Errorf("invalid option tag %d", tag)
	}
}

func readOptionalU64(decoder *bin.Decoder) (*uint64, error) {
	tag, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	v, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		return &v, nil
	default:
		return nil, fmt.Errorf("invalid option tag %d", tag)
	}
}

func writeOptionalPubkey(encoder *bin.Encoder, pk *solana.PublicKey) error {
	var tag uint32
	var value solana.PublicKey
	if pk != nil {
		tag = 1
		value = *pk
	}
	err := encoder.WriteUint32(tag, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(value[:], false)
}

func (m *Mint) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	m.MintAuthority, err = readOptionalPubkey(decoder)
	if err != nil {
		return fmt.Errorf("failed to read MintAuthority when decoding Mint: %w", err)
	}

	m.Supply, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Supply when decoding Mint: %w", err)
	}

	m.Decimals, err = decoder.ReadUint8()
	if err != nil {
		return fmt.Errorf("failed to read Decimals when decoding Mint: %w", err)
	}

	m.IsInitialized, err = decoder.ReadBool()
	if err != nil {
		return fmt.Errorf("failed to read IsInitialized when decoding Mint: %w", err)
	}

	m.FreezeAuthority, err = readOptionalPubkey(decoder)
	if err != nil {
		return fmt.Errorf("failed to read FreezeAuthority when decoding Mint: %w", err)
	}

	return nil
}

func (m *Mint) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := writeOptionalPubkey(encoder, m.MintAuthority)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(m.Supply, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint8(m.Decimals)
	if err != nil {
		return err
	}

	err = encoder.WriteBool(m.IsInitialized)
	if err != nil {
		return err
	}

	return writeOptionalPubkey(encoder, m.FreezeAuthority)
}

func (m *Mint) Pack() []byte {
	buf := new(bytes.Buffer)
	err := m.MarshalWithEncoder(bin.NewBinEncoder(buf))
	if err != nil {
		panic("shouldn't fail")
	}
	return buf.Bytes()
}

func (a *Account) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	a.Mint, err = readPubkey(decoder)
	if err != nil {
		return fmt.Errorf("failed to read Mint when decoding Account: %w", err)
	}

	a.Owner, err = readPubkey(decoder)
	if err != nil {
		return fmt.Errorf("failed to read Owner when decoding Account: %w", err)
	}

	a.Amount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Amount when decoding Account: %w", err)
	}

	a.Delegate, err = readOptionalPubkey(decoder)
	if err != nil {
		return fmt.Errorf("failed to read Delegate when decoding Account: %w", err)
	}

	state, err := decoder.ReadUint8()
	if err != nil {
		return fmt.Errorf("failed to read State when decoding Account: %w", err)
	}
	if state > uint8(AccountStateFrozen) {
		return fmt.Errorf("invalid account state %d", state)
	}
	a.State = AccountState(state)

	a.IsNative, err = readOptionalU64(decoder)
	if err != nil {
		return fmt.Errorf("failed to read IsNative when decoding Account: %w", err)
	}

	a.DelegatedAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read DelegatedAmount when decoding Account: %w", err)
	}

	a.CloseAuthority, err = readOptionalPubkey(decoder)
	if err != nil {
		return fmt.Errorf("failed to read CloseAuthority when decoding Account: %w", err)
	}

	return nil
}

func (a *Account) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(a.Mint[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(a.Owner[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(a.Amount, bin.LE)
	if err != nil {
		return err
	}

	err = writeOptionalPubkey(encoder, a.Delegate)
	if err != nil {
		return err
	}

	err = encoder.WriteUint8(uint8(a.State))
	if err != nil {
		return err
	}

	var isNativeTag uint32
	var isNative uint64
	if a.IsNative != nil {
		isNativeTag = 1
		isNative = *a.IsNative
	}
	err = encoder.WriteUint32(isNativeTag, bin.LE)
	if err != nil {
		return err
	}
	err = encoder.WriteUint64(isNative, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(a.DelegatedAmount, bin.LE)
	if err != nil {
		return err
	}

	return writeOptionalPubkey(encoder, a.CloseAuthority)
}

func (a *Account) Pack() []byte {
	buf := new(bytes.Buffer)
	err := a.MarshalWithEncoder(bin.NewBinEncoder(buf))
	if err != nil {
		panic("shouldn't fail")
	}
	return buf.Bytes()
}

func (a *Account) IsFrozen() bool {
	return a.State == AccountStateFrozen
}

// UnpackMint decodes an initialized mint. Malformed data yields
// ProgramErrInvalidAccountData, an uninitialized mint
// ProgramErrUninitializedAccount.
func UnpackMint(data []byte) (*Mint, error) {
	mint, err := unpackMintUnchecked(data)
	if err != nil {
		return nil, err
	}
	if !mint.IsInitialized {
		return nil, sealevel.ProgramErrUninitializedAccount
	}
	return mint, nil
}

func unpackMintUnchecked(data []byte) (*Mint, error) {
	if len(data) != MintLen {
		return nil, sealevel.ProgramErrInvalidAccountData
	}
	var mint Mint
	err := mint.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, sealevel.ProgramErrInvalidAccountData
	}
	return &mint, nil
}

// UnpackAccount decodes an initialized token account.
func UnpackAccount(data []byte) (*Account, error) {
	acct, err := unpackAccountUnchecked(data)
	if err != nil {
		return nil, err
	}
	if acct.State == AccountStateUninitialized {
		return nil, sealevel.ProgramErrUninitializedAccount
	}
	return acct, nil
}

func unpackAccountUnchecked(data []byte) (*Account, error) {
	if len(data) != AccountLen {
		return nil, sealevel.ProgramErrInvalidAccountData
	}
	var acct Account
	err := acct.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, sealevel.ProgramErrInvalidAccountData
	}
	return &acct, nil
}
