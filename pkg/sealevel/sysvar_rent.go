package sealevel

import (
	"bytes"
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/base58"
	"go.firedancer.io/programtest/pkg/safemath"
)

const SysvarRentAddrStr = "SysvarRent111111111111111111111111111111111"

var SysvarRentAddr = solana.PublicKey(base58.MustDecodeFromString(SysvarRentAddrStr))

const SysvarRentStructLen = 17

// AccountStorageOverhead is the per-account byte count charged on top of the
// account's data length.
const AccountStorageOverhead = 128

type SysvarRent struct {
	LamportsPerUint8Year uint64
	ExemptionThreshold   float64
	BurnPercent          byte
}

// DefaultRent matches the mainnet rent parameters.
var DefaultRent = SysvarRent{
	LamportsPerUint8Year: 3480,
	ExemptionThreshold:   2.0,
	BurnPercent:          50,
}

func (sr *SysvarRent) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	lamportsPerUint8Year, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LamportsPerUint8Year when decoding SysvarRent: %w", err)
	}
	sr.LamportsPerUint8Year = lamportsPerUint8Year

	exemptionThreshold, err := decoder.ReadFloat64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ExemptionThreshold when decoding SysvarRent: %w", err)
	}
	sr.ExemptionThreshold = exemptionThreshold

	burnPercent, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read BurnPercent when decoding SysvarRent: %w", err)
	}
	sr.BurnPercent = burnPercent

	return
}

func (sr *SysvarRent) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(sr.LamportsPerUint8Year, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteFloat64(sr.ExemptionThreshold, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteByte(sr.BurnPercent)
}

func (sr *SysvarRent) MustUnmarshalWithDecoder(decoder *bin.Decoder) {
	err := sr.UnmarshalWithDecoder(decoder)
	if err != nil {
		panic(err.Error())
	}
}

// MinimumBalance returns the lamports an account of dataLen bytes needs to be
// rent exempt. Balances past the u64 range saturate at math.MaxUint64.
func (sr *SysvarRent) MinimumBalance(dataLen uint64) uint64 {
	size := safemath.SaturatingAddU64(dataLen, AccountStorageOverhead)
	base, err := safemath.CheckedMulU64(size, sr.LamportsPerUint8Year)
	if err != nil {
		return math.MaxUint64
	}

	balance := math.Floor(float64(base) * sr.ExemptionThreshold)
	switch {
	case balance <= 0:
		return 0
	case balance >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(balance)
}

func (sr *SysvarRent) IsExempt(lamports uint64, dataLen uint64) bool {
	return lamports >= sr.MinimumBalance(dataLen)
}

// NewRentSysvarAccount serializes rent into a sysvar account funded to be
// rent exempt under its own parameters.
func NewRentSysvarAccount(rent SysvarRent) *accounts.Account {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	err := rent.MarshalWithEncoder(encoder)
	if err != nil {
		panic("shouldn't fail")
	}

	return &accounts.Account{
		Key:      SysvarRentAddr,
		Lamports: rent.MinimumBalance(SysvarRentStructLen),
		Data:     buf.Bytes(),
		Owner:    SysvarOwnerAddr,
	}
}

func ReadRentSysvar(accts accounts.Accounts) (SysvarRent, error) {
	rentAcct, err := accts.GetAccount((*[32]byte)(&SysvarRentAddr))
	if err != nil {
		return SysvarRent{}, fmt.Errorf("failed to read rent sysvar account: %w", err)
	}

	dec := bin.NewBinDecoder(rentAcct.Data)

	var rent SysvarRent
	err = rent.UnmarshalWithDecoder(dec)
	if err != nil {
		return SysvarRent{}, err
	}

	return rent, nil
}
