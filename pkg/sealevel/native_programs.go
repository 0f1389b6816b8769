package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/base58"
)

const SystemProgramAddrStr = "11111111111111111111111111111111"

var SystemProgramAddr = solana.PublicKey(base58.MustDecodeFromString(SystemProgramAddrStr))

const NativeLoaderAddrStr = "NativeLoader1111111111111111111111111111111"

var NativeLoaderAddr = solana.PublicKey(base58.MustDecodeFromString(NativeLoaderAddrStr))

const SysvarOwnerAddrStr = "Sysvar1111111111111111111111111111111111111"

var SysvarOwnerAddr = solana.PublicKey(base58.MustDecodeFromString(SysvarOwnerAddrStr))

// IsSysvar reports whether key is a sysvar the simulated runtime serves.
// Sysvar accounts are never writable by an instruction.
func IsSysvar(key solana.PublicKey) bool {
	return key == SysvarRentAddr
}
