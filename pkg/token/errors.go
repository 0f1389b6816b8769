package token

import "go.firedancer.io/programtest/pkg/sealevel"

// token program errors, returned as custom program error codes
var (
	ErrNotRentExempt      = sealevel.CustomError(0)
	ErrInsufficientFunds  = sealevel.CustomError(1)
	ErrInvalidMint        = sealevel.CustomError(2)
	ErrMintMismatch       = sealevel.CustomError(3)
	ErrOwnerMismatch      = sealevel.CustomError(4)
	ErrFixedSupply        = sealevel.CustomError(5)
	ErrAlreadyInUse       = sealevel.CustomError(6)
	ErrOverflow           = sealevel.CustomError(14)
	ErrAccountFrozen      = sealevel.CustomError(17)
)
