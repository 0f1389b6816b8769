package sealevel

import (
	"errors"
	"fmt"
)

// instruction errors
var (
	InstrErrGenericError                = errors.New("InstrErrGenericError")
	InstrErrInvalidArgument             = errors.New("InstrErrInvalidArgument")
	InstrErrInvalidInstructionData      = errors.New("InstrErrInvalidInstructionData")
	InstrErrInvalidAccountData          = errors.New("InstrErrInvalidAccountData")
	InstrErrAccountDataTooSmall         = errors.New("InstrErrAccountDataTooSmall")
	InstrErrInsufficientFunds           = errors.New("InstrErrInsufficientFunds")
	InstrErrIncorrectProgramId          = errors.New("InstrErrIncorrectProgramId")
	InstrErrMissingRequiredSignature    = errors.New("InstrErrMissingRequiredSignature")
	InstrErrAccountAlreadyInitialized   = errors.New("InstrErrAccountAlreadyInitialized")
	InstrErrUninitializedAccount        = errors.New("InstrErrUninitializedAccount")
	InstrErrUnbalancedInstruction       = errors.New("InstrErrUnbalancedInstruction")
	InstrErrModifiedProgramId           = errors.New("InstrErrModifiedProgramId")
	InstrErrExternalAccountLamportSpend = errors.New("InstrErrExternalAccountLamportSpend")
	InstrErrExternalAccountDataModified = errors.New("InstrErrExternalAccountDataModified")
	InstrErrReadonlyLamportChange       = errors.New("InstrErrReadonlyLamportChange")
	InstrErrReadonlyDataModified        = errors.New("InstrErrReadonlyDataModified")
	InstrErrExecutableModified          = errors.New("InstrErrExecutableModified")
	InstrErrRentEpochModified           = errors.New("InstrErrRentEpochModified")
	InstrErrNotEnoughAccountKeys        = errors.New("InstrErrNotEnoughAccountKeys")
	InstrErrAccountBorrowFailed         = errors.New("InstrErrAccountBorrowFailed")
	InstrErrInvalidError                = errors.New("InstrErrInvalidError")
	InstrErrExecutableDataModified      = errors.New("InstrErrExecutableDataModified")
	InstrErrExecutableLamportChange     = errors.New("InstrErrExecutableLamportChange")
	InstrErrUnsupportedProgramId        = errors.New("InstrErrUnsupportedProgramId")
	InstrErrMissingAccount              = errors.New("InstrErrMissingAccount")
	InstrErrMaxSeedLengthExceeded       = errors.New("InstrErrMaxSeedLengthExceeded")
	InstrErrInvalidSeeds                = errors.New("InstrErrInvalidSeeds")
	InstrErrInvalidRealloc              = errors.New("InstrErrInvalidRealloc")
	InstrErrComputationalBudgetExceeded = errors.New("InstrErrComputationalBudgetExceeded")
	InstrErrBorshIoError                = errors.New("InstrErrBorshIoError")
	InstrErrAccountNotRentExempt        = errors.New("InstrErrAccountNotRentExempt")
	InstrErrInvalidAccountOwner         = errors.New("InstrErrInvalidAccountOwner")
	InstrErrArithmeticOverflow          = errors.New("InstrErrArithmeticOverflow")
	InstrErrUnsupportedSysvar           = errors.New("InstrErrUnsupportedSysvar")
	InstrErrIllegalOwner                = errors.New("InstrErrIllegalOwner")
)

// InstrErrCustom is a program-defined error code.
type InstrErrCustom struct {
	Code uint32
}

func (e *InstrErrCustom) Error() string {
	return fmt.Sprintf("InstrErrCustom(%d)", e.Code)
}

func (e *InstrErrCustom) Is(target error) bool {
	t, ok := target.(*InstrErrCustom)
	return ok && t.Code == e.Code
}

// instruction errors - Solana numerical error codes (offset by one, zero is success)
const (
	InstrErrCodeSuccess                     = 0
	InstrErrCodeGenericError                = 1
	InstrErrCodeInvalidArgument             = 2
	InstrErrCodeInvalidInstructionData      = 3
	InstrErrCodeInvalidAccountData          = 4
	InstrErrCodeAccountDataTooSmall         = 5
	InstrErrCodeInsufficientFunds           = 6
	InstrErrCodeIncorrectProgramId          = 7
	InstrErrCodeMissingRequiredSignature    = 8
	InstrErrCodeAccountAlreadyInitialized   = 9
	InstrErrCodeUninitializedAccount        = 10
	InstrErrCodeUnbalancedInstruction       = 11
	InstrErrCodeModifiedProgramId           = 12
	InstrErrCodeExternalAccountLamportSpend = 13
	InstrErrCodeExternalAccountDataModified = 14
	InstrErrCodeReadonlyLamportChange       = 15
	InstrErrCodeReadonlyDataModified        = 16
	InstrErrCodeExecutableModified          = 18
	InstrErrCodeRentEpochModified           = 19
	InstrErrCodeNotEnoughAccountKeys        = 20
	InstrErrCodeAccountBorrowFailed         = 23
	InstrErrCodeCustom                      = 26
	InstrErrCodeInvalidError                = 27
	InstrErrCodeExecutableDataModified      = 28
	InstrErrCodeExecutableLamportChange     = 29
	InstrErrCodeUnsupportedProgramId        = 31
	InstrErrCodeMissingAccount              = 33
	InstrErrCodeMaxSeedLengthExceeded       = 35
	InstrErrCodeInvalidSeeds                = 36
	InstrErrCodeInvalidRealloc              = 37
	InstrErrCodeComputationalBudgetExceeded = 38
	InstrErrCodeBorshIoError                = 45
	InstrErrCodeAccountNotRentExempt        = 46
	InstrErrCodeInvalidAccountOwner         = 47
	InstrErrCodeArithmeticOverflow          = 48
	InstrErrCodeUnsupportedSysvar           = 49
	InstrErrCodeIllegalOwner                = 50
)

var instrErrCodes = []struct {
	err  error
	code int
}{
	{InstrErrGenericError, InstrErrCodeGenericError},
	{InstrErrInvalidArgument, InstrErrCodeInvalidArgument},
	{InstrErrInvalidInstructionData, InstrErrCodeInvalidInstructionData},
	{InstrErrInvalidAccountData, InstrErrCodeInvalidAccountData},
	{InstrErrAccountDataTooSmall, InstrErrCodeAccountDataTooSmall},
	{InstrErrInsufficientFunds, InstrErrCodeInsufficientFunds},
	{InstrErrIncorrectProgramId, InstrErrCodeIncorrectProgramId},
	{InstrErrMissingRequiredSignature, InstrErrCodeMissingRequiredSignature},
	{InstrErrAccountAlreadyInitialized, InstrErrCodeAccountAlreadyInitialized},
	{InstrErrUninitializedAccount, InstrErrCodeUninitializedAccount},
	{InstrErrUnbalancedInstruction, InstrErrCodeUnbalancedInstruction},
	{InstrErrModifiedProgramId, InstrErrCodeModifiedProgramId},
	{InstrErrExternalAccountLamportSpend, InstrErrCodeExternalAccountLamportSpend},
	{InstrErrExternalAccountDataModified, InstrErrCodeExternalAccountDataModified},
	{InstrErrReadonlyLamportChange, InstrErrCodeReadonlyLamportChange},
	{InstrErrReadonlyDataModified, InstrErrCodeReadonlyDataModified},
	{InstrErrExecutableModified, InstrErrCodeExecutableModified},
	{InstrErrRentEpochModified, InstrErrCodeRentEpochModified},
	{InstrErrNotEnoughAccountKeys, InstrErrCodeNotEnoughAccountKeys},
	{InstrErrAccountBorrowFailed, InstrErrCodeAccountBorrowFailed},
	{InstrErrInvalidError, InstrErrCodeInvalidError},
	{InstrErrExecutableDataModified, InstrErrCodeExecutableDataModified},
	{InstrErrExecutableLamportChange, InstrErrCodeExecutableLamportChange},
	{InstrErrUnsupportedProgramId, InstrErrCodeUnsupportedProgramId},
	{InstrErrMissingAccount, InstrErrCodeMissingAccount},
	{InstrErrMaxSeedLengthExceeded, InstrErrCodeMaxSeedLengthExceeded},
	{InstrErrInvalidSeeds, InstrErrCodeInvalidSeeds},
	{InstrErrInvalidRealloc, InstrErrCodeInvalidRealloc},
	{InstrErrComputationalBudgetExceeded, InstrErrCodeComputationalBudgetExceeded},
	{InstrErrBorshIoError, InstrErrCodeBorshIoError},
	{InstrErrAccountNotRentExempt, InstrErrCodeAccountNotRentExempt},
	{InstrErrInvalidAccountOwner, InstrErrCodeInvalidAccountOwner},
	{InstrErrArithmeticOverflow, InstrErrCodeArithmeticOverflow},
	{InstrErrUnsupportedSysvar, InstrErrCodeUnsupportedSysvar},
	{InstrErrIllegalOwner, InstrErrCodeIllegalOwner},
}

// IsInstructionError reports whether err is, or wraps, one of the instruction
// errors above or a custom program error code.
func IsInstructionError(err error) bool {
	var custom *InstrErrCustom
	if errors.As(err, &custom) {
		return true
	}
	for _, entry := range instrErrCodes {
		if errors.Is(err, entry.err) {
			return true
		}
	}
	return false
}

// TranslateErrToInstrErrCode maps an instruction error onto its numerical code.
// Errors from outside the instruction error set map to the generic error code.
func TranslateErrToInstrErrCode(err error) int {
	if err == nil {
		return InstrErrCodeSuccess
	}

	var custom *InstrErrCustom
	if errors.As(err, &custom) {
		return InstrErrCodeCustom
	}

	for _, entry := range instrErrCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return InstrErrCodeGenericError
}
