package sealevel

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"
)

// ProgramError is the error type returned by processing functions. Builtin
// errors live in the upper 32 bits; any value that fits in the lower 32 bits
// is a program-defined custom code.
type ProgramError uint64

const builtinBitShift = 32

const (
	ProgramErrCustomZero                ProgramError = 1 << builtinBitShift
	ProgramErrInvalidArgument           ProgramError = 2 << builtinBitShift
	ProgramErrInvalidInstructionData    ProgramError = 3 << builtinBitShift
	ProgramErrInvalidAccountData        ProgramError = 4 << builtinBitShift
	ProgramErrAccountDataTooSmall       ProgramError = 5 << builtinBitShift
	ProgramErrInsufficientFunds         ProgramError = 6 << builtinBitShift
	ProgramErrIncorrectProgramId        ProgramError = 7 << builtinBitShift
	ProgramErrMissingRequiredSignatures ProgramError = 8 << builtinBitShift
	ProgramErrAccountAlreadyInitialized ProgramError = 9 << builtinBitShift
	ProgramErrUninitializedAccount      ProgramError = 10 << builtinBitShift
	ProgramErrNotEnoughAccountKeys      ProgramError = 11 << builtinBitShift
	ProgramErrAccountBorrowFailed       ProgramError = 12 << builtinBitShift
	ProgramErrMaxSeedLengthExceeded     ProgramError = 13 << builtinBitShift
	ProgramErrInvalidSeeds              ProgramError = 14 << builtinBitShift
	ProgramErrBorshIoError              ProgramError = 15 << builtinBitShift
	ProgramErrAccountNotRentExempt      ProgramError = 16 << builtinBitShift
	ProgramErrUnsupportedSysvar         ProgramError = 17 << builtinBitShift
	ProgramErrIllegalOwner              ProgramError = 18 << builtinBitShift
	ProgramErrInvalidRealloc            ProgramError = 20 << builtinBitShift
	ProgramErrInvalidAccountOwner       ProgramError = 23 << builtinBitShift
	ProgramErrArithmeticOverflow        ProgramError = 24 << builtinBitShift
)

var programErrNames = map[ProgramError]string{
	ProgramErrCustomZero:                "Custom(0)",
	ProgramErrInvalidArgument:           "InvalidArgument",
	ProgramErrInvalidInstructionData:    "InvalidInstructionData",
	ProgramErrInvalidAccountData:        "InvalidAccountData",
	ProgramErrAccountDataTooSmall:       "AccountDataTooSmall",
	ProgramErrInsufficientFunds:         "InsufficientFunds",
	ProgramErrIncorrectProgramId:        "IncorrectProgramId",
	ProgramErrMissingRequiredSignatures: "MissingRequiredSignatures",
	ProgramErrAccountAlreadyInitialized: "AccountAlreadyInitialized",
	ProgramErrUninitializedAccount:      "UninitializedAccount",
	ProgramErrNotEnoughAccountKeys:      "NotEnoughAccountKeys",
	ProgramErrAccountBorrowFailed:       "AccountBorrowFailed",
	ProgramErrMaxSeedLengthExceeded:     "MaxSeedLengthExceeded",
	ProgramErrInvalidSeeds:              "InvalidSeeds",
	ProgramErrBorshIoError:              "BorshIoError",
	ProgramErrAccountNotRentExempt:      "AccountNotRentExempt",
	ProgramErrUnsupportedSysvar:         "UnsupportedSysvar",
	ProgramErrIllegalOwner:              "IllegalOwner",
	ProgramErrInvalidRealloc:            "InvalidRealloc",
	ProgramErrInvalidAccountOwner:       "InvalidAccountOwner",
	ProgramErrArithmeticOverflow:        "ArithmeticOverflow",
}

var programErrToInstrErr = map[ProgramError]error{
	ProgramErrInvalidArgument:           InstrErrInvalidArgument,
	ProgramErrInvalidInstructionData:    InstrErrInvalidInstructionData,
	ProgramErrInvalidAccountData:        InstrErrInvalidAccountData,
	ProgramErrAccountDataTooSmall:       InstrErrAccountDataTooSmall,
	ProgramErrInsufficientFunds:         InstrErrInsufficientFunds,
	ProgramErrIncorrectProgramId:        InstrErrIncorrectProgramId,
	ProgramErrMissingRequiredSignatures: InstrErrMissingRequiredSignature,
	ProgramErrAccountAlreadyInitialized: InstrErrAccountAlreadyInitialized,
	ProgramErrUninitializedAccount:      InstrErrUninitializedAccount,
	ProgramErrNotEnoughAccountKeys:      InstrErrNotEnoughAccountKeys,
	ProgramErrAccountBorrowFailed:       InstrErrAccountBorrowFailed,
	ProgramErrMaxSeedLengthExceeded:     InstrErrMaxSeedLengthExceeded,
	ProgramErrInvalidSeeds:              InstrErrInvalidSeeds,
	ProgramErrBorshIoError:              InstrErrBorshIoError,
	ProgramErrAccountNotRentExempt:      InstrErrAccountNotRentExempt,
	ProgramErrUnsupportedSysvar:         InstrErrUnsupportedSysvar,
	ProgramErrIllegalOwner:              InstrErrIllegalOwner,
	ProgramErrInvalidRealloc:            InstrErrInvalidRealloc,
	ProgramErrInvalidAccountOwner:       InstrErrInvalidAccountOwner,
	ProgramErrArithmeticOverflow:        InstrErrArithmeticOverflow,
}

// CustomError returns the program error for a program-defined code. Code zero
// cannot be represented directly and uses the dedicated builtin value.
func CustomError(code uint32) ProgramError {
	if code == 0 {
		return ProgramErrCustomZero
	}
	return ProgramError(code)
}

func (e ProgramError) Error() string {
	if e == 0 {
		return "ProgramErrSuccess"
	}
	if name, ok := programErrNames[e]; ok {
		return "ProgramErr" + name
	}
	if uint64(e)>>builtinBitShift == 0 {
		return fmt.Sprintf("ProgramErrCustom(%d)", uint64(e))
	}
	return fmt.Sprintf("ProgramErrUnknown(%#x)", uint64(e))
}

// InstructionErrorFromProgramError converts the error returned by a processing
// function into an instruction error, the way the runtime converts a program's
// u64 return value. Instruction errors pass through unchanged.
func InstructionErrorFromProgramError(err error) error {
	if err == nil {
		return nil
	}

	var programErr ProgramError
	if errors.As(err, &programErr) {
		// zero is the success value, never an error; custom code 0 is CustomError(0)
		if programErr == 0 {
			klog.Errorf("program returned success value 0 as an error")
			return InstrErrInvalidError
		}
		if programErr == ProgramErrCustomZero {
			return &InstrErrCustom{Code: 0}
		}
		if instrErr, ok := programErrToInstrErr[programErr]; ok {
			return instrErr
		}
		if uint64(programErr)>>builtinBitShift == 0 {
			return &InstrErrCustom{Code: uint32(programErr)}
		}
		klog.Errorf("unrecognised builtin program error %#x", uint64(programErr))
		return InstrErrInvalidError
	}

	if IsInstructionError(err) {
		return err
	}

	return fmt.Errorf("%w: %s", InstrErrGenericError, err)
}
