package sealevel

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/cu"
	"k8s.io/klog/v2"
)

// Msg records a program log line on the active invocation.
func Msg(message string) {
	line := "Program log: " + message
	err := WithInvokeContext(func(invokeCtx InvokeContext) error {
		if meter := invokeCtx.Meter(); meter != nil {
			err := meter.Consume(CULogUnits)
			if err != nil {
				return err
			}
		}
		if log := invokeCtx.Logger(); log != nil {
			log.Log(line)
		}
		return nil
	})
	// out of compute: the line is dropped and the invocation fails on return
	if errors.Is(err, ErrNoInvokeContext) {
		klog.Infof("%s", line)
	}
}

func Msgf(format string, args ...any) {
	Msg(fmt.Sprintf(format, args...))
}

// GetRent returns the rent parameters of the active invocation.
func GetRent() (SysvarRent, error) {
	var rent SysvarRent
	err := WithInvokeContext(func(invokeCtx InvokeContext) error {
		rent = invokeCtx.RentSysvar()
		return nil
	})
	if err != nil {
		return SysvarRent{}, ProgramErrUnsupportedSysvar
	}
	return rent, nil
}

// ConsumeComputeUnits charges units against the active invocation's meter.
func ConsumeComputeUnits(units uint64) error {
	return WithInvokeContext(func(invokeCtx InvokeContext) error {
		meter := invokeCtx.Meter()
		if meter == nil {
			return nil
		}
		if err := meter.Consume(units); err != nil {
			if errors.Is(err, cu.ErrComputeExceeded) {
				return InstrErrComputationalBudgetExceeded
			}
			return err
		}
		return nil
	})
}

// CurrentProgramId returns the program id of the active invocation.
func CurrentProgramId() (solana.PublicKey, error) {
	var programId solana.PublicKey
	err := WithInvokeContext(func(invokeCtx InvokeContext) error {
		programId = invokeCtx.CurrentProgramId()
		return nil
	})
	return programId, err
}
