package sealevel

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithInvokeContext_NoContext(t *testing.T) {
	called := false
	err := WithInvokeContext(func(invokeCtx InvokeContext) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNoInvokeContext)
	assert.False(t, called)
}

func TestCaptureInvokeContext_ReleaseRestoresPrevious(t *testing.T) {
	outerId := solana.NewWallet().PublicKey()
	innerId := solana.NewWallet().PublicKey()
	outer, _ := newTestExecCtx(outerId, nil, 1000)
	inner, _ := newTestExecCtx(innerId, nil, 1000)

	releaseOuter := CaptureInvokeContext(outer)
	programId, err := CurrentProgramId()
	require.NoError(t, err)
	assert.Equal(t, outerId, programId)

	releaseInner := CaptureInvokeContext(inner)
	programId, err = CurrentProgramId()
	require.NoError(t, err)
	assert.Equal(t, innerId, programId)

	releaseInner()
	programId, err = CurrentProgramId()
	require.NoError(t, err)
	assert.Equal(t, outerId, programId)

	releaseOuter()
	_, err = CurrentProgramId()
	assert.ErrorIs(t, err, ErrNoInvokeContext)
}

func TestMsg_RecordsOnActiveContext(t *testing.T) {
	execCtx, logs := newTestExecCtx(solana.NewWallet().PublicKey(), nil, 1000)

	release := CaptureInvokeContext(execCtx)
	Msg("hello")
	Msgf("balance %d", 42)
	release()

	// no active context, goes to klog only
	Msg("dropped")

	assert.Equal(t, []string{"Program log: hello", "Program log: balance 42"}, logs.Logs)
	assert.Equal(t, uint64(2*CULogUnits), execCtx.ComputeMeter.Used())
}

func TestGetRent(t *testing.T) {
	_, err := GetRent()
	assert.ErrorIs(t, err, ProgramErrUnsupportedSysvar)

	execCtx, _ := newTestExecCtx(solana.NewWallet().PublicKey(), nil, 1000)
	execCtx.Rent = SysvarRent{LamportsPerUint8Year: 1, ExemptionThreshold: 1, BurnPercent: 0}

	release := CaptureInvokeContext(execCtx)
	defer release()

	rent, err := GetRent()
	require.NoError(t, err)
	assert.Equal(t, execCtx.Rent, rent)
}

func TestConsumeComputeUnits(t *testing.T) {
	assert.ErrorIs(t, ConsumeComputeUnits(1), ErrNoInvokeContext)

	execCtx, _ := newTestExecCtx(solana.NewWallet().PublicKey(), nil, 1000)
	release := CaptureInvokeContext(execCtx)
	defer release()

	require.NoError(t, ConsumeComputeUnits(600))
	assert.Equal(t, uint64(400), execCtx.ComputeMeter.Remaining())

	assert.ErrorIs(t, ConsumeComputeUnits(401), InstrErrComputationalBudgetExceeded)
	assert.True(t, execCtx.ComputeMeter.Exceeded())
}

func TestMsg_OutOfComputeDropsLine(t *testing.T) {
	execCtx, logs := newTestExecCtx(solana.NewWallet().PublicKey(), nil, CULogUnits+50)

	release := CaptureInvokeContext(execCtx)
	defer release()

	Msg("fits")
	Msg("too late")
	Msg("still too late")

	assert.Equal(t, []string{"Program log: fits"}, logs.Logs)
	assert.True(t, execCtx.ComputeMeter.Exceeded())
	assert.Zero(t, execCtx.ComputeMeter.Remaining())
}
