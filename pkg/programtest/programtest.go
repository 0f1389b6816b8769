// Package programtest runs Go-native Solana programs inside a simulated bank,
// the way solana-program-test runs native builds of on-chain programs.
//
// Programs written against sealevel.ProcessInstruction are registered with
// AddProgram and execute through a sealevel.ProgramInvoker: their accounts
// are snapshotted, handed over as views and committed back only on success.
// The system and token programs are registered by default.
package programtest

import (
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/cu"
	"go.firedancer.io/programtest/pkg/sealevel"
	"go.firedancer.io/programtest/pkg/token"
	"k8s.io/klog/v2"
)

// DefaultPayerLamports funds the payer of a started ProgramTest.
const DefaultPayerLamports = 1_000_000 * solana.LAMPORTS_PER_SOL

type ProgramTest struct {
	accounts        accounts.MemAccounts
	builtins        map[solana.PublicKey]builtinEntry
	rent            sealevel.SysvarRent
	computeMaxUnits uint64
	registerer      prometheus.Registerer
}

func New() *ProgramTest {
	pt := &ProgramTest{
		accounts:        accounts.NewMemAccounts(),
		builtins:        make(map[solana.PublicKey]builtinEntry),
		rent:            sealevel.DefaultRent,
		computeMaxUnits: cu.DefaultComputeBudget,
	}
	pt.AddBuiltin("system_program", sealevel.SystemProgramAddr, sealevel.SystemProgramExecute)
	pt.AddProgram("spl_token", token.ProgramID, token.Process)
	return pt
}

// AddProgram registers a processing function. It runs through a
// ProgramInvoker and is charged the builtin default compute units.
func (pt *ProgramTest) AddProgram(name string, programId solana.PublicKey, process sealevel.ProcessInstruction) *ProgramTest {
	invoker := sealevel.NewProgramInvoker(process)
	pt.builtins[programId] = builtinEntry{name: name, process: invoker.Invoke, computeUnits: sealevel.CUBuiltinDefaultComputeUnits}
	return pt
}

// AddBuiltin registers a native program that works on the keyed accounts
// directly and meters itself.
func (pt *ProgramTest) AddBuiltin(name string, programId solana.PublicKey, process sealevel.BuiltinProgram) *ProgramTest {
	pt.builtins[programId] = builtinEntry{name: name, process: process}
	return pt
}

func (pt *ProgramTest) AddAccount(pubkey solana.PublicKey, acct *accounts.Account) *ProgramTest {
	err := pt.accounts.SetAccount((*[32]byte)(&pubkey), acct)
	if err != nil {
		panic(err.Error())
	}
	return pt
}

func (pt *ProgramTest) SetComputeMaxUnits(units uint64) *ProgramTest {
	pt.computeMaxUnits = units
	return pt
}

func (pt *ProgramTest) SetRent(rent sealevel.SysvarRent) *ProgramTest {
	pt.rent = rent
	return pt
}

// SetMetricsRegisterer chooses where the bank registers its counters. By
// default every started bank gets a private registry.
func (pt *ProgramTest) SetMetricsRegisterer(registerer prometheus.Registerer) *ProgramTest {
	pt.registerer = registerer
	return pt
}

// Start creates the bank with a funded payer and returns the test context.
func (pt *ProgramTest) Start() (*Context, error) {
	registerer := pt.registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}

	payer, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}

	accts := accounts.NewMemAccounts()
	pt.accounts.Range(func(acct *accounts.Account) bool {
		err = accts.SetAccount((*[32]byte)(&acct.Key), acct)
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	rentAcct := sealevel.NewRentSysvarAccount(pt.rent)
	err = accts.SetAccount((*[32]byte)(&sealevel.SysvarRentAddr), rentAcct)
	if err != nil {
		return nil, err
	}

	payerKey := payer.PublicKey()
	err = accts.SetAccount((*[32]byte)(&payerKey), &accounts.Account{Lamports: DefaultPayerLamports, Owner: sealevel.SystemProgramAddr})
	if err != nil {
		return nil, err
	}

	builtins := make(map[solana.PublicKey]builtinEntry, len(pt.builtins))
	for programId, builtin := range pt.builtins {
		builtins[programId] = builtin
		klog.V(2).Infof("registered builtin %s at %s", builtin.name, programId)
	}

	bank := newBank(accts, builtins, pt.rent, pt.computeMaxUnits, m)
	return &Context{
		BanksClient:   &BanksClient{bank: bank},
		Payer:         payer,
		LastBlockhash: bank.latestBlockhash(),
	}, nil
}
