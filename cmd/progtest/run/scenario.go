package run

import (
	"errors"
	"fmt"
	"io"
	"sort"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/programtest"
	"go.firedancer.io/programtest/pkg/sealevel"
	"go.firedancer.io/programtest/pkg/token"
	"go.firedancer.io/programtest/pkg/util"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// payerName refers to the bank's funded payer in a scenario.
const payerName = "payer"

type Scenario struct {
	ComputeMaxUnits uint64               `yaml:"compute_max_units"`
	Rent            *RentConfig          `yaml:"rent"`
	Accounts        []AccountConfig      `yaml:"accounts"`
	Mints           []MintConfig         `yaml:"mints"`
	TokenAccounts   []TokenAccountConfig `yaml:"token_accounts"`
	Steps           []Step               `yaml:"steps"`
}

type RentConfig struct {
	LamportsPerByteYear uint64  `yaml:"lamports_per_byte_year"`
	ExemptionThreshold  float64 `yaml:"exemption_threshold"`
	BurnPercent         uint8   `yaml:"burn_percent"`
}

type AccountConfig struct {
	Name     string `yaml:"name"`
	Lamports uint64 `yaml:"lamports"`
}

type MintConfig struct {
	Name            string `yaml:"name"`
	Authority       string `yaml:"authority"`
	FreezeAuthority string `yaml:"freeze_authority"`
}

type TokenAccountConfig struct {
	Name  string `yaml:"name"`
	Mint  string `yaml:"mint"`
	Owner string `yaml:"owner"`
}

// Step is one transaction. Exactly one of the action fields is set.
type Step struct {
	Transfer      *TransferStep      `yaml:"transfer"`
	MintTo        *MintToStep        `yaml:"mint_to"`
	TokenTransfer *TokenTransferStep `yaml:"token_transfer"`

	// ExpectError is the instruction error the step must fail with, by name
	ExpectError string `yaml:"expect_error"`
}

type TransferStep struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Lamports uint64 `yaml:"lamports"`
}

type MintToStep struct {
	Mint      string `yaml:"mint"`
	To        string `yaml:"to"`
	Authority string `yaml:"authority"`
	Amount    uint64 `yaml:"amount"`
}

type TokenTransferStep struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Owner  string `yaml:"owner"`
	Amount uint64 `yaml:"amount"`
}

// AccountReport is the final state of one named account.
type AccountReport struct {
	Name        string  `yaml:"name"`
	Pubkey      string  `yaml:"pubkey"`
	Lamports    uint64  `yaml:"lamports"`
	Owner       string  `yaml:"owner"`
	DataLen     int     `yaml:"data_len"`
	Hash        string  `yaml:"hash"`
	TokenAmount *uint64 `yaml:"token_amount,omitempty"`
}

type Report struct {
	Steps    int             `yaml:"steps"`
	Accounts []AccountReport `yaml:"accounts"`

	final []*accounts.Account
}

var ErrUnknownName = errors.New("unknown name")

func ParseScenario(r io.Reader) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	err := decoder.Decode(&scenario)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &scenario, nil
}

type runner struct {
	ctx   *programtest.Context
	keys  map[string]solana.PrivateKey
	order []string
	isTok map[string]bool
}

func (r *runner) key(name string) (solana.PrivateKey, error) {
	if name == payerName {
		return r.ctx.Payer, nil
	}
	key, ok := r.keys[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownName, name)
	}
	return key, nil
}

func (r *runner) pubkey(name string) (solana.PublicKey, error) {
	key, err := r.key(name)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return key.PublicKey(), nil
}

func (r *runner) newKey(name string) (solana.PrivateKey, error) {
	if name == payerName {
		return nil, fmt.Errorf("%q is reserved", payerName)
	}
	if _, exists := r.keys[name]; exists {
		return nil, fmt.Errorf("duplicate name %q", name)
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	r.keys[name] = key
	r.order = append(r.order, name)
	return key, nil
}

// Execute starts a bank, sets up the scenario's accounts, mints and token
// accounts, then runs its steps in order.
func Execute(scenario *Scenario) (*Report, error) {
	pt := programtest.New()
	if scenario.ComputeMaxUnits != 0 {
		pt.SetComputeMaxUnits(scenario.ComputeMaxUnits)
	}
	if scenario.Rent != nil {
		pt.SetRent(sealevel.SysvarRent{
			LamportsPerUint8Year: scenario.Rent.LamportsPerByteYear,
			ExemptionThreshold:   scenario.Rent.ExemptionThreshold,
			BurnPercent:          scenario.Rent.BurnPercent,
		})
	}

	r := &runner{keys: make(map[string]solana.PrivateKey), isTok: make(map[string]bool)}

	for _, acct := range scenario.Accounts {
		key, err := r.newKey(acct.Name)
		if err != nil {
			return nil, err
		}
		if acct.Lamports > 0 {
			pt.AddAccount(key.PublicKey(), &accounts.Account{Lamports: acct.Lamports, Owner: sealevel.SystemProgramAddr})
		}
	}

	ctx, err := pt.Start()
	if err != nil {
		return nil, err
	}
	r.ctx = ctx

	for _, mint := range scenario.Mints {
		err = r.createMint(mint)
		if err != nil {
			return nil, fmt.Errorf("creating mint %q: %w", mint.Name, err)
		}
	}

	for _, tokenAcct := range scenario.TokenAccounts {
		err = r.createTokenAccount(tokenAcct)
		if err != nil {
			return nil, fmt.Errorf("creating token account %q: %w", tokenAcct.Name, err)
		}
	}

	for idx, step := range scenario.Steps {
		// a fresh blockhash per step keeps repeated steps distinct
		r.ctx.LastBlockhash = r.ctx.BanksClient.GetNewLatestBlockhash()

		err = r.runStep(step)
		err = checkExpectation(step.ExpectError, err)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", idx, err)
		}
		klog.V(1).Infof("step %d done", idx)
	}

	return r.report(len(scenario.Steps))
}

func (r *runner) createMint(mint MintConfig) error {
	key, err := r.newKey(mint.Name)
	if err != nil {
		return err
	}

	authorityName := mint.Authority
	if authorityName == "" {
		authorityName = payerName
	}
	authority, err := r.pubkey(authorityName)
	if err != nil {
		return err
	}

	var freezeAuthority *solana.PublicKey
	if mint.FreezeAuthority != "" {
		freeze, err := r.pubkey(mint.FreezeAuthority)
		if err != nil {
			return err
		}
		freezeAuthority = &freeze
	}

	return programtest.CreateMint(r.ctx, key, authority, freezeAuthority)
}

func (r *runner) createTokenAccount(tokenAcct TokenAccountConfig) error {
	key, err := r.newKey(tokenAcct.Name)
	if err != nil {
		return err
	}
	r.isTok[tokenAcct.Name] = true

	mint, err := r.pubkey(tokenAcct.Mint)
	if err != nil {
		return err
	}
	owner, err := r.pubkey(tokenAcct.Owner)
	if err != nil {
		return err
	}

	return programtest.CreateTokenAccount(r.ctx, key, mint, owner)
}

func (r *runner) runStep(step Step) error {
	switch {
	case step.Transfer != nil:
		from, err := r.key(step.Transfer.From)
		if err != nil {
			return err
		}
		to, err := r.pubkey(step.Transfer.To)
		if err != nil {
			return err
		}
		instrs := []solana.Instruction{sealevel.NewTransferInstruction(from.PublicKey(), to, step.Transfer.Lamports)}
		return r.ctx.SignAndProcess(instrs, from)

	case step.MintTo != nil:
		mint, err := r.pubkey(step.MintTo.Mint)
		if err != nil {
			return err
		}
		to, err := r.pubkey(step.MintTo.To)
		if err != nil {
			return err
		}
		authorityName := step.MintTo.Authority
		if authorityName == "" {
			authorityName = payerName
		}
		authority, err := r.key(authorityName)
		if err != nil {
			return err
		}
		return programtest.MintTokens(r.ctx, mint, to, step.MintTo.Amount, authority.PublicKey(), &authority)

	case step.TokenTransfer != nil:
		from, err := r.pubkey(step.TokenTransfer.From)
		if err != nil {
			return err
		}
		to, err := r.pubkey(step.TokenTransfer.To)
		if err != nil {
			return err
		}
		owner, err := r.key(step.TokenTransfer.Owner)
		if err != nil {
			return err
		}
		return programtest.TransferTokens(r.ctx, from, to, owner, step.TokenTransfer.Amount)

	default:
		return errors.New("step has no action")
	}
}

// checkExpectation compares a step outcome against the error it was expected
// to fail with.
func checkExpectation(expected string, err error) error {
	if expected == "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("expected error %s, step succeeded", expected)
	}

	var txErr *programtest.TransactionError
	if !errors.As(err, &txErr) {
		return err
	}
	if txErr.Err.Error() != expected {
		return fmt.Errorf("expected error %s, got %w", expected, txErr.Err)
	}
	return nil
}

func (r *runner) report(steps int) (*Report, error) {
	report := &Report{Steps: steps}

	names := append([]string{payerName}, r.order...)
	for _, name := range names {
		pubkey, err := r.pubkey(name)
		if err != nil {
			return nil, err
		}

		acct, err := r.ctx.BanksClient.GetAccount(pubkey)
		if err != nil {
			return nil, err
		}
		if acct == nil {
			acct = &accounts.Account{Key: pubkey, Owner: sealevel.SystemProgramAddr}
		}
		report.final = append(report.final, acct)

		row := AccountReport{
			Name:     name,
			Pubkey:   pubkey.String(),
			Lamports: acct.Lamports,
			Owner:    acct.Owner.String(),
			DataLen:  len(acct.Data),
			Hash:     fmt.Sprintf("%x", util.CalculateAcctHash(*acct)),
		}
		if r.isTok[name] {
			tokenAcct, err := token.UnpackAccount(acct.Data)
			if err == nil {
				amount := tokenAcct.Amount
				row.TokenAmount = &amount
			}
		}
		report.Accounts = append(report.Accounts, row)
	}

	return report, nil
}

// DumpAccounts writes the final account states in key order using the
// accounts binary codec.
func (report *Report) DumpAccounts(w io.Writer) error {
	final := make([]*accounts.Account, len(report.final))
	copy(final, report.final)
	sort.Slice(final, func(i, j int) bool {
		return util.PubkeyCmp(final[i].Key, final[j].Key)
	})

	encoder := bin.NewBinEncoder(w)
	err := encoder.WriteUint32(uint32(len(final)), bin.LE)
	if err != nil {
		return err
	}
	for _, acct := range final {
		err = acct.MarshalWithEncoder(encoder)
		if err != nil {
			return err
		}
	}
	return nil
}
