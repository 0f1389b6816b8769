package run

import (
	"bytes"
	"os"
	"strings"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/programtest/pkg/accounts"
	"go.firedancer.io/programtest/pkg/token"
	"gopkg.in/yaml.v3"
)

const tokenScenario = `
accounts:
  - name: alice
    lamports: 1000000000
  - name: bob
mints:
  - name: usdc
    authority: alice
token_accounts:
  - name: alice_usdc
    mint: usdc
    owner: alice
  - name: bob_usdc
    mint: usdc
    owner: bob
steps:
  - transfer:
      from: alice
      to: bob
      lamports: 250000
  - mint_to:
      mint: usdc
      to: alice_usdc
      authority: alice
      amount: 100
  - token_transfer:
      from: alice_usdc
      to: bob_usdc
      owner: alice
      amount: 40
  - token_transfer:
      from: alice_usdc
      to: bob_usdc
      owner: alice
      amount: 1000
    expect_error: InstrErrCustom(1)
`

func mustParse(t *testing.T, text string) *Scenario {
	scenario, err := ParseScenario(strings.NewReader(text))
	require.NoError(t, err)
	return scenario
}

func reportRow(t *testing.T, report *Report, name string) AccountReport {
	for _, row := range report.Accounts {
		if row.Name == name {
			return row
		}
	}
	t.Fatalf("no row for %s", name)
	return AccountReport{}
}

func TestScenario_TokenFlow(t *testing.T) {
	report, err := Execute(mustParse(t, tokenScenario))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Steps)
	require.Len(t, report.Accounts, 6)
	assert.Equal(t, "payer", report.Accounts[0].Name)

	assert.Equal(t, uint64(1000000000-250000), reportRow(t, report, "alice").Lamports)
	assert.Equal(t, uint64(250000), reportRow(t, report, "bob").Lamports)

	aliceTokens := reportRow(t, report, "alice_usdc")
	require.NotNil(t, aliceTokens.TokenAmount)
	assert.Equal(t, uint64(60), *aliceTokens.TokenAmount)
	assert.Equal(t, token.ProgramID.String(), aliceTokens.Owner)
	assert.Equal(t, token.AccountLen, aliceTokens.DataLen)

	bobTokens := reportRow(t, report, "bob_usdc")
	require.NotNil(t, bobTokens.TokenAmount)
	assert.Equal(t, uint64(40), *bobTokens.TokenAmount)

	usdc := reportRow(t, report, "usdc")
	assert.Nil(t, usdc.TokenAmount)
	assert.Equal(t, token.MintLen, usdc.DataLen)
	assert.NotEqual(t, usdc.Hash, aliceTokens.Hash)
}

func TestScenario_RepeatedStepsAreDistinct(t *testing.T) {
	report, err := Execute(mustParse(t, `
accounts:
  - name: alice
    lamports: 1000
  - name: bob
steps:
  - transfer: {from: alice, to: bob, lamports: 100}
  - transfer: {from: alice, to: bob, lamports: 100}
`))
	require.NoError(t, err)
	assert.Equal(t, uint64(800), reportRow(t, report, "alice").Lamports)
	assert.Equal(t, uint64(200), reportRow(t, report, "bob").Lamports)
}

func TestScenario_Errors(t *testing.T) {
	t.Run("unexpected failure", func(t *testing.T) {
		_, err := Execute(mustParse(t, `
accounts:
  - name: alice
    lamports: 10
  - name: bob
steps:
  - transfer: {from: alice, to: bob, lamports: 11}
`))
		assert.ErrorContains(t, err, "step 0")
	})

	t.Run("expected failure", func(t *testing.T) {
		report, err := Execute(mustParse(t, `
accounts:
  - name: alice
    lamports: 10
  - name: bob
steps:
  - transfer: {from: alice, to: bob, lamports: 11}
    expect_error: InstrErrCustom(1)
`))
		require.NoError(t, err)
		assert.Equal(t, uint64(10), reportRow(t, report, "alice").Lamports)
	})

	t.Run("expected failure succeeds", func(t *testing.T) {
		_, err := Execute(mustParse(t, `
accounts:
  - name: alice
    lamports: 10
  - name: bob
steps:
  - transfer: {from: alice, to: bob, lamports: 1}
    expect_error: InstrErrCustom(1)
`))
		assert.ErrorContains(t, err, "step succeeded")
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := Execute(mustParse(t, `
steps:
  - transfer: {from: payer, to: carol, lamports: 1}
`))
		assert.ErrorIs(t, err, ErrUnknownName)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := Execute(mustParse(t, `
accounts:
  - name: alice
  - name: alice
`))
		assert.ErrorContains(t, err, "duplicate name")
	})

	t.Run("empty step", func(t *testing.T) {
		_, err := Execute(mustParse(t, `
steps:
  - expect_error: InstrErrCustom(1)
`))
		assert.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseScenario(strings.NewReader("acounts: []\n"))
		assert.Error(t, err)
	})
}

func TestScenario_CustomRent(t *testing.T) {
	_, err := Execute(mustParse(t, `
rent:
  lamports_per_byte_year: 1
  exemption_threshold: 1.0
  burn_percent: 0
mints:
  - name: cheap
`))
	require.NoError(t, err)
}

func TestWriteReport(t *testing.T) {
	amount := uint64(7)
	report := &Report{
		Steps: 1,
		Accounts: []AccountReport{
			{Name: "alice", Pubkey: "A1", Lamports: 5, Owner: "O", Hash: "00112233445566778899aabbccddeeff"},
			{Name: "alice_usdc", Pubkey: "A2", Lamports: 6, Owner: "T", DataLen: 165, TokenAmount: &amount},
		},
	}

	var table bytes.Buffer
	require.NoError(t, WriteReport(&table, report, formatTable))
	rendered := table.String()
	assert.Contains(t, rendered, "NAME")
	assert.Contains(t, rendered, "TOKENS")
	assert.Contains(t, rendered, "0011223344556677")
	assert.NotContains(t, rendered, "8899aabb")

	var aliceRow, usdcRow string
	for _, line := range strings.Split(rendered, "\n") {
		switch {
		case strings.Contains(line, "alice_usdc"):
			usdcRow = line
		case strings.Contains(line, "alice"):
			aliceRow = line
		}
	}
	assert.Contains(t, aliceRow, " - ")
	assert.Contains(t, usdcRow, "165")
	assert.Contains(t, usdcRow, " 7 ")

	var out bytes.Buffer
	require.NoError(t, WriteReport(&out, report, formatYaml))
	var decoded Report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, report.Accounts, decoded.Accounts)

	assert.Error(t, WriteReport(&out, report, "json"))
}

func TestReport_DumpAccounts(t *testing.T) {
	report, err := Execute(mustParse(t, `
accounts:
  - name: alice
    lamports: 1000
  - name: bob
    lamports: 2000
`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.DumpAccounts(&buf))

	decoder := bin.NewBinDecoder(buf.Bytes())
	count, err := decoder.ReadUint32(bin.LE)
	require.NoError(t, err)
	require.Equal(t, uint32(3), count)

	var prev *accounts.Account
	total := uint64(0)
	for i := uint32(0); i < count; i++ {
		acct := new(accounts.Account)
		require.NoError(t, acct.UnmarshalWithDecoder(decoder))
		if prev != nil {
			assert.Negative(t, bytes.Compare(prev.Key[:], acct.Key[:]))
		}
		total += acct.Lamports
		prev = acct
	}
	assert.Zero(t, decoder.Remaining())
	assert.Greater(t, total, uint64(3000))
}

func TestScenario_TestdataFile(t *testing.T) {
	f, err := os.Open("testdata/token_flow.yaml")
	require.NoError(t, err)
	defer f.Close()

	scenario, err := ParseScenario(f)
	require.NoError(t, err)
	report, err := Execute(scenario)
	require.NoError(t, err)

	bobTokens := reportRow(t, report, "bob_usdc")
	require.NotNil(t, bobTokens.TokenAmount)
	assert.Equal(t, uint64(40), *bobTokens.TokenAmount)
}
