package run

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Execute a scenario file against a fresh bank",
	Args:  cobra.ExactArgs(1),
	Run:   run,
}

var (
	flagFormat string
	flagDump   string
)

const (
	formatTable = "table"
	formatYaml  = "yaml"
)

func init() {
	Cmd.Flags().StringVarP(&flagFormat, "format", "f", "", "output format: table or yaml (default table on a terminal)")
	Cmd.Flags().StringVar(&flagDump, "dump", "", "write final account states to this file")
}

func run(c *cobra.Command, args []string) {
	f, err := os.Open(args[0])
	if err != nil {
		klog.Fatalf("opening scenario: %s", err)
	}
	scenario, err := ParseScenario(f)
	f.Close()
	if err != nil {
		klog.Fatal(err)
	}

	report, err := Execute(scenario)
	if err != nil {
		klog.Fatalf("scenario %s failed: %s", args[0], err)
	}

	format := flagFormat
	if format == "" {
		format = formatYaml
		if isatty.IsTerminal(os.Stdout.Fd()) {
			format = formatTable
		}
	}

	err = WriteReport(os.Stdout, report, format)
	if err != nil {
		klog.Fatal(err)
	}

	if flagDump != "" {
		err = dumpToFile(report, flagDump)
		if err != nil {
			klog.Fatalf("writing dump: %s", err)
		}
		klog.Infof("wrote %d accounts to %s", len(report.Accounts), flagDump)
	}
}

func dumpToFile(report *Report, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	err = report.DumpAccounts(out)
	if err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func WriteReport(w io.Writer, report *Report, format string) error {
	switch format {
	case formatYaml:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		err := encoder.Encode(report)
		if err != nil {
			return err
		}
		return encoder.Close()
	case formatTable:
		_, err := fmt.Fprintln(w, renderTable(report))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// renderTable lays the report out one account per row. Hashes are shortened
// to their first 16 hex digits.
func renderTable(report *Report) string {
	rows := make([][]string, 0, len(report.Accounts))
	for _, acct := range report.Accounts {
		tokens := "-"
		if acct.TokenAmount != nil {
			tokens = fmt.Sprintf("%d", *acct.TokenAmount)
		}
		hash := acct.Hash
		if len(hash) > 16 {
			hash = hash[:16]
		}
		rows = append(rows, []string{
			acct.Name,
			acct.Pubkey,
			fmt.Sprintf("%d", acct.Lamports),
			acct.Owner,
			fmt.Sprintf("%d", acct.DataLen),
			tokens,
			hash,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("NAME", "PUBKEY", "LAMPORTS", "OWNER", "DATA", "TOKENS", "HASH").
		Rows(rows...)

	return t.String()
}
