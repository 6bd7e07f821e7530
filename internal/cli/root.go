// Package cli implements the tally command line: offline pattern detection
// and budget checks over a CSV export.
package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tally/internal/logger"
)

// NewRootCmd builds the tally command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "tally",
		Short: "Find recurring payments and check budgets in a transaction export",
		Long: `tally reads a CSV export with the columns id,date,merchant,amount,currency[,category_id]
and reports recurring payment patterns or budget status for a month.

Amounts are signed: a positive amount is money spent and a negative amount is
a refund or credit. Pattern detection compares absolute amounts, so the sign
does not matter there, but budgets sum the signed values. For exports that
record debits as negative numbers, pass --debits-negative to budget.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env := "test"
			if verbose {
				env = "development"
			}
			logger.Init(env)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log skipped rows and detection warnings to stderr")

	root.AddCommand(newDetectCmd(), newBudgetCmd())
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	defer logger.Sync()
	return NewRootCmd().Execute()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireFile(path string) error {
	_, err := os.Stat(path)
	return err
}
