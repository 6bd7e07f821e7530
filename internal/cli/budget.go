package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tally/internal/budget"
	"tally/internal/models"
)

func newBudgetCmd() *cobra.Command {
	var (
		file     string
		month    string
		limit    string
		yearly   string
		currency string
		negative bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Evaluate a month's spending against limits",
		Long: `Evaluate a month's spending against limits.

Positive amounts count as spending and negative amounts as refunds. Use
--debits-negative when the export records spending as negative numbers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month == "" {
				month = budget.MonthOf(time.Now())
			}
			if _, _, err := budget.MonthBounds(month); err != nil {
				return fmt.Errorf("invalid --month %q: use YYYY-MM", month)
			}

			cfg := &models.BudgetConfig{Currency: strings.ToUpper(currency)}
			var err error
			if cfg.MonthlyLimit, err = parseLimit("limit", limit); err != nil {
				return err
			}
			if cfg.YearlyLimit, err = parseLimit("yearly-limit", yearly); err != nil {
				return err
			}

			if err := requireFile(file); err != nil {
				return err
			}
			loaded, err := LoadTransactionsFile(file)
			if err != nil {
				return err
			}

			if negative {
				for i := range loaded.Transactions {
					loaded.Transactions[i].Amount = loaded.Transactions[i].Amount.Neg()
				}
			}

			status, err := budget.Evaluate(month, loaded.Transactions, nil, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, status)
			}

			fmt.Fprintf(out, "Month:         %s\n", status.Month)
			fmt.Fprintf(out, "Spent:         %s\n", status.TotalSpent.StringFixed(2))
			fmt.Fprintf(out, "Year to date:  %s\n", status.YearToDate.StringFixed(2))
			if !status.IsOverBudget {
				fmt.Fprintln(out, "Within budget.")
				return nil
			}
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "BREACH\tSPENT\tLIMIT\tOVER BY")
			for _, b := range status.Breaches {
				scope := string(b.Type)
				if b.CategoryID != "" {
					scope += " " + b.CategoryID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", scope,
					b.Spent.StringFixed(2), b.Limit.StringFixed(2), b.Overage.StringFixed(2))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV export to read")
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to evaluate, YYYY-MM (default current month)")
	cmd.Flags().StringVarP(&limit, "limit", "l", "", "Monthly spending limit")
	cmd.Flags().StringVar(&yearly, "yearly-limit", "", "Yearly spending limit")
	cmd.Flags().StringVarP(&currency, "currency", "c", "", "Only count transactions in this currency")
	cmd.Flags().BoolVar(&negative, "debits-negative", false, "The export records spending as negative amounts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func parseLimit(flag, raw string) (models.Optional[decimal.Decimal], error) {
	if raw == "" {
		return models.None[decimal.Decimal](), nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return models.None[decimal.Decimal](), fmt.Errorf("invalid --%s %q", flag, raw)
	}
	return models.Some(v), nil
}
