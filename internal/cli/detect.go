package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tally/internal/logger"
	"tally/internal/recurring"
)

func newDetectCmd() *cobra.Command {
	var (
		file          string
		minConfidence float64
		allowCustom   bool
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "List recurring payment patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFile(file); err != nil {
				return err
			}
			loaded, err := LoadTransactionsFile(file)
			if err != nil {
				return err
			}

			cfg := recurring.DefaultConfig()
			cfg.MinConfidence = minConfidence
			cfg.AllowCustom = allowCustom
			// Exports are historical; anchor the lookback at the newest row.
			if latest, ok := latestDate(loaded); ok {
				cfg.Now = func() time.Time { return latest }
			}
			detector := recurring.NewDetector(cfg, recurring.WithGroupErrorHandler(func(merchant string, err error) {
				logger.Named("cli").Warnw("skipped merchant group", "merchant", merchant, "error", err)
			}))
			patterns := detector.DetectPatterns(loaded.Transactions)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, patterns)
			}

			fmt.Fprintf(out, "%d transactions read, %d skipped, %d patterns found\n\n",
				len(loaded.Transactions), loaded.Skipped, len(patterns))
			if len(patterns) == 0 {
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MERCHANT\tAMOUNT\tFREQUENCY\tCONFIDENCE\tNEXT\tMONTHLY\tFLAGS")
			for _, p := range patterns {
				flags := make([]string, len(p.Flags))
				for i, f := range p.Flags {
					flags[i] = string(f)
				}
				fmt.Fprintf(tw, "%s\t%s %s\t%s\t%.2f\t%s\t%s\t%s\n",
					p.RepresentativeMerchantName,
					p.RepresentativeAmount.StringFixed(2), p.Currency,
					p.Frequency,
					p.Confidence,
					p.PredictedNextDate.Format(time.DateOnly),
					p.MonthlyCost().StringFixed(2),
					strings.Join(flags, ","),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV export to read")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", recurring.DefaultMinConfidence, "Drop patterns scoring below this; 0 keeps every pattern")
	cmd.Flags().BoolVar(&allowCustom, "allow-custom", false, "Keep patterns whose cadence matches no standard frequency")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print patterns as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func latestDate(loaded *LoadResult) (time.Time, bool) {
	var latest time.Time
	for _, tx := range loaded.Transactions {
		if tx.Date.After(latest) {
			latest = tx.Date
		}
	}
	return latest, !latest.IsZero()
}
